package paddle

import (
	"errors"
	"fmt"
	"strings"

	paddle "github.com/PaddleHQ/paddle-go-sdk/v4"
)

// ProviderName is the identity-mapping scope for entities owned by Paddle.
const ProviderName = "paddle"

// Provider wraps the Paddle SDK with the narrow surface this system needs:
// checkout session creation, direct subscription mutations, and webhook
// verification/decoding. Everything stateful lives on Paddle's side; the
// provider itself is safe for concurrent use.
type Provider struct {
	client   *paddle.SDK
	verifier *paddle.WebhookVerifier
	config   Config
}

// NewProvider creates a Paddle provider for the configured environment.
func NewProvider(config Config) (*Provider, error) {
	if config.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if config.WebhookSecret == "" {
		return nil, ErrMissingWebhookSecret
	}

	var client *paddle.SDK
	var err error

	switch strings.ToLower(config.Environment) {
	case "sandbox":
		client, err = paddle.NewSandbox(config.APIKey)
	case "production", "":
		client, err = paddle.New(config.APIKey)
	default:
		return nil, errors.Join(ErrInvalidEnvironment, fmt.Errorf("environment %q", config.Environment))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create paddle client: %w", err)
	}

	return &Provider{
		client:   client,
		verifier: paddle.NewWebhookVerifier(config.WebhookSecret),
		config:   config,
	}, nil
}
