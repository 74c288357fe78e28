package paddle

import "errors"

var (
	ErrMissingAPIKey         = errors.New("paddle API key is required")
	ErrMissingWebhookSecret  = errors.New("paddle webhook secret is required")
	ErrInvalidEnvironment    = errors.New("invalid paddle environment")
	ErrMissingPriceID        = errors.New("price ID is required")
	ErrMissingSubscriptionID = errors.New("subscription ID is required")
	ErrNoCheckoutURL         = errors.New("no checkout URL returned from paddle")
	ErrVerificationFailed    = errors.New("webhook signature verification failed")
	ErrMalformedPayload      = errors.New("malformed webhook payload")
)
