package paddle

import (
	"context"
	"fmt"

	paddle "github.com/PaddleHQ/paddle-go-sdk/v4"
)

// CancelSubscription asks Paddle to cancel the subscription with the given
// external id, either at the end of the current billing period or
// immediately. The local aggregate is not touched here: Paddle confirms the
// cancellation through a webhook event which the reconciliation engine
// applies.
func (p *Provider) CancelSubscription(ctx context.Context, externalID string, atPeriodEnd bool) error {
	if externalID == "" {
		return ErrMissingSubscriptionID
	}

	effective := paddle.EffectiveFromImmediately
	if atPeriodEnd {
		effective = paddle.EffectiveFromNextBillingPeriod
	}

	_, err := p.client.SubscriptionsClient.CancelSubscription(ctx, &paddle.CancelSubscriptionRequest{
		SubscriptionID: externalID,
		EffectiveFrom:  paddle.PtrTo(effective),
	})
	if err != nil {
		return fmt.Errorf("failed to cancel paddle subscription %s: %w", externalID, err)
	}
	return nil
}

// PauseSubscription pauses billing for the subscription. Takes effect at the
// end of the current billing period, Paddle's default for pauses.
func (p *Provider) PauseSubscription(ctx context.Context, externalID string) error {
	if externalID == "" {
		return ErrMissingSubscriptionID
	}

	_, err := p.client.SubscriptionsClient.PauseSubscription(ctx, &paddle.PauseSubscriptionRequest{
		SubscriptionID: externalID,
	})
	if err != nil {
		return fmt.Errorf("failed to pause paddle subscription %s: %w", externalID, err)
	}
	return nil
}

// ResumeSubscription resumes a paused subscription immediately.
func (p *Provider) ResumeSubscription(ctx context.Context, externalID string) error {
	if externalID == "" {
		return ErrMissingSubscriptionID
	}

	_, err := p.client.SubscriptionsClient.ResumeSubscription(ctx, &paddle.ResumeSubscriptionRequest{
		SubscriptionID: externalID,
	})
	if err != nil {
		return fmt.Errorf("failed to resume paddle subscription %s: %w", externalID, err)
	}
	return nil
}
