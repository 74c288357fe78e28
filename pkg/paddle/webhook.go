package paddle

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dmitrymomot/subsync/pkg/reconcile"
)

// Paddle webhook event types this adapter reconciles. Everything else
// classifies as reconcile.KindOther and is ignored by the engine.
const (
	eventSubscriptionCreated  = "subscription.created"
	eventSubscriptionUpdated  = "subscription.updated"
	eventSubscriptionTrialing = "subscription.trialing"
	eventSubscriptionActive   = "subscription.activated"
	eventSubscriptionPastDue  = "subscription.past_due"
	eventSubscriptionCanceled = "subscription.canceled"
	eventSubscriptionPaused   = "subscription.paused"
	eventSubscriptionResumed  = "subscription.resumed"
)

// scheduled_change actions Paddle reports on a subscription.
const (
	scheduledChangeCancel = "cancel"
	scheduledChangePause  = "pause"
)

type webhookEnvelope struct {
	EventID   string          `json:"event_id"`
	EventType string          `json:"event_type"`
	Data      json.RawMessage `json:"data"`
}

type webhookSubscription struct {
	ID              string            `json:"id"`
	Status          string            `json:"status"`
	CustomData      map[string]any    `json:"custom_data"`
	ScheduledChange *scheduledChange  `json:"scheduled_change"`
	BillingPeriod   *billingPeriod    `json:"current_billing_period"`
	Items           []webhookLineItem `json:"items"`
}

type scheduledChange struct {
	Action      string `json:"action"`
	EffectiveAt string `json:"effective_at"`
}

type billingPeriod struct {
	StartsAt time.Time `json:"starts_at"`
	EndsAt   time.Time `json:"ends_at"`
}

type webhookLineItem struct {
	ID            string         `json:"id"`
	Quantity      int            `json:"quantity"`
	CustomData    map[string]any `json:"custom_data"`
	BillingPeriod *billingPeriod `json:"current_billing_period"`
	Price         struct {
		ID         string         `json:"id"`
		ProductID  string         `json:"product_id"`
		CustomData map[string]any `json:"custom_data"`
	} `json:"price"`
}

// VerifyAndParse checks the Paddle-Signature of an inbound webhook request
// and decodes its payload into a reconciliation event. The request body is
// restored so callers may re-read it.
func (p *Provider) VerifyAndParse(r *http.Request) (reconcile.Event, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return reconcile.Event{}, errors.Join(ErrMalformedPayload, err)
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	valid, err := p.verifier.Verify(r)
	if err != nil {
		return reconcile.Event{}, errors.Join(ErrVerificationFailed, err)
	}
	if !valid {
		return reconcile.Event{}, ErrVerificationFailed
	}

	r.Body = io.NopCloser(bytes.NewReader(body))
	return ParseEvent(body)
}

// ParseEvent decodes a raw Paddle webhook payload into a reconciliation
// event. Events that do not describe a subscription decode to KindOther with
// no subscription payload, which the engine ignores.
func ParseEvent(payload []byte) (reconcile.Event, error) {
	var envelope webhookEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return reconcile.Event{}, errors.Join(ErrMalformedPayload, err)
	}

	kind := mapEventKind(envelope.EventType)
	if kind == reconcile.KindOther {
		return reconcile.Event{Kind: kind}, nil
	}

	var data webhookSubscription
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		return reconcile.Event{}, errors.Join(ErrMalformedPayload,
			fmt.Errorf("event %s (%s): %w", envelope.EventID, envelope.EventType, err))
	}

	sub := &reconcile.ProviderSubscription{
		ExternalID: data.ID,
		Status:     data.Status,
		Metadata:   stringMetadata(data.CustomData),
	}

	if sc := data.ScheduledChange; sc != nil {
		switch sc.Action {
		case scheduledChangeCancel:
			sub.CancelAtPeriodEnd = true
		case scheduledChangePause:
			sub.Pause = &reconcile.PauseMarker{Behavior: sc.Action}
		}
	}

	for _, item := range data.Items {
		line := reconcile.LineItem{
			ExternalID:      item.ID,
			PriceExternalID: item.Price.ID,
			Quantity:        item.Quantity,
			Metadata:        stringMetadata(item.CustomData),
		}
		// Internal item ids may also ride on the price's custom data when
		// the line itself carries none.
		if line.Metadata == nil {
			line.Metadata = stringMetadata(item.Price.CustomData)
		}
		// Paddle reports one billing period per subscription; item-level
		// periods take precedence when present.
		if period := item.BillingPeriod; period != nil {
			line.PeriodStart, line.PeriodEnd = period.StartsAt, period.EndsAt
		} else if period := data.BillingPeriod; period != nil {
			line.PeriodStart, line.PeriodEnd = period.StartsAt, period.EndsAt
		}
		sub.Items = append(sub.Items, line)
	}

	return reconcile.Event{Kind: kind, Subscription: sub}, nil
}

func mapEventKind(eventType string) reconcile.Kind {
	switch eventType {
	case eventSubscriptionCreated:
		return reconcile.KindCreated
	case eventSubscriptionUpdated, eventSubscriptionTrialing, eventSubscriptionActive, eventSubscriptionPastDue:
		return reconcile.KindUpdated
	case eventSubscriptionCanceled:
		return reconcile.KindDeleted
	case eventSubscriptionPaused:
		return reconcile.KindPaused
	case eventSubscriptionResumed:
		return reconcile.KindResumed
	default:
		return reconcile.KindOther
	}
}

// stringMetadata keeps only the string values of a custom data object;
// Paddle allows arbitrary JSON but identity metadata is always flat strings.
func stringMetadata(custom map[string]any) map[string]string {
	if len(custom) == 0 {
		return nil
	}
	meta := make(map[string]string, len(custom))
	for k, v := range custom {
		if s, ok := v.(string); ok {
			meta[k] = s
		}
	}
	if len(meta) == 0 {
		return nil
	}
	return meta
}
