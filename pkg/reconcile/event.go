package reconcile

import "time"

// Kind classifies a provider event. Provider-specific event names are mapped
// to this closed set at the transport edge; anything the engine does not
// reconcile arrives as KindOther and is ignored.
type Kind string

const (
	KindCreated Kind = "created"
	KindUpdated Kind = "updated"
	KindDeleted Kind = "deleted"
	KindPaused  Kind = "paused"
	KindResumed Kind = "resumed"
	KindOther   Kind = "other"
)

// Metadata keys this system embeds into provider objects at creation time so
// that webhook events can be correlated back before any identity mapping
// exists.
const (
	MetadataSubscriptionID = "internal_subscription_id"
	MetadataItemID         = "internal_item_id"
)

// Provider-reported status strings the engine acts on. Statuses outside this
// set (past_due, incomplete, ...) leave the aggregate's status untouched.
const (
	statusActive   = "active"
	statusTrialing = "trialing"
	statusCanceled = "canceled"
)

// Event is one inbound provider event. Events are externally generated,
// immutable inputs; the engine never persists them. Subscription is nil when
// the event's reported object is not a subscription representation, in which
// case the engine ignores the event entirely.
type Event struct {
	Kind         Kind
	Subscription *ProviderSubscription
}

// ProviderSubscription is the provider-side view of a subscription as
// carried on a webhook event.
type ProviderSubscription struct {
	ExternalID        string
	Status            string
	CancelAtPeriodEnd bool
	Pause             *PauseMarker // nil when the subscription is not paused
	Metadata          map[string]string
	Items             []LineItem
}

// PauseMarker signals a provider-side pause. Behavior is an opaque
// provider-defined string (e.g. "freeze", "void") that the engine carries
// for logging but does not interpret.
type PauseMarker struct {
	Behavior string
}

// LineItem is one provider-side subscription line.
type LineItem struct {
	ExternalID      string
	PriceExternalID string
	Quantity        int
	Metadata        map[string]string
	PeriodStart     time.Time
	PeriodEnd       time.Time
}

func activatable(status string) bool {
	return status == statusActive || status == statusTrialing
}
