package subscription

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// Status represents the lifecycle state of a subscription.
type Status string

const (
	StatusIncomplete Status = "incomplete" // created, payment not yet confirmed
	StatusTrialing   Status = "trialing"
	StatusActive     Status = "active"
	StatusPaused     Status = "paused"
	StatusCanceled   Status = "canceled"
)

// Item is one billable line of a subscription. Its billing period is unset
// until the first activation synchronizes it from the provider.
type Item struct {
	ID                 uuid.UUID
	PriceID            string // internal price id
	Quantity           int
	CurrentPeriodStart *time.Time
	CurrentPeriodEnd   *time.Time
}

// Subscription is the locally-owned subscription aggregate. All transitions
// are expressed as value methods returning the next state, so a sequence of
// independent signals from one provider event can be composed before the
// result is persisted once:
//
//	sub = sub.Activate()
//	sub = sub.Cancel(true)
//	err := store.Save(ctx, &sub)
type Subscription struct {
	ID                uuid.UUID
	Status            Status
	CancelAtPeriodEnd bool
	CanceledAt        *time.Time // set when canceled or scheduled to cancel
	TrialEndsAt       *time.Time // set only for subscriptions with trials
	Items             []Item
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// New returns an incomplete subscription with the given items.
// It becomes billable via Activate once the provider confirms payment.
func New(id uuid.UUID, items ...Item) Subscription {
	now := time.Now().UTC()
	return Subscription{
		ID:        id,
		Status:    StatusIncomplete,
		Items:     slices.Clone(items),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s Subscription) IsActive() bool   { return s.Status == StatusActive }
func (s Subscription) IsTrialing() bool { return s.Status == StatusTrialing }
func (s Subscription) IsPaused() bool   { return s.Status == StatusPaused }
func (s Subscription) IsCanceled() bool { return s.Status == StatusCanceled }

// IsBillable reports whether the subscription is in a state that grants
// access, either paid or within its trial window.
func (s Subscription) IsBillable() bool {
	return s.IsActive() || s.IsTrialing()
}

// Activate marks the subscription billable. A subscription whose trial window
// is still open activates into trialing; everything else becomes active.
// Activating an already active subscription is a no-op.
func (s Subscription) Activate() Subscription {
	next := s.clone()
	if s.TrialEndsAt != nil && time.Now().UTC().Before(*s.TrialEndsAt) {
		next.Status = StatusTrialing
	} else {
		next.Status = StatusActive
	}
	next.touch()
	return *next
}

// Cancel ends the subscription. With atPeriodEnd the subscription stays in
// its current status and only the cancellation is scheduled; otherwise the
// status flips to canceled immediately. The cancellation timestamp is set
// once and preserved on repeated application.
func (s Subscription) Cancel(atPeriodEnd bool) Subscription {
	next := s.clone()
	if atPeriodEnd {
		next.CancelAtPeriodEnd = true
	} else {
		next.Status = StatusCanceled
		next.CancelAtPeriodEnd = false
	}
	if next.CanceledAt == nil {
		now := time.Now().UTC()
		next.CanceledAt = &now
	}
	next.touch()
	return *next
}

// Pause suspends billing without ending the subscription.
func (s Subscription) Pause() Subscription {
	next := s.clone()
	next.Status = StatusPaused
	next.touch()
	return *next
}

// Resume lifts a pause. The subscription returns to active; callers that
// know the provider-side status follow up with Activate to settle the exact
// state. Resuming a subscription that is not paused is a no-op.
func (s Subscription) Resume() Subscription {
	if s.Status != StatusPaused {
		return s
	}
	next := s.clone()
	next.Status = StatusActive
	next.touch()
	return *next
}

// SetItemPeriod sets the current billing period of one item to the given
// absolute instants. Returns ErrItemNotFound when no item has the given id.
func (s Subscription) SetItemPeriod(itemID uuid.UUID, start, end time.Time) (Subscription, error) {
	next := s.clone()
	for i := range next.Items {
		if next.Items[i].ID == itemID {
			start, end := start.UTC(), end.UTC()
			next.Items[i].CurrentPeriodStart = &start
			next.Items[i].CurrentPeriodEnd = &end
			next.touch()
			return *next, nil
		}
	}
	return s, ErrItemNotFound
}

// Item returns the item with the given id, if any.
func (s Subscription) Item(itemID uuid.UUID) (Item, bool) {
	for _, item := range s.Items {
		if item.ID == itemID {
			return item, true
		}
	}
	return Item{}, false
}

// clone deep-copies the aggregate so transitions never alias the receiver's
// item slice.
func (s Subscription) clone() *Subscription {
	next := s
	next.Items = slices.Clone(s.Items)
	return &next
}

func (s *Subscription) touch() {
	s.UpdatedAt = time.Now().UTC()
}
