package subscription

import (
	"context"

	"github.com/google/uuid"
)

// Store defines subscription persistence.
//
// The reconciliation engine performs an unguarded load-mutate-save cycle per
// webhook event; the provider gives no ordering guarantee across deliveries
// for the same subscription. Implementations that must be strictly safe
// under concurrent delivery are expected to provide last-write-wins or
// optimistic-concurrency semantics in Save.
type Store interface {
	// Find retrieves a subscription by its internal id.
	// Returns ErrNotFound if no subscription exists.
	Find(ctx context.Context, id uuid.UUID) (*Subscription, error)

	// Save creates or updates a subscription together with its items.
	Save(ctx context.Context, sub *Subscription) error
}
