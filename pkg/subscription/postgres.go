package subscription

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore returns a Store backed by the subscriptions and
// subscription_items tables (see pkg/pg/migrations). Item order is preserved
// through an explicit position column since the price-based resolution
// fallback depends on stable item ordering.
//
// Panics if pool is nil to fail fast during initialization.
func NewPostgresStore(pool *pgxpool.Pool) Store {
	if pool == nil {
		panic("subscription: pgx pool is required")
	}
	return &postgresStore{pool: pool}
}

func (s *postgresStore) Find(ctx context.Context, id uuid.UUID) (*Subscription, error) {
	var sub Subscription
	err := s.pool.QueryRow(ctx,
		`SELECT id, status, cancel_at_period_end, canceled_at, trial_ends_at, created_at, updated_at
		 FROM subscriptions WHERE id = $1`, id).
		Scan(&sub.ID, &sub.Status, &sub.CancelAtPeriodEnd, &sub.CanceledAt, &sub.TrialEndsAt, &sub.CreatedAt, &sub.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Join(ErrLoadFailed, err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, price_id, quantity, current_period_start, current_period_end
		 FROM subscription_items WHERE subscription_id = $1 ORDER BY position`, id)
	if err != nil {
		return nil, errors.Join(ErrLoadFailed, err)
	}
	defer rows.Close()

	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.ID, &item.PriceID, &item.Quantity, &item.CurrentPeriodStart, &item.CurrentPeriodEnd); err != nil {
			return nil, errors.Join(ErrLoadFailed, err)
		}
		sub.Items = append(sub.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Join(ErrLoadFailed, err)
	}

	return &sub, nil
}

func (s *postgresStore) Save(ctx context.Context, sub *Subscription) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return errors.Join(ErrSaveFailed, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx,
		`INSERT INTO subscriptions (id, status, cancel_at_period_end, canceled_at, trial_ends_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (id) DO UPDATE SET
		   status = EXCLUDED.status,
		   cancel_at_period_end = EXCLUDED.cancel_at_period_end,
		   canceled_at = EXCLUDED.canceled_at,
		   trial_ends_at = EXCLUDED.trial_ends_at,
		   updated_at = EXCLUDED.updated_at`,
		sub.ID, sub.Status, sub.CancelAtPeriodEnd, sub.CanceledAt, sub.TrialEndsAt, sub.CreatedAt, sub.UpdatedAt)
	if err != nil {
		return errors.Join(ErrSaveFailed, err)
	}

	// Items are replaced wholesale: the aggregate owns them exclusively and
	// the set is small, so a delete-and-insert keeps positions consistent
	// without diffing.
	if _, err := tx.Exec(ctx, `DELETE FROM subscription_items WHERE subscription_id = $1`, sub.ID); err != nil {
		return errors.Join(ErrSaveFailed, err)
	}
	for i, item := range sub.Items {
		_, err := tx.Exec(ctx,
			`INSERT INTO subscription_items (id, subscription_id, position, price_id, quantity, current_period_start, current_period_end)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			item.ID, sub.ID, i, item.PriceID, item.Quantity, item.CurrentPeriodStart, item.CurrentPeriodEnd)
		if err != nil {
			return errors.Join(ErrSaveFailed, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Join(ErrSaveFailed, err)
	}
	return nil
}
