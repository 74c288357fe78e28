package idmap

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore returns a Store backed by the identity_mappings table
// (see pkg/pg/migrations). Writes use ON CONFLICT DO NOTHING so that
// re-saving an existing mapping is a no-op rather than an error, matching
// the at-most-one invariant enforced by the table's unique constraints.
//
// Panics if pool is nil to fail fast during initialization.
func NewPostgresStore(pool *pgxpool.Pool) Store {
	if pool == nil {
		panic("idmap: pgx pool is required")
	}
	return &postgresStore{pool: pool}
}

func (s *postgresStore) lookup(ctx context.Context, query string, entity EntityType, provider, id string) (string, error) {
	var result string
	err := s.pool.QueryRow(ctx, query, entity, provider, id).Scan(&result)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", errors.Join(ErrLookupFailed, err)
	}
	return result, nil
}

func (s *postgresStore) InternalID(ctx context.Context, entity EntityType, provider, externalID string) (string, error) {
	return s.lookup(ctx,
		`SELECT internal_id FROM identity_mappings WHERE entity_type = $1 AND provider = $2 AND external_id = $3`,
		entity, provider, externalID)
}

func (s *postgresStore) ExternalID(ctx context.Context, entity EntityType, provider, internalID string) (string, error) {
	return s.lookup(ctx,
		`SELECT external_id FROM identity_mappings WHERE entity_type = $1 AND provider = $2 AND internal_id = $3`,
		entity, provider, internalID)
}

func (s *postgresStore) lookupMany(ctx context.Context, query string, entity EntityType, provider string, ids []string) (map[string]string, error) {
	if len(ids) == 0 {
		return map[string]string{}, nil
	}

	rows, err := s.pool.Query(ctx, query, entity, provider, ids)
	if err != nil {
		return nil, errors.Join(ErrLookupFailed, err)
	}
	defer rows.Close()

	result := make(map[string]string, len(ids))
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, errors.Join(ErrLookupFailed, err)
		}
		result[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Join(ErrLookupFailed, err)
	}
	return result, nil
}

func (s *postgresStore) InternalIDMap(ctx context.Context, entity EntityType, provider string, externalIDs []string) (map[string]string, error) {
	return s.lookupMany(ctx,
		`SELECT external_id, internal_id FROM identity_mappings WHERE entity_type = $1 AND provider = $2 AND external_id = ANY($3)`,
		entity, provider, externalIDs)
}

func (s *postgresStore) ExternalIDMap(ctx context.Context, entity EntityType, provider string, internalIDs []string) (map[string]string, error) {
	return s.lookupMany(ctx,
		`SELECT internal_id, external_id FROM identity_mappings WHERE entity_type = $1 AND provider = $2 AND internal_id = ANY($3)`,
		entity, provider, internalIDs)
}

func (s *postgresStore) Save(ctx context.Context, m Mapping) error {
	return s.SaveMany(ctx, []Mapping{m})
}

func (s *postgresStore) SaveMany(ctx context.Context, ms []Mapping) error {
	if len(ms) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, m := range ms {
		if !m.Valid() {
			return ErrInvalidMapping
		}
		batch.Queue(
			`INSERT INTO identity_mappings (entity_type, provider, internal_id, external_id)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT DO NOTHING`,
			m.Entity, m.Provider, m.InternalID, m.ExternalID)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer func() { _ = results.Close() }()

	for range ms {
		if _, err := results.Exec(); err != nil {
			return errors.Join(ErrStoreFailed, err)
		}
	}
	return nil
}
