package idmap

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type redisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore returns a Store backed by Redis hashes. Each
// (entity, provider) scope keeps two hashes, one per lookup direction,
// so single and bulk lookups cost one round trip each.
//
// Panics if client is nil to fail fast during initialization.
func NewRedisStore(client redis.UniversalClient) Store {
	if client == nil {
		panic("idmap: redis client is required")
	}
	return &redisStore{client: client, prefix: "idmap"}
}

func (s *redisStore) key(entity EntityType, provider, direction string) string {
	return fmt.Sprintf("%s:%s:%s:%s", s.prefix, provider, entity, direction)
}

func (s *redisStore) lookup(ctx context.Context, key, field string) (string, error) {
	v, err := s.client.HGet(ctx, key, field).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", errors.Join(ErrLookupFailed, err)
	}
	return v, nil
}

func (s *redisStore) InternalID(ctx context.Context, entity EntityType, provider, externalID string) (string, error) {
	return s.lookup(ctx, s.key(entity, provider, "ext"), externalID)
}

func (s *redisStore) ExternalID(ctx context.Context, entity EntityType, provider, internalID string) (string, error) {
	return s.lookup(ctx, s.key(entity, provider, "int"), internalID)
}

func (s *redisStore) lookupMany(ctx context.Context, key string, fields []string) (map[string]string, error) {
	if len(fields) == 0 {
		return map[string]string{}, nil
	}

	values, err := s.client.HMGet(ctx, key, fields...).Result()
	if err != nil {
		return nil, errors.Join(ErrLookupFailed, err)
	}

	result := make(map[string]string, len(fields))
	for i, v := range values {
		if str, ok := v.(string); ok && str != "" {
			result[fields[i]] = str
		}
	}
	return result, nil
}

func (s *redisStore) InternalIDMap(ctx context.Context, entity EntityType, provider string, externalIDs []string) (map[string]string, error) {
	return s.lookupMany(ctx, s.key(entity, provider, "ext"), externalIDs)
}

func (s *redisStore) ExternalIDMap(ctx context.Context, entity EntityType, provider string, internalIDs []string) (map[string]string, error) {
	return s.lookupMany(ctx, s.key(entity, provider, "int"), internalIDs)
}

func (s *redisStore) Save(ctx context.Context, m Mapping) error {
	return s.SaveMany(ctx, []Mapping{m})
}

func (s *redisStore) SaveMany(ctx context.Context, ms []Mapping) error {
	if len(ms) == 0 {
		return nil
	}

	pipe := s.client.TxPipeline()
	for _, m := range ms {
		if !m.Valid() {
			return ErrInvalidMapping
		}
		pipe.HSet(ctx, s.key(m.Entity, m.Provider, "ext"), m.ExternalID, m.InternalID)
		pipe.HSet(ctx, s.key(m.Entity, m.Provider, "int"), m.InternalID, m.ExternalID)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Join(ErrStoreFailed, err)
	}
	return nil
}
