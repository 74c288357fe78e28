package idmap

import "context"

// Store persists identity mappings between internal entities and their
// provider-side counterparts.
//
// Lookup methods are fail-soft with respect to missing data: asking for an id
// that has no mapping returns the zero value and a nil error. An error is
// returned only when the underlying storage itself fails. The bulk variants
// return a map keyed by whichever side of the mapping was supplied, omitting
// ids that have no mapping.
type Store interface {
	// InternalID resolves a provider-side id to the internal id, or "" when
	// no mapping exists.
	InternalID(ctx context.Context, entity EntityType, provider, externalID string) (string, error)

	// ExternalID resolves an internal id to the provider-side id, or "" when
	// no mapping exists.
	ExternalID(ctx context.Context, entity EntityType, provider, internalID string) (string, error)

	// InternalIDMap resolves many provider-side ids at once. The result is
	// keyed by external id; unmapped ids are absent.
	InternalIDMap(ctx context.Context, entity EntityType, provider string, externalIDs []string) (map[string]string, error)

	// ExternalIDMap resolves many internal ids at once. The result is keyed
	// by internal id; unmapped ids are absent.
	ExternalIDMap(ctx context.Context, entity EntityType, provider string, internalIDs []string) (map[string]string, error)

	// Save persists a single mapping. Saving a mapping that already exists
	// is a no-op.
	Save(ctx context.Context, m Mapping) error

	// SaveMany persists a batch of mappings in one round trip.
	SaveMany(ctx context.Context, ms []Mapping) error
}
