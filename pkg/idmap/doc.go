// Package idmap stores the correspondence between identifiers this system
// owns and the identifiers a payment provider assigns to the same logical
// entities (subscriptions, subscription items, prices, products, customers).
//
// A mapping is created the first time an entity is successfully correlated
// with its provider-side counterpart, typically during webhook reconciliation
// or catalog sync, and is read-mostly afterwards. For a given entity type and
// provider there is at most one external id per internal id and vice versa.
//
// # Implementations
//
// Three Store implementations are provided:
//
//   - NewMemoryStore – process-local, for tests and single-node setups
//   - NewRedisStore  – Redis hashes, one per (entity, provider) direction
//   - NewPostgresStore – identity_mappings table, migrations in pkg/pg
//
// All lookups are fail-soft: an id without a mapping yields the zero value
// and a nil error, so callers never need to distinguish "absent" from
// "present" with error handling. Errors surface only for storage failures.
//
// # Usage
//
//	store := idmap.NewMemoryStore()
//	err := store.Save(ctx, idmap.Mapping{
//	    Entity:     idmap.EntitySubscription,
//	    Provider:   "paddle",
//	    InternalID: sub.ID.String(),
//	    ExternalID: "sub_01h...",
//	})
//
//	internalID, err := store.InternalID(ctx, idmap.EntitySubscription, "paddle", "sub_01h...")
package idmap
