package idmap

// EntityType identifies the kind of entity a mapping belongs to.
// Mappings for different entity types never collide, even when a provider
// reuses the same identifier namespace across objects.
type EntityType string

const (
	EntitySubscription     EntityType = "subscription"
	EntitySubscriptionItem EntityType = "subscription_item"
	EntityPrice            EntityType = "price"
	EntityProduct          EntityType = "product"
	EntityCustomer         EntityType = "customer"
)

// Mapping is one internal<->external identifier pair for a given entity type
// and payment provider. Mappings are created on first successful correlation
// and are read-mostly afterwards; this package never deletes them.
type Mapping struct {
	Entity     EntityType
	Provider   string // provider name, e.g. "paddle"
	InternalID string
	ExternalID string
}

// Valid reports whether the mapping has all four components set.
func (m Mapping) Valid() bool {
	return m.Entity != "" && m.Provider != "" && m.InternalID != "" && m.ExternalID != ""
}
