// Package subscription holds the locally-owned subscription aggregate and
// its persistence interface.
//
// The aggregate tracks lifecycle status (incomplete, trialing, active,
// paused, canceled), a scheduled-cancellation flag, and an ordered set of
// items each carrying its own current billing period. Every state transition
// is a value method returning the next state, which lets callers compose the
// independent signals of a single provider event onto one in-memory value
// and persist the combined result exactly once.
//
// Transitions are idempotent: applying the same transition to the resulting
// state yields the same observable state, which is what makes duplicate and
// out-of-order webhook deliveries safe to apply.
//
// Two Store implementations are provided: NewMemoryStore for tests and
// NewPostgresStore for production (migrations live in pkg/pg). Neither
// serializes concurrent load-mutate-save cycles for the same subscription;
// see the Store doc for the concurrency contract.
package subscription
