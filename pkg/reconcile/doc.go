// Package reconcile keeps locally-owned subscription state consistent with
// the state a payment provider reports through its webhook event stream.
//
// Webhook delivery gives no useful guarantees: events arrive out of order,
// in duplicate, and for subscriptions this system does not own. A single
// event can also carry several independent signals at once - a status
// string, a scheduled-cancellation flag, a pause marker - that must collapse
// into one consistent aggregate state. The Engine absorbs all of that: it
// classifies the event, resolves the internal subscription (through the
// identity mapping store, or through metadata embedded at creation time when
// the mapping cannot exist yet), composes the applicable transitions onto
// the aggregate, and persists the result once.
//
// # Event dispatch
//
//	created  – correlate via embedded metadata, store subscription and item
//	           identity mappings exactly once, activate if the reported
//	           status allows, always save
//	updated  – "canceled" status cancels immediately and short-circuits;
//	           otherwise activation, scheduled cancellation and pause are
//	           composed and saved together
//	deleted  – immediate cancellation
//	paused   – pause only, no period sync
//	resumed  – lift the pause, re-activate when the status allows, always save
//
// Events without a subscription payload and unrecognized kinds are ignored.
//
// # Item resolution
//
// Period synchronization needs each provider line item bound to an internal
// subscription item. Resolution runs three tiers per item - embedded
// metadata, stored mapping, price heuristic - detailed on Engine's
// resolveItems. Items that fail all tiers are skipped without failing the
// event.
//
// # Failure semantics
//
// Handle never returns an error: the webhook transport must acknowledge
// delivery regardless of what happened here. Events for unknown
// subscriptions are routine and logged at debug level; anomalies on the
// authoritative creation path (missing metadata, missing aggregate,
// unresolvable items) are warnings; collaborator failures are errors. None
// of them interrupt processing of the rest of the event.
//
// # Usage
//
//	engine := reconcile.NewEngine("paddle", idmapStore, subStore,
//	    reconcile.WithLogger(log))
//
//	// transport hands over an authenticated, decoded event
//	engine.Handle(ctx, event)
package reconcile
