// Package paddle adapts the Paddle Billing API to this system's checkout
// and reconciliation flows.
//
// Outbound, the Provider creates hosted checkout transactions (embedding the
// internal subscription id as custom data so webhook events can be
// correlated back) and passes cancel/pause/resume requests through to
// Paddle. None of these calls mutate local state: Paddle confirms every
// change through its webhook stream, and the reconciliation engine applies
// the confirmed state from there.
//
// Inbound, VerifyAndParse authenticates a webhook request with the SDK's
// signature verifier and ParseEvent decodes the payload into a
// reconcile.Event, mapping Paddle's subscription.* event names onto the
// engine's closed kind set and the scheduled_change object onto the
// cancel-at-period-end and pause signals.
package paddle
