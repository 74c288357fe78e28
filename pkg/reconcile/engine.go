package reconcile

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dmitrymomot/subsync/pkg/idmap"
	"github.com/dmitrymomot/subsync/pkg/subscription"
)

// Engine reconciles locally-owned subscription state with the state a
// payment provider reports through webhook events.
type Engine struct {
	provider string
	ids      idmap.Store
	subs     subscription.Store
	log      *slog.Logger
}

// NewEngine creates a reconciliation engine for one provider.
// Panics if required collaborators are nil to fail fast during
// initialization. Use WithLogger to attach observability; without it the
// engine logs nowhere.
func NewEngine(provider string, ids idmap.Store, subs subscription.Store, opts ...Option) *Engine {
	if provider == "" {
		panic("reconcile: provider name is required")
	}
	if ids == nil {
		panic("reconcile: idmap.Store is required")
	}
	if subs == nil {
		panic("reconcile: subscription.Store is required")
	}

	e := &Engine{
		provider: provider,
		ids:      ids,
		subs:     subs,
		log:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Handle consumes one provider event. It never returns or panics across the
// boundary: webhook delivery systems require an acknowledgment regardless of
// whether the internal subscription was found, so every internal failure is
// absorbed and logged. Events whose object is not a subscription
// representation are ignored without any lookup.
func (e *Engine) Handle(ctx context.Context, event Event) {
	if event.Subscription == nil {
		e.log.DebugContext(ctx, "event does not carry a subscription, ignoring",
			slog.String("kind", string(event.Kind)))
		return
	}

	switch event.Kind {
	case KindCreated:
		e.handleCreated(ctx, *event.Subscription)
	case KindUpdated:
		e.handleUpdated(ctx, *event.Subscription)
	case KindDeleted:
		e.handleDeleted(ctx, *event.Subscription)
	case KindPaused:
		e.handlePaused(ctx, *event.Subscription)
	case KindResumed:
		e.handleResumed(ctx, *event.Subscription)
	default:
		e.log.DebugContext(ctx, "unhandled event kind, ignoring",
			slog.String("kind", string(event.Kind)))
	}
}

// handleCreated correlates a provider-created subscription with the local
// aggregate. The internal id comes from embedded metadata only: this event
// races with our own post-checkout bookkeeping, so the identity mapping may
// not exist yet.
func (e *Engine) handleCreated(ctx context.Context, ps ProviderSubscription) {
	raw, ok := ps.Metadata[MetadataSubscriptionID]
	if !ok || raw == "" {
		e.log.WarnContext(ctx, "created event carries no internal subscription id",
			slog.String("external_id", ps.ExternalID))
		return
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		e.log.WarnContext(ctx, "created event carries malformed internal subscription id",
			slog.String("external_id", ps.ExternalID),
			slog.String("internal_id", raw))
		return
	}

	sub, err := e.subs.Find(ctx, id)
	if err != nil {
		if errors.Is(err, subscription.ErrNotFound) {
			e.log.WarnContext(ctx, "created event names a subscription that does not exist",
				slog.String("internal_id", id.String()),
				slog.String("external_id", ps.ExternalID))
		} else {
			e.log.ErrorContext(ctx, "failed to load subscription",
				slog.String("internal_id", id.String()),
				slog.Any("error", err))
		}
		return
	}

	// Idempotency guard against duplicate delivery: if the subscription
	// mapping already exists this event was processed before and the mapping
	// writes are skipped. A failed probe read is deliberately treated as "no
	// existing mapping" so a transient read error cannot drop a legitimate
	// creation event; the worst case is a redundant write.
	existing, err := e.ids.InternalID(ctx, idmap.EntitySubscription, e.provider, ps.ExternalID)
	if err != nil {
		e.log.WarnContext(ctx, "idempotency probe failed, assuming no existing mapping",
			slog.String("external_id", ps.ExternalID),
			slog.Any("error", err))
		existing = ""
	}
	if existing == "" {
		mappings := []idmap.Mapping{{
			Entity:     idmap.EntitySubscription,
			Provider:   e.provider,
			InternalID: id.String(),
			ExternalID: ps.ExternalID,
		}}
		for _, b := range e.resolveItems(ctx, *sub, ps.Items) {
			mappings = append(mappings, idmap.Mapping{
				Entity:     idmap.EntitySubscriptionItem,
				Provider:   e.provider,
				InternalID: b.itemID.String(),
				ExternalID: b.line.ExternalID,
			})
		}
		if err := e.ids.SaveMany(ctx, mappings); err != nil {
			e.log.ErrorContext(ctx, "failed to store identity mappings",
				slog.String("external_id", ps.ExternalID),
				slog.Any("error", err))
		}
	}

	next := *sub
	if activatable(ps.Status) {
		next = e.activate(ctx, next, ps)
	}

	// Creation always persists, activation is conditional: even a
	// non-activatable status (e.g. "incomplete") updates bookkeeping.
	e.save(ctx, &next)
}

// handleUpdated composes the independent signals a single updated event may
// carry (status, scheduled cancellation, pause) onto one in-memory aggregate
// and persists the combination once. A reported "canceled" status
// short-circuits everything else.
func (e *Engine) handleUpdated(ctx context.Context, ps ProviderSubscription) {
	sub := e.resolveSubscription(ctx, ps.ExternalID)
	if sub == nil {
		return
	}

	if ps.Status == statusCanceled {
		next := sub.Cancel(false)
		e.save(ctx, &next)
		return
	}

	next := *sub
	if activatable(ps.Status) {
		next = e.activate(ctx, next, ps)
	}
	if ps.CancelAtPeriodEnd {
		next = next.Cancel(true)
	}
	if ps.Pause != nil {
		next = next.Pause()
	}

	e.save(ctx, &next)
}

func (e *Engine) handleDeleted(ctx context.Context, ps ProviderSubscription) {
	sub := e.resolveSubscription(ctx, ps.ExternalID)
	if sub == nil {
		return
	}
	next := sub.Cancel(false)
	e.save(ctx, &next)
}

// handlePaused applies the pause only; the paused event carries no period
// information worth syncing.
func (e *Engine) handlePaused(ctx context.Context, ps ProviderSubscription) {
	sub := e.resolveSubscription(ctx, ps.ExternalID)
	if sub == nil {
		return
	}
	next := sub.Pause()
	e.save(ctx, &next)
}

// handleResumed lifts the pause and, when the provider already reports a
// billable status, re-syncs item periods and re-activates. The save is
// unconditional so the resume itself is persisted even when the provider
// still reports a non-billable status (e.g. past_due until the next charge
// succeeds).
func (e *Engine) handleResumed(ctx context.Context, ps ProviderSubscription) {
	sub := e.resolveSubscription(ctx, ps.ExternalID)
	if sub == nil {
		return
	}

	next := sub.Resume()
	if activatable(ps.Status) {
		next = e.activate(ctx, next, ps)
	}
	e.save(ctx, &next)
}

// resolveSubscription looks up the aggregate for events that rely on an
// existing identity mapping. Returning nil means the event is a no-op:
// receiving events for subscriptions this system does not own is the normal
// case and is never escalated.
func (e *Engine) resolveSubscription(ctx context.Context, externalID string) *subscription.Subscription {
	internal, err := e.ids.InternalID(ctx, idmap.EntitySubscription, e.provider, externalID)
	if err != nil {
		e.log.ErrorContext(ctx, "identity mapping lookup failed",
			slog.String("external_id", externalID),
			slog.Any("error", err))
		return nil
	}
	if internal == "" {
		e.log.DebugContext(ctx, "no identity mapping for subscription, skipping event",
			slog.String("external_id", externalID))
		return nil
	}

	id, err := uuid.Parse(internal)
	if err != nil {
		e.log.WarnContext(ctx, "identity mapping holds a malformed internal id",
			slog.String("external_id", externalID),
			slog.String("internal_id", internal))
		return nil
	}

	sub, err := e.subs.Find(ctx, id)
	if err != nil {
		if errors.Is(err, subscription.ErrNotFound) {
			e.log.WarnContext(ctx, "mapped subscription does not exist",
				slog.String("internal_id", id.String()),
				slog.String("external_id", externalID))
		} else {
			e.log.ErrorContext(ctx, "failed to load subscription",
				slog.String("internal_id", id.String()),
				slog.Any("error", err))
		}
		return nil
	}
	return sub
}

// activate runs the activation procedure: every line item the resolver can
// map gets its current period set to the provider-reported instants, then
// the aggregate is activated once. Items that fail to resolve are skipped;
// activation proceeds with whatever did resolve.
func (e *Engine) activate(ctx context.Context, sub subscription.Subscription, ps ProviderSubscription) subscription.Subscription {
	for _, b := range e.resolveItems(ctx, sub, ps.Items) {
		next, err := sub.SetItemPeriod(b.itemID, b.line.PeriodStart, b.line.PeriodEnd)
		if err != nil {
			e.log.WarnContext(ctx, "resolved item is not part of the subscription",
				slog.String("internal_id", sub.ID.String()),
				slog.String("item_id", b.itemID.String()))
			continue
		}
		sub = next
	}
	return sub.Activate()
}

func (e *Engine) save(ctx context.Context, sub *subscription.Subscription) {
	if err := e.subs.Save(ctx, sub); err != nil {
		e.log.ErrorContext(ctx, "failed to save subscription",
			slog.String("internal_id", sub.ID.String()),
			slog.Any("error", err))
	}
}
