package reconcile

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dmitrymomot/subsync/pkg/idmap"
	"github.com/dmitrymomot/subsync/pkg/subscription"
)

// binding pairs one provider line item with the internal item it resolved
// to. Bindings are transient, computed per event.
type binding struct {
	line   LineItem
	itemID uuid.UUID
}

// resolveItems maps provider line items to internal item ids, independently
// per item; partial success is the normal case. Both mapping directions are
// prefetched in bulk so lookup cost stays at two store round trips
// regardless of item count.
//
// Resolution order per item, first match wins:
//  1. internal item id embedded in the line's own metadata (set by the
//     creation-time provider call, strongest signal, no store round trip)
//  2. stored item-level identity mapping by external item id
//  3. price heuristic: map the external price id to an internal price, then
//     find an aggregate item matching on price and quantity, falling back to
//     price alone. Supports subscriptions created through paths that never
//     recorded item mappings and tolerates mid-cycle quantity drift.
func (e *Engine) resolveItems(ctx context.Context, sub subscription.Subscription, lines []LineItem) []binding {
	if len(lines) == 0 {
		return nil
	}

	externalIDs := make([]string, 0, len(lines))
	priceIDs := make([]string, 0, len(lines))
	for _, line := range lines {
		if line.ExternalID != "" {
			externalIDs = append(externalIDs, line.ExternalID)
		}
		if line.PriceExternalID != "" {
			priceIDs = append(priceIDs, line.PriceExternalID)
		}
	}

	itemMap := e.prefetch(ctx, idmap.EntitySubscriptionItem, externalIDs)
	priceMap := e.prefetch(ctx, idmap.EntityPrice, priceIDs)

	bindings := make([]binding, 0, len(lines))
	for _, line := range lines {
		itemID, ok := e.resolveItem(ctx, sub, line, itemMap, priceMap)
		if !ok {
			e.log.WarnContext(ctx, "could not resolve line item to a subscription item",
				slog.String("internal_id", sub.ID.String()),
				slog.String("external_item_id", line.ExternalID),
				slog.String("external_price_id", line.PriceExternalID))
			continue
		}
		bindings = append(bindings, binding{line: line, itemID: itemID})
	}
	return bindings
}

// prefetch is fail-soft: a failed bulk lookup degrades resolution to the
// remaining tiers instead of aborting the event.
func (e *Engine) prefetch(ctx context.Context, entity idmap.EntityType, externalIDs []string) map[string]string {
	if len(externalIDs) == 0 {
		return nil
	}
	m, err := e.ids.InternalIDMap(ctx, entity, e.provider, externalIDs)
	if err != nil {
		e.log.WarnContext(ctx, "bulk identity mapping lookup failed",
			slog.String("entity", string(entity)),
			slog.Any("error", err))
		return nil
	}
	return m
}

func (e *Engine) resolveItem(ctx context.Context, sub subscription.Subscription, line LineItem, itemMap, priceMap map[string]string) (uuid.UUID, bool) {
	// Tier 1: metadata embedded in the line item itself.
	if raw, ok := line.Metadata[MetadataItemID]; ok && raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			return id, true
		}
	}

	// Tier 2: stored item-level mapping.
	if raw, ok := itemMap[line.ExternalID]; ok {
		if id, err := uuid.Parse(raw); err == nil {
			return id, true
		}
	}

	// Tier 3: price heuristic over the aggregate's own items.
	priceID, ok := priceMap[line.PriceExternalID]
	if !ok {
		return uuid.Nil, false
	}
	byPrice := uuid.Nil
	byPriceCount := 0
	for _, item := range sub.Items {
		if item.PriceID != priceID {
			continue
		}
		if item.Quantity == line.Quantity {
			return item.ID, true
		}
		byPriceCount++
		if byPrice == uuid.Nil {
			// First match in the aggregate's own item order. Ambiguous when
			// two items share a price; callers needing determinism beyond
			// declaration order must record item metadata or mappings.
			byPrice = item.ID
		}
	}
	if byPrice != uuid.Nil {
		if byPriceCount > 1 {
			e.log.DebugContext(ctx, "multiple subscription items share the price, resolved to first in item order",
				slog.String("internal_id", sub.ID.String()),
				slog.String("external_price_id", line.PriceExternalID))
		}
		return byPrice, true
	}
	return uuid.Nil, false
}
