package reconcile_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/subsync/pkg/idmap"
	"github.com/dmitrymomot/subsync/pkg/reconcile"
	"github.com/dmitrymomot/subsync/pkg/subscription"
)

// Resolution is exercised through the activation procedure: the item whose
// period ends up set is the item the line resolved to.
func TestItemResolution(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	t0 := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	activeEvent := func(items ...reconcile.LineItem) reconcile.Event {
		return reconcile.Event{
			Kind: reconcile.KindUpdated,
			Subscription: &reconcile.ProviderSubscription{
				ExternalID: "sub_ext",
				Status:     "active",
				Items:      items,
			},
		}
	}

	periodSet := func(t *testing.T, sub *subscription.Subscription, id uuid.UUID) bool {
		t.Helper()
		item, ok := sub.Item(id)
		require.True(t, ok)
		return item.CurrentPeriodStart != nil
	}

	t.Run("embedded metadata wins over a stored mapping", func(t *testing.T) {
		f := newFixture(t)
		metaItem := uuid.New()
		mappedItem := uuid.New()
		sub := f.seedSubscription(t,
			subscription.Item{ID: metaItem, PriceID: "price-1", Quantity: 1},
			subscription.Item{ID: mappedItem, PriceID: "price-2", Quantity: 1},
		)
		f.mapSubscription(t, sub, "sub_ext")
		require.NoError(t, f.ids.Save(ctx, idmap.Mapping{
			Entity:     idmap.EntitySubscriptionItem,
			Provider:   provider,
			InternalID: mappedItem.String(),
			ExternalID: "si_ext",
		}))

		f.engine.Handle(ctx, activeEvent(reconcile.LineItem{
			ExternalID:  "si_ext",
			Metadata:    map[string]string{reconcile.MetadataItemID: metaItem.String()},
			PeriodStart: t0,
			PeriodEnd:   t0.Add(time.Hour),
		}))

		stored := f.load(t, sub.ID)
		assert.True(t, periodSet(t, stored, metaItem))
		assert.False(t, periodSet(t, stored, mappedItem))
	})

	t.Run("stored mapping used when metadata is absent", func(t *testing.T) {
		f := newFixture(t)
		itemID := uuid.New()
		sub := f.seedSubscription(t, subscription.Item{ID: itemID, PriceID: "price-1", Quantity: 1})
		f.mapSubscription(t, sub, "sub_ext")
		require.NoError(t, f.ids.Save(ctx, idmap.Mapping{
			Entity:     idmap.EntitySubscriptionItem,
			Provider:   provider,
			InternalID: itemID.String(),
			ExternalID: "si_ext",
		}))

		f.engine.Handle(ctx, activeEvent(reconcile.LineItem{
			ExternalID:  "si_ext",
			PeriodStart: t0,
			PeriodEnd:   t0.Add(time.Hour),
		}))

		assert.True(t, periodSet(t, f.load(t, sub.ID), itemID))
	})

	t.Run("price tier prefers price and quantity match", func(t *testing.T) {
		f := newFixture(t)
		single := uuid.New()
		triple := uuid.New()
		sub := f.seedSubscription(t,
			subscription.Item{ID: single, PriceID: "price-1", Quantity: 1},
			subscription.Item{ID: triple, PriceID: "price-1", Quantity: 3},
		)
		f.mapSubscription(t, sub, "sub_ext")
		require.NoError(t, f.ids.Save(ctx, idmap.Mapping{
			Entity:     idmap.EntityPrice,
			Provider:   provider,
			InternalID: "price-1",
			ExternalID: "pri_ext",
		}))

		f.engine.Handle(ctx, activeEvent(reconcile.LineItem{
			ExternalID:      "si_ext",
			PriceExternalID: "pri_ext",
			Quantity:        3,
			PeriodStart:     t0,
			PeriodEnd:       t0.Add(time.Hour),
		}))

		stored := f.load(t, sub.ID)
		assert.True(t, periodSet(t, stored, triple))
		assert.False(t, periodSet(t, stored, single))
	})

	t.Run("price alone matches despite quantity drift", func(t *testing.T) {
		f := newFixture(t)
		itemID := uuid.New()
		sub := f.seedSubscription(t, subscription.Item{ID: itemID, PriceID: "price-1", Quantity: 1})
		f.mapSubscription(t, sub, "sub_ext")
		require.NoError(t, f.ids.Save(ctx, idmap.Mapping{
			Entity:     idmap.EntityPrice,
			Provider:   provider,
			InternalID: "price-1",
			ExternalID: "pri_ext",
		}))

		// mid-cycle quantity change: provider reports 5, aggregate holds 1
		f.engine.Handle(ctx, activeEvent(reconcile.LineItem{
			ExternalID:      "si_ext",
			PriceExternalID: "pri_ext",
			Quantity:        5,
			PeriodStart:     t0,
			PeriodEnd:       t0.Add(time.Hour),
		}))

		assert.True(t, periodSet(t, f.load(t, sub.ID), itemID))
	})

	t.Run("ambiguous price-alone match takes first item and notes it", func(t *testing.T) {
		f := newFixture(t)
		first := uuid.New()
		second := uuid.New()
		sub := f.seedSubscription(t,
			subscription.Item{ID: first, PriceID: "price-1", Quantity: 2},
			subscription.Item{ID: second, PriceID: "price-1", Quantity: 4},
		)
		f.mapSubscription(t, sub, "sub_ext")
		require.NoError(t, f.ids.Save(ctx, idmap.Mapping{
			Entity:     idmap.EntityPrice,
			Provider:   provider,
			InternalID: "price-1",
			ExternalID: "pri_ext",
		}))

		// neither quantity matches, so resolution falls to price alone
		f.engine.Handle(ctx, activeEvent(reconcile.LineItem{
			ExternalID:      "si_ext",
			PriceExternalID: "pri_ext",
			Quantity:        1,
			PeriodStart:     t0,
			PeriodEnd:       t0.Add(time.Hour),
		}))

		stored := f.load(t, sub.ID)
		assert.True(t, periodSet(t, stored, first))
		assert.False(t, periodSet(t, stored, second))
		assert.True(t, f.logs.hasMessage("multiple subscription items share the price, resolved to first in item order"))
		assert.Zero(t, f.logs.countAtLeast(slog.LevelWarn))
	})

	t.Run("no tier matching leaves the item untouched", func(t *testing.T) {
		f := newFixture(t)
		itemID := uuid.New()
		sub := f.seedSubscription(t, subscription.Item{ID: itemID, PriceID: "price-1", Quantity: 1})
		f.mapSubscription(t, sub, "sub_ext")

		f.engine.Handle(ctx, activeEvent(reconcile.LineItem{
			ExternalID:      "si_ext",
			PriceExternalID: "pri_unmapped",
			Quantity:        1,
			PeriodStart:     t0,
			PeriodEnd:       t0.Add(time.Hour),
		}))

		stored := f.load(t, sub.ID)
		assert.False(t, periodSet(t, stored, itemID))
		assert.True(t, stored.IsActive(), "activation still applies")
	})
}
