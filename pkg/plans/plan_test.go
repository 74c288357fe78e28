package plans_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/subsync/pkg/plans"
)

func TestValidate(t *testing.T) {
	t.Parallel()

	t.Run("empty catalog", func(t *testing.T) {
		assert.ErrorIs(t, plans.Validate(nil), plans.ErrEmptyCatalog)
	})

	t.Run("key plan id mismatch", func(t *testing.T) {
		err := plans.Validate(map[string]plans.Plan{"a": {ID: "b", Interval: plans.IntervalNone}})
		assert.ErrorIs(t, err, plans.ErrInvalidPlan)
	})

	t.Run("paid plan requires provider price id", func(t *testing.T) {
		err := plans.Validate(map[string]plans.Plan{
			"pro": {ID: "pro", Interval: plans.IntervalMonthly},
		})
		assert.ErrorIs(t, err, plans.ErrInvalidPlan)
	})

	t.Run("valid catalog", func(t *testing.T) {
		err := plans.Validate(map[string]plans.Plan{
			"free": {ID: "free", Interval: plans.IntervalNone},
			"pro":  {ID: "pro", Interval: plans.IntervalMonthly, ProviderPriceID: "pri_1"},
		})
		assert.NoError(t, err)
	})
}

func TestFileSource(t *testing.T) {
	t.Parallel()

	t.Run("loads and validates a catalog", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "plans.yml")
		require.NoError(t, os.WriteFile(path, []byte(`
plans:
  - id: pro-monthly
    name: Pro
    provider_price_id: pri_123
    provider_product_id: pro_123
    trial_days: 14
    interval: monthly
    amount: 1900
    currency: USD
`), 0o600))

		catalog, err := plans.NewFileSource(path).Load(context.Background())
		require.NoError(t, err)
		require.Len(t, catalog, 1)

		plan := catalog["pro-monthly"]
		assert.Equal(t, "pri_123", plan.ProviderPriceID)
		assert.Equal(t, 14, plan.TrialDays)
		assert.Equal(t, plans.IntervalMonthly, plan.Interval)
		assert.EqualValues(t, 1900, plan.Amount)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := plans.NewFileSource("/nonexistent/plans.yml").Load(context.Background())
		assert.ErrorIs(t, err, plans.ErrFailedToLoadPlans)
	})

	t.Run("invalid catalog is rejected", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "plans.yml")
		require.NoError(t, os.WriteFile(path, []byte("plans:\n  - id: pro\n    interval: monthly\n"), 0o600))

		_, err := plans.NewFileSource(path).Load(context.Background())
		assert.ErrorIs(t, err, plans.ErrInvalidPlan)
	})
}

func TestMemorySource(t *testing.T) {
	t.Parallel()

	src := plans.NewMemorySource(plans.Plan{ID: "free", Interval: plans.IntervalNone})
	catalog, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Contains(t, catalog, "free")

	// callers cannot mutate the source through the returned map
	delete(catalog, "free")
	catalog2, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Contains(t, catalog2, "free")
}
