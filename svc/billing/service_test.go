package billing_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/subsync/pkg/idmap"
	"github.com/dmitrymomot/subsync/pkg/paddle"
	"github.com/dmitrymomot/subsync/pkg/plans"
	"github.com/dmitrymomot/subsync/pkg/reconcile"
	"github.com/dmitrymomot/subsync/pkg/subscription"
	"github.com/dmitrymomot/subsync/svc/billing"
)

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) CreateCheckout(ctx context.Context, params paddle.CheckoutParams) (*paddle.Checkout, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*paddle.Checkout), args.Error(1)
}

func (m *mockProvider) CancelSubscription(ctx context.Context, externalID string, atPeriodEnd bool) error {
	return m.Called(ctx, externalID, atPeriodEnd).Error(0)
}

func (m *mockProvider) PauseSubscription(ctx context.Context, externalID string) error {
	return m.Called(ctx, externalID).Error(0)
}

func (m *mockProvider) ResumeSubscription(ctx context.Context, externalID string) error {
	return m.Called(ctx, externalID).Error(0)
}

func (m *mockProvider) VerifyAndParse(r *http.Request) (reconcile.Event, error) {
	args := m.Called(r)
	return args.Get(0).(reconcile.Event), args.Error(1)
}

func testPlans() plans.Source {
	return plans.NewMemorySource(
		plans.Plan{ID: "free", Name: "Free", Interval: plans.IntervalNone},
		plans.Plan{
			ID:                "pro-monthly",
			Name:              "Pro",
			ProviderPriceID:   "pri_pro",
			ProviderProductID: "pro_pro",
			Interval:          plans.IntervalMonthly,
			Amount:            1900,
			Currency:          "USD",
		},
	)
}

func TestNew_SeedsCatalogMappings(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ids := idmap.NewMemoryStore()

	_, err := billing.New(ctx, testPlans(), new(mockProvider), ids, subscription.NewMemoryStore())
	require.NoError(t, err)

	priceInternal, err := ids.InternalID(ctx, idmap.EntityPrice, paddle.ProviderName, "pri_pro")
	require.NoError(t, err)
	assert.Equal(t, "pro-monthly", priceInternal)

	productInternal, err := ids.InternalID(ctx, idmap.EntityProduct, paddle.ProviderName, "pro_pro")
	require.NoError(t, err)
	assert.Equal(t, "pro-monthly", productInternal)
}

func TestStartCheckout(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("creates an incomplete subscription and a checkout", func(t *testing.T) {
		provider := new(mockProvider)
		subs := subscription.NewMemoryStore()
		svc, err := billing.New(ctx, testPlans(), provider, idmap.NewMemoryStore(), subs)
		require.NoError(t, err)

		provider.On("CreateCheckout", mock.Anything, mock.MatchedBy(func(p paddle.CheckoutParams) bool {
			return p.PriceID == "pri_pro" && p.SubscriptionID != uuid.Nil
		})).Return(&paddle.Checkout{URL: "https://checkout.paddle.com/txn_1", TransactionID: "txn_1"}, nil).Once()

		result, err := svc.StartCheckout(ctx, "pro-monthly", "buyer@example.com", "https://app.example.com/done")
		require.NoError(t, err)
		assert.Equal(t, "https://checkout.paddle.com/txn_1", result.Checkout.URL)

		stored, err := subs.Find(ctx, result.Subscription.ID)
		require.NoError(t, err)
		assert.Equal(t, subscription.StatusIncomplete, stored.Status)
		require.Len(t, stored.Items, 1)
		assert.Equal(t, "pro-monthly", stored.Items[0].PriceID)

		provider.AssertExpectations(t)
	})

	t.Run("unknown plan", func(t *testing.T) {
		svc, err := billing.New(ctx, testPlans(), new(mockProvider), idmap.NewMemoryStore(), subscription.NewMemoryStore())
		require.NoError(t, err)

		_, err = svc.StartCheckout(ctx, "nope", "", "")
		assert.ErrorIs(t, err, billing.ErrPlanNotFound)
	})
}

func TestProviderPassThroughs(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	setup := func(t *testing.T) (*billing.Service, *mockProvider, uuid.UUID) {
		t.Helper()
		provider := new(mockProvider)
		ids := idmap.NewMemoryStore()
		svc, err := billing.New(ctx, testPlans(), provider, ids, subscription.NewMemoryStore())
		require.NoError(t, err)

		id := uuid.New()
		require.NoError(t, ids.Save(ctx, idmap.Mapping{
			Entity:     idmap.EntitySubscription,
			Provider:   paddle.ProviderName,
			InternalID: id.String(),
			ExternalID: "sub_linked",
		}))
		return svc, provider, id
	}

	t.Run("cancel resolves the external id first", func(t *testing.T) {
		svc, provider, id := setup(t)
		provider.On("CancelSubscription", mock.Anything, "sub_linked", true).Return(nil).Once()

		require.NoError(t, svc.Cancel(ctx, id, true))
		provider.AssertExpectations(t)
	})

	t.Run("pause and resume", func(t *testing.T) {
		svc, provider, id := setup(t)
		provider.On("PauseSubscription", mock.Anything, "sub_linked").Return(nil).Once()
		provider.On("ResumeSubscription", mock.Anything, "sub_linked").Return(nil).Once()

		require.NoError(t, svc.Pause(ctx, id))
		require.NoError(t, svc.Resume(ctx, id))
		provider.AssertExpectations(t)
	})

	t.Run("unlinked subscription", func(t *testing.T) {
		svc, provider, _ := setup(t)
		err := svc.Cancel(ctx, uuid.New(), false)
		assert.ErrorIs(t, err, billing.ErrNotLinked)
		provider.AssertNotCalled(t, "CancelSubscription", mock.Anything, mock.Anything, mock.Anything)
	})
}
