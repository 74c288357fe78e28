package billing

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/dmitrymomot/subsync/pkg/idmap"
	"github.com/dmitrymomot/subsync/pkg/paddle"
	"github.com/dmitrymomot/subsync/pkg/plans"
	"github.com/dmitrymomot/subsync/pkg/reconcile"
	"github.com/dmitrymomot/subsync/pkg/subscription"
	"github.com/dmitrymomot/subsync/pkg/webhookd"
)

var (
	ErrPlanNotFound = errors.New("billing plan not found")
	ErrNotLinked    = errors.New("subscription is not linked to the provider")
)

// Provider is the outbound payment provider surface the service needs.
// Satisfied by *paddle.Provider.
type Provider interface {
	CreateCheckout(ctx context.Context, params paddle.CheckoutParams) (*paddle.Checkout, error)
	CancelSubscription(ctx context.Context, externalID string, atPeriodEnd bool) error
	PauseSubscription(ctx context.Context, externalID string) error
	ResumeSubscription(ctx context.Context, externalID string) error
	VerifyAndParse(r *http.Request) (reconcile.Event, error)
}

// Service composes the billing flow: plan catalog, outbound provider calls,
// and the webhook reconciliation pipeline over shared stores.
type Service struct {
	catalog  map[string]plans.Plan
	provider Provider
	ids      idmap.Store
	subs     subscription.Store
	engine   *reconcile.Engine
	log      *slog.Logger
}

// New builds the billing service. The plan catalog is loaded and validated
// once, and every paid plan's provider price/product ids are seeded into the
// identity mapping store so the reconciliation engine's price heuristic can
// resolve items of subscriptions that never recorded item-level mappings.
//
// Panics if required collaborators are nil to fail fast during
// initialization.
func New(ctx context.Context, src plans.Source, provider Provider, ids idmap.Store, subs subscription.Store, opts ...Option) (*Service, error) {
	if src == nil {
		panic("billing: plans.Source is required")
	}
	if provider == nil {
		panic("billing: Provider is required")
	}
	if ids == nil {
		panic("billing: idmap.Store is required")
	}
	if subs == nil {
		panic("billing: subscription.Store is required")
	}

	catalog, err := src.Load(ctx)
	if err != nil {
		return nil, errors.Join(plans.ErrFailedToLoadPlans, err)
	}
	if err := plans.Validate(catalog); err != nil {
		return nil, err
	}

	s := &Service{
		catalog:  catalog,
		provider: provider,
		ids:      ids,
		subs:     subs,
		log:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.engine = reconcile.NewEngine(paddle.ProviderName, ids, subs, reconcile.WithLogger(s.log))

	if err := s.seedCatalogMappings(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// seedCatalogMappings registers price and product identity mappings for
// every paid plan in one bulk write.
func (s *Service) seedCatalogMappings(ctx context.Context) error {
	var mappings []idmap.Mapping
	for _, plan := range s.catalog {
		if plan.ProviderPriceID != "" {
			mappings = append(mappings, idmap.Mapping{
				Entity:     idmap.EntityPrice,
				Provider:   paddle.ProviderName,
				InternalID: plan.ID,
				ExternalID: plan.ProviderPriceID,
			})
		}
		if plan.ProviderProductID != "" {
			mappings = append(mappings, idmap.Mapping{
				Entity:     idmap.EntityProduct,
				Provider:   paddle.ProviderName,
				InternalID: plan.ID,
				ExternalID: plan.ProviderProductID,
			})
		}
	}
	if len(mappings) == 0 {
		return nil
	}
	return s.ids.SaveMany(ctx, mappings)
}

// CheckoutResult pairs the locally created subscription with the hosted
// checkout that will pay for it.
type CheckoutResult struct {
	Subscription subscription.Subscription
	Checkout     *paddle.Checkout
}

// StartCheckout creates an incomplete local subscription for the plan and a
// hosted checkout session to pay for it. The subscription stays incomplete
// until the provider confirms payment through the webhook stream.
func (s *Service) StartCheckout(ctx context.Context, planID, email, successURL string) (*CheckoutResult, error) {
	plan, ok := s.catalog[planID]
	if !ok {
		return nil, ErrPlanNotFound
	}

	sub := subscription.New(uuid.New(), subscription.Item{
		ID:       uuid.New(),
		PriceID:  plan.ID,
		Quantity: 1,
	})
	if err := s.subs.Save(ctx, &sub); err != nil {
		return nil, err
	}

	checkout, err := s.provider.CreateCheckout(ctx, paddle.CheckoutParams{
		SubscriptionID: sub.ID,
		PriceID:        plan.ProviderPriceID,
		Quantity:       1,
		Email:          email,
		SuccessURL:     successURL,
	})
	if err != nil {
		return nil, err
	}

	return &CheckoutResult{Subscription: sub, Checkout: checkout}, nil
}

// Cancel requests cancellation at the provider. The local aggregate is
// updated when the provider confirms via webhook, keeping the provider
// authoritative over lifecycle state.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, atPeriodEnd bool) error {
	externalID, err := s.externalID(ctx, id)
	if err != nil {
		return err
	}
	return s.provider.CancelSubscription(ctx, externalID, atPeriodEnd)
}

// Pause requests a billing pause at the provider.
func (s *Service) Pause(ctx context.Context, id uuid.UUID) error {
	externalID, err := s.externalID(ctx, id)
	if err != nil {
		return err
	}
	return s.provider.PauseSubscription(ctx, externalID)
}

// Resume lifts a provider-side pause.
func (s *Service) Resume(ctx context.Context, id uuid.UUID) error {
	externalID, err := s.externalID(ctx, id)
	if err != nil {
		return err
	}
	return s.provider.ResumeSubscription(ctx, externalID)
}

// Subscription loads the current local state of a subscription.
func (s *Service) Subscription(ctx context.Context, id uuid.UUID) (*subscription.Subscription, error) {
	return s.subs.Find(ctx, id)
}

// Plan returns a catalog plan by id.
func (s *Service) Plan(planID string) (plans.Plan, bool) {
	plan, ok := s.catalog[planID]
	return plan, ok
}

// Webhook returns the HTTP handler receiving provider webhook deliveries,
// ready to mount:
//
//	r.Mount("/webhooks", svc.Webhook())
func (s *Service) Webhook() http.Handler {
	return webhookd.Router(s.provider, s.engine, webhookd.WithLogger(s.log))
}

func (s *Service) externalID(ctx context.Context, id uuid.UUID) (string, error) {
	externalID, err := s.ids.ExternalID(ctx, idmap.EntitySubscription, paddle.ProviderName, id.String())
	if err != nil {
		return "", err
	}
	if externalID == "" {
		return "", ErrNotLinked
	}
	return externalID, nil
}

// Option configures the Service.
type Option func(*Service)

// WithLogger attaches a structured logger to the service and its engine.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}
