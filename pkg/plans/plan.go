package plans

import (
	"context"
	"errors"
	"fmt"
)

// Interval is the billing frequency of a plan.
type Interval string

const (
	IntervalNone    Interval = "none" // free plans with no provider billing
	IntervalMonthly Interval = "monthly"
	IntervalAnnual  Interval = "annual"
)

// Plan describes one sellable subscription plan. ID doubles as the internal
// price id subscription items reference, so the provider price mapping
// derived from a plan is exactly what the reconciliation engine's price
// heuristic looks up.
type Plan struct {
	ID                string   `yaml:"id"`
	Name              string   `yaml:"name"`
	ProviderPriceID   string   `yaml:"provider_price_id"`   // e.g. pri_01h...
	ProviderProductID string   `yaml:"provider_product_id"` // e.g. pro_01h...
	TrialDays         int      `yaml:"trial_days"`
	Interval          Interval `yaml:"interval"`
	Amount            int64    `yaml:"amount"` // smallest currency unit
	Currency          string   `yaml:"currency"`
}

// Source loads the plan catalog, keyed by plan ID.
type Source interface {
	Load(ctx context.Context) (map[string]Plan, error)
}

var (
	ErrEmptyCatalog      = errors.New("plan catalog is empty")
	ErrInvalidPlan       = errors.New("invalid plan configuration")
	ErrFailedToLoadPlans = errors.New("failed to load plan catalog")
)

// Validate checks a catalog for configuration mistakes that would otherwise
// surface as runtime reconciliation failures.
func Validate(catalog map[string]Plan) error {
	if len(catalog) == 0 {
		return ErrEmptyCatalog
	}
	for id, plan := range catalog {
		if plan.ID != id {
			return errors.Join(ErrInvalidPlan, fmt.Errorf("catalog key %q != plan id %q", id, plan.ID))
		}
		if plan.TrialDays < 0 {
			return errors.Join(ErrInvalidPlan, fmt.Errorf("plan %s has negative trial days", id))
		}
		if plan.Interval != IntervalNone && plan.ProviderPriceID == "" {
			return errors.Join(ErrInvalidPlan, fmt.Errorf("paid plan %s has no provider price id", id))
		}
	}
	return nil
}
