package plans

import (
	"context"
	"errors"
	"maps"
	"os"

	"gopkg.in/yaml.v3"
)

type memorySource struct {
	catalog map[string]Plan
}

// NewMemorySource returns a Source serving a fixed set of plans.
// Panics if no plans are given so the service never starts with an empty
// catalog.
func NewMemorySource(plans ...Plan) Source {
	if len(plans) == 0 {
		panic("plans: at least one plan is required")
	}
	catalog := make(map[string]Plan, len(plans))
	for _, plan := range plans {
		catalog[plan.ID] = plan
	}
	return &memorySource{catalog: catalog}
}

func (s *memorySource) Load(_ context.Context) (map[string]Plan, error) {
	return maps.Clone(s.catalog), nil
}

type fileSource struct {
	path string
}

// NewFileSource returns a Source reading the catalog from a YAML file of the
// form:
//
//	plans:
//	  - id: pro-monthly
//	    name: Pro
//	    provider_price_id: pri_01h8xce4qhqpbmnw
//	    interval: monthly
//	    amount: 1900
//	    currency: USD
//
// The file is read on every Load so a restart is not needed to pick up
// catalog edits; callers cache the result if they need stability.
func NewFileSource(path string) Source {
	return &fileSource{path: path}
}

func (s *fileSource) Load(_ context.Context) (map[string]Plan, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, err)
	}

	var doc struct {
		Plans []Plan `yaml:"plans"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, err)
	}

	catalog := make(map[string]Plan, len(doc.Plans))
	for _, plan := range doc.Plans {
		catalog[plan.ID] = plan
	}
	if err := Validate(catalog); err != nil {
		return nil, err
	}
	return catalog, nil
}
