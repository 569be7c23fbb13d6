package warm

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/talentiq/talentstats/pkg/entities"
)

// Plan configures one maintenance run. Operators ship it as a YAML
// file so a bad night can be re-run for a subset of kinds without a
// redeploy.
type Plan struct {
	// Kinds to process. Empty means all kinds.
	Kinds []string `yaml:"kinds"`

	// Concurrency is the per-kind worker count for entity warming.
	Concurrency int `yaml:"concurrency"`

	// Sweep toggles the retention and dangling-key sweep.
	Sweep bool `yaml:"sweep"`

	// Engagement toggles the pipeline engagement score refresh.
	Engagement bool `yaml:"engagement"`
}

// DefaultPlan processes everything with modest concurrency.
func DefaultPlan() Plan {
	return Plan{
		Concurrency: 4,
		Sweep:       true,
		Engagement:  true,
	}
}

// LoadPlan reads a plan file, falling back to defaults for anything
// unset.
func LoadPlan(path string) (Plan, error) {
	plan := DefaultPlan()

	data, err := os.ReadFile(path)
	if err != nil {
		return plan, fmt.Errorf("failed to read plan file: %w", err)
	}
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return plan, fmt.Errorf("failed to parse plan file: %w", err)
	}
	if plan.Concurrency < 1 {
		plan.Concurrency = 1
	}
	return plan, nil
}

// ResolveKinds maps the plan's kind names to entity kinds. Empty
// selects all kinds.
func (p Plan) ResolveKinds() ([]entities.Kind, error) {
	if len(p.Kinds) == 0 {
		return entities.Kinds, nil
	}
	kinds := make([]entities.Kind, 0, len(p.Kinds))
	for _, name := range p.Kinds {
		kind, err := entities.ParseKind(name)
		if err != nil {
			return nil, fmt.Errorf("invalid kind in plan: %w", err)
		}
		kinds = append(kinds, kind)
	}
	return kinds, nil
}
