// Package catalog loads data-driven order definitions from YAML and
// compiles them into registrable order strategies. Game content defines
// orders declaratively; eligibility, target validity and scoring can be
// refined with expression predicates evaluated against the agent and the
// target.
package catalog

import (
	"fmt"
	"os"
	"strings"

	"github.com/expr-lang/expr"
	"gopkg.in/yaml.v3"

	"github.com/cadre-games/ordercore/internal/domain"
	"github.com/cadre-games/ordercore/internal/order"
	"github.com/cadre-games/ordercore/internal/tags"
)

// Requirements mirrors tags.Requirements in YAML form.
type Requirements struct {
	SourceRequired []string `yaml:"source_required"`
	SourceBlocked  []string `yaml:"source_blocked"`
	TargetRequired []string `yaml:"target_required"`
	TargetBlocked  []string `yaml:"target_blocked"`
}

func (r Requirements) toTags() tags.Requirements {
	conv := func(in []string) tags.Set {
		if len(in) == 0 {
			return nil
		}
		out := tags.NewSet()
		for _, t := range in {
			out.Add(tags.Tag(t))
		}
		return out
	}
	return tags.Requirements{
		SourceRequired: conv(r.SourceRequired),
		SourceBlocked:  conv(r.SourceBlocked),
		TargetRequired: conv(r.TargetRequired),
		TargetBlocked:  conv(r.TargetBlocked),
	}
}

// Definition is one order in the catalog file.
type Definition struct {
	ID                  string       `yaml:"id"`
	TargetType          string       `yaml:"target_type"`
	ProcessPolicy       string       `yaml:"process_policy"`
	GroupExecution      string       `yaml:"group_execution"`
	Execution           string       `yaml:"execution"`
	Fallback            string       `yaml:"fallback"`
	AcquisitionRadius   float64      `yaml:"acquisition_radius"`
	RequiredRange       float64      `yaml:"required_range"`
	ChaseDistance       float64      `yaml:"chase_distance"`
	HumanAuto           bool         `yaml:"human_auto"`
	AIAuto              bool         `yaml:"ai_auto"`
	HumanAutoInitial    bool         `yaml:"human_auto_initial"`
	AllowAutoOrders     bool         `yaml:"allow_auto_orders"`
	Requirements        Requirements `yaml:"requirements"`
	SuccessRequirements Requirements `yaml:"success_requirements"`
	CanObey             string       `yaml:"can_obey"`
	ValidTarget         string       `yaml:"valid_target"`
	Score               string       `yaml:"score"`

	// ScoreFactors multiplies the target score per tag the target owns,
	// e.g. status.permanent.canGather: 0.7 to deprioritize workers.
	ScoreFactors map[string]float64 `yaml:"score_factors"`
}

// Catalog is a parsed order catalog.
type Catalog struct {
	Orders []Definition `yaml:"orders"`
}

// Load reads and parses a catalog file.
func Load(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.ErrCatalogInvalid.WithDetail(err.Error())
	}
	return Parse(raw)
}

// Parse decodes catalog YAML.
func Parse(raw []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, domain.ErrCatalogInvalid.WithDetail(err.Error())
	}
	return &c, nil
}

var targetTypes = map[string]domain.TargetType{
	"":          domain.TargetNone,
	"none":      domain.TargetNone,
	"actor":     domain.TargetActor,
	"location":  domain.TargetLocation,
	"direction": domain.TargetDirection,
	"passive":   domain.TargetPassive,
}

var processPolicies = map[string]domain.ProcessPolicy{
	"":                    domain.ProcessCanBeCanceled,
	"can_be_canceled":     domain.ProcessCanBeCanceled,
	"can_not_be_canceled": domain.ProcessCanNotBeCanceled,
	"instant":             domain.ProcessInstant,
}

var groupTypes = map[string]domain.GroupExecutionType{
	"":                   domain.GroupAll,
	"all":                domain.GroupAll,
	"selected_subgroup":  domain.GroupSelectedSubgroup,
	"selected_unit":      domain.GroupSelectedUnit,
	"most_suitable_unit": domain.GroupMostSuitableUnit,
}

// Validate checks every definition and returns all problems at once.
func (c *Catalog) Validate() error {
	var problems []string
	seen := make(map[string]bool)

	for i, def := range c.Orders {
		where := fmt.Sprintf("orders[%d] (%s)", i, def.ID)
		if def.ID == "" {
			problems = append(problems, where+": id is required")
		}
		if seen[def.ID] {
			problems = append(problems, where+": duplicate id")
		}
		seen[def.ID] = true

		if _, ok := targetTypes[def.TargetType]; !ok {
			problems = append(problems, where+": unknown target_type "+def.TargetType)
		}
		if _, ok := processPolicies[def.ProcessPolicy]; !ok {
			problems = append(problems, where+": unknown process_policy "+def.ProcessPolicy)
		}
		if _, ok := groupTypes[def.GroupExecution]; !ok {
			problems = append(problems, where+": unknown group_execution "+def.GroupExecution)
		}
		if def.AcquisitionRadius < 0 {
			problems = append(problems, where+": acquisition_radius must not be negative")
		}
		if def.RequiredRange < 0 {
			problems = append(problems, where+": required_range must not be negative")
		}
		if def.ChaseDistance < 0 {
			problems = append(problems, where+": chase_distance must not be negative")
		}
		for tag, factor := range def.ScoreFactors {
			if tag == "" {
				problems = append(problems, where+": score_factors contains an empty tag")
			}
			if factor < 0 {
				problems = append(problems, fmt.Sprintf("%s: score factor for %s must not be negative", where, tag))
			}
		}

		for _, p := range []struct{ field, src string }{
			{"can_obey", def.CanObey},
			{"valid_target", def.ValidTarget},
		} {
			if p.src == "" {
				continue
			}
			if _, err := expr.Compile(p.src, expr.Env(Env{}), expr.AsBool()); err != nil {
				problems = append(problems, fmt.Sprintf("%s: %s: %v", where, p.field, err))
			}
		}
		if def.Score != "" {
			if _, err := expr.Compile(def.Score, expr.Env(Env{}), expr.AsFloat64()); err != nil {
				problems = append(problems, fmt.Sprintf("%s: score: %v", where, err))
			}
		}
	}

	if len(problems) > 0 {
		return domain.ErrCatalogInvalid.WithDetail(strings.Join(problems, "; "))
	}
	return nil
}

// Build compiles every definition and registers it. Execution names are
// resolved against the provided runner table; a definition naming an
// unknown runner fails the build.
func (c *Catalog) Build(registry *order.Registry, executions map[string]order.RunFunc) error {
	if err := c.Validate(); err != nil {
		return err
	}

	for _, def := range c.Orders {
		run, ok := executions[def.Execution]
		if def.Execution != "" && !ok {
			return domain.ErrNoExecution.WithDetail(fmt.Sprintf("order %s names execution %q", def.ID, def.Execution))
		}

		do, err := compile(def, run)
		if err != nil {
			return err
		}
		if err := registry.Register(domain.OrderTypeID(def.ID), do); err != nil {
			return err
		}
	}
	return nil
}
