package harness

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/openfroyo/provider-deli/pkg/deli"
)

// PlanResource is one desired resource in a harness plan. Reference
// attributes (bread_id, sandwich_ids, ...) name other plan resources by
// their logical name; the harness substitutes materialized identifiers
// before invoking the provider.
type PlanResource struct {
	Name       string         `yaml:"name"`
	Kind       deli.Kind      `yaml:"kind"`
	Attributes map[string]any `yaml:"attributes"`
}

// Plan is a desired set of resources.
type Plan struct {
	Resources []PlanResource `yaml:"resources"`
}

// LoadPlan reads a YAML plan and performs structural checks: every
// resource has a unique name and a known kind, and every reference names
// a resource in the plan.
func LoadPlan(r io.Reader) (Plan, error) {
	var plan Plan
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&plan); err != nil {
		return Plan{}, fmt.Errorf("decoding plan: %w", err)
	}
	if err := plan.check(); err != nil {
		return Plan{}, err
	}
	return plan, nil
}

func (p Plan) check() error {
	seen := make(map[string]bool, len(p.Resources))
	for _, res := range p.Resources {
		if res.Name == "" {
			return fmt.Errorf("plan resource of kind %s has no name", res.Kind)
		}
		if seen[res.Name] {
			return fmt.Errorf("plan names resource %q twice", res.Name)
		}
		seen[res.Name] = true
		if !res.Kind.Valid() || res.Kind.IsDataSource() {
			return fmt.Errorf("resource %q has unknown kind %q", res.Name, res.Kind)
		}
	}
	for _, res := range p.Resources {
		for _, dep := range res.dependencies() {
			if !seen[dep] {
				return fmt.Errorf("resource %q references %q, which is not in the plan", res.Name, dep)
			}
		}
	}
	return nil
}

// refField describes one reference attribute of a composite kind: the
// attribute holding the reference, the role the resolved instance is
// attached under, and the kind it must resolve to.
type refField struct {
	attr string
	role string
	kind deli.Kind
	many bool
}

// referenceFields returns the reference attributes of a kind. Leaf kinds
// have none.
func referenceFields(kind deli.Kind) []refField {
	switch kind {
	case deli.KindSandwich:
		return []refField{
			{attr: "bread_id", role: deli.RoleBread, kind: deli.KindBread},
			{attr: "meat_id", role: deli.RoleMeat, kind: deli.KindMeat},
		}
	case deli.KindBag:
		return []refField{
			{attr: "sandwich_ids", role: deli.RoleSandwiches, kind: deli.KindSandwich, many: true},
		}
	case deli.KindStore:
		return []refField{
			{attr: "oven_id", role: deli.RoleOven, kind: deli.KindOven},
			{attr: "cook_ids", role: deli.RoleCooks, kind: deli.KindCook, many: true},
			{attr: "tables_id", role: deli.RoleTables, kind: deli.KindTables},
			{attr: "chairs_id", role: deli.RoleChairs, kind: deli.KindChairs},
			{attr: "fridge_id", role: deli.RoleFridge, kind: deli.KindFridge},
		}
	}
	return nil
}

// dependencies returns the logical names this resource references.
func (r PlanResource) dependencies() []string {
	var deps []string
	for _, ref := range referenceFields(r.Kind) {
		v, ok := r.Attributes[ref.attr]
		if !ok {
			continue
		}
		if ref.many {
			for _, name := range asStrings(v) {
				deps = append(deps, name)
			}
			continue
		}
		if name, ok := v.(string); ok {
			deps = append(deps, name)
		}
	}
	return deps
}

func asStrings(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
