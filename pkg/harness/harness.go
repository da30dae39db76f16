// Package harness is a development orchestrator for the deli provider: it
// applies declarative plans against the provider's lifecycle operations
// and persists the materialized instances in SQLite, so the provider can
// be exercised end to end without a full orchestrator deployment.
package harness

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/openfroyo/provider-deli/pkg/deli"
	"github.com/openfroyo/provider-deli/pkg/provider"
	"github.com/openfroyo/provider-deli/pkg/telemetry"
)

// Harness drives the provider through plans.
type Harness struct {
	store    *Store
	provider *provider.Provider
	settings provider.Settings
	log      *telemetry.Logger
}

// New creates a harness over an initialized store.
func New(store *Store, p *provider.Provider, settings provider.Settings, log *telemetry.Logger) *Harness {
	return &Harness{
		store:    store,
		provider: p,
		settings: settings,
		log:      log.NewComponentLogger("harness"),
	}
}

// Apply materializes the plan. Resources are applied in dependency order:
// a composite waits until every resource it references has been
// materialized in this or an earlier pass. Unchanged resources are left
// alone; changed ones are updated in place, or replaced when an
// identity-affecting attribute changed.
func (h *Harness) Apply(ctx context.Context, plan Plan) error {
	pending := make([]PlanResource, len(plan.Resources))
	copy(pending, plan.Resources)
	done := make(map[string]bool)

	for len(pending) > 0 {
		progressed := false
		var blocked []PlanResource

		for _, res := range pending {
			ready := true
			for _, dep := range res.dependencies() {
				applied := done[dep]
				if !applied {
					// A dependency may already exist from an earlier run.
					exists, err := h.store.HasInstance(ctx, dep)
					if err != nil {
						return err
					}
					applied = exists && !inPlan(plan, dep)
				}
				if !applied {
					ready = false
					break
				}
			}
			if !ready {
				blocked = append(blocked, res)
				continue
			}
			if err := h.applyOne(ctx, res); err != nil {
				return fmt.Errorf("applying %s: %w", res.Name, err)
			}
			done[res.Name] = true
			progressed = true
		}

		if !progressed {
			return fmt.Errorf("plan has a reference cycle among %d resources", len(blocked))
		}
		pending = blocked
	}
	return nil
}

func inPlan(plan Plan, name string) bool {
	for _, res := range plan.Resources {
		if res.Name == name {
			return true
		}
	}
	return false
}

// applyOne creates, updates, or replaces a single resource.
func (h *Harness) applyOne(ctx context.Context, res PlanResource) error {
	attrs, refs, err := h.resolve(ctx, res)
	if err != nil {
		return err
	}
	attrsJSON, err := json.Marshal(attrs)
	if err != nil {
		return fmt.Errorf("encoding attributes: %w", err)
	}

	exists, err := h.store.HasInstance(ctx, res.Name)
	if err != nil {
		return err
	}
	if !exists {
		return h.create(ctx, res, attrs, attrsJSON, refs)
	}

	prior, err := h.store.GetInstance(ctx, res.Name)
	if err != nil {
		return err
	}
	if prior.Kind != res.Kind {
		// A kind change is always a replacement.
		if err := h.delete(ctx, *prior); err != nil {
			return err
		}
		return h.create(ctx, res, attrs, attrsJSON, refs)
	}
	if string(prior.Attrs) == string(attrsJSON) {
		h.log.WithKind(string(res.Kind)).Debugf("%s unchanged", res.Name)
		return nil
	}

	priorAttrs, err := prior.Attributes()
	if err != nil {
		return err
	}
	resp, err := h.provider.Update(ctx, provider.UpdateRequest{
		ID:              prior.IDValue(),
		Kind:            res.Kind,
		PriorAttributes: priorAttrs,
		Attributes:      attrs,
		Settings:        h.settings,
		References:      refs,
		Salt:            prior.Serial,
	})
	if err != nil {
		return err
	}
	if resp.RequiresReplace {
		h.log.WithKind(string(res.Kind)).Infof("%s requires replacement", res.Name)
		if err := h.delete(ctx, *prior); err != nil {
			return err
		}
		return h.create(ctx, res, attrs, attrsJSON, refs)
	}

	computedJSON, err := json.Marshal(resp.Computed)
	if err != nil {
		return fmt.Errorf("encoding computed fields: %w", err)
	}
	return h.store.PutInstance(ctx, Instance{
		ID:        string(resp.ID),
		Name:      res.Name,
		Kind:      res.Kind,
		Attrs:     attrsJSON,
		Computed:  computedJSON,
		Serial:    prior.Serial,
		CreatedAt: prior.CreatedAt,
	})
}

func (h *Harness) create(ctx context.Context, res PlanResource, attrs map[string]any, attrsJSON []byte, refs deli.References) error {
	salt := uuid.NewString()
	resp, err := h.provider.Create(ctx, provider.CreateRequest{
		Kind:       res.Kind,
		Attributes: attrs,
		Settings:   h.settings,
		References: refs,
		Salt:       salt,
	})
	if err != nil {
		return err
	}
	computedJSON, err := json.Marshal(resp.Computed)
	if err != nil {
		return fmt.Errorf("encoding computed fields: %w", err)
	}
	h.log.WithKind(string(res.Kind)).WithResourceID(string(resp.ID)).Infof("created %s", res.Name)
	return h.store.PutInstance(ctx, Instance{
		ID:       string(resp.ID),
		Name:     res.Name,
		Kind:     res.Kind,
		Attrs:    attrsJSON,
		Computed: computedJSON,
		Serial:   salt,
	})
}

func (h *Harness) delete(ctx context.Context, inst Instance) error {
	if _, err := h.provider.Delete(ctx, provider.DeleteRequest{
		ID:   inst.IDValue(),
		Kind: inst.Kind,
	}); err != nil {
		return err
	}
	return h.store.DeleteInstance(ctx, inst.Name)
}

// resolve substitutes the plan's logical names in reference attributes
// with materialized identifiers and builds the resolved-reference set the
// provider needs to compute the composite.
func (h *Harness) resolve(ctx context.Context, res PlanResource) (map[string]any, deli.References, error) {
	attrs := make(map[string]any, len(res.Attributes))
	for k, v := range res.Attributes {
		attrs[k] = v
	}

	refs := deli.References{}
	for _, ref := range referenceFields(res.Kind) {
		v, ok := attrs[ref.attr]
		if !ok {
			continue
		}
		if ref.many {
			names := asStrings(v)
			ids := make([]string, 0, len(names))
			for _, name := range names {
				inst, err := h.lookup(ctx, name, ref)
				if err != nil {
					return nil, nil, err
				}
				ids = append(ids, inst.ID)
				refs[ref.role] = append(refs[ref.role], inst)
			}
			attrs[ref.attr] = ids
			continue
		}
		name, ok := v.(string)
		if !ok {
			return nil, nil, fmt.Errorf("attribute %s of %s must be a string", ref.attr, res.Name)
		}
		inst, err := h.lookup(ctx, name, ref)
		if err != nil {
			return nil, nil, err
		}
		attrs[ref.attr] = inst.ID
		refs[ref.role] = append(refs[ref.role], inst)
	}
	return attrs, refs, nil
}

// lookup finds the materialized instance behind a logical name and
// returns the resolved form composites consume.
func (h *Harness) lookup(ctx context.Context, name string, ref refField) (deli.ResolvedInstance, error) {
	inst, err := h.store.GetInstance(ctx, name)
	if err != nil {
		return deli.ResolvedInstance{}, err
	}
	if inst.Kind != ref.kind {
		return deli.ResolvedInstance{}, fmt.Errorf("%s is a %s, but %s expects a %s",
			name, inst.Kind, ref.attr, ref.kind)
	}
	fields, err := inst.Fields()
	if err != nil {
		return deli.ResolvedInstance{}, err
	}
	return deli.ResolvedInstance{ID: inst.ID, Kind: inst.Kind, Fields: fields}, nil
}

// Drift is one instance whose replayed computation no longer matches its
// stored state.
type Drift struct {
	Name   string
	ID     string
	Reason string
}

// Verify replays every stored instance through the provider's Read and
// reports instances whose recomputed fields diverge from the stored ones.
// A clean state returns an empty slice.
func (h *Harness) Verify(ctx context.Context) ([]Drift, error) {
	instances, err := h.store.ListInstances(ctx)
	if err != nil {
		return nil, err
	}

	var drifts []Drift
	for _, inst := range instances {
		attrs, err := inst.Attributes()
		if err != nil {
			return nil, err
		}
		refs, err := h.referencesFor(ctx, inst.Kind, attrs)
		if err != nil {
			return nil, err
		}
		resp, err := h.provider.Read(ctx, provider.ReadRequest{
			ID:         inst.IDValue(),
			Kind:       inst.Kind,
			Attributes: attrs,
			Settings:   h.settings,
			References: refs,
			Salt:       inst.Serial,
		})
		if err != nil {
			drifts = append(drifts, Drift{Name: inst.Name, ID: inst.ID, Reason: err.Error()})
			continue
		}

		stored, err := inst.Fields()
		if err != nil {
			return nil, err
		}
		if reason, equal := fieldsEqual(stored, resp.Computed); !equal {
			drifts = append(drifts, Drift{Name: inst.Name, ID: inst.ID, Reason: reason})
		}
	}
	return drifts, nil
}

// referencesFor rebuilds the resolved-reference set of a stored instance
// from the identifiers already substituted into its attributes.
func (h *Harness) referencesFor(ctx context.Context, kind deli.Kind, attrs map[string]any) (deli.References, error) {
	refs := deli.References{}
	for _, ref := range referenceFields(kind) {
		v, ok := attrs[ref.attr]
		if !ok {
			continue
		}
		ids := asStrings(v)
		if !ref.many {
			if id, ok := v.(string); ok {
				ids = []string{id}
			}
		}
		for _, id := range ids {
			inst, err := h.store.GetInstanceByID(ctx, id)
			if err != nil {
				return nil, err
			}
			fields, err := inst.Fields()
			if err != nil {
				return nil, err
			}
			refs[ref.role] = append(refs[ref.role], deli.ResolvedInstance{
				ID: inst.ID, Kind: inst.Kind, Fields: fields,
			})
		}
	}
	return refs, nil
}

// Destroy deletes every stored instance, newest first so composites go
// before the instances they reference.
func (h *Harness) Destroy(ctx context.Context) error {
	instances, err := h.store.ListInstances(ctx)
	if err != nil {
		return err
	}
	for i := len(instances) - 1; i >= 0; i-- {
		if err := h.delete(ctx, instances[i]); err != nil {
			return fmt.Errorf("destroying %s: %w", instances[i].Name, err)
		}
		h.log.WithResourceID(instances[i].ID).Infof("destroyed %s", instances[i].Name)
	}
	return nil
}

// fieldsEqual compares two computed-field maps semantically: numeric
// fields compare as decimals so that a JSON round trip through the state
// store cannot manufacture drift.
func fieldsEqual(stored, recomputed deli.Fields) (string, bool) {
	if len(stored) != len(recomputed) {
		return fmt.Sprintf("field count changed: %d stored, %d recomputed", len(stored), len(recomputed)), false
	}
	for name := range stored {
		if _, ok := recomputed[name]; !ok {
			return fmt.Sprintf("field %s missing from recomputation", name), false
		}
		a, aok := stored.Decimal(name)
		b, bok := recomputed.Decimal(name)
		if aok && bok {
			if !a.Equal(b) {
				return fmt.Sprintf("field %s changed: %s stored, %s recomputed", name, a, b), false
			}
			continue
		}
		if fmt.Sprint(stored[name]) != fmt.Sprint(recomputed[name]) {
			return fmt.Sprintf("field %s changed: %v stored, %v recomputed", name, stored[name], recomputed[name]), false
		}
	}
	return "", true
}
