// Package schema validates raw resource attributes against per-kind CUE
// schemas and returns the typed, defaulted attribute sets the rest of the
// engine computes from.
//
// Validation is total and side-effect-free: it inspects only the raw map
// it is given, never other instances. Failures are field-scoped
// validation errors.
package schema

import (
	"encoding/json"
	"math"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"

	"github.com/openfroyo/provider-deli/pkg/deli"
)

// Registry holds the compiled per-kind schemas.
type Registry struct {
	ctx     *cue.Context
	schemas map[deli.Kind]cue.Value
	mu      sync.RWMutex
}

// NewRegistry compiles the built-in kind schemas. A compile failure is a
// packaging defect, reported as a configuration inconsistency.
func NewRegistry() (*Registry, error) {
	r := &Registry{
		ctx:     cuecontext.New(),
		schemas: make(map[deli.Kind]cue.Value),
	}
	for kind, src := range kindSchemas() {
		file := r.ctx.CompileString(src)
		if err := file.Err(); err != nil {
			return nil, deli.NewInconsistencyError(
				"compiling schema for %s: %v", kind, err)
		}
		def := file.LookupPath(cue.ParsePath(definitionName(kind)))
		if err := def.Err(); err != nil {
			return nil, deli.NewInconsistencyError(
				"schema definition for %s not found: %v", kind, err)
		}
		r.schemas[kind] = def
	}
	return r, nil
}

// Kinds returns the kinds the registry has schemas for.
func (r *Registry) Kinds() []deli.Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]deli.Kind, 0, len(r.schemas))
	for k := range r.schemas {
		kinds = append(kinds, k)
	}
	return kinds
}

// Validate checks a raw attribute map against the kind's schema: required
// fields, types, enum membership, numeric ranges, and unknown-field
// rejection. Cross-field rules run in Normalize after the shape check.
func (r *Registry) Validate(kind deli.Kind, raw map[string]any) error {
	r.mu.RLock()
	def, ok := r.schemas[kind]
	r.mu.RUnlock()
	if !ok {
		return deli.NewValidationError("", "unknown kind %q", kind)
	}

	if raw == nil {
		raw = map[string]any{}
	}
	data := r.ctx.Encode(foldNumbers(raw))
	if err := data.Err(); err != nil {
		return deli.NewValidationError("", "attributes are not encodable: %v", err).WithKind(kind)
	}

	unified := def.Unify(data)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return cueToValidationError(kind, err)
	}
	return nil
}

// foldNumbers normalizes the numeric shapes a JSON decoder can hand us:
// json.Number and integral float64 values fold to int64 so integer
// attributes unify with int schemas no matter which decoder produced the
// map. Attribute documents arrive from YAML plans, lifecycle requests,
// and state-store replay, and each path renders numbers differently.
func foldNumbers(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = foldNumbers(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = foldNumbers(val)
		}
		return out
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case float64:
		if t == math.Trunc(t) && !math.IsInf(t, 0) {
			return int64(t)
		}
		return t
	}
	return v
}

// cueToValidationError converts the first CUE error into a field-scoped
// validation error.
func cueToValidationError(kind deli.Kind, err error) error {
	for _, e := range cueerrors.Errors(err) {
		var segs []string
		for _, p := range e.Path() {
			if strings.HasPrefix(p, "#") {
				continue
			}
			segs = append(segs, p)
		}
		field := strings.Join(segs, ".")
		return deli.NewValidationError(field, "%s", e.Error()).WithKind(kind)
	}
	return deli.NewValidationError("", "%v", err).WithKind(kind)
}
