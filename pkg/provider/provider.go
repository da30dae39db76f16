// Package provider implements the lifecycle adapter: the thin boundary
// translating orchestrator Create/Read/Update/Delete calls (plus Describe
// for data sources) into schema validation, pricing, aggregation, and
// identifier encoding.
//
// The provider holds no mutable state between calls. Every operation is a
// pure function of its explicit inputs, so concurrent invocations for
// independent instances need no locking, and Read is a deterministic
// replay of Create: unchanged inputs reproduce the stored identifier and
// computed fields exactly.
package provider

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/openfroyo/provider-deli/pkg/aggregate"
	"github.com/openfroyo/provider-deli/pkg/deli"
	"github.com/openfroyo/provider-deli/pkg/identity"
	"github.com/openfroyo/provider-deli/pkg/pricing"
	"github.com/openfroyo/provider-deli/pkg/schema"
	"github.com/openfroyo/provider-deli/pkg/telemetry"
)

// Provider is the deli lifecycle adapter. It is safe for concurrent use.
type Provider struct {
	schemas  *schema.Registry
	resolver *aggregate.Resolver
	log      *telemetry.Logger
	metrics  *telemetry.Metrics
}

// Option configures a Provider.
type Option func(*options)

type options struct {
	coeff   aggregate.Coefficients
	log     *telemetry.Logger
	metrics *telemetry.Metrics
}

// WithLogger sets the provider logger.
func WithLogger(l *telemetry.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithMetrics sets the provider metrics collector.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithCoefficients overrides the store throughput coefficients.
func WithCoefficients(c aggregate.Coefficients) Option {
	return func(o *options) { o.coeff = c }
}

// New creates a Provider with compiled schemas and the configured
// aggregate resolver.
func New(opts ...Option) (*Provider, error) {
	o := &options{
		coeff:   aggregate.DefaultCoefficients(),
		log:     telemetry.NewLogger(telemetry.DefaultConfig().Logging),
		metrics: telemetry.NewMetrics(telemetry.MetricsConfig{}),
	}
	for _, opt := range opts {
		opt(o)
	}

	schemas, err := schema.NewRegistry()
	if err != nil {
		return nil, err
	}
	resolver, err := aggregate.NewResolver(o.coeff)
	if err != nil {
		return nil, err
	}

	return &Provider{
		schemas:  schemas,
		resolver: resolver,
		log:      o.log.NewComponentLogger("provider"),
		metrics:  o.metrics,
	}, nil
}

// Create validates the request, computes the derived fields, and mints the
// instance identifier.
func (p *Provider) Create(ctx context.Context, req CreateRequest) (resp *CreateResponse, err error) {
	defer p.observe("create", req.Kind, time.Now(), &err)

	if err := checkResourceKind(req.Kind); err != nil {
		return nil, err
	}
	if req.Salt == "" {
		return nil, deli.NewValidationError("salt", "a sequence salt is required").WithKind(req.Kind)
	}
	if err := req.Settings.validate(); err != nil {
		return nil, err
	}

	attrs, err := p.schemas.Normalize(req.Kind, req.Attributes)
	if err != nil {
		return nil, err
	}
	computed, err := p.compute(attrs, req.Settings, req.References)
	if err != nil {
		return nil, err
	}
	id, err := encodeID(attrs, req.Salt)
	if err != nil {
		return nil, err
	}
	computed[deli.FieldSerial] = req.Salt

	p.log.WithOperation("create").WithKind(string(req.Kind)).WithResourceID(string(id)).Debug("materialized instance")
	return &CreateResponse{ID: id, Computed: computed}, nil
}

// Read replays the computation from the stored attributes. Divergence from
// the stored identifier indicates a defect, not user error.
func (p *Provider) Read(ctx context.Context, req ReadRequest) (resp *ReadResponse, err error) {
	defer p.observe("read", req.Kind, time.Now(), &err)

	if err := checkResourceKind(req.Kind); err != nil {
		return nil, err
	}
	if req.Salt == "" {
		return nil, deli.NewValidationError("salt", "the stored sequence salt is required").WithKind(req.Kind)
	}
	if err := req.Settings.validate(); err != nil {
		return nil, err
	}

	attrs, err := p.schemas.Normalize(req.Kind, req.Attributes)
	if err != nil {
		return nil, err
	}
	computed, err := p.compute(attrs, req.Settings, req.References)
	if err != nil {
		return nil, err
	}
	id, err := encodeID(attrs, req.Salt)
	if err != nil {
		return nil, err
	}
	if id != req.ID {
		return nil, deli.NewInconsistencyError(
			"recomputed identifier %s diverges from stored %s; stored attributes do not reproduce the instance",
			id, req.ID).WithKind(req.Kind)
	}
	computed[deli.FieldSerial] = req.Salt

	return &ReadResponse{Computed: computed}, nil
}

// Update re-validates and re-prices the instance with its new attributes.
// If an identity-affecting attribute changed the response carries a new
// identifier and RequiresReplace, and the orchestrator performs
// replacement semantics.
func (p *Provider) Update(ctx context.Context, req UpdateRequest) (resp *UpdateResponse, err error) {
	defer p.observe("update", req.Kind, time.Now(), &err)

	if err := checkResourceKind(req.Kind); err != nil {
		return nil, err
	}
	if req.Salt == "" {
		return nil, deli.NewValidationError("salt", "the stored sequence salt is required").WithKind(req.Kind)
	}
	if err := req.Settings.validate(); err != nil {
		return nil, err
	}

	prior, err := p.schemas.Normalize(req.Kind, req.PriorAttributes)
	if err != nil {
		return nil, err
	}
	priorID, err := encodeID(prior, req.Salt)
	if err != nil {
		return nil, err
	}
	if priorID != req.ID {
		return nil, deli.NewInconsistencyError(
			"prior attributes do not reproduce identifier %s (recomputed %s)",
			req.ID, priorID).WithKind(req.Kind)
	}

	attrs, err := p.schemas.Normalize(req.Kind, req.Attributes)
	if err != nil {
		return nil, err
	}
	computed, err := p.compute(attrs, req.Settings, req.References)
	if err != nil {
		return nil, err
	}
	id, err := encodeID(attrs, req.Salt)
	if err != nil {
		return nil, err
	}
	computed[deli.FieldSerial] = req.Salt

	return &UpdateResponse{
		ID:              id,
		RequiresReplace: id != req.ID,
		Computed:        computed,
	}, nil
}

// Delete retires an instance. The engine holds no external resource, so
// this is a confirmation that the identifier is one of ours.
func (p *Provider) Delete(ctx context.Context, req DeleteRequest) (resp *DeleteResponse, err error) {
	defer p.observe("delete", req.Kind, time.Now(), &err)

	if err := checkResourceKind(req.Kind); err != nil {
		return nil, err
	}
	dec, err := identity.Decode(req.ID)
	if err != nil {
		return nil, deli.NewValidationError("id", "unknown instance %q: %v", req.ID, err).WithKind(req.Kind)
	}
	if dec.Kind != req.Kind.Short() {
		return nil, deli.NewValidationError("id", "identifier %q is a %s, not a %s",
			req.ID, dec.Kind, req.Kind.Short()).WithKind(req.Kind)
	}
	return &DeleteResponse{Acknowledged: true}, nil
}

// Describe invokes a read-only data source. Data sources have no
// create/update/delete phases and mutate nothing.
func (p *Provider) Describe(ctx context.Context, req DescribeRequest) (resp *DescribeResponse, err error) {
	defer p.observe("describe", req.Name, time.Now(), &err)

	if !req.Name.IsDataSource() {
		return nil, deli.NewValidationError("name", "unknown data source %q", req.Name)
	}
	if err := req.Settings.validate(); err != nil {
		return nil, err
	}

	params, err := p.schemas.NormalizeMenuParams(req.Params)
	if err != nil {
		return nil, err
	}
	return &DescribeResponse{
		Computed: aggregate.Menu(req.Settings.Upcharge, params),
	}, nil
}

// compute derives the computed fields of a validated attribute set. Leaf
// kinds read the pricing tables; composite kinds go through the aggregate
// resolver with their resolved references.
func (p *Provider) compute(attrs deli.Attrs, settings Settings, refs deli.References) (deli.Fields, error) {
	u := settings.Upcharge

	switch a := attrs.(type) {
	case deli.BreadAttrs:
		base, err := pricing.BreadBase(a.BreadKind)
		if err != nil {
			return nil, err
		}
		return pricedLeaf(base, u), nil

	case deli.MeatAttrs:
		base, err := pricing.MeatBase(a.MeatKind)
		if err != nil {
			return nil, err
		}
		return pricedLeaf(base, u), nil

	case deli.DrinkAttrs:
		base, err := pricing.DrinkBase(a.DrinkKind, a.Size)
		if err != nil {
			return nil, err
		}
		return pricedLeaf(base, u), nil

	case deli.SideAttrs:
		base, err := pricing.SideBase(a.SideKind, a.Quantity)
		if err != nil {
			return nil, err
		}
		fields := pricedLeaf(base, u)
		fields[deli.FieldQuantity] = a.Quantity
		return fields, nil

	case deli.OvenAttrs:
		cost, err := pricing.OvenCost(a.Type)
		if err != nil {
			return nil, err
		}
		throughput, err := pricing.OvenThroughput(a.Type)
		if err != nil {
			return nil, err
		}
		return deli.Fields{
			deli.FieldCost:             pricing.Round(cost),
			deli.FieldThroughputFactor: throughput,
		}, nil

	case deli.CookAttrs:
		rate, err := pricing.CookDayRate(a.Experience)
		if err != nil {
			return nil, err
		}
		skill, err := pricing.CookSkill(a.Experience)
		if err != nil {
			return nil, err
		}
		return deli.Fields{
			deli.FieldCost:        pricing.Round(rate),
			deli.FieldDayRate:     pricing.Round(rate),
			deli.FieldSkillFactor: skill,
		}, nil

	case deli.TablesAttrs:
		return deli.Fields{
			deli.FieldCost:         pricing.Round(pricing.TablesCost(a.Quantity)),
			deli.FieldQuantity:     a.Quantity,
			deli.FieldSeatCapacity: a.Quantity * a.SeatsEach,
		}, nil

	case deli.ChairsAttrs:
		cost, err := pricing.ChairsCost(a.Style, a.Quantity)
		if err != nil {
			return nil, err
		}
		return deli.Fields{
			deli.FieldCost:     pricing.Round(cost),
			deli.FieldQuantity: a.Quantity,
		}, nil

	case deli.FridgeAttrs:
		cost, err := pricing.FridgeCost(a.Capacity)
		if err != nil {
			return nil, err
		}
		capacity, err := pricing.FridgeCapacity(a.Capacity)
		if err != nil {
			return nil, err
		}
		return deli.Fields{
			deli.FieldCost:           pricing.Round(cost),
			deli.FieldCapacityFactor: capacity,
		}, nil

	case deli.SandwichAttrs:
		return p.resolver.Sandwich(a, refs, u)

	case deli.BagAttrs:
		return p.resolver.Bag(a, refs)

	case deli.StoreAttrs:
		return p.resolver.Store(a, refs)
	}

	return nil, deli.NewInconsistencyError("no computation defined for %s", attrs.Kind())
}

// pricedLeaf builds the computed fields shared by every priced leaf kind.
func pricedLeaf(base, upcharge decimal.Decimal) deli.Fields {
	return deli.Fields{
		deli.FieldPrice:          pricing.Round(pricing.WithUpcharge(base, upcharge)),
		deli.FieldPriceComponent: pricing.Round(base),
	}
}

// encodeID mints the instance identifier from the validated attributes and
// the sequence salt.
func encodeID(attrs deli.Attrs, salt string) (identity.ID, error) {
	payload := string(attrs.Kind()) + "|" + attrs.IdentityPayload()
	fp := identity.Fingerprint(payload, salt)
	id, err := identity.Encode(attrs.Kind().Short(), attrs.IdentityTokens(), fp)
	if err != nil {
		return "", deli.NewInconsistencyError("encoding identifier: %v", err).WithKind(attrs.Kind())
	}
	return id, nil
}

// checkResourceKind rejects unknown kinds and data sources on managed
// resource operations.
func checkResourceKind(kind deli.Kind) error {
	if !kind.Valid() || kind.IsDataSource() {
		return deli.NewValidationError("kind", "unknown resource kind %q", kind)
	}
	return nil
}

// observe records the operation metric and error-class counter.
func (p *Provider) observe(operation string, kind deli.Kind, start time.Time, err *error) {
	status := "ok"
	if *err != nil {
		status = "error"
		var e *deli.Error
		if errors.As(*err, &e) {
			p.metrics.RecordError(string(e.Class))
		}
		p.log.WithOperation(operation).WithKind(string(kind)).WithError(*err).Debug("operation failed")
	}
	p.metrics.RecordOperation(operation, kind.Short(), status, time.Since(start))
}
