// Package aggregate computes the fields of composite resources from their
// already-materialized children. A composite never touches pricing tables
// of its children directly: the children's computed fields, resolved and
// attached to the request by the orchestrator, are the only inputs besides
// the composite's own attributes and provider settings.
//
// Resolution is strict: a reference that does not resolve is a dangling
// reference error, and a resolved child missing a required computed field
// is a reference-not-ready error. Aggregates never silently default a
// missing child.
package aggregate

import (
	"github.com/shopspring/decimal"

	"github.com/openfroyo/provider-deli/pkg/deli"
	"github.com/openfroyo/provider-deli/pkg/pricing"
)

// Coefficients are the weights of the store throughput formula
//
//	customers_per_hour = oven.throughput * sum(cook.skill)
//	                   + Seats  * tables.seat_capacity
//	                   + Chairs * chairs.quantity
//	                   + Fridge * fridge.capacity_factor
//
// Every coefficient must be positive so the formula is strictly
// increasing in each factor. The exact weights are tunable constants; a
// property test pins the monotonicity, not the numbers.
type Coefficients struct {
	Seats  decimal.Decimal
	Chairs decimal.Decimal
	Fridge decimal.Decimal
}

// DefaultCoefficients returns the shipped throughput weights.
func DefaultCoefficients() Coefficients {
	return Coefficients{
		Seats:  decimal.RequireFromString("0.5"),
		Chairs: decimal.RequireFromString("0.25"),
		Fridge: decimal.RequireFromString("2"),
	}
}

// Resolver computes composite aggregates. It holds only immutable
// configuration and is safe for concurrent use.
type Resolver struct {
	coeff Coefficients
}

// NewResolver creates a resolver with the given throughput coefficients.
// Non-positive coefficients are rejected as a packaging defect.
func NewResolver(coeff Coefficients) (*Resolver, error) {
	for name, c := range map[string]decimal.Decimal{
		"seats":  coeff.Seats,
		"chairs": coeff.Chairs,
		"fridge": coeff.Fridge,
	} {
		if !c.IsPositive() {
			return nil, deli.NewInconsistencyError(
				"throughput coefficient %s must be positive, got %s", name, c)
		}
	}
	return &Resolver{coeff: coeff}, nil
}

// Sandwich prices a sandwich from its bread and meat children:
// the children's price components plus the sandwich's own upcharge. The
// children's upcharges are never re-added; each instance's own provider
// scope applies its upcharge exactly once.
func (r *Resolver) Sandwich(attrs deli.SandwichAttrs, refs deli.References, upcharge decimal.Decimal) (deli.Fields, error) {
	bread, err := resolveOne(refs, deli.RoleBread, attrs.BreadID, deli.KindBread)
	if err != nil {
		return nil, err
	}
	meat, err := resolveOne(refs, deli.RoleMeat, attrs.MeatID, deli.KindMeat)
	if err != nil {
		return nil, err
	}

	breadComponent, err := childDecimal(bread, deli.RoleBread, deli.FieldPriceComponent)
	if err != nil {
		return nil, err
	}
	meatComponent, err := childDecimal(meat, deli.RoleMeat, deli.FieldPriceComponent)
	if err != nil {
		return nil, err
	}

	base := breadComponent.Add(meatComponent)
	return deli.Fields{
		deli.FieldPrice:          pricing.Round(pricing.WithUpcharge(base, upcharge)),
		deli.FieldPriceComponent: pricing.Round(base),
	}, nil
}

// Bag validates the 1-5 sandwich references and totals their prices. The
// referenced sandwiches are the priced units, so the bag adds no upcharge
// of its own.
func (r *Resolver) Bag(attrs deli.BagAttrs, refs deli.References) (deli.Fields, error) {
	total := decimal.Zero
	for _, id := range attrs.SandwichIDs {
		sandwich, err := resolveOne(refs, deli.RoleSandwiches, id, deli.KindSandwich)
		if err != nil {
			return nil, err
		}
		price, err := childDecimal(sandwich, deli.RoleSandwiches, deli.FieldPrice)
		if err != nil {
			return nil, err
		}
		total = total.Add(price)
	}
	return deli.Fields{
		deli.FieldTotalPrice:    pricing.Round(total),
		deli.FieldSandwichCount: len(attrs.SandwichIDs),
	}, nil
}

// Store sums the costs of the five component fixtures plus every cook's
// day rate, and derives customers_per_hour from the component factors.
func (r *Resolver) Store(attrs deli.StoreAttrs, refs deli.References) (deli.Fields, error) {
	oven, err := resolveOne(refs, deli.RoleOven, attrs.OvenID, deli.KindOven)
	if err != nil {
		return nil, err
	}
	tables, err := resolveOne(refs, deli.RoleTables, attrs.TablesID, deli.KindTables)
	if err != nil {
		return nil, err
	}
	chairs, err := resolveOne(refs, deli.RoleChairs, attrs.ChairsID, deli.KindChairs)
	if err != nil {
		return nil, err
	}
	fridge, err := resolveOne(refs, deli.RoleFridge, attrs.FridgeID, deli.KindFridge)
	if err != nil {
		return nil, err
	}

	cost := decimal.Zero
	for _, inst := range []deli.ResolvedInstance{oven, tables, chairs, fridge} {
		c, err := childDecimal(inst, roleOf(inst.Kind), deli.FieldCost)
		if err != nil {
			return nil, err
		}
		cost = cost.Add(c)
	}

	skill := decimal.Zero
	for _, id := range attrs.CookIDs {
		cook, err := resolveOne(refs, deli.RoleCooks, id, deli.KindCook)
		if err != nil {
			return nil, err
		}
		rate, err := childDecimal(cook, deli.RoleCooks, deli.FieldDayRate)
		if err != nil {
			return nil, err
		}
		s, err := childDecimal(cook, deli.RoleCooks, deli.FieldSkillFactor)
		if err != nil {
			return nil, err
		}
		cost = cost.Add(rate)
		skill = skill.Add(s)
	}

	throughput, err := childDecimal(oven, deli.RoleOven, deli.FieldThroughputFactor)
	if err != nil {
		return nil, err
	}
	seats, err := childDecimal(tables, deli.RoleTables, deli.FieldSeatCapacity)
	if err != nil {
		return nil, err
	}
	chairQty, err := childDecimal(chairs, deli.RoleChairs, deli.FieldQuantity)
	if err != nil {
		return nil, err
	}
	capacity, err := childDecimal(fridge, deli.RoleFridge, deli.FieldCapacityFactor)
	if err != nil {
		return nil, err
	}

	customers := throughput.Mul(skill).
		Add(r.coeff.Seats.Mul(seats)).
		Add(r.coeff.Chairs.Mul(chairQty)).
		Add(r.coeff.Fridge.Mul(capacity))

	return deli.Fields{
		deli.FieldCost:             pricing.Round(cost),
		deli.FieldCustomersPerHour: pricing.Round(customers),
	}, nil
}

// Menu returns the read-only price snapshot of the priced catalog under
// the given upcharge, optionally filtered to the short kinds in types.
// Field keys are "<short kind>/<catalog key>".
func Menu(upcharge decimal.Decimal, params deli.MenuParams) deli.Fields {
	want := make(map[string]bool, len(params.Types))
	for _, t := range params.Types {
		want[t] = true
	}

	fields := deli.Fields{}
	for _, entry := range pricing.MenuSnapshot(upcharge) {
		short := entry.Kind.Short()
		if len(want) > 0 && !want[short] {
			continue
		}
		fields[short+"/"+entry.Key] = entry.Price
	}
	return fields
}

// resolveOne finds the referenced instance under role and checks its kind.
func resolveOne(refs deli.References, role, id string, want deli.Kind) (deli.ResolvedInstance, error) {
	inst, ok := refs.Find(role, id)
	if !ok {
		return deli.ResolvedInstance{}, deli.NewReferenceError(role,
			"referenced %s %q is not materialized", want.Short(), id)
	}
	if inst.Kind != want {
		return deli.ResolvedInstance{}, deli.NewReferenceError(role,
			"reference %q resolved to kind %s, expected %s", id, inst.Kind, want)
	}
	return inst, nil
}

// childDecimal extracts a required computed field from a resolved child.
func childDecimal(inst deli.ResolvedInstance, role, field string) (decimal.Decimal, error) {
	v, ok := inst.Fields.Decimal(field)
	if !ok {
		return decimal.Decimal{}, deli.NewReferenceError(role,
			"referenced instance %q has no computed %s; dependency not ready", inst.ID, field)
	}
	return v, nil
}

func roleOf(kind deli.Kind) string {
	switch kind {
	case deli.KindOven:
		return deli.RoleOven
	case deli.KindCook:
		return deli.RoleCooks
	case deli.KindTables:
		return deli.RoleTables
	case deli.KindChairs:
		return deli.RoleChairs
	case deli.KindFridge:
		return deli.RoleFridge
	case deli.KindBread:
		return deli.RoleBread
	case deli.KindMeat:
		return deli.RoleMeat
	case deli.KindSandwich:
		return deli.RoleSandwiches
	}
	return string(kind)
}
