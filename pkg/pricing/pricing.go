// Package pricing maps validated attributes and provider settings to
// monetary fields. Every function here is pure: the same inputs always
// produce the same decimals, and nothing reads global or temporal state.
//
// Monetary values are exact decimals (shopspring/decimal). Intermediate
// arithmetic is never rounded; Round applies the two-decimal-place output
// boundary and is called exactly once per computed field, when the field
// is emitted.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/openfroyo/provider-deli/pkg/deli"
)

// d parses a table constant. Tables are package literals, so a parse
// failure is unreachable in a correct build.
func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic("pricing: bad table constant " + s)
	}
	return v
}

// Base price and cost tables, keyed by each kind's primary enum attribute.
// A schema/table consistency test guarantees every enum value declared in
// pkg/deli has an entry; a miss at runtime is a packaging defect.
var (
	breadPrices = map[string]decimal.Decimal{
		"rye":          d("3.00"),
		"sourdough":    d("3.50"),
		"wheat":        d("2.75"),
		"white":        d("2.50"),
		"pumpernickel": d("3.25"),
		"brioche":      d("4.00"),
	}

	meatPrices = map[string]decimal.Decimal{
		"turkey":     d("2.00"),
		"ham":        d("2.25"),
		"roast_beef": d("3.50"),
		"salami":     d("2.75"),
		"pastrami":   d("3.75"),
		"veggie":     d("1.75"),
	}

	drinkPrices = map[string]decimal.Decimal{
		"cola":     d("1.50"),
		"lemonade": d("2.00"),
		"iced_tea": d("1.75"),
		"coffee":   d("2.25"),
	}

	drinkSizeModifiers = map[string]decimal.Decimal{
		"small":  d("0.00"),
		"medium": d("0.50"),
		"large":  d("1.00"),
	}

	sideUnitPrices = map[string]decimal.Decimal{
		"chips":        d("1.25"),
		"pickle":       d("0.75"),
		"coleslaw":     d("1.50"),
		"potato_salad": d("1.75"),
	}

	ovenCosts = map[string]decimal.Decimal{
		"conveyor":   d("4500.00"),
		"deck":       d("3000.00"),
		"convection": d("3800.00"),
		"brick":      d("6000.00"),
	}

	ovenThroughputs = map[string]decimal.Decimal{
		"conveyor":   d("12"),
		"deck":       d("8"),
		"convection": d("10"),
		"brick":      d("15"),
	}

	cookDayRates = map[string]decimal.Decimal{
		"apprentice": d("90.00"),
		"line":       d("130.00"),
		"senior":     d("180.00"),
		"head":       d("240.00"),
	}

	cookSkills = map[string]decimal.Decimal{
		"apprentice": d("1"),
		"line":       d("2"),
		"senior":     d("3"),
		"head":       d("5"),
	}

	chairUnitCosts = map[string]decimal.Decimal{
		"stool":    d("40.00"),
		"standard": d("65.00"),
		"booth":    d("110.00"),
	}

	fridgeCosts = map[string]decimal.Decimal{
		"compact":  d("800.00"),
		"standard": d("1400.00"),
		"walk_in":  d("3200.00"),
	}

	fridgeCapacities = map[string]decimal.Decimal{
		"compact":  d("1"),
		"standard": d("2"),
		"walk_in":  d("4"),
	}

	tableUnitCost = d("150.00")
)

// Round applies the output-boundary rounding of two decimal places. It is
// the only place monetary precision is ever reduced.
func Round(v decimal.Decimal) decimal.Decimal {
	return v.Round(2)
}

// WithUpcharge adds the provider upcharge to a base price. The upcharge is
// applied exactly once per priced unit; composite resources never re-add
// the upcharge of their children.
func WithUpcharge(base, upcharge decimal.Decimal) decimal.Decimal {
	return base.Add(upcharge)
}

func lookup(table map[string]decimal.Decimal, kind deli.Kind, attr, value string) (decimal.Decimal, error) {
	v, ok := table[value]
	if !ok {
		return decimal.Decimal{}, deli.NewInconsistencyError(
			"no pricing entry for %s %s=%q", kind, attr, value).WithKind(kind)
	}
	return v, nil
}

// BreadBase returns the base price of a bread kind.
func BreadBase(kind string) (decimal.Decimal, error) {
	return lookup(breadPrices, deli.KindBread, "kind", kind)
}

// MeatBase returns the base price of a meat kind.
func MeatBase(kind string) (decimal.Decimal, error) {
	return lookup(meatPrices, deli.KindMeat, "kind", kind)
}

// DrinkBase returns the base price of a drink: the kind price plus the
// size modifier.
func DrinkBase(kind, size string) (decimal.Decimal, error) {
	base, err := lookup(drinkPrices, deli.KindDrink, "kind", kind)
	if err != nil {
		return decimal.Decimal{}, err
	}
	mod, err := lookup(drinkSizeModifiers, deli.KindDrink, "size", size)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return base.Add(mod), nil
}

// SideBase returns the base price of a side: unit price times quantity.
func SideBase(kind string, quantity int) (decimal.Decimal, error) {
	unit, err := lookup(sideUnitPrices, deli.KindSide, "kind", kind)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return unit.Mul(decimal.NewFromInt(int64(quantity))), nil
}

// OvenCost returns the acquisition cost of an oven type.
func OvenCost(ovenType string) (decimal.Decimal, error) {
	return lookup(ovenCosts, deli.KindOven, "type", ovenType)
}

// OvenThroughput returns the throughput factor of an oven type.
func OvenThroughput(ovenType string) (decimal.Decimal, error) {
	return lookup(ovenThroughputs, deli.KindOven, "type", ovenType)
}

// CookDayRate returns the day rate of a cook experience tier.
func CookDayRate(experience string) (decimal.Decimal, error) {
	return lookup(cookDayRates, deli.KindCook, "experience", experience)
}

// CookSkill returns the skill factor of a cook experience tier.
func CookSkill(experience string) (decimal.Decimal, error) {
	return lookup(cookSkills, deli.KindCook, "experience", experience)
}

// TablesCost returns the cost of a tables unit: unit cost times quantity.
func TablesCost(quantity int) decimal.Decimal {
	return tableUnitCost.Mul(decimal.NewFromInt(int64(quantity)))
}

// ChairsCost returns the cost of a chairs unit: style unit cost times
// quantity.
func ChairsCost(style string, quantity int) (decimal.Decimal, error) {
	unit, err := lookup(chairUnitCosts, deli.KindChairs, "style", style)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return unit.Mul(decimal.NewFromInt(int64(quantity))), nil
}

// FridgeCost returns the acquisition cost of a fridge capacity tier.
func FridgeCost(capacity string) (decimal.Decimal, error) {
	return lookup(fridgeCosts, deli.KindFridge, "capacity", capacity)
}

// FridgeCapacity returns the capacity factor of a fridge capacity tier.
func FridgeCapacity(capacity string) (decimal.Decimal, error) {
	return lookup(fridgeCapacities, deli.KindFridge, "capacity", capacity)
}

// MenuEntry is one priced catalog entry in a menu snapshot.
type MenuEntry struct {
	// Kind is the resource kind of the entry.
	Kind deli.Kind

	// Key is the catalog key within the kind, e.g. "rye" or
	// "cola/large".
	Key string

	// Price is the entry price with the caller's upcharge applied,
	// rounded at the output boundary.
	Price decimal.Decimal
}

// MenuSnapshot returns the current price of every priced catalog entry
// under the given upcharge, in deterministic order. It mutates nothing.
func MenuSnapshot(upcharge decimal.Decimal) []MenuEntry {
	entries := make([]MenuEntry, 0,
		len(deli.BreadKinds)+len(deli.MeatKinds)+
			len(deli.DrinkKinds)*len(deli.DrinkSizes)+len(deli.SideKinds))

	for _, k := range deli.BreadKinds {
		entries = append(entries, MenuEntry{
			Kind:  deli.KindBread,
			Key:   k,
			Price: Round(WithUpcharge(breadPrices[k], upcharge)),
		})
	}
	for _, k := range deli.MeatKinds {
		entries = append(entries, MenuEntry{
			Kind:  deli.KindMeat,
			Key:   k,
			Price: Round(WithUpcharge(meatPrices[k], upcharge)),
		})
	}
	for _, k := range deli.DrinkKinds {
		for _, size := range deli.DrinkSizes {
			entries = append(entries, MenuEntry{
				Kind:  deli.KindDrink,
				Key:   k + "/" + size,
				Price: Round(WithUpcharge(drinkPrices[k].Add(drinkSizeModifiers[size]), upcharge)),
			})
		}
	}
	for _, k := range deli.SideKinds {
		entries = append(entries, MenuEntry{
			Kind:  deli.KindSide,
			Key:   k,
			Price: Round(WithUpcharge(sideUnitPrices[k], upcharge)),
		})
	}
	return entries
}
