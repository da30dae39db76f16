package deli

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Computed field names returned across the plugin boundary.
const (
	// FieldPrice is the final price of a priced resource, upcharge
	// included, rounded to two decimal places.
	FieldPrice = "price"

	// FieldPriceComponent is the price excluding the provider upcharge.
	// Composite resources sum the components of their children so that
	// the upcharge is applied exactly once per priced unit.
	FieldPriceComponent = "price_component"

	// FieldCost is the acquisition cost of a store fixture, or the
	// aggregate cost of a store. Costs carry no upcharge.
	FieldCost = "cost"

	// FieldSerial is the sequence salt echoed back to the orchestrator.
	// It disambiguates instances with identical configuration and must be
	// supplied again on Read and Update so recomputation is exact.
	FieldSerial = "serial"

	// FieldTotalPrice is the sum of the referenced sandwich prices of a
	// bag.
	FieldTotalPrice = "total_price"

	// FieldThroughputFactor is the oven throughput factor.
	FieldThroughputFactor = "throughput_factor"

	// FieldSkillFactor is the cook skill factor.
	FieldSkillFactor = "skill_factor"

	// FieldDayRate is the cook day rate. It equals the cook's cost.
	FieldDayRate = "day_rate"

	// FieldSeatCapacity is the total seat capacity of a tables unit.
	FieldSeatCapacity = "seat_capacity"

	// FieldQuantity is the unit count of a quantity-scaled resource.
	FieldQuantity = "quantity"

	// FieldCapacityFactor is the fridge capacity factor.
	FieldCapacityFactor = "capacity_factor"

	// FieldCustomersPerHour is the derived throughput of a store.
	FieldCustomersPerHour = "customers_per_hour"

	// FieldSandwichCount is the number of sandwiches referenced by a bag.
	FieldSandwichCount = "sandwich_count"
)

// Fields is the computed-field map of a resource instance. Monetary and
// factor values are decimal.Decimal; counts are int; everything else is a
// string.
type Fields map[string]any

// Decimal returns the named field as a decimal. It tolerates the value
// shapes a field can take after a JSON round trip through the
// orchestrator's state store (json.Number, string, float64, int) in
// addition to decimal.Decimal.
func (f Fields) Decimal(name string) (decimal.Decimal, bool) {
	v, ok := f[name]
	if !ok {
		return decimal.Decimal{}, false
	}
	switch t := v.(type) {
	case decimal.Decimal:
		return t, true
	case json.Number:
		d, err := decimal.NewFromString(t.String())
		return d, err == nil
	case string:
		d, err := decimal.NewFromString(t)
		return d, err == nil
	case float64:
		return decimal.NewFromFloat(t), true
	case int:
		return decimal.NewFromInt(int64(t)), true
	case int64:
		return decimal.NewFromInt(t), true
	}
	return decimal.Decimal{}, false
}

// Int returns the named field as an int.
func (f Fields) Int(name string) (int, bool) {
	d, ok := f.Decimal(name)
	if !ok || !d.IsInteger() {
		return 0, false
	}
	return int(d.IntPart()), true
}

// String returns the named field as a string.
func (f Fields) String(name string) (string, bool) {
	s, ok := f[name].(string)
	return s, ok
}

// FieldsFromJSON decodes a computed-field document without losing decimal
// precision: numbers are decoded as json.Number, which Decimal converts
// exactly.
func FieldsFromJSON(raw []byte) (Fields, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var f Fields
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decoding computed fields: %w", err)
	}
	return f, nil
}

// ResolvedInstance is a referenced resource instance whose computed fields
// the orchestrator resolved before invoking the provider.
type ResolvedInstance struct {
	// ID is the instance identifier.
	ID string `json:"id"`

	// Kind is the instance kind.
	Kind Kind `json:"kind"`

	// Fields are the instance's previously computed fields.
	Fields Fields `json:"fields"`
}

// References maps a reference role (RoleBread, RoleCooks, ...) to the
// resolved instances filling that role.
type References map[string][]ResolvedInstance

// Find returns the resolved instance with the given identifier under the
// given role.
func (r References) Find(role, id string) (ResolvedInstance, bool) {
	for _, inst := range r[role] {
		if inst.ID == id {
			return inst, true
		}
	}
	return ResolvedInstance{}, false
}
