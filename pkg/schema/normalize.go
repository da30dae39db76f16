package schema

import (
	"encoding/json"

	"github.com/openfroyo/provider-deli/pkg/deli"
	"github.com/openfroyo/provider-deli/pkg/identity"
)

// Default values applied during normalization.
const (
	defaultDrinkSize    = "medium"
	defaultSideQuantity = 1
	defaultSeatsEach    = 4
)

// Bag capacity bounds.
const (
	minBagSandwiches = 1
	maxBagSandwiches = 5
)

// Normalize validates raw attributes for kind and returns the typed,
// defaulted form. The returned Attrs is one of the pkg/deli attribute
// structs; callers dispatch on the concrete type.
func (r *Registry) Normalize(kind deli.Kind, raw map[string]any) (deli.Attrs, error) {
	if err := r.Validate(kind, raw); err != nil {
		return nil, err
	}

	switch kind {
	case deli.KindBread:
		var a deli.BreadAttrs
		if err := decodeInto(kind, raw, &a); err != nil {
			return nil, err
		}
		return a, nil

	case deli.KindMeat:
		var a deli.MeatAttrs
		if err := decodeInto(kind, raw, &a); err != nil {
			return nil, err
		}
		return a, nil

	case deli.KindDrink:
		var a deli.DrinkAttrs
		if err := decodeInto(kind, raw, &a); err != nil {
			return nil, err
		}
		if a.Size == "" {
			a.Size = defaultDrinkSize
		}
		return a, nil

	case deli.KindSide:
		var a deli.SideAttrs
		if err := decodeInto(kind, raw, &a); err != nil {
			return nil, err
		}
		if a.Quantity == 0 {
			a.Quantity = defaultSideQuantity
		}
		return a, nil

	case deli.KindOven:
		var a deli.OvenAttrs
		if err := decodeInto(kind, raw, &a); err != nil {
			return nil, err
		}
		return a, nil

	case deli.KindCook:
		var a deli.CookAttrs
		if err := decodeInto(kind, raw, &a); err != nil {
			return nil, err
		}
		return a, nil

	case deli.KindTables:
		var a deli.TablesAttrs
		if err := decodeInto(kind, raw, &a); err != nil {
			return nil, err
		}
		if a.SeatsEach == 0 {
			a.SeatsEach = defaultSeatsEach
		}
		return a, nil

	case deli.KindChairs:
		var a deli.ChairsAttrs
		if err := decodeInto(kind, raw, &a); err != nil {
			return nil, err
		}
		return a, nil

	case deli.KindFridge:
		var a deli.FridgeAttrs
		if err := decodeInto(kind, raw, &a); err != nil {
			return nil, err
		}
		return a, nil

	case deli.KindSandwich:
		var a deli.SandwichAttrs
		if err := decodeInto(kind, raw, &a); err != nil {
			return nil, err
		}
		if err := checkReference(kind, "bread_id", a.BreadID, deli.KindBread); err != nil {
			return nil, err
		}
		if err := checkReference(kind, "meat_id", a.MeatID, deli.KindMeat); err != nil {
			return nil, err
		}
		return a, nil

	case deli.KindBag:
		var a deli.BagAttrs
		if err := decodeInto(kind, raw, &a); err != nil {
			return nil, err
		}
		if n := len(a.SandwichIDs); n < minBagSandwiches || n > maxBagSandwiches {
			return nil, deli.NewValidationError("sandwich_ids",
				"a bag holds between %d and %d sandwiches, got %d",
				minBagSandwiches, maxBagSandwiches, n).WithKind(kind)
		}
		for _, id := range a.SandwichIDs {
			if err := checkReference(kind, "sandwich_ids", id, deli.KindSandwich); err != nil {
				return nil, err
			}
		}
		return a, nil

	case deli.KindStore:
		var a deli.StoreAttrs
		if err := decodeInto(kind, raw, &a); err != nil {
			return nil, err
		}
		if len(a.CookIDs) < 1 {
			return nil, deli.NewValidationError("cook_ids",
				"a store requires at least one cook").WithKind(kind)
		}
		refs := []struct {
			field string
			id    string
			want  deli.Kind
		}{
			{"oven_id", a.OvenID, deli.KindOven},
			{"tables_id", a.TablesID, deli.KindTables},
			{"chairs_id", a.ChairsID, deli.KindChairs},
			{"fridge_id", a.FridgeID, deli.KindFridge},
		}
		for _, ref := range refs {
			if err := checkReference(kind, ref.field, ref.id, ref.want); err != nil {
				return nil, err
			}
		}
		for _, id := range a.CookIDs {
			if err := checkReference(kind, "cook_ids", id, deli.KindCook); err != nil {
				return nil, err
			}
		}
		return a, nil
	}

	return nil, deli.NewValidationError("", "kind %q has no attribute schema", kind)
}

// NormalizeMenuParams validates data-source parameters for deli.menu.
func (r *Registry) NormalizeMenuParams(params map[string]any) (deli.MenuParams, error) {
	if err := r.Validate(deli.KindMenu, params); err != nil {
		return deli.MenuParams{}, err
	}
	var p deli.MenuParams
	if err := decodeInto(deli.KindMenu, params, &p); err != nil {
		return deli.MenuParams{}, err
	}
	return p, nil
}

// decodeInto maps a shape-validated raw attribute map onto its typed
// struct via a JSON round trip.
func decodeInto(kind deli.Kind, raw map[string]any, out any) error {
	buf, err := json.Marshal(raw)
	if err != nil {
		return deli.NewValidationError("", "attributes are not encodable: %v", err).WithKind(kind)
	}
	if err := json.Unmarshal(buf, out); err != nil {
		return deli.NewValidationError("", "attributes do not match %s: %v", kind, err).WithKind(kind)
	}
	return nil
}

// checkReference verifies that a reference attribute carries a
// well-formed identifier of the expected kind. This is a shape check on
// the string only; resolution against materialized instances happens in
// the aggregate resolver.
func checkReference(kind deli.Kind, field, id string, want deli.Kind) error {
	dec, err := identity.Decode(identity.ID(id))
	if err != nil {
		return deli.NewValidationError(field, "malformed identifier %q: %v", id, err).WithKind(kind)
	}
	if dec.Kind != want.Short() {
		return deli.NewValidationError(field, "identifier %q is a %s, expected %s",
			id, dec.Kind, want.Short()).WithKind(kind)
	}
	return nil
}
