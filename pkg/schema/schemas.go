package schema

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/openfroyo/provider-deli/pkg/deli"
)

// Kind schemas are CUE definitions. Definitions are closed structs, so an
// attribute the schema does not declare fails validation — typos are
// rejected instead of silently ignored. Enum disjunctions are rendered
// from the pkg/deli value lists so schema and pricing share one source of
// truth.

// enumExpr renders a CUE disjunction of string literals.
func enumExpr(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = strconv.Quote(v)
	}
	return strings.Join(quoted, " | ")
}

// idPattern constrains a reference attribute to identifiers of the given
// short kind. Full decoding happens in Go after shape validation.
func idPattern(shortKind string) string {
	return fmt.Sprintf(`string & =~"^%s-"`, shortKind)
}

func kindSchemas() map[deli.Kind]string {
	return map[deli.Kind]string{
		deli.KindBread: fmt.Sprintf(`
#Bread: {
	// kind selects the loaf and its base price.
	kind: %s

	description?: string
}
`, enumExpr(deli.BreadKinds)),

		deli.KindMeat: fmt.Sprintf(`
#Meat: {
	kind: %s

	description?: string
}
`, enumExpr(deli.MeatKinds)),

		deli.KindDrink: fmt.Sprintf(`
#Drink: {
	kind: %s

	// size defaults to "medium" when omitted.
	size?: %s

	description?: string
}
`, enumExpr(deli.DrinkKinds), enumExpr(deli.DrinkSizes)),

		deli.KindSide: fmt.Sprintf(`
#Side: {
	kind: %s

	// quantity defaults to 1 when omitted.
	quantity?: int & >=1

	description?: string
}
`, enumExpr(deli.SideKinds)),

		deli.KindOven: fmt.Sprintf(`
#Oven: {
	type: %s

	description?: string
}
`, enumExpr(deli.OvenTypes)),

		deli.KindCook: fmt.Sprintf(`
#Cook: {
	experience: %s

	name?: string

	description?: string
}
`, enumExpr(deli.CookExperienceTiers)),

		deli.KindTables: `
#Tables: {
	quantity: int & >=1

	// seats_each defaults to 4 when omitted.
	seats_each?: int & >=1

	description?: string
}
`,

		deli.KindChairs: fmt.Sprintf(`
#Chairs: {
	style: %s

	quantity: int & >=1

	description?: string
}
`, enumExpr(deli.ChairStyles)),

		deli.KindFridge: fmt.Sprintf(`
#Fridge: {
	capacity: %s

	description?: string
}
`, enumExpr(deli.FridgeCapacities)),

		deli.KindSandwich: fmt.Sprintf(`
#Sandwich: {
	bread_id: %s

	meat_id: %s

	toasted?: bool

	description?: string
}
`, idPattern("bread"), idPattern("meat")),

		deli.KindBag: fmt.Sprintf(`
#Bag: {
	// Between 1 and 5 entries; the bound is a cross-field rule checked
	// after shape validation.
	sandwich_ids: [...%s]

	description?: string
}
`, idPattern("sandwich")),

		deli.KindStore: fmt.Sprintf(`
#Store: {
	oven_id: %s

	cook_ids: [...%s]

	tables_id: %s

	chairs_id: %s

	fridge_id: %s

	description?: string
}
`, idPattern("oven"), idPattern("cook"), idPattern("tables"), idPattern("chairs"), idPattern("fridge")),

		deli.KindMenu: fmt.Sprintf(`
#Menu: {
	// types filters the snapshot to the named priced kinds.
	types?: [...%s]
}
`, enumExpr(deli.MenuTypes)),
	}
}

// definitionName returns the CUE definition path for a kind's schema.
func definitionName(kind deli.Kind) string {
	switch kind {
	case deli.KindBread:
		return "#Bread"
	case deli.KindMeat:
		return "#Meat"
	case deli.KindDrink:
		return "#Drink"
	case deli.KindSide:
		return "#Side"
	case deli.KindOven:
		return "#Oven"
	case deli.KindCook:
		return "#Cook"
	case deli.KindTables:
		return "#Tables"
	case deli.KindChairs:
		return "#Chairs"
	case deli.KindFridge:
		return "#Fridge"
	case deli.KindSandwich:
		return "#Sandwich"
	case deli.KindBag:
		return "#Bag"
	case deli.KindStore:
		return "#Store"
	case deli.KindMenu:
		return "#Menu"
	}
	return ""
}
