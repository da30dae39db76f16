package deli

import "strings"

// Kind identifies a resource type or data source managed by the deli
// provider. Kinds follow the "<provider>.<type>" convention, e.g.
// "deli.sandwich".
type Kind string

const (
	// KindBread is a loaf of bread, priced by its bread kind.
	KindBread Kind = "deli.bread"

	// KindMeat is a deli meat, priced by its meat kind.
	KindMeat Kind = "deli.meat"

	// KindDrink is a fountain or brewed drink, priced by kind and size.
	KindDrink Kind = "deli.drink"

	// KindSide is a side dish, priced per unit and scaled by quantity.
	KindSide Kind = "deli.side"

	// KindOven is a store oven fixture with an acquisition cost and a
	// throughput factor.
	KindOven Kind = "deli.oven"

	// KindCook is a member of kitchen staff with a day rate and a skill
	// factor derived from their experience tier.
	KindCook Kind = "deli.cook"

	// KindTables is a block of tables with a per-table cost and a seat
	// capacity.
	KindTables Kind = "deli.tables"

	// KindChairs is a block of chairs with a per-chair cost by style.
	KindChairs Kind = "deli.chairs"

	// KindFridge is a refrigeration fixture with a cost and a capacity
	// factor.
	KindFridge Kind = "deli.fridge"

	// KindSandwich is a composite of exactly one bread and one meat
	// instance, referenced by identifier.
	KindSandwich Kind = "deli.sandwich"

	// KindBag holds between one and five sandwich references.
	KindBag Kind = "deli.bag"

	// KindStore aggregates one oven, one or more cooks, one tables unit,
	// one chairs unit, and one fridge.
	KindStore Kind = "deli.store"

	// KindMenu is a read-only data source returning a price snapshot of
	// every priced catalog entry under the caller's provider settings.
	KindMenu Kind = "deli.menu"
)

// ResourceKinds returns every managed resource kind, data sources excluded.
func ResourceKinds() []Kind {
	return []Kind{
		KindBread, KindMeat, KindDrink, KindSide,
		KindOven, KindCook, KindTables, KindChairs, KindFridge,
		KindSandwich, KindBag, KindStore,
	}
}

// DataSourceKinds returns every read-only data source kind.
func DataSourceKinds() []Kind {
	return []Kind{KindMenu}
}

// Valid reports whether k names a known resource kind or data source.
func (k Kind) Valid() bool {
	for _, known := range ResourceKinds() {
		if k == known {
			return true
		}
	}
	for _, known := range DataSourceKinds() {
		if k == known {
			return true
		}
	}
	return false
}

// IsDataSource reports whether k is a read-only data source.
func (k Kind) IsDataSource() bool {
	for _, known := range DataSourceKinds() {
		if k == known {
			return true
		}
	}
	return false
}

// Short returns the kind without the provider prefix ("deli.bread" ->
// "bread"). Identifiers embed the short form.
func (k Kind) Short() string {
	if i := strings.IndexByte(string(k), '.'); i >= 0 {
		return string(k)[i+1:]
	}
	return string(k)
}

// KindFromShort resolves a short kind token back to its Kind. The second
// return value is false when the token is unknown.
func KindFromShort(short string) (Kind, bool) {
	k := Kind("deli." + short)
	if k.Valid() {
		return k, true
	}
	return "", false
}

// Enumerations of the primary attribute of each leaf kind. Pricing tables
// are keyed by these values and a consistency test guarantees every value
// has a table entry.
var (
	// BreadKinds are the accepted values of deli.bread "kind".
	BreadKinds = []string{"rye", "sourdough", "wheat", "white", "pumpernickel", "brioche"}

	// MeatKinds are the accepted values of deli.meat "kind".
	MeatKinds = []string{"turkey", "ham", "roast_beef", "salami", "pastrami", "veggie"}

	// DrinkKinds are the accepted values of deli.drink "kind".
	DrinkKinds = []string{"cola", "lemonade", "iced_tea", "coffee"}

	// DrinkSizes are the accepted values of deli.drink "size".
	DrinkSizes = []string{"small", "medium", "large"}

	// SideKinds are the accepted values of deli.side "kind".
	SideKinds = []string{"chips", "pickle", "coleslaw", "potato_salad"}

	// OvenTypes are the accepted values of deli.oven "type".
	OvenTypes = []string{"conveyor", "deck", "convection", "brick"}

	// CookExperienceTiers are the accepted values of deli.cook "experience".
	CookExperienceTiers = []string{"apprentice", "line", "senior", "head"}

	// ChairStyles are the accepted values of deli.chairs "style".
	ChairStyles = []string{"stool", "standard", "booth"}

	// FridgeCapacities are the accepted values of deli.fridge "capacity".
	FridgeCapacities = []string{"compact", "standard", "walk_in"}

	// MenuTypes are the short kinds the deli.menu data source accepts in
	// its "types" filter.
	MenuTypes = []string{"bread", "meat", "drink", "side"}
)

// Reference roles used in composite resource requests. The orchestrator
// resolves referenced instances before invoking the provider and attaches
// them under these keys.
const (
	RoleBread      = "bread"
	RoleMeat       = "meat"
	RoleSandwiches = "sandwiches"
	RoleOven       = "oven"
	RoleCooks      = "cooks"
	RoleTables     = "tables"
	RoleChairs     = "chairs"
	RoleFridge     = "fridge"
)
