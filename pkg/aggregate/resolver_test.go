package aggregate

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/openfroyo/provider-deli/pkg/deli"
	"github.com/openfroyo/provider-deli/pkg/identity"
)

func d(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	v, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal literal %q: %v", s, err)
	}
	return v
}

func testID(t *testing.T, kind string, tokens []string, payload string) string {
	t.Helper()
	id, err := identity.Encode(kind, tokens, identity.Fingerprint(payload, "salt"))
	if err != nil {
		t.Fatalf("encoding test identifier: %v", err)
	}
	return string(id)
}

func resolved(id string, kind deli.Kind, fields deli.Fields) deli.ResolvedInstance {
	return deli.ResolvedInstance{ID: id, Kind: kind, Fields: fields}
}

func newTestResolver(t *testing.T) *Resolver {
	t.Helper()
	r, err := NewResolver(DefaultCoefficients())
	if err != nil {
		t.Fatalf("NewResolver() error = %v", err)
	}
	return r
}

func mustDecimal(t *testing.T, fields deli.Fields, name string) decimal.Decimal {
	t.Helper()
	v, ok := fields.Decimal(name)
	if !ok {
		t.Fatalf("field %s missing or not numeric: %v", name, fields[name])
	}
	return v
}

func TestNewResolverRejectsNonPositiveCoefficients(t *testing.T) {
	bad := DefaultCoefficients()
	bad.Chairs = decimal.Zero
	if _, err := NewResolver(bad); err == nil {
		t.Fatal("NewResolver() accepted a zero coefficient")
	}
	bad.Chairs = decimal.RequireFromString("-1")
	if _, err := NewResolver(bad); err == nil {
		t.Fatal("NewResolver() accepted a negative coefficient")
	}
}

func TestSandwichPricing(t *testing.T) {
	r := newTestResolver(t)
	breadID := testID(t, "bread", []string{"rye"}, "kind=rye")
	meatID := testID(t, "meat", []string{"turkey"}, "kind=turkey")

	// Children were created under a 10.00 upcharge of their own, so their
	// final prices already carry it. The sandwich must sum the components
	// and apply the upcharge once, not inherit the children's.
	refs := deli.References{
		deli.RoleBread: {resolved(breadID, deli.KindBread, deli.Fields{
			deli.FieldPrice:          d(t, "13.00"),
			deli.FieldPriceComponent: d(t, "3.00"),
		})},
		deli.RoleMeat: {resolved(meatID, deli.KindMeat, deli.Fields{
			deli.FieldPrice:          d(t, "12.00"),
			deli.FieldPriceComponent: d(t, "2.00"),
		})},
	}
	attrs := deli.SandwichAttrs{BreadID: breadID, MeatID: meatID}

	fields, err := r.Sandwich(attrs, refs, d(t, "10.00"))
	if err != nil {
		t.Fatalf("Sandwich() error = %v", err)
	}
	if price := mustDecimal(t, fields, deli.FieldPrice); !price.Equal(d(t, "15.00")) {
		t.Errorf("price = %s, want 15.00", price)
	}
	if comp := mustDecimal(t, fields, deli.FieldPriceComponent); !comp.Equal(d(t, "5.00")) {
		t.Errorf("price_component = %s, want 5.00", comp)
	}
}

func TestSandwichDanglingReference(t *testing.T) {
	r := newTestResolver(t)
	breadID := testID(t, "bread", []string{"rye"}, "kind=rye")
	meatID := testID(t, "meat", []string{"turkey"}, "kind=turkey")

	refs := deli.References{
		deli.RoleBread: {resolved(breadID, deli.KindBread, deli.Fields{
			deli.FieldPrice:          d(t, "3.00"),
			deli.FieldPriceComponent: d(t, "3.00"),
		})},
		// meat reference missing entirely
	}

	_, err := r.Sandwich(deli.SandwichAttrs{BreadID: breadID, MeatID: meatID}, refs, decimal.Zero)
	if err == nil {
		t.Fatal("Sandwich() succeeded with a dangling meat reference")
	}
	if !deli.IsReference(err) {
		t.Errorf("error class = %v, want reference", err)
	}
}

func TestSandwichChildNotReady(t *testing.T) {
	r := newTestResolver(t)
	breadID := testID(t, "bread", []string{"rye"}, "kind=rye")
	meatID := testID(t, "meat", []string{"turkey"}, "kind=turkey")

	refs := deli.References{
		deli.RoleBread: {resolved(breadID, deli.KindBread, deli.Fields{
			deli.FieldPriceComponent: d(t, "3.00"),
		})},
		// The meat resolved but its computed fields are absent, as when a
		// dependency has not been materialized yet.
		deli.RoleMeat: {resolved(meatID, deli.KindMeat, deli.Fields{})},
	}

	_, err := r.Sandwich(deli.SandwichAttrs{BreadID: breadID, MeatID: meatID}, refs, decimal.Zero)
	if err == nil {
		t.Fatal("Sandwich() succeeded with an unready child")
	}
	if !deli.IsReference(err) {
		t.Errorf("error class = %v, want reference", err)
	}
}

func TestSandwichKindMismatch(t *testing.T) {
	r := newTestResolver(t)
	breadID := testID(t, "bread", []string{"rye"}, "kind=rye")
	meatID := testID(t, "meat", []string{"turkey"}, "kind=turkey")

	refs := deli.References{
		deli.RoleBread: {resolved(breadID, deli.KindBread, deli.Fields{
			deli.FieldPriceComponent: d(t, "3.00"),
		})},
		// The id resolves, but to the wrong kind.
		deli.RoleMeat: {resolved(meatID, deli.KindBread, deli.Fields{
			deli.FieldPriceComponent: d(t, "2.00"),
		})},
	}

	_, err := r.Sandwich(deli.SandwichAttrs{BreadID: breadID, MeatID: meatID}, refs, decimal.Zero)
	if err == nil {
		t.Fatal("Sandwich() succeeded with a kind-mismatched reference")
	}
	if !deli.IsReference(err) {
		t.Errorf("error class = %v, want reference", err)
	}
}

func TestBagTotalsSandwichPrices(t *testing.T) {
	r := newTestResolver(t)

	id1 := testID(t, "sandwich", []string{"bread", "rye", "meat", "turkey"}, "one")
	id2 := testID(t, "sandwich", []string{"bread", "white", "meat", "ham"}, "two")

	refs := deli.References{
		deli.RoleSandwiches: {
			resolved(id1, deli.KindSandwich, deli.Fields{deli.FieldPrice: d(t, "15.00")}),
			resolved(id2, deli.KindSandwich, deli.Fields{deli.FieldPrice: d(t, "5.75")}),
		},
	}

	fields, err := r.Bag(deli.BagAttrs{SandwichIDs: []string{id1, id2}}, refs)
	if err != nil {
		t.Fatalf("Bag() error = %v", err)
	}
	if total := mustDecimal(t, fields, deli.FieldTotalPrice); !total.Equal(d(t, "20.75")) {
		t.Errorf("total_price = %s, want 20.75", total)
	}
	if count, _ := fields.Int(deli.FieldSandwichCount); count != 2 {
		t.Errorf("sandwich_count = %d, want 2", count)
	}
}

// storeFixture builds a full set of store references with the given
// factor fields, returning the attrs and references.
func storeFixture(t *testing.T, throughput, skill, seats, chairQty, capacity string) (deli.StoreAttrs, deli.References) {
	t.Helper()
	ovenID := testID(t, "oven", []string{"deck"}, "oven")
	cookID := testID(t, "cook", []string{"line"}, "cook")
	tablesID := testID(t, "tables", []string{"2"}, "tables")
	chairsID := testID(t, "chairs", []string{"stool", "8"}, "chairs")
	fridgeID := testID(t, "fridge", []string{"standard"}, "fridge")

	attrs := deli.StoreAttrs{
		OvenID:   ovenID,
		CookIDs:  []string{cookID},
		TablesID: tablesID,
		ChairsID: chairsID,
		FridgeID: fridgeID,
	}
	refs := deli.References{
		deli.RoleOven: {resolved(ovenID, deli.KindOven, deli.Fields{
			deli.FieldCost:             d(t, "3000.00"),
			deli.FieldThroughputFactor: d(t, throughput),
		})},
		deli.RoleCooks: {resolved(cookID, deli.KindCook, deli.Fields{
			deli.FieldCost:        d(t, "130.00"),
			deli.FieldDayRate:     d(t, "130.00"),
			deli.FieldSkillFactor: d(t, skill),
		})},
		deli.RoleTables: {resolved(tablesID, deli.KindTables, deli.Fields{
			deli.FieldCost:         d(t, "300.00"),
			deli.FieldSeatCapacity: d(t, seats),
		})},
		deli.RoleChairs: {resolved(chairsID, deli.KindChairs, deli.Fields{
			deli.FieldCost:     d(t, "320.00"),
			deli.FieldQuantity: d(t, chairQty),
		})},
		deli.RoleFridge: {resolved(fridgeID, deli.KindFridge, deli.Fields{
			deli.FieldCost:           d(t, "1400.00"),
			deli.FieldCapacityFactor: d(t, capacity),
		})},
	}
	return attrs, refs
}

func TestStoreAggregation(t *testing.T) {
	r := newTestResolver(t)
	attrs, refs := storeFixture(t, "8", "2", "8", "8", "2")

	fields, err := r.Store(attrs, refs)
	if err != nil {
		t.Fatalf("Store() error = %v", err)
	}

	// 3000 oven + 300 tables + 320 chairs + 1400 fridge + 130 cook
	if cost := mustDecimal(t, fields, deli.FieldCost); !cost.Equal(d(t, "5150.00")) {
		t.Errorf("cost = %s, want 5150.00", cost)
	}
	// 8*2 + 0.5*8 + 0.25*8 + 2*2 = 26
	if cph := mustDecimal(t, fields, deli.FieldCustomersPerHour); !cph.Equal(d(t, "26.00")) {
		t.Errorf("customers_per_hour = %s, want 26.00", cph)
	}
}

// Upgrading any single throughput factor must strictly increase
// customers_per_hour.
func TestStoreThroughputMonotonicity(t *testing.T) {
	r := newTestResolver(t)

	base := []string{"8", "2", "8", "8", "2"}
	upgrades := []struct {
		name string
		idx  int
		val  string
	}{
		{"faster oven", 0, "15"},
		{"more skilled cooks", 1, "5"},
		{"more seats", 2, "16"},
		{"more chairs", 3, "20"},
		{"bigger fridge", 4, "4"},
	}

	attrs, refs := storeFixture(t, base[0], base[1], base[2], base[3], base[4])
	baseline, err := r.Store(attrs, refs)
	if err != nil {
		t.Fatalf("Store() error = %v", err)
	}
	baseCPH := mustDecimal(t, baseline, deli.FieldCustomersPerHour)

	for _, tt := range upgrades {
		t.Run(tt.name, func(t *testing.T) {
			factors := make([]string, len(base))
			copy(factors, base)
			factors[tt.idx] = tt.val

			attrs, refs := storeFixture(t, factors[0], factors[1], factors[2], factors[3], factors[4])
			upgraded, err := r.Store(attrs, refs)
			if err != nil {
				t.Fatalf("Store() error = %v", err)
			}
			cph := mustDecimal(t, upgraded, deli.FieldCustomersPerHour)
			if !cph.GreaterThan(baseCPH) {
				t.Errorf("customers_per_hour = %s, not greater than baseline %s", cph, baseCPH)
			}
		})
	}
}

func TestStoreSumsCookRates(t *testing.T) {
	r := newTestResolver(t)
	attrs, refs := storeFixture(t, "8", "2", "8", "8", "2")

	second := testID(t, "cook", []string{"head"}, "cook-2")
	attrs.CookIDs = append(attrs.CookIDs, second)
	refs[deli.RoleCooks] = append(refs[deli.RoleCooks], resolved(second, deli.KindCook, deli.Fields{
		deli.FieldCost:        d(t, "240.00"),
		deli.FieldDayRate:     d(t, "240.00"),
		deli.FieldSkillFactor: d(t, "5"),
	}))

	fields, err := r.Store(attrs, refs)
	if err != nil {
		t.Fatalf("Store() error = %v", err)
	}
	if cost := mustDecimal(t, fields, deli.FieldCost); !cost.Equal(d(t, "5390.00")) {
		t.Errorf("cost = %s, want 5390.00", cost)
	}
	// Skill sum rises from 2 to 7: 8*7 + 4 + 2 + 4 = 66
	if cph := mustDecimal(t, fields, deli.FieldCustomersPerHour); !cph.Equal(d(t, "66.00")) {
		t.Errorf("customers_per_hour = %s, want 66.00", cph)
	}
}

func TestMenuFiltersByType(t *testing.T) {
	full := Menu(decimal.Zero, deli.MenuParams{})
	if len(full) == 0 {
		t.Fatal("Menu() returned no entries")
	}

	breads := Menu(decimal.Zero, deli.MenuParams{Types: []string{"bread"}})
	if len(breads) != len(deli.BreadKinds) {
		t.Errorf("filtered menu has %d entries, want %d", len(breads), len(deli.BreadKinds))
	}
	for key := range breads {
		if key[:6] != "bread/" {
			t.Errorf("unexpected key %q in bread-filtered menu", key)
		}
	}

	price, ok := full.Decimal("bread/rye")
	if !ok {
		t.Fatal("menu missing bread/rye")
	}
	if !price.Equal(d(t, "3.00")) {
		t.Errorf("bread/rye = %s, want 3.00", price)
	}
}
