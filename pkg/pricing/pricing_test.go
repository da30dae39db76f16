package pricing

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/openfroyo/provider-deli/pkg/deli"
)

// Every enum value declared in pkg/deli must have a pricing entry, or a
// valid configuration would fail at compute time with an inconsistency.
func TestTablesCoverDeclaredEnums(t *testing.T) {
	tests := []struct {
		name   string
		values []string
		lookup func(string) (decimal.Decimal, error)
	}{
		{"bread prices", deli.BreadKinds, BreadBase},
		{"meat prices", deli.MeatKinds, MeatBase},
		{"oven costs", deli.OvenTypes, OvenCost},
		{"oven throughputs", deli.OvenTypes, OvenThroughput},
		{"cook day rates", deli.CookExperienceTiers, CookDayRate},
		{"cook skills", deli.CookExperienceTiers, CookSkill},
		{"fridge costs", deli.FridgeCapacities, FridgeCost},
		{"fridge capacities", deli.FridgeCapacities, FridgeCapacity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, v := range tt.values {
				if _, err := tt.lookup(v); err != nil {
					t.Errorf("no table entry for %q: %v", v, err)
				}
			}
		})
	}

	for _, kind := range deli.DrinkKinds {
		for _, size := range deli.DrinkSizes {
			if _, err := DrinkBase(kind, size); err != nil {
				t.Errorf("no drink entry for %s/%s: %v", kind, size, err)
			}
		}
	}
	for _, kind := range deli.SideKinds {
		if _, err := SideBase(kind, 1); err != nil {
			t.Errorf("no side entry for %q: %v", kind, err)
		}
	}
	for _, style := range deli.ChairStyles {
		if _, err := ChairsCost(style, 1); err != nil {
			t.Errorf("no chair entry for %q: %v", style, err)
		}
	}
}

func TestLookupMissIsInconsistency(t *testing.T) {
	_, err := BreadBase("focaccia")
	if err == nil {
		t.Fatal("BreadBase() succeeded for unknown kind")
	}
	if !deli.IsInconsistency(err) {
		t.Errorf("error class = %v, want inconsistency", err)
	}
}

func TestDrinkBaseAddsSizeModifier(t *testing.T) {
	tests := []struct {
		name string
		kind string
		size string
		want string
	}{
		{"small adds nothing", "cola", "small", "1.50"},
		{"medium adds fifty cents", "cola", "medium", "2.00"},
		{"large adds a dollar", "cola", "large", "2.50"},
		{"coffee large", "coffee", "large", "3.25"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DrinkBase(tt.kind, tt.size)
			if err != nil {
				t.Fatalf("DrinkBase() error = %v", err)
			}
			if got.String() != tt.want {
				t.Errorf("DrinkBase(%s, %s) = %s, want %s", tt.kind, tt.size, got, tt.want)
			}
		})
	}
}

func TestQuantityScaling(t *testing.T) {
	side, err := SideBase("chips", 3)
	if err != nil {
		t.Fatalf("SideBase() error = %v", err)
	}
	if !side.Equal(d("3.75")) {
		t.Errorf("SideBase(chips, 3) = %s, want 3.75", side)
	}

	if got := TablesCost(4); !got.Equal(d("600.00")) {
		t.Errorf("TablesCost(4) = %s, want 600.00", got)
	}

	chairs, err := ChairsCost("booth", 6)
	if err != nil {
		t.Fatalf("ChairsCost() error = %v", err)
	}
	if !chairs.Equal(d("660.00")) {
		t.Errorf("ChairsCost(booth, 6) = %s, want 660.00", chairs)
	}
}

func TestWithUpchargeAppliesOnce(t *testing.T) {
	base := d("3.00")
	upcharge := d("10.00")
	if got := WithUpcharge(base, upcharge); !got.Equal(d("13.00")) {
		t.Errorf("WithUpcharge(3.00, 10.00) = %s, want 13.00", got)
	}
	if got := WithUpcharge(base, decimal.Zero); !got.Equal(base) {
		t.Errorf("WithUpcharge(3.00, 0) = %s, want 3.00", got)
	}
}

func TestRoundIsOutputBoundaryOnly(t *testing.T) {
	v := d("1.005")
	if got := Round(v); got.String() != "1.01" {
		t.Errorf("Round(1.005) = %s, want 1.01", got)
	}
	// Intermediate arithmetic keeps full precision.
	sum := d("0.1").Add(d("0.2"))
	if sum.String() != "0.3" {
		t.Errorf("0.1 + 0.2 = %s, want exact 0.3", sum)
	}
}

func TestMenuSnapshotDeterministic(t *testing.T) {
	upcharge := d("0.25")
	first := MenuSnapshot(upcharge)
	second := MenuSnapshot(upcharge)

	if len(first) != len(second) {
		t.Fatalf("snapshot lengths differ: %d vs %d", len(first), len(second))
	}
	wantLen := len(deli.BreadKinds) + len(deli.MeatKinds) +
		len(deli.DrinkKinds)*len(deli.DrinkSizes) + len(deli.SideKinds)
	if len(first) != wantLen {
		t.Fatalf("snapshot has %d entries, want %d", len(first), wantLen)
	}
	for i := range first {
		if first[i].Kind != second[i].Kind || first[i].Key != second[i].Key {
			t.Fatalf("snapshot order differs at %d: %v vs %v", i, first[i], second[i])
		}
		if !first[i].Price.Equal(second[i].Price) {
			t.Fatalf("snapshot price differs at %d: %s vs %s", i, first[i].Price, second[i].Price)
		}
	}
}

func TestMenuSnapshotCarriesUpcharge(t *testing.T) {
	plain := MenuSnapshot(decimal.Zero)
	charged := MenuSnapshot(d("1.00"))

	for i := range plain {
		diff := charged[i].Price.Sub(plain[i].Price)
		if !diff.Equal(d("1.00")) {
			t.Errorf("entry %s/%s upcharge delta = %s, want 1.00",
				plain[i].Kind, plain[i].Key, diff)
		}
	}
}
