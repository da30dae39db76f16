package deli

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindShortAndBack(t *testing.T) {
	kinds := append(ResourceKinds(), DataSourceKinds()...)
	for _, kind := range kinds {
		short := kind.Short()
		if short == string(kind) {
			t.Errorf("%s: Short() did not strip the provider prefix", kind)
		}
		back, ok := KindFromShort(short)
		if !ok || back != kind {
			t.Errorf("KindFromShort(%q) = %v, %v; want %v", short, back, ok, kind)
		}
	}

	if _, ok := KindFromShort("pizza"); ok {
		t.Error("KindFromShort accepted an unknown token")
	}
	if Kind("deli.pizza").Valid() {
		t.Error("Valid() accepted an unknown kind")
	}
	if !KindMenu.IsDataSource() {
		t.Error("deli.menu is not recognized as a data source")
	}
	if KindBread.IsDataSource() {
		t.Error("deli.bread misclassified as a data source")
	}
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"validation", NewValidationError("kind", "bad value"), IsValidation},
		{"reference", NewReferenceError(RoleBread, "dangling"), IsReference},
		{"inconsistency", NewInconsistencyError("table miss"), IsInconsistency},
		{"wrapped validation", fmt.Errorf("applying: %w", NewValidationError("kind", "bad")), IsValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.check(tt.err) {
				t.Errorf("class check failed for %v", tt.err)
			}
		})
	}

	if IsReference(NewValidationError("f", "m")) {
		t.Error("validation error classified as reference")
	}
	if IsValidation(errors.New("plain")) {
		t.Error("plain error classified as validation")
	}
}

func TestErrorIsMatchesByClass(t *testing.T) {
	err := NewValidationError("kind", "bad").WithKind(KindBread)
	if !errors.Is(err, &Error{Class: ClassValidation}) {
		t.Error("errors.Is did not match by class")
	}
	if errors.Is(err, &Error{Class: ClassReference}) {
		t.Error("errors.Is matched across classes")
	}
}

func TestFieldsDecimalToleratesWireShapes(t *testing.T) {
	fields, err := FieldsFromJSON([]byte(`{
		"price": 15.00,
		"total": "20.75",
		"count": 2,
		"serial": "abc"
	}`))
	if err != nil {
		t.Fatalf("FieldsFromJSON() error = %v", err)
	}

	price, ok := fields.Decimal("price")
	if !ok || price.String() != "15" {
		t.Errorf("price = %v, %v; want 15", price, ok)
	}
	total, ok := fields.Decimal("total")
	if !ok || total.String() != "20.75" {
		t.Errorf("total = %v, %v; want 20.75", total, ok)
	}
	if count, ok := fields.Int("count"); !ok || count != 2 {
		t.Errorf("count = %v, %v; want 2", count, ok)
	}
	if _, ok := fields.Decimal("serial"); ok {
		t.Error("a non-numeric string parsed as a decimal")
	}
	if s, ok := fields.String("serial"); !ok || s != "abc" {
		t.Errorf("serial = %q, %v; want abc", s, ok)
	}
	if _, ok := fields.Decimal("missing"); ok {
		t.Error("missing field reported as present")
	}
}

func TestSandwichIdentityTokensEmbedChildren(t *testing.T) {
	attrs := SandwichAttrs{
		BreadID: "bread-rye-00112233",
		MeatID:  "meat-turkey-44556677",
	}
	tokens := attrs.IdentityTokens()
	want := []string{"bread", "rye", "meat", "turkey"}
	if len(tokens) != len(want) {
		t.Fatalf("tokens = %v, want %v", tokens, want)
	}
	for i := range want {
		if tokens[i] != want[i] {
			t.Fatalf("tokens = %v, want %v", tokens, want)
		}
	}

	// Distinct child instances of the same catalog entry share tokens but
	// not payloads.
	other := SandwichAttrs{
		BreadID: "bread-rye-8899aabb",
		MeatID:  "meat-turkey-44556677",
	}
	if attrs.IdentityPayload() == other.IdentityPayload() {
		t.Error("payload does not distinguish child instances")
	}
}

func TestReferencesFind(t *testing.T) {
	refs := References{
		RoleCooks: {
			{ID: "cook-line-00000001", Kind: KindCook},
			{ID: "cook-head-00000002", Kind: KindCook},
		},
	}

	if inst, ok := refs.Find(RoleCooks, "cook-head-00000002"); !ok || inst.Kind != KindCook {
		t.Errorf("Find() = %v, %v; want the head cook", inst, ok)
	}
	if _, ok := refs.Find(RoleCooks, "cook-line-99999999"); ok {
		t.Error("Find() resolved an absent identifier")
	}
	if _, ok := refs.Find(RoleOven, "cook-line-00000001"); ok {
		t.Error("Find() resolved across roles")
	}
}
