package harness

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/openfroyo/provider-deli/pkg/deli"
	"github.com/openfroyo/provider-deli/pkg/provider"
	"github.com/openfroyo/provider-deli/pkg/telemetry"
)

func mustFields(t *testing.T, raw string) deli.Fields {
	t.Helper()
	f, err := deli.FieldsFromJSON([]byte(raw))
	if err != nil {
		t.Fatalf("decoding fields: %v", err)
	}
	return f
}

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	ctx := context.Background()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	return store
}

func setupTestHarness(t *testing.T, upcharge string) (*Harness, *Store) {
	t.Helper()

	store := setupTestStore(t)
	p, err := provider.New()
	if err != nil {
		t.Fatalf("provider.New() error = %v", err)
	}
	logger := telemetry.NewLogger(telemetry.LoggingConfig{
		Level:  "error",
		Format: "console",
		Output: "stderr",
	})
	settings := provider.Settings{Upcharge: decimal.RequireFromString(upcharge)}
	return New(store, p, settings, logger), store
}

func mustPlan(t *testing.T, src string) Plan {
	t.Helper()
	plan, err := LoadPlan(strings.NewReader(src))
	if err != nil {
		t.Fatalf("LoadPlan() error = %v", err)
	}
	return plan
}

const lunchPlan = `
resources:
  - name: order
    kind: deli.bag
    attributes:
      sandwich_ids: [lunch]
  - name: lunch
    kind: deli.sandwich
    attributes:
      bread_id: rye
      meat_id: turkey
  - name: rye
    kind: deli.bread
    attributes:
      kind: rye
  - name: turkey
    kind: deli.meat
    attributes:
      kind: turkey
`

func TestStoreInstanceRoundTrip(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	inst := Instance{
		ID:       "bread-rye-00112233",
		Name:     "rye",
		Kind:     deli.KindBread,
		Attrs:    json.RawMessage(`{"kind":"rye"}`),
		Computed: json.RawMessage(`{"price":"3.00","price_component":"3.00","serial":"s1"}`),
		Serial:   "s1",
	}
	if err := store.PutInstance(ctx, inst); err != nil {
		t.Fatalf("PutInstance() error = %v", err)
	}

	got, err := store.GetInstance(ctx, "rye")
	if err != nil {
		t.Fatalf("GetInstance() error = %v", err)
	}
	if got.ID != inst.ID || got.Kind != deli.KindBread || got.Serial != "s1" {
		t.Errorf("GetInstance() = %+v, want %+v", got, inst)
	}

	byID, err := store.GetInstanceByID(ctx, inst.ID)
	if err != nil {
		t.Fatalf("GetInstanceByID() error = %v", err)
	}
	if byID.Name != "rye" {
		t.Errorf("GetInstanceByID().Name = %q, want rye", byID.Name)
	}

	fields, err := got.Fields()
	if err != nil {
		t.Fatalf("Fields() error = %v", err)
	}
	if price, ok := fields.Decimal("price"); !ok || !price.Equal(decimal.RequireFromString("3.00")) {
		t.Errorf("price = %v, want 3.00", fields["price"])
	}

	// Upsert by name replaces.
	inst.ID = "bread-wheat-44556677"
	inst.Attrs = json.RawMessage(`{"kind":"wheat"}`)
	if err := store.PutInstance(ctx, inst); err != nil {
		t.Fatalf("PutInstance() upsert error = %v", err)
	}
	got, err = store.GetInstance(ctx, "rye")
	if err != nil {
		t.Fatalf("GetInstance() after upsert error = %v", err)
	}
	if got.ID != "bread-wheat-44556677" {
		t.Errorf("upsert did not replace: ID = %s", got.ID)
	}

	if err := store.DeleteInstance(ctx, "rye"); err != nil {
		t.Fatalf("DeleteInstance() error = %v", err)
	}
	if _, err := store.GetInstance(ctx, "rye"); err == nil {
		t.Error("GetInstance() succeeded after delete")
	}
	if err := store.DeleteInstance(ctx, "rye"); err == nil {
		t.Error("DeleteInstance() succeeded for a missing instance")
	}
}

func TestApplyResolvesDependencyOrder(t *testing.T) {
	h, store := setupTestHarness(t, "10.00")
	ctx := context.Background()

	// The plan lists composites before their children on purpose.
	if err := h.Apply(ctx, mustPlan(t, lunchPlan)); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	sandwich, err := store.GetInstance(ctx, "lunch")
	if err != nil {
		t.Fatalf("GetInstance(lunch) error = %v", err)
	}
	fields, err := sandwich.Fields()
	if err != nil {
		t.Fatalf("Fields() error = %v", err)
	}
	price, ok := fields.Decimal(deli.FieldPrice)
	if !ok {
		t.Fatal("sandwich has no price")
	}
	// rye 3.00 + turkey 2.00 + one 10.00 upcharge
	if !price.Equal(decimal.RequireFromString("15.00")) {
		t.Errorf("sandwich price = %s, want 15.00", price)
	}

	bag, err := store.GetInstance(ctx, "order")
	if err != nil {
		t.Fatalf("GetInstance(order) error = %v", err)
	}
	bagFields, err := bag.Fields()
	if err != nil {
		t.Fatalf("Fields() error = %v", err)
	}
	if total, _ := bagFields.Decimal(deli.FieldTotalPrice); !total.Equal(decimal.RequireFromString("15.00")) {
		t.Errorf("bag total = %s, want 15.00", total)
	}
}

func TestApplyIsIdempotent(t *testing.T) {
	h, store := setupTestHarness(t, "0")
	ctx := context.Background()
	plan := mustPlan(t, lunchPlan)

	if err := h.Apply(ctx, plan); err != nil {
		t.Fatalf("first Apply() error = %v", err)
	}
	before, err := store.GetInstance(ctx, "lunch")
	if err != nil {
		t.Fatalf("GetInstance() error = %v", err)
	}

	if err := h.Apply(ctx, plan); err != nil {
		t.Fatalf("second Apply() error = %v", err)
	}
	after, err := store.GetInstance(ctx, "lunch")
	if err != nil {
		t.Fatalf("GetInstance() error = %v", err)
	}

	if before.ID != after.ID {
		t.Errorf("identifier changed on a no-op apply: %s -> %s", before.ID, after.ID)
	}
	if before.Serial != after.Serial {
		t.Errorf("salt changed on a no-op apply")
	}
}

func TestApplyReplacementCascades(t *testing.T) {
	h, store := setupTestHarness(t, "0")
	ctx := context.Background()

	if err := h.Apply(ctx, mustPlan(t, lunchPlan)); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	breadBefore, _ := store.GetInstance(ctx, "rye")
	sandwichBefore, _ := store.GetInstance(ctx, "lunch")

	changed := strings.Replace(lunchPlan, "kind: rye", "kind: wheat", 1)
	if err := h.Apply(ctx, mustPlan(t, changed)); err != nil {
		t.Fatalf("Apply() after change error = %v", err)
	}

	breadAfter, err := store.GetInstance(ctx, "rye")
	if err != nil {
		t.Fatalf("GetInstance(rye) error = %v", err)
	}
	if breadAfter.ID == breadBefore.ID {
		t.Error("bread identifier unchanged after a kind change")
	}
	if !strings.HasPrefix(breadAfter.ID, "bread-wheat-") {
		t.Errorf("bread ID = %s, want bread-wheat- prefix", breadAfter.ID)
	}

	sandwichAfter, err := store.GetInstance(ctx, "lunch")
	if err != nil {
		t.Fatalf("GetInstance(lunch) error = %v", err)
	}
	if sandwichAfter.ID == sandwichBefore.ID {
		t.Error("sandwich identifier unchanged after its bread was replaced")
	}

	fields, err := sandwichAfter.Fields()
	if err != nil {
		t.Fatalf("Fields() error = %v", err)
	}
	// wheat 2.75 + turkey 2.00
	if price, _ := fields.Decimal(deli.FieldPrice); !price.Equal(decimal.RequireFromString("4.75")) {
		t.Errorf("sandwich price = %s, want 4.75", price)
	}
}

func TestApplyInPlaceUpdateKeepsIdentifier(t *testing.T) {
	h, store := setupTestHarness(t, "0")
	ctx := context.Background()

	if err := h.Apply(ctx, mustPlan(t, lunchPlan)); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	before, _ := store.GetInstance(ctx, "rye")

	withDesc := strings.Replace(lunchPlan,
		"attributes:\n      kind: rye",
		"attributes:\n      kind: rye\n      description: seeded", 1)
	if err := h.Apply(ctx, mustPlan(t, withDesc)); err != nil {
		t.Fatalf("Apply() with description error = %v", err)
	}

	after, err := store.GetInstance(ctx, "rye")
	if err != nil {
		t.Fatalf("GetInstance() error = %v", err)
	}
	if after.ID != before.ID {
		t.Errorf("description change replaced the instance: %s -> %s", before.ID, after.ID)
	}
	attrs, err := after.Attributes()
	if err != nil {
		t.Fatalf("Attributes() error = %v", err)
	}
	if attrs["description"] != "seeded" {
		t.Errorf("description = %v, want seeded", attrs["description"])
	}
}

func TestVerifyDetectsTamperedState(t *testing.T) {
	h, store := setupTestHarness(t, "0")
	ctx := context.Background()

	if err := h.Apply(ctx, mustPlan(t, lunchPlan)); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	drifts, err := h.Verify(ctx)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if len(drifts) != 0 {
		t.Fatalf("clean state reported drift: %+v", drifts)
	}

	// Tamper with the stored attributes behind the identifier.
	inst, err := store.GetInstance(ctx, "rye")
	if err != nil {
		t.Fatalf("GetInstance() error = %v", err)
	}
	inst.Attrs = json.RawMessage(`{"kind":"wheat"}`)
	if err := store.PutInstance(ctx, *inst); err != nil {
		t.Fatalf("PutInstance() error = %v", err)
	}

	drifts, err = h.Verify(ctx)
	if err != nil {
		t.Fatalf("Verify() after tamper error = %v", err)
	}
	found := false
	for _, d := range drifts {
		if d.Name == "rye" {
			found = true
		}
	}
	if !found {
		t.Errorf("tampered instance not reported: %+v", drifts)
	}
}

func TestDestroyEmptiesState(t *testing.T) {
	h, store := setupTestHarness(t, "0")
	ctx := context.Background()

	if err := h.Apply(ctx, mustPlan(t, lunchPlan)); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if err := h.Destroy(ctx); err != nil {
		t.Fatalf("Destroy() error = %v", err)
	}

	instances, err := store.ListInstances(ctx)
	if err != nil {
		t.Fatalf("ListInstances() error = %v", err)
	}
	if len(instances) != 0 {
		t.Errorf("%d instances remain after destroy", len(instances))
	}
}

const seatingPlan = `
resources:
  - name: seating
    kind: deli.tables
    attributes:
      quantity: 3
  - name: stools
    kind: deli.chairs
    attributes:
      style: stool
      quantity: 12
  - name: snack
    kind: deli.side
    attributes:
      kind: chips
      quantity: 2
`

func TestReplayPreservesIntegerAttributes(t *testing.T) {
	h, store := setupTestHarness(t, "0")
	ctx := context.Background()

	if err := h.Apply(ctx, mustPlan(t, seatingPlan)); err != nil {
		t.Fatalf("Apply() error = %v", err)
	}

	// Replay from the state store must validate the stored integer
	// attributes, not a float rendering of them.
	drifts, err := h.Verify(ctx)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if len(drifts) != 0 {
		t.Fatalf("clean state reported drift: %+v", drifts)
	}

	before, err := store.GetInstance(ctx, "seating")
	if err != nil {
		t.Fatalf("GetInstance() error = %v", err)
	}
	if err := h.Apply(ctx, mustPlan(t, seatingPlan)); err != nil {
		t.Fatalf("re-Apply() error = %v", err)
	}

	// A cosmetic change routes through Update with the stored attributes
	// as the prior document; it must update in place.
	withDesc := strings.Replace(seatingPlan,
		"attributes:\n      quantity: 3",
		"attributes:\n      quantity: 3\n      description: window row", 1)
	if err := h.Apply(ctx, mustPlan(t, withDesc)); err != nil {
		t.Fatalf("Apply() with description error = %v", err)
	}

	after, err := store.GetInstance(ctx, "seating")
	if err != nil {
		t.Fatalf("GetInstance() error = %v", err)
	}
	if after.ID != before.ID {
		t.Errorf("description change replaced the instance: %s -> %s", before.ID, after.ID)
	}

	drifts, err = h.Verify(ctx)
	if err != nil {
		t.Fatalf("Verify() after update error = %v", err)
	}
	if len(drifts) != 0 {
		t.Errorf("updated state reported drift: %+v", drifts)
	}
}
