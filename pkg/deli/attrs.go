package deli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/openfroyo/provider-deli/pkg/identity"
)

// Attrs is the validated, defaulted attribute set of a resource instance.
// Each kind has its own concrete struct; the interface exposes the two
// pieces the identifier codec needs.
//
// IdentityTokens is the human-readable rendering embedded in the
// identifier; IdentityPayload is the canonical string the fingerprint is
// computed over. Both cover exactly the identity-affecting attributes of
// the kind: changing any of them changes the identifier (replacement),
// changing anything else does not. Free-text description is never
// identity-affecting.
type Attrs interface {
	// Kind returns the resource kind these attributes belong to.
	Kind() Kind

	// IdentityTokens returns the identifier tokens in canonical order.
	IdentityTokens() []string

	// IdentityPayload returns the canonical fingerprint input.
	IdentityPayload() string
}

// BreadAttrs configures a deli.bread instance.
type BreadAttrs struct {
	BreadKind   string `json:"kind"`
	Description string `json:"description,omitempty"`
}

// Kind implements Attrs.
func (a BreadAttrs) Kind() Kind { return KindBread }

// IdentityTokens implements Attrs.
func (a BreadAttrs) IdentityTokens() []string { return []string{a.BreadKind} }

// IdentityPayload implements Attrs.
func (a BreadAttrs) IdentityPayload() string { return "kind=" + a.BreadKind }

// MeatAttrs configures a deli.meat instance.
type MeatAttrs struct {
	MeatKind    string `json:"kind"`
	Description string `json:"description,omitempty"`
}

// Kind implements Attrs.
func (a MeatAttrs) Kind() Kind { return KindMeat }

// IdentityTokens implements Attrs.
func (a MeatAttrs) IdentityTokens() []string { return []string{a.MeatKind} }

// IdentityPayload implements Attrs.
func (a MeatAttrs) IdentityPayload() string { return "kind=" + a.MeatKind }

// DrinkAttrs configures a deli.drink instance. Size defaults to "medium".
type DrinkAttrs struct {
	DrinkKind   string `json:"kind"`
	Size        string `json:"size,omitempty"`
	Description string `json:"description,omitempty"`
}

// Kind implements Attrs.
func (a DrinkAttrs) Kind() Kind { return KindDrink }

// IdentityTokens implements Attrs.
func (a DrinkAttrs) IdentityTokens() []string { return []string{a.DrinkKind, a.Size} }

// IdentityPayload implements Attrs.
func (a DrinkAttrs) IdentityPayload() string {
	return "kind=" + a.DrinkKind + ";size=" + a.Size
}

// SideAttrs configures a deli.side instance. Quantity defaults to 1.
type SideAttrs struct {
	SideKind    string `json:"kind"`
	Quantity    int    `json:"quantity,omitempty"`
	Description string `json:"description,omitempty"`
}

// Kind implements Attrs.
func (a SideAttrs) Kind() Kind { return KindSide }

// IdentityTokens implements Attrs.
func (a SideAttrs) IdentityTokens() []string {
	return []string{a.SideKind, strconv.Itoa(a.Quantity)}
}

// IdentityPayload implements Attrs.
func (a SideAttrs) IdentityPayload() string {
	return fmt.Sprintf("kind=%s;quantity=%d", a.SideKind, a.Quantity)
}

// OvenAttrs configures a deli.oven instance.
type OvenAttrs struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// Kind implements Attrs.
func (a OvenAttrs) Kind() Kind { return KindOven }

// IdentityTokens implements Attrs.
func (a OvenAttrs) IdentityTokens() []string { return []string{a.Type} }

// IdentityPayload implements Attrs.
func (a OvenAttrs) IdentityPayload() string { return "type=" + a.Type }

// CookAttrs configures a deli.cook instance. Name is informational only.
type CookAttrs struct {
	Experience  string `json:"experience"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
}

// Kind implements Attrs.
func (a CookAttrs) Kind() Kind { return KindCook }

// IdentityTokens implements Attrs.
func (a CookAttrs) IdentityTokens() []string { return []string{a.Experience} }

// IdentityPayload implements Attrs.
func (a CookAttrs) IdentityPayload() string { return "experience=" + a.Experience }

// TablesAttrs configures a deli.tables instance. SeatsEach defaults to 4.
type TablesAttrs struct {
	Quantity    int    `json:"quantity"`
	SeatsEach   int    `json:"seats_each,omitempty"`
	Description string `json:"description,omitempty"`
}

// Kind implements Attrs.
func (a TablesAttrs) Kind() Kind { return KindTables }

// IdentityTokens implements Attrs.
func (a TablesAttrs) IdentityTokens() []string {
	return []string{strconv.Itoa(a.Quantity)}
}

// IdentityPayload implements Attrs.
func (a TablesAttrs) IdentityPayload() string {
	return fmt.Sprintf("quantity=%d;seats_each=%d", a.Quantity, a.SeatsEach)
}

// ChairsAttrs configures a deli.chairs instance.
type ChairsAttrs struct {
	Style       string `json:"style"`
	Quantity    int    `json:"quantity"`
	Description string `json:"description,omitempty"`
}

// Kind implements Attrs.
func (a ChairsAttrs) Kind() Kind { return KindChairs }

// IdentityTokens implements Attrs.
func (a ChairsAttrs) IdentityTokens() []string {
	return []string{a.Style, strconv.Itoa(a.Quantity)}
}

// IdentityPayload implements Attrs.
func (a ChairsAttrs) IdentityPayload() string {
	return fmt.Sprintf("style=%s;quantity=%d", a.Style, a.Quantity)
}

// FridgeAttrs configures a deli.fridge instance.
type FridgeAttrs struct {
	Capacity    string `json:"capacity"`
	Description string `json:"description,omitempty"`
}

// Kind implements Attrs.
func (a FridgeAttrs) Kind() Kind { return KindFridge }

// IdentityTokens implements Attrs.
func (a FridgeAttrs) IdentityTokens() []string { return []string{a.Capacity} }

// IdentityPayload implements Attrs.
func (a FridgeAttrs) IdentityPayload() string { return "capacity=" + a.Capacity }

// SandwichAttrs configures a deli.sandwich instance. BreadID and MeatID
// reference materialized bread and meat instances.
type SandwichAttrs struct {
	BreadID     string `json:"bread_id"`
	MeatID      string `json:"meat_id"`
	Toasted     bool   `json:"toasted,omitempty"`
	Description string `json:"description,omitempty"`
}

// Kind implements Attrs.
func (a SandwichAttrs) Kind() Kind { return KindSandwich }

// IdentityTokens embeds the referenced children's kind and identity tokens
// so sandwich identifiers read "sandwich-bread-rye-meat-turkey-<fp>". The
// fingerprint covers the full child identifiers, keeping sandwiches on
// distinct instances of the same bread kind distinguishable.
func (a SandwichAttrs) IdentityTokens() []string {
	tokens := childTokens(a.BreadID)
	tokens = append(tokens, childTokens(a.MeatID)...)
	return tokens
}

// IdentityPayload implements Attrs.
func (a SandwichAttrs) IdentityPayload() string {
	return "bread_id=" + a.BreadID + ";meat_id=" + a.MeatID
}

// childTokens renders a referenced identifier as identity tokens: the
// child's kind followed by its own identity tokens, fingerprint dropped.
// Undecodable references surface later as validation errors; here they
// degrade to no tokens so token building stays total.
func childTokens(id string) []string {
	dec, err := identity.Decode(identity.ID(id))
	if err != nil {
		return nil
	}
	return append([]string{dec.Kind}, dec.Tokens...)
}

// BagAttrs configures a deli.bag instance holding 1 to 5 sandwiches.
type BagAttrs struct {
	SandwichIDs []string `json:"sandwich_ids"`
	Description string   `json:"description,omitempty"`
}

// Kind implements Attrs.
func (a BagAttrs) Kind() Kind { return KindBag }

// IdentityTokens implements Attrs.
func (a BagAttrs) IdentityTokens() []string {
	return []string{strconv.Itoa(len(a.SandwichIDs))}
}

// IdentityPayload implements Attrs.
func (a BagAttrs) IdentityPayload() string {
	return "sandwich_ids=" + strings.Join(a.SandwichIDs, ",")
}

// StoreAttrs configures a deli.store instance referencing one oven, one or
// more cooks, one tables unit, one chairs unit, and one fridge.
type StoreAttrs struct {
	OvenID      string   `json:"oven_id"`
	CookIDs     []string `json:"cook_ids"`
	TablesID    string   `json:"tables_id"`
	ChairsID    string   `json:"chairs_id"`
	FridgeID    string   `json:"fridge_id"`
	Description string   `json:"description,omitempty"`
}

// Kind implements Attrs.
func (a StoreAttrs) Kind() Kind { return KindStore }

// IdentityTokens implements Attrs. Store identifiers carry no attribute
// tokens; the fingerprint over the component identifiers is the identity.
func (a StoreAttrs) IdentityTokens() []string { return nil }

// IdentityPayload implements Attrs.
func (a StoreAttrs) IdentityPayload() string {
	return fmt.Sprintf("oven_id=%s;cook_ids=%s;tables_id=%s;chairs_id=%s;fridge_id=%s",
		a.OvenID, strings.Join(a.CookIDs, ","), a.TablesID, a.ChairsID, a.FridgeID)
}

// MenuParams are the parameters of the deli.menu data source. An empty
// Types slice means every priced kind.
type MenuParams struct {
	Types []string `json:"types,omitempty"`
}
