package provider

import (
	"github.com/shopspring/decimal"

	"github.com/openfroyo/provider-deli/pkg/deli"
	"github.com/openfroyo/provider-deli/pkg/identity"
)

// Settings is the provider-scoped configuration under which instances are
// created. It is immutable for the duration of an orchestrator run and may
// be read concurrently by any number of in-flight operations.
type Settings struct {
	// Upcharge is a monetary amount added exactly once to every priced
	// resource created under this configuration. Defaults to zero.
	Upcharge decimal.Decimal `json:"upcharge"`
}

// validate rejects settings the engine cannot price with.
func (s Settings) validate() error {
	if s.Upcharge.IsNegative() {
		return deli.NewValidationError("upcharge", "upcharge must not be negative, got %s", s.Upcharge)
	}
	return nil
}

// CreateRequest materializes a new resource instance.
type CreateRequest struct {
	// Kind is the resource kind to create.
	Kind deli.Kind `json:"kind"`

	// Attributes is the raw, user-supplied attribute map.
	Attributes map[string]any `json:"attributes"`

	// Settings is the provider configuration in scope.
	Settings Settings `json:"settings"`

	// References holds the pre-resolved referenced instances of
	// composite kinds, keyed by role.
	References deli.References `json:"references,omitempty"`

	// Salt is the orchestrator-minted sequence salt disambiguating
	// instances with identical configuration. It is echoed back as the
	// computed field "serial" and must accompany later Read and Update
	// calls.
	Salt string `json:"salt"`
}

// CreateResponse is the result of a Create operation.
type CreateResponse struct {
	// ID is the minted instance identifier.
	ID identity.ID `json:"id"`

	// Computed are the derived fields of the instance.
	Computed deli.Fields `json:"computed"`
}

// ReadRequest recomputes an instance from its stored attributes. Read is a
// deterministic replay of Create: given unchanged inputs it must reproduce
// the stored identifier and computed fields exactly.
type ReadRequest struct {
	// ID is the stored instance identifier.
	ID identity.ID `json:"id"`

	// Kind is the resource kind.
	Kind deli.Kind `json:"kind"`

	// Attributes is the attribute map from the orchestrator's state
	// store.
	Attributes map[string]any `json:"attributes"`

	// Settings is the provider configuration in scope.
	Settings Settings `json:"settings"`

	// References holds the pre-resolved referenced instances.
	References deli.References `json:"references,omitempty"`

	// Salt is the sequence salt stored at Create.
	Salt string `json:"salt"`
}

// ReadResponse is the result of a Read operation.
type ReadResponse struct {
	// Computed are the recomputed fields of the instance.
	Computed deli.Fields `json:"computed"`
}

// UpdateRequest re-validates and re-prices an instance with changed
// configuration.
type UpdateRequest struct {
	// ID is the current instance identifier.
	ID identity.ID `json:"id"`

	// Kind is the resource kind.
	Kind deli.Kind `json:"kind"`

	// PriorAttributes is the attribute map before the change.
	PriorAttributes map[string]any `json:"prior_attributes"`

	// Attributes is the attribute map after the change.
	Attributes map[string]any `json:"attributes"`

	// Settings is the provider configuration in scope.
	Settings Settings `json:"settings"`

	// References holds the pre-resolved referenced instances for the new
	// attribute set.
	References deli.References `json:"references,omitempty"`

	// Salt is the sequence salt stored at Create. Updates never change
	// it, so the identifier changes if and only if an identity-affecting
	// attribute changed.
	Salt string `json:"salt"`
}

// UpdateResponse is the result of an Update operation.
type UpdateResponse struct {
	// ID is the identifier after the update. It differs from the request
	// identifier exactly when an identity-affecting attribute changed.
	ID identity.ID `json:"id"`

	// RequiresReplace indicates the identifier changed and the
	// orchestrator should perform replacement semantics.
	RequiresReplace bool `json:"requires_replace"`

	// Computed are the recomputed fields of the instance.
	Computed deli.Fields `json:"computed"`
}

// DeleteRequest retires an instance. The engine holds no external
// resource, so deletion is a confirmation.
type DeleteRequest struct {
	// ID is the instance identifier.
	ID identity.ID `json:"id"`

	// Kind is the resource kind.
	Kind deli.Kind `json:"kind"`
}

// DeleteResponse acknowledges a Delete operation.
type DeleteResponse struct {
	// Acknowledged is true when the instance was recognized and retired.
	Acknowledged bool `json:"acknowledged"`
}

// DescribeRequest invokes a read-only data source.
type DescribeRequest struct {
	// Name is the data source kind, e.g. deli.menu.
	Name deli.Kind `json:"name"`

	// Settings is the provider configuration in scope.
	Settings Settings `json:"settings"`

	// Params are the data source parameters.
	Params map[string]any `json:"params,omitempty"`
}

// DescribeResponse is the result of a Describe operation.
type DescribeResponse struct {
	// Computed is the data source output.
	Computed deli.Fields `json:"computed"`
}
