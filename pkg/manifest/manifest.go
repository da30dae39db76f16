// Package manifest builds the published provider manifest: metadata about
// the provider plus a JSON Schema document for every kind it serves.
// Orchestrators consume the manifest to validate configuration before a
// single lifecycle call is made.
package manifest

import (
	"fmt"
	"io"
	"sort"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/openfroyo/provider-deli/pkg/deli"
)

// ProtocolVersion is the manifest wire format version.
const ProtocolVersion = 1

// Metadata describes the provider itself.
type Metadata struct {
	// Name is the provider short name used as the kind prefix.
	Name string `json:"name" yaml:"name" validate:"required,lowercase,alphanum"`

	// Version is the provider release version.
	Version string `json:"version" yaml:"version" validate:"required,semver"`

	// Protocol is the manifest format version.
	Protocol int `json:"protocol" yaml:"protocol" validate:"required,eq=1"`

	// Homepage is an optional documentation link.
	Homepage string `json:"homepage,omitempty" yaml:"homepage,omitempty" validate:"omitempty,url"`
}

// KindEntry is one kind served by the provider.
type KindEntry struct {
	// Kind is the fully qualified kind name, e.g. deli.bread.
	Kind deli.Kind `json:"kind" yaml:"kind" validate:"required"`

	// DataSource marks read-only kinds with no lifecycle.
	DataSource bool `json:"data_source,omitempty" yaml:"data_source,omitempty"`

	// Schema is the JSON Schema document for the kind's attributes.
	Schema map[string]any `json:"schema" yaml:"schema" validate:"required"`
}

// Manifest is the full published document.
type Manifest struct {
	Metadata Metadata    `json:"metadata" yaml:"metadata" validate:"required"`
	Kinds    []KindEntry `json:"kinds" yaml:"kinds" validate:"required,min=1,dive"`
}

// Default builds the manifest for this provider build.
func Default(version string) Manifest {
	kinds := make([]KindEntry, 0, len(deli.ResourceKinds())+len(deli.DataSourceKinds()))
	for _, k := range deli.ResourceKinds() {
		kinds = append(kinds, KindEntry{Kind: k, Schema: schemaDocument(k)})
	}
	for _, k := range deli.DataSourceKinds() {
		kinds = append(kinds, KindEntry{Kind: k, DataSource: true, Schema: schemaDocument(k)})
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i].Kind < kinds[j].Kind })

	return Manifest{
		Metadata: Metadata{
			Name:     "deli",
			Version:  version,
			Protocol: ProtocolVersion,
		},
		Kinds: kinds,
	}
}

// Validate checks the manifest structure and compiles every embedded
// schema document.
func (m Manifest) Validate() error {
	if err := validator.New().Struct(m); err != nil {
		return fmt.Errorf("manifest metadata: %w", err)
	}
	seen := make(map[deli.Kind]bool, len(m.Kinds))
	for _, entry := range m.Kinds {
		if seen[entry.Kind] {
			return fmt.Errorf("manifest lists kind %s twice", entry.Kind)
		}
		seen[entry.Kind] = true
		if !entry.Kind.Valid() {
			return fmt.Errorf("manifest lists unknown kind %s", entry.Kind)
		}
		if _, err := compileSchema(entry.Kind, entry.Schema); err != nil {
			return fmt.Errorf("schema for %s: %w", entry.Kind, err)
		}
	}
	return nil
}

// Kind returns the entry for kind, or false when the manifest does not
// serve it.
func (m Manifest) Kind(kind deli.Kind) (KindEntry, bool) {
	for _, entry := range m.Kinds {
		if entry.Kind == kind {
			return entry, true
		}
	}
	return KindEntry{}, false
}

// Encode writes the manifest as YAML.
func (m Manifest) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	return enc.Close()
}

// Decode reads a YAML manifest and validates it.
func Decode(r io.Reader) (Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return Manifest{}, fmt.Errorf("decoding manifest: %w", err)
	}
	if err := m.Validate(); err != nil {
		return Manifest{}, err
	}
	return m, nil
}
