package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/openfroyo/provider-deli/pkg/deli"
)

// draft is the JSON Schema dialect the manifest publishes.
const draft = "https://json-schema.org/draft/2020-12/schema"

// compileSchema verifies that a schema document is a valid JSON Schema.
func compileSchema(kind deli.Kind, doc map[string]any) (*jsonschema.Schema, error) {
	buf, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshaling schema: %w", err)
	}
	url := fmt.Sprintf("manifest:///%s.schema.json", kind)
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(url, bytes.NewReader(buf)); err != nil {
		return nil, fmt.Errorf("adding schema resource: %w", err)
	}
	return compiler.Compile(url)
}

// CompiledSchema compiles the published schema for kind, for callers that
// want to validate raw documents themselves.
func CompiledSchema(kind deli.Kind) (*jsonschema.Schema, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown kind %s", kind)
	}
	return compileSchema(kind, schemaDocument(kind))
}

func enumOf(values []string) map[string]any {
	enum := make([]any, len(values))
	for i, v := range values {
		enum[i] = v
	}
	return map[string]any{"type": "string", "enum": enum}
}

func idRef(kind deli.Kind) map[string]any {
	return map[string]any{
		"type":    "string",
		"pattern": fmt.Sprintf("^%s-", kind.Short()),
	}
}

func document(required []string, properties map[string]any) map[string]any {
	if required == nil {
		// A nil slice marshals to JSON null, which is not a valid value
		// for "required"; publish an empty array instead.
		required = []string{}
	}
	return map[string]any{
		"$schema":              draft,
		"type":                 "object",
		"additionalProperties": false,
		"required":             required,
		"properties":           properties,
	}
}

// schemaDocument renders the published JSON Schema for a kind. The
// documents mirror the compiled CUE definitions used for runtime
// validation; the manifest form exists so orchestrators that speak JSON
// Schema can validate without loading the provider.
func schemaDocument(kind deli.Kind) map[string]any {
	description := map[string]any{"type": "string"}
	positiveInt := map[string]any{"type": "integer", "minimum": 1}

	switch kind {
	case deli.KindBread:
		return document([]string{"kind"}, map[string]any{
			"kind":        enumOf(deli.BreadKinds),
			"description": description,
		})
	case deli.KindMeat:
		return document([]string{"kind"}, map[string]any{
			"kind":        enumOf(deli.MeatKinds),
			"description": description,
		})
	case deli.KindDrink:
		return document([]string{"kind"}, map[string]any{
			"kind":        enumOf(deli.DrinkKinds),
			"size":        enumOf(deli.DrinkSizes),
			"description": description,
		})
	case deli.KindSide:
		return document([]string{"kind"}, map[string]any{
			"kind":        enumOf(deli.SideKinds),
			"quantity":    positiveInt,
			"description": description,
		})
	case deli.KindOven:
		return document([]string{"type"}, map[string]any{
			"type":        enumOf(deli.OvenTypes),
			"description": description,
		})
	case deli.KindCook:
		return document([]string{"experience"}, map[string]any{
			"experience":  enumOf(deli.CookExperienceTiers),
			"name":        map[string]any{"type": "string"},
			"description": description,
		})
	case deli.KindTables:
		return document([]string{"quantity"}, map[string]any{
			"quantity":    positiveInt,
			"seats_each":  positiveInt,
			"description": description,
		})
	case deli.KindChairs:
		return document([]string{"style", "quantity"}, map[string]any{
			"style":       enumOf(deli.ChairStyles),
			"quantity":    positiveInt,
			"description": description,
		})
	case deli.KindFridge:
		return document([]string{"capacity"}, map[string]any{
			"capacity":    enumOf(deli.FridgeCapacities),
			"description": description,
		})
	case deli.KindSandwich:
		return document([]string{"bread_id", "meat_id"}, map[string]any{
			"bread_id":    idRef(deli.KindBread),
			"meat_id":     idRef(deli.KindMeat),
			"toasted":     map[string]any{"type": "boolean"},
			"description": description,
		})
	case deli.KindBag:
		return document([]string{"sandwich_ids"}, map[string]any{
			"sandwich_ids": map[string]any{
				"type":     "array",
				"items":    idRef(deli.KindSandwich),
				"minItems": 1,
				"maxItems": 5,
			},
			"description": description,
		})
	case deli.KindStore:
		return document(
			[]string{"oven_id", "cook_ids", "tables_id", "chairs_id", "fridge_id"},
			map[string]any{
				"oven_id": idRef(deli.KindOven),
				"cook_ids": map[string]any{
					"type":     "array",
					"items":    idRef(deli.KindCook),
					"minItems": 1,
				},
				"tables_id":   idRef(deli.KindTables),
				"chairs_id":   idRef(deli.KindChairs),
				"fridge_id":   idRef(deli.KindFridge),
				"description": description,
			},
		)
	case deli.KindMenu:
		return document(nil, map[string]any{
			"types": map[string]any{
				"type":  "array",
				"items": enumOf(deli.MenuTypes),
			},
		})
	}
	return document(nil, map[string]any{})
}
