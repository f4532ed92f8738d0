// pkg/schemadoc/load.go
package schemadoc

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/xeipuuv/gojsonschema"
)

// metaSchema describes what a well-formed schema document looks like. Every
// document is checked against it before the gateway trusts its contents.
var metaSchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"table_name", "table_id", "fields"},
	"properties": map[string]interface{}{
		"table_name": map[string]interface{}{
			"type":      "string",
			"minLength": 1,
		},
		"table_id": map[string]interface{}{
			"type":    "string",
			"pattern": "^tbl[a-zA-Z0-9]+$",
		},
		"total_fields": map[string]interface{}{
			"type": "integer",
		},
		"extracted_at": map[string]interface{}{
			"type": "string",
		},
		"fields": map[string]interface{}{
			"type":     "array",
			"minItems": 1,
			"items": map[string]interface{}{
				"type":     "object",
				"required": []interface{}{"name", "type"},
				"properties": map[string]interface{}{
					"id":          map[string]interface{}{"type": "string"},
					"name":        map[string]interface{}{"type": "string", "minLength": 1},
					"type":        map[string]interface{}{"type": "string", "minLength": 1},
					"description": map[string]interface{}{"type": []interface{}{"string", "null"}},
					"required":    map[string]interface{}{"type": "boolean"},
					"options": map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"precision": map[string]interface{}{"type": "integer", "minimum": 0},
							"choices": map[string]interface{}{
								"type": "array",
								"items": map[string]interface{}{
									"type":     "object",
									"required": []interface{}{"name"},
								},
							},
						},
					},
				},
			},
		},
	},
}

// Validate checks raw document JSON against the meta-schema.
func Validate(data []byte) error {
	schemaLoader := gojsonschema.NewGoLoader(metaSchema)
	documentLoader := gojsonschema.NewBytesLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("document validation failed: %v", errs)
	}

	return nil
}

// Load reads and validates one schema document.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := Validate(data); err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return &doc, nil
}

// LoadDir loads every *.json document under dir, sorted by file name so the
// result is stable across runs.
func LoadDir(dir string) ([]*Document, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no schema documents found in %s", dir)
	}
	sort.Strings(matches)

	docs := make([]*Document, 0, len(matches))
	for _, path := range matches {
		doc, err := Load(path)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Save writes a document pretty-printed, creating the directory if needed.
func Save(doc *Document, path string) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write document file: %w", err)
	}

	return nil
}
