// cmd/tools/schema-export/main.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"airtable-gateway/internal/common/airtable"
	"airtable-gateway/internal/common/config"
	"airtable-gateway/internal/schema"
	"airtable-gateway/pkg/schemadoc"
)

func main() {
	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	listCmd := flag.NewFlagSet("list", flag.ExitOnError)

	// Export command flags
	exportDir := exportCmd.String("dir", "schemas", "Directory holding schema documents")
	exportName := exportCmd.String("name", "", "Logical table name for a new mapping (requires -table-id)")
	exportTableID := exportCmd.String("table-id", "", "Airtable table ID for a new mapping (requires -name)")

	// Validate command flags
	validateDir := validateCmd.String("dir", "schemas", "Directory holding schema documents")

	// List command flags
	listDir := listCmd.String("dir", "schemas", "Directory holding schema documents")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "export":
		exportCmd.Parse(os.Args[2:])
		if (*exportName == "") != (*exportTableID == "") {
			fmt.Println("Error: -name and -table-id must be used together.")
			exportCmd.Usage()
			os.Exit(1)
		}
		if err := exportSchemas(*exportDir, *exportName, *exportTableID); err != nil {
			fmt.Printf("Error exporting schemas: %v\n", err)
			os.Exit(1)
		}

	case "validate":
		validateCmd.Parse(os.Args[2:])
		if err := validateSchemas(*validateDir); err != nil {
			fmt.Printf("Schema validation failed: %v\n", err)
			os.Exit(1)
		}

	case "list":
		listCmd.Parse(os.Args[2:])
		if err := listSchemas(*listDir); err != nil {
			fmt.Printf("Error listing schemas: %v\n", err)
			os.Exit(1)
		}

	case "help":
		fallthrough
	default:
		help()
	}
}

// exportSchemas refreshes local schema documents from the live base. With no
// -name/-table-id pair, every document already in dir is re-exported from
// the table ID it records; required flags survive the refresh because the
// metadata API does not carry them.
func exportSchemas(dir, name, tableID string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	client := airtable.NewClient(cfg.Airtable)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tables, err := client.BaseSchema(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch base schema: %w", err)
	}

	byID := make(map[string]airtable.MetaTable, len(tables))
	for _, tbl := range tables {
		byID[tbl.ID] = tbl
	}

	mappings := map[string]string{}
	requiredByTable := map[string]map[string]bool{}
	if name != "" {
		mappings[name] = tableID
	} else {
		docs, err := schemadoc.LoadDir(dir)
		if err != nil {
			return fmt.Errorf("failed to load existing documents: %w", err)
		}
		for _, doc := range docs {
			mappings[doc.TableName] = doc.TableID
			required := map[string]bool{}
			for _, f := range doc.Fields {
				if f.Required {
					required[f.Name] = true
				}
			}
			requiredByTable[doc.TableName] = required
		}
	}

	exported := 0
	for logical, id := range mappings {
		tbl, ok := byID[id]
		if !ok {
			return fmt.Errorf("table %s (%s) not present in base %s", logical, id, cfg.Airtable.BaseID)
		}
		doc, err := buildDocument(logical, tbl, requiredByTable[logical])
		if err != nil {
			return err
		}
		path := filepath.Join(dir, fmt.Sprintf("schema_%s.json", logical))
		if err := schemadoc.Save(doc, path); err != nil {
			return err
		}
		fmt.Printf("Exported %s (%d fields) to %s\n", logical, doc.TotalFields, path)
		exported++
	}

	fmt.Printf("Exported %d table schemas.\n", exported)
	return nil
}

// buildDocument converts live table metadata into a schema document. Field
// types the gateway cannot validate are skipped with a warning so the
// resulting document always loads.
func buildDocument(logical string, tbl airtable.MetaTable, requiredFields map[string]bool) (*schemadoc.Document, error) {
	fields := make([]schemadoc.Field, 0, len(tbl.Fields))
	for _, mf := range tbl.Fields {
		if _, ok := schema.ParseFieldType(mf.Type); !ok {
			fmt.Printf("Warning: skipping field %s.%s (unsupported type %s; supported: %s)\n",
				logical, mf.Name, mf.Type, strings.Join(schema.FieldTypeNames(), ", "))
			continue
		}

		field := schemadoc.Field{
			ID:          mf.ID,
			Name:        mf.Name,
			Type:        mf.Type,
			Description: mf.Description,
			Required:    requiredFields[mf.Name],
		}
		if len(mf.Options) > 0 {
			var opts schemadoc.Options
			if err := json.Unmarshal(mf.Options, &opts); err != nil {
				return nil, fmt.Errorf("field %s.%s: decode options: %w", logical, mf.Name, err)
			}
			if opts.Precision != nil || len(opts.Choices) > 0 {
				field.Options = &opts
			}
		}
		fields = append(fields, field)
	}

	if len(fields) == 0 {
		return nil, fmt.Errorf("table %s has no exportable fields", logical)
	}

	return &schemadoc.Document{
		TableName:   logical,
		TableID:     tbl.ID,
		TotalFields: len(fields),
		ExtractedAt: time.Now().UTC().Format("2006-01-02T15:04:05"),
		Fields:      fields,
	}, nil
}

// validateSchemas loads the documents exactly the way the gateway does at
// startup, so a passing validation means the server will boot.
func validateSchemas(dir string) error {
	registry, err := schema.LoadRegistry(dir)
	if err != nil {
		return err
	}

	fmt.Printf("Schema validation passed. Found %d tables.\n", registry.Len())
	for _, table := range registry.Tables() {
		ts, _ := registry.Get(table)
		fmt.Printf("  %s -> %s (%d fields, %d required)\n",
			table, ts.TableID(), ts.Len(), len(ts.RequiredFields()))
	}
	return nil
}

func listSchemas(dir string) error {
	docs, err := schemadoc.LoadDir(dir)
	if err != nil {
		return err
	}

	for _, doc := range docs {
		fmt.Printf("%s (%s) - %d fields, extracted %s\n", doc.TableName, doc.TableID, doc.TotalFields, doc.ExtractedAt)
		for _, f := range doc.Fields {
			marker := " "
			if f.Required {
				marker = "*"
			}
			extra := ""
			if f.Options != nil {
				if f.Options.Precision != nil {
					extra = fmt.Sprintf(" (precision %d)", *f.Options.Precision)
				}
				if names := f.Options.ChoiceNames(); len(names) > 0 {
					extra = fmt.Sprintf(" [%s]", strings.Join(names, ", "))
				}
			}
			fmt.Printf("  %s %-24s %s%s\n", marker, f.Name, f.Type, extra)
		}
	}
	return nil
}

func help() {
	fmt.Print(`
Usage: schema-export <command> [flags]

Commands:
  export   Refresh schema documents from the live Airtable base
  validate Validate schema documents the way the server loads them
  list     Print the tables and fields the documents describe
  help     Show this help message

Examples:
  schema-export export -dir schemas
  schema-export export -dir schemas -name leads_table -table-id tblUZkxzC0MbJ12HG
  schema-export validate -dir schemas
  schema-export list -dir schemas

Export needs AIRTABLE_API_KEY and AIRTABLE_BASE_ID configured, the same as
the API server. Required flags are a gateway-level contract and are kept
from the existing documents; new mappings start with none set.

Use 'schema-export <command> -h' for more information about a command.

`)
}
