package schema

import (
	"fmt"
)

// FieldSpec describes one field of a table schema.
type FieldSpec struct {
	ID        string    // Airtable field ID, informational
	Type      FieldType
	Required  bool
	Precision *int     // number fields only; decimal places the store keeps
	Options   []string // singleSelect fields only; the allowed values
}

// Field pairs a name with its spec, preserving document order.
type Field struct {
	Name string
	Spec FieldSpec
}

// TableSchema is the field map governing one table. Instances are built once
// at startup and never mutated afterwards, so they are safe to share across
// any number of concurrent callers.
type TableSchema struct {
	name    string
	tableID string
	fields  map[string]FieldSpec
	order   []string
}

// NewTableSchema builds a schema from an ordered field list. Duplicate field
// names are an error.
func NewTableSchema(name, tableID string, fields []Field) (*TableSchema, error) {
	ts := &TableSchema{
		name:    name,
		tableID: tableID,
		fields:  make(map[string]FieldSpec, len(fields)),
		order:   make([]string, 0, len(fields)),
	}
	for _, f := range fields {
		if _, exists := ts.fields[f.Name]; exists {
			return nil, fmt.Errorf("duplicate field %q in table %q", f.Name, name)
		}
		ts.fields[f.Name] = f.Spec
		ts.order = append(ts.order, f.Name)
	}
	return ts, nil
}

// Name returns the logical table name callers use.
func (ts *TableSchema) Name() string { return ts.name }

// TableID returns the Airtable table ID the logical name maps to.
func (ts *TableSchema) TableID() string { return ts.tableID }

// Field looks up the FieldSpec for a field name.
func (ts *TableSchema) Field(name string) (FieldSpec, bool) {
	spec, ok := ts.fields[name]
	return spec, ok
}

// Fields returns every field in document order.
func (ts *TableSchema) Fields() []Field {
	fields := make([]Field, 0, len(ts.order))
	for _, name := range ts.order {
		fields = append(fields, Field{Name: name, Spec: ts.fields[name]})
	}
	return fields
}

// FieldNames returns the field names in document order.
func (ts *TableSchema) FieldNames() []string {
	names := make([]string, len(ts.order))
	copy(names, ts.order)
	return names
}

// RequiredFields returns the names of required fields in document order.
func (ts *TableSchema) RequiredFields() []string {
	var required []string
	for _, name := range ts.order {
		if ts.fields[name].Required {
			required = append(required, name)
		}
	}
	return required
}

// Len returns the number of declared fields.
func (ts *TableSchema) Len() int { return len(ts.fields) }
