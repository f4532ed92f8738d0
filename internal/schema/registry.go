package schema

import (
	"fmt"
	"sort"

	"airtable-gateway/pkg/schemadoc"
)

// Registry holds every table schema the gateway serves, keyed by logical
// table name. It is constructed once at startup and read-only afterwards;
// no package-level instance exists anywhere.
type Registry struct {
	tables map[string]*TableSchema
	names  []string
}

// NewRegistry builds a registry from already-constructed schemas. Duplicate
// logical names are an error.
func NewRegistry(schemas ...*TableSchema) (*Registry, error) {
	reg := &Registry{
		tables: make(map[string]*TableSchema, len(schemas)),
		names:  make([]string, 0, len(schemas)),
	}
	for _, ts := range schemas {
		if _, exists := reg.tables[ts.Name()]; exists {
			return nil, fmt.Errorf("duplicate table name %q", ts.Name())
		}
		reg.tables[ts.Name()] = ts
		reg.names = append(reg.names, ts.Name())
	}
	sort.Strings(reg.names)
	return reg, nil
}

// LoadRegistry reads every schema document under dir and builds the
// registry. A malformed document fails the whole load: a gateway running
// with a partial schema set would reject valid payloads as unknown fields.
func LoadRegistry(dir string) (*Registry, error) {
	docs, err := schemadoc.LoadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("load schema documents: %w", err)
	}

	schemas := make([]*TableSchema, 0, len(docs))
	for _, doc := range docs {
		ts, err := FromDocument(doc)
		if err != nil {
			return nil, err
		}
		schemas = append(schemas, ts)
	}
	return NewRegistry(schemas...)
}

// FromDocument converts one schema document into a TableSchema.
func FromDocument(doc *schemadoc.Document) (*TableSchema, error) {
	fields := make([]Field, 0, len(doc.Fields))
	for _, f := range doc.Fields {
		ft, ok := ParseFieldType(f.Type)
		if !ok {
			return nil, fmt.Errorf("table %q field %q: unsupported field type %q", doc.TableName, f.Name, f.Type)
		}
		spec := FieldSpec{
			ID:       f.ID,
			Type:     ft,
			Required: f.Required,
		}
		if f.Options != nil {
			spec.Precision = f.Options.Precision
			spec.Options = f.Options.ChoiceNames()
		}
		fields = append(fields, Field{Name: f.Name, Spec: spec})
	}
	return NewTableSchema(doc.TableName, doc.TableID, fields)
}

// Get returns the schema for a logical table name.
func (r *Registry) Get(table string) (*TableSchema, bool) {
	ts, ok := r.tables[table]
	return ts, ok
}

// TableID resolves a logical table name to its Airtable table ID.
func (r *Registry) TableID(table string) (string, bool) {
	ts, ok := r.tables[table]
	if !ok {
		return "", false
	}
	return ts.TableID(), true
}

// Tables returns the registered logical table names, sorted.
func (r *Registry) Tables() []string {
	names := make([]string, len(r.names))
	copy(names, r.names)
	return names
}

// Len returns the number of registered tables.
func (r *Registry) Len() int { return len(r.tables) }

// FieldInfo is the introspection shape served for one field.
type FieldInfo struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	ID       string `json:"id,omitempty"`
	Required bool   `json:"required"`
}

// TableInfo is the introspection shape served for one table.
type TableInfo struct {
	TableID     string      `json:"table_id"`
	TotalFields int         `json:"total_fields"`
	Fields      []FieldInfo `json:"fields"`
}

// Info returns the introspection view of every registered table.
func (r *Registry) Info() map[string]TableInfo {
	info := make(map[string]TableInfo, len(r.tables))
	for name, ts := range r.tables {
		fields := make([]FieldInfo, 0, ts.Len())
		for _, f := range ts.Fields() {
			fields = append(fields, FieldInfo{
				Name:     f.Name,
				Type:     f.Spec.Type.String(),
				ID:       f.Spec.ID,
				Required: f.Spec.Required,
			})
		}
		info[name] = TableInfo{
			TableID:     ts.TableID(),
			TotalFields: ts.Len(),
			Fields:      fields,
		}
	}
	return info
}
