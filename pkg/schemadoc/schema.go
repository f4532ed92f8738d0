// pkg/schemadoc/schema.go
package schemadoc

// Document is the on-disk description of one Airtable table, as written by
// the schema-export tool and read by the gateway's schema registry.
type Document struct {
	TableName   string  `json:"table_name"`
	TableID     string  `json:"table_id"`
	TotalFields int     `json:"total_fields"`
	ExtractedAt string  `json:"extracted_at,omitempty"`
	Fields      []Field `json:"fields"`
}

type Field struct {
	ID          string   `json:"id,omitempty"`
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Description string   `json:"description,omitempty"`
	Required    bool     `json:"required,omitempty"`
	Options     *Options `json:"options,omitempty"`
}

// Options carries the type-specific extras the metadata API exposes: decimal
// precision for number fields, choices for single selects.
type Options struct {
	Precision *int     `json:"precision,omitempty"`
	Choices   []Choice `json:"choices,omitempty"`
}

type Choice struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// ChoiceNames returns the choice names in document order.
func (o *Options) ChoiceNames() []string {
	if o == nil || len(o.Choices) == 0 {
		return nil
	}
	names := make([]string, len(o.Choices))
	for i, c := range o.Choices {
		names[i] = c.Name
	}
	return names
}
