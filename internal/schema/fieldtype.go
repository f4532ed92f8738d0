package schema

type FieldType int

const (
	_ FieldType = iota
	FieldTypeSingleLineText
	FieldTypeMultilineText
	FieldTypeNumber
	FieldTypeDateTime
	FieldTypeEmail
	FieldTypePhoneNumber
	FieldTypeSingleSelect
)

// Maps FieldTypes to Airtable's own type names, so documents exported from
// the metadata API parse without translation.
var fieldTypeNamesByFieldType = map[FieldType]string{
	FieldTypeSingleLineText: "singleLineText",
	FieldTypeMultilineText:  "multilineText",
	FieldTypeNumber:         "number",
	FieldTypeDateTime:       "dateTime",
	FieldTypeEmail:          "email",
	FieldTypePhoneNumber:    "phoneNumber",
	FieldTypeSingleSelect:   "singleSelect",
}

var fieldTypesByName = map[string]FieldType{
	"singleLineText": FieldTypeSingleLineText,
	"multilineText":  FieldTypeMultilineText,
	"number":         FieldTypeNumber,
	"dateTime":       FieldTypeDateTime,
	"email":          FieldTypeEmail,
	"phoneNumber":    FieldTypePhoneNumber,
	"singleSelect":   FieldTypeSingleSelect,
}

func (ft FieldType) String() string {
	if s, ok := fieldTypeNamesByFieldType[ft]; ok {
		return s
	}

	return "unknown"
}

// ParseFieldType converts an Airtable type name to a FieldType
func ParseFieldType(name string) (FieldType, bool) {
	ft, ok := fieldTypesByName[name]
	return ft, ok
}

// Returns the supported Airtable type names, for error messages and tooling
func FieldTypeNames() []string {
	names := make([]string, 0, len(fieldTypeNamesByFieldType))
	for _, name := range fieldTypeNamesByFieldType {
		names = append(names, name)
	}
	return names
}
