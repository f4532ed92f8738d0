package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFieldType(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  FieldType
		ok    bool
	}{
		{name: "single line text", input: "singleLineText", want: FieldTypeSingleLineText, ok: true},
		{name: "multiline text", input: "multilineText", want: FieldTypeMultilineText, ok: true},
		{name: "number", input: "number", want: FieldTypeNumber, ok: true},
		{name: "date time", input: "dateTime", want: FieldTypeDateTime, ok: true},
		{name: "email", input: "email", want: FieldTypeEmail, ok: true},
		{name: "phone number", input: "phoneNumber", want: FieldTypePhoneNumber, ok: true},
		{name: "single select", input: "singleSelect", want: FieldTypeSingleSelect, ok: true},
		{name: "unsupported airtable type", input: "multipleAttachments", ok: false},
		{name: "empty", input: "", ok: false},
		{name: "wrong case", input: "SingleLineText", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseFieldType(tt.input)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestFieldType_String_RoundTrips(t *testing.T) {
	for name := range fieldTypesByName {
		ft, ok := ParseFieldType(name)
		require.True(t, ok)
		assert.Equal(t, name, ft.String())
	}
}

func TestFieldType_String_Unknown(t *testing.T) {
	assert.Equal(t, "unknown", FieldType(0).String())
	assert.Equal(t, "unknown", FieldType(99).String())
}

func TestFieldTypeNames(t *testing.T) {
	names := FieldTypeNames()
	assert.Len(t, names, len(fieldTypeNamesByFieldType))
	assert.Contains(t, names, "number")
	assert.Contains(t, names, "dateTime")
}
