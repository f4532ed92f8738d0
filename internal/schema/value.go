package schema

import (
	"encoding/json"
	"fmt"
	"time"
)

// Kind discriminates the closed set of runtime shapes a field value may
// carry: text, number, or date-time. KindNull stands for an explicit JSON
// null (Airtable clears the field), not for an absent key.
type Kind int

const (
	KindNull Kind = iota
	KindText
	KindNumber
	KindDateTime
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	case KindDateTime:
		return "date-time"
	default:
		return "null"
	}
}

// Value is one record field value. Generic parsed-JSON values are converted
// into this variant at the API boundary, so shape surprises become typed
// validation errors instead of runtime panics deeper in the stack.
type Value struct {
	kind Kind
	str  string
	num  float64
	ts   time.Time
}

func Text(s string) Value {
	return Value{kind: KindText, str: s}
}

func Number(f float64) Value {
	return Value{kind: KindNumber, num: f}
}

func DateTime(t time.Time) Value {
	return Value{kind: KindDateTime, ts: t}
}

func Null() Value {
	return Value{}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool { return v.kind == KindNull }

// Text returns the string content. Meaningful only when Kind is KindText.
func (v Value) Text() string { return v.str }

// Number returns the numeric content. Meaningful only when Kind is KindNumber.
func (v Value) Number() float64 { return v.num }

// Time returns the timestamp content. Meaningful only when Kind is KindDateTime.
func (v Value) Time() time.Time { return v.ts }

// Interface returns the JSON-ready form of the value. Date-times constructed
// natively marshal as RFC 3339; text values keep their original form.
func (v Value) Interface() interface{} {
	switch v.kind {
	case KindText:
		return v.str
	case KindNumber:
		return v.num
	case KindDateTime:
		return v.ts.Format(time.RFC3339)
	default:
		return nil
	}
}

// ValueFromJSON converts one decoded JSON value into a Value. Strings and
// numbers are the only shapes record fields accept on the wire; booleans,
// arrays and objects are rejected. JSON strings always convert to KindText;
// whether the text is an acceptable date-time is decided against the owning
// field's declared type during validation.
func ValueFromJSON(raw interface{}) (Value, error) {
	switch v := raw.(type) {
	case nil:
		return Null(), nil
	case string:
		return Text(v), nil
	case float64:
		return Number(v), nil
	case int:
		return Number(float64(v)), nil
	case int32:
		return Number(float64(v)), nil
	case int64:
		return Number(float64(v)), nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("unparsable number %q", v.String())
		}
		return Number(f), nil
	default:
		return Value{}, fmt.Errorf("unsupported value type %T", raw)
	}
}

// Payload is a candidate record body keyed by field name. Payloads are built
// per request and discarded after validation.
type Payload map[string]Value

// Fields returns the payload in the generic map form the Airtable API takes.
func (p Payload) Fields() map[string]interface{} {
	fields := make(map[string]interface{}, len(p))
	for name, val := range p {
		fields[name] = val.Interface()
	}
	return fields
}
