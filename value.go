package guardar

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

// Kind is the JSON type of a Value.
type Kind int

const (
	KindAbsent Kind = iota
	KindNull
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindAbsent:
		return "absent"
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

var errAbsentValue = errors.New("guardar: value is absent")

// Value is a single JSON value held as its encoded text. The zero Value is
// absent, which is what GetField returns for a missing key.
type Value struct {
	raw []byte
}

// ValueOf encodes v as a Value. Values that are already a Value or a
// json.RawMessage are taken as is after validation.
func ValueOf(v any) (Value, error) {
	switch t := v.(type) {
	case Value:
		return t, nil
	case json.RawMessage:
		return RawValue(t)
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return Value{}, err
	}
	return Value{raw: raw}, nil
}

// RawValue validates raw as a single JSON value and copies it.
func RawValue(raw []byte) (Value, error) {
	raw = bytes.TrimSpace(raw)
	if !gjson.ValidBytes(raw) {
		return Value{}, syntaxError(raw)
	}
	return Value{raw: append([]byte(nil), raw...)}, nil
}

// syntaxError recovers a descriptive error for text gjson rejected.
func syntaxError(raw []byte) error {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	return errors.New("guardar: invalid JSON")
}

func (v Value) result() gjson.Result {
	return gjson.ParseBytes(v.raw)
}

// Exists reports whether the value is present.
func (v Value) Exists() bool { return v.raw != nil }

// Kind returns the JSON type, KindAbsent for the zero Value.
func (v Value) Kind() Kind {
	if v.raw == nil {
		return KindAbsent
	}
	r := v.result()
	switch r.Type {
	case gjson.Null:
		return KindNull
	case gjson.False, gjson.True:
		return KindBool
	case gjson.Number:
		return KindNumber
	case gjson.String:
		return KindString
	}
	if r.IsArray() {
		return KindArray
	}
	return KindObject
}

// Raw returns a copy of the encoded value, nil when absent.
func (v Value) Raw() json.RawMessage {
	if v.raw == nil {
		return nil
	}
	return append(json.RawMessage(nil), v.raw...)
}

// String returns the contents of a JSON string, or the encoded text for any
// other kind. Absent and null values yield "".
func (v Value) String() string { return v.result().String() }

// Int, Float and Bool convert the value the way gjson does; absent values
// yield zero.
func (v Value) Int() int64 { return v.result().Int() }

func (v Value) Float() float64 { return v.result().Float() }

func (v Value) Bool() bool { return v.result().Bool() }

// Array returns the elements of an array value, nil for other kinds.
func (v Value) Array() []Value {
	if v.Kind() != KindArray {
		return nil
	}
	elems := v.result().Array()
	out := make([]Value, len(elems))
	for i, e := range elems {
		out[i] = Value{raw: []byte(e.Raw)}
	}
	return out
}

// Object parses an object value. Other kinds fail with ErrNotObject.
func (v Value) Object() (*Object, error) {
	if v.Kind() != KindObject {
		return nil, ErrNotObject
	}
	return ParseObject(v.raw)
}

// Decode unmarshals the value into dst.
func (v Value) Decode(dst any) error {
	if v.raw == nil {
		return errAbsentValue
	}
	return json.Unmarshal(v.raw, dst)
}

// Interface decodes the value into the generic encoding/json representation.
// Absent values yield nil.
func (v Value) Interface() any {
	if v.raw == nil {
		return nil
	}
	var out any
	if err := json.Unmarshal(v.raw, &out); err != nil {
		return nil
	}
	return out
}

// Equal reports whether both values hold the same JSON data, ignoring
// member order and formatting.
func (v Value) Equal(o Value) bool {
	if v.Exists() != o.Exists() {
		return false
	}
	return reflect.DeepEqual(v.Interface(), o.Interface())
}

func (v Value) MarshalJSON() ([]byte, error) {
	if v.raw == nil {
		return []byte("null"), nil
	}
	return v.Raw(), nil
}

func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := RawValue(data)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
