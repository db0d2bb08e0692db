package guardar

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"

	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v2"
)

const emptyDocument = "{}"

// Object is the namespace document: string keys mapped to JSON values in
// insertion order. Replacing a key keeps its position.
type Object struct {
	keys   []string
	values map[string]Value
}

// NewObject returns an empty document.
func NewObject() *Object {
	return &Object{values: make(map[string]Value)}
}

// ParseObject parses a JSON object, keeping member order. A repeated member
// keeps its first position and its last value.
func ParseObject(data []byte) (*Object, error) {
	if !gjson.ValidBytes(data) {
		return nil, syntaxError(data)
	}
	res := gjson.ParseBytes(data)
	if !res.IsObject() {
		return nil, ErrNotObject
	}
	o := NewObject()
	res.ForEach(func(k, v gjson.Result) bool {
		o.Set(k.String(), Value{raw: []byte(v.Raw)})
		return true
	})
	return o, nil
}

// Keys returns the member names in document order.
func (o *Object) Keys() []string {
	return append([]string(nil), o.keys...)
}

// Len returns the number of members.
func (o *Object) Len() int { return len(o.keys) }

// Has reports whether key is a member.
func (o *Object) Has(key string) bool {
	_, ok := o.values[key]
	return ok
}

// Get returns the value under key; the result is absent when key is missing.
func (o *Object) Get(key string) Value {
	return o.values[key]
}

// Set stores v under key. Setting an absent Value removes the key, the same
// way an undefined member disappears from encoded JSON.
func (o *Object) Set(key string, v Value) {
	if !v.Exists() {
		o.Delete(key)
		return
	}
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = v
}

// Delete removes key and reports whether it was present.
func (o *Object) Delete(key string) bool {
	if _, ok := o.values[key]; !ok {
		return false
	}
	delete(o.values, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
	return true
}

// Clone returns a copy that can be changed independently.
func (o *Object) Clone() *Object {
	c := &Object{
		keys:   o.Keys(),
		values: make(map[string]Value, len(o.values)),
	}
	for k, v := range o.values {
		c.values[k] = v
	}
	return c
}

// Map decodes every member into the generic encoding/json representation.
func (o *Object) Map() map[string]any {
	out := make(map[string]any, len(o.keys))
	for _, k := range o.keys {
		out[k] = o.values[k].Interface()
	}
	return out
}

// MarshalJSON writes the members in document order. A key that is not valid
// UTF-8 fails with ErrInvalidKey instead of being rewritten to U+FFFD.
func (o Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range o.keys {
		if !utf8.ValidString(k) {
			return nil, errors.Wrapf(ErrInvalidKey, "%q", k)
		}
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(o.values[k].raw)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON replaces o with the parsed object, keeping member order.
func (o *Object) UnmarshalJSON(data []byte) error {
	parsed, err := ParseObject(data)
	if err != nil {
		return err
	}
	*o = *parsed
	return nil
}

// MarshalYAML renders the document as an ordered YAML mapping.
func (o Object) MarshalYAML() (interface{}, error) {
	out := make(yaml.MapSlice, 0, len(o.keys))
	for _, k := range o.keys {
		out = append(out, yaml.MapItem{Key: k, Value: yamlValue(o.values[k].result())})
	}
	return out, nil
}

func yamlValue(r gjson.Result) interface{} {
	switch r.Type {
	case gjson.Null:
		return nil
	case gjson.False:
		return false
	case gjson.True:
		return true
	case gjson.String:
		return r.Str
	case gjson.Number:
		if !strings.ContainsAny(r.Raw, ".eE") {
			if n, err := strconv.ParseInt(r.Raw, 10, 64); err == nil {
				return n
			}
		}
		return r.Num
	}
	if r.IsArray() {
		elems := r.Array()
		out := make([]interface{}, len(elems))
		for i, e := range elems {
			out[i] = yamlValue(e)
		}
		return out
	}
	out := yaml.MapSlice{}
	r.ForEach(func(k, v gjson.Result) bool {
		out = append(out, yaml.MapItem{Key: k.String(), Value: yamlValue(v)})
		return true
	})
	return out
}
