package guardar

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"
)

func TestParseObject_KeepsOrder(t *testing.T) {
	o, err := ParseObject([]byte(`{"z":1, "a":{"x":[1,2]}, "m":null}`))
	require.NoError(t, err)

	assert.Equal(t, []string{"z", "a", "m"}, o.Keys())
	assert.Equal(t, 3, o.Len())
	assert.Equal(t, `{"x":[1,2]}`, string(o.Get("a").Raw()))
	assert.Equal(t, KindNull, o.Get("m").Kind())
}

func TestParseObject_DuplicateKeys(t *testing.T) {
	o, err := ParseObject([]byte(`{"a":1,"b":2,"a":3}`))
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, o.Keys())
	assert.Equal(t, int64(3), o.Get("a").Int())
}

func TestParseObject_EscapedKeys(t *testing.T) {
	o, err := ParseObject([]byte(`{"a\"b":1,"dot.key":2,"unié":3}`))
	require.NoError(t, err)
	assert.Equal(t, []string{`a"b`, "dot.key", "unié"}, o.Keys())

	raw, err := o.MarshalJSON()
	require.NoError(t, err)
	again, err := ParseObject(raw)
	require.NoError(t, err)
	assert.Equal(t, o.Keys(), again.Keys())
}

func TestParseObject_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{name: "truncated", input: `{"a":`},
		{name: "empty", input: ``},
		{name: "garbage", input: `not json`},
		{name: "null", input: `null`, wantErr: ErrNotObject},
		{name: "array", input: `[1,2]`, wantErr: ErrNotObject},
		{name: "string", input: `"x"`, wantErr: ErrNotObject},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseObject([]byte(tt.input))
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			var syntaxErr *json.SyntaxError
			assert.ErrorAs(t, err, &syntaxErr)
		})
	}
}

func TestObject_SetDelete(t *testing.T) {
	o := NewObject()
	o.Set("a", mustValue(t, 1))
	o.Set("b", mustValue(t, 2))
	o.Set("c", mustValue(t, 3))
	o.Set("a", mustValue(t, 10))

	assert.Equal(t, []string{"a", "b", "c"}, o.Keys())
	assert.True(t, o.Delete("b"))
	assert.False(t, o.Delete("b"))
	assert.False(t, o.Has("b"))
	assert.Equal(t, []string{"a", "c"}, o.Keys())

	raw, err := json.Marshal(o)
	require.NoError(t, err)
	assert.Equal(t, `{"a":10,"c":3}`, string(raw))
}

func TestObject_KeysIsACopy(t *testing.T) {
	o := NewObject()
	o.Set("a", mustValue(t, 1))

	keys := o.Keys()
	keys[0] = "mutated"
	assert.Equal(t, []string{"a"}, o.Keys())
}

func TestObject_Clone(t *testing.T) {
	o := NewObject()
	o.Set("a", mustValue(t, 1))

	c := o.Clone()
	c.Set("b", mustValue(t, 2))
	c.Delete("a")

	assert.Equal(t, []string{"a"}, o.Keys())
	assert.Equal(t, []string{"b"}, c.Keys())
}

func TestObject_UnmarshalJSON(t *testing.T) {
	var doc struct {
		Data *Object `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"data":{"y":1,"x":2}}`), &doc))
	assert.Equal(t, []string{"y", "x"}, doc.Data.Keys())

	var bad Object
	assert.ErrorIs(t, json.Unmarshal([]byte(`[1]`), &bad), ErrNotObject)
}

func TestObject_EmptyMarshal(t *testing.T) {
	raw, err := NewObject().MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, "{}", string(raw))
}

func TestObject_MarshalYAML(t *testing.T) {
	o, err := ParseObject([]byte(`{"name":"guardar","count":42,"ratio":0.5,"enabled":true,"none":null,"list":[1,"a"],"nested":{"z":1,"a":{}}}`))
	require.NoError(t, err)

	out, err := yaml.Marshal(o)
	require.NoError(t, err)
	assert.Equal(t, `name: guardar
count: 42
ratio: 0.5
enabled: true
none: null
list:
- 1
- a
nested:
  z: 1
  a: {}
`, string(out))
}

func TestObject_MarshalByValue(t *testing.T) {
	o, err := ParseObject([]byte(`{"b":1,"a":[true]}`))
	require.NoError(t, err)

	raw, err := json.Marshal(*o)
	require.NoError(t, err)
	assert.Equal(t, `{"b":1,"a":[true]}`, string(raw))

	out, err := yaml.Marshal(*o)
	require.NoError(t, err)
	assert.Equal(t, "b: 1\na:\n- true\n", string(out))
}

func TestObject_MarshalRejectsInvalidUTF8Key(t *testing.T) {
	o := NewObject()
	o.Set("ok", mustValue(t, 1))
	o.Set("\xff", mustValue(t, 2))

	_, err := o.MarshalJSON()
	assert.ErrorIs(t, err, ErrInvalidKey)

	_, err = json.Marshal(o)
	assert.ErrorIs(t, err, ErrInvalidKey)
}
