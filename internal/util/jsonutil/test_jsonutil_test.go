package jsonutil

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeKeepsKeyOrder(t *testing.T) {
	v, err := Decode([]byte(`{"zeta":1,"alpha":[true,null,"x"],"mid":{"b":2,"a":1}}`))
	require.NoError(t, err)
	obj, ok := v.(*Object)
	require.True(t, ok)
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, obj.Keys())

	alpha, _ := obj.Get("alpha")
	assert.Equal(t, []any{true, nil, "x"}, alpha)

	zeta, _ := obj.Get("zeta")
	assert.Equal(t, json.Number("1"), zeta)

	mid, _ := obj.Get("mid")
	assert.Equal(t, []string{"b", "a"}, mid.(*Object).Keys())
}

func TestDecodeScalarsAndEscapes(t *testing.T) {
	v, err := Decode([]byte(`"a\"bé"`))
	require.NoError(t, err)
	assert.Equal(t, "a\"bé", v)

	v, err = Decode([]byte(`{"key":"v"}`))
	require.NoError(t, err)
	assert.True(t, v.(*Object).Has("key"))

	v, err = Decode([]byte(`[]`))
	require.NoError(t, err)
	assert.Equal(t, []any{}, v)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode([]byte("   "))
	assert.Error(t, err)
}

func TestObjectMarshalRoundTripsOrder(t *testing.T) {
	v, err := Decode([]byte(`{"b":"<x>","a":[1,2]}`))
	require.NoError(t, err)
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	assert.JSONEq(t, `{"b":"<x>","a":[1,2]}`, string(raw))

	out, err := MarshalNoEscape(v)
	require.NoError(t, err)
	assert.Equal(t, `{"b":"<x>","a":[1,2]}`, string(out))
}

func TestAsRecordSortsPlainMapKeys(t *testing.T) {
	rec, ok := AsRecord(map[string]any{"b": 1, "a": 2})
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, rec.Keys())

	_, ok = AsRecord([]any{})
	assert.False(t, ok)
}
