package shape

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"consolenav/internal/util/jsonutil"
)

func mustDecode(t *testing.T, raw string) any {
	t.Helper()
	v, err := jsonutil.Decode([]byte(raw))
	require.NoError(t, err)
	return v
}

func TestExtractArrayReturnsSequenceUnchanged(t *testing.T) {
	in := []any{json.Number("1"), "two"}
	out, err := ExtractArray(in)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Same(t, &in[0], &out[0])
}

func TestExtractArrayEnvelopes(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want int
	}{
		{"code zero", `{"code":0,"data":[1,2]}`, 2},
		{"code 200 string", `{"code":"200","data":[1]}`, 1},
		{"success", `{"success":true,"data":[1,2,3]}`, 3},
		{"nested menus", `{"code":0,"data":{"menus":[{"id":1},{"id":2},{"id":3}]}}`, 3},
		{"plain data", `{"data":[1,2,3,4]}`, 4},
		{"records", `{"records":[1],"total":1}`, 1},
		{"scan", `{"foo":"x","rows":[1,2]}`, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := ExtractArray(mustDecode(t, tc.raw), WithLogger(zap.NewNop()))
			require.NoError(t, err)
			assert.Len(t, out, tc.want)
		})
	}
}

func TestExtractArrayFieldPriority(t *testing.T) {
	v := mustDecode(t, `{"records":["r"],"list":["l"],"menu":["m"]}`)
	out, err := ExtractArray(v)
	require.NoError(t, err)
	assert.Equal(t, []any{"m"}, out)
}

func TestExtractArrayPreferredFieldsComeAfterBuiltins(t *testing.T) {
	v := mustDecode(t, `{"zzz":["first"],"params":["p"],"results":["r"]}`)
	out, err := ExtractArray(v, PreferredFields("params"))
	require.NoError(t, err)
	assert.Equal(t, []any{"r"}, out)

	v = mustDecode(t, `{"zzz":["first"],"params":["p"]}`)
	out, err = ExtractArray(v, PreferredFields("params"))
	require.NoError(t, err)
	assert.Equal(t, []any{"p"}, out)
}

func TestExtractArrayScanUsesKeyOrder(t *testing.T) {
	v := mustDecode(t, `{"zeta":["z"],"alpha":["a"]}`)
	out, err := ExtractArray(v)
	require.NoError(t, err)
	assert.Equal(t, []any{"z"}, out)
}

func TestExtractArraySynthesizesRecords(t *testing.T) {
	v := mustDecode(t, `{"dash":{"name":"Dashboard"},"count":3,"sys":{"id":"own","name":"System"}}`)
	out, err := ExtractArray(v)
	require.NoError(t, err)
	require.Len(t, out, 2)

	first := out[0].(*jsonutil.Object)
	id, _ := first.Get("id")
	assert.Equal(t, "dash", id)
	second := out[1].(*jsonutil.Object)
	id, _ = second.Get("id")
	assert.Equal(t, "own", id)
}

func TestExtractArrayEnvelopeObjectDoesNotShadowListField(t *testing.T) {
	v := mustDecode(t, `{"code":0,"data":{"page":{"n":1}},"list":["a","b"]}`)
	out, err := ExtractArray(v)
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b"}, out)
}

func TestExtractArraySynthesizesFromEnvelopeData(t *testing.T) {
	v := mustDecode(t, `{"code":0,"data":{"dash":{"name":"Dashboard"},"sys":{"name":"System"}}}`)
	out, err := ExtractArray(v)
	require.NoError(t, err)
	require.Len(t, out, 2)
	id, _ := out[0].(*jsonutil.Object).Get("id")
	assert.Equal(t, "dash", id)
}

func TestExtractArrayIndexKeysComeFirst(t *testing.T) {
	v := mustDecode(t, `{"b":{"n":"b"},"10":{"n":"ten"},"2":{"n":"two"},"a":{"n":"a"}}`)
	out, err := ExtractArray(v)
	require.NoError(t, err)
	ids := make([]any, 0, len(out))
	for _, item := range out {
		id, _ := item.(*jsonutil.Object).Get("id")
		ids = append(ids, id)
	}
	assert.Equal(t, []any{"2", "10", "b", "a"}, ids)

	v = mustDecode(t, `{"x":[1],"7":[2]}`)
	out, err = ExtractArray(v)
	require.NoError(t, err)
	assert.Equal(t, []any{json.Number("2")}, out)
}

func TestExtractArrayFailures(t *testing.T) {
	for _, raw := range []string{`"text"`, `12`, `null`, `{"a":1,"b":"x"}`, `{}`} {
		_, err := ExtractArray(mustDecode(t, raw))
		var shapeErr *DataShapeError
		require.True(t, errors.As(err, &shapeErr), raw)
		assert.Contains(t, shapeErr.Error(), "cannot extract array")
	}
}

func TestExtractArrayFailedEnvelopeFallsThrough(t *testing.T) {
	v := mustDecode(t, `{"code":500,"data":{"name":"x"},"message":"boom"}`)
	out, err := ExtractArray(v)
	require.NoError(t, err)
	require.Len(t, out, 1)
	id, _ := out[0].(*jsonutil.Object).Get("id")
	assert.Equal(t, "data", id)
}

func TestExtractObject(t *testing.T) {
	res, err := ExtractObject(mustDecode(t, `{"code":0,"data":{"id":1}}`))
	require.NoError(t, err)
	assert.Equal(t, Matched, res.Kind)
	id, _ := jsonutil.Lookup(res.Value, "id")
	assert.Equal(t, json.Number("1"), id)

	in := mustDecode(t, `{"success":true,"data":null}`)
	res, err = ExtractObject(in)
	require.NoError(t, err)
	assert.Equal(t, Matched, res.Kind)
	assert.Same(t, in, res.Value)

	res, err = ExtractObject(mustDecode(t, `{"result":{"ok":true},"note":"x"}`))
	require.NoError(t, err)
	ok, _ := jsonutil.Lookup(res.Value, "ok")
	assert.Equal(t, true, ok)

	in = mustDecode(t, `{"id":5,"name":"plain"}`)
	res, err = ExtractObject(in)
	require.NoError(t, err)
	assert.Equal(t, Passthrough, res.Kind)
	assert.Same(t, in, res.Value)
}

func TestExtractObjectRejectsNonObjects(t *testing.T) {
	for _, raw := range []string{`[1]`, `"x"`, `null`, `true`} {
		_, err := ExtractObject(mustDecode(t, raw))
		var shapeErr *DataShapeError
		assert.True(t, errors.As(err, &shapeErr), raw)
	}
}

func TestExtractPagination(t *testing.T) {
	page, err := ExtractPagination(mustDecode(t, `{"total":42,"list":["a","b"]}`))
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b"}, page.Items)
	assert.Equal(t, 42, page.Total)

	page, err = ExtractPagination(mustDecode(t, `{"items":[1,2,3],"total":"99"}`))
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)

	page, err = ExtractPagination(mustDecode(t, `{"data":[1,2],"total":10}`))
	require.NoError(t, err)
	assert.Equal(t, 10, page.Total)

	page, err = ExtractPagination(mustDecode(t, `{"data":{"dictTypes":[1],"total":7}}`), PreferredFields("dictTypes"))
	require.NoError(t, err)
	assert.Equal(t, []any{json.Number("1")}, page.Items)
	assert.Equal(t, 7, page.Total)

	page, err = ExtractPagination(mustDecode(t, `{"meta":{},"rows":[1]}`))
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)

	_, err = ExtractPagination(mustDecode(t, `{"a":1}`))
	assert.Error(t, err)
}

func TestExtractPaginationPrefersDataItems(t *testing.T) {
	v := mustDecode(t, `{"data":{"list":["l1","l2"],"items":["i1"],"total":5}}`)
	for i := 0; i < 10; i++ {
		page, err := ExtractPagination(v)
		require.NoError(t, err)
		assert.Equal(t, []any{"i1"}, page.Items)
		assert.Equal(t, 5, page.Total)
	}
}

func TestUnwrapDescendsRepeatedKeys(t *testing.T) {
	v := mustDecode(t, `{"user":{"user":{"username":"deep"}}}`)
	inner := Unwrap(v, "user")
	name, _ := jsonutil.Lookup(inner, "username")
	assert.Equal(t, "deep", name)

	flat := mustDecode(t, `{"user":"scalar"}`)
	assert.Same(t, flat, Unwrap(flat, "user"))
}

func TestSelect(t *testing.T) {
	v := mustDecode(t, `{"payload":{"menus":[{"id":1}]}}`)
	got, err := Select(v, "$.payload.menus")
	require.NoError(t, err)
	arr, ok := got.([]any)
	require.True(t, ok)
	assert.Len(t, arr, 1)

	same, err := Select(v, "")
	require.NoError(t, err)
	assert.Same(t, v, same)

	_, err = Select(v, "$.missing")
	assert.Error(t, err)

	_, err = Select(v, "$[")
	assert.Error(t, err)
}
