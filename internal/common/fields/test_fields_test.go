package fields

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"consolenav/internal/util/jsonutil"
)

func decode(t *testing.T, raw string) any {
	t.Helper()
	v, err := jsonutil.Decode([]byte(raw))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return v
}

func TestStringWalksChainInOrder(t *testing.T) {
	rec := decode(t, `{"real_name":"","name":"alice","nickname":"al"}`)
	assert.Equal(t, "alice", String(rec, "", "realName", "real_name", "name", "nickname"))
	assert.Equal(t, "fallback", String(rec, "fallback", "displayName"))
	assert.Equal(t, "fallback", String("not an object", "fallback", "name"))
}

func TestStringRendersNumbers(t *testing.T) {
	rec := decode(t, `{"id":12,"flag":true,"obj":{"a":1}}`)
	assert.Equal(t, "12", String(rec, "", "id"))
	assert.Equal(t, "true", String(rec, "", "flag"))
	assert.Equal(t, "x", String(rec, "x", "obj"))
}

func TestIntSkipsUnparseable(t *testing.T) {
	rec := decode(t, `{"sort":"abc","order_num":"4","status":0}`)
	assert.Equal(t, 4, Int(rec, 0, "sort", "order_num"))
	assert.Equal(t, 0, Int(rec, 1, "status"))
	assert.Equal(t, 9, Int(rec, 9, "missing"))
}

func TestBoolAcceptsStrings(t *testing.T) {
	rec := decode(t, `{"a":"false","b":1,"c":null}`)
	assert.False(t, Bool(rec, true, "a"))
	assert.True(t, Bool(rec, false, "b"))
	assert.True(t, Bool(rec, true, "c"))
}

func TestStringsPromotesSingleValue(t *testing.T) {
	rec := decode(t, `{"roles":"admin","perms":["a",2,null,""]}`)
	assert.Equal(t, []string{"admin"}, Strings(rec, "roles"))
	assert.Equal(t, []string{"a", "2"}, Strings(rec, "perms"))
	assert.Equal(t, []string{}, Strings(rec, "missing"))
}

func TestKeyNormalizesNumbers(t *testing.T) {
	assert.Equal(t, "7", Key(json.Number("7")))
	assert.Equal(t, "7", Key(float64(7)))
	assert.Equal(t, "7", Key("7"))
	assert.Equal(t, "", Key(nil))
}

func TestKeyAcceptsNarrowIntegers(t *testing.T) {
	assert.Equal(t, "7", Key(int16(7)))
	assert.Equal(t, "7", Key(int8(7)))
	assert.Equal(t, "7", Key(uint16(7)))
	assert.True(t, IsNumber(int16(3)))
	rec := map[string]any{"parent_id": int16(2)}
	assert.Equal(t, 2, Int(rec, 0, "parentId", "parent_id"))
}

func TestPlainMapsAreAccepted(t *testing.T) {
	rec := map[string]any{"name": "x"}
	assert.Equal(t, "x", String(rec, "", "title", "name"))
}
