// Package fields resolves attributes of loosely-typed JSON records through
// ordered candidate key lists.
//
// Backends disagree on naming (camelCase, snake_case, semantic aliases), so
// every lookup names the keys it accepts in priority order and takes the first
// one that is present. A value is present when the key exists and holds
// something other than null or an empty string.
package fields

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cast"

	"consolenav/internal/util/jsonutil"
)

// Chain is an ordered list of candidate keys.
type Chain []string

// With returns a copy of c with more keys appended.
func (c Chain) With(keys ...string) Chain {
	out := make(Chain, 0, len(c)+len(keys))
	out = append(out, c...)
	return append(out, keys...)
}

// Present reports whether v counts as a resolved value.
func Present(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(x) != ""
	default:
		return true
	}
}

// First returns the first present value for keys in record.
func First(record any, keys ...string) (any, bool) {
	rec, ok := jsonutil.AsRecord(record)
	if !ok {
		return nil, false
	}
	for _, k := range keys {
		if v, ok := rec.Get(k); ok && Present(v) {
			return v, true
		}
	}
	return nil, false
}

// String resolves a textual attribute. Numbers and booleans are rendered as
// text; objects and arrays are skipped.
func String(record any, fallback string, keys ...string) string {
	rec, ok := jsonutil.AsRecord(record)
	if !ok {
		return fallback
	}
	for _, k := range keys {
		v, ok := rec.Get(k)
		if !ok || !Present(v) {
			continue
		}
		if s, ok := Scalar(v); ok && s != "" {
			return s
		}
	}
	return fallback
}

// Int resolves an integer attribute, skipping values that do not parse.
func Int(record any, fallback int, keys ...string) int {
	rec, ok := jsonutil.AsRecord(record)
	if !ok {
		return fallback
	}
	for _, k := range keys {
		v, ok := rec.Get(k)
		if !ok || !Present(v) {
			continue
		}
		if n, ok := Number(v); ok {
			return int(n)
		}
	}
	return fallback
}

// Bool resolves a boolean attribute. Strings such as "true" and "0" are
// accepted.
func Bool(record any, fallback bool, keys ...string) bool {
	rec, ok := jsonutil.AsRecord(record)
	if !ok {
		return fallback
	}
	for _, k := range keys {
		v, ok := rec.Get(k)
		if !ok || !Present(v) {
			continue
		}
		if b, err := cast.ToBoolE(unwrapNumber(v)); err == nil {
			return b
		}
	}
	return fallback
}

// Strings resolves a list of strings. A single string is promoted to a
// one-element list.
func Strings(record any, keys ...string) []string {
	v, ok := First(record, keys...)
	if !ok {
		return []string{}
	}
	if s, ok := v.(string); ok {
		return []string{s}
	}
	arr, ok := jsonutil.AsArray(v)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(arr))
	for _, item := range arr {
		if s, ok := Scalar(item); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Scalar renders a scalar JSON value as text.
func Scalar(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		return x, true
	case json.Number:
		return x.String(), true
	case bool, float64, float32, int, int64, int32, int16, int8, uint, uint64, uint32, uint16, uint8:
		s, err := cast.ToStringE(x)
		return s, err == nil
	default:
		return "", false
	}
}

// Number converts a scalar JSON value to a float.
func Number(v any) (float64, bool) {
	switch v.(type) {
	case nil, bool:
		return 0, false
	}
	if _, ok := jsonutil.AsRecord(v); ok {
		return 0, false
	}
	if _, ok := v.([]any); ok {
		return 0, false
	}
	f, err := cast.ToFloat64E(unwrapNumber(v))
	if err != nil {
		return 0, false
	}
	return f, true
}

// IsNumber reports whether v is a JSON number (not a numeric string).
func IsNumber(v any) bool {
	switch v.(type) {
	case json.Number, float64, float32, int, int64, int32, int16, int8, uint, uint64, uint32, uint16, uint8:
		return true
	default:
		return false
	}
}

// Key stringifies an identifier so that 7, 7.0 and "7" index identically.
func Key(v any) string {
	if n, ok := v.(json.Number); ok {
		if i, err := n.Int64(); err == nil {
			return cast.ToString(i)
		}
		if f, err := n.Float64(); err == nil {
			return cast.ToString(f)
		}
		return n.String()
	}
	s, _ := Scalar(v)
	return s
}

func unwrapNumber(v any) any {
	if n, ok := v.(json.Number); ok {
		return n.String()
	}
	return v
}
