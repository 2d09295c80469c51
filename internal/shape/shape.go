// Package shape locates canonical data (an array, a single object, or a page
// of items) inside arbitrarily wrapped backend response envelopes.
//
// All extractors are pure: they never copy or mutate their input. The array and
// pagination extractors fail with *DataShapeError when nothing matches, while
// ExtractObject falls back to returning its input tagged Passthrough.
package shape

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"

	"go.uber.org/zap"

	"consolenav/internal/common/fields"
	"consolenav/internal/util/jsonutil"
)

// DataShapeError reports that no recognized envelope pattern matched.
type DataShapeError struct {
	Op     string
	Reason string
}

func (e *DataShapeError) Error() string {
	return fmt.Sprintf("shape: %s: %s", e.Op, e.Reason)
}

// arrayFields is searched in this exact order; it decides which data set wins
// when several candidate fields are populated.
var arrayFields = []string{"menus", "menu", "items", "list", "data", "results", "records"}

var objectFields = []string{"user", "data", "result", "item"}

type options struct {
	preferred []string
	logger    *zap.Logger
}

type Option func(*options)

// PreferredFields adds caller-specific array field names. They are tried after
// the built-in names.
func PreferredFields(names ...string) Option {
	return func(o *options) { o.preferred = append(o.preferred, names...) }
}

// WithLogger enables debug traces of the matching rule.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

func buildOptions(opts []Option) options {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	return o
}

// isSuccessCode matches 0, 200, "0" and "200". Other spellings such as "00"
// are not success codes.
func isSuccessCode(v any) bool {
	switch x := v.(type) {
	case string:
		return x == "0" || x == "200"
	case json.Number, float64, float32, int, int64, int32:
		n, ok := fields.Number(x)
		return ok && (n == 0 || n == 200)
	default:
		return false
	}
}

// ExtractArray returns the record sequence carried by value.
func ExtractArray(value any, opts ...Option) ([]any, error) {
	o := buildOptions(opts)
	arr, rule, ok := extractArray(value, o, true)
	if !ok {
		o.logger.Debug("shape: no array found", zap.String("type", fmt.Sprintf("%T", value)))
		return nil, &DataShapeError{Op: "extract array", Reason: "cannot extract array"}
	}
	o.logger.Debug("shape: array extracted", zap.String("rule", rule), zap.Int("len", len(arr)))
	return arr, nil
}

// extractArray applies the array rules in order. Synthesizing a list from
// object entries is the last resort of the outermost call only, so a wrapped
// data object never beats a sibling list field.
func extractArray(value any, o options, synthesize bool) ([]any, string, bool) {
	if arr, ok := jsonutil.AsArray(value); ok {
		return arr, "sequence", true
	}
	rec, ok := jsonutil.AsRecord(value)
	if !ok {
		return nil, "", false
	}
	data, hasData := rec.Get("data")
	// keyed records of a recognized envelope are synthesized from its data
	entries := rec

	if code, ok := rec.Get("code"); ok && hasData && isSuccessCode(code) {
		if arr, ok := jsonutil.AsArray(data); ok {
			return arr, "code/data", true
		}
		if arr, rule, ok := extractNested(data, o); ok {
			return arr, "code/data." + rule, true
		}
		if inner, ok := jsonutil.AsRecord(data); ok {
			entries = inner
		}
	}
	if _, ok := rec.Get("success"); ok && hasData {
		if arr, ok := jsonutil.AsArray(data); ok {
			return arr, "success/data", true
		}
		if arr, rule, ok := extractNested(data, o); ok {
			return arr, "success/data." + rule, true
		}
		if inner, ok := jsonutil.AsRecord(data); ok {
			entries = inner
		}
	}
	if arr, ok := jsonutil.AsArray(data); ok {
		return arr, "data", true
	}

	for _, name := range append(append([]string(nil), arrayFields...), o.preferred...) {
		if v, ok := rec.Get(name); ok {
			if arr, ok := jsonutil.AsArray(v); ok {
				return arr, "field:" + name, true
			}
		}
	}

	keys := propertyOrder(rec.Keys())
	for _, k := range keys {
		v, _ := rec.Get(k)
		if arr, ok := jsonutil.AsArray(v); ok {
			return arr, "scan:" + k, true
		}
	}

	if !synthesize {
		return nil, "", false
	}
	var synthesized []any
	for _, k := range propertyOrder(entries.Keys()) {
		v, _ := entries.Get(k)
		entry, ok := jsonutil.AsRecord(v)
		if !ok {
			continue
		}
		item := jsonutil.NewObject()
		item.Set("id", k)
		for _, ek := range entry.Keys() {
			ev, _ := entry.Get(ek)
			item.Set(ek, ev)
		}
		synthesized = append(synthesized, item)
	}
	if len(synthesized) > 0 {
		return synthesized, "synthesized", true
	}
	return nil, "", false
}

// extractNested unwraps an envelope whose data is itself an object.
func extractNested(data any, o options) ([]any, string, bool) {
	if _, ok := jsonutil.AsRecord(data); !ok {
		return nil, "", false
	}
	return extractArray(data, o, false)
}

// propertyOrder reorders object keys the way the console enumerates them:
// array-index keys first in ascending numeric order, then the rest in arrival
// order.
func propertyOrder(keys []string) []string {
	out := append([]string(nil), keys...)
	sort.SliceStable(out, func(i, j int) bool {
		a, aIdx := arrayIndex(out[i])
		b, bIdx := arrayIndex(out[j])
		if aIdx && bIdx {
			return a < b
		}
		return aIdx && !bIdx
	})
	return out
}

func arrayIndex(key string) (uint64, bool) {
	n, err := strconv.ParseUint(key, 10, 32)
	if err != nil || n == math.MaxUint32 || strconv.FormatUint(n, 10) != key {
		return 0, false
	}
	return n, true
}

// ObjectKind tags how ExtractObject found its result.
type ObjectKind int

const (
	// Matched means a known wrapper or field held the object.
	Matched ObjectKind = iota
	// Passthrough means nothing was recognized and the input itself came back.
	Passthrough
)

func (k ObjectKind) String() string {
	if k == Passthrough {
		return "passthrough"
	}
	return "matched"
}

type ObjectResult struct {
	Value any
	Kind  ObjectKind
}

// ExtractObject returns the single object carried by value. Inputs that are not
// objects fail.
func ExtractObject(value any, opts ...Option) (ObjectResult, error) {
	o := buildOptions(opts)
	rec, ok := jsonutil.AsRecord(value)
	if !ok {
		o.logger.Debug("shape: not an object", zap.String("type", fmt.Sprintf("%T", value)))
		return ObjectResult{}, &DataShapeError{Op: "extract object", Reason: "cannot extract object"}
	}
	orInput := func(v any) any {
		if v == nil {
			return value
		}
		return v
	}
	data, hasData := rec.Get("data")
	if code, ok := rec.Get("code"); ok && hasData && isSuccessCode(code) {
		return ObjectResult{Value: orInput(data), Kind: Matched}, nil
	}
	if _, ok := rec.Get("success"); ok && hasData {
		return ObjectResult{Value: orInput(data), Kind: Matched}, nil
	}
	if hasData {
		return ObjectResult{Value: orInput(data), Kind: Matched}, nil
	}
	for _, name := range objectFields {
		if v, ok := rec.Get(name); ok {
			if _, isObj := jsonutil.AsRecord(v); isObj {
				o.logger.Debug("shape: object field", zap.String("field", name))
				return ObjectResult{Value: v, Kind: Matched}, nil
			}
		}
	}
	return ObjectResult{Value: value, Kind: Passthrough}, nil
}

// Unwrap descends value[key] for as long as it holds an object, so that
// {"user":{"user":{...}}} yields the innermost object.
func Unwrap(value any, key string) any {
	cur := value
	for {
		next, ok := jsonutil.Lookup(cur, key)
		if !ok {
			return cur
		}
		if _, isObj := jsonutil.AsRecord(next); !isObj {
			return cur
		}
		cur = next
	}
}
