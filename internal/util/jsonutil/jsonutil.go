package jsonutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/buger/jsonparser"
)

// MarshalNoEscape encodes v into JSON without escaping <, >, & into <, etc.
func MarshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	// Remove trailing newline from json.Encoder.Encode
	out := bytes.TrimRight(buf.Bytes(), "\n")
	return out, nil
}

// Decode parses raw JSON into plain Go values, keeping object key order.
//
// Objects become *Object, arrays []any, numbers json.Number, strings string,
// booleans bool and null nil.
func Decode(raw []byte) (any, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, errors.New("jsonutil: empty payload")
	}
	if !json.Valid(raw) {
		return nil, errors.New("jsonutil: invalid json")
	}
	value, dataType, _, err := jsonparser.Get(raw)
	if err != nil {
		return nil, fmt.Errorf("jsonutil: %w", err)
	}
	return decodeValue(value, dataType)
}

func decodeValue(value []byte, dataType jsonparser.ValueType) (any, error) {
	switch dataType {
	case jsonparser.Object:
		obj := NewObject()
		// ObjectEach hands over keys already unescaped.
		err := jsonparser.ObjectEach(value, func(key, v []byte, vt jsonparser.ValueType, _ int) error {
			decoded, err := decodeValue(v, vt)
			if err != nil {
				return err
			}
			obj.Set(string(key), decoded)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("jsonutil: object: %w", err)
		}
		return obj, nil
	case jsonparser.Array:
		out := make([]any, 0)
		var inner error
		_, err := jsonparser.ArrayEach(value, func(v []byte, vt jsonparser.ValueType, _ int, err error) {
			if inner != nil {
				return
			}
			if err != nil {
				inner = err
				return
			}
			decoded, err := decodeValue(v, vt)
			if err != nil {
				inner = err
				return
			}
			out = append(out, decoded)
		})
		if err != nil {
			return nil, fmt.Errorf("jsonutil: array: %w", err)
		}
		if inner != nil {
			return nil, fmt.Errorf("jsonutil: array: %w", inner)
		}
		return out, nil
	case jsonparser.String:
		return jsonparser.ParseString(value)
	case jsonparser.Number:
		return json.Number(string(value)), nil
	case jsonparser.Boolean:
		return jsonparser.ParseBoolean(value)
	case jsonparser.Null:
		return nil, nil
	default:
		return nil, fmt.Errorf("jsonutil: unsupported value %q", string(value))
	}
}

// Object is a JSON object that remembers the order its keys arrived in.
type Object struct {
	keys   []string
	values map[string]any
}

func NewObject() *Object {
	return &Object{values: make(map[string]any)}
}

// Set stores value under key. A key keeps the position of its first insertion.
func (o *Object) Set(key string, value any) {
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = value
}

func (o *Object) Get(key string) (any, bool) {
	if o == nil {
		return nil, false
	}
	v, ok := o.values[key]
	return v, ok
}

func (o *Object) Has(key string) bool {
	_, ok := o.Get(key)
	return ok
}

// Keys returns the keys in insertion order.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	return append([]string(nil), o.keys...)
}

func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// Plain converts the object (recursively) to map[string]any.
func (o *Object) Plain() map[string]any {
	if o == nil {
		return nil
	}
	out := make(map[string]any, len(o.keys))
	for _, k := range o.keys {
		out[k] = Plain(o.values[k])
	}
	return out
}

// Plain strips ordering from a decoded value so it can be handed to libraries
// that only understand map[string]any.
func Plain(v any) any {
	switch x := v.(type) {
	case *Object:
		return x.Plain()
	case []any:
		out := make([]any, len(x))
		for i := range x {
			out[i] = Plain(x[i])
		}
		return out
	default:
		return v
	}
}

func (o *Object) MarshalJSON() ([]byte, error) {
	if o == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := MarshalNoEscape(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := MarshalNoEscape(o.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (o *Object) UnmarshalJSON(raw []byte) error {
	v, err := Decode(raw)
	if err != nil {
		return err
	}
	obj, ok := v.(*Object)
	if !ok {
		return fmt.Errorf("jsonutil: expected object, got %T", v)
	}
	*o = *obj
	return nil
}

// Record is a read-only view over a decoded JSON object.
type Record interface {
	Get(key string) (any, bool)
	Keys() []string
}

type mapRecord map[string]any

func (m mapRecord) Get(key string) (any, bool) {
	v, ok := m[key]
	return v, ok
}

// Keys of a plain map have no arrival order; they are reported sorted so
// every scan over the same map is deterministic.
func (m mapRecord) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// AsRecord reports whether v is a JSON object and returns a view over it.
func AsRecord(v any) (Record, bool) {
	switch x := v.(type) {
	case *Object:
		if x == nil {
			return nil, false
		}
		return x, true
	case map[string]any:
		if x == nil {
			return nil, false
		}
		return mapRecord(x), true
	default:
		return nil, false
	}
}

// AsArray reports whether v is a JSON array.
func AsArray(v any) ([]any, bool) {
	arr, ok := v.([]any)
	if !ok || arr == nil {
		return nil, false
	}
	return arr, true
}

// Lookup returns v[key] when v is an object.
func Lookup(v any, key string) (any, bool) {
	rec, ok := AsRecord(v)
	if !ok {
		return nil, false
	}
	return rec.Get(key)
}
