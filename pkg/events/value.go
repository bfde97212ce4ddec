// Package events defines the canonical security-event schema that every
// normalizer produces and every downstream consumer (correlator, risk
// scorer, pipeline, store) operates on.
package events

import (
	"bytes"
	"encoding/json"
)

// Value is a tagged-union representation of an arbitrary, loosely-structured
// vendor payload. Normalizers extract fields from it defensively: a missing
// or wrongly-typed key simply yields the zero value, it never panics.
//
// Value exists because raw vendor records (CloudTrail JSON, GuardDuty
// findings) have no fixed schema the normalizer can commit to ahead of time;
// typing the payload as `map[string]interface{}` would work too, but Value
// keeps that interface{} traffic confined to one place with helpers that do
// the defensive extraction once instead of scattering type assertions across
// every normalizer.
type Value struct {
	Kind ValueKind
	Str  string
	Num  float64
	Bool bool
	List []Value
	Map  map[string]Value
}

// ValueKind discriminates the payload a Value holds.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindString
	KindNumber
	KindBool
	KindList
	KindMap
)

// FromAny converts a generic decoded-JSON tree (as produced by
// encoding/json.Unmarshal into interface{}) into a Value tree.
func FromAny(v interface{}) Value {
	switch t := v.(type) {
	case nil:
		return Value{Kind: KindNull}
	case string:
		return Value{Kind: KindString, Str: t}
	case float64:
		return Value{Kind: KindNumber, Num: t}
	case json.Number:
		f, _ := t.Float64()
		return Value{Kind: KindNumber, Num: f}
	case bool:
		return Value{Kind: KindBool, Bool: t}
	case []interface{}:
		list := make([]Value, len(t))
		for i, item := range t {
			list[i] = FromAny(item)
		}
		return Value{Kind: KindList, List: list}
	case map[string]interface{}:
		m := make(map[string]Value, len(t))
		for k, item := range t {
			m[k] = FromAny(item)
		}
		return Value{Kind: KindMap, Map: m}
	default:
		return Value{Kind: KindNull}
	}
}

// ToAny converts a Value tree back into plain interface{} for JSON encoding.
func (v Value) ToAny() interface{} {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindNumber:
		return v.Num
	case KindBool:
		return v.Bool
	case KindList:
		out := make([]interface{}, len(v.List))
		for i, item := range v.List {
			out[i] = item.ToAny()
		}
		return out
	case KindMap:
		out := make(map[string]interface{}, len(v.Map))
		for k, item := range v.Map {
			out[k] = item.ToAny()
		}
		return out
	default:
		return nil
	}
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.ToAny())
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw interface{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	*v = FromAny(raw)
	return nil
}

// Get navigates a path of map keys, one argument per segment (e.g.
// Get("userIdentity", "sessionContext", "sessionIssuer", "userName")),
// through nested maps, returning the zero Value (KindNull) if any segment is
// missing or not a map.
func (v Value) Get(path ...string) Value {
	cur := v
	for _, seg := range path {
		if cur.Kind != KindMap {
			return Value{Kind: KindNull}
		}
		next, ok := cur.Map[seg]
		if !ok {
			return Value{Kind: KindNull}
		}
		cur = next
	}
	return cur
}

// String returns the string contents, or "" if this Value isn't a string.
func (v Value) String() string {
	if v.Kind != KindString {
		return ""
	}
	return v.Str
}

// StringOr returns the string contents, or def if this Value isn't a string
// or is an empty string.
func (v Value) StringOr(def string) string {
	if v.Kind != KindString || v.Str == "" {
		return def
	}
	return v.Str
}

// Float64 returns the numeric contents, or 0 if this Value isn't a number.
func (v Value) Float64() float64 {
	if v.Kind != KindNumber {
		return 0
	}
	return v.Num
}

// Int returns the numeric contents truncated to int, or 0 otherwise.
func (v Value) Int() int {
	return int(v.Float64())
}

// IsNull reports whether this Value carries no data.
func (v Value) IsNull() bool {
	return v.Kind == KindNull
}

// Items returns the element list, or nil if this Value isn't a list.
func (v Value) Items() []Value {
	if v.Kind != KindList {
		return nil
	}
	return v.List
}
