package kvstore

import (
	"encoding/json"
	"maps"
	"math"
)

// Record is a schemaless stored document. Values round-trip through JSON,
// so numbers may come back as float64 or json.Number; use the typed
// accessors rather than asserting directly.
type Record map[string]any

// Bool returns the boolean stored under name. Missing or non-boolean
// values read as false.
func (r Record) Bool(name string) bool {
	b, _ := r[name].(bool)
	return b
}

// String returns the string stored under name, or "".
func (r Record) String(name string) string {
	s, _ := r[name].(string)
	return s
}

// Int64 returns the integer stored under name. The second result is false
// when the value is missing or not a whole number.
func (r Record) Int64(name string) (int64, bool) {
	switch v := r[name].(type) {
	case int:
		return int64(v), true
	case int64:
		return v, true
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int64(v), true
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	}
	return 0, false
}

// Clone returns a shallow copy of r.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	return maps.Clone(r)
}
