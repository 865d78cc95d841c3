// Package operation holds the equality-filter matching and update-operator
// application shared by the shipped operation backends.
package operation

import (
	"fmt"
	"reflect"
	"strings"
)

// Match reports whether every field in where equals the entity's value.
// Values are compared as decoded JSON values (numbers are float64).
func Match(entity map[string]any, where map[string]any) bool {
	for field, want := range where {
		got, ok := entity[field]
		if !ok {
			return false
		}
		if !reflect.DeepEqual(got, want) {
			return false
		}
	}
	return true
}

// Apply returns a copy of the entity with the update operation applied.
// Supported operators: "$set" and "$unset". Bare keys (no "$" prefix) are
// treated as a plain $set. Unknown operators are rejected.
func Apply(entity map[string]any, op map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(entity))
	for k, v := range entity {
		out[k] = v
	}

	for key, value := range op {
		if !strings.HasPrefix(key, "$") {
			out[key] = value
			continue
		}
		switch key {
		case "$set":
			fields, ok := value.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("$set requires an object")
			}
			for f, v := range fields {
				out[f] = v
			}
		case "$unset":
			fields, ok := value.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("$unset requires an object")
			}
			for f := range fields {
				delete(out, f)
			}
		default:
			return nil, fmt.Errorf("unsupported update operator %q", key)
		}
	}
	return out, nil
}
