// Package transform reshapes decoded rows before type inference: Flatten
// reduces nested objects to dot-path scalars, Expand explodes parallel
// arrays into multiple rows.
package transform

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// DefaultMaxDepth bounds recursive flattening. Subtrees below the limit are
// retained as opaque values, which caps the cost on pathological inputs.
const DefaultMaxDepth = 5

// Flatten reduces a nested row to a flat field-to-scalar mapping using
// dot-notation keys, with the default depth bound. Already-flat rows come
// back unchanged.
func Flatten(row map[string]any) map[string]any {
	return FlattenDepth(row, "", DefaultMaxDepth)
}

// FlattenDepth flattens row under an optional key prefix, recursing at most
// maxDepth levels. Arrays of scalars join into a comma-separated string;
// arrays of objects flatten each element under an index-qualified prefix.
func FlattenDepth(row map[string]any, prefix string, maxDepth int) map[string]any {
	out := make(map[string]any, len(row))
	flattenInto(out, row, prefix, maxDepth)
	return out
}

func flattenInto(out map[string]any, obj map[string]any, prefix string, depth int) {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		flattenValue(out, key, obj[k], depth)
	}
}

func flattenValue(out map[string]any, key string, v any, depth int) {
	switch val := v.(type) {
	case map[string]any:
		if depth <= 0 {
			out[key] = opaque(val)
			return
		}
		flattenInto(out, val, key, depth-1)
	case []any:
		if depth <= 0 {
			out[key] = opaque(val)
			return
		}
		if allScalars(val) {
			out[key] = joinScalars(val)
			return
		}
		for i, elem := range val {
			flattenValue(out, key+"."+strconv.Itoa(i), elem, depth-1)
		}
	default:
		out[key] = v
	}
}

func allScalars(arr []any) bool {
	for _, e := range arr {
		switch e.(type) {
		case map[string]any, []any:
			return false
		}
	}
	return true
}

func joinScalars(arr []any) string {
	parts := make([]string, len(arr))
	for i, e := range arr {
		parts[i] = scalarString(e)
	}
	return strings.Join(parts, ",")
}

func scalarString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// opaque renders a depth-truncated subtree as a single stable value.
func opaque(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
