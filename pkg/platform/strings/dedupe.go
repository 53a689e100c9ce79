// Package strings provides string-slice helpers for multi-select form values.
package strings

import (
	"slices"
	"strings"
)

// DedupeAndTrim removes duplicates and empty strings from a slice,
// trimming whitespace from each element. Order of first occurrence is preserved.
//
// Example:
//
//	DedupeAndTrim([]string{"  salary ", "rental", "salary", "", "  "})
//	// Returns: []string{"salary", "rental"}
func DedupeAndTrim(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))

	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; !ok {
			seen[trimmed] = struct{}{}
			result = append(result, trimmed)
		}
	}

	return result
}

// Toggle returns a new slice with value included or excluded. Including a
// value that is already present is a no-op, so the result never holds
// duplicates and keeps the position of each value's first insertion. The input
// slice is never modified.
//
// Example:
//
//	Toggle([]string{"salary"}, "rental", true)   // []string{"salary", "rental"}
//	Toggle([]string{"salary"}, "salary", true)   // []string{"salary"}
//	Toggle([]string{"salary", "rental"}, "salary", false) // []string{"rental"}
func Toggle(values []string, value string, included bool) []string {
	value = strings.TrimSpace(value)
	out := DedupeAndTrim(append([]string(nil), values...))
	if out == nil {
		out = []string{}
	}
	if value == "" {
		return out
	}

	idx := slices.Index(out, value)
	switch {
	case included && idx == -1:
		return append(out, value)
	case !included && idx != -1:
		return append(out[:idx], out[idx+1:]...)
	default:
		return out
	}
}
