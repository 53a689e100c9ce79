package handler

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// maxSanitizePasses bounds how many layers of entity encoding are peeled.
const maxSanitizePasses = 8

// sanitizer strips markup from free-text input before it reaches the form
// state. Entities are unescaped so "A & B" survives unchanged, and the result
// is sanitised again until it is stable so encoded tags cannot come back.
type sanitizer struct {
	policy *bluemonday.Policy
}

func newSanitizer() *sanitizer {
	return &sanitizer{policy: bluemonday.StrictPolicy()}
}

func (s *sanitizer) text(in string) string {
	cur := in
	for range maxSanitizePasses {
		next := html.UnescapeString(s.policy.Sanitize(cur))
		if next == cur {
			return strings.TrimSpace(next)
		}
		cur = next
	}
	// Still changing: keep the escaped form.
	return strings.TrimSpace(s.policy.Sanitize(cur))
}

// value sanitises every string inside a decoded JSON value.
func (s *sanitizer) value(v any) any {
	switch t := v.(type) {
	case string:
		return s.text(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = s.value(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = s.value(e)
		}
		return out
	default:
		return v
	}
}
