package trakt

import "github.com/microcosm-cc/bluemonday"

var strictPolicy = bluemonday.StrictPolicy()

// DefaultSanitizer strips all HTML from s and escapes what remains.
func DefaultSanitizer(s string) string {
	return strictPolicy.Sanitize(s)
}

// Sanitize returns a copy of a decoded JSON value with every string leaf
// passed through fn. Object keys and other scalars are left unchanged.
func Sanitize(v any, fn func(string) string) any {
	if fn == nil {
		return v
	}
	switch t := v.(type) {
	case string:
		return fn(t)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, x := range t {
			out[k] = Sanitize(x, fn)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, x := range t {
			out[i] = Sanitize(x, fn)
		}
		return out
	default:
		return v
	}
}
