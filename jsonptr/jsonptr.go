// Package jsonptr implements RFC 6901 JSON Pointer parsing, escaping,
// and evaluation over generic parsed trees.
//
// Import path: github.com/oasgraph/oasgraph/jsonptr
//
// Pointers are represented as plain strings in their escaped form
// (e.g. "/paths/~1pets/get"). Tokens are the unescaped segments
// between slashes. The package operates on the generic tree shapes
// produced by JSON and YAML deserialization: map[string]any for
// objects and []any for arrays.
package jsonptr

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/oasgraph/oasgraph/oaserrors"
)

// EscapeToken escapes a single reference token per RFC 6901:
// "~" becomes "~0" and "/" becomes "~1".
func EscapeToken(token string) string {
	token = strings.ReplaceAll(token, "~", "~0")
	return strings.ReplaceAll(token, "/", "~1")
}

// UnescapeToken reverses EscapeToken. Order matters: "~1" must be
// replaced before "~0" so that "~01" round-trips to "~1".
func UnescapeToken(token string) string {
	token = strings.ReplaceAll(token, "~1", "/")
	return strings.ReplaceAll(token, "~0", "~")
}

// Append extends a pointer with one more token, escaping it.
// Appending to the empty pointer yields "/" + escaped token.
func Append(ptr, token string) string {
	return ptr + "/" + EscapeToken(token)
}

// Parse splits an escaped pointer into its unescaped tokens.
// The empty pointer yields no tokens. A non-empty pointer must
// begin with "/".
func Parse(ptr string) ([]string, error) {
	if ptr == "" {
		return nil, nil
	}
	if !strings.HasPrefix(ptr, "/") {
		return nil, &oaserrors.ConfigError{
			Option:  "pointer",
			Value:   ptr,
			Message: "must be empty or begin with '/'",
		}
	}
	raw := strings.Split(ptr[1:], "/")
	tokens := make([]string, len(raw))
	for i, t := range raw {
		tokens[i] = UnescapeToken(t)
	}
	return tokens, nil
}

// Evaluate resolves a pointer against a generic parsed value.
// Objects must be map[string]any, arrays []any. A missing key,
// out-of-range index, or traversal into a scalar returns a
// CatalogError naming the failing token.
func Evaluate(value any, ptr string) (any, error) {
	tokens, err := Parse(ptr)
	if err != nil {
		return nil, err
	}
	current := value
	for i, token := range tokens {
		switch v := current.(type) {
		case map[string]any:
			next, ok := v[token]
			if !ok {
				return nil, evalError(ptr, tokens[:i+1], fmt.Sprintf("key %q not found", token))
			}
			current = next
		case []any:
			idx, convErr := strconv.Atoi(token)
			if convErr != nil || token != strconv.Itoa(idx) {
				return nil, evalError(ptr, tokens[:i+1], fmt.Sprintf("invalid array index %q", token))
			}
			if idx < 0 || idx >= len(v) {
				return nil, evalError(ptr, tokens[:i+1], fmt.Sprintf("array index %d out of range (len %d)", idx, len(v)))
			}
			current = v[idx]
		default:
			return nil, evalError(ptr, tokens[:i+1], fmt.Sprintf("cannot descend into %T with token %q", current, token))
		}
	}
	return current, nil
}

func evalError(ptr string, consumed []string, msg string) error {
	at := ""
	for _, t := range consumed {
		at += "/" + EscapeToken(t)
	}
	return &oaserrors.CatalogError{
		URI:     ptr,
		Message: fmt.Sprintf("at %s: %s", at, msg),
	}
}
