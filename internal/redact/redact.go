// Package redact strips message text and rotor key material from values
// before they reach an audit log.
package redact

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	// neverPersistKey lets a caller name extra keys to mask in the same map.
	neverPersistKey     = "never_persist"
	redactedText        = "[REDACTED_TEXT]"
	redactedPermutation = "[REDACTED_PERMUTATION]"
)

// sensitiveKeys are metadata keys whose values are always masked.
var sensitiveKeys = map[string]string{
	"text":        redactedText,
	"plaintext":   redactedText,
	"ciphertext":  redactedText,
	"message":     redactedText,
	"permutation": redactedPermutation,
	"wiring":      redactedPermutation,
}

// permutationRe matches a list of at least sixteen small integers, which is
// how a permutation shows up once formatted.
var permutationRe = regexp.MustCompile(`\[?\s*\d{1,2}(?:\s*[, ]\s*\d{1,2}){15,}\s*\]?`)

// String masks anything in in that looks like a formatted permutation.
func String(in string) string {
	if strings.TrimSpace(in) == "" {
		return in
	}
	return permutationRe.ReplaceAllString(in, redactedPermutation)
}

// Interface redacts recognised sensitive values within nested structures.
func Interface(value any) any {
	switch v := value.(type) {
	case string:
		return String(v)
	case fmt.Stringer:
		return String(v.String())
	case []string:
		return Slice(v)
	case []int:
		if len(v) >= 16 {
			return redactedPermutation
		}
		return v
	case []any:
		out := make([]any, len(v))
		for i, elem := range v {
			out[i] = Interface(elem)
		}
		return out
	case map[string]string:
		return MapString(v)
	case map[string]any:
		return Map(v)
	default:
		return value
	}
}

// Map redacts sensitive values within a map of arbitrary values. Keys listed
// under "never_persist" are masked in addition to the built-in set.
func Map(in map[string]any) map[string]any {
	return scrub(in, listedKeys, func(mask string) any { return mask }, Interface)
}

// MapString is Map for string maps; never_persist is a comma-separated list.
func MapString(in map[string]string) map[string]string {
	return scrub(in, splitKeys, func(mask string) string { return mask }, String)
}

// Slice redacts sensitive values within a slice of strings.
func Slice(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = String(v)
	}
	return out
}

// scrub copies in, dropping the never_persist entry, replacing masked keys
// with their mask and passing every other value through clean.
func scrub[V any](in map[string]V, listed func(V) []string, mask func(string) V, clean func(V) V) map[string]V {
	if len(in) == 0 {
		return nil
	}

	extra := make(map[string]bool)
	for k, v := range in {
		if strings.EqualFold(k, neverPersistKey) {
			for _, key := range listed(v) {
				if key = strings.TrimSpace(key); key != "" {
					extra[key] = true
				}
			}
		}
	}

	out := make(map[string]V, len(in))
	for k, v := range in {
		if strings.EqualFold(k, neverPersistKey) {
			continue
		}
		if m, ok := sensitiveKeys[strings.ToLower(k)]; ok {
			out[k] = mask(m)
			continue
		}
		if extra[k] {
			out[k] = mask(redactedText)
			continue
		}
		out[k] = clean(v)
	}
	return out
}

func listedKeys(value any) []string {
	switch v := value.(type) {
	case string:
		return splitKeys(v)
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, elem := range v {
			out = append(out, fmt.Sprint(elem))
		}
		return out
	default:
		return nil
	}
}

func splitKeys(value string) []string {
	return strings.Split(value, ",")
}
