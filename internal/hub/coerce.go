package hub

import (
	"encoding/json"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// maxTextBytes bounds sanitized cast text. Longer input is truncated at a
// rune boundary and marked.
const maxTextBytes = 1024

const truncationMarker = "…"

// asMap returns v as an object, or nil when v is not one.
func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

// asSlice returns v as an array, or nil when v is not one.
func asSlice(v any) []any {
	s, _ := v.([]any)
	return s
}

// asString returns v as a string, or "" when v is not one.
func asString(v any) string {
	s, _ := v.(string)
	return s
}

// uintValue extracts a non-negative integer from a loosely-typed field.
// Accepts json.Number (pages are decoded with UseNumber to keep 64-bit
// event IDs exact), raw Go integers from tests, floats, and numeric
// strings. Negative and fractional values are rejected.
func uintValue(v any) (uint64, bool) {
	switch n := v.(type) {
	case json.Number:
		u, err := strconv.ParseUint(n.String(), 10, 64)
		return u, err == nil
	case string:
		u, err := strconv.ParseUint(strings.TrimSpace(n), 10, 64)
		return u, err == nil
	case float64:
		if n < 0 || n != float64(uint64(n)) {
			return 0, false
		}
		return uint64(n), true
	case int:
		if n < 0 {
			return 0, false
		}
		return uint64(n), true
	case int64:
		if n < 0 {
			return 0, false
		}
		return uint64(n), true
	case uint64:
		return n, true
	default:
		return 0, false
	}
}

// coerceUint returns the non-negative integer value of v, or fallback when
// the field is missing, invalid, or negative.
func coerceUint(v any, fallback uint64) uint64 {
	u, ok := uintValue(v)
	if !ok {
		return fallback
	}
	return u
}

// coerceText sanitizes a string field: embedded NUL bytes are stripped, the
// result is NFC-normalized, and anything beyond maxTextBytes is cut at a
// rune boundary with a truncation marker appended. Non-string input yields
// "".
func coerceText(v any) string {
	s := asString(v)
	if s == "" {
		return ""
	}
	s = strings.ReplaceAll(s, "\x00", "")
	s = norm.NFC.String(s)
	if len(s) <= maxTextBytes {
		return s
	}
	cut := maxTextBytes
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + truncationMarker
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

// coerceUintSlice filters an array field down to its non-negative integer
// elements. Non-array input yields an empty slice.
func coerceUintSlice(v any) []uint64 {
	items := asSlice(v)
	out := make([]uint64, 0, len(items))
	for _, item := range items {
		if _, isStr := item.(string); isStr {
			continue // integers only; numeric strings don't count
		}
		if u, ok := uintValue(item); ok {
			out = append(out, u)
		}
	}
	return out
}
