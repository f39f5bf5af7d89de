package hub

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoerceUint(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		fallback uint64
		want     uint64
	}{
		{"json number", json.Number("42"), 0, 42},
		{"big json number", json.Number("18446744073709551615"), 0, 18446744073709551615},
		{"negative json number", json.Number("-5"), 7, 7},
		{"float", float64(3), 0, 3},
		{"fractional float", 3.5, 9, 9},
		{"negative float", -1.0, 9, 9},
		{"int", 12, 0, 12},
		{"negative int", -12, 4, 4},
		{"numeric string", "17", 0, 17},
		{"garbage string", "notanumber", 4, 4},
		{"missing", nil, 8, 8},
		{"wrong type", map[string]any{}, 8, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, coerceUint(tt.input, tt.fallback))
		})
	}
}

func TestCoerceText(t *testing.T) {
	assert.Equal(t, "hello", coerceText("hello"))
	assert.Equal(t, "", coerceText(nil))
	assert.Equal(t, "", coerceText(123))
	assert.Equal(t, "ab", coerceText("a\x00b"), "NUL bytes are stripped")
}

func TestCoerceText_Truncation(t *testing.T) {
	long := strings.Repeat("a", maxTextBytes+100)
	got := coerceText(long)

	assert.True(t, strings.HasSuffix(got, truncationMarker))
	assert.Equal(t, maxTextBytes+len(truncationMarker), len(got))

	// Exactly at the limit passes through untouched.
	exact := strings.Repeat("b", maxTextBytes)
	assert.Equal(t, exact, coerceText(exact))
}

// Truncation must not split a multi-byte rune.
func TestCoerceText_TruncationRuneBoundary(t *testing.T) {
	long := strings.Repeat("a", maxTextBytes-1) + "世界"
	got := coerceText(long)

	assert.True(t, strings.HasPrefix(got, strings.Repeat("a", maxTextBytes-1)))
	assert.True(t, strings.HasSuffix(got, truncationMarker))
	for _, r := range got {
		assert.NotEqual(t, '�', r, "truncation produced an invalid rune")
	}
}

func TestCoerceUintSlice(t *testing.T) {
	input := []any{
		json.Number("1"),
		json.Number("-2"),
		"3", // numeric strings are not integers
		4.5,
		json.Number("7"),
		nil,
		map[string]any{},
	}
	assert.Equal(t, []uint64{1, 7}, coerceUintSlice(input))
}

func TestCoerceUintSlice_NonArray(t *testing.T) {
	assert.Empty(t, coerceUintSlice("not an array"))
	assert.Empty(t, coerceUintSlice(nil))
	assert.NotNil(t, coerceUintSlice(nil))
}
