package coder

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases", "HELLO World", "hello world"},
		{"collapses whitespace", "a \t b\n\nc", "a b c"},
		{"strips special characters", "Good-bye, cruel world!!", "goodbye cruel world"},
		{"strips accents", "Café au lait", "cafe au lait"},
		{"keeps digits", "Route 66", "route 66"},
		{"trims", "  padded  ", "padded"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Normalize(tc.in)
			require.False(t, got.IsMissing())
			require.Equal(t, tc.want, got.String())
		})
	}
}

func TestNormalizeMissing(t *testing.T) {
	for _, in := range []string{"", "   ", "\t\n", "!!!", "¿¿??"} {
		require.True(t, Normalize(in).IsMissing(), "input %q", in)
	}
}

// A respondent who literally types NaN gave a real answer; it must never
// collide with true absence.
func TestNormalizeNaNIsNotMissing(t *testing.T) {
	got := Normalize("NaN")
	require.False(t, got.IsMissing())
	require.Equal(t, "nan", got.String())

	require.NotEqual(t, Missing, got)
	require.NotEqual(t, Missing, Normalize("null"))
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{"HELLO World", "Café!!", "a \t b", "Route 66", "ünïcödé"}
	for _, in := range inputs {
		once := Normalize(in)
		if once.IsMissing() {
			continue
		}
		twice := Normalize(once.String())
		require.Equal(t, once, twice, "input %q", in)
	}
}
