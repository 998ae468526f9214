package drive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{0, 0},
		{359, 359},
		{360, 0},
		{361, 1},
		{720, 0},
		{-1, 359},
		{-90, 270},
		{-360, 0},
		{-721, 359},
		{1000, 280},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in), "Normalize(%d)", tt.in)
	}
}

func TestNormalizeRangeAndIdempotent(t *testing.T) {
	for a := -1500; a <= 1500; a++ {
		n := Normalize(a)
		require.GreaterOrEqual(t, n, 0, "Normalize(%d)", a)
		require.Less(t, n, 360, "Normalize(%d)", a)
		require.Equal(t, n, Normalize(n), "Normalize not idempotent for %d", a)
	}
}

func TestShortestError(t *testing.T) {
	tests := []struct {
		name    string
		target  int
		current int
		want    int
	}{
		{"same", 80, 80, 0},
		{"ccw small", 90, 80, 10},
		{"cw small", 80, 90, -10},
		{"across zero ccw", 10, 350, 20},
		{"across zero cw", 350, 10, -20},
		{"half turn", 180, 0, 180},
		{"just past half", 181, 0, -179},
		{"unnormalized inputs", 440, -10, 90},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShortestError(tt.target, tt.current))
		})
	}
}

func TestShortestErrorRoundTrip(t *testing.T) {
	for target := 0; target < 360; target++ {
		for current := 0; current < 360; current++ {
			e := ShortestError(target, current)
			require.GreaterOrEqual(t, e, -180)
			require.LessOrEqual(t, e, 180)
			require.Equal(t, target, Normalize(current+e), "target %d current %d", target, current)
		}
	}
}
