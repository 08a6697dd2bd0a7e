package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMean(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0.0, Mean(nil))
	assert.Equal(t, 0.0, Mean([]float64{}))
	assert.InDelta(t, 2.0, Mean([]float64{1, 2, 3}), 1e-12)
	assert.InDelta(t, -0.5, Mean([]float64{-1, 0}), 1e-12)
}

func TestPopulationStdDev(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"empty", nil, 0},
		{"single", []float64{42}, 0},
		{"constant", []float64{3, 3, 3, 3}, 0},
		{"population not sample", []float64{2, 4, 4, 4, 5, 5, 7, 9}, 2},
		{"two points", []float64{0, 1}, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, PopulationStdDev(tt.values), 1e-12)
		})
	}
}

func TestClamp(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0.0, Clamp(-0.2, 0, 1))
	assert.Equal(t, 1.0, Clamp(1.7, 0, 1))
	assert.Equal(t, 0.42, Clamp(0.42, 0, 1))
	assert.Equal(t, 0.0, Clamp(math.Inf(-1), 0, 1))
}

func TestRound2(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0.81, Round2(0.9*0.4+0.8*0.3+0.7*0.3))
	assert.Equal(t, 0.9, Round2(0.8999999))
	assert.Equal(t, 0.33, Round2(1.0/3))
	assert.Equal(t, 0.67, Round2(2.0/3))

	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"stored below tie", 0.6 + 0.125, 0.72},
		{"weighted risk below tie", 0.02*0.4 + 0.29*0.3 + 0.7*0.3, 0.3},
		{"literal below tie", 1.005, 1},
		{"literal above tie", 0.135, 0.14},
		{"literal below tie again", 0.615, 0.61},
		{"exact tie rounds up", 0.125, 0.13},
		{"exact tie rounds up odd", 0.375, 0.38},
		{"negative exact tie", -0.125, -0.13},
		{"already two places", 0.3, 0.3},
		{"completeness percent", (3.0/66 + 1 + 1) / 3 * 100, 68.18},
		{"zero", 0, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Round2(tt.in), tt.name)
	}
	assert.True(t, math.IsNaN(Round2(math.NaN())))
}
