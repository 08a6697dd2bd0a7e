package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		risk float64
		want Classification
	}{
		{0, ClassificationLow},
		{0.29, ClassificationLow},
		{0.30, ClassificationLow},
		{0.3001, ClassificationModerate},
		{0.45, ClassificationModerate},
		{0.60, ClassificationModerate},
		{0.60001, ClassificationHigh},
		{0.81, ClassificationHigh},
		{1, ClassificationHigh},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.risk), "risk %v", tt.risk)
	}
}

func TestAggregate(t *testing.T) {
	t.Parallel()

	t.Run("end to end weighting", func(t *testing.T) {
		t.Parallel()
		got := Aggregate(0.90, 0.80, 0.70)
		assert.Equal(t, ScreeningResult{
			AlignmentScore: 0.9,
			TrackingScore:  0.8,
			ContrastScore:  0.7,
			RiskScore:      0.81,
			Classification: ClassificationHigh,
		}, got)
	})

	t.Run("band edges after rounding", func(t *testing.T) {
		t.Parallel()
		// 0.75*0.4 = 0.30 exactly at the low ceiling
		assert.Equal(t, ClassificationLow, Aggregate(0.75, 0, 0).Classification)
		// 0.6*0.4 + 1*0.3 + 0.2*0.3 = 0.60
		got := Aggregate(0.6, 1, 0.2)
		assert.Equal(t, 0.6, got.RiskScore)
		assert.Equal(t, ClassificationModerate, got.Classification)
	})

	t.Run("risk stored just below a tie", func(t *testing.T) {
		t.Parallel()
		// 0.008 + 0.087 + 0.21 sums to slightly under 0.305
		got := Aggregate(0.02, 0.29, 0.7)
		assert.Equal(t, 0.3, got.RiskScore)
		assert.Equal(t, ClassificationLow, got.Classification)
	})

	t.Run("inputs are weighted as given", func(t *testing.T) {
		t.Parallel()
		// 0.0149*0.4 = 0.00596
		got := Aggregate(0.0149, 0, 0)
		assert.Equal(t, 0.01, got.RiskScore)
		assert.Equal(t, 0.0149, got.AlignmentScore)
	})

	t.Run("output stays in range", func(t *testing.T) {
		t.Parallel()
		for _, in := range [][3]float64{{0, 0, 0}, {1, 1, 1}, {-1, 2, 0.5}, {1.5, 1.5, 1.5}} {
			got := Aggregate(in[0], in[1], in[2])
			assert.GreaterOrEqual(t, got.RiskScore, 0.0)
			assert.LessOrEqual(t, got.RiskScore, 1.0)
			assert.Equal(t, Classify(got.RiskScore), got.Classification)
		}
	})

	t.Run("sub-score bundle", func(t *testing.T) {
		t.Parallel()
		scores := SubScores{
			Alignment: AlignmentScore{AlignmentDeviationScore: 0.9},
			Tracking:  TrackingScore{TrackingStabilityScore: 0.8},
			Contrast:  ContrastScore{ContrastSensitivityScore: 0.7},
		}
		assert.Equal(t, Aggregate(0.9, 0.8, 0.7), scores.Result())
	})
}
