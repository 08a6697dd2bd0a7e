package metrics

import "math"

// Calibration thresholds for the alignment test. A spread at or above the
// threshold saturates its sub-term to 0.
const (
	SymmetryThreshold  = 0.08
	DeviationThreshold = 0.10
	AngleThreshold     = 0.05
)

const (
	symmetryWeight  = 0.5
	deviationWeight = 0.3
	angleWeight     = 0.2
)

// AlignmentSample is one frame's worth of eye/nose geometry.
type AlignmentSample struct {
	TimestampMs         float64 `json:"timestampMs"`
	HorizontalDeviation float64 `json:"horizontalDeviation"`
	VerticalDeviation   float64 `json:"verticalDeviation"`
	NoseAngleRadians    float64 `json:"noseAngleRadians"`
}

// AlignmentScore is the reduction of an alignment session.
type AlignmentScore struct {
	SymmetryRatio           float64 `json:"symmetryRatio"`
	DeviationScore          float64 `json:"deviationScore"`
	AngleScore              float64 `json:"angleScore"`
	AlignmentDeviationScore float64 `json:"alignmentDeviationScore"`
	SampleSize              int     `json:"sampleSize"`
}

// SubScore is the value consumed by the risk aggregator.
func (s AlignmentScore) SubScore() float64 {
	return s.AlignmentDeviationScore
}

// ScoreAlignment reduces a session of alignment samples into a single score.
// With no samples it returns the defined worst-case default instead of failing.
func ScoreAlignment(samples []AlignmentSample) AlignmentScore {
	if len(samples) == 0 {
		return AlignmentScore{
			SymmetryRatio:           0,
			DeviationScore:          1,
			AlignmentDeviationScore: 1,
		}
	}

	horizontal := make([]float64, len(samples))
	vertical := make([]float64, len(samples))
	angles := make([]float64, len(samples))
	for i, s := range samples {
		horizontal[i] = s.HorizontalDeviation
		vertical[i] = s.VerticalDeviation
		angles[i] = s.NoseAngleRadians
	}

	hSpread := PopulationStdDev(horizontal)
	vSpread := PopulationStdDev(vertical)
	aSpread := PopulationStdDev(angles)

	symmetryRatio := saturatedRatio(hSpread, SymmetryThreshold)
	deviationScore := saturatedRatio(vSpread, DeviationThreshold)
	angleScore := saturatedRatio(math.Abs(aSpread), AngleThreshold)

	blended := blend3(symmetryRatio, symmetryWeight, deviationScore, deviationWeight, angleScore, angleWeight)

	return AlignmentScore{
		SymmetryRatio:           symmetryRatio,
		DeviationScore:          deviationScore,
		AngleScore:              angleScore,
		AlignmentDeviationScore: Clamp(Round2(blended), 0, 1),
		SampleSize:              len(samples),
	}
}
