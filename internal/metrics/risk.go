package metrics

// Classification is the three-tier screening label.
type Classification string

const (
	ClassificationLow      Classification = "low"
	ClassificationModerate Classification = "moderate"
	ClassificationHigh     Classification = "high"
)

// Risk band upper bounds. Each band includes its upper bound, so 0.30 is low
// and 0.60 is moderate.
const (
	LowRiskCeiling      = 0.30
	ModerateRiskCeiling = 0.60
)

const (
	alignmentRiskWeight = 0.4
	trackingRiskWeight  = 0.3
	contrastRiskWeight  = 0.3
)

// ScreeningResult is the immutable outcome of a completed screening.
type ScreeningResult struct {
	AlignmentScore float64        `json:"alignmentScore" yaml:"alignmentScore"`
	TrackingScore  float64        `json:"trackingScore" yaml:"trackingScore"`
	ContrastScore  float64        `json:"contrastScore" yaml:"contrastScore"`
	RiskScore      float64        `json:"riskScore" yaml:"riskScore"`
	Classification Classification `json:"classification" yaml:"classification"`
}

// Classify maps a risk score onto its band.
func Classify(riskScore float64) Classification {
	switch {
	case riskScore <= LowRiskCeiling:
		return ClassificationLow
	case riskScore <= ModerateRiskCeiling:
		return ClassificationModerate
	default:
		return ClassificationHigh
	}
}

// Aggregate combines the three sub-scores into the final result. Higher
// sub-scores raise the risk score: the sub-scores are combined as given and
// their polarity is left to the clinical layer.
func Aggregate(alignment, tracking, contrast float64) ScreeningResult {
	alignment = Clamp(alignment, 0, 1)
	tracking = Clamp(tracking, 0, 1)
	contrast = Clamp(contrast, 0, 1)

	rawRisk := blend3(alignment, alignmentRiskWeight, tracking, trackingRiskWeight, contrast, contrastRiskWeight)
	riskScore := Clamp(Round2(rawRisk), 0, 1)

	return ScreeningResult{
		AlignmentScore: alignment,
		TrackingScore:  tracking,
		ContrastScore:  contrast,
		RiskScore:      riskScore,
		Classification: Classify(riskScore),
	}
}
