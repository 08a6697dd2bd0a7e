package metrics

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MissingValue is rendered for absent scores.
const MissingValue = "--"

// FormatPercent renders a [0,1] score as a whole percentage ("81%").
func FormatPercent(value *float64) string {
	if value == nil || math.IsNaN(*value) {
		return MissingValue
	}
	return fmt.Sprintf("%d%%", int(math.Round(*value*100)))
}

// ParsePercent reverses FormatPercent. The second return value is false for
// the missing marker or malformed input.
func ParsePercent(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == MissingValue || !strings.HasSuffix(s, "%") {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSuffix(s, "%"))
	if err != nil {
		return 0, false
	}
	return float64(n) / 100, true
}

// ResultDisplay is the percentage form of a ScreeningResult.
type ResultDisplay struct {
	AlignmentScore string         `json:"alignmentScore" yaml:"alignmentScore"`
	TrackingScore  string         `json:"trackingScore" yaml:"trackingScore"`
	ContrastScore  string         `json:"contrastScore" yaml:"contrastScore"`
	RiskScore      string         `json:"riskScore" yaml:"riskScore"`
	Classification Classification `json:"classification" yaml:"classification"`
}

// Display renders every score of the result as a percentage string.
func (r ScreeningResult) Display() ResultDisplay {
	return ResultDisplay{
		AlignmentScore: FormatPercent(&r.AlignmentScore),
		TrackingScore:  FormatPercent(&r.TrackingScore),
		ContrastScore:  FormatPercent(&r.ContrastScore),
		RiskScore:      FormatPercent(&r.RiskScore),
		Classification: r.Classification,
	}
}

// ParseDisplay rebuilds a result from its percentage form.
func ParseDisplay(d ResultDisplay) (ScreeningResult, error) {
	var r ScreeningResult
	fields := []struct {
		name  string
		value string
		dst   *float64
	}{
		{"alignmentScore", d.AlignmentScore, &r.AlignmentScore},
		{"trackingScore", d.TrackingScore, &r.TrackingScore},
		{"contrastScore", d.ContrastScore, &r.ContrastScore},
		{"riskScore", d.RiskScore, &r.RiskScore},
	}
	for _, f := range fields {
		v, ok := ParsePercent(f.value)
		if !ok {
			return ScreeningResult{}, fmt.Errorf("%s: unparseable percentage %q", f.name, f.value)
		}
		*f.dst = v
	}

	switch d.Classification {
	case ClassificationLow, ClassificationModerate, ClassificationHigh:
		r.Classification = d.Classification
	default:
		return ScreeningResult{}, fmt.Errorf("unknown classification %q", d.Classification)
	}
	return r, nil
}
