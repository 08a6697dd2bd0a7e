// Package metrics turns raw screening samples into sub-scores and the final
// risk classification. Every scorer is a pure reduction over its input and
// never fails: missing data produces a defined worst-case score.
package metrics

import "errors"

var (
	ErrInvalidSample    = errors.New("invalid sample")
	ErrInvalidSegment   = errors.New("segment index out of range")
	ErrInvalidTrial     = errors.New("invalid contrast trial")
	ErrSequenceComplete = errors.New("contrast sequence already complete")
)

// Test identifies one of the three screening tests.
type Test string

const (
	TestAlignment Test = "alignment"
	TestTracking  Test = "tracking"
	TestContrast  Test = "contrast"
)

// SubScorer is implemented by every per-test score.
type SubScorer interface {
	SubScore() float64
}

// SubScores bundles the per-test reductions of one screening.
type SubScores struct {
	Alignment AlignmentScore `json:"alignment"`
	Tracking  TrackingScore  `json:"tracking"`
	Contrast  ContrastScore  `json:"contrast"`
}

// Result aggregates the bundled sub-scores.
func (s SubScores) Result() ScreeningResult {
	return AggregateScores(s.Alignment, s.Tracking, s.Contrast)
}

// AggregateScores is Aggregate over anything exposing a sub-score.
func AggregateScores(alignment, tracking, contrast SubScorer) ScreeningResult {
	return Aggregate(alignment.SubScore(), tracking.SubScore(), contrast.SubScore())
}
