package metrics

import (
	"math"
	"sort"
)

const (
	distancePenalty   = 4.0
	lagPenalty        = 8.0
	variationPenalty  = 10.0
	distanceWeight    = 0.6
	lagWeight         = 0.25
	smoothnessWeight  = 0.15
	minSmoothnessSize = 3
)

// TrackingSample is one pursuit measurement taken while waypoint SegmentIndex was shown.
type TrackingSample struct {
	TimestampMs        float64 `json:"timestampMs"`
	DistanceFromTarget float64 `json:"distanceFromTarget"`
	InterEyeLag        float64 `json:"interEyeLag"`
	SegmentIndex       int     `json:"segmentIndex"`
}

// TrackingScore is the reduction of a smooth-pursuit session.
type TrackingScore struct {
	DistanceScore          float64 `json:"distanceScore"`
	LagScore               float64 `json:"lagScore"`
	Smoothness             float64 `json:"smoothness"`
	TrackingStabilityScore float64 `json:"trackingStabilityScore"`
	SegmentCount           int     `json:"segmentCount"`
	SampleSize             int     `json:"sampleSize"`
}

// SubScore is the value consumed by the risk aggregator.
func (s TrackingScore) SubScore() float64 {
	return s.TrackingStabilityScore
}

// ScoreTracking reduces pursuit samples into a single score. Accuracy and lag
// are averaged per segment first, and only segments that have samples take
// part in the average. Smoothness runs over the whole ordered sequence.
func ScoreTracking(samples []TrackingSample) TrackingScore {
	if len(samples) == 0 {
		return TrackingScore{}
	}

	// Group samples by segment
	segments := make(map[int][]TrackingSample)
	for _, s := range samples {
		segments[s.SegmentIndex] = append(segments[s.SegmentIndex], s)
	}

	indices := make([]int, 0, len(segments))
	for idx := range segments {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	distanceScores := make([]float64, 0, len(indices))
	lagScores := make([]float64, 0, len(indices))
	for _, idx := range indices {
		segment := segments[idx]
		distances := make([]float64, len(segment))
		lags := make([]float64, len(segment))
		for i, s := range segment {
			distances[i] = s.DistanceFromTarget
			lags[i] = s.InterEyeLag
		}
		distanceScores = append(distanceScores, linearPenalty(Mean(distances), distancePenalty))
		lagScores = append(lagScores, linearPenalty(Mean(lags), lagPenalty))
	}

	distanceScore := Mean(distanceScores)
	lagScore := Mean(lagScores)
	smoothness := Smoothness(samples)

	blended := blend3(distanceScore, distanceWeight, lagScore, lagWeight, smoothness, smoothnessWeight)

	return TrackingScore{
		DistanceScore:          distanceScore,
		LagScore:               lagScore,
		Smoothness:             smoothness,
		TrackingStabilityScore: Clamp(Round2(blended), 0, 1),
		SegmentCount:           len(indices),
		SampleSize:             len(samples),
	}
}

// Smoothness penalizes jerky pursuit. The successive differences of
// DistanceFromTarget are taken from the third sample onward (i >= 2, n-2
// terms); fewer than three samples yield 0.
func Smoothness(samples []TrackingSample) float64 {
	if len(samples) < minSmoothnessSize {
		return 0
	}

	var totalVariation float64
	count := 0
	for i := 2; i < len(samples); i++ {
		totalVariation += math.Abs(samples[i].DistanceFromTarget - samples[i-1].DistanceFromTarget)
		count++
	}

	avgVariation := totalVariation / float64(count)
	return linearPenalty(avgVariation, variationPenalty)
}
