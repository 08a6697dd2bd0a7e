package metrics

import "math"

// Face-mesh landmark ids used by the screening tests.
var (
	LeftEyeCenterIDs  = []int{33, 133}
	RightEyeCenterIDs = []int{362, 263}
)

const (
	NoseBridgeTopID    = 6
	NoseBridgeBottomID = 168
	LeftPupilID        = 468
	RightPupilID       = 473
)

// Landmark is a normalized keypoint; X and Y are fractions of frame width and height.
type Landmark struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z,omitempty"`
}

// LandmarkFrame is the detector output for one captured video frame.
// Points is indexed by landmark id; a nil entry means the id was not detected.
type LandmarkFrame struct {
	TimestampMs float64     `json:"timestampMs"`
	Points      []*Landmark `json:"points"`
}

func (f LandmarkFrame) point(id int) *Landmark {
	if id < 0 || id >= len(f.Points) {
		return nil
	}
	return f.Points[id]
}

// averagePoint returns the centroid of the ids that are present, or nil if none are.
func (f LandmarkFrame) averagePoint(ids []int) *Landmark {
	var sumX, sumY float64
	n := 0
	for _, id := range ids {
		if p := f.point(id); p != nil {
			sumX += p.X
			sumY += p.Y
			n++
		}
	}
	if n == 0 {
		return nil
	}
	return &Landmark{X: sumX / float64(n), Y: sumY / float64(n)}
}

// DeriveAlignmentSample extracts eye symmetry and nose-bridge angle from a frame.
// It reports false when the frame lacks the needed landmarks.
func DeriveAlignmentSample(frame LandmarkFrame) (AlignmentSample, bool) {
	leftEye := frame.averagePoint(LeftEyeCenterIDs)
	rightEye := frame.averagePoint(RightEyeCenterIDs)
	noseTop := frame.point(NoseBridgeTopID)
	noseBottom := frame.point(NoseBridgeBottomID)
	if leftEye == nil || rightEye == nil || noseTop == nil || noseBottom == nil {
		return AlignmentSample{}, false
	}

	return AlignmentSample{
		TimestampMs: frame.TimestampMs,
		// The right eye is mirrored across the vertical midline.
		HorizontalDeviation: math.Abs(leftEye.X - (1 - rightEye.X)),
		VerticalDeviation:   math.Abs(leftEye.Y - rightEye.Y),
		NoseAngleRadians:    math.Atan2(noseBottom.X-noseTop.X, noseBottom.Y-noseTop.Y),
	}, true
}

// Waypoint is an on-screen pursuit target in normalized coordinates.
type Waypoint struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// DeriveTrackingSample measures how far the pupils are from the active
// waypoint. It reports false when either pupil is missing.
func DeriveTrackingSample(frame LandmarkFrame, target Waypoint, segment int) (TrackingSample, bool) {
	left := frame.point(LeftPupilID)
	right := frame.point(RightPupilID)
	if left == nil || right == nil {
		return TrackingSample{}, false
	}

	avgX := (left.X + right.X) / 2
	avgY := (left.Y + right.Y) / 2

	return TrackingSample{
		TimestampMs:        frame.TimestampMs,
		DistanceFromTarget: math.Hypot(avgX-target.X, avgY-target.Y),
		InterEyeLag:        math.Abs(left.X - right.X),
		SegmentIndex:       segment,
	}, true
}
