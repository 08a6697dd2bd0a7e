package screening

import (
	"math"
	"testing"
	"time"

	"github.com/Subhasishpanda1777/Cipher7/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testConsent = Consent{ConsentGiven: true, ParentID: "parent-1", ChildID: "child-1", Notes: "wears glasses"}

type fakeClock struct{ t time.Time }

func newFakeClock() *fakeClock { return &fakeClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)} }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestSession(t *testing.T) (*Session, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	s, err := newSession("key-1", testConsent, DefaultProtocol(), clock.now)
	require.NoError(t, err)
	return s, clock
}

func pupilFrame(ts, x, y float64) metrics.LandmarkFrame {
	f := metrics.LandmarkFrame{TimestampMs: ts, Points: make([]*metrics.Landmark, 478)}
	f.Points[metrics.LeftPupilID] = &metrics.Landmark{X: x, Y: y}
	f.Points[metrics.RightPupilID] = &metrics.Landmark{X: x, Y: y}
	return f
}

func fullContrastRun() []metrics.ContrastTrial {
	var trials []metrics.ContrastTrial
	for _, stim := range DefaultProtocol().Contrast.Trials {
		trials = append(trials, metrics.ContrastTrial{
			Eye: stim.Eye, ContrastLevel: stim.ContrastLevel, ShapeShown: stim.Shape, Correct: true, ReactionTimeMs: 1000,
		})
	}
	return trials
}

func TestNewSessionRequiresConsent(t *testing.T) {
	t.Parallel()

	_, err := NewSession("k", Consent{ParentID: "p"}, nil)
	assert.ErrorIs(t, err, ErrConsentRequired)

	s, err := NewSession("k", testConsent, nil)
	require.NoError(t, err)
	assert.Equal(t, StageIdle, s.Stage())
	assert.Equal(t, DefaultProtocol(), s.Protocol())
}

func TestSessionFlow(t *testing.T) {
	t.Parallel()

	s, clock := newTestSession(t)

	// Tests must run in order.
	assert.ErrorIs(t, s.Start(metrics.TestTracking), ErrInvalidTransition)
	assert.ErrorIs(t, s.Start(metrics.TestContrast), ErrInvalidTransition)
	assert.ErrorIs(t, s.Start("depth"), ErrUnknownTest)
	_, err := s.AddAlignmentSamples([]metrics.AlignmentSample{{}})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	require.NoError(t, s.Start(metrics.TestAlignment))
	assert.Equal(t, StageAlignmentRunning, s.Stage())

	samples := make([]metrics.AlignmentSample, 66)
	n, err := s.AddAlignmentSamples(samples)
	require.NoError(t, err)
	assert.Equal(t, 66, n)
	assert.Equal(t, 66, s.Status().AlignmentSamples)

	_, err = s.Aggregate()
	assert.ErrorIs(t, err, ErrIncomplete)

	clock.advance(10 * time.Second)
	score, err := s.Complete(metrics.TestAlignment)
	require.NoError(t, err)
	assert.Equal(t, 1.0, score.SubScore())
	assert.Equal(t, StageAlignmentDone, s.Stage())

	_, err = s.Complete(metrics.TestAlignment)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	require.NoError(t, s.Start(metrics.TestTracking))
	// Only two of four waypoints get samples.
	_, err = s.AddTrackingSamples([]metrics.TrackingSample{
		{SegmentIndex: 0}, {SegmentIndex: 0}, {SegmentIndex: 1},
	})
	require.NoError(t, err)
	clock.advance(12 * time.Second)
	_, err = s.Complete(metrics.TestTracking)
	require.NoError(t, err)

	// Alignment can no longer be restarted once tracking has begun.
	assert.ErrorIs(t, s.Start(metrics.TestAlignment), ErrInvalidTransition)

	require.NoError(t, s.Start(metrics.TestContrast))
	_, err = s.AddContrastTrials(fullContrastRun())
	require.NoError(t, err)
	clock.advance(15 * time.Second)
	_, err = s.Complete(metrics.TestContrast)
	require.NoError(t, err)
	assert.Equal(t, StageContrastDone, s.Stage())

	_, err = s.Scores()
	assert.ErrorIs(t, err, ErrIncomplete)

	result, err := s.Aggregate()
	require.NoError(t, err)
	assert.Equal(t, StageAggregated, s.Stage())

	scores, err := s.Scores()
	require.NoError(t, err)
	assert.Equal(t, scores.Result(), result)

	again, err := s.Aggregate()
	require.NoError(t, err)
	assert.Equal(t, result, again)

	assert.Equal(t, 37*time.Second, s.Duration())
	// alignment 66/66, tracking 2/4, contrast 6/6
	assert.Equal(t, 83.33, s.DataCompleteness())

	st := s.Status()
	assert.Equal(t, "key-1", st.Key)
	assert.Equal(t, "child-1", st.ChildID)
	assert.Equal(t, 3, st.TrackingSamples)
	assert.Equal(t, 6, st.ContrastTrials)
	require.NotNil(t, st.Result)
	assert.Equal(t, result, *st.Result)
	assert.Equal(t, 2, st.Tracking.SegmentCount)

	assert.ErrorIs(t, s.Start(metrics.TestContrast), ErrInvalidTransition)
}

func TestSessionRestart(t *testing.T) {
	t.Parallel()

	s, _ := newTestSession(t)
	require.NoError(t, s.Start(metrics.TestAlignment))
	_, err := s.AddAlignmentSamples([]metrics.AlignmentSample{{HorizontalDeviation: 0.3}, {HorizontalDeviation: 0}})
	require.NoError(t, err)
	first, err := s.Complete(metrics.TestAlignment)
	require.NoError(t, err)
	assert.Less(t, first.SubScore(), 1.0)

	// Restart from done discards the previous run.
	require.NoError(t, s.Start(metrics.TestAlignment))
	st := s.Status()
	assert.Nil(t, st.Alignment)
	assert.Equal(t, 0, st.AlignmentSamples)

	// Restart while running also clears the buffer.
	_, err = s.AddAlignmentSamples([]metrics.AlignmentSample{{}, {}})
	require.NoError(t, err)
	require.NoError(t, s.Start(metrics.TestAlignment))
	assert.Equal(t, 0, s.Status().AlignmentSamples)
}

func TestSessionRejectsInvalidSamples(t *testing.T) {
	t.Parallel()

	s, _ := newTestSession(t)
	require.NoError(t, s.Start(metrics.TestAlignment))

	n, err := s.AddAlignmentSamples([]metrics.AlignmentSample{{}, {NoseAngleRadians: math.NaN()}, {}})
	assert.ErrorIs(t, err, metrics.ErrInvalidSample)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, s.Status().AlignmentSamples)

	_, err = s.Complete(metrics.TestAlignment)
	require.NoError(t, err)
	require.NoError(t, s.Start(metrics.TestTracking))

	_, err = s.AddTrackingSamples([]metrics.TrackingSample{{SegmentIndex: 9}})
	assert.ErrorIs(t, err, metrics.ErrInvalidSegment)
}

func TestSessionTrackingFramesAreSegmentedFromFirstFrame(t *testing.T) {
	t.Parallel()

	s, _ := newTestSession(t)
	require.NoError(t, s.Start(metrics.TestAlignment))
	_, err := s.Complete(metrics.TestAlignment)
	require.NoError(t, err)
	require.NoError(t, s.Start(metrics.TestTracking))

	wp := s.Protocol().Tracking.Waypoints
	frames := []metrics.LandmarkFrame{
		pupilFrame(1000, wp[0].X, wp[0].Y),  // elapsed 0
		pupilFrame(2000, wp[0].X, wp[0].Y),  // 1000
		pupilFrame(4500, wp[1].X, wp[1].Y),  // 3500
		pupilFrame(7000, wp[2].X, wp[2].Y),  // 6000
		pupilFrame(10500, wp[3].X, wp[3].Y), // 9500
		{TimestampMs: 11000},                // no face
	}
	n, err := s.AddTrackingFrames(frames)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	score, err := s.Complete(metrics.TestTracking)
	require.NoError(t, err)
	ts := score.(metrics.TrackingScore)
	assert.Equal(t, 4, ts.SegmentCount)
	assert.Equal(t, 1.0, ts.DistanceScore)
	assert.Equal(t, 1.0, ts.LagScore)
}

func TestSessionAlignmentFrames(t *testing.T) {
	t.Parallel()

	s, _ := newTestSession(t)
	require.NoError(t, s.Start(metrics.TestAlignment))

	face := metrics.LandmarkFrame{Points: make([]*metrics.Landmark, 478)}
	face.Points[33] = &metrics.Landmark{X: 0.3, Y: 0.4}
	face.Points[263] = &metrics.Landmark{X: 0.7, Y: 0.4}
	face.Points[metrics.NoseBridgeTopID] = &metrics.Landmark{X: 0.5, Y: 0.4}
	face.Points[metrics.NoseBridgeBottomID] = &metrics.Landmark{X: 0.5, Y: 0.5}

	n, err := s.AddAlignmentFrames([]metrics.LandmarkFrame{face, {}, face})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, s.Status().AlignmentSamples)
}

func TestContrastSequenceLimit(t *testing.T) {
	t.Parallel()

	s, _ := newTestSession(t)
	for _, test := range []metrics.Test{metrics.TestAlignment, metrics.TestTracking} {
		require.NoError(t, s.Start(test))
		_, err := s.Complete(test)
		require.NoError(t, err)
	}
	require.NoError(t, s.Start(metrics.TestContrast))

	trials := append(fullContrastRun(), fullContrastRun()[0])
	n, err := s.AddContrastTrials(trials)
	assert.ErrorIs(t, err, metrics.ErrSequenceComplete)
	assert.Equal(t, 6, n)
}

func TestRecordID(t *testing.T) {
	t.Parallel()

	s, _ := newTestSession(t)
	assert.Zero(t, s.RecordID())
	s.SetRecordID(42)
	assert.Equal(t, uint(42), s.RecordID())
	assert.Equal(t, uint(42), s.Status().RecordID)
}
