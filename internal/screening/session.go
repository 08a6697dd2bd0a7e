// Package screening orchestrates one guardian-consented screening: the three
// timed tests run in order, each feeding its own sample collector, and the
// final risk result is aggregated once all three sub-scores exist.
package screening

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Subhasishpanda1777/Cipher7/internal/metrics"
)

var (
	ErrConsentRequired   = errors.New("guardian consent is required")
	ErrInvalidTransition = errors.New("invalid screening transition")
	ErrSessionNotFound   = errors.New("screening session not found")
	ErrIncomplete        = errors.New("screening is incomplete")
	ErrUnknownTest       = errors.New("unknown screening test")
)

// Stage is the position of a session in the screening flow.
type Stage string

const (
	StageIdle             Stage = "idle"
	StageAlignmentRunning Stage = "alignment_running"
	StageAlignmentDone    Stage = "alignment_done"
	StageTrackingRunning  Stage = "tracking_running"
	StageTrackingDone     Stage = "tracking_done"
	StageContrastRunning  Stage = "contrast_running"
	StageContrastDone     Stage = "contrast_done"
	StageAggregated       Stage = "aggregated"
)

// stageOrder lists, per test, the stage that must precede it and its own
// running and done stages.
var stageOrder = map[metrics.Test]struct{ before, running, done Stage }{
	metrics.TestAlignment: {StageIdle, StageAlignmentRunning, StageAlignmentDone},
	metrics.TestTracking:  {StageAlignmentDone, StageTrackingRunning, StageTrackingDone},
	metrics.TestContrast:  {StageTrackingDone, StageContrastRunning, StageContrastDone},
}

// Consent is the metadata captured before a screening may start.
type Consent struct {
	ConsentGiven bool   `json:"consentGiven"`
	ParentID     string `json:"parentId"`
	ChildID      string `json:"childId"`
	Notes        string `json:"notes"`
}

// Session is the aggregate of one screening. It is safe for concurrent use.
type Session struct {
	Key     string
	Consent Consent

	mu       sync.Mutex
	protocol *Protocol
	now      func() time.Time

	stage        Stage
	createdAt    time.Time
	lastActivity time.Time
	startedAt    time.Time
	finishedAt   time.Time

	alignment metrics.AlignmentCollector
	tracking  *metrics.TrackingCollector
	contrast  *metrics.ContrastCollector

	// first tracking frame timestamp, segments are measured from here
	trackingOrigin *float64

	alignmentScore *metrics.AlignmentScore
	trackingScore  *metrics.TrackingScore
	contrastScore  *metrics.ContrastScore
	result         *metrics.ScreeningResult

	alignmentCount  int
	trackingCount   int
	trackingCovered int
	contrastCount   int

	recordID uint
}

// NewSession starts a screening in the idle stage. Consent must be given.
func NewSession(key string, consent Consent, protocol *Protocol) (*Session, error) {
	return newSession(key, consent, protocol, time.Now)
}

func newSession(key string, consent Consent, protocol *Protocol, now func() time.Time) (*Session, error) {
	if !consent.ConsentGiven {
		return nil, ErrConsentRequired
	}
	if protocol == nil {
		protocol = DefaultProtocol()
	}
	t := now()
	return &Session{
		Key:          key,
		Consent:      consent,
		protocol:     protocol,
		now:          now,
		stage:        StageIdle,
		createdAt:    t,
		lastActivity: t,
		tracking:     metrics.NewTrackingCollector(protocol.Tracking.Waypoints),
		contrast:     metrics.NewContrastCollector(len(protocol.Contrast.Trials)),
	}, nil
}

func (s *Session) Protocol() *Protocol { return s.protocol }

func (s *Session) Stage() Stage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stage
}

// LastActivity is the time of the most recent accepted call.
func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

func (s *Session) touch() {
	s.lastActivity = s.now()
}

// Start begins a test. A test that is running or done may be restarted as
// long as the next test has not begun; its buffer and score are discarded.
func (s *Session) Start(test metrics.Test) error {
	order, ok := stageOrder[test]
	if !ok {
		return fmt.Errorf("%q: %w", test, ErrUnknownTest)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.stage {
	case order.before, order.running, order.done:
	default:
		return fmt.Errorf("cannot start %s from %s: %w", test, s.stage, ErrInvalidTransition)
	}

	switch test {
	case metrics.TestAlignment:
		s.alignment.Reset()
		s.alignmentScore = nil
		s.alignmentCount = 0
		if s.startedAt.IsZero() {
			s.startedAt = s.now()
		}
	case metrics.TestTracking:
		s.tracking.Reset()
		s.trackingScore = nil
		s.trackingOrigin = nil
		s.trackingCount, s.trackingCovered = 0, 0
	case metrics.TestContrast:
		s.contrast.Reset()
		s.contrastScore = nil
		s.contrastCount = 0
	}

	s.stage = order.running
	s.touch()
	return nil
}

func (s *Session) requireRunning(test metrics.Test) error {
	if s.stage != stageOrder[test].running {
		return fmt.Errorf("%s is not running (stage %s): %w", test, s.stage, ErrInvalidTransition)
	}
	return nil
}

// AddAlignmentSamples buffers samples in order and stops at the first invalid one.
// It returns the number of samples accepted.
func (s *Session) AddAlignmentSamples(samples []metrics.AlignmentSample) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireRunning(metrics.TestAlignment); err != nil {
		return 0, err
	}
	s.touch()
	for i, sample := range samples {
		if err := s.alignment.Append(sample); err != nil {
			return i, err
		}
	}
	return len(samples), nil
}

// AddAlignmentFrames derives samples from landmark frames. Frames without a
// detectable face are skipped and not counted.
func (s *Session) AddAlignmentFrames(frames []metrics.LandmarkFrame) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireRunning(metrics.TestAlignment); err != nil {
		return 0, err
	}
	s.touch()
	added := 0
	for _, f := range frames {
		ok, err := s.alignment.AppendFrame(f)
		if err != nil {
			return added, err
		}
		if ok {
			added++
		}
	}
	return added, nil
}

func (s *Session) AddTrackingSamples(samples []metrics.TrackingSample) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireRunning(metrics.TestTracking); err != nil {
		return 0, err
	}
	s.touch()
	for i, sample := range samples {
		if err := s.tracking.Append(sample); err != nil {
			return i, err
		}
	}
	return len(samples), nil
}

// AddTrackingFrames derives pursuit samples, assigning each frame to the
// waypoint active at its offset from the first tracking frame.
func (s *Session) AddTrackingFrames(frames []metrics.LandmarkFrame) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireRunning(metrics.TestTracking); err != nil {
		return 0, err
	}
	s.touch()
	added := 0
	for _, f := range frames {
		if s.trackingOrigin == nil {
			origin := f.TimestampMs
			s.trackingOrigin = &origin
		}
		segment := s.protocol.SegmentAt(f.TimestampMs - *s.trackingOrigin)
		ok, err := s.tracking.AppendFrame(f, segment)
		if err != nil {
			return added, err
		}
		if ok {
			added++
		}
	}
	return added, nil
}

func (s *Session) AddContrastTrials(trials []metrics.ContrastTrial) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireRunning(metrics.TestContrast); err != nil {
		return 0, err
	}
	s.touch()
	for i, trial := range trials {
		if err := s.contrast.Append(trial); err != nil {
			return i, err
		}
	}
	return len(trials), nil
}

// Complete ends a running test and reduces its buffer to a sub-score.
func (s *Session) Complete(test metrics.Test) (metrics.SubScorer, error) {
	order, ok := stageOrder[test]
	if !ok {
		return nil, fmt.Errorf("%q: %w", test, ErrUnknownTest)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireRunning(test); err != nil {
		return nil, err
	}

	var score metrics.SubScorer
	switch test {
	case metrics.TestAlignment:
		s.alignmentCount = s.alignment.Len()
		a := s.alignment.Finalize()
		s.alignmentScore = &a
		score = a
	case metrics.TestTracking:
		s.trackingCount = s.tracking.Len()
		s.trackingCovered = s.tracking.CoveredSegments()
		t := s.tracking.Finalize()
		s.trackingScore = &t
		score = t
	case metrics.TestContrast:
		s.contrastCount = s.contrast.Len()
		c := s.contrast.Finalize()
		s.contrastScore = &c
		score = c
	}

	s.stage = order.done
	s.touch()
	return score, nil
}

// Aggregate produces the final result once all three tests are done.
// Repeated calls return the same result.
func (s *Session) Aggregate() (metrics.ScreeningResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.stage {
	case StageAggregated:
		return *s.result, nil
	case StageContrastDone:
	default:
		return metrics.ScreeningResult{}, fmt.Errorf("cannot aggregate from %s: %w", s.stage, ErrIncomplete)
	}

	result := metrics.AggregateScores(*s.alignmentScore, *s.trackingScore, *s.contrastScore)
	s.result = &result
	s.stage = StageAggregated
	s.finishedAt = s.now()
	s.touch()
	return result, nil
}

// Scores returns the three sub-score reductions. It fails until aggregation.
func (s *Session) Scores() (metrics.SubScores, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stage != StageAggregated {
		return metrics.SubScores{}, fmt.Errorf("stage %s: %w", s.stage, ErrIncomplete)
	}
	return metrics.SubScores{
		Alignment: *s.alignmentScore,
		Tracking:  *s.trackingScore,
		Contrast:  *s.contrastScore,
	}, nil
}

// Duration is the time from the first alignment start to aggregation.
func (s *Session) Duration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.startedAt.IsZero() || s.finishedAt.IsZero() {
		return 0
	}
	return s.finishedAt.Sub(s.startedAt)
}

// DataCompleteness is the percentage of the nominal data each completed test
// captured, averaged over the three tests.
func (s *Session) DataCompleteness() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completeness()
}

func (s *Session) completeness() float64 {
	var parts [3]float64
	if n := s.protocol.NominalAlignmentSamples(); n > 0 {
		parts[0] = metrics.Clamp(float64(s.alignmentCount)/float64(n), 0, 1)
	}
	if n := len(s.protocol.Tracking.Waypoints); n > 0 {
		parts[1] = float64(s.trackingCovered) / float64(n)
	}
	if n := len(s.protocol.Contrast.Trials); n > 0 {
		parts[2] = float64(s.contrastCount) / float64(n)
	}
	return metrics.Round2((parts[0] + parts[1] + parts[2]) / 3 * 100)
}

// SetRecordID remembers the persisted record for this session.
func (s *Session) SetRecordID(id uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recordID = id
}

func (s *Session) RecordID() uint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recordID
}

// Status is a point-in-time snapshot of a session.
type Status struct {
	Key              string                   `json:"sessionKey"`
	Stage            Stage                    `json:"stage"`
	ParentID         string                   `json:"parentId"`
	ChildID          string                   `json:"childId"`
	AlignmentSamples int                      `json:"alignmentSamples"`
	TrackingSamples  int                      `json:"trackingSamples"`
	ContrastTrials   int                      `json:"contrastTrials"`
	Alignment        *metrics.AlignmentScore  `json:"alignment,omitempty"`
	Tracking         *metrics.TrackingScore   `json:"tracking,omitempty"`
	Contrast         *metrics.ContrastScore   `json:"contrast,omitempty"`
	Result           *metrics.ScreeningResult `json:"result,omitempty"`
	DataCompleteness float64                  `json:"dataCompleteness"`
	RecordID         uint                     `json:"recordId,omitempty"`
	CreatedAt        time.Time                `json:"createdAt"`
	LastActivity     time.Time                `json:"lastActivity"`
}

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		Key:              s.Key,
		Stage:            s.stage,
		ParentID:         s.Consent.ParentID,
		ChildID:          s.Consent.ChildID,
		AlignmentSamples: s.alignmentCount,
		TrackingSamples:  s.trackingCount,
		ContrastTrials:   s.contrastCount,
		Alignment:        s.alignmentScore,
		Tracking:         s.trackingScore,
		Contrast:         s.contrastScore,
		Result:           s.result,
		DataCompleteness: s.completeness(),
		RecordID:         s.recordID,
		CreatedAt:        s.createdAt,
		LastActivity:     s.lastActivity,
	}
	switch s.stage {
	case StageAlignmentRunning:
		st.AlignmentSamples = s.alignment.Len()
	case StageTrackingRunning:
		st.TrackingSamples = s.tracking.Len()
	case StageContrastRunning:
		st.ContrastTrials = s.contrast.Len()
	}
	return st
}
