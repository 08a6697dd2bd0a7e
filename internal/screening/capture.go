package screening

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/Subhasishpanda1777/Cipher7/internal/metrics"
)

// Capture is a recorded screening: either derived samples or raw landmark
// frames per test, plus the contrast trial outcomes.
type Capture struct {
	Consent         Consent                   `json:"consent" yaml:"consent"`
	Alignment       []metrics.AlignmentSample `json:"alignment" yaml:"alignment"`
	AlignmentFrames []metrics.LandmarkFrame   `json:"alignmentFrames" yaml:"alignmentFrames"`
	Tracking        []metrics.TrackingSample  `json:"tracking" yaml:"tracking"`
	TrackingFrames  []metrics.LandmarkFrame   `json:"trackingFrames" yaml:"trackingFrames"`
	Contrast        []metrics.ContrastTrial   `json:"contrast" yaml:"contrast"`
}

// Report is the outcome of scoring a capture.
type Report struct {
	Scores           metrics.SubScores       `json:"scores" yaml:"scores"`
	Result           metrics.ScreeningResult `json:"result" yaml:"result"`
	Display          metrics.ResultDisplay   `json:"display" yaml:"display"`
	DataCompleteness float64                 `json:"dataCompleteness" yaml:"dataCompleteness"`
}

// LoadCapture reads a JSON capture file.
func LoadCapture(path string) (*Capture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read capture file: %w", err)
	}
	var c Capture
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to decode capture %s: %w", path, err)
	}
	return &c, nil
}

// ScoreCapture replays a capture through a fresh session. Recorded captures
// are scored whether or not consent metadata was stored with them.
func ScoreCapture(c *Capture, protocol *Protocol) (*Report, error) {
	consent := c.Consent
	consent.ConsentGiven = true

	s, err := NewSession("offline", consent, protocol)
	if err != nil {
		return nil, err
	}

	steps := []struct {
		test metrics.Test
		feed func() error
	}{
		{metrics.TestAlignment, func() error {
			if _, err := s.AddAlignmentSamples(c.Alignment); err != nil {
				return err
			}
			_, err := s.AddAlignmentFrames(c.AlignmentFrames)
			return err
		}},
		{metrics.TestTracking, func() error {
			if _, err := s.AddTrackingSamples(c.Tracking); err != nil {
				return err
			}
			_, err := s.AddTrackingFrames(c.TrackingFrames)
			return err
		}},
		{metrics.TestContrast, func() error {
			_, err := s.AddContrastTrials(c.Contrast)
			return err
		}},
	}

	for _, step := range steps {
		if err := s.Start(step.test); err != nil {
			return nil, err
		}
		if err := step.feed(); err != nil {
			return nil, fmt.Errorf("%s data: %w", step.test, err)
		}
		if _, err := s.Complete(step.test); err != nil {
			return nil, err
		}
	}

	result, err := s.Aggregate()
	if err != nil {
		return nil, err
	}
	scores, err := s.Scores()
	if err != nil {
		return nil, err
	}
	return &Report{
		Scores:           scores,
		Result:           result,
		Display:          result.Display(),
		DataCompleteness: s.DataCompleteness(),
	}, nil
}
