package screening

import (
	"fmt"
	"math"
	"os"

	"github.com/Subhasishpanda1777/Cipher7/internal/metrics"
	"gopkg.in/yaml.v3"
)

// AlignmentProtocol describes the fixed alignment capture window.
type AlignmentProtocol struct {
	DurationMs         float64 `yaml:"duration_ms" json:"durationMs"`
	SamplingIntervalMs float64 `yaml:"sampling_interval_ms" json:"samplingIntervalMs"`
}

// TrackingProtocol describes the pursuit target path. Each waypoint is shown
// for an equal slice of the window.
type TrackingProtocol struct {
	DurationMs float64            `yaml:"duration_ms" json:"durationMs"`
	Waypoints  []metrics.Waypoint `yaml:"waypoints" json:"waypoints"`
}

// ContrastProtocol is the ordered forced-choice presentation sequence.
type ContrastProtocol struct {
	StimulusMs float64                    `yaml:"stimulus_ms" json:"stimulusMs"`
	Trials     []metrics.ContrastStimulus `yaml:"trials" json:"trials"`
}

// Protocol holds the timing and stimulus definition of all three tests.
type Protocol struct {
	Alignment AlignmentProtocol `yaml:"alignment" json:"alignment"`
	Tracking  TrackingProtocol  `yaml:"tracking" json:"tracking"`
	Contrast  ContrastProtocol  `yaml:"contrast" json:"contrast"`
}

// DefaultProtocol returns the reference protocol.
func DefaultProtocol() *Protocol {
	return &Protocol{
		Alignment: AlignmentProtocol{DurationMs: 10000, SamplingIntervalMs: 150},
		Tracking: TrackingProtocol{
			DurationMs: 12000,
			Waypoints: []metrics.Waypoint{
				{X: 0.2, Y: 0.5},
				{X: 0.8, Y: 0.5},
				{X: 0.5, Y: 0.2},
				{X: 0.5, Y: 0.8},
			},
		},
		Contrast: ContrastProtocol{
			StimulusMs: 2000,
			Trials: []metrics.ContrastStimulus{
				{Eye: metrics.EyeLeft, ContrastLevel: 0.30, Shape: metrics.ShapeCircle},
				{Eye: metrics.EyeRight, ContrastLevel: 0.25, Shape: metrics.ShapeTriangle},
				{Eye: metrics.EyeLeft, ContrastLevel: 0.20, Shape: metrics.ShapeSquare},
				{Eye: metrics.EyeRight, ContrastLevel: 0.18, Shape: metrics.ShapeCircle},
				{Eye: metrics.EyeLeft, ContrastLevel: 0.15, Shape: metrics.ShapeTriangle},
				{Eye: metrics.EyeRight, ContrastLevel: 0.12, Shape: metrics.ShapeSquare},
			},
		},
	}
}

// LoadProtocol reads a protocol file. An empty path yields the default protocol.
// Sections missing from the file keep their default values.
func LoadProtocol(path string) (*Protocol, error) {
	p := DefaultProtocol()
	if path == "" {
		return p, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read protocol file: %w", err)
	}
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal protocol YAML: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid protocol %s: %w", path, err)
	}
	return p, nil
}

// Validate checks the protocol is usable for scoring.
func (p *Protocol) Validate() error {
	if p.Alignment.DurationMs <= 0 || p.Alignment.SamplingIntervalMs <= 0 {
		return fmt.Errorf("alignment duration and sampling interval must be positive")
	}
	if p.Tracking.DurationMs <= 0 {
		return fmt.Errorf("tracking duration must be positive")
	}
	if len(p.Tracking.Waypoints) == 0 {
		return fmt.Errorf("tracking needs at least one waypoint")
	}
	for i, w := range p.Tracking.Waypoints {
		if w.X < 0 || w.X > 1 || w.Y < 0 || w.Y > 1 {
			return fmt.Errorf("waypoint %d (%v, %v) outside the unit square", i, w.X, w.Y)
		}
	}
	if p.Contrast.StimulusMs <= 0 {
		return fmt.Errorf("contrast stimulus duration must be positive")
	}

	perEye := map[metrics.Eye]int{}
	for i, t := range p.Contrast.Trials {
		if !t.Eye.Valid() {
			return fmt.Errorf("trial %d: unknown eye %q", i, t.Eye)
		}
		if !t.Shape.Valid() {
			return fmt.Errorf("trial %d: unknown shape %q", i, t.Shape)
		}
		if t.ContrastLevel <= 0 || t.ContrastLevel > 1 {
			return fmt.Errorf("trial %d: contrast %v outside (0,1]", i, t.ContrastLevel)
		}
		perEye[t.Eye]++
	}
	if perEye[metrics.EyeLeft] == 0 || perEye[metrics.EyeRight] == 0 {
		return fmt.Errorf("contrast sequence needs at least one trial per eye")
	}
	return nil
}

// SegmentAt maps time since the start of the tracking test to the active waypoint.
func (p *Protocol) SegmentAt(elapsedMs float64) int {
	n := len(p.Tracking.Waypoints)
	if n == 0 || elapsedMs <= 0 {
		return 0
	}
	slice := p.Tracking.DurationMs / float64(n)
	seg := int(math.Floor(elapsedMs / slice))
	if seg > n-1 {
		return n - 1
	}
	return seg
}

// NominalAlignmentSamples is the expected sample count of a full alignment window.
func (p *Protocol) NominalAlignmentSamples() int {
	return int(math.Floor(p.Alignment.DurationMs / p.Alignment.SamplingIntervalMs))
}
