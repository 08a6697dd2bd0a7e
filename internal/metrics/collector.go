package metrics

import "fmt"

// Buffer is an append-only sample buffer owned by a single test run.
type Buffer[T any] struct {
	items []T
}

func (b *Buffer[T]) Append(item T) {
	b.items = append(b.items, item)
}

func (b *Buffer[T]) Len() int {
	return len(b.items)
}

// Items returns a copy of the buffered samples.
func (b *Buffer[T]) Items() []T {
	out := make([]T, len(b.items))
	copy(out, b.items)
	return out
}

func (b *Buffer[T]) Reset() {
	b.items = nil
}

// drain hands the buffered samples to the caller and empties the buffer.
func (b *Buffer[T]) drain() []T {
	items := b.items
	b.items = nil
	return items
}

// AlignmentCollector buffers alignment samples for one run of the alignment test.
type AlignmentCollector struct {
	buf Buffer[AlignmentSample]
}

func (c *AlignmentCollector) Append(s AlignmentSample) error {
	if !isFinite(s.TimestampMs, s.HorizontalDeviation, s.VerticalDeviation, s.NoseAngleRadians) {
		return fmt.Errorf("alignment sample at %v: %w", s.TimestampMs, ErrInvalidSample)
	}
	c.buf.Append(s)
	return nil
}

// AppendFrame derives and buffers a sample. Frames without a usable face are skipped.
func (c *AlignmentCollector) AppendFrame(frame LandmarkFrame) (bool, error) {
	sample, ok := DeriveAlignmentSample(frame)
	if !ok {
		return false, nil
	}
	if err := c.Append(sample); err != nil {
		return false, err
	}
	return true, nil
}

func (c *AlignmentCollector) Len() int { return c.buf.Len() }

func (c *AlignmentCollector) Reset() { c.buf.Reset() }

// Finalize scores the buffered samples and resets the collector.
func (c *AlignmentCollector) Finalize() AlignmentScore {
	return ScoreAlignment(c.buf.drain())
}

// TrackingCollector buffers pursuit samples; every sample must belong to one
// of the configured waypoints.
type TrackingCollector struct {
	buf       Buffer[TrackingSample]
	waypoints []Waypoint
}

func NewTrackingCollector(waypoints []Waypoint) *TrackingCollector {
	return &TrackingCollector{waypoints: waypoints}
}

// Segments is the number of waypoints N; valid segment indices are [0, N).
func (c *TrackingCollector) Segments() int {
	return len(c.waypoints)
}

func (c *TrackingCollector) Append(s TrackingSample) error {
	if s.SegmentIndex < 0 || s.SegmentIndex >= len(c.waypoints) {
		return fmt.Errorf("segment %d of %d: %w", s.SegmentIndex, len(c.waypoints), ErrInvalidSegment)
	}
	if !isFinite(s.TimestampMs, s.DistanceFromTarget, s.InterEyeLag) {
		return fmt.Errorf("tracking sample at %v: %w", s.TimestampMs, ErrInvalidSample)
	}
	c.buf.Append(s)
	return nil
}

// AppendFrame derives a sample against the waypoint active for segment.
func (c *TrackingCollector) AppendFrame(frame LandmarkFrame, segment int) (bool, error) {
	if segment < 0 || segment >= len(c.waypoints) {
		return false, fmt.Errorf("segment %d of %d: %w", segment, len(c.waypoints), ErrInvalidSegment)
	}
	sample, ok := DeriveTrackingSample(frame, c.waypoints[segment], segment)
	if !ok {
		return false, nil
	}
	if err := c.Append(sample); err != nil {
		return false, err
	}
	return true, nil
}

func (c *TrackingCollector) Len() int { return c.buf.Len() }

func (c *TrackingCollector) Reset() { c.buf.Reset() }

// CoveredSegments counts waypoints that received at least one sample.
func (c *TrackingCollector) CoveredSegments() int {
	seen := make(map[int]struct{})
	for _, s := range c.buf.items {
		seen[s.SegmentIndex] = struct{}{}
	}
	return len(seen)
}

func (c *TrackingCollector) Finalize() TrackingScore {
	return ScoreTracking(c.buf.drain())
}

// ContrastCollector buffers trial outcomes up to the fixed sequence length.
type ContrastCollector struct {
	buf      Buffer[ContrastTrial]
	capacity int
}

// NewContrastCollector accepts at most capacity trials; capacity <= 0 means unbounded.
func NewContrastCollector(capacity int) *ContrastCollector {
	return &ContrastCollector{capacity: capacity}
}

func (c *ContrastCollector) Append(t ContrastTrial) error {
	if c.capacity > 0 && c.buf.Len() >= c.capacity {
		return fmt.Errorf("%d trials already recorded: %w", c.buf.Len(), ErrSequenceComplete)
	}
	if err := validateTrial(t); err != nil {
		return err
	}
	c.buf.Append(t)
	return nil
}

func validateTrial(t ContrastTrial) error {
	switch {
	case !t.Eye.Valid():
		return fmt.Errorf("eye %q: %w", t.Eye, ErrInvalidTrial)
	case !t.ShapeShown.Valid():
		return fmt.Errorf("shape %q: %w", t.ShapeShown, ErrInvalidTrial)
	case !isFinite(t.ContrastLevel, t.ReactionTimeMs):
		return fmt.Errorf("non-finite trial values: %w", ErrInvalidTrial)
	case t.ContrastLevel <= 0 || t.ContrastLevel > 1:
		return fmt.Errorf("contrast level %v outside (0,1]: %w", t.ContrastLevel, ErrInvalidTrial)
	case t.ReactionTimeMs < 0:
		return fmt.Errorf("negative reaction time %v: %w", t.ReactionTimeMs, ErrInvalidTrial)
	}
	return nil
}

func (c *ContrastCollector) Len() int { return c.buf.Len() }

func (c *ContrastCollector) Capacity() int { return c.capacity }

func (c *ContrastCollector) Reset() { c.buf.Reset() }

func (c *ContrastCollector) Finalize() ContrastScore {
	return ScoreContrast(c.buf.drain())
}
