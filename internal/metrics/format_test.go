package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatPercent(t *testing.T) {
	t.Parallel()

	v := func(f float64) *float64 { return &f }

	assert.Equal(t, "--", FormatPercent(nil))
	assert.Equal(t, "0%", FormatPercent(v(0)))
	assert.Equal(t, "81%", FormatPercent(v(0.81)))
	assert.Equal(t, "100%", FormatPercent(v(1)))
	assert.Equal(t, "57%", FormatPercent(v(0.57)))
}

func TestParsePercent(t *testing.T) {
	t.Parallel()

	got, ok := ParsePercent("81%")
	require.True(t, ok)
	assert.Equal(t, 0.81, got)

	for _, bad := range []string{"--", "", "81", "abc%", "0.5%"} {
		_, ok := ParsePercent(bad)
		assert.False(t, ok, "input %q", bad)
	}
}

func TestDisplayRoundTrip(t *testing.T) {
	t.Parallel()

	results := []ScreeningResult{
		Aggregate(0.9, 0.8, 0.7),
		Aggregate(0, 0, 0),
		Aggregate(1, 1, 1),
		Aggregate(0.33, 0.57, 0.29),
	}

	for _, r := range results {
		d := r.Display()
		back, err := ParseDisplay(d)
		require.NoError(t, err)
		assert.Equal(t, r, back)
	}
}

func TestParseDisplayRejectsMissing(t *testing.T) {
	t.Parallel()

	d := Aggregate(0.5, 0.5, 0.5).Display()
	d.TrackingScore = MissingValue
	_, err := ParseDisplay(d)
	assert.Error(t, err)

	d = Aggregate(0.5, 0.5, 0.5).Display()
	d.Classification = "severe"
	_, err = ParseDisplay(d)
	assert.Error(t, err)
}
