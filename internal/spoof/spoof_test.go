package spoof

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaharg/timewatch/internal/timesheet"
)

func baseConfig() Config {
	return Config{
		MinimalStart:  timesheet.TimeOfDay{Hour: 9, Minute: 0},
		MaximalEnd:    timesheet.TimeOfDay{Hour: 19, Minute: 0},
		NominalLength: 9,
		MaxLength:     10,
		Randomize:     true,
	}
}

func TestFixedReturnsConfiguredBounds(t *testing.T) {
	cfg := baseConfig()
	cfg.Randomize = false

	got := New(cfg, nil).Spoof()

	assert.Equal(t, cfg.MinimalStart, got.Begin)
	assert.Equal(t, cfg.MaximalEnd, got.End)
}

func TestRandomizedStaysWithinBounds(t *testing.T) {
	cfg := baseConfig()
	s := New(cfg, rand.New(rand.NewSource(1)))

	maxEnd := cfg.MinimalStart.AddMinutes(cfg.MaxLength * 60)
	if maxEnd.After(cfg.MaximalEnd) {
		maxEnd = cfg.MaximalEnd
	}

	for i := 0; i < 1000; i++ {
		got := s.Spoof()
		require.Equal(t, cfg.MinimalStart, got.Begin)
		require.True(t, got.End.After(got.Begin), "end %s not after begin %s", got.End, got.Begin)
		require.False(t, got.End.After(maxEnd), "end %s past cap %s", got.End, maxEnd)
	}
}

func TestRandomizedVariesEnd(t *testing.T) {
	s := New(baseConfig(), rand.New(rand.NewSource(7)))

	seen := make(map[timesheet.TimeOfDay]struct{})
	for i := 0; i < 200; i++ {
		seen[s.Spoof().End] = struct{}{}
	}
	assert.Greater(t, len(seen), 10)
}

func TestTightConfigurationTerminatesWithFallback(t *testing.T) {
	// Nominal length alone always overshoots the maximal end time, so no
	// sample can be accepted and the fallback boundary must be returned.
	cfg := Config{
		MinimalStart:  timesheet.TimeOfDay{Hour: 9, Minute: 0},
		MaximalEnd:    timesheet.TimeOfDay{Hour: 10, Minute: 0},
		NominalLength: 9,
		MaxLength:     10,
		Randomize:     true,
	}
	s := New(cfg, rand.New(rand.NewSource(3)))

	got := s.Spoof()

	assert.Equal(t, cfg.MinimalStart, got.Begin)
	assert.Equal(t, cfg.MaximalEnd, got.End)
}

func TestJitteredBeginStaysNearMinimalStart(t *testing.T) {
	cfg := baseConfig()
	cfg.JitterBegin = true
	s := New(cfg, rand.New(rand.NewSource(11)))

	lower := cfg.MinimalStart.AddMinutes(-beginJitterRange)
	upper := cfg.MinimalStart.AddMinutes(beginJitterRange)

	for i := 0; i < 500; i++ {
		got := s.Spoof()
		require.False(t, got.Begin.Before(lower), "begin %s below jitter window", got.Begin)
		require.False(t, got.Begin.After(upper), "begin %s above jitter window", got.Begin)
		require.True(t, got.End.After(got.Begin))
	}
}
