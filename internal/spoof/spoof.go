// Package spoof produces begin/end work times for home days, either fixed
// from configuration or randomized within the configured bounds.
package spoof

import (
	"math/rand"

	"github.com/shaharg/timewatch/internal/timesheet"
)

// Strategy yields the begin/end pair to report for a home day.
type Strategy interface {
	Spoof() timesheet.TimeRange
}

// Config bounds the spoofed day. MinimalStart and MaximalEnd come from the
// work_day configuration; lengths are whole hours.
type Config struct {
	MinimalStart  timesheet.TimeOfDay
	MaximalEnd    timesheet.TimeOfDay
	NominalLength int
	MaxLength     int
	Randomize     bool
	JitterBegin   bool
}

// New selects the strategy for the configuration. rng may be nil, in which
// case the shared source is used; tests pass a seeded one.
func New(cfg Config, rng *rand.Rand) Strategy {
	if !cfg.Randomize {
		return &Fixed{Begin: cfg.MinimalStart, End: cfg.MaximalEnd}
	}
	return &Randomized{cfg: cfg, rng: rng}
}

// Fixed reports the configured bounds verbatim.
type Fixed struct {
	Begin timesheet.TimeOfDay
	End   timesheet.TimeOfDay
}

func (f *Fixed) Spoof() timesheet.TimeRange {
	return timesheet.TimeRange{Begin: f.Begin, End: f.End}
}

// Randomized starts at the minimal start time and samples an end around the
// nominal day length, rejecting candidates that overrun the maximum length
// or the maximal end time. Sampling is bounded: after maxAttempts the end
// falls back to the nearest boundary so a tight configuration cannot loop
// forever.
type Randomized struct {
	cfg Config
	rng *rand.Rand
}

const (
	maxAttempts      = 100
	beginJitterRange = 43 // minutes either way
)

func (r *Randomized) Spoof() timesheet.TimeRange {
	begin := r.cfg.MinimalStart
	if r.cfg.JitterBegin {
		begin = begin.AddMinutes(r.intn(2*beginJitterRange+1) - beginJitterRange)
	}

	latest := r.endCap(begin)
	if !latest.After(begin) {
		// Degenerate bounds (jittered begin at or past the cap): still
		// produce a non-empty range.
		latest = begin.AddMinutes(1)
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		offset := (r.cfg.NominalLength+r.intn(3)-1)*60 + r.intn(60)
		end := begin.AddMinutes(offset)
		if end.After(begin) && !end.After(latest) {
			return timesheet.TimeRange{Begin: begin, End: end}
		}
	}

	return timesheet.TimeRange{Begin: begin, End: latest}
}

// endCap is the latest admissible end: whichever of begin+max_length and the
// configured maximal end time comes first.
func (r *Randomized) endCap(begin timesheet.TimeOfDay) timesheet.TimeOfDay {
	byLength := begin.AddMinutes(r.cfg.MaxLength * 60)
	if byLength.After(r.cfg.MaximalEnd) {
		return r.cfg.MaximalEnd
	}
	return byLength
}

func (r *Randomized) intn(n int) int {
	if r.rng != nil {
		return r.rng.Intn(n)
	}
	return rand.Intn(n)
}
