// Package classify decides what kind of day a date was: weekend, sick,
// vacation, holiday, office or home. Rules are evaluated in a fixed order
// and the first match wins, so the assignment is total and unambiguous.
package classify

import (
	"context"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/shaharg/timewatch/internal/evidence"
	"github.com/shaharg/timewatch/internal/portal"
	"github.com/shaharg/timewatch/internal/timesheet"
)

// Coordinates rounded to this precision give roughly 100 m resolution, a
// neighborhood or a street.
const coordinatePrecision = 1e-3

// Config carries the classification parameters; immutable after construction.
type Config struct {
	WeekendDays      []time.Weekday
	WorkLat          float64
	WorkLong         float64
	Tolerance        float64 // multiplied by coordinatePrecision degrees
	HolidayDayPhrase string
	HolidayEvePhrase string
	VacationExcuse   portal.ExcuseCode
}

// Result is the classification of one date. Times is set only for office
// days, where it spans the work-located presence.
type Result struct {
	Category Category
	Times    *timesheet.TimeRange
}

// Request is everything one date's classification consumes: the portal state
// read once up front, and the explicit vacation and sick date sets.
type Request struct {
	Date     time.Time
	State    portal.DayState
	Vacation *timesheet.DateSet
	Sick     *timesheet.DateSet
}

type Classifier struct {
	cfg      Config
	provider evidence.Provider
	logger   *slog.Logger
}

func New(cfg Config, provider evidence.Provider, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Classifier{cfg: cfg, provider: provider, logger: logger}
}

// rule inspects one request. A nil result means not applicable and the chain
// moves on; an error aborts the date (the driver skips it).
type rule func(ctx context.Context, req Request) (*Result, error)

// Classify runs the rule chain. The final rule always matches, so a nil
// error implies a result.
func (c *Classifier) Classify(ctx context.Context, req Request) (Result, error) {
	rules := []rule{
		c.weekend,
		c.sick,
		c.vacation,
		c.holiday,
		c.office,
		c.home,
	}

	for _, r := range rules {
		res, err := r(ctx, req)
		if err != nil {
			return Result{}, err
		}
		if res != nil {
			return *res, nil
		}
	}

	// Unreachable: home always matches.
	return Result{Category: Home}, nil
}

func (c *Classifier) weekend(_ context.Context, req Request) (*Result, error) {
	for _, d := range c.cfg.WeekendDays {
		if req.Date.Weekday() == d {
			return &Result{Category: Weekend}, nil
		}
	}
	return nil, nil
}

func (c *Classifier) sick(_ context.Context, req Request) (*Result, error) {
	if req.Sick != nil && req.Sick.Contains(req.Date) {
		return &Result{Category: Sick}, nil
	}
	return nil, nil
}

// vacation matches when the date is in the explicit vacation set or the
// portal already records the vacation excuse. An already-recorded excuse is
// respected, never re-derived.
func (c *Classifier) vacation(_ context.Context, req Request) (*Result, error) {
	if req.Vacation != nil && req.Vacation.Contains(req.Date) {
		return &Result{Category: Vacation}, nil
	}
	if req.State.Excuse != portal.ExcuseNone && req.State.Excuse == c.cfg.VacationExcuse {
		return &Result{Category: Vacation}, nil
	}
	return nil, nil
}

// holiday matches when the date's page carries exactly one label whose text
// matches the holiday-day or holiday-eve phrase. More than one label is an
// inconsistency in the scraped page: logged, treated as not applicable.
func (c *Classifier) holiday(_ context.Context, req Request) (*Result, error) {
	labels := req.State.HolidayLabels
	switch len(labels) {
	case 0:
		return nil, nil
	case 1:
	default:
		c.logger.Warn("multiple holiday labels for date, skipping holiday rule",
			"date", req.Date.Format("2006-01-02"), "labels", labels)
		return nil, nil
	}

	switch {
	case phraseMatches(labels[0], c.cfg.HolidayDayPhrase):
		return &Result{Category: HolidayDay}, nil
	case phraseMatches(labels[0], c.cfg.HolidayEvePhrase):
		return &Result{Category: HolidayEve}, nil
	default:
		// Label exists but matches neither phrase: not a holiday.
		return nil, nil
	}
}

// office matches when at least one place-interval that day lies within the
// distance tolerance of the work coordinates. Work hours span the earliest
// begin to the latest end across the matching intervals, in local time.
func (c *Classifier) office(ctx context.Context, req Request) (*Result, error) {
	intervals, err := c.provider.Intervals(ctx, req.Date)
	if err != nil {
		return nil, err
	}

	var atWork []evidence.PlaceInterval
	for _, iv := range intervals {
		if c.withinTolerance(iv) {
			atWork = append(atWork, iv)
		}
	}
	if len(atWork) == 0 {
		return nil, nil
	}

	begin := atWork[0].Begin
	end := atWork[0].End
	for _, iv := range atWork[1:] {
		if iv.Begin.Before(begin) {
			begin = iv.Begin
		}
		if iv.End.After(end) {
			end = iv.End
		}
	}

	times := &timesheet.TimeRange{
		Begin: timesheet.FromTime(begin.Local()),
		End:   timesheet.FromTime(end.Local()),
	}
	return &Result{Category: Office, Times: times}, nil
}

func (c *Classifier) home(_ context.Context, _ Request) (*Result, error) {
	return &Result{Category: Home}, nil
}

func (c *Classifier) withinTolerance(iv evidence.PlaceInterval) bool {
	tol := c.cfg.Tolerance * coordinatePrecision
	return math.Abs(iv.Lat-round5(c.cfg.WorkLat)) <= tol &&
		math.Abs(iv.Long-round5(c.cfg.WorkLong)) <= tol
}

func round5(f float64) float64 {
	return math.Round(f*1e5) / 1e5
}

// phraseMatches compares the label against the phrase by rune set. The
// scraped label text can reorder or repeat characters around the phrase, so
// exact string equality is too strict.
func phraseMatches(label, phrase string) bool {
	if phrase == "" {
		return false
	}
	return runeSetEqual(runeSet(label), runeSet(phrase))
}

func runeSet(s string) map[rune]struct{} {
	set := make(map[rune]struct{})
	for _, r := range s {
		set[r] = struct{}{}
	}
	return set
}

func runeSetEqual(a, b map[rune]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for r := range a {
		if _, ok := b[r]; !ok {
			return false
		}
	}
	return true
}
