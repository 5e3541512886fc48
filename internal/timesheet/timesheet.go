// Package timesheet holds the value types shared by the classifier, the
// merger and the portal client: clock times without a date, date sets and
// the date parsing used by CLI flags.
package timesheet

import (
	"fmt"
	"strings"
	"time"

	naturaldate "github.com/tj/go-naturaldate"
)

// TimeOfDay is a wall-clock time with minute resolution, no date attached.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses a "HH:MM" string.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("parsing time of day %q: %w", s, err)
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// FromTime extracts the wall-clock portion of t.
func FromTime(t time.Time) TimeOfDay {
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// HourString returns the zero-padded hour, as the portal form expects it.
func (t TimeOfDay) HourString() string {
	return fmt.Sprintf("%02d", t.Hour)
}

// MinuteString returns the zero-padded minute, as the portal form expects it.
func (t TimeOfDay) MinuteString() string {
	return fmt.Sprintf("%02d", t.Minute)
}

// Minutes returns the offset from midnight in minutes.
func (t TimeOfDay) Minutes() int {
	return t.Hour*60 + t.Minute
}

func (t TimeOfDay) Before(o TimeOfDay) bool {
	return t.Minutes() < o.Minutes()
}

func (t TimeOfDay) After(o TimeOfDay) bool {
	return t.Minutes() > o.Minutes()
}

// AddMinutes returns t shifted by m minutes, clamped to the same day.
func (t TimeOfDay) AddMinutes(m int) TimeOfDay {
	total := t.Minutes() + m
	if total < 0 {
		total = 0
	}
	if total > 23*60+59 {
		total = 23*60 + 59
	}
	return TimeOfDay{Hour: total / 60, Minute: total % 60}
}

// TimeRange is a begin/end pair of wall-clock times.
type TimeRange struct {
	Begin TimeOfDay
	End   TimeOfDay
}

// Midnight truncates t to the start of its day in t's location.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// SameDay reports whether a and b fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// DateSet is a set of calendar days, keyed by date only.
type DateSet struct {
	days map[string]struct{}
}

func NewDateSet(dates ...time.Time) *DateSet {
	s := &DateSet{days: make(map[string]struct{})}
	for _, d := range dates {
		s.Add(d)
	}
	return s
}

func (s *DateSet) Add(d time.Time) {
	s.days[d.Format("2006-01-02")] = struct{}{}
}

// AddRange adds every day from start to end inclusive.
func (s *DateSet) AddRange(start, end time.Time) {
	for d := Midnight(start); !d.After(Midnight(end)); d = d.AddDate(0, 0, 1) {
		s.Add(d)
	}
}

func (s *DateSet) Contains(d time.Time) bool {
	_, ok := s.days[d.Format("2006-01-02")]
	return ok
}

func (s *DateSet) Len() int {
	return len(s.days)
}

// Union adds every day of o into s.
func (s *DateSet) Union(o *DateSet) {
	if o == nil {
		return
	}
	for k := range o.days {
		s.days[k] = struct{}{}
	}
}

var dateLayouts = []string{"02-01-2006", "2006-01-02", "02/01/2006"}

// ParseDateArg parses a CLI date argument. Explicit layouts are tried first,
// then natural language relative to now ("yesterday", "last monday").
func ParseDateArg(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, now.Location()), nil
		}
	}
	t, err := naturaldate.Parse(s, now, naturaldate.WithDirection(naturaldate.Past))
	if err != nil {
		return time.Time{}, fmt.Errorf("%q is not a valid date (use DD-MM-YYYY)", s)
	}
	return Midnight(t), nil
}

// ParseDateList parses CLI date list arguments into a DateSet. Each element
// is a single date or an inclusive "start..end" range.
func ParseDateList(args []string, now time.Time) (*DateSet, error) {
	set := NewDateSet()
	for _, arg := range args {
		if start, end, ok := strings.Cut(arg, ".."); ok {
			s, err := ParseDateArg(start, now)
			if err != nil {
				return nil, err
			}
			e, err := ParseDateArg(end, now)
			if err != nil {
				return nil, err
			}
			if e.Before(s) {
				return nil, fmt.Errorf("range %q ends before it starts", arg)
			}
			set.AddRange(s, e)
			continue
		}
		d, err := ParseDateArg(arg, now)
		if err != nil {
			return nil, err
		}
		set.Add(d)
	}
	return set, nil
}
