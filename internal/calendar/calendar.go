// Package calendar imports vacation and sick dates from an iCalendar source,
// so date sets do not have to be typed out on the command line every run.
package calendar

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	ical "github.com/emersion/go-ical"

	"github.com/shaharg/timewatch/internal/timesheet"
)

// LoadDateSet retrieves an ICS document from a URL or file path and collects
// every day covered by an event overlapping [windowStart, windowEnd] into a
// date set.
func LoadDateSet(ctx context.Context, source string, windowStart, windowEnd time.Time) (*timesheet.DateSet, error) {
	var r io.ReadCloser

	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetching calendar: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("calendar fetch returned status %d", resp.StatusCode)
		}
		r = resp.Body
	} else {
		f, err := os.Open(source)
		if err != nil {
			return nil, fmt.Errorf("opening calendar file: %w", err)
		}
		r = f
	}
	defer r.Close()

	return decodeDates(r, windowStart, windowEnd)
}

func decodeDates(r io.Reader, windowStart, windowEnd time.Time) (*timesheet.DateSet, error) {
	dec := ical.NewDecoder(r)
	set := timesheet.NewDateSet()

	for {
		cal, err := dec.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing calendar: %w", err)
		}

		for _, component := range cal.Children {
			if component.Name != ical.CompEvent {
				continue
			}
			event := ical.Event{Component: component}

			start, err := event.DateTimeStart(nil)
			if err != nil {
				continue // skip malformed events
			}
			end, err := event.DateTimeEnd(nil)
			if err != nil {
				continue
			}

			if !start.Before(windowEnd.AddDate(0, 0, 1)) || !end.After(windowStart) {
				continue
			}

			// All-day DTEND is exclusive; step through the covered days.
			last := end.Add(-time.Second)
			if last.Before(start) {
				last = start
			}
			set.AddRange(start, last)
		}
	}

	return set, nil
}
