// Package evidence provides the per-date location history used to detect
// office presence. The data source is a Google Timeline KML export, one file
// per day, dropped in a configurable directory.
package evidence

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/maypok86/otter/v2"
)

var (
	// ErrUnavailable means no location history could be produced for the
	// requested date. Recoverable: the date is skipped, the run continues.
	ErrUnavailable = errors.New("location evidence unavailable")

	// ErrTodayEvidence guards against requesting today's history: the
	// export for the current day is never complete and waiting for it is
	// unbounded.
	ErrTodayEvidence = fmt.Errorf("%w: cannot use today's location history", ErrUnavailable)
)

// PlaceInterval is one visited place with its coordinates and time span.
type PlaceInterval struct {
	Lat   float64
	Long  float64
	Alt   float64
	Begin time.Time
	End   time.Time
}

// Provider lists the place-intervals observed on a date.
type Provider interface {
	Intervals(ctx context.Context, date time.Time) ([]PlaceInterval, error)
}

// FileProvider reads history-YYYY-MM-DD.kml files from a directory. Parsed
// files are cached so the classifier can consult a date more than once
// without re-reading.
type FileProvider struct {
	dir    string
	logger *slog.Logger
	now    func() time.Time
	cache  *otter.Cache[string, []PlaceInterval]
}

// NewFileProvider builds a provider over dir; an empty dir falls back to the
// user's Downloads directory, where browser exports land.
func NewFileProvider(dir string, logger *slog.Logger) (*FileProvider, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("finding home directory: %w", err)
		}
		dir = filepath.Join(home, "Downloads")
	}

	cache := otter.Must(&otter.Options[string, []PlaceInterval]{
		MaximumSize: 512,
	})

	return &FileProvider{
		dir:    dir,
		logger: logger,
		now:    time.Now,
		cache:  cache,
	}, nil
}

// FileName is the expected export name for a date.
func FileName(date time.Time) string {
	return "history-" + date.Format("2006-01-02") + ".kml"
}

func (p *FileProvider) Intervals(ctx context.Context, date time.Time) ([]PlaceInterval, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := date.Format("2006-01-02")
	if intervals, ok := p.cache.GetIfPresent(key); ok {
		return intervals, nil
	}

	now := p.now()
	if date.Year() == now.Year() && date.YearDay() == now.YearDay() {
		return nil, ErrTodayEvidence
	}

	path := filepath.Join(p.dir, FileName(date))
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", ErrUnavailable, path, err)
	}
	defer f.Close()

	intervals, err := ParseKML(f)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %v", ErrUnavailable, path, err)
	}

	p.logger.Debug("loaded location evidence", "date", key, "places", len(intervals))
	p.cache.Set(key, intervals)
	return intervals, nil
}
