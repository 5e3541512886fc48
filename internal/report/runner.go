// Package report drives a fill run: one pass over the date range, each date
// classified, merged against the portal's stored values and submitted.
// Dates are processed strictly one at a time: the session is a single
// mutable authenticated context and the portal is not built for concurrent
// writes from one identity.
package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/gen2brain/beeep"

	"github.com/shaharg/timewatch/internal/classify"
	"github.com/shaharg/timewatch/internal/merge"
	"github.com/shaharg/timewatch/internal/portal"
	"github.com/shaharg/timewatch/internal/spoof"
	"github.com/shaharg/timewatch/internal/store"
	"github.com/shaharg/timewatch/internal/timesheet"
)

// Session is the slice of the portal client the driver needs.
type Session interface {
	ReadDay(ctx context.Context, date time.Time) (portal.DayState, error)
	SubmitDay(ctx context.Context, date time.Time, sub portal.Submission) error
}

// Classifier decides the category for one date.
type Classifier interface {
	Classify(ctx context.Context, req classify.Request) (classify.Result, error)
}

// Ledger records per-date outcomes; nil disables recording.
type Ledger interface {
	RecordFill(f *store.Fill) (int64, error)
}

// ExcuseMap resolves a category to the portal's excuse code.
type ExcuseMap struct {
	Sick       portal.ExcuseCode
	Vacation   portal.ExcuseCode
	HolidayDay portal.ExcuseCode
	HolidayEve portal.ExcuseCode
	Home       portal.ExcuseCode
	Office     portal.ExcuseCode
}

func (m ExcuseMap) For(c classify.Category) portal.ExcuseCode {
	switch c {
	case classify.Sick:
		return m.Sick
	case classify.Vacation:
		return m.Vacation
	case classify.HolidayDay:
		return m.HolidayDay
	case classify.HolidayEve:
		return m.HolidayEve
	case classify.Home:
		return m.Home
	case classify.Office:
		return m.Office
	default:
		return portal.ExcuseNone
	}
}

// Options configure one run.
type Options struct {
	Overwrite   bool
	Excuses     ExcuseMap
	Prohibiting []portal.ExcuseCode
	Notify      bool
}

// Summary is the outcome of a run.
type Summary struct {
	Processed int
	Submitted int
	Unchanged int
	Skipped   int
	Failed    int
	Elapsed   time.Duration
}

func (s Summary) String() string {
	return fmt.Sprintf("%d dates: %d submitted, %d unchanged, %d skipped, %d failed in %.2fs",
		s.Processed, s.Submitted, s.Unchanged, s.Skipped, s.Failed, s.Elapsed.Seconds())
}

type Runner struct {
	session    Session
	classifier Classifier
	spoofer    spoof.Strategy
	ledger     Ledger
	opts       Options
	logger     *slog.Logger
}

func NewRunner(session Session, classifier Classifier, spoofer spoof.Strategy, ledger Ledger, opts Options, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Runner{
		session:    session,
		classifier: classifier,
		spoofer:    spoofer,
		ledger:     ledger,
		opts:       opts,
		logger:     logger,
	}
}

// Run processes every date in [start, end] ascending. Per-date failures are
// logged and recorded but never abort the run; only an invalid range does.
func (r *Runner) Run(ctx context.Context, start, end time.Time, vacation, sick *timesheet.DateSet) (Summary, error) {
	if end.Before(start) {
		return Summary{}, fmt.Errorf("end date %s is before start date %s",
			end.Format("2006-01-02"), start.Format("2006-01-02"))
	}

	began := time.Now()
	var summary Summary

	for d := timesheet.Midnight(start); !d.After(timesheet.Midnight(end)); d = d.AddDate(0, 0, 1) {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		summary.Processed++
		r.fillDate(ctx, d, vacation, sick, &summary)
	}

	summary.Elapsed = time.Since(began)
	r.logger.Info("run finished", "summary", summary.String())

	if r.opts.Notify {
		if err := beeep.Notify("timewatch", summary.String(), ""); err != nil {
			r.logger.Debug("notification failed", "error", err)
		}
	}

	return summary, nil
}

func (r *Runner) fillDate(ctx context.Context, date time.Time, vacation, sick *timesheet.DateSet, summary *Summary) {
	day := date.Format("2006-01-02")
	r.logger.Info("working on date", "date", day)

	state, err := r.session.ReadDay(ctx, date)
	if err != nil {
		r.logger.Warn("cannot read day, skipping", "date", day, "error", err)
		summary.Skipped++
		r.record(date, "", portal.Submission{}, store.StatusSkipped, err.Error())
		return
	}

	res, err := r.classifier.Classify(ctx, classify.Request{
		Date:     date,
		State:    state,
		Vacation: vacation,
		Sick:     sick,
	})
	if err != nil {
		r.logger.Warn("cannot classify day, skipping", "date", day, "error", err)
		summary.Skipped++
		r.record(date, "", portal.Submission{}, store.StatusSkipped, err.Error())
		return
	}

	r.logger.Debug("classified", "date", day, "category", res.Category.String())

	if res.Category == classify.Weekend {
		r.logger.Info("weekend day, nothing to submit", "date", day)
		summary.Unchanged++
		r.record(date, res.Category.String(), portal.Submission{}, store.StatusUnchanged, "")
		return
	}

	desired := r.desiredSubmission(res)

	// A recorded vacation is respected as-is unless the run overwrites.
	if res.Category == classify.Vacation && !r.opts.Overwrite && state.Excuse == r.opts.Excuses.Vacation {
		r.logger.Info("vacation already recorded, nothing to submit", "date", day)
		summary.Unchanged++
		r.record(date, res.Category.String(), desired, store.StatusUnchanged, "")
		return
	}

	// Only categories that carry work times take the overwrite path; an
	// absence submission has no times to overwrite with.
	overwrite := r.opts.Overwrite && res.Category.HasWorkTimes()

	sub, err := merge.Merge(desired, state, overwrite, r.opts.Prohibiting)
	if err != nil {
		r.logger.Warn("cannot merge values, skipping", "date", day, "error", err)
		summary.Skipped++
		r.record(date, res.Category.String(), desired, store.StatusSkipped, err.Error())
		return
	}

	if err := r.session.SubmitDay(ctx, date, sub); err != nil {
		if errors.Is(err, portal.ErrRejected) {
			r.logger.Warn("portal rejected submission", "date", day)
		} else {
			r.logger.Warn("submission failed", "date", day, "error", err)
		}
		summary.Failed++
		r.record(date, res.Category.String(), sub, store.StatusFailed, err.Error())
		return
	}

	r.logger.Info("submitted",
		"date", day,
		"category", res.Category.String(),
		"begin", optionalString(sub.Begin),
		"end", optionalString(sub.End),
		"excuse", sub.Excuse)
	summary.Submitted++
	r.record(date, res.Category.String(), sub, store.StatusSubmitted, "")
}

// desiredSubmission maps a classification to the values this run wants the
// portal to hold: excuse only for absences, times for office and home days.
func (r *Runner) desiredSubmission(res classify.Result) portal.Submission {
	sub := portal.Submission{Excuse: r.opts.Excuses.For(res.Category)}

	switch res.Category {
	case classify.Office:
		if res.Times != nil {
			begin, end := res.Times.Begin, res.Times.End
			sub.Begin, sub.End = &begin, &end
		}
	case classify.Home:
		times := r.spoofer.Spoof()
		begin, end := times.Begin, times.End
		sub.Begin, sub.End = &begin, &end
	}

	return sub
}

func (r *Runner) record(date time.Time, category string, sub portal.Submission, status, detail string) {
	if r.ledger == nil {
		return
	}
	f := &store.Fill{
		Date:     date,
		Category: category,
		Begin:    optionalString(sub.Begin),
		End:      optionalString(sub.End),
		Excuse:   int(sub.Excuse),
		Status:   status,
		Detail:   detail,
	}
	if _, err := r.ledger.RecordFill(f); err != nil {
		r.logger.Warn("cannot record fill", "date", date.Format("2006-01-02"), "error", err)
	}
}

func optionalString(t *timesheet.TimeOfDay) string {
	if t == nil {
		return ""
	}
	return t.String()
}
