// Package merge reconciles the values this run wants to write for a date
// with whatever the portal already stores, under either overwrite or
// preserve semantics. Pure functions; the edge-case policy here (excuse
// precedence, time prohibition) is the crux of not corrupting previously
// entered data.
package merge

import (
	"fmt"

	"github.com/shaharg/timewatch/internal/portal"
)

// Merge builds the submission for a date. Under overwrite, desired wins
// unconditionally and must carry both times. Under preserve, recorded
// excuses are sticky and stored times are only filled in where the portal
// has none and the recorded excuse does not prohibit clock times.
func Merge(desired portal.Submission, existing portal.DayState, overwrite bool, prohibiting []portal.ExcuseCode) (portal.Submission, error) {
	if overwrite {
		return mergeOverwrite(desired)
	}
	return mergePreserve(desired, existing, prohibiting), nil
}

func mergeOverwrite(desired portal.Submission) (portal.Submission, error) {
	if desired.Begin == nil || desired.End == nil {
		return portal.Submission{}, fmt.Errorf("overwrite requires both begin and end times")
	}
	return desired, nil
}

func mergePreserve(desired portal.Submission, existing portal.DayState, prohibiting []portal.ExcuseCode) portal.Submission {
	out := portal.Submission{}

	// A recorded excuse is never downgraded.
	if existing.Excuse.IsSet() {
		out.Excuse = existing.Excuse
	} else {
		out.Excuse = desired.Excuse
	}

	blocked := prohibitsTimes(existing.Excuse, prohibiting)

	if existing.Begin == nil && desired.Begin != nil && !blocked {
		out.Begin = desired.Begin
	} else {
		out.Begin = existing.Begin
	}

	if existing.End == nil && desired.End != nil && !blocked {
		out.End = desired.End
	} else {
		out.End = existing.End
	}

	return out
}

// prohibitsTimes reports whether the recorded excuse logically excludes
// clock times (vacation, holiday): such a day never gets times written, even
// when the slots look empty.
func prohibitsTimes(excuse portal.ExcuseCode, prohibiting []portal.ExcuseCode) bool {
	for _, p := range prohibiting {
		if excuse == p {
			return true
		}
	}
	return false
}
