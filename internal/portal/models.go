package portal

import (
	"strconv"

	"github.com/shaharg/timewatch/internal/timesheet"
)

// ExcuseCode is the portal's integer reason code for a day. Zero is the
// sentinel meaning no excuse is recorded.
type ExcuseCode int

const ExcuseNone ExcuseCode = 0

func (e ExcuseCode) String() string {
	return strconv.Itoa(int(e))
}

// IsSet reports whether the code is a real excuse rather than the sentinel.
func (e ExcuseCode) IsSet() bool {
	return e != ExcuseNone
}

// DayState is what the portal currently stores for a date: the recorded
// excuse, the slot-0 begin/end times (nil when the slot is empty) and any
// holiday labels rendered next to the date.
type DayState struct {
	Excuse        ExcuseCode
	Begin         *timesheet.TimeOfDay
	End           *timesheet.TimeOfDay
	HolidayLabels []string
}

// Submission is what gets written back for a date. Slots 1–4 are always
// submitted blank; only the slot-0 pair is ever managed.
type Submission struct {
	Excuse ExcuseCode
	Begin  *timesheet.TimeOfDay
	End    *timesheet.TimeOfDay
}

// Credentials authenticate one employee against the portal.
type Credentials struct {
	Company  string
	Username string
	Password string
}
