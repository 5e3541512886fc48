package calendar

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const vacationICS = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"PRODID:-//test//test//EN\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:vac-1\r\n" +
	"DTSTAMP:20200701T000000Z\r\n" +
	"DTSTART;VALUE=DATE:20200713\r\n" +
	"DTEND;VALUE=DATE:20200716\r\n" +
	"SUMMARY:Vacation up north\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:vac-2\r\n" +
	"DTSTAMP:20200701T000000Z\r\n" +
	"DTSTART;VALUE=DATE:20200801\r\n" +
	"DTEND;VALUE=DATE:20200802\r\n" +
	"SUMMARY:Outside the window\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

func TestDecodeDatesCollectsCoveredDays(t *testing.T) {
	windowStart := time.Date(2020, time.July, 1, 0, 0, 0, 0, time.Local)
	windowEnd := time.Date(2020, time.July, 31, 0, 0, 0, 0, time.Local)

	set, err := decodeDates(strings.NewReader(vacationICS), windowStart, windowEnd)

	require.NoError(t, err)
	// DTEND is exclusive for all-day events: 13th through 15th.
	assert.Equal(t, 3, set.Len())
	assert.True(t, set.Contains(time.Date(2020, time.July, 13, 0, 0, 0, 0, time.Local)))
	assert.True(t, set.Contains(time.Date(2020, time.July, 15, 0, 0, 0, 0, time.Local)))
	assert.False(t, set.Contains(time.Date(2020, time.July, 16, 0, 0, 0, 0, time.Local)))
	assert.False(t, set.Contains(time.Date(2020, time.August, 1, 0, 0, 0, 0, time.Local)), "event outside window ignored")
}

func TestDecodeDatesEmptyCalendar(t *testing.T) {
	ics := "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:-//test//test//EN\r\nEND:VCALENDAR\r\n"

	set, err := decodeDates(strings.NewReader(ics),
		time.Date(2020, time.July, 1, 0, 0, 0, 0, time.Local),
		time.Date(2020, time.July, 31, 0, 0, 0, 0, time.Local))

	require.NoError(t, err)
	assert.Equal(t, 0, set.Len())
}
