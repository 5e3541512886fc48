package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaharg/timewatch/internal/portal"
	"github.com/shaharg/timewatch/internal/timesheet"
)

var prohibiting = []portal.ExcuseCode{1, 2250}

func tod(h, m int) *timesheet.TimeOfDay {
	return &timesheet.TimeOfDay{Hour: h, Minute: m}
}

func TestOverwriteReturnsDesiredUnconditionally(t *testing.T) {
	desired := portal.Submission{Excuse: 74, Begin: tod(9, 0), End: tod(18, 0)}
	existing := portal.DayState{Excuse: 1, Begin: tod(8, 30), End: tod(16, 0)}

	got, err := Merge(desired, existing, true, prohibiting)

	require.NoError(t, err)
	assert.Equal(t, desired, got)
}

func TestOverwriteRequiresBothTimes(t *testing.T) {
	_, err := Merge(portal.Submission{Excuse: 74, Begin: tod(9, 0)}, portal.DayState{}, true, prohibiting)
	assert.Error(t, err)

	_, err = Merge(portal.Submission{Excuse: 74, End: tod(18, 0)}, portal.DayState{}, true, prohibiting)
	assert.Error(t, err)
}

func TestPreserveAdoptsDesiredWhenSlotsEmpty(t *testing.T) {
	desired := portal.Submission{Excuse: 74, Begin: tod(9, 0), End: tod(18, 0)}
	existing := portal.DayState{Excuse: portal.ExcuseNone}

	got, err := Merge(desired, existing, false, prohibiting)

	require.NoError(t, err)
	assert.Equal(t, portal.ExcuseCode(74), got.Excuse)
	assert.Equal(t, tod(9, 0), got.Begin)
	assert.Equal(t, tod(18, 0), got.End)
}

func TestPreserveKeepsRecordedExcuse(t *testing.T) {
	desired := portal.Submission{Excuse: 74, Begin: tod(9, 0), End: tod(18, 0)}
	existing := portal.DayState{Excuse: 4}

	got, err := Merge(desired, existing, false, prohibiting)

	require.NoError(t, err)
	assert.Equal(t, portal.ExcuseCode(4), got.Excuse, "recorded excuses are sticky")
}

func TestPreserveProhibitingExcuseBlocksTimeWrite(t *testing.T) {
	desired := portal.Submission{Excuse: 74, Begin: tod(9, 0), End: tod(18, 0)}
	existing := portal.DayState{Excuse: 1} // vacation, slots empty

	got, err := Merge(desired, existing, false, prohibiting)

	require.NoError(t, err)
	assert.Equal(t, portal.ExcuseCode(1), got.Excuse)
	assert.Nil(t, got.Begin, "vacation prohibits clock times even with empty slots")
	assert.Nil(t, got.End)
}

func TestPreserveKeepsStoredTimes(t *testing.T) {
	desired := portal.Submission{Excuse: 74, Begin: tod(9, 0), End: tod(18, 0)}
	existing := portal.DayState{Excuse: portal.ExcuseNone, Begin: tod(8, 15), End: tod(17, 45)}

	got, err := Merge(desired, existing, false, prohibiting)

	require.NoError(t, err)
	assert.Equal(t, tod(8, 15), got.Begin)
	assert.Equal(t, tod(17, 45), got.End)
}

func TestPreserveFillsOnlyEmptySlot(t *testing.T) {
	desired := portal.Submission{Excuse: 74, Begin: tod(9, 0), End: tod(18, 0)}
	existing := portal.DayState{Excuse: portal.ExcuseNone, Begin: tod(8, 15)}

	got, err := Merge(desired, existing, false, prohibiting)

	require.NoError(t, err)
	assert.Equal(t, tod(8, 15), got.Begin, "stored begin kept")
	assert.Equal(t, tod(18, 0), got.End, "empty end adopted")
}

func TestPreserveWithoutDesiredTimesKeepsExisting(t *testing.T) {
	desired := portal.Submission{Excuse: 4}
	existing := portal.DayState{Excuse: portal.ExcuseNone}

	got, err := Merge(desired, existing, false, prohibiting)

	require.NoError(t, err)
	assert.Equal(t, portal.ExcuseCode(4), got.Excuse)
	assert.Nil(t, got.Begin)
	assert.Nil(t, got.End)
}

func TestPreserveIsIdempotent(t *testing.T) {
	desired := portal.Submission{Excuse: 74, Begin: tod(9, 0), End: tod(18, 0)}
	existing := portal.DayState{Excuse: 4, Begin: tod(8, 15), End: tod(17, 45)}

	first, err := Merge(desired, existing, false, prohibiting)
	require.NoError(t, err)
	second, err := Merge(desired, existing, false, prohibiting)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
