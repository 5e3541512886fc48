package portal

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaharg/timewatch/internal/timesheet"
)

const dayPageFilled = `<html><body>
<table><tr>
<td>28-09-2020 <font color="red">חג</font></td>
</tr></table>
<form>
<select name="excuse">
<option value="0">---</option>
<option value="1" selected>vacation</option>
</select>
<input type="text" id="ehh0" value="09"><input type="text" id="emm0" value="02">
<input type="text" id="xhh0" value="17"><input type="text" id="xmm0" value="48">
<input type="text" id="ehh1" value=""><input type="text" id="emm1" value="">
</form>
</body></html>`

const dayPageEmpty = `<html><body>
<form>
<select name="excuse">
<option value="0" selected>---</option>
<option value="1">vacation</option>
</select>
<input type="text" id="ehh0" value=""><input type="text" id="emm0" value="">
<input type="text" id="xhh0" value=""><input type="text" id="xmm0" value="">
</form>
</body></html>`

func TestParseDayPageFilled(t *testing.T) {
	date := time.Date(2020, time.September, 28, 0, 0, 0, 0, time.Local)

	state, err := parseDayPage(strings.NewReader(dayPageFilled), date)

	require.NoError(t, err)
	assert.Equal(t, ExcuseCode(1), state.Excuse)
	assert.Equal(t, &timesheet.TimeOfDay{Hour: 9, Minute: 2}, state.Begin)
	assert.Equal(t, &timesheet.TimeOfDay{Hour: 17, Minute: 48}, state.End)
	assert.Equal(t, []string{"חג"}, state.HolidayLabels)
}

func TestParseDayPageEmptySlots(t *testing.T) {
	date := time.Date(2020, time.July, 16, 0, 0, 0, 0, time.Local)

	state, err := parseDayPage(strings.NewReader(dayPageEmpty), date)

	require.NoError(t, err)
	assert.Equal(t, ExcuseNone, state.Excuse)
	assert.Nil(t, state.Begin)
	assert.Nil(t, state.End)
	assert.Empty(t, state.HolidayLabels)
}

func TestParseDayPageLabelForOtherDateIgnored(t *testing.T) {
	// Labels belong to the requested date only.
	date := time.Date(2020, time.September, 29, 0, 0, 0, 0, time.Local)

	state, err := parseDayPage(strings.NewReader(dayPageFilled), date)

	require.NoError(t, err)
	assert.Empty(t, state.HolidayLabels)
}

func TestParseDayPageDateHeaderIsNotALabel(t *testing.T) {
	page := `<html><body><td><font>28-09-2020</font></td></body></html>`
	date := time.Date(2020, time.September, 28, 0, 0, 0, 0, time.Local)

	state, err := parseDayPage(strings.NewReader(page), date)

	require.NoError(t, err)
	assert.Empty(t, state.HolidayLabels, "the date cell itself is not a holiday label")
}

func TestParseEmployeeNumber(t *testing.T) {
	page := `<html><body>
<a href="/punch/somewhere.php?x=1">other</a>
<a href="/punch/editwh.php?ee=12345&e=0">attendance</a>
</body></html>`

	employee, err := parseEmployeeNumber(strings.NewReader(page))

	require.NoError(t, err)
	assert.Equal(t, "12345", employee)
}

func TestParseEmployeeNumberMissing(t *testing.T) {
	_, err := parseEmployeeNumber(strings.NewReader("<html><body>no links</body></html>"))
	assert.Error(t, err)
}
