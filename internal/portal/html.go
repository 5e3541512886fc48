package portal

import (
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/shaharg/timewatch/internal/timesheet"
)

// parseEmployeeNumber extracts the employee auth number from the post-login
// landing page: the first editwh.php link carrying an "ee" query parameter.
func parseEmployeeNumber(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("parsing login page: %w", err)
	}

	var employee string
	doc.Find(`a[href*="editwh.php"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, ok := s.Attr("href")
		if !ok {
			return true
		}
		u, err := url.Parse(href)
		if err != nil {
			return true
		}
		if ee := u.Query().Get("ee"); ee != "" {
			employee = ee
			return false
		}
		return true
	})

	if employee == "" {
		return "", fmt.Errorf("no employee number found on landing page")
	}
	return employee, nil
}

// parseDayPage extracts the stored excuse, the slot-0 time pair and the
// holiday labels from a per-date edit page.
func parseDayPage(r io.Reader, date time.Time) (DayState, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return DayState{}, err
	}

	state := DayState{
		Excuse: parseSelectedExcuse(doc),
		Begin:  parseSlotTime(doc, "ehh0", "emm0"),
		End:    parseSlotTime(doc, "xhh0", "xmm0"),
	}
	state.HolidayLabels = parseHolidayLabels(doc, date)

	return state, nil
}

func parseSelectedExcuse(doc *goquery.Document) ExcuseCode {
	value, ok := doc.Find("select option[selected]").First().Attr("value")
	if !ok {
		return ExcuseNone
	}
	code, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return ExcuseNone
	}
	return ExcuseCode(code)
}

// parseSlotTime reads one hour/minute input pair. An absent input or a
// non-numeric value (the portal renders empty slots with value="") means the
// slot is empty.
func parseSlotTime(doc *goquery.Document, hourID, minuteID string) *timesheet.TimeOfDay {
	hourVal, ok := doc.Find("input#" + hourID).First().Attr("value")
	if !ok {
		return nil
	}
	minuteVal, ok := doc.Find("input#" + minuteID).First().Attr("value")
	if !ok {
		return nil
	}

	hour, err := strconv.Atoi(strings.TrimSpace(hourVal))
	if err != nil {
		return nil
	}
	minute, err := strconv.Atoi(strings.TrimSpace(minuteVal))
	if err != nil {
		return nil
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return nil
	}
	return &timesheet.TimeOfDay{Hour: hour, Minute: minute}
}

// parseHolidayLabels collects the font tags annotating the date row: the
// parent text carries the DD-MM-YYYY date while the label itself does not.
func parseHolidayLabels(doc *goquery.Document, date time.Time) []string {
	dateStr := date.Format("02-01-2006")

	var labels []string
	doc.Find("font").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if text == "" || strings.Contains(text, dateStr) {
			return
		}
		if strings.Contains(s.Parent().Text(), dateStr) {
			labels = append(labels, text)
		}
	})
	return labels
}
