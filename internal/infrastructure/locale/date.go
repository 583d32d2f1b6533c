package locale

import (
	"fmt"
	"strings"
	"time"
)

// Layouts for calendar dates
const (
	CalendarLayout  = "2006-01-02"
	LongDateLayout  = "2 January 2006"
	ShortDateLayout = "02/01/2006"
)

// calendarHour is the wall-clock hour calendar-only dates are pinned to.
// Noon keeps the day unchanged for any offset within ±12h.
const calendarHour = 12

// ParseCalendarDate parses "YYYY-MM-DD" at noon in the process's local zone
func ParseCalendarDate(input string) (time.Time, error) {
	return ParseCalendarDateIn(input, time.Local)
}

// ParseCalendarDateIn parses "YYYY-MM-DD" at noon in loc. A full RFC 3339
// timestamp is accepted too; its calendar date is taken as written.
func ParseCalendarDateIn(input string, loc *time.Location) (time.Time, error) {
	s := strings.TrimSpace(input)
	if len(s) > len(CalendarLayout) {
		if _, err := time.Parse(time.RFC3339, s); err != nil {
			return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", input)
		}
		s = s[:len(CalendarLayout)]
	}
	d, err := time.Parse(CalendarLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", input)
	}
	return time.Date(d.Year(), d.Month(), d.Day(), calendarHour, 0, 0, 0, loc), nil
}

// FormatCalendarDate renders t as "YYYY-MM-DD"
func FormatCalendarDate(t time.Time) string {
	return t.Format(CalendarLayout)
}

// FormatDateLong renders t as "10 March 2025"
func FormatDateLong(t time.Time) string {
	return t.Format(LongDateLayout)
}

// FormatDateShort renders t as "10/03/2025"
func FormatDateShort(t time.Time) string {
	return t.Format(ShortDateLayout)
}
