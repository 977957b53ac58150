package schedule

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/BruksfildServices01/service-marketplace/internal/httperr"
)

const DateLayout = "2006-01-02"

var hhmm = regexp.MustCompile(`^([0-1]?[0-9]|2[0-3]):[0-5][0-9]$`)

// TimeOfDay is a wall-clock time expressed in minutes after midnight.
type TimeOfDay int

func ParseTimeOfDay(s string) (TimeOfDay, error) {
	if !hhmm.MatchString(s) {
		return 0, fmt.Errorf("time of day %q: want HH:MM", s)
	}

	var h, m int
	for i := 0; i < len(s); i++ {
		if s[i] == ':' {
			h, _ = strconv.Atoi(s[:i])
			m, _ = strconv.Atoi(s[i+1:])
			break
		}
	}
	return TimeOfDay(h*60 + m), nil
}

func (t TimeOfDay) Hour() int   { return int(t) / 60 }
func (t TimeOfDay) Minute() int { return int(t) % 60 }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// Interval is the half-open range [Start, End) within one day.
type Interval struct {
	Start TimeOfDay
	End   TimeOfDay
}

// ParseInterval validates a start/end pair. Any malformed value or an end that
// does not follow the start yields an invalid_time_slot error.
func ParseInterval(start, end string) (Interval, error) {
	s, err := ParseTimeOfDay(start)
	if err != nil {
		return Interval{}, invalidSlot(err.Error())
	}
	e, err := ParseTimeOfDay(end)
	if err != nil {
		return Interval{}, invalidSlot(err.Error())
	}
	if e <= s {
		return Interval{}, invalidSlot("end_time must be after start_time")
	}
	return Interval{Start: s, End: e}, nil
}

func invalidSlot(msg string) error {
	return httperr.Validation("invalid_time_slot", msg)
}

// Overlaps reports a < d && c < b for [a,b) and [c,d).
func (i Interval) Overlaps(o Interval) bool {
	return i.Start < o.End && o.Start < i.End
}

func (i Interval) Minutes() int {
	return int(i.End - i.Start)
}

// ParseDate reads a YYYY-MM-DD calendar date in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil {
		return time.Time{}, httperr.Validation("invalid_date", "date must be YYYY-MM-DD")
	}
	return d, nil
}

// Combine places a wall-clock time on the calendar day of date, in loc.
func Combine(date time.Time, t TimeOfDay, loc *time.Location) time.Time {
	y, m, d := date.In(loc).Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), 0, 0, loc)
}

// DayBounds returns the start of t's day and the start of the next day.
// time.Time is a value, so the argument is never altered.
func DayBounds(t time.Time) (time.Time, time.Time) {
	y, m, d := t.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 0, 1)
}

// MonthBounds returns the first instant of t's month and of the next month.
func MonthBounds(t time.Time) (time.Time, time.Time) {
	y, m, _ := t.Date()
	start := time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 1, 0)
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
