package render

import (
	"strconv"
	"strings"
	"time"
)

const (
	dateTimeLayout = "02-01-2006 15:04"

	secondsPerMinute = 60
	secondsPerHour   = 60 * secondsPerMinute
	secondsPerDay    = 24 * secondsPerHour
)

// Formatter formats listing fields for one viewer: their language and
// time zone.
type Formatter struct {
	Locale   Locale
	Location *time.Location
}

// NewFormatter returns a formatter for the named locale and zone.
// A nil zone means UTC.
func NewFormatter(locale string, loc *time.Location) Formatter {
	if loc == nil {
		loc = time.UTC
	}
	return Formatter{Locale: LookupLocale(locale), Location: loc}
}

func (f Formatter) local(t time.Time) time.Time {
	if f.Location == nil {
		return t
	}
	return t.In(f.Location)
}

// DateTime renders t as DD-MM-YYYY HH:MM.
func (f Formatter) DateTime(t time.Time) string {
	return f.local(t).Format(dateTimeLayout)
}

// Weekday renders the full weekday name.
func (f Formatter) Weekday(t time.Time) string {
	return f.Locale.Weekdays[f.local(t).Weekday()]
}

// FullDate is DateTime followed by the weekday.
func (f Formatter) FullDate(t time.Time) string {
	return f.DateTime(t) + ", " + f.Weekday(t)
}

// IsWeekend reports whether t falls on Saturday or Sunday for the viewer.
func (f Formatter) IsWeekend(t time.Time) bool {
	return IsWeekend(f.local(t))
}

// Duration renders seconds with the locale's unit labels.
func (f Formatter) Duration(seconds int) string {
	return formatDuration(seconds, f.Locale.Units)
}

// IsWeekend reports whether t is a Saturday or Sunday in t's own zone.
func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Sunday || wd == time.Saturday
}

// Financial renders a price with exactly two decimals.
func Financial(x float64) string {
	return strconv.FormatFloat(x, 'f', 2, 64)
}

// ToTime renders a second count as days, hours, minutes and seconds in
// Russian. Zero components are omitted; every component keeps its
// trailing space, so ToTime(45) is "45 сек. ".
func ToTime(seconds int) string {
	return formatDuration(seconds, Russian().Units)
}

func formatDuration(seconds int, units [4]string) string {
	days := seconds / secondsPerDay
	seconds -= days * secondsPerDay
	hours := seconds / secondsPerHour
	seconds -= hours * secondsPerHour
	minutes := seconds / secondsPerMinute
	seconds -= minutes * secondsPerMinute

	var b strings.Builder
	for i, n := range [4]int{days, hours, minutes, seconds} {
		if n > 0 {
			b.WriteString(strconv.Itoa(n))
			b.WriteByte(' ')
			b.WriteString(units[i])
			b.WriteByte(' ')
		}
	}
	return b.String()
}

// Complexity expands a rating into total icons; true marks a filled one.
func Complexity(value, total int) []bool {
	if total <= 0 {
		return nil
	}
	icons := make([]bool, total)
	for i := range icons {
		icons[i] = i+1 <= value
	}
	return icons
}
