package source

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrEmpty is returned when a rule's selector matches nothing or an empty
// value.
var ErrEmpty = errors.New("nothing extracted")

// ExtractionError describes a field that could not be read.
type ExtractionError struct {
	Field string
	Value string
	Err   error
}

func (e *ExtractionError) Error() string {
	if errors.Is(e.Err, ErrEmpty) {
		return fmt.Sprintf("field %s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("field %s: %q: %v", e.Field, e.Value, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

var (
	intPattern      = regexp.MustCompile(`(\d+)`)
	currencyPattern = regexp.MustCompile(`^(\d+(?:[.,]\d+)?)\s*р`)
	durationPattern = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*ч`)
)

// ParseInt returns the first run of digits in s.
func ParseInt(s string) (int, error) {
	m := intPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("no number")
	}
	return strconv.Atoi(m[1])
}

// ParseCurrency reads a rouble amount such as "1500 руб." or "90р".
func ParseCurrency(s string) (float64, error) {
	s = strings.Join(strings.Fields(s), " ")
	m := currencyPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("not a rouble amount")
	}
	return strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
}

// ParseDuration reads hours such as "3 часа" or "1,5 ч" and returns
// seconds.
func ParseDuration(s string) (int, error) {
	m := durationPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("no hours")
	}
	hours, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
	if err != nil {
		return 0, err
	}
	return int(hours * 3600), nil
}

// ParseDateTime reads "19.07.2018 четверг 18:00": the weekday word in the
// middle is dropped and the rest is parsed with layout in loc.
func ParseDateTime(s, layout string, loc *time.Location) (time.Time, error) {
	parts := strings.Fields(s)
	if len(parts) == 3 {
		parts = []string{parts[0], parts[2]}
	}
	return time.ParseInLocation(layout, strings.Join(parts, " "), loc)
}
