package render

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func moscow(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Moscow")
	require.NoError(t, err)
	return loc
}

func TestToTime(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{90061, "1 дней 1 ч. 1 мин. 1 сек. "},
		{45, "45 сек. "},
		{3600, "1 ч. "},
		{5400, "1 ч. 30 мин. "},
		{172800, "2 дней "},
		{0, ""},
		{-10, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ToTime(tt.seconds), "ToTime(%d)", tt.seconds)
	}
}

func TestFormatter_DurationEnglish(t *testing.T) {
	f := NewFormatter("en", time.UTC)
	assert.Equal(t, "1 h. 1 sec. ", f.Duration(3601))
}

func TestFinancial(t *testing.T) {
	assert.Equal(t, "9.10", Financial(9.1))
	assert.Equal(t, "10.00", Financial(9.999))
	assert.Equal(t, "0.00", Financial(0))
	assert.Equal(t, "1500.00", Financial(1500))
}

func TestIsWeekend(t *testing.T) {
	tests := []struct {
		date string
		want bool
	}{
		{"2018-06-02T12:00:00+03:00", true},  // Saturday
		{"2018-06-03T12:00:00+03:00", true},  // Sunday
		{"2018-06-04T12:00:00+03:00", false}, // Monday
		{"2018-06-08T23:59:00+03:00", false}, // Friday
	}
	for _, tt := range tests {
		d, err := time.Parse(time.RFC3339, tt.date)
		require.NoError(t, err)
		assert.Equal(t, tt.want, IsWeekend(d), tt.date)
	}
}

func TestFormatter_WeekendFollowsViewerZone(t *testing.T) {
	// Sunday 22:30 UTC is already Monday in Moscow.
	d := time.Date(2018, time.June, 3, 22, 30, 0, 0, time.UTC)

	assert.True(t, NewFormatter("ru", time.UTC).IsWeekend(d))
	assert.False(t, NewFormatter("ru", moscow(t)).IsWeekend(d))
}

func TestFormatter_DateTime(t *testing.T) {
	f := NewFormatter("ru", moscow(t))
	d := time.Date(2018, time.June, 2, 9, 5, 0, 0, time.UTC)

	assert.Equal(t, "02-06-2018 12:05", f.DateTime(d))
	assert.Equal(t, "суббота", f.Weekday(d))
	assert.Equal(t, "02-06-2018 12:05, суббота", f.FullDate(d))

	en := NewFormatter("en-GB", moscow(t))
	assert.Equal(t, "Saturday", en.Weekday(d))
}

func TestNewFormatter_NilZoneIsUTC(t *testing.T) {
	f := NewFormatter("ru", nil)
	d := time.Date(2018, time.June, 2, 9, 5, 0, 0, time.UTC)
	assert.Equal(t, "02-06-2018 09:05", f.DateTime(d))
}

func TestComplexity(t *testing.T) {
	assert.Equal(t, []bool{true, true, false, false, false}, Complexity(2, 5))
	assert.Equal(t, []bool{true, true, true}, Complexity(7, 3))
	assert.Equal(t, []bool{false, false}, Complexity(0, 2))
	assert.Nil(t, Complexity(3, 0))
}

func TestLookupLocale(t *testing.T) {
	assert.Equal(t, "из", LookupLocale("ru-RU").SeatsOf)
	assert.Equal(t, "of", LookupLocale("en-GB").SeatsOf)
	assert.Equal(t, "из", LookupLocale("not a tag").SeatsOf)
	assert.Equal(t, "из", LookupLocale("ja").SeatsOf)
}
