package render

import (
	"golang.org/x/text/language"
)

// Locale carries the viewer-facing words used on cards.
type Locale struct {
	Tag      language.Tag
	Weekdays [7]string // indexed by time.Weekday, Sunday first
	Units    [4]string // days, hours, minutes, seconds
	SeatsOf  string
	Dismiss  string
}

var supported = []Locale{
	{
		Tag:      language.Russian,
		Weekdays: [7]string{"воскресенье", "понедельник", "вторник", "среда", "четверг", "пятница", "суббота"},
		Units:    [4]string{"дней", "ч.", "мин.", "сек."},
		SeatsOf:  "из",
		Dismiss:  "Ладно",
	},
	{
		Tag:      language.English,
		Weekdays: [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"},
		Units:    [4]string{"d.", "h.", "min.", "sec."},
		SeatsOf:  "of",
		Dismiss:  "OK",
	},
}

var matcher = language.NewMatcher([]language.Tag{supported[0].Tag, supported[1].Tag})

// LookupLocale picks the closest supported locale for a BCP 47 name
// such as "ru", "ru-RU" or "en-GB". Russian is the fallback.
func LookupLocale(name string) Locale {
	tag, err := language.Parse(name)
	if err != nil {
		return supported[0]
	}
	_, idx, conf := matcher.Match(tag)
	if conf == language.No {
		return supported[0]
	}
	return supported[idx]
}

// Russian is the site's native locale.
func Russian() Locale {
	return supported[0]
}
