package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// naiveLayouts are accepted for dates without a zone offset. Such dates
// are read as UTC.
var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// FieldError reports item fields that could not be decoded. The item is
// still usable; those fields hold zero values.
type FieldError struct {
	UID    string
	Fields []string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("masterclass %q: malformed %s", e.UID, strings.Join(e.Fields, ", "))
}

// UnmarshalJSON decodes an item leniently. Dates may carry no zone or use
// a space separator, prices may be strings or numbers, and a field of the
// wrong type is left at its zero value. Any such field is reported in a
// *FieldError after the rest of the item has been filled in.
func (m *Masterclass) UnmarshalJSON(data []byte) error {
	type plain Masterclass
	var aux struct {
		*plain
		Date           json.RawMessage `json:"date"`
		CreationTS     json.RawMessage `json:"creation_ts"`
		ModificationTS json.RawMessage `json:"modification_ts"`
		Price          json.RawMessage `json:"price"`
		OnlinePrice    json.RawMessage `json:"online_price"`
	}
	aux.plain = (*plain)(m)

	var bad []string
	if err := json.Unmarshal(data, &aux); err != nil {
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) {
			return err
		}
		field := typeErr.Field
		if field == "" {
			field = "item"
		}
		bad = append(bad, field)
	}

	var ok bool
	if m.Date, ok = parseTime(aux.Date); !ok {
		bad = append(bad, "date")
	}
	if m.CreationTS, ok = parseTime(aux.CreationTS); !ok {
		bad = append(bad, "creation_ts")
	}
	if m.ModificationTS, ok = parseTime(aux.ModificationTS); !ok {
		bad = append(bad, "modification_ts")
	}
	if m.Price, ok = parseDecimal(aux.Price); !ok {
		bad = append(bad, "price")
	}
	if m.OnlinePrice, ok = parseDecimal(aux.OnlinePrice); !ok {
		bad = append(bad, "online_price")
	}

	if len(bad) > 0 {
		return &FieldError{UID: m.UID, Fields: bad}
	}
	return nil
}

func isNull(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

func parseTime(raw json.RawMessage) (time.Time, bool) {
	if isNull(raw) {
		return time.Time{}, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return time.Time{}, false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, true
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseDecimal(raw json.RawMessage) (Decimal, bool) {
	if isNull(raw) {
		return 0, true
	}
	var d Decimal
	if err := d.UnmarshalJSON(raw); err != nil {
		return 0, false
	}
	return d, true
}

// DecodeItems decodes every raw item. Items with malformed fields are kept
// with those fields zeroed, and each problem is returned alongside.
func DecodeItems(raws []json.RawMessage) ([]Masterclass, []error) {
	if raws == nil {
		return nil, nil
	}
	items := make([]Masterclass, 0, len(raws))
	var problems []error
	for i, raw := range raws {
		var mc Masterclass
		if err := json.Unmarshal(raw, &mc); err != nil {
			problems = append(problems, fmt.Errorf("item %d: %w", i, err))
		}
		items = append(items, mc)
	}
	return items, problems
}

// UnmarshalJSON decodes the envelope strictly and the items leniently;
// see Malformed.
func (p *Page) UnmarshalJSON(data []byte) error {
	var aux struct {
		Count    int               `json:"count"`
		Next     *string           `json:"next"`
		Previous *string           `json:"previous"`
		Results  []json.RawMessage `json:"results"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	p.Count = aux.Count
	p.Next = aux.Next
	p.Previous = aux.Previous
	p.Results, p.Malformed = DecodeItems(aux.Results)
	return nil
}
