package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Masterclass is one listing item as served by the masterclasses API.
type Masterclass struct {
	ID             int64     `json:"id"`
	UID            string    `json:"uid"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Date           time.Time `json:"date"`
	Duration       int       `json:"duration"` // seconds
	AgeRestriction string    `json:"age_restriction"`
	Master         string    `json:"master"`
	TotalSeats     int       `json:"total_seats"`
	AvailSeats     int       `json:"avail_seats"`
	Price          Decimal   `json:"price"`        // in person
	OnlinePrice    Decimal   `json:"online_price"` // booked online
	Location       string    `json:"location"`
	MaxComplexity  int       `json:"max_complexity"`
	Complexity     int       `json:"complexity"`
	CreationTS     time.Time `json:"creation_ts"`
	ModificationTS time.Time `json:"modification_ts"`

	// Source images, downloaded under the media prefix as <uid>.jpeg and
	// <uid>_preview.jpeg.
	ImageURL        string `json:"img_url,omitempty"`
	PreviewImageURL string `json:"preview_img_url,omitempty"`
}

// Available reports whether any seat is left.
func (m Masterclass) Available() bool {
	return m.AvailSeats > 0
}

// Page is one page of the paginated listing endpoint.
type Page struct {
	Count    int           `json:"count"`
	Next     *string       `json:"next"`
	Previous *string       `json:"previous"`
	Results  []Masterclass `json:"results"`

	// Malformed lists the items decoded with zeroed fields.
	Malformed []error `json:"-"`
}

// NextRef returns the next page reference, or "" when pagination is over.
func (p *Page) NextRef() string {
	if p == nil || p.Next == nil {
		return ""
	}
	return *p.Next
}

// Decimal is a price. The API encodes decimals as strings
// ("1500.0000000000"); plain JSON numbers are accepted too.
type Decimal float64

// Float returns the value as float64.
func (d Decimal) Float() float64 {
	return float64(d)
}

func (d Decimal) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(strconv.FormatFloat(float64(d), 'f', 2, 64))), nil
}

func (d *Decimal) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*d = 0
			return nil
		}
		data = []byte(s)
	}
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("decimal %q: %w", data, err)
	}
	*d = Decimal(f)
	return nil
}
