package models

import "time"

// Card is a summary card read back from a rendered gallery page.
type Card struct {
	UID       string
	Title     string
	DateTime  string // as displayed, "DD-MM-YYYY HH:MM"
	Weekday   string
	Price     string
	Seats     string
	Thumbnail string
	SoldOut   bool
	Weekend   bool
	ScrapedAt time.Time
}
