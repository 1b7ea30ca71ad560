package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/rs/zerolog"

	"leomaster/models"
)

const productID = "-//leomaster//masterclasses//RU"

// defaultEventLength is used for masterclasses without a duration.
const defaultEventLength = 2 * time.Hour

// Calendar builds an iCalendar feed of items. Masterclasses without a date
// are left out. siteURL, when set, is used for each event's URL.
func Calendar(name, siteURL string, items []models.Masterclass) *ics.Calendar {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)
	cal.SetXWRCalName(name)

	for _, mc := range items {
		if mc.Date.IsZero() {
			continue
		}
		length := time.Duration(mc.Duration) * time.Second
		if length <= 0 {
			length = defaultEventLength
		}

		event := cal.AddEvent(mc.UID + "@leomaster")
		stamp := mc.ModificationTS
		if stamp.IsZero() {
			stamp = time.Now()
		}
		event.SetDtStampTime(stamp.UTC())
		event.SetStartAt(mc.Date.UTC())
		event.SetEndAt(mc.Date.Add(length).UTC())
		event.SetSummary(mc.Title)
		if mc.Location != "" {
			event.SetLocation(mc.Location)
		}
		if mc.Description != "" {
			event.SetDescription(mc.Description)
		}
		if siteURL != "" {
			event.SetURL(siteURL + "#mcDescription_" + mc.UID)
		}
	}
	return cal
}

// WriteCalendar serializes a feed of items to w.
func WriteCalendar(w io.Writer, name, siteURL string, items []models.Masterclass) error {
	return Calendar(name, siteURL, items).SerializeTo(w)
}

// ICSWriter writes masterclasses to an .ics file
type ICSWriter struct {
	filePath string
	name     string
	siteURL  string
	logger   zerolog.Logger
}

// NewICSWriter creates a new ICSWriter
func NewICSWriter(filePath, name, siteURL string, logger zerolog.Logger) *ICSWriter {
	return &ICSWriter{filePath: filePath, name: name, siteURL: siteURL, logger: logger}
}

// Write writes items to the calendar file, replacing its contents
func (w *ICSWriter) Write(items []models.Masterclass) error {
	if err := os.MkdirAll(filepath.Dir(w.filePath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.Create(w.filePath)
	if err != nil {
		return fmt.Errorf("failed to create ICS file: %w", err)
	}
	defer file.Close()

	if err := WriteCalendar(file, w.name, w.siteURL, items); err != nil {
		return fmt.Errorf("failed to write ICS: %w", err)
	}

	w.logger.Info().Str("path", w.filePath).Int("events", len(items)).Msg("masterclasses written to calendar")
	return nil
}
