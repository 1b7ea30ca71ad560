package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"leomaster/models"
)

var csvHeader = []string{
	"uid", "title", "date", "location", "master",
	"online_price", "price", "avail_seats", "total_seats",
	"duration", "complexity", "max_complexity", "age_restriction", "description",
}

// CSVWriter handles writing masterclasses to a CSV file
type CSVWriter struct {
	filePath string
	logger   zerolog.Logger
}

// NewCSVWriter creates a new CSVWriter
func NewCSVWriter(filePath string, logger zerolog.Logger) *CSVWriter {
	return &CSVWriter{filePath: filePath, logger: logger}
}

// Write writes items to the CSV file, replacing its contents
func (w *CSVWriter) Write(items []models.Masterclass) error {
	dir := filepath.Dir(w.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.Create(w.filePath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, mc := range items {
		date := ""
		if !mc.Date.IsZero() {
			date = mc.Date.Format(time.RFC3339)
		}
		row := []string{
			mc.UID,
			mc.Title,
			date,
			mc.Location,
			mc.Master,
			strconv.FormatFloat(mc.OnlinePrice.Float(), 'f', 2, 64),
			strconv.FormatFloat(mc.Price.Float(), 'f', 2, 64),
			strconv.Itoa(mc.AvailSeats),
			strconv.Itoa(mc.TotalSeats),
			strconv.Itoa(mc.Duration),
			strconv.Itoa(mc.Complexity),
			strconv.Itoa(mc.MaxComplexity),
			mc.AgeRestriction,
			mc.Description,
		}
		if err := writer.Write(row); err != nil {
			w.logger.Error().Err(err).Str("uid", mc.UID).Msg("failed to write CSV row")
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}

	w.logger.Info().Str("path", w.filePath).Int("rows", len(items)).Msg("masterclasses written to CSV")
	return nil
}
