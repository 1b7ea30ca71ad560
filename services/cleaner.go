package services

import (
	"strings"

	"github.com/rs/zerolog"

	"leomaster/models"
)

// DataCleaner normalizes loaded masterclasses before export or storage
type DataCleaner struct {
	logger zerolog.Logger
}

// NewDataCleaner creates a new DataCleaner
func NewDataCleaner(logger zerolog.Logger) *DataCleaner {
	return &DataCleaner{logger: logger}
}

// Clean trims text fields, drops records without a uid or title, removes
// duplicate uids (first one wins) and clamps seat and complexity counters
// into range.
func (c *DataCleaner) Clean(raw []models.Masterclass) []models.Masterclass {
	seen := make(map[string]bool)
	cleaned := make([]models.Masterclass, 0, len(raw))

	for _, mc := range raw {
		mc.UID = strings.TrimSpace(mc.UID)
		mc.Title = collapseSpaces(mc.Title)
		if mc.UID == "" || mc.Title == "" {
			c.logger.Debug().Str("uid", mc.UID).Msg("skipping masterclass without uid or title")
			continue
		}
		if seen[mc.UID] {
			c.logger.Debug().Str("uid", mc.UID).Msg("skipping duplicate")
			continue
		}
		seen[mc.UID] = true

		mc.Location = collapseSpaces(mc.Location)
		mc.Master = collapseSpaces(mc.Master)
		mc.AgeRestriction = strings.TrimSpace(mc.AgeRestriction)
		mc.Description = strings.TrimSpace(mc.Description)

		mc.TotalSeats = clamp(mc.TotalSeats, 0, mc.TotalSeats)
		mc.AvailSeats = clamp(mc.AvailSeats, 0, mc.TotalSeats)
		mc.MaxComplexity = clamp(mc.MaxComplexity, 0, mc.MaxComplexity)
		mc.Complexity = clamp(mc.Complexity, 0, mc.MaxComplexity)
		if mc.Duration < 0 {
			mc.Duration = 0
		}

		cleaned = append(cleaned, mc)
	}

	c.logger.Info().Int("cleaned", len(cleaned)).Int("raw", len(raw)).Msg("cleaned masterclasses")
	return cleaned
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
