package services

import (
	"sort"

	"github.com/rs/zerolog"

	"leomaster/models"
	"leomaster/render"
)

const topComplex = 5

// InsightService computes analytics from a loaded gallery
type InsightService struct {
	formatter render.Formatter
	logger    zerolog.Logger
}

// NewInsightService creates a new InsightService. Weekends are judged in
// the formatter's time zone.
func NewInsightService(f render.Formatter, logger zerolog.Logger) *InsightService {
	return &InsightService{formatter: f, logger: logger}
}

// Generate computes the report. Prices are the online prices shown on
// the cards; zero prices are left out of the price statistics.
func (s *InsightService) Generate(items []models.Masterclass) *models.InsightReport {
	report := &models.InsightReport{
		ByLocation: make(map[string]int),
	}

	if len(items) == 0 {
		s.logger.Warn().Msg("no masterclasses to generate insights from")
		return report
	}

	var totalPrice float64
	priced := 0

	for i := range items {
		mc := &items[i]
		report.TotalMasterclasses++
		if mc.Available() {
			report.Available++
		} else {
			report.SoldOut++
		}
		if !mc.Date.IsZero() && s.formatter.IsWeekend(mc.Date) {
			report.OnWeekend++
		}

		if price := mc.OnlinePrice.Float(); price > 0 {
			totalPrice += price
			priced++
			if report.MinPrice == 0 || price < report.MinPrice {
				report.MinPrice = price
			}
			if price > report.MaxPrice {
				report.MaxPrice = price
				report.MostExpensive = mc
			}
		}

		if mc.Location != "" {
			report.ByLocation[mc.Location]++
		}
	}

	if priced > 0 {
		report.AveragePrice = totalPrice / float64(priced)
	}

	ranked := make([]*models.Masterclass, 0, len(items))
	for i := range items {
		if items[i].Complexity > 0 {
			ranked = append(ranked, &items[i])
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Complexity > ranked[j].Complexity
	})
	if len(ranked) > topComplex {
		ranked = ranked[:topComplex]
	}
	report.MostComplex = ranked

	return report
}
