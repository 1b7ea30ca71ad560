package services

import (
	"bytes"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"leomaster/models"
	"leomaster/render"
)

func TestDataCleaner_Clean(t *testing.T) {
	c := NewDataCleaner(zerolog.Nop())
	raw := []models.Masterclass{
		{UID: " 1 ", Title: "  Пионы   маслом ", Location: " Лофт  ", TotalSeats: 10, AvailSeats: 12, MaxComplexity: 5, Complexity: 7},
		{UID: "1", Title: "Duplicate"},
		{UID: "", Title: "No uid"},
		{UID: "2", Title: "   "},
		{UID: "3", Title: "Negative", TotalSeats: -4, AvailSeats: -1, Complexity: -2, Duration: -60},
	}

	got := c.Clean(raw)
	require.Len(t, got, 2)

	assert.Equal(t, "1", got[0].UID)
	assert.Equal(t, "Пионы маслом", got[0].Title)
	assert.Equal(t, "Лофт", got[0].Location)
	assert.Equal(t, 10, got[0].AvailSeats)
	assert.Equal(t, 5, got[0].Complexity)

	assert.Equal(t, "3", got[1].UID)
	assert.Zero(t, got[1].TotalSeats)
	assert.Zero(t, got[1].AvailSeats)
	assert.Zero(t, got[1].Complexity)
	assert.Zero(t, got[1].Duration)
}

func insightFixture() []models.Masterclass {
	sat := time.Date(2018, time.June, 9, 12, 0, 0, 0, time.UTC)
	mon := time.Date(2018, time.June, 11, 12, 0, 0, 0, time.UTC)
	return []models.Masterclass{
		{UID: "a", Title: "A", Date: sat, OnlinePrice: 1000, AvailSeats: 3, Location: "Loft", Complexity: 2, MaxComplexity: 5},
		{UID: "b", Title: "B", Date: mon, OnlinePrice: 3000, AvailSeats: 0, Location: "Loft", Complexity: 5, MaxComplexity: 5},
		{UID: "c", Title: "C", Date: mon, OnlinePrice: 0, AvailSeats: 1, Location: "Studio", Complexity: 3, MaxComplexity: 5},
		{UID: "d", Title: "D", OnlinePrice: 2000, AvailSeats: 1},
	}
}

func TestInsightService_Generate(t *testing.T) {
	s := NewInsightService(render.NewFormatter("ru", time.UTC), zerolog.Nop())
	r := s.Generate(insightFixture())

	assert.Equal(t, 4, r.TotalMasterclasses)
	assert.Equal(t, 3, r.Available)
	assert.Equal(t, 1, r.SoldOut)
	assert.Equal(t, 1, r.OnWeekend)
	assert.InDelta(t, 1000, r.MinPrice, 0.001)
	assert.InDelta(t, 3000, r.MaxPrice, 0.001)
	assert.InDelta(t, 2000, r.AveragePrice, 0.001)
	require.NotNil(t, r.MostExpensive)
	assert.Equal(t, "b", r.MostExpensive.UID)
	assert.Equal(t, map[string]int{"Loft": 2, "Studio": 1}, r.ByLocation)

	require.Len(t, r.MostComplex, 3)
	assert.Equal(t, "b", r.MostComplex[0].UID)
	assert.Equal(t, "c", r.MostComplex[1].UID)
	assert.Equal(t, "a", r.MostComplex[2].UID)
}

func TestInsightService_WeekendInViewerZone(t *testing.T) {
	vladivostok := time.FixedZone("VLAT", 10*3600)
	// Friday 20:00 UTC is Saturday morning in Vladivostok
	fri := time.Date(2018, time.June, 8, 20, 0, 0, 0, time.UTC)
	items := []models.Masterclass{{UID: "x", Title: "X", Date: fri}}

	assert.Zero(t, NewInsightService(render.NewFormatter("ru", time.UTC), zerolog.Nop()).Generate(items).OnWeekend)
	assert.Equal(t, 1, NewInsightService(render.NewFormatter("ru", vladivostok), zerolog.Nop()).Generate(items).OnWeekend)
}

func TestInsightService_Empty(t *testing.T) {
	r := NewInsightService(render.NewFormatter("ru", nil), zerolog.Nop()).Generate(nil)
	assert.Zero(t, r.TotalMasterclasses)
	assert.Nil(t, r.MostExpensive)
	assert.NotNil(t, r.ByLocation)
}

func TestWriteInsightReport(t *testing.T) {
	r := NewInsightService(render.NewFormatter("en", time.UTC), zerolog.Nop()).Generate(insightFixture())

	var buf bytes.Buffer
	require.NoError(t, WriteInsightReport(&buf, r, language.English))
	out := buf.String()

	assert.Contains(t, out, "MASTERCLASS GALLERY INSIGHTS")
	assert.Contains(t, out, "3,000.00")
	assert.Contains(t, out, "MOST EXPENSIVE")
	assert.Contains(t, out, "Loft:")
	assert.Contains(t, out, "TOP 3 MOST COMPLEX")
	assert.Contains(t, out, "5/5")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "Пионы ...", truncate("Пионы маслом", 9))
}
