package storage

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leomaster/models"
)

func sample() []models.Masterclass {
	return []models.Masterclass{
		{
			UID:         "101",
			Title:       "Пионы, масло",
			Date:        time.Date(2018, time.June, 9, 15, 0, 0, 0, time.UTC),
			Duration:    10800,
			Location:    "Лофт на Тверской",
			Master:      "Анна",
			TotalSeats:  10,
			AvailSeats:  2,
			Price:       2500,
			OnlinePrice: 2200.5,
			Description: "Рисуем пионы",
		},
		{UID: "102", Title: "Без даты"},
	}
}

func TestCSVWriter_Write(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "masterclasses.csv")
	w := NewCSVWriter(path, zerolog.Nop())
	require.NoError(t, w.Write(sample()))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, "101", rows[1][0])
	assert.Equal(t, "Пионы, масло", rows[1][1])
	assert.Equal(t, "2018-06-09T15:00:00Z", rows[1][2])
	assert.Equal(t, "2200.50", rows[1][5])
	assert.Equal(t, "2500.00", rows[1][6])
	assert.Equal(t, "", rows[2][2], "undated rows have an empty date")
}

func TestCalendar(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCalendar(&buf, "topic", "http://localhost:8000/masterclasses/topic/", sample()))

	cal, err := ics.ParseCalendar(strings.NewReader(buf.String()))
	require.NoError(t, err)

	events := cal.Events()
	require.Len(t, events, 1, "undated masterclasses are skipped")
	ev := events[0]
	assert.Equal(t, "101@leomaster", ev.Id())
	assert.Equal(t, "Пионы, масло", ev.GetProperty(ics.ComponentPropertySummary).Value)
	assert.Contains(t, ev.GetProperty(ics.ComponentPropertyDtEnd).Value, "20180609T180000Z")
	assert.Contains(t, ev.GetProperty(ics.ComponentPropertyUrl).Value, "#mcDescription_101")
}

func TestICSWriter_Write(t *testing.T) {
	path := filepath.Join(t.TempDir(), "masterclasses.ics")
	require.NoError(t, NewICSWriter(path, "all", "", zerolog.Nop()).Write(sample()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "BEGIN:VCALENDAR")
	assert.Contains(t, string(data), "UID:101@leomaster")
}
