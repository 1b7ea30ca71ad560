package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leomaster/models"
	"leomaster/utils"
)

const schedulePage = `<html><body>
<div class="mc-list">
  <div class="mc-item" data-id="mc-1">
    <h3 class="mc-item__title">Акварель для начинающих</h3>
    <span class="mc-item__date">19.07.2018 четверг 18:00</span>
    <span class="mc-item__seats-total">12</span>
    <span class="mc-item__seats-free">6</span>
  </div>
  <div class="mc-item" data-id="mc-2">
    <h3 class="mc-item__title">Без даты</h3>
    <span class="mc-item__seats-total">Всего мест: 10</span>
    <span class="mc-item__seats-free">Свободно: 2</span>
  </div>
  <div class="mc-item" data-id="mc-3">
    <h3 class="mc-item__title">Лепка</h3>
    <span class="mc-item__date">21.07.2018 суббота 11:30</span>
    <span class="mc-item__seats-total">8</span>
    <span class="mc-item__seats-free">8</span>
    <span class="mc-item__price">бесплатно</span>
  </div>
  <div class="mc-item" data-id="mc-1">
    <h3 class="mc-item__title">Акварель:   море</h3>
    <span class="mc-item__date">19.07.2018 четверг 18:00</span>
    <span class="mc-item__duration">3 часа</span>
    <span class="mc-item__age">12+</span>
    <span class="mc-item__master">Анна Петрова</span>
    <span class="mc-item__location">Леонардо на Невском</span>
    <span class="mc-item__seats-total">Всего мест: 12</span>
    <span class="mc-item__seats-free">Свободно: 4</span>
    <span class="mc-item__price">1500 руб.</span>
    <span class="mc-item__price-online">1350 р</span>
    <span class="mc-item__complexity" data-value="2" data-max="5"></span>
    <div class="mc-item__description"><p>Рисуем <b>море</b></p></div>
    <img class="mc-item__image" src="/media/mc-1.jpg">
    <img class="mc-item__preview" src="https://cdn.leonardo.ru/mc-1_small.jpg">
  </div>
</div>
</body></html>`

func TestParseInt(t *testing.T) {
	n, err := ParseInt("Осталось 7 мест")
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	_, err = ParseInt("нет")
	assert.Error(t, err)
}

func TestParseCurrency(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"100 рублей", 100, false},
		{"90р", 90, false},
		{" 1350\n р.", 1350, false},
		{"990,5 руб.", 990.5, false},
		{"бесплатно", 0, true},
		{"от 500 р", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCurrency(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"1,5 ч", 5400, false},
		{"3 часа", 10800, false},
		{"2.5ч", 9000, false},
		{"долго", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDuration(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDateTime(t *testing.T) {
	msk, err := time.LoadLocation("Europe/Moscow")
	require.NoError(t, err)
	want := time.Date(2018, time.July, 19, 15, 0, 0, 0, time.UTC)

	for _, in := range []string{"19.07.2018 четверг 18:00", "19.07.2018 18:00"} {
		got, err := ParseDateTime(in, "02.01.2006 15:04", msk)
		require.NoError(t, err, in)
		assert.True(t, want.Equal(got), "%s parsed as %s", in, got)
	}

	_, err = ParseDateTime("завтра", "02.01.2006 15:04", msk)
	assert.Error(t, err)
}

func TestParser_DefaultRules(t *testing.T) {
	p, err := NewParser(DefaultRules(), DefaultURL, zerolog.Nop())
	require.NoError(t, err)

	res, err := p.Parse(strings.NewReader(schedulePage))
	require.NoError(t, err)

	require.Len(t, res.Items, 2)
	require.Len(t, res.Skipped, 1)
	assert.Contains(t, res.Skipped[0].Error(), "field date")

	var extractErr *ExtractionError
	require.ErrorAs(t, res.Skipped[0], &extractErr)
	assert.ErrorIs(t, extractErr, ErrEmpty)

	mc := res.Items[0]
	assert.Equal(t, "mc-1", mc.UID)
	assert.Equal(t, "Акварель: море", mc.Title, "the later section wins and text is collapsed")
	assert.True(t, time.Date(2018, time.July, 19, 15, 0, 0, 0, time.UTC).Equal(mc.Date))
	assert.Equal(t, 10800, mc.Duration)
	assert.Equal(t, "12+", mc.AgeRestriction)
	assert.Equal(t, "Анна Петрова", mc.Master)
	assert.Equal(t, "Леонардо на Невском", mc.Location)
	assert.Equal(t, 12, mc.TotalSeats)
	assert.Equal(t, 4, mc.AvailSeats)
	assert.Equal(t, models.Decimal(1500), mc.Price)
	assert.Equal(t, models.Decimal(1350), mc.OnlinePrice)
	assert.Equal(t, 2, mc.Complexity)
	assert.Equal(t, 5, mc.MaxComplexity)
	assert.Contains(t, mc.Description, "<b>море</b>")
	assert.Equal(t, "https://leonardo.ru/media/mc-1.jpg", mc.ImageURL)
	assert.Equal(t, "https://cdn.leonardo.ru/mc-1_small.jpg", mc.PreviewImageURL)

	free := res.Items[1]
	assert.Equal(t, "mc-3", free.UID)
	assert.Equal(t, models.Decimal(0), free.Price, "an unreadable optional field stays zero")
	assert.Empty(t, free.ImageURL)
}

func TestParser_NoSections(t *testing.T) {
	p, err := NewParser(DefaultRules(), "", zerolog.Nop())
	require.NoError(t, err)

	res, err := p.Parse(strings.NewReader("<html><body><p>Расписание обновляется</p></body></html>"))
	require.NoError(t, err)
	assert.Empty(t, res.Items)
	assert.Empty(t, res.Skipped)
}

func TestLoadRules_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
sections: article.event
key_field: uid
fields:
  uid:
    attr: data-uid
  title:
    selector: h2
  date:
    selector: time
    attr: datetime
    type: dateTime
    format: "2006-01-02T15:04"
    time_zone: Europe/Moscow
`), 0o600))

	rules, err := LoadRules(path)
	require.NoError(t, err)

	p, err := NewParser(rules, "", zerolog.Nop())
	require.NoError(t, err)
	res, err := p.Parse(strings.NewReader(`<article class="event" data-uid="x7"><h2>Батик</h2><time datetime="2018-07-19T18:00">завтра</time></article>`))
	require.NoError(t, err)

	require.Len(t, res.Items, 1)
	assert.Equal(t, "x7", res.Items[0].UID)
	assert.Equal(t, "Батик", res.Items[0].Title)
	assert.Equal(t, 15, res.Items[0].Date.UTC().Hour())
}

func TestLoadRules_EmptyPathIsDefault(t *testing.T) {
	rules, err := LoadRules("")
	require.NoError(t, err)
	assert.Equal(t, DefaultRules(), rules)
}

func TestRules_Validate(t *testing.T) {
	base := func() Rules {
		return Rules{Sections: ".x", KeyField: "uid", Fields: map[string]FieldRule{"uid": {Attr: "id"}}}
	}
	tests := []struct {
		name   string
		modify func(*Rules)
		want   string
	}{
		{"valid", func(*Rules) {}, ""},
		{"no sections", func(r *Rules) { r.Sections = "" }, "sections"},
		{"no key", func(r *Rules) { r.KeyField = "" }, "key_field"},
		{"key without rule", func(r *Rules) { r.KeyField = "title" }, "has no rule"},
		{"unknown field", func(r *Rules) { r.Fields["colour"] = FieldRule{} }, "unknown field"},
		{"unknown type", func(r *Rules) { r.Fields["title"] = FieldRule{Type: "money"} }, "unknown type"},
		{"date without format", func(r *Rules) { r.Fields["date"] = FieldRule{Type: TypeDateTime} }, "needs a format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := base()
			tt.modify(&r)
			err := r.Validate()
			if tt.want == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestNewParser_BadTimeZone(t *testing.T) {
	rules := DefaultRules()
	date := rules.Fields["date"]
	date.TimeZone = "Mars/Olympus"
	rules.Fields["date"] = date

	_, err := NewParser(rules, "", zerolog.Nop())
	assert.Error(t, err)
}

func TestImageDownloader_Download(t *testing.T) {
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Path != "/a.jpg" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("jpeg-bytes"))
	}))
	defer ts.Close()

	dir := filepath.Join(t.TempDir(), "img")
	d := NewImageDownloader(dir, ts.Client(), utils.NewRateLimiter(0), zerolog.Nop())
	items := []models.Masterclass{
		{UID: "mc-1", ImageURL: ts.URL + "/a.jpg", PreviewImageURL: ts.URL + "/missing.jpg"},
		{UID: "mc-2"},
		{UID: "../evil", ImageURL: ts.URL + "/a.jpg"},
	}

	written, err := d.Download(context.Background(), items)
	assert.Equal(t, 1, written)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
	assert.Contains(t, err.Error(), "not a file name")

	data, err := os.ReadFile(filepath.Join(dir, "mc-1.jpeg"))
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(data))
	assert.NoFileExists(t, filepath.Join(dir, "mc-1_preview.jpeg"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files are left behind")

	hits.Store(0)
	written, _ = d.Download(context.Background(), items[:1])
	assert.Equal(t, 0, written)
	assert.Equal(t, int32(1), hits.Load(), "images already on disk are not fetched again")
}
