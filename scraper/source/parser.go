package source

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"leomaster/models"
)

// value is one extracted field in every form a setter may want.
type value struct {
	text string
	n    int
	f    float64
	t    time.Time
}

type setter func(mc *models.Masterclass, v value)

var setters = map[string]setter{
	"uid":             func(mc *models.Masterclass, v value) { mc.UID = v.text },
	"title":           func(mc *models.Masterclass, v value) { mc.Title = v.text },
	"description":     func(mc *models.Masterclass, v value) { mc.Description = v.text },
	"date":            func(mc *models.Masterclass, v value) { mc.Date = v.t },
	"duration":        func(mc *models.Masterclass, v value) { mc.Duration = v.n },
	"age_restriction": func(mc *models.Masterclass, v value) { mc.AgeRestriction = v.text },
	"master":          func(mc *models.Masterclass, v value) { mc.Master = v.text },
	"location":        func(mc *models.Masterclass, v value) { mc.Location = v.text },
	"total_seats":     func(mc *models.Masterclass, v value) { mc.TotalSeats = v.n },
	"avail_seats":     func(mc *models.Masterclass, v value) { mc.AvailSeats = v.n },
	"price":           func(mc *models.Masterclass, v value) { mc.Price = models.Decimal(v.f) },
	"online_price":    func(mc *models.Masterclass, v value) { mc.OnlinePrice = models.Decimal(v.f) },
	"max_complexity":  func(mc *models.Masterclass, v value) { mc.MaxComplexity = v.n },
	"complexity":      func(mc *models.Masterclass, v value) { mc.Complexity = v.n },
	"img_url":         func(mc *models.Masterclass, v value) { mc.ImageURL = v.text },
	"preview_img_url": func(mc *models.Masterclass, v value) { mc.PreviewImageURL = v.text },
}

// urlFields are resolved against the page URL.
var urlFields = map[string]bool{"img_url": true, "preview_img_url": true}

// Result is what one schedule page yielded.
type Result struct {
	Items   []models.Masterclass
	Skipped []error // one per section that could not be read
}

// Parser reads schedule pages with a fixed set of rules.
type Parser struct {
	rules  Rules
	names  []string // field names, sorted for stable error messages
	zones  map[string]*time.Location
	base   *url.URL
	logger zerolog.Logger
}

// NewParser validates rules and prepares their time zones. pageURL is
// used to resolve relative image links and may be empty.
func NewParser(rules Rules, pageURL string, logger zerolog.Logger) (*Parser, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}

	p := &Parser{rules: rules, zones: make(map[string]*time.Location), logger: logger}
	for name, f := range rules.Fields {
		p.names = append(p.names, name)
		if f.Type != TypeDateTime {
			continue
		}
		loc := time.UTC
		if f.TimeZone != "" {
			var err error
			if loc, err = time.LoadLocation(f.TimeZone); err != nil {
				return nil, fmt.Errorf("rules: field %q: %w", name, err)
			}
		}
		p.zones[name] = loc
	}
	sort.Strings(p.names)

	if pageURL != "" {
		base, err := url.Parse(pageURL)
		if err != nil {
			return nil, fmt.Errorf("parse page url: %w", err)
		}
		p.base = base
	}
	return p, nil
}

// Parse reads every section of the page. A section missing a required
// field is skipped and reported in Result.Skipped. When two sections
// share a key, the later one wins.
func (p *Parser) Parse(r io.Reader) (*Result, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse schedule page: %w", err)
	}

	res := &Result{}
	byKey := make(map[string]int)
	doc.Find(p.rules.Sections).Each(func(i int, s *goquery.Selection) {
		mc, key, err := p.section(s)
		if err != nil {
			res.Skipped = append(res.Skipped, fmt.Errorf("section %d: %w", i, err))
			return
		}
		if j, ok := byKey[key]; ok {
			p.logger.Debug().Str("key", key).Msg("section repeated, keeping the later one")
			res.Items[j] = mc
			return
		}
		byKey[key] = len(res.Items)
		res.Items = append(res.Items, mc)
	})

	p.logger.Info().
		Int("parsed", len(res.Items)).
		Int("skipped", len(res.Skipped)).
		Msg("schedule page parsed")
	return res, nil
}

func (p *Parser) section(s *goquery.Selection) (models.Masterclass, string, error) {
	var (
		mc   models.Masterclass
		key  string
		errs []error
	)
	for _, name := range p.names {
		rule := p.rules.Fields[name]
		v, err := p.extract(s, name, rule)
		if err != nil {
			if !rule.Optional {
				errs = append(errs, err)
			}
			continue
		}
		setters[name](&mc, v)
		if name == p.rules.KeyField {
			key = v.text
		}
	}
	if len(errs) > 0 {
		return mc, "", errors.Join(errs...)
	}
	if mc.UID == "" {
		mc.UID = key
	}
	return mc, key, nil
}

func (p *Parser) extract(s *goquery.Selection, name string, rule FieldRule) (value, error) {
	sel := s
	if rule.Selector != "" {
		sel = s.Find(rule.Selector).First()
	}

	var raw string
	if sel.Length() > 0 {
		switch rule.Attr {
		case "":
			raw = strings.Join(strings.Fields(sel.Text()), " ")
		case "html":
			raw, _ = sel.Html()
			raw = strings.TrimSpace(raw)
		default:
			raw = strings.TrimSpace(sel.AttrOr(rule.Attr, ""))
		}
	}
	if raw == "" {
		return value{}, &ExtractionError{Field: name, Err: ErrEmpty}
	}

	v := value{text: raw}
	var err error
	switch rule.Type {
	case TypeInteger:
		v.n, err = ParseInt(raw)
		v.f = float64(v.n)
	case TypeCurrency:
		v.f, err = ParseCurrency(raw)
		v.n = int(v.f)
	case TypeDuration:
		v.n, err = ParseDuration(raw)
		v.f = float64(v.n)
	case TypeDateTime:
		v.t, err = ParseDateTime(raw, rule.Format, p.zones[name])
	}
	if err != nil {
		return value{}, &ExtractionError{Field: name, Value: raw, Err: err}
	}

	if urlFields[name] && p.base != nil {
		if ref, err := url.Parse(raw); err == nil {
			v.text = p.base.ResolveReference(ref).String()
		}
	}
	return v, nil
}
