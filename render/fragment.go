package render

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"leomaster/models"
)

// Fragment is everything the card and its detail overlay display for one
// masterclass, already formatted.
type Fragment struct {
	UID     string
	ModalID string
	Title   string

	Thumbnail string
	Preview   string

	DateTime string
	Weekday  string
	FullDate string

	OnlinePrice string
	Price       string
	AvailSeats  int
	TotalSeats  int

	Available bool
	Weekend   bool

	Complexity     []bool
	Location       string
	Master         string
	Duration       string
	AgeRestriction string
	Description    []string // paragraphs
}

// NewFragment maps a masterclass to its card fragment. mediaPrefix is the
// URL path the item images are served under.
func NewFragment(f Formatter, mediaPrefix string, mc models.Masterclass) Fragment {
	return Fragment{
		UID:            mc.UID,
		ModalID:        ModalID(mc.UID),
		Title:          mc.Title,
		Thumbnail:      mediaPrefix + mc.UID + ".jpeg",
		Preview:        mediaPrefix + mc.UID + "_preview.jpeg",
		DateTime:       f.DateTime(mc.Date),
		Weekday:        f.Weekday(mc.Date),
		FullDate:       f.FullDate(mc.Date),
		OnlinePrice:    Financial(mc.OnlinePrice.Float()),
		Price:          Financial(mc.Price.Float()),
		AvailSeats:     mc.AvailSeats,
		TotalSeats:     mc.TotalSeats,
		Available:      mc.Available(),
		Weekend:        f.IsWeekend(mc.Date),
		Complexity:     Complexity(mc.Complexity, mc.MaxComplexity),
		Location:       mc.Location,
		Master:         mc.Master,
		Duration:       f.Duration(mc.Duration),
		AgeRestriction: mc.AgeRestriction,
		Description:    paragraphs(mc.Description),
	}
}

// ModalID links a card to its detail overlay.
func ModalID(uid string) string {
	return "mcDescription_" + uid
}

// CardClasses lists the state classes of the summary card.
func (f Fragment) CardClasses() string {
	var classes []string
	if !f.Available {
		classes = append(classes, "not-available")
	}
	if f.Weekend {
		classes = append(classes, "holiday")
	}
	return strings.Join(classes, " ")
}

// blockSelector lists the elements that end a paragraph in an HTML
// description.
const blockSelector = "p, div, li, ul, ol, blockquote, h1, h2, h3, h4, h5, h6"

// paragraphs splits a description on blank lines. Descriptions scraped
// as HTML are reduced to their text first, with block elements and <br>
// turned into breaks.
func paragraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	if strings.ContainsAny(text, "<&") {
		text = stripTags(text)
	}
	var out []string
	for _, p := range strings.Split(text, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func stripTags(text string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<body>" + text + "</body>"))
	if err != nil {
		return text
	}
	body := doc.Find("body")
	body.Find("script, style").Remove()
	body.Find("br").ReplaceWithHtml("\n")
	body.Find(blockSelector).AppendHtml("\n\n")
	return body.Text()
}
