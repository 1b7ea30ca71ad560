package browser

import (
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"leomaster/models"
)

// ParseCards reads the summary cards out of gallery markup: a whole page,
// the grid container or loose grid items.
func ParseCards(html string, scrapedAt time.Time) ([]models.Card, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse gallery html: %w", err)
	}

	var cards []models.Card
	doc.Find(".grid-item").Each(func(_ int, item *goquery.Selection) {
		block := item.Find(".mc-block").First()
		card := models.Card{
			UID:       item.AttrOr("data-uid", ""),
			Title:     strings.TrimSpace(block.Find(".card-title").First().Text()),
			DateTime:  strings.TrimSpace(block.Find(".mc-datetime").First().Text()),
			Weekday:   strings.TrimSpace(block.Find(".mc-weekday").First().Text()),
			Price:     strings.TrimSpace(block.Find(".mc-price").First().Text()),
			Seats:     strings.TrimSpace(block.Find(".mc-seats").First().Text()),
			Thumbnail: block.Find("img").First().AttrOr("src", ""),
			SoldOut:   block.HasClass("not-available"),
			Weekend:   block.HasClass("holiday"),
			ScrapedAt: scrapedAt,
		}
		if card.UID == "" {
			// the overlay id carries the uid too
			target := block.Find("img[data-target]").First().AttrOr("data-target", "")
			card.UID = strings.TrimPrefix(target, "#mcDescription_")
		}
		if card.UID == "" && card.Title == "" {
			return
		}
		cards = append(cards, card)
	})
	return cards, nil
}
