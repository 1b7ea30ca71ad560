// Package render turns masterclasses into gallery HTML: a summary card plus
// a detail overlay per item, and the page that hosts them.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"

	"leomaster/models"
)

//go:embed templates/*.html
var templateFS embed.FS

// Renderer renders fragments and pages with a fixed formatter.
type Renderer struct {
	formatter   Formatter
	mediaPrefix string
	tmpl        *template.Template
}

// PageData is the gallery page model.
type PageData struct {
	Title        string
	Group        string
	Items        []template.HTML
	Next         string // next page reference, empty when exhausted
	FragmentsURL string // endpoint the page script loads more items from
	Script       string // empty for static pages
}

type itemData struct {
	F Fragment
	L Locale
}

type pageData struct {
	PageData
	Lang string
}

// NewRenderer parses the embedded templates.
func NewRenderer(f Formatter, mediaPrefix string) (*Renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Renderer{formatter: f, mediaPrefix: mediaPrefix, tmpl: tmpl}, nil
}

// Formatter returns the formatter the renderer was built with.
func (r *Renderer) Formatter() Formatter {
	return r.formatter
}

// Fragment maps mc to its fragment without rendering it.
func (r *Renderer) Fragment(mc models.Masterclass) Fragment {
	return NewFragment(r.formatter, r.mediaPrefix, mc)
}

// Item writes the card and overlay markup for mc.
func (r *Renderer) Item(w io.Writer, mc models.Masterclass) error {
	data := itemData{F: r.Fragment(mc), L: r.formatter.Locale}
	if err := r.tmpl.ExecuteTemplate(w, "item", data); err != nil {
		return fmt.Errorf("render %s: %w", mc.UID, err)
	}
	return nil
}

// ItemHTML renders mc into a standalone HTML fragment.
func (r *Renderer) ItemHTML(mc models.Masterclass) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.Item(&buf, mc); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// Items renders several masterclasses back to back.
func (r *Renderer) Items(w io.Writer, items []models.Masterclass) error {
	for _, mc := range items {
		if err := r.Item(w, mc); err != nil {
			return err
		}
	}
	return nil
}

// Page writes a complete gallery page.
func (r *Renderer) Page(w io.Writer, data PageData) error {
	if err := r.tmpl.ExecuteTemplate(w, "page", pageData{PageData: data, Lang: r.formatter.Locale.Tag.String()}); err != nil {
		return fmt.Errorf("render page: %w", err)
	}
	return nil
}
