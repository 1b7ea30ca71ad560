package gallery

import (
	"html/template"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"leomaster/render"
)

// Document is an in-memory grid container that can be written out as a
// static gallery page.
type Document struct {
	mu    sync.Mutex
	items []template.HTML
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{}
}

// Append adds one rendered grid item.
func (d *Document) Append(item template.HTML) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.items = append(d.items, item)
	return nil
}

// Len returns the number of items appended.
func (d *Document) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.items)
}

// Items returns a copy of the appended items.
func (d *Document) Items() []template.HTML {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]template.HTML, len(d.items))
	copy(out, d.items)
	return out
}

// WritePage renders the whole gallery as a static page.
func (d *Document) WritePage(w io.Writer, r *render.Renderer, title, group string) error {
	return r.Page(w, render.PageData{
		Title: title,
		Group: group,
		Items: d.Items(),
	})
}

// LogIndicator reports loading state through the logger.
type LogIndicator struct {
	Logger zerolog.Logger
}

func (i LogIndicator) Show() { i.Logger.Debug().Msg("loader shown") }
func (i LogIndicator) Hide() { i.Logger.Debug().Msg("loader hidden") }
