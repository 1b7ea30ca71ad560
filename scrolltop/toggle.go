// Package scrolltop shows the "back to top" button once the page is
// scrolled and scrolls back to the top when the button is used.
package scrolltop

import "sync"

// Threshold is the scroll offset, in pixels, past which the button shows.
const Threshold = 20

// Button classes. The class attribute is replaced, not merged.
const (
	ClassVisible = "slow-visible"
	ClassHidden  = "slow-hidden"
)

// Viewport exposes the two scroll offsets a page may report: the content
// root's and the document element's.
type Viewport interface {
	ScrollOffsets() (body, document float64)
	ResetScroll()
}

// Button is the toggled element.
type Button interface {
	SetClass(class string)
}

// ClassFor returns the button class for a page scrolled to offset.
func ClassFor(offset float64) string {
	return classFor(offset, offset)
}

func classFor(body, document float64) string {
	if body > Threshold || document > Threshold {
		return ClassVisible
	}
	return ClassHidden
}

// Toggle binds a button to a viewport.
type Toggle struct {
	view   Viewport
	button Button
}

// New creates a toggle. It does not touch the button until the first
// scroll event.
func New(view Viewport, button Button) *Toggle {
	return &Toggle{view: view, button: button}
}

// OnScroll updates the button for the current offsets and returns the
// class it set.
func (t *Toggle) OnScroll() string {
	class := classFor(t.view.ScrollOffsets())
	t.button.SetClass(class)
	return class
}

// Top scrolls the page back to the top.
func (t *Toggle) Top() {
	t.view.ResetScroll()
}

// Page is an in-memory Viewport and Button, for driving the toggle
// without a browser.
type Page struct {
	mu       sync.Mutex
	body     float64
	document float64
	class    string
}

// ScrollTo sets both offsets, as a browser that scrolls the document
// element would report them.
func (p *Page) ScrollTo(offset float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.body, p.document = 0, offset
}

func (p *Page) ScrollOffsets() (float64, float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.body, p.document
}

func (p *Page) ResetScroll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.body, p.document = 0, 0
}

func (p *Page) SetClass(class string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.class = class
}

// Class returns the button's current class.
func (p *Page) Class() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.class
}
