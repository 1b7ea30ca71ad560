package scrolltop

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type quirksView struct {
	body, doc float64
	resets    int
}

func (q *quirksView) ScrollOffsets() (float64, float64) { return q.body, q.doc }
func (q *quirksView) ResetScroll() {
	q.body, q.doc = 0, 0
	q.resets++
}

func TestToggle_ShowHideAndTop(t *testing.T) {
	page := &Page{}
	tg := New(page, page)

	page.ScrollTo(25)
	assert.Equal(t, ClassVisible, tg.OnScroll())
	assert.Equal(t, ClassVisible, page.Class())

	page.ScrollTo(0)
	assert.Equal(t, ClassHidden, tg.OnScroll())
	assert.Equal(t, ClassHidden, page.Class())

	page.ScrollTo(500)
	tg.OnScroll()
	tg.Top()
	body, doc := page.ScrollOffsets()
	assert.Zero(t, body)
	assert.Zero(t, doc)
	assert.Equal(t, ClassHidden, tg.OnScroll())
}

func TestToggle_EitherOffsetShowsButton(t *testing.T) {
	tests := []struct {
		name      string
		body, doc float64
		want      string
	}{
		{"body only", 21, 0, ClassVisible},
		{"document only", 0, 21, ClassVisible},
		{"both at threshold", 20, 20, ClassHidden},
		{"neither", 0, 0, ClassHidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := &quirksView{body: tt.body, doc: tt.doc}
			page := &Page{}
			assert.Equal(t, tt.want, New(view, page).OnScroll())
			assert.Equal(t, tt.want, page.Class())
		})
	}
}

func TestToggle_TopResetsBothOffsets(t *testing.T) {
	view := &quirksView{body: 300, doc: 500}
	New(view, &Page{}).Top()
	assert.Zero(t, view.body)
	assert.Zero(t, view.doc)
	assert.Equal(t, 1, view.resets)
}

func TestClassFor(t *testing.T) {
	assert.Equal(t, ClassVisible, ClassFor(500))
	assert.Equal(t, ClassVisible, ClassFor(21))
	assert.Equal(t, ClassHidden, ClassFor(20))
	assert.Equal(t, ClassHidden, ClassFor(0))
}
