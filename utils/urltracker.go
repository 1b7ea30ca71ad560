package utils

import (
	"net/url"
	"strings"
	"sync"
)

// URLTracker remembers fetched page references so a pagination loop is
// noticed. References that differ only in query order, an empty query or
// a trailing slash count as the same page.
type URLTracker struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewURLTracker creates an empty tracker.
func NewURLTracker() *URLTracker {
	return &URLTracker{seen: make(map[string]struct{})}
}

// Add records ref and reports whether it was new.
func (t *URLTracker) Add(ref string) bool {
	key := pageKey(ref)
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.seen[key]; ok {
		return false
	}
	t.seen[key] = struct{}{}
	return true
}

// Seen reports whether ref was added before, without adding it.
func (t *URLTracker) Seen(ref string) bool {
	key := pageKey(ref)
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.seen[key]
	return ok
}

// Count returns the number of distinct pages recorded.
func (t *URLTracker) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.seen)
}

func pageKey(ref string) string {
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	u.Fragment = ""
	u.RawQuery = u.Query().Encode()
	if len(u.Path) > 1 {
		u.Path = strings.TrimSuffix(u.Path, "/")
	}
	u.RawPath = ""
	return u.String()
}
