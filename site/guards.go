package site

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Guard reports whether a request may proceed. Guards read headers and
// the remote address only; they never touch the body or write responses.
type Guard interface {
	Check(r *http.Request) bool
}

type ipEntry struct {
	count     int
	windowEnd time.Time
}

// IPRateGuard allows up to limit requests per client IP in each window.
type IPRateGuard struct {
	mu      sync.Mutex
	entries map[string]*ipEntry
	limit   int
	window  time.Duration
	now     func() time.Time
}

// NewIPRateGuard creates a guard. A non-positive limit or window disables it.
func NewIPRateGuard(limit int, window time.Duration) *IPRateGuard {
	return &IPRateGuard{
		entries: make(map[string]*ipEntry),
		limit:   limit,
		window:  window,
		now:     time.Now,
	}
}

func (g *IPRateGuard) Check(r *http.Request) bool {
	if g.limit <= 0 || g.window <= 0 {
		return true
	}

	ip := clientIP(r)
	if ip == "" {
		return true
	}

	now := g.now()

	g.mu.Lock()
	defer g.mu.Unlock()

	entry, exists := g.entries[ip]
	if !exists || now.After(entry.windowEnd) {
		g.entries[ip] = &ipEntry{count: 1, windowEnd: now.Add(g.window)}
		g.cleanup(now)
		return true
	}

	if entry.count >= g.limit {
		return false
	}
	entry.count++
	return true
}

// cleanup drops expired windows.
func (g *IPRateGuard) cleanup(now time.Time) {
	for ip, entry := range g.entries {
		if now.After(entry.windowEnd) {
			delete(g.entries, ip)
		}
	}
}

// clientIP returns the first X-Forwarded-For address when it parses,
// otherwise the connection's remote address.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		candidate := strings.TrimSpace(strings.Split(xff, ",")[0])
		if parsed := net.ParseIP(candidate); parsed != nil {
			return parsed.String()
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return ""
	}
	if parsed := net.ParseIP(host); parsed != nil {
		return parsed.String()
	}
	return ""
}

// guarded runs guards before h and answers 429 when one refuses.
func guarded(h http.Handler, guards ...Guard) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, g := range guards {
			if !g.Check(r) {
				tooManyRequests(w)
				return
			}
		}
		h.ServeHTTP(w, r)
	})
}
