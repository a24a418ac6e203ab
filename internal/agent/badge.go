package agent

import (
	"regexp"
	"strconv"
	"sync"
	"time"
)

// badgeFallbackInterval re-evaluates the title even when no mutation
// event arrived; some pages rewrite the title without firing one.
const badgeFallbackInterval = 2 * time.Second

// Title badge patterns. WhatsApp puts the count in a leading "(n)"
// prefix; Messenger's "(n)" can occur anywhere in the title.
var (
	prefixBadgePattern   = regexp.MustCompile(`^\((\d+)\)`)
	anywhereBadgePattern = regexp.MustCompile(`\((\d+)\)`)
)

// ExtractBadge parses the unread count out of a document title using
// the service's pattern. ok is false when the title carries no badge.
func ExtractBadge(serviceName, title string) (count uint32, ok bool) {
	pattern := anywhereBadgePattern
	if serviceName == "whatsapp" {
		pattern = prefixBadgePattern
	}
	m := pattern.FindStringSubmatch(title)
	if m == nil {
		return 0, false
	}
	n, err := strconv.ParseUint(m[1], 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(n), true
}

// BadgeTracker turns continuous title evaluations into change-only
// badge reports, bounding upward message volume.
type BadgeTracker struct {
	service string
	report  func(count uint32)

	mu        sync.Mutex
	last      uint32 // starts at zero: an initial badge-less title reports nothing
	lastTitle string
}

// NewBadgeTracker creates a tracker that calls report on every badge
// value change. A title with no badge reads as count zero.
func NewBadgeTracker(serviceName string, report func(count uint32)) *BadgeTracker {
	return &BadgeTracker{service: serviceName, report: report}
}

// Evaluate processes one title observation. It reports upward only when
// the extracted value differs from the previous one.
func (t *BadgeTracker) Evaluate(title string) {
	count, ok := ExtractBadge(t.service, title)
	if !ok {
		count = 0
	}

	t.mu.Lock()
	t.lastTitle = title
	changed := count != t.last
	t.last = count
	t.mu.Unlock()

	if changed && t.report != nil {
		t.report(count)
	}
}

// Start runs the 2-second fallback timer until stop is closed,
// re-evaluating the most recent title.
func (t *BadgeTracker) Start(stop <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(badgeFallbackInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				t.mu.Lock()
				title := t.lastTitle
				t.mu.Unlock()
				if title != "" {
					t.Evaluate(title)
				}
			}
		}
	}()
}
