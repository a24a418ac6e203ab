package agent

import (
	"regexp"
	"strings"
)

// Scrape heuristics for the Messenger-style conversation list. WhatsApp
// fires real page notifications; Messenger's have to be synthesized
// from the unread markers its DOM renders.
const (
	// unreadMarker is the literal text Messenger renders inside an
	// unread conversation row.
	unreadMarker = "Mark as read"

	// maxSenderLen bounds what counts as a "short" leaf text node when
	// guessing the sender name.
	maxSenderLen = 60
)

var (
	// timestampPattern matches timestamp-shaped leaf tokens: "12:04",
	// "3:04 PM", "5m", "2h", "Now", weekday abbreviations.
	timestampPattern = regexp.MustCompile(`^(\d{1,2}:\d{2}(\s?[AP]M)?|\d+\s?[smhdw]|Now|Mon|Tue|Wed|Thu|Fri|Sat|Sun)$`)

	// separatorPattern matches list separators rendered as their own
	// text nodes.
	separatorPattern = regexp.MustCompile(`^[·•\-–—:]+$`)

	// iconPattern recognises profile pictures by their CDN host.
	iconPattern = regexp.MustCompile(`fbcdn\.net|fbsbx\.com`)
)

// ConversationEntry is a flattened snapshot of one conversation-list
// row: its stable reference (the row's link target) plus the leaf text
// nodes and image sources in document order. The page layer produces
// these; the scanner never touches a live document.
type ConversationEntry struct {
	Ref    string
	Texts  []string
	Images []string
}

// Candidate is one synthesized notification candidate.
type Candidate struct {
	Ref     string
	Sender  string
	Preview string
	Icon    string
}

// IsUnread reports whether the entry carries the unread marker.
func (e ConversationEntry) IsUnread() bool {
	for _, t := range e.Texts {
		if strings.TrimSpace(t) == unreadMarker {
			return true
		}
	}
	return false
}

// ScanConversations scans a conversation-list snapshot and returns a
// best-effort candidate per unread entry. Candidates with neither
// sender nor preview are dropped silently: malformed rows are routine,
// not errors.
func ScanConversations(entries []ConversationEntry) []Candidate {
	var candidates []Candidate
	for _, e := range entries {
		if !e.IsUnread() || e.Ref == "" {
			continue
		}
		c := extractCandidate(e)
		if c.Sender == "" && c.Preview == "" {
			continue
		}
		candidates = append(candidates, c)
	}
	return candidates
}

// UnreadRefs returns the set of conversation references currently
// marked unread, used to evict DedupSet members so a later re-unread
// re-notifies.
func UnreadRefs(entries []ConversationEntry) map[string]bool {
	refs := make(map[string]bool)
	for _, e := range entries {
		if e.Ref != "" && e.IsUnread() {
			refs[e.Ref] = true
		}
	}
	return refs
}

// extractCandidate applies the leaf-node heuristics: the sender is the
// first short text that is not the marker, a timestamp token, or a
// separator; the preview is the first text after the sender; the icon
// is the first image whose source matches the CDN pattern.
func extractCandidate(e ConversationEntry) Candidate {
	c := Candidate{Ref: e.Ref}

	senderIdx := -1
	for i, t := range e.Texts {
		t = strings.TrimSpace(t)
		if t == "" || t == unreadMarker {
			continue
		}
		if len(t) > maxSenderLen {
			continue
		}
		if timestampPattern.MatchString(t) || separatorPattern.MatchString(t) {
			continue
		}
		c.Sender = t
		senderIdx = i
		break
	}

	if senderIdx >= 0 {
		for _, t := range e.Texts[senderIdx+1:] {
			t = strings.TrimSpace(t)
			if t == "" || t == unreadMarker {
				continue
			}
			if timestampPattern.MatchString(t) || separatorPattern.MatchString(t) {
				continue
			}
			c.Preview = t
			break
		}
	}

	for _, src := range e.Images {
		if iconPattern.MatchString(src) {
			c.Icon = src
			break
		}
	}
	return c
}
