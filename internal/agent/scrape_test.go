package agent

import "testing"

func entry(ref string, texts ...string) ConversationEntry {
	return ConversationEntry{Ref: ref, Texts: texts}
}

func TestIsUnread(t *testing.T) {
	if !entry("/t/1", "Alice", "Mark as read").IsUnread() {
		t.Error("marker not detected")
	}
	if entry("/t/1", "Alice", "ok thanks").IsUnread() {
		t.Error("read entry reported unread")
	}
	if !entry("/t/1", "  Mark as read  ").IsUnread() {
		t.Error("whitespace-padded marker not detected")
	}
}

func TestScanConversations(t *testing.T) {
	entries := []ConversationEntry{
		{
			Ref:    "/t/100",
			Texts:  []string{"Mark as read", "Alice", "see you tomorrow", "3:04 PM"},
			Images: []string{"https://static.example.com/ui.png", "https://scontent.fbcdn.net/alice.jpg"},
		},
		// Read: no candidate.
		entry("/t/101", "Bob", "sure"),
		// Unread but no ref: dropped.
		entry("", "Carol", "Mark as read", "hello"),
		// Unread with only timestamp-shaped and separator leaves:
		// dropped, not an error.
		entry("/t/103", "Mark as read", "5m", "·"),
	}

	got := ScanConversations(entries)
	if len(got) != 1 {
		t.Fatalf("got %d candidates, want 1: %+v", len(got), got)
	}
	c := got[0]
	if c.Ref != "/t/100" || c.Sender != "Alice" || c.Preview != "see you tomorrow" {
		t.Errorf("candidate = %+v", c)
	}
	if c.Icon != "https://scontent.fbcdn.net/alice.jpg" {
		t.Errorf("icon = %q, want the CDN image", c.Icon)
	}
}

func TestExtractCandidateSkipsTimestampAndSeparator(t *testing.T) {
	e := ConversationEntry{
		Ref:   "/t/200",
		Texts: []string{"12:04", "—", "Mark as read", "Dana", "Now", "lunch?"},
	}
	c := extractCandidate(e)
	if c.Sender != "Dana" {
		t.Errorf("sender = %q, want Dana", c.Sender)
	}
	if c.Preview != "lunch?" {
		t.Errorf("preview = %q, want lunch?", c.Preview)
	}
}

func TestExtractCandidateSkipsLongLeavesForSender(t *testing.T) {
	long := "This is a very long message preview that cannot plausibly be a sender name at all"
	e := ConversationEntry{
		Ref:   "/t/201",
		Texts: []string{"Mark as read", long, "Eve"},
	}
	c := extractCandidate(e)
	if c.Sender != "Eve" {
		t.Errorf("sender = %q, want Eve", c.Sender)
	}
}

func TestUnreadRefs(t *testing.T) {
	entries := []ConversationEntry{
		entry("/t/1", "Alice", "Mark as read"),
		entry("/t/2", "Bob", "ok"),
		entry("/t/3", "Mark as read"),
	}
	refs := UnreadRefs(entries)
	if len(refs) != 2 || !refs["/t/1"] || !refs["/t/3"] {
		t.Errorf("refs = %v", refs)
	}
}
