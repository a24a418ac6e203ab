package agent

import (
	"log"
	"strings"
	"sync"
	"time"
)

// startupGracePeriod suppresses scrape-synthesized notifications after
// agent load. The page re-renders its whole conversation list several
// times while loading, which would otherwise read as a burst of new
// unread messages.
const startupGracePeriod = 15 * time.Second

// Notification is one desktop notification to be rendered.
type Notification struct {
	Title string
	Body  string
	Icon  string
	// Ref is the source conversation reference, empty for
	// page-originated notifications that carry none.
	Ref string
}

// Notifier renders desktop notifications and reports their ids.
type Notifier interface {
	Show(n Notification) (uint32, error)
}

// Navigator routes a clicked notification back into the conversation.
type Navigator interface {
	// ActivateConversationLink simulates activation of the in-page
	// link matching ref, reporting whether one existed.
	ActivateConversationLink(ref string) bool
	// NavigateTo performs a full navigation.
	NavigateTo(url string)
}

// PendingNotification tracks one shown notification until it is clicked
// or dismissed. Every create has a matching close or click, so records
// do not accumulate.
type PendingNotification struct {
	Ref       string
	Sender    string
	Preview   string
	Icon      string
	CreatedAt time.Time
}

// Pipeline turns in-page notification and badge signals into desktop
// notifications with click-to-navigate routing, gated by DND.
type Pipeline struct {
	notifier    Notifier
	navigator   Navigator
	requestShow func()
	baseURL     string // prefix for conversation refs that are bare paths
	now         func() time.Time
	start       time.Time

	mu      sync.Mutex
	dnd     bool
	dedup   map[string]bool // conversation refs notified and still unread
	pending map[uint32]*PendingNotification
}

// PipelineConfig carries the pipeline's collaborators.
type PipelineConfig struct {
	Notifier    Notifier
	Navigator   Navigator
	RequestShow func()
	BaseURL     string
	DND         bool
	Now         func() time.Time
}

// NewPipeline creates a pipeline. The startup grace period begins now.
func NewPipeline(cfg PipelineConfig) *Pipeline {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Pipeline{
		notifier:    cfg.Notifier,
		navigator:   cfg.Navigator,
		requestShow: cfg.RequestShow,
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		now:         now,
		start:       now(),
		dnd:         cfg.DND,
		dedup:       make(map[string]bool),
		pending:     make(map[uint32]*PendingNotification),
	}
}

// SetDND updates the local suppression mirror of the daemon-owned DND
// flag. It applies to all future notification attempts; in-flight races
// may resolve either way.
func (p *Pipeline) SetDND(enabled bool) {
	p.mu.Lock()
	p.dnd = enabled
	p.mu.Unlock()
}

// DND reports the current local suppression flag.
func (p *Pipeline) DND() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dnd
}

// HandlePageNotification processes an explicit notification event
// relayed from the page's own notification API.
func (p *Pipeline) HandlePageNotification(title, body, icon string) {
	p.mu.Lock()
	suppressed := p.dnd
	p.mu.Unlock()
	if suppressed {
		return
	}
	p.show(Notification{Title: title, Body: body, Icon: icon})
}

// HandleScrape processes one conversation-list snapshot: entries no
// longer unread are evicted so they can re-notify, and each newly
// unread entry past the grace period becomes a notification.
func (p *Pipeline) HandleScrape(entries []ConversationEntry) {
	unread := UnreadRefs(entries)

	p.mu.Lock()
	for ref := range p.dedup {
		if !unread[ref] {
			delete(p.dedup, ref)
		}
	}
	p.mu.Unlock()

	for _, c := range ScanConversations(entries) {
		p.handleCandidate(c)
	}
}

// HandleDOMNotification processes one scrape-synthesized event from the
// page layer. It is handled here, never forwarded verbatim to the
// daemon as a generic message.
func (p *Pipeline) HandleDOMNotification(sender, body, icon, href string) {
	if sender == "" && body == "" {
		return
	}
	p.handleCandidate(Candidate{Ref: href, Sender: sender, Preview: body, Icon: icon})
}

// EvictRead removes a conversation reference from the DedupSet once the
// DOM stops reporting it unread. Membership is presence-based only.
func (p *Pipeline) EvictRead(ref string) {
	p.mu.Lock()
	delete(p.dedup, ref)
	p.mu.Unlock()
}

func (p *Pipeline) handleCandidate(c Candidate) {
	if p.now().Sub(p.start) < startupGracePeriod {
		return
	}

	p.mu.Lock()
	if p.dedup[c.Ref] {
		p.mu.Unlock()
		return
	}
	// DND suppresses entirely: no notification and nothing queued for
	// later delivery. The ref still counts as handled so disabling DND
	// does not replay it.
	p.dedup[c.Ref] = true
	suppressed := p.dnd
	p.mu.Unlock()

	if suppressed {
		return
	}
	p.show(Notification{Title: c.Sender, Body: c.Preview, Icon: c.Icon, Ref: c.Ref})
}

func (p *Pipeline) show(n Notification) {
	id, err := p.notifier.Show(n)
	if err != nil {
		log.Printf("[notify] show failed: %v", err)
		return
	}
	p.mu.Lock()
	p.pending[id] = &PendingNotification{
		Ref:       n.Ref,
		Sender:    n.Title,
		Preview:   n.Body,
		Icon:      n.Icon,
		CreatedAt: p.now(),
	}
	p.mu.Unlock()
}

// NotificationClicked routes a click: show+focus the window, then
// select the conversation in-page, falling back to a full navigation
// when no matching link exists. The record is dropped either way.
func (p *Pipeline) NotificationClicked(id uint32) {
	p.mu.Lock()
	rec := p.pending[id]
	delete(p.pending, id)
	p.mu.Unlock()
	if rec == nil {
		return
	}

	if p.requestShow != nil {
		p.requestShow()
	}
	if rec.Ref != "" && p.navigator != nil {
		if !p.navigator.ActivateConversationLink(rec.Ref) {
			p.navigator.NavigateTo(p.conversationURL(rec.Ref))
		}
	}
}

// NotificationClosed drops the record for an externally dismissed
// notification. No record outlives its notification.
func (p *Pipeline) NotificationClosed(id uint32) {
	p.mu.Lock()
	delete(p.pending, id)
	p.mu.Unlock()
}

// PendingCount reports how many notification records are being tracked.
func (p *Pipeline) PendingCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}

func (p *Pipeline) conversationURL(ref string) string {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	if !strings.HasPrefix(ref, "/") {
		ref = "/" + ref
	}
	return p.baseURL + ref
}
