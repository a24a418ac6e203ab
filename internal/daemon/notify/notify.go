// Package notify renders desktop notifications for the daemon over the
// session bus, with click routing back into the service window. When
// the notification server offers no action support, a plain beeep
// notification is the fallback; clicks are lost but the message still
// shows.
package notify

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/esiqveland/notify"
	"github.com/gen2brain/beeep"
	"github.com/godbus/dbus/v5"

	"github.com/loft-chat/loft/internal/protocol"
	"github.com/loft-chat/loft/internal/service"
)

// defaultActionKey is the freedesktop key for activating the
// notification body itself.
const defaultActionKey = "default"

// ControlState is what click routing needs from the daemon.
type ControlState interface {
	DND() bool
	RequestShow()
	Broadcast(m protocol.Message)
}

// Pending is one shown notification awaiting click or dismissal.
type Pending struct {
	Ref       string
	Sender    string
	Body      string
	CreatedAt time.Time
}

// Service renders notifications and routes their clicks.
type Service struct {
	def      *service.Definition
	state    ControlState
	appIcon  string
	notifier notify.Notifier

	mu      sync.Mutex
	pending map[uint32]*Pending
}

// New creates the notification service on an existing session bus
// connection. A nil connection (or a failed listener setup) degrades
// to the beeep fallback instead of failing the daemon.
func New(conn *dbus.Conn, def *service.Definition, state ControlState, appIcon string) *Service {
	s := &Service{
		def:     def,
		state:   state,
		appIcon: appIcon,
		pending: make(map[uint32]*Pending),
	}
	if conn == nil {
		return s
	}

	notifier, err := notify.New(conn,
		notify.WithOnAction(s.onAction),
		notify.WithOnClosed(s.onClosed),
	)
	if err != nil {
		log.Printf("[notify] no action support, falling back to plain notifications: %v", err)
		return s
	}
	s.notifier = notifier
	return s
}

// Close releases the signal listeners.
func (s *Service) Close() {
	if s.notifier != nil {
		s.notifier.Close()
	}
}

// HandleAgentNotification renders a notification or dom_notification
// message arriving from an agent. DND is enforced daemon-side as well:
// agents mirror the flag, but a race may deliver one late message.
func (s *Service) HandleAgentNotification(m protocol.Message) {
	if s.state.DND() {
		return
	}

	title, body, ref := m.Title, m.Body, ""
	if m.Type == protocol.TypeDOMNotification {
		title, body, ref = m.Sender, m.Body, m.Href
	}
	if title == "" && body == "" {
		return
	}

	icon := m.Icon
	if icon == "" {
		icon = s.appIcon
	}
	if err := s.show(title, body, icon, ref); err != nil {
		log.Printf("[notify] show failed: %v", err)
	}
}

func (s *Service) show(title, body, icon, ref string) error {
	if s.notifier == nil {
		return beeep.Notify(title, body, icon)
	}

	id, err := s.notifier.SendNotification(notify.Notification{
		AppName: s.def.DisplayName,
		AppIcon: icon,
		Summary: title,
		Body:    body,
		Actions: []notify.Action{{Key: defaultActionKey, Label: "Open"}},
	})
	if err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}

	s.mu.Lock()
	s.pending[id] = &Pending{Ref: ref, Sender: title, Body: body, CreatedAt: time.Now()}
	s.mu.Unlock()
	return nil
}

// onAction routes a click: focus the window, then steer the agent to
// the conversation when the record carries a ref.
func (s *Service) onAction(sig *notify.ActionInvokedSignal) {
	if sig.ActionKey != defaultActionKey {
		return
	}
	s.mu.Lock()
	rec := s.pending[sig.ID]
	delete(s.pending, sig.ID)
	s.mu.Unlock()
	if rec == nil {
		return
	}

	s.state.RequestShow()
	if rec.Ref != "" {
		s.state.Broadcast(protocol.Message{
			Type: protocol.TypeNavigateToConversation,
			URL:  conversationURL(s.def.URL, rec.Ref),
		})
	}
}

// onClosed drops the record for a dismissed notification so pending
// entries never accumulate.
func (s *Service) onClosed(sig *notify.NotificationClosedSignal) {
	s.mu.Lock()
	delete(s.pending, sig.ID)
	s.mu.Unlock()
}

// Hint shows an informational notification. Hints bypass DND (they are
// about the app, not a conversation) and clicking one just focuses the
// window.
func (s *Service) Hint(summary, body string) {
	if err := s.show(summary, body, s.appIcon, ""); err != nil {
		log.Printf("[notify] hint failed: %v", err)
	}
}

// PendingCount reports how many notifications await click or close.
func (s *Service) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

func conversationURL(base, ref string) string {
	if len(ref) >= 8 && (ref[:7] == "http://" || ref[:8] == "https://") {
		return ref
	}
	for len(base) > 0 && base[len(base)-1] == '/' {
		base = base[:len(base)-1]
	}
	if len(ref) == 0 || ref[0] != '/' {
		ref = "/" + ref
	}
	return base + ref
}
