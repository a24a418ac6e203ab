package agent

import (
	"log"

	"github.com/google/uuid"
	"github.com/loft-chat/loft/internal/protocol"
	"github.com/loft-chat/loft/internal/service"
)

// Session is the per-service agent context: one channel, one window
// synchronizer, one pipeline, one badge tracker. All previously-global
// agent state lives here and is passed explicitly between components.
type Session struct {
	// ID identifies this agent run; window identities and handles are
	// volatile and rebuilt each run.
	ID string

	Service      *service.Definition
	Channel      *Channel
	Synchronizer *Synchronizer
	Pipeline     *Pipeline
	Badges       *BadgeTracker

	stop chan struct{}
}

// SessionConfig carries a session's collaborators.
type SessionConfig struct {
	Service   *service.Definition
	Dial      Dialer
	Surface   WindowSurface
	KeepAlive *KeepAlive
	Notifier  Notifier
	Navigator Navigator
	DND       bool
}

// NewSession wires up one agent session. Call Start to run it.
func NewSession(cfg SessionConfig) *Session {
	s := &Session{
		ID:      uuid.NewString(),
		Service: cfg.Service,
		stop:    make(chan struct{}),
	}

	s.Channel = NewChannel(cfg.Dial)

	s.Synchronizer = NewSynchronizer(SynchronizerConfig{
		Service:     cfg.Service.Name,
		URL:         cfg.Service.URL,
		URLPrefixes: cfg.Service.URLPrefixes,
		Surface:     cfg.Surface,
		Store:       NewStateStore(cfg.Service.Name),
		KeepAlive:   cfg.KeepAlive,
		Connected:   s.Channel.Connected,
		OnVisibility: func(visible bool) {
			if visible {
				s.Channel.Send(protocol.Message{Type: protocol.TypeWindowShown})
			} else {
				s.Channel.Send(protocol.Message{Type: protocol.TypeWindowHidden})
			}
		},
	})

	s.Pipeline = NewPipeline(PipelineConfig{
		Notifier:    cfg.Notifier,
		Navigator:   cfg.Navigator,
		RequestShow: s.Synchronizer.RequestShow,
		BaseURL:     cfg.Service.URL,
		DND:         cfg.DND,
	})

	s.Badges = NewBadgeTracker(cfg.Service.Name, func(count uint32) {
		s.Channel.Send(protocol.BadgeUpdate(count))
	})

	s.Channel.OnMessage(s.handleDaemonMessage)
	return s
}

// Start connects the channel, announces identity, and starts the window
// machine and badge fallback timer.
func (s *Session) Start() {
	log.Printf("[agent %s] session %s starting", s.Service.Name, s.ID)
	s.Channel.OnDisconnect(func() {
		log.Printf("[agent %s] session %s: channel lost, retrying", s.Service.Name, s.ID)
	})
	s.Channel.Connect()
	s.Channel.SetService(s.Service.Name)
	s.Synchronizer.Start()
	s.Badges.Start(s.stop)
}

// Stop tears the session down.
func (s *Session) Stop() {
	close(s.stop)
	s.Synchronizer.Stop()
	s.Channel.Close()
}

// handleDaemonMessage processes daemon→agent traffic. Messages are
// handled in arrival order; the synchronizer serializes the window
// requests behind them.
func (s *Session) handleDaemonMessage(m protocol.Message) {
	switch m.Type {
	case protocol.TypeShowWindow:
		s.Synchronizer.RequestShow()
	case protocol.TypeHideWindow:
		s.Synchronizer.RequestHide()
	case protocol.TypeDNDChanged:
		s.Pipeline.SetDND(m.Enabled)
	case protocol.TypeNavigateToConversation:
		if s.Pipeline != nil && m.URL != "" {
			// Daemon-side click routing asked the page layer to open
			// a conversation directly.
			if nav := s.pipelineNavigator(); nav != nil {
				nav.NavigateTo(m.URL)
			}
		}
	case protocol.TypePing:
		// Liveness check, nothing to do.
	default:
		log.Printf("[agent %s] session %s: unknown message type %q", s.Service.Name, s.ID, m.Type)
	}
}

func (s *Session) pipelineNavigator() Navigator {
	return s.Pipeline.navigator
}
