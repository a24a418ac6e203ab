package agent

import (
	"errors"

	"github.com/loft-chat/loft/internal/config"
)

// WindowID is the opaque identity of one browser window. Only the agent
// mints and observes these; the daemon refers to windows indirectly via
// the service's stable WM class.
type WindowID string

// WindowInfo is a snapshot of one browser window.
type WindowInfo struct {
	ID        WindowID
	URL       string
	Bounds    config.Bounds
	Minimized bool
	Focused   bool
}

// ErrStaleWindow is returned by window operations whose target no
// longer exists. Stale handles are routine, never fatal: the
// synchronizer drops the handle and recovers.
var ErrStaleWindow = errors.New("window no longer exists")

// ErrSurfaceExists is returned by keep-alive surface creation when a
// surface is already open. Callers treat it as success.
var ErrSurfaceExists = errors.New("keep-alive surface already exists")

// WindowSurface is the browser window capability the synchronizer
// drives. Implementations wrap the real browser window API; tests use a
// fake.
type WindowSurface interface {
	// Windows lists all windows of the browser process (startup scan).
	Windows() ([]WindowInfo, error)
	// Query returns the current snapshot of one window, or
	// ErrStaleWindow.
	Query(id WindowID) (WindowInfo, error)
	// Show forces a window to normal state and focuses it.
	Show(id WindowID) error
	// Minimize forces a window to minimized state.
	Minimize(id WindowID) error
	// SetBounds applies a geometry to a window.
	SetBounds(id WindowID, b config.Bounds) error
	// Create opens a new window seeded with url at the given bounds
	// (nil for browser defaults) and returns its snapshot.
	Create(url string, b *config.Bounds) (WindowInfo, error)
}

// SurfaceKeeper creates the invisible keep-alive surface that holds the
// browser process open. Creation when one already exists returns
// ErrSurfaceExists.
type SurfaceKeeper interface {
	CreateKeepAlive() error
}

// BoundsStore persists window bounds across process restarts.
type BoundsStore interface {
	Load() (*config.Bounds, error)
	Save(config.Bounds) error
}

// stateStore adapts config.ServiceState persistence to BoundsStore.
type stateStore struct {
	service string
}

// NewStateStore returns a BoundsStore backed by the service's persisted
// state file.
func NewStateStore(serviceName string) BoundsStore {
	return &stateStore{service: serviceName}
}

func (s *stateStore) Load() (*config.Bounds, error) {
	st, err := config.LoadServiceState(s.service)
	if err != nil {
		return nil, err
	}
	return st.Bounds, nil
}

func (s *stateStore) Save(b config.Bounds) error {
	st, err := config.LoadServiceState(s.service)
	if err != nil {
		return err
	}
	st.Bounds = &b
	return config.SaveServiceState(s.service, st)
}
