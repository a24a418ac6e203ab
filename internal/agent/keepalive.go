package agent

import (
	"errors"
	"sync"
)

// KeepAlive guarantees the browser process holds at least one invisible
// surface open so it does not exit when the last visible window closes.
// Exactly one instance exists per browser process and is shared by
// every session in it; the first EnsureAlive caller wins and later
// calls are no-ops.
type KeepAlive struct {
	keeper SurfaceKeeper

	mu    sync.Mutex
	alive bool
}

// NewKeepAlive creates the controller for one browser process.
func NewKeepAlive(keeper SurfaceKeeper) *KeepAlive {
	return &KeepAlive{keeper: keeper}
}

// EnsureAlive is idempotent. A creation failure because a keep-alive
// surface already exists is success, not an error.
func (k *KeepAlive) EnsureAlive() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.alive {
		return nil
	}
	err := k.keeper.CreateKeepAlive()
	if err != nil && !errors.Is(err, ErrSurfaceExists) {
		return err
	}
	k.alive = true
	return nil
}
