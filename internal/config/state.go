package config

import "os"

// Bounds is a saved window position and size. Only bounds recorded
// while the window was in the normal state are valid.
type Bounds struct {
	X      int `yaml:"x"`
	Y      int `yaml:"y"`
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// Zero reports whether the bounds carry no usable size.
func (b Bounds) Zero() bool {
	return b.Width == 0 || b.Height == 0
}

// ServiceState is the per-service persisted state
// (~/.config/loft/state/<name>.yaml). It survives daemon and browser
// restarts; absent keys mean "no saved value".
type ServiceState struct {
	// Bounds is the last window geometry observed in the normal state.
	Bounds *Bounds `yaml:"bounds,omitempty"`
	// HintDismissed records that the first-run hide-to-tray hint was
	// dismissed by the user.
	HintDismissed bool `yaml:"hint_dismissed,omitempty"`
}

// NewServiceState returns an empty persisted state.
func NewServiceState() *ServiceState {
	return &ServiceState{}
}

// LoadServiceState loads a service's persisted state, empty if absent.
func LoadServiceState(serviceName string) (*ServiceState, error) {
	path, err := ServiceStateFile(serviceName)
	if err != nil {
		return nil, err
	}
	return LoadYAMLOrDefault(path, NewServiceState)
}

// SaveServiceState persists a service's state.
func SaveServiceState(serviceName string, st *ServiceState) error {
	path, err := ServiceStateFile(serviceName)
	if err != nil {
		return err
	}
	return SaveYAML(path, st)
}

func remove(path string) error {
	return os.Remove(path)
}
