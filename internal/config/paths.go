// Package config handles configuration, persisted state, and path
// management for Loft.
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Directory and file names under the XDG base dirs.
const (
	AppDirName      = "loft"
	ServicesDirName = "services"
	StateDirName    = "state"
	IconsDirName    = "icons"
	ProfilesDirName = "profiles"
	LogsDirName     = "logs"

	GlobalConfigFileName = "config.yaml"
)

// ConfigDir returns the Loft configuration directory (~/.config/loft).
func ConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, AppDirName), nil
}

// DataDir returns the Loft data directory (~/.local/share/loft).
func DataDir() (string, error) {
	base := os.Getenv("XDG_DATA_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(base, AppDirName), nil
}

// RuntimeDir returns the per-session runtime directory holding relay
// sockets. Prefers XDG_RUNTIME_DIR, falling back to /tmp with a UID
// suffix for isolation.
func RuntimeDir() string {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, AppDirName)
	}
	return filepath.Join(os.TempDir(), fmt.Sprintf("%s-%d", AppDirName, os.Getuid()))
}

// SocketPath returns the relay socket path for a service.
func SocketPath(serviceName string) string {
	return filepath.Join(RuntimeDir(), serviceName+".sock")
}

// GlobalConfigFile returns the path to the global config.yaml.
func GlobalConfigFile() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, GlobalConfigFileName), nil
}

// ServiceConfigFile returns the path to a service's config.yaml.
func ServiceConfigFile(serviceName string) (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ServicesDirName, serviceName+".yaml"), nil
}

// ServiceStateFile returns the path to a service's persisted state.
func ServiceStateFile(serviceName string) (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, StateDirName, serviceName+".yaml"), nil
}

// ServicesConfigDir returns the directory holding per-service configs.
func ServicesConfigDir() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ServicesDirName), nil
}

// IconsDir returns the directory holding downloaded service icons.
func IconsDir() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, IconsDirName), nil
}

// ProfileDir returns the browser profile directory for a service.
func ProfileDir(serviceName string) (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ProfilesDirName, serviceName), nil
}

// LogsDir returns the Loft log directory.
func LogsDir() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, LogsDirName), nil
}

// DaemonRunFile returns the path to a service daemon's runfile.
func DaemonRunFile(serviceName string) string {
	return filepath.Join(RuntimeDir(), serviceName+".daemon.yaml")
}

// EnsureDir creates a directory (and parents) if it does not exist.
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0o755)
}
