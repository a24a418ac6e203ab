package config

import (
	"os"
	"syscall"
	"time"
)

// DaemonInfo is the runfile a service daemon writes at startup
// ($XDG_RUNTIME_DIR/loft/<service>.daemon.yaml). The session D-Bus name
// is the authoritative singleton lock; the runfile exists so the CLI
// can report status without a bus round-trip.
type DaemonInfo struct {
	Service   string    `yaml:"service"`
	PID       int       `yaml:"pid"`
	StartedAt time.Time `yaml:"started_at"`
}

// NewDaemonInfo creates a runfile record for the current process.
func NewDaemonInfo(serviceName string) *DaemonInfo {
	return &DaemonInfo{
		Service:   serviceName,
		PID:       os.Getpid(),
		StartedAt: time.Now().UTC(),
	}
}

// SaveDaemonInfo writes the runfile.
func SaveDaemonInfo(info *DaemonInfo) error {
	return SaveYAML(DaemonRunFile(info.Service), info)
}

// RemoveDaemonInfo removes the runfile, ignoring absence.
func RemoveDaemonInfo(serviceName string) error {
	path := DaemonRunFile(serviceName)
	if !FileExists(path) {
		return nil
	}
	return os.Remove(path)
}

// IsDaemonRunning reports whether a daemon for the service appears to
// be alive: the runfile exists and its PID answers signal 0. A stale
// runfile is cleaned up.
func IsDaemonRunning(serviceName string) (bool, *DaemonInfo, error) {
	path := DaemonRunFile(serviceName)
	if !FileExists(path) {
		return false, nil, nil
	}

	var info DaemonInfo
	if err := LoadYAML(path, &info); err != nil {
		return false, nil, err
	}

	process, err := os.FindProcess(info.PID)
	if err != nil {
		return false, &info, nil
	}
	if err := process.Signal(syscall.Signal(0)); err != nil {
		_ = RemoveDaemonInfo(serviceName)
		return false, &info, nil
	}
	return true, &info, nil
}
