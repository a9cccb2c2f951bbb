package domain

import "time"

// ScannerStatus is the point-in-time snapshot the owner process publishes
// after every tick. One instance exists per daemon; observers read it from
// the shared status file.
type ScannerStatus struct {
	Running   bool      `json:"running"`
	LastCheck time.Time `json:"lastCheck"`
	Locations []string  `json:"locations"`
	Readings  []Reading `json:"readings"`
	// DeadOwnerCleanup is set by an observer that found a "running" status
	// whose owner process is no longer alive and synthesized this stopped
	// status while deleting the stale files.
	DeadOwnerCleanup bool `json:"deadOwnerCleanup,omitempty"`
}

// OwnerMarker is the liveness marker the owner writes next to the status
// file. The token disambiguates pid reuse: a restarted owner writes a fresh
// token, so a stale marker never matches a live daemon by accident.
type OwnerMarker struct {
	PID       int       `json:"pid"`
	Token     string    `json:"token"`
	StartedAt time.Time `json:"startedAt"`
}
