package scanner

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"wxarb/internal/domain"
)

const (
	statusFileName = "status.json"
	markerFileName = "scanner.pid"

	// statusStaleAfter is how old a "running" status may be before
	// observers stop trusting it.
	statusStaleAfter = 10 * time.Minute
)

// StatusFile is the cross-process shared state: the status snapshot and the
// owner liveness marker, both JSON files in one directory. The owner is the
// only writer (always via atomic replace); observers read, and delete only
// when they detect a dead owner.
type StatusFile struct {
	dir string
}

// NewStatusFile creates the shared-state handle rooted at dir, creating the
// directory if needed. An empty dir defaults to a per-user path under the
// system temp directory.
func NewStatusFile(dir string) (*StatusFile, error) {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "wxarb")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("statusfile: create dir %s: %w", dir, err)
	}
	return &StatusFile{dir: dir}, nil
}

// Dir returns the shared-state directory.
func (s *StatusFile) Dir() string {
	return s.dir
}

func (s *StatusFile) statusPath() string { return filepath.Join(s.dir, statusFileName) }
func (s *StatusFile) markerPath() string { return filepath.Join(s.dir, markerFileName) }

// WriteStatus atomically replaces the status snapshot: the JSON is written
// to a temp file in the same directory and renamed over the target, so
// observers never see a partial file.
func (s *StatusFile) WriteStatus(st domain.ScannerStatus) error {
	return s.atomicWrite(s.statusPath(), st)
}

// ReadStatus reads the current status snapshot. A missing file returns
// domain.ErrScannerStopped.
func (s *StatusFile) ReadStatus() (domain.ScannerStatus, error) {
	data, err := os.ReadFile(s.statusPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.ScannerStatus{}, domain.ErrScannerStopped
		}
		return domain.ScannerStatus{}, fmt.Errorf("statusfile: read status: %w", err)
	}
	var st domain.ScannerStatus
	if err := json.Unmarshal(data, &st); err != nil {
		return domain.ScannerStatus{}, fmt.Errorf("statusfile: decode status: %w", err)
	}
	return st, nil
}

// WriteMarker atomically writes the owner liveness marker.
func (s *StatusFile) WriteMarker(m domain.OwnerMarker) error {
	return s.atomicWrite(s.markerPath(), m)
}

// ReadMarker reads the owner liveness marker.
func (s *StatusFile) ReadMarker() (domain.OwnerMarker, error) {
	data, err := os.ReadFile(s.markerPath())
	if err != nil {
		return domain.OwnerMarker{}, fmt.Errorf("statusfile: read marker: %w", err)
	}
	var m domain.OwnerMarker
	if err := json.Unmarshal(data, &m); err != nil {
		return domain.OwnerMarker{}, fmt.Errorf("statusfile: decode marker: %w", err)
	}
	return m, nil
}

// Remove deletes the status and marker files, best-effort.
func (s *StatusFile) Remove() {
	_ = os.Remove(s.statusPath())
	_ = os.Remove(s.markerPath())
}

// RemoveMarker deletes only the liveness marker, best-effort.
func (s *StatusFile) RemoveMarker() {
	_ = os.Remove(s.markerPath())
}

// Observe answers "is the scanner running and what did it last see" for a
// process that does not own the daemon. A status claiming "running" is
// cross-checked against the liveness marker: if the marker is missing or
// its process is dead, both files are deleted and a synthesized stopped
// status tagged as a dead-owner cleanup is returned. A running status older
// than the staleness window is likewise reported as not running.
func (s *StatusFile) Observe() domain.ScannerStatus {
	st, err := s.ReadStatus()
	if err != nil {
		return domain.ScannerStatus{Running: false}
	}
	if !st.Running {
		return st
	}

	m, err := s.ReadMarker()
	if err != nil || !processAlive(m.PID) {
		s.Remove()
		return domain.ScannerStatus{
			Running:          false,
			LastCheck:        st.LastCheck,
			Locations:        st.Locations,
			DeadOwnerCleanup: true,
		}
	}

	if time.Since(st.LastCheck) > statusStaleAfter {
		st.Running = false
	}
	return st
}

// atomicWrite marshals v and replaces path via temp-file-plus-rename.
func (s *StatusFile) atomicWrite(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("statusfile: encode %s: %w", filepath.Base(path), err)
	}

	tmp, err := os.CreateTemp(s.dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("statusfile: create temp: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("statusfile: write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("statusfile: close temp: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("statusfile: rename: %w", err)
	}
	return nil
}

// processAlive reports whether a process with the given pid exists. Signal
// 0 probes without delivering; EPERM still means the process exists.
func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	if err == nil {
		return true
	}
	return errors.Is(err, syscall.EPERM)
}
