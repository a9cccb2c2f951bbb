package scanner

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"wxarb/internal/domain"
)

// stubTicker counts ticks and optionally blocks until released.
type stubTicker struct {
	ticks   atomic.Int64
	block   chan struct{} // if non-nil, Tick waits for it to close
	entered chan struct{} // if non-nil, Tick signals entry
}

func (s *stubTicker) Tick(ctx context.Context) []domain.Reading {
	s.ticks.Add(1)
	if s.entered != nil {
		s.entered <- struct{}{}
	}
	if s.block != nil {
		<-s.block
	}
	return []domain.Reading{{Location: "NYC", ForecastHighF: 45, Timestamp: time.Now()}}
}

type stubAudit struct {
	batches atomic.Int64
}

func (s *stubAudit) RecordReadings(ctx context.Context, readings []domain.Reading) error {
	s.batches.Add(1)
	return nil
}

func newTestDaemon(t *testing.T, ticker TickRunner, audit AuditSink) (*Daemon, *StatusFile) {
	t.Helper()
	sf := newTestStatusFile(t)
	d := NewDaemon(ticker, sf, audit, []string{"NYC"}, time.Hour, testLogger())
	return d, sf
}

// waitFor polls until cond holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestDaemonImmediateTick(t *testing.T) {
	ticker := &stubTicker{}
	audit := &stubAudit{}
	d, sf := newTestDaemon(t, ticker, audit)

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer d.Stop()

	// The first tick runs without waiting for the interval, and its status
	// snapshot is persisted.
	waitFor(t, func() bool {
		st, err := sf.ReadStatus()
		return err == nil && st.Running
	})

	st, err := sf.ReadStatus()
	if err != nil {
		t.Fatalf("ReadStatus: %v", err)
	}
	if len(st.Readings) != 1 || st.Readings[0].Location != "NYC" {
		t.Errorf("persisted readings = %+v", st.Readings)
	}
	if len(st.Locations) != 1 || st.Locations[0] != "NYC" {
		t.Errorf("persisted locations = %v", st.Locations)
	}

	// The liveness marker names this process.
	m, err := sf.ReadMarker()
	if err != nil {
		t.Fatalf("ReadMarker: %v", err)
	}
	if m.Token == "" || m.PID <= 0 {
		t.Errorf("marker incomplete: %+v", m)
	}

	waitFor(t, func() bool { return audit.batches.Load() >= 1 })
}

func TestDaemonStartTwice(t *testing.T) {
	d, _ := newTestDaemon(t, &stubTicker{}, nil)

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer d.Stop()

	if err := d.Start(context.Background()); !errors.Is(err, domain.ErrScannerRunning) {
		t.Errorf("second Start = %v, want ErrScannerRunning", err)
	}
}

func TestDaemonStopIdempotent(t *testing.T) {
	d, sf := newTestDaemon(t, &stubTicker{}, nil)

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	d.Stop()
	d.Stop() // second stop is a no-op

	st, err := sf.ReadStatus()
	if err != nil {
		t.Fatalf("ReadStatus after stop: %v", err)
	}
	if st.Running {
		t.Error("status still running after Stop")
	}
	if _, err := sf.ReadMarker(); err == nil {
		t.Error("marker survived Stop")
	}

	// The daemon can be started again after a clean stop.
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("restart: %v", err)
	}
	d.Stop()
}

func TestDaemonSkipsOverlappingTick(t *testing.T) {
	ticker := &stubTicker{
		block:   make(chan struct{}),
		entered: make(chan struct{}, 1),
	}
	d, _ := newTestDaemon(t, ticker, nil)

	ctx := context.Background()
	go d.runTick(ctx)
	<-ticker.entered // first tick is now holding tickMu

	// A second firing while the first is in flight must be skipped, not
	// queued.
	d.runTick(ctx)
	if got := ticker.ticks.Load(); got != 1 {
		t.Errorf("tick ran %d times, want 1", got)
	}

	close(ticker.block)
	waitFor(t, func() bool { return d.tickMu.TryLock() })
	d.tickMu.Unlock()
}

func TestDaemonStatusReflectsObserver(t *testing.T) {
	d, _ := newTestDaemon(t, &stubTicker{}, nil)

	if st := d.Status(); st.Running {
		t.Error("unstarted daemon reports running")
	}

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitFor(t, func() bool { return d.Status().Running })

	d.Stop()
	if st := d.Status(); st.Running {
		t.Error("stopped daemon reports running")
	}
}
