package scanner

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"wxarb/internal/domain"
)

// TickRunner is the evaluation cycle the daemon drives. Strategy implements
// it; tests substitute stubs.
type TickRunner interface {
	Tick(ctx context.Context) []domain.Reading
}

// AuditSink receives a best-effort copy of every tick for persistence. May
// be nil.
type AuditSink interface {
	RecordReadings(ctx context.Context, readings []domain.Reading) error
}

// Daemon owns the recurring scanner timer for this deployment. Exactly one
// process is the owner: it writes the liveness marker on start, persists a
// status snapshot after every tick, and cleans both up on stop. All state
// lives on the instance, so independent daemons can coexist in-process for
// tests.
type Daemon struct {
	strategy  TickRunner
	status    *StatusFile
	audit     AuditSink
	locations []string
	interval  time.Duration
	logger    *slog.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}

	// tickMu serializes tick execution: a timer firing while the previous
	// tick (including its status write) is still in flight is skipped.
	tickMu sync.Mutex
}

// NewDaemon creates a Daemon. audit may be nil.
func NewDaemon(strategy TickRunner, status *StatusFile, audit AuditSink, locations []string, interval time.Duration, logger *slog.Logger) *Daemon {
	return &Daemon{
		strategy:  strategy,
		status:    status,
		audit:     audit,
		locations: locations,
		interval:  interval,
		logger:    logger.With(slog.String("component", "daemon")),
	}
}

// Start claims ownership, writes the liveness marker, runs one immediate
// tick so status reflects "running" without waiting a full interval, and
// arms the repeating timer. It returns domain.ErrScannerRunning if this
// daemon is already started; the second start changes nothing.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running {
		return domain.ErrScannerRunning
	}

	marker := domain.OwnerMarker{
		PID:       os.Getpid(),
		Token:     uuid.New().String(),
		StartedAt: time.Now(),
	}
	if err := d.status.WriteMarker(marker); err != nil {
		// A marker write failure must never stop the trading loop.
		d.logger.WarnContext(ctx, "liveness marker write failed",
			slog.String("error", err.Error()),
		)
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.done = make(chan struct{})
	d.running = true

	go d.loop(runCtx)

	d.logger.InfoContext(ctx, "scanner started",
		slog.Int("pid", marker.PID),
		slog.Duration("interval", d.interval),
	)
	return nil
}

// Stop clears the timer, persists a final "not running" status, and removes
// the liveness marker. It is idempotent and safe to call from a signal
// handler path; stopping an already-stopped daemon is a no-op.
func (d *Daemon) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.running = false
	cancel := d.cancel
	done := d.done
	d.mu.Unlock()

	cancel()
	<-done

	final := domain.ScannerStatus{
		Running:   false,
		LastCheck: time.Now(),
		Locations: d.locations,
	}
	if err := d.status.WriteStatus(final); err != nil {
		d.logger.Warn("final status write failed", slog.String("error", err.Error()))
	}
	d.status.RemoveMarker()

	d.logger.Info("scanner stopped")
}

// Status returns the current scanner status. For a running owner this is
// the live persisted snapshot; for everyone else it goes through the
// observer path with dead-owner detection.
func (d *Daemon) Status() domain.ScannerStatus {
	return d.status.Observe()
}

// loop runs one immediate tick, then ticks at the configured interval until
// the context is cancelled.
func (d *Daemon) loop(ctx context.Context) {
	defer close(d.done)

	d.runTick(ctx)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.runTick(ctx)
		}
	}
}

// runTick executes one serialized tick and persists the resulting status.
// If a previous tick is still running the firing is skipped, so overlapping
// ticks can never race on the status file.
func (d *Daemon) runTick(ctx context.Context) {
	if !d.tickMu.TryLock() {
		d.logger.WarnContext(ctx, "previous tick still running, skipping")
		return
	}
	defer d.tickMu.Unlock()

	start := time.Now()
	readings := d.strategy.Tick(ctx)

	if ctx.Err() != nil {
		return
	}

	st := domain.ScannerStatus{
		Running:   true,
		LastCheck: time.Now(),
		Locations: d.locations,
		Readings:  readings,
	}
	if err := d.status.WriteStatus(st); err != nil {
		// Disk trouble must not crash the trading loop.
		d.logger.WarnContext(ctx, "status write failed", slog.String("error", err.Error()))
	}

	if d.audit != nil && len(readings) > 0 {
		if err := d.audit.RecordReadings(ctx, readings); err != nil {
			d.logger.WarnContext(ctx, "audit write failed", slog.String("error", err.Error()))
		}
	}

	d.logger.InfoContext(ctx, "tick complete",
		slog.Int("readings", len(readings)),
		slog.Duration("elapsed", time.Since(start)),
	)
}
