// Package monitor wires the scanner, detector, chain log, and delivery
// client into the agent's poll loop and owns its lifecycle.
package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/telhawk-systems/telhawk-fim/internal/baseline"
	"github.com/telhawk-systems/telhawk-fim/internal/bus"
	"github.com/telhawk-systems/telhawk-fim/internal/chainlog"
	"github.com/telhawk-systems/telhawk-fim/internal/config"
	"github.com/telhawk-systems/telhawk-fim/internal/delivery"
	"github.com/telhawk-systems/telhawk-fim/internal/detector"
	"github.com/telhawk-systems/telhawk-fim/internal/metrics"
	"github.com/telhawk-systems/telhawk-fim/internal/scanner"
)

// State is the monitor's lifecycle phase.
type State string

const (
	StateInitializing State = "initializing"
	StateWatching     State = "watching"
	StateStopping     State = "stopping"
	StateStopped      State = "stopped"
)

// stopTimeout bounds how long shutdown waits for the delivery sender.
const stopTimeout = 5 * time.Second

// Monitor runs the poll loop: scan, detect, log, deliver. All filesystem
// and chain log access happens on the loop's goroutine; only the delivery
// client runs concurrently.
type Monitor struct {
	cfg      *config.Config
	scanner  *scanner.Scanner
	detector *detector.Detector
	delivery *delivery.Client
	pub      bus.Publisher
	log      *slog.Logger

	chain *chainlog.Logger
	store baseline.Store

	mu    sync.Mutex
	state State
}

// New builds a Monitor from validated configuration. The bus publisher is
// optional; pass nil when the mirror is disabled.
func New(cfg *config.Config, pub bus.Publisher, log *slog.Logger) *Monitor {
	if log == nil {
		log = slog.Default()
	}

	m := &Monitor{
		cfg:      cfg,
		scanner:  scanner.New(cfg.Monitor.RootDirectory, cfg.Monitor.ExcludeHidden),
		detector: detector.New(cfg.Labels.Host, cfg.Labels.Site),
		pub:      pub,
		log:      log,
		state:    StateInitializing,
	}
	if cfg.Collector.Enabled {
		m.delivery = delivery.New(delivery.Config{
			BaseURL:      cfg.Collector.BaseURL,
			IngestPath:   cfg.Collector.IngestPath,
			BatchSize:    cfg.Collector.BatchSize,
			SendInterval: cfg.Collector.SendInterval,
			MaxQueueSize: cfg.Collector.MaxQueueSize,
			Timeout:      cfg.Collector.Timeout,
		}, log)
	}
	return m
}

// State returns the current lifecycle phase.
func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Monitor) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
	m.log.Info("monitor state changed", "state", string(s))
}

// Run executes the full lifecycle until ctx is canceled or a durability
// failure occurs. Cancellation is cooperative: the current cycle finishes,
// no new cycle starts.
func (m *Monitor) Run(ctx context.Context) error {
	if err := m.initialize(); err != nil {
		return err
	}
	defer m.chain.Close()

	if m.delivery != nil {
		m.delivery.Start()
	}

	m.setState(StateWatching)
	var runErr error
	for {
		if ctx.Err() != nil {
			break
		}
		if err := m.runCycle(ctx); err != nil {
			runErr = err
			break
		}
		if !sleep(ctx, m.cfg.Monitor.PollInterval) {
			break
		}
	}

	m.shutdown()
	return runErr
}

// initialize loads the persisted baseline or builds one from a full scan,
// persisting it immediately, and recovers the chain seed from the log.
func (m *Monitor) initialize() error {
	chain, err := chainlog.Open(
		m.cfg.Monitor.LogPath,
		chainlog.RecoveryPolicy(m.cfg.Monitor.ChainRecovery),
		m.log,
	)
	if err != nil {
		return fmt.Errorf("open chain log: %w", err)
	}
	m.chain = chain

	store, found, err := baseline.Load(m.cfg.Monitor.BaselinePath)
	if err != nil {
		m.chain.Close()
		return err
	}
	if found {
		m.store = store
	} else {
		snapshot, err := m.scanner.Snapshot()
		if err != nil {
			m.chain.Close()
			return fmt.Errorf("build initial baseline: %w", err)
		}
		m.store = snapshot
		if err := baseline.Save(m.store, m.cfg.Monitor.BaselinePath); err != nil {
			m.chain.Close()
			return err
		}
	}

	metrics.FilesTracked.Set(float64(len(m.store)))
	m.log.Info("baseline ready",
		"files", len(m.store),
		"root", m.cfg.Monitor.RootDirectory,
		"loaded", found,
	)
	return nil
}

// runCycle performs one scan/detect/log/deliver pass. A scan failure skips
// the cycle; a log or baseline write failure is returned and stops the
// loop, since continuing would silently break chain continuity.
func (m *Monitor) runCycle(ctx context.Context) error {
	start := time.Now()
	snapshot, err := m.scanner.Snapshot()
	if err != nil {
		m.log.Warn("scan failed, skipping cycle", "error", err)
		return nil
	}
	metrics.ScanDuration.Observe(time.Since(start).Seconds())

	events := m.detector.Diff(m.store, snapshot)
	for _, evt := range events {
		appended, err := m.chain.Append(evt)
		if err != nil {
			return err
		}
		metrics.EventsDetected.WithLabelValues(string(appended.EventType)).Inc()
		m.log.Info("change detected",
			"event_type", string(appended.EventType),
			"path", appended.FilePath,
			"event_id", appended.EventID,
			"technique", appended.TechniqueLabel,
		)

		if m.delivery != nil {
			m.delivery.Enqueue(appended.ToCollectorEvent())
		}
		m.mirror(ctx, appended)
	}

	if len(events) > 0 {
		m.store = snapshot
		if err := baseline.Save(m.store, m.cfg.Monitor.BaselinePath); err != nil {
			return err
		}
		metrics.FilesTracked.Set(float64(len(m.store)))
	}
	metrics.PollCycles.Inc()
	return nil
}

// mirror publishes the finalized event to the local bus. Failures are
// logged and never affect the cycle.
func (m *Monitor) mirror(ctx context.Context, evt interface{}) {
	if m.pub == nil {
		return
	}
	raw, err := json.Marshal(evt)
	if err != nil {
		m.log.Warn("failed to serialize event for bus mirror", "error", err)
		return
	}
	if err := m.pub.Publish(ctx, m.cfg.Bus.Subject, raw); err != nil {
		m.log.Warn("failed to mirror event to bus", "error", err)
	}
}

// shutdown persists the current store, flushes delivery, and reaches the
// terminal state. Persist failures at this point are logged, not returned;
// the process is exiting either way.
func (m *Monitor) shutdown() {
	m.setState(StateStopping)

	if err := baseline.Save(m.store, m.cfg.Monitor.BaselinePath); err != nil {
		m.log.Error("failed to persist baseline during shutdown", "error", err)
	}
	if m.delivery != nil {
		m.delivery.Stop(true, stopTimeout)
	}

	m.setState(StateStopped)
}

// sleep waits for the poll interval or cancellation, reporting whether the
// loop should continue.
func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
