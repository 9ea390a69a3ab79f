// Package monitor polls the registry database while the service is offline
// and fires a recovery callback once it becomes reachable.
package monitor

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Prober runs a single trivial query against the database.
type Prober interface {
	Probe(ctx context.Context) error
}

// ProberFunc adapts a function to Prober.
type ProberFunc func(ctx context.Context) error

// Probe calls f.
func (f ProberFunc) Probe(ctx context.Context) error { return f(ctx) }

// RecoveryFunc switches the application over to the database. An error
// keeps the monitor polling.
type RecoveryFunc func(ctx context.Context) error

// Config tunes the polling loop.
type Config struct {
	Interval        time.Duration
	BackoffInterval time.Duration
	ProbeTimeout    time.Duration
	MaxRetries      int
}

// DefaultConfig matches the production cadence: 30s polls, 120s after five
// consecutive failures, 5s per probe.
func DefaultConfig() Config {
	return Config{
		Interval:        30 * time.Second,
		BackoffInterval: 120 * time.Second,
		ProbeTimeout:    5 * time.Second,
		MaxRetries:      5,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Interval <= 0 {
		c.Interval = def.Interval
	}
	if c.BackoffInterval <= 0 {
		c.BackoffInterval = def.BackoffInterval
	}
	if c.ProbeTimeout <= 0 {
		c.ProbeTimeout = def.ProbeTimeout
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = def.MaxRetries
	}
	return c
}

// Observer receives probe outcomes, typically for metrics.
type Observer interface {
	ObserveProbe(success bool, duration time.Duration)
}

// Result is the outcome of a single scheduled check.
type Result struct {
	Success   bool
	Err       error
	Duration  time.Duration
	Recovered bool
}

// Status is a point-in-time snapshot of the monitor.
type Status struct {
	Connected  bool      `json:"connected"`
	Monitoring bool      `json:"monitoring"`
	RetryCount int       `json:"retryCount"`
	IntervalMs int64     `json:"intervalMs"`
	LastCheck  time.Time `json:"lastCheck,omitzero"`
	LastError  string    `json:"lastError,omitempty"`
}

// Monitor is the OFFLINE to RAILWAY watcher. Checks are serialized: only
// the polling goroutine or an explicit Check call mutates state, and never
// concurrently.
type Monitor struct {
	cfg       Config
	prober    Prober
	onRestore RecoveryFunc
	observer  Observer
	logger    *zap.Logger

	checkMu sync.Mutex

	mu         sync.Mutex
	connected  bool
	retryCount int
	interval   time.Duration
	cancel     context.CancelFunc
	done       chan struct{}
	lastCheck  time.Time
	lastErr    error
}

// New constructs a Monitor. observer and logger may be nil.
func New(cfg Config, prober Prober, onRestore RecoveryFunc, observer Observer, logger *zap.Logger) *Monitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg = cfg.withDefaults()
	return &Monitor{
		cfg:       cfg,
		prober:    prober,
		onRestore: onRestore,
		observer:  observer,
		logger:    logger,
		interval:  cfg.Interval,
	}
}

// Start runs an immediate check and then keeps polling until the database
// is restored, Stop is called or ctx is cancelled. Calling Start while the
// monitor is already running is a no-op.
func (m *Monitor) Start(ctx context.Context) {
	m.mu.Lock()
	if m.cancel != nil {
		m.mu.Unlock()
		return
	}
	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	m.cancel = cancel
	m.done = done
	m.mu.Unlock()

	m.logger.Info("connection monitor started",
		zap.Duration("interval", m.currentInterval()),
		zap.Int("max_retries", m.cfg.MaxRetries),
	)
	go m.loop(loopCtx, done)
}

// Stop ends polling and waits for the loop to exit.
func (m *Monitor) Stop() {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (m *Monitor) loop(ctx context.Context, done chan struct{}) {
	defer func() {
		m.mu.Lock()
		m.cancel = nil
		m.done = nil
		m.mu.Unlock()
		close(done)
	}()

	for {
		if m.isConnected() {
			m.logger.Info("connection monitor stopped, database already restored")
			return
		}
		res := m.Check(ctx)
		if res.Recovered {
			m.logger.Info("connection monitor stopped after recovery")
			return
		}
		timer := time.NewTimer(m.currentInterval())
		select {
		case <-ctx.Done():
			timer.Stop()
			m.logger.Info("connection monitor stopped")
			return
		case <-timer.C:
		}
	}
}

// Check performs one probe cycle. Probe failures are recorded in the
// result and never escape.
func (m *Monitor) Check(ctx context.Context) Result {
	m.checkMu.Lock()
	defer m.checkMu.Unlock()
	if err := ctx.Err(); err != nil {
		return Result{Err: err}
	}

	probeCtx, cancel := context.WithTimeout(ctx, m.cfg.ProbeTimeout)
	start := time.Now()
	err := m.probe(probeCtx)
	cancel()
	res := Result{Success: err == nil, Err: err, Duration: time.Since(start)}
	if m.observer != nil {
		m.observer.ObserveProbe(res.Success, res.Duration)
	}

	m.mu.Lock()
	m.lastCheck = start
	m.lastErr = err
	if err != nil {
		m.retryCount++
		retries := m.retryCount
		if m.retryCount >= m.cfg.MaxRetries {
			m.retryCount = 0
			m.interval = m.cfg.BackoffInterval
		}
		interval := m.interval
		m.mu.Unlock()
		m.logger.Warn("database probe failed",
			zap.Error(err),
			zap.Int("retry", retries),
			zap.Duration("next_interval", interval),
		)
		return res
	}
	if m.connected {
		m.mu.Unlock()
		return res
	}
	m.connected = true
	m.retryCount = 0
	m.mu.Unlock()

	m.logger.Info("database reachable, restoring live mode")
	if m.onRestore != nil {
		if rerr := m.onRestore(ctx); rerr != nil {
			m.mu.Lock()
			m.connected = false
			m.lastErr = rerr
			m.mu.Unlock()
			m.logger.Error("recovery callback failed, continuing to poll", zap.Error(rerr))
			res.Err = rerr
			return res
		}
	}
	res.Recovered = true
	// A recovery from any caller ends the polling loop.
	m.mu.Lock()
	stopLoop := m.cancel
	m.mu.Unlock()
	if stopLoop != nil {
		stopLoop()
	}
	return res
}

func (m *Monitor) isConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

func (m *Monitor) probe(ctx context.Context) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = errors.New("probe panicked")
		}
	}()
	return m.prober.Probe(ctx)
}

func (m *Monitor) currentInterval() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.interval
}

// Reset clears the connected flag and backoff so a later Start polls from
// scratch. It is used when the live pool is dropped externally.
func (m *Monitor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = false
	m.retryCount = 0
	m.interval = m.cfg.Interval
}

// Status reports the current monitor state.
func (m *Monitor) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := Status{
		Connected:  m.connected,
		Monitoring: m.cancel != nil,
		RetryCount: m.retryCount,
		IntervalMs: m.interval.Milliseconds(),
		LastCheck:  m.lastCheck,
	}
	if m.lastErr != nil {
		st.LastError = m.lastErr.Error()
	}
	return st
}
