// Package health implements a per-provider circuit breaker. Each
// (provider, region) pair gets its own rolling failure window and
// three-state circuit. Open→Half-Open eligibility is derived lazily from
// stored timestamps and an injected clock; there are no background timers.
package health

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mfontaine/splitflow/internal/clock"
	"github.com/mfontaine/splitflow/internal/common"
)

// State is the derived circuit state for one provider key.
type State string

const (
	// StateClosed means requests are allowed.
	StateClosed State = "closed"
	// StateOpen means requests should fail fast without calling the provider.
	StateOpen State = "open"
	// StateHalfOpen means one trial call is permitted to probe recovery.
	StateHalfOpen State = "half-open"
)

// Key identifies one upstream provider endpoint.
type Key struct {
	Provider string
	Region   string
}

func (k Key) String() string {
	if k.Region == "" {
		return k.Provider
	}
	return k.Provider + "/" + k.Region
}

// Config holds circuit breaker thresholds, fixed per deployment.
type Config struct {
	FailureThreshold int
	SuccessThreshold int
	Timeout          time.Duration
	MonitoringWindow time.Duration
}

// DefaultConfig returns the standard production thresholds.
func DefaultConfig() Config {
	return Config{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Timeout:          60 * time.Second,
		MonitoringWindow: 300 * time.Second,
	}
}

// Validate checks that thresholds are in valid ranges.
func (c Config) Validate() error {
	if c.FailureThreshold <= 0 {
		return fmt.Errorf("%w: failure threshold must be positive, got %d",
			common.ErrInvalidConfig, c.FailureThreshold)
	}
	if c.SuccessThreshold <= 0 {
		return fmt.Errorf("%w: success threshold must be positive, got %d",
			common.ErrInvalidConfig, c.SuccessThreshold)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive, got %s",
			common.ErrInvalidConfig, c.Timeout)
	}
	if c.MonitoringWindow <= 0 {
		return fmt.Errorf("%w: monitoring window must be positive, got %s",
			common.ErrInvalidConfig, c.MonitoringWindow)
	}
	return nil
}

// record holds the stored fields for one key. State is always derived from
// these fields plus the current time, never stored directly.
type record struct {
	mu             sync.Mutex
	windowStart    time.Time
	lastTransition time.Time
	failureCount   int
	successCount   int
	circuitOpen    bool
}

// Tracker tracks provider health and derives circuit state per key.
// Safe for concurrent use; operations on different keys do not block
// each other.
type Tracker struct {
	clock   clock.Clock
	logger  *slog.Logger
	records map[Key]*record
	cfg     Config
	mu      sync.RWMutex
}

// NewTracker creates a health tracker with the given configuration.
func NewTracker(cfg Config, clk clock.Clock) (*Tracker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if clk == nil {
		clk = clock.New()
	}

	return &Tracker{
		cfg:     cfg,
		clock:   clk,
		records: make(map[Key]*record),
		logger:  slog.Default().With("component", "health_tracker"),
	}, nil
}

// getRecord returns the record for key, creating it lazily.
func (t *Tracker) getRecord(key Key) *record {
	t.mu.RLock()
	rec, ok := t.records[key]
	t.mu.RUnlock()
	if ok {
		return rec
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if rec, ok = t.records[key]; ok {
		return rec
	}
	rec = &record{windowStart: t.clock.Now()}
	t.records[key] = rec
	return rec
}

// lookup returns the record for key without creating one.
func (t *Tracker) lookup(key Key) (*record, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	rec, ok := t.records[key]
	return rec, ok
}

// elapsedSince clamps negative durations to zero so that clock skew never
// produces negative elapsed-time comparisons.
func elapsedSince(since, now time.Time) time.Duration {
	d := now.Sub(since)
	if d < 0 {
		return 0
	}
	return d
}

// rollWindow zeroes the counters and restarts the rolling window if it has
// expired. Caller must hold rec.mu.
func (t *Tracker) rollWindow(rec *record, now time.Time) {
	if elapsedSince(rec.windowStart, now) > t.cfg.MonitoringWindow {
		rec.failureCount = 0
		rec.successCount = 0
		rec.windowStart = now
	}
}

// stateLocked derives the circuit state. Caller must hold rec.mu.
func (t *Tracker) stateLocked(rec *record, now time.Time) State {
	if !rec.circuitOpen {
		return StateClosed
	}
	if elapsedSince(rec.lastTransition, now) >= t.cfg.Timeout {
		return StateHalfOpen
	}
	return StateOpen
}

// GetState returns the derived circuit state for key. Keys with no
// recorded outcomes are Closed. Never mutates.
func (t *Tracker) GetState(key Key) State {
	rec, ok := t.lookup(key)
	if !ok {
		return StateClosed
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	return t.stateLocked(rec, t.clock.Now())
}

// IsCircuitOpen reports whether calls to the provider should fail fast.
// Returns false once the open-state timeout has elapsed: the caller is
// then permitted a single probe call, with the next recorded outcome
// deciding the transition.
func (t *Tracker) IsCircuitOpen(key Key) bool {
	rec, ok := t.lookup(key)
	if !ok {
		return false
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	return t.stateLocked(rec, t.clock.Now()) == StateOpen
}

// RecordSuccess records a successful provider call, creating the key's
// record if needed. A success while Half-Open closes the circuit and
// resets the counters.
func (t *Tracker) RecordSuccess(key Key) {
	rec := t.getRecord(key)

	rec.mu.Lock()
	defer rec.mu.Unlock()

	now := t.clock.Now()
	t.rollWindow(rec, now)

	if t.stateLocked(rec, now) == StateHalfOpen {
		// Trial call succeeded: close and start a fresh window.
		rec.circuitOpen = false
		rec.failureCount = 0
		rec.successCount = 0
		rec.windowStart = now
		rec.lastTransition = now
		t.logger.Info("circuit closed after successful probe", "key", key.String())
		return
	}

	rec.successCount++
}

// RecordFailure records a failed provider call, creating the key's record
// if needed. Opens the circuit when the failure count crosses the
// threshold with a failure rate above 50% over the current rolling window;
// re-opens it when a Half-Open probe fails.
func (t *Tracker) RecordFailure(key Key) {
	rec := t.getRecord(key)

	rec.mu.Lock()
	defer rec.mu.Unlock()

	now := t.clock.Now()
	t.rollWindow(rec, now)

	switch t.stateLocked(rec, now) {
	case StateHalfOpen:
		// Probe failed: back to Open for another timeout period.
		rec.failureCount++
		rec.lastTransition = now
		t.logger.Warn("circuit re-opened after failed probe", "key", key.String())

	case StateOpen:
		rec.failureCount++

	case StateClosed:
		rec.failureCount++
		total := rec.failureCount + rec.successCount
		rate := float64(rec.failureCount) / float64(total)
		if rec.failureCount >= t.cfg.FailureThreshold && rate > 0.5 {
			rec.circuitOpen = true
			rec.lastTransition = now
			t.logger.Warn("circuit opened",
				"key", key.String(),
				"failures", rec.failureCount,
				"failure_rate", rate)
		}
	}
}

// Reset is an administrative override returning the key to Closed with
// zeroed counters. It is a no-op for unknown keys and idempotent.
func (t *Tracker) Reset(key Key) {
	rec, ok := t.lookup(key)
	if !ok {
		return
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	now := t.clock.Now()
	rec.circuitOpen = false
	rec.failureCount = 0
	rec.successCount = 0
	rec.windowStart = now
	rec.lastTransition = now
	t.logger.Info("circuit reset", "key", key.String())
}
