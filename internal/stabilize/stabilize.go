// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package stabilize detects when a noisy counter has settled. A Detector
// watches a stream of (count, active) samples and reports a boolean that
// flips true once the count has stayed unchanged for a quiet period, flips
// false the moment the count moves in either direction, and persists for a
// grace window after the producer goes inactive before resetting.
//
// The visualization layer uses one Detector per tracked metric to gate the
// switch from "collecting" to "settled" animation semantics.
package stabilize

import (
	"sync"
	"time"
)

// State names the detector's position in its state machine.
type State string

const (
	// StateIdle means nothing is being tracked: either no active sample has
	// arrived yet or the detector fully reset after the grace window.
	StateIdle State = "idle"

	// StateRising means the tracked count cannot settle yet: it is sitting
	// at zero while the producer collects. No quiet timer runs.
	StateRising State = "rising"

	// StateSettling means a nonzero count was observed and the quiet timer
	// is running; any movement restarts it.
	StateSettling State = "settling"

	// StateStabilized means the quiet timer fired: the count is settled.
	StateStabilized State = "stabilized"

	// StatePersisting means the producer went inactive while stabilized;
	// the settled signal is held until the grace timer fires.
	StatePersisting State = "persisting"
)

// Config holds the detector's timing constants.
type Config struct {
	// QuietPeriod is how long a nonzero count must remain unchanged before
	// the detector stabilizes.
	QuietPeriod time.Duration

	// GracePeriod is how long a settled signal outlives producer
	// inactivity. It must be longer than QuietPeriod.
	GracePeriod time.Duration
}

const (
	defaultQuietPeriod = 1500 * time.Millisecond
	defaultGracePeriod = 4 * time.Second
)

func (c Config) withDefaults() Config {
	if c.QuietPeriod <= 0 {
		c.QuietPeriod = defaultQuietPeriod
	}
	if c.GracePeriod <= c.QuietPeriod {
		c.GracePeriod = defaultGracePeriod
	}
	return c
}

// Detector is the per-metric stabilization state machine. One instance
// tracks one counter; instances share nothing. All methods are safe for
// concurrent use, which the timer callbacks require.
type Detector struct {
	mu  sync.Mutex
	cfg Config

	state      State
	lastCount  int
	lastActive bool
	stabilized bool
	closed     bool

	quietTimer *time.Timer
	quietGen   uint64
	graceTimer *time.Timer
	graceGen   uint64
}

// New creates a Detector in the idle state. Zero-valued config fields fall
// back to the package defaults. Callers must Close the detector when the
// session ends so no timer fires against a torn-down consumer.
func New(cfg Config) *Detector {
	return &Detector{cfg: cfg.withDefaults(), state: StateIdle}
}

// Observe feeds one sample and returns the current stabilized signal.
// A sample identical to the previous one is a no-op: it neither restarts the
// quiet timer nor disturbs the current state, so rapid duplicate sampling
// cannot defer stabilization.
func (d *Detector) Observe(count int, active bool) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return false
	}
	if d.state != StateIdle && count == d.lastCount && active == d.lastActive {
		return d.stabilized
	}

	if !active {
		d.observeInactive(count)
	} else {
		d.observeActive(count)
	}

	d.lastCount = count
	d.lastActive = active
	return d.stabilized
}

// observeInactive handles samples while the producer is not running.
func (d *Detector) observeInactive(count int) {
	switch {
	case d.state == StatePersisting && count == d.lastCount:
		// Still inside the grace window, nothing new.
	case d.stabilized && count == d.lastCount:
		// Producer just went inactive while settled: hold the signal for
		// the grace window.
		d.cancelQuiet()
		d.state = StatePersisting
		d.armGrace()
	default:
		// Inactive with an unsettled or moving count resets immediately;
		// grace exists only to let a settled signal outlive shutdown.
		d.reset()
	}
}

// observeActive handles samples while the producer is running.
func (d *Detector) observeActive(count int) {
	if d.state == StatePersisting {
		// Producer came back during the grace window: resume as settled
		// with tracking intact.
		d.cancelGrace()
		d.state = StateStabilized
	}
	if d.state == StateIdle {
		// Fresh run: start tracking from zero.
		d.lastCount = 0
		d.stabilized = false
	}

	switch {
	case count == 0:
		// A zero count never stabilizes, whatever the timers were doing.
		d.cancelQuiet()
		d.stabilized = false
		d.state = StateRising
	case count != d.lastCount:
		// Any movement (up or down) drops the settled signal and restarts
		// the quiet clock. The count must now hold for a full quiet period.
		d.cancelQuiet()
		d.stabilized = false
		d.state = StateSettling
		d.armQuiet()
	default:
		// Unchanged nonzero count with only the active flag differing:
		// keep whatever state and timer are current.
	}
}

// IsStabilized reports the current settled signal without feeding a sample.
func (d *Detector) IsStabilized() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stabilized && !d.closed
}

// CurrentState returns the named state, for observability and tests.
func (d *Detector) CurrentState() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Close cancels all timers and permanently disables the detector.
func (d *Detector) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	d.cancelQuiet()
	d.cancelGrace()
	d.stabilized = false
	d.state = StateIdle
}

// armQuiet schedules the quiet timer. The generation counter invalidates any
// callback from a previously scheduled timer that already fired but has not
// yet taken the lock.
func (d *Detector) armQuiet() {
	d.quietGen++
	gen := d.quietGen
	d.quietTimer = time.AfterFunc(d.cfg.QuietPeriod, func() { d.quietFired(gen) })
}

func (d *Detector) cancelQuiet() {
	d.quietGen++
	if d.quietTimer != nil {
		d.quietTimer.Stop()
		d.quietTimer = nil
	}
}

func (d *Detector) quietFired(gen uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed || gen != d.quietGen || d.state != StateSettling || d.lastCount == 0 {
		return
	}
	d.state = StateStabilized
	d.stabilized = true
}

func (d *Detector) armGrace() {
	d.graceGen++
	gen := d.graceGen
	d.graceTimer = time.AfterFunc(d.cfg.GracePeriod, func() { d.graceFired(gen) })
}

func (d *Detector) cancelGrace() {
	d.graceGen++
	if d.graceTimer != nil {
		d.graceTimer.Stop()
		d.graceTimer = nil
	}
}

func (d *Detector) graceFired(gen uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed || gen != d.graceGen || d.state != StatePersisting {
		return
	}
	d.reset()
}

// reset returns the detector to idle with clean tracking so a subsequent run
// starts fresh.
func (d *Detector) reset() {
	d.cancelQuiet()
	d.cancelGrace()
	d.state = StateIdle
	d.stabilized = false
	d.lastCount = 0
}
