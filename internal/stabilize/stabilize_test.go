// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package stabilize

import (
	"testing"
	"time"
)

// Test timings: quiet period short enough to keep the suite fast, with wide
// margins so scheduler jitter cannot flip outcomes.
const (
	quiet = 100 * time.Millisecond
	grace = 300 * time.Millisecond
)

func newTestDetector(t *testing.T) *Detector {
	t.Helper()
	d := New(Config{QuietPeriod: quiet, GracePeriod: grace})
	t.Cleanup(d.Close)
	return d
}

func TestNeverStabilizesOnZero(t *testing.T) {
	d := newTestDetector(t)

	for i := 0; i < 5; i++ {
		if got := d.Observe(0, true); got {
			t.Fatal("Observe(0, true) = true, zero count must never stabilize")
		}
		time.Sleep(quiet / 2)
	}
	time.Sleep(2 * quiet)
	if d.IsStabilized() {
		t.Error("IsStabilized() = true after zero counts, want false")
	}
	if got := d.CurrentState(); got == StateStabilized {
		t.Errorf("state = %s, must not be stabilized at count 0", got)
	}
}

func TestStabilizesAfterQuietPeriod(t *testing.T) {
	d := newTestDetector(t)

	if d.Observe(100, true) {
		t.Fatal("stabilized immediately, want false before quiet period")
	}

	time.Sleep(quiet / 2)
	if d.IsStabilized() {
		t.Error("stabilized before quiet period elapsed")
	}

	time.Sleep(quiet)
	if !d.IsStabilized() {
		t.Error("not stabilized after quiet period elapsed")
	}
	if got := d.CurrentState(); got != StateStabilized {
		t.Errorf("state = %s, want %s", got, StateStabilized)
	}
}

func TestIncreaseRestartsQuietClock(t *testing.T) {
	d := newTestDetector(t)

	d.Observe(100, true)
	time.Sleep(quiet / 2)
	// The count moves before the quiet period elapses.
	if d.Observe(150, true) {
		t.Fatal("stabilized on an increasing count")
	}

	// Half the quiet period after the increase the old timer would have
	// fired; the restart must have cancelled it.
	time.Sleep((quiet / 2) + (quiet / 4))
	if d.IsStabilized() {
		t.Error("stale quiet timer leaked through a count increase")
	}

	time.Sleep(quiet)
	if !d.IsStabilized() {
		t.Error("not stabilized after count held steady at 150")
	}
}

func TestDecreaseResetsImmediately(t *testing.T) {
	d := newTestDetector(t)

	d.Observe(100, true)
	time.Sleep(2 * quiet)
	if !d.IsStabilized() {
		t.Fatal("precondition failed: detector did not stabilize at 100")
	}

	// The reset must land on this very call, not after any delay.
	if d.Observe(50, true) {
		t.Error("Observe(50, true) = true, decrease must drop the signal synchronously")
	}
	if d.IsStabilized() {
		t.Error("IsStabilized() = true right after a decrease")
	}
}

func TestRedundantSampleDoesNotRestartTimer(t *testing.T) {
	d := newTestDetector(t)

	d.Observe(100, true)
	// Hammer the detector with the identical sample through the whole quiet
	// window. If re-observation restarted the timer this would never settle.
	deadline := time.Now().Add(2 * quiet)
	for time.Now().Before(deadline) {
		d.Observe(100, true)
		time.Sleep(quiet / 8)
	}
	if !d.IsStabilized() {
		t.Error("identical samples deferred stabilization; they must be no-ops")
	}
}

func TestPersistsAfterInactive(t *testing.T) {
	d := newTestDetector(t)

	d.Observe(100, true)
	time.Sleep(2 * quiet)
	if !d.IsStabilized() {
		t.Fatal("precondition failed: detector did not stabilize")
	}

	// Producer shuts down; the settled signal must hold through the grace
	// window.
	if !d.Observe(100, false) {
		t.Error("signal dropped immediately on inactive, want it held")
	}
	if got := d.CurrentState(); got != StatePersisting {
		t.Errorf("state = %s, want %s", got, StatePersisting)
	}

	time.Sleep(grace / 2)
	if !d.IsStabilized() {
		t.Error("signal dropped inside the grace window")
	}

	time.Sleep(grace)
	if d.IsStabilized() {
		t.Error("signal still held after the grace window elapsed")
	}
	if got := d.CurrentState(); got != StateIdle {
		t.Errorf("state = %s, want %s after grace reset", got, StateIdle)
	}
}

func TestReactivationDuringGraceResumes(t *testing.T) {
	d := newTestDetector(t)

	d.Observe(100, true)
	time.Sleep(2 * quiet)
	d.Observe(100, false)

	// Producer hiccup: back before the grace window ends.
	time.Sleep(grace / 3)
	if !d.Observe(100, true) {
		t.Error("reactivation with an unchanged count dropped the settled signal")
	}
	if got := d.CurrentState(); got != StateStabilized {
		t.Errorf("state = %s, want %s after reactivation", got, StateStabilized)
	}

	// The cancelled grace timer must not fire later and reset the detector.
	time.Sleep(grace)
	if !d.IsStabilized() {
		t.Error("stale grace timer reset the detector after reactivation")
	}
}

func TestInactiveBeforeStabilizedResets(t *testing.T) {
	d := newTestDetector(t)

	d.Observe(100, true)
	// Goes inactive while still settling: reset immediately, no grace.
	if d.Observe(100, false) {
		t.Error("unsettled count reported stabilized on shutdown")
	}
	if got := d.CurrentState(); got != StateIdle {
		t.Errorf("state = %s, want %s", got, StateIdle)
	}

	// The cancelled quiet timer must not fire against the reset detector.
	time.Sleep(2 * quiet)
	if d.IsStabilized() {
		t.Error("stale quiet timer stabilized a reset detector")
	}
}

func TestFreshRunStartsClean(t *testing.T) {
	d := newTestDetector(t)

	// First run settles, producer stops, grace expires.
	d.Observe(100, true)
	time.Sleep(2 * quiet)
	d.Observe(100, false)
	time.Sleep(2 * grace)
	if d.CurrentState() != StateIdle {
		t.Fatalf("state = %s, want idle between runs", d.CurrentState())
	}

	// Second run: the old count of 100 must not look like a steady value.
	if d.Observe(100, true) {
		t.Error("second run inherited the previous run's settled signal")
	}
	time.Sleep(2 * quiet)
	if !d.IsStabilized() {
		t.Error("second run failed to stabilize on its own")
	}
}

func TestCloseCancelsTimers(t *testing.T) {
	d := New(Config{QuietPeriod: quiet, GracePeriod: grace})
	d.Observe(100, true)
	d.Close()

	time.Sleep(2 * quiet)
	if d.IsStabilized() {
		t.Error("timer fired against a closed detector")
	}
	if d.Observe(200, true) {
		t.Error("closed detector accepted a sample")
	}
}

func TestDefaultsApplied(t *testing.T) {
	cfg := Config{}.withDefaults()
	if cfg.QuietPeriod != defaultQuietPeriod {
		t.Errorf("QuietPeriod = %v, want %v", cfg.QuietPeriod, defaultQuietPeriod)
	}
	if cfg.GracePeriod != defaultGracePeriod {
		t.Errorf("GracePeriod = %v, want %v", cfg.GracePeriod, defaultGracePeriod)
	}
	// A grace period at or below the quiet period is replaced.
	cfg = Config{QuietPeriod: time.Second, GracePeriod: time.Second}.withDefaults()
	if cfg.GracePeriod <= cfg.QuietPeriod {
		t.Errorf("GracePeriod = %v, must exceed QuietPeriod %v", cfg.GracePeriod, cfg.QuietPeriod)
	}
}
