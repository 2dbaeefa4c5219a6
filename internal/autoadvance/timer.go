// Package autoadvance decides when the style should change on its own.
package autoadvance

import (
	"time"

	"github.com/sirupsen/logrus"

	"styler/internal/core"
	"styler/internal/source"
)

// DefaultInterval applies when no valid interval is configured
const DefaultInterval = 20 * time.Second

// Timer tracks the last style change and the end-of-content latch.
//
// Continuous sources (camera) use the interval: the style changes once
// the interval has elapsed since the last change. Finite sources (slideshow,
// video) change style once per loop boundary, when the frame before the
// current one was the last frame and playback is not paused.
type Timer struct {
	clock  core.Clock
	logger logrus.FieldLogger

	enabled      bool
	interval     time.Duration
	lastChange   time.Time
	wasLastFrame bool
}

func NewTimer(enabled bool, interval time.Duration, clock core.Clock, logger logrus.FieldLogger) *Timer {
	t := &Timer{
		clock:   clock,
		logger:  logger.WithField("component", "auto_advance"),
		enabled: enabled,
	}
	t.SetInterval(interval)
	t.lastChange = clock.Now()
	return t
}

// SetInterval changes the continuous-source interval. Non-positive values
// fall back to DefaultInterval.
func (t *Timer) SetInterval(d time.Duration) {
	if d <= 0 {
		t.logger.WithField("interval", d).Warnf("invalid auto change interval, using %s", DefaultInterval)
		d = DefaultInterval
	}
	t.interval = d
}

func (t *Timer) Interval() time.Duration { return t.interval }
func (t *Timer) Enabled() bool { return t.enabled }

// SetEnabled turns auto change on or off. Turning it on restarts the
// interval from now.
func (t *Timer) SetEnabled(enabled bool) {
	if enabled && !t.enabled {
		t.lastChange = t.clock.Now()
	}
	t.enabled = enabled
	t.logger.WithField("enabled", enabled).Info("auto change")
}

// Toggle flips auto change and returns the new state
func (t *Timer) Toggle() bool {
	t.SetEnabled(!t.enabled)
	return t.enabled
}

// Reset clears the latch and restarts the interval. Called on every source
// switch.
func (t *Timer) Reset() {
	t.lastChange = t.clock.Now()
	t.wasLastFrame = false
}

// MarkChanged restarts the interval after a manual style change
func (t *Timer) MarkChanged() {
	t.lastChange = t.clock.Now()
}

// ObserveFrame records whether the frame just submitted was the last frame
// of the source's content
func (t *Timer) ObserveFrame(last bool) {
	t.wasLastFrame = last
}

// Due reports whether the style should advance now for a source of the
// given kind. A true result counts as the change: the interval restarts and
// the latch is consumed.
func (t *Timer) Due(kind source.Kind, paused bool) bool {
	if !t.enabled {
		return false
	}
	now := t.clock.Now()
	if kind.Finite() {
		if !t.wasLastFrame || paused {
			return false
		}
		t.wasLastFrame = false
		t.lastChange = now
		return true
	}
	if now.Sub(t.lastChange) < t.interval {
		return false
	}
	t.lastChange = now
	return true
}
