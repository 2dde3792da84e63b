package realtime

import (
	"math"
	"time"
)

// Counter animates a displayed number toward a target with a cubic
// ease-out curve over a fixed duration. Retargeting mid-flight restarts
// the animation from the value currently on screen, so the number never
// jumps and pending targets are never queued.
type Counter struct {
	start    float64
	target   float64
	startAt  time.Time
	duration time.Duration
}

// NewCounter creates a counter resting at initial.
func NewCounter(initial float64, duration time.Duration) *Counter {
	return &Counter{
		start:    initial,
		target:   initial,
		duration: duration,
	}
}

// SetTarget points the counter at a new value starting from whatever
// value is visible at now.
func (c *Counter) SetTarget(target float64, now time.Time) {
	c.start = c.ValueAt(now)
	c.target = target
	c.startAt = now
}

// ValueAt returns the eased value at the given instant.
func (c *Counter) ValueAt(now time.Time) float64 {
	if c.duration <= 0 {
		return c.target
	}
	elapsed := now.Sub(c.startAt)
	if elapsed <= 0 {
		return c.start
	}
	progress := float64(elapsed) / float64(c.duration)
	if progress >= 1 {
		return c.target
	}
	eased := 1 - math.Pow(1-progress, 3)
	return c.start + (c.target-c.start)*eased
}

// Target returns the value the counter is converging on.
func (c *Counter) Target() float64 {
	return c.target
}
