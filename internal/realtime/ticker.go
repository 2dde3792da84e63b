package realtime

import "time"

// Ticker is a cancellable tick source. The wall-clock implementation wraps
// time.Ticker; tests drive ticks by hand.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type intervalTicker struct {
	t *time.Ticker
}

// NewIntervalTicker returns a Ticker that fires every interval.
func NewIntervalTicker(interval time.Duration) Ticker {
	return &intervalTicker{t: time.NewTicker(interval)}
}

func (it *intervalTicker) C() <-chan time.Time { return it.t.C }
func (it *intervalTicker) Stop()               { it.t.Stop() }

// ManualTicker fires only when Tick is called.
type ManualTicker struct {
	ch chan time.Time
}

func NewManualTicker() *ManualTicker {
	return &ManualTicker{ch: make(chan time.Time)}
}

func (mt *ManualTicker) C() <-chan time.Time { return mt.ch }
func (mt *ManualTicker) Stop()               {}

// Tick delivers one tick stamped with the given time.
func (mt *ManualTicker) Tick(now time.Time) {
	mt.ch <- now
}
