package realtime

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Broadcaster is the hub-facing side of the live stats runner.
type Broadcaster interface {
	Broadcast(msg Message)
}

// Stats is the frame pushed to clients on every visible update. The
// integer fields are the eased counter values rounded for display; Pulse
// is a 0..1 phase for map marker animation.
type Stats struct {
	TotalThreats    int     `json:"totalThreats"`
	ActiveThreats   int     `json:"activeThreats"`
	TopCountries    int     `json:"topCountries"`
	TrendingMalware int     `json:"trendingMalware"`
	Pulse           float64 `json:"pulse"`
}

// Pulse derives a cyclic 0..1 phase from elapsed time. The phase itself is
// continuous; VisibleAt throttles how often a new value becomes visible so
// downstream consumers are not flooded.
type Pulse struct {
	epoch   time.Time
	period  time.Duration
	step    time.Duration
	lastAt  time.Time
	visible float64
}

// NewPulse creates a pulse with the given full cycle period, surfacing a
// fresh value at most once per step.
func NewPulse(epoch time.Time, period, step time.Duration) *Pulse {
	return &Pulse{epoch: epoch, period: period, step: step, lastAt: epoch}
}

// PhaseAt returns the instantaneous phase in [0, 1].
func (p *Pulse) PhaseAt(now time.Time) float64 {
	if p.period <= 0 {
		return 0
	}
	elapsed := now.Sub(p.epoch).Seconds()
	omega := 2 * math.Pi / p.period.Seconds()
	return (math.Sin(elapsed*omega) + 1) / 2
}

// VisibleAt returns the throttled phase: it advances only when at least
// one step has passed since the last advance, otherwise the previous
// visible value is repeated.
func (p *Pulse) VisibleAt(now time.Time) float64 {
	if now.Sub(p.lastAt) >= p.step {
		p.visible = p.PhaseAt(now)
		p.lastAt = now
	}
	return p.visible
}

// RunnerConfig tunes the live stats loop.
type RunnerConfig struct {
	// CounterDuration is how long a counter takes to reach its target.
	CounterDuration time.Duration
	// JitterInterval is how often counter targets are nudged.
	JitterInterval time.Duration
	// JitterMin and JitterMax bound the absolute size of one nudge.
	JitterMin int
	JitterMax int
	// PulsePeriod is the full pulse cycle length.
	PulsePeriod time.Duration
	// PulseStep throttles visible pulse updates.
	PulseStep time.Duration
	// BroadcastEvery is the number of ticks between pushed frames.
	BroadcastEvery int
}

// DefaultRunnerConfig mirrors the dashboard's animation timings.
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		CounterDuration: 2 * time.Second,
		JitterInterval:  3 * time.Second,
		JitterMin:       1,
		JitterMax:       5,
		PulsePeriod:     2 * time.Second,
		PulseStep:       100 * time.Millisecond,
		BroadcastEvery:  1,
	}
}

// Runner owns the decorative live statistics: four eased counters, a
// jitter loop that nudges their targets, and a pulse phase. It is fed a
// baseline after every successful dashboard fetch and broadcasts frames
// through the hub.
type Runner struct {
	mu sync.Mutex

	total     *Counter
	active    *Counter
	countries *Counter
	malware   *Counter
	pulse     *Pulse

	cfg        RunnerConfig
	rng        *rand.Rand
	hub        Broadcaster
	ticker     Ticker
	logger     *zap.Logger
	done       chan struct{}
	stopOnce   sync.Once
	lastJitter time.Time
	tickCount  int
}

// NewRunner wires a runner to a broadcaster and a tick source. The rand
// source is injectable so tests are deterministic.
func NewRunner(hub Broadcaster, ticker Ticker, cfg RunnerConfig, rng *rand.Rand, logger *zap.Logger) *Runner {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	now := time.Now()
	return &Runner{
		total:      NewCounter(0, cfg.CounterDuration),
		active:     NewCounter(0, cfg.CounterDuration),
		countries:  NewCounter(0, cfg.CounterDuration),
		malware:    NewCounter(0, cfg.CounterDuration),
		pulse:      NewPulse(now, cfg.PulsePeriod, cfg.PulseStep),
		cfg:        cfg,
		rng:        rng,
		hub:        hub,
		ticker:     ticker,
		logger:     logger,
		done:       make(chan struct{}),
		lastJitter: now,
	}
}

// SetBaseline retargets the counters after a dashboard refresh. The
// counters ease from their current on-screen values.
func (r *Runner) SetBaseline(totalThreats, activeThreats, topCountries, trendingMalware int, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.total.SetTarget(float64(totalThreats), now)
	r.active.SetTarget(float64(activeThreats), now)
	r.countries.SetTarget(float64(topCountries), now)
	r.malware.SetTarget(float64(trendingMalware), now)
}

// Run consumes ticks until Stop is called.
func (r *Runner) Run() {
	for {
		select {
		case now := <-r.ticker.C():
			r.Step(now)
		case <-r.done:
			return
		}
	}
}

// Stop halts the loop and releases the tick source.
func (r *Runner) Stop() {
	r.stopOnce.Do(func() {
		close(r.done)
		r.ticker.Stop()
	})
}

// Step advances one tick: jitter the targets when due, then emit a frame
// if this tick is a visible one.
func (r *Runner) Step(now time.Time) {
	r.mu.Lock()

	if now.Sub(r.lastJitter) >= r.cfg.JitterInterval {
		r.total.SetTarget(r.jittered(r.total.Target()), now)
		r.active.SetTarget(r.jittered(r.active.Target()), now)
		r.lastJitter = now
	}

	r.tickCount++
	emit := r.cfg.BroadcastEvery <= 1 || r.tickCount%r.cfg.BroadcastEvery == 0
	var frame Stats
	if emit {
		frame = Stats{
			TotalThreats:    int(math.Round(r.total.ValueAt(now))),
			ActiveThreats:   int(math.Round(r.active.ValueAt(now))),
			TopCountries:    int(math.Round(r.countries.ValueAt(now))),
			TrendingMalware: int(math.Round(r.malware.ValueAt(now))),
			Pulse:           r.pulse.VisibleAt(now),
		}
	}
	r.mu.Unlock()

	if emit {
		r.hub.Broadcast(Message{Type: MessageTypeStats, Payload: frame})
	}
}

// StatsAt returns the current frame without broadcasting.
func (r *Runner) StatsAt(now time.Time) Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Stats{
		TotalThreats:    int(math.Round(r.total.ValueAt(now))),
		ActiveThreats:   int(math.Round(r.active.ValueAt(now))),
		TopCountries:    int(math.Round(r.countries.ValueAt(now))),
		TrendingMalware: int(math.Round(r.malware.ValueAt(now))),
		Pulse:           r.pulse.PhaseAt(now),
	}
}

// jittered nudges a target by a bounded random delta, never below zero.
func (r *Runner) jittered(target float64) float64 {
	span := r.cfg.JitterMax - r.cfg.JitterMin
	if span < 0 {
		span = 0
	}
	delta := float64(r.cfg.JitterMin + r.rng.Intn(span+1))
	if r.rng.Intn(2) == 0 {
		delta = -delta
	}
	next := target + delta
	if next < 0 {
		next = 0
	}
	return next
}
