package realtime

import (
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type captureBroadcaster struct {
	mu     sync.Mutex
	frames []Message
}

func (c *captureBroadcaster) Broadcast(msg Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, msg)
}

func (c *captureBroadcaster) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.frames)
}

func (c *captureBroadcaster) last() Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frames[len(c.frames)-1]
}

func newTestRunner(cfg RunnerConfig) (*Runner, *captureBroadcaster, *ManualTicker) {
	sink := &captureBroadcaster{}
	ticker := NewManualTicker()
	rng := rand.New(rand.NewSource(1))
	return NewRunner(sink, ticker, cfg, rng, zap.NewNop()), sink, ticker
}

func TestRunnerJitter(t *testing.T) {
	t.Run("targets stay within the configured nudge and never go negative", func(t *testing.T) {
		cfg := DefaultRunnerConfig()
		cfg.JitterMin = 1
		cfg.JitterMax = 5
		r, _, _ := newTestRunner(cfg)

		now := time.Now()
		r.SetBaseline(100, 2, 5, 5, now)

		for i := 1; i <= 50; i++ {
			now = now.Add(cfg.JitterInterval)
			before := r.active.Target()
			r.Step(now)
			after := r.active.Target()

			diff := after - before
			if diff < 0 {
				diff = -diff
			}
			if before == 0 && after == 0 {
				// A negative nudge was clamped at the floor.
				continue
			}
			assert.GreaterOrEqual(t, diff, float64(cfg.JitterMin))
			assert.LessOrEqual(t, diff, float64(cfg.JitterMax))
			assert.GreaterOrEqual(t, after, float64(0))
		}
	})

	t.Run("no jitter before the interval elapses", func(t *testing.T) {
		cfg := DefaultRunnerConfig()
		r, _, _ := newTestRunner(cfg)

		now := time.Now()
		r.SetBaseline(100, 40, 5, 5, now)

		r.Step(now.Add(cfg.JitterInterval / 2))
		assert.InDelta(t, 100, r.total.Target(), 0.001)
		assert.InDelta(t, 40, r.active.Target(), 0.001)
	})

	t.Run("clamped targets cannot drop below zero", func(t *testing.T) {
		cfg := DefaultRunnerConfig()
		cfg.JitterMin = 5
		cfg.JitterMax = 5
		r, _, _ := newTestRunner(cfg)

		now := time.Now()
		r.SetBaseline(0, 0, 0, 0, now)

		for i := 1; i <= 20; i++ {
			now = now.Add(cfg.JitterInterval)
			r.Step(now)
			assert.GreaterOrEqual(t, r.total.Target(), float64(0))
			assert.GreaterOrEqual(t, r.active.Target(), float64(0))
		}
	})
}

func TestRunnerBroadcast(t *testing.T) {
	t.Run("every Nth tick emits a frame", func(t *testing.T) {
		cfg := DefaultRunnerConfig()
		cfg.BroadcastEvery = 3
		r, sink, _ := newTestRunner(cfg)

		now := time.Now()
		for i := 0; i < 9; i++ {
			now = now.Add(50 * time.Millisecond)
			r.Step(now)
		}
		assert.Equal(t, 3, sink.count())
	})

	t.Run("frames carry rounded counter values", func(t *testing.T) {
		cfg := DefaultRunnerConfig()
		r, sink, _ := newTestRunner(cfg)

		now := time.Now()
		r.SetBaseline(200, 50, 5, 5, now)
		r.Step(now.Add(cfg.CounterDuration))

		require.Equal(t, 1, sink.count())
		frame, ok := sink.last().Payload.(Stats)
		require.True(t, ok)
		assert.Equal(t, MessageTypeStats, sink.last().Type)
		assert.Equal(t, 200, frame.TotalThreats)
		assert.Equal(t, 50, frame.ActiveThreats)
		assert.Equal(t, 5, frame.TopCountries)
		assert.Equal(t, 5, frame.TrendingMalware)
	})

	t.Run("run loop consumes ticks and stops cleanly", func(t *testing.T) {
		cfg := DefaultRunnerConfig()
		r, sink, ticker := newTestRunner(cfg)

		done := make(chan struct{})
		go func() {
			r.Run()
			close(done)
		}()

		now := time.Now()
		ticker.Tick(now.Add(50 * time.Millisecond))
		ticker.Tick(now.Add(100 * time.Millisecond))

		r.Stop()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("run loop did not stop")
		}
		assert.Equal(t, 2, sink.count())

		// Stop is idempotent.
		r.Stop()
	})
}

func TestPulse(t *testing.T) {
	t.Run("phase stays within the unit interval", func(t *testing.T) {
		epoch := time.Now()
		p := NewPulse(epoch, 2*time.Second, 100*time.Millisecond)
		for i := 0; i < 100; i++ {
			phase := p.PhaseAt(epoch.Add(time.Duration(i) * 37 * time.Millisecond))
			assert.GreaterOrEqual(t, phase, float64(0))
			assert.LessOrEqual(t, phase, float64(1))
		}
	})

	t.Run("visible value is throttled to the step", func(t *testing.T) {
		epoch := time.Now()
		p := NewPulse(epoch, 2*time.Second, 100*time.Millisecond)

		first := p.VisibleAt(epoch.Add(100 * time.Millisecond))
		held := p.VisibleAt(epoch.Add(150 * time.Millisecond))
		assert.Equal(t, first, held)

		advanced := p.VisibleAt(epoch.Add(210 * time.Millisecond))
		assert.NotEqual(t, first, advanced)
	})
}
