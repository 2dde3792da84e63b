// Package threat owns the fetched raw indicator list and the derived
// dashboard view-model. One fetch cycle replaces both wholesale; a partial
// result is never displayed.
package threat

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/threat-view/dashboard-service/internal/metrics"
	"github.com/threat-view/dashboard-service/internal/upstream"
)

// Feed is the slice of the upstream threat API the store depends on.
type Feed interface {
	Indicators(ctx context.Context) ([]upstream.Indicator, error)
	MalwareTrends(ctx context.Context) ([]upstream.TrendPoint, error)
	PhishingTrends(ctx context.Context) ([]upstream.TrendPoint, error)
	TopCountries(ctx context.Context) ([]upstream.CountryCount, error)
	MapData(ctx context.Context) ([]upstream.MapPoint, error)
	MalwareFamilies(ctx context.Context) ([]upstream.MalwareFamily, error)
}

// Snapshot is a read-only copy of the store state. The three observable
// conditions are encoded by the field combination: never loaded or failed
// (nil DisplayData, empty IoCs, not loading), loading, and loaded.
type Snapshot struct {
	DisplayData *DisplayData         `json:"displayData"`
	IoCs        []upstream.Indicator `json:"iocs"`
	Loading     bool                 `json:"loading"`
}

// Store fetches raw threat data and merges it into the view-model.
type Store struct {
	mu          sync.RWMutex
	displayData *DisplayData
	iocs        []upstream.Indicator
	loading     bool

	feed      Feed
	logger    *zap.Logger
	collector *metrics.Collector
}

// NewStore creates an empty threat store.
func NewStore(feed Feed, collector *metrics.Collector, logger *zap.Logger) *Store {
	return &Store{
		feed:      feed,
		logger:    logger,
		collector: collector,
	}
}

// FetchAllThreats issues the six feed requests concurrently and waits for
// all of them together. The join is all-or-nothing: if any request fails
// the whole cycle fails, the indicator list and view-model are cleared and
// the error is logged, not returned; callers observe only the resulting
// state. There is no timeout beyond what ctx carries; a stalled request
// stalls the loading flag.
func (s *Store) FetchAllThreats(ctx context.Context) {
	s.setLoading(true)
	start := time.Now()

	var p Payloads
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		p.AllThreats, err = s.feed.Indicators(gctx)
		return err
	})
	g.Go(func() (err error) {
		p.MalwareTrend, err = s.feed.MalwareTrends(gctx)
		return err
	})
	g.Go(func() (err error) {
		p.PhishingTrend, err = s.feed.PhishingTrends(gctx)
		return err
	})
	g.Go(func() (err error) {
		p.TopCountries, err = s.feed.TopCountries(gctx)
		return err
	})
	g.Go(func() (err error) {
		p.MapData, err = s.feed.MapData(gctx)
		return err
	})
	g.Go(func() (err error) {
		p.Families, err = s.feed.MalwareFamilies(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		s.mu.Lock()
		s.iocs = nil
		s.displayData = nil
		s.loading = false
		s.mu.Unlock()

		s.collector.ObserveFetch(time.Since(start), false)
		s.logger.Error("threat fetch cycle failed", zap.Error(err))
		return
	}

	display := ProcessDashboardData(p)

	s.mu.Lock()
	s.iocs = p.AllThreats
	s.displayData = display
	s.loading = false
	s.mu.Unlock()

	s.collector.ObserveFetch(time.Since(start), true)
	s.logger.Info("threat fetch cycle completed",
		zap.Int("indicators", len(p.AllThreats)),
		zap.Int("active_threats", display.ActiveThreats),
		zap.Duration("duration", time.Since(start)))
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	iocs := make([]upstream.Indicator, len(s.iocs))
	copy(iocs, s.iocs)

	var display *DisplayData
	if s.displayData != nil {
		d := *s.displayData
		display = &d
	}
	return Snapshot{DisplayData: display, IoCs: iocs, Loading: s.loading}
}

func (s *Store) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}
