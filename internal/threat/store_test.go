package threat

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/threat-view/dashboard-service/internal/metrics"
	"github.com/threat-view/dashboard-service/internal/upstream"
)

type fakeFeed struct {
	indicators []upstream.Indicator

	indicatorsErr error
	mapDataErr    error
}

func (f *fakeFeed) Indicators(ctx context.Context) ([]upstream.Indicator, error) {
	return f.indicators, f.indicatorsErr
}

func (f *fakeFeed) MalwareTrends(ctx context.Context) ([]upstream.TrendPoint, error) {
	return []upstream.TrendPoint{{Date: "2024-01-07", Count: 120}}, nil
}

func (f *fakeFeed) PhishingTrends(ctx context.Context) ([]upstream.TrendPoint, error) {
	return []upstream.TrendPoint{{Date: "2024-01-07", Count: 80}}, nil
}

func (f *fakeFeed) TopCountries(ctx context.Context) ([]upstream.CountryCount, error) {
	return []upstream.CountryCount{{Country: "Russia", Count: 320}}, nil
}

func (f *fakeFeed) MapData(ctx context.Context) ([]upstream.MapPoint, error) {
	if f.mapDataErr != nil {
		return nil, f.mapDataErr
	}
	return []upstream.MapPoint{{Country: "Russia", Value: 320}}, nil
}

func (f *fakeFeed) MalwareFamilies(ctx context.Context) ([]upstream.MalwareFamily, error) {
	return []upstream.MalwareFamily{{ID: "Emotet"}}, nil
}

func newTestStore(feed Feed) *Store {
	return NewStore(feed, metrics.NewCollector(), zap.NewNop())
}

func TestFetchAllThreats_Success(t *testing.T) {
	feed := &fakeFeed{indicators: []upstream.Indicator{
		{ID: "1", Type: "url", Severity: "High"},
		{ID: "2", Type: "ip", Severity: "Low"},
	}}
	store := newTestStore(feed)

	store.FetchAllThreats(context.Background())

	snap := store.Snapshot()
	assert.False(t, snap.Loading)
	require.NotNil(t, snap.DisplayData)
	assert.Len(t, snap.IoCs, 2)
	assert.Equal(t, 2, snap.DisplayData.TotalThreats)
	assert.Equal(t, 1, snap.DisplayData.ActiveThreats)
	assert.Equal(t, 1, snap.DisplayData.PhishingURLs)
	assert.Equal(t, []string{"Emotet"}, snap.DisplayData.TrendingMalware)
}

func TestFetchAllThreats_SingleFailureClearsEverything(t *testing.T) {
	feed := &fakeFeed{indicators: []upstream.Indicator{{ID: "1", Severity: "High"}}}
	store := newTestStore(feed)

	// First fill the store with a good cycle, then fail one of six fetches:
	// the previous view must not survive a failed cycle.
	store.FetchAllThreats(context.Background())
	require.NotNil(t, store.Snapshot().DisplayData)

	feed.mapDataErr = errors.New("map-data unavailable")
	store.FetchAllThreats(context.Background())

	snap := store.Snapshot()
	assert.False(t, snap.Loading)
	assert.Nil(t, snap.DisplayData)
	assert.Empty(t, snap.IoCs)
}

func TestFetchAllThreats_ReplacesIndicatorsWholesale(t *testing.T) {
	feed := &fakeFeed{indicators: []upstream.Indicator{{ID: "1"}, {ID: "2"}, {ID: "3"}}}
	store := newTestStore(feed)
	store.FetchAllThreats(context.Background())
	require.Len(t, store.Snapshot().IoCs, 3)

	feed.indicators = []upstream.Indicator{{ID: "9"}}
	store.FetchAllThreats(context.Background())

	snap := store.Snapshot()
	require.Len(t, snap.IoCs, 1)
	assert.Equal(t, "9", snap.IoCs[0].ID)
}

func TestSnapshot_NeverLoadedState(t *testing.T) {
	store := newTestStore(&fakeFeed{})

	snap := store.Snapshot()
	assert.Nil(t, snap.DisplayData)
	assert.Empty(t, snap.IoCs)
	assert.False(t, snap.Loading)
}

func TestSnapshot_ReturnsCopies(t *testing.T) {
	feed := &fakeFeed{indicators: []upstream.Indicator{{ID: "1", Severity: "High"}}}
	store := newTestStore(feed)
	store.FetchAllThreats(context.Background())

	snap := store.Snapshot()
	snap.IoCs[0].ID = "mutated"
	snap.DisplayData.TotalThreats = 99

	fresh := store.Snapshot()
	assert.Equal(t, "1", fresh.IoCs[0].ID)
	assert.Equal(t, 1, fresh.DisplayData.TotalThreats)
}
