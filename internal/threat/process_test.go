package threat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/threat-view/dashboard-service/internal/upstream"
)

func indicators() []upstream.Indicator {
	return []upstream.Indicator{
		{ID: "1", Type: "ip", Severity: "High"},
		{ID: "2", Type: "URL", Severity: "Critical"},
		{ID: "3", Type: "url", Severity: "Low"},
		{ID: "4", Type: "domain", Severity: "Medium"},
		{ID: "5", Type: "hash", Severity: ""},
		{ID: "6", Type: "ip", Severity: "high"}, // lowercase: not active
	}
}

func TestProcessDashboardData_ActiveThreatsIsCaseSensitive(t *testing.T) {
	d := ProcessDashboardData(Payloads{AllThreats: indicators()})

	assert.Equal(t, 6, d.TotalThreats)
	// Only "High" and "Critical" exactly as spelled count as active.
	assert.Equal(t, 2, d.ActiveThreats)
}

func TestProcessDashboardData_PhishingURLsIsCaseInsensitive(t *testing.T) {
	d := ProcessDashboardData(Payloads{AllThreats: indicators()})

	assert.Equal(t, 2, d.PhishingURLs)
}

func TestProcessDashboardData_SeverityCountsBucketEmptyAsUnknown(t *testing.T) {
	d := ProcessDashboardData(Payloads{AllThreats: indicators()})

	assert.Equal(t, map[string]int{
		"High":     1,
		"Critical": 1,
		"Low":      1,
		"Medium":   1,
		"Unknown":  1,
		"high":     1,
	}, d.SeverityCounts)
}

func TestProcessDashboardData_EmptyTopCountriesGetsPlaceholder(t *testing.T) {
	d := ProcessDashboardData(Payloads{TopCountries: nil})

	require.Len(t, d.TopCountries, 1)
	assert.Equal(t, upstream.CountryCount{Country: "—", Count: 0}, d.TopCountries[0])
}

func TestProcessDashboardData_NonEmptyTopCountriesPassThrough(t *testing.T) {
	ranking := []upstream.CountryCount{
		{Country: "Russia", Count: 320},
		{Country: "China", Count: 280},
	}
	d := ProcessDashboardData(Payloads{TopCountries: ranking})

	assert.Equal(t, ranking, d.TopCountries)
}

func TestProcessDashboardData_TrendingMalwareFromFamilyIDs(t *testing.T) {
	d := ProcessDashboardData(Payloads{
		Families: []upstream.MalwareFamily{{ID: "Emotet"}, {ID: "TrickBot"}, {ID: "Ryuk"}},
	})

	assert.Equal(t, []string{"Emotet", "TrickBot", "Ryuk"}, d.TrendingMalware)
}

func TestProcessDashboardData_TrendsAndMapPassThrough(t *testing.T) {
	malware := []upstream.TrendPoint{{Date: "2024-01-07", Count: 120}}
	phishing := []upstream.TrendPoint{{Date: "2024-01-07", Count: 80}}
	mapData := []upstream.MapPoint{{Country: "Russia", Latitude: 61.524, Longitude: 105.3188, Value: 320}}

	d := ProcessDashboardData(Payloads{
		MalwareTrend:  malware,
		PhishingTrend: phishing,
		MapData:       mapData,
	})

	assert.Equal(t, malware, d.MalwareTrend)
	assert.Equal(t, phishing, d.PhishingActivity)
	assert.Equal(t, mapData, d.AttacksByCountry)
}

func TestProcessDashboardData_EmptyInputs(t *testing.T) {
	d := ProcessDashboardData(Payloads{})

	assert.Equal(t, 0, d.TotalThreats)
	assert.Equal(t, 0, d.ActiveThreats)
	assert.Equal(t, 0, d.PhishingURLs)
	assert.Empty(t, d.SeverityCounts)
	assert.Empty(t, d.TrendingMalware)
}
