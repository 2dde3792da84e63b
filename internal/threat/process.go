package threat

import (
	"strings"

	"github.com/threat-view/dashboard-service/internal/upstream"
)

// DisplayData is the derived dashboard view-model. It is recomputed in full
// on every fetch cycle and never persisted.
type DisplayData struct {
	TotalThreats     int                     `json:"totalThreats"`
	ActiveThreats    int                     `json:"activeThreats"`
	SeverityCounts   map[string]int          `json:"severityCounts"`
	TopCountries     []upstream.CountryCount `json:"topCountries"`
	AttacksByCountry []upstream.MapPoint     `json:"attacksByCountry"`
	TrendingMalware  []string                `json:"trendingMalware"`
	MalwareTrend     []upstream.TrendPoint   `json:"malwareTrend"`
	PhishingActivity []upstream.TrendPoint   `json:"phishingActivity"`
	PhishingURLs     int                     `json:"phishingUrls"`
}

// Payloads carries the six raw fetch results into the aggregation.
type Payloads struct {
	AllThreats    []upstream.Indicator
	MalwareTrend  []upstream.TrendPoint
	PhishingTrend []upstream.TrendPoint
	TopCountries  []upstream.CountryCount
	MapData       []upstream.MapPoint
	Families      []upstream.MalwareFamily
}

// placeholderCountry guarantees downstream renderers never receive an empty
// country ranking.
var placeholderCountry = upstream.CountryCount{Country: "—", Count: 0}

// ProcessDashboardData derives the dashboard view-model from the raw
// payloads. Pure: no I/O, no store mutation.
//
// ActiveThreats counts severities High and Critical exactly as spelled;
// PhishingURLs matches the indicator type case-insensitively. Both are
// computed in a single pass over the indicator list.
func ProcessDashboardData(p Payloads) *DisplayData {
	activeThreats := 0
	phishingURLs := 0
	severityCounts := make(map[string]int)

	for _, t := range p.AllThreats {
		if t.Severity == "High" || t.Severity == "Critical" {
			activeThreats++
		}
		if strings.ToLower(t.Type) == "url" {
			phishingURLs++
		}

		severity := t.Severity
		if severity == "" {
			severity = "Unknown"
		}
		severityCounts[severity]++
	}

	topCountries := p.TopCountries
	if len(topCountries) == 0 {
		topCountries = []upstream.CountryCount{placeholderCountry}
	}

	trendingMalware := make([]string, 0, len(p.Families))
	for _, f := range p.Families {
		trendingMalware = append(trendingMalware, f.ID)
	}

	return &DisplayData{
		TotalThreats:     len(p.AllThreats),
		ActiveThreats:    activeThreats,
		SeverityCounts:   severityCounts,
		TopCountries:     topCountries,
		AttacksByCountry: p.MapData,
		TrendingMalware:  trendingMalware,
		MalwareTrend:     p.MalwareTrend,
		PhishingActivity: p.PhishingTrend,
		PhishingURLs:     phishingURLs,
	}
}
