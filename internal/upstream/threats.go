package upstream

import "context"

// ThreatClient talks to the threat-feed endpoints of the backend.
type ThreatClient struct {
	client  *Client
	baseURL string
}

// NewThreatClient creates a threat client rooted at baseURL (e.g.
// ".../api/threats").
func NewThreatClient(client *Client, baseURL string) *ThreatClient {
	return &ThreatClient{client: client, baseURL: baseURL}
}

// Indicators returns the full raw indicator list.
func (t *ThreatClient) Indicators(ctx context.Context) ([]Indicator, error) {
	var out []Indicator
	if err := t.client.get(ctx, t.baseURL, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MalwareTrends returns the dated malware activity series.
func (t *ThreatClient) MalwareTrends(ctx context.Context) ([]TrendPoint, error) {
	var out []TrendPoint
	if err := t.client.get(ctx, t.baseURL+"/malware-trends", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PhishingTrends returns the dated phishing activity series.
func (t *ThreatClient) PhishingTrends(ctx context.Context) ([]TrendPoint, error) {
	var out []TrendPoint
	if err := t.client.get(ctx, t.baseURL+"/phishing-trends", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// TopCountries returns the per-country attack ranking.
func (t *ThreatClient) TopCountries(ctx context.Context) ([]CountryCount, error) {
	var out []CountryCount
	if err := t.client.get(ctx, t.baseURL+"/top-countries", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MapData returns the geolocated attack aggregates for the world map.
func (t *ThreatClient) MapData(ctx context.Context) ([]MapPoint, error) {
	var out []MapPoint
	if err := t.client.get(ctx, t.baseURL+"/map-data", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MalwareFamilies returns the trending malware family buckets.
func (t *ThreatClient) MalwareFamilies(ctx context.Context) ([]MalwareFamily, error) {
	var out []MalwareFamily
	if err := t.client.get(ctx, t.baseURL+"/malware-families", &out); err != nil {
		return nil, err
	}
	return out, nil
}
