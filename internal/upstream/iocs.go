package upstream

import (
	"context"
	"net/url"
)

// IoCClient talks to the free-text IoC search endpoint of the backend.
type IoCClient struct {
	client  *Client
	baseURL string
}

// NewIoCClient creates an IoC search client rooted at baseURL (e.g.
// ".../api/iocs").
func NewIoCClient(client *Client, baseURL string) *IoCClient {
	return &IoCClient{client: client, baseURL: baseURL}
}

// Search runs a free-text indicator search. Matching semantics are owned by
// the backend.
func (i *IoCClient) Search(ctx context.Context, query string) ([]Indicator, error) {
	var out []Indicator
	u := i.baseURL + "/search?q=" + url.QueryEscape(query)
	if err := i.client.get(ctx, u, &out); err != nil {
		return nil, err
	}
	return out, nil
}
