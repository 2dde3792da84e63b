package upstream

import (
	"context"
	"net/http"
)

// ReportClient talks to the report endpoints of the backend.
type ReportClient struct {
	client  *Client
	baseURL string
}

// NewReportClient creates a report client rooted at baseURL (e.g.
// ".../api/reports").
func NewReportClient(client *Client, baseURL string) *ReportClient {
	return &ReportClient{client: client, baseURL: baseURL}
}

// List returns the previously generated reports.
func (r *ReportClient) List(ctx context.Context) (*ReportList, error) {
	var out ReportList
	if err := r.client.get(ctx, r.baseURL, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Generate asks the backend to build a new intelligence report.
func (r *ReportClient) Generate(ctx context.Context) (*ReportAck, error) {
	var out ReportAck
	if err := r.client.get(ctx, r.baseURL+"/generate", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Export downloads a rendered report. The bytes and content type are
// returned verbatim for streaming to the caller.
func (r *ReportClient) Export(ctx context.Context, id string) ([]byte, string, error) {
	return r.client.getRaw(ctx, r.baseURL+"/export/"+id)
}

// Delete removes a report.
func (r *ReportClient) Delete(ctx context.Context, id string) (*ReportAck, error) {
	var out ReportAck
	if err := r.client.do(ctx, http.MethodDelete, r.baseURL+"/delete/"+id, "", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
