package api

import (
	"context"
	"fmt"

	"github.com/nhle/threat-console/internal/model"
)

// NewMalware is the body of a threat creation request.
type NewMalware struct {
	Name         string   `json:"name"`
	Type         string   `json:"type,omitempty"`
	Family       string   `json:"family,omitempty"`
	Description  string   `json:"description,omitempty"`
	FirstSeen    string   `json:"first_seen,omitempty"`
	LastSeen     string   `json:"last_seen,omitempty"`
	Hashes       []string `json:"hashes,omitempty"`
	Capabilities []string `json:"capabilities,omitempty"`
	Sources      []string `json:"sources,omitempty"`
}

// Reports lists reports, newest first, optionally filtered by title.
func (c *Client) Reports(ctx context.Context, q string) ([]model.Report, error) {
	var out []model.Report
	if err := c.get(ctx, "/api/reports", map[string]string{"q": q}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Report fetches a single report including its linked threat names.
func (c *Client) Report(ctx context.Context, id int64) (model.Report, error) {
	var out model.Report
	err := c.get(ctx, fmt.Sprintf("/api/reports/%d", id), nil, &out)
	return out, err
}

// CreateReport submits a new report. The backend issues a "report" alert.
func (c *Client) CreateReport(ctx context.Context, r model.NewReport) (model.Report, error) {
	if r.Title == "" {
		return model.Report{}, fmt.Errorf("report title is required")
	}
	var out model.Report
	err := c.post(ctx, "/api/reports", r, &out)
	return out, err
}

// UpdateReportStatus changes a report's workflow status.
func (c *Client) UpdateReportStatus(ctx context.Context, id int64, status string) (model.Report, error) {
	var out model.Report
	err := c.patch(ctx, fmt.Sprintf("/api/reports/%d", id), map[string]string{"status": status}, &out)
	return out, err
}

// DeleteReport removes a report.
func (c *Client) DeleteReport(ctx context.Context, id int64) error {
	return c.delete(ctx, fmt.Sprintf("/api/reports/%d", id))
}

// Malware lists threat records, newest first, optionally filtered by name.
func (c *Client) Malware(ctx context.Context, q string) ([]model.Malware, error) {
	var out []model.Malware
	if err := c.get(ctx, "/api/malware", map[string]string{"q": q}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MalwareByID fetches a single threat record.
func (c *Client) MalwareByID(ctx context.Context, id int64) (model.Malware, error) {
	var out model.Malware
	err := c.get(ctx, fmt.Sprintf("/api/malware/%d", id), nil, &out)
	return out, err
}

// CreateMalware submits a new threat record. The backend issues a
// "threat" alert.
func (c *Client) CreateMalware(ctx context.Context, m NewMalware) (model.Malware, error) {
	if m.Name == "" {
		return model.Malware{}, fmt.Errorf("threat name is required")
	}
	var out model.Malware
	err := c.post(ctx, "/api/malware", m, &out)
	return out, err
}
