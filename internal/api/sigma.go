package api

import (
	"context"
	"fmt"
	"strings"

	"github.com/nhle/threat-console/internal/model"
)

// NewSigmaRule is the body of a rule upload.
type NewSigmaRule struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Filename    string `json:"filename,omitempty"`
	Content     string `json:"content"`
}

// SigmaRules lists rules, newest first, optionally filtered by name.
func (c *Client) SigmaRules(ctx context.Context, q string) ([]model.SigmaRule, error) {
	var out []model.SigmaRule
	if err := c.get(ctx, "/api/sigma-rules", map[string]string{"q": q}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SigmaRule fetches one rule with its YAML content.
func (c *Client) SigmaRule(ctx context.Context, id int64) (model.SigmaRule, error) {
	var out model.SigmaRule
	err := c.get(ctx, fmt.Sprintf("/api/sigma-rules/%d", id), nil, &out)
	return out, err
}

// CreateSigmaRule uploads a rule. The backend issues a "sigma" alert.
func (c *Client) CreateSigmaRule(ctx context.Context, r NewSigmaRule) (model.SigmaRule, error) {
	r.Name = strings.TrimSpace(r.Name)
	r.Content = strings.TrimSpace(r.Content)
	if r.Name == "" || r.Content == "" {
		return model.SigmaRule{}, fmt.Errorf("rule name and content are required")
	}
	var out model.SigmaRule
	err := c.post(ctx, "/api/sigma-rules", r, &out)
	return out, err
}

// DeleteSigmaRule removes a rule.
func (c *Client) DeleteSigmaRule(ctx context.Context, id int64) error {
	return c.delete(ctx, fmt.Sprintf("/api/sigma-rules/%d", id))
}
