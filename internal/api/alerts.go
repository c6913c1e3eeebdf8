package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"go.uber.org/zap"

	"github.com/nhle/threat-console/internal/model"
)

// Alerts fetches the alert feed, newest first. A body that is not a JSON
// array yields an empty feed. Records without a usable id are dropped.
func (c *Client) Alerts(ctx context.Context) ([]model.Alert, error) {
	body, err := c.getRaw(ctx, "/api/alerts")
	if err != nil {
		return nil, err
	}
	return decodeAlerts(body, c.logger), nil
}

func decodeAlerts(body []byte, logger *zap.Logger) []model.Alert {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] != '[' {
		return []model.Alert{}
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		logger.Warn("alert feed is not a valid array", zap.Error(err))
		return []model.Alert{}
	}

	alerts := make([]model.Alert, 0, len(raw))
	for i, r := range raw {
		var a model.Alert
		if err := json.Unmarshal(r, &a); err != nil {
			logger.Warn("skipping malformed alert", zap.Int("index", i), zap.Error(err))
			continue
		}
		if a.ID == "" {
			logger.Warn("skipping alert without id", zap.Int("index", i))
			continue
		}
		alerts = append(alerts, a)
	}
	return alerts
}

// DeleteAlert removes an alert from the backend feed.
func (c *Client) DeleteAlert(ctx context.Context, id model.AlertID) error {
	if id == "" {
		return fmt.Errorf("empty alert id")
	}
	return c.delete(ctx, "/api/alerts/"+url.PathEscape(string(id)))
}
