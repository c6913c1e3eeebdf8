package model

import (
	"bytes"
	"encoding/json"
	"strings"
)

// AlertType identifies which backend action produced an alert.
type AlertType string

const (
	AlertTypeReport AlertType = "report"
	AlertTypeSigma  AlertType = "sigma"
	AlertTypeThreat AlertType = "threat"
)

// Known reports whether t is one of the alert categories the backend issues.
func (t AlertType) Known() bool {
	switch t {
	case AlertTypeReport, AlertTypeSigma, AlertTypeThreat:
		return true
	}
	return false
}

// Title returns the short heading shown for alerts of this type.
func (t AlertType) Title() string {
	switch t {
	case AlertTypeReport:
		return "New report"
	case AlertTypeSigma:
		return "New Sigma rule"
	case AlertTypeThreat:
		return "New threat"
	default:
		return "Notification"
	}
}

// AlertID is the opaque backend identifier of an alert in canonical text form.
type AlertID string

// ParseAlertID converts a raw JSON id (number or string) into its
// canonical form. It reports false for null, empty, or non-scalar ids.
func ParseAlertID(raw json.RawMessage) (AlertID, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", false
	}

	var n json.Number
	if raw[0] != '"' {
		if err := json.Unmarshal(raw, &n); err != nil {
			return "", false
		}
		return AlertID(n.String()), true
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	return AlertID(s), true
}

// UnmarshalJSON accepts numeric and string ids. Unusable ids decode to
// the empty id.
func (id *AlertID) UnmarshalJSON(data []byte) error {
	*id, _ = ParseAlertID(data)
	return nil
}

// ViewedAlertSet is the ordered, duplicate-free list of alert ids that
// have already been surfaced or dismissed.
type ViewedAlertSet []AlertID

// Contains reports whether id is in the set.
func (s ViewedAlertSet) Contains(id AlertID) bool {
	for _, v := range s {
		if v == id {
			return true
		}
	}
	return false
}

// Alert is a backend-issued event record. Alerts are never mutated client-side.
type Alert struct {
	// ID uniquely identifies the alert. Never empty once decoded.
	ID AlertID `json:"id"`

	// Type is the category of the originating action.
	Type AlertType `json:"type"`

	// Message is the display text.
	Message string `json:"message"`

	// Username is the actor that triggered the alert.
	Username string `json:"username"`

	// CreatedAt is when the backend issued the alert. Zero when absent.
	CreatedAt Timestamp `json:"created_at"`
}

// NotificationToast is the in-memory projection of an admitted alert.
type NotificationToast struct {
	ID       AlertID   `json:"id"`
	Type     AlertType `json:"type"`
	Message  string    `json:"message"`
	Username string    `json:"username"`
}

// ToastFromAlert projects an alert into a toast.
func ToastFromAlert(a Alert) NotificationToast {
	return NotificationToast{
		ID:       a.ID,
		Type:     a.Type,
		Message:  a.Message,
		Username: a.Username,
	}
}
