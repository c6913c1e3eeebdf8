package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAlertID(t *testing.T) {
	tests := []struct {
		raw    string
		want   AlertID
		wantOK bool
	}{
		{raw: `42`, want: "42", wantOK: true},
		{raw: `"42"`, want: "42", wantOK: true},
		{raw: `" abc "`, want: "abc", wantOK: true},
		{raw: `1e3`, want: "1e3", wantOK: true},
		{raw: `null`},
		{raw: `""`},
		{raw: `"   "`},
		{raw: ``},
		{raw: `{"id":1}`},
		{raw: `[1]`},
		{raw: `true`},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := ParseAlertID(json.RawMessage(tt.raw))
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAlert_UnmarshalMixedIDs(t *testing.T) {
	var alerts []Alert
	body := `[
		{"id": 3, "type": "sigma", "message": "rule", "username": "ana", "created_at": "2024-05-01T10:00:00"},
		{"id": "2", "type": "report"},
		{"id": null, "type": "threat"}
	]`
	require.NoError(t, json.Unmarshal([]byte(body), &alerts))
	require.Len(t, alerts, 3)

	assert.Equal(t, AlertID("3"), alerts[0].ID)
	assert.Equal(t, AlertTypeSigma, alerts[0].Type)
	assert.Equal(t, 2024, alerts[0].CreatedAt.Year())
	assert.Equal(t, AlertID("2"), alerts[1].ID)
	assert.True(t, alerts[1].CreatedAt.IsZero())
	assert.Equal(t, AlertID(""), alerts[2].ID)
}

func TestAlertType_TitleAndKnown(t *testing.T) {
	assert.Equal(t, "New report", AlertTypeReport.Title())
	assert.Equal(t, "New Sigma rule", AlertTypeSigma.Title())
	assert.Equal(t, "New threat", AlertTypeThreat.Title())
	assert.Equal(t, "Notification", AlertType("login").Title())

	assert.True(t, AlertTypeThreat.Known())
	assert.False(t, AlertType("login").Known())
	assert.False(t, AlertType("").Known())
}

func TestViewedAlertSet_Contains(t *testing.T) {
	s := ViewedAlertSet{"1", "7"}
	assert.True(t, s.Contains("7"))
	assert.False(t, s.Contains("70"))
	assert.False(t, ViewedAlertSet(nil).Contains("1"))
}

func TestToastFromAlert(t *testing.T) {
	a := Alert{ID: "9", Type: AlertTypeThreat, Message: "Emotet", Username: "bo"}
	assert.Equal(t, NotificationToast{ID: "9", Type: AlertTypeThreat, Message: "Emotet", Username: "bo"}, ToastFromAlert(a))
}
