package alerts

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/threat-console/internal/keys"
	"github.com/nhle/threat-console/internal/model"
)

func feed() []model.Alert {
	return []model.Alert{
		{ID: "3", Type: model.AlertTypeThreat, Message: "Emotet added", Username: "ana"},
		{ID: "2", Type: model.AlertTypeSigma, Message: "Rule uploaded", Username: "bo"},
		{ID: "1", Type: model.AlertTypeReport, Message: "APT report", Username: "ana"},
	}
}

func TestSetAlerts_CountsUnread(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 20)
	_, unread := m.SetAlerts(feed(), model.ViewedAlertSet{"2"})
	assert.Equal(t, 2, unread)
	assert.Len(t, m.Alerts(), 3)
	assert.Contains(t, m.View(), "New threat")
}

func TestUpdate_SelectAndDelete(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 20)
	m.SetAlerts(feed(), nil)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, SelectedMsg{ID: "3"}, cmd())

	d := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("d")}
	_, cmd = m.Update(d)
	assert.Nil(t, cmd)

	m.SetCanDelete(true)
	_, cmd = m.Update(d)
	require.NotNil(t, cmd)
	assert.Equal(t, DeleteMsg{ID: "3"}, cmd())
}

func TestView_EmptyStates(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 40, 10)
	assert.Contains(t, m.View(), "Loading")
	m.SetAlerts(nil, nil)
	assert.Contains(t, m.View(), "No alerts yet.")
}

func TestRelativeTime(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "", relativeTime(time.Time{}, now))
	assert.Equal(t, "just now", relativeTime(now.Add(-10*time.Second), now))
	assert.Equal(t, "5m ago", relativeTime(now.Add(-5*time.Minute), now))
	assert.Equal(t, "3h ago", relativeTime(now.Add(-3*time.Hour), now))
	assert.Equal(t, "2d ago", relativeTime(now.Add(-48*time.Hour), now))
	assert.Equal(t, "Feb 01, 2024", relativeTime(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), now))
}
