// Package alerts is the full alert feed view.
package alerts

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/threat-console/internal/keys"
	"github.com/nhle/threat-console/internal/model"
	"github.com/nhle/threat-console/internal/theme"
)

// SelectedMsg is sent when the user opens an alert, which marks it read.
type SelectedMsg struct {
	ID model.AlertID
}

// DeleteMsg asks the root model to delete an alert on the backend.
type DeleteMsg struct {
	ID model.AlertID
}

// Model lists the latest alerts, newest first.
type Model struct {
	list      list.Model
	keys      *keys.KeyMap
	canDelete bool
	loaded    bool
	width     int
	height    int
}

// New creates the alert feed view.
func New(k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, Delegate{}, width, height)
	l.Title = "Alerts"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle
	l.SetStatusBarItemName("alert", "alerts")

	return Model{
		list:   l,
		keys:   k,
		width:  width,
		height: height,
	}
}

// SetAlerts replaces the feed. Alerts outside viewed are flagged unread.
// It returns the number of unread alerts.
func (m *Model) SetAlerts(feed []model.Alert, viewed model.ViewedAlertSet) (tea.Cmd, int) {
	unread := 0
	items := make([]list.Item, len(feed))
	for i, a := range feed {
		it := Item{Alert: a, Unread: !viewed.Contains(a.ID)}
		if it.Unread {
			unread++
		}
		items[i] = it
	}
	m.loaded = true
	return m.list.SetItems(items), unread
}

// Alerts returns the alerts currently listed.
func (m Model) Alerts() []model.Alert {
	items := m.list.Items()
	out := make([]model.Alert, 0, len(items))
	for _, it := range items {
		if a, ok := it.(Item); ok {
			out = append(out, a.Alert)
		}
	}
	return out
}

// SetCanDelete enables the delete key, which only admins may use.
func (m *Model) SetCanDelete(ok bool) { m.canDelete = ok }

// Update handles messages for the alert feed.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Select):
			it, ok := m.list.SelectedItem().(Item)
			if !ok {
				return m, nil
			}
			return m, func() tea.Msg { return SelectedMsg{ID: it.Alert.ID} }

		case key.Matches(msg, m.keys.Delete):
			it, ok := m.list.SelectedItem().(Item)
			if !ok || !m.canDelete {
				return m, nil
			}
			return m, func() tea.Msg { return DeleteMsg{ID: it.Alert.ID} }
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the alert feed.
func (m Model) View() string {
	if len(m.list.Items()) == 0 {
		text := "Loading alerts..."
		if m.loaded {
			text = "No alerts yet."
		}
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render(text)
	}
	return m.list.View()
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height)
}
