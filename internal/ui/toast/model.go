// Package toast renders the stack of active notification toasts.
package toast

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/threat-console/internal/model"
	"github.com/nhle/threat-console/internal/theme"
)

// Model renders a snapshot of the toast queue. It holds no timers; the
// queue decides when toasts leave.
type Model struct {
	toasts []model.NotificationToast
	width  int
}

// New creates a toast stack of the given width.
func New(width int) Model {
	return Model{width: width}
}

// SetToasts replaces the snapshot, newest first.
func (m *Model) SetToasts(t []model.NotificationToast) { m.toasts = t }

// Len returns the number of visible toasts.
func (m Model) Len() int { return len(m.toasts) }

// SetWidth updates the stack width.
func (m *Model) SetWidth(w int) { m.width = w }

// View renders the toasts top to bottom, newest first. It is empty when
// no toast is up.
func (m Model) View() string {
	if len(m.toasts) == 0 {
		return ""
	}

	boxes := make([]string, 0, len(m.toasts))
	for i, t := range m.toasts {
		boxes = append(boxes, m.renderToast(t, i == 0))
	}
	return lipgloss.JoinVertical(lipgloss.Left, boxes...)
}

func (m Model) renderToast(t model.NotificationToast, newest bool) string {
	accent := theme.AlertTypeColor(string(t.Type))

	lines := []string{
		lipgloss.NewStyle().Bold(true).Foreground(accent).Render(t.Type.Title()),
		t.Message,
	}
	if t.Username != "" {
		lines = append(lines, theme.DimmedStyle.Render("by "+t.Username))
	}
	if newest {
		lines = append(lines, theme.HelpStyle.Render("x to dismiss"))
	}

	width := m.width - 4
	if width < 10 {
		width = 10
	}
	return theme.ToastStyle.
		BorderForeground(accent).
		Width(width).
		Render(strings.Join(lines, "\n"))
}
