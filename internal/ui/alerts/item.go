package alerts

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/threat-console/internal/model"
	"github.com/nhle/threat-console/internal/theme"
)

// Item wraps an alert for the bubbles list.
type Item struct {
	Alert  model.Alert
	Unread bool
}

// FilterValue returns the string used for fuzzy filtering.
func (i Item) FilterValue() string { return i.Alert.Message }

// Title returns the heading for the alert type.
func (i Item) Title() string { return i.Alert.Type.Title() }

// Description returns the alert's actor and age.
func (i Item) Description() string {
	parts := []string{i.Alert.Message}
	if i.Alert.Username != "" {
		parts = append(parts, "by "+i.Alert.Username)
	}
	if age := relativeTime(i.Alert.CreatedAt.Time, time.Now()); age != "" {
		parts = append(parts, age)
	}
	return strings.Join(parts, " | ")
}

// Delegate renders alerts as two-line entries.
type Delegate struct{}

// Height returns the number of lines each item takes.
func (d Delegate) Height() int { return 2 }

// Spacing returns the number of blank lines between items.
func (d Delegate) Spacing() int { return 0 }

// Update handles per-item messages.
func (d Delegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single alert.
func (d Delegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(Item)
	if !ok {
		return
	}

	marker := " "
	if it.Unread {
		marker = theme.AlertTypeStyle(string(it.Alert.Type)).Render("●")
	}
	heading := fmt.Sprintf("%s %s", marker,
		theme.AlertTypeStyle(string(it.Alert.Type)).Render(it.Title()))
	desc := "  " + it.Description()
	if width := m.Width() - 4; width > 1 {
		desc = truncate(desc, width)
	}
	detail := theme.DimmedStyle.Render(desc)

	line := heading + "\n" + detail
	if index == m.Index() {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}
	fmt.Fprint(w, line)
}

// relativeTime formats t relative to now, e.g. "5m ago".
func relativeTime(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}

	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return t.Format("Jan 02, 2006")
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
