package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/threat-console/internal/theme"
)

const (
	// SidebarWidth is the fixed width of the navigation column.
	SidebarWidth = 28

	// ToastColumnWidth is the width of the toast stack when toasts are up.
	ToastColumnWidth = 38
)

// Layout manages the multi-panel terminal layout dimensions.
type Layout struct {
	Width           int
	Height          int
	HeaderHeight    int
	StatusBarHeight int
	ShowSidebar     bool
	ShowToasts      bool
}

// NewLayout creates a Layout with the given terminal dimensions.
// HeaderHeight and StatusBarHeight default to 1.
func NewLayout(width, height int) Layout {
	return Layout{
		Width:           width,
		Height:          height,
		HeaderHeight:    1,
		StatusBarHeight: 1,
	}
}

// ContentWidth returns the width left for the active view once the
// sidebar and toast column are accounted for.
func (l Layout) ContentWidth() int {
	w := l.Width
	if l.ShowSidebar {
		w -= SidebarWidth
	}
	if l.ShowToasts {
		w -= ToastColumnWidth
	}
	if w < 20 {
		w = 20
	}
	return w
}

// ContentHeight returns the height available for the main content area,
// accounting for the header and status bar.
func (l Layout) ContentHeight() int {
	return l.Height - l.HeaderHeight - l.StatusBarHeight
}

// RenderHeader renders the top header bar with a title and a right-aligned
// status.
func (l Layout) RenderHeader(title string, status string) string {
	titleRendered := theme.HeaderStyle.Render(title)

	statusRendered := theme.HeaderStyle.
		Align(lipgloss.Right).
		Render(status)

	gap := l.Width -
		lipgloss.Width(titleRendered) -
		lipgloss.Width(statusRendered)
	if gap < 0 {
		gap = 0
	}

	filler := theme.HeaderStyle.Render(
		lipgloss.NewStyle().
			Width(gap).
			Background(theme.HeaderStyle.GetBackground()).
			Render(""),
	)

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		titleRendered,
		filler,
		statusRendered,
	)
}

// RenderStatusBar renders the bottom status bar. When isError is set the
// bar switches to the error style.
func (l Layout) RenderStatusBar(hints string, isError bool) string {
	style := theme.StatusBarStyle
	if isError {
		style = theme.ErrorBarStyle
	}
	rendered := style.Render(hints)

	gap := l.Width - lipgloss.Width(rendered)
	if gap < 0 {
		gap = 0
	}

	filler := style.Render(
		lipgloss.NewStyle().
			Width(gap).
			Background(style.GetBackground()).
			Render(""),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, rendered, filler)
}

// RenderBody places the sidebar, the active view and the toast stack side
// by side. Empty sidebar or toasts are left out.
func (l Layout) RenderBody(sidebar, content, toasts string) string {
	h := l.ContentHeight()
	cols := make([]string, 0, 3)
	if l.ShowSidebar && sidebar != "" {
		cols = append(cols, lipgloss.NewStyle().
			Width(SidebarWidth).
			Height(h).
			MaxHeight(h).
			Render(sidebar))
	}
	cols = append(cols, lipgloss.NewStyle().
		Width(l.ContentWidth()).
		Height(h).
		MaxHeight(h).
		Render(content))
	if l.ShowToasts && toasts != "" {
		cols = append(cols, lipgloss.NewStyle().
			Width(ToastColumnWidth).
			MaxHeight(h).
			Render(toasts))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cols...)
}

// RenderWithFrame composes a full terminal view by vertically joining
// the header, content area, and status bar.
func (l Layout) RenderWithFrame(
	header string,
	content string,
	statusBar string,
) string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		content,
		statusBar,
	)
}
