package help

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/threat-console/internal/keys"
	"github.com/nhle/threat-console/internal/model"
	"github.com/nhle/threat-console/internal/theme"
	"github.com/nhle/threat-console/internal/ui/command"
)

// Model is the scrollable reference page: key bindings, palette commands
// and how notifications are currently delivered.
type Model struct {
	keys     *keys.KeyMap
	help     help.Model
	viewport viewport.Model
	settings model.NotificationSettings
	interval time.Duration
	width    int
	height   int
}

func New(k *keys.KeyMap, width, height int) Model {
	m := Model{
		keys:     k,
		help:     help.New(),
		viewport: viewport.New(width-6, height-6),
	}
	m.help.ShowAll = true
	m.SetSize(width, height)
	return m
}

// SetNotifications updates the notification section.
func (m *Model) SetNotifications(s model.NotificationSettings, interval time.Duration) {
	m.settings = s
	m.interval = interval
	m.refresh()
}

// Update scrolls the page.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	return theme.PanelStyle.
		Width(m.width - 4).
		Height(m.height - 4).
		Render(m.viewport.View())
}

func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = max(width-6, 10)
	m.viewport.Width = max(width-6, 10)
	m.viewport.Height = max(height-6, 3)
	m.refresh()
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.content())
}

func (m Model) content() string {
	var b strings.Builder

	b.WriteString(theme.TitleStyle.Render("Keyboard shortcuts"))
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	b.WriteString("\n\n")

	b.WriteString(theme.TitleStyle.Render("Commands (press :)"))
	b.WriteString("\n")
	for _, e := range command.Entries {
		fmt.Fprintf(&b, "  %-18s %s\n", e.Usage, theme.DimmedStyle.Render(e.Summary))
	}
	b.WriteString("\n")

	b.WriteString(theme.TitleStyle.Render("Notifications"))
	b.WriteString("\n")
	if m.interval > 0 {
		fmt.Fprintf(&b, "  New alerts are checked every %s; only the newest one can raise a toast.\n", m.interval)
	}
	fmt.Fprintf(&b, "  %-14s %s\n", "Bell", onOff(!m.settings.SilentMode))
	fmt.Fprintf(&b, "  %-14s %s\n", "Threats", shownHidden(m.settings.DisableThreats))
	fmt.Fprintf(&b, "  %-14s %s\n", "Reports", shownHidden(m.settings.DisableReports))
	fmt.Fprintf(&b, "  %-14s %s\n", "Sigma rules", shownHidden(m.settings.DisableSigma))

	return b.String()
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return theme.DimmedStyle.Render("off")
}

func shownHidden(disabled bool) string {
	if disabled {
		return theme.DimmedStyle.Render("hidden")
	}
	return "shown"
}
