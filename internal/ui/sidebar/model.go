// Package sidebar renders the navigation column: who is logged in, how
// many alerts are unread, notification mode and saved Sigma rules.
package sidebar

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/threat-console/internal/model"
	"github.com/nhle/threat-console/internal/theme"
)

// maxBookmarks is how many bookmarks fit before the list is cut short.
const maxBookmarks = 8

// Section identifies a navigation entry.
type Section int

const (
	SectionAlerts Section = iota
	SectionThreats
	SectionReports
	SectionRules
	SectionSettings
)

var sections = []struct {
	section Section
	key     string
	label   string
}{
	{SectionAlerts, "1", "Alerts"},
	{SectionThreats, "2", "Threats"},
	{SectionReports, "3", "Reports"},
	{SectionRules, "4", "Sigma rules"},
	{SectionSettings, "5", "Settings"},
}

// Model is a render-only view; the root model pushes state into it.
type Model struct {
	user      *model.User
	unread    int
	settings  model.NotificationSettings
	bookmarks []model.Bookmark
	active    Section
	width     int
	height    int
}

// New creates a sidebar model.
func New(width, height int) Model {
	return Model{width: width, height: height}
}

// SetUser sets the logged-in user, or nil when logged out.
func (m *Model) SetUser(u *model.User) { m.user = u }

// SetUnread sets the unread alert count.
func (m *Model) SetUnread(n int) { m.unread = n }

// Unread returns the unread alert count.
func (m Model) Unread() int { return m.unread }

// SetSettings sets the notification settings shown in the mode line.
func (m *Model) SetSettings(s model.NotificationSettings) { m.settings = s }

// SetBookmarks replaces the bookmark list.
func (m *Model) SetBookmarks(b []model.Bookmark) { m.bookmarks = b }

// SetActive highlights a navigation entry.
func (m *Model) SetActive(s Section) { m.active = s }

// SetSize updates the sidebar dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// View renders the sidebar.
func (m Model) View() string {
	var b strings.Builder

	if m.user != nil {
		b.WriteString(theme.TitleStyle.UnsetMarginBottom().Render(m.user.Username))
		b.WriteString("\n")
		b.WriteString(theme.DimmedStyle.Render(m.user.Role))
		b.WriteString("\n\n")
	}

	for _, s := range sections {
		line := fmt.Sprintf("%s %s", s.key, s.label)
		if s.section == SectionAlerts && m.unread > 0 {
			line += " " + theme.BadgeStyle.Render(fmt.Sprintf("%d", m.unread))
		}
		if s.section == m.active {
			b.WriteString(theme.SelectedItemStyle.Render(line))
		} else {
			b.WriteString(theme.ListItemStyle.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.modeLine())
	b.WriteString("\n\n")
	b.WriteString(m.bookmarkList())

	return theme.SidebarStyle.
		Width(m.width - 1).
		Height(m.height).
		Render(b.String())
}

func (m Model) modeLine() string {
	s := m.settings
	var muted []string
	if s.DisableThreats {
		muted = append(muted, "threats")
	}
	if s.DisableReports {
		muted = append(muted, "reports")
	}
	if s.DisableSigma {
		muted = append(muted, "sigma")
	}

	mode := "sound on"
	if s.SilentMode {
		mode = "silent"
	}
	line := theme.DimmedStyle.Render("Notify: " + mode)
	if len(muted) > 0 {
		line += "\n" + theme.DimmedStyle.Render("Muted: "+strings.Join(muted, ", "))
	}
	return line
}

func (m Model) bookmarkList() string {
	header := lipgloss.NewStyle().Bold(true).Render("Bookmarks")
	if len(m.bookmarks) == 0 {
		return header + "\n" + theme.DimmedStyle.Render("none yet, press b on a rule")
	}

	width := m.width - 4
	if width < 8 {
		width = 8
	}
	lines := []string{header}
	for i, bm := range m.bookmarks {
		if i == maxBookmarks {
			lines = append(lines, theme.DimmedStyle.Render(
				fmt.Sprintf("+%d more", len(m.bookmarks)-maxBookmarks)))
			break
		}
		lines = append(lines, "★ "+truncate(bm.Name, width))
	}
	return strings.Join(lines, "\n")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
