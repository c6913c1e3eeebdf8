package command

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/threat-console/internal/theme"
)

// maxMatches caps the completion list under the input.
const maxMatches = 6

// Entry is one palette command.
type Entry struct {
	Usage   string
	Summary string
}

// Entries lists the commands the palette understands, in display order.
var Entries = []Entry{
	{Usage: "alerts", Summary: "open the alert feed"},
	{Usage: "threats", Summary: "browse tracked malware"},
	{Usage: "reports", Summary: "browse threat reports"},
	{Usage: "rules", Summary: "search Sigma rules"},
	{Usage: "settings", Summary: "edit notification settings"},
	{Usage: "new-report", Summary: "file a new report"},
	{Usage: "refresh", Summary: "check for new alerts now"},
	{Usage: "read-all", Summary: "mark every alert as read"},
	{Usage: "silent on", Summary: "mute the bell for new toasts"},
	{Usage: "silent off", Summary: "ring the bell for new toasts"},
	{Usage: "clear-bookmarks", Summary: "remove all rule bookmarks"},
	{Usage: "logout", Summary: "end the session"},
	{Usage: "logout --forget", Summary: "end the session and drop the saved password"},
	{Usage: "quit", Summary: "leave the console"},
}

// Names returns the usage of every entry.
func Names() []string {
	names := make([]string, len(Entries))
	for i, e := range Entries {
		names[i] = e.Usage
	}
	return names
}

// Matching returns the entries whose usage starts with prefix, ignoring
// case. An empty prefix matches everything.
func Matching(prefix string) []Entry {
	prefix = strings.ToLower(strings.TrimLeft(prefix, " "))
	var out []Entry
	for _, e := range Entries {
		if strings.HasPrefix(e.Usage, prefix) {
			out = append(out, e)
		}
	}
	return out
}

// CommandMsg is emitted when the user executes a command.
type CommandMsg string

// Verb returns the first word of the command, lowercased.
func (c CommandMsg) Verb() string {
	fields := strings.Fields(string(c))
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[0])
}

// Args returns the words after the verb.
func (c CommandMsg) Args() []string {
	fields := strings.Fields(string(c))
	if len(fields) < 2 {
		return nil
	}
	return fields[1:]
}

// CancelMsg is emitted when the palette is closed without a command.
type CancelMsg struct{}

// Model is the command palette.
type Model struct {
	input  textinput.Model
	width  int
	height int
}

func New(width, height int) Model {
	ti := textinput.New()
	ti.Placeholder = "alerts, rules, silent on..."
	ti.Prompt = ": "
	ti.ShowSuggestions = true
	ti.SetSuggestions(Names())
	ti.Focus()
	ti.Width = width - 6

	return Model{input: ti, width: width, height: height}
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.Type {
		case tea.KeyEnter:
			line := strings.TrimSpace(m.input.Value())
			m.input.Reset()
			if line == "" {
				return m, cancel
			}
			return m, func() tea.Msg { return CommandMsg(line) }
		case tea.KeyEsc:
			m.input.Reset()
			return m, cancel
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func cancel() tea.Msg {
	return CancelMsg{}
}

func (m Model) View() string {
	lines := []string{theme.TitleStyle.Render("Command"), m.input.View(), ""}

	matches := Matching(m.input.Value())
	if len(matches) == 0 {
		lines = append(lines, theme.DimmedStyle.Render("no matching command"))
	}
	for i, e := range matches {
		if i == maxMatches {
			lines = append(lines, theme.DimmedStyle.Render(fmt.Sprintf("+%d more", len(matches)-maxMatches)))
			break
		}
		lines = append(lines, fmt.Sprintf("%-18s %s", e.Usage, theme.DimmedStyle.Render(e.Summary)))
	}
	lines = append(lines, "", theme.HelpStyle.Render("tab completes, esc closes"))

	return theme.PanelStyle.
		Width(m.width - 4).
		Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = width - 6
}

// Focus gives keyboard focus to the input.
func (m *Model) Focus() tea.Cmd {
	return m.input.Focus()
}
