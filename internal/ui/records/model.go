// Package records browses threat (malware) entries and threat reports.
package records

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/threat-console/internal/keys"
	"github.com/nhle/threat-console/internal/model"
	"github.com/nhle/threat-console/internal/theme"
)

// Tab selects which record kind is listed.
type Tab int

const (
	TabThreats Tab = iota
	TabReports
)

func (t Tab) String() string {
	if t == TabReports {
		return "Reports"
	}
	return "Threats"
}

// Source loads records from the backend.
type Source interface {
	Malware(ctx context.Context, q string) ([]model.Malware, error)
	Reports(ctx context.Context, q string) ([]model.Report, error)
}

// LoadedMsg carries a listing for one tab.
type LoadedMsg struct {
	Tab     Tab
	Malware []model.Malware
	Reports []model.Report
	Err     error
}

// StatusChangeMsg asks the root model to change a report's status.
type StatusChangeMsg struct {
	ReportID int64
	Status   string
}

type malwareItem struct{ m model.Malware }

func (i malwareItem) FilterValue() string { return i.m.Name }

type reportItem struct{ r model.Report }

func (i reportItem) FilterValue() string { return i.r.Title }

type delegate struct{}

func (d delegate) Height() int                             { return 1 }
func (d delegate) Spacing() int                            { return 0 }
func (d delegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d delegate) Render(w io.Writer, m list.Model, index int, li list.Item) {
	var line string
	switch it := li.(type) {
	case malwareItem:
		line = it.m.Name
		if meta := joinNonEmpty(" · ", it.m.Type, it.m.Family); meta != "" {
			line += theme.DimmedStyle.Render("  " + meta)
		}
	case reportItem:
		line = theme.ReportStatusStyle(it.r.Status).Render(statusLabel(it.r.Status)) + " " + it.r.Title
		if it.r.Author != "" {
			line += theme.DimmedStyle.Render("  " + it.r.Author)
		}
	default:
		return
	}
	if index == m.Index() {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}
	fmt.Fprint(w, line)
}

// Model is the records browser.
type Model struct {
	source      Source
	keys        *keys.KeyMap
	tab         Tab
	list        list.Model
	searchInput textinput.Model
	searchMode  bool
	query       string
	open        bool
	viewport    viewport.Model
	err         string
	width       int
	height      int
}

// New creates the records browser showing threats first.
func New(src Source, k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, delegate{}, width, height-2)
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	si := textinput.New()
	si.Prompt = "/ "
	si.Width = width - 4

	m := Model{
		source:      src,
		keys:        k,
		list:        l,
		searchInput: si,
		viewport:    viewport.New(width, height-3),
		width:       width,
		height:      height,
	}
	m.applyTab()
	return m
}

// Init loads the current tab.
func (m Model) Init() tea.Cmd {
	return m.Load()
}

// Tab returns the active tab.
func (m Model) Tab() Tab { return m.tab }

// SetTab switches tabs and returns the command that loads it.
func (m *Model) SetTab(t Tab) tea.Cmd {
	m.tab = t
	m.query = ""
	m.open = false
	m.applyTab()
	m.list.SetItems(nil)
	return m.Load()
}

// CapturesInput reports whether keystrokes are text input.
func (m Model) CapturesInput() bool { return m.searchMode }

// InDetail reports whether a record is open.
func (m Model) InDetail() bool { return m.open }

func (m *Model) applyTab() {
	m.list.Title = m.tab.String()
	if m.tab == TabReports {
		m.list.SetStatusBarItemName("report", "reports")
		m.searchInput.Placeholder = "search reports..."
	} else {
		m.list.SetStatusBarItemName("threat", "threats")
		m.searchInput.Placeholder = "search threats..."
	}
}

// Load returns a tea.Cmd that fetches the current tab.
func (m Model) Load() tea.Cmd {
	src := m.source
	q := m.query
	tab := m.tab
	return func() tea.Msg {
		ctx := context.Background()
		if tab == TabReports {
			reports, err := src.Reports(ctx, q)
			return LoadedMsg{Tab: tab, Reports: reports, Err: err}
		}
		malware, err := src.Malware(ctx, q)
		return LoadedMsg{Tab: tab, Malware: malware, Err: err}
	}
}

// Update handles messages for the records browser.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case LoadedMsg:
		if msg.Tab != m.tab {
			return m, nil
		}
		if msg.Err != nil {
			m.err = msg.Err.Error()
			return m, nil
		}
		m.err = ""
		var items []list.Item
		for _, mw := range msg.Malware {
			items = append(items, malwareItem{m: mw})
		}
		for _, r := range msg.Reports {
			items = append(items, reportItem{r: r})
		}
		return m, m.list.SetItems(items)

	case tea.KeyMsg:
		if m.searchMode {
			return m.handleSearchKeys(msg)
		}
		if m.open {
			return m.handleDetailKeys(msg)
		}
		return m.handleListKeys(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) handleSearchKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searchMode = false
		m.query = strings.TrimSpace(m.searchInput.Value())
		return m, m.Load()

	case "esc":
		m.searchMode = false
		m.searchInput.Reset()
		m.query = ""
		return m, m.Load()
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

func (m Model) handleDetailKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Back) {
		m.open = false
		return m, nil
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) handleListKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.SwitchTabs):
		next := TabReports
		if m.tab == TabReports {
			next = TabThreats
		}
		cmd := m.SetTab(next)
		return m, cmd

	case key.Matches(msg, m.keys.Search):
		m.searchMode = true
		m.searchInput.SetValue(m.query)
		return m, m.searchInput.Focus()

	case key.Matches(msg, m.keys.Select):
		switch it := m.list.SelectedItem().(type) {
		case malwareItem:
			m.viewport.SetContent(renderMalware(it.m))
		case reportItem:
			m.viewport.SetContent(renderReport(it.r))
		default:
			return m, nil
		}
		m.viewport.GotoTop()
		m.open = true
		return m, nil

	case key.Matches(msg, m.keys.Publish):
		it, ok := m.list.SelectedItem().(reportItem)
		if !ok {
			return m, nil
		}
		status := model.ReportStatusPublished
		if it.r.Status == model.ReportStatusPublished {
			status = model.ReportStatusInProcess
		}
		id := it.r.ID
		return m, func() tea.Msg { return StatusChangeMsg{ReportID: id, Status: status} }
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the records browser.
func (m Model) View() string {
	if m.open {
		return lipgloss.JoinVertical(lipgloss.Left,
			m.viewport.View(),
			theme.HelpStyle.Render("esc back"),
		)
	}

	tabs := m.renderTabs()
	sections := []string{tabs}
	if m.searchMode {
		sections = append(sections, lipgloss.NewStyle().
			Foreground(theme.ColorWhite).
			Padding(0, 1).
			Render(m.searchInput.View()))
	} else if m.query != "" {
		sections = append(sections, theme.DimmedStyle.Render("  filter: "+m.query))
	}
	if m.err != "" {
		sections = append(sections, lipgloss.NewStyle().Foreground(theme.ColorRed).Render("  "+m.err))
	}
	if len(m.list.Items()) == 0 {
		sections = append(sections, theme.DimmedStyle.Padding(1, 2).
			Render(fmt.Sprintf("No %s found.", strings.ToLower(m.tab.String()))))
	} else {
		sections = append(sections, m.list.View())
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderTabs() string {
	var parts []string
	for _, t := range []Tab{TabThreats, TabReports} {
		if t == m.tab {
			parts = append(parts, theme.HeaderStyle.Render(t.String()))
		} else {
			parts = append(parts, theme.DimmedStyle.Padding(0, 1).Render(t.String()))
		}
	}
	parts = append(parts, theme.HelpStyle.Render("  tab to switch"))
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-3)
	m.searchInput.Width = width - 4
	m.viewport.Width = width
	m.viewport.Height = height - 2
}

func statusLabel(s string) string {
	if s == "" {
		return model.ReportStatusInProcess
	}
	return s
}

func renderMalware(mw model.Malware) string {
	var b strings.Builder
	b.WriteString(theme.TitleStyle.Render(mw.Name))
	b.WriteString("\n")
	field(&b, "Type", mw.Type)
	field(&b, "Family", mw.Family)
	field(&b, "First seen", mw.FirstSeen)
	field(&b, "Last seen", mw.LastSeen)
	field(&b, "Capabilities", strings.Join(mw.Capabilities, ", "))
	field(&b, "Sources", strings.Join(mw.Sources, ", "))
	if len(mw.Hashes) > 0 {
		b.WriteString("\nHashes:\n")
		for _, h := range mw.Hashes {
			b.WriteString("  " + h + "\n")
		}
	}
	if mw.Description != "" {
		b.WriteString("\n" + mw.Description + "\n")
	}
	return b.String()
}

func renderReport(r model.Report) string {
	var b strings.Builder
	b.WriteString(theme.TitleStyle.Render(r.Title))
	b.WriteString("\n")
	field(&b, "Status", statusLabel(r.Status))
	field(&b, "Author", r.Author)
	field(&b, "Published", r.PublicationDate)
	field(&b, "Source", r.SourceURL)
	field(&b, "Malware", strings.Join(r.MalwareTags, ", "))
	if r.Summary != "" {
		b.WriteString("\n" + r.Summary + "\n")
	}
	if r.FullText != "" {
		b.WriteString("\n" + r.FullText + "\n")
	}
	return b.String()
}

func field(b *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	b.WriteString(theme.DimmedStyle.Render(label+": ") + value + "\n")
}

func joinNonEmpty(sep string, parts ...string) string {
	var out []string
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}
