// Package rules browses Sigma rules and manages bookmarks on them.
package rules

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

// Source loads Sigma rules from the backend.
type Source interface {
	SigmaRules(ctx context.Context, q string) ([]model.SigmaRule, error)
	SigmaRule(ctx context.Context, id int64) (model.SigmaRule, error)
}

// LoadedMsg carries a rule listing.
type LoadedMsg struct {
	Rules []model.SigmaRule
	Err   error
}

// DetailLoadedMsg carries a single rule with its content.
type DetailLoadedMsg struct {
	Rule model.SigmaRule
	Err  error
}

// ToggleBookmarkMsg asks the root model to add or remove a bookmark.
type ToggleBookmarkMsg struct {
	Bookmark model.Bookmark
}

// item wraps a rule for the bubbles list.
type item struct {
	rule       model.SigmaRule
	bookmarked bool
}

func (i item) FilterValue() string { return i.rule.Name }

type delegate struct{}

func (d delegate) Height() int                             { return 1 }
func (d delegate) Spacing() int                            { return 0 }
func (d delegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d delegate) Render(w io.Writer, m list.Model, index int, li list.Item) {
	it, ok := li.(item)
	if !ok {
		return
	}
	star := " "
	if it.bookmarked {
		star = lipgloss.NewStyle().Foreground(theme.ColorYellow).Render("★")
	}
	line := fmt.Sprintf("%s %s", star, it.rule.Name)
	if it.rule.Filename != "" {
		line += theme.DimmedStyle.Render("  " + it.rule.Filename)
	}
	if index == m.Index() {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}
	fmt.Fprint(w, line)
}

// Model is the Sigma rule browser.
type Model struct {
	source      Source
	keys        *keys.KeyMap
	list        list.Model
	searchInput textinput.Model
	searchMode  bool
	query       string
	bookmarked  map[int64]bool
	detail      *model.SigmaRule
	viewport    viewport.Model
	err         string
	width       int
	height      int
}

// New creates the rule browser.
func New(src Source, k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, delegate{}, width, height-2)
	l.Title = "Sigma Rules"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle
	l.SetStatusBarItemName("rule", "rules")

	si := textinput.New()
	si.Placeholder = "search rules..."
	si.Prompt = "/ "
	si.Width = width - 4

	return Model{
		source:      src,
		keys:        k,
		list:        l,
		searchInput: si,
		bookmarked:  make(map[int64]bool),
		viewport:    viewport.New(width, height-3),
		width:       width,
		height:      height,
	}
}

// Init loads the rule listing.
func (m Model) Init() tea.Cmd {
	return m.Load()
}

// Load returns a tea.Cmd that fetches rules matching the current query.
func (m Model) Load() tea.Cmd {
	src := m.source
	q := m.query
	return func() tea.Msg {
		rules, err := src.SigmaRules(context.Background(), q)
		return LoadedMsg{Rules: rules, Err: err}
	}
}

func (m Model) loadDetail(id int64) tea.Cmd {
	src := m.source
	return func() tea.Msg {
		rule, err := src.SigmaRule(context.Background(), id)
		return DetailLoadedMsg{Rule: rule, Err: err}
	}
}

// SetBookmarks marks which rules are bookmarked.
func (m *Model) SetBookmarks(marks []model.Bookmark) {
	m.bookmarked = make(map[int64]bool, len(marks))
	for _, b := range marks {
		m.bookmarked[b.ID] = true
	}
	m.refreshItems()
}

// CapturesInput reports whether keystrokes are text input.
func (m Model) CapturesInput() bool { return m.searchMode }

// InDetail reports whether a single rule is open.
func (m Model) InDetail() bool { return m.detail != nil }

// Update handles messages for the rule browser.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case LoadedMsg:
		if msg.Err != nil {
			m.err = msg.Err.Error()
			return m, nil
		}
		m.err = ""
		items := make([]list.Item, len(msg.Rules))
		for i, r := range msg.Rules {
			items[i] = item{rule: r, bookmarked: m.bookmarked[r.ID]}
		}
		return m, m.list.SetItems(items)

	case DetailLoadedMsg:
		if msg.Err != nil {
			m.err = msg.Err.Error()
			return m, nil
		}
		rule := msg.Rule
		m.detail = &rule
		m.viewport.SetContent(renderRule(rule))
		m.viewport.GotoTop()
		return m, nil

	case tea.KeyMsg:
		if m.searchMode {
			return m.handleSearchKeys(msg)
		}
		if m.detail != nil {
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
	switch {
	case key.Matches(msg, m.keys.Back):
		m.detail = nil
		return m, nil

	case key.Matches(msg, m.keys.Bookmark):
		b := m.detail.Bookmark()
		return m, func() tea.Msg { return ToggleBookmarkMsg{Bookmark: b} }
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) handleListKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Select):
		it, ok := m.list.SelectedItem().(item)
		if !ok {
			return m, nil
		}
		return m, m.loadDetail(it.rule.ID)

	case key.Matches(msg, m.keys.Search):
		m.searchMode = true
		m.searchInput.SetValue(m.query)
		return m, m.searchInput.Focus()

	case key.Matches(msg, m.keys.Bookmark):
		it, ok := m.list.SelectedItem().(item)
		if !ok {
			return m, nil
		}
		b := it.rule.Bookmark()
		return m, func() tea.Msg { return ToggleBookmarkMsg{Bookmark: b} }
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Model) refreshItems() {
	items := m.list.Items()
	for i, li := range items {
		it, ok := li.(item)
		if !ok {
			continue
		}
		it.bookmarked = m.bookmarked[it.rule.ID]
		items[i] = it
	}
	m.list.SetItems(items)
}

// View renders the rule browser.
func (m Model) View() string {
	if m.detail != nil {
		title := m.detail.Name
		if m.bookmarked[m.detail.ID] {
			title = "★ " + title
		}
		return lipgloss.JoinVertical(lipgloss.Left,
			theme.TitleStyle.Render(title),
			m.viewport.View(),
			theme.HelpStyle.Render("esc back · b bookmark"),
		)
	}

	var sections []string
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
		sections = append(sections, theme.DimmedStyle.Padding(1, 2).Render("No rules found."))
	} else {
		sections = append(sections, m.list.View())
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
	m.searchInput.Width = width - 4
	m.viewport.Width = width
	m.viewport.Height = height - 3
}

func renderRule(r model.SigmaRule) string {
	var b strings.Builder
	if r.Description != "" {
		b.WriteString(r.Description)
		b.WriteString("\n\n")
	}
	if r.Filename != "" {
		b.WriteString(theme.DimmedStyle.Render("file: " + r.Filename))
		b.WriteString("\n")
	}
	if !r.CreatedAt.IsZero() {
		b.WriteString(theme.DimmedStyle.Render("uploaded: " + r.CreatedAt.Format("2006-01-02 15:04")))
		b.WriteString("\n")
	}
	if r.Content != "" {
		b.WriteString("\n")
		b.WriteString(r.Content)
	}
	return b.String()
}
