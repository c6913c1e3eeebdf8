// Package reportform is the form for filing a new threat report.
package reportform

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/threat-console/internal/model"
	"github.com/nhle/threat-console/internal/theme"
	"github.com/nhle/threat-console/internal/ui"
)

// SubmittedMsg carries the report to create.
type SubmittedMsg struct {
	Report model.NewReport
}

// CancelMsg is sent when the user abandons the form.
type CancelMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	title           string
	author          string
	sourceURL       string
	publicationDate string
	summary         string
	malware         string
}

// Model is the report creation form.
type Model struct {
	form   *huh.Form
	fb     *formBindings
	userID *int64
	width  int
	height int
}

// New creates a report form model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// Start resets the form. author pre-fills the author field and userID is
// attached to the submitted report when set.
func (m *Model) Start(author string, userID *int64) tea.Cmd {
	*m.fb = formBindings{author: author}
	m.userID = userID
	m.form = m.buildForm()
	return m.form.Init()
}

// Update handles messages for the report form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		r := m.report()
		m.form = nil
		return m, func() tea.Msg { return SubmittedMsg{Report: r} }
	}
	if m.form.State == huh.StateAborted {
		m.form = nil
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

// View renders the report form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	content := theme.TitleStyle.Render("New Report") + "\n" + m.form.View()

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) report() model.NewReport {
	return model.NewReport{
		Title:           strings.TrimSpace(m.fb.title),
		Author:          strings.TrimSpace(m.fb.author),
		SourceURL:       strings.TrimSpace(m.fb.sourceURL),
		PublicationDate: strings.TrimSpace(m.fb.publicationDate),
		Summary:         strings.TrimSpace(m.fb.summary),
		UserID:          m.userID,
		MalwareNames:    splitNames(m.fb.malware),
	}
}

func (m *Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Placeholder("APT29 targets ...").
				Value(&m.fb.title).
				Validate(validateRequired("Title")),
			huh.NewInput().
				Title("Author").
				Value(&m.fb.author),
			huh.NewInput().
				Title("Source URL").
				Placeholder("https://... (optional)").
				Value(&m.fb.sourceURL).
				Validate(validateOptionalURL),
			huh.NewInput().
				Title("Publication Date").
				Placeholder("YYYY-MM-DD (optional)").
				Value(&m.fb.publicationDate).
				Validate(validateOptionalDate),
		),
		huh.NewGroup(
			huh.NewText().
				Title("Summary").
				Placeholder("Key findings...").
				Value(&m.fb.summary),
			huh.NewInput().
				Title("Malware").
				Description("Comma-separated names, linked to existing threats").
				Value(&m.fb.malware),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight()).WithKeyMap(ui.FormKeyMap())
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

func (m Model) formHeight() int {
	h := m.height - 4
	if h < 10 {
		h = 10
	}
	return h
}

// splitNames turns "a, b,,c" into [a b c], dropping blanks and repeats.
func splitNames(s string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(s, ",") {
		name := strings.TrimSpace(part)
		key := strings.ToLower(name)
		if name == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, name)
	}
	return out
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validateOptionalDate(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if _, err := time.Parse("2006-01-02", s); err != nil {
		return errors.New("use YYYY-MM-DD")
	}
	return nil
}

func validateOptionalURL(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	u, err := url.Parse(s)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return errors.New("enter an http(s) URL")
	}
	return nil
}
