// Package settings is the notification settings form.
package settings

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/threat-console/internal/model"
	"github.com/nhle/threat-console/internal/theme"
	"github.com/nhle/threat-console/internal/ui"
)

// SavedMsg carries the settings the user confirmed.
type SavedMsg struct {
	Settings model.NotificationSettings
}

// CancelMsg is sent when the form is closed without saving.
type CancelMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies. The toggles are
// phrased positively, so they are the inverse of the Disable flags.
type formBindings struct {
	sound   bool
	threats bool
	reports bool
	sigma   bool
}

// Model edits model.NotificationSettings.
type Model struct {
	form   *huh.Form
	fb     *formBindings
	width  int
	height int
}

// New creates the settings form model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{sound: true, threats: true, reports: true, sigma: true},
		width:  width,
		height: height,
	}
}

// Start loads s into the form and focuses it.
func (m *Model) Start(s model.NotificationSettings) tea.Cmd {
	m.fb.sound = !s.SilentMode
	m.fb.threats = !s.DisableThreats
	m.fb.reports = !s.DisableReports
	m.fb.sigma = !s.DisableSigma
	m.form = m.buildForm()
	return m.form.Init()
}

// Update handles messages for the settings form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		s := m.settings()
		m.form = nil
		return m, func() tea.Msg { return SavedMsg{Settings: s} }
	}
	if m.form.State == huh.StateAborted {
		m.form = nil
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

// View renders the settings form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	content := theme.TitleStyle.Render("Notification Settings") + "\n" + m.form.View()

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) settings() model.NotificationSettings {
	return model.NotificationSettings{
		SilentMode:     !m.fb.sound,
		DisableThreats: !m.fb.threats,
		DisableReports: !m.fb.reports,
		DisableSigma:   !m.fb.sigma,
	}
}

func (m *Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Sound").
				Description("Ring the terminal bell when a toast appears").
				Affirmative("On").
				Negative("Silent").
				Value(&m.fb.sound),
			huh.NewConfirm().
				Title("Threat alerts").
				Affirmative("Show").
				Negative("Hide").
				Value(&m.fb.threats),
			huh.NewConfirm().
				Title("Report alerts").
				Affirmative("Show").
				Negative("Hide").
				Value(&m.fb.reports),
			huh.NewConfirm().
				Title("Sigma rule alerts").
				Affirmative("Show").
				Negative("Hide").
				Value(&m.fb.sigma),
		),
	).WithWidth(m.formWidth()).WithShowHelp(true).WithKeyMap(ui.FormKeyMap())
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 80 {
		w = 80
	}
	return w
}
