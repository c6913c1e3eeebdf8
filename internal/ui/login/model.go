// Package login is the sign-in and registration form shown while no
// session exists.
package login

import (
	"errors"
	"net/mail"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/threat-console/internal/theme"
	"github.com/nhle/threat-console/internal/ui"
)

const (
	actionLogin    = "login"
	actionRegister = "register"
)

// LoginMsg carries submitted credentials. An empty Password means the
// remembered password should be used.
type LoginMsg struct {
	Email    string
	Password string
	Remember bool
}

// RegisterMsg carries a new account request.
type RegisterMsg struct {
	Username string
	Email    string
	Password string
}

// CancelMsg is sent when the user aborts the form.
type CancelMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	action   string
	username string
	email    string
	password string
	confirm  string
	remember bool
}

// Model is the login/register form.
type Model struct {
	form    *huh.Form
	fb      *formBindings
	errText string
	notice  string
	width   int
	height  int
}

// New creates the login form model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{action: actionLogin},
		width:  width,
		height: height,
	}
}

// Start shows a fresh form. email pre-fills the email field.
func (m *Model) Start(email string) tea.Cmd {
	*m.fb = formBindings{action: actionLogin, email: email, remember: true}
	m.form = m.buildForm()
	return m.form.Init()
}

// Init returns the form's initial command.
func (m Model) Init() tea.Cmd {
	if m.form == nil {
		return nil
	}
	return m.form.Init()
}

// SetError shows a failure above the form and restarts it with the
// email kept.
func (m *Model) SetError(text string) tea.Cmd {
	m.errText = text
	m.notice = ""
	return m.Start(m.fb.email)
}

// SetNotice shows an informational line above the form and restarts it.
func (m *Model) SetNotice(text string, email string) tea.Cmd {
	m.notice = text
	m.errText = ""
	return m.Start(email)
}

// Update handles messages for the login form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		m.form = nil
		return m, m.submit()
	}
	if m.form.State == huh.StateAborted {
		m.form = nil
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

func (m Model) submit() tea.Cmd {
	fb := *m.fb
	email := strings.TrimSpace(fb.email)
	if fb.action == actionRegister {
		return func() tea.Msg {
			return RegisterMsg{
				Username: strings.TrimSpace(fb.username),
				Email:    email,
				Password: fb.password,
			}
		}
	}
	return func() tea.Msg {
		return LoginMsg{Email: email, Password: fb.password, Remember: fb.remember}
	}
}

// View renders the login form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	var b strings.Builder
	b.WriteString(theme.TitleStyle.Render("Threat Console"))
	b.WriteString("\n")
	if m.errText != "" {
		b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorRed).Render(m.errText))
		b.WriteString("\n\n")
	}
	if m.notice != "" {
		b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorGreen).Render(m.notice))
		b.WriteString("\n\n")
	}
	b.WriteString(m.form.View())

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(b.String())
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm() *huh.Form {
	fb := m.fb
	hideLogin := func() bool { return fb.action != actionLogin }
	hideRegister := func() bool { return fb.action != actionRegister }

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Welcome").
				Options(
					huh.NewOption("Log in", actionLogin),
					huh.NewOption("Create an account", actionRegister),
				).
				Value(&fb.action),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Email").
				Value(&fb.email).
				Validate(validateEmail),
			huh.NewInput().
				Title("Password").
				Description("Leave blank to use a remembered password").
				EchoMode(huh.EchoModePassword).
				Value(&fb.password),
			huh.NewConfirm().
				Title("Remember password").
				Value(&fb.remember),
		).WithHideFunc(hideLogin),
		huh.NewGroup(
			huh.NewInput().
				Title("Username").
				Value(&fb.username).
				Validate(validateRequired("Username")),
			huh.NewInput().
				Title("Email").
				Value(&fb.email).
				Validate(validateEmail),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&fb.password).
				Validate(validateRequired("Password")),
			huh.NewInput().
				Title("Confirm password").
				EchoMode(huh.EchoModePassword).
				Value(&fb.confirm).
				Validate(func(s string) error {
					if s != fb.password {
						return errors.New("passwords do not match")
					}
					return nil
				}),
		).WithHideFunc(hideRegister),
	).WithWidth(m.formWidth()).WithKeyMap(ui.FormKeyMap())
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 70 {
		w = 70
	}
	return w
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return errors.New(fieldName + " is required")
		}
		return nil
	}
}

func validateEmail(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return errors.New("Email is required")
	}
	if _, err := mail.ParseAddress(s); err != nil {
		return errors.New("enter a valid email address")
	}
	return nil
}
