package app

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/nhle/threat-console/internal/bookmarks"
	"github.com/nhle/threat-console/internal/events"
	"github.com/nhle/threat-console/internal/keys"
	"github.com/nhle/threat-console/internal/model"
	"github.com/nhle/threat-console/internal/notify"
	"github.com/nhle/threat-console/internal/session"
	"github.com/nhle/threat-console/internal/store"
	"github.com/nhle/threat-console/internal/ui"
	"github.com/nhle/threat-console/internal/ui/alerts"
	"github.com/nhle/threat-console/internal/ui/command"
	helpview "github.com/nhle/threat-console/internal/ui/help"
	"github.com/nhle/threat-console/internal/ui/login"
	"github.com/nhle/threat-console/internal/ui/records"
	"github.com/nhle/threat-console/internal/ui/reportform"
	"github.com/nhle/threat-console/internal/ui/rules"
	settingsview "github.com/nhle/threat-console/internal/ui/settings"
	"github.com/nhle/threat-console/internal/ui/sidebar"
	"github.com/nhle/threat-console/internal/ui/toast"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewLogin ViewState = iota
	ViewAlerts
	ViewRecords
	ViewRules
	ViewSettings
	ViewReportForm
	ViewHelp
	ViewCommand
)

// Backend is the part of the API client the views need.
type Backend interface {
	rules.Source
	records.Source
	CreateReport(ctx context.Context, r model.NewReport) (model.Report, error)
	UpdateReportStatus(ctx context.Context, id int64, status string) (model.Report, error)
	DeleteAlert(ctx context.Context, id model.AlertID) error
}

// Deps are the long-lived services the root model drives.
type Deps struct {
	Backend   Backend
	Prefs     *store.Prefs
	Bus       *events.Bus
	Poller    *notify.Poller
	Queue     *notify.Queue
	Bookmarks *bookmarks.Store
	Session   *session.Manager
	Logger    *zap.Logger

	// Context bounds the poller. Defaults to context.Background.
	Context context.Context

	// Bell receives the terminal bell for audible toasts. It should share
	// the program's output lock, see Terminal. Nil disables the bell.
	Bell io.Writer
}

// Model is the root Bubble Tea model that manages view routing,
// layout, and the notification pipeline.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	keys         *keys.KeyMap
	deps         Deps
	bridge       *events.Bridge

	loginView    login.Model
	sidebar      sidebar.Model
	alertsView   alerts.Model
	toasts       toast.Model
	settingsView settingsview.Model
	rulesView    rules.Model
	recordsView  records.Model
	reportForm   reportform.Model
	helpView     helpview.Model
	commandView  command.Model

	session   *model.Session
	settings  model.NotificationSettings
	feed      []model.Alert
	status    string
	statusErr bool
	ready     bool
}

// New creates the root model. The session manager must already be
// initialized so the first screen can be chosen.
func New(d Deps) Model {
	if d.Context == nil {
		d.Context = context.Background()
	}
	if d.Bell == nil {
		d.Bell = io.Discard
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}

	k := keys.DefaultKeyMap()
	m := Model{
		currentView: ViewLogin,
		layout:      ui.NewLayout(80, 24),
		keys:        k,
		deps:        d,
		bridge: events.NewBridge(d.Bus,
			events.SessionChanged,
			events.NotificationSettingsChanged,
			events.BookmarksChanged,
			events.ViewedAlertsChanged,
			events.ToastsChanged,
		),
		loginView:    login.New(80, 24),
		sidebar:      sidebar.New(ui.SidebarWidth, 24),
		alertsView:   alerts.New(k, 80, 24),
		toasts:       toast.New(ui.ToastColumnWidth),
		settingsView: settingsview.New(80, 24),
		rulesView:    rules.New(d.Backend, k, 80, 24),
		recordsView:  records.New(d.Backend, k, 80, 24),
		reportForm:   reportform.New(80, 24),
		helpView:     helpview.New(k, 80, 24),
		commandView:  command.New(80, 24),
	}

	ctx := d.Context
	marks := d.Bookmarks.List(ctx)
	m.settings = d.Prefs.NotificationSettings(ctx)
	m.sidebar.SetSettings(m.settings)
	m.helpView.SetNotifications(m.settings, d.Poller.Interval())
	m.sidebar.SetBookmarks(marks)
	m.rulesView.SetBookmarks(marks)
	m.toasts.SetToasts(d.Queue.Active())
	m.layout.ShowToasts = m.toasts.Len() > 0

	m.session = d.Session.Current()
	if m.session != nil {
		m.enterSession()
	} else {
		m.loginView.Start("")
	}
	return m
}

// Init returns the initial commands: listen for bus events and poll
// results, and start polling when a session is already present.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.bridge.Wait(),
		m.deps.Poller.WaitForNextResult(),
	}
	if m.session != nil {
		cmds = append(cmds,
			m.startPolling(),
			m.rulesView.Init(),
			m.recordsView.Init(),
		)
	} else {
		cmds = append(cmds, m.loginView.Init())
	}
	return tea.Batch(cmds...)
}

// Update routes messages to the root handlers or the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout.Width = msg.Width
		m.layout.Height = msg.Height
		m.ready = true
		m.resize()
		return m, nil

	case events.EventMsg:
		cmd := m.handleEvent(msg.Event)
		return m, tea.Batch(m.bridge.Wait(), cmd)

	case notify.PollResultMsg:
		return m, tea.Batch(m.deps.Poller.WaitForNextResult(), m.handlePollResult(msg))

	case viewedLoadedMsg:
		cmd, unread := m.alertsView.SetAlerts(m.feed, msg.viewed)
		m.sidebar.SetUnread(unread)
		return m, cmd

	case actionDoneMsg:
		return m, m.handleActionDone(msg)

	case loginFailedMsg:
		return m, m.loginView.SetError(msg.text)

	case registeredMsg:
		if msg.text != "" {
			return m, m.loginView.SetError(msg.text)
		}
		return m, m.loginView.SetNotice("Account created. Log in to continue.", msg.email)

	case login.LoginMsg:
		return m, m.login(msg)

	case login.RegisterMsg:
		return m, m.register(msg)

	case login.CancelMsg:
		return m, tea.Quit

	case alerts.SelectedMsg:
		return m, m.markViewed(msg.ID)

	case alerts.DeleteMsg:
		return m, m.deleteAlert(msg.ID)

	case rules.ToggleBookmarkMsg:
		return m, m.toggleBookmark(msg.Bookmark)

	case records.StatusChangeMsg:
		return m, m.changeReportStatus(msg.ReportID, msg.Status)

	case settingsview.SavedMsg:
		m.switchTo(m.previousView)
		return m, m.saveSettings(msg.Settings, "Notification settings saved")

	case settingsview.CancelMsg:
		m.switchTo(m.previousView)
		return m, nil

	case reportform.SubmittedMsg:
		m.switchTo(m.previousView)
		return m, m.createReport(msg.Report)

	case reportform.CancelMsg:
		m.switchTo(m.previousView)
		return m, nil

	case command.CommandMsg:
		m.currentView = m.previousView
		return m, m.executeCommand(msg)

	case command.CancelMsg:
		m.currentView = m.previousView
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		m.status = ""
		if !m.capturesInput() {
			if handled, cmd := m.handleGlobalKey(msg); handled {
				return m, cmd
			}
		}
	}

	return m.updateActiveView(msg)
}

// handleGlobalKey processes keys that work in every view without text
// input.
func (m *Model) handleGlobalKey(msg tea.KeyMsg) (bool, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return true, tea.Quit

	case key.Matches(msg, m.keys.Help):
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return true, nil
		}
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return true, nil

	case m.currentView == ViewHelp && key.Matches(msg, m.keys.Back):
		m.currentView = m.previousView
		return true, nil

	case key.Matches(msg, m.keys.Command):
		m.previousView = m.currentView
		m.currentView = ViewCommand
		return true, m.commandView.Focus()

	case key.Matches(msg, m.keys.Refresh):
		m.deps.Poller.RefreshNow()
		m.setStatus("Checking for new alerts...", false)
		return true, nil

	case key.Matches(msg, m.keys.Dismiss):
		return true, m.dismissNewest()

	case key.Matches(msg, m.keys.ViewAlerts):
		return true, m.open(ViewAlerts)

	case key.Matches(msg, m.keys.ViewThreats):
		return true, m.openRecords(records.TabThreats)

	case key.Matches(msg, m.keys.ViewReports):
		return true, m.openRecords(records.TabReports)

	case key.Matches(msg, m.keys.ViewRules):
		return true, m.open(ViewRules)

	case key.Matches(msg, m.keys.ViewSettings):
		return true, m.open(ViewSettings)

	case key.Matches(msg, m.keys.NewReport):
		return true, m.open(ViewReportForm)
	}
	return false, nil
}

// capturesInput reports whether the active view consumes raw keystrokes.
func (m Model) capturesInput() bool {
	switch m.currentView {
	case ViewLogin, ViewSettings, ViewReportForm, ViewCommand:
		return true
	case ViewRules:
		return m.rulesView.CapturesInput()
	case ViewRecords:
		return m.recordsView.CapturesInput()
	}
	return false
}

// updateActiveView delegates a message to whichever view is currently
// active. Load results go to their view even when it is in the background.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg.(type) {
	case rules.LoadedMsg, rules.DetailLoadedMsg:
		m.rulesView, cmd = m.rulesView.Update(msg)
		return m, cmd
	case records.LoadedMsg:
		m.recordsView, cmd = m.recordsView.Update(msg)
		return m, cmd
	}

	switch m.currentView {
	case ViewLogin:
		m.loginView, cmd = m.loginView.Update(msg)
	case ViewAlerts:
		m.alertsView, cmd = m.alertsView.Update(msg)
	case ViewRecords:
		m.recordsView, cmd = m.recordsView.Update(msg)
	case ViewRules:
		m.rulesView, cmd = m.rulesView.Update(msg)
	case ViewSettings:
		m.settingsView, cmd = m.settingsView.Update(msg)
	case ViewReportForm:
		m.reportForm, cmd = m.reportForm.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	}

	return m, cmd
}

// handleEvent applies a bus event to the views.
func (m *Model) handleEvent(ev events.Event) tea.Cmd {
	switch ev.Topic {
	case events.SessionChanged:
		return m.handleSessionChange()

	case events.NotificationSettingsChanged:
		if s, ok := ev.Payload.(model.NotificationSettings); ok {
			m.settings = s
			m.sidebar.SetSettings(s)
			m.helpView.SetNotifications(s, m.deps.Poller.Interval())
		}

	case events.BookmarksChanged:
		if list, ok := ev.Payload.([]model.Bookmark); ok {
			m.sidebar.SetBookmarks(list)
			m.rulesView.SetBookmarks(list)
		}

	case events.ViewedAlertsChanged:
		return m.loadViewed()

	case events.ToastsChanged:
		if active, ok := ev.Payload.([]model.NotificationToast); ok {
			m.toasts.SetToasts(active)
			showing := len(active) > 0
			if showing != m.layout.ShowToasts {
				m.layout.ShowToasts = showing
				m.resize()
			}
		}
	}
	return nil
}

// handleSessionChange moves between the login screen and the console.
func (m *Model) handleSessionChange() tea.Cmd {
	s := m.deps.Session.Current()
	wasIn := m.session != nil
	m.session = s

	switch {
	case s != nil && !wasIn:
		m.enterSession()
		m.setStatus("Welcome, "+s.User.Username, false)
		return tea.Batch(m.startPolling(), m.rulesView.Init(), m.recordsView.Init())

	case s == nil && wasIn:
		m.layout.ShowSidebar = false
		m.sidebar.SetUser(nil)
		m.currentView = ViewLogin
		m.previousView = ViewLogin
		m.feed = nil
		m.resize()
		return tea.Batch(m.stopPolling(), m.loginView.Start(""))

	case s != nil:
		user := s.User
		m.sidebar.SetUser(&user)
		m.alertsView.SetCanDelete(user.IsAdmin())
	}
	return nil
}

// enterSession shows the console for the current session.
func (m *Model) enterSession() {
	user := m.session.User
	m.sidebar.SetUser(&user)
	m.alertsView.SetCanDelete(user.IsAdmin())
	m.layout.ShowSidebar = true
	m.currentView = ViewAlerts
	m.previousView = ViewAlerts
	m.sidebar.SetActive(sidebar.SectionAlerts)
	m.resize()
}

// handlePollResult rings the bell for audible toasts and refreshes the
// feed. A failed cycle keeps the last feed; the poller logs it and the
// next tick retries.
func (m *Model) handlePollResult(msg notify.PollResultMsg) tea.Cmd {
	var cmds []tea.Cmd
	if msg.Bell {
		cmds = append(cmds, m.ringBell())
	}
	if msg.Err == nil && !msg.Skipped && !msg.Stale {
		m.feed = msg.Alerts
		cmds = append(cmds, m.loadViewed())
	}
	return tea.Batch(cmds...)
}

// ringBell writes the bell off the update loop.
func (m Model) ringBell() tea.Cmd {
	w := m.deps.Bell
	return func() tea.Msg {
		fmt.Fprint(w, "\a")
		return nil
	}
}

// open switches to a console view and prepares it.
func (m *Model) open(v ViewState) tea.Cmd {
	if m.session == nil {
		return nil
	}
	if m.currentView != v && m.currentView != ViewHelp {
		m.previousView = m.currentView
	}
	m.switchTo(v)

	switch v {
	case ViewSettings:
		return m.settingsView.Start(m.settings)
	case ViewReportForm:
		user := m.session.User
		id := user.ID
		return m.reportForm.Start(user.Username, &id)
	}
	return nil
}

// openRecords shows the records view on tab t.
func (m *Model) openRecords(t records.Tab) tea.Cmd {
	if m.session == nil {
		return nil
	}
	if m.currentView == ViewRecords && m.recordsView.Tab() == t {
		return nil
	}
	cmd := m.recordsView.SetTab(t)
	m.open(ViewRecords)
	return cmd
}

// switchTo sets the active view and highlights it in the sidebar.
func (m *Model) switchTo(v ViewState) {
	if v == ViewLogin && m.session != nil {
		v = ViewAlerts
	}
	m.currentView = v

	switch v {
	case ViewAlerts:
		m.sidebar.SetActive(sidebar.SectionAlerts)
	case ViewRecords:
		if m.recordsView.Tab() == records.TabReports {
			m.sidebar.SetActive(sidebar.SectionReports)
		} else {
			m.sidebar.SetActive(sidebar.SectionThreats)
		}
	case ViewRules:
		m.sidebar.SetActive(sidebar.SectionRules)
	case ViewSettings:
		m.sidebar.SetActive(sidebar.SectionSettings)
	}
}

// resize pushes the current layout to every view.
func (m *Model) resize() {
	w := m.layout.ContentWidth()
	h := m.layout.ContentHeight()

	m.sidebar.SetSize(ui.SidebarWidth, h)
	m.toasts.SetWidth(ui.ToastColumnWidth)
	m.loginView.SetSize(w, h)
	m.alertsView.SetSize(w, h)
	m.settingsView.SetSize(w, h)
	m.rulesView.SetSize(w, h)
	m.recordsView.SetSize(w, h)
	m.reportForm.SetSize(w, h)
	m.helpView.SetSize(w, h)
	m.commandView.SetSize(w, h)
}

func (m *Model) setStatus(text string, isErr bool) {
	m.status = text
	m.statusErr = isErr
}

// View renders the entire application.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	header := m.layout.RenderHeader("Threat Console", m.headerStatus())
	body := m.layout.RenderBody(m.sidebar.View(), m.renderContent(), m.toasts.View())
	hints, isErr := m.statusLine()
	statusBar := m.layout.RenderStatusBar(hints, isErr)

	return m.layout.RenderWithFrame(header, body, statusBar)
}

// renderContent returns the view string for the currently active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewLogin:
		return m.loginView.View()
	case ViewRecords:
		return m.recordsView.View()
	case ViewRules:
		return m.rulesView.View()
	case ViewSettings:
		return m.settingsView.View()
	case ViewReportForm:
		return m.reportForm.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	default:
		return m.alertsView.View()
	}
}

// headerStatus returns the right side of the header: poll state, unread
// count and user.
func (m Model) headerStatus() string {
	if m.session == nil {
		return "signed out"
	}

	status := m.deps.Poller.State().String()
	if n := m.sidebar.Unread(); n > 0 {
		status += fmt.Sprintf(" | %d unread", n)
	}
	if m.settings.SilentMode {
		status += " | silent"
	}
	return status + " | " + m.session.User.Username
}

// statusLine returns the status bar text. A pending status message wins
// over the key hints until the next key press.
func (m Model) statusLine() (string, bool) {
	if m.status != "" {
		return m.status, m.statusErr
	}
	return m.keyHints(), false
}

// keyHints returns context-sensitive keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	switch m.currentView {
	case ViewLogin:
		return "enter next | shift+tab back | esc quit"
	case ViewHelp:
		return "j/k scroll | ? or esc close help"
	case ViewCommand:
		return "enter execute | tab complete | esc cancel"
	case ViewSettings, ViewReportForm:
		return "enter next | shift+tab back | esc cancel"
	case ViewRules:
		if m.rulesView.InDetail() {
			return "esc back | b bookmark | j/k scroll"
		}
		return "enter open | b bookmark | / search | ? help"
	case ViewRecords:
		if m.recordsView.InDetail() {
			return "esc back | j/k scroll"
		}
		return "enter open | tab switch | / search | p publish | n new report"
	default:
		hints := "q quit | ? help | : command | r refresh | enter mark read"
		if m.toasts.Len() > 0 {
			hints += " | x dismiss"
		}
		return hints
	}
}

// Close releases the event bridge. The caller owns the services in Deps.
func (m Model) Close() {
	m.bridge.Close()
}
