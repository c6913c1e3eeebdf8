package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/nhle/threat-console/internal/api"
	"github.com/nhle/threat-console/internal/model"
	"github.com/nhle/threat-console/internal/session"
	"github.com/nhle/threat-console/internal/ui/command"
	"github.com/nhle/threat-console/internal/ui/login"
	"github.com/nhle/threat-console/internal/ui/records"
)

// viewedLoadedMsg carries the viewed set after it was re-read.
type viewedLoadedMsg struct {
	viewed model.ViewedAlertSet
}

// actionDoneMsg reports the outcome of a background action.
type actionDoneMsg struct {
	status        string
	err           error
	reloadRecords bool
}

// loginFailedMsg carries the text shown on the login form.
type loginFailedMsg struct {
	text string
}

// registeredMsg reports a registration attempt. text is set on failure.
type registeredMsg struct {
	email string
	text  string
}

// userMessage turns an error into a short line for the status bar.
func userMessage(err error) string {
	if errors.Is(err, session.ErrInvalidInput) {
		return strings.TrimPrefix(err.Error(), session.ErrInvalidInput.Error()+": ")
	}
	return api.UserMessage(err)
}

func (m Model) startPolling() tea.Cmd {
	p := m.deps.Poller
	ctx := m.deps.Context
	return func() tea.Msg {
		p.Start(ctx)
		return nil
	}
}

func (m Model) stopPolling() tea.Cmd {
	p := m.deps.Poller
	return func() tea.Msg {
		p.Stop()
		return nil
	}
}

// loadViewed re-reads the viewed set so the feed can flag unread alerts.
func (m Model) loadViewed() tea.Cmd {
	prefs := m.deps.Prefs
	return func() tea.Msg {
		return viewedLoadedMsg{viewed: prefs.ViewedAlerts(context.Background())}
	}
}

func (m Model) login(msg login.LoginMsg) tea.Cmd {
	mgr := m.deps.Session
	return func() tea.Msg {
		password := msg.Password
		if password == "" {
			if pw, ok := mgr.RememberedPassword(msg.Email); ok {
				password = pw
			}
		}
		if _, err := mgr.Login(context.Background(), msg.Email, password, msg.Remember); err != nil {
			return loginFailedMsg{text: userMessage(err)}
		}
		// The session change arrives as an event.
		return nil
	}
}

func (m Model) register(msg login.RegisterMsg) tea.Cmd {
	mgr := m.deps.Session
	return func() tea.Msg {
		err := mgr.Register(context.Background(), msg.Username, msg.Email, msg.Password)
		if err != nil {
			return registeredMsg{email: msg.Email, text: userMessage(err)}
		}
		return registeredMsg{email: msg.Email}
	}
}

func (m Model) logout(forget bool) tea.Cmd {
	mgr := m.deps.Session
	return func() tea.Msg {
		if err := mgr.Logout(context.Background(), forget); err != nil {
			return actionDoneMsg{err: err}
		}
		return nil
	}
}

// markViewed retires an alert. A visible toast for it is dismissed, which
// marks it viewed; otherwise the viewed set is written directly.
func (m Model) markViewed(id model.AlertID) tea.Cmd {
	q := m.deps.Queue
	prefs := m.deps.Prefs
	return func() tea.Msg {
		ctx := context.Background()
		if q.Dismiss(ctx, id) {
			return nil
		}
		if _, err := prefs.MarkAlertViewed(ctx, id); err != nil {
			return actionDoneMsg{err: err}
		}
		return nil
	}
}

// markAllViewed retires every alert in the current feed.
func (m Model) markAllViewed() tea.Cmd {
	feed := m.feed
	prefs := m.deps.Prefs
	q := m.deps.Queue
	return func() tea.Msg {
		ctx := context.Background()
		for _, a := range feed {
			if q.Dismiss(ctx, a.ID) {
				continue
			}
			if _, err := prefs.MarkAlertViewed(ctx, a.ID); err != nil {
				return actionDoneMsg{err: err}
			}
		}
		return actionDoneMsg{status: fmt.Sprintf("Marked %d alerts read", len(feed))}
	}
}

func (m Model) dismissNewest() tea.Cmd {
	q := m.deps.Queue
	return func() tea.Msg {
		q.DismissNewest(context.Background())
		return nil
	}
}

func (m Model) deleteAlert(id model.AlertID) tea.Cmd {
	backend := m.deps.Backend
	poller := m.deps.Poller
	return func() tea.Msg {
		if err := backend.DeleteAlert(context.Background(), id); err != nil {
			return actionDoneMsg{err: err}
		}
		poller.RefreshNow()
		return actionDoneMsg{status: "Alert deleted"}
	}
}

func (m Model) toggleBookmark(b model.Bookmark) tea.Cmd {
	store := m.deps.Bookmarks
	return func() tea.Msg {
		ctx := context.Background()
		wasMarked := store.IsBookmarked(ctx, b.ID)
		if _, err := store.Toggle(ctx, b); err != nil {
			return actionDoneMsg{err: err}
		}
		if wasMarked {
			return actionDoneMsg{status: "Removed bookmark " + b.Name}
		}
		return actionDoneMsg{status: "Bookmarked " + b.Name}
	}
}

func (m Model) clearBookmarks() tea.Cmd {
	store := m.deps.Bookmarks
	return func() tea.Msg {
		if err := store.Clear(context.Background()); err != nil {
			return actionDoneMsg{err: err}
		}
		return actionDoneMsg{status: "Bookmarks cleared"}
	}
}

func (m Model) saveSettings(s model.NotificationSettings, status string) tea.Cmd {
	prefs := m.deps.Prefs
	return func() tea.Msg {
		if err := prefs.SetNotificationSettings(context.Background(), s); err != nil {
			return actionDoneMsg{err: err}
		}
		return actionDoneMsg{status: status}
	}
}

func (m Model) createReport(r model.NewReport) tea.Cmd {
	backend := m.deps.Backend
	poller := m.deps.Poller
	return func() tea.Msg {
		created, err := backend.CreateReport(context.Background(), r)
		if err != nil {
			return actionDoneMsg{err: err}
		}
		// The backend issues an alert for the new report.
		poller.RefreshNow()
		return actionDoneMsg{
			status:        fmt.Sprintf("Report %q filed", created.Title),
			reloadRecords: true,
		}
	}
}

func (m Model) changeReportStatus(id int64, status string) tea.Cmd {
	backend := m.deps.Backend
	return func() tea.Msg {
		if _, err := backend.UpdateReportStatus(context.Background(), id, status); err != nil {
			return actionDoneMsg{err: err}
		}
		return actionDoneMsg{status: "Report marked " + status, reloadRecords: true}
	}
}

// handleActionDone shows the outcome of an action. An unauthorized
// response means the session is no longer valid and ends it.
func (m *Model) handleActionDone(msg actionDoneMsg) tea.Cmd {
	if msg.err != nil {
		m.deps.Logger.Warn("action failed", zap.Error(msg.err))
		m.setStatus("Error: "+userMessage(msg.err), true)
		if api.IsUnauthorized(msg.err) && m.session != nil {
			return m.logout(false)
		}
		return nil
	}

	m.setStatus(msg.status, false)
	if msg.reloadRecords {
		return m.recordsView.Load()
	}
	return nil
}

// executeCommand handles a command from the command palette.
func (m *Model) executeCommand(c command.CommandMsg) tea.Cmd {
	if m.session == nil {
		if c.Verb() == "quit" || c.Verb() == "q" {
			return tea.Quit
		}
		return nil
	}

	switch c.Verb() {
	case "alerts":
		return m.open(ViewAlerts)
	case "threats", "malware":
		return m.openRecords(records.TabThreats)
	case "reports":
		return m.openRecords(records.TabReports)
	case "rules", "sigma":
		return m.open(ViewRules)
	case "settings":
		return m.open(ViewSettings)
	case "new-report", "report":
		return m.open(ViewReportForm)
	case "refresh", "sync":
		m.deps.Poller.RefreshNow()
		m.setStatus("Checking for new alerts...", false)
		return nil
	case "read-all":
		return m.markAllViewed()
	case "silent":
		s := m.settings
		args := c.Args()
		switch {
		case len(args) == 0:
			s.SilentMode = !s.SilentMode
		case args[0] == "on":
			s.SilentMode = true
		case args[0] == "off":
			s.SilentMode = false
		default:
			m.setStatus("usage: silent on|off", true)
			return nil
		}
		status := "Sound on"
		if s.SilentMode {
			status = "Silent mode on"
		}
		return m.saveSettings(s, status)
	case "clear-bookmarks":
		return m.clearBookmarks()
	case "logout":
		return m.logout(len(c.Args()) > 0 && c.Args()[0] == "--forget")
	case "quit", "q":
		return tea.Quit
	default:
		m.setStatus(fmt.Sprintf("unknown command %q", string(c)), true)
		return nil
	}
}
