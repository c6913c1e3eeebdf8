// Package session owns the logged-in user for the lifetime of the
// console. The persisted copy lives in the preference store; Manager
// keeps a cache that follows SessionChanged.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nhle/threat-console/internal/api"
	"github.com/nhle/threat-console/internal/credential"
	"github.com/nhle/threat-console/internal/events"
	"github.com/nhle/threat-console/internal/model"
	"github.com/nhle/threat-console/internal/store"
)

// ErrInvalidInput is returned for form input rejected before any request.
var ErrInvalidInput = errors.New("invalid input")

// Authenticator is the backend side of login and registration.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (model.User, error)
	Register(ctx context.Context, req api.RegisterRequest) error
}

// Manager logs users in and out.
type Manager struct {
	auth   Authenticator
	prefs  *store.Prefs
	creds  credential.Store
	logger *zap.Logger

	mu          sync.RWMutex
	current     *model.Session
	unsubscribe func()
}

// NewManager creates a Manager. creds may be nil, which disables
// remembered passwords.
func NewManager(
	auth Authenticator,
	prefs *store.Prefs,
	bus *events.Bus,
	creds credential.Store,
	logger *zap.Logger,
) *Manager {
	m := &Manager{
		auth:   auth,
		prefs:  prefs,
		creds:  creds,
		logger: logger,
	}
	m.unsubscribe = bus.Subscribe(events.SessionChanged, func(events.Event) {
		m.reload(context.Background())
	})
	return m
}

// Init loads the persisted session and returns it, or nil when logged out.
func (m *Manager) Init(ctx context.Context) *model.Session {
	m.reload(ctx)
	return m.Current()
}

func (m *Manager) reload(ctx context.Context) {
	s := m.prefs.Session(ctx)
	m.mu.Lock()
	m.current = s
	m.mu.Unlock()
}

// Current returns a copy of the active session, or nil.
func (m *Manager) Current() *model.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return nil
	}
	s := *m.current
	return &s
}

// LoggedIn reports whether a user is logged in.
func (m *Manager) LoggedIn() bool {
	return m.Current() != nil
}

// Login authenticates and persists the session. When remember is set the
// password is kept in the credential store for the next login; otherwise
// any remembered password for email is dropped.
func (m *Manager) Login(ctx context.Context, email, password string, remember bool) (model.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return model.User{}, fmt.Errorf("%w: email and password are required", ErrInvalidInput)
	}

	user, err := m.auth.Login(ctx, email, password)
	if err != nil {
		m.logger.Info("login rejected", zap.String("email", email), zap.Error(err))
		return model.User{}, err
	}

	if err := m.prefs.SetSession(ctx, model.Session{User: user, LoggedInAt: time.Now().UTC()}); err != nil {
		return model.User{}, fmt.Errorf("saving session: %w", err)
	}

	if m.creds != nil {
		key := credential.AccountKey(email)
		if remember {
			if err := m.creds.Set(key, password); err != nil {
				m.logger.Warn("remembering password failed", zap.Error(err))
			}
		} else if err := m.creds.Delete(key); err != nil {
			m.logger.Warn("forgetting password failed", zap.Error(err))
		}
	}

	m.logger.Info("logged in", zap.Int64("user_id", user.ID), zap.String("username", user.Username))
	return user, nil
}

// Register creates an account. The caller logs in separately.
func (m *Manager) Register(ctx context.Context, username, email, password string) error {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || password == "" {
		return fmt.Errorf("%w: username, email and password are required", ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("%w: %q is not an email address", ErrInvalidInput, email)
	}

	return m.auth.Register(ctx, api.RegisterRequest{
		Username: username,
		Email:    email,
		Password: password,
	})
}

// RememberedPassword returns the stored password for email, if any.
func (m *Manager) RememberedPassword(email string) (string, bool) {
	if m.creds == nil || strings.TrimSpace(email) == "" {
		return "", false
	}
	pw, err := m.creds.Get(credential.AccountKey(email))
	if err != nil {
		if !errors.Is(err, credential.ErrNotFound) {
			m.logger.Warn("reading remembered password failed", zap.Error(err))
		}
		return "", false
	}
	return pw, true
}

// Logout clears the session. With forget the remembered password of the
// current user is dropped too.
func (m *Manager) Logout(ctx context.Context, forget bool) error {
	current := m.Current()
	if forget && current != nil && m.creds != nil && current.User.Email != "" {
		if err := m.creds.Delete(credential.AccountKey(current.User.Email)); err != nil {
			m.logger.Warn("forgetting password failed", zap.Error(err))
		}
	}
	if err := m.prefs.ClearSession(ctx); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	m.logger.Info("logged out")
	return nil
}

// Close stops following session changes.
func (m *Manager) Close() {
	m.unsubscribe()
}
