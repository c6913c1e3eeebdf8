package session

import (
	"context"
	"net/http"
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nhle/threat-console/internal/api"
	"github.com/nhle/threat-console/internal/credential"
	"github.com/nhle/threat-console/internal/events"
	"github.com/nhle/threat-console/internal/model"
	"github.com/nhle/threat-console/tests/testutil"
)

type fakeAuth struct {
	users      map[string]model.User
	passwords  map[string]string
	registered []api.RegisterRequest
}

func (f *fakeAuth) Login(_ context.Context, email, password string) (model.User, error) {
	u, ok := f.users[email]
	if !ok || f.passwords[email] != password {
		return model.User{}, &api.Error{Status: http.StatusUnauthorized, Method: http.MethodPost, Path: "/login", Message: "Invalid credentials!"}
	}
	return u, nil
}

func (f *fakeAuth) Register(_ context.Context, req api.RegisterRequest) error {
	f.registered = append(f.registered, req)
	return nil
}

func newTestManager(t *testing.T) (*Manager, *credential.Keyring, *events.Bus) {
	t.Helper()
	prefs, bus := testutil.NewTestPrefs(t)
	auth := &fakeAuth{
		users:     map[string]model.User{"ana@example.com": {ID: 1, Username: "ana", Email: "ana@example.com", Role: "Analyst"}},
		passwords: map[string]string{"ana@example.com": "pw"},
	}
	creds := credential.NewKeyring(keyring.NewArrayKeyring(nil))
	m := NewManager(auth, prefs, bus, creds, zap.NewNop())
	t.Cleanup(m.Close)
	return m, creds, bus
}

func TestLogin_PersistsAndBroadcasts(t *testing.T) {
	m, _, bus := newTestManager(t)
	ctx := context.Background()

	changes := 0
	bus.Subscribe(events.SessionChanged, func(events.Event) { changes++ })

	assert.Nil(t, m.Init(ctx))

	u, err := m.Login(ctx, "ana@example.com", "pw", true)
	require.NoError(t, err)
	assert.Equal(t, "ana", u.Username)
	assert.Equal(t, 1, changes)

	cur := m.Current()
	require.NotNil(t, cur)
	assert.Equal(t, int64(1), cur.User.ID)

	pw, ok := m.RememberedPassword("ana@example.com")
	assert.True(t, ok)
	assert.Equal(t, "pw", pw)

	require.NoError(t, m.Logout(ctx, false))
	assert.Nil(t, m.Current())
	assert.Equal(t, 2, changes)

	_, ok = m.RememberedPassword("ana@example.com")
	assert.True(t, ok)
}

func TestLogout_Forget(t *testing.T) {
	m, creds, _ := newTestManager(t)
	ctx := context.Background()

	_, err := m.Login(ctx, "ana@example.com", "pw", true)
	require.NoError(t, err)
	require.NoError(t, m.Logout(ctx, true))

	_, err = creds.Get(credential.AccountKey("ana@example.com"))
	assert.ErrorIs(t, err, credential.ErrNotFound)
}

func TestLogin_Rejected(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()

	_, err := m.Login(ctx, "ana@example.com", "nope", false)
	assert.True(t, api.IsUnauthorized(err))
	assert.Equal(t, "Invalid credentials!", api.UserMessage(err))
	assert.False(t, m.LoggedIn())

	_, err = m.Login(ctx, "", "", false)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestLogin_WithoutRememberForgetsPassword(t *testing.T) {
	m, creds, _ := newTestManager(t)
	ctx := context.Background()
	require.NoError(t, creds.Set(credential.AccountKey("ana@example.com"), "old"))

	_, err := m.Login(ctx, "ana@example.com", "pw", false)
	require.NoError(t, err)

	_, ok := m.RememberedPassword("ana@example.com")
	assert.False(t, ok)
}

func TestInit_RestoresPersistedSession(t *testing.T) {
	prefs, bus := testutil.NewTestPrefs(t)
	ctx := context.Background()
	require.NoError(t, prefs.SetSession(ctx, model.Session{User: model.User{ID: 4, Username: "bob"}}))

	m := NewManager(&fakeAuth{}, prefs, bus, nil, zap.NewNop())
	defer m.Close()

	s := m.Init(ctx)
	require.NotNil(t, s)
	assert.Equal(t, "bob", s.User.Username)

	// Another writer clearing the session is picked up from the bus.
	require.NoError(t, prefs.ClearSession(ctx))
	assert.Nil(t, m.Current())
}

func TestRegister_Validates(t *testing.T) {
	prefs, bus := testutil.NewTestPrefs(t)
	auth := &fakeAuth{}
	m := NewManager(auth, prefs, bus, nil, zap.NewNop())
	defer m.Close()
	ctx := context.Background()

	assert.ErrorIs(t, m.Register(ctx, "ana", "not-an-email", "pw"), ErrInvalidInput)
	assert.ErrorIs(t, m.Register(ctx, "", "ana@example.com", "pw"), ErrInvalidInput)

	require.NoError(t, m.Register(ctx, " ana ", "ana@example.com", "pw"))
	require.Len(t, auth.registered, 1)
	assert.Equal(t, "ana", auth.registered[0].Username)
}
