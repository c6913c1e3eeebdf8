package testutil

import (
	"testing"

	"go.uber.org/zap"

	"github.com/nhle/threat-console/internal/events"
	"github.com/nhle/threat-console/internal/store"
)

// NewTestMedium creates an in-memory SQLiteMedium with all migrations applied.
// It automatically closes the medium when the test completes.
func NewTestMedium(t *testing.T) *store.SQLiteMedium {
	t.Helper()

	m, err := store.NewSQLiteMedium(":memory:")
	if err != nil {
		t.Fatalf("creating test medium: %v", err)
	}

	t.Cleanup(func() {
		if err := m.Close(); err != nil {
			t.Errorf("closing test medium: %v", err)
		}
	})

	return m
}

// NewTestPrefs returns a preference store backed by NewTestMedium together
// with the bus it publishes on.
func NewTestPrefs(t *testing.T, opts ...store.Option) (*store.Prefs, *events.Bus) {
	t.Helper()

	bus := events.NewBus()
	return store.NewPrefs(NewTestMedium(t), bus, zap.NewNop(), opts...), bus
}
