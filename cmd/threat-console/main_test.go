package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nhle/threat-console/internal/model"
)

func TestRunMain_ExitCodes(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantOut  string
	}{
		{name: "success", err: nil, wantCode: 0},
		{name: "plain error", err: errors.New("boom"), wantCode: 1, wantOut: "boom"},
		{name: "canceled", err: fmt.Errorf("run: %w", context.Canceled), wantCode: 130, wantOut: "canceled"},
		{name: "exit error", err: &exitError{code: 3, err: errors.New("bad")}, wantCode: 3, wantOut: "bad"},
		{name: "silent exit error", err: &exitError{code: 4, silent: true}, wantCode: 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			code := runMain(func() error { return tt.err }, &out)
			assert.Equal(t, tt.wantCode, code)
			if tt.wantOut == "" {
				assert.Empty(t, out.String())
			} else {
				assert.Contains(t, out.String(), tt.wantOut)
			}
		})
	}
}

func TestExitError_Message(t *testing.T) {
	assert.Equal(t, "exit 2", (&exitError{code: 2}).Error())
	inner := errors.New("inner")
	ee := &exitError{code: 1, err: inner}
	assert.Equal(t, "inner", ee.Error())
	assert.ErrorIs(t, ee, inner)
}

func TestApplySetting(t *testing.T) {
	s, err := applySetting(model.NotificationSettings{}, "silent", true)
	require.NoError(t, err)
	assert.True(t, s.SilentMode)

	s, err = applySetting(s, "Sigma", false)
	require.NoError(t, err)
	assert.True(t, s.DisableSigma)

	s, err = applySetting(s, "reports", false)
	require.NoError(t, err)
	assert.True(t, s.DisableReports)

	s, err = applySetting(s, "threats", true)
	require.NoError(t, err)
	assert.False(t, s.DisableThreats)

	_, err = applySetting(s, "volume", true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown setting")
}

func TestWriteAlertTable(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, writeAlertTable(&out, nil))
	assert.Equal(t, "No alerts.\n", out.String())

	out.Reset()
	rows := []alertRow{
		{Alert: model.Alert{ID: "2", Type: model.AlertTypeSigma, Message: "rule added", Username: "ana"}},
		{Alert: model.Alert{ID: "1", Type: model.AlertTypeReport, Message: "report filed", Username: "bo"}, Viewed: true},
	}
	require.NoError(t, writeAlertTable(&out, rows))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.True(t, strings.HasPrefix(lines[1], "2*"))
	assert.Contains(t, lines[1], "rule added")
	assert.True(t, strings.HasPrefix(lines[2], "1 "))
}

func testConfig(t *testing.T, baseURL string) *model.AppConfig {
	t.Helper()
	dir := t.TempDir()
	return &model.AppConfig{
		API:     model.APIConfig{BaseURL: baseURL, TimeoutSec: 2},
		Storage: model.StorageConfig{Driver: "sqlite", Path: filepath.Join(dir, "prefs.db")},
		Log:     model.LogConfig{Level: "error"},
		Notifications: model.NotificationConfig{
			PollIntervalSec: 10,
			ToastTTLSec:     5,
			MaxToasts:       3,
			ViewedRetention: 500,
		},
	}
}

func TestPrintAlerts_JSONMarksViewed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/alerts", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":7,"type":"threat","message":"new malware"},{"type":"sigma"},{"id":"6","type":"report"}]`))
	}))
	defer srv.Close()

	cfg := testConfig(t, srv.URL)
	ctx := context.Background()

	prefs, _, err := openPrefs(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	_, err = prefs.MarkAlertViewed(ctx, "6")
	require.NoError(t, err)
	require.NoError(t, prefs.Close())

	var out bytes.Buffer
	require.NoError(t, printAlerts(ctx, &out, cfg, zap.NewNop(), true))

	s := out.String()
	assert.Contains(t, s, `"id": "7"`)
	assert.Contains(t, s, `"id": "6"`)
	assert.Equal(t, 2, strings.Count(s, `"viewed"`))
	assert.Contains(t, s, `"viewed": true`)
	assert.Contains(t, s, `"viewed": false`)
}

func TestPrintAlerts_BackendFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	cfg := testConfig(t, srv.URL)
	var out bytes.Buffer
	err := printAlerts(context.Background(), &out, cfg, zap.NewNop(), false)

	var ee *exitError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, 1, ee.code)
}

func TestSettingsSetCommand_Persists(t *testing.T) {
	path, _ := writeCLIConfig(t, "http://unused")

	out, err := execute(t, "--config", path, "settings", "set", "sigma", "false")
	require.NoError(t, err)
	assert.Contains(t, out, "sigma    false")

	out, err = execute(t, "--config", path, "settings", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "sigma    false")
	assert.Contains(t, out, "silent   false")

	out, err = execute(t, "--config", path, "bookmarks", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No bookmarks.")

	_, err = execute(t, "--config", path, "settings", "set", "volume", "true")
	assert.Error(t, err)
}

func TestBookmarksRemoveCommand(t *testing.T) {
	path, cfg := writeCLIConfig(t, "http://unused")

	ctx := context.Background()
	prefs, _, err := openPrefs(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, prefs.SetBookmarks(ctx, []model.Bookmark{
		{ID: 9, Name: "Suspicious PowerShell"},
		{ID: 4, Name: "Mimikatz"},
	}))
	require.NoError(t, prefs.Close())

	out, err := execute(t, "--config", path, "bookmarks", "remove", "9")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed bookmark on rule 9.")

	out, err = execute(t, "--config", path, "bookmarks", "remove", "9")
	require.NoError(t, err)
	assert.Contains(t, out, "Rule 9 is not bookmarked.")

	out, err = execute(t, "--config", path, "bookmarks", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "4\tMimikatz")
	assert.NotContains(t, out, "Suspicious PowerShell")

	_, err = execute(t, "--config", path, "bookmarks", "remove", "abc")
	assert.Error(t, err)
}

func TestUsersCommand_RequiresSession(t *testing.T) {
	path, _ := writeCLIConfig(t, "http://unused")

	_, err := execute(t, "--config", path, "users", "list")
	var ee *exitError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, 2, ee.code)
}

// writeCLIConfig writes a config file pointing at baseURL and a fresh
// SQLite preference file, and returns the config path and the loaded
// config.
func writeCLIConfig(t *testing.T, baseURL string) (string, *model.AppConfig) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := "api:\n  base_url: " + baseURL + "\nstorage:\n  driver: sqlite\n  path: " + filepath.Join(dir, "prefs.db") + "\nlog:\n  level: error\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := model.LoadConfig(path)
	require.NoError(t, err)
	return path, cfg
}

// seedSession stores a logged-in session in cfg's preference file.
func seedSession(t *testing.T, cfg *model.AppConfig, user model.User) {
	t.Helper()
	ctx := context.Background()
	prefs, _, err := openPrefs(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, prefs.SetSession(ctx, model.Session{User: user}))
	require.NoError(t, prefs.Close())
}

// execute runs the root command with args and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return out.String(), err
}
