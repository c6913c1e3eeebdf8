package rules

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/threat-console/internal/keys"
	"github.com/nhle/threat-console/internal/model"
)

type fakeSource struct {
	rules   []model.SigmaRule
	queries []string
}

func (f *fakeSource) SigmaRules(_ context.Context, q string) ([]model.SigmaRule, error) {
	f.queries = append(f.queries, q)
	return f.rules, nil
}

func (f *fakeSource) SigmaRule(_ context.Context, id int64) (model.SigmaRule, error) {
	for _, r := range f.rules {
		if r.ID == id {
			r.Content = "detection:\n  condition: selection"
			return r, nil
		}
	}
	return model.SigmaRule{}, errors.New("not found")
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func loaded(t *testing.T, src *fakeSource) Model {
	t.Helper()
	m := New(src, keys.DefaultKeyMap(), 80, 24)
	msg := m.Init()()
	m, _ = m.Update(msg)
	return m
}

func TestLoad_ListsRules(t *testing.T) {
	src := &fakeSource{rules: []model.SigmaRule{
		{ID: 1, Name: "Mimikatz", Filename: "mimi.yml"},
		{ID: 2, Name: "PsExec"},
	}}
	m := loaded(t, src)
	assert.Contains(t, m.View(), "Mimikatz")
	assert.Equal(t, []string{""}, src.queries)
}

func TestBookmarkKeyEmitsToggle(t *testing.T) {
	src := &fakeSource{rules: []model.SigmaRule{{ID: 1, Name: "Mimikatz"}}}
	m := loaded(t, src)

	_, cmd := m.Update(runes("b"))
	require.NotNil(t, cmd)
	assert.Equal(t, ToggleBookmarkMsg{Bookmark: model.Bookmark{ID: 1, Name: "Mimikatz"}}, cmd())

	m.SetBookmarks([]model.Bookmark{{ID: 1, Name: "Mimikatz"}})
	assert.Contains(t, m.View(), "★")
}

func TestSearch_SendsQuery(t *testing.T) {
	src := &fakeSource{}
	m := loaded(t, src)

	m, _ = m.Update(runes("/"))
	assert.True(t, m.CapturesInput())
	m, _ = m.Update(runes("lsass"))
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	cmd()

	assert.False(t, m.CapturesInput())
	assert.Equal(t, []string{"", "lsass"}, src.queries)
	assert.Contains(t, m.View(), "filter: lsass")
}

func TestDetail_OpenAndBack(t *testing.T) {
	src := &fakeSource{rules: []model.SigmaRule{{ID: 1, Name: "Mimikatz"}}}
	m := loaded(t, src)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	m, _ = m.Update(cmd())
	assert.True(t, m.InDetail())
	assert.Contains(t, m.View(), "condition: selection")

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.InDetail())
}

func TestLoadError_Shown(t *testing.T) {
	m := New(&fakeSource{}, keys.DefaultKeyMap(), 80, 24)
	m, _ = m.Update(LoadedMsg{Err: errors.New("backend down")})
	assert.Contains(t, m.View(), "backend down")
}
