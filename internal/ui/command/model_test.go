package command

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandMsg_VerbAndArgs(t *testing.T) {
	c := CommandMsg("  Silent   on ")
	assert.Equal(t, "silent", c.Verb())
	assert.Equal(t, []string{"on"}, c.Args())

	assert.Equal(t, "", CommandMsg("").Verb())
	assert.Nil(t, CommandMsg("quit").Args())
}

func TestModel_EnterEmitsCommand(t *testing.T) {
	m := New(80, 20)
	for _, r := range "refresh" {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, CommandMsg("refresh"), cmd())

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, CancelMsg{}, cmd())
}

func TestModel_EscCancels(t *testing.T) {
	m := New(80, 20)
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, CancelMsg{}, cmd())
}

func TestMatching(t *testing.T) {
	assert.Len(t, Matching(""), len(Entries))

	got := Matching("Sil")
	require.Len(t, got, 2)
	assert.Equal(t, "silent on", got[0].Usage)
	assert.Equal(t, "silent off", got[1].Usage)

	got = Matching("logout")
	require.Len(t, got, 2)
	assert.Equal(t, "logout --forget", got[1].Usage)

	assert.Empty(t, Matching("xyz"))
}

func TestView_ListsMatches(t *testing.T) {
	m := New(80, 20)
	for _, r := range "re" {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	view := m.View()
	assert.Contains(t, view, "reports")
	assert.Contains(t, view, "refresh")
	assert.Contains(t, view, "read-all")
	assert.NotContains(t, view, "settings")
}
