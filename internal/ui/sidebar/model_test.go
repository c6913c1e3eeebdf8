package sidebar

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nhle/threat-console/internal/model"
)

func TestView_ShowsUserUnreadAndBookmarks(t *testing.T) {
	m := New(30, 30)
	m.SetUser(&model.User{Username: "analyst", Role: "admin"})
	m.SetUnread(4)
	m.SetBookmarks([]model.Bookmark{{ID: 1, Name: "Suspicious PowerShell"}})
	m.SetSettings(model.NotificationSettings{SilentMode: true, DisableSigma: true})

	out := m.View()
	assert.Contains(t, out, "analyst")
	assert.Contains(t, out, "4")
	assert.Contains(t, out, "Suspicious")
	assert.Contains(t, out, "silent")
	assert.Contains(t, out, "Muted: sigma")
	assert.Equal(t, 4, m.Unread())
}

func TestView_EmptyBookmarks(t *testing.T) {
	m := New(30, 30)
	assert.Contains(t, m.View(), "none yet")
}

func TestView_BookmarkOverflow(t *testing.T) {
	m := New(30, 40)
	var list []model.Bookmark
	for i := 0; i < maxBookmarks+3; i++ {
		list = append(list, model.Bookmark{ID: int64(i), Name: fmt.Sprintf("rule-%d", i)})
	}
	m.SetBookmarks(list)
	assert.Contains(t, m.View(), "+3 more")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
}
