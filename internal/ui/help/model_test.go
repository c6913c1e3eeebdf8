package help

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/nhle/threat-console/internal/keys"
	"github.com/nhle/threat-console/internal/model"
)

func TestContent_ReflectsNotificationSettings(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 100, 80)
	m.SetNotifications(model.NotificationSettings{SilentMode: true, DisableSigma: true}, 10*time.Second)

	content := m.content()
	assert.Contains(t, content, "every 10s")
	assert.Contains(t, content, "logout --forget")
	assert.Regexp(t, `Bell\s+\S*off`, content)
	assert.Regexp(t, `Threats\s+shown`, content)
	assert.Regexp(t, `Sigma rules\s+\S*hidden`, content)
}

func TestContent_DefaultsShowEverything(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 100, 80)
	content := m.content()

	assert.NotContains(t, content, "checked every")
	assert.Regexp(t, `Bell\s+on`, content)
	assert.Regexp(t, `Reports\s+shown`, content)
}
