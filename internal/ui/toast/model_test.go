package toast

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nhle/threat-console/internal/model"
)

func TestView_EmptyWithoutToasts(t *testing.T) {
	m := New(38)
	assert.Equal(t, "", m.View())
	assert.Equal(t, 0, m.Len())
}

func TestView_NewestFirstWithDismissHint(t *testing.T) {
	m := New(38)
	m.SetToasts([]model.NotificationToast{
		{ID: "2", Type: model.AlertTypeSigma, Message: "rule two", Username: "bo"},
		{ID: "1", Type: model.AlertTypeThreat, Message: "threat one"},
	})

	out := m.View()
	assert.Equal(t, 2, m.Len())
	assert.Less(t, strings.Index(out, "rule two"), strings.Index(out, "threat one"))
	assert.Equal(t, 1, strings.Count(out, "x to dismiss"))
	assert.Contains(t, out, "by bo")
	assert.Contains(t, out, "New Sigma rule")
}
