package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nhle/threat-console/internal/events"
	"github.com/nhle/threat-console/internal/model"
)

func newTestPrefs(t *testing.T, opts ...Option) (*Prefs, *events.Bus, Medium) {
	t.Helper()
	m := newMemoryMedium(t)
	bus := events.NewBus()
	return NewPrefs(m, bus, zap.NewNop(), opts...), bus, m
}

func TestPrefs_Defaults(t *testing.T) {
	p, _, _ := newTestPrefs(t)
	ctx := context.Background()

	assert.Nil(t, p.Session(ctx))
	assert.Equal(t, model.NotificationSettings{}, p.NotificationSettings(ctx))
	assert.Empty(t, p.ViewedAlerts(ctx))
	assert.NotNil(t, p.Bookmarks(ctx))
	assert.Empty(t, p.Bookmarks(ctx))
}

func TestPrefs_CorruptValuesFallBack(t *testing.T) {
	p, _, m := newTestPrefs(t)
	ctx := context.Background()

	for _, key := range []string{KeySession, KeyNotificationSettings, KeyViewedAlerts, KeyBookmarks} {
		require.NoError(t, m.Put(ctx, key, []byte("{not json")))
	}

	assert.Nil(t, p.Session(ctx))
	assert.Equal(t, model.NotificationSettings{}, p.NotificationSettings(ctx))
	assert.Empty(t, p.ViewedAlerts(ctx))
	assert.Empty(t, p.Bookmarks(ctx))
}

func TestPrefs_NotificationSettingsBroadcast(t *testing.T) {
	p, bus, _ := newTestPrefs(t)
	ctx := context.Background()

	var first, second []model.NotificationSettings
	bus.Subscribe(events.NotificationSettingsChanged, func(ev events.Event) {
		first = append(first, ev.Payload.(model.NotificationSettings))
	})
	bus.Subscribe(events.NotificationSettingsChanged, func(ev events.Event) {
		second = append(second, ev.Payload.(model.NotificationSettings))
	})

	want := model.NotificationSettings{SilentMode: true, DisableSigma: true}
	require.NoError(t, p.SetNotificationSettings(ctx, want))

	assert.Equal(t, []model.NotificationSettings{want}, first)
	assert.Equal(t, first, second)
	assert.Equal(t, want, p.NotificationSettings(ctx))
}

func TestPrefs_SessionRoundTrip(t *testing.T) {
	p, bus, _ := newTestPrefs(t)
	ctx := context.Background()

	changes := 0
	bus.Subscribe(events.SessionChanged, func(events.Event) { changes++ })

	require.NoError(t, p.SetSession(ctx, model.Session{User: model.User{ID: 7, Username: "ana", Email: "ana@example.com"}}))
	s := p.Session(ctx)
	require.NotNil(t, s)
	assert.Equal(t, int64(7), s.User.ID)
	assert.False(t, s.LoggedInAt.IsZero())

	require.NoError(t, p.ClearSession(ctx))
	assert.Nil(t, p.Session(ctx))
	assert.Equal(t, 2, changes)
}

func TestPrefs_MarkAlertViewed(t *testing.T) {
	p, bus, _ := newTestPrefs(t)
	ctx := context.Background()

	var ids []model.AlertID
	bus.Subscribe(events.ViewedAlertsChanged, func(ev events.Event) {
		ids = append(ids, ev.Payload.(model.AlertID))
	})

	inserted, err := p.MarkAlertViewed(ctx, "42")
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = p.MarkAlertViewed(ctx, "42")
	require.NoError(t, err)
	assert.False(t, inserted)

	assert.Equal(t, model.ViewedAlertSet{"42"}, p.ViewedAlerts(ctx))
	assert.Equal(t, []model.AlertID{"42"}, ids)

	_, err = p.MarkAlertViewed(ctx, "")
	assert.Error(t, err)
}

func TestPrefs_ViewedRetention(t *testing.T) {
	p, _, _ := newTestPrefs(t, WithViewedRetention(3))
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		_, err := p.MarkAlertViewed(ctx, model.AlertID(fmt.Sprint(i)))
		require.NoError(t, err)
	}

	assert.Equal(t, model.ViewedAlertSet{"3", "4", "5"}, p.ViewedAlerts(ctx))
}

func TestPrefs_ViewedAlertsAcceptsNumericIDs(t *testing.T) {
	p, _, m := newTestPrefs(t)
	ctx := context.Background()

	require.NoError(t, m.Put(ctx, KeyViewedAlerts, []byte(`[4, "5", null, 4, ""]`)))
	assert.Equal(t, model.ViewedAlertSet{"4", "5"}, p.ViewedAlerts(ctx))
}

func TestPrefs_Bookmarks(t *testing.T) {
	p, bus, _ := newTestPrefs(t)
	ctx := context.Background()

	var got [][]model.Bookmark
	bus.Subscribe(events.BookmarksChanged, func(ev events.Event) {
		got = append(got, ev.Payload.([]model.Bookmark))
	})

	list := []model.Bookmark{{ID: 2, Name: "b"}, {ID: 1, Name: "a"}}
	require.NoError(t, p.SetBookmarks(ctx, list))
	assert.Equal(t, list, p.Bookmarks(ctx))

	require.NoError(t, p.SetBookmarks(ctx, nil))
	assert.Equal(t, []model.Bookmark{}, p.Bookmarks(ctx))

	require.Len(t, got, 2)
	assert.Equal(t, list, got[0])
	assert.Empty(t, got[1])
}

func TestPrefs_WatchWithoutWatcher(t *testing.T) {
	p, _, _ := newTestPrefs(t)
	assert.NoError(t, p.Watch(context.Background()))
}

func TestPrefs_WatchRepublishesExternalChanges(t *testing.T) {
	mr, localMedium := setupTestRedis(t)
	remoteMedium := newRedisMedium(redis.NewClient(&redis.Options{Addr: mr.Addr()}), RedisOptions{})

	localBus := events.NewBus()
	local := NewPrefs(localMedium, localBus, zap.NewNop())
	remote := NewPrefs(remoteMedium, events.NewBus(), zap.NewNop())
	defer remote.Close()

	received := make(chan model.NotificationSettings, 1)
	localBus.Subscribe(events.NotificationSettingsChanged, func(ev events.Event) {
		received <- ev.Payload.(model.NotificationSettings)
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = local.Watch(ctx) }()

	require.Eventually(t, func() bool {
		return mr.PubSubNumSub(defaultRedisChannel)[defaultRedisChannel] == 1
	}, 2*time.Second, 10*time.Millisecond)

	want := model.NotificationSettings{DisableThreats: true}
	require.NoError(t, remote.SetNotificationSettings(context.Background(), want))

	select {
	case got := <-received:
		assert.Equal(t, want, got)
	case <-time.After(2 * time.Second):
		t.Fatal("external change was not republished")
	}
}
