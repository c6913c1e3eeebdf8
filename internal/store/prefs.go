package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nhle/threat-console/internal/events"
	"github.com/nhle/threat-console/internal/model"
)

// Namespaced preference keys.
const (
	KeySession              = "kc:session"
	KeyNotificationSettings = "kc:notification-settings"
	KeyViewedAlerts         = "kc:viewed-alerts"
	KeyBookmarks            = "kc:sigma-bookmarks"
	KeyScanHistory          = "kc:scan-history"
)

// DefaultViewedRetention is the number of viewed alert ids kept when no
// retention is configured.
const DefaultViewedRetention = 500

// Prefs is the local preference store. Getters never fail: a missing,
// unreadable or corrupt value yields the documented default. Setters
// persist first and then broadcast on the bus.
type Prefs struct {
	medium    Medium
	bus       *events.Bus
	logger    *zap.Logger
	retention int

	// mu serializes read-modify-write cycles within this process.
	mu sync.Mutex
}

// Option customizes a Prefs.
type Option func(*Prefs)

// WithViewedRetention caps the viewed alert set at n ids.
func WithViewedRetention(n int) Option {
	return func(p *Prefs) {
		if n > 0 {
			p.retention = n
		}
	}
}

// NewPrefs wraps medium. bus and logger must not be nil.
func NewPrefs(medium Medium, bus *events.Bus, logger *zap.Logger, opts ...Option) *Prefs {
	p := &Prefs{
		medium:    medium,
		bus:       bus,
		logger:    logger,
		retention: DefaultViewedRetention,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// readJSON decodes the value under key into dst and reports whether a
// usable value was found.
func (p *Prefs) readJSON(ctx context.Context, key string, dst any) bool {
	raw, ok, err := p.medium.Get(ctx, key)
	if err != nil {
		p.logger.Warn("preference read failed, using default",
			zap.String("key", key), zap.Error(err))
		return false
	}
	if !ok || len(raw) == 0 {
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		p.logger.Warn("corrupt preference value, using default",
			zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (p *Prefs) writeJSON(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	if err := p.medium.Put(ctx, key, raw); err != nil {
		return err
	}
	return nil
}

// Session returns the persisted session or nil when logged out.
func (p *Prefs) Session(ctx context.Context) *model.Session {
	var s model.Session
	if !p.readJSON(ctx, KeySession, &s) {
		return nil
	}
	if s.User.ID == 0 && s.User.Email == "" && s.User.Username == "" {
		return nil
	}
	return &s
}

// SetSession persists s and broadcasts SessionChanged.
func (p *Prefs) SetSession(ctx context.Context, s model.Session) error {
	if s.LoggedInAt.IsZero() {
		s.LoggedInAt = time.Now().UTC()
	}
	p.mu.Lock()
	err := p.writeJSON(ctx, KeySession, s)
	p.mu.Unlock()
	if err != nil {
		return err
	}
	p.bus.Publish(events.SessionChanged, nil)
	return nil
}

// ClearSession removes the session and broadcasts SessionChanged.
func (p *Prefs) ClearSession(ctx context.Context) error {
	p.mu.Lock()
	err := p.medium.Delete(ctx, KeySession)
	p.mu.Unlock()
	if err != nil {
		return err
	}
	p.bus.Publish(events.SessionChanged, nil)
	return nil
}

// NotificationSettings returns the stored toggles, all false by default.
func (p *Prefs) NotificationSettings(ctx context.Context) model.NotificationSettings {
	var s model.NotificationSettings
	if !p.readJSON(ctx, KeyNotificationSettings, &s) {
		return model.NotificationSettings{}
	}
	return s
}

// SetNotificationSettings overwrites the toggles and broadcasts
// NotificationSettingsChanged with the new record.
func (p *Prefs) SetNotificationSettings(ctx context.Context, s model.NotificationSettings) error {
	p.mu.Lock()
	err := p.writeJSON(ctx, KeyNotificationSettings, s)
	p.mu.Unlock()
	if err != nil {
		return err
	}
	p.bus.Publish(events.NotificationSettingsChanged, s)
	return nil
}

// ViewedAlerts returns the viewed alert ids, oldest first. Legacy numeric
// entries are accepted; unusable entries are skipped.
func (p *Prefs) ViewedAlerts(ctx context.Context) model.ViewedAlertSet {
	var raw []json.RawMessage
	if !p.readJSON(ctx, KeyViewedAlerts, &raw) {
		return model.ViewedAlertSet{}
	}
	set := make(model.ViewedAlertSet, 0, len(raw))
	for _, r := range raw {
		id, ok := model.ParseAlertID(r)
		if !ok || set.Contains(id) {
			continue
		}
		set = append(set, id)
	}
	return set
}

// MarkAlertViewed appends id to the viewed set, trimming the oldest ids
// beyond the retention cap. It reports whether id was newly inserted and
// only broadcasts ViewedAlertsChanged in that case.
func (p *Prefs) MarkAlertViewed(ctx context.Context, id model.AlertID) (bool, error) {
	if id == "" {
		return false, fmt.Errorf("empty alert id")
	}

	p.mu.Lock()
	set := p.ViewedAlerts(ctx)
	if set.Contains(id) {
		p.mu.Unlock()
		return false, nil
	}
	set = append(set, id)
	if over := len(set) - p.retention; over > 0 {
		set = set[over:]
	}
	err := p.writeJSON(ctx, KeyViewedAlerts, set)
	p.mu.Unlock()
	if err != nil {
		return false, err
	}

	p.bus.Publish(events.ViewedAlertsChanged, id)
	return true, nil
}

// ClearViewedAlerts empties the viewed set.
func (p *Prefs) ClearViewedAlerts(ctx context.Context) error {
	p.mu.Lock()
	err := p.medium.Delete(ctx, KeyViewedAlerts)
	p.mu.Unlock()
	if err != nil {
		return err
	}
	p.bus.Publish(events.ViewedAlertsChanged, model.AlertID(""))
	return nil
}

// Bookmarks returns the saved rule bookmarks, most recent first.
func (p *Prefs) Bookmarks(ctx context.Context) []model.Bookmark {
	var list []model.Bookmark
	if !p.readJSON(ctx, KeyBookmarks, &list) {
		return []model.Bookmark{}
	}
	if list == nil {
		return []model.Bookmark{}
	}
	return list
}

// SetBookmarks replaces the bookmark list.
func (p *Prefs) SetBookmarks(ctx context.Context, list []model.Bookmark) error {
	_, err := p.UpdateBookmarks(ctx, func([]model.Bookmark) []model.Bookmark {
		return list
	})
	return err
}

// UpdateBookmarks applies fn to the current list under the store lock,
// persists the result and broadcasts BookmarksChanged.
func (p *Prefs) UpdateBookmarks(ctx context.Context, fn func([]model.Bookmark) []model.Bookmark) ([]model.Bookmark, error) {
	p.mu.Lock()
	next := fn(p.Bookmarks(ctx))
	if next == nil {
		next = []model.Bookmark{}
	}
	err := p.writeJSON(ctx, KeyBookmarks, next)
	p.mu.Unlock()
	if err != nil {
		return nil, err
	}

	out := make([]model.Bookmark, len(next))
	copy(out, next)
	p.bus.Publish(events.BookmarksChanged, out)
	return next, nil
}

// Watch re-broadcasts changes written by other instances when the medium
// supports it. It blocks until ctx is done and returns nil immediately
// for media that cannot be watched.
func (p *Prefs) Watch(ctx context.Context) error {
	w, ok := p.medium.(Watcher)
	if !ok {
		return nil
	}
	return w.Watch(ctx, func(key string) {
		p.logger.Debug("external preference change", zap.String("key", key))
		switch key {
		case KeySession:
			p.bus.Publish(events.SessionChanged, nil)
		case KeyNotificationSettings:
			p.bus.Publish(events.NotificationSettingsChanged, p.NotificationSettings(ctx))
		case KeyBookmarks:
			p.bus.Publish(events.BookmarksChanged, p.Bookmarks(ctx))
		case KeyViewedAlerts:
			p.bus.Publish(events.ViewedAlertsChanged, model.AlertID(""))
		}
	})
}

// Close closes the underlying medium.
func (p *Prefs) Close() error {
	return p.medium.Close()
}
