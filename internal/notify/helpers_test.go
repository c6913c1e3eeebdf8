package notify

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/nhle/threat-console/internal/events"
	"github.com/nhle/threat-console/internal/model"
	"github.com/nhle/threat-console/internal/store"
	"github.com/nhle/threat-console/tests/testutil"
)

type fakeTimer struct {
	fn      func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

// fakeClock records scheduled expiries so tests fire them explicitly.
type fakeClock struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (c *fakeClock) AfterFunc(_ time.Duration, f func()) Stopper {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{fn: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) timer(i int) *fakeTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timers[i]
}

// fire runs the i-th expiry as the runtime would, unless it was stopped.
func (c *fakeClock) fire(i int) {
	t := c.timer(i)
	if t.stopped {
		return
	}
	t.stopped = true
	t.fn()
}

type fakeSource struct {
	mu     sync.Mutex
	alerts []model.Alert
	err    error
	calls  int
}

func (s *fakeSource) set(alerts []model.Alert, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = alerts
	s.err = err
}

func (s *fakeSource) Alerts(context.Context) ([]model.Alert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.alerts, s.err
}

func (s *fakeSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type fixture struct {
	prefs *store.Prefs
	bus   *events.Bus
	clock *fakeClock
	queue *Queue

	// insertions counts viewed-set insertions.
	insertions int
	mu         sync.Mutex
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	prefs, bus := testutil.NewTestPrefs(t)
	f := &fixture{prefs: prefs, bus: bus, clock: &fakeClock{}}
	f.queue = NewQueue(prefs, bus, zap.NewNop(), WithAfterFunc(f.clock.AfterFunc))
	bus.Subscribe(events.ViewedAlertsChanged, func(events.Event) {
		f.mu.Lock()
		f.insertions++
		f.mu.Unlock()
	})
	t.Cleanup(f.queue.Close)
	return f
}

func (f *fixture) insertionCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.insertions
}

func (f *fixture) newPoller(src AlertSource, opts ...PollerOption) *Poller {
	return NewPoller(src, f.prefs, f.queue, f.bus, zap.NewNop(), opts...)
}

func alert(id string, typ model.AlertType) model.Alert {
	return model.Alert{ID: model.AlertID(id), Type: typ, Message: "alert " + id, Username: "System"}
}

func toast(id string) model.NotificationToast {
	return model.ToastFromAlert(alert(id, model.AlertTypeThreat))
}

func ids(toasts []model.NotificationToast) []model.AlertID {
	out := make([]model.AlertID, len(toasts))
	for i, t := range toasts {
		out[i] = t.ID
	}
	return out
}
