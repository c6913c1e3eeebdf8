package notify

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nhle/threat-console/internal/events"
	"github.com/nhle/threat-console/internal/model"
)

const (
	// DefaultMaxToasts is the number of toasts shown at once.
	DefaultMaxToasts = 3

	// DefaultToastTTL is how long a toast stays up without interaction.
	DefaultToastTTL = 5 * time.Second
)

// ViewedMarker records that an alert has been seen.
type ViewedMarker interface {
	MarkAlertViewed(ctx context.Context, id model.AlertID) (bool, error)
}

// Stopper is the handle of a pending expiry.
type Stopper interface {
	Stop() bool
}

// AfterFunc schedules f after d. time.AfterFunc satisfies it through
// StdAfterFunc.
type AfterFunc func(d time.Duration, f func()) Stopper

// StdAfterFunc schedules with the runtime timer.
func StdAfterFunc(d time.Duration, f func()) Stopper {
	return time.AfterFunc(d, f)
}

type activeToast struct {
	toast model.NotificationToast
	timer Stopper
}

// Queue is the bounded, newest-first set of visible toasts. Each toast
// leaves the queue exactly once, either by dismissal or by expiry, and
// only then is its alert marked viewed. Evicted toasts are not marked.
type Queue struct {
	marker    ViewedMarker
	bus       *events.Bus
	logger    *zap.Logger
	observer  Observer
	afterFunc AfterFunc
	max       int
	ttl       time.Duration

	mu     sync.Mutex
	toasts []activeToast
	closed bool
}

// QueueOption customizes a Queue.
type QueueOption func(*Queue)

// WithMaxToasts bounds the number of visible toasts.
func WithMaxToasts(n int) QueueOption {
	return func(q *Queue) {
		if n > 0 {
			q.max = n
		}
	}
}

// WithToastTTL sets how long a toast lives.
func WithToastTTL(d time.Duration) QueueOption {
	return func(q *Queue) {
		if d > 0 {
			q.ttl = d
		}
	}
}

// WithAfterFunc replaces the expiry scheduler.
func WithAfterFunc(fn AfterFunc) QueueOption {
	return func(q *Queue) {
		q.afterFunc = fn
	}
}

// WithQueueObserver reports queue activity to o.
func WithQueueObserver(o Observer) QueueOption {
	return func(q *Queue) {
		q.observer = o
	}
}

// NewQueue creates an empty Queue.
func NewQueue(marker ViewedMarker, bus *events.Bus, logger *zap.Logger, opts ...QueueOption) *Queue {
	q := &Queue{
		marker:    marker,
		bus:       bus,
		logger:    logger,
		observer:  nopObserver{},
		afterFunc: StdAfterFunc,
		max:       DefaultMaxToasts,
		ttl:       DefaultToastTTL,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Admit puts toast at the head of the queue and starts its expiry. It
// returns false when a toast with the same id is already visible or the
// queue is closed.
func (q *Queue) Admit(toast model.NotificationToast) bool {
	q.mu.Lock()
	if q.closed || q.indexLocked(toast.ID) >= 0 {
		q.mu.Unlock()
		return false
	}

	id := toast.ID
	timer := q.afterFunc(q.ttl, func() {
		q.dismiss(context.Background(), id, DismissExpired)
	})

	q.toasts = append([]activeToast{{toast: toast, timer: timer}}, q.toasts...)
	var evicted []activeToast
	if len(q.toasts) > q.max {
		evicted = append(evicted, q.toasts[q.max:]...)
		q.toasts = q.toasts[:q.max:q.max]
	}
	snapshot := q.snapshotLocked()
	q.mu.Unlock()

	for _, e := range evicted {
		e.timer.Stop()
		q.logger.Debug("toast evicted", zap.String("alert_id", string(e.toast.ID)))
	}

	q.observer.ToastAdmitted()
	q.observer.ToastsActive(len(snapshot))
	q.bus.Publish(events.ToastsChanged, snapshot)
	return true
}

// Dismiss removes the toast with id and marks its alert viewed. It
// reports false when no such toast is visible.
func (q *Queue) Dismiss(ctx context.Context, id model.AlertID) bool {
	return q.dismiss(ctx, id, DismissUser)
}

// DismissNewest dismisses the head of the queue.
func (q *Queue) DismissNewest(ctx context.Context) bool {
	q.mu.Lock()
	if len(q.toasts) == 0 {
		q.mu.Unlock()
		return false
	}
	id := q.toasts[0].toast.ID
	q.mu.Unlock()
	return q.dismiss(ctx, id, DismissUser)
}

func (q *Queue) dismiss(ctx context.Context, id model.AlertID, reason string) bool {
	q.mu.Lock()
	idx := q.indexLocked(id)
	if idx < 0 {
		q.mu.Unlock()
		return false
	}
	removed := q.toasts[idx]
	q.toasts = append(q.toasts[:idx:idx], q.toasts[idx+1:]...)
	snapshot := q.snapshotLocked()
	q.mu.Unlock()

	removed.timer.Stop()

	if _, err := q.marker.MarkAlertViewed(ctx, id); err != nil {
		q.logger.Warn("marking alert viewed failed",
			zap.String("alert_id", string(id)), zap.Error(err))
	}

	q.observer.ToastDismissed(reason)
	q.observer.ToastsActive(len(snapshot))
	q.bus.Publish(events.ToastsChanged, snapshot)
	return true
}

// Active returns the visible toasts, newest first.
func (q *Queue) Active() []model.NotificationToast {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.snapshotLocked()
}

// Len returns the number of visible toasts.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.toasts)
}

// Close stops every pending expiry. Visible toasts are dropped without
// being marked viewed.
func (q *Queue) Close() {
	q.mu.Lock()
	pending := q.toasts
	q.toasts = nil
	q.closed = true
	q.mu.Unlock()

	for _, e := range pending {
		e.timer.Stop()
	}
	q.observer.ToastsActive(0)
}

func (q *Queue) indexLocked(id model.AlertID) int {
	for i, e := range q.toasts {
		if e.toast.ID == id {
			return i
		}
	}
	return -1
}

func (q *Queue) snapshotLocked() []model.NotificationToast {
	out := make([]model.NotificationToast, len(q.toasts))
	for i, e := range q.toasts {
		out[i] = e.toast
	}
	return out
}
