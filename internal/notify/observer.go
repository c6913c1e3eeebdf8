package notify

import "github.com/nhle/threat-console/internal/model"

// Poll cycle outcomes reported to an Observer.
const (
	PollOK      = "ok"
	PollError   = "error"
	PollSkipped = "skipped"
	PollStale   = "stale"
)

// Dismissal reasons reported to an Observer.
const (
	DismissUser    = "user"
	DismissExpired = "expired"
)

// Observer receives delivery events, typically to export them as metrics.
type Observer interface {
	PollCompleted(result string)
	AlertSuppressed(t model.AlertType)
	ToastAdmitted()
	ToastDismissed(reason string)
	ToastsActive(n int)
}

type nopObserver struct{}

func (nopObserver) PollCompleted(string)            {}
func (nopObserver) AlertSuppressed(model.AlertType) {}
func (nopObserver) ToastAdmitted()                  {}
func (nopObserver) ToastDismissed(string)           {}
func (nopObserver) ToastsActive(int)                {}
