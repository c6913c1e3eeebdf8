package notify

import (
	"context"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/nhle/threat-console/internal/events"
	"github.com/nhle/threat-console/internal/model"
)

// State is the poller's position in its fetch cycle.
type State int

const (
	StateIdle State = iota
	StateFetching
	StateEvaluating
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateEvaluating:
		return "evaluating"
	default:
		return "unknown"
	}
}

const (
	// DefaultPollInterval is the period between scheduled fetches.
	DefaultPollInterval = 10 * time.Second

	// DefaultFetchTimeout bounds a single fetch.
	DefaultFetchTimeout = 8 * time.Second
)

// AlertSource returns the alert feed, newest first.
type AlertSource interface {
	Alerts(ctx context.Context) ([]model.Alert, error)
}

// Preferences is the read side of the preference store used to decide
// whether an alert may surface.
type Preferences interface {
	ViewedAlerts(ctx context.Context) model.ViewedAlertSet
	NotificationSettings(ctx context.Context) model.NotificationSettings
}

// PollResultMsg is a tea.Msg sent when a poll cycle completes.
type PollResultMsg struct {
	Seq    uint64
	Alerts []model.Alert

	// Admitted is the toast queued by this cycle, if any.
	Admitted *model.NotificationToast

	// Suppressed is set when the newest alert was new but its category
	// is disabled.
	Suppressed bool

	// Bell is set when a toast was admitted outside silent mode.
	Bell bool

	// Skipped is set when a fetch was already in flight.
	Skipped bool

	// Stale is set when a newer fetch superseded this one.
	Stale bool

	Err error
}

// Poller periodically fetches the alert feed and feeds the newest unseen
// alert into the toast queue.
type Poller struct {
	source       AlertSource
	prefs        Preferences
	queue        *Queue
	bus          *events.Bus
	logger       *zap.Logger
	observer     Observer
	interval     time.Duration
	fetchTimeout time.Duration

	resultCh  chan PollResultMsg
	triggerCh chan struct{}

	mu             sync.Mutex
	state          State
	lastSeen       model.AlertID
	settings       model.NotificationSettings
	seq            uint64
	inflightSeq    uint64
	inflightCancel context.CancelFunc
	running        bool
	stopLoop       context.CancelFunc
	unsubscribe    func()

	// evalMu serializes evaluation when a superseding fetch finishes
	// while an earlier cycle is still evaluating.
	evalMu sync.Mutex

	// runMu is held across Stop's Wait so a restart cannot Add to wg
	// before the previous run has drained.
	runMu sync.Mutex
	wg    sync.WaitGroup
}

// PollerOption customizes a Poller.
type PollerOption func(*Poller)

// WithPollInterval sets the period between scheduled fetches.
func WithPollInterval(d time.Duration) PollerOption {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithFetchTimeout bounds a single fetch.
func WithFetchTimeout(d time.Duration) PollerOption {
	return func(p *Poller) {
		if d > 0 {
			p.fetchTimeout = d
		}
	}
}

// WithPollerObserver reports poll activity to o.
func WithPollerObserver(o Observer) PollerOption {
	return func(p *Poller) {
		p.observer = o
	}
}

// NewPoller creates a Poller. The notification settings are read once
// here and then kept current from the bus.
func NewPoller(
	source AlertSource,
	prefs Preferences,
	queue *Queue,
	bus *events.Bus,
	logger *zap.Logger,
	opts ...PollerOption,
) *Poller {
	p := &Poller{
		source:       source,
		prefs:        prefs,
		queue:        queue,
		bus:          bus,
		logger:       logger,
		observer:     nopObserver{},
		interval:     DefaultPollInterval,
		fetchTimeout: DefaultFetchTimeout,
		resultCh:     make(chan PollResultMsg, 16),
		triggerCh:    make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(p)
	}

	p.settings = prefs.NotificationSettings(context.Background())
	p.unsubscribe = bus.Subscribe(events.NotificationSettingsChanged, func(ev events.Event) {
		s, ok := ev.Payload.(model.NotificationSettings)
		if !ok {
			return
		}
		p.mu.Lock()
		p.settings = s
		p.mu.Unlock()
	})

	return p
}

// Start launches the polling loop. The first fetch happens immediately.
// Calling Start on a running poller is a no-op.
func (p *Poller) Start(ctx context.Context) {
	p.runMu.Lock()
	defer p.runMu.Unlock()

	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	loopCtx, cancel := context.WithCancel(ctx)
	p.running = true
	p.stopLoop = cancel
	p.wg.Add(1)
	p.mu.Unlock()

	go p.loop(loopCtx)
}

// Stop cancels the loop and any in-flight fetch and waits for them to
// exit. A stopped poller may be started again.
func (p *Poller) Stop() {
	p.runMu.Lock()
	defer p.runMu.Unlock()

	p.mu.Lock()
	if p.stopLoop != nil {
		p.stopLoop()
		p.stopLoop = nil
	}
	p.running = false
	p.mu.Unlock()

	p.wg.Wait()
}

// Close stops the poller for good and stops listening for settings changes.
func (p *Poller) Close() {
	p.Stop()
	p.unsubscribe()
}

// Running reports whether the polling loop is active.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// RefreshNow asks the running loop to fetch immediately, cancelling any
// fetch in flight.
func (p *Poller) RefreshNow() {
	select {
	case p.triggerCh <- struct{}{}:
	default:
	}
}

// State returns the current cycle state.
func (p *Poller) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Interval returns the period between scheduled fetches.
func (p *Poller) Interval() time.Duration {
	return p.interval
}

// LastSeen returns the id of the newest alert already evaluated.
func (p *Poller) LastSeen() model.AlertID {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastSeen
}

// pollOnce runs one cycle synchronously. It is skipped when a fetch is
// already in flight.
func (p *Poller) pollOnce(ctx context.Context) PollResultMsg {
	fctx, cancel, seq, ok := p.begin(ctx, false)
	if !ok {
		p.observer.PollCompleted(PollSkipped)
		return PollResultMsg{Skipped: true}
	}
	defer cancel()
	return p.run(fctx, seq)
}

// WaitForNextResult returns a tea.Cmd that waits for the next background
// cycle result. Call it again after each PollResultMsg.
func (p *Poller) WaitForNextResult() tea.Cmd {
	return func() tea.Msg {
		result, ok := <-p.resultCh
		if !ok {
			return nil
		}
		return result
	}
}

func (p *Poller) loop(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.startFetch(ctx, false)

	for {
		select {
		case <-ctx.Done():
			p.mu.Lock()
			if p.inflightCancel != nil {
				p.inflightCancel()
			}
			p.mu.Unlock()
			return
		case <-ticker.C:
			p.startFetch(ctx, false)
		case <-p.triggerCh:
			p.startFetch(ctx, true)
		}
	}
}

// startFetch runs one cycle in the background. Without supersede the
// tick is dropped while another fetch is in flight.
func (p *Poller) startFetch(ctx context.Context, supersede bool) {
	fctx, cancel, seq, ok := p.begin(ctx, supersede)
	if !ok {
		p.logger.Debug("alert fetch in flight, tick skipped")
		p.observer.PollCompleted(PollSkipped)
		return
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer cancel()
		p.sendResult(p.run(fctx, seq))
	}()
}

// begin reserves the next sequence number and moves to Fetching.
func (p *Poller) begin(parent context.Context, supersede bool) (context.Context, context.CancelFunc, uint64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.inflightSeq != 0 {
		if !supersede {
			return nil, nil, 0, false
		}
		p.inflightCancel()
	}

	p.seq++
	fctx, cancel := context.WithTimeout(parent, p.fetchTimeout)
	p.inflightSeq = p.seq
	p.inflightCancel = cancel
	p.state = StateFetching
	return fctx, cancel, p.seq, true
}

// run fetches and, when the response is still current, evaluates it.
func (p *Poller) run(ctx context.Context, seq uint64) PollResultMsg {
	alerts, err := p.source.Alerts(ctx)

	p.mu.Lock()
	if seq != p.seq {
		p.mu.Unlock()
		p.logger.Debug("discarding superseded alert response", zap.Uint64("seq", seq))
		p.observer.PollCompleted(PollStale)
		return PollResultMsg{Seq: seq, Stale: true}
	}
	if err != nil {
		p.finishLocked(seq)
		p.mu.Unlock()
		p.logger.Warn("alert poll failed", zap.Uint64("seq", seq), zap.Error(err))
		p.observer.PollCompleted(PollError)
		return PollResultMsg{Seq: seq, Err: err}
	}
	p.state = StateEvaluating
	p.mu.Unlock()

	// A superseding cancel must not fail the viewed-set read.
	res := p.evaluate(context.WithoutCancel(ctx), alerts)
	res.Seq = seq

	p.mu.Lock()
	p.finishLocked(seq)
	p.mu.Unlock()

	p.observer.PollCompleted(PollOK)
	return res
}

// finishLocked returns to Idle unless a newer fetch took over.
func (p *Poller) finishLocked(seq uint64) {
	if p.inflightSeq != seq {
		return
	}
	p.inflightSeq = 0
	p.inflightCancel = nil
	p.state = StateIdle
}

// evaluate applies the admission rules to the newest alert only.
func (p *Poller) evaluate(ctx context.Context, alerts []model.Alert) PollResultMsg {
	p.evalMu.Lock()
	defer p.evalMu.Unlock()

	res := PollResultMsg{Alerts: alerts}
	if len(alerts) == 0 {
		return res
	}
	newest := alerts[0]

	p.mu.Lock()
	lastSeen := p.lastSeen
	settings := p.settings
	p.mu.Unlock()

	if newest.ID == lastSeen {
		return res
	}
	if p.prefs.ViewedAlerts(ctx).Contains(newest.ID) {
		return res
	}

	p.mu.Lock()
	p.lastSeen = newest.ID
	p.mu.Unlock()

	if settings.Suppresses(newest.Type) {
		p.logger.Debug("alert suppressed by settings",
			zap.String("alert_id", string(newest.ID)),
			zap.String("type", string(newest.Type)))
		p.observer.AlertSuppressed(newest.Type)
		res.Suppressed = true
		return res
	}

	toast := model.ToastFromAlert(newest)
	if p.queue.Admit(toast) {
		res.Admitted = &toast
		res.Bell = !settings.SilentMode
	}
	return res
}

// sendResult sends a PollResultMsg without blocking.
func (p *Poller) sendResult(msg PollResultMsg) {
	if msg.Stale {
		return
	}
	select {
	case p.resultCh <- msg:
	default:
	}
}
