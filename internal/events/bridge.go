package events

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// EventMsg is the tea.Msg delivered for each bridged event.
type EventMsg struct {
	Event
}

// Bridge forwards bus events into the Bubble Tea runtime. Undelivered
// events are coalesced per topic: a newer event replaces a pending one
// of the same topic and keeps its place in line, so the latest snapshot
// of every topic is always delivered.
type Bridge struct {
	mu      sync.Mutex
	pending map[Topic]Event
	order   []Topic
	ready   chan struct{}
	done    chan struct{}
	unsubs  []func()
	closed  bool
}

// NewBridge subscribes to topics on bus.
func NewBridge(bus *Bus, topics ...Topic) *Bridge {
	br := &Bridge{
		pending: make(map[Topic]Event),
		ready:   make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	for _, t := range topics {
		br.unsubs = append(br.unsubs, bus.Subscribe(t, br.forward))
	}
	return br
}

func (br *Bridge) forward(ev Event) {
	br.mu.Lock()
	if br.closed {
		br.mu.Unlock()
		return
	}
	if _, ok := br.pending[ev.Topic]; !ok {
		br.order = append(br.order, ev.Topic)
	}
	br.pending[ev.Topic] = ev
	br.mu.Unlock()

	select {
	case br.ready <- struct{}{}:
	default:
	}
}

// next blocks until an event is pending or the bridge is closed.
func (br *Bridge) next() (Event, bool) {
	for {
		br.mu.Lock()
		if br.closed {
			br.mu.Unlock()
			return Event{}, false
		}
		if len(br.order) > 0 {
			topic := br.order[0]
			br.order = br.order[1:]
			ev := br.pending[topic]
			delete(br.pending, topic)
			br.mu.Unlock()
			return ev, true
		}
		br.mu.Unlock()

		select {
		case <-br.ready:
		case <-br.done:
		}
	}
}

// Wait returns a tea.Cmd that blocks until the next event. Call it
// again after handling each EventMsg to keep listening.
func (br *Bridge) Wait() tea.Cmd {
	return func() tea.Msg {
		ev, ok := br.next()
		if !ok {
			return nil
		}
		return EventMsg{Event: ev}
	}
}

// Close unsubscribes from the bus and releases a pending Wait.
func (br *Bridge) Close() {
	br.mu.Lock()
	defer br.mu.Unlock()
	if br.closed {
		return
	}
	br.closed = true
	for _, u := range br.unsubs {
		u()
	}
	close(br.done)
}
