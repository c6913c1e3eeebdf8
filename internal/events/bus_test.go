package events

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_DeliversInSubscriptionOrder(t *testing.T) {
	bus := NewBus()
	var got []string

	bus.Subscribe(SessionChanged, func(Event) { got = append(got, "sidebar") })
	bus.Subscribe(SessionChanged, func(Event) { got = append(got, "dashboard") })
	bus.Subscribe(BookmarksChanged, func(Event) { got = append(got, "other-topic") })

	bus.Publish(SessionChanged, nil)

	assert.Equal(t, []string{"sidebar", "dashboard"}, got)
}

func TestBus_PayloadReachesEverySubscriber(t *testing.T) {
	bus := NewBus()
	var a, b any

	bus.Subscribe(NotificationSettingsChanged, func(ev Event) { a = ev.Payload })
	bus.Subscribe(NotificationSettingsChanged, func(ev Event) { b = ev.Payload })

	bus.Publish(NotificationSettingsChanged, "payload")

	assert.Equal(t, "payload", a)
	assert.Equal(t, a, b)
}

func TestBus_NoReplayForLateSubscribers(t *testing.T) {
	bus := NewBus()
	bus.Publish(BookmarksChanged, 1)

	calls := 0
	bus.Subscribe(BookmarksChanged, func(Event) { calls++ })
	assert.Equal(t, 0, calls)

	bus.Publish(BookmarksChanged, 2)
	assert.Equal(t, 1, calls)
}

func TestBus_UnsubscribeIsIdempotent(t *testing.T) {
	bus := NewBus()
	calls := 0
	unsub := bus.Subscribe(ToastsChanged, func(Event) { calls++ })

	unsub()
	unsub()
	bus.Publish(ToastsChanged, nil)

	assert.Equal(t, 0, calls)
	assert.Equal(t, 0, bus.SubscriberCount(ToastsChanged))
}

func TestBus_HandlerRemovedDuringPublishIsSkipped(t *testing.T) {
	bus := NewBus()
	var second func()
	calls := 0

	bus.Subscribe(SessionChanged, func(Event) { second() })
	second = bus.Subscribe(SessionChanged, func(Event) { calls++ })

	bus.Publish(SessionChanged, nil)
	assert.Equal(t, 0, calls)
}

func TestBus_HandlerMayPublish(t *testing.T) {
	bus := NewBus()
	var seen []Topic

	bus.Subscribe(ViewedAlertsChanged, func(ev Event) {
		seen = append(seen, ev.Topic)
		bus.Publish(ToastsChanged, nil)
	})
	bus.Subscribe(ToastsChanged, func(ev Event) { seen = append(seen, ev.Topic) })

	bus.Publish(ViewedAlertsChanged, nil)
	assert.Equal(t, []Topic{ViewedAlertsChanged, ToastsChanged}, seen)
}

func TestBus_ConcurrentUse(t *testing.T) {
	bus := NewBus()
	var mu sync.Mutex
	total := 0

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unsub := bus.Subscribe(SessionChanged, func(Event) {
				mu.Lock()
				total++
				mu.Unlock()
			})
			bus.Publish(SessionChanged, nil)
			unsub()
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.GreaterOrEqual(t, total, 8)
	assert.Equal(t, 0, bus.SubscriberCount(SessionChanged))
}

func TestBridge_ForwardsEvents(t *testing.T) {
	bus := NewBus()
	br := NewBridge(bus, BookmarksChanged)
	defer br.Close()

	bus.Publish(BookmarksChanged, "list")

	msg := br.Wait()()
	ev, ok := msg.(EventMsg)
	require.True(t, ok)
	assert.Equal(t, BookmarksChanged, ev.Topic)
	assert.Equal(t, "list", ev.Payload)
}

func TestBridge_BurstKeepsLatestOfEachTopic(t *testing.T) {
	bus := NewBus()
	br := NewBridge(bus, ViewedAlertsChanged, ToastsChanged, SessionChanged)
	defer br.Close()

	bus.Publish(ToastsChanged, "first toasts")
	for i := 0; i < 200; i++ {
		bus.Publish(ViewedAlertsChanged, i)
	}
	bus.Publish(ToastsChanged, "last toasts")
	bus.Publish(SessionChanged, nil)

	var got []Event
	for i := 0; i < 3; i++ {
		msg, ok := br.Wait()().(EventMsg)
		require.True(t, ok)
		got = append(got, msg.Event)
	}
	assert.Equal(t, []Event{
		{Topic: ToastsChanged, Payload: "last toasts"},
		{Topic: ViewedAlertsChanged, Payload: 199},
		{Topic: SessionChanged},
	}, got)

	bus.Publish(ToastsChanged, "after drain")
	msg, ok := br.Wait()().(EventMsg)
	require.True(t, ok)
	assert.Equal(t, "after drain", msg.Payload)
}

func TestBridge_WaitBlocksUntilPublish(t *testing.T) {
	bus := NewBus()
	br := NewBridge(bus, BookmarksChanged)
	defer br.Close()

	got := make(chan any, 1)
	go func() { got <- br.Wait()() }()

	select {
	case <-got:
		t.Fatal("Wait returned before any event")
	case <-time.After(20 * time.Millisecond):
	}

	bus.Publish(BookmarksChanged, "list")
	select {
	case msg := <-got:
		ev, ok := msg.(EventMsg)
		require.True(t, ok)
		assert.Equal(t, "list", ev.Payload)
	case <-time.After(2 * time.Second):
		t.Fatal("Wait did not return after publish")
	}
}

func TestBridge_CloseReleasesWaitAndUnsubscribes(t *testing.T) {
	bus := NewBus()
	br := NewBridge(bus, SessionChanged)

	br.Close()
	br.Close()

	assert.Nil(t, br.Wait()())
	assert.Equal(t, 0, bus.SubscriberCount(SessionChanged))
	bus.Publish(SessionChanged, nil)
}
