package events

import (
	"context"
	"errors"
	"sync"
	"testing"
)

type testEvent struct {
	BaseEvent
	Value int
}

func (e testEvent) EventName() string { return "test.event" }

func TestPublishSyncDeliversToAllSubscribers(t *testing.T) {
	bus := NewInMemoryBus(nil)

	var mu sync.Mutex
	var seen []int
	for i := 0; i < 3; i++ {
		bus.Subscribe("test.event", HandlerFunc(func(ctx context.Context, event Event) error {
			e := event.(testEvent)
			mu.Lock()
			seen = append(seen, e.Value)
			mu.Unlock()
			return nil
		}))
	}

	if err := bus.PublishSync(context.Background(), testEvent{BaseEvent: NewBaseEvent(), Value: 7}); err != nil {
		t.Fatalf("PublishSync: %v", err)
	}

	if len(seen) != 3 {
		t.Fatalf("expected 3 deliveries, got %d", len(seen))
	}
	for _, v := range seen {
		if v != 7 {
			t.Fatalf("unexpected payload %d", v)
		}
	}
}

func TestPublishSyncReturnsHandlerError(t *testing.T) {
	bus := NewInMemoryBus(nil)
	wantErr := errors.New("handler failed")

	bus.Subscribe("test.event", HandlerFunc(func(ctx context.Context, event Event) error {
		return wantErr
	}))

	err := bus.PublishSync(context.Background(), testEvent{BaseEvent: NewBaseEvent()})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected handler error surfaced, got %v", err)
	}
}

func TestPublishIgnoresUnknownEvent(t *testing.T) {
	bus := NewInMemoryBus(nil)
	// No subscribers registered; must not panic.
	bus.Publish(context.Background(), testEvent{BaseEvent: NewBaseEvent()})
	if err := bus.PublishSync(context.Background(), testEvent{BaseEvent: NewBaseEvent()}); err != nil {
		t.Fatalf("expected no error without subscribers, got %v", err)
	}
}
