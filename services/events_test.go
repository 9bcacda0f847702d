package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventBus_FiltersByType(t *testing.T) {
	bus := NewEventBus(nil)
	var streaks, all int
	bus.Subscribe(func(context.Context, Event) error { streaks++; return nil }, EventStreakUpdated)
	bus.Subscribe(func(context.Context, Event) error { all++; return nil })

	ctx := context.Background()
	bus.Publish(ctx, Event{Type: EventStreakUpdated})
	bus.Publish(ctx, Event{Type: EventNotification})

	assert.Equal(t, 1, streaks)
	assert.Equal(t, 2, all)
}

func TestEventBus_Unsubscribe(t *testing.T) {
	bus := NewEventBus(nil)
	calls := 0
	unsubscribe := bus.Subscribe(func(context.Context, Event) error { calls++; return nil })

	bus.Publish(context.Background(), Event{Type: EventNotification})
	unsubscribe()
	unsubscribe()
	bus.Publish(context.Background(), Event{Type: EventNotification})

	assert.Equal(t, 1, calls)
}

func TestEventBus_FailingHandlersDoNotStopDelivery(t *testing.T) {
	bus := NewEventBus(nil)
	var order []string
	bus.Subscribe(func(context.Context, Event) error { order = append(order, "err"); return errors.New("boom") })
	bus.Subscribe(func(context.Context, Event) error { order = append(order, "panic"); panic("kaboom") })
	bus.Subscribe(func(context.Context, Event) error { order = append(order, "ok"); return nil })

	assert.NotPanics(t, func() {
		bus.Publish(context.Background(), Event{Type: EventStreakUpdated})
	})
	assert.Equal(t, []string{"err", "panic", "ok"}, order)
}

func TestEventBus_StampsOccurredAt(t *testing.T) {
	bus := NewEventBus(nil)
	var got Event
	bus.Subscribe(func(_ context.Context, e Event) error { got = e; return nil })
	bus.Publish(context.Background(), Event{Type: EventNotification})
	assert.False(t, got.OccurredAt.IsZero())
}

func TestBusNotifier_PublishesNotifications(t *testing.T) {
	bus := NewEventBus(nil)
	var got []Event
	bus.Subscribe(func(_ context.Context, e Event) error { got = append(got, e); return nil }, EventNotification)

	n := NewBusNotifier(bus, nil)
	n.ShowSuccess(context.Background(), "u1", "yay")
	n.ShowError(context.Background(), "u1", "nope")

	if assert.Len(t, got, 2) {
		assert.Equal(t, "u1", got[0].UserID)
		assert.Equal(t, &Notification{Level: LevelSuccess, Message: "yay"}, got[0].Notification)
		assert.Equal(t, LevelError, got[1].Notification.Level)
	}
}
