package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cppla/moodstreak/models"
	"github.com/cppla/moodstreak/utils"
)

// EventType names an event published on the bus.
type EventType string

const (
	EventStreakUpdated EventType = "streak.updated"
	EventNotification  EventType = "notification"
)

// Event is the envelope delivered to subscribers. Exactly one payload is set.
type Event struct {
	Type         EventType     `json:"type"`
	UserID       string        `json:"user_id"`
	OccurredAt   time.Time     `json:"occurred_at"`
	Streak       *StreakUpdate `json:"streak,omitempty"`
	Notification *Notification `json:"notification,omitempty"`
}

// StreakUpdate is emitted after every successful check-in, including same-day no-ops.
type StreakUpdate struct {
	Period                   models.Period       `json:"period"`
	Streaks                  models.StreakRecord `json:"streaks"`
	Overall                  int                 `json:"overall_streak"`
	Outcome                  CheckInOutcome      `json:"outcome"`
	IsFirstCheckIn           bool                `json:"is_first_check_in"`
	AllPeriodsCompletedToday bool                `json:"all_periods_completed_today"`
	Milestone                int                 `json:"milestone,omitempty"`
}

// Notification levels.
const (
	LevelSuccess = "success"
	LevelError   = "error"
)

// Notification is a user-facing message for the UI layer.
type Notification struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// Handler reacts to an event. Returned errors and panics are logged by the bus.
type Handler func(ctx context.Context, evt Event) error

type subscription struct {
	id    uint64
	types map[EventType]struct{}
	fn    Handler
}

// EventBus fans events out to subscribers synchronously, in subscription order.
type EventBus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   []subscription
	log    *zap.Logger
}

// NewEventBus creates an empty bus. logger may be nil.
func NewEventBus(logger *zap.Logger) *EventBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventBus{log: logger}
}

// Subscribe registers fn for the given types, or for every type when none are
// given. The returned func removes the subscription.
func (b *EventBus) Subscribe(fn Handler, types ...EventType) func() {
	set := make(map[EventType]struct{}, len(types))
	for _, t := range types {
		set[t] = struct{}{}
	}

	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, types: set, fn: fn})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			for i, s := range b.subs {
				if s.id == id {
					b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Publish delivers evt to every matching subscriber. A failing subscriber
// never prevents delivery to the others.
func (b *EventBus) Publish(ctx context.Context, evt Event) {
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now()
	}

	b.mu.RLock()
	targets := make([]Handler, 0, len(b.subs))
	for _, s := range b.subs {
		if len(s.types) > 0 {
			if _, ok := s.types[evt.Type]; !ok {
				continue
			}
		}
		targets = append(targets, s.fn)
	}
	b.mu.RUnlock()

	for _, fn := range targets {
		if err := b.invoke(ctx, fn, evt); err != nil {
			utils.HandlerFailures.WithLabelValues(string(evt.Type)).Inc()
			b.log.Error("event handler failed",
				zap.String("event", string(evt.Type)),
				zap.String("user_id", evt.UserID),
				zap.Error(err))
		}
	}
}

func (b *EventBus) invoke(ctx context.Context, fn Handler, evt Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return fn(ctx, evt)
}
