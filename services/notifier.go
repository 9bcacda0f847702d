package services

import (
	"context"

	"go.uber.org/zap"
)

// Notifier is the UI-owned notification collaborator.
type Notifier interface {
	ShowSuccess(ctx context.Context, userID, message string)
	ShowError(ctx context.Context, userID, message string)
}

// BusNotifier turns notifications into Notification events so any connected
// client of the user can display them.
type BusNotifier struct {
	bus *EventBus
	log *zap.Logger
}

// NewBusNotifier creates a notifier that publishes on bus.
func NewBusNotifier(bus *EventBus, logger *zap.Logger) *BusNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BusNotifier{bus: bus, log: logger}
}

// ShowSuccess publishes a success notification.
func (n *BusNotifier) ShowSuccess(ctx context.Context, userID, message string) {
	n.publish(ctx, userID, LevelSuccess, message)
}

// ShowError publishes an error notification.
func (n *BusNotifier) ShowError(ctx context.Context, userID, message string) {
	n.publish(ctx, userID, LevelError, message)
}

func (n *BusNotifier) publish(ctx context.Context, userID, level, message string) {
	n.log.Debug("notification", zap.String("user_id", userID), zap.String("level", level), zap.String("message", message))
	n.bus.Publish(ctx, Event{
		Type:         EventNotification,
		UserID:       userID,
		Notification: &Notification{Level: level, Message: message},
	})
}

// NopNotifier discards notifications.
type NopNotifier struct{}

func (NopNotifier) ShowSuccess(context.Context, string, string) {}
func (NopNotifier) ShowError(context.Context, string, string)   {}
