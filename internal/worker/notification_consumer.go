package worker

import (
	"context"

	"github.com/kethan23/build-buddy-app-766-sub000/pkg/logger"
	"github.com/kethan23/build-buddy-app-766-sub000/pkg/messaging"
)

// Recorder persists one published notification payload.
type Recorder interface {
	Record(ctx context.Context, payload []byte) error
}

// NotificationConsumer feeds the in-app inbox from the notifications channel.
type NotificationConsumer struct {
	broker   messaging.MessageBroker
	channel  string
	recorder Recorder
	logger   *logger.Logger
}

func NewNotificationConsumer(broker messaging.MessageBroker, channel string, recorder Recorder, log *logger.Logger) *NotificationConsumer {
	if log == nil {
		log = logger.NewNop()
	}
	return &NotificationConsumer{broker: broker, channel: channel, recorder: recorder, logger: log}
}

// Start subscribes and returns; messages are handled until ctx ends.
func (c *NotificationConsumer) Start(ctx context.Context) error {
	c.logger.Info("Starting notification consumer", "channel", c.channel)
	return c.broker.Subscribe(ctx, c.channel, func(payload []byte) error {
		return c.recorder.Record(ctx, payload)
	})
}
