// Package notification hands user-facing alerts to the external delivery
// sink without coupling workflow mutations to delivery.
package notification

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kethan23/build-buddy-app-766-sub000/internal/model"
	"github.com/kethan23/build-buddy-app-766-sub000/pkg/logger"
	"github.com/kethan23/build-buddy-app-766-sub000/pkg/messaging"
	"github.com/kethan23/build-buddy-app-766-sub000/pkg/metrics"
)

const (
	DefaultChannel    = "notifications"
	defaultBufferSize = 256
	publishTimeout    = 5 * time.Second
)

// Notifier is fire-and-forget: it never reports delivery failures.
type Notifier interface {
	Notify(ctx context.Context, n model.Notification)
}

type Config struct {
	Channel    string
	BufferSize int
}

// Dispatcher queues notifications on a bounded channel and publishes them
// from a single goroutine. A full queue drops the notification.
type Dispatcher struct {
	broker  messaging.Publisher
	channel string
	logger  *logger.Logger
	metrics *metrics.Metrics

	mu     sync.RWMutex
	queue  chan model.Notification
	closed bool
	done   chan struct{}
	now    func() time.Time
}

func NewDispatcher(broker messaging.Publisher, cfg Config, log *logger.Logger, m *metrics.Metrics) *Dispatcher {
	if cfg.Channel == "" {
		cfg.Channel = DefaultChannel
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = defaultBufferSize
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Dispatcher{
		broker:  broker,
		channel: cfg.Channel,
		logger:  log,
		metrics: m,
		queue:   make(chan model.Notification, cfg.BufferSize),
		done:    make(chan struct{}),
		now:     time.Now,
	}
}

// Start consumes the queue until Close is called. It must be called once.
func (d *Dispatcher) Start() {
	go func() {
		defer close(d.done)
		for n := range d.queue {
			d.publish(n)
		}
	}()
}

func (d *Dispatcher) publish(n model.Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if err := d.broker.Publish(ctx, d.channel, n); err != nil {
		d.metrics.ObserveNotification("failed")
		d.logger.Error(err, "Failed to publish notification",
			"notification_id", n.ID.String(),
			"user_id", n.UserID.String(),
			"type", string(n.Type))
		return
	}
	d.metrics.ObserveNotification("sent")
}

// Notify enqueues n without blocking the caller.
func (d *Dispatcher) Notify(_ context.Context, n model.Notification) {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = d.now()
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.metrics.ObserveNotification("dropped")
		d.logger.Warn("Notification dropped after shutdown", "type", string(n.Type))
		return
	}
	select {
	case d.queue <- n:
	default:
		d.metrics.ObserveNotification("dropped")
		d.logger.Warn("Notification queue full, dropping",
			"user_id", n.UserID.String(),
			"type", string(n.Type))
	}
}

// Close stops accepting notifications and waits for queued ones to publish
// or for ctx to end.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Nop discards every notification.
type Nop struct{}

func (Nop) Notify(context.Context, model.Notification) {}
