package bootstrap

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/kethan23/build-buddy-app-766-sub000/config"
	"github.com/kethan23/build-buddy-app-766-sub000/internal/service/notification"
	internalWorker "github.com/kethan23/build-buddy-app-766-sub000/internal/worker"
	"github.com/kethan23/build-buddy-app-766-sub000/pkg/logger"
	"github.com/kethan23/build-buddy-app-766-sub000/pkg/messaging"
	"github.com/kethan23/build-buddy-app-766-sub000/pkg/metrics"
	"github.com/kethan23/build-buddy-app-766-sub000/pkg/worker"
)

// StartWorkers launches the outbox relay, the outbox cleanup and the
// notification consumer on g. They stop when ctx is cancelled.
func StartWorkers(ctx context.Context, g *errgroup.Group, cfg *config.Config, storage *Storage, broker messaging.Broker, m *metrics.Metrics, log *logger.Logger) error {
	processor, err := worker.NewOutboxProcessor(storage.Outbox, broker, cfg.Outbox.ToWorkerConfig(), log, m)
	if err != nil {
		return fmt.Errorf("failed to create outbox processor: %w", err)
	}
	cleanup := worker.NewOutboxCleanupWorker(storage.Outbox, cfg.Outbox.Retention, cfg.Outbox.CleanupInterval, log)

	consumer := internalWorker.NewNotificationConsumer(
		messaging.NewBrokerAdapter(broker, log),
		cfg.Notification.Channel,
		notification.NewService(storage.Notifications),
		log,
	)
	if err := consumer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start notification consumer: %w", err)
	}

	g.Go(func() error {
		processor.Start(ctx)
		return nil
	})
	g.Go(func() error {
		cleanup.Start(ctx)
		return nil
	})
	return nil
}
