package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kethan23/build-buddy-app-766-sub000/internal/model"
	"github.com/kethan23/build-buddy-app-766-sub000/internal/repository"
	"github.com/kethan23/build-buddy-app-766-sub000/pkg/logger"
	"github.com/kethan23/build-buddy-app-766-sub000/pkg/messaging"
	"github.com/kethan23/build-buddy-app-766-sub000/pkg/metrics"
)

type OutboxProcessorConfig struct {
	BatchSize     int
	PollInterval  time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
	// LeaseDuration hides a claimed event from other relays while it is
	// being published.
	LeaseDuration time.Duration
}

func (c OutboxProcessorConfig) validate() error {
	switch {
	case c.BatchSize <= 0:
		return fmt.Errorf("BatchSize must be greater than 0")
	case c.PollInterval <= 0:
		return fmt.Errorf("PollInterval must be greater than 0")
	case c.RetryAttempts <= 0:
		return fmt.Errorf("RetryAttempts must be greater than 0")
	case c.RetryDelay <= 0:
		return fmt.Errorf("RetryDelay must be greater than 0")
	case c.LeaseDuration <= 0:
		return fmt.Errorf("LeaseDuration must be greater than 0")
	}
	return nil
}

// OutboxProcessor relays committed outbox events to the broker, one topic
// per event type.
type OutboxProcessor struct {
	repo    repository.OutboxRepository
	broker  messaging.Publisher
	config  OutboxProcessorConfig
	logger  *logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewOutboxProcessor(
	repo repository.OutboxRepository,
	broker messaging.Publisher,
	config OutboxProcessorConfig,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) (*OutboxProcessor, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	if metrics == nil {
		return nil, fmt.Errorf("metrics are required")
	}
	return &OutboxProcessor{
		repo:    repo,
		broker:  broker,
		config:  config,
		logger:  logger,
		metrics: metrics,
		now:     time.Now,
	}, nil
}

func (p *OutboxProcessor) Start(ctx context.Context) {
	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	p.logger.Info("Starting outbox processor", "batch_size", p.config.BatchSize)

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Shutting down outbox processor")
			return
		case <-ticker.C:
			if _, err := p.ProcessOnce(ctx); err != nil {
				p.logger.Error(err, "Failed to process events")
			}
		}
	}
}

// ProcessOnce relays one batch and returns how many events were published.
func (p *OutboxProcessor) ProcessOnce(ctx context.Context) (int, error) {
	timer := prometheus.NewTimer(p.metrics.OutboxProcessingLatency)
	defer timer.ObserveDuration()

	events, err := p.repo.ClaimPending(ctx, p.config.BatchSize, p.now().Add(p.config.LeaseDuration))
	p.metrics.ObserveDB("claim_pending_events", err)
	if err != nil {
		return 0, fmt.Errorf("failed to claim pending events: %w", err)
	}

	published := 0
	for _, event := range events {
		if err := p.processEvent(ctx, event); err != nil {
			p.logger.Error(err, "Failed to process event",
				"event_id", event.ID.String(),
				"event_type", event.EventType,
				"retry_count", event.RetryCount)
			continue
		}
		published++
	}
	return published, nil
}

func (p *OutboxProcessor) processEvent(ctx context.Context, event *model.OutboxEvent) error {
	pubErr := p.broker.Publish(ctx, event.EventType, json.RawMessage(event.Payload))
	if pubErr == nil {
		p.metrics.OutboxEventsProcessed.Inc()
		err := p.repo.MarkProcessed(ctx, event.ID, p.now())
		p.metrics.ObserveDB("mark_processed", err)
		return err
	}

	errStr := pubErr.Error()
	if event.RetryCount+1 >= p.config.RetryAttempts {
		p.metrics.OutboxEventsFailed.Inc()
		err := p.repo.MarkFailed(ctx, event.ID, errStr)
		p.metrics.ObserveDB("mark_failed", err)
		if err != nil {
			p.logger.Error(err, "Failed to update event status", "event_id", event.ID.String())
		}
		return pubErr
	}

	p.metrics.OutboxRetries.WithLabelValues(event.EventType).Inc()
	err := p.repo.MarkRetry(ctx, event.ID, errStr, p.now().Add(backoff(p.config.RetryDelay, event.RetryCount)))
	p.metrics.ObserveDB("mark_retry", err)
	if err != nil {
		p.logger.Error(err, "Failed to update event status", "event_id", event.ID.String())
	}
	return pubErr
}

// backoff doubles delay for every prior attempt, capped at 64x.
func backoff(delay time.Duration, attempt int) time.Duration {
	if attempt > 6 {
		attempt = 6
	}
	return delay << uint(attempt)
}
