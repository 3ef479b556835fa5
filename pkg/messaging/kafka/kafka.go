package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/kethan23/build-buddy-app-766-sub000/pkg/circuitbreaker"
	"github.com/kethan23/build-buddy-app-766-sub000/pkg/logger"
	"github.com/kethan23/build-buddy-app-766-sub000/pkg/messaging"
)

type Config struct {
	Brokers      []string
	GroupID      string
	BatchTimeout time.Duration
}

// KafkaBroker maps broker channels onto kafka topics.
type KafkaBroker struct {
	cfg    Config
	writer *kafka.Writer
	cb     *circuitbreaker.CircuitBreaker
	logger *logger.Logger
}

func NewKafkaBroker(cfg Config, log *logger.Logger) (messaging.Broker, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("at least one kafka broker address is required")
	}
	if log == nil {
		log = logger.NewNop()
	}
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = 50 * time.Millisecond
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		BatchTimeout:           cfg.BatchTimeout,
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}

	cb := circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
		Name:                "kafka-broker",
		ConsecutiveFailures: 5,
		Interval:            10 * time.Second,
		Timeout:             5 * time.Second,
		OnStateChange: func(name string, from, to circuitbreaker.State) {
			log.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	return &KafkaBroker{cfg: cfg, writer: writer, cb: cb, logger: log}, nil
}

func (b *KafkaBroker) Publish(ctx context.Context, channel string, message interface{}) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	return b.cb.Execute(func() error {
		err := b.writer.WriteMessages(ctx, kafka.Message{
			Topic: channel,
			Value: payload,
			Time:  time.Now(),
		})
		if err != nil {
			return fmt.Errorf("failed to write kafka message: %w", err)
		}
		return nil
	})
}

func (b *KafkaBroker) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  b.cfg.Brokers,
		Topic:    channel,
		GroupID:  b.cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
	})
	msgChan := make(chan []byte, 100)

	go func() {
		defer func() {
			_ = reader.Close()
			close(msgChan)
		}()

		for {
			msg, err := reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil || errors.Is(err, io.EOF) {
					return
				}
				b.logger.Error(err, "Failed to read kafka message", "topic", channel)
				continue
			}
			select {
			case msgChan <- msg.Value:
			case <-ctx.Done():
				return
			}
		}
	}()

	return msgChan, nil
}

func (b *KafkaBroker) Close() error {
	return b.writer.Close()
}
