// Package messaging abstracts the pub/sub transport that carries outbox
// events and notifications between processes.
package messaging

import (
	"context"
)

// Publisher JSON-encodes message onto channel. json.RawMessage values are
// sent as-is.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) error
}

// Subscriber streams raw payloads until ctx is cancelled. The returned
// channel is closed when the subscription ends.
type Subscriber interface {
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}

// Broker is implemented by the redis, kafka and in-memory transports.
type Broker interface {
	Publisher
	Subscriber
	Close() error
}

// MessageBroker is the callback flavour consumers use; see BrokerAdapter.
type MessageBroker interface {
	Publish(ctx context.Context, topic string, payload []byte) error
	Subscribe(ctx context.Context, topic string, handler func([]byte) error) error
	Close() error
}
