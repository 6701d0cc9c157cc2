package messaging

import (
	"context"
	"errors"
)

// ErrClosed is returned by Publish after Close.
var ErrClosed = errors.New("broker closed")

// Broker defines the interface for message brokers
type Broker interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Close() error
}

// Handler consumes one raw message. Returned errors are logged, not retried.
type Handler func(ctx context.Context, payload []byte) error

type MessageBroker interface {
	Publish(ctx context.Context, topic string, payload []byte) error
	Subscribe(ctx context.Context, topic string, handler Handler) error
	Close() error
}
