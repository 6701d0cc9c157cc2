package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/jwalitptl/clinic-checkin/pkg/circuitbreaker"
	"github.com/jwalitptl/clinic-checkin/pkg/messaging"
)

type Config struct {
	Brokers []string
	GroupID string
}

var _ messaging.Broker = (*KafkaBroker)(nil)

// KafkaBroker publishes each channel as a topic of the same name.
type KafkaBroker struct {
	config Config
	writer *kafka.Writer
	cb     *circuitbreaker.CircuitBreaker
	logger *zerolog.Logger

	mu      sync.Mutex
	readers []*kafka.Reader
	closed  bool
}

func NewKafkaBroker(config Config, logger *zerolog.Logger) (*KafkaBroker, error) {
	if len(config.Brokers) == 0 {
		return nil, fmt.Errorf("kafka: at least one broker address is required")
	}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(config.Brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		BatchTimeout:           10 * time.Millisecond,
	}
	cb := circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
		Name:             "kafka-broker",
		MaxRequests:      1,
		Interval:         10 * time.Second,
		Timeout:          5 * time.Second,
		FailureThreshold: 5,
		OnStateChange: func(name, from, to string) {
			logger.Warn().Str("breaker", name).Str("from", from).Str("to", to).Msg("circuit breaker state changed")
		},
	})
	return &KafkaBroker{config: config, writer: writer, cb: cb, logger: logger}, nil
}

func (b *KafkaBroker) Publish(ctx context.Context, channel string, message interface{}) error {
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return messaging.ErrClosed
	}

	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	return b.cb.Execute(func() error {
		return b.writer.WriteMessages(ctx, kafka.Message{
			Topic: channel,
			Value: payload,
			Time:  time.Now(),
		})
	})
}

func (b *KafkaBroker) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  b.config.Brokers,
		GroupID:  b.config.GroupID,
		Topic:    channel,
		MinBytes: 1,
		MaxBytes: 10e6,
	})

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		reader.Close()
		return nil, messaging.ErrClosed
	}
	b.readers = append(b.readers, reader)
	b.mu.Unlock()

	msgChan := make(chan []byte, 100)
	go func() {
		defer close(msgChan)
		for {
			msg, err := reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() == nil {
					b.logger.Error().Err(err).Str("topic", channel).Msg("kafka read failed")
				}
				return
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
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true

	var firstErr error
	for _, r := range b.readers {
		if err := r.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := b.writer.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
