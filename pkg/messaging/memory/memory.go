// Package memory is an in-process broker for local runs and tests.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/jwalitptl/clinic-checkin/pkg/messaging"
)

var _ messaging.Broker = (*Broker)(nil)

type subscriber struct {
	ctx context.Context
	ch  chan []byte
}

type Broker struct {
	mu     sync.RWMutex
	subs   map[string][]*subscriber
	closed bool
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[string][]*subscriber)}
}

// Publish delivers to current subscribers of channel. Slow subscribers block
// the publisher until their context is done.
func (b *Broker) Publish(ctx context.Context, channel string, message interface{}) error {
	payload, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return messaging.ErrClosed
	}
	for _, s := range b.subs[channel] {
		select {
		case s.ch <- payload:
		case <-s.ctx.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (b *Broker) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, messaging.ErrClosed
	}

	s := &subscriber{ctx: ctx, ch: make(chan []byte, 100)}
	b.subs[channel] = append(b.subs[channel], s)

	go func() {
		<-ctx.Done()
		b.remove(channel, s)
	}()
	return s.ch, nil
}

func (b *Broker) remove(channel string, target *subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subs[channel]
	for i, s := range subs {
		if s == target {
			b.subs[channel] = append(subs[:i], subs[i+1:]...)
			close(s.ch)
			return
		}
	}
}

func (b *Broker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for channel, subs := range b.subs {
		for _, s := range subs {
			close(s.ch)
		}
		delete(b.subs, channel)
	}
	return nil
}
