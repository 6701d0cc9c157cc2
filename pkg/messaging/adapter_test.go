package messaging_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-checkin/pkg/logger"
	"github.com/jwalitptl/clinic-checkin/pkg/messaging"
	"github.com/jwalitptl/clinic-checkin/pkg/messaging/memory"
)

func TestBrokerAdapterDeliversRawPayload(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	adapter := messaging.NewBrokerAdapter(memory.NewBroker(), logger.Nop())
	received := make(chan []byte, 2)
	require.NoError(t, adapter.Subscribe(ctx, "checkin.doctor_notified", func(_ context.Context, payload []byte) error {
		received <- payload
		return errors.New("handler errors do not stop the subscription")
	}))

	require.NoError(t, adapter.Publish(ctx, "checkin.doctor_notified", []byte(`{"booking_number":"APT-20240102-00001"}`)))
	require.NoError(t, adapter.Publish(ctx, "checkin.doctor_notified", []byte(`{"booking_number":"APT-20240102-00002"}`)))

	for _, want := range []string{
		`{"booking_number":"APT-20240102-00001"}`,
		`{"booking_number":"APT-20240102-00002"}`,
	} {
		select {
		case got := <-received:
			assert.JSONEq(t, want, string(got))
		case <-time.After(time.Second):
			t.Fatal("message not delivered")
		}
	}
}

func TestMemoryBrokerClosed(t *testing.T) {
	b := memory.NewBroker()
	require.NoError(t, b.Close())
	assert.ErrorIs(t, b.Publish(context.Background(), "x", "y"), messaging.ErrClosed)
	_, err := b.Subscribe(context.Background(), "x")
	assert.ErrorIs(t, err, messaging.ErrClosed)
}
