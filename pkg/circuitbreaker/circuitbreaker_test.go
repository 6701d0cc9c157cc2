package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCircuitBreakerTripsAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker(Settings{
		Name:             "test",
		MaxRequests:      1,
		Timeout:          time.Hour,
		FailureThreshold: 2,
	})
	boom := errors.New("boom")
	calls := 0
	failing := func() error {
		calls++
		return boom
	}

	assert.ErrorIs(t, cb.Execute(failing), boom)
	assert.ErrorIs(t, cb.Execute(failing), boom)
	assert.Equal(t, "open", cb.State())

	err := cb.Execute(failing)
	require.ErrorIs(t, err, ErrOpen)
	assert.Equal(t, 2, calls)
}

func TestCircuitBreakerIgnoresClassifiedErrors(t *testing.T) {
	notFound := errors.New("not found")
	cb := NewCircuitBreaker(Settings{
		Name:             "test",
		Timeout:          time.Hour,
		FailureThreshold: 1,
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, notFound)
		},
	})

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, cb.Execute(func() error { return notFound }), notFound)
	}
	assert.Equal(t, "closed", cb.State())
}

func TestCircuitBreakerReportsStateChanges(t *testing.T) {
	var transitions []string
	cb := NewCircuitBreaker(Settings{
		Name:             "test",
		Timeout:          time.Hour,
		FailureThreshold: 1,
		OnStateChange: func(_ string, from, to string) {
			transitions = append(transitions, from+"->"+to)
		},
	})

	_ = cb.Execute(func() error { return errors.New("down") })
	assert.Equal(t, []string{"closed->open"}, transitions)
}
