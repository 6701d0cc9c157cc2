package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorIsMatchesByCode(t *testing.T) {
	err := fmt.Errorf("begin check-in: %w", NewClinicClosed("Saturday"))

	assert.True(t, stderrors.Is(err, ClinicClosed))
	assert.False(t, stderrors.Is(err, AlreadyCheckedIn))
}

func TestAppErrorUnwrap(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := NewStorageUnavailable(cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "storage unavailable: connection refused", err.Error())
}

func TestStatusCode(t *testing.T) {
	cases := []struct {
		err    *AppError
		status int
	}{
		{NewNotFound("session", nil), http.StatusNotFound},
		{NewClinicClosed("Sunday"), http.StatusUnprocessableEntity},
		{NewAlreadyCheckedIn(nil), http.StatusConflict},
		{NewVitalsPending(), http.StatusConflict},
		{NewAllocationUnavailable(nil), http.StatusServiceUnavailable},
		{NewInternal(nil), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.status, tc.err.StatusCode(), tc.err.Message)
	}
}

func TestInfrastructureClassification(t *testing.T) {
	assert.True(t, NewStorageUnavailable(nil).IsInfrastructure())
	assert.True(t, NewAllocationUnavailable(nil).IsInfrastructure())
	assert.False(t, NewAlreadyCheckedIn(nil).IsInfrastructure())
	assert.False(t, NewSessionNotActive("completed").IsInfrastructure())
}

func TestAs(t *testing.T) {
	details := map[string]string{"session_id": "abc"}
	wrapped := fmt.Errorf("outer: %w", NewAlreadyCheckedIn(details))

	appErr, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, ErrAlreadyCheckedIn, appErr.Code)
	assert.Equal(t, details, appErr.Details)

	_, ok = As(stderrors.New("plain"))
	assert.False(t, ok)
}

func TestCodeNames(t *testing.T) {
	assert.Equal(t, "already_checked_in", ErrAlreadyCheckedIn.String())
	assert.Equal(t, "vitals_pending", ErrVitalsPending.String())
	assert.Equal(t, "error_42", ErrorCode(42).String())
}
