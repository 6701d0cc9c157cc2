package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"github.com/jwalitptl/clinic-checkin/internal/repository"
)

func TestTranslateError(t *testing.T) {
	dup := &pq.Error{Code: "23505", Constraint: "uq_checkin_sessions_patient_day"}
	fk := &pq.Error{Code: "23503"}
	other := errors.New("connection reset")

	assert.NoError(t, translateError(nil))
	assert.ErrorIs(t, translateError(sql.ErrNoRows), repository.ErrNotFound)
	assert.ErrorIs(t, translateError(dup), repository.ErrDuplicate)
	assert.ErrorIs(t, translateError(fmt.Errorf("insert session: %w", dup)), repository.ErrDuplicate)
	assert.Equal(t, fk, translateError(fk))
	assert.Equal(t, other, translateError(other))
}

func TestAppointmentInsertError(t *testing.T) {
	taken := &pq.Error{Code: "23505", Constraint: "appointments_booking_number_key"}

	err := appointmentInsertError(taken)
	assert.ErrorIs(t, err, repository.ErrNumberTaken)
	assert.NotErrorIs(t, err, repository.ErrDuplicate)

	other := errors.New("connection reset")
	assert.Equal(t, other, appointmentInsertError(other))
	assert.NoError(t, appointmentInsertError(nil))
}
