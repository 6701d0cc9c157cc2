package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-checkin/internal/model"
)

const appointmentColumns = `
	id, patient_id, booking_number, service_type, time_slot,
	appointment_at, duration_minutes, type, status, cancel_reason,
	created_at, updated_at`

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	var appointment model.Appointment
	err := r.GetDB().GetContext(ctx, &appointment,
		`SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", translateError(err))
	}
	return &appointment, nil
}

func (r *appointmentRepository) GetByBookingNumber(ctx context.Context, bookingNumber string) (*model.Appointment, error) {
	var appointment model.Appointment
	err := r.GetDB().GetContext(ctx, &appointment,
		`SELECT `+appointmentColumns+` FROM appointments WHERE booking_number = $1`, bookingNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment by booking number: %w", translateError(err))
	}
	return &appointment, nil
}
