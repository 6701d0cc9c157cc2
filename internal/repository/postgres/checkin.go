package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/clinic-checkin/internal/model"
	"github.com/jwalitptl/clinic-checkin/internal/repository"
)

const checkInColumns = `
	id, patient_id, checkin_date, status, service_type, time_slot, priority,
	vital_signs_required, vital_signs_completed, vital_signs_completed_at,
	vital_signs_recorded_by, vital_signs, doctor_notified, doctor_notified_at,
	doctor_notified_by, appointment_id, booking_number, checked_in_by,
	expires_at, completed_at, cancelled_at, cancelled_by, cancellation_reason,
	created_at, updated_at`

func (r *checkInRepository) CreateWithAppointment(ctx context.Context, session *model.CheckInSession, appt *model.Appointment) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO appointments (
				id, patient_id, booking_number, service_type, time_slot,
				appointment_at, duration_minutes, type, status,
				created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			appt.ID, appt.PatientID, appt.BookingNumber, appt.ServiceType, appt.TimeSlot,
			appt.AppointmentAt, appt.DurationMin, appt.Type, appt.Status,
			appt.CreatedAt, appt.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create appointment: %w", appointmentInsertError(err))
		}

		_, err = tx.NamedExecContext(ctx, `
			INSERT INTO checkin_sessions (`+checkInColumns+`) VALUES (
				:id, :patient_id, :checkin_date, :status, :service_type, :time_slot, :priority,
				:vital_signs_required, :vital_signs_completed, :vital_signs_completed_at,
				:vital_signs_recorded_by, :vital_signs, :doctor_notified, :doctor_notified_at,
				:doctor_notified_by, :appointment_id, :booking_number, :checked_in_by,
				:expires_at, :completed_at, :cancelled_at, :cancelled_by, :cancellation_reason,
				:created_at, :updated_at
			)`, session)
		if err != nil {
			return fmt.Errorf("failed to create check-in session: %w", translateError(err))
		}
		return nil
	})
}

func (r *checkInRepository) Get(ctx context.Context, id uuid.UUID) (*model.CheckInSession, error) {
	var session model.CheckInSession
	err := r.GetDB().GetContext(ctx, &session,
		`SELECT `+checkInColumns+` FROM checkin_sessions WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get check-in session: %w", translateError(err))
	}
	return &session, nil
}

func (r *checkInRepository) FindActiveOrCompleted(ctx context.Context, patientID uuid.UUID, date time.Time) (*model.CheckInSession, error) {
	var session model.CheckInSession
	err := r.GetDB().GetContext(ctx, &session, `
		SELECT `+checkInColumns+`
		FROM checkin_sessions
		WHERE patient_id = $1 AND checkin_date = $2
		AND status IN ('active', 'completed')
		LIMIT 1`, patientID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to find check-in session: %w", translateError(err))
	}
	return &session, nil
}

func (r *checkInRepository) Update(ctx context.Context, session *model.CheckInSession, apptStatus model.AppointmentStatus) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		result, err := tx.NamedExecContext(ctx, `
			UPDATE checkin_sessions SET
				status = :status,
				priority = :priority,
				vital_signs_completed = :vital_signs_completed,
				vital_signs_completed_at = :vital_signs_completed_at,
				vital_signs_recorded_by = :vital_signs_recorded_by,
				vital_signs = :vital_signs,
				doctor_notified = :doctor_notified,
				doctor_notified_at = :doctor_notified_at,
				doctor_notified_by = :doctor_notified_by,
				completed_at = :completed_at,
				cancelled_at = :cancelled_at,
				cancelled_by = :cancelled_by,
				cancellation_reason = :cancellation_reason,
				updated_at = :updated_at
			WHERE id = :id AND status = 'active'`, session)
		if err != nil {
			return fmt.Errorf("failed to update check-in session: %w", translateError(err))
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to update check-in session: %w", err)
		}
		if rows == 0 {
			return repository.ErrConflict
		}

		if apptStatus == "" {
			return nil
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE appointments
			SET status = $1, cancel_reason = $2, updated_at = $3
			WHERE id = $4`,
			apptStatus, session.CancellationReason, session.UpdatedAt, session.AppointmentID)
		if err != nil {
			return fmt.Errorf("failed to update appointment status: %w", err)
		}
		return nil
	})
}

func (r *checkInRepository) ListActiveForDate(ctx context.Context, date time.Time) ([]*model.CheckInSession, error) {
	var sessions []*model.CheckInSession
	err := r.GetDB().SelectContext(ctx, &sessions, `
		SELECT `+checkInColumns+`
		FROM checkin_sessions
		WHERE checkin_date = $1 AND status = 'active'
		ORDER BY created_at ASC`, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list active sessions: %w", err)
	}
	return sessions, nil
}

func (r *checkInRepository) CountForService(ctx context.Context, date time.Time, slot model.TimeSlot, service model.ServiceType) (int, error) {
	var count int
	err := r.GetDB().GetContext(ctx, &count, `
		SELECT COUNT(*)
		FROM checkin_sessions
		WHERE checkin_date = $1 AND time_slot = $2 AND service_type = $3
		AND status IN ('active', 'completed')`, date, slot, service)
	if err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return count, nil
}

// ExpireBefore flips every active session whose expiry has passed and marks
// the linked appointments as no-shows.
func (r *checkInRepository) ExpireBefore(ctx context.Context, now time.Time) (int64, error) {
	var expired int64
	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		var apptIDs []uuid.UUID
		err := tx.SelectContext(ctx, &apptIDs, `
			UPDATE checkin_sessions
			SET status = 'expired', updated_at = $1
			WHERE status = 'active' AND expires_at < $1
			RETURNING appointment_id`, now)
		if err != nil {
			return fmt.Errorf("failed to expire sessions: %w", err)
		}
		expired = int64(len(apptIDs))
		if expired == 0 {
			return nil
		}

		query, args, err := sqlx.In(`
			UPDATE appointments SET status = ?, updated_at = ?
			WHERE id IN (?) AND status = ?`,
			model.AppointmentStatusNoShow, now, apptIDs, model.AppointmentStatusArrived)
		if err != nil {
			return fmt.Errorf("failed to build no-show update: %w", err)
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(query), args...); err != nil {
			return fmt.Errorf("failed to mark no-shows: %w", err)
		}
		return nil
	})
	return expired, err
}
