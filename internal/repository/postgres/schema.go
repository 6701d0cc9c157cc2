package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// schema is applied idempotently at startup.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS appointments (
		id               UUID PRIMARY KEY,
		patient_id       UUID NOT NULL,
		booking_number   TEXT NOT NULL UNIQUE,
		service_type     TEXT NOT NULL,
		time_slot        TEXT NOT NULL,
		appointment_at   TIMESTAMPTZ NOT NULL,
		duration_minutes INT NOT NULL DEFAULT 0,
		type             TEXT NOT NULL,
		status           TEXT NOT NULL,
		cancel_reason    TEXT,
		created_at       TIMESTAMPTZ NOT NULL,
		updated_at       TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS checkin_sessions (
		id                       UUID PRIMARY KEY,
		patient_id               UUID NOT NULL,
		checkin_date             DATE NOT NULL,
		status                   TEXT NOT NULL,
		service_type             TEXT NOT NULL,
		time_slot                TEXT NOT NULL,
		priority                 TEXT NOT NULL,
		vital_signs_required     BOOLEAN NOT NULL,
		vital_signs_completed    BOOLEAN NOT NULL DEFAULT FALSE,
		vital_signs_completed_at TIMESTAMPTZ,
		vital_signs_recorded_by  UUID,
		vital_signs              JSONB,
		doctor_notified          BOOLEAN NOT NULL DEFAULT FALSE,
		doctor_notified_at       TIMESTAMPTZ,
		doctor_notified_by       UUID,
		appointment_id           UUID NOT NULL REFERENCES appointments(id),
		booking_number           TEXT NOT NULL,
		checked_in_by            UUID,
		expires_at               TIMESTAMPTZ NOT NULL,
		completed_at             TIMESTAMPTZ,
		cancelled_at             TIMESTAMPTZ,
		cancelled_by             UUID,
		cancellation_reason      TEXT,
		created_at               TIMESTAMPTZ NOT NULL,
		updated_at               TIMESTAMPTZ NOT NULL
	)`,
	// One active or completed session per patient per day.
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_checkin_sessions_patient_day
		ON checkin_sessions (patient_id, checkin_date)
		WHERE status IN ('active', 'completed')`,
	`CREATE INDEX IF NOT EXISTS idx_checkin_sessions_day_status
		ON checkin_sessions (checkin_date, status)`,
	`CREATE INDEX IF NOT EXISTS idx_checkin_sessions_expiry
		ON checkin_sessions (expires_at) WHERE status = 'active'`,
	`CREATE TABLE IF NOT EXISTS service_schedules (
		id                         UUID PRIMARY KEY,
		weekday                    SMALLINT NOT NULL CHECK (weekday BETWEEN 1 AND 5),
		time_slot                  TEXT NOT NULL,
		position                   INT NOT NULL,
		service_type               TEXT NOT NULL,
		requires_vital_signs       BOOLEAN NOT NULL DEFAULT FALSE,
		max_capacity               INT NOT NULL DEFAULT 0,
		estimated_duration_minutes INT NOT NULL DEFAULT 0,
		updated_at                 TIMESTAMPTZ NOT NULL,
		UNIQUE (weekday, time_slot, service_type)
	)`,
	`CREATE TABLE IF NOT EXISTS sequence_counters (
		prefix     TEXT NOT NULL,
		scope_date DATE NOT NULL,
		value      BIGINT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (prefix, scope_date)
	)`,
	`CREATE TABLE IF NOT EXISTS outbox_events (
		id            UUID PRIMARY KEY,
		event_type    TEXT NOT NULL,
		payload       JSONB NOT NULL,
		status        TEXT NOT NULL,
		error_message TEXT,
		retry_count   INT NOT NULL DEFAULT 0,
		retry_at      TIMESTAMPTZ,
		created_at    TIMESTAMPTZ NOT NULL,
		processed_at  TIMESTAMPTZ,
		updated_at    TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS medical_records (
		id            UUID PRIMARY KEY,
		record_number TEXT NOT NULL UNIQUE,
		patient_id    UUID NOT NULL,
		session_id    UUID REFERENCES checkin_sessions(id),
		type          TEXT NOT NULL,
		description   TEXT NOT NULL DEFAULT '',
		diagnosis     JSONB,
		treatment     JSONB,
		created_by    UUID NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL,
		updated_at    TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS prescriptions (
		id                  UUID PRIMARY KEY,
		prescription_number TEXT NOT NULL UNIQUE,
		patient_id          UUID NOT NULL,
		medical_record_id   UUID REFERENCES medical_records(id),
		medications         JSONB NOT NULL,
		notes               TEXT NOT NULL DEFAULT '',
		prescribed_by       UUID NOT NULL,
		created_at          TIMESTAMPTZ NOT NULL
	)`,
}

// Migrate creates the tables and indexes the service relies on.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration step %d failed: %w", i, err)
		}
	}
	return nil
}
