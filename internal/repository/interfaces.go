package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-checkin/internal/model"
)

var (
	// ErrNotFound is returned when a row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique constraint rejects a write.
	ErrDuplicate = errors.New("duplicate record")
	// ErrNumberTaken is returned when an allocated sequential number is
	// already held by another row.
	ErrNumberTaken = errors.New("sequential number already issued")
	// ErrConflict is returned when a conditional update matched no row.
	ErrConflict = errors.New("record changed concurrently")
)

// All repository interfaces in one file
type (
	// CheckInRepository persists check-in sessions. The store enforces at most
	// one active or completed session per patient per day.
	CheckInRepository interface {
		// CreateWithAppointment writes the session and its linked appointment in
		// one transaction. Returns ErrDuplicate when the daily uniqueness
		// constraint rejects the session and ErrNumberTaken when the booking
		// number is already in use.
		CreateWithAppointment(ctx context.Context, session *model.CheckInSession, appt *model.Appointment) error
		Get(ctx context.Context, id uuid.UUID) (*model.CheckInSession, error)
		FindActiveOrCompleted(ctx context.Context, patientID uuid.UUID, date time.Time) (*model.CheckInSession, error)
		// Update writes the session only if it is still active in the store,
		// otherwise ErrConflict. A non-empty apptStatus is mirrored onto the
		// linked appointment in the same transaction.
		Update(ctx context.Context, session *model.CheckInSession, apptStatus model.AppointmentStatus) error
		ListActiveForDate(ctx context.Context, date time.Time) ([]*model.CheckInSession, error)
		CountForService(ctx context.Context, date time.Time, slot model.TimeSlot, service model.ServiceType) (int, error)
		ExpireBefore(ctx context.Context, now time.Time) (int64, error)
	}

	AppointmentRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		GetByBookingNumber(ctx context.Context, bookingNumber string) (*model.Appointment, error)
	}

	// ScheduleRepository stores the weekly service catalog.
	ScheduleRepository interface {
		ListEntries(ctx context.Context, weekday time.Weekday, slot model.TimeSlot) ([]model.CatalogEntry, error)
		ReplaceEntries(ctx context.Context, weekday time.Weekday, slot model.TimeSlot, entries []model.CatalogEntry) error
	}

	// CounterRepository is an atomic increment-and-read keyed by (prefix, date).
	CounterRepository interface {
		Increment(ctx context.Context, prefix string, date time.Time) (int64, error)
		// Seed raises the counter to at least floor.
		Seed(ctx context.Context, prefix string, date time.Time, floor int64) error
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		GetPendingEventsWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errorMessage *string, retryAt *time.Time) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}

	MedicalRecordRepository interface {
		Create(ctx context.Context, record *model.MedicalRecord) error
		Get(ctx context.Context, id uuid.UUID) (*model.MedicalRecord, error)
		ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.MedicalRecord, error)
	}

	PrescriptionRepository interface {
		Create(ctx context.Context, prescription *model.Prescription) error
		Get(ctx context.Context, id uuid.UUID) (*model.Prescription, error)
	}
)
