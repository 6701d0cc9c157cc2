package postgres

import (
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/clinic-checkin/internal/repository"
)

type checkInRepository struct {
	BaseRepository
}

type appointmentRepository struct {
	BaseRepository
}

type scheduleRepository struct {
	BaseRepository
}

type counterRepository struct {
	BaseRepository
}

// Repositories bundles every Postgres-backed store.
type Repositories struct {
	CheckIns       repository.CheckInRepository
	Appointments   repository.AppointmentRepository
	Schedules      repository.ScheduleRepository
	Counters       repository.CounterRepository
	Outbox         repository.OutboxRepository
	MedicalRecords repository.MedicalRecordRepository
	Prescriptions  repository.PrescriptionRepository
}

func NewRepositories(db *sqlx.DB) *Repositories {
	base := NewBaseRepository(db)
	return &Repositories{
		CheckIns:       NewCheckInRepository(base),
		Appointments:   NewAppointmentRepository(base),
		Schedules:      NewScheduleRepository(base),
		Counters:       NewCounterRepository(base),
		Outbox:         NewOutboxRepository(base),
		MedicalRecords: NewMedicalRecordRepository(base),
		Prescriptions:  NewPrescriptionRepository(base),
	}
}

func NewCheckInRepository(base BaseRepository) repository.CheckInRepository {
	return &checkInRepository{base}
}

func NewAppointmentRepository(base BaseRepository) repository.AppointmentRepository {
	return &appointmentRepository{base}
}

func NewScheduleRepository(base BaseRepository) repository.ScheduleRepository {
	return &scheduleRepository{base}
}

func NewCounterRepository(base BaseRepository) repository.CounterRepository {
	return &counterRepository{base}
}
