package model

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	AppointmentStatusArrived   AppointmentStatus = "arrived"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
	AppointmentStatusNoShow    AppointmentStatus = "no_show"
)

// Appointment is the same-day walk-in record created alongside a check-in session.
type Appointment struct {
	ID            uuid.UUID         `db:"id" json:"id"`
	PatientID     uuid.UUID         `db:"patient_id" json:"patient_id"`
	BookingNumber string            `db:"booking_number" json:"booking_number"`
	ServiceType   ServiceType       `db:"service_type" json:"service_type"`
	TimeSlot      TimeSlot          `db:"time_slot" json:"time_slot"`
	AppointmentAt time.Time         `db:"appointment_at" json:"appointment_at"`
	DurationMin   int               `db:"duration_minutes" json:"duration_minutes"`
	Type          string            `db:"type" json:"type"`
	Status        AppointmentStatus `db:"status" json:"status"`
	CancelReason  *string           `db:"cancel_reason" json:"cancel_reason,omitempty"`
	CreatedAt     time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time         `db:"updated_at" json:"updated_at"`
}

const AppointmentTypeWalkIn = "walkin"
