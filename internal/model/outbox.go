package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "pending"
	OutboxStatusRetry     OutboxStatus = "retry"
	OutboxStatusProcessed OutboxStatus = "processed"
	OutboxStatusFailed    OutboxStatus = "failed"
)

// Event types written by the check-in service.
const (
	EventCheckInCreated   = "checkin.created"
	EventCheckInCancelled = "checkin.cancelled"
	EventDoctorNotified   = "checkin.doctor_notified"
)

type OutboxEvent struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	EventType    string          `db:"event_type" json:"event_type"`
	Payload      json.RawMessage `db:"payload" json:"payload"`
	Status       OutboxStatus    `db:"status" json:"status"`
	ErrorMessage *string         `db:"error_message" json:"error_message,omitempty"`
	RetryCount   int             `db:"retry_count" json:"retry_count"`
	RetryAt      *time.Time      `db:"retry_at" json:"retry_at,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	ProcessedAt  *time.Time      `db:"processed_at" json:"processed_at,omitempty"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}

// DoctorNotifiedPayload is the body of EventDoctorNotified.
type DoctorNotifiedPayload struct {
	SessionID     uuid.UUID   `json:"session_id"`
	PatientID     uuid.UUID   `json:"patient_id"`
	BookingNumber string      `json:"booking_number"`
	ServiceType   ServiceType `json:"service_type"`
	TimeSlot      TimeSlot    `json:"time_slot"`
	Priority      Priority    `json:"priority"`
	NotifiedBy    *uuid.UUID  `json:"notified_by,omitempty"`
	NotifiedAt    time.Time   `json:"notified_at"`
}

// CheckInEventPayload is the body of the created/cancelled events.
type CheckInEventPayload struct {
	SessionID   uuid.UUID     `json:"session_id"`
	PatientID   uuid.UUID     `json:"patient_id"`
	Status      CheckInStatus `json:"status"`
	ServiceType ServiceType   `json:"service_type"`
	Reason      string        `json:"reason,omitempty"`
	OccurredAt  time.Time     `json:"occurred_at"`
}
