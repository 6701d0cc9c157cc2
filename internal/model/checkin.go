package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type CheckInStatus string

const (
	CheckInStatusActive    CheckInStatus = "active"
	CheckInStatusCompleted CheckInStatus = "completed"
	CheckInStatusExpired   CheckInStatus = "expired"
	CheckInStatusCancelled CheckInStatus = "cancelled"
)

// Terminal reports whether no further transition may leave the status.
func (s CheckInStatus) Terminal() bool {
	return s != CheckInStatusActive
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Rank orders priorities; higher is served first.
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 0
	case PriorityHigh:
		return 2
	case PriorityUrgent:
		return 3
	default:
		return 1
	}
}

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// CheckInSession is the single authoritative daily session of a walk-in patient.
type CheckInSession struct {
	ID                    uuid.UUID     `db:"id" json:"id"`
	PatientID             uuid.UUID     `db:"patient_id" json:"patient_id"`
	CheckInDate           time.Time     `db:"checkin_date" json:"checkin_date"`
	Status                CheckInStatus `db:"status" json:"status"`
	ServiceType           ServiceType   `db:"service_type" json:"service_type"`
	TimeSlot              TimeSlot      `db:"time_slot" json:"time_slot"`
	Priority              Priority      `db:"priority" json:"priority"`
	VitalSignsRequired    bool          `db:"vital_signs_required" json:"vital_signs_required"`
	VitalSignsCompleted   bool          `db:"vital_signs_completed" json:"vital_signs_completed"`
	VitalSignsCompletedAt *time.Time    `db:"vital_signs_completed_at" json:"vital_signs_completed_at,omitempty"`
	VitalSignsRecordedBy  *uuid.UUID    `db:"vital_signs_recorded_by" json:"vital_signs_recorded_by,omitempty"`
	VitalSigns            *VitalSigns   `db:"vital_signs" json:"vital_signs,omitempty"`
	DoctorNotified        bool          `db:"doctor_notified" json:"doctor_notified"`
	DoctorNotifiedAt      *time.Time    `db:"doctor_notified_at" json:"doctor_notified_at,omitempty"`
	DoctorNotifiedBy      *uuid.UUID    `db:"doctor_notified_by" json:"doctor_notified_by,omitempty"`
	AppointmentID         uuid.UUID     `db:"appointment_id" json:"appointment_id"`
	BookingNumber         string        `db:"booking_number" json:"booking_number"`
	CheckedInBy           *uuid.UUID    `db:"checked_in_by" json:"checked_in_by,omitempty"`
	ExpiresAt             time.Time     `db:"expires_at" json:"expires_at"`
	CompletedAt           *time.Time    `db:"completed_at" json:"completed_at,omitempty"`
	CancelledAt           *time.Time    `db:"cancelled_at" json:"cancelled_at,omitempty"`
	CancelledBy           *uuid.UUID    `db:"cancelled_by" json:"cancelled_by,omitempty"`
	CancellationReason    *string       `db:"cancellation_reason" json:"cancellation_reason,omitempty"`
	CreatedAt             time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time     `db:"updated_at" json:"updated_at"`
}

// EffectiveStatus is the status as seen at now: an active session past its
// expiry reads as expired whether or not the reaper has written it yet.
func (s *CheckInSession) EffectiveStatus(now time.Time) CheckInStatus {
	if s.Status == CheckInStatusActive && now.After(s.ExpiresAt) {
		return CheckInStatusExpired
	}
	return s.Status
}

// IsActive is true only for unexpired active sessions.
func (s *CheckInSession) IsActive(now time.Time) bool {
	return s.EffectiveStatus(now) == CheckInStatusActive
}

// VitalsGateSatisfied reports whether the doctor may be notified.
func (s *CheckInSession) VitalsGateSatisfied() bool {
	return !s.VitalSignsRequired || s.VitalSignsCompleted
}

// Summary is the trimmed view shown to a patient who scans twice.
func (s *CheckInSession) Summary(now time.Time) CheckInSummary {
	return CheckInSummary{
		SessionID:     s.ID,
		Status:        s.EffectiveStatus(now),
		ServiceType:   s.ServiceType,
		TimeSlot:      s.TimeSlot,
		BookingNumber: s.BookingNumber,
		CheckedInAt:   s.CreatedAt,
	}
}

type CheckInSummary struct {
	SessionID     uuid.UUID     `json:"session_id"`
	Status        CheckInStatus `json:"status"`
	ServiceType   ServiceType   `json:"service_type"`
	TimeSlot      TimeSlot      `json:"time_slot"`
	BookingNumber string        `json:"booking_number"`
	CheckedInAt   time.Time     `json:"checked_in_at"`
}

// ServiceSelection is what the kiosk shows before the patient confirms.
type ServiceSelection struct {
	PatientID uuid.UUID       `json:"patient_id"`
	Weekday   string          `json:"weekday"`
	TimeSlot  TimeSlot        `json:"time_slot"`
	Services  []ServiceOption `json:"services"`
}

// Value stores vitals as JSONB.
func (v VitalSigns) Value() (driver.Value, error) {
	return json.Marshal(v)
}

func (v *VitalSigns) Scan(src interface{}) error {
	switch b := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(b, v)
	case string:
		return json.Unmarshal([]byte(b), v)
	default:
		return fmt.Errorf("unsupported vital signs source %T", src)
	}
}
