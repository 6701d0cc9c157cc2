package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Sequential number prefixes.
const (
	PrefixAppointment   = "APT"
	PrefixMedicalRecord = "MR"
	PrefixPrescription  = "RX"
)

type MedicalRecord struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	RecordNumber string          `db:"record_number" json:"record_number"`
	PatientID    uuid.UUID       `db:"patient_id" json:"patient_id" validate:"required"`
	SessionID    *uuid.UUID      `db:"session_id" json:"session_id,omitempty"`
	Type         string          `db:"type" json:"type" validate:"required,oneof=consultation vaccination prenatal family_planning dental laboratory"`
	Description  string          `db:"description" json:"description" validate:"max=4000"`
	Diagnosis    json.RawMessage `db:"diagnosis" json:"diagnosis,omitempty"`
	Treatment    json.RawMessage `db:"treatment" json:"treatment,omitempty"`
	CreatedBy    uuid.UUID       `db:"created_by" json:"created_by" validate:"required"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}

type Medication struct {
	Name     string `json:"name" validate:"required"`
	Dosage   string `json:"dosage" validate:"required"`
	Schedule string `json:"schedule"`
}

type Prescription struct {
	ID                 uuid.UUID       `db:"id" json:"id"`
	PrescriptionNumber string          `db:"prescription_number" json:"prescription_number"`
	PatientID          uuid.UUID       `db:"patient_id" json:"patient_id" validate:"required"`
	MedicalRecordID    *uuid.UUID      `db:"medical_record_id" json:"medical_record_id,omitempty"`
	MedicationsJSON    json.RawMessage `db:"medications" json:"-"`
	Medications        []Medication    `db:"-" json:"medications" validate:"required,min=1,dive"`
	Notes              string          `db:"notes" json:"notes,omitempty" validate:"max=2000"`
	PrescribedBy       uuid.UUID       `db:"prescribed_by" json:"prescribed_by" validate:"required"`
	CreatedAt          time.Time       `db:"created_at" json:"created_at"`
}
