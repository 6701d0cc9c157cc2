package model

import (
	"time"

	"github.com/google/uuid"
)

type ServiceType string

const (
	ServiceConsultation   ServiceType = "consultation"
	ServiceVaccination    ServiceType = "vaccination"
	ServicePrenatal       ServiceType = "prenatal"
	ServiceFamilyPlanning ServiceType = "family_planning"
	ServiceDental         ServiceType = "dental"
	ServiceLaboratory     ServiceType = "laboratory"
)

// CatalogEntry is one service offered in a (weekday, slot) window.
type CatalogEntry struct {
	ID                       uuid.UUID    `db:"id" json:"id"`
	Weekday                  time.Weekday `db:"weekday" json:"weekday"`
	TimeSlot                 TimeSlot     `db:"time_slot" json:"time_slot"`
	Position                 int          `db:"position" json:"position"`
	ServiceType              ServiceType  `db:"service_type" json:"service_type" validate:"required,max=64"`
	RequiresVitalSigns       bool         `db:"requires_vital_signs" json:"requires_vital_signs"`
	MaxCapacity              int          `db:"max_capacity" json:"max_capacity" validate:"gte=0"`
	EstimatedDurationMinutes int          `db:"estimated_duration_minutes" json:"estimated_duration_minutes" validate:"gte=0,lte=480"`
	UpdatedAt                time.Time    `db:"updated_at" json:"updated_at"`
}

// Unlimited reports whether the entry has no capacity cap.
func (e CatalogEntry) Unlimited() bool {
	return e.MaxCapacity <= 0
}

// ServiceOption is a catalog entry annotated with today's remaining capacity.
type ServiceOption struct {
	CatalogEntry
	Booked    int  `json:"booked"`
	Remaining *int `json:"remaining,omitempty"`
}

func (o ServiceOption) Full() bool {
	return o.Remaining != nil && *o.Remaining <= 0
}
