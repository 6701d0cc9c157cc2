package event

import (
	"time"

	"github.com/jwalitptl/clinic-checkin/internal/model"
)

func lifecyclePayload(session *model.CheckInSession, reason string) model.CheckInEventPayload {
	return model.CheckInEventPayload{
		SessionID:   session.ID,
		PatientID:   session.PatientID,
		Status:      session.Status,
		ServiceType: session.ServiceType,
		Reason:      reason,
		OccurredAt:  session.UpdatedAt,
	}
}

func doctorNotifiedPayload(session *model.CheckInSession) model.DoctorNotifiedPayload {
	notifiedAt := session.UpdatedAt
	if session.DoctorNotifiedAt != nil {
		notifiedAt = *session.DoctorNotifiedAt
	}
	return model.DoctorNotifiedPayload{
		SessionID:     session.ID,
		PatientID:     session.PatientID,
		BookingNumber: session.BookingNumber,
		ServiceType:   session.ServiceType,
		TimeSlot:      session.TimeSlot,
		Priority:      session.Priority,
		NotifiedBy:    session.DoctorNotifiedBy,
		NotifiedAt:    notifiedAt.UTC().Truncate(time.Second),
	}
}
