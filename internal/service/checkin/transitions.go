package checkin

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-checkin/internal/model"
	"github.com/jwalitptl/clinic-checkin/internal/repository"
	"github.com/jwalitptl/clinic-checkin/pkg/errors"
)

const maxCancellationReason = 500

// GetSession returns the session as seen at now; an active session past its
// expiry reads as expired.
func (s *Scheduler) GetSession(ctx context.Context, id uuid.UUID, now time.Time) (*model.CheckInSession, error) {
	session, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	session.Status = session.EffectiveStatus(now)
	return session, nil
}

// RecordVitals closes the vitals step. Calling it again on a session whose
// vitals are already recorded returns the session unchanged.
func (s *Scheduler) RecordVitals(ctx context.Context, id uuid.UUID, recordedBy *uuid.UUID, vitals *model.VitalSigns, now time.Time) (*model.CheckInSession, error) {
	if vitals != nil {
		if err := s.validator.Validate(vitals); err != nil {
			return nil, &errors.AppError{Code: errors.ErrBadRequest, Message: "invalid vital signs", Details: err, Err: err}
		}
	}

	session, err := s.loadActive(ctx, id, now, "record_vitals")
	if err != nil {
		return nil, err
	}
	if session.VitalSignsCompleted {
		return session, nil
	}

	stamp := now.UTC()
	session.VitalSignsCompleted = true
	session.VitalSignsCompletedAt = &stamp
	session.VitalSignsRecordedBy = recordedBy
	session.VitalSigns = vitals
	session.UpdatedAt = stamp

	if err := s.update(ctx, session, "", now, "record_vitals"); err != nil {
		return nil, err
	}
	return session, nil
}

// NotifyDoctor hands the session to clinical staff. It is refused while
// required vitals are outstanding and emits at most one event per session.
func (s *Scheduler) NotifyDoctor(ctx context.Context, id uuid.UUID, notifiedBy *uuid.UUID, now time.Time) (*model.CheckInSession, error) {
	session, err := s.loadActive(ctx, id, now, "notify_doctor")
	if err != nil {
		return nil, err
	}
	if !session.VitalsGateSatisfied() {
		s.metrics.Transitions.WithLabelValues("notify_doctor", "vitals_pending").Inc()
		s.logger.WithContext(ctx).Debug("Doctor notification blocked on vitals", "session_id", id.String())
		return nil, errors.NewVitalsPending()
	}
	if session.DoctorNotified {
		return session, nil
	}

	stamp := now.UTC()
	session.DoctorNotified = true
	session.DoctorNotifiedAt = &stamp
	session.DoctorNotifiedBy = notifiedBy
	session.UpdatedAt = stamp

	if err := s.update(ctx, session, "", now, "notify_doctor"); err != nil {
		return nil, err
	}

	if err := s.sink.EmitDoctorNotified(ctx, session); err != nil {
		s.logger.WithContext(ctx).Error(err, "Failed to emit doctor notification", "session_id", id.String())
	}
	return session, nil
}

func (s *Scheduler) CompleteSession(ctx context.Context, id uuid.UUID, now time.Time) (*model.CheckInSession, error) {
	session, err := s.loadActive(ctx, id, now, "complete")
	if err != nil {
		return nil, err
	}

	stamp := now.UTC()
	session.Status = model.CheckInStatusCompleted
	session.CompletedAt = &stamp
	session.UpdatedAt = stamp

	if err := s.update(ctx, session, model.AppointmentStatusCompleted, now, "complete"); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *Scheduler) CancelSession(ctx context.Context, id uuid.UUID, cancelledBy *uuid.UUID, reason string, now time.Time) (*model.CheckInSession, error) {
	if len(reason) > maxCancellationReason {
		return nil, errors.NewBadRequest("cancellation reason is too long", nil)
	}
	session, err := s.loadActive(ctx, id, now, "cancel")
	if err != nil {
		return nil, err
	}

	stamp := now.UTC()
	session.Status = model.CheckInStatusCancelled
	session.CancelledAt = &stamp
	session.CancelledBy = cancelledBy
	if reason != "" {
		session.CancellationReason = &reason
	}
	session.UpdatedAt = stamp

	if err := s.update(ctx, session, model.AppointmentStatusCancelled, now, "cancel"); err != nil {
		return nil, err
	}

	if err := s.sink.EmitCheckInCancelled(ctx, session); err != nil {
		s.logger.WithContext(ctx).Error(err, "Failed to emit cancellation event", "session_id", id.String())
	}
	return session, nil
}

// ExpireStale writes the expired status for every active session past its
// expiry and marks their appointments as no-shows.
func (s *Scheduler) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	expired, err := s.repo.ExpireBefore(ctx, now.UTC())
	if err != nil {
		return 0, s.storageError(ctx, err, "expire sessions")
	}
	if expired > 0 {
		s.metrics.SessionsExpired.Add(float64(expired))
		s.logger.WithContext(ctx).Info("Expired stale check-in sessions", "count", expired)
	}
	return expired, nil
}

func (s *Scheduler) load(ctx context.Context, id uuid.UUID) (*model.CheckInSession, error) {
	session, err := s.repo.Get(ctx, id)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.NewNotFound("check-in session", err)
		}
		return nil, s.storageError(ctx, err, "get session")
	}
	return session, nil
}

func (s *Scheduler) loadActive(ctx context.Context, id uuid.UUID, now time.Time, transition string) (*model.CheckInSession, error) {
	session, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if status := session.EffectiveStatus(now); status != model.CheckInStatusActive {
		s.metrics.Transitions.WithLabelValues(transition, "not_active").Inc()
		s.logger.WithContext(ctx).Debug("Transition on inactive session",
			"session_id", id.String(), "transition", transition, "status", string(status))
		return nil, errors.NewSessionNotActive(string(status))
	}
	return session, nil
}

// update persists a transition. The store only accepts it while the session
// is still active, so a concurrent terminal transition wins and this one
// reports SessionNotActive.
func (s *Scheduler) update(ctx context.Context, session *model.CheckInSession, appt model.AppointmentStatus, now time.Time, transition string) error {
	err := s.repo.Update(ctx, session, appt)
	if err == nil {
		s.metrics.Transitions.WithLabelValues(transition, "ok").Inc()
		s.logger.WithContext(ctx).Info("Check-in session updated",
			"session_id", session.ID.String(), "transition", transition, "status", string(session.Status))
		return nil
	}
	if !stderrors.Is(err, repository.ErrConflict) {
		return s.storageError(ctx, err, transition)
	}

	s.metrics.Transitions.WithLabelValues(transition, "not_active").Inc()
	current, getErr := s.repo.Get(ctx, session.ID)
	if getErr != nil {
		return errors.NewSessionNotActive("no longer active")
	}
	return errors.NewSessionNotActive(string(current.EffectiveStatus(now)))
}
