package checkin

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-checkin/internal/model"
	"github.com/jwalitptl/clinic-checkin/internal/repository"
	"github.com/jwalitptl/clinic-checkin/pkg/errors"
	"github.com/jwalitptl/clinic-checkin/pkg/logger"
	"github.com/jwalitptl/clinic-checkin/pkg/metrics"
	"github.com/jwalitptl/clinic-checkin/pkg/validator"
)

// DefaultSessionTTL is how long a session stays active after check-in.
const DefaultSessionTTL = 24 * time.Hour

// Clock supplies the current time. Handlers read it once per request and
// pass the instant down so that one decision sees one "now".
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Catalog is the read side of the service catalog.
type Catalog interface {
	AvailableServices(ctx context.Context, weekday time.Weekday, slot model.TimeSlot) []model.CatalogEntry
}

// TokenVerifier validates a scanned QR payload.
type TokenVerifier interface {
	Verify(raw string) (patientID uuid.UUID, issuedAt time.Time, err error)
}

type IDAllocator interface {
	Next(ctx context.Context, prefix string, date time.Time) (string, error)
}

// NotificationSink receives session lifecycle events. Delivery is
// fire-and-forget from the scheduler's side: a failed emit is logged and
// never rolls back the transition that produced it.
type NotificationSink interface {
	EmitCheckInCreated(ctx context.Context, session *model.CheckInSession) error
	EmitDoctorNotified(ctx context.Context, session *model.CheckInSession) error
	EmitCheckInCancelled(ctx context.Context, session *model.CheckInSession) error
}

type Config struct {
	// Location defines calendar days and slots. Nil means time.Local.
	Location   *time.Location
	SessionTTL time.Duration
}

type Scheduler struct {
	repo      repository.CheckInRepository
	catalog   Catalog
	ids       IDAllocator
	sink      NotificationSink
	tokens    TokenVerifier
	loc       *time.Location
	ttl       time.Duration
	validator validator.Validator
	logger    *logger.Logger
	metrics   *metrics.Metrics
}

func NewScheduler(
	repo repository.CheckInRepository,
	catalog Catalog,
	ids IDAllocator,
	sink NotificationSink,
	tokens TokenVerifier,
	cfg Config,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *Scheduler {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = DefaultSessionTTL
	}
	return &Scheduler{
		repo:      repo,
		catalog:   catalog,
		ids:       ids,
		sink:      sink,
		tokens:    tokens,
		loc:       cfg.Location,
		ttl:       cfg.SessionTTL,
		validator: validator.New(),
		logger:    logger,
		metrics:   metrics,
	}
}

// window is the (weekday, slot, day) resolved once per decision.
type window struct {
	local   time.Time
	weekday time.Weekday
	slot    model.TimeSlot
	date    time.Time
}

func (s *Scheduler) resolve(now time.Time) window {
	local := now.In(s.loc)
	weekday, slot := model.ResolveSlot(local)
	return window{local: local, weekday: weekday, slot: slot, date: model.DateOf(local)}
}

type BeginCheckInRequest struct {
	PatientID   uuid.UUID         `json:"patient_id" validate:"required"`
	ServiceType model.ServiceType `json:"service_type" validate:"required,max=64"`
	Priority    model.Priority    `json:"priority" validate:"omitempty,oneof=low normal high urgent"`
	CheckedInBy *uuid.UUID        `json:"checked_in_by,omitempty"`
}

// SelectService runs the pre-confirmation checks and lists what the patient
// may pick right now, with today's remaining capacity.
func (s *Scheduler) SelectService(ctx context.Context, patientID uuid.UUID, now time.Time) (*model.ServiceSelection, error) {
	if patientID == uuid.Nil {
		return nil, errors.NewBadRequest("patient_id is required", nil)
	}
	w := s.resolve(now)

	entries, err := s.precheck(ctx, patientID, w, now)
	if err != nil {
		return nil, err
	}

	options := make([]model.ServiceOption, 0, len(entries))
	for _, e := range entries {
		opt := model.ServiceOption{CatalogEntry: e}
		if !e.Unlimited() {
			booked, err := s.repo.CountForService(ctx, w.date, w.slot, e.ServiceType)
			if err != nil {
				return nil, s.storageError(ctx, err, "count sessions for service")
			}
			remaining := e.MaxCapacity - booked
			if remaining < 0 {
				remaining = 0
			}
			opt.Booked = booked
			opt.Remaining = &remaining
		}
		options = append(options, opt)
	}

	return &model.ServiceSelection{
		PatientID: patientID,
		Weekday:   w.weekday.String(),
		TimeSlot:  w.slot,
		Services:  options,
	}, nil
}

// BeginCheckIn creates today's session for the patient together with its
// walk-in appointment. The catalog is consulted again here, so a service
// removed since SelectService is rejected.
func (s *Scheduler) BeginCheckIn(ctx context.Context, req BeginCheckInRequest, now time.Time) (*model.CheckInSession, error) {
	if req.Priority == "" {
		req.Priority = model.PriorityNormal
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, &errors.AppError{Code: errors.ErrBadRequest, Message: "invalid check-in request", Details: err, Err: err}
	}
	w := s.resolve(now)

	entries, err := s.precheck(ctx, req.PatientID, w, now)
	if err != nil {
		return nil, err
	}

	entry, ok := findService(entries, req.ServiceType)
	if !ok {
		s.reject(ctx, "service_unavailable", req.PatientID)
		return nil, errors.NewServiceNoLongerAvailable(string(req.ServiceType))
	}

	if !entry.Unlimited() {
		booked, err := s.repo.CountForService(ctx, w.date, w.slot, entry.ServiceType)
		if err != nil {
			return nil, s.storageError(ctx, err, "count sessions for service")
		}
		if booked >= entry.MaxCapacity {
			s.reject(ctx, "capacity_reached", req.PatientID)
			return nil, errors.NewCapacityReached(string(entry.ServiceType), entry.MaxCapacity)
		}
	}

	bookingNumber, err := s.ids.Next(ctx, model.PrefixAppointment, w.local)
	if err != nil {
		return nil, err
	}

	stamp := now.UTC()
	appt := &model.Appointment{
		ID:            uuid.New(),
		PatientID:     req.PatientID,
		BookingNumber: bookingNumber,
		ServiceType:   entry.ServiceType,
		TimeSlot:      w.slot,
		AppointmentAt: stamp,
		DurationMin:   entry.EstimatedDurationMinutes,
		Type:          model.AppointmentTypeWalkIn,
		Status:        model.AppointmentStatusArrived,
		CreatedAt:     stamp,
		UpdatedAt:     stamp,
	}
	session := &model.CheckInSession{
		ID:                 uuid.New(),
		PatientID:          req.PatientID,
		CheckInDate:        w.date,
		Status:             model.CheckInStatusActive,
		ServiceType:        entry.ServiceType,
		TimeSlot:           w.slot,
		Priority:           req.Priority,
		VitalSignsRequired: entry.RequiresVitalSigns,
		AppointmentID:      appt.ID,
		BookingNumber:      bookingNumber,
		CheckedInBy:        req.CheckedInBy,
		ExpiresAt:          stamp.Add(s.ttl),
		CreatedAt:          stamp,
		UpdatedAt:          stamp,
	}

	if err := s.repo.CreateWithAppointment(ctx, session, appt); err != nil {
		switch {
		case stderrors.Is(err, repository.ErrNumberTaken):
			s.metrics.CheckInRejected.WithLabelValues("booking_number_taken").Inc()
			s.logger.WithContext(ctx).Error(err, "Booking number already issued, counter needs seeding",
				"booking_number", bookingNumber)
			return nil, errors.NewAllocationUnavailable(err)
		case stderrors.Is(err, repository.ErrDuplicate):
			s.reject(ctx, "already_checked_in", req.PatientID)
			return nil, s.alreadyCheckedIn(ctx, req.PatientID, w, now)
		}
		return nil, s.storageError(ctx, err, "create check-in session")
	}

	s.metrics.CheckIns.WithLabelValues(string(session.ServiceType), string(session.TimeSlot)).Inc()
	s.logger.WithContext(ctx).Info("Patient checked in",
		"session_id", session.ID.String(),
		"booking_number", bookingNumber,
		"service_type", string(session.ServiceType),
		"slot", string(session.TimeSlot))

	if err := s.sink.EmitCheckInCreated(ctx, session); err != nil {
		s.logger.WithContext(ctx).Error(err, "Failed to emit check-in created event", "session_id", session.ID.String())
	}
	return session, nil
}

// SelectServiceWithToken verifies a scanned QR token then previews services.
func (s *Scheduler) SelectServiceWithToken(ctx context.Context, rawToken string, now time.Time) (*model.ServiceSelection, error) {
	patientID, err := s.verify(ctx, rawToken)
	if err != nil {
		return nil, err
	}
	return s.SelectService(ctx, patientID, now)
}

// CheckInWithToken verifies a scanned QR token then checks the patient in.
func (s *Scheduler) CheckInWithToken(ctx context.Context, rawToken string, service model.ServiceType, priority model.Priority, now time.Time) (*model.CheckInSession, error) {
	patientID, err := s.verify(ctx, rawToken)
	if err != nil {
		return nil, err
	}
	return s.BeginCheckIn(ctx, BeginCheckInRequest{
		PatientID:   patientID,
		ServiceType: service,
		Priority:    priority,
	}, now)
}

func (s *Scheduler) verify(ctx context.Context, rawToken string) (uuid.UUID, error) {
	if s.tokens == nil {
		return uuid.Nil, errors.Unauthorized(fmt.Errorf("check-in tokens are not configured"))
	}
	patientID, _, err := s.tokens.Verify(rawToken)
	if err != nil {
		s.reject(ctx, "invalid_token", uuid.Nil)
		return uuid.Nil, errors.Unauthorized(err)
	}
	return patientID, nil
}

// precheck covers the shared steps: clinic open, no session yet today,
// something on offer in this window.
func (s *Scheduler) precheck(ctx context.Context, patientID uuid.UUID, w window, now time.Time) ([]model.CatalogEntry, error) {
	if !model.IsClinicDay(w.weekday) {
		s.reject(ctx, "clinic_closed", patientID)
		return nil, errors.NewClinicClosed(w.weekday.String())
	}

	existing, err := s.repo.FindActiveOrCompleted(ctx, patientID, w.date)
	switch {
	case err == nil && existing.EffectiveStatus(now) == model.CheckInStatusExpired:
		// The store still holds it as active and the daily index would
		// reject the insert, so write the expiry before going on.
		if _, err := s.ExpireStale(ctx, now); err != nil {
			return nil, err
		}
	case err == nil:
		s.reject(ctx, "already_checked_in", patientID)
		return nil, errors.NewAlreadyCheckedIn(existing.Summary(now))
	case !stderrors.Is(err, repository.ErrNotFound):
		return nil, s.storageError(ctx, err, "find existing session")
	}

	entries := s.catalog.AvailableServices(ctx, w.weekday, w.slot)
	if len(entries) == 0 {
		s.reject(ctx, "no_services", patientID)
		return nil, errors.NewNoServicesAvailable(w.weekday.String(), string(w.slot))
	}
	return entries, nil
}

// alreadyCheckedIn builds the error for a writer that lost the uniqueness race.
func (s *Scheduler) alreadyCheckedIn(ctx context.Context, patientID uuid.UUID, w window, now time.Time) error {
	winner, err := s.repo.FindActiveOrCompleted(ctx, patientID, w.date)
	if err != nil {
		s.logger.WithContext(ctx).Debug("Could not load winning session", "patient_id", patientID.String(), "error", err.Error())
		return errors.NewAlreadyCheckedIn(nil)
	}
	return errors.NewAlreadyCheckedIn(winner.Summary(now))
}

func (s *Scheduler) reject(ctx context.Context, reason string, patientID uuid.UUID) {
	s.metrics.CheckInRejected.WithLabelValues(reason).Inc()
	s.logger.WithContext(ctx).Debug("Check-in rejected", "reason", reason, "patient_id", patientID.String())
}

func (s *Scheduler) storageError(ctx context.Context, err error, op string) error {
	s.metrics.DatabaseOperations.WithLabelValues(op, "error").Inc()
	s.logger.WithContext(ctx).Error(err, "Check-in storage failure", "operation", op)
	return errors.NewStorageUnavailable(err)
}

func findService(entries []model.CatalogEntry, service model.ServiceType) (model.CatalogEntry, bool) {
	for _, e := range entries {
		if e.ServiceType == service {
			return e, true
		}
	}
	return model.CatalogEntry{}, false
}
