package event

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jwalitptl/clinic-checkin/internal/model"
	"github.com/jwalitptl/clinic-checkin/internal/repository"
	"github.com/jwalitptl/clinic-checkin/pkg/logger"
)

// Service records domain events in the outbox. The outbox processor relays
// them to the broker.
type Service struct {
	outboxRepo repository.OutboxRepository
	logger     *logger.Logger
}

func NewService(outboxRepo repository.OutboxRepository, logger *logger.Logger) *Service {
	return &Service{outboxRepo: outboxRepo, logger: logger}
}

func (s *Service) Emit(ctx context.Context, eventType string, payload interface{}) error {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	event := &model.OutboxEvent{
		EventType: eventType,
		Payload:   payloadJSON,
	}
	if err := s.outboxRepo.Create(ctx, event); err != nil {
		return fmt.Errorf("failed to create outbox event: %w", err)
	}

	s.logger.WithContext(ctx).Debug("Event queued", "event_id", event.ID.String(), "event_type", eventType)
	return nil
}

func (s *Service) EmitCheckInCreated(ctx context.Context, session *model.CheckInSession) error {
	return s.Emit(ctx, model.EventCheckInCreated, lifecyclePayload(session, ""))
}

func (s *Service) EmitCheckInCancelled(ctx context.Context, session *model.CheckInSession) error {
	reason := ""
	if session.CancellationReason != nil {
		reason = *session.CancellationReason
	}
	return s.Emit(ctx, model.EventCheckInCancelled, lifecyclePayload(session, reason))
}

func (s *Service) EmitDoctorNotified(ctx context.Context, session *model.CheckInSession) error {
	return s.Emit(ctx, model.EventDoctorNotified, doctorNotifiedPayload(session))
}
