package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jwalitptl/clinic-checkin/internal/email"
	"github.com/jwalitptl/clinic-checkin/internal/model"
	"github.com/jwalitptl/clinic-checkin/pkg/logger"
	"github.com/jwalitptl/clinic-checkin/pkg/messaging"
)

// Dispatcher fans doctor hand-offs out to the doctors' inbox.
type Dispatcher struct {
	broker   messaging.MessageBroker
	emailSvc email.Service
	inbox    string
	logger   *logger.Logger
}

func NewDispatcher(broker messaging.MessageBroker, emailSvc email.Service, inbox string, logger *logger.Logger) *Dispatcher {
	return &Dispatcher{
		broker:   broker,
		emailSvc: emailSvc,
		inbox:    inbox,
		logger:   logger,
	}
}

// Start subscribes to doctor-notified events. Handling stops when ctx is done.
func (d *Dispatcher) Start(ctx context.Context) error {
	if err := d.broker.Subscribe(ctx, model.EventDoctorNotified, d.HandleDoctorNotified); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", model.EventDoctorNotified, err)
	}
	d.logger.Info("Notification dispatcher subscribed", "topic", model.EventDoctorNotified)
	return nil
}

func (d *Dispatcher) HandleDoctorNotified(ctx context.Context, raw []byte) error {
	var payload model.DoctorNotifiedPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("invalid doctor notified payload: %w", err)
	}
	if payload.BookingNumber == "" {
		return fmt.Errorf("doctor notified payload for session %s has no booking number", payload.SessionID)
	}

	subject, body := renderDoctorNotified(payload)
	if err := d.emailSvc.SendCustom(ctx, d.inbox, subject, body); err != nil {
		return err
	}

	d.logger.Info("Doctor notified",
		"session_id", payload.SessionID.String(),
		"booking_number", payload.BookingNumber)
	return nil
}

func renderDoctorNotified(p model.DoctorNotifiedPayload) (string, string) {
	subject := fmt.Sprintf("[%s] Patient ready: %s", strings.ToUpper(string(p.Priority)), p.BookingNumber)

	var b strings.Builder
	fmt.Fprintf(&b, "Booking number: %s\n", p.BookingNumber)
	fmt.Fprintf(&b, "Service: %s (%s)\n", p.ServiceType, p.TimeSlot)
	fmt.Fprintf(&b, "Priority: %s\n", p.Priority)
	fmt.Fprintf(&b, "Ready since: %s\n", p.NotifiedAt.Format("15:04 MST"))
	fmt.Fprintf(&b, "Session: %s\n", p.SessionID)
	return subject, b.String()
}
