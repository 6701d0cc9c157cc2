package checkin

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-checkin/internal/handler"
	"github.com/jwalitptl/clinic-checkin/internal/model"
	"github.com/jwalitptl/clinic-checkin/internal/service/checkin"
	"github.com/jwalitptl/clinic-checkin/pkg/errors"
)

// Scheduler is the check-in state machine as seen by HTTP.
type Scheduler interface {
	SelectService(ctx context.Context, patientID uuid.UUID, now time.Time) (*model.ServiceSelection, error)
	SelectServiceWithToken(ctx context.Context, rawToken string, now time.Time) (*model.ServiceSelection, error)
	BeginCheckIn(ctx context.Context, req checkin.BeginCheckInRequest, now time.Time) (*model.CheckInSession, error)
	CheckInWithToken(ctx context.Context, rawToken string, service model.ServiceType, priority model.Priority, now time.Time) (*model.CheckInSession, error)
	GetSession(ctx context.Context, id uuid.UUID, now time.Time) (*model.CheckInSession, error)
	RecordVitals(ctx context.Context, id uuid.UUID, recordedBy *uuid.UUID, vitals *model.VitalSigns, now time.Time) (*model.CheckInSession, error)
	NotifyDoctor(ctx context.Context, id uuid.UUID, notifiedBy *uuid.UUID, now time.Time) (*model.CheckInSession, error)
	CompleteSession(ctx context.Context, id uuid.UUID, now time.Time) (*model.CheckInSession, error)
	CancelSession(ctx context.Context, id uuid.UUID, cancelledBy *uuid.UUID, reason string, now time.Time) (*model.CheckInSession, error)
	ReadyQueue(ctx context.Context, now time.Time) ([]*model.CheckInSession, error)
	PendingVitalsQueue(ctx context.Context, now time.Time) ([]*model.CheckInSession, error)
}

// TokenIssuer mints the QR payload printed for a patient.
type TokenIssuer interface {
	Issue(patientID uuid.UUID) (string, error)
}

type Handler struct {
	scheduler Scheduler
	tokens    TokenIssuer
	clock     handler.Clock
}

func NewHandler(scheduler Scheduler, tokens TokenIssuer, clock handler.Clock) *Handler {
	return &Handler{scheduler: scheduler, tokens: tokens, clock: clock}
}

// RegisterRoutes mounts the check-in API. kiosk carries the extra
// middleware for patient-facing endpoints (rate limiting).
func (h *Handler) RegisterRoutes(r *gin.RouterGroup, kiosk ...gin.HandlerFunc) {
	group := r.Group("/checkin")
	{
		public := group.Group("", kiosk...)
		public.POST("/options", h.Options)
		public.POST("", h.CheckIn)

		group.POST("/tokens", h.IssueToken)
		group.GET("/sessions/:id", h.GetSession)
		group.POST("/sessions/:id/vitals", h.RecordVitals)
		group.POST("/sessions/:id/notify", h.NotifyDoctor)
		group.POST("/sessions/:id/complete", h.Complete)
		group.POST("/sessions/:id/cancel", h.Cancel)
		group.GET("/queue/ready", h.ReadyQueue)
		group.GET("/queue/vitals", h.PendingVitalsQueue)
	}
}

type optionsRequest struct {
	PatientID uuid.UUID `json:"patient_id"`
	Token     string    `json:"token"`
}

// Options lists the services the patient may pick right now.
func (h *Handler) Options(c *gin.Context) {
	var req optionsRequest
	if err := handler.Bind(c, &req); err != nil {
		handler.Fail(c, err)
		return
	}

	now := h.clock.Now()
	var (
		selection *model.ServiceSelection
		err       error
	)
	if req.Token != "" {
		selection, err = h.scheduler.SelectServiceWithToken(c.Request.Context(), req.Token, now)
	} else {
		selection, err = h.scheduler.SelectService(c.Request.Context(), req.PatientID, now)
	}
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.Respond(c, http.StatusOK, selection)
}

type checkInRequest struct {
	PatientID   uuid.UUID         `json:"patient_id"`
	Token       string            `json:"token"`
	ServiceType model.ServiceType `json:"service_type"`
	Priority    model.Priority    `json:"priority"`
	CheckedInBy *uuid.UUID        `json:"checked_in_by"`
}

func (h *Handler) CheckIn(c *gin.Context) {
	var req checkInRequest
	if err := handler.Bind(c, &req); err != nil {
		handler.Fail(c, err)
		return
	}

	now := h.clock.Now()
	var (
		session *model.CheckInSession
		err     error
	)
	if req.Token != "" {
		session, err = h.scheduler.CheckInWithToken(c.Request.Context(), req.Token, req.ServiceType, req.Priority, now)
	} else {
		session, err = h.scheduler.BeginCheckIn(c.Request.Context(), checkin.BeginCheckInRequest{
			PatientID:   req.PatientID,
			ServiceType: req.ServiceType,
			Priority:    req.Priority,
			CheckedInBy: req.CheckedInBy,
		}, now)
	}
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.Respond(c, http.StatusCreated, session)
}

type tokenRequest struct {
	PatientID uuid.UUID `json:"patient_id" binding:"required"`
}

func (h *Handler) IssueToken(c *gin.Context) {
	if h.tokens == nil {
		handler.Fail(c, errors.NewNotFound("check-in tokens", nil))
		return
	}
	var req tokenRequest
	if err := handler.Bind(c, &req); err != nil {
		handler.Fail(c, err)
		return
	}
	token, err := h.tokens.Issue(req.PatientID)
	if err != nil {
		handler.Fail(c, errors.NewInternal(err))
		return
	}
	handler.Respond(c, http.StatusCreated, gin.H{"token": token})
}

func (h *Handler) GetSession(c *gin.Context) {
	id, err := handler.ParamID(c, "id")
	if err != nil {
		handler.Fail(c, err)
		return
	}
	session, err := h.scheduler.GetSession(c.Request.Context(), id, h.clock.Now())
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.Respond(c, http.StatusOK, session)
}

type vitalsRequest struct {
	RecordedBy *uuid.UUID        `json:"recorded_by"`
	VitalSigns *model.VitalSigns `json:"vital_signs"`
}

func (h *Handler) RecordVitals(c *gin.Context) {
	id, err := handler.ParamID(c, "id")
	if err != nil {
		handler.Fail(c, err)
		return
	}
	var req vitalsRequest
	if err := handler.Bind(c, &req); err != nil {
		handler.Fail(c, err)
		return
	}
	session, err := h.scheduler.RecordVitals(c.Request.Context(), id, req.RecordedBy, req.VitalSigns, h.clock.Now())
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.Respond(c, http.StatusOK, session)
}

type actorRequest struct {
	By     *uuid.UUID `json:"by"`
	Reason string     `json:"reason"`
}

// bindActor accepts an empty body.
func bindActor(c *gin.Context) (actorRequest, error) {
	var req actorRequest
	if c.Request.ContentLength == 0 {
		return req, nil
	}
	return req, handler.Bind(c, &req)
}

func (h *Handler) NotifyDoctor(c *gin.Context) {
	id, err := handler.ParamID(c, "id")
	if err != nil {
		handler.Fail(c, err)
		return
	}
	req, err := bindActor(c)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	session, err := h.scheduler.NotifyDoctor(c.Request.Context(), id, req.By, h.clock.Now())
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.Respond(c, http.StatusOK, session)
}

func (h *Handler) Complete(c *gin.Context) {
	id, err := handler.ParamID(c, "id")
	if err != nil {
		handler.Fail(c, err)
		return
	}
	session, err := h.scheduler.CompleteSession(c.Request.Context(), id, h.clock.Now())
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.Respond(c, http.StatusOK, session)
}

func (h *Handler) Cancel(c *gin.Context) {
	id, err := handler.ParamID(c, "id")
	if err != nil {
		handler.Fail(c, err)
		return
	}
	req, err := bindActor(c)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	session, err := h.scheduler.CancelSession(c.Request.Context(), id, req.By, req.Reason, h.clock.Now())
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.Respond(c, http.StatusOK, session)
}

func (h *Handler) ReadyQueue(c *gin.Context) {
	sessions, err := h.scheduler.ReadyQueue(c.Request.Context(), h.clock.Now())
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.Respond(c, http.StatusOK, nonNil(sessions))
}

func (h *Handler) PendingVitalsQueue(c *gin.Context) {
	sessions, err := h.scheduler.PendingVitalsQueue(c.Request.Context(), h.clock.Now())
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.Respond(c, http.StatusOK, nonNil(sessions))
}

func nonNil(sessions []*model.CheckInSession) []*model.CheckInSession {
	if sessions == nil {
		return []*model.CheckInSession{}
	}
	return sessions
}
