package medical

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-checkin/internal/handler"
	"github.com/jwalitptl/clinic-checkin/internal/model"
)

type Service interface {
	CreateMedicalRecord(ctx context.Context, record *model.MedicalRecord, now time.Time) error
	GetMedicalRecord(ctx context.Context, id uuid.UUID) (*model.MedicalRecord, error)
	ListMedicalRecords(ctx context.Context, patientID uuid.UUID) ([]*model.MedicalRecord, error)
	CreatePrescription(ctx context.Context, prescription *model.Prescription, now time.Time) error
	GetPrescription(ctx context.Context, id uuid.UUID) (*model.Prescription, error)
}

type Handler struct {
	service Service
	clock   handler.Clock
}

func NewHandler(service Service, clock handler.Clock) *Handler {
	return &Handler{service: service, clock: clock}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/medical-records", h.CreateMedicalRecord)
	r.GET("/medical-records/:id", h.GetMedicalRecord)
	r.GET("/patients/:id/medical-records", h.ListMedicalRecords)
	r.POST("/prescriptions", h.CreatePrescription)
	r.GET("/prescriptions/:id", h.GetPrescription)
}

func (h *Handler) CreateMedicalRecord(c *gin.Context) {
	var record model.MedicalRecord
	if err := handler.Bind(c, &record); err != nil {
		handler.Fail(c, err)
		return
	}
	if err := h.service.CreateMedicalRecord(c.Request.Context(), &record, h.clock.Now()); err != nil {
		handler.Fail(c, err)
		return
	}
	handler.Respond(c, http.StatusCreated, record)
}

func (h *Handler) GetMedicalRecord(c *gin.Context) {
	id, err := handler.ParamID(c, "id")
	if err != nil {
		handler.Fail(c, err)
		return
	}
	record, err := h.service.GetMedicalRecord(c.Request.Context(), id)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.Respond(c, http.StatusOK, record)
}

func (h *Handler) ListMedicalRecords(c *gin.Context) {
	patientID, err := handler.ParamID(c, "id")
	if err != nil {
		handler.Fail(c, err)
		return
	}
	records, err := h.service.ListMedicalRecords(c.Request.Context(), patientID)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	if records == nil {
		records = []*model.MedicalRecord{}
	}
	handler.Respond(c, http.StatusOK, records)
}

func (h *Handler) CreatePrescription(c *gin.Context) {
	var prescription model.Prescription
	if err := handler.Bind(c, &prescription); err != nil {
		handler.Fail(c, err)
		return
	}
	if err := h.service.CreatePrescription(c.Request.Context(), &prescription, h.clock.Now()); err != nil {
		handler.Fail(c, err)
		return
	}
	handler.Respond(c, http.StatusCreated, prescription)
}

func (h *Handler) GetPrescription(c *gin.Context) {
	id, err := handler.ParamID(c, "id")
	if err != nil {
		handler.Fail(c, err)
		return
	}
	prescription, err := h.service.GetPrescription(c.Request.Context(), id)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.Respond(c, http.StatusOK, prescription)
}
