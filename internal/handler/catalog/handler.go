package catalog

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-checkin/internal/handler"
	"github.com/jwalitptl/clinic-checkin/internal/model"
	"github.com/jwalitptl/clinic-checkin/pkg/errors"
)

type Catalog interface {
	Entries(ctx context.Context, weekday time.Weekday, slot model.TimeSlot) ([]model.CatalogEntry, error)
	ReplaceEntries(ctx context.Context, weekday time.Weekday, slot model.TimeSlot, entries []model.CatalogEntry) error
}

type Handler struct {
	catalog Catalog
}

func NewHandler(catalog Catalog) *Handler {
	return &Handler{catalog: catalog}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	catalog := r.Group("/catalog")
	{
		catalog.GET("/:weekday/:slot", h.GetEntries)
		catalog.PUT("/:weekday/:slot", h.ReplaceEntries)
	}
}

func window(c *gin.Context) (time.Weekday, model.TimeSlot, error) {
	weekday, err := model.ParseWeekday(c.Param("weekday"))
	if err != nil {
		return 0, "", errors.NewBadRequest(err.Error(), err)
	}
	return weekday, model.TimeSlot(c.Param("slot")), nil
}

func (h *Handler) GetEntries(c *gin.Context) {
	weekday, slot, err := window(c)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	entries, err := h.catalog.Entries(c.Request.Context(), weekday, slot)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	if entries == nil {
		entries = []model.CatalogEntry{}
	}
	handler.Respond(c, http.StatusOK, entries)
}

type replaceRequest struct {
	Services []model.CatalogEntry `json:"services"`
}

// ReplaceEntries swaps the window's whole offer; the list order is the
// order shown on the kiosk.
func (h *Handler) ReplaceEntries(c *gin.Context) {
	weekday, slot, err := window(c)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	var req replaceRequest
	if err := handler.Bind(c, &req); err != nil {
		handler.Fail(c, err)
		return
	}
	if err := h.catalog.ReplaceEntries(c.Request.Context(), weekday, slot, req.Services); err != nil {
		handler.Fail(c, err)
		return
	}

	entries, err := h.catalog.Entries(c.Request.Context(), weekday, slot)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.Respond(c, http.StatusOK, entries)
}
