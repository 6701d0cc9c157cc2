package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-checkin/internal/middleware"
	"github.com/jwalitptl/clinic-checkin/internal/model"
	"github.com/jwalitptl/clinic-checkin/pkg/errors"
)

type fakeCatalog struct {
	entries map[string][]model.CatalogEntry
}

func key(weekday time.Weekday, slot model.TimeSlot) string {
	return weekday.String() + "/" + string(slot)
}

func (f *fakeCatalog) Entries(_ context.Context, weekday time.Weekday, slot model.TimeSlot) ([]model.CatalogEntry, error) {
	if !slot.Valid() {
		return nil, errors.NewBadRequest("unknown time slot", nil)
	}
	return f.entries[key(weekday, slot)], nil
}

func (f *fakeCatalog) ReplaceEntries(_ context.Context, weekday time.Weekday, slot model.TimeSlot, entries []model.CatalogEntry) error {
	f.entries[key(weekday, slot)] = entries
	return nil
}

func setup(f *fakeCatalog) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.ErrorHandler())
	NewHandler(f).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func TestReplaceThenGet(t *testing.T) {
	f := &fakeCatalog{entries: map[string][]model.CatalogEntry{}}
	r := setup(f)

	body, _ := json.Marshal(map[string]interface{}{
		"services": []map[string]interface{}{
			{"service_type": "consultation", "requires_vital_signs": true, "max_capacity": 20},
			{"service_type": "vaccination"},
		},
	})
	req := httptest.NewRequest(http.MethodPut, "/api/v1/catalog/mon/morning", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	stored := f.entries[key(time.Monday, model.TimeSlotMorning)]
	require.Len(t, stored, 2)
	assert.Equal(t, model.ServiceType("consultation"), stored[0].ServiceType)
	assert.True(t, stored[0].RequiresVitalSigns)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/catalog/Monday/morning", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "vaccination")
}

func TestGetEmptyWindowAndBadInput(t *testing.T) {
	r := setup(&fakeCatalog{entries: map[string][]model.CatalogEntry{}})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/catalog/tuesday/afternoon", nil))
	assert.JSONEq(t, `{"status":"success","data":[]}`, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/catalog/funday/morning", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/catalog/monday/evening", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
