package checkin

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-checkin/internal/middleware"
	"github.com/jwalitptl/clinic-checkin/internal/model"
	"github.com/jwalitptl/clinic-checkin/internal/service/checkin"
	"github.com/jwalitptl/clinic-checkin/pkg/errors"
)

type fixedClock time.Time

func (c fixedClock) Now() time.Time { return time.Time(c) }

var monday = time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)

// stubScheduler answers only what a test sets; the embedded interface
// panics on anything else.
type stubScheduler struct {
	Scheduler
	selectFn func(patientID uuid.UUID) (*model.ServiceSelection, error)
	tokenFn  func(raw string) (*model.ServiceSelection, error)
	beginFn  func(req checkin.BeginCheckInRequest, now time.Time) (*model.CheckInSession, error)
	notifyFn func(id uuid.UUID, by *uuid.UUID) (*model.CheckInSession, error)
	cancelFn func(id uuid.UUID, by *uuid.UUID, reason string) (*model.CheckInSession, error)
	readyFn  func() ([]*model.CheckInSession, error)
}

func (s *stubScheduler) SelectService(_ context.Context, patientID uuid.UUID, _ time.Time) (*model.ServiceSelection, error) {
	return s.selectFn(patientID)
}

func (s *stubScheduler) SelectServiceWithToken(_ context.Context, raw string, _ time.Time) (*model.ServiceSelection, error) {
	return s.tokenFn(raw)
}

func (s *stubScheduler) BeginCheckIn(_ context.Context, req checkin.BeginCheckInRequest, now time.Time) (*model.CheckInSession, error) {
	return s.beginFn(req, now)
}

func (s *stubScheduler) NotifyDoctor(_ context.Context, id uuid.UUID, by *uuid.UUID, _ time.Time) (*model.CheckInSession, error) {
	return s.notifyFn(id, by)
}

func (s *stubScheduler) CancelSession(_ context.Context, id uuid.UUID, by *uuid.UUID, reason string, _ time.Time) (*model.CheckInSession, error) {
	return s.cancelFn(id, by, reason)
}

func (s *stubScheduler) ReadyQueue(context.Context, time.Time) ([]*model.CheckInSession, error) {
	return s.readyFn()
}

func setup(s Scheduler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.ErrorHandler())
	NewHandler(s, nil, fixedClock(monday)).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func perform(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCheckInCreated(t *testing.T) {
	patient := uuid.New()
	var got checkin.BeginCheckInRequest
	var gotNow time.Time
	r := setup(&stubScheduler{beginFn: func(req checkin.BeginCheckInRequest, now time.Time) (*model.CheckInSession, error) {
		got, gotNow = req, now
		return &model.CheckInSession{ID: uuid.New(), PatientID: req.PatientID, BookingNumber: "APT-20240101-00001"}, nil
	}})

	w := perform(r, http.MethodPost, "/api/v1/checkin", map[string]interface{}{
		"patient_id":   patient,
		"service_type": "consultation",
		"priority":     "high",
	})

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, patient, got.PatientID)
	assert.Equal(t, model.ServiceType("consultation"), got.ServiceType)
	assert.Equal(t, model.Priority("high"), got.Priority)
	assert.Equal(t, monday, gotNow)
	assert.Contains(t, w.Body.String(), "APT-20240101-00001")
}

func TestCheckInAlreadyCheckedInCarriesSummary(t *testing.T) {
	summary := model.CheckInSummary{SessionID: uuid.New(), BookingNumber: "APT-20240101-00007"}
	r := setup(&stubScheduler{beginFn: func(checkin.BeginCheckInRequest, time.Time) (*model.CheckInSession, error) {
		return nil, errors.NewAlreadyCheckedIn(summary)
	}})

	w := perform(r, http.MethodPost, "/api/v1/checkin", map[string]interface{}{
		"patient_id":   uuid.New(),
		"service_type": "consultation",
	})

	require.Equal(t, http.StatusConflict, w.Code)
	var resp middleware.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "already_checked_in", resp.Error)
	assert.Contains(t, w.Body.String(), "APT-20240101-00007")
}

func TestOptionsPrefersToken(t *testing.T) {
	r := setup(&stubScheduler{
		tokenFn: func(raw string) (*model.ServiceSelection, error) {
			assert.Equal(t, "qr-payload", raw)
			return &model.ServiceSelection{Weekday: "Monday", TimeSlot: model.TimeSlotMorning}, nil
		},
	})

	w := perform(r, http.MethodPost, "/api/v1/checkin/options", map[string]string{"token": "qr-payload"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Monday")
}

func TestOptionsClinicClosed(t *testing.T) {
	r := setup(&stubScheduler{selectFn: func(uuid.UUID) (*model.ServiceSelection, error) {
		return nil, errors.NewClinicClosed("Saturday")
	}})

	w := perform(r, http.MethodPost, "/api/v1/checkin/options", map[string]interface{}{"patient_id": uuid.New()})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "clinic_closed")
}

func TestNotifyDoctorVitalsPending(t *testing.T) {
	id := uuid.New()
	r := setup(&stubScheduler{notifyFn: func(got uuid.UUID, by *uuid.UUID) (*model.CheckInSession, error) {
		assert.Equal(t, id, got)
		assert.Nil(t, by)
		return nil, errors.NewVitalsPending()
	}})

	w := perform(r, http.MethodPost, "/api/v1/checkin/sessions/"+id.String()+"/notify", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "vitals_pending")
}

func TestCancelPassesReason(t *testing.T) {
	id, staff := uuid.New(), uuid.New()
	r := setup(&stubScheduler{cancelFn: func(got uuid.UUID, by *uuid.UUID, reason string) (*model.CheckInSession, error) {
		require.NotNil(t, by)
		assert.Equal(t, staff, *by)
		assert.Equal(t, "left the clinic", reason)
		return &model.CheckInSession{ID: got, Status: model.CheckInStatusCancelled}, nil
	}})

	w := perform(r, http.MethodPost, "/api/v1/checkin/sessions/"+id.String()+"/cancel",
		map[string]interface{}{"by": staff, "reason": "left the clinic"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestInvalidSessionID(t *testing.T) {
	r := setup(&stubScheduler{})
	w := perform(r, http.MethodPost, "/api/v1/checkin/sessions/not-a-uuid/notify", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReadyQueueEmptyIsArray(t *testing.T) {
	r := setup(&stubScheduler{readyFn: func() ([]*model.CheckInSession, error) { return nil, nil }})

	w := perform(r, http.MethodGet, "/api/v1/checkin/queue/ready", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"success","data":[]}`, w.Body.String())
}

func TestIssueTokenWithoutIssuer(t *testing.T) {
	r := setup(&stubScheduler{})
	w := perform(r, http.MethodPost, "/api/v1/checkin/tokens", map[string]interface{}{"patient_id": uuid.New()})
	assert.Equal(t, http.StatusNotFound, w.Code)
}
