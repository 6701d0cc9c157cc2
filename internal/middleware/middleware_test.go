package middleware

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-checkin/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine(handler gin.HandlerFunc, extra ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), Recovery(), ErrorHandler())
	r.Use(extra...)
	r.GET("/t", handler)
	return r
}

func do(r http.Handler, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/t", nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestErrorHandlerMapsAppErrors(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{errors.NewClinicClosed("Sunday"), http.StatusUnprocessableEntity, "clinic_closed"},
		{errors.NewAlreadyCheckedIn(map[string]string{"booking_number": "APT-20240101-00001"}), http.StatusConflict, "already_checked_in"},
		{errors.NewVitalsPending(), http.StatusConflict, "vitals_pending"},
		{errors.NewNotFound("check-in session", nil), http.StatusNotFound, "not_found"},
		{errors.NewStorageUnavailable(stderrors.New("db down")), http.StatusServiceUnavailable, "storage_unavailable"},
	}
	for _, tc := range cases {
		err := tc.err
		r := newEngine(func(c *gin.Context) { _ = c.Error(err) })
		w := do(r, map[string]string{HeaderXRequestID: "req-1"})

		assert.Equal(t, tc.status, w.Code, tc.code)
		resp := decode(t, w)
		assert.Equal(t, tc.code, resp.Error)
		assert.Equal(t, "req-1", resp.TraceID)
	}
}

func TestErrorHandlerIncludesDetails(t *testing.T) {
	r := newEngine(func(c *gin.Context) {
		_ = c.Error(errors.NewAlreadyCheckedIn(map[string]string{"booking_number": "APT-20240101-00001"}))
	})
	resp := decode(t, do(r, nil))
	assert.Equal(t, map[string]interface{}{"booking_number": "APT-20240101-00001"}, resp.Details)
}

func TestErrorHandlerHidesPlainErrors(t *testing.T) {
	r := newEngine(func(c *gin.Context) { _ = c.Error(stderrors.New("pq: password authentication failed")) })
	w := do(r, nil)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal server error", decode(t, w).Message)
}

func TestRecovery(t *testing.T) {
	r := newEngine(func(c *gin.Context) { panic("boom") })
	w := do(r, nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotEmpty(t, w.Header().Get(HeaderXRequestID))
}

func TestRequestIDReachesRequestContext(t *testing.T) {
	var seen interface{}
	r := newEngine(func(c *gin.Context) {
		seen = c.Request.Context().Value(ContextRequestID)
		c.Status(http.StatusNoContent)
	})
	w := do(r, map[string]string{HeaderXRequestID: "abc"})

	assert.Equal(t, "abc", seen)
	assert.Equal(t, "abc", w.Header().Get(HeaderXRequestID))
}

func TestRateLimiterPerClient(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 0.001, Burst: 2})
	r := newEngine(func(c *gin.Context) { c.Status(http.StatusOK) }, rl.RateLimit())

	from := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/t", nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, from("10.0.0.1"))
	assert.Equal(t, http.StatusOK, from("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, from("10.0.0.1"))
	assert.Equal(t, http.StatusOK, from("10.0.0.2"))
}
