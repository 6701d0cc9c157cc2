package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/clinic-checkin/pkg/errors"
)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Status  string      `json:"status"`
	Code    int         `json:"code"`
	Error   string      `json:"error,omitempty"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	TraceID string      `json:"trace_id,omitempty"`
}

// ErrorHandler renders the last error attached with c.Error. Application
// errors choose their own status; anything else is a 500 with a generic
// message.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		traceID := c.GetString(ContextRequestID)
		lastErr := c.Errors.Last().Err

		resp := ErrorResponse{
			Status:  "error",
			Code:    http.StatusInternalServerError,
			Message: "internal server error",
			TraceID: traceID,
		}
		infrastructure := true

		if appErr, ok := errors.As(lastErr); ok {
			resp.Code = appErr.StatusCode()
			resp.Error = appErr.Code.String()
			resp.Message = appErr.Message
			resp.Details = appErr.Details
			infrastructure = appErr.IsInfrastructure()
		}

		event := log.Debug()
		if infrastructure {
			event = log.Error()
		}
		event.
			Err(lastErr).
			Str("trace_id", traceID).
			Str("path", c.Request.URL.Path).
			Str("method", c.Request.Method).
			Int("status", resp.Code).
			Msg("Request error")

		if c.Writer.Written() {
			return
		}
		c.JSON(resp.Code, resp)
	}
}
