package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a unique error code
type ErrorCode int

// AppError represents an application error
type AppError struct {
	Code    ErrorCode   `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	Err     error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports whether target is an AppError carrying the same code, so that
// errors.Is(err, errors.ClinicClosed) works on wrapped values.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// StatusCode maps the error code onto an HTTP status.
func (e *AppError) StatusCode() int {
	switch e.Code {
	case ErrNotFound:
		return http.StatusNotFound
	case ErrBadRequest:
		return http.StatusBadRequest
	case ErrUnauthorized:
		return http.StatusUnauthorized
	case ErrForbidden:
		return http.StatusForbidden
	case ErrClinicClosed, ErrNoServicesAvailable, ErrServiceNoLongerAvailable, ErrCapacityReached:
		return http.StatusUnprocessableEntity
	case ErrAlreadyCheckedIn, ErrSessionNotActive, ErrVitalsPending:
		return http.StatusConflict
	case ErrAllocationUnavailable, ErrStorageUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// IsInfrastructure reports whether the code represents a genuine
// infrastructure failure rather than a routine business outcome.
func (e *AppError) IsInfrastructure() bool {
	switch e.Code {
	case ErrInternal, ErrAllocationUnavailable, ErrStorageUnavailable:
		return true
	}
	return false
}

// Common error codes
const (
	ErrNotFound ErrorCode = iota + 1000
	ErrBadRequest
	ErrUnauthorized
	ErrForbidden
	ErrInternal
)

// Check-in error codes
const (
	ErrClinicClosed ErrorCode = iota + 2000
	ErrNoServicesAvailable
	ErrAlreadyCheckedIn
	ErrServiceNoLongerAvailable
	ErrCapacityReached
	ErrSessionNotActive
	ErrVitalsPending
	ErrAllocationUnavailable
	ErrStorageUnavailable
)

var codeNames = map[ErrorCode]string{
	ErrNotFound:                 "not_found",
	ErrBadRequest:               "bad_request",
	ErrUnauthorized:             "unauthorized",
	ErrForbidden:                "forbidden",
	ErrInternal:                 "internal",
	ErrClinicClosed:             "clinic_closed",
	ErrNoServicesAvailable:      "no_services_available",
	ErrAlreadyCheckedIn:         "already_checked_in",
	ErrServiceNoLongerAvailable: "service_no_longer_available",
	ErrCapacityReached:          "capacity_reached",
	ErrSessionNotActive:         "session_not_active",
	ErrVitalsPending:            "vitals_pending",
	ErrAllocationUnavailable:    "allocation_unavailable",
	ErrStorageUnavailable:       "storage_unavailable",
}

// String is the stable machine name clients switch on.
func (c ErrorCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("error_%d", int(c))
}

// Sentinels for errors.Is comparisons.
var (
	NotFoundErr              = &AppError{Code: ErrNotFound}
	BadRequestErr            = &AppError{Code: ErrBadRequest}
	ClinicClosed             = &AppError{Code: ErrClinicClosed}
	NoServicesAvailable      = &AppError{Code: ErrNoServicesAvailable}
	AlreadyCheckedIn         = &AppError{Code: ErrAlreadyCheckedIn}
	ServiceNoLongerAvailable = &AppError{Code: ErrServiceNoLongerAvailable}
	CapacityReached          = &AppError{Code: ErrCapacityReached}
	SessionNotActive         = &AppError{Code: ErrSessionNotActive}
	VitalsPending            = &AppError{Code: ErrVitalsPending}
	AllocationUnavailable    = &AppError{Code: ErrAllocationUnavailable}
	StorageUnavailable       = &AppError{Code: ErrStorageUnavailable}
)

// Error constructors
func NewNotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Err:     err,
	}
}

func NewBadRequest(message string, err error) *AppError {
	return &AppError{
		Code:    ErrBadRequest,
		Message: message,
		Err:     err,
	}
}

func NewInternal(err error) *AppError {
	return &AppError{
		Code:    ErrInternal,
		Message: "internal server error",
		Err:     err,
	}
}

func NewClinicClosed(weekday string) *AppError {
	return &AppError{
		Code:    ErrClinicClosed,
		Message: fmt.Sprintf("clinic is closed on %s", weekday),
	}
}

func NewNoServicesAvailable(weekday, slot string) *AppError {
	return &AppError{
		Code:    ErrNoServicesAvailable,
		Message: fmt.Sprintf("no services offered on %s %s", weekday, slot),
	}
}

// NewAlreadyCheckedIn carries the existing session summary for display.
func NewAlreadyCheckedIn(existing interface{}) *AppError {
	return &AppError{
		Code:    ErrAlreadyCheckedIn,
		Message: "patient already checked in today",
		Details: existing,
	}
}

func NewServiceNoLongerAvailable(service string) *AppError {
	return &AppError{
		Code:    ErrServiceNoLongerAvailable,
		Message: fmt.Sprintf("service %s is no longer available in this slot", service),
	}
}

func NewCapacityReached(service string, capacity int) *AppError {
	return &AppError{
		Code:    ErrCapacityReached,
		Message: fmt.Sprintf("service %s has reached its capacity of %d", service, capacity),
	}
}

func NewSessionNotActive(status string) *AppError {
	return &AppError{
		Code:    ErrSessionNotActive,
		Message: fmt.Sprintf("check-in session is %s", status),
	}
}

func NewVitalsPending() *AppError {
	return &AppError{
		Code:    ErrVitalsPending,
		Message: "vital signs must be recorded before notifying the doctor",
	}
}

func NewAllocationUnavailable(err error) *AppError {
	return &AppError{
		Code:    ErrAllocationUnavailable,
		Message: "sequential id allocation unavailable",
		Err:     err,
	}
}

func NewStorageUnavailable(err error) *AppError {
	return &AppError{
		Code:    ErrStorageUnavailable,
		Message: "storage unavailable",
		Err:     err,
	}
}

// Common errors
func NotFound(resource string, err error) *AppError {
	return NewNotFound(resource, err)
}

func BadRequest(message string, err error) *AppError {
	return NewBadRequest(message, err)
}

func Internal(err error) *AppError {
	return NewInternal(err)
}

func Unauthorized(err error) *AppError {
	return &AppError{
		Code:    ErrUnauthorized,
		Message: "unauthorized",
		Err:     err,
	}
}

// As extracts the first AppError in err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
