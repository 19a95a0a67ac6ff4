package router

import (
	"net/http"
)

// Machine-readable codes for the standardized error envelope.
const (
	ErrInternalCode           = "INTERNAL_ERROR"
	ErrBadRequestCode         = "BAD_REQUEST"
	ErrNotFoundCode           = "NOT_FOUND"
	ErrRequestTimeoutCode     = "REQUEST_TIMEOUT"
	ErrServiceUnavailableCode = "SERVICE_UNAVAILABLE"
)

// Problem codes embedded in RFC 7807 responses.
const (
	ErrInvalidInputCode   = "invalid_input"
	ErrInvalidHistoryCode = "invalid_history"
	ErrInvalidUploadsCode = "invalid_uploads"
)

var statusCodes = map[int]string{
	http.StatusBadRequest:         ErrBadRequestCode,
	http.StatusNotFound:           ErrNotFoundCode,
	http.StatusRequestTimeout:     ErrRequestTimeoutCode,
	http.StatusServiceUnavailable: ErrServiceUnavailableCode,
}

// RequestError pairs an HTTP status with the reason handed back to clients
// and the underlying cause kept for logs.
type RequestError struct {
	Reason     string
	StatusCode int
	Err        error
}

func NewRequestError(statusCode int, reason string, err error) *RequestError {
	return &RequestError{
		StatusCode: statusCode,
		Reason:     reason,
		Err:        err,
	}
}

func (e *RequestError) Error() string { return e.Reason }
func (e *RequestError) Unwrap() error { return e.Err }

type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// GetErrorInfo maps the error onto the standardized response shape. Unknown
// status codes fall back to INTERNAL_ERROR.
func (e *RequestError) GetErrorInfo() *ErrorInfo {
	code, ok := statusCodes[e.StatusCode]
	if !ok {
		code = ErrInternalCode
	}
	info := &ErrorInfo{Code: code, Message: e.Reason}
	if e.Err != nil {
		info.Details = e.Err.Error()
	}
	return info
}
