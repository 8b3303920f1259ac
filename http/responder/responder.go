package responder

import (
	"net/http"

	"github.com/leeforge/hookkit/errors"
	"github.com/leeforge/hookkit/json"
)

// Response represents the standard API response structure
type Response struct {
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
	Meta  Meta   `json:"meta"`
}

// Error is the error body of a response. Type carries the error kind
// so clients can switch on it.
type Error struct {
	Type    errors.ErrorType `json:"type"`
	Message string           `json:"message"`
	Plugin  string           `json:"plugin,omitempty"`
	Hook    string           `json:"hook,omitempty"`
	Details any              `json:"details,omitempty"`
}

// Meta represents metadata in API responses
type Meta struct {
	TraceId string `json:"traceId,omitempty"`
	Took    int64  `json:"took,omitempty"`
}

type Option func(*Meta)

func WithTraceID(id string) Option {
	return func(m *Meta) {
		m.TraceId = id
	}
}

func WithTook(ms int64) Option {
	return func(m *Meta) {
		m.Took = ms
	}
}

func NewMeta(opts ...Option) *Meta {
	meta := &Meta{}
	for _, opt := range opts {
		opt(meta)
	}
	return meta
}

// Error types that only exist at the HTTP edge.
const (
	ErrorTypeBadRequest       errors.ErrorType = "bad_request"
	ErrorTypeValidationFailed errors.ErrorType = "validation_failed"
	ErrorTypeInternal         errors.ErrorType = "internal"
)

// StatusOf maps an error to an HTTP status by its type.
func StatusOf(err error) int {
	switch errors.TypeOf(err) {
	case errors.ErrorTypePluginNotFound, errors.ErrorTypeHookNotFound:
		return http.StatusNotFound
	case errors.ErrorTypePluginAlreadyLoaded,
		errors.ErrorTypePluginAlreadyEnabled,
		errors.ErrorTypePluginNotEnabled,
		errors.ErrorTypeDuplicateHookID:
		return http.StatusConflict
	case errors.ErrorTypeInvalidPluginID, errors.ErrorTypeInvalidHook:
		return http.StatusBadRequest
	case errors.ErrorTypeDependency:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// FromError converts err into a response body. Errors outside the
// module's taxonomy become ErrorTypeInternal.
func FromError(err error) Error {
	var appErr *errors.AppError
	if errors.As(err, &appErr) {
		return Error{
			Type:    appErr.Type,
			Message: err.Error(),
			Plugin:  appErr.Plugin,
			Hook:    appErr.Hook,
		}
	}
	return Error{Type: ErrorTypeInternal, Message: err.Error()}
}

// writeJSON is the internal helper for all global functions
func writeJSON(w http.ResponseWriter, status int, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		fallback := []byte("{\"error\":{\"type\":\"internal\",\"message\":\"encode failed\"}}")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write(fallback)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(raw)
}

// Write sends a success response with data
func Write(w http.ResponseWriter, status int, data any, opts ...Option) {
	writeJSON(w, status, &Response{Data: data, Meta: *NewMeta(opts...)})
}

// WriteError sends an error response
func WriteError(w http.ResponseWriter, status int, e Error, opts ...Option) {
	writeJSON(w, status, &Response{Error: &e, Meta: *NewMeta(opts...)})
}

// OK responds with 200 OK and data
func OK(w http.ResponseWriter, data any, opts ...Option) {
	Write(w, http.StatusOK, data, opts...)
}

// Fail responds with the status and body derived from err.
func Fail(w http.ResponseWriter, err error, opts ...Option) {
	WriteError(w, StatusOf(err), FromError(err), opts...)
}

// BadRequest responds with 400 Bad Request
func BadRequest(w http.ResponseWriter, message string, opts ...Option) {
	if message == "" {
		message = "Bad Request"
	}
	WriteError(w, http.StatusBadRequest, Error{Type: ErrorTypeBadRequest, Message: message}, opts...)
}

// ValidationError responds with 400 Bad Request and validation details
func ValidationError(w http.ResponseWriter, details any, opts ...Option) {
	WriteError(w, http.StatusBadRequest, Error{
		Type:    ErrorTypeValidationFailed,
		Message: "Validation Failed",
		Details: details,
	}, opts...)
}
