package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// MaxBodyBytes caps JSON request bodies.
const MaxBodyBytes = 1 << 20

// Envelope is the shape of every JSON body the API writes.
type Envelope struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Data    any          `json:"data,omitempty"`
	Errors  []FieldError `json:"errors,omitempty"`
}

// FieldError describes one rejected input field. Field is empty for errors
// that are not about a particular field.
type FieldError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// WriteJSON writes a JSON response with the given status code.
// It automatically sets the Content-Type header and Cache-Control headers.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteSuccess writes a successful envelope.
func WriteSuccess(w http.ResponseWriter, code int, message string, data any) {
	WriteJSON(w, code, Envelope{Success: true, Message: message, Data: data})
}

// NoCache sets the Cache-Control and Pragma headers to prevent caching.
// This is commonly required for sensitive responses like tokens.
func NoCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
}

// ErrEmptyBody is returned by DecodeJSON when the request has no body.
var ErrEmptyBody = errors.New("request body is empty")

// DecodeJSON reads a single JSON object from the request body into dst.
// Unknown fields are ignored, trailing data is not.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrEmptyBody
		}
		return fmt.Errorf("invalid JSON in request body: %w", err)
	}
	if dec.More() {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}

// APIError is an error that knows how to render itself as a failure
// envelope.
type APIError struct {
	StatusCode int
	Message    string
	Errors     []FieldError
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d: %s", e.StatusCode, e.Message)
}

// WithErrors returns a copy of e carrying field errors.
func (e *APIError) WithErrors(errs ...FieldError) *APIError {
	cp := *e
	cp.Errors = append([]FieldError(nil), errs...)
	return &cp
}

// WriteError writes this APIError to an HTTP response writer.
func (e *APIError) WriteError(w http.ResponseWriter) {
	WriteJSON(w, e.StatusCode, Envelope{
		Success: false,
		Message: e.Message,
		Errors:  e.Errors,
	})
}

// NewAPIError builds an APIError.
func NewAPIError(code int, message string) *APIError {
	return &APIError{StatusCode: code, Message: message}
}

var (
	ErrAccessTokenRequired = &APIError{
		StatusCode: http.StatusUnauthorized,
		Message:    "Access token is required",
	}

	// ErrInvalidToken is used for expired and malformed tokens alike.
	ErrInvalidToken = &APIError{
		StatusCode: http.StatusForbidden,
		Message:    "Invalid or expired token",
	}

	ErrAuthRequired = &APIError{
		StatusCode: http.StatusUnauthorized,
		Message:    "Authentication required",
	}

	ErrInsufficientPermissions = &APIError{
		StatusCode: http.StatusForbidden,
		Message:    "Insufficient permissions",
	}

	ErrAccessDenied = &APIError{
		StatusCode: http.StatusForbidden,
		Message:    "Access denied",
	}

	ErrTooManyRequests = &APIError{
		StatusCode: http.StatusTooManyRequests,
		Message:    "Too many requests. Please try again later.",
	}

	ErrInternal = &APIError{
		StatusCode: http.StatusInternalServerError,
		Message:    "Internal server error",
	}
)
