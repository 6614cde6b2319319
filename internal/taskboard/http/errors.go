package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/taskboard/internal/taskboard/domain"
	"github.com/aussiebroadwan/taskboard/internal/taskboard/service"
	"github.com/aussiebroadwan/taskboard/pkg/httpx"
	"github.com/aussiebroadwan/taskboard/pkg/slogx"
)

var (
	errValidation         = httpx.NewAPIError(http.StatusBadRequest, "Validation failed")
	errInvalidBody        = httpx.NewAPIError(http.StatusBadRequest, "Invalid request body")
	errInvalidCredentials = httpx.NewAPIError(http.StatusUnauthorized, "Invalid credentials")
	errInvalidRefresh     = httpx.NewAPIError(http.StatusUnauthorized, "Invalid or expired refresh token")
	errNotFound           = httpx.NewAPIError(http.StatusNotFound, "Resource not found")
	errConflict           = httpx.NewAPIError(http.StatusConflict, "User with this email or username already exists")
	errLockedOut          = httpx.NewAPIError(http.StatusTooManyRequests, "Too many failed login attempts. Please try again later.")
	errInvalidReset       = httpx.NewAPIError(http.StatusBadRequest, "Invalid or expired reset token")

	errBootstrapDisabled     = httpx.NewAPIError(http.StatusNotFound, "Bootstrap endpoint is not enabled")
	errBootstrapTokenMissing = httpx.NewAPIError(http.StatusUnauthorized, "Bootstrap token is required in X-Bootstrap-Token header")
	errBootstrapToken        = httpx.NewAPIError(http.StatusUnauthorized, "Invalid bootstrap token")
	errBootstrapAlready      = httpx.NewAPIError(http.StatusConflict, "System has already been bootstrapped")
)

// apiError maps a service error onto the response the client sees. ok is
// false for unexpected errors.
func apiError(err error) (*httpx.APIError, bool) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		fields := make([]httpx.FieldError, 0, len(verr.Fields))
		for _, f := range verr.SortedFields() {
			fields = append(fields, httpx.FieldError{Field: f, Message: verr.Fields[f]})
		}
		return errValidation.WithErrors(fields...), true
	case errors.Is(err, service.ErrInvalidCredentials):
		return errInvalidCredentials, true
	case errors.Is(err, service.ErrUnauthorized):
		return errInvalidRefresh, true
	case errors.Is(err, service.ErrForbidden):
		return httpx.ErrAccessDenied, true
	case errors.Is(err, service.ErrNotFound):
		return errNotFound, true
	case errors.Is(err, service.ErrConflict):
		return errConflict, true
	case errors.Is(err, service.ErrTooManyAttempts):
		return errLockedOut, true
	case errors.Is(err, service.ErrInvalidResetToken):
		return errInvalidReset, true
	case errors.Is(err, service.ErrBootstrapDisabled):
		return errBootstrapDisabled, true
	case errors.Is(err, service.ErrBootstrapUnauthorized):
		return errBootstrapToken, true
	case errors.Is(err, service.ErrBootstrapAlready):
		return errBootstrapAlready, true
	}
	return nil, false
}

// writeError renders err. Unexpected errors are logged in full; clients get
// the error text only when dev is set.
func writeError(w http.ResponseWriter, r *http.Request, err error, dev bool) {
	if apiErr, ok := apiError(err); ok {
		apiErr.WriteError(w)
		return
	}

	slogx.FromContext(r.Context()).Error("request failed", "error", err)
	if dev {
		httpx.ErrInternal.WithErrors(httpx.FieldError{Message: err.Error()}).WriteError(w)
		return
	}
	httpx.ErrInternal.WriteError(w)
}

func writeBodyError(w http.ResponseWriter, err error) {
	errInvalidBody.WithErrors(httpx.FieldError{Message: err.Error()}).WriteError(w)
}

// callerFrom converts the authenticated identity into a service caller.
func callerFrom(r *http.Request) (domain.Caller, bool) {
	id, ok := httpx.IdentityFromContext(r.Context())
	if !ok {
		return domain.Caller{}, false
	}
	return domain.Caller{UserID: id.UserID, Role: domain.Role(id.Role)}, true
}
