package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/taskboard/internal/taskboard/service"
	"github.com/aussiebroadwan/taskboard/pkg/httpx"
)

// BootstrapTokenHeader carries the pre-configured bootstrap token.
const BootstrapTokenHeader = "X-Bootstrap-Token"

type BootstrapHandler struct {
	Bootstrap *service.BootstrapService
	Dev       bool
}

// ServeHTTP handles the one-off promotion of the first admin.
//
//	@Summary		Bootstrap the first admin
//	@Description	Promotes a registered user to admin. Without an email the earliest registered user is promoted.
//	@Description	Only available when a bootstrap token is configured, and only while no admin exists.
//	@Tags			Bootstrap
//	@Accept			json
//	@Produce		json
//	@Param			X-Bootstrap-Token	header		string				true	"Bootstrap token"
//	@Param			body				body		BootstrapRequest	false	"User to promote"
//	@Success		200					{object}	UserResponse		"Promoted user"
//	@Failure		400					{object}	ErrorResponse		"Invalid request body or email"
//	@Failure		401					{object}	ErrorResponse		"Missing or invalid bootstrap token"
//	@Failure		404					{object}	ErrorResponse		"Bootstrap not enabled, or no such user"
//	@Failure		409					{object}	ErrorResponse		"An admin already exists"
//	@Failure		429					{object}	ErrorResponse		"Rate limited"
//	@Router			/auth/bootstrap [post].
func (h *BootstrapHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// 1. Check if enabled
	if !h.Bootstrap.Enabled() {
		errBootstrapDisabled.WriteError(w)
		return
	}

	// 2. Require bootstrap token header
	token := r.Header.Get(BootstrapTokenHeader)
	if token == "" {
		errBootstrapTokenMissing.WriteError(w)
		return
	}

	// 3. Body is optional
	var req BootstrapRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil && !errors.Is(err, httpx.ErrEmptyBody) {
		writeBodyError(w, err)
		return
	}

	u, err := h.Bootstrap.Bootstrap(r.Context(), token, req.Email)
	if err != nil {
		writeError(w, r, err, h.Dev)
		return
	}

	httpx.WriteSuccess(w, http.StatusOK, "User promoted to admin", u.Public())
}
