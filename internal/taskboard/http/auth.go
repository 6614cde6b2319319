package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/aussiebroadwan/taskboard/internal/taskboard/domain"
	"github.com/aussiebroadwan/taskboard/internal/taskboard/service"
	"github.com/aussiebroadwan/taskboard/pkg/httpx"
)

// AuthHandler serves the /auth endpoints: registration, the session
// lifecycle and password management.
type AuthHandler struct {
	Sessions *service.SessionService
	Resets   *service.ResetService
	Cookies  CookieConfig
	Dev      bool
}

// HandleRegister godoc
//
//	@Summary		Register a new user
//	@Description	Creates an account. Email and username are case-insensitive and must be unique.
//	@Tags			Authentication
//	@Accept			json
//	@Produce		json
//	@Param			body	body		RegisterRequest	true	"New account"
//	@Success		201		{object}	UserResponse	"Sanitized user"
//	@Failure		400		{object}	ErrorResponse	"Validation failed"
//	@Failure		409		{object}	ErrorResponse	"Email or username taken"
//	@Failure		429		{object}	ErrorResponse	"Rate limited"
//	@Router			/auth/register [post].
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBodyError(w, err)
		return
	}

	u, err := h.Sessions.Register(r.Context(), service.RegisterInput{
		FullName: req.FullName,
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     domain.Role(req.Role),
	})
	if err != nil {
		writeError(w, r, err, h.Dev)
		return
	}

	httpx.WriteSuccess(w, http.StatusCreated, "User registered successfully", u.Public())
}

// HandleLogin godoc
//
//	@Summary		Log in
//	@Description	Verifies the credentials and starts a session. Both tokens are returned in the body and set as http-only cookies.
//	@Description	Logging in again invalidates the refresh token of the previous session.
//	@Tags			Authentication
//	@Accept			json
//	@Produce		json
//	@Param			body	body		LoginRequest	true	"Credentials"
//	@Success		200		{object}	SessionEnvelope	"User and tokens"
//	@Failure		400		{object}	ErrorResponse	"Validation failed"
//	@Failure		401		{object}	ErrorResponse	"Invalid credentials"
//	@Failure		429		{object}	ErrorResponse	"Rate limited or locked out"
//	@Header			200		{string}	Set-Cookie		"accessToken, refreshToken"
//	@Router			/auth/login [post].
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBodyError(w, err)
		return
	}

	res, err := h.Sessions.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err, h.Dev)
		return
	}

	h.writeSession(w, res, "Login successful")
}

// HandleRefresh godoc
//
//	@Summary		Rotate the session tokens
//	@Description	Exchanges the refresh token (cookie first, then body) for a new pair. The presented token stops working.
//	@Tags			Authentication
//	@Accept			json
//	@Produce		json
//	@Param			body	body		RefreshRequest	false	"Refresh token when not sent as a cookie"
//	@Success		200		{object}	SessionEnvelope	"User and new tokens"
//	@Failure		401		{object}	ErrorResponse	"Missing, invalid, expired or superseded refresh token"
//	@Failure		429		{object}	ErrorResponse	"Rate limited"
//	@Router			/auth/refresh [post].
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	token := ""
	if c, err := r.Cookie(RefreshCookieName); err == nil {
		token = c.Value
	}
	if token == "" {
		var req RefreshRequest
		if err := httpx.DecodeJSON(w, r, &req); err != nil && !errors.Is(err, httpx.ErrEmptyBody) {
			writeBodyError(w, err)
			return
		}
		token = req.RefreshToken
	}

	res, err := h.Sessions.Refresh(r.Context(), token)
	if err != nil {
		if errors.Is(err, service.ErrUnauthorized) {
			h.Cookies.clearSession(w)
		}
		writeError(w, r, err, h.Dev)
		return
	}

	h.writeSession(w, res, "Token refreshed successfully")
}

func (h *AuthHandler) writeSession(w http.ResponseWriter, res service.LoginResult, message string) {
	h.Cookies.setSession(w, res.Tokens, time.Now())
	httpx.WriteSuccess(w, http.StatusOK, message, SessionResponse{
		User:         res.User.Public(),
		AccessToken:  res.Tokens.AccessToken,
		RefreshToken: res.Tokens.RefreshToken,
	})
}

// HandleLogout godoc
//
//	@Summary		Log out
//	@Description	Invalidates the caller's refresh token and clears the session cookies. Safe to repeat.
//	@Tags			Authentication
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	MessageResponse
//	@Failure		401	{object}	ErrorResponse	"Missing access token"
//	@Failure		403	{object}	ErrorResponse	"Invalid or expired access token"
//	@Router			/auth/logout [post].
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(r)
	if !ok {
		httpx.ErrAuthRequired.WriteError(w)
		return
	}

	if err := h.Sessions.Logout(r.Context(), caller.UserID); err != nil {
		writeError(w, r, err, h.Dev)
		return
	}

	h.Cookies.clearSession(w)
	httpx.WriteSuccess(w, http.StatusOK, "Logout successful", nil)
}

// HandleChangePassword godoc
//
//	@Summary		Change password
//	@Description	Replaces the password after checking the current one. Every session of the user ends, including this one.
//	@Tags			Authentication
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			body	body		ChangePasswordRequest	true	"Old and new password"
//	@Success		200		{object}	MessageResponse
//	@Failure		400		{object}	ErrorResponse	"Validation failed or wrong old password"
//	@Failure		401		{object}	ErrorResponse	"Missing access token"
//	@Failure		403		{object}	ErrorResponse	"Invalid or expired access token"
//	@Router			/auth/change-password [post].
func (h *AuthHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(r)
	if !ok {
		httpx.ErrAuthRequired.WriteError(w)
		return
	}

	var req ChangePasswordRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBodyError(w, err)
		return
	}

	if err := h.Sessions.ChangePassword(r.Context(), caller.UserID, req.OldPassword, req.NewPassword); err != nil {
		writeError(w, r, err, h.Dev)
		return
	}

	h.Cookies.clearSession(w)
	httpx.WriteSuccess(w, http.StatusOK, "Password changed successfully", nil)
}

// HandleForgotPassword godoc
//
//	@Summary		Request a password reset
//	@Description	Sends a single-use reset link valid for 10 minutes. The response is the same whether or not the email is registered.
//	@Tags			Authentication
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ForgotPasswordRequest	true	"Account email"
//	@Success		200		{object}	MessageResponse
//	@Failure		400		{object}	ErrorResponse	"Validation failed"
//	@Failure		429		{object}	ErrorResponse	"Rate limited"
//	@Router			/auth/forgot-password [post].
func (h *AuthHandler) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBodyError(w, err)
		return
	}

	if err := h.Resets.RequestReset(r.Context(), req.Email); err != nil {
		writeError(w, r, err, h.Dev)
		return
	}

	httpx.WriteSuccess(w, http.StatusOK, "If that email is registered, a reset link has been sent", nil)
}

// HandleResetPassword godoc
//
//	@Summary		Complete a password reset
//	@Description	Sets a new password using the token from the reset link. Existing sessions end.
//	@Tags			Authentication
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ResetPasswordRequest	true	"Reset token and new password"
//	@Success		200		{object}	MessageResponse
//	@Failure		400		{object}	ErrorResponse	"Validation failed or invalid/expired token"
//	@Failure		429		{object}	ErrorResponse	"Rate limited"
//	@Router			/auth/reset-password [post].
func (h *AuthHandler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBodyError(w, err)
		return
	}

	if err := h.Resets.CompleteReset(r.Context(), req.Token, req.NewPassword); err != nil {
		writeError(w, r, err, h.Dev)
		return
	}

	h.Cookies.clearSession(w)
	httpx.WriteSuccess(w, http.StatusOK, "Password has been reset", nil)
}
