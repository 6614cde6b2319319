package http

import (
	"net/http"

	"github.com/aussiebroadwan/taskboard/internal/taskboard/domain"
	"github.com/aussiebroadwan/taskboard/internal/taskboard/service"
	"github.com/aussiebroadwan/taskboard/pkg/httpx"
)

type UserHandler struct {
	Users *service.UserService
	Dev   bool
}

// HandleProfile godoc
//
//	@Summary		Current user
//	@Tags			Users
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	UserResponse
//	@Failure		401	{object}	ErrorResponse	"Missing access token"
//	@Failure		403	{object}	ErrorResponse	"Invalid or expired access token"
//	@Failure		404	{object}	ErrorResponse	"User no longer exists"
//	@Router			/users/profile [get].
func (h *UserHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(r)
	if !ok {
		httpx.ErrAuthRequired.WriteError(w)
		return
	}

	u, err := h.Users.Profile(r.Context(), caller)
	if err != nil {
		writeError(w, r, err, h.Dev)
		return
	}

	httpx.WriteSuccess(w, http.StatusOK, "Profile retrieved successfully", u.Public())
}

// HandleList godoc
//
//	@Summary		List users
//	@Description	Admin only. Newest users first.
//	@Tags			Users
//	@Produce		json
//	@Security		BearerAuth
//	@Param			limit	query		int	false	"Page size (default 20, max 100)"
//	@Param			offset	query		int	false	"Items to skip"
//	@Success		200		{object}	UserPageResponse
//	@Failure		401		{object}	ErrorResponse	"Missing access token"
//	@Failure		403		{object}	ErrorResponse	"Invalid token or not an admin"
//	@Router			/users [get].
func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(r)
	if !ok {
		httpx.ErrAuthRequired.WriteError(w)
		return
	}

	limit, offset, err := pageParams(r)
	if err != nil {
		writeError(w, r, err, h.Dev)
		return
	}

	users, total, err := h.Users.List(r.Context(), caller, limit, offset)
	if err != nil {
		writeError(w, r, err, h.Dev)
		return
	}

	items := make([]domain.PublicUser, 0, len(users))
	for _, u := range users {
		items = append(items, u.Public())
	}
	limit, offset = service.Page(limit, offset)
	httpx.WriteSuccess(w, http.StatusOK, "Users retrieved successfully", Page[domain.PublicUser]{
		Items:  items,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

// HandleGet godoc
//
//	@Summary		Get a user
//	@Description	Users may fetch themselves, admins anyone.
//	@Tags			Users
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		string	true	"User ID"
//	@Success		200	{object}	UserResponse
//	@Failure		401	{object}	ErrorResponse	"Missing access token"
//	@Failure		403	{object}	ErrorResponse	"Invalid token or access denied"
//	@Failure		404	{object}	ErrorResponse	"User not found"
//	@Router			/users/{id} [get].
func (h *UserHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(r)
	if !ok {
		httpx.ErrAuthRequired.WriteError(w)
		return
	}

	u, err := h.Users.Get(r.Context(), caller, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err, h.Dev)
		return
	}

	httpx.WriteSuccess(w, http.StatusOK, "User retrieved successfully", u.Public())
}

// HandleUpdateRole godoc
//
//	@Summary		Change a user's role
//	@Description	Admin only. Takes effect when the user's next access token is issued.
//	@Tags			Users
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id		path		string				true	"User ID"
//	@Param			body	body		UpdateRoleRequest	true	"New role"
//	@Success		200		{object}	UserResponse
//	@Failure		400		{object}	ErrorResponse	"Validation failed"
//	@Failure		401		{object}	ErrorResponse	"Missing access token"
//	@Failure		403		{object}	ErrorResponse	"Invalid token or not an admin"
//	@Failure		404		{object}	ErrorResponse	"User not found"
//	@Router			/users/{id}/role [put].
func (h *UserHandler) HandleUpdateRole(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(r)
	if !ok {
		httpx.ErrAuthRequired.WriteError(w)
		return
	}

	var req UpdateRoleRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBodyError(w, err)
		return
	}

	u, err := h.Users.UpdateRole(r.Context(), caller, r.PathValue("id"), domain.Role(req.Role))
	if err != nil {
		writeError(w, r, err, h.Dev)
		return
	}

	httpx.WriteSuccess(w, http.StatusOK, "User role updated successfully", u.Public())
}

// HandleDelete godoc
//
//	@Summary		Delete a user
//	@Description	Admin only. The user's tasks are deleted with them.
//	@Tags			Users
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		string	true	"User ID"
//	@Success		200	{object}	MessageResponse
//	@Failure		401	{object}	ErrorResponse	"Missing access token"
//	@Failure		403	{object}	ErrorResponse	"Invalid token or not an admin"
//	@Failure		404	{object}	ErrorResponse	"User not found"
//	@Router			/users/{id} [delete].
func (h *UserHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(r)
	if !ok {
		httpx.ErrAuthRequired.WriteError(w)
		return
	}

	if err := h.Users.Delete(r.Context(), caller, r.PathValue("id")); err != nil {
		writeError(w, r, err, h.Dev)
		return
	}

	httpx.WriteSuccess(w, http.StatusOK, "User deleted successfully", nil)
}
