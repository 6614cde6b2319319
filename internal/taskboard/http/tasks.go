package http

import (
	"net/http"
	"strconv"

	"github.com/aussiebroadwan/taskboard/internal/taskboard/domain"
	"github.com/aussiebroadwan/taskboard/internal/taskboard/service"
	"github.com/aussiebroadwan/taskboard/pkg/httpx"
)

type TaskHandler struct {
	Tasks *service.TaskService
	Dev   bool
}

// HandleList godoc
//
//	@Summary		List tasks
//	@Description	Users see their own tasks. Admins see every task and may filter by owner.
//	@Tags			Tasks
//	@Produce		json
//	@Security		BearerAuth
//	@Param			status		query		string	false	"Filter by status"		Enums(pending, in_progress, completed)
//	@Param			priority	query		string	false	"Filter by priority"	Enums(low, medium, high)
//	@Param			userId		query		string	false	"Filter by owner (admin only)"
//	@Param			limit		query		int		false	"Page size (default 20, max 100)"
//	@Param			offset		query		int		false	"Items to skip"
//	@Success		200			{object}	TaskPageResponse
//	@Failure		400			{object}	ErrorResponse	"Invalid filter"
//	@Failure		401			{object}	ErrorResponse	"Missing access token"
//	@Failure		403			{object}	ErrorResponse	"Invalid or expired access token"
//	@Router			/tasks [get].
func (h *TaskHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(r)
	if !ok {
		httpx.ErrAuthRequired.WriteError(w)
		return
	}

	q := r.URL.Query()
	limit, offset, err := pageParams(r)
	if err != nil {
		writeError(w, r, err, h.Dev)
		return
	}
	f := domain.TaskFilter{
		UserID:   q.Get("userId"),
		Status:   domain.TaskStatus(q.Get("status")),
		Priority: domain.TaskPriority(q.Get("priority")),
		Limit:    limit,
		Offset:   offset,
	}

	tasks, total, err := h.Tasks.List(r.Context(), caller, f)
	if err != nil {
		writeError(w, r, err, h.Dev)
		return
	}

	limit, offset = service.Page(limit, offset)
	httpx.WriteSuccess(w, http.StatusOK, "Tasks retrieved successfully", Page[domain.Task]{
		Items:  nonNil(tasks),
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

// HandleStats godoc
//
//	@Summary		Task statistics
//	@Description	Counts tasks by status, scoped like the task list.
//	@Tags			Tasks
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	StatsResponse
//	@Failure		401	{object}	ErrorResponse	"Missing access token"
//	@Failure		403	{object}	ErrorResponse	"Invalid or expired access token"
//	@Router			/tasks/stats [get].
func (h *TaskHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(r)
	if !ok {
		httpx.ErrAuthRequired.WriteError(w)
		return
	}

	stats, err := h.Tasks.Stats(r.Context(), caller)
	if err != nil {
		writeError(w, r, err, h.Dev)
		return
	}

	httpx.WriteSuccess(w, http.StatusOK, "Task statistics retrieved successfully", stats)
}

// HandleCreate godoc
//
//	@Summary		Create a task
//	@Description	The caller owns the new task. Status defaults to pending and priority to medium.
//	@Tags			Tasks
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			body	body		CreateTaskRequest	true	"New task"
//	@Success		201		{object}	TaskResponse
//	@Failure		400		{object}	ErrorResponse	"Validation failed"
//	@Failure		401		{object}	ErrorResponse	"Missing access token"
//	@Failure		403		{object}	ErrorResponse	"Invalid or expired access token"
//	@Router			/tasks [post].
func (h *TaskHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(r)
	if !ok {
		httpx.ErrAuthRequired.WriteError(w)
		return
	}

	var req CreateTaskRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBodyError(w, err)
		return
	}

	t, err := h.Tasks.Create(r.Context(), caller, service.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      domain.TaskStatus(req.Status),
		Priority:    domain.TaskPriority(req.Priority),
	})
	if err != nil {
		writeError(w, r, err, h.Dev)
		return
	}

	httpx.WriteSuccess(w, http.StatusCreated, "Task created successfully", t)
}

// HandleGet godoc
//
//	@Summary		Get a task
//	@Tags			Tasks
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		string	true	"Task ID"
//	@Success		200	{object}	TaskResponse
//	@Failure		401	{object}	ErrorResponse	"Missing access token"
//	@Failure		403	{object}	ErrorResponse	"Invalid token or not the owner"
//	@Failure		404	{object}	ErrorResponse	"Task not found"
//	@Router			/tasks/{id} [get].
func (h *TaskHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(r)
	if !ok {
		httpx.ErrAuthRequired.WriteError(w)
		return
	}

	t, err := h.Tasks.Get(r.Context(), caller, r.PathValue("id"))
	if err != nil {
		writeError(w, r, err, h.Dev)
		return
	}

	httpx.WriteSuccess(w, http.StatusOK, "Task retrieved successfully", t)
}

// HandleUpdate godoc
//
//	@Summary		Update a task
//	@Description	Partial update. At least one field must be present.
//	@Tags			Tasks
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id		path		string				true	"Task ID"
//	@Param			body	body		UpdateTaskRequest	true	"Fields to change"
//	@Success		200		{object}	TaskResponse
//	@Failure		400		{object}	ErrorResponse	"Validation failed"
//	@Failure		401		{object}	ErrorResponse	"Missing access token"
//	@Failure		403		{object}	ErrorResponse	"Invalid token or not the owner"
//	@Failure		404		{object}	ErrorResponse	"Task not found"
//	@Router			/tasks/{id} [put].
func (h *TaskHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(r)
	if !ok {
		httpx.ErrAuthRequired.WriteError(w)
		return
	}

	var req UpdateTaskRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		writeBodyError(w, err)
		return
	}

	patch := domain.TaskPatch{
		Title:       req.Title,
		Description: req.Description,
	}
	if req.Status != nil {
		s := domain.TaskStatus(*req.Status)
		patch.Status = &s
	}
	if req.Priority != nil {
		p := domain.TaskPriority(*req.Priority)
		patch.Priority = &p
	}

	t, err := h.Tasks.Update(r.Context(), caller, r.PathValue("id"), patch)
	if err != nil {
		writeError(w, r, err, h.Dev)
		return
	}

	httpx.WriteSuccess(w, http.StatusOK, "Task updated successfully", t)
}

// HandleDelete godoc
//
//	@Summary		Delete a task
//	@Tags			Tasks
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		string	true	"Task ID"
//	@Success		200	{object}	MessageResponse
//	@Failure		401	{object}	ErrorResponse	"Missing access token"
//	@Failure		403	{object}	ErrorResponse	"Invalid token or not the owner"
//	@Failure		404	{object}	ErrorResponse	"Task not found"
//	@Router			/tasks/{id} [delete].
func (h *TaskHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFrom(r)
	if !ok {
		httpx.ErrAuthRequired.WriteError(w)
		return
	}

	if err := h.Tasks.Delete(r.Context(), caller, r.PathValue("id")); err != nil {
		writeError(w, r, err, h.Dev)
		return
	}

	httpx.WriteSuccess(w, http.StatusOK, "Task deleted successfully", nil)
}

// pageParams reads limit and offset from the query string. Missing values
// are zero and get defaulted by the service.
func pageParams(r *http.Request) (limit, offset int, err error) {
	q := r.URL.Query()
	errs := make(map[string]string)
	if v := q.Get("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil {
			errs["limit"] = "must be an integer"
		}
	}
	if v := q.Get("offset"); v != "" {
		if offset, err = strconv.Atoi(v); err != nil {
			errs["offset"] = "must be an integer"
		}
	}
	if len(errs) > 0 {
		return 0, 0, &service.ValidationError{Fields: errs}
	}
	return limit, offset, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
