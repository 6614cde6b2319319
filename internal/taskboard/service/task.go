package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/taskboard/internal/taskboard/domain"
	"github.com/aussiebroadwan/taskboard/internal/taskboard/store"
	"github.com/aussiebroadwan/taskboard/pkg/idx"
	"github.com/aussiebroadwan/taskboard/pkg/slogx"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// TaskService manages tasks. Users see and change their own tasks, admins
// see and change everyone's.
type TaskService struct {
	Store store.Store
	Now   func() time.Time
}

type CreateTaskInput struct {
	Title       string
	Description string
	Status      domain.TaskStatus
	Priority    domain.TaskPriority
}

func (s *TaskService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Page clamps a requested limit/offset to the allowed range.
func Page(limit, offset int) (int, int) {
	switch {
	case limit <= 0:
		limit = DefaultPageSize
	case limit > MaxPageSize:
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// List returns a page of tasks and the total number matching f. Non-admin
// callers are always scoped to their own tasks.
func (s *TaskService) List(ctx context.Context, caller domain.Caller, f domain.TaskFilter) ([]domain.Task, int, error) {
	errs := make(map[string]string)
	if f.Status != "" {
		validateStatus(errs, f.Status)
	}
	if f.Priority != "" {
		validatePriority(errs, f.Priority)
	}
	if err := invalid(errs); err != nil {
		return nil, 0, err
	}

	if !caller.IsAdmin() {
		f.UserID = caller.UserID
	}
	f.Limit, f.Offset = Page(f.Limit, f.Offset)

	return s.Store.Tasks().ListTasks(ctx, f)
}

// Get loads a task the caller is allowed to see.
func (s *TaskService) Get(ctx context.Context, caller domain.Caller, id string) (domain.Task, error) {
	t, err := s.Store.Tasks().GetTaskByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Task{}, ErrNotFound
		}
		return domain.Task{}, err
	}

	if !caller.CanAccess(t.UserID) {
		slogx.FromContext(ctx).Warn("task access denied",
			slog.String("task_id", t.ID),
			slog.String("owner_id", t.UserID),
		)
		return domain.Task{}, ErrForbidden
	}
	return t, nil
}

// Create adds a task owned by the caller.
func (s *TaskService) Create(ctx context.Context, caller domain.Caller, in CreateTaskInput) (domain.Task, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Status == "" {
		in.Status = domain.StatusPending
	}
	if in.Priority == "" {
		in.Priority = domain.PriorityMedium
	}

	errs := make(map[string]string)
	validateTitle(errs, in.Title)
	validateDescription(errs, in.Description)
	validateStatus(errs, in.Status)
	validatePriority(errs, in.Priority)
	if err := invalid(errs); err != nil {
		return domain.Task{}, err
	}

	now := s.now().UTC()
	t := domain.Task{
		ID:          idx.New().String(),
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		Priority:    in.Priority,
		UserID:      caller.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.Store.Tasks().CreateTask(ctx, t); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Task{}, fmt.Errorf("%w: task owner no longer exists", ErrNotFound)
		}
		return domain.Task{}, err
	}
	return t, nil
}

// Update applies a partial update. At least one field must be set.
func (s *TaskService) Update(ctx context.Context, caller domain.Caller, id string, p domain.TaskPatch) (domain.Task, error) {
	if p.Empty() {
		return domain.Task{}, fieldError("body", "at least one field must be provided")
	}

	errs := make(map[string]string)
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		p.Title = &title
		validateTitle(errs, title)
	}
	if p.Description != nil {
		validateDescription(errs, *p.Description)
	}
	if p.Status != nil {
		validateStatus(errs, *p.Status)
	}
	if p.Priority != nil {
		validatePriority(errs, *p.Priority)
	}
	if err := invalid(errs); err != nil {
		return domain.Task{}, err
	}

	if _, err := s.Get(ctx, caller, id); err != nil {
		return domain.Task{}, err
	}

	t, err := s.Store.Tasks().UpdateTask(ctx, id, p, s.now().UTC())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Task{}, ErrNotFound
		}
		return domain.Task{}, err
	}
	return t, nil
}

func (s *TaskService) Delete(ctx context.Context, caller domain.Caller, id string) error {
	if _, err := s.Get(ctx, caller, id); err != nil {
		return err
	}

	if err := s.Store.Tasks().DeleteTask(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// Stats counts tasks by status, scoped the same way as List.
func (s *TaskService) Stats(ctx context.Context, caller domain.Caller) (domain.TaskStats, error) {
	userID := caller.UserID
	if caller.IsAdmin() {
		userID = ""
	}
	return s.Store.Tasks().TaskStats(ctx, userID)
}
