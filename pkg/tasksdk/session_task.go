package tasksdk

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// ListTasks returns a page of tasks visible to the session's user.
func (s *Session) ListTasks(ctx context.Context, q TaskQuery) (*Page[Task], error) {
	v := url.Values{}
	if q.Status != "" {
		v.Set("status", string(q.Status))
	}
	if q.Priority != "" {
		v.Set("priority", string(q.Priority))
	}
	if q.UserID != "" {
		v.Set("userId", q.UserID)
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		v.Set("offset", strconv.Itoa(q.Offset))
	}

	path := "/tasks"
	if len(v) > 0 {
		path += "?" + v.Encode()
	}

	resp, err := s.doAuthRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var page Page[Task]
	if err := decodeEnvelope(resp, &page, http.StatusOK); err != nil {
		return nil, err
	}
	return &page, nil
}

// TaskStats counts tasks by status.
func (s *Session) TaskStats(ctx context.Context) (*TaskStats, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodGet, "/tasks/stats", nil)
	if err != nil {
		return nil, err
	}

	var stats TaskStats
	if err := decodeEnvelope(resp, &stats, http.StatusOK); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (s *Session) CreateTask(ctx context.Context, req CreateTaskRequest) (*Task, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodPost, "/tasks", req)
	if err != nil {
		return nil, err
	}

	var task Task
	if err := decodeEnvelope(resp, &task, http.StatusCreated); err != nil {
		return nil, err
	}
	return &task, nil
}

func (s *Session) GetTask(ctx context.Context, id string) (*Task, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodGet, "/tasks/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}

	var task Task
	if err := decodeEnvelope(resp, &task, http.StatusOK); err != nil {
		return nil, err
	}
	return &task, nil
}

func (s *Session) UpdateTask(ctx context.Context, id string, req UpdateTaskRequest) (*Task, error) {
	resp, err := s.doAuthRequest(ctx, http.MethodPut, "/tasks/"+url.PathEscape(id), req)
	if err != nil {
		return nil, err
	}

	var task Task
	if err := decodeEnvelope(resp, &task, http.StatusOK); err != nil {
		return nil, err
	}
	return &task, nil
}

func (s *Session) DeleteTask(ctx context.Context, id string) error {
	resp, err := s.doAuthRequest(ctx, http.MethodDelete, "/tasks/"+url.PathEscape(id), nil)
	if err != nil {
		return err
	}
	return decodeEnvelope(resp, nil, http.StatusOK)
}
