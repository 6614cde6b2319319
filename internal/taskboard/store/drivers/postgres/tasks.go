package postgres

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/taskboard/internal/taskboard/domain"
	"github.com/aussiebroadwan/taskboard/internal/taskboard/store"
)

type tasksRepo struct {
	db dbtx
}

const taskColumns = `id, title, description, status, priority, user_id, created_at, updated_at`

func scanTask(row rowScanner) (domain.Task, error) {
	var (
		t                domain.Task
		status, priority string
	)

	err := row.Scan(&t.ID, &t.Title, &t.Description, &status, &priority, &t.UserID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return domain.Task{}, err
	}

	t.Status = domain.TaskStatus(status)
	t.Priority = domain.TaskPriority(priority)
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	return t, nil
}

// args collects positional parameters and hands out $N placeholders.
type args []any

func (a *args) add(v any) string {
	*a = append(*a, v)
	return "$" + strconv.Itoa(len(*a))
}

func (r *tasksRepo) CreateTask(ctx context.Context, t domain.Task) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tasks (id, title, description, status, priority, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		t.ID, t.Title, t.Description, string(t.Status), string(t.Priority), t.UserID,
		t.CreatedAt.UTC(), t.UpdatedAt.UTC(),
	)
	return mapConstraint(err)
}

func (r *tasksRepo) GetTaskByID(ctx context.Context, id string) (domain.Task, error) {
	t, err := scanTask(r.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id))
	if err != nil {
		return domain.Task{}, mapNotFound(err)
	}
	return t, nil
}

func taskWhere(f domain.TaskFilter, a *args) string {
	var conds []string
	if f.UserID != "" {
		conds = append(conds, "user_id = "+a.add(f.UserID))
	}
	if f.Status != "" {
		conds = append(conds, "status = "+a.add(string(f.Status)))
	}
	if f.Priority != "" {
		conds = append(conds, "priority = "+a.add(string(f.Priority)))
	}

	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}

func (r *tasksRepo) ListTasks(ctx context.Context, f domain.TaskFilter) ([]domain.Task, int, error) {
	var a args
	where := taskWhere(f, &a)

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks`+where, a...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + taskColumns + ` FROM tasks` + where +
		` ORDER BY created_at DESC, id DESC LIMIT ` + a.add(f.Limit) + ` OFFSET ` + a.add(f.Offset)

	rows, err := r.db.QueryContext(ctx, query, a...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	tasks := make([]domain.Task, 0, f.Limit)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, 0, err
		}
		tasks = append(tasks, t)
	}
	return tasks, total, rows.Err()
}

func (r *tasksRepo) UpdateTask(ctx context.Context, id string, p domain.TaskPatch, now time.Time) (domain.Task, error) {
	var a args
	sets := []string{"updated_at = " + a.add(now.UTC())}

	if p.Title != nil {
		sets = append(sets, "title = "+a.add(*p.Title))
	}
	if p.Description != nil {
		sets = append(sets, "description = "+a.add(*p.Description))
	}
	if p.Status != nil {
		sets = append(sets, "status = "+a.add(string(*p.Status)))
	}
	if p.Priority != nil {
		sets = append(sets, "priority = "+a.add(string(*p.Priority)))
	}

	query := `UPDATE tasks SET ` + strings.Join(sets, ", ") +
		` WHERE id = ` + a.add(id) + ` RETURNING ` + taskColumns

	t, err := scanTask(r.db.QueryRowContext(ctx, query, a...))
	if err != nil {
		return domain.Task{}, mapNotFound(err)
	}
	return t, nil
}

func (r *tasksRepo) DeleteTask(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectOne(res, store.ErrNotFound)
}

func (r *tasksRepo) TaskStats(ctx context.Context, userID string) (domain.TaskStats, error) {
	var a args
	where := taskWhere(domain.TaskFilter{UserID: userID}, &a)

	rows, err := r.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM tasks`+where+` GROUP BY status`, a...)
	if err != nil {
		return domain.TaskStats{}, err
	}
	defer rows.Close()

	var stats domain.TaskStats
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return domain.TaskStats{}, err
		}
		stats.Total += n

		switch domain.TaskStatus(status) {
		case domain.StatusPending:
			stats.Pending = n
		case domain.StatusInProgress:
			stats.InProgress = n
		case domain.StatusCompleted:
			stats.Completed = n
		}
	}
	return stats, rows.Err()
}
