package tracker

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type (
	Status string

	Task struct {
		ID          string    `json:"id"`
		Title       string    `json:"title"`
		Description *string   `json:"description"`
		Status      Status    `json:"status"`
		OwnerID     string    `json:"userId"`
		CreatedAt   time.Time `json:"createdAt"`
		UpdatedAt   time.Time `json:"updatedAt"`
	}

	// TaskPatch carries a partial update. Nil fields are left untouched,
	// a non-nil empty Description clears the column to null.
	TaskPatch struct {
		Title       *string
		Description *string
		Status      *Status
	}
)

const (
	StatusPending   = Status("PENDING")
	StatusCompleted = Status("COMPLETED")
)

func ParseStatus(value string) (Status, error) {
	switch Status(value) {
	case StatusPending, StatusCompleted:
		return Status(value), nil
	}
	return Status(""), InvalidStatus{Value: value}
}

func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil
}

// CreateTask stores a new task owned by the given user. The owner is fixed
// at creation, there is no operation that transfers a task to somebody else.
func (s *Store) CreateTask(ctx context.Context, ownerID string, title string, description *string, status Status) (Task, error) {
	if status == "" {
		status = StatusPending
	}
	now := time.Now().UTC().Truncate(time.Second)
	t := Task{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(title),
		Description: trimmedOrNil(description),
		Status:      status,
		OwnerID:     ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	_, err := s.db.ExecContext(ctx, `insert into tasks (task_id, owner_id, title, description, status, created_at, updated_at)
	values (?, ?, ?, ?, ?, ?, ?)`, t.ID, t.OwnerID, t.Title, nullable(t.Description), string(t.Status), now.Unix(), now.Unix())
	if err != nil {
		return Task{}, fmt.Errorf("unable to store task for user %v, cause %w", ownerID, err)
	}
	return t, nil
}

// GetTask fetches a task by id and owner in a single query. A task owned
// by a different user is indistinguishable from a task that does not
// exist, both come back as TaskNotFound.
func (s *Store) GetTask(ctx context.Context, ownerID string, id string) (Task, error) {
	var t Task
	var desc sql.NullString
	var status string
	var created, updated int64
	err := s.db.QueryRowContext(ctx, `select task_id, owner_id, title, description, status, created_at, updated_at
	from tasks where task_id = ? and owner_id = ?`, id, ownerID).
		Scan(&t.ID, &t.OwnerID, &t.Title, &desc, &status, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return Task{}, TaskNotFound{ID: id}
	} else if err != nil {
		return Task{}, fmt.Errorf("unable to lookup task %v, cause %w", id, err)
	}
	t.Description = fromNullable(desc)
	t.Status = Status(status)
	t.CreatedAt = time.Unix(created, 0).UTC()
	t.UpdatedAt = time.Unix(updated, 0).UTC()
	return t, nil
}

// ListTasks returns the tasks owned by the given user, newest first.
// An empty status returns every task regardless of state.
func (s *Store) ListTasks(ctx context.Context, ownerID string, status Status) ([]Task, error) {
	query := `select task_id, owner_id, title, description, status, created_at, updated_at
	from tasks where owner_id = ?`
	args := []interface{}{ownerID}
	if status != "" {
		query += ` and status = ?`
		args = append(args, string(status))
	}
	query += ` order by created_at desc, rowid desc`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("unable to list tasks for user %v, cause %w", ownerID, err)
	}
	defer rows.Close()
	var out []Task
	for rows.Next() {
		var t Task
		var desc sql.NullString
		var st string
		var created, updated int64
		err = rows.Scan(&t.ID, &t.OwnerID, &t.Title, &desc, &st, &created, &updated)
		if err != nil {
			return nil, fmt.Errorf("unable to scan task row, cause %v", err)
		}
		t.Description = fromNullable(desc)
		t.Status = Status(st)
		t.CreatedAt = time.Unix(created, 0).UTC()
		t.UpdatedAt = time.Unix(updated, 0).UTC()
		out = append(out, t)
	}
	return out, rows.Err()
}

// UpdateTask applies the patch to a task owned by the given user. The
// ownership predicate travels with the update statement itself, the check
// happens at the moment of mutation and not on an earlier read.
func (s *Store) UpdateTask(ctx context.Context, ownerID string, id string, patch TaskPatch) (Task, error) {
	if patch.Empty() {
		return s.GetTask(ctx, ownerID, id)
	}
	set := []string{"updated_at = ?"}
	args := []interface{}{time.Now().UTC().Unix()}
	if patch.Title != nil {
		set = append(set, "title = ?")
		args = append(args, strings.TrimSpace(*patch.Title))
	}
	if patch.Description != nil {
		set = append(set, "description = ?")
		args = append(args, nullable(trimmedOrNil(patch.Description)))
	}
	if patch.Status != nil {
		set = append(set, "status = ?")
		args = append(args, string(*patch.Status))
	}
	args = append(args, id, ownerID)
	res, err := s.db.ExecContext(ctx, fmt.Sprintf(`update tasks set %v where task_id = ? and owner_id = ?`,
		strings.Join(set, ", ")), args...)
	if err != nil {
		return Task{}, fmt.Errorf("unable to update task %v, cause %w", id, err)
	}
	changed, err := res.RowsAffected()
	if err != nil {
		return Task{}, fmt.Errorf("unable to check update of task %v, cause %w", id, err)
	}
	if changed == 0 {
		return Task{}, TaskNotFound{ID: id}
	}
	return s.GetTask(ctx, ownerID, id)
}

// DeleteTask removes a task owned by the given user, with the same
// ownership predicate as UpdateTask.
func (s *Store) DeleteTask(ctx context.Context, ownerID string, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from tasks where task_id = ? and owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("unable to delete task %v, cause %w", id, err)
	}
	changed, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("unable to check deletion of task %v, cause %w", id, err)
	}
	if changed == 0 {
		return TaskNotFound{ID: id}
	}
	return nil
}

func trimmedOrNil(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
