// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Planwell Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/planwell/planwell/internal/store"
	"github.com/planwell/planwell/internal/taskboard"
)

const taskColumns = `id, owner_id, list_id, name, description, priority, status, due_date, created_at, updated_at`

// taskSelect reads tasks with their label IDs aggregated in one column.
const taskSelect = `
	SELECT t.id, t.owner_id, t.list_id, t.name, t.description, t.priority, t.status,
	       t.due_date, t.created_at, t.updated_at,
	       COALESCE((SELECT array_agg(tl.label_id ORDER BY tl.label_id)
	                 FROM task_labels tl WHERE tl.task_id = t.id), '{}') AS label_ids
	FROM tasks t`

// TaskRepository implements taskboard.TaskRepository using PostgreSQL.
type TaskRepository struct {
	db store.DB
}

// NewTaskRepository creates a new TaskRepository.
func NewTaskRepository(db store.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create stores a new task. Label IDs on t are ignored. A missing list
// yields a not-found error.
func (r *TaskRepository) Create(ctx context.Context, t *taskboard.Task) error {
	_, err := store.Conn(ctx, r.db).Exec(ctx, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		t.ID.String(),
		t.OwnerID.String(),
		t.ListID.String(),
		t.Name,
		t.Description,
		string(t.Priority),
		string(t.Status),
		t.DueDate,
		t.CreatedAt,
		t.UpdatedAt,
	)
	if store.IsForeignKeyViolation(err) {
		return notFound("list", t.ListID)
	}
	if err != nil {
		return oops.Code("DB_WRITE_FAILED").With("operation", "insert task").With("task_id", t.ID.String()).Wrap(err)
	}
	return nil
}

// Get retrieves a task by ID.
func (r *TaskRepository) Get(ctx context.Context, id ulid.ULID) (*taskboard.Task, error) {
	row := store.Conn(ctx, r.db).QueryRow(ctx, taskSelect+` WHERE t.id = $1`, id.String())
	t, err := scanTask(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound("task", id)
	}
	if err != nil {
		return nil, queryFailed("get task", err)
	}
	return t, nil
}

// ListByOwner returns the owner's tasks, oldest first.
func (r *TaskRepository) ListByOwner(ctx context.Context, ownerID ulid.ULID) ([]taskboard.Task, error) {
	return r.query(ctx, "list tasks by owner", taskSelect+` WHERE t.owner_id = $1 ORDER BY t.id`, ownerID.String())
}

// ListByList returns the tasks on a list, oldest first.
func (r *TaskRepository) ListByList(ctx context.Context, listID ulid.ULID) ([]taskboard.Task, error) {
	return r.query(ctx, "list tasks by list", taskSelect+` WHERE t.list_id = $1 ORDER BY t.id`, listID.String())
}

func (r *TaskRepository) query(ctx context.Context, operation, sql string, args ...any) ([]taskboard.Task, error) {
	rows, err := store.Conn(ctx, r.db).Query(ctx, sql, args...)
	if err != nil {
		return nil, queryFailed(operation, err)
	}
	return collect(rows, operation, scanTask)
}

// Update saves the task fields. Label links are not touched.
func (r *TaskRepository) Update(ctx context.Context, t *taskboard.Task) error {
	return exec(ctx, r.db, "task", "update task", t.ID, `
		UPDATE tasks
		SET name = $2, description = $3, priority = $4, status = $5, due_date = $6, updated_at = $7
		WHERE id = $1
	`, t.ID.String(), t.Name, t.Description, string(t.Priority), string(t.Status), t.DueDate, t.UpdatedAt)
}

// Delete removes a task.
func (r *TaskRepository) Delete(ctx context.Context, id ulid.ULID) error {
	return exec(ctx, r.db, "task", "delete task", id, `DELETE FROM tasks WHERE id = $1`, id.String())
}

// AddLabel links a label to a task.
func (r *TaskRepository) AddLabel(ctx context.Context, taskID, labelID ulid.ULID) error {
	_, err := store.Conn(ctx, r.db).Exec(ctx, `
		INSERT INTO task_labels (task_id, label_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, taskID.String(), labelID.String())
	if store.IsForeignKeyViolation(err) {
		return notFound("task", taskID)
	}
	if err != nil {
		return oops.Code("DB_WRITE_FAILED").
			With("operation", "add task label").
			With("task_id", taskID.String()).
			With("label_id", labelID.String()).
			Wrap(err)
	}
	return nil
}

// RemoveLabel unlinks a label from a task.
func (r *TaskRepository) RemoveLabel(ctx context.Context, taskID, labelID ulid.ULID) error {
	_, err := store.Conn(ctx, r.db).Exec(ctx, `
		DELETE FROM task_labels WHERE task_id = $1 AND label_id = $2
	`, taskID.String(), labelID.String())
	if err != nil {
		return oops.Code("DB_WRITE_FAILED").
			With("operation", "remove task label").
			With("task_id", taskID.String()).
			With("label_id", labelID.String()).
			Wrap(err)
	}
	return nil
}

func scanTask(row pgx.Row) (*taskboard.Task, error) {
	var (
		t                      taskboard.Task
		idStr, ownerID, listID string
		priority, status       string
		dueDate                *time.Time
		labelIDs               []string
	)
	err := row.Scan(
		&idStr,
		&ownerID,
		&listID,
		&t.Name,
		&t.Description,
		&priority,
		&status,
		&dueDate,
		&t.CreatedAt,
		&t.UpdatedAt,
		&labelIDs,
	)
	if err != nil {
		return nil, err
	}
	if t.ID, err = parseID(idStr, "task_id"); err != nil {
		return nil, err
	}
	if t.OwnerID, err = parseID(ownerID, "owner_id"); err != nil {
		return nil, err
	}
	if t.ListID, err = parseID(listID, "list_id"); err != nil {
		return nil, err
	}
	t.Priority = taskboard.Priority(priority)
	t.Status = taskboard.Status(status)
	if dueDate != nil {
		d := dueDate.UTC()
		t.DueDate = &d
	}
	t.LabelIDs = make([]ulid.ULID, 0, len(labelIDs))
	for _, s := range labelIDs {
		id, err := parseID(s, "label_id")
		if err != nil {
			return nil, err
		}
		t.LabelIDs = append(t.LabelIDs, id)
	}
	timestamps(&t.CreatedAt, &t.UpdatedAt)
	return &t, nil
}

var _ taskboard.TaskRepository = (*TaskRepository)(nil)
