// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Planwell Contributors

package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/planwell/planwell/internal/store"
	"github.com/planwell/planwell/internal/taskboard"
)

const listColumns = `id, owner_id, project_id, name, created_at, updated_at`

// ListRepository implements taskboard.ListRepository using PostgreSQL.
type ListRepository struct {
	db store.DB
}

// NewListRepository creates a new ListRepository.
func NewListRepository(db store.DB) *ListRepository {
	return &ListRepository{db: db}
}

// Create stores a new list. A missing project yields a not-found error.
func (r *ListRepository) Create(ctx context.Context, l *taskboard.List) error {
	_, err := store.Conn(ctx, r.db).Exec(ctx, `
		INSERT INTO lists (`+listColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, l.ID.String(), l.OwnerID.String(), l.ProjectID.String(), l.Name, l.CreatedAt, l.UpdatedAt)
	if store.IsForeignKeyViolation(err) {
		return notFound("project", l.ProjectID)
	}
	if err != nil {
		return oops.Code("DB_WRITE_FAILED").With("operation", "insert list").With("list_id", l.ID.String()).Wrap(err)
	}
	return nil
}

// Get retrieves a list by ID.
func (r *ListRepository) Get(ctx context.Context, id ulid.ULID) (*taskboard.List, error) {
	row := store.Conn(ctx, r.db).QueryRow(ctx, `
		SELECT `+listColumns+` FROM lists WHERE id = $1
	`, id.String())
	l, err := scanList(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound("list", id)
	}
	if err != nil {
		return nil, queryFailed("get list", err)
	}
	return l, nil
}

// ListByOwner returns the owner's lists, oldest first.
func (r *ListRepository) ListByOwner(ctx context.Context, ownerID ulid.ULID) ([]taskboard.List, error) {
	return r.query(ctx, "list lists by owner", `
		SELECT `+listColumns+` FROM lists WHERE owner_id = $1 ORDER BY id
	`, ownerID.String())
}

// ListByProject returns the lists in a project, oldest first.
func (r *ListRepository) ListByProject(ctx context.Context, projectID ulid.ULID) ([]taskboard.List, error) {
	return r.query(ctx, "list lists by project", `
		SELECT `+listColumns+` FROM lists WHERE project_id = $1 ORDER BY id
	`, projectID.String())
}

func (r *ListRepository) query(ctx context.Context, operation, sql string, args ...any) ([]taskboard.List, error) {
	rows, err := store.Conn(ctx, r.db).Query(ctx, sql, args...)
	if err != nil {
		return nil, queryFailed(operation, err)
	}
	return collect(rows, operation, scanList)
}

// Update saves the list name.
func (r *ListRepository) Update(ctx context.Context, l *taskboard.List) error {
	return exec(ctx, r.db, "list", "update list", l.ID, `
		UPDATE lists SET name = $2, updated_at = $3 WHERE id = $1
	`, l.ID.String(), l.Name, l.UpdatedAt)
}

// Delete removes a list and its tasks.
func (r *ListRepository) Delete(ctx context.Context, id ulid.ULID) error {
	return exec(ctx, r.db, "list", "delete list", id, `DELETE FROM lists WHERE id = $1`, id.String())
}

func scanList(row pgx.Row) (*taskboard.List, error) {
	var (
		l                         taskboard.List
		idStr, ownerID, projectID string
	)
	if err := row.Scan(&idStr, &ownerID, &projectID, &l.Name, &l.CreatedAt, &l.UpdatedAt); err != nil {
		return nil, err
	}
	var err error
	if l.ID, err = parseID(idStr, "list_id"); err != nil {
		return nil, err
	}
	if l.OwnerID, err = parseID(ownerID, "owner_id"); err != nil {
		return nil, err
	}
	if l.ProjectID, err = parseID(projectID, "project_id"); err != nil {
		return nil, err
	}
	timestamps(&l.CreatedAt, &l.UpdatedAt)
	return &l, nil
}

var _ taskboard.ListRepository = (*ListRepository)(nil)
