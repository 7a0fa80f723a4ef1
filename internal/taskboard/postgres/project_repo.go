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

const projectColumns = `id, owner_id, name, created_at, updated_at`

// ProjectRepository implements taskboard.ProjectRepository using PostgreSQL.
type ProjectRepository struct {
	db store.DB
}

// NewProjectRepository creates a new ProjectRepository.
func NewProjectRepository(db store.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// Create stores a new project.
func (r *ProjectRepository) Create(ctx context.Context, p *taskboard.Project) error {
	_, err := store.Conn(ctx, r.db).Exec(ctx, `
		INSERT INTO projects (`+projectColumns+`)
		VALUES ($1, $2, $3, $4, $5)
	`, p.ID.String(), p.OwnerID.String(), p.Name, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return oops.Code("DB_WRITE_FAILED").With("operation", "insert project").With("project_id", p.ID.String()).Wrap(err)
	}
	return nil
}

// Get retrieves a project by ID.
func (r *ProjectRepository) Get(ctx context.Context, id ulid.ULID) (*taskboard.Project, error) {
	row := store.Conn(ctx, r.db).QueryRow(ctx, `
		SELECT `+projectColumns+` FROM projects WHERE id = $1
	`, id.String())
	p, err := scanProject(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound("project", id)
	}
	if err != nil {
		return nil, queryFailed("get project", err)
	}
	return p, nil
}

// ListByOwner returns the owner's projects, oldest first.
func (r *ProjectRepository) ListByOwner(ctx context.Context, ownerID ulid.ULID) ([]taskboard.Project, error) {
	rows, err := store.Conn(ctx, r.db).Query(ctx, `
		SELECT `+projectColumns+` FROM projects WHERE owner_id = $1 ORDER BY id
	`, ownerID.String())
	if err != nil {
		return nil, queryFailed("list projects", err)
	}
	return collect(rows, "list projects", scanProject)
}

// Update saves the project name.
func (r *ProjectRepository) Update(ctx context.Context, p *taskboard.Project) error {
	return exec(ctx, r.db, "project", "update project", p.ID, `
		UPDATE projects SET name = $2, updated_at = $3 WHERE id = $1
	`, p.ID.String(), p.Name, p.UpdatedAt)
}

// Delete removes a project. Lists and tasks go with it.
func (r *ProjectRepository) Delete(ctx context.Context, id ulid.ULID) error {
	return exec(ctx, r.db, "project", "delete project", id, `DELETE FROM projects WHERE id = $1`, id.String())
}

func scanProject(row pgx.Row) (*taskboard.Project, error) {
	var (
		p              taskboard.Project
		idStr, ownerID string
	)
	if err := row.Scan(&idStr, &ownerID, &p.Name, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	var err error
	if p.ID, err = parseID(idStr, "project_id"); err != nil {
		return nil, err
	}
	if p.OwnerID, err = parseID(ownerID, "owner_id"); err != nil {
		return nil, err
	}
	timestamps(&p.CreatedAt, &p.UpdatedAt)
	return &p, nil
}

var _ taskboard.ProjectRepository = (*ProjectRepository)(nil)
