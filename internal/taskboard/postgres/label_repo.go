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

const labelColumns = `id, owner_id, name, created_at, updated_at`

// LabelRepository implements taskboard.LabelRepository using PostgreSQL.
type LabelRepository struct {
	db store.DB
}

// NewLabelRepository creates a new LabelRepository.
func NewLabelRepository(db store.DB) *LabelRepository {
	return &LabelRepository{db: db}
}

func labelConflict(l *taskboard.Label, err error) error {
	return oops.Code(taskboard.CodeConflict).With("name", l.Name).Wrap(err)
}

// Create stores a new label. The (owner, name) pair must be unused.
func (r *LabelRepository) Create(ctx context.Context, l *taskboard.Label) error {
	_, err := store.Conn(ctx, r.db).Exec(ctx, `
		INSERT INTO labels (`+labelColumns+`)
		VALUES ($1, $2, $3, $4, $5)
	`, l.ID.String(), l.OwnerID.String(), l.Name, l.CreatedAt, l.UpdatedAt)
	if store.IsUniqueViolation(err) {
		return labelConflict(l, err)
	}
	if err != nil {
		return oops.Code("DB_WRITE_FAILED").With("operation", "insert label").With("label_id", l.ID.String()).Wrap(err)
	}
	return nil
}

// Get retrieves a label by ID.
func (r *LabelRepository) Get(ctx context.Context, id ulid.ULID) (*taskboard.Label, error) {
	row := store.Conn(ctx, r.db).QueryRow(ctx, `
		SELECT `+labelColumns+` FROM labels WHERE id = $1
	`, id.String())
	l, err := scanLabel(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound("label", id)
	}
	if err != nil {
		return nil, queryFailed("get label", err)
	}
	return l, nil
}

// ListByOwner returns the owner's labels ordered by name.
func (r *LabelRepository) ListByOwner(ctx context.Context, ownerID ulid.ULID) ([]taskboard.Label, error) {
	rows, err := store.Conn(ctx, r.db).Query(ctx, `
		SELECT `+labelColumns+` FROM labels WHERE owner_id = $1 ORDER BY name
	`, ownerID.String())
	if err != nil {
		return nil, queryFailed("list labels", err)
	}
	return collect(rows, "list labels", scanLabel)
}

// Update renames a label, with the same uniqueness rule as Create.
func (r *LabelRepository) Update(ctx context.Context, l *taskboard.Label) error {
	result, err := store.Conn(ctx, r.db).Exec(ctx, `
		UPDATE labels SET name = $2, updated_at = $3 WHERE id = $1
	`, l.ID.String(), l.Name, l.UpdatedAt)
	if store.IsUniqueViolation(err) {
		return labelConflict(l, err)
	}
	if err != nil {
		return oops.Code("DB_WRITE_FAILED").With("operation", "update label").With("label_id", l.ID.String()).Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return notFound("label", l.ID)
	}
	return nil
}

// Delete removes a label. task_labels rows cascade.
func (r *LabelRepository) Delete(ctx context.Context, id ulid.ULID) error {
	return exec(ctx, r.db, "label", "delete label", id, `DELETE FROM labels WHERE id = $1`, id.String())
}

func scanLabel(row pgx.Row) (*taskboard.Label, error) {
	var (
		l              taskboard.Label
		idStr, ownerID string
	)
	if err := row.Scan(&idStr, &ownerID, &l.Name, &l.CreatedAt, &l.UpdatedAt); err != nil {
		return nil, err
	}
	var err error
	if l.ID, err = parseID(idStr, "label_id"); err != nil {
		return nil, err
	}
	if l.OwnerID, err = parseID(ownerID, "owner_id"); err != nil {
		return nil, err
	}
	timestamps(&l.CreatedAt, &l.UpdatedAt)
	return &l, nil
}

var _ taskboard.LabelRepository = (*LabelRepository)(nil)
