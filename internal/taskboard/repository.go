// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Planwell Contributors

package taskboard

import (
	"context"

	"github.com/oklog/ulid/v2"
)

// ProjectRepository manages project persistence.
type ProjectRepository interface {
	Create(ctx context.Context, p *Project) error
	// Get returns a project or an error wrapping ErrNotFound.
	Get(ctx context.Context, id ulid.ULID) (*Project, error)
	ListByOwner(ctx context.Context, ownerID ulid.ULID) ([]Project, error)
	Update(ctx context.Context, p *Project) error
	// Delete removes the project and, through cascades, its lists and tasks.
	Delete(ctx context.Context, id ulid.ULID) error
}

// ListRepository manages list persistence.
type ListRepository interface {
	Create(ctx context.Context, l *List) error
	Get(ctx context.Context, id ulid.ULID) (*List, error)
	ListByOwner(ctx context.Context, ownerID ulid.ULID) ([]List, error)
	ListByProject(ctx context.Context, projectID ulid.ULID) ([]List, error)
	Update(ctx context.Context, l *List) error
	Delete(ctx context.Context, id ulid.ULID) error
}

// TaskRepository manages task persistence. Returned tasks carry their
// label IDs.
type TaskRepository interface {
	Create(ctx context.Context, t *Task) error
	Get(ctx context.Context, id ulid.ULID) (*Task, error)
	ListByOwner(ctx context.Context, ownerID ulid.ULID) ([]Task, error)
	ListByList(ctx context.Context, listID ulid.ULID) ([]Task, error)
	Update(ctx context.Context, t *Task) error
	Delete(ctx context.Context, id ulid.ULID) error
	// AddLabel is a no-op when the task already has the label.
	AddLabel(ctx context.Context, taskID, labelID ulid.ULID) error
	// RemoveLabel is a no-op when the task does not have the label.
	RemoveLabel(ctx context.Context, taskID, labelID ulid.ULID) error
}

// LabelRepository manages label persistence.
type LabelRepository interface {
	// Create stores a label. A name already used by the owner yields a
	// CONFLICT error.
	Create(ctx context.Context, l *Label) error
	Get(ctx context.Context, id ulid.ULID) (*Label, error)
	ListByOwner(ctx context.Context, ownerID ulid.ULID) ([]Label, error)
	// Update renames a label, with the same CONFLICT rule as Create.
	Update(ctx context.Context, l *Label) error
	// Delete removes the label and detaches it from every task.
	Delete(ctx context.Context, id ulid.ULID) error
}

// Repositories bundles the task board stores.
type Repositories struct {
	Projects ProjectRepository
	Lists    ListRepository
	Tasks    TaskRepository
	Labels   LabelRepository
}
