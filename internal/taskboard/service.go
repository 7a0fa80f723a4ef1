// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Planwell Contributors

package taskboard

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/planwell/planwell/pkg/errutil"
)

// Resource kinds used in error context.
const (
	KindProject = "project"
	KindList    = "list"
	KindTask    = "task"
	KindLabel   = "label"
)

// Option customizes a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithClock replaces the wall clock used for timestamps and due-date checks.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// Service implements the task board use cases. Every method takes the
// acting user's ID and refuses resources owned by anyone else.
type Service struct {
	projects ProjectRepository
	lists    ListRepository
	tasks    TaskRepository
	labels   LabelRepository
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a new Service.
func NewService(repos Repositories, opts ...Option) *Service {
	s := &Service{
		projects: repos.Projects,
		lists:    repos.Lists,
		tasks:    repos.Tasks,
		labels:   repos.Labels,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type owned interface {
	owner() ulid.ULID
}

// checkOwner turns a repository lookup into the error the caller sees:
// NOT_FOUND when missing, FORBIDDEN when someone else owns it.
func checkOwner[T owned](kind string, ownerID ulid.ULID, v T, err error) (T, error) {
	var zero T
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return zero, errNotFound(kind)
		}
		return zero, internal("get "+kind, err)
	}
	if v.owner() != ownerID {
		return zero, errForbidden(kind)
	}
	return v, nil
}

func (s *Service) project(ctx context.Context, ownerID, id ulid.ULID) (*Project, error) {
	p, err := s.projects.Get(ctx, id)
	return checkOwner(KindProject, ownerID, p, err)
}

func (s *Service) list(ctx context.Context, ownerID, id ulid.ULID) (*List, error) {
	l, err := s.lists.Get(ctx, id)
	return checkOwner(KindList, ownerID, l, err)
}

func (s *Service) task(ctx context.Context, ownerID, id ulid.ULID) (*Task, error) {
	t, err := s.tasks.Get(ctx, id)
	return checkOwner(KindTask, ownerID, t, err)
}

func (s *Service) label(ctx context.Context, ownerID, id ulid.ULID) (*Label, error) {
	l, err := s.labels.Get(ctx, id)
	return checkOwner(KindLabel, ownerID, l, err)
}

// CreateProject creates a project owned by ownerID.
func (s *Service) CreateProject(ctx context.Context, ownerID ulid.ULID, in ProjectInput) (*Project, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	now := s.now()
	p := &Project{ID: ulid.Make(), OwnerID: ownerID, Name: in.Name, CreatedAt: now, UpdatedAt: now}
	if err := s.projects.Create(ctx, p); err != nil {
		return nil, internal("create project", err)
	}
	s.logger.InfoContext(ctx, "project created", "project_id", p.ID.String(), "owner_id", ownerID.String())
	return p, nil
}

// Projects returns every project ownerID owns.
func (s *Service) Projects(ctx context.Context, ownerID ulid.ULID) ([]Project, error) {
	ps, err := s.projects.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, internal("list projects", err)
	}
	return ps, nil
}

// Project returns a project together with its lists.
func (s *Service) Project(ctx context.Context, ownerID, id ulid.ULID) (*ProjectDetail, error) {
	p, err := s.project(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	lists, err := s.lists.ListByProject(ctx, id)
	if err != nil {
		return nil, internal("list project lists", err)
	}
	return &ProjectDetail{Project: *p, Lists: lists}, nil
}

// UpdateProject renames a project.
func (s *Service) UpdateProject(ctx context.Context, ownerID, id ulid.ULID, in ProjectInput) (*Project, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	p, err := s.project(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	p.Name = in.Name
	p.UpdatedAt = s.now()
	if err := s.projects.Update(ctx, p); err != nil {
		return nil, s.writeErr(KindProject, "update project", err)
	}
	return p, nil
}

// DeleteProject removes a project with its lists and tasks.
func (s *Service) DeleteProject(ctx context.Context, ownerID, id ulid.ULID) error {
	if _, err := s.project(ctx, ownerID, id); err != nil {
		return err
	}
	if err := s.projects.Delete(ctx, id); err != nil {
		return s.writeErr(KindProject, "delete project", err)
	}
	s.logger.InfoContext(ctx, "project deleted", "project_id", id.String())
	return nil
}

// CreateList creates a list in one of ownerID's projects.
func (s *Service) CreateList(ctx context.Context, ownerID ulid.ULID, in CreateListInput) (*List, error) {
	projectID, err := in.Validate()
	if err != nil {
		return nil, err
	}
	if _, err := s.project(ctx, ownerID, projectID); err != nil {
		return nil, err
	}
	now := s.now()
	l := &List{ID: ulid.Make(), OwnerID: ownerID, ProjectID: projectID, Name: in.Name, CreatedAt: now, UpdatedAt: now}
	if err := s.lists.Create(ctx, l); err != nil {
		return nil, s.writeErr(KindProject, "create list", err)
	}
	return l, nil
}

// Lists returns every list ownerID owns.
func (s *Service) Lists(ctx context.Context, ownerID ulid.ULID) ([]List, error) {
	ls, err := s.lists.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, internal("list lists", err)
	}
	return ls, nil
}

// List returns a list together with its tasks.
func (s *Service) List(ctx context.Context, ownerID, id ulid.ULID) (*ListDetail, error) {
	l, err := s.list(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	tasks, err := s.tasks.ListByList(ctx, id)
	if err != nil {
		return nil, internal("list list tasks", err)
	}
	return &ListDetail{List: *l, Tasks: tasks}, nil
}

// UpdateList renames a list.
func (s *Service) UpdateList(ctx context.Context, ownerID, id ulid.ULID, in UpdateListInput) (*List, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	l, err := s.list(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	l.Name = in.Name
	l.UpdatedAt = s.now()
	if err := s.lists.Update(ctx, l); err != nil {
		return nil, s.writeErr(KindList, "update list", err)
	}
	return l, nil
}

// DeleteList removes a list with its tasks.
func (s *Service) DeleteList(ctx context.Context, ownerID, id ulid.ULID) error {
	if _, err := s.list(ctx, ownerID, id); err != nil {
		return err
	}
	if err := s.lists.Delete(ctx, id); err != nil {
		return s.writeErr(KindList, "delete list", err)
	}
	return nil
}

// CreateTask creates a task on one of ownerID's lists. Priority defaults to
// medium and status to todo.
func (s *Service) CreateTask(ctx context.Context, ownerID ulid.ULID, in CreateTaskInput) (*Task, error) {
	now := s.now()
	listID, err := in.Validate(now)
	if err != nil {
		return nil, err
	}
	if _, err := s.list(ctx, ownerID, listID); err != nil {
		return nil, err
	}
	t := &Task{
		ID:        ulid.Make(),
		OwnerID:   ownerID,
		ListID:    listID,
		Name:      in.Name,
		Priority:  PriorityMedium,
		Status:    StatusTodo,
		DueDate:   in.DueDate,
		LabelIDs:  []ulid.ULID{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if in.Description != nil {
		t.Description = *in.Description
	}
	if in.Priority != nil {
		t.Priority = *in.Priority
	}
	if in.Status != nil {
		t.Status = *in.Status
	}
	if err := s.tasks.Create(ctx, t); err != nil {
		return nil, s.writeErr(KindList, "create task", err)
	}
	return t, nil
}

// Tasks returns every task ownerID owns.
func (s *Service) Tasks(ctx context.Context, ownerID ulid.ULID) ([]Task, error) {
	ts, err := s.tasks.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, internal("list tasks", err)
	}
	return ts, nil
}

// Task returns a single task.
func (s *Service) Task(ctx context.Context, ownerID, id ulid.ULID) (*Task, error) {
	return s.task(ctx, ownerID, id)
}

// UpdateTask changes the fields set in the input.
func (s *Service) UpdateTask(ctx context.Context, ownerID, id ulid.ULID, in UpdateTaskInput) (*Task, error) {
	now := s.now()
	if err := in.Validate(now); err != nil {
		return nil, err
	}
	t, err := s.task(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		t.Name = *in.Name
	}
	if in.Description != nil {
		t.Description = *in.Description
	}
	if in.Priority != nil {
		t.Priority = *in.Priority
	}
	if in.Status != nil {
		t.Status = *in.Status
	}
	if in.DueDate != nil {
		t.DueDate = in.DueDate
	}
	t.UpdatedAt = now
	if err := s.tasks.Update(ctx, t); err != nil {
		return nil, s.writeErr(KindTask, "update task", err)
	}
	return t, nil
}

// DeleteTask removes a task.
func (s *Service) DeleteTask(ctx context.Context, ownerID, id ulid.ULID) error {
	if _, err := s.task(ctx, ownerID, id); err != nil {
		return err
	}
	if err := s.tasks.Delete(ctx, id); err != nil {
		return s.writeErr(KindTask, "delete task", err)
	}
	return nil
}

// AddLabel attaches one of ownerID's labels to one of their tasks.
func (s *Service) AddLabel(ctx context.Context, ownerID ulid.ULID, in TaskLabelInput) (*Task, error) {
	t, labelID, err := s.taskAndLabel(ctx, ownerID, in)
	if err != nil {
		return nil, err
	}
	if t.HasLabel(labelID) {
		return t, nil
	}
	if err := s.tasks.AddLabel(ctx, t.ID, labelID); err != nil {
		return nil, s.writeErr(KindTask, "add label", err)
	}
	t.LabelIDs = append(t.LabelIDs, labelID)
	return t, nil
}

// RemoveLabel detaches a label from a task.
func (s *Service) RemoveLabel(ctx context.Context, ownerID ulid.ULID, in TaskLabelInput) (*Task, error) {
	t, labelID, err := s.taskAndLabel(ctx, ownerID, in)
	if err != nil {
		return nil, err
	}
	if !t.HasLabel(labelID) {
		return t, nil
	}
	if err := s.tasks.RemoveLabel(ctx, t.ID, labelID); err != nil {
		return nil, s.writeErr(KindTask, "remove label", err)
	}
	kept := make([]ulid.ULID, 0, len(t.LabelIDs))
	for _, id := range t.LabelIDs {
		if id != labelID {
			kept = append(kept, id)
		}
	}
	t.LabelIDs = kept
	return t, nil
}

func (s *Service) taskAndLabel(ctx context.Context, ownerID ulid.ULID, in TaskLabelInput) (*Task, ulid.ULID, error) {
	taskID, labelID, err := in.Validate()
	if err != nil {
		return nil, ulid.ULID{}, err
	}
	t, err := s.task(ctx, ownerID, taskID)
	if err != nil {
		return nil, ulid.ULID{}, err
	}
	if _, err := s.label(ctx, ownerID, labelID); err != nil {
		return nil, ulid.ULID{}, err
	}
	return t, labelID, nil
}

// CreateLabel creates a label. Names are unique per owner.
func (s *Service) CreateLabel(ctx context.Context, ownerID ulid.ULID, in LabelInput) (*Label, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	now := s.now()
	l := &Label{ID: ulid.Make(), OwnerID: ownerID, Name: in.Name, CreatedAt: now, UpdatedAt: now}
	if err := s.labels.Create(ctx, l); err != nil {
		return nil, s.writeErr(KindLabel, "create label", err)
	}
	return l, nil
}

// Labels returns every label ownerID owns.
func (s *Service) Labels(ctx context.Context, ownerID ulid.ULID) ([]Label, error) {
	ls, err := s.labels.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, internal("list labels", err)
	}
	return ls, nil
}

// UpdateLabel renames a label.
func (s *Service) UpdateLabel(ctx context.Context, ownerID, id ulid.ULID, in LabelInput) (*Label, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	l, err := s.label(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	l.Name = in.Name
	l.UpdatedAt = s.now()
	if err := s.labels.Update(ctx, l); err != nil {
		return nil, s.writeErr(KindLabel, "update label", err)
	}
	return l, nil
}

// DeleteLabel removes a label and detaches it from all tasks.
func (s *Service) DeleteLabel(ctx context.Context, ownerID, id ulid.ULID) error {
	if _, err := s.label(ctx, ownerID, id); err != nil {
		return err
	}
	if err := s.labels.Delete(ctx, id); err != nil {
		return s.writeErr(KindLabel, "delete label", err)
	}
	return nil
}

// writeErr maps a repository write failure. The row can vanish between the
// ownership check and the write, which surfaces as NOT_FOUND.
func (s *Service) writeErr(kind, operation string, err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return errNotFound(kind)
	case errutil.HasCode(err, CodeConflict):
		return errLabelConflict()
	}
	return internal(operation, err)
}
