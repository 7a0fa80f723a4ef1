// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Planwell Contributors

// Package boardtest provides an in-memory task board store for tests.
package boardtest

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/planwell/planwell/internal/taskboard"
)

// Store keeps projects, lists, tasks, and labels in memory with the same
// cascade rules as the database schema.
type Store struct {
	mu       sync.Mutex
	projects map[ulid.ULID]taskboard.Project
	lists    map[ulid.ULID]taskboard.List
	tasks    map[ulid.ULID]taskboard.Task
	labels   map[ulid.ULID]taskboard.Label

	// Fail, when set, is consulted before every repository call. A non-nil
	// return is handed back to the caller instead of running the call.
	Fail func(op string) error
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		projects: make(map[ulid.ULID]taskboard.Project),
		lists:    make(map[ulid.ULID]taskboard.List),
		tasks:    make(map[ulid.ULID]taskboard.Task),
		labels:   make(map[ulid.ULID]taskboard.Label),
	}
}

// Repositories returns the store as taskboard repositories.
func (s *Store) Repositories() taskboard.Repositories {
	return taskboard.Repositories{
		Projects: &ProjectRepository{s: s},
		Lists:    &ListRepository{s: s},
		Tasks:    &TaskRepository{s: s},
		Labels:   &LabelRepository{s: s},
	}
}

// Counts reports how many rows of each kind are stored.
func (s *Store) Counts() (projects, lists, tasks, labels int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.projects), len(s.lists), len(s.tasks), len(s.labels)
}

func (s *Store) begin(op string) (func(), error) {
	s.mu.Lock()
	if s.Fail != nil {
		if err := s.Fail(op); err != nil {
			s.mu.Unlock()
			return nil, err
		}
	}
	return s.mu.Unlock, nil
}

func notFound(kind string, id ulid.ULID) error {
	return oops.Code("ROW_NOT_FOUND").With(kind+"_id", id.String()).Wrap(taskboard.ErrNotFound)
}

func sorted[T any](items []T, id func(T) ulid.ULID) []T {
	sort.Slice(items, func(i, j int) bool { return id(items[i]).Compare(id(items[j])) < 0 })
	return items
}

// deleteList removes a list and its tasks. The caller holds the lock.
func (s *Store) deleteList(id ulid.ULID) {
	delete(s.lists, id)
	for tid, t := range s.tasks {
		if t.ListID == id {
			delete(s.tasks, tid)
		}
	}
}

// ProjectRepository implements taskboard.ProjectRepository in memory.
type ProjectRepository struct{ s *Store }

// Create implements taskboard.ProjectRepository.
func (r *ProjectRepository) Create(_ context.Context, p *taskboard.Project) error {
	unlock, err := r.s.begin("projects.Create")
	if err != nil {
		return err
	}
	defer unlock()
	r.s.projects[p.ID] = *p
	return nil
}

// Get implements taskboard.ProjectRepository.
func (r *ProjectRepository) Get(_ context.Context, id ulid.ULID) (*taskboard.Project, error) {
	unlock, err := r.s.begin("projects.Get")
	if err != nil {
		return nil, err
	}
	defer unlock()
	p, ok := r.s.projects[id]
	if !ok {
		return nil, notFound("project", id)
	}
	return &p, nil
}

// ListByOwner implements taskboard.ProjectRepository.
func (r *ProjectRepository) ListByOwner(_ context.Context, ownerID ulid.ULID) ([]taskboard.Project, error) {
	unlock, err := r.s.begin("projects.ListByOwner")
	if err != nil {
		return nil, err
	}
	defer unlock()
	out := []taskboard.Project{}
	for _, p := range r.s.projects {
		if p.OwnerID == ownerID {
			out = append(out, p)
		}
	}
	return sorted(out, func(p taskboard.Project) ulid.ULID { return p.ID }), nil
}

// Update implements taskboard.ProjectRepository.
func (r *ProjectRepository) Update(_ context.Context, p *taskboard.Project) error {
	unlock, err := r.s.begin("projects.Update")
	if err != nil {
		return err
	}
	defer unlock()
	if _, ok := r.s.projects[p.ID]; !ok {
		return notFound("project", p.ID)
	}
	r.s.projects[p.ID] = *p
	return nil
}

// Delete implements taskboard.ProjectRepository.
func (r *ProjectRepository) Delete(_ context.Context, id ulid.ULID) error {
	unlock, err := r.s.begin("projects.Delete")
	if err != nil {
		return err
	}
	defer unlock()
	if _, ok := r.s.projects[id]; !ok {
		return notFound("project", id)
	}
	delete(r.s.projects, id)
	for lid, l := range r.s.lists {
		if l.ProjectID == id {
			r.s.deleteList(lid)
		}
	}
	return nil
}

// ListRepository implements taskboard.ListRepository in memory.
type ListRepository struct{ s *Store }

// Create implements taskboard.ListRepository.
func (r *ListRepository) Create(_ context.Context, l *taskboard.List) error {
	unlock, err := r.s.begin("lists.Create")
	if err != nil {
		return err
	}
	defer unlock()
	if _, ok := r.s.projects[l.ProjectID]; !ok {
		return notFound("project", l.ProjectID)
	}
	r.s.lists[l.ID] = *l
	return nil
}

// Get implements taskboard.ListRepository.
func (r *ListRepository) Get(_ context.Context, id ulid.ULID) (*taskboard.List, error) {
	unlock, err := r.s.begin("lists.Get")
	if err != nil {
		return nil, err
	}
	defer unlock()
	l, ok := r.s.lists[id]
	if !ok {
		return nil, notFound("list", id)
	}
	return &l, nil
}

// ListByOwner implements taskboard.ListRepository.
func (r *ListRepository) ListByOwner(_ context.Context, ownerID ulid.ULID) ([]taskboard.List, error) {
	return r.filter("lists.ListByOwner", func(l taskboard.List) bool { return l.OwnerID == ownerID })
}

// ListByProject implements taskboard.ListRepository.
func (r *ListRepository) ListByProject(_ context.Context, projectID ulid.ULID) ([]taskboard.List, error) {
	return r.filter("lists.ListByProject", func(l taskboard.List) bool { return l.ProjectID == projectID })
}

func (r *ListRepository) filter(op string, keep func(taskboard.List) bool) ([]taskboard.List, error) {
	unlock, err := r.s.begin(op)
	if err != nil {
		return nil, err
	}
	defer unlock()
	out := []taskboard.List{}
	for _, l := range r.s.lists {
		if keep(l) {
			out = append(out, l)
		}
	}
	return sorted(out, func(l taskboard.List) ulid.ULID { return l.ID }), nil
}

// Update implements taskboard.ListRepository.
func (r *ListRepository) Update(_ context.Context, l *taskboard.List) error {
	unlock, err := r.s.begin("lists.Update")
	if err != nil {
		return err
	}
	defer unlock()
	if _, ok := r.s.lists[l.ID]; !ok {
		return notFound("list", l.ID)
	}
	r.s.lists[l.ID] = *l
	return nil
}

// Delete implements taskboard.ListRepository.
func (r *ListRepository) Delete(_ context.Context, id ulid.ULID) error {
	unlock, err := r.s.begin("lists.Delete")
	if err != nil {
		return err
	}
	defer unlock()
	if _, ok := r.s.lists[id]; !ok {
		return notFound("list", id)
	}
	r.s.deleteList(id)
	return nil
}

// TaskRepository implements taskboard.TaskRepository in memory.
type TaskRepository struct{ s *Store }

func copyTask(t taskboard.Task) taskboard.Task {
	t.LabelIDs = append([]ulid.ULID{}, t.LabelIDs...)
	return t
}

// Create implements taskboard.TaskRepository.
func (r *TaskRepository) Create(_ context.Context, t *taskboard.Task) error {
	unlock, err := r.s.begin("tasks.Create")
	if err != nil {
		return err
	}
	defer unlock()
	if _, ok := r.s.lists[t.ListID]; !ok {
		return notFound("list", t.ListID)
	}
	r.s.tasks[t.ID] = copyTask(*t)
	return nil
}

// Get implements taskboard.TaskRepository.
func (r *TaskRepository) Get(_ context.Context, id ulid.ULID) (*taskboard.Task, error) {
	unlock, err := r.s.begin("tasks.Get")
	if err != nil {
		return nil, err
	}
	defer unlock()
	t, ok := r.s.tasks[id]
	if !ok {
		return nil, notFound("task", id)
	}
	t = copyTask(t)
	return &t, nil
}

// ListByOwner implements taskboard.TaskRepository.
func (r *TaskRepository) ListByOwner(_ context.Context, ownerID ulid.ULID) ([]taskboard.Task, error) {
	return r.filter("tasks.ListByOwner", func(t taskboard.Task) bool { return t.OwnerID == ownerID })
}

// ListByList implements taskboard.TaskRepository.
func (r *TaskRepository) ListByList(_ context.Context, listID ulid.ULID) ([]taskboard.Task, error) {
	return r.filter("tasks.ListByList", func(t taskboard.Task) bool { return t.ListID == listID })
}

func (r *TaskRepository) filter(op string, keep func(taskboard.Task) bool) ([]taskboard.Task, error) {
	unlock, err := r.s.begin(op)
	if err != nil {
		return nil, err
	}
	defer unlock()
	out := []taskboard.Task{}
	for _, t := range r.s.tasks {
		if keep(t) {
			out = append(out, copyTask(t))
		}
	}
	return sorted(out, func(t taskboard.Task) ulid.ULID { return t.ID }), nil
}

// Update implements taskboard.TaskRepository. Label links are not touched.
func (r *TaskRepository) Update(_ context.Context, t *taskboard.Task) error {
	unlock, err := r.s.begin("tasks.Update")
	if err != nil {
		return err
	}
	defer unlock()
	existing, ok := r.s.tasks[t.ID]
	if !ok {
		return notFound("task", t.ID)
	}
	updated := copyTask(*t)
	updated.LabelIDs = existing.LabelIDs
	r.s.tasks[t.ID] = updated
	return nil
}

// Delete implements taskboard.TaskRepository.
func (r *TaskRepository) Delete(_ context.Context, id ulid.ULID) error {
	unlock, err := r.s.begin("tasks.Delete")
	if err != nil {
		return err
	}
	defer unlock()
	if _, ok := r.s.tasks[id]; !ok {
		return notFound("task", id)
	}
	delete(r.s.tasks, id)
	return nil
}

// AddLabel implements taskboard.TaskRepository.
func (r *TaskRepository) AddLabel(_ context.Context, taskID, labelID ulid.ULID) error {
	unlock, err := r.s.begin("tasks.AddLabel")
	if err != nil {
		return err
	}
	defer unlock()
	t, ok := r.s.tasks[taskID]
	if !ok {
		return notFound("task", taskID)
	}
	if _, ok := r.s.labels[labelID]; !ok {
		return notFound("label", labelID)
	}
	if !t.HasLabel(labelID) {
		t.LabelIDs = append(copyTask(t).LabelIDs, labelID)
		r.s.tasks[taskID] = t
	}
	return nil
}

// RemoveLabel implements taskboard.TaskRepository.
func (r *TaskRepository) RemoveLabel(_ context.Context, taskID, labelID ulid.ULID) error {
	unlock, err := r.s.begin("tasks.RemoveLabel")
	if err != nil {
		return err
	}
	defer unlock()
	t, ok := r.s.tasks[taskID]
	if !ok {
		return notFound("task", taskID)
	}
	t.LabelIDs = slices.DeleteFunc(copyTask(t).LabelIDs, func(id ulid.ULID) bool { return id == labelID })
	r.s.tasks[taskID] = t
	return nil
}

// LabelRepository implements taskboard.LabelRepository in memory.
type LabelRepository struct{ s *Store }

func (r *LabelRepository) nameTaken(l *taskboard.Label) bool {
	for _, other := range r.s.labels {
		if other.OwnerID == l.OwnerID && other.Name == l.Name && other.ID != l.ID {
			return true
		}
	}
	return false
}

func conflict(name string) error {
	return oops.Code(taskboard.CodeConflict).With("name", name).Errorf("label name already used")
}

// Create implements taskboard.LabelRepository.
func (r *LabelRepository) Create(_ context.Context, l *taskboard.Label) error {
	unlock, err := r.s.begin("labels.Create")
	if err != nil {
		return err
	}
	defer unlock()
	if r.nameTaken(l) {
		return conflict(l.Name)
	}
	r.s.labels[l.ID] = *l
	return nil
}

// Get implements taskboard.LabelRepository.
func (r *LabelRepository) Get(_ context.Context, id ulid.ULID) (*taskboard.Label, error) {
	unlock, err := r.s.begin("labels.Get")
	if err != nil {
		return nil, err
	}
	defer unlock()
	l, ok := r.s.labels[id]
	if !ok {
		return nil, notFound("label", id)
	}
	return &l, nil
}

// ListByOwner implements taskboard.LabelRepository.
func (r *LabelRepository) ListByOwner(_ context.Context, ownerID ulid.ULID) ([]taskboard.Label, error) {
	unlock, err := r.s.begin("labels.ListByOwner")
	if err != nil {
		return nil, err
	}
	defer unlock()
	out := []taskboard.Label{}
	for _, l := range r.s.labels {
		if l.OwnerID == ownerID {
			out = append(out, l)
		}
	}
	return sorted(out, func(l taskboard.Label) ulid.ULID { return l.ID }), nil
}

// Update implements taskboard.LabelRepository.
func (r *LabelRepository) Update(_ context.Context, l *taskboard.Label) error {
	unlock, err := r.s.begin("labels.Update")
	if err != nil {
		return err
	}
	defer unlock()
	if _, ok := r.s.labels[l.ID]; !ok {
		return notFound("label", l.ID)
	}
	if r.nameTaken(l) {
		return conflict(l.Name)
	}
	r.s.labels[l.ID] = *l
	return nil
}

// Delete implements taskboard.LabelRepository.
func (r *LabelRepository) Delete(_ context.Context, id ulid.ULID) error {
	unlock, err := r.s.begin("labels.Delete")
	if err != nil {
		return err
	}
	defer unlock()
	if _, ok := r.s.labels[id]; !ok {
		return notFound("label", id)
	}
	delete(r.s.labels, id)
	for tid, t := range r.s.tasks {
		if t.HasLabel(id) {
			t.LabelIDs = slices.DeleteFunc(copyTask(t).LabelIDs, func(l ulid.ULID) bool { return l == id })
			r.s.tasks[tid] = t
		}
	}
	return nil
}

var (
	_ taskboard.ProjectRepository = (*ProjectRepository)(nil)
	_ taskboard.ListRepository    = (*ListRepository)(nil)
	_ taskboard.TaskRepository    = (*TaskRepository)(nil)
	_ taskboard.LabelRepository   = (*LabelRepository)(nil)
)
