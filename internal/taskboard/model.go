// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Planwell Contributors

package taskboard

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// Validation limits.
const (
	MaxNameLength        = 100
	MaxTaskNameLength    = 300
	MaxDescriptionLength = 20000
	MaxLabelNameLength   = 300
)

// Priority ranks a task.
type Priority string

// Task priorities.
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Status is a task's progress.
type Status string

// Task statuses.
const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in-progress"
	StatusDone       Status = "done"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// Project groups lists.
type Project struct {
	ID        ulid.ULID `json:"id"`
	OwnerID   ulid.ULID `json:"owner"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProjectDetail is a project with its lists.
type ProjectDetail struct {
	Project
	Lists []List `json:"lists"`
}

// List groups tasks inside a project.
type List struct {
	ID        ulid.ULID `json:"id"`
	OwnerID   ulid.ULID `json:"owner"`
	ProjectID ulid.ULID `json:"project"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ListDetail is a list with its tasks.
type ListDetail struct {
	List
	Tasks []Task `json:"tasks"`
}

// Task is a unit of work on a list.
type Task struct {
	ID          ulid.ULID   `json:"id"`
	OwnerID     ulid.ULID   `json:"owner"`
	ListID      ulid.ULID   `json:"list"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Priority    Priority    `json:"priority"`
	Status      Status      `json:"status"`
	DueDate     *time.Time  `json:"due_date,omitempty"`
	LabelIDs    []ulid.ULID `json:"labels"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// HasLabel reports whether the task carries the label.
func (t *Task) HasLabel(id ulid.ULID) bool {
	for _, l := range t.LabelIDs {
		if l == id {
			return true
		}
	}
	return false
}

// Label tags tasks. Names are unique per owner.
type Label struct {
	ID        ulid.ULID `json:"id"`
	OwnerID   ulid.ULID `json:"owner"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *Project) owner() ulid.ULID { return p.OwnerID }
func (l *List) owner() ulid.ULID    { return l.OwnerID }
func (t *Task) owner() ulid.ULID    { return t.OwnerID }
func (l *Label) owner() ulid.ULID   { return l.OwnerID }
