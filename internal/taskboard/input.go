// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Planwell Contributors

package taskboard

import (
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/planwell/planwell/internal/validate"
)

// ProjectInput creates or renames a project.
type ProjectInput struct {
	Name string `json:"name"`
}

// Validate checks the structure of the input.
func (in ProjectInput) Validate() error {
	v := validate.Errors{}
	v.Text("name", in.Name, 1, MaxNameLength)
	return v.Err()
}

// CreateListInput creates a list inside a project.
type CreateListInput struct {
	Name      string `json:"name"`
	ProjectID string `json:"project"`
}

// Validate checks the structure of the input and returns the parsed project ID.
func (in CreateListInput) Validate() (ulid.ULID, error) {
	v := validate.Errors{}
	v.Text("name", in.Name, 1, MaxNameLength)
	projectID := v.ID("project", in.ProjectID)
	return projectID, v.Err()
}

// UpdateListInput renames a list.
type UpdateListInput struct {
	Name string `json:"name"`
}

// Validate checks the structure of the input.
func (in UpdateListInput) Validate() error {
	v := validate.Errors{}
	v.Text("name", in.Name, 1, MaxNameLength)
	return v.Err()
}

// CreateTaskInput creates a task on a list. Unset optional fields take
// their defaults.
type CreateTaskInput struct {
	Name        string     `json:"name"`
	ListID      string     `json:"list"`
	Description *string    `json:"description"`
	Priority    *Priority  `json:"priority"`
	Status      *Status    `json:"status"`
	DueDate     *time.Time `json:"due_date"`
}

// Validate checks the input against now and returns the parsed list ID.
func (in CreateTaskInput) Validate(now time.Time) (ulid.ULID, error) {
	v := validate.Errors{}
	v.Text("name", in.Name, 1, MaxTaskNameLength)
	listID := v.ID("list", in.ListID)
	validateTaskFields(v, in.Description, in.Priority, in.Status, in.DueDate, now)
	return listID, v.Err()
}

// UpdateTaskInput changes task fields. Nil fields are left alone.
type UpdateTaskInput struct {
	Name        *string    `json:"name"`
	Description *string    `json:"description"`
	Priority    *Priority  `json:"priority"`
	Status      *Status    `json:"status"`
	DueDate     *time.Time `json:"due_date"`
}

// Validate checks the input against now.
func (in UpdateTaskInput) Validate(now time.Time) error {
	v := validate.Errors{}
	if in.Name != nil {
		v.Text("name", *in.Name, 1, MaxTaskNameLength)
	}
	validateTaskFields(v, in.Description, in.Priority, in.Status, in.DueDate, now)
	return v.Err()
}

func validateTaskFields(v validate.Errors, desc *string, p *Priority, s *Status, due *time.Time, now time.Time) {
	if desc != nil {
		v.Text("description", *desc, 0, MaxDescriptionLength)
	}
	if p != nil {
		v.Check(p.Valid(), "priority", "must be one of low, medium, high")
	}
	if s != nil {
		v.Check(s.Valid(), "status", "must be one of todo, in-progress, done")
	}
	if due != nil {
		v.Check(!due.Before(now), "due_date", "must not be in the past")
	}
}

// TaskLabelInput attaches or detaches a label.
type TaskLabelInput struct {
	TaskID  string `json:"task"`
	LabelID string `json:"label"`
}

// Validate checks the structure of the input and returns the parsed IDs.
func (in TaskLabelInput) Validate() (taskID, labelID ulid.ULID, err error) {
	v := validate.Errors{}
	taskID = v.ID("task", in.TaskID)
	labelID = v.ID("label", in.LabelID)
	return taskID, labelID, v.Err()
}

// LabelInput creates or renames a label.
type LabelInput struct {
	Name string `json:"name"`
}

// Validate checks the structure of the input.
func (in LabelInput) Validate() error {
	v := validate.Errors{}
	v.Text("name", in.Name, 1, MaxLabelNameLength)
	return v.Err()
}
