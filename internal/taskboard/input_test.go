// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Planwell Contributors

package taskboard_test

import (
	"strings"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/planwell/planwell/internal/taskboard"
	"github.com/planwell/planwell/pkg/errutil"
)

func ptr[T any](v T) *T { return &v }

func TestPriority_Valid(t *testing.T) {
	assert.True(t, taskboard.PriorityLow.Valid())
	assert.True(t, taskboard.PriorityMedium.Valid())
	assert.True(t, taskboard.PriorityHigh.Valid())
	assert.False(t, taskboard.Priority("urgent").Valid())
	assert.False(t, taskboard.Priority("").Valid())
}

func TestStatus_Valid(t *testing.T) {
	assert.True(t, taskboard.StatusTodo.Valid())
	assert.True(t, taskboard.StatusInProgress.Valid())
	assert.True(t, taskboard.StatusDone.Valid())
	assert.False(t, taskboard.Status("blocked").Valid())
}

func TestProjectInput_Validate(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantErr bool
	}{
		{"valid", "Home", false},
		{"empty", "", true},
		{"blank", "   ", true},
		{"max length", strings.Repeat("a", taskboard.MaxNameLength), false},
		{"too long", strings.Repeat("a", taskboard.MaxNameLength+1), true},
		{"control character", "bad\x00name", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := taskboard.ProjectInput{Name: tt.in}.Validate()
			if tt.wantErr {
				errutil.AssertFieldError(t, err, "name")
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestCreateListInput_Validate(t *testing.T) {
	id := ulid.Make()

	got, err := taskboard.CreateListInput{Name: "Backlog", ProjectID: id.String()}.Validate()
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = taskboard.CreateListInput{Name: "Backlog", ProjectID: "nope"}.Validate()
	errutil.AssertFieldError(t, err, "project")

	_, err = taskboard.CreateListInput{}.Validate()
	errutil.AssertFieldError(t, err, "name")
	errutil.AssertFieldError(t, err, "project")
}

func TestCreateTaskInput_Validate(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	listID := ulid.Make().String()

	tests := []struct {
		name      string
		in        taskboard.CreateTaskInput
		wantField string
	}{
		{"minimal", taskboard.CreateTaskInput{Name: "Write docs", ListID: listID}, ""},
		{"all fields", taskboard.CreateTaskInput{
			Name:        "Write docs",
			ListID:      listID,
			Description: ptr("the long version"),
			Priority:    ptr(taskboard.PriorityHigh),
			Status:      ptr(taskboard.StatusInProgress),
			DueDate:     ptr(now.Add(time.Hour)),
		}, ""},
		{"due now is allowed", taskboard.CreateTaskInput{Name: "x", ListID: listID, DueDate: ptr(now)}, ""},
		{"missing name", taskboard.CreateTaskInput{ListID: listID}, "name"},
		{"long name", taskboard.CreateTaskInput{Name: strings.Repeat("n", taskboard.MaxTaskNameLength+1), ListID: listID}, "name"},
		{"missing list", taskboard.CreateTaskInput{Name: "x"}, "list"},
		{"long description", taskboard.CreateTaskInput{
			Name: "x", ListID: listID, Description: ptr(strings.Repeat("d", taskboard.MaxDescriptionLength+1)),
		}, "description"},
		{"bad priority", taskboard.CreateTaskInput{Name: "x", ListID: listID, Priority: ptr(taskboard.Priority("urgent"))}, "priority"},
		{"bad status", taskboard.CreateTaskInput{Name: "x", ListID: listID, Status: ptr(taskboard.Status("later"))}, "status"},
		{"past due date", taskboard.CreateTaskInput{Name: "x", ListID: listID, DueDate: ptr(now.Add(-time.Minute))}, "due_date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.in.Validate(now)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			errutil.AssertFieldError(t, err, tt.wantField)
		})
	}
}

func TestUpdateTaskInput_Validate(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	assert.NoError(t, taskboard.UpdateTaskInput{}.Validate(now))
	assert.NoError(t, taskboard.UpdateTaskInput{Description: ptr("")}.Validate(now))
	errutil.AssertFieldError(t, taskboard.UpdateTaskInput{Name: ptr("")}.Validate(now), "name")
	errutil.AssertFieldError(t, taskboard.UpdateTaskInput{DueDate: ptr(now.Add(-time.Second))}.Validate(now), "due_date")
}

func TestTaskLabelInput_Validate(t *testing.T) {
	taskID, labelID := ulid.Make(), ulid.Make()

	gotTask, gotLabel, err := taskboard.TaskLabelInput{TaskID: taskID.String(), LabelID: labelID.String()}.Validate()
	require.NoError(t, err)
	assert.Equal(t, taskID, gotTask)
	assert.Equal(t, labelID, gotLabel)

	_, _, err = taskboard.TaskLabelInput{TaskID: taskID.String()}.Validate()
	errutil.AssertFieldError(t, err, "label")
}

func TestLabelInput_Validate(t *testing.T) {
	assert.NoError(t, taskboard.LabelInput{Name: strings.Repeat("l", taskboard.MaxLabelNameLength)}.Validate())
	errutil.AssertFieldError(t, taskboard.LabelInput{Name: strings.Repeat("l", taskboard.MaxLabelNameLength+1)}.Validate(), "name")
	errutil.AssertFieldError(t, taskboard.LabelInput{}.Validate(), "name")
}

func TestTask_HasLabel(t *testing.T) {
	a, b := ulid.Make(), ulid.Make()
	task := taskboard.Task{LabelIDs: []ulid.ULID{a}}
	assert.True(t, task.HasLabel(a))
	assert.False(t, task.HasLabel(b))
}
