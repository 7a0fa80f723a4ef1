// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Planwell Contributors

package httpapi_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type resource struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Owner    string   `json:"owner"`
	Project  string   `json:"project"`
	List     string   `json:"list"`
	Priority string   `json:"priority"`
	Status   string   `json:"status"`
	Labels   []string `json:"labels"`
}

func (a *testAPI) create(t *testing.T, token, path string, body any) resource {
	t.Helper()
	resp := a.do(t, http.MethodPost, path, token, body)
	require.Equal(t, http.StatusCreated, resp.code, "%s: %+v", path, resp.Error)
	return data[resource](t, resp)
}

func TestBoard_Flow(t *testing.T) {
	api := newTestAPI(t)
	alice := api.signUp(t, "alice@example.com").AccessToken

	project := api.create(t, alice, "/api/v1/projects", map[string]string{"name": "Home"})
	list := api.create(t, alice, "/api/v1/lists", map[string]string{"name": "Chores", "project": project.ID})
	task := api.create(t, alice, "/api/v1/tasks", map[string]string{"name": "Laundry", "list": list.ID})
	label := api.create(t, alice, "/api/v1/labels", map[string]string{"name": "weekly"})

	assert.Equal(t, project.ID, list.Project)
	assert.Equal(t, "medium", task.Priority)
	assert.Equal(t, "todo", task.Status)
	assert.Empty(t, task.Labels)

	resp := api.do(t, http.MethodGet, "/api/v1/projects/"+project.ID, alice, nil)
	require.Equal(t, http.StatusOK, resp.code)
	detail := data[struct {
		ID    string     `json:"id"`
		Lists []resource `json:"lists"`
	}](t, resp)
	require.Len(t, detail.Lists, 1)
	assert.Equal(t, list.ID, detail.Lists[0].ID)

	resp = api.do(t, http.MethodPut, "/api/v1/tasks/add-label", alice, map[string]string{"task": task.ID, "label": label.ID})
	require.Equal(t, http.StatusOK, resp.code, "%+v", resp.Error)
	assert.Equal(t, "Label added to task", resp.Message)
	assert.Equal(t, []string{label.ID}, data[resource](t, resp).Labels)

	resp = api.do(t, http.MethodPut, "/api/v1/tasks/"+task.ID, alice, map[string]string{"status": "done", "priority": "high"})
	require.Equal(t, http.StatusOK, resp.code)
	updated := data[resource](t, resp)
	assert.Equal(t, "done", updated.Status)
	assert.Equal(t, "high", updated.Priority)
	assert.Equal(t, "Laundry", updated.Name)
	assert.Equal(t, []string{label.ID}, updated.Labels, "update keeps labels")

	resp = api.do(t, http.MethodPut, "/api/v1/tasks/remove-label", alice, map[string]string{"task": task.ID, "label": label.ID})
	require.Equal(t, http.StatusOK, resp.code)
	assert.Empty(t, data[resource](t, resp).Labels)

	resp = api.do(t, http.MethodGet, "/api/v1/lists/"+list.ID, alice, nil)
	require.Equal(t, http.StatusOK, resp.code)
	listDetail := data[struct {
		Tasks []resource `json:"tasks"`
	}](t, resp)
	require.Len(t, listDetail.Tasks, 1)

	resp = api.do(t, http.MethodDelete, "/api/v1/projects/"+project.ID, alice, nil)
	require.Equal(t, http.StatusOK, resp.code)
	assert.Equal(t, "Project deleted", resp.Message)

	resp = api.do(t, http.MethodGet, "/api/v1/tasks/"+task.ID, alice, nil)
	assert.Equal(t, http.StatusNotFound, resp.code, "deleting a project cascades to its tasks")

	projects, lists, tasks, labels := api.board.Counts()
	assert.Equal(t, []int{0, 0, 0, 1}, []int{projects, lists, tasks, labels})
}

func TestBoard_Collections(t *testing.T) {
	api := newTestAPI(t)
	alice := api.signUp(t, "alice@example.com").AccessToken
	bob := api.signUp(t, "bob@example.com").AccessToken

	api.create(t, alice, "/api/v1/projects", map[string]string{"name": "One"})
	api.create(t, alice, "/api/v1/projects", map[string]string{"name": "Two"})
	api.create(t, bob, "/api/v1/projects", map[string]string{"name": "Bob's"})

	for _, path := range []string{"/api/v1/projects", "/api/v1/lists", "/api/v1/tasks", "/api/v1/labels"} {
		resp := api.do(t, http.MethodGet, path, alice, nil)
		require.Equal(t, http.StatusOK, resp.code, path)
		assert.True(t, strings.HasPrefix(string(resp.Data), "["), "%s returns an array, got %s", path, resp.Data)
	}

	resp := api.do(t, http.MethodGet, "/api/v1/projects", alice, nil)
	assert.Equal(t, "Projects retrieved", resp.Message)
	assert.Len(t, data[[]resource](t, resp), 2, "only the caller's projects")
}

func TestBoard_Ownership(t *testing.T) {
	api := newTestAPI(t)
	alice := api.signUp(t, "alice@example.com").AccessToken
	bob := api.signUp(t, "bob@example.com").AccessToken

	project := api.create(t, alice, "/api/v1/projects", map[string]string{"name": "Private"})
	list := api.create(t, alice, "/api/v1/lists", map[string]string{"name": "Secret", "project": project.ID})
	task := api.create(t, alice, "/api/v1/tasks", map[string]string{"name": "Hidden", "list": list.ID})
	label := api.create(t, alice, "/api/v1/labels", map[string]string{"name": "mine"})
	missing := ulid.Make().String()

	tests := []struct {
		name    string
		method  string
		path    string
		body    any
		status  int
		code    string
		message string
	}{
		{"get foreign project", http.MethodGet, "/api/v1/projects/" + project.ID, nil,
			http.StatusForbidden, "FORBIDDEN", "You're not authorized to access this project."},
		{"update foreign list", http.MethodPut, "/api/v1/lists/" + list.ID, map[string]string{"name": "x"},
			http.StatusForbidden, "FORBIDDEN", "You're not authorized to access this list."},
		{"delete foreign task", http.MethodDelete, "/api/v1/tasks/" + task.ID, nil,
			http.StatusForbidden, "FORBIDDEN", "You're not authorized to access this task."},
		{"delete foreign label", http.MethodDelete, "/api/v1/labels/" + label.ID, nil,
			http.StatusForbidden, "FORBIDDEN", "You're not authorized to access this label."},
		{"list in foreign project", http.MethodPost, "/api/v1/lists", map[string]string{"name": "x", "project": project.ID},
			http.StatusForbidden, "FORBIDDEN", "You're not authorized to access this project."},
		{"task in foreign list", http.MethodPost, "/api/v1/tasks", map[string]string{"name": "x", "list": list.ID},
			http.StatusForbidden, "FORBIDDEN", "You're not authorized to access this list."},
		{"missing project", http.MethodGet, "/api/v1/projects/" + missing, nil,
			http.StatusNotFound, "NOT_FOUND", "This project does not exist."},
		{"list in missing project", http.MethodPost, "/api/v1/lists", map[string]string{"name": "x", "project": missing},
			http.StatusNotFound, "NOT_FOUND", "This project does not exist."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := api.do(t, tt.method, tt.path, bob, tt.body)
			assert.Equal(t, tt.status, resp.code)
			assert.Equal(t, tt.code, resp.errorCode())
			assert.Equal(t, tt.message, resp.Message)
		})
	}

	resp := api.do(t, http.MethodGet, "/api/v1/projects/"+project.ID, alice, nil)
	assert.Equal(t, http.StatusOK, resp.code, "owner still has access")
}

func TestBoard_Validation(t *testing.T) {
	api := newTestAPI(t)
	alice := api.signUp(t, "alice@example.com").AccessToken
	project := api.create(t, alice, "/api/v1/projects", map[string]string{"name": "Home"})
	list := api.create(t, alice, "/api/v1/lists", map[string]string{"name": "Chores", "project": project.ID})

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		field  string
	}{
		{"malformed id", http.MethodGet, "/api/v1/projects/not-a-ulid", nil, "id"},
		{"empty project name", http.MethodPost, "/api/v1/projects", map[string]string{"name": ""}, "name"},
		{"list without project", http.MethodPost, "/api/v1/lists", map[string]string{"name": "x"}, "project"},
		{"bad priority", http.MethodPost, "/api/v1/tasks",
			map[string]string{"name": "x", "list": list.ID, "priority": "urgent"}, "priority"},
		{"past due date", http.MethodPost, "/api/v1/tasks",
			map[string]string{"name": "x", "list": list.ID, "due_date": "2020-01-01T00:00:00Z"}, "due_date"},
		{"label pair missing label", http.MethodPut, "/api/v1/tasks/add-label",
			map[string]string{"task": ulid.Make().String()}, "label"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := api.do(t, tt.method, tt.path, alice, tt.body)
			require.Equal(t, http.StatusBadRequest, resp.code)
			assert.Equal(t, "VALIDATION_FAILED", resp.errorCode())
			assert.Contains(t, resp.Error.Fields, tt.field)
		})
	}
}

func TestBoard_LabelConflict(t *testing.T) {
	api := newTestAPI(t)
	alice := api.signUp(t, "alice@example.com").AccessToken
	bob := api.signUp(t, "bob@example.com").AccessToken
	api.create(t, alice, "/api/v1/labels", map[string]string{"name": "urgent"})

	resp := api.do(t, http.MethodPost, "/api/v1/labels", alice, map[string]string{"name": "urgent"})
	assert.Equal(t, http.StatusConflict, resp.code)
	assert.Equal(t, "CONFLICT", resp.errorCode())

	resp = api.do(t, http.MethodPost, "/api/v1/labels", bob, map[string]string{"name": "urgent"})
	assert.Equal(t, http.StatusCreated, resp.code, "label names are unique per owner")
}
