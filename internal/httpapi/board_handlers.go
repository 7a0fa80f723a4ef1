// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Planwell Contributors

package httpapi

import (
	"net/http"

	"github.com/oklog/ulid/v2"

	"github.com/planwell/planwell/internal/auth"
	"github.com/planwell/planwell/internal/taskboard"
)

// id parses the {id} route variable, writing the error response when it is
// malformed.
func (s *Server) id(w http.ResponseWriter, r *http.Request) (ulid.ULID, bool) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return ulid.ULID{}, false
	}
	return id, true
}

// body decodes the request body, writing the error response on failure.
func (s *Server) body(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := decode(w, r, dst); err != nil {
		s.writeError(w, r, err)
		return false
	}
	return true
}

// Projects

func (s *Server) createProject(w http.ResponseWriter, r *http.Request, p auth.Principal) {
	var in taskboard.ProjectInput
	if !s.body(w, r, &in) {
		return
	}
	project, err := s.board.CreateProject(r.Context(), p.ID, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	created(w, "Project created", project)
}

func (s *Server) listProjects(w http.ResponseWriter, r *http.Request, p auth.Principal) {
	projects, err := s.board.Projects(r.Context(), p.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, "Projects retrieved", projects)
}

func (s *Server) getProject(w http.ResponseWriter, r *http.Request, p auth.Principal) {
	id, valid := s.id(w, r)
	if !valid {
		return
	}
	project, err := s.board.Project(r.Context(), p.ID, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, "Project retrieved", project)
}

func (s *Server) updateProject(w http.ResponseWriter, r *http.Request, p auth.Principal) {
	id, valid := s.id(w, r)
	if !valid {
		return
	}
	var in taskboard.ProjectInput
	if !s.body(w, r, &in) {
		return
	}
	project, err := s.board.UpdateProject(r.Context(), p.ID, id, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, "Project updated", project)
}

func (s *Server) deleteProject(w http.ResponseWriter, r *http.Request, p auth.Principal) {
	id, valid := s.id(w, r)
	if !valid {
		return
	}
	if err := s.board.DeleteProject(r.Context(), p.ID, id); err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, "Project deleted", nil)
}

// Lists

func (s *Server) createList(w http.ResponseWriter, r *http.Request, p auth.Principal) {
	var in taskboard.CreateListInput
	if !s.body(w, r, &in) {
		return
	}
	list, err := s.board.CreateList(r.Context(), p.ID, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	created(w, "List created", list)
}

func (s *Server) listLists(w http.ResponseWriter, r *http.Request, p auth.Principal) {
	lists, err := s.board.Lists(r.Context(), p.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, "Lists retrieved", lists)
}

func (s *Server) getList(w http.ResponseWriter, r *http.Request, p auth.Principal) {
	id, valid := s.id(w, r)
	if !valid {
		return
	}
	list, err := s.board.List(r.Context(), p.ID, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, "List retrieved", list)
}

func (s *Server) updateList(w http.ResponseWriter, r *http.Request, p auth.Principal) {
	id, valid := s.id(w, r)
	if !valid {
		return
	}
	var in taskboard.UpdateListInput
	if !s.body(w, r, &in) {
		return
	}
	list, err := s.board.UpdateList(r.Context(), p.ID, id, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, "List updated", list)
}

func (s *Server) deleteList(w http.ResponseWriter, r *http.Request, p auth.Principal) {
	id, valid := s.id(w, r)
	if !valid {
		return
	}
	if err := s.board.DeleteList(r.Context(), p.ID, id); err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, "List deleted", nil)
}

// Tasks

func (s *Server) createTask(w http.ResponseWriter, r *http.Request, p auth.Principal) {
	var in taskboard.CreateTaskInput
	if !s.body(w, r, &in) {
		return
	}
	task, err := s.board.CreateTask(r.Context(), p.ID, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	created(w, "Task created", task)
}

func (s *Server) listTasks(w http.ResponseWriter, r *http.Request, p auth.Principal) {
	tasks, err := s.board.Tasks(r.Context(), p.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, "Tasks retrieved", tasks)
}

func (s *Server) getTask(w http.ResponseWriter, r *http.Request, p auth.Principal) {
	id, valid := s.id(w, r)
	if !valid {
		return
	}
	task, err := s.board.Task(r.Context(), p.ID, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, "Task retrieved", task)
}

func (s *Server) updateTask(w http.ResponseWriter, r *http.Request, p auth.Principal) {
	id, valid := s.id(w, r)
	if !valid {
		return
	}
	var in taskboard.UpdateTaskInput
	if !s.body(w, r, &in) {
		return
	}
	task, err := s.board.UpdateTask(r.Context(), p.ID, id, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, "Task updated", task)
}

func (s *Server) deleteTask(w http.ResponseWriter, r *http.Request, p auth.Principal) {
	id, valid := s.id(w, r)
	if !valid {
		return
	}
	if err := s.board.DeleteTask(r.Context(), p.ID, id); err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, "Task deleted", nil)
}

func (s *Server) addTaskLabel(w http.ResponseWriter, r *http.Request, p auth.Principal) {
	var in taskboard.TaskLabelInput
	if !s.body(w, r, &in) {
		return
	}
	task, err := s.board.AddLabel(r.Context(), p.ID, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, "Label added to task", task)
}

func (s *Server) removeTaskLabel(w http.ResponseWriter, r *http.Request, p auth.Principal) {
	var in taskboard.TaskLabelInput
	if !s.body(w, r, &in) {
		return
	}
	task, err := s.board.RemoveLabel(r.Context(), p.ID, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, "Label removed from task", task)
}

// Labels

func (s *Server) createLabel(w http.ResponseWriter, r *http.Request, p auth.Principal) {
	var in taskboard.LabelInput
	if !s.body(w, r, &in) {
		return
	}
	label, err := s.board.CreateLabel(r.Context(), p.ID, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	created(w, "Label created", label)
}

func (s *Server) listLabels(w http.ResponseWriter, r *http.Request, p auth.Principal) {
	labels, err := s.board.Labels(r.Context(), p.ID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, "Labels retrieved", labels)
}

func (s *Server) updateLabel(w http.ResponseWriter, r *http.Request, p auth.Principal) {
	id, valid := s.id(w, r)
	if !valid {
		return
	}
	var in taskboard.LabelInput
	if !s.body(w, r, &in) {
		return
	}
	label, err := s.board.UpdateLabel(r.Context(), p.ID, id, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, "Label updated", label)
}

func (s *Server) deleteLabel(w http.ResponseWriter, r *http.Request, p auth.Principal) {
	id, valid := s.id(w, r)
	if !valid {
		return
	}
	if err := s.board.DeleteLabel(r.Context(), p.ID, id); err != nil {
		s.writeError(w, r, err)
		return
	}
	ok(w, "Label deleted", nil)
}
