// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Planwell Contributors

// Package postgres implements the task board repositories on PostgreSQL.
package postgres

import (
	"github.com/planwell/planwell/internal/store"
	"github.com/planwell/planwell/internal/taskboard"
)

// NewRepositories builds every task board repository over db.
func NewRepositories(db store.DB) taskboard.Repositories {
	return taskboard.Repositories{
		Projects: NewProjectRepository(db),
		Lists:    NewListRepository(db),
		Tasks:    NewTaskRepository(db),
		Labels:   NewLabelRepository(db),
	}
}
