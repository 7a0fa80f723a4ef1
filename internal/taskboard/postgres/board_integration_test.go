// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Planwell Contributors

//go:build integration

package postgres_test

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/planwell/planwell/internal/auth"
	authpg "github.com/planwell/planwell/internal/auth/postgres"
	"github.com/planwell/planwell/internal/taskboard"
	"github.com/planwell/planwell/internal/taskboard/postgres"
	"github.com/planwell/planwell/pkg/errutil"
)

var _ = Describe("Task board on PostgreSQL", func() {
	var (
		ctx   context.Context
		svc   *taskboard.Service
		alice ulid.ULID
		bob   ulid.ULID
		now   time.Time
	)

	createUser := func(email string) ulid.ULID {
		user, err := auth.NewUser("User", email, "$2a$10$hash", now)
		Expect(err).NotTo(HaveOccurred())
		Expect(authpg.NewUserRepository(testDB.Pool).Create(ctx, user)).To(Succeed())
		return user.ID
	}

	BeforeEach(func() {
		ctx = context.Background()
		now = time.Now().UTC().Truncate(time.Microsecond)
		svc = taskboard.NewService(postgres.NewRepositories(testDB.Pool),
			taskboard.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
			taskboard.WithClock(func() time.Time { return now }),
		)
		alice = createUser("alice@example.com")
		bob = createUser("bob@example.com")
	})

	It("builds a board and reads it back", func() {
		p, err := svc.CreateProject(ctx, alice, taskboard.ProjectInput{Name: "Launch"})
		Expect(err).NotTo(HaveOccurred())
		l, err := svc.CreateList(ctx, alice, taskboard.CreateListInput{Name: "Todo", ProjectID: p.ID.String()})
		Expect(err).NotTo(HaveOccurred())
		due := now.Add(72 * time.Hour)
		task, err := svc.CreateTask(ctx, alice, taskboard.CreateTaskInput{
			Name: "Write announcement", ListID: l.ID.String(), DueDate: &due,
		})
		Expect(err).NotTo(HaveOccurred())

		detail, err := svc.Project(ctx, alice, p.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(detail.Lists).To(HaveLen(1))

		list, err := svc.List(ctx, alice, l.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(list.Tasks).To(HaveLen(1))
		Expect(list.Tasks[0].ID).To(Equal(task.ID))
		Expect(list.Tasks[0].Priority).To(Equal(taskboard.PriorityMedium))
		Expect(list.Tasks[0].DueDate.Equal(due)).To(BeTrue())
	})

	It("attaches and detaches labels", func() {
		p, _ := svc.CreateProject(ctx, alice, taskboard.ProjectInput{Name: "P"})
		l, _ := svc.CreateList(ctx, alice, taskboard.CreateListInput{Name: "L", ProjectID: p.ID.String()})
		task, err := svc.CreateTask(ctx, alice, taskboard.CreateTaskInput{Name: "T", ListID: l.ID.String()})
		Expect(err).NotTo(HaveOccurred())
		label, err := svc.CreateLabel(ctx, alice, taskboard.LabelInput{Name: "urgent"})
		Expect(err).NotTo(HaveOccurred())

		in := taskboard.TaskLabelInput{TaskID: task.ID.String(), LabelID: label.ID.String()}
		_, err = svc.AddLabel(ctx, alice, in)
		Expect(err).NotTo(HaveOccurred())
		_, err = svc.AddLabel(ctx, alice, in)
		Expect(err).NotTo(HaveOccurred())

		got, err := svc.Task(ctx, alice, task.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.LabelIDs).To(Equal([]ulid.ULID{label.ID}))

		Expect(svc.DeleteLabel(ctx, alice, label.ID)).To(Succeed())
		got, err = svc.Task(ctx, alice, task.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.LabelIDs).To(BeEmpty())
	})

	It("enforces unique label names per owner", func() {
		_, err := svc.CreateLabel(ctx, alice, taskboard.LabelInput{Name: "urgent"})
		Expect(err).NotTo(HaveOccurred())

		_, err = svc.CreateLabel(ctx, alice, taskboard.LabelInput{Name: "urgent"})
		Expect(errutil.Code(err)).To(Equal(taskboard.CodeConflict))

		_, err = svc.CreateLabel(ctx, bob, taskboard.LabelInput{Name: "urgent"})
		Expect(err).NotTo(HaveOccurred())
	})

	It("cascades project deletion", func() {
		p, _ := svc.CreateProject(ctx, alice, taskboard.ProjectInput{Name: "P"})
		l, _ := svc.CreateList(ctx, alice, taskboard.CreateListInput{Name: "L", ProjectID: p.ID.String()})
		task, err := svc.CreateTask(ctx, alice, taskboard.CreateTaskInput{Name: "T", ListID: l.ID.String()})
		Expect(err).NotTo(HaveOccurred())

		Expect(svc.DeleteProject(ctx, alice, p.ID)).To(Succeed())

		_, err = svc.List(ctx, alice, l.ID)
		Expect(errutil.Code(err)).To(Equal(taskboard.CodeNotFound))
		_, err = svc.Task(ctx, alice, task.ID)
		Expect(errutil.Code(err)).To(Equal(taskboard.CodeNotFound))
	})

	It("keeps owners apart", func() {
		p, _ := svc.CreateProject(ctx, alice, taskboard.ProjectInput{Name: "P"})

		_, err := svc.Project(ctx, bob, p.ID)
		Expect(errutil.Code(err)).To(Equal(taskboard.CodeForbidden))

		projects, err := svc.Projects(ctx, bob)
		Expect(err).NotTo(HaveOccurred())
		Expect(projects).To(BeEmpty())
	})
})
