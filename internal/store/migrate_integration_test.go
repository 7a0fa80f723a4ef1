// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Planwell Contributors

//go:build integration

package store_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/planwell/planwell/internal/store"
	"github.com/planwell/planwell/internal/store/storetest"
)

var _ = Describe("Migrator", Ordered, func() {
	var (
		ctx      context.Context
		db       *storetest.Database
		migrator *store.Migrator
	)

	BeforeAll(func() {
		ctx = context.Background()
		var err error
		db, err = storetest.Start(ctx)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() { db.Close(ctx) })

		migrator, err = store.NewMigrator(db.URL)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() { _ = migrator.Close() })
	})

	It("starts fully migrated", func() {
		st, err := migrator.Status()
		Expect(err).NotTo(HaveOccurred())
		Expect(st.Dirty).To(BeFalse())
		Expect(st.Pending).To(BeEmpty())
		Expect(st.Name).To(Equal("000004_taskboard"))
	})

	It("steps down and back up", func() {
		Expect(migrator.Steps(-1)).To(Succeed())
		version, _, err := migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(Equal(uint(3)))

		var exists bool
		Expect(db.Pool.QueryRow(ctx, `SELECT to_regclass('public.tasks') IS NOT NULL`).Scan(&exists)).To(Succeed())
		Expect(exists).To(BeFalse())

		Expect(migrator.Steps(1)).To(Succeed())
		Expect(db.Pool.QueryRow(ctx, `SELECT to_regclass('public.tasks') IS NOT NULL`).Scan(&exists)).To(Succeed())
		Expect(exists).To(BeTrue())
	})

	It("rolls everything back and reapplies", func() {
		Expect(migrator.Down()).To(Succeed())
		version, dirty, err := migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(BeZero())
		Expect(dirty).To(BeFalse())

		Expect(migrator.Up()).To(Succeed())
		Expect(migrator.Up()).To(Succeed(), "a second Up is a no-op")
	})

	It("forces a version without running migrations", func() {
		Expect(migrator.Force(2)).To(Succeed())
		version, dirty, err := migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(Equal(uint(2)))
		Expect(dirty).To(BeFalse())
		Expect(migrator.Force(4)).To(Succeed())
	})
})
