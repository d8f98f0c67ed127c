// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 authms Contributors

//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/authms/authms/internal/store"
)

var (
	suiteCtx context.Context
	pool     *pgxpool.Pool
)

func TestAccountPostgres(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Account Postgres Suite")
}

var _ = BeforeSuite(func() {
	suiteCtx = context.Background()

	container, err := tcpostgres.Run(suiteCtx,
		"postgres:18-alpine",
		tcpostgres.WithDatabase("authms"),
		tcpostgres.WithUsername("authms"),
		tcpostgres.WithPassword("authms"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	Expect(err).NotTo(HaveOccurred())
	DeferCleanup(func() {
		Expect(container.Terminate(context.Background())).To(Succeed())
	})

	connStr, err := container.ConnectionString(suiteCtx, "sslmode=disable")
	Expect(err).NotTo(HaveOccurred())

	migrator, err := store.NewMigrator(connStr)
	Expect(err).NotTo(HaveOccurred())
	Expect(migrator.Up()).To(Succeed())
	Expect(migrator.Close()).To(Succeed())

	pool, err = store.Connect(suiteCtx, connStr, store.DefaultPoolConfig())
	Expect(err).NotTo(HaveOccurred())
	DeferCleanup(pool.Close)
})
