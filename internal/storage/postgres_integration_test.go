//go:build integration

package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"controle/internal/core"
	"controle/internal/store"
)

func setupPostgres(t *testing.T) *Repository {
	t.Helper()
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("controle_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	repo, err := OpenPostgres(dsn, nil)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestPostgresRepository(t *testing.T) {
	repo := setupPostgres(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, fixedExpense("u1"))
	require.NoError(t, err)

	list, err := repo.List(ctx, store.MovementQuery{OwnerID: "u1", Kind: core.KindExpense})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)

	count := 6
	updated, err := repo.Update(ctx, "u1", created.ID, core.MovementPatch{MonthCount: &count})
	require.NoError(t, err)
	assert.Equal(t, "12/2024 a 05/2025", updated.Months.Label())

	_, err = repo.CreateUser(ctx, core.User{Name: "Ana", Email: "ana@example.com", PasswordHash: "h"})
	require.NoError(t, err)
	_, err = repo.CreateUser(ctx, core.User{Name: "Ana", Email: "ana@example.com", PasswordHash: "h"})
	assert.ErrorIs(t, err, core.ErrEmailTaken)

	require.NoError(t, repo.Delete(ctx, "u1", created.ID))
}
