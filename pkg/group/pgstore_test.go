package group

import (
	"context"
	"errors"
	"os/exec"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

func TestPgStore_EnsurePersonal(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping PostgreSQL integration test in short mode")
	}
	if exec.Command("docker", "info").Run() != nil {
		t.Skip("Docker not available, skipping PostgreSQL integration tests")
	}

	ctx := context.Background()
	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("gorevlerim"),
		postgres.WithUsername("gorevlerim"),
		postgres.WithPassword("gorevlerim"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Skipf("failed to start PostgreSQL container: %v", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})
	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)

	store := NewPgStore(pool)
	if err := store.EnsureTable(ctx); err != nil {
		t.Fatalf("EnsureTable: %v", err)
	}

	if _, err := store.Personal(ctx, "u1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Personal before create: err = %v", err)
	}
	g1, err := store.EnsurePersonal(ctx, "u1", "Personal")
	if err != nil {
		t.Fatalf("EnsurePersonal: %v", err)
	}
	g2, err := store.EnsurePersonal(ctx, "u1", "Personal")
	if err != nil || g2.ID != g1.ID {
		t.Fatalf("EnsurePersonal again = %v, %v", g2, err)
	}
}
