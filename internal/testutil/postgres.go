// Package testutil provides test helpers: deterministic random sources and a
// throwaway PostgreSQL container.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/cory-johannsen/fightsim/internal/config"
	"github.com/cory-johannsen/fightsim/internal/storage/postgres"
)

const (
	postgresImage = "postgres:16-alpine"
	postgresPort  = "5432/tcp"
	readyLog      = "database system is ready to accept connections"
)

// PostgresContainer is a disposable league database.
type PostgresContainer struct {
	// Pool is shared by every test using the container and closed on cleanup.
	Pool   *pgxpool.Pool
	Config config.DatabaseConfig
}

// StartPostgres launches a container, connects a pool and registers cleanup
// with t. Tests are skipped in -short mode.
//
// Precondition: a Docker provider must be reachable.
// Postcondition: Pool answers queries, or the test has failed.
func StartPostgres(t *testing.T) *PostgresContainer {
	t.Helper()
	if testing.Short() {
		t.Skip("postgres container skipped in -short mode")
	}
	ctx := context.Background()
	began := time.Now()

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        postgresImage,
			ExposedPorts: []string{postgresPort},
			Env: map[string]string{
				"POSTGRES_USER":     "league",
				"POSTGRES_PASSWORD": "league",
				"POSTGRES_DB":       "league",
			},
			// Postgres logs readiness twice: once for the init pass and once for the real server.
			WaitingFor: wait.ForLog(readyLog).WithOccurrence(2).WithStartupTimeout(45 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("starting %s: %v", postgresImage, err)
	}
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	host, err := c.Host(ctx)
	if err != nil {
		t.Fatalf("container host: %v", err)
	}
	port, err := c.MappedPort(ctx, postgresPort)
	if err != nil {
		t.Fatalf("container port: %v", err)
	}
	cfg := config.DatabaseConfig{
		Host:            host,
		Port:            port.Int(),
		User:            "league",
		Password:        "league",
		Name:            "league",
		SSLMode:         "disable",
		MaxConns:        4,
		MinConns:        1,
		MaxConnLifetime: time.Minute,
	}

	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		t.Fatalf("connecting: %v", err)
	}
	t.Cleanup(pool.Close)
	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("ping: %v", err)
	}
	if err := postgres.MigrateUp(cfg.DSN()); err != nil {
		t.Fatalf("migrating: %v", err)
	}
	t.Logf("postgres ready in %s", time.Since(began).Round(time.Millisecond))
	return &PostgresContainer{Pool: pool, Config: cfg}
}

// Truncate empties every table so one container can serve many subtests.
func (pc *PostgresContainer) Truncate(t *testing.T) {
	t.Helper()
	if _, err := pc.Pool.Exec(context.Background(), `TRUNCATE fighters, bouts RESTART IDENTITY`); err != nil {
		t.Fatalf("truncating tables: %v", err)
	}
}

// DSN returns the connection string for the container database.
func (pc *PostgresContainer) DSN() string { return pc.Config.DSN() }
