//go:build integration

package postgres_test

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/marmos91/volbridge/pkg/xattrstore"
	"github.com/marmos91/volbridge/pkg/xattrstore/postgres"
	"github.com/marmos91/volbridge/pkg/xattrstore/storetest"
)

var baseConfig postgres.Config

func TestMain(m *testing.M) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       "volbridge_test",
			"POSTGRES_USER":     "volbridge_test",
			"POSTGRES_PASSWORD": "volbridge_test",
		},
		WaitingFor: wait.ForAll(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
			wait.ForListeningPort("5432/tcp"),
		),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start postgres container: %v\n", err)
		os.Exit(1)
	}

	host, err := container.Host(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		fmt.Fprintf(os.Stderr, "failed to get container host: %v\n", err)
		os.Exit(1)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		_ = container.Terminate(ctx)
		fmt.Fprintf(os.Stderr, "failed to get container port: %v\n", err)
		os.Exit(1)
	}
	p, _ := strconv.Atoi(port.Port())
	baseConfig = postgres.Config{
		Host:     host,
		Port:     p,
		Database: "volbridge_test",
		User:     "volbridge_test",
		Password: "volbridge_test",
	}

	code := m.Run()
	if err := container.Terminate(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "failed to terminate container: %v\n", err)
	}
	os.Exit(code)
}

func open(t *testing.T) *postgres.Store {
	t.Helper()
	cfg := baseConfig
	cfg.Namespace = uuid.NewString()
	s, err := postgres.Open(t.Context(), cfg, nil)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestConformance(t *testing.T) {
	storetest.RunConformanceSuite(t, func(t *testing.T) xattrstore.Store {
		return open(t)
	})
}

func TestMigrationsAreIdempotent(t *testing.T) {
	cfg := baseConfig
	cfg.ApplyDefaults()
	for range 2 {
		if err := postgres.RunMigrations(t.Context(), cfg.ConnectionString(), slog.New(slog.DiscardHandler)); err != nil {
			t.Fatalf("RunMigrations() failed: %v", err)
		}
	}
}

func TestHealthcheck(t *testing.T) {
	if err := open(t).Healthcheck(t.Context()); err != nil {
		t.Fatalf("Healthcheck() failed: %v", err)
	}
}
