// Package pgtest manages disposable PostgreSQL containers for integration
// tests, the same way the original tooling managed disposable database
// containers for its migration tests.
package pgtest

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Options configures a Container.
type Options struct {
	// Image is the Postgres image to run (default: postgres:16-alpine).
	Image string
}

// Container manages a PostgreSQL Docker container for reconciliation
// tests: something AddTrendStore, AddRelation, and friends can run their
// Apply methods against for real.
type Container struct {
	options   Options
	container *postgres.PostgresContainer
}

// New creates a Container with default options.
func New() *Container {
	return &Container{}
}

// NewWithOptions creates a Container with custom options.
func NewWithOptions(opts Options) *Container {
	return &Container{options: opts}
}

// Start starts the container with a throwaway "minerva" database.
func (c *Container) Start(ctx context.Context) error {
	if c.container != nil {
		return errors.New("container is already running")
	}

	image := c.options.Image
	if image == "" {
		image = "postgres:16-alpine"
	}

	container, err := postgres.Run(ctx, image,
		postgres.WithDatabase("minerva"),
		postgres.WithUsername("minerva"),
		postgres.WithPassword("minerva"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return errors.Wrap(err, "failed to start postgres container")
	}

	c.container = container
	return nil
}

// Stop terminates the container.
func (c *Container) Stop(ctx context.Context) error {
	if c.container == nil {
		return nil
	}

	err := c.container.Terminate(ctx)
	c.container = nil
	if err != nil {
		return errors.Wrap(err, "failed to stop postgres container")
	}
	return nil
}

// ConnString returns a libpq connection string for the running container.
func (c *Container) ConnString(ctx context.Context) (string, error) {
	if c.container == nil {
		return "", errors.New("container is not running")
	}
	connString, err := c.container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return "", errors.Wrap(err, "failed to get connection string")
	}
	return connString, nil
}

// Pool opens a pgxpool.Pool against the running container.
func (c *Container) Pool(ctx context.Context) (*pgxpool.Pool, error) {
	connString, err := c.ConnString(ctx)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create connection pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "failed to ping postgres container")
	}
	return pool, nil
}

// IsRunning reports whether the container has been started.
func (c *Container) IsRunning() bool { return c.container != nil }
