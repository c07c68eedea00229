// Package pgclient wraps a pooled Postgres connection, resolved from
// environment variables the same way the original Minerva tooling
// resolves its connection.
package pgclient

import (
	"context"
	"fmt"
	"os"
	"os/user"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pseudomuto/minerva/pkg/merrors"
)

// Client wraps a pgxpool.Pool and satisfies change.Pool (Exec, Query,
// QueryRow, Begin), so every change in pkg/changes, pkg/materialization,
// and pkg/trigger can be handed either the pool directly or one of its
// transactions.
type Client struct {
	pool *pgxpool.Pool
}

// Connect resolves connection settings from the environment and opens a
// pool. MINERVA_DB_CONN, if set, is used verbatim as a libpq connection
// string; otherwise the PGHOST/PGPORT/PGUSER/PGDATABASE/PGPASSWORD/
// PGSSLMODE fallback chain is used, mirroring the original tooling.
func Connect(ctx context.Context) (*Client, error) {
	connString, err := resolveConnString()
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, merrors.Database(err, "could not create connection pool")
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, merrors.Database(err, "could not connect to database")
	}

	return &Client{pool: pool}, nil
}

// Close releases the pool's connections.
func (c *Client) Close() {
	c.pool.Close()
}

// Exec implements change.Conn.
func (c *Client) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return c.pool.Exec(ctx, sql, args...)
}

// Query implements change.Conn.
func (c *Client) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return c.pool.Query(ctx, sql, args...)
}

// QueryRow implements change.Conn.
func (c *Client) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return c.pool.QueryRow(ctx, sql, args...)
}

// Begin implements change.Pool.
func (c *Client) Begin(ctx context.Context) (pgx.Tx, error) {
	return c.pool.Begin(ctx)
}

var validSSLModes = map[string]bool{
	"disable": true,
	"prefer":  true,
	"require": true,
}

// resolveConnString implements the original tooling's env-var fallback
// chain: MINERVA_DB_CONN verbatim if set, else built from
// PGHOST/PGPORT/PGUSER/PGDATABASE/PGPASSWORD/PGSSLMODE with the same
// defaults and SSL mode validation.
func resolveConnString() (string, error) {
	if conn := os.Getenv("MINERVA_DB_CONN"); conn != "" {
		return conn, nil
	}

	host := envOr("PGHOST", "/var/run/postgresql")
	port := envOr("PGPORT", "5432")
	username := envOr("PGUSER", defaultUsername())
	database := envOr("PGDATABASE", "postgres")
	sslMode := envOr("PGSSLMODE", "prefer")

	if !validSSLModes[sslMode] {
		return "", merrors.Configurationf("unsupported PGSSLMODE: %s", sslMode)
	}

	connString := fmt.Sprintf("host=%s port=%s user=%s dbname=%s sslmode=%s", host, port, username, database, sslMode)

	if password := os.Getenv("PGPASSWORD"); password != "" {
		connString += " password=" + password
	}

	return connString, nil
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func defaultUsername() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return "postgres"
}
