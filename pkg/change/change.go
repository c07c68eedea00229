// Package change defines the reconciliation engine's unit of work: a
// Change is anything that can be applied to a Postgres connection and
// reports back a human-readable result message.
//
// Two interfaces exist because some changes are themselves a sequence of
// steps that must run inside a single transaction: Change.Apply takes a
// Pool (so it can open its own transaction when it needs one), while
// Step.Apply takes the narrower Conn so a CompositeChange can hand each of
// its steps the transaction it opened rather than the pool itself.
package change

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pseudomuto/minerva/pkg/merrors"
)

type (
	// Conn is the minimal client-like surface a Step needs: anything that
	// can execute a statement or run a query. Both pgx.Tx and
	// *pgxpool.Pool satisfy it, so a Step doesn't need to know whether
	// it's running directly against the pool or inside someone else's
	// transaction.
	Conn interface {
		Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
		Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
		QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	}

	// Pool is a Conn that can also start a transaction. Only the
	// top-level connection pool is expected to satisfy it.
	Pool interface {
		Conn
		Begin(ctx context.Context) (pgx.Tx, error)
	}

	// Change is a top-level unit of reconciliation: a schema evolution,
	// a materialization update, a trigger install. Apply receives the
	// pool directly and is free to open its own transaction.
	Change interface {
		fmt.Stringer
		Apply(ctx context.Context, pool Pool) (string, error)
	}

	// Step is one piece of a CompositeChange. It never opens its own
	// transaction; it runs against whatever Conn the enclosing
	// CompositeChange hands it.
	Step interface {
		fmt.Stringer
		Apply(ctx context.Context, conn Conn) (string, error)
	}

	// Func adapts a plain function into a Change, for the common case of
	// a single SQL statement with a fixed display label.
	Func struct {
		Label string
		Run   func(ctx context.Context, pool Pool) (string, error)
	}

	// StepFunc adapts a plain function into a Step.
	StepFunc struct {
		Label string
		Run   func(ctx context.Context, conn Conn) (string, error)
	}

	// CompositeChange applies an ordered sequence of Steps inside a
	// single transaction, rolling back and surfacing the first error any
	// step returns. Used for changes that must apply as one
	// multi-statement transaction: retyping trend columns, installing a
	// trigger.
	CompositeChange struct {
		Label string
		Steps []Step
	}
)

func (f *Func) String() string { return f.Label }

// Apply runs the wrapped function.
func (f *Func) Apply(ctx context.Context, pool Pool) (string, error) {
	return f.Run(ctx, pool)
}

func (f *StepFunc) String() string { return f.Label }

// Apply runs the wrapped function.
func (f *StepFunc) Apply(ctx context.Context, conn Conn) (string, error) {
	return f.Run(ctx, conn)
}

func (c *CompositeChange) String() string { return c.Label }

// Apply begins a transaction, runs every step against it in order, and
// commits only if every step succeeds. On failure it rolls back and
// returns a merrors.Database error naming the failing step.
func (c *CompositeChange) Apply(ctx context.Context, pool Pool) (string, error) {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return "", merrors.Database(err, "could not begin transaction for "+c.Label)
	}

	var messages []string

	for _, step := range c.Steps {
		message, err := step.Apply(ctx, tx)
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				return "", merrors.Database(rbErr, fmt.Sprintf("rollback failed after step %q of %s failed: %s", step, c.Label, err))
			}
			return "", merrors.Database(err, fmt.Sprintf("step %q of %s failed", step, c.Label))
		}
		if message != "" {
			messages = append(messages, message)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return "", merrors.Database(err, "could not commit transaction for "+c.Label)
	}

	if len(messages) == 0 {
		return c.Label, nil
	}

	return strings.Join(messages, "; "), nil
}
