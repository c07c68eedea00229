package change_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pseudomuto/minerva/pkg/change"
	"github.com/stretchr/testify/require"
)

func TestFunc(t *testing.T) {
	f := &change.Func{
		Label: "do the thing",
		Run: func(ctx context.Context, pool change.Pool) (string, error) {
			return "done", nil
		},
	}

	require.Equal(t, "do the thing", f.String())

	msg, err := f.Apply(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, "done", msg)
}

func TestStepFunc(t *testing.T) {
	s := &change.StepFunc{
		Label: "do the step",
		Run: func(ctx context.Context, conn change.Conn) (string, error) {
			return "stepped", nil
		},
	}

	require.Equal(t, "do the step", s.String())

	msg, err := s.Apply(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, "stepped", msg)
}

func TestCompositeChange_String(t *testing.T) {
	c := &change.CompositeChange{Label: "install trigger"}
	require.Equal(t, "install trigger", c.String())
}

// failingBeginPool is a change.Pool whose Begin always fails, letting us
// exercise CompositeChange.Apply's transaction-open error path without
// implementing the full pgx.Tx interface.
type failingBeginPool struct{}

func (failingBeginPool) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (failingBeginPool) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}

func (failingBeginPool) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}

func (failingBeginPool) Begin(ctx context.Context) (pgx.Tx, error) {
	return nil, errors.New("connection refused")
}

func TestCompositeChange_Apply_BeginFailure(t *testing.T) {
	c := &change.CompositeChange{
		Label: "install trigger",
		Steps: []change.Step{
			&change.StepFunc{Label: "step one", Run: func(ctx context.Context, conn change.Conn) (string, error) {
				t.Fatal("step should never run if the transaction could not be opened")
				return "", nil
			}},
		},
	}

	_, err := c.Apply(context.Background(), failingBeginPool{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "could not begin transaction")
}
