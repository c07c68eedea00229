package dependee_test

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pseudomuto/minerva/pkg/dependee"
	"github.com/stretchr/testify/require"
)

func TestViewDependee_Name(t *testing.T) {
	v := dependee.ViewDependee{Schema: "trend", Name_: "power_view"}
	require.Equal(t, "power_view", v.Name())
}

// recordingConn is a change.Conn stub that records the SQL it was asked
// to execute, so DropObject's quoting can be asserted without a real
// database connection.
type recordingConn struct {
	lastSQL  string
	lastArgs []any
}

func (c *recordingConn) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	c.lastSQL = sql
	c.lastArgs = args
	return pgconn.CommandTag{}, nil
}

func (c *recordingConn) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}

func (c *recordingConn) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}

func TestViewDependee_DropObject_QuotesSchemaAndName(t *testing.T) {
	conn := &recordingConn{}
	v := dependee.ViewDependee{Schema: "trend", Name_: `we"ird view`}

	msg, err := v.DropObject(context.Background(), conn)
	require.NoError(t, err)
	require.Equal(t, `Dropped view we"ird view`, msg)
	require.Equal(t, `DROP VIEW IF EXISTS "trend"."we""ird view"`, conn.lastSQL)
}

func TestDropDependee_DelegatesToDependee(t *testing.T) {
	conn := &recordingConn{}
	step := dependee.DropDependee{Dependee: dependee.ViewDependee{Schema: "trend", Name_: "power_view"}}

	require.Equal(t, "drop dependee power_view", step.String())

	msg, err := step.Apply(context.Background(), conn)
	require.NoError(t, err)
	require.Equal(t, "Dropped view power_view", msg)
	require.Equal(t, `DROP VIEW IF EXISTS "trend"."power_view"`, conn.lastSQL)
}

func TestRestorePending_ReturnsRuntimeError(t *testing.T) {
	_, err := dependee.RestorePending(context.Background(), nil, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "not implemented")
}
