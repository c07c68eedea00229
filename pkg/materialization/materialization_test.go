package materialization

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pseudomuto/minerva/pkg/entity"
	"github.com/stretchr/testify/require"
)

// recordingConn captures the SQL and args of the last Exec call so step
// bodies can be asserted without a real database connection.
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

func TestAddTrendMaterialization_String(t *testing.T) {
	c := &AddTrendMaterialization{Materialization: entity.Materialization{TargetTrendStorePart: "hub_node_main_15m"}}
	require.Equal(t, "AddTrendMaterialization(hub_node_main_15m)", c.String())
}

func TestUpdateTrendMaterialization_String(t *testing.T) {
	c := &UpdateTrendMaterialization{Materialization: entity.Materialization{TargetTrendStorePart: "hub_node_main_15m"}}
	require.Equal(t, "UpdateTrendMaterialization(hub_node_main_15m)", c.String())
}

func TestCreateBodyStep_ViewVariant_QuotesIdentifier(t *testing.T) {
	m := entity.Materialization{Kind: entity.MaterializationView, TargetTrendStorePart: `weird"name`, View: "SELECT 1"}
	step := createBodyStep(m)

	conn := &recordingConn{}
	_, err := step.Apply(context.Background(), conn)
	require.NoError(t, err)
	require.Equal(t, `CREATE VIEW trend."_weird""name" AS SELECT 1`, conn.lastSQL)
}

func TestCreateBodyStep_FunctionVariant_QuotesIdentifier(t *testing.T) {
	m := entity.Materialization{
		Kind:                 entity.MaterializationFunctionKind,
		TargetTrendStorePart: `weird"name`,
		Function:             &entity.MaterializationFunction{ReturnType: "trend_directory.fingerprint", Src: "SELECT 1", Language: "sql"},
	}
	step := createBodyStep(m)

	conn := &recordingConn{}
	_, err := step.Apply(context.Background(), conn)
	require.NoError(t, err)
	require.Contains(t, conn.lastSQL, `trend."weird""name"(timestamp with time zone)`)
	require.Contains(t, conn.lastSQL, "RETURNS trend_directory.fingerprint")
}

func TestDropBodyStep_ViewVariant(t *testing.T) {
	m := entity.Materialization{Kind: entity.MaterializationView, TargetTrendStorePart: "hub_node_main_15m"}
	step := dropBodyStep(m)

	conn := &recordingConn{}
	_, err := step.Apply(context.Background(), conn)
	require.NoError(t, err)
	require.Equal(t, `DROP VIEW IF EXISTS trend."_hub_node_main_15m"`, conn.lastSQL)
}

func TestDropBodyStep_FunctionVariant(t *testing.T) {
	m := entity.Materialization{Kind: entity.MaterializationFunctionKind, TargetTrendStorePart: "hub_node_main_15m"}
	step := dropBodyStep(m)

	conn := &recordingConn{}
	_, err := step.Apply(context.Background(), conn)
	require.NoError(t, err)
	require.Equal(t, `DROP FUNCTION IF EXISTS trend."hub_node_main_15m"(timestamp with time zone)`, conn.lastSQL)
}

func TestCreateFingerprintFunctionStep_QuotesIdentifier(t *testing.T) {
	step := createFingerprintFunctionStep(`weird"name`, "SELECT fingerprint FROM x")
	conn := &recordingConn{}
	_, err := step.Apply(context.Background(), conn)
	require.NoError(t, err)
	require.Contains(t, conn.lastSQL, `trend."weird""name_fingerprint"(timestamp with time zone)`)
}

func TestDropSourcesStep(t *testing.T) {
	step := dropSourcesStep("hub_node_main_15m")
	conn := &recordingConn{}
	_, err := step.Apply(context.Background(), conn)
	require.NoError(t, err)
	require.Equal(t, []any{"hub_node_main_15m"}, conn.lastArgs)
}

func TestConnectSourcesSteps_OneStepPerSource(t *testing.T) {
	sources := []entity.MaterializationSource{
		{TrendStorePart: "hub_node_raw_15m", MappingFunction: "trend.mapping(timestamp with time zone)"},
		{TrendStorePart: "hub_node_other_15m", MappingFunction: "trend.mapping2(timestamp with time zone)"},
	}
	steps := connectSourcesSteps("hub_node_main_15m", sources)
	require.Len(t, steps, 2)
	require.Equal(t, "link source hub_node_raw_15m -> hub_node_main_15m", steps[0].String())
	require.Equal(t, "link source hub_node_other_15m -> hub_node_main_15m", steps[1].String())
}

func TestCreateSteps_Order(t *testing.T) {
	m := entity.Materialization{
		Kind:                 entity.MaterializationView,
		TargetTrendStorePart: "hub_node_main_15m",
		View:                 "SELECT 1",
		Sources:              []entity.MaterializationSource{{TrendStorePart: "hub_node_raw_15m"}},
	}
	steps := createSteps(m)
	require.Len(t, steps, 4)
	require.Contains(t, steps[0].String(), "create view")
	require.Contains(t, steps[1].String(), "define materialization")
	require.Contains(t, steps[2].String(), "create fingerprint function")
	require.Contains(t, steps[3].String(), "link source")
}

func TestUpdateSteps_Order(t *testing.T) {
	m := entity.Materialization{
		Kind:                 entity.MaterializationView,
		TargetTrendStorePart: "hub_node_main_15m",
		View:                 "SELECT 1",
	}
	steps := updateSteps(m)
	require.Len(t, steps, 6)
	require.Contains(t, steps[0].String(), "drop fingerprint function")
	require.Contains(t, steps[1].String(), "drop view")
	require.Contains(t, steps[2].String(), "drop sources")
	require.Contains(t, steps[3].String(), "create view")
	require.Contains(t, steps[4].String(), "create fingerprint function")
	require.Contains(t, steps[5].String(), "update materialization attributes")
}

func TestDiff_NoChangeReturnsNil(t *testing.T) {
	m := entity.Materialization{
		TargetTrendStorePart: "hub_node_main_15m",
		Enabled:              true,
		ProcessingDelay:      "30m",
		StabilityDelay:       "5m",
		ReprocessingPeriod:   "3 days",
	}
	require.Nil(t, Diff(m, m))
}

func TestDiff_EnabledChangeReturnsUpdate(t *testing.T) {
	current := entity.Materialization{TargetTrendStorePart: "hub_node_main_15m", Enabled: true}
	desired := entity.Materialization{TargetTrendStorePart: "hub_node_main_15m", Enabled: false}

	update := Diff(current, desired)
	require.NotNil(t, update)
	require.Equal(t, desired, update.Materialization)
}

func TestViewName(t *testing.T) {
	require.Equal(t, "_hub_node_main_15m", viewName("hub_node_main_15m"))
}

func TestFingerprintFunctionName(t *testing.T) {
	require.Equal(t, "hub_node_main_15m_fingerprint", fingerprintFunctionName("hub_node_main_15m"))
}
