// Package trigger installs and removes KPI trigger rules: a composite
// type, a KPI function, a rule row, thresholds, a condition, notification
// templates, mapping functions, and trend-store links, all created in one
// transaction.
package trigger

import (
	"context"
	"fmt"
	"strings"

	"github.com/pseudomuto/minerva/pkg/change"
	"github.com/pseudomuto/minerva/pkg/entity"
	"github.com/pseudomuto/minerva/pkg/merrors"
	"github.com/pseudomuto/minerva/pkg/utils"
)

// AddTrigger installs a trigger as a single nine-step transaction.
type AddTrigger struct {
	Trigger entity.Trigger
}

func (c *AddTrigger) String() string { return "AddTrigger(" + c.Trigger.Name + ")" }

// Apply implements change.Change.
func (c *AddTrigger) Apply(ctx context.Context, pool change.Pool) (string, error) {
	composite := &change.CompositeChange{
		Label: c.String(),
		Steps: []change.Step{
			createTypeStep(c.Trigger),
			createKPIFunctionStep(c.Trigger),
			createRuleStep(c.Trigger),
			setWeightStep(c.Trigger),
			setThresholdsStep(c.Trigger),
			setConditionStep(c.Trigger),
			defineNotificationStep(c.Trigger),
			createMappingFunctionsStep(c.Trigger),
			linkTrendStoresStep(c.Trigger),
		},
	}

	if _, err := composite.Apply(ctx, pool); err != nil {
		return "", err
	}

	return "Created trigger '" + c.Trigger.Name + "'", nil
}

func createTypeStep(t entity.Trigger) change.Step {
	return &change.StepFunc{
		Label: "create kpi type",
		Run: func(ctx context.Context, conn change.Conn) (string, error) {
			columns := make([]string, len(t.KPIData))
			for i, col := range t.KPIData {
				columns[i] = fmt.Sprintf("%s %s", utils.QuoteIdentifier(col.Name), col.DataType.SQLName())
			}
			sql := fmt.Sprintf(`CREATE TYPE trigger_rule.%s AS (entity_id integer, "timestamp" timestamp with time zone, %s)`,
				utils.QuoteIdentifier(t.Name+"_kpi"), strings.Join(columns, ", "))
			if _, err := conn.Exec(ctx, sql); err != nil {
				return "", merrors.Database(err, "could not create kpi type for "+t.Name)
			}
			return "", nil
		},
	}
}

func createKPIFunctionStep(t entity.Trigger) change.Step {
	return &change.StepFunc{
		Label: "create kpi function",
		Run: func(ctx context.Context, conn change.Conn) (string, error) {
			sql := fmt.Sprintf(`CREATE FUNCTION trigger_rule.%[1]s(timestamp with time zone) RETURNS SETOF trigger_rule.%[1]s AS $trigger$%[2]s$trigger$ LANGUAGE plpgsql STABLE`,
				utils.QuoteIdentifier(t.Name+"_kpi"), t.KPIFunction)
			if _, err := conn.Exec(ctx, sql); err != nil {
				return "", merrors.Database(err, "could not create kpi function for "+t.Name)
			}
			return "", nil
		},
	}
}

func createRuleStep(t entity.Trigger) change.Step {
	return &change.StepFunc{
		Label: "create rule",
		Run: func(ctx context.Context, conn change.Conn) (string, error) {
			pairs := make([]string, len(t.Thresholds))
			for i, th := range t.Thresholds {
				pairs[i] = fmt.Sprintf("(%s,%s)", utils.QuoteLiteral(th.Name), utils.QuoteLiteral(string(th.DataType)))
			}
			sql := fmt.Sprintf(`SELECT * FROM trigger.create_rule($1, array[%s]::trigger.threshold_def[])`, strings.Join(pairs, ","))
			if _, err := conn.Exec(ctx, sql, t.Name); err != nil {
				return "", merrors.Database(err, "could not create rule "+t.Name)
			}
			return "", nil
		},
	}
}

func setWeightStep(t entity.Trigger) change.Step {
	return &change.StepFunc{
		Label: "set weight",
		Run: func(ctx context.Context, conn change.Conn) (string, error) {
			if _, err := conn.Exec(ctx, "SELECT trigger.set_weight($1::name, $2::text)", t.Name, t.Weight); err != nil {
				return "", merrors.Database(err, "could not set weight for "+t.Name)
			}
			return "", nil
		},
	}
}

func setThresholdsStep(t entity.Trigger) change.Step {
	return &change.StepFunc{
		Label: "set thresholds",
		Run: func(ctx context.Context, conn change.Conn) (string, error) {
			values := make([]string, len(t.Thresholds))
			for i, th := range t.Thresholds {
				values[i] = th.Value
			}
			sql := fmt.Sprintf(`SELECT trigger_rule.%s(%s)`, utils.QuoteIdentifier(t.Name+"_set_thresholds"), strings.Join(values, ", "))
			if _, err := conn.Exec(ctx, sql); err != nil {
				return "", merrors.Database(err, "could not set thresholds for "+t.Name)
			}
			return "", nil
		},
	}
}

func setConditionStep(t entity.Trigger) change.Step {
	return &change.StepFunc{
		Label: "set condition",
		Run: func(ctx context.Context, conn change.Conn) (string, error) {
			const sql = `SELECT trigger.set_condition(rule, $1) FROM trigger.rule WHERE name = $2`
			if _, err := conn.Exec(ctx, sql, t.Condition, t.Name); err != nil {
				return "", merrors.Database(err, "could not set condition for "+t.Name)
			}
			return "", nil
		},
	}
}

func defineNotificationStep(t entity.Trigger) change.Step {
	return &change.StepFunc{
		Label: "define notification message and data",
		Run: func(ctx context.Context, conn change.Conn) (string, error) {
			if _, err := conn.Exec(ctx, "SELECT trigger.define_notification_message($1, $2)", t.Name, t.Notification); err != nil {
				return "", merrors.Database(err, "could not define notification message for "+t.Name)
			}
			if _, err := conn.Exec(ctx, "SELECT trigger.define_notification_data($1, $2)", t.Name, t.Data); err != nil {
				return "", merrors.Database(err, "could not define notification data for "+t.Name)
			}
			return "", nil
		},
	}
}

func createMappingFunctionsStep(t entity.Trigger) change.Step {
	return &change.StepFunc{
		Label: "create mapping functions",
		Run: func(ctx context.Context, conn change.Conn) (string, error) {
			for _, mf := range t.MappingFunctions {
				sql := fmt.Sprintf(`CREATE FUNCTION trend.%s(timestamp with time zone) RETURNS SETOF timestamp with time zone AS $mapping$%s$mapping$ LANGUAGE sql STABLE`,
					utils.QuoteIdentifier(mf.Name), mf.Source)
				if _, err := conn.Exec(ctx, sql); err != nil {
					return "", merrors.Database(err, "could not create mapping function "+mf.Name)
				}
			}
			return "", nil
		},
	}
}

func linkTrendStoresStep(t entity.Trigger) change.Step {
	return &change.StepFunc{
		Label: "link trend stores",
		Run: func(ctx context.Context, conn change.Conn) (string, error) {
			const sql = `
INSERT INTO trigger.rule_trend_store_link (rule_id, trend_store_part_id, timestamp_mapping_func)
SELECT rule.id, trend_store_part.id, $1::text::regprocedure
FROM trigger.rule, trend_directory.trend_store_part
WHERE rule.name = $2 AND trend_store_part.name = $3
`
			for _, link := range t.TrendStoreLinks {
				mapping := fmt.Sprintf("trend.%s(timestamp with time zone)", utils.QuoteIdentifier(link.MappingFunction))
				if _, err := conn.Exec(ctx, sql, mapping, t.Name, link.PartName); err != nil {
					return "", merrors.Database(err, "could not link trend store "+link.PartName)
				}
			}
			return "", nil
		},
	}
}


// DeleteTrigger removes a trigger rule and everything it installed.
type DeleteTrigger struct {
	Name string
}

func (c *DeleteTrigger) String() string { return "DeleteTrigger(" + c.Name + ")" }

// Apply implements change.Change. A delete that matches no rows is a
// runtime error: the caller asked to delete something that doesn't exist.
func (c *DeleteTrigger) Apply(ctx context.Context, pool change.Pool) (string, error) {
	var deleted int
	err := pool.QueryRow(ctx, "SELECT trigger.delete_rule($1)", c.Name).Scan(&deleted)
	if err != nil {
		return "", merrors.Database(err, "could not delete trigger "+c.Name)
	}
	if deleted == 0 {
		return "", merrors.Runtimef("no such trigger: %s", c.Name)
	}
	return "Deleted trigger '" + c.Name + "'", nil
}
