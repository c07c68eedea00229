// Package materialization implements the create and update lifecycle for
// trend materializations: view-based and function-based variants that
// populate a target trend store part from its declared sources.
//
// The materialization body (its view or function SQL, and its
// fingerprint function) is never diffed — PostgreSQL rewrites stored view
// definitions on creation, so comparing the stored form against the
// declared form is not meaningful. Any change to the body is applied by a
// full drop-and-recreate via Update.
package materialization

import (
	"context"
	"fmt"

	"github.com/pseudomuto/minerva/pkg/change"
	"github.com/pseudomuto/minerva/pkg/entity"
	"github.com/pseudomuto/minerva/pkg/interval"
	"github.com/pseudomuto/minerva/pkg/merrors"
	"github.com/pseudomuto/minerva/pkg/utils"
)

func viewName(target string) string { return "_" + target }

func fingerprintFunctionName(target string) string { return target + "_fingerprint" }

// AddTrendMaterialization creates a materialization from scratch: its
// view or function, the define_*_materialization catalog row, its
// fingerprint function, and its source links, in that order.
type AddTrendMaterialization struct {
	Materialization entity.Materialization
}

func (c *AddTrendMaterialization) String() string {
	return "AddTrendMaterialization(" + c.Materialization.Name() + ")"
}

// Apply implements change.Change by running createSteps inside a single
// transaction.
func (c *AddTrendMaterialization) Apply(ctx context.Context, pool change.Pool) (string, error) {
	composite := &change.CompositeChange{
		Label: c.String(),
		Steps: createSteps(c.Materialization),
	}
	return composite.Apply(ctx, pool)
}

// UpdateTrendMaterialization rebuilds a materialization's body and
// reconciles its attributes, source links included.
type UpdateTrendMaterialization struct {
	Materialization entity.Materialization
}

func (c *UpdateTrendMaterialization) String() string {
	return "UpdateTrendMaterialization(" + c.Materialization.Name() + ")"
}

// Apply implements change.Change by running updateSteps inside a single
// transaction.
func (c *UpdateTrendMaterialization) Apply(ctx context.Context, pool change.Pool) (string, error) {
	composite := &change.CompositeChange{
		Label: c.String(),
		Steps: updateSteps(c.Materialization),
	}
	return composite.Apply(ctx, pool)
}

func createSteps(m entity.Materialization) []change.Step {
	target := m.TargetTrendStorePart

	steps := []change.Step{
		createBodyStep(m),
		defineMaterializationStep(m),
		createFingerprintFunctionStep(target, m.FingerprintFunction),
	}
	steps = append(steps, connectSourcesSteps(target, m.Sources)...)
	return steps
}

func updateSteps(m entity.Materialization) []change.Step {
	target := m.TargetTrendStorePart

	steps := []change.Step{
		dropFingerprintFunctionStep(target),
		dropBodyStep(m),
		dropSourcesStep(target),
	}
	steps = append(steps, connectSourcesSteps(target, m.Sources)...)
	steps = append(steps, createBodyStep(m), createFingerprintFunctionStep(target, m.FingerprintFunction))
	steps = append(steps, updateAttributesStep(m))
	return steps
}

func createBodyStep(m entity.Materialization) change.Step {
	target := m.TargetTrendStorePart

	if m.Kind == entity.MaterializationFunctionKind {
		return &change.StepFunc{
			Label: "create function " + target,
			Run: func(ctx context.Context, conn change.Conn) (string, error) {
				sql := fmt.Sprintf(`CREATE FUNCTION trend.%s(timestamp with time zone) RETURNS %s AS $materialization$%s$materialization$ LANGUAGE %s`,
					utils.QuoteIdentifier(target), m.Function.ReturnType, m.Function.Src, m.Function.Language)
				if _, err := conn.Exec(ctx, sql); err != nil {
					return "", merrors.Database(err, "could not create materialization function "+target)
				}
				return "", nil
			},
		}
	}

	return &change.StepFunc{
		Label: "create view " + viewName(target),
		Run: func(ctx context.Context, conn change.Conn) (string, error) {
			sql := fmt.Sprintf(`CREATE VIEW trend.%s AS %s`, utils.QuoteIdentifier(viewName(target)), m.View)
			if _, err := conn.Exec(ctx, sql); err != nil {
				return "", merrors.Database(err, "could not create materialization view "+viewName(target))
			}
			return "", nil
		},
	}
}

func dropBodyStep(m entity.Materialization) change.Step {
	target := m.TargetTrendStorePart

	if m.Kind == entity.MaterializationFunctionKind {
		return &change.StepFunc{
			Label: "drop function " + target,
			Run: func(ctx context.Context, conn change.Conn) (string, error) {
				sql := fmt.Sprintf(`DROP FUNCTION IF EXISTS trend.%s(timestamp with time zone)`, utils.QuoteIdentifier(target))
				if _, err := conn.Exec(ctx, sql); err != nil {
					return "", merrors.Database(err, "could not drop materialization function "+target)
				}
				return "", nil
			},
		}
	}

	return &change.StepFunc{
		Label: "drop view " + viewName(target),
		Run: func(ctx context.Context, conn change.Conn) (string, error) {
			sql := fmt.Sprintf(`DROP VIEW IF EXISTS trend.%s`, utils.QuoteIdentifier(viewName(target)))
			if _, err := conn.Exec(ctx, sql); err != nil {
				return "", merrors.Database(err, "could not drop materialization view "+viewName(target))
			}
			return "", nil
		},
	}
}

func defineMaterializationStep(m entity.Materialization) change.Step {
	target := m.TargetTrendStorePart

	return &change.StepFunc{
		Label: "define materialization " + target,
		Run: func(ctx context.Context, conn change.Conn) (string, error) {
			processingDelay, err := interval.Seconds(m.ProcessingDelay)
			if err != nil {
				return "", err
			}
			stabilityDelay, err := interval.Seconds(m.StabilityDelay)
			if err != nil {
				return "", err
			}
			reprocessingPeriod, err := interval.Seconds(m.ReprocessingPeriod)
			if err != nil {
				return "", err
			}

			var sql string
			var handle string
			if m.Kind == entity.MaterializationFunctionKind {
				sql = `SELECT trend_directory.define_function_materialization(id, $1::text::interval, $2::text::interval, $3::text::interval, $4::regprocedure, $5::jsonb) FROM trend_directory.trend_store_part WHERE name = $6`
				handle = fmt.Sprintf("trend.%s(timestamp with time zone)", utils.QuoteIdentifier(target))
			} else {
				sql = `SELECT trend_directory.define_view_materialization(id, $1::text::interval, $2::text::interval, $3::text::interval, $4::regclass, $5::jsonb) FROM trend_directory.trend_store_part WHERE name = $6`
				handle = fmt.Sprintf("trend.%s", utils.QuoteIdentifier(viewName(target)))
			}

			_, err = conn.Exec(ctx, sql,
				interval.FormatSQL(processingDelay), interval.FormatSQL(stabilityDelay), interval.FormatSQL(reprocessingPeriod),
				handle, m.Description, target,
			)
			if err != nil {
				return "", merrors.Database(err, "could not define materialization "+target)
			}
			return "", nil
		},
	}
}

func createFingerprintFunctionStep(target, body string) change.Step {
	return &change.StepFunc{
		Label: "create fingerprint function " + fingerprintFunctionName(target),
		Run: func(ctx context.Context, conn change.Conn) (string, error) {
			sql := fmt.Sprintf(`CREATE FUNCTION trend.%s(timestamp with time zone) RETURNS trend_directory.fingerprint AS $fingerprint$%s$fingerprint$ LANGUAGE sql STABLE`,
				utils.QuoteIdentifier(fingerprintFunctionName(target)), body)
			if _, err := conn.Exec(ctx, sql); err != nil {
				return "", merrors.Database(err, "could not create fingerprint function for "+target)
			}
			return "", nil
		},
	}
}

func dropFingerprintFunctionStep(target string) change.Step {
	return &change.StepFunc{
		Label: "drop fingerprint function " + fingerprintFunctionName(target),
		Run: func(ctx context.Context, conn change.Conn) (string, error) {
			sql := fmt.Sprintf(`DROP FUNCTION IF EXISTS trend.%s(timestamp with time zone)`, utils.QuoteIdentifier(fingerprintFunctionName(target)))
			if _, err := conn.Exec(ctx, sql); err != nil {
				return "", merrors.Database(err, "could not drop fingerprint function for "+target)
			}
			return "", nil
		},
	}
}

func connectSourcesSteps(target string, sources []entity.MaterializationSource) []change.Step {
	steps := make([]change.Step, len(sources))
	for i, src := range sources {
		src := src
		steps[i] = &change.StepFunc{
			Label: "link source " + src.TrendStorePart + " -> " + target,
			Run: func(ctx context.Context, conn change.Conn) (string, error) {
				const sql = `
INSERT INTO trend_directory.materialization_trend_store_link (materialization_id, trend_store_part_id, timestamp_mapping_func)
SELECT materialization.id, trend_store_part.id, $1::text::regprocedure
FROM trend_directory.materialization, trend_directory.trend_store_part
WHERE materialization::text = $2 AND trend_store_part.name = $3
`
				_, err := conn.Exec(ctx, sql, src.MappingFunction, target, src.TrendStorePart)
				if err != nil {
					return "", merrors.Database(err, "could not link source "+src.TrendStorePart)
				}
				return "", nil
			},
		}
	}
	return steps
}

func dropSourcesStep(target string) change.Step {
	return &change.StepFunc{
		Label: "drop sources of " + target,
		Run: func(ctx context.Context, conn change.Conn) (string, error) {
			const sql = `
DELETE FROM trend_directory.materialization_trend_store_link
USING trend_directory.materialization
WHERE materialization_trend_store_link.materialization_id = materialization.id AND materialization::text = $1
`
			if _, err := conn.Exec(ctx, sql, target); err != nil {
				return "", merrors.Database(err, "could not drop sources of "+target)
			}
			return "", nil
		},
	}
}

func updateAttributesStep(m entity.Materialization) change.Step {
	target := m.TargetTrendStorePart

	return &change.StepFunc{
		Label: "update materialization attributes " + target,
		Run: func(ctx context.Context, conn change.Conn) (string, error) {
			processingDelay, err := interval.Seconds(m.ProcessingDelay)
			if err != nil {
				return "", err
			}
			stabilityDelay, err := interval.Seconds(m.StabilityDelay)
			if err != nil {
				return "", err
			}
			reprocessingPeriod, err := interval.Seconds(m.ReprocessingPeriod)
			if err != nil {
				return "", err
			}

			const sql = `
UPDATE trend_directory.materialization
SET processing_delay = $1::interval, stability_delay = $2::interval, reprocessing_period = $3::interval, enabled = $4, description = $5::jsonb
WHERE materialization::text = $6
`
			_, err = conn.Exec(ctx, sql,
				interval.FormatSQL(processingDelay), interval.FormatSQL(stabilityDelay), interval.FormatSQL(reprocessingPeriod),
				m.Enabled, m.Description, target,
			)
			if err != nil {
				return "", merrors.Database(err, "could not update materialization attributes for "+target)
			}
			return fmt.Sprintf("Updated trend materialization '%s'", target), nil
		},
	}
}

// Diff compares the attribute fields of two materializations sharing the
// same target (Enabled, ProcessingDelay, StabilityDelay,
// ReprocessingPeriod). The body is intentionally excluded, per the
// package doc. A nil result means no change is needed.
func Diff(current, desired entity.Materialization) *UpdateTrendMaterialization {
	if current.Enabled == desired.Enabled &&
		current.ProcessingDelay == desired.ProcessingDelay &&
		current.StabilityDelay == desired.StabilityDelay &&
		current.ReprocessingPeriod == desired.ReprocessingPeriod {
		return nil
	}
	return &UpdateTrendMaterialization{Materialization: desired}
}
