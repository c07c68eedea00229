// Package changes implements the concrete schema-evolution operations the
// diff engine emits and that callers invoke directly during
// initialization: creating trend stores, attribute stores, and entity
// sets, and evolving a trend store part's columns.
package changes

import (
	"context"
	"fmt"
	"strings"

	"github.com/pseudomuto/minerva/pkg/change"
	"github.com/pseudomuto/minerva/pkg/dependee"
	"github.com/pseudomuto/minerva/pkg/entity"
	"github.com/pseudomuto/minerva/pkg/interval"
	"github.com/pseudomuto/minerva/pkg/merrors"
	"github.com/pseudomuto/minerva/pkg/utils"
	"github.com/pseudomuto/minerva/pkg/valuetype"
)

// AddTrendStore creates a trend store and every part it declares.
type AddTrendStore struct {
	TrendStore entity.TrendStore
}

func (c *AddTrendStore) String() string {
	return fmt.Sprintf("AddTrendStore(%s, %s, %s)", c.TrendStore.DataSource, c.TrendStore.EntityType, c.TrendStore.Granularity)
}

const createTrendStoreSQL = `
SELECT id FROM trend_directory.create_trend_store($1, $2, $3::text::interval, $4::text::interval, ARRAY[]::trend_directory.trend_store_part_descr[])
`

// Apply creates the trend store with no parts, then applies one
// AddTrendStorePart per declared part. Splitting part creation out this
// way avoids hand-encoding a trend_store_part_descr[] composite array
// literal while producing the same end state.
func (c *AddTrendStore) Apply(ctx context.Context, pool change.Pool) (string, error) {
	granularitySeconds, err := interval.Seconds(c.TrendStore.Granularity)
	if err != nil {
		return "", err
	}
	granularitySeconds = interval.CanonicalizeGranularitySeconds(granularitySeconds)

	partitionSeconds, err := interval.Seconds(c.TrendStore.PartitionSize)
	if err != nil {
		return "", err
	}

	var id int
	err = pool.QueryRow(ctx, createTrendStoreSQL,
		c.TrendStore.DataSource, c.TrendStore.EntityType,
		interval.FormatSQL(granularitySeconds), interval.FormatSQL(partitionSeconds),
	).Scan(&id)
	if err != nil {
		return "", merrors.Database(err, "could not create trend store")
	}

	for _, part := range c.TrendStore.Parts {
		step := &AddTrendStorePart{
			DataSource:         c.TrendStore.DataSource,
			EntityType:         c.TrendStore.EntityType,
			GranularitySeconds: granularitySeconds,
			Part:               part,
		}
		if _, err := step.Apply(ctx, pool); err != nil {
			return "", err
		}
	}

	return fmt.Sprintf("Added trend store (%s, %s, %s)", c.TrendStore.DataSource, c.TrendStore.EntityType, c.TrendStore.Granularity), nil
}

// AddTrendStorePart creates one part inside an existing trend store,
// resolved by (DataSource, EntityType, GranularitySeconds), then adds its
// declared trends.
type AddTrendStorePart struct {
	DataSource         string
	EntityType         string
	GranularitySeconds int64
	Part               entity.TrendStorePart
}

func (c *AddTrendStorePart) String() string {
	return fmt.Sprintf("AddTrendStorePart(%s)", c.Part.Name)
}

const createTrendStorePartSQL = `
SELECT trend_directory.create_trend_store_part(trend_store.id, $1)
FROM trend_directory.trend_store
JOIN directory.data_source ON trend_store.data_source_id = data_source.id
JOIN directory.entity_type ON trend_store.entity_type_id = entity_type.id
WHERE data_source.name = $2 AND entity_type.name = $3 AND granularity = $4::integer * interval '1 sec'
`

// Apply creates the part and then every trend declared on it.
func (c *AddTrendStorePart) Apply(ctx context.Context, pool change.Pool) (string, error) {
	granularitySeconds := interval.CanonicalizeGranularitySeconds(c.GranularitySeconds)

	if _, err := pool.Exec(ctx, createTrendStorePartSQL, c.Part.Name, c.DataSource, c.EntityType, granularitySeconds); err != nil {
		return "", merrors.Database(err, "could not create trend store part "+c.Part.Name)
	}

	if len(c.Part.Trends) > 0 {
		add := &AddTrends{TrendStorePart: c.Part.Name, Trends: c.Part.Trends}
		if _, err := add.Apply(ctx, pool); err != nil {
			return "", err
		}
	}

	return "Added trend store part '" + c.Part.Name + "'", nil
}

// AddTrends adds one or more trends to an existing trend store part.
type AddTrends struct {
	TrendStorePart string
	Trends         []entity.Trend
}

func (c *AddTrends) String() string {
	names := make([]string, len(c.Trends))
	for i, t := range c.Trends {
		names[i] = t.Name
	}
	return fmt.Sprintf("AddTrends(%s, [%s])", c.TrendStorePart, strings.Join(names, ", "))
}

const addTrendSQL = `
SELECT trend_directory.add_table_trend(tsp.id, $1, $2, $3, $4, $5, $6::jsonb)
FROM trend_directory.trend_store_part tsp
WHERE tsp.name = $7
`

// Apply adds every declared trend, one server call each, matching the
// per-trend granularity the original tooling's server functions expose.
func (c *AddTrends) Apply(ctx context.Context, pool change.Pool) (string, error) {
	for _, t := range c.Trends {
		t = t.WithDefaults()
		_, err := pool.Exec(ctx, addTrendSQL,
			t.Name, t.DataType.SQLName(), t.Description, t.TimeAggregation, t.EntityAggregation, t.ExtraData,
			c.TrendStorePart,
		)
		if err != nil {
			return "", merrors.Database(err, "could not add trend "+t.Name+" to "+c.TrendStorePart)
		}
	}

	return fmt.Sprintf("Added %d trends to trend store part '%s'", len(c.Trends), c.TrendStorePart), nil
}

// RemoveTrends removes one or more trends from an existing trend store
// part.
type RemoveTrends struct {
	TrendStorePart string
	Trends         []string
}

func (c *RemoveTrends) String() string {
	return fmt.Sprintf("RemoveTrends(%s, [%s])", c.TrendStorePart, strings.Join(c.Trends, ", "))
}

const removeTrendSQL = `
SELECT trend_directory.remove_table_trend(table_trend)
FROM trend_directory.table_trend
JOIN trend_directory.trend_store_part ON trend_store_part.id = table_trend.trend_store_part_id
WHERE trend_store_part.name = $1 AND table_trend.name = $2
`

// Apply removes every named trend, one server call each.
func (c *RemoveTrends) Apply(ctx context.Context, pool change.Pool) (string, error) {
	for _, name := range c.Trends {
		if _, err := pool.Exec(ctx, removeTrendSQL, c.TrendStorePart, name); err != nil {
			return "", merrors.Database(err, "could not remove trend "+name+" from "+c.TrendStorePart)
		}
	}

	return fmt.Sprintf("Removed %d trends from trend store part '%s'", len(c.Trends), c.TrendStorePart), nil
}

// TrendDataTypeModification is one trend whose data type differs between
// the current and desired trend store parts.
type TrendDataTypeModification struct {
	TrendName string
	FromType  valuetype.DataType
	ToType    valuetype.DataType
}

// ModifyTrendDataTypes retypes one or more columns of a trend store
// part's backing table inside a single transaction: session timeouts are
// relaxed, the catalog rows are updated, dependent views are dropped, and
// finally one ALTER TABLE statement retypes every column at once.
func ModifyTrendDataTypes(trendStorePart string, modifications []TrendDataTypeModification) *change.CompositeChange {
	names := make([]string, len(modifications))
	for i, m := range modifications {
		names[i] = m.TrendName
	}
	label := fmt.Sprintf("ModifyTrendDataTypes(%s, [%s])", trendStorePart, strings.Join(names, ", "))

	steps := []change.Step{
		&change.StepFunc{
			Label: "relax statement_timeout",
			Run: func(ctx context.Context, conn change.Conn) (string, error) {
				_, err := conn.Exec(ctx, "SET LOCAL statement_timeout = 0")
				return "", wrapSessionErr(err, "statement_timeout")
			},
		},
		&change.StepFunc{
			Label: "relax lock_timeout",
			Run: func(ctx context.Context, conn change.Conn) (string, error) {
				_, err := conn.Exec(ctx, "SET LOCAL lock_timeout = '10min'")
				return "", wrapSessionErr(err, "lock_timeout")
			},
		},
	}

	for _, m := range modifications {
		m := m
		steps = append(steps, &change.StepFunc{
			Label: "update catalog data type for " + m.TrendName,
			Run: func(ctx context.Context, conn change.Conn) (string, error) {
				const sql = `
UPDATE trend_directory.table_trend tt
SET data_type = $1
FROM trend_directory.trend_store_part tsp
WHERE tsp.id = tt.trend_store_part_id AND tsp.name = $2 AND tt.name = $3
`
				_, err := conn.Exec(ctx, sql, m.ToType.SQLName(), trendStorePart, m.TrendName)
				if err != nil {
					return "", merrors.Database(err, "could not update catalog data type for "+m.TrendName)
				}
				return "", nil
			},
		})

		steps = append(steps, &change.StepFunc{
			Label: "drop dependees of " + m.TrendName,
			Run: func(ctx context.Context, conn change.Conn) (string, error) {
				dependees, err := dependee.GetColumnDependees(ctx, conn, "trend", trendStorePart, m.TrendName)
				if err != nil {
					return "", err
				}
				for _, d := range dependees {
					if _, err := (dependee.DropDependee{Dependee: d}).Apply(ctx, conn); err != nil {
						return "", err
					}
				}
				return "", nil
			},
		})
	}

	steps = append(steps, &change.StepFunc{
		Label: "alter table " + trendStorePart,
		Run: func(ctx context.Context, conn change.Conn) (string, error) {
			clauses := make([]string, len(modifications))
			for i, m := range modifications {
				clauses[i] = fmt.Sprintf(`ALTER COLUMN %s TYPE %s USING CAST(%s AS %s)`,
					utils.QuoteIdentifier(m.TrendName), m.ToType.SQLName(), utils.QuoteIdentifier(m.TrendName), m.ToType.SQLName())
			}
			sql := fmt.Sprintf(`ALTER TABLE trend.%s %s`, utils.QuoteIdentifier(trendStorePart), strings.Join(clauses, ", "))

			if _, err := conn.Exec(ctx, sql); err != nil {
				return "", merrors.Database(err, "could not alter trend store part "+trendStorePart)
			}

			return fmt.Sprintf("Altered trend data types for trend store part '%s'", trendStorePart), nil
		},
	})

	return &change.CompositeChange{Label: label, Steps: steps}
}

func wrapSessionErr(err error, setting string) error {
	if err == nil {
		return nil
	}
	return merrors.Database(err, "could not set session "+setting)
}
