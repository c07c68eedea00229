package loader

import (
	"context"

	"github.com/pseudomuto/minerva/pkg/change"
	"github.com/pseudomuto/minerva/pkg/entity"
	"github.com/pseudomuto/minerva/pkg/interval"
	"github.com/pseudomuto/minerva/pkg/merrors"
	"github.com/pseudomuto/minerva/pkg/valuetype"
)

// FromDatabase introspects a live instance's trend stores, attribute
// stores, and trend materializations. Virtual entities, relations,
// triggers, entity sets, data sources and entity types are not read back
// and stay empty in the returned Instance.
func FromDatabase(ctx context.Context, conn change.Conn) (Instance, error) {
	var instance Instance
	var err error

	instance.AttributeStores, err = loadAttributeStores(ctx, conn)
	if err != nil {
		return Instance{}, err
	}

	instance.TrendStores, err = loadTrendStores(ctx, conn)
	if err != nil {
		return Instance{}, err
	}

	instance.Materializations, err = loadMaterializations(ctx, conn)
	if err != nil {
		return Instance{}, err
	}

	return instance, nil
}

const listTrendStoresSQL = `
SELECT trend_store.id, data_source.name, entity_type.name, granularity::text, partition_size::text, retention_period::text
FROM trend_directory.trend_store
JOIN directory.data_source ON trend_store.data_source_id = data_source.id
JOIN directory.entity_type ON trend_store.entity_type_id = entity_type.id
`

const listTrendStorePartsSQL = `
SELECT id, name FROM trend_directory.trend_store_part WHERE trend_store_id = $1
`

const listTableTrendsSQL = `
SELECT name, data_type, description, time_aggregation, entity_aggregation, extra_data
FROM trend_directory.table_trend
WHERE trend_store_part_id = $1
`

func loadTrendStores(ctx context.Context, conn change.Conn) ([]entity.TrendStore, error) {
	rows, err := conn.Query(ctx, listTrendStoresSQL)
	if err != nil {
		return nil, merrors.Database(err, "could not list trend stores")
	}
	defer rows.Close()

	type row struct {
		id              int
		dataSource      string
		entityType      string
		granularity     string
		partitionSize   string
		retentionPeriod string
	}
	var stores []row
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.id, &r.dataSource, &r.entityType, &r.granularity, &r.partitionSize, &r.retentionPeriod); err != nil {
			return nil, merrors.Database(err, "could not scan trend store row")
		}
		stores = append(stores, r)
	}
	if err := rows.Err(); err != nil {
		return nil, merrors.Database(err, "could not read trend store rows")
	}

	result := make([]entity.TrendStore, 0, len(stores))
	for _, s := range stores {
		parts, err := loadTrendStoreParts(ctx, conn, s.id)
		if err != nil {
			return nil, err
		}

		granularitySeconds, err := interval.Seconds(s.granularity)
		if err != nil {
			return nil, err
		}

		result = append(result, entity.TrendStore{
			DataSource:      s.dataSource,
			EntityType:      s.entityType,
			Granularity:     interval.FormatHuman(interval.CanonicalizeGranularitySeconds(granularitySeconds)),
			PartitionSize:   s.partitionSize,
			RetentionPeriod: s.retentionPeriod,
			Parts:           parts,
		})
	}

	return result, nil
}

func loadTrendStoreParts(ctx context.Context, conn change.Conn, trendStoreID int) ([]entity.TrendStorePart, error) {
	rows, err := conn.Query(ctx, listTrendStorePartsSQL, trendStoreID)
	if err != nil {
		return nil, merrors.Database(err, "could not list trend store parts")
	}
	defer rows.Close()

	type row struct {
		id   int
		name string
	}
	var parts []row
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.id, &r.name); err != nil {
			return nil, merrors.Database(err, "could not scan trend store part row")
		}
		parts = append(parts, r)
	}
	if err := rows.Err(); err != nil {
		return nil, merrors.Database(err, "could not read trend store part rows")
	}

	result := make([]entity.TrendStorePart, 0, len(parts))
	for _, p := range parts {
		trends, err := loadTableTrends(ctx, conn, p.id)
		if err != nil {
			return nil, err
		}
		result = append(result, entity.TrendStorePart{Name: p.name, Trends: trends})
	}

	return result, nil
}

func loadTableTrends(ctx context.Context, conn change.Conn, partID int) ([]entity.Trend, error) {
	rows, err := conn.Query(ctx, listTableTrendsSQL, partID)
	if err != nil {
		return nil, merrors.Database(err, "could not list table trends")
	}
	defer rows.Close()

	var trends []entity.Trend
	for rows.Next() {
		var t entity.Trend
		var dataType string
		if err := rows.Scan(&t.Name, &dataType, &t.Description, &t.TimeAggregation, &t.EntityAggregation, &t.ExtraData); err != nil {
			return nil, merrors.Database(err, "could not scan table trend row")
		}
		t.DataType = valuetype.DataType(dataType)
		trends = append(trends, t)
	}
	if err := rows.Err(); err != nil {
		return nil, merrors.Database(err, "could not read table trend rows")
	}

	return trends, nil
}

const listAttributeStoresSQL = `
SELECT attribute_store.id, data_source.name, entity_type.name
FROM attribute_directory.attribute_store
JOIN directory.data_source ON attribute_store.data_source_id = data_source.id
JOIN directory.entity_type ON attribute_store.entity_type_id = entity_type.id
`

const listAttributesSQL = `
SELECT name, data_type, description FROM attribute_directory.attribute WHERE attribute_store_id = $1
`

func loadAttributeStores(ctx context.Context, conn change.Conn) ([]entity.AttributeStore, error) {
	rows, err := conn.Query(ctx, listAttributeStoresSQL)
	if err != nil {
		return nil, merrors.Database(err, "could not list attribute stores")
	}
	defer rows.Close()

	type row struct {
		id         int
		dataSource string
		entityType string
	}
	var stores []row
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.id, &r.dataSource, &r.entityType); err != nil {
			return nil, merrors.Database(err, "could not scan attribute store row")
		}
		stores = append(stores, r)
	}
	if err := rows.Err(); err != nil {
		return nil, merrors.Database(err, "could not read attribute store rows")
	}

	result := make([]entity.AttributeStore, 0, len(stores))
	for _, s := range stores {
		attrRows, err := conn.Query(ctx, listAttributesSQL, s.id)
		if err != nil {
			return nil, merrors.Database(err, "could not list attributes")
		}

		var attrs []entity.Attribute
		for attrRows.Next() {
			var a entity.Attribute
			var dataType string
			if err := attrRows.Scan(&a.Name, &dataType, &a.Description); err != nil {
				attrRows.Close()
				return nil, merrors.Database(err, "could not scan attribute row")
			}
			a.DataType = valuetype.DataType(dataType)
			attrs = append(attrs, a)
		}
		attrErr := attrRows.Err()
		attrRows.Close()
		if attrErr != nil {
			return nil, merrors.Database(attrErr, "could not read attribute rows")
		}

		result = append(result, entity.AttributeStore{DataSource: s.dataSource, EntityType: s.entityType, Attributes: attrs})
	}

	return result, nil
}

const listMaterializationsSQL = `
SELECT trend_store_part.name, m.enabled, m.processing_delay::text, m.stability_delay::text, m.reprocessing_period::text, m.description::text
FROM trend_directory.materialization m
JOIN trend_directory.trend_store_part ON trend_store_part.id = m.dst_trend_store_part_id
`

func loadMaterializations(ctx context.Context, conn change.Conn) ([]entity.Materialization, error) {
	rows, err := conn.Query(ctx, listMaterializationsSQL)
	if err != nil {
		return nil, merrors.Database(err, "could not list materializations")
	}
	defer rows.Close()

	var materializations []entity.Materialization
	for rows.Next() {
		var m entity.Materialization
		if err := rows.Scan(&m.TargetTrendStorePart, &m.Enabled, &m.ProcessingDelay, &m.StabilityDelay, &m.ReprocessingPeriod, &m.Description); err != nil {
			return nil, merrors.Database(err, "could not scan materialization row")
		}
		materializations = append(materializations, m)
	}
	if err := rows.Err(); err != nil {
		return nil, merrors.Database(err, "could not read materialization rows")
	}

	return materializations, nil
}
