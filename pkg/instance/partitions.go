package instance

import (
	"context"
	"fmt"
	"time"

	"github.com/pseudomuto/minerva/pkg/change"
	"github.com/pseudomuto/minerva/pkg/merrors"
)

// DefaultPartitioningAhead is how far into the future
// CreatePartitionsForWindow creates partitions when the caller doesn't
// specify a window, matching the original tooling's default.
const DefaultPartitioningAhead = 3 * 24 * time.Hour

const missingPartitionsSQL = `
WITH partition_indexes AS (
	SELECT trend_store.id AS trend_store_id, trend_directory.timestamp_to_index(partition_size, t) AS index
	FROM trend_directory.trend_store,
		generate_series(now() - partition_size - retention_period, $1::timestamptz + partition_size, partition_size) AS t
)
SELECT partition_indexes.trend_store_id, partition_indexes.index
FROM partition_indexes
LEFT JOIN trend_directory.partition
	ON partition.trend_store_id = partition_indexes.trend_store_id AND partition.index = partition_indexes.index
WHERE partition.id IS NULL
`

const createPartitionSQL = `
SELECT trend_directory.create_partition(trend_store_part.id, $1::integer)
FROM trend_directory.trend_store_part
WHERE trend_store_id = $2
`

// CreatePartitionsForWindow creates every partition, across every trend
// store, needed to cover from "now - retention period" through "now +
// ahead". Missing partitions are found with one query per call, not one
// per trend store, then created one at a time.
func CreatePartitionsForWindow(ctx context.Context, pool change.Pool, ahead time.Duration) (int, error) {
	return createPartitionsThrough(ctx, pool, time.Now().Add(ahead))
}

// CreatePartitionsForTimestamp creates every partition, across every trend
// store, needed to cover from "now - retention period" through the explicit
// timestamp at (plus one partition size). It shares its query with
// CreatePartitionsForWindow and does not restrict creation to the single
// partition containing at.
func CreatePartitionsForTimestamp(ctx context.Context, pool change.Pool, at time.Time) (int, error) {
	return createPartitionsThrough(ctx, pool, at)
}

func createPartitionsThrough(ctx context.Context, pool change.Pool, through time.Time) (int, error) {
	rows, err := pool.Query(ctx, missingPartitionsSQL, through)
	if err != nil {
		return 0, merrors.Database(err, "could not find missing partitions")
	}

	type missing struct {
		trendStoreID int
		index        int64
	}
	var pending []missing
	for rows.Next() {
		var m missing
		if err := rows.Scan(&m.trendStoreID, &m.index); err != nil {
			rows.Close()
			return 0, merrors.Database(err, "could not scan missing partition row")
		}
		pending = append(pending, m)
	}
	closeErr := rows.Err()
	rows.Close()
	if closeErr != nil {
		return 0, merrors.Database(closeErr, "could not read missing partition rows")
	}

	for _, m := range pending {
		if _, err := pool.Exec(ctx, createPartitionSQL, m.index, m.trendStoreID); err != nil {
			return 0, merrors.Database(err, fmt.Sprintf("could not create partition %d for trend store %d", m.index, m.trendStoreID))
		}
	}

	return len(pending), nil
}
