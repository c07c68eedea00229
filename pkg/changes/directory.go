package changes

import (
	"context"

	"github.com/pseudomuto/minerva/pkg/change"
	"github.com/pseudomuto/minerva/pkg/entity"
	"github.com/pseudomuto/minerva/pkg/merrors"
)

// AddDataSource idempotently upserts a data source by name.
type AddDataSource struct {
	DataSource entity.DataSource
}

func (c *AddDataSource) String() string { return "AddDataSource(" + c.DataSource.Name + ")" }

const upsertDataSourceSQL = `
INSERT INTO directory.data_source (name, description)
VALUES ($1, $2)
ON CONFLICT (name) DO UPDATE SET description = EXCLUDED.description
RETURNING id
`

// Apply implements change.Change.
func (c *AddDataSource) Apply(ctx context.Context, pool change.Pool) (string, error) {
	var id int
	err := pool.QueryRow(ctx, upsertDataSourceSQL, c.DataSource.Name, c.DataSource.Description).Scan(&id)
	if err != nil {
		return "", merrors.Database(err, "could not add data source "+c.DataSource.Name)
	}
	return "Added data source " + c.DataSource.Name, nil
}

// AddEntityType idempotently upserts an entity type by name.
type AddEntityType struct {
	EntityType entity.EntityType
}

func (c *AddEntityType) String() string { return "AddEntityType(" + c.EntityType.Name + ")" }

const upsertEntityTypeSQL = `
INSERT INTO directory.entity_type (name, description)
VALUES ($1, $2)
ON CONFLICT (name) DO UPDATE SET description = EXCLUDED.description
RETURNING id
`

// Apply implements change.Change.
func (c *AddEntityType) Apply(ctx context.Context, pool change.Pool) (string, error) {
	var id int
	err := pool.QueryRow(ctx, upsertEntityTypeSQL, c.EntityType.Name, c.EntityType.Description).Scan(&id)
	if err != nil {
		return "", merrors.Database(err, "could not add entity type "+c.EntityType.Name)
	}
	return "Added entity type " + c.EntityType.Name, nil
}
