package changes

import (
	"context"
	"fmt"

	"github.com/pseudomuto/minerva/pkg/change"
	"github.com/pseudomuto/minerva/pkg/entity"
	"github.com/pseudomuto/minerva/pkg/merrors"
)

// AddAttributeStore creates an attribute store and its declared
// attributes.
type AddAttributeStore struct {
	AttributeStore entity.AttributeStore
}

func (c *AddAttributeStore) String() string {
	return fmt.Sprintf("AddAttributeStore(%s, %s)", c.AttributeStore.DataSource, c.AttributeStore.EntityType)
}

const createAttributeStoreSQL = `
SELECT attribute_directory.create_attribute_store($1, $2)
`

// Apply creates the attribute store and then every declared attribute.
func (c *AddAttributeStore) Apply(ctx context.Context, pool change.Pool) (string, error) {
	if _, err := pool.Exec(ctx, createAttributeStoreSQL, c.AttributeStore.DataSource, c.AttributeStore.EntityType); err != nil {
		return "", merrors.Database(err, "could not create attribute store")
	}

	if len(c.AttributeStore.Attributes) > 0 {
		add := &AddAttributes{
			DataSource: c.AttributeStore.DataSource,
			EntityType: c.AttributeStore.EntityType,
			Attributes: c.AttributeStore.Attributes,
		}
		if _, err := add.Apply(ctx, pool); err != nil {
			return "", err
		}
	}

	return fmt.Sprintf("Added attribute store (%s, %s)", c.AttributeStore.DataSource, c.AttributeStore.EntityType), nil
}

// AddAttributes adds one or more attributes to an existing attribute
// store, matched by (DataSource, EntityType). There is no removal or
// retype path for attributes in the current scope.
type AddAttributes struct {
	DataSource string
	EntityType string
	Attributes []entity.Attribute
}

func (c *AddAttributes) String() string {
	return fmt.Sprintf("AddAttributes(%s, %s, %d attributes)", c.DataSource, c.EntityType, len(c.Attributes))
}

const addAttributeSQL = `
SELECT attribute_directory.create_attribute(attribute_store.id, $1, $2, $3)
FROM attribute_directory.attribute_store
JOIN directory.data_source ON attribute_store.data_source_id = data_source.id
JOIN directory.entity_type ON attribute_store.entity_type_id = entity_type.id
WHERE data_source.name = $4 AND entity_type.name = $5
`

// Apply adds every declared attribute, one server call each.
func (c *AddAttributes) Apply(ctx context.Context, pool change.Pool) (string, error) {
	for _, a := range c.Attributes {
		_, err := pool.Exec(ctx, addAttributeSQL, a.Name, a.DataType.SQLName(), a.Description, c.DataSource, c.EntityType)
		if err != nil {
			return "", merrors.Database(err, "could not add attribute "+a.Name)
		}
	}

	return fmt.Sprintf("Added %d attributes to attribute store (%s, %s)", len(c.Attributes), c.DataSource, c.EntityType), nil
}
