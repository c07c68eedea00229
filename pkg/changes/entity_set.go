package changes

import (
	"context"
	"fmt"
	"strings"

	"github.com/pseudomuto/minerva/pkg/change"
	"github.com/pseudomuto/minerva/pkg/entity"
	"github.com/pseudomuto/minerva/pkg/merrors"
)

// AddEntitySet creates a new, named entity set. It fails if a set with
// the same (Owner, Name) already exists, and reports (as a runtime error)
// any entity identifiers the server-side guard could not resolve.
type AddEntitySet struct {
	EntitySet entity.EntitySet
}

func (c *AddEntitySet) String() string {
	return fmt.Sprintf("AddEntitySet(%s, %s)", c.EntitySet.Owner, c.EntitySet.Name)
}

// Apply implements change.Change.
func (c *AddEntitySet) Apply(ctx context.Context, pool change.Pool) (string, error) {
	var exists bool
	err := pool.QueryRow(ctx, "SELECT relation_directory.entity_set_exists($1, $2)", c.EntitySet.Owner, c.EntitySet.Name).Scan(&exists)
	if err != nil {
		return "", merrors.Database(err, "could not check for existing entity set")
	}
	if exists {
		return "", merrors.Databasef("entity set (%s, %s) already exists", c.EntitySet.Owner, c.EntitySet.Name)
	}

	rows, err := pool.Query(ctx,
		"SELECT missing FROM relation_directory.create_entity_set_guarded($1, $2, $3, $4, $5, $6::text[]) AS missing",
		c.EntitySet.Name, c.EntitySet.Group, c.EntitySet.EntityType, c.EntitySet.Owner, c.EntitySet.Description, c.EntitySet.Entities,
	)
	if err != nil {
		return "", merrors.Database(err, "could not create entity set "+c.EntitySet.Name)
	}
	defer rows.Close()

	missing, err := scanMissingEntities(rows)
	if err != nil {
		return "", err
	}
	if len(missing) > 0 {
		return "", merrors.Runtimef("entity set %s references entities that don't exist: %s", c.EntitySet.Name, strings.Join(missing, ", "))
	}

	return "Created entity set " + c.EntitySet.Name, nil
}

// SetEntitySetMembers replaces the full membership array of an existing
// entity set, resolved by (Owner, Name). Like AddEntitySet, it reports
// any entity identifiers the server-side guard could not resolve.
type SetEntitySetMembers struct {
	Owner    string
	Name     string
	Entities []string
}

func (c *SetEntitySetMembers) String() string {
	return fmt.Sprintf("SetEntitySetMembers(%s, %s)", c.Owner, c.Name)
}

// Apply implements change.Change.
func (c *SetEntitySetMembers) Apply(ctx context.Context, pool change.Pool) (string, error) {
	var id int
	err := pool.QueryRow(ctx, "SELECT id FROM attribute.minerva_entity_set WHERE owner = $1 AND name = $2", c.Owner, c.Name).Scan(&id)
	if err != nil {
		return "", merrors.Database(err, fmt.Sprintf("could not find entity set (%s, %s)", c.Owner, c.Name))
	}

	rows, err := pool.Query(ctx, "SELECT missing FROM relation_directory.change_set_entities_guarded($1, $2::text[]) AS missing", id, c.Entities)
	if err != nil {
		return "", merrors.Database(err, "could not change entity set membership")
	}
	defer rows.Close()

	missing, err := scanMissingEntities(rows)
	if err != nil {
		return "", err
	}
	if len(missing) > 0 {
		return "", merrors.Runtimef("entity set %s references entities that don't exist: %s", c.Name, strings.Join(missing, ", "))
	}

	return fmt.Sprintf("Changed entity set %s membership to %d entities", c.Name, len(c.Entities)), nil
}

func scanMissingEntities(rows interface {
	Next() bool
	Scan(...any) error
	Err() error
}) ([]string, error) {
	var missing []string
	for rows.Next() {
		var identifier string
		if err := rows.Scan(&identifier); err != nil {
			return nil, merrors.Database(err, "could not scan missing entity row")
		}
		missing = append(missing, identifier)
	}
	if err := rows.Err(); err != nil {
		return nil, merrors.Database(err, "could not read missing entity rows")
	}
	return missing, nil
}
