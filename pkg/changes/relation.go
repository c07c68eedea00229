package changes

import (
	"context"
	"fmt"

	"github.com/pseudomuto/minerva/pkg/change"
	"github.com/pseudomuto/minerva/pkg/entity"
	"github.com/pseudomuto/minerva/pkg/merrors"
	"github.com/pseudomuto/minerva/pkg/utils"
)

// AddRelation materializes a relation as a view in the "relation" schema.
type AddRelation struct {
	Relation entity.Relation
}

func (c *AddRelation) String() string { return "AddRelation(" + c.Relation.Name + ")" }

// Apply implements change.Change.
func (c *AddRelation) Apply(ctx context.Context, pool change.Pool) (string, error) {
	sql := fmt.Sprintf(`CREATE VIEW relation.%s AS %s`, utils.QuoteIdentifier(c.Relation.Name), c.Relation.Query)
	if _, err := pool.Exec(ctx, sql); err != nil {
		return "", merrors.Database(err, "could not create relation "+c.Relation.Name)
	}
	return "Created relation " + c.Relation.Name, nil
}

// UpdateRelation replaces an existing relation view's query. The view is
// dropped and recreated rather than altered, since PostgreSQL only allows
// CREATE OR REPLACE VIEW when the new query doesn't change the output
// columns.
type UpdateRelation struct {
	Relation entity.Relation
}

func (c *UpdateRelation) String() string { return "UpdateRelation(" + c.Relation.Name + ")" }

// Apply implements change.Change.
func (c *UpdateRelation) Apply(ctx context.Context, pool change.Pool) (string, error) {
	composite := &change.CompositeChange{
		Label: c.String(),
		Steps: []change.Step{
			&change.StepFunc{
				Label: "drop relation " + c.Relation.Name,
				Run: func(ctx context.Context, conn change.Conn) (string, error) {
					sql := fmt.Sprintf(`DROP VIEW IF EXISTS relation.%s`, utils.QuoteIdentifier(c.Relation.Name))
					if _, err := conn.Exec(ctx, sql); err != nil {
						return "", merrors.Database(err, "could not drop relation "+c.Relation.Name)
					}
					return "", nil
				},
			},
			&change.StepFunc{
				Label: "create relation " + c.Relation.Name,
				Run: func(ctx context.Context, conn change.Conn) (string, error) {
					sql := fmt.Sprintf(`CREATE VIEW relation.%s AS %s`, utils.QuoteIdentifier(c.Relation.Name), c.Relation.Query)
					if _, err := conn.Exec(ctx, sql); err != nil {
						return "", merrors.Database(err, "could not create relation "+c.Relation.Name)
					}
					return "", nil
				},
			},
		},
	}
	return composite.Apply(ctx, pool)
}

// DeleteRelation drops a relation's view.
type DeleteRelation struct {
	Name string
}

func (c *DeleteRelation) String() string { return "DeleteRelation(" + c.Name + ")" }

// Apply implements change.Change.
func (c *DeleteRelation) Apply(ctx context.Context, pool change.Pool) (string, error) {
	sql := fmt.Sprintf(`DROP VIEW IF EXISTS relation.%s`, utils.QuoteIdentifier(c.Name))
	if _, err := pool.Exec(ctx, sql); err != nil {
		return "", merrors.Database(err, "could not delete relation "+c.Name)
	}
	return "Deleted relation " + c.Name, nil
}
