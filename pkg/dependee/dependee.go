// Package dependee analyzes and drops database objects that depend on a
// column before that column can be retyped. PostgreSQL refuses an ALTER
// COLUMN ... TYPE while a view references the column, so the step before
// any such ALTER is to find and drop those views.
package dependee

import (
	"context"
	"fmt"

	"github.com/pseudomuto/minerva/pkg/change"
	"github.com/pseudomuto/minerva/pkg/merrors"
	"github.com/pseudomuto/minerva/pkg/utils"
)

// Dependee is a database object that must be dropped before a dependent
// column can be altered.
type Dependee interface {
	// Name is the dependee's display name, used in log output.
	Name() string
	// DropObject drops the dependee and reports a result message.
	DropObject(ctx context.Context, conn change.Conn) (string, error)
}

// ViewDependee is a view that depends on a column being retyped.
type ViewDependee struct {
	Schema string
	Name_  string
}

// Name implements Dependee.
func (v ViewDependee) Name() string { return v.Name_ }

// DropObject implements Dependee.
func (v ViewDependee) DropObject(ctx context.Context, conn change.Conn) (string, error) {
	sql := fmt.Sprintf(`DROP VIEW IF EXISTS %s`, utils.QuoteQualifiedName(v.Schema+"."+v.Name_))
	if _, err := conn.Exec(ctx, sql); err != nil {
		return "", merrors.Database(err, "could not drop dependee view "+v.Name_)
	}
	return "Dropped view " + v.Name_, nil
}

// columnDependeesSQL finds every view whose stored rule depends on the
// given column of the given table. The result always reports the "trend"
// schema for each dependee regardless of the schema the column itself
// lives in — a quirk of the original catalog query, reproduced here
// faithfully since every caller in this codebase only ever retypes
// columns of tables in that schema.
const columnDependeesSQL = `
SELECT v.relname
FROM pg_namespace n
JOIN pg_class c ON c.relnamespace = n.oid
JOIN pg_depend dep ON dep.refobjid = c.oid
JOIN pg_attribute attr ON attr.attrelid = c.oid AND attr.attnum = dep.refobjsubid
JOIN pg_rewrite rwr ON dep.objid = rwr.oid
JOIN pg_class v ON v.oid = rwr.ev_class AND v.relkind = 'v'
WHERE n.nspname = $1 AND c.relname = $2 AND attr.attname = $3
`

// GetColumnDependees returns every view that depends on
// schema.tableName.columnName, in the order PostgreSQL's catalog returns
// them.
func GetColumnDependees(ctx context.Context, conn change.Conn, schema, tableName, columnName string) ([]Dependee, error) {
	rows, err := conn.Query(ctx, columnDependeesSQL, schema, tableName, columnName)
	if err != nil {
		return nil, merrors.Database(err, "could not query column dependees")
	}
	defer rows.Close()

	var dependees []Dependee
	for rows.Next() {
		var viewName string
		if err := rows.Scan(&viewName); err != nil {
			return nil, merrors.Database(err, "could not scan dependee row")
		}
		dependees = append(dependees, ViewDependee{Schema: "trend", Name_: viewName})
	}
	if err := rows.Err(); err != nil {
		return nil, merrors.Database(err, "could not read dependee rows")
	}

	return dependees, nil
}

// DropDependee adapts a Dependee into a change.Step so it can be spliced
// into a CompositeChange ahead of the ALTER TABLE it clears the way for.
type DropDependee struct {
	Dependee Dependee
}

// String implements change.Step.
func (d DropDependee) String() string {
	return "drop dependee " + d.Dependee.Name()
}

// Apply implements change.Step.
func (d DropDependee) Apply(ctx context.Context, conn change.Conn) (string, error) {
	return d.Dependee.DropObject(ctx, conn)
}

// RestorePending is a documented, deliberately unimplemented extension
// point: the original tooling identifies dependees before a retype but
// relies on a database trigger to recreate them afterward rather than
// restoring them from Go. Calling this surfaces that gap explicitly
// instead of silently doing nothing.
func RestorePending(context.Context, change.Conn, []Dependee) (string, error) {
	return "", merrors.Runtimef("dependee restoration is not implemented; dependents must be recreated by a database trigger or a manual migration step")
}
