// Package instance is the top-level façade: it loads a MinervaInstance
// from either source, computes and applies the reconciling change list,
// runs first-time initialization, and creates upcoming partitions.
package instance

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pseudomuto/minerva/pkg/change"
	"github.com/pseudomuto/minerva/pkg/changes"
	"github.com/pseudomuto/minerva/pkg/diff"
	"github.com/pseudomuto/minerva/pkg/loader"
	"github.com/pseudomuto/minerva/pkg/materialization"
	"github.com/pseudomuto/minerva/pkg/merrors"
	"github.com/pseudomuto/minerva/pkg/trigger"
)

// Instance is a fully loaded declarative or database-introspected
// instance.
type Instance struct {
	loader.Instance
}

// FromDirectory loads an instance from a declarative file tree. Parse
// errors are logged to w and skipped rather than aborting the load.
func FromDirectory(root string, w logger) Instance {
	loaded, errs := loader.FromDirectory(root)
	for _, err := range errs {
		fmt.Fprintln(w, "Error loading instance definition:", err)
	}
	return Instance{Instance: loaded}
}

// FromDatabase introspects an instance from a live database.
func FromDatabase(ctx context.Context, conn change.Conn) (Instance, error) {
	loaded, err := loader.FromDatabase(ctx, conn)
	if err != nil {
		return Instance{}, err
	}
	return Instance{Instance: loaded}, nil
}

// logger is the minimal io.Writer-shaped surface Update/Initialize print
// progress to; satisfied by os.Stdout in the CLI and by a testing buffer
// in tests.
type logger interface {
	Write(p []byte) (int, error)
}

// Diff computes the ordered change list that reconciles current toward
// desired.
func Diff(current, desired Instance) []change.Change {
	return diff.All(current.Instance.Instance, desired.Instance.Instance)
}

// Update computes and applies the diff between current and desired,
// printing each change's display and result message to w as it runs.
// After the diff is applied, every desired materialization is
// unconditionally re-run through Update (materializations have no body
// diff, per pkg/materialization's doc), with failures logged but not
// fatal.
func Update(ctx context.Context, pool change.Pool, current, desired Instance, w logger) error {
	changeList := Diff(current, desired)

	fmt.Fprintln(w, "Applying changes:")
	for _, c := range changeList {
		fmt.Fprintln(w, "*", c)

		message, err := c.Apply(ctx, pool)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, ">", message)
	}

	for _, m := range desired.Materializations {
		upd := &materialization.UpdateTrendMaterialization{Materialization: m}
		if _, err := upd.Apply(ctx, pool); err != nil {
			fmt.Fprintln(w, "Error updating trend materialization:", err)
		}
	}

	return nil
}

// Initialize creates every entity desired declares from scratch: data
// sources and entity types, attribute stores, trend stores, virtual
// entities, relations, materializations, triggers, then any custom
// post-init SQL under custom/post-init/*.sql. Each item's failure is
// logged to w and does not abort the remaining items, matching the
// original tooling's best-effort bootstrap.
func Initialize(ctx context.Context, pool change.Pool, desired Instance, instanceRoot string, w logger) {
	for _, ds := range desired.DataSources {
		apply(ctx, pool, w, &changes.AddDataSource{DataSource: ds}, "data source "+ds.Name)
	}
	for _, et := range desired.EntityTypes {
		apply(ctx, pool, w, &changes.AddEntityType{EntityType: et}, "entity type "+et.Name)
	}
	for _, as := range desired.AttributeStores {
		apply(ctx, pool, w, &changes.AddAttributeStore{AttributeStore: as}, fmt.Sprintf("attribute store (%s, %s)", as.DataSource, as.EntityType))
	}
	for _, ts := range desired.TrendStores {
		apply(ctx, pool, w, &changes.AddTrendStore{TrendStore: ts}, fmt.Sprintf("trend store (%s, %s, %s)", ts.DataSource, ts.EntityType, ts.Granularity))
	}
	for _, ve := range desired.VirtualEntities {
		if _, err := pool.Exec(ctx, ve.SQL); err != nil {
			fmt.Fprintln(w, "Error creating virtual entity:", merrors.Database(err, ve.Name))
		}
	}
	for _, r := range desired.Relations {
		apply(ctx, pool, w, &changes.AddRelation{Relation: r}, "relation "+r.Name)
	}
	for _, m := range desired.Materializations {
		add := &materialization.AddTrendMaterialization{Materialization: m}
		apply(ctx, pool, w, add, "trend materialization "+m.Name())
	}
	for _, t := range desired.Triggers {
		add := &trigger.AddTrigger{Trigger: t}
		apply(ctx, pool, w, add, "trigger "+t.Name)
	}

	if instanceRoot != "" {
		initializeCustom(ctx, pool, instanceRoot, w)
	}
}

func apply(ctx context.Context, pool change.Pool, w logger, c change.Change, label string) {
	message, err := c.Apply(ctx, pool)
	if err != nil {
		fmt.Fprintln(w, "Error creating", label+":", err)
		return
	}
	fmt.Fprintln(w, message)
}

func initializeCustom(ctx context.Context, pool change.Pool, instanceRoot string, w logger) {
	matches, err := filepath.Glob(filepath.Join(instanceRoot, "custom", "post-init", "*.sql"))
	if err != nil {
		fmt.Fprintln(w, "Error running custom post-init steps:", err)
		return
	}

	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(w, "Could not open sql file '%s': %s\n", path, err)
			continue
		}
		if _, err := pool.Exec(ctx, string(data)); err != nil {
			fmt.Fprintf(w, "Error executing sql from '%s': %s\n", path, err)
			continue
		}
		fmt.Fprintln(w, "Executed sql", path)
	}
}
