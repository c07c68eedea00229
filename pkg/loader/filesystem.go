// Package loader builds entity.* values from two sources: a declarative
// filesystem tree (FromDirectory) and a live database's catalog
// (FromDatabase, in database.go). Either produces the same Instance
// shape so they can be diffed against each other.
package loader

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/pseudomuto/minerva/pkg/diff"
	"github.com/pseudomuto/minerva/pkg/entity"
	"github.com/pseudomuto/minerva/pkg/merrors"
	"gopkg.in/yaml.v3"
)

// Instance is everything FromDirectory/FromDatabase can produce: the
// reconciled collections (diff.Instance) plus the collections that are
// only ever created, never diffed (triggers, relations, virtual
// entities, entity sets).
type Instance struct {
	diff.Instance
	Triggers       []entity.Trigger
	Relations      []entity.Relation
	VirtualEntities []entity.VirtualEntity
	EntitySets     []entity.EntitySet
	DataSources    []entity.DataSource
	EntityTypes    []entity.EntityType
}

// FromDirectory loads a declarative instance tree rooted at root. Any
// file that fails to parse is skipped with its error returned in errs
// rather than aborting the whole load, matching the "log but continue"
// behavior the original filesystem loader uses for every entity kind.
func FromDirectory(root string) (Instance, []error) {
	var instance Instance
	var errs []error

	instance.DataSources, errs = appendErrs(errs, loadGlob[entity.DataSource](root, filepath.Join("directory", "data-source"), "*.yaml"))
	instance.EntityTypes, errs = appendErrs(errs, loadGlob[entity.EntityType](root, filepath.Join("directory", "entity-type"), "*.yaml"))
	instance.TrendStores, errs = appendErrs(errs, loadGlobMulti[entity.TrendStore](root, "trend", []string{"*.yaml", "*.json"}))
	instance.AttributeStores, errs = appendErrs(errs, loadGlob[entity.AttributeStore](root, "attribute", "*.yaml"))
	instance.Relations, errs = appendErrs(errs, loadGlobMulti[entity.Relation](root, "relation", []string{"*.yaml", "*.json"}))
	instance.Materializations, errs = appendErrs(errs, loadGlob[entity.Materialization](root, "materialization", "*.yaml"))
	instance.Triggers, errs = appendErrs(errs, loadGlob[entity.Trigger](root, "trigger", "*.yaml"))
	instance.EntitySets, errs = appendErrs(errs, loadGlob[entity.EntitySet](root, "entity-set", "*.yaml"))

	virtualEntities, vErrs := loadVirtualEntities(root)
	instance.VirtualEntities = virtualEntities
	errs = append(errs, vErrs...)

	return instance, errs
}

func appendErrs[T any](errs []error, values []T, newErrs []error) ([]T, []error) {
	return values, append(errs, newErrs...)
}

// loadGlob parses every file matching <root>/<dir>/<pattern> as a T.
func loadGlob[T any](root, dir, pattern string) ([]T, []error) {
	return loadGlobMulti[T](root, dir, []string{pattern})
}

// loadGlobMulti parses every file matching any of <root>/<dir>/<pattern>
// for each pattern, in order, as a T. Any other file directly in
// <root>/<dir> is reported as an unsupported definition format.
func loadGlobMulti[T any](root, dir string, patterns []string) ([]T, []error) {
	var values []T
	var errs []error

	for _, pattern := range patterns {
		matches, err := filepath.Glob(filepath.Join(root, dir, pattern))
		if err != nil {
			errs = append(errs, merrors.Configuration(err, "invalid glob pattern"))
			continue
		}

		for _, path := range matches {
			var value T
			if err := loadYAMLOrJSON(path, &value); err != nil {
				errs = append(errs, errors.Wrapf(err, "could not load %s", path))
				continue
			}
			values = append(values, value)
		}
	}

	others, _ := filepath.Glob(filepath.Join(root, dir, "*"))
	for _, path := range others {
		info, err := os.Stat(path)
		known := err != nil || info.IsDir()
		for _, pattern := range patterns {
			if ok, _ := filepath.Match(pattern, filepath.Base(path)); ok {
				known = true
			}
		}
		if !known {
			errs = append(errs, merrors.Configurationf("unsupported definition format: %s", path))
		}
	}

	return values, errs
}

func loadYAMLOrJSON(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return merrors.Configuration(err, "could not read "+path)
	}

	switch filepath.Ext(path) {
	case ".yaml", ".yml", ".json":
		// encoding/json is a strict subset of YAML 1.2 flow style, so
		// the YAML decoder handles both without a second code path.
		if err := yaml.Unmarshal(data, out); err != nil {
			return merrors.Configuration(err, "could not parse "+path)
		}
		return nil
	default:
		return merrors.Configurationf("unsupported definition format: %s", path)
	}
}

// loadVirtualEntities loads every <root>/virtual-entity/*.sql file as an
// entity.VirtualEntity named after its file stem.
func loadVirtualEntities(root string) ([]entity.VirtualEntity, []error) {
	matches, err := filepath.Glob(filepath.Join(root, "virtual-entity", "*.sql"))
	if err != nil {
		return nil, []error{merrors.Configuration(err, "invalid glob pattern")}
	}

	var entities []entity.VirtualEntity
	var errs []error

	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			errs = append(errs, errors.Wrapf(err, "could not read %s", path))
			continue
		}
		name := filepath.Base(path)
		name = name[:len(name)-len(filepath.Ext(name))]
		entities = append(entities, entity.VirtualEntity{Name: name, SQL: string(data)})
	}

	return entities, errs
}
