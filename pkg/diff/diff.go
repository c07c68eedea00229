// Package diff computes the ordered list of changes that reconcile a
// current instance toward a desired one. It is pure: no database access,
// no I/O, just comparisons over in-memory entity values.
package diff

import (
	"github.com/pseudomuto/minerva/pkg/change"
	"github.com/pseudomuto/minerva/pkg/changes"
	"github.com/pseudomuto/minerva/pkg/entity"
	"github.com/pseudomuto/minerva/pkg/interval"
	"github.com/pseudomuto/minerva/pkg/materialization"
)

// TrendStores compares current against desired trend stores, matched by
// (DataSource, EntityType, Granularity). A desired store with no current
// counterpart is added whole; a matched pair is recursed into part by
// part. Stores present only in current are never removed.
func TrendStores(current, desired []entity.TrendStore) []change.Change {
	var result []change.Change

	for _, want := range desired {
		have, found := findTrendStore(current, want)
		if !found {
			result = append(result, &changes.AddTrendStore{TrendStore: want})
			continue
		}
		result = append(result, trendStoreParts(have, want)...)
	}

	return result
}

func findTrendStore(stores []entity.TrendStore, want entity.TrendStore) (entity.TrendStore, bool) {
	for _, s := range stores {
		if s.DataSource == want.DataSource && s.EntityType == want.EntityType && s.Granularity == want.Granularity {
			return s, true
		}
	}
	return entity.TrendStore{}, false
}

// trendStoreParts diffs the parts of a matched trend store pair: a
// desired part with no current counterpart is added whole; a matched pair
// is recursed into trend by trend.
func trendStoreParts(current, desired entity.TrendStore) []change.Change {
	var result []change.Change

	// A malformed granularity on an already-loaded instance would have
	// failed earlier, at load time; by the time we're diffing, parsing
	// it again is infallible in practice, so a parse failure here is
	// ignored rather than threaded through every call site as an error
	// return: any parts added then carry a granularity of 0 seconds.
	granularitySeconds, _ := interval.Seconds(desired.Granularity)

	for _, want := range desired.Parts {
		have, found := findPart(current.Parts, want.Name)
		if !found {
			result = append(result, &changes.AddTrendStorePart{
				DataSource:         desired.DataSource,
				EntityType:         desired.EntityType,
				GranularitySeconds: granularitySeconds,
				Part:               want,
			})
			continue
		}
		result = append(result, trendsInPart(have, want)...)
	}

	return result
}

func findPart(parts []entity.TrendStorePart, name string) (entity.TrendStorePart, bool) {
	for _, p := range parts {
		if p.Name == name {
			return p, true
		}
	}
	return entity.TrendStorePart{}, false
}

// trendsInPart diffs one matched trend store part pair, emitting at most
// three changes in order: AddTrends, RemoveTrends, ModifyTrendDataTypes.
func trendsInPart(current, desired entity.TrendStorePart) []change.Change {
	var newTrends []entity.Trend
	var modified []changes.TrendDataTypeModification

	for _, want := range desired.Trends {
		have, found := findTrend(current.Trends, want.Name)
		if !found {
			newTrends = append(newTrends, want)
			continue
		}
		if have.DataType != want.DataType {
			modified = append(modified, changes.TrendDataTypeModification{
				TrendName: want.Name,
				FromType:  have.DataType,
				ToType:    want.DataType,
			})
		}
	}

	var removedTrends []string
	for _, have := range current.Trends {
		if _, found := findTrend(desired.Trends, have.Name); !found {
			removedTrends = append(removedTrends, have.Name)
		}
	}

	var result []change.Change
	if len(newTrends) > 0 {
		result = append(result, &changes.AddTrends{TrendStorePart: desired.Name, Trends: newTrends})
	}
	if len(removedTrends) > 0 {
		result = append(result, &changes.RemoveTrends{TrendStorePart: desired.Name, Trends: removedTrends})
	}
	if len(modified) > 0 {
		result = append(result, changes.ModifyTrendDataTypes(desired.Name, modified))
	}

	return result
}

func findTrend(trends []entity.Trend, name string) (entity.Trend, bool) {
	for _, t := range trends {
		if t.Name == name {
			return t, true
		}
	}
	return entity.Trend{}, false
}

// AttributeStores compares current against desired attribute stores,
// matched by (DataSource, EntityType). A desired store with no current
// counterpart is added whole; a matched pair emits at most one
// AddAttributes with every new attribute. There is no removal or retype
// path for attributes in the current scope.
func AttributeStores(current, desired []entity.AttributeStore) []change.Change {
	var result []change.Change

	for _, want := range desired {
		have, found := findAttributeStore(current, want)
		if !found {
			result = append(result, &changes.AddAttributeStore{AttributeStore: want})
			continue
		}

		var newAttributes []entity.Attribute
		for _, attr := range want.Attributes {
			if !hasAttribute(have.Attributes, attr.Name) {
				newAttributes = append(newAttributes, attr)
			}
		}
		if len(newAttributes) > 0 {
			result = append(result, &changes.AddAttributes{
				DataSource: want.DataSource,
				EntityType: want.EntityType,
				Attributes: newAttributes,
			})
		}
	}

	return result
}

func findAttributeStore(stores []entity.AttributeStore, want entity.AttributeStore) (entity.AttributeStore, bool) {
	for _, s := range stores {
		if s.DataSource == want.DataSource && s.EntityType == want.EntityType {
			return s, true
		}
	}
	return entity.AttributeStore{}, false
}

func hasAttribute(attrs []entity.Attribute, name string) bool {
	for _, a := range attrs {
		if a.Name == name {
			return true
		}
	}
	return false
}

// Materializations compares current against desired materializations,
// matched by target trend store part name. A desired materialization
// with no current counterpart is added whole; a matched pair's
// attributes (enabled, the three delays) are compared, never its body.
func Materializations(current, desired []entity.Materialization) []change.Change {
	var result []change.Change

	for _, want := range desired {
		have, found := findMaterialization(current, want.Name())
		if !found {
			result = append(result, &materialization.AddTrendMaterialization{Materialization: want})
			continue
		}
		if upd := materialization.Diff(have, want); upd != nil {
			result = append(result, upd)
		}
	}

	return result
}

func findMaterialization(list []entity.Materialization, name string) (entity.Materialization, bool) {
	for _, m := range list {
		if m.Name() == name {
			return m, true
		}
	}
	return entity.Materialization{}, false
}

// Instance is the minimal shape diff.All needs: every entity collection
// an instance holds that participates in reconciliation. Triggers,
// relations, virtual entities, and entity sets are intentionally absent:
// they have no diff defined (see the design notes on open questions) and
// are only ever created during initialization.
type Instance struct {
	TrendStores      []entity.TrendStore
	AttributeStores  []entity.AttributeStore
	Materializations []entity.Materialization
}

// All computes the full ordered change list for one instance pair:
// attribute stores, then trend stores, then materializations.
func All(current, desired Instance) []change.Change {
	var result []change.Change
	result = append(result, AttributeStores(current.AttributeStores, desired.AttributeStores)...)
	result = append(result, TrendStores(current.TrendStores, desired.TrendStores)...)
	result = append(result, Materializations(current.Materializations, desired.Materializations)...)
	return result
}
