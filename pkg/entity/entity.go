// Package entity defines Minerva's declarative data model: the entities a
// MinervaInstance is built from, loaded either from a filesystem tree or
// by introspecting a live database. Entities are plain data — they are
// never mutated in place; change happens only through pkg/changes and
// pkg/diff.
package entity

import (
	"time"

	"github.com/pseudomuto/minerva/pkg/compare"
	"github.com/pseudomuto/minerva/pkg/valuetype"
	"gopkg.in/yaml.v3"
)

// DataSource is a named origin of measurements.
type DataSource struct {
	ID          int    `yaml:"-"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// EntityType is a named category of entities.
type EntityType struct {
	ID          int    `yaml:"-"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// Trend is a time-indexed measurement column within a TrendStorePart.
// Identity is (containing part, Name).
type Trend struct {
	Name             string            `yaml:"name"`
	DataType         valuetype.DataType `yaml:"data_type"`
	Description      string            `yaml:"description"`
	TimeAggregation  string            `yaml:"time_aggregation"`
	EntityAggregation string           `yaml:"entity_aggregation"`
	ExtraData        string            `yaml:"extra_data"`
}

// DefaultAggregation is applied to a Trend whose aggregation fields were
// left unset by its declaration.
const DefaultAggregation = "SUM"

// WithDefaults returns a copy of t with TimeAggregation/EntityAggregation
// defaulted to DefaultAggregation and ExtraData defaulted to "{}", the
// same defaults the declarative loader applies.
func (t Trend) WithDefaults() Trend {
	if t.TimeAggregation == "" {
		t.TimeAggregation = DefaultAggregation
	}
	if t.EntityAggregation == "" {
		t.EntityAggregation = DefaultAggregation
	}
	if t.ExtraData == "" {
		t.ExtraData = "{}"
	}
	return t
}

// Equal reports whether t and other have the same name and data type —
// the only fields schema-evolution diffing compares.
func (t Trend) Equal(other Trend) bool {
	return t.Name == other.Name && t.DataType == other.DataType
}

// GeneratedTrend is a computed column over other trends in the same part.
type GeneratedTrend struct {
	Name        string             `yaml:"name"`
	DataType    valuetype.DataType `yaml:"data_type"`
	Description string             `yaml:"description"`
	Expression  string             `yaml:"expression"`
}

// TrendStorePart is a physical table grouping trends written together.
// Name is globally unique across an instance.
type TrendStorePart struct {
	Name            string           `yaml:"name"`
	Trends          []Trend          `yaml:"trends"`
	GeneratedTrends []GeneratedTrend `yaml:"generated_trends"`
}

// Equal reports whether p and other declare the same name and the same
// set of trends, independent of declaration order — two parts whose
// trends differ only in order compare equal (testable property: order
// insensitivity of trend declarations).
func (p TrendStorePart) Equal(other TrendStorePart) bool {
	return p.Name == other.Name &&
		compare.SlicesUnordered(p.Trends, other.Trends, Trend.Equal)
}

// TrendStore is a logical container of parts. Identity is
// (DataSource, EntityType, Granularity).
type TrendStore struct {
	DataSource      string           `yaml:"data_source"`
	EntityType      string           `yaml:"entity_type"`
	Granularity     string           `yaml:"granularity"`
	PartitionSize   string           `yaml:"partition_size"`
	RetentionPeriod string           `yaml:"retention_period"`
	Parts           []TrendStorePart `yaml:"parts"`
}

// Attribute is a named, typed column of an AttributeStore.
type Attribute struct {
	Name        string             `yaml:"name"`
	DataType    valuetype.DataType `yaml:"data_type"`
	Description string             `yaml:"description"`
}

// Equal reports whether a and other have the same name and data type,
// the only fields attribute-store diffing compares.
func (a Attribute) Equal(other Attribute) bool {
	return a.Name == other.Name && a.DataType == other.DataType
}

// AttributeStore groups attributes collected for one (DataSource,
// EntityType) pair. Identity is (DataSource, EntityType).
type AttributeStore struct {
	DataSource string      `yaml:"data_source"`
	EntityType string      `yaml:"entity_type"`
	Attributes []Attribute `yaml:"attributes"`
}

// Equal reports whether s and other declare the same (DataSource,
// EntityType) and the same set of attributes, independent of order.
func (s AttributeStore) Equal(other AttributeStore) bool {
	return s.DataSource == other.DataSource && s.EntityType == other.EntityType &&
		compare.SlicesUnordered(s.Attributes, other.Attributes, Attribute.Equal)
}

// NotificationStore is identified by its DataSource alone.
type NotificationStore struct {
	DataSource string      `yaml:"data_source"`
	Attributes []Attribute `yaml:"attributes"`
}

// MaterializationSource links one materialization to a source trend
// store part via a mapping function.
type MaterializationSource struct {
	TrendStorePart string `yaml:"source"`
	MappingFunction string `yaml:"mapping_function"`
}

// MaterializationFunction is the function-based materialization variant's
// extra payload.
type MaterializationFunction struct {
	ReturnType string `yaml:"return_type"`
	Src        string `yaml:"src"`
	Language   string `yaml:"language"`
}

// Materialization is the tagged view-based/function-based variant
// described in the data model. Exactly one of View or Function is set,
// selected by Kind. Identity is TargetTrendStorePart.
type Materialization struct {
	Kind                 MaterializationKind
	TargetTrendStorePart string                  `yaml:"target_trend_store_part"`
	Enabled              bool                    `yaml:"enabled"`
	ProcessingDelay      string                  `yaml:"processing_delay"`
	StabilityDelay       string                  `yaml:"stability_delay"`
	ReprocessingPeriod   string                  `yaml:"reprocessing_period"`
	Sources              []MaterializationSource `yaml:"sources"`
	FingerprintFunction  string                  `yaml:"fingerprint_function"`
	Description          string                  `yaml:"description"`
	View                 string                  `yaml:"view,omitempty"`
	Function             *MaterializationFunction `yaml:"function,omitempty"`
}

// MaterializationKind distinguishes the two Materialization variants.
type MaterializationKind string

const (
	MaterializationView     MaterializationKind = "view"
	MaterializationFunctionKind MaterializationKind = "function"
)

// Name returns the materialization's identity for diff matching.
func (m Materialization) Name() string { return m.TargetTrendStorePart }

// UnmarshalYAML decodes a Materialization and sets Kind from whichever of
// View/Function the declaration supplied, since the file format itself
// carries no explicit tag (the presence of one key or the other is the
// tag).
func (m *Materialization) UnmarshalYAML(value *yaml.Node) error {
	type plain Materialization
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	*m = Materialization(p)
	if m.Function != nil {
		m.Kind = MaterializationFunctionKind
	} else {
		m.Kind = MaterializationView
	}
	return nil
}

// KPIDataColumn is one column of a trigger's KPI composite type.
type KPIDataColumn struct {
	Name     string             `yaml:"name"`
	DataType valuetype.DataType `yaml:"data_type"`
}

// Threshold is one named, typed, valued trigger threshold.
type Threshold struct {
	Name     string             `yaml:"name"`
	DataType valuetype.DataType `yaml:"data_type"`
	Value    string             `yaml:"value"`
}

// TrendStoreLink associates a trigger with a source trend store part
// through a timestamp-mapping function.
type TrendStoreLink struct {
	PartName        string `yaml:"part_name"`
	MappingFunction string `yaml:"mapping_function"`
}

// MappingFunction is a named SQL function body installed alongside a
// trigger, used by its TrendStoreLinks.
type MappingFunction struct {
	Name   string `yaml:"name"`
	Source string `yaml:"source"`
}

// Trigger is a full KPI rule installation.
type Trigger struct {
	Name              string            `yaml:"name"`
	KPIData           []KPIDataColumn   `yaml:"kpi_data"`
	KPIFunction       string            `yaml:"kpi_function"`
	Thresholds        []Threshold       `yaml:"thresholds"`
	Condition         string            `yaml:"condition"`
	Weight            string            `yaml:"weight"`
	Notification      string            `yaml:"notification"`
	Data              string            `yaml:"data"`
	Tags              []string          `yaml:"tags"`
	Fingerprint       string            `yaml:"fingerprint"`
	NotificationStore string            `yaml:"notification_store"`
	TrendStoreLinks   []TrendStoreLink  `yaml:"trend_store_links"`
	MappingFunctions  []MappingFunction `yaml:"mapping_functions"`
	Granularity       string            `yaml:"granularity"`
}

// Relation materializes as a view in the "relation" schema.
type Relation struct {
	Name  string `yaml:"name"`
	Query string `yaml:"query"`
}

// VirtualEntity is an arbitrary DDL blob registered by file name.
type VirtualEntity struct {
	Name string
	SQL  string
}

// EntitySet is a named, owned group of entity identifiers. Identity is
// (Owner, Name).
type EntitySet struct {
	Name        string    `yaml:"name"`
	Group       string    `yaml:"group"`
	EntityType  string    `yaml:"entity_type"`
	Owner       string    `yaml:"owner"`
	Description string    `yaml:"description"`
	Entities    []string  `yaml:"entities"`
	Created     time.Time `yaml:"-"`
	Modified    time.Time `yaml:"-"`
}
