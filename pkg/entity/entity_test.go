package entity_test

import (
	"testing"

	"github.com/pseudomuto/minerva/pkg/entity"
	"github.com/pseudomuto/minerva/pkg/valuetype"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestTrend_Equal(t *testing.T) {
	a := entity.Trend{Name: "power", DataType: valuetype.Double, Description: "watts"}
	b := entity.Trend{Name: "power", DataType: valuetype.Double, Description: "different description"}
	require.True(t, a.Equal(b), "Equal only compares name and data type")

	c := entity.Trend{Name: "power", DataType: valuetype.Integer}
	require.False(t, a.Equal(c))
}

func TestTrend_WithDefaults(t *testing.T) {
	trend := entity.Trend{Name: "power", DataType: valuetype.Double}
	withDefaults := trend.WithDefaults()

	require.Equal(t, entity.DefaultAggregation, withDefaults.TimeAggregation)
	require.Equal(t, entity.DefaultAggregation, withDefaults.EntityAggregation)
	require.Equal(t, "{}", withDefaults.ExtraData)

	explicit := entity.Trend{Name: "power", DataType: valuetype.Double, TimeAggregation: "MAX", EntityAggregation: "MIN", ExtraData: `{"foo":1}`}
	withDefaults = explicit.WithDefaults()
	require.Equal(t, "MAX", withDefaults.TimeAggregation)
	require.Equal(t, "MIN", withDefaults.EntityAggregation)
	require.Equal(t, `{"foo":1}`, withDefaults.ExtraData)
}

// TestTrendStorePart_Equal_OrderInsensitive exercises the order
// insensitivity property: two parts whose trends differ only in
// declaration order compare equal.
func TestTrendStorePart_Equal_OrderInsensitive(t *testing.T) {
	power := entity.Trend{Name: "power", DataType: valuetype.Double}
	voltage := entity.Trend{Name: "voltage", DataType: valuetype.Double}

	a := entity.TrendStorePart{Name: "hub_node_main_15m", Trends: []entity.Trend{power, voltage}}
	b := entity.TrendStorePart{Name: "hub_node_main_15m", Trends: []entity.Trend{voltage, power}}
	require.True(t, a.Equal(b))

	c := entity.TrendStorePart{Name: "hub_node_main_15m", Trends: []entity.Trend{power}}
	require.False(t, a.Equal(c))

	d := entity.TrendStorePart{Name: "different_name", Trends: []entity.Trend{power, voltage}}
	require.False(t, a.Equal(d))
}

func TestAttribute_Equal(t *testing.T) {
	a := entity.Attribute{Name: "serial", DataType: valuetype.Text, Description: "a"}
	b := entity.Attribute{Name: "serial", DataType: valuetype.Text, Description: "b"}
	require.True(t, a.Equal(b))

	c := entity.Attribute{Name: "serial", DataType: valuetype.Integer}
	require.False(t, a.Equal(c))
}

func TestAttributeStore_Equal_OrderInsensitive(t *testing.T) {
	serial := entity.Attribute{Name: "serial", DataType: valuetype.Text}
	model := entity.Attribute{Name: "model", DataType: valuetype.Text}

	a := entity.AttributeStore{DataSource: "hub", EntityType: "node", Attributes: []entity.Attribute{serial, model}}
	b := entity.AttributeStore{DataSource: "hub", EntityType: "node", Attributes: []entity.Attribute{model, serial}}
	require.True(t, a.Equal(b))

	c := entity.AttributeStore{DataSource: "hub", EntityType: "other", Attributes: []entity.Attribute{serial, model}}
	require.False(t, a.Equal(c))
}

func TestMaterialization_Name(t *testing.T) {
	m := entity.Materialization{TargetTrendStorePart: "hub_node_main_15m"}
	require.Equal(t, "hub_node_main_15m", m.Name())
}

func TestMaterialization_UnmarshalYAML_SetsKind(t *testing.T) {
	var view entity.Materialization
	err := yaml.Unmarshal([]byte(`
target_trend_store_part: hub_node_main_15m
view: "SELECT 1"
`), &view)
	require.NoError(t, err)
	require.Equal(t, entity.MaterializationView, view.Kind)

	var fn entity.Materialization
	err = yaml.Unmarshal([]byte(`
target_trend_store_part: hub_node_main_15m
function:
  return_type: trend_directory.fingerprint
  src: "SELECT 1"
  language: sql
`), &fn)
	require.NoError(t, err)
	require.Equal(t, entity.MaterializationFunctionKind, fn.Kind)
	require.NotNil(t, fn.Function)
}
