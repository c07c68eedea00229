package valuetype_test

import (
	"testing"

	"github.com/pseudomuto/minerva/pkg/valuetype"
	"github.com/stretchr/testify/require"
)

func TestDataType_SQLName(t *testing.T) {
	tests := []struct {
		name     string
		input    valuetype.DataType
		expected string
	}{
		{name: "smallint", input: valuetype.SmallInt, expected: "smallint"},
		{name: "integer", input: valuetype.Integer, expected: "integer"},
		{name: "double maps to double precision", input: valuetype.Double, expected: "double precision"},
		{name: "timestamp maps to timestamptz", input: valuetype.Timestamp, expected: "timestamptz"},
		{name: "text array", input: valuetype.TextArray, expected: "text[]"},
		{name: "unknown type falls back to its own spelling", input: valuetype.DataType("unknown"), expected: "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, tt.input.SQLName())
		})
	}
}

func TestDataType_Valid(t *testing.T) {
	require.True(t, valuetype.Integer.Valid())
	require.False(t, valuetype.DataType("nonsense").Valid())
}

func TestParseText_NumericTotality(t *testing.T) {
	tests := []struct {
		name       string
		dataType   valuetype.DataType
		text       string
		expectNull bool
	}{
		{name: "valid integer", dataType: valuetype.Integer, text: "42", expectNull: false},
		{name: "garbage text parses to null, not error", dataType: valuetype.Integer, text: "not a number", expectNull: true},
		{name: "empty string parses to null", dataType: valuetype.Double, text: "", expectNull: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := valuetype.ParseText(tt.dataType, tt.text)
			require.NoError(t, err)
			require.Equal(t, tt.expectNull, v.Number == nil)
		})
	}
}

func TestParseText_Boolean(t *testing.T) {
	v, err := valuetype.ParseText(valuetype.Boolean, "true")
	require.NoError(t, err)
	require.NotNil(t, v.Number)
	require.Equal(t, 1.0, *v.Number)

	v, err = valuetype.ParseText(valuetype.Boolean, "false")
	require.NoError(t, err)
	require.NotNil(t, v.Number)
	require.Equal(t, 0.0, *v.Number)

	v, err = valuetype.ParseText(valuetype.Boolean, "not a bool")
	require.NoError(t, err)
	require.Nil(t, v.Number)
}

func TestParseText_UnknownType(t *testing.T) {
	_, err := valuetype.ParseText(valuetype.DataType("nonsense"), "1")
	require.Error(t, err)
}

func TestParseText_Array(t *testing.T) {
	v, err := valuetype.ParseText(valuetype.TextArray, "{a,b,c}")
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c"}, v.Array)

	v, err = valuetype.ParseText(valuetype.TextArray, "{}")
	require.NoError(t, err)
	require.Nil(t, v.Array)
}

// TestCoerce_Totality exercises the coercion-totality property: across
// every pair of numeric types, Coerce never returns an error —
// it returns null for out-of-range or already-null input instead.
func TestCoerce_Totality(t *testing.T) {
	numericTypes := []valuetype.DataType{
		valuetype.SmallInt, valuetype.Integer, valuetype.BigInt, valuetype.Real, valuetype.Double, valuetype.Numeric,
	}

	for _, from := range numericTypes {
		for _, to := range numericTypes {
			v, _ := valuetype.ParseText(from, "42")
			_, err := valuetype.Coerce(v, to)
			require.NoError(t, err, "Coerce(%s, %s) should never error", from, to)
		}
	}
}

func TestCoerce_OutOfRangeYieldsNull(t *testing.T) {
	big := 100000.0
	v := valuetype.Value{Type: valuetype.Integer, Number: &big}

	coerced, err := valuetype.Coerce(v, valuetype.SmallInt)
	require.NoError(t, err)
	require.Nil(t, coerced.Number)
	require.Equal(t, valuetype.SmallInt, coerced.Type)
}

func TestCoerce_NullStaysNull(t *testing.T) {
	v := valuetype.Value{Type: valuetype.Integer}
	coerced, err := valuetype.Coerce(v, valuetype.BigInt)
	require.NoError(t, err)
	require.Nil(t, coerced.Number)
}

func TestCoerce_InRangeSucceeds(t *testing.T) {
	n := 42.0
	v := valuetype.Value{Type: valuetype.SmallInt, Number: &n}

	coerced, err := valuetype.Coerce(v, valuetype.BigInt)
	require.NoError(t, err)
	require.NotNil(t, coerced.Number)
	require.Equal(t, 42.0, *coerced.Number)
}

func TestCoerce_IdenticalTypeIsNoOp(t *testing.T) {
	n := 42.0
	v := valuetype.Value{Type: valuetype.Integer, Number: &n}
	coerced, err := valuetype.Coerce(v, valuetype.Integer)
	require.NoError(t, err)
	require.Equal(t, v, coerced)
}

func TestCoerce_NonNumericIsError(t *testing.T) {
	v := valuetype.Value{Type: valuetype.Text, Text: "hello"}
	_, err := valuetype.Coerce(v, valuetype.Integer)
	require.Error(t, err)

	v = valuetype.Value{Type: valuetype.Integer}
	n := 1.0
	v.Number = &n
	_, err = valuetype.Coerce(v, valuetype.Text)
	require.Error(t, err)
}

func TestValue_String(t *testing.T) {
	n := 3.5
	v := valuetype.Value{Type: valuetype.Double, Number: &n}
	require.Equal(t, "3.5", v.String())

	v = valuetype.Value{Type: valuetype.Integer}
	require.Equal(t, "", v.String())

	v = valuetype.Value{Type: valuetype.Text, Text: "hello"}
	require.Equal(t, "hello", v.String())

	v = valuetype.Value{Type: valuetype.TextArray, Array: []string{"a", "b"}}
	require.Equal(t, "{a,b}", v.String())
}

func TestMustSQLName_PanicsOnUnknown(t *testing.T) {
	require.Panics(t, func() {
		valuetype.MustSQLName(valuetype.DataType("nonsense"))
	})
}
