// Package valuetype implements the measurement value model: the
// Value-Type enumeration every trend, attribute, and threshold is typed
// with, and the fallible coercion matrix between numeric members of it.
package valuetype

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pseudomuto/minerva/pkg/merrors"
)

// DataType is one member of the Value-Type enumeration.
type DataType string

const (
	Boolean      DataType = "boolean"
	SmallInt     DataType = "smallint"
	Integer      DataType = "integer"
	BigInt       DataType = "bigint"
	Real         DataType = "real"
	Double       DataType = "double"
	Text         DataType = "text"
	TextArray    DataType = "text[]"
	Timestamp    DataType = "timestamp"
	Numeric      DataType = "numeric"
	NumericArray DataType = "numeric[]"
)

// sqlName is the literal PostgreSQL type name used in generated DDL. Only
// Timestamp and Double differ from their enum spelling: the column type is
// timestamptz/double precision, but values of that type display as
// "timestamp"/"double" to match the rest of the enumeration's naming.
var sqlName = map[DataType]string{
	Boolean:      "boolean",
	SmallInt:     "smallint",
	Integer:      "integer",
	BigInt:       "bigint",
	Real:         "real",
	Double:       "double precision",
	Text:         "text",
	TextArray:    "text[]",
	Timestamp:    "timestamptz",
	Numeric:      "numeric",
	NumericArray: "numeric[]",
}

// SQLName returns the PostgreSQL column type used in generated DDL for t.
func (t DataType) SQLName() string {
	name, ok := sqlName[t]
	if !ok {
		return string(t)
	}
	return name
}

// Valid reports whether t is a recognized member of the enumeration.
func (t DataType) Valid() bool {
	_, ok := sqlName[t]
	return ok
}

// numericFamily is the set of types that participate in the numeric
// coercion matrix. Boolean, despite appearing in the same enumeration, is
// treated as identity-only: coercing it to or from another member would
// require an arbitrary 0/1 convention the source model never specifies,
// so it is excluded.
var numericFamily = map[DataType]bool{
	SmallInt: true,
	Integer:  true,
	BigInt:   true,
	Real:     true,
	Double:   true,
	Numeric:  true,
}

// IsNumeric reports whether t participates in the numeric coercion
// matrix.
func IsNumeric(t DataType) bool {
	return numericFamily[t]
}

// Value holds one typed measurement value. Exactly one of Number, Text, or
// Array is meaningful, selected by Type. A nil Number represents the null
// value of a numeric type; arrays are represented as their PostgreSQL
// text-literal elements.
type Value struct {
	Type   DataType
	Number *float64
	Text   string
	Array  []string
}

// String renders v for display/logging.
func (v Value) String() string {
	switch {
	case v.Type == TextArray || v.Type == NumericArray:
		return "{" + strings.Join(v.Array, ",") + "}"
	case IsNumeric(v.Type):
		if v.Number == nil {
			return ""
		}
		return strconv.FormatFloat(*v.Number, 'g', -1, 64)
	default:
		return v.Text
	}
}

// ParseText parses text as a value of the given type. Parsing is total:
// for numeric types a value that doesn't parse produces the null value
// (Number == nil) rather than an error, matching the "null is
// representable" rule; text-like types always succeed since any string is
// a valid value of them.
func ParseText(t DataType, text string) (Value, error) {
	if !t.Valid() {
		return Value{}, merrors.Runtimef("unknown value type %q", t)
	}

	switch t {
	case Boolean:
		b, err := strconv.ParseBool(text)
		if err != nil {
			return Value{Type: t}, nil
		}
		n := 0.0
		if b {
			n = 1.0
		}
		return Value{Type: t, Number: &n}, nil
	case TextArray, NumericArray:
		return Value{Type: t, Array: splitArrayLiteral(text)}, nil
	case Text, Timestamp:
		return Value{Type: t, Text: text}, nil
	default:
		n, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return Value{Type: t}, nil
		}
		return Value{Type: t, Number: &n}, nil
	}
}

func splitArrayLiteral(text string) []string {
	trimmed := strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(text), "{"), "}")
	if trimmed == "" {
		return nil
	}
	parts := strings.Split(trimmed, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// bounds is the representable [min, max] range of a numeric target type,
// used to decide whether a coercion is in range or must yield null.
var bounds = map[DataType][2]float64{
	SmallInt: {math.MinInt16, math.MaxInt16},
	Integer:  {math.MinInt32, math.MaxInt32},
	BigInt:   {math.MinInt64, math.MaxInt64},
	Real:     {-math.MaxFloat32, math.MaxFloat32},
	Double:   {-math.MaxFloat64, math.MaxFloat64},
	// Numeric is arbitrary precision in PostgreSQL; treated as unbounded.
	Numeric: {math.Inf(-1), math.Inf(1)},
}

// Coerce converts v to the target type. Identical types are a no-op.
// Coercing between two numeric types is fallible: a null input stays
// null, and an out-of-range value produces null rather than an error
// (invariant: coercion totality). Any other pairing — a non-numeric
// target different from the source type, or a source/target where either
// side isn't numeric — is a runtime error.
func Coerce(v Value, target DataType) (Value, error) {
	if v.Type == target {
		return v, nil
	}

	if !IsNumeric(v.Type) || !IsNumeric(target) {
		return Value{}, merrors.Runtimef("cannot coerce %s to %s", v.Type, target)
	}

	if v.Number == nil {
		return Value{Type: target}, nil
	}

	b := bounds[target]
	if *v.Number < b[0] || *v.Number > b[1] {
		return Value{Type: target}, nil
	}

	n := *v.Number
	return Value{Type: target, Number: &n}, nil
}

// MustSQLName is a convenience for code generating DDL that already
// validated t; it panics on an unrecognized type, which should only be
// reachable from a programming error, never from user input.
func MustSQLName(t DataType) string {
	if !t.Valid() {
		panic(fmt.Sprintf("valuetype: unknown type %q", t))
	}
	return t.SQLName()
}
