package utils

import "strings"

// QuoteIdentifier double-quotes a single SQL identifier the way
// PostgreSQL requires: wrap it in double quotes and double any embedded
// double-quote, so the result always parses back as exactly one
// identifier regardless of what characters or reserved words it
// contains.
//
// Examples:
//   - "table"   -> `"table"`
//   - `we"ird`  -> `"we""ird"`
//   - ""        -> `""`
func QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// QuoteQualifiedName quotes each dot-separated part of a possibly
// schema-qualified name independently.
//
// Examples:
//   - "my_part"          -> `"my_part"`
//   - "trend.my_part"    -> `"trend"."my_part"`
func QuoteQualifiedName(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = QuoteIdentifier(p)
	}
	return strings.Join(parts, ".")
}

// QuoteLiteral single-quotes a SQL string literal, doubling any embedded
// single-quote. Used where a value must be inlined into generated SQL
// rather than passed as a bind parameter (a trigger's threshold name and
// data type pairs).
func QuoteLiteral(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}
