// Package utils provides small generic helpers shared across Minerva's
// packages: pointer-ing values, quoting SQL identifiers and literals, and
// classifying literal text.
//
// # Identifier and literal quoting (identifier.go)
//
// QuoteIdentifier and QuoteQualifiedName implement the standard
// PostgreSQL identifier-escaping rule (wrap in double quotes, double any
// embedded double-quote) used everywhere Minerva composes DDL or DML
// referencing a name that isn't already a bind parameter: trend store
// part tables, materialization views and functions, trigger types and
// functions. QuoteLiteral does the single-quote equivalent for values
// that must be inlined into generated SQL text rather than bound.
//
// # Value classification (validation.go)
//
// IsNumericValue and IsBooleanValue classify literal text as a number or
// a boolean, respectively.
package utils
