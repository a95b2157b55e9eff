// Package queryir describes the extraction query over a retail database as
// a small, closed intermediate representation.
//
// ARCHITECTURE:
//
//	[config / CLI flags] → [Query IR] → [querysql] → parameterised SQLite SQL
//
// The IR is deliberately narrow. A query is a single Select over one table
// that maps four source columns (transaction, item, quantity, date) onto the
// raw record layout, optionally filtered by a conjunction of predicates.
//
// SEALED INTERFACES:
//
// Query and Predicate are sealed with marker methods, so backends can use
// exhaustive type switches:
//
//	switch p := pred.(type) {
//	case Equals:
//	case Between:
//	case AtLeast:
//	case And:
//	}
//
// CRITICAL PATTERNS:
//
// Values are ir.Value (string, int, bool). There are no float literals;
// dates are compared as ISO-8601 strings, which order correctly as text.
//
// Identifiers (table and column names) are checked by Validate against a
// conservative pattern. Compilers may splice identifiers into SQL only after
// validation; values are always bound as parameters.
package queryir
