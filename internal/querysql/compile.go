package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/basket/internal/ir"
	"github.com/roach88/basket/internal/queryir"
)

// Output column aliases. Every compiled query returns exactly these columns,
// in this order (date only when the source has one).
const (
	AliasTransactionID = "transaction_id"
	AliasItem          = "item"
	AliasQuantity      = "quantity"
	AliasDate          = "transaction_date"
)

// SQLCompiler compiles QueryIR to parameterized SQL for SQLite.
//
// CRITICAL: ALL queries include ORDER BY for deterministic results.
// CRITICAL: All values are parameterized (never interpolated).
type SQLCompiler struct{}

// NewSQLCompiler creates a new SQLCompiler.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{}
}

// Compile converts a QueryIR query to parameterized SQL.
// Returns (sql, params, error) tuple.
//
// The query is validated first; identifiers are only spliced into the SQL
// after they pass queryir.Validate.
func (c *SQLCompiler) Compile(q queryir.Query) (string, []any, error) {
	if err := queryir.Validate(q); err != nil {
		return "", nil, err
	}

	switch query := q.(type) {
	case queryir.Select:
		return c.compileSelect(query)
	case *queryir.Select:
		return c.compileSelect(*query)
	default:
		return "", nil, fmt.Errorf("unsupported query type: %T", q)
	}
}

func (c *SQLCompiler) compileSelect(q queryir.Select) (string, []any, error) {
	selectClause := c.compileColumns(q.Columns)

	var whereClause string
	var params []any
	if q.Filter != nil {
		filterSQL, filterParams, err := c.compilePredicate(q.Filter)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		whereClause = " WHERE " + filterSQL
		params = filterParams
	}

	// MANDATORY: Always add ORDER BY
	orderByClause := " ORDER BY " + c.stableOrderKey(q.Columns)

	sql := fmt.Sprintf("SELECT %s FROM %s%s%s",
		selectClause,
		q.From,
		whereClause,
		orderByClause)

	return sql, params, nil
}

// compileColumns maps source columns onto the record aliases.
// Example: {TransactionID: "order_no"} → "order_no AS transaction_id".
func (c *SQLCompiler) compileColumns(cols queryir.Columns) string {
	parts := []string{
		alias(cols.TransactionID, AliasTransactionID),
		alias(cols.Item, AliasItem),
		alias(cols.Quantity, AliasQuantity),
	}
	if cols.Date != "" {
		parts = append(parts, alias(cols.Date, AliasDate))
	}
	return strings.Join(parts, ", ")
}

func alias(source, as string) string {
	if source == as {
		return source
	}
	return fmt.Sprintf("%s AS %s", source, as)
}

// stableOrderKey returns the ORDER BY clause.
// COLLATE BINARY ensures deterministic text ordering across SQLite versions.
// The trailing quantity and date keys make exact duplicate rows adjacent.
func (c *SQLCompiler) stableOrderKey(cols queryir.Columns) string {
	keys := []string{
		cols.TransactionID + " ASC",
		cols.Item + " COLLATE BINARY ASC",
		cols.Quantity + " ASC",
	}
	if cols.Date != "" {
		keys = append(keys, cols.Date+" COLLATE BINARY ASC")
	}
	return strings.Join(keys, ", ")
}

// compilePredicate compiles a queryir.Predicate to a WHERE clause fragment.
// CRITICAL: Values NEVER interpolated - always use ? placeholders.
func (c *SQLCompiler) compilePredicate(p queryir.Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case queryir.Equals:
		return compileComparison(pred.Field, "=", pred.Value)
	case *queryir.Equals:
		return compileComparison(pred.Field, "=", pred.Value)
	case queryir.AtLeast:
		return compileComparison(pred.Field, ">=", pred.Value)
	case *queryir.AtLeast:
		return compileComparison(pred.Field, ">=", pred.Value)
	case queryir.Between:
		return c.compileBetween(pred)
	case *queryir.Between:
		return c.compileBetween(*pred)
	case queryir.And:
		return c.compileAnd(pred)
	case *queryir.And:
		return c.compileAnd(*pred)
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func compileComparison(field, op string, v ir.Value) (string, []any, error) {
	param, err := valueToParam(v)
	if err != nil {
		return "", nil, fmt.Errorf("convert value for %s: %w", field, err)
	}
	return fmt.Sprintf("%s %s ?", field, op), []any{param}, nil
}

// compileBetween emits BETWEEN for a closed range and a single comparison
// for a half-open one.
func (c *SQLCompiler) compileBetween(b queryir.Between) (string, []any, error) {
	switch {
	case b.Low != nil && b.High != nil:
		low, err := valueToParam(b.Low)
		if err != nil {
			return "", nil, fmt.Errorf("convert low bound for %s: %w", b.Field, err)
		}
		high, err := valueToParam(b.High)
		if err != nil {
			return "", nil, fmt.Errorf("convert high bound for %s: %w", b.Field, err)
		}
		return fmt.Sprintf("%s BETWEEN ? AND ?", b.Field), []any{low, high}, nil
	case b.Low != nil:
		return compileComparison(b.Field, ">=", b.Low)
	case b.High != nil:
		return compileComparison(b.Field, "<=", b.High)
	default:
		return "", nil, fmt.Errorf("range on %s has no bounds", b.Field)
	}
}

func (c *SQLCompiler) compileAnd(and queryir.And) (string, []any, error) {
	if len(and.Predicates) == 0 {
		return "1 = 1", nil, nil // Always true (vacuous truth)
	}

	var sqlParts []string
	var allParams []any
	for _, pred := range and.Predicates {
		sql, params, err := c.compilePredicate(pred)
		if err != nil {
			return "", nil, err
		}
		sqlParts = append(sqlParts, "("+sql+")")
		allParams = append(allParams, params...)
	}

	return strings.Join(sqlParts, " AND "), allParams, nil
}

// valueToParam converts an ir.Value to a Go native SQL parameter.
func valueToParam(v ir.Value) (any, error) {
	switch val := v.(type) {
	case ir.String:
		return string(val), nil
	case ir.Int:
		return int64(val), nil
	case ir.Bool:
		return bool(val), nil
	case ir.Array:
		return nil, fmt.Errorf("array cannot be used as SQL parameter")
	case ir.Object:
		return nil, fmt.Errorf("object cannot be used as SQL parameter")
	default:
		return nil, fmt.Errorf("unsupported value type for SQL parameter: %T", v)
	}
}
