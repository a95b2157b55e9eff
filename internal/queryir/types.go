package queryir

import "github.com/roach88/basket/internal/ir"

// Query represents an extraction query.
//
// This is a sealed interface - only types in this package implement it.
type Query interface {
	queryNode()
}

// Predicate represents a filter condition on source rows.
//
// This is a sealed interface - only types in this package implement it.
//
// Predicate types:
//   - Equals: field = value
//   - Between: low <= field <= high (either bound may be open)
//   - AtLeast: field >= value
//   - And: all predicates must be true
type Predicate interface {
	predicateNode()
}

// Default source layout, matching the retail database the pipeline reads.
const (
	DefaultTable = "transactions"
)

// DefaultColumns is the column mapping used when none is configured.
var DefaultColumns = Columns{
	TransactionID: "transaction_id",
	Item:          "item",
	Quantity:      "quantity",
	Date:          "transaction_date",
}

// Columns names the source columns that feed each raw record field.
// Date may be empty when the source has no timestamp.
type Columns struct {
	TransactionID string
	Item          string
	Quantity      string
	Date          string
}

// Select reads one table.
//
// Semantics:
//
//	SELECT <tx>, <item>, <quantity>[, <date>] FROM <from> WHERE <filter>
//	ORDER BY <tx>, <item>
type Select struct {
	From    string    // Source table
	Columns Columns   // Column mapping
	Filter  Predicate // WHERE conditions (nil = no filter)
}

func (Select) queryNode() {}

// Equals represents a field-equals-literal predicate.
type Equals struct {
	Field string
	Value ir.Value
}

func (Equals) predicateNode() {}

// Between is an inclusive range. A nil bound leaves that side open; at
// least one bound must be set.
type Between struct {
	Field string
	Low   ir.Value
	High  ir.Value
}

func (Between) predicateNode() {}

// AtLeast represents field >= value.
type AtLeast struct {
	Field string
	Value ir.Value
}

func (AtLeast) predicateNode() {}

// And represents a conjunction. An empty And is always true.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// DateWindow returns an inclusive Between over field for the non-empty
// bounds, or nil when both are empty.
func DateWindow(field, since, until string) Predicate {
	if since == "" && until == "" {
		return nil
	}
	b := Between{Field: field}
	if since != "" {
		b.Low = ir.String(since)
	}
	if until != "" {
		b.High = ir.String(until)
	}
	return b
}

// NewSelect builds a Select over table with cols, filtering by the
// non-nil predicates. A blank table or a zero Columns falls back to the
// defaults; otherwise only blank transaction, item and quantity columns do,
// and a blank date column means the source has none.
func NewSelect(table string, cols Columns, preds ...Predicate) Select {
	if table == "" {
		table = DefaultTable
	}
	if cols == (Columns{}) {
		cols = DefaultColumns
	}
	if cols.TransactionID == "" {
		cols.TransactionID = DefaultColumns.TransactionID
	}
	if cols.Item == "" {
		cols.Item = DefaultColumns.Item
	}
	if cols.Quantity == "" {
		cols.Quantity = DefaultColumns.Quantity
	}

	var filters []Predicate
	for _, p := range preds {
		if p != nil {
			filters = append(filters, p)
		}
	}

	sel := Select{From: table, Columns: cols}
	switch len(filters) {
	case 0:
	case 1:
		sel.Filter = filters[0]
	default:
		sel.Filter = And{Predicates: filters}
	}
	return sel
}
