package queryir

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/roach88/basket/internal/ir"
)

// identifierPattern accepts plain SQL identifiers only: no quoting, no
// whitespace, no schema qualification.
var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidationError lists every problem found in a query.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid query: " + strings.Join(e.Problems, "; ")
}

// Validate checks that a query is safe to compile: a table and the three
// required columns are named, every identifier is plain, and every
// predicate is well formed.
//
// Validate is a pure function with no side effects. It returns nil or a
// *ValidationError.
func Validate(query Query) error {
	v := &validator{}
	v.validateQuery(query)
	if len(v.problems) == 0 {
		return nil
	}
	return &ValidationError{Problems: v.problems}
}

// validator accumulates problems during traversal.
type validator struct {
	problems []string
}

func (v *validator) addProblem(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) validateQuery(q Query) {
	switch query := q.(type) {
	case Select:
		v.validateSelect(query)
	case *Select:
		if query == nil {
			v.addProblem("nil query")
			return
		}
		v.validateSelect(*query)
	case nil:
		v.addProblem("nil query")
	default:
		v.addProblem("unknown query type: %T", q)
	}
}

func (v *validator) validateSelect(sel Select) {
	v.identifier("table", sel.From, true)
	v.identifier("transaction column", sel.Columns.TransactionID, true)
	v.identifier("item column", sel.Columns.Item, true)
	v.identifier("quantity column", sel.Columns.Quantity, true)
	v.identifier("date column", sel.Columns.Date, false)

	if sel.Filter != nil {
		v.validatePredicate(sel.Filter)
	}
}

func (v *validator) identifier(what, name string, required bool) {
	if name == "" {
		if required {
			v.addProblem("%s is empty", what)
		}
		return
	}
	if !identifierPattern.MatchString(name) {
		v.addProblem("%s %q is not a plain identifier", what, name)
	}
}

func (v *validator) validatePredicate(p Predicate) {
	switch pred := p.(type) {
	case Equals:
		v.identifier("filter field", pred.Field, true)
		v.value(pred.Field, pred.Value, true)
	case *Equals:
		v.validatePredicate(*pred)
	case Between:
		v.identifier("filter field", pred.Field, true)
		if pred.Low == nil && pred.High == nil {
			v.addProblem("range on %q has no bounds", pred.Field)
		}
		v.value(pred.Field, pred.Low, false)
		v.value(pred.Field, pred.High, false)
	case *Between:
		v.validatePredicate(*pred)
	case AtLeast:
		v.identifier("filter field", pred.Field, true)
		v.value(pred.Field, pred.Value, true)
	case *AtLeast:
		v.validatePredicate(*pred)
	case And:
		for _, sub := range pred.Predicates {
			v.validatePredicate(sub)
		}
	case *And:
		v.validatePredicate(*pred)
	case nil:
		v.addProblem("nil predicate")
	default:
		v.addProblem("unknown predicate type: %T", p)
	}
}

// value accepts scalar values only. Arrays and objects have no SQL
// parameter form.
func (v *validator) value(field string, val ir.Value, required bool) {
	switch val.(type) {
	case ir.String, ir.Int, ir.Bool:
	case nil:
		if required {
			v.addProblem("filter on %q has no value", field)
		}
	default:
		v.addProblem("filter on %q compares against non-scalar %T", field, val)
	}
}
