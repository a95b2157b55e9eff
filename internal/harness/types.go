package harness

import "github.com/roach88/basket/internal/ir"

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass is true when every expectation, assertion and property held.
	Pass bool `json:"pass"`

	// Errors contains validation error messages. Empty if Pass is true.
	Errors []string `json:"errors"`

	// ErrorCode is the code the run failed with, if it failed.
	ErrorCode ir.ErrorCode `json:"error_code,omitempty"`

	Transactions int                  `json:"transactions"`
	Itemsets     []ir.FrequentItemset `json:"itemsets"`
	Rules        []ir.Rule            `json:"rules"`

	// Snapshot is the canonical form of a successful run.
	Snapshot ir.Snapshot `json:"-"`

	// Digest is the run digest of Snapshot.
	Digest string `json:"digest,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:     true,
		Errors:   []string{},
		Itemsets: []ir.FrequentItemset{},
		Rules:    []ir.Rule{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
