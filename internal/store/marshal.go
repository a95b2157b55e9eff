package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"math"

	"github.com/roach88/basket/internal/ir"
)

// marshalItemset converts an itemset to canonical JSON TEXT for storage.
func marshalItemset(s ir.Itemset) (string, error) {
	data, err := ir.MarshalCanonical(ir.StringArray(s.Strings()))
	if err != nil {
		return "", fmt.Errorf("marshal itemset: %w", err)
	}
	return string(data), nil
}

// unmarshalItemset parses JSON TEXT back into an itemset.
func unmarshalItemset(data string) (ir.Itemset, error) {
	var ids []string
	if err := json.Unmarshal([]byte(data), &ids); err != nil {
		return ir.Itemset{}, fmt.Errorf("unmarshal itemset: %w", err)
	}
	items := make([]ir.Item, len(ids))
	for i, id := range ids {
		item, err := ir.NewItem(id)
		if err != nil {
			return ir.Itemset{}, fmt.Errorf("unmarshal itemset: %w", err)
		}
		items[i] = item
	}
	s, err := ir.NewItemset(items...)
	if err != nil {
		return ir.Itemset{}, fmt.Errorf("unmarshal itemset: %w", err)
	}
	return s, nil
}

// conviction is stored as NULL when infinite.
func marshalConviction(v float64) sql.NullFloat64 {
	if math.IsInf(v, 1) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func unmarshalConviction(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.Inf(1)
	}
	return v.Float64
}
