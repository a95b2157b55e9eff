package preprocess

import (
	"cmp"
	"fmt"
	"slices"
	"time"
)

// ItemCount is how many records mention an item.
type ItemCount struct {
	Item  string `json:"item"`
	Count int    `json:"count"`
}

// ItemPopularity counts records per item, most frequent first; ties are
// broken by item ID. top <= 0 returns every item. Records with a missing
// item are skipped.
func ItemPopularity(records []Record, top int) []ItemCount {
	counts := make(map[string]int)
	for _, rec := range records {
		if rec.Item == "" {
			continue
		}
		counts[rec.Item]++
	}

	out := make([]ItemCount, 0, len(counts))
	for item, n := range counts {
		out = append(out, ItemCount{Item: item, Count: n})
	}
	slices.SortFunc(out, func(a, b ItemCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Item, b.Item)
	})

	if top > 0 && len(out) > top {
		out = out[:top]
	}
	return out
}

// DailyTotal is the quantity sold on one calendar day.
type DailyTotal struct {
	Date     string  `json:"date"` // YYYY-MM-DD
	Quantity float64 `json:"quantity"`
}

// dateLayouts are the timestamp forms accepted in transaction_date.
var dateLayouts = []string{
	time.DateOnly,
	time.DateTime,
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006/01/02",
}

// DailyQuantity sums quantity per calendar day, in date order. Records with
// any missing field are skipped; an unparseable date is an error.
func DailyQuantity(records []Record) ([]DailyTotal, error) {
	totals := make(map[string]float64)
	for _, rec := range records {
		if rec.Missing {
			continue
		}
		day, err := ParseDay(rec.Date)
		if err != nil {
			return nil, fmt.Errorf("transaction %s: %w", rec.TransactionID, err)
		}
		totals[day] += rec.Quantity
	}

	out := make([]DailyTotal, 0, len(totals))
	for day, q := range totals {
		out = append(out, DailyTotal{Date: day, Quantity: q})
	}
	slices.SortFunc(out, func(a, b DailyTotal) int { return cmp.Compare(a.Date, b.Date) })
	return out, nil
}

// ParseDay normalises a transaction timestamp to its YYYY-MM-DD day.
func ParseDay(s string) (string, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(time.DateOnly), nil
		}
	}
	return "", fmt.Errorf("unrecognised date %q", s)
}
