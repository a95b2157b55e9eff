// Package preprocess turns raw transaction rows into the binary
// transaction-item matrix the miner consumes.
//
// The steps mirror the retail pipeline: read the extracted rows, drop exact
// duplicates, drop rows with a missing field, then pivot (transaction, item)
// quantities into present/absent cells. It also computes the exploratory
// summaries (item popularity, daily totals) reported by `basket stats`.
package preprocess

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Column names of the raw transaction CSV.
const (
	ColTransactionID = "transaction_id"
	ColItem          = "item"
	ColQuantity      = "quantity"
	ColDate          = "transaction_date"
)

// Header is the column order WriteRecordsCSV emits.
var Header = []string{ColTransactionID, ColItem, ColQuantity, ColDate}

// Record is one extracted transaction line.
//
// Missing is set when any field was NULL or blank at the source. The other
// fields then hold their zero value for the absent parts.
type Record struct {
	TransactionID string  `json:"transaction_id"`
	Item          string  `json:"item"`
	Quantity      float64 `json:"quantity"`
	Date          string  `json:"transaction_date"`
	Missing       bool    `json:"missing,omitempty"`
}

// key identifies a record for exact-duplicate detection.
func (r Record) key() string {
	return strings.Join([]string{
		r.TransactionID,
		r.Item,
		strconv.FormatFloat(r.Quantity, 'g', -1, 64),
		r.Date,
		strconv.FormatBool(r.Missing),
	}, "\x00")
}

// ParseError reports a malformed line in a CSV input.
type ParseError struct {
	Line    int
	Column  string
	Message string
}

func (e *ParseError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return fmt.Sprintf("line %d: column %s: %s", e.Line, e.Column, e.Message)
}

// ReadRecordsCSV reads raw transaction rows.
//
// Columns are located by header name (case-insensitive); transaction_id,
// item and quantity are required, transaction_date is optional. Blank cells
// mark the record Missing. A quantity that is present but not a number is a
// ParseError.
func ReadRecordsCSV(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, &ParseError{Line: 1, Message: "missing header"}
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{ColTransactionID, ColItem, ColQuantity} {
		if _, ok := cols[required]; !ok {
			return nil, &ParseError{Line: 1, Column: required, Message: "required column not in header"}
		}
	}
	dateCol, hasDate := cols[ColDate]

	records := []Record{}
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read records: %w", err)
		}
		line, _ := cr.FieldPos(0)

		rec := Record{
			TransactionID: strings.TrimSpace(row[cols[ColTransactionID]]),
			Item:          strings.TrimSpace(row[cols[ColItem]]),
		}
		rec.Missing = rec.TransactionID == "" || rec.Item == ""

		qty := strings.TrimSpace(row[cols[ColQuantity]])
		if qty == "" {
			rec.Missing = true
		} else {
			rec.Quantity, err = strconv.ParseFloat(qty, 64)
			if err != nil {
				return nil, &ParseError{Line: line, Column: ColQuantity, Message: fmt.Sprintf("not a number: %q", qty)}
			}
		}

		if hasDate {
			rec.Date = strings.TrimSpace(row[dateCol])
			if rec.Date == "" {
				rec.Missing = true
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

// WriteRecordsCSV writes records under Header. Missing parts are written
// as blank cells, so a round trip keeps them missing.
func WriteRecordsCSV(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, rec := range records {
		qty := strconv.FormatFloat(rec.Quantity, 'f', -1, 64)
		if rec.Missing && rec.Quantity == 0 {
			qty = ""
		}
		if err := cw.Write([]string{rec.TransactionID, rec.Item, qty, rec.Date}); err != nil {
			return fmt.Errorf("write record %s/%s: %w", rec.TransactionID, rec.Item, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
