package preprocess

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/roach88/basket/internal/ir"
	"github.com/roach88/basket/internal/matrix"
)

// WriteMatrixCSV writes m with a transaction_id column followed by one 0/1
// column per item.
func WriteMatrixCSV(w io.Writer, m *matrix.Matrix) error {
	cw := csv.NewWriter(w)

	header := make([]string, 0, m.NumItems()+1)
	header = append(header, ColTransactionID)
	for _, item := range m.Items() {
		header = append(header, string(item))
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write matrix header: %w", err)
	}

	row := make([]string, len(header))
	for r, tid := range m.TransactionIDs() {
		row[0] = tid
		for c := 0; c < m.NumItems(); c++ {
			if m.Cell(r, c) {
				row[c+1] = "1"
			} else {
				row[c+1] = "0"
			}
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write matrix row %s: %w", tid, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadMatrixCSV reads a matrix written by WriteMatrixCSV (or any CSV whose
// first column is the transaction index and whose other columns are items).
//
// Cells must be boolean: 0/1, true/false, or 0.0/1.0. Anything else is an
// InvalidInputError naming the row and item.
func ReadMatrixCSV(r io.Reader) (*matrix.Matrix, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ir.NewInvalidInput("matrix", "empty matrix file")
	}
	if err != nil {
		return nil, fmt.Errorf("read matrix header: %w", err)
	}
	if len(header) < 1 {
		return nil, ir.NewInvalidInput("matrix", "header has no transaction column")
	}
	items := make([]string, len(header)-1)
	for i, h := range header[1:] {
		items[i] = strings.TrimSpace(h)
	}

	var (
		tids  []string
		cells [][]bool
	)
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read matrix: %w", err)
		}
		tid := strings.TrimSpace(row[0])
		cellRow := make([]bool, len(items))
		for c, raw := range row[1:] {
			v, ok := parseCell(raw)
			if !ok {
				return nil, ir.NewInvalidInput("matrix", "transaction %q, item %q: non-boolean cell %q", tid, items[c], raw)
			}
			cellRow[c] = v
		}
		tids = append(tids, tid)
		cells = append(cells, cellRow)
	}

	return matrix.New(tids, items, cells)
}

func parseCell(raw string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "1.0", "true":
		return true, true
	case "0", "0.0", "false":
		return false, true
	default:
		return false, false
	}
}
