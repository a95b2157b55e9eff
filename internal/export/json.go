package export

import (
	"fmt"
	"io"

	"github.com/roach88/basket/internal/ir"
)

// WriteJSON writes the canonical JSON encoding of snap followed by a newline.
// The bytes are identical for identical results on every platform.
func WriteJSON(w io.Writer, snap ir.Snapshot) error {
	data, err := ir.MarshalCanonical(snap.Object())
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}
