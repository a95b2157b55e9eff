package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/roach88/basket/internal/config"
	"github.com/roach88/basket/internal/export"
	"github.com/roach88/basket/internal/ir"
	"github.com/roach88/basket/internal/matrix"
	"github.com/roach88/basket/internal/preprocess"
	"github.com/roach88/basket/internal/store"
)

// Error code constants - unified across all CLI commands. Configuration
// problems keep the E2xx codes assigned by the config package.
const (
	ErrCodeGeneric        = "E001" // Generic/unknown error
	ErrCodeReadFailed     = "E002" // Input file could not be read
	ErrCodeParseFailed    = "E003" // Malformed CSV input
	ErrCodeInvalidInput   = "E004" // Matrix or threshold rejected by the miner
	ErrCodeNotFound       = "E005" // Path or stored run not found
	ErrCodeMissingSupport = "E006" // Rule generation hit an unsupported subset
	ErrCodeWriteFailed    = "E007" // File write error
)

// OutputError reports a result file that could not be written.
type OutputError struct {
	Path string
	Err  error
}

func (e *OutputError) Error() string {
	return fmt.Sprintf("write %s: %v", e.Path, e.Err)
}

func (e *OutputError) Unwrap() error {
	return e.Err
}

// errorCode maps err onto the code reported in CLIError.
func errorCode(err error) string {
	var loadErr *config.LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code
	}
	var loadErrs config.LoadErrors
	if errors.As(err, &loadErrs) && len(loadErrs) > 0 {
		return loadErrs[0].Code
	}

	var outErr *OutputError
	var parseErr *preprocess.ParseError
	var pathErr *fs.PathError
	switch {
	case errors.As(err, &outErr):
		return ErrCodeWriteFailed
	case errors.Is(err, store.ErrRunNotFound), errors.Is(err, os.ErrNotExist):
		return ErrCodeNotFound
	case errors.As(err, &parseErr):
		return ErrCodeParseFailed
	case errors.As(err, &pathErr):
		return ErrCodeReadFailed
	}

	switch ir.CodeOf(err) {
	case ir.ErrCodeInvalidInput:
		return ErrCodeInvalidInput
	case ir.ErrCodeMissingSupport:
		return ErrCodeMissingSupport
	}
	return ErrCodeGeneric
}

// exitCodeFor classifies err: problems with the inputs a user pointed at
// are command errors, everything else is a failure of the run itself.
func exitCodeFor(err error) int {
	switch errorCode(err) {
	case ErrCodeReadFailed, ErrCodeNotFound, ErrCodeParseFailed, ErrCodeWriteFailed,
		config.CodeRead, config.CodeFormat, config.CodeParse, config.CodeSchema:
		return ExitCommandError
	default:
		return ExitFailure
	}
}

// loadRecords reads a raw transaction CSV.
func loadRecords(path string) ([]preprocess.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := preprocess.ReadRecordsCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// loadMatrix reads a transaction-item matrix CSV.
func loadMatrix(path string) (*matrix.Matrix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := preprocess.ReadMatrixCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// writeOutput writes one result file; failures come back as OutputError.
func writeOutput(path string, write func(io.Writer) error) error {
	if err := export.ToFile(path, write); err != nil {
		return &OutputError{Path: path, Err: err}
	}
	return nil
}
