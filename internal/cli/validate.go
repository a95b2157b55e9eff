package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/basket/internal/config"
)

// ValidationError is one configuration problem in command output.
type ValidationError struct {
	Code    string `json:"code"`
	Path    string `json:"path,omitempty"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Config *config.Config    `json:"config,omitempty"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <config-file>",
		Short: "Validate a configuration file",
		Long: `Validate a YAML or CUE configuration file without running anything.

The file is checked against the configuration schema: unknown fields,
thresholds out of range, malformed dates and a date window without a date
column are all reported, with their line and column when known.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	cfg, err := config.Load(path)
	if err != nil {
		var loadErr *config.LoadError
		if errors.As(err, &loadErr) && (loadErr.Code == config.CodeRead || loadErr.Code == config.CodeFormat) {
			return outputValidateError(formatter, loadErr.Code, loadErr.Message, nil)
		}
		return outputValidationErrors(formatter, validationErrors(err))
	}

	formatter.VerboseLog("Loaded %s: %s", path, cfg)
	return outputValidateSuccess(formatter, cfg)
}

// validationErrors flattens a config load error.
func validationErrors(err error) []ValidationError {
	var list config.LoadErrors
	var single *config.LoadError
	switch {
	case errors.As(err, &list):
	case errors.As(err, &single):
		list = config.LoadErrors{single}
	default:
		return []ValidationError{{Code: ErrCodeGeneric, Message: err.Error()}}
	}

	out := make([]ValidationError, len(list))
	for i, e := range list {
		out[i] = ValidationError{
			Code:    e.Code,
			Path:    e.Path,
			Message: e.Message,
			Line:    e.Line,
			Column:  e.Column,
		}
	}
	return out
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, cfg config.Config) error {
	if formatter.IsJSON() {
		return formatter.Success(ValidationResult{Valid: true, Config: &cfg})
	}

	fmt.Fprintln(formatter.Writer, "✓ Config valid")
	return nil
}

// outputValidateError outputs a single validation error.
func outputValidateError(formatter *OutputFormatter, code, message string, details any) error {
	_ = formatter.Error(code, message, details)
	// Unreadable files are command-level errors (exit code 2)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, errs []ValidationError) error {
	message := fmt.Sprintf("validation failed with %d error(s)", len(errs))

	if formatter.IsJSON() {
		// Validation failures = exit code 1 (test/validation failure)
		return formatter.Failure(ValidationResult{Valid: false, Errors: errs}, errs[0].Code, message)
	}

	// Text format
	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		if err.Line > 0 {
			fmt.Fprintf(formatter.Writer, "line %d, column %d\n", err.Line, err.Column)
		}
		if err.Path != "" {
			fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", err.Code, err.Path, err.Message)
		} else {
			fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", err.Code, err.Message)
		}
	}

	// Validation failures = exit code 1 (test/validation failure)
	return NewExitError(ExitFailure, message)
}
