package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/victorycross/persona-x-sub000/internal/persona"
	"github.com/victorycross/persona-x-sub000/internal/schema"
)

// FileResult is the validation outcome for one persona file.
type FileResult struct {
	Path   string              `json:"path"`
	Errors []schema.FieldError `json:"errors,omitempty"`
	// Cause is set when the file could not be read or parsed at all.
	Cause string `json:"cause,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid bool         `json:"valid"`
	Count int          `json:"count"`
	Files []FileResult `json:"files,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [persona-file-or-dir]",
		Short: "Validate persona definitions",
		Long: `Validate persona YAML files against the persona schema.

Every violation in every file is reported, not just the first. With no
argument the configured persona directory is validated.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := rootOpts.Config.PersonaDir
			if len(args) == 1 {
				target = args[0]
			}
			return runValidate(rootOpts, target, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, target string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	info, err := os.Stat(target)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("%s not found", target), err)
	}

	var result ValidationResult
	if info.IsDir() {
		personas, errs := persona.LoadDir(target)
		result.Count = len(personas) + len(errs)
		for _, err := range errs {
			result.Files = append(result.Files, fileResult(err))
		}
		if result.Count == 0 {
			return f.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("no persona files in %s", target), nil)
		}
		f.VerboseLog("Loaded %d valid persona(s) from %s", len(personas), target)
	} else {
		result.Count = 1
		if _, err := persona.LoadFile(target); err != nil {
			result.Files = append(result.Files, fileResult(err))
		}
	}
	result.Valid = len(result.Files) == 0

	if f.JSON() {
		if err := f.Success(result); err != nil {
			return err
		}
	} else {
		printValidation(f, result)
	}
	if !result.Valid {
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed for %d of %d file(s)", len(result.Files), result.Count))
	}
	return nil
}

func fileResult(err error) FileResult {
	var le *persona.LoadError
	if !errors.As(err, &le) {
		return FileResult{Cause: err.Error()}
	}
	r := FileResult{Path: le.Path, Errors: le.Fields}
	if len(le.Fields) == 0 && le.Err != nil {
		r.Cause = le.Err.Error()
	}
	return r
}

func printValidation(f *OutputFormatter, r ValidationResult) {
	if r.Valid {
		fmt.Fprintf(f.Writer, "✓ All personas valid (%d)\n", r.Count)
		return
	}
	fmt.Fprintln(f.Writer, "✗ Validation failed")
	for _, file := range r.Files {
		fmt.Fprintf(f.Writer, "\n%s\n", file.Path)
		if file.Cause != "" {
			fmt.Fprintf(f.Writer, "  %s\n", file.Cause)
		}
		for _, e := range file.Errors {
			fmt.Fprintf(f.Writer, "  %s\n", e)
		}
	}
}
