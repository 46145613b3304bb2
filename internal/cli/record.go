package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/victorycross/persona-x-sub000/internal/record"
)

// NewRecordCommand creates the record command group.
func NewRecordCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Work with saved session records",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "diff <a.yaml> <b.yaml>",
		Short: "Compare the panels of two session records",
		Long: `Compare two session records.

Reports personas present in only one record and, for personas in both, every
rubric dimension whose score changed.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecordDiff(rootOpts, args[0], args[1], cmd)
		},
	})

	return cmd
}

func runRecordDiff(opts *RootOptions, pathA, pathB string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	a, err := record.LoadFile(pathA)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeNotFound, "cannot load record A", err)
	}
	b, err := record.LoadFile(pathB)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeNotFound, "cannot load record B", err)
	}

	d := record.Compare(a, b)
	if f.JSON() {
		return f.Success(d)
	}
	fmt.Fprintf(f.Writer, "A: %s (%s)\nB: %s (%s)\n\n%s", a.ID, a.Topic, b.ID, b.Topic, d)
	return nil
}
