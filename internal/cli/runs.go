package cli

import (
	"fmt"
	"log/slog"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/victorycross/persona-x-sub000/internal/store"
)

// NewRunsCommand creates the runs command and its show subcommand.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List stored decision runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runListRuns(rootOpts, cmd)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show <run-id>",
		Short: "Show a run's audit trail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShowRun(rootOpts, args[0], cmd)
		},
	})

	return cmd
}

func withStore(opts *RootOptions, f *OutputFormatter, fn func(*store.Store) error) error {
	st, err := opts.openStore()
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeNotFound, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	return fn(st)
}

func runListRuns(opts *RootOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	return withStore(opts, f, func(st *store.Store) error {
		runs, err := st.ListRuns(cmdContext(cmd))
		if err != nil {
			return f.Fail(ExitFailure, ErrCodeGeneric, "failed to list runs", err)
		}
		if f.JSON() {
			return f.Success(runs)
		}
		if len(runs) == 0 {
			fmt.Fprintln(f.Writer, "No runs recorded")
			return nil
		}
		t := newTable("ID", "Title", "Status", "Stage", "Entries", "Created")
		for _, r := range runs {
			t.AppendRow([]any{r.ID, r.Title, r.Status, r.CurrentStage, r.AuditEntries, r.CreatedAt.Format("2006-01-02 15:04")})
		}
		t.SetColumnConfigs([]table.ColumnConfig{wrapAt(2, 40), rightAlign(5)})
		fmt.Fprintln(f.Writer, t.Render())
		return nil
	})
}

func runShowRun(opts *RootOptions, id string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	return withStore(opts, f, func(st *store.Store) error {
		s, err := st.LoadRun(cmdContext(cmd), id)
		if store.IsNotFound(err) {
			return f.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("run %s not found", id), nil)
		}
		if err != nil {
			return f.Fail(ExitFailure, ErrCodeGeneric, "failed to load run", err)
		}
		if f.JSON() {
			return f.Success(s)
		}
		return renderState(f.Writer, s)
	})
}
