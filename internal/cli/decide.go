package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/victorycross/persona-x-sub000/internal/decision"
	"github.com/victorycross/persona-x-sub000/internal/engine"
	"github.com/victorycross/persona-x-sub000/internal/persona"
	"github.com/victorycross/persona-x-sub000/internal/store"
)

// DecideOptions holds flags for the decide command.
type DecideOptions struct {
	*RootOptions
	Resume    string
	RecordDir string
	NoStore   bool
}

// NewDecideCommand creates the decide command.
func NewDecideCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DecideOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "decide <opportunity.yaml>",
		Short: "Run an opportunity through the decision engine",
		Long: `Run an opportunity through Propose, Challenge, Prototype and Execute.

The opportunity file is YAML with title, description and optional context.
Each stage's state is saved to the run database so an aborted run can be
continued with --resume. A deferred or killed opportunity is a completed
run and exits 0.

Example:
  persona-x decide ./repair-cafes.yaml
  persona-x decide ./repair-cafes.yaml --resume 0199a3e2-...
  persona-x decide ./repair-cafes.yaml --records ./records --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecide(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Resume, "resume", "", "continue the stored run with this id")
	cmd.Flags().StringVar(&opts.RecordDir, "records", "", "write a session record per stage to this directory")
	cmd.Flags().BoolVar(&opts.NoStore, "no-store", false, "do not persist runs")

	return cmd
}

func readInput(path string) (engine.Input, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return engine.Input{}, err
	}
	var in engine.Input
	if err := yaml.Unmarshal(data, &in); err != nil {
		return engine.Input{}, fmt.Errorf("parse opportunity: %w", err)
	}
	if strings.TrimSpace(in.Title) == "" {
		return engine.Input{}, errors.New("opportunity title is required")
	}
	return in, nil
}

func runDecide(opts *DecideOptions, path string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	in, err := readInput(path)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeNotFound, "cannot read opportunity", err)
	}
	if opts.NoStore && opts.Resume != "" {
		return f.Fail(ExitCommandError, ErrCodeGeneric, "--resume needs the run store", nil)
	}

	var st *store.Store
	if !opts.NoStore {
		st, err = opts.openStore()
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeNotFound, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				slog.Error("error closing database", "error", closeErr)
			}
		}()
	}

	eng, err := opts.newEngine(st, opts.RecordDir)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeConfig, "failed to configure engine", err)
	}

	ctx, stop := signal.NotifyContext(cmdContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var state decision.State
	if opts.Resume != "" {
		prev, err := st.LoadRun(ctx, opts.Resume)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeNotFound, "cannot resume run", err)
		}
		f.VerboseLog("Resuming %s at %s", prev.ID, prev.CurrentStage)
		state, err = eng.Resume(ctx, prev, in)
		if err != nil {
			return stageFailure(f, state, err)
		}
	} else {
		state, err = eng.Run(ctx, in)
		if err != nil {
			return stageFailure(f, state, err)
		}
	}

	if f.JSON() {
		return f.Success(state)
	}
	return renderState(f.Writer, state)
}

func stageFailure(f *OutputFormatter, last decision.State, err error) error {
	msg := fmt.Sprintf("stage %s aborted", last.CurrentStage)
	if last.ID != "" {
		msg += fmt.Sprintf("; resume with --resume %s", last.ID)
	}
	code := ErrCodeStage
	if engine.IsPersonaLoadError(err) {
		code = ErrCodeValidation
		if persona.IsNotFound(err) {
			code = ErrCodeNotFound
		}
	}
	return f.Fail(ExitFailure, code, msg, err)
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// renderState prints the run outcome, gate table and audit trail.
func renderState(w io.Writer, s decision.State) error {
	fmt.Fprintf(w, "Run %s: %s at %s (stage %d of %d)\n", s.ID, s.Status, s.CurrentStage, s.StageIndex+1, len(decision.Stages()))
	if s.Title != "" {
		fmt.Fprintf(w, "Title: %s\n", s.Title)
	}
	if s.KillReason != "" {
		fmt.Fprintf(w, "Kill reason: %s\n", s.KillReason)
	}

	gates := newTable("Stage", "Passed", "Decision", "Failures")
	for _, stage := range decision.Stages() {
		g := s.Gate(stage)
		if g == nil {
			continue
		}
		gates.AppendRow([]any{stage, g.Passed, g.Decision, strings.Join(g.Failures, "\n")})
	}
	gates.SetColumnConfigs([]table.ColumnConfig{wrapAt(4, 70)})
	fmt.Fprintf(w, "\nGates\n%s\n", gates.Render())

	fmt.Fprintf(w, "\nAudit trail\n%s\n", auditTable(s.Audit))
	return nil
}

func auditTable(entries []decision.AuditEntry) string {
	t := newTable("Seq", "Stage", "Time", "Action", "Detail")
	for _, e := range entries {
		t.AppendRow([]any{e.Seq, e.Stage, e.Timestamp.Format("2006-01-02 15:04:05"), e.Action, e.Detail})
	}
	t.SetColumnConfigs([]table.ColumnConfig{rightAlign(1), wrapAt(5, 70)})
	return t.Render()
}
