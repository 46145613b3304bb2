package cli

import (
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/victorycross/persona-x-sub000/internal/config"
	"github.com/victorycross/persona-x-sub000/internal/engine"
	"github.com/victorycross/persona-x-sub000/internal/llm"
	"github.com/victorycross/persona-x-sub000/internal/logging"
)

// RootOptions holds global flags for all commands and the loaded config.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string
	PersonaDir string
	Database   string

	// Config is populated before any subcommand runs.
	Config config.Config

	// Completer, Clock and RunIDs override the production wiring (for testing).
	Completer llm.Completer
	Clock     engine.Clock
	RunIDs    engine.RunIDGenerator

	// LogWriter receives log output; defaults to stderr.
	LogWriter io.Writer
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the persona-x CLI.
func NewRootCommand() *cobra.Command {
	return NewRootCommandWith(&RootOptions{})
}

// NewRootCommandWith builds the command tree around opts so tests can
// inject collaborators before Execute.
func NewRootCommandWith(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "persona-x",
		Short: "persona-x - panel personas and the four-stage decision engine",
		Long: `persona-x runs panels of judgement personas.

It drives an opportunity through Propose, Challenge, Prototype and Execute,
gating each stage on the artefact the panel produces, and builds new persona
definitions through a guided interview.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup()
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "persona-x.yaml", "path to config file")
	cmd.PersistentFlags().StringVar(&opts.PersonaDir, "personas", "", "persona directory (overrides config)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite run database (overrides config)")

	cmd.AddCommand(NewDecideCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewRunsCommand(opts))
	cmd.AddCommand(NewRecordCommand(opts))
	cmd.AddCommand(NewDiscoverCommand(opts))

	return cmd
}

// setup validates flags, loads config and initialises logging.
func (o *RootOptions) setup() error {
	if !slices.Contains(ValidFormats, o.Format) {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", o.Format, ValidFormats))
	}

	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if o.PersonaDir != "" {
		cfg.PersonaDir = o.PersonaDir
	}
	if o.Database != "" {
		cfg.Database = o.Database
	}
	if o.Verbose {
		cfg.Log.Level = "debug"
	}
	o.Config = cfg

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid log level", err)
	}
	w := o.LogWriter
	if w == nil {
		w = os.Stderr
	}
	logging.Init(level, cfg.Log.Format, w)
	return nil
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// Execute runs the CLI and returns the process exit code.
func Execute(args []string, stdout, stderr io.Writer) int {
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	err := cmd.Execute()
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
	}
	return GetExitCode(err)
}
