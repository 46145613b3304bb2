package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/victorycross/persona-x-sub000/internal/discovery"
	"github.com/victorycross/persona-x-sub000/internal/logging"
	"github.com/victorycross/persona-x-sub000/internal/persona"
	"github.com/victorycross/persona-x-sub000/internal/population"
)

// DiscoverOptions holds discover command options.
type DiscoverOptions struct {
	*RootOptions
	ID           string
	Name         string
	Out          string
	MaxQuestions int
}

// DiscoverResult is the JSON payload of a finished discovery session.
type DiscoverResult struct {
	Path            string              `json:"path"`
	ID              string              `json:"id"`
	Draft           bool                `json:"draft,omitempty"`
	Problems        []string            `json:"problems,omitempty"`
	Records         []population.Record `json:"records"`
	NeedsRefinement []persona.Section   `json:"needs_refinement,omitempty"`
	Warnings        []string            `json:"warnings,omitempty"`
}

// NewDiscoverCommand creates the discover command.
func NewDiscoverCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DiscoverOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Build a new persona through an interview",
		Long: `Build a new persona through an interview.

Discovery questions run until every priority signal is known with enough
confidence. Sections that can be inferred from those signals are generated
directly; the rest are asked for. The finished persona is validated and
written as YAML.

When a section cannot be generated it is flagged for refinement and the
partial persona is written to <id>.draft.yaml next to the output instead,
so the interview is not lost.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiscover(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.ID, "id", "", "Persona id (required)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "Persona display name (required)")
	cmd.Flags().StringVarP(&opts.Out, "out", "o", "", "Output file (default <personas>/<id>.yaml)")
	cmd.Flags().IntVar(&opts.MaxQuestions, "max-questions", 8, "Discovery question limit")

	return cmd
}

// lineAsker prints each prompt and reads one line of reply.
type lineAsker struct {
	in  *bufio.Reader
	out io.Writer
}

func newLineAsker(in io.Reader, out io.Writer) *lineAsker {
	return &lineAsker{in: bufio.NewReader(in), out: out}
}

func (a *lineAsker) Ask(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	fmt.Fprintf(a.out, "\n%s\n> ", prompt)
	line, err := a.in.ReadString('\n')
	if errors.Is(err, io.EOF) && line != "" {
		err = nil
	}
	if err != nil {
		return "", fmt.Errorf("read answer: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func runDiscover(opts *DiscoverOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	if opts.ID == "" || opts.Name == "" {
		return f.Fail(ExitCommandError, ErrCodeValidation, "--id and --name are required", nil)
	}
	out := opts.Out
	if out == "" {
		out = filepath.Join(opts.Config.PersonaDir, opts.ID+".yaml")
	}
	if _, err := os.Stat(out); err == nil {
		return f.Fail(ExitCommandError, ErrCodeValidation, fmt.Sprintf("%s already exists", out), nil)
	}

	c, err := opts.completer()
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeConfig, "completion client", err)
	}

	// Prompts go to stderr when stdout carries JSON.
	promptOut := f.Writer
	if f.JSON() {
		promptOut = f.errWriter()
	}
	asker := newLineAsker(cmd.InOrStdin(), promptOut)
	ctx := cmdContext(cmd)
	cfg := opts.Config.LLM

	iv := discovery.Interviewer{
		Asker:        asker,
		Extractor:    discovery.LLMExtractor{Completer: c, MaxTokens: cfg.MaxTokens},
		MaxQuestions: opts.MaxQuestions,
		Logger:       logging.New("discovery"),
	}
	d, err := iv.Run(ctx)
	if err != nil {
		return f.Fail(ExitFailure, ErrCodeGeneric, "discovery interview failed", err)
	}
	if missing := discovery.GetMissingSignals(d); len(missing) > 0 {
		f.VerboseLog("discovery ended with %d signals below confidence", len(missing))
	}

	pop := population.Populator{
		Asker:     asker,
		Generator: population.LLMGenerator{Completer: c, MaxTokens: cfg.MaxTokens, Temperature: cfg.Temperature},
		Logger:    logging.New("population"),
	}
	res, err := pop.Run(ctx, population.NewState(opts.ID, opts.Name), d)
	if err != nil {
		return f.Fail(ExitFailure, ErrCodeGeneric, "persona population failed", err)
	}

	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return f.Fail(ExitFailure, ErrCodeGeneric, "cannot create output directory", err)
	}
	result := DiscoverResult{
		Path:            out,
		ID:              opts.ID,
		Records:         res.State.Records,
		NeedsRefinement: res.State.NeedsRefinement,
		Warnings:        res.Warnings,
	}

	p, err := population.Finalize(res.State)
	if err == nil {
		err = persona.WriteFile(out, p)
	}
	if err != nil {
		draft := population.NewDraft(res.State)
		result.Path = population.DraftPath(out)
		result.Draft = true
		result.Problems = draft.Problems
		if err := population.SaveDraft(result.Path, draft); err != nil {
			return f.Fail(ExitFailure, ErrCodeGeneric, "cannot write persona draft", err)
		}
		f.VerboseLog("persona not finalised: %v", err)
	}

	if f.JSON() {
		return f.Success(result)
	}
	if result.Draft {
		fmt.Fprintf(f.Writer, "\n! Persona incomplete, wrote draft %s\n", result.Path)
		for _, section := range result.NeedsRefinement {
			fmt.Fprintf(f.Writer, "  needs refinement: %s\n", section)
		}
		for _, problem := range result.Problems {
			fmt.Fprintf(f.Writer, "  problem: %s\n", problem)
		}
	} else {
		fmt.Fprintf(f.Writer, "\n✓ Wrote %s\n", out)
	}
	for _, r := range result.Records {
		fmt.Fprintf(f.Writer, "  %-12s %-13s %s\n", r.Section, r.Method, r.Confidence)
	}
	for _, w := range result.Warnings {
		fmt.Fprintf(f.Writer, "  warning: %s\n", w)
	}
	return nil
}
