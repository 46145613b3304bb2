package cli

import (
	"fmt"
	"log/slog"

	"github.com/victorycross/persona-x-sub000/internal/engine"
	"github.com/victorycross/persona-x-sub000/internal/llm"
	"github.com/victorycross/persona-x-sub000/internal/logging"
	"github.com/victorycross/persona-x-sub000/internal/persona"
	"github.com/victorycross/persona-x-sub000/internal/store"
)

// completer builds the production completion stack: the Anthropic client,
// retried with backoff, behind a request rate limit.
func (o *RootOptions) completer() (llm.Completer, error) {
	if o.Completer != nil {
		return o.Completer, nil
	}
	cfg := o.Config.LLM
	key, err := o.Config.APIKey()
	if err != nil {
		return nil, err
	}
	client := llm.NewAnthropicClient(key, cfg.Model, llm.WithBaseURL(cfg.BaseURL))
	retrying := llm.NewRetrying(client,
		llm.WithMaxAttempts(cfg.MaxAttempts),
		llm.WithRetryLogger(logging.New("llm")),
	)
	return llm.NewRateLimited(retrying, cfg.RequestsPerMinute, 1), nil
}

// newEngine wires an engine from config. st may be nil.
func (o *RootOptions) newEngine(st *store.Store, recordDir string) (*engine.Engine, error) {
	c, err := o.completer()
	if err != nil {
		return nil, fmt.Errorf("completion client: %w", err)
	}
	opts := []engine.Option{
		engine.WithCache(persona.NewCache(o.Config.PersonaDir)),
		engine.WithGeneration(o.Config.LLM.MaxTokens, o.Config.LLM.Temperature),
		engine.WithLogger(logging.New("engine")),
	}
	if st != nil {
		opts = append(opts, engine.WithStore(st))
	}
	if recordDir != "" {
		opts = append(opts, engine.WithRecordDir(recordDir))
	}
	if o.Clock != nil {
		opts = append(opts, engine.WithClock(o.Clock))
	}
	if o.RunIDs != nil {
		opts = append(opts, engine.WithRunIDs(o.RunIDs))
	}
	for stage, n := range o.Config.Rounds {
		opts = append(opts, engine.WithRounds(stage, n))
	}
	return engine.New(c, opts...), nil
}

func (o *RootOptions) openStore() (*store.Store, error) {
	slog.Debug("opening database", "path", o.Config.Database)
	return store.Open(o.Config.Database)
}
