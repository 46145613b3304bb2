package engine

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/victorycross/persona-x-sub000/internal/artefact"
	"github.com/victorycross/persona-x-sub000/internal/decision"
	"github.com/victorycross/persona-x-sub000/internal/llm"
	"github.com/victorycross/persona-x-sub000/internal/panel"
	"github.com/victorycross/persona-x-sub000/internal/persona"
	"github.com/victorycross/persona-x-sub000/internal/record"
)

// DefaultPersonaDir is where stage personas are resolved when no cache is given.
const DefaultPersonaDir = "personas"

// RunStore persists pipeline states. *store.Store implements it.
type RunStore interface {
	SaveRun(ctx context.Context, s decision.State) error
}

// Input is the opportunity being evaluated.
type Input struct {
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
	Context     string `json:"context,omitempty" yaml:"context,omitempty"`
}

// StageResult is the outcome of one RunStage call.
type StageResult struct {
	State      decision.State
	Session    panel.Session
	Transcript string
	// KillReason is empty unless a kill criterion holds after recording.
	KillReason string
}

// Engine runs decision pipelines.
//
// An Engine holds no per-run state; each pipeline state is passed in and a
// new one returned. Concurrent runs on separate states are safe provided
// the completer and store are.
type Engine struct {
	completer   llm.Completer
	cache       *persona.Cache
	clock       Clock
	runIDs      RunIDGenerator
	store       RunStore
	recordDir   string
	rounds      map[decision.Stage]int
	maxTokens   int
	temperature float64
	logger      *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithCache sets the persona cache used to resolve stage personas.
func WithCache(c *persona.Cache) Option {
	return func(e *Engine) { e.cache = c }
}

// WithClock sets the clock used for audit timestamps.
func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithRunIDs sets the run id generator.
func WithRunIDs(g RunIDGenerator) Option {
	return func(e *Engine) { e.runIDs = g }
}

// WithStore persists the state after every stage outcome.
func WithStore(s RunStore) Option {
	return func(e *Engine) { e.store = s }
}

// WithRecordDir writes a session record per stage under dir.
func WithRecordDir(dir string) Option {
	return func(e *Engine) { e.recordDir = dir }
}

// WithRounds overrides the number of panel rounds for a stage.
// Values below one are ignored.
func WithRounds(stage decision.Stage, n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.rounds[stage] = n
		}
	}
}

// WithGeneration sets the max tokens and temperature for panel turns.
func WithGeneration(maxTokens int, temperature float64) Option {
	return func(e *Engine) {
		e.maxTokens = maxTokens
		e.temperature = temperature
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New creates an Engine that generates through c.
func New(c llm.Completer, opts ...Option) *Engine {
	e := &Engine{
		completer:   c,
		clock:       SystemClock{},
		runIDs:      UUIDv7Generator{},
		rounds:      make(map[decision.Stage]int),
		maxTokens:   1024,
		temperature: 0.7,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.cache == nil {
		e.cache = persona.NewCache(DefaultPersonaDir)
	}
	return e
}

func (e *Engine) roundsFor(stage decision.Stage) int {
	if n, ok := e.rounds[stage]; ok {
		return n
	}
	return decision.StageRounds(stage)
}

// Start returns a fresh pipeline state for in.
func (e *Engine) Start(in Input) decision.State {
	return decision.New(e.runIDs.Generate(), decision.WithTitle(in.Title), decision.CreatedAt(e.clock.Now()))
}

// Run creates a pipeline for in and drives it to completion.
func (e *Engine) Run(ctx context.Context, in Input) (decision.State, error) {
	return e.Resume(ctx, e.Start(in), in)
}

// Resume drives s until it is no longer active. After each stage it either
// force-kills on a kill criterion or advances the pipeline, then saves the
// state. On error the last good state is returned with it.
func (e *Engine) Resume(ctx context.Context, s decision.State, in Input) (decision.State, error) {
	log := e.logger.With("run", s.ID)
	for !decision.IsDone(s) {
		stage := s.CurrentStage
		var reason string

		if s.Gate(stage) != nil {
			// Recorded but not yet advanced, e.g. saved by a caller
			// driving RunStage directly.
			reason, _ = decision.CheckKillCriteria(s)
		} else {
			res, err := e.RunStage(ctx, s, in)
			if err != nil {
				log.Error("stage aborted", "stage", stage, "error", err)
				return s, err
			}
			s, reason = res.State, res.KillReason
		}

		if reason != "" {
			s = decision.ForceKill(s, reason, decision.At(e.clock.Now()))
			log.Warn("pipeline killed", "stage", stage, "reason", reason)
		} else {
			s = decision.AdvanceToNextStage(s, decision.At(e.clock.Now()))
		}

		if err := e.save(ctx, s); err != nil {
			return s, err
		}
	}
	log.Info("pipeline finished", "status", s.Status, "stage", s.CurrentStage)
	return s, nil
}

func (e *Engine) save(ctx context.Context, s decision.State) error {
	if e.store == nil {
		return nil
	}
	if err := e.store.SaveRun(ctx, s); err != nil {
		return fmt.Errorf("persist run %s: %w", s.ID, err)
	}
	return nil
}

// RunStage runs the panel for the current stage, synthesises its artefact
// and records it. A done pipeline is returned unchanged.
func (e *Engine) RunStage(ctx context.Context, s decision.State, in Input) (StageResult, error) {
	if decision.IsDone(s) {
		return StageResult{State: s}, nil
	}
	stage := s.CurrentStage
	log := e.logger.With("run", s.ID, "stage", stage)
	log.Info("stage starting", "rounds", e.roundsFor(stage))

	personas, err := e.cache.Load(ctx, decision.StagePersonas(stage)...)
	if err != nil {
		return StageResult{State: s}, newRuntimeError(ErrCodePersonaLoad, stage, "resolve stage personas", err)
	}

	session := panel.NewSession(panel.Config{
		Topic:        stageTopic(s, in),
		Context:      stageContext(s, in),
		Participants: personas,
	})
	runner := panel.Runner{
		Completer:   e.completer,
		MaxTokens:   e.maxTokens,
		Temperature: e.temperature,
		Logger:      log,
	}
	session, err = runner.RunRounds(ctx, session, e.roundsFor(stage))
	if err != nil {
		return StageResult{State: s}, newRuntimeError(ErrCodeGeneration, stage, "panel discussion failed", err)
	}

	transcript := panel.Transcript(session)
	art, err := e.synthesise(ctx, stage, transcript)
	if err != nil {
		return StageResult{State: s}, newRuntimeError(ErrCodeSynthesis, stage, fmt.Sprintf("synthesise %s", decision.KindFor(stage)), err)
	}

	next := decision.RecordStageResult(s, stage, art, decision.At(e.clock.Now()), decision.WithTranscript(transcript))
	reason, _ := decision.CheckKillCriteria(next)

	if g := next.Gate(stage); g != nil {
		log.Info("stage gate evaluated", "passed", g.Passed, "decision", g.Decision, "failures", len(g.Failures))
	}
	if err := e.writeRecord(next, stage, session, reason); err != nil {
		log.Warn("session record not written", "error", err)
	}

	return StageResult{State: next, Session: session, Transcript: transcript, KillReason: reason}, nil
}

func (e *Engine) synthesise(ctx context.Context, stage decision.Stage, transcript string) (artefact.Artefact, error) {
	kind := decision.KindFor(stage)
	req := llm.Request{
		System:      synthesisSystemPrompt(kind),
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: synthesisPrompt(transcript)}},
		MaxTokens:   4 * e.maxTokens,
		Temperature: 0,
	}
	return llm.CompleteStructured(ctx, e.completer, req, func(data []byte) (artefact.Artefact, error) {
		return artefact.Parse(kind, data)
	})
}

// writeRecord saves the stage's session record. A kill reason overrides
// the gate decision as the recorded outcome.
func (e *Engine) writeRecord(s decision.State, stage decision.Stage, session panel.Session, killReason string) error {
	if e.recordDir == "" {
		return nil
	}
	var outcome decision.Outcome
	if g := s.Gate(stage); g != nil {
		outcome = g.Decision
	}
	if killReason != "" {
		outcome = decision.Kill
	}
	id := fmt.Sprintf("%s-%s", s.ID, stage)
	r := record.FromSession(session,
		record.WithID(id),
		record.WithStage(stage),
		record.WithOutcome(outcome),
		record.At(e.clock.Now()),
	)
	return record.SaveFile(filepath.Join(e.recordDir, id+".yaml"), r)
}
