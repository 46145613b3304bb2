package harness

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"testing"

	"github.com/victorycross/persona-x-sub000/internal/decision"
	"github.com/victorycross/persona-x-sub000/internal/engine"
	"github.com/victorycross/persona-x-sub000/internal/llm"
	"github.com/victorycross/persona-x-sub000/internal/logging"
	"github.com/victorycross/persona-x-sub000/internal/persona"
	"github.com/victorycross/persona-x-sub000/internal/store"
	"github.com/victorycross/persona-x-sub000/internal/testutil"
)

// Harness holds the collaborators shared by every attempt of one scenario.
type Harness struct {
	store  *store.Store
	cache  *persona.Cache
	clock  *testutil.DeterministicClock
	runIDs *testutil.FixedRunIDs
	rounds map[decision.Stage]int
	logger *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database with the sixteen stage
// personas written to a temp directory.
//
// Execution flow:
// 1. Run the engine with the stage scripts
// 2. If it aborted and the scenario has a resume block, load the stored
// run and resume it with the merged scripts
// 3. Read the audit trail back from the store
// 4. Evaluate assertions
func Run(t testing.TB, scenario *Scenario) (*Result, error) {
	t.Helper()

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:  st,
		cache:  persona.NewCache(testutil.WriteStagePersonas(t, t.TempDir())),
		clock:  testutil.NewDeterministicClock(),
		runIDs: testutil.NewFixedRunIDs(scenario.RunID),
		rounds: scenario.Rounds,
		logger: logging.Discard(),
	}

	ctx := context.Background()
	result := NewResult()

	eng, err := h.engine(scenario.Stages)
	if err != nil {
		return nil, err
	}
	state, runErr := eng.Run(ctx, scenario.Opportunity)
	result.Attempts = 1

	if runErr != nil && scenario.Resume != nil {
		prev, err := st.LoadRun(ctx, state.ID)
		switch {
		case store.IsNotFound(err):
			// Aborted before the first save; resume from the fresh state.
			prev = state
		case err != nil:
			return nil, fmt.Errorf("failed to load run for resume: %w", err)
		}

		merged := maps.Clone(scenario.Stages)
		if merged == nil {
			merged = make(map[decision.Stage]StageScript)
		}
		maps.Copy(merged, scenario.Resume)
		eng, err = h.engine(merged)
		if err != nil {
			return nil, err
		}
		state, runErr = eng.Resume(ctx, prev, scenario.Opportunity)
		result.Attempts = 2
	}

	result.State = state
	if runErr != nil {
		result.RunError = runErr.Error()
	}

	entries, err := st.AuditTrail(ctx, state.ID)
	if err != nil && !store.IsNotFound(err) {
		return nil, fmt.Errorf("failed to read audit trail: %w", err)
	}
	for _, e := range entries {
		result.AddAuditTrace(e)
	}
	if len(entries) != len(state.Audit) {
		result.AddError(fmt.Sprintf("stored audit trail has %d entries, returned state has %d", len(entries), len(state.Audit)))
	}

	h.logger.Info("scenario executed",
		"scenario", scenario.Name,
		"attempts", result.Attempts,
		"status", state.Status,
		"entries", len(entries))

	actx := &AssertionContext{Store: st, Ctx: ctx}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}
	if result.RunError != "" && !hasAssertion(scenario.Assertions, AssertRunError) {
		result.AddError("unexpected run error: " + result.RunError)
	}

	return result, nil
}

// engine builds an engine whose synthesis replies follow scripts.
func (h *Harness) engine(scripts map[decision.Stage]StageScript) (*engine.Engine, error) {
	c, err := script(scripts)
	if err != nil {
		return nil, err
	}
	opts := []engine.Option{
		engine.WithCache(h.cache),
		engine.WithClock(h.clock),
		engine.WithRunIDs(h.runIDs),
		engine.WithStore(h.store),
		engine.WithLogger(h.logger),
	}
	for stage, n := range h.rounds {
		opts = append(opts, engine.WithRounds(stage, n))
	}
	return engine.New(c, opts...), nil
}

// script turns stage scripts into a scripted completion service. Panel
// turns fall through to the default reply.
func script(scripts map[decision.Stage]StageScript) (*testutil.Scripted, error) {
	s := testutil.NewScripted()
	for _, stage := range decision.Stages() {
		kind := decision.KindFor(stage)
		sc := scripts[stage]
		if sc.Error != "" {
			s.FailOnSystem(string(kind), &llm.APIError{StatusCode: 529, Type: "overloaded_error", Message: sc.Error})
			continue
		}
		reply, err := sc.reply(stage)
		if err != nil {
			return nil, err
		}
		s.OnArtefact(kind, reply)
	}
	return s, nil
}

func hasAssertion(as []Assertion, typ string) bool {
	for _, a := range as {
		if a.Type == typ {
			return true
		}
	}
	return false
}
