package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victorycross/persona-x-sub000/internal/artefact"
	"github.com/victorycross/persona-x-sub000/internal/decision"
	"github.com/victorycross/persona-x-sub000/internal/llm"
	"github.com/victorycross/persona-x-sub000/internal/logging"
	"github.com/victorycross/persona-x-sub000/internal/persona"
	"github.com/victorycross/persona-x-sub000/internal/record"
	"github.com/victorycross/persona-x-sub000/internal/store"
	"github.com/victorycross/persona-x-sub000/internal/testutil"
)

var repairCafes = Input{
	Title:       "Community repair cafe network",
	Description: "Volunteer-run repair cafes with a shared booking and parts platform.",
}

// passingScript answers every synthesis call with an artefact that clears its gate.
func passingScript() *testutil.Scripted {
	return testutil.NewScripted().
		OnArtefact(artefact.KindOpportunityBrief, testutil.PassingBriefJSON()).
		OnArtefact(artefact.KindChallengeReport, testutil.ChallengeJSON(artefact.PositionPass, artefact.PositionConditional)).
		OnArtefact(artefact.KindPrototypeSpec, testutil.PrototypeJSON()).
		OnArtefact(artefact.KindDeliveryPlan, testutil.DeliveryJSON(
			artefact.Ready, artefact.ReadyConditional, artefact.Ready, artefact.Ready))
}

func newTestEngine(t *testing.T, c llm.Completer, opts ...Option) *Engine {
	t.Helper()
	dir := testutil.WriteStagePersonas(t, t.TempDir())
	base := []Option{
		WithCache(persona.NewCache(dir)),
		WithClock(testutil.NewDeterministicClock()),
		WithRunIDs(testutil.NewFixedRunIDs("run-1")),
		WithLogger(logging.Discard()),
	}
	return New(c, append(base, opts...)...)
}

func actions(s decision.State) []string {
	out := make([]string, len(s.Audit))
	for i, e := range s.Audit {
		out[i] = e.Action
	}
	return out
}

// flaky fails the first n calls whose system prompt contains match.
type flaky struct {
	mu    sync.Mutex
	next  llm.Completer
	match string
	n     int
	err   error
}

func (f *flaky) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	f.mu.Lock()
	if f.n > 0 && strings.Contains(req.System, f.match) {
		f.n--
		f.mu.Unlock()
		return nil, f.err
	}
	f.mu.Unlock()
	return f.next.Complete(ctx, req)
}

func TestRun_AllGatesPass(t *testing.T) {
	script := passingScript()
	e := newTestEngine(t, script)

	s, err := e.Run(context.Background(), repairCafes)
	require.NoError(t, err)

	assert.Equal(t, "run-1", s.ID)
	assert.Equal(t, decision.StatusPassed, s.Status)
	assert.Equal(t, decision.StageExecute, s.CurrentStage)
	assert.Equal(t, []string{
		decision.ActionStageRecorded, decision.ActionAdvanced,
		decision.ActionStageRecorded, decision.ActionAdvanced,
		decision.ActionStageRecorded, decision.ActionAdvanced,
		decision.ActionStageRecorded, decision.ActionCompleted,
	}, actions(s))

	for i, entry := range s.Audit {
		assert.Equal(t, i+1, entry.Seq)
		if entry.Action == decision.ActionStageRecorded {
			assert.NotEmpty(t, entry.Transcript)
			assert.NotEmpty(t, entry.ArtefactDigest)
		}
	}
	for i := 1; i < len(s.Audit); i++ {
		assert.True(t, s.Audit[i].Timestamp.After(s.Audit[i-1].Timestamp), "timestamps increase")
	}

	// One synthesis call per stage.
	for _, stage := range decision.Stages() {
		assert.Equal(t, 1, script.CallsWithSystem(string(decision.KindFor(stage))), stage)
	}
}

func TestRun_DeferredAtPropose(t *testing.T) {
	// Composite 4.7 with every other floor satisfied.
	brief := testutil.BriefJSON(3, 5, 3, 6, 7, 6)
	script := testutil.NewScripted().OnArtefact(artefact.KindOpportunityBrief, brief)
	e := newTestEngine(t, script)

	s, err := e.Run(context.Background(), repairCafes)
	require.NoError(t, err)

	assert.Equal(t, decision.StatusDeferred, s.Status)
	assert.Equal(t, decision.StagePropose, s.CurrentStage)
	require.Len(t, s.Audit, 1)
	assert.Equal(t, decision.ActionGateFailed, s.Audit[0].Action)

	gate := s.Gate(decision.StagePropose)
	require.NotNil(t, gate)
	assert.Equal(t, decision.Defer, gate.Decision)
	assert.Equal(t, []string{"Composite score 4.7 is below the 7.0 threshold"}, gate.Failures)
	assert.Zero(t, script.CallsWithSystem(string(artefact.KindChallengeReport)))
}

func TestRun_KilledAtChallenge(t *testing.T) {
	script := testutil.NewScripted().
		OnArtefact(artefact.KindOpportunityBrief, testutil.PassingBriefJSON()).
		OnArtefact(artefact.KindChallengeReport, testutil.ChallengeJSON(artefact.PositionFail, artefact.PositionPass))
	e := newTestEngine(t, script)

	res, err := e.RunStage(context.Background(), e.Start(repairCafes), repairCafes)
	require.NoError(t, err)
	assert.Empty(t, res.KillReason)

	s, err := e.Run(context.Background(), repairCafes)
	require.NoError(t, err)

	assert.Equal(t, decision.StatusKilled, s.Status)
	assert.Equal(t, 1, s.StageIndex)
	assert.Equal(t, decision.StageChallenge, s.CurrentStage)
	assert.Contains(t, s.KillReason, "Ethical Boundary Guardian")
	assert.Equal(t, []string{
		decision.ActionStageRecorded, decision.ActionAdvanced,
		decision.ActionGateFailed, decision.ActionKilled,
	}, actions(s))
	assert.Zero(t, script.CallsWithSystem(string(artefact.KindPrototypeSpec)))
}

func TestRunStage_ReportsKillReason(t *testing.T) {
	script := testutil.NewScripted().
		OnArtefact(artefact.KindOpportunityBrief, testutil.BriefJSON(9, 2, 9, 9, 9, 9))
	e := newTestEngine(t, script)

	res, err := e.RunStage(context.Background(), e.Start(repairCafes), repairCafes)
	require.NoError(t, err)
	assert.Contains(t, res.KillReason, "extractive")
	assert.Equal(t, decision.StatusActive, res.State.Status, "RunStage records but does not kill")
	assert.Contains(t, res.Transcript, "## Round 2")
}

func TestRunStage_TopicFollowsPriorArtefact(t *testing.T) {
	script := passingScript()
	e := newTestEngine(t, script)

	s := e.Start(Input{Title: "Working title"})
	res, err := e.RunStage(context.Background(), s, Input{Title: "Working title"})
	require.NoError(t, err)
	assert.Equal(t, "Working title", res.Session.Topic)

	s = decision.AdvanceToNextStage(res.State)
	res, err = e.RunStage(context.Background(), s, Input{Title: "Working title"})
	require.NoError(t, err)
	assert.Equal(t, "Community repair cafe network", res.Session.Topic)
	assert.Contains(t, res.Session.Context, "opportunity_brief:")
	assert.Len(t, res.Session.Rounds, 3)
}

func TestRunStage_DoneStateUnchanged(t *testing.T) {
	script := testutil.NewScripted()
	e := newTestEngine(t, script)
	s := decision.ForceKill(e.Start(repairCafes), "stopped by operator")

	res, err := e.RunStage(context.Background(), s, repairCafes)
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(s, res.State))
	assert.Empty(t, script.Calls())
}

func TestRunStage_SynthesisErrors(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		check func(t *testing.T, err error)
	}{
		{
			name:  "no json",
			reply: "The panel could not agree on anything.",
			check: func(t *testing.T, err error) {
				var ee *llm.ExtractionError
				assert.ErrorAs(t, err, &ee)
			},
		},
		{
			name:  "schema mismatch",
			reply: "```json\n{\"title\": \"Half a brief\"}\n```",
			check: func(t *testing.T, err error) {
				var se *llm.SchemaError
				assert.ErrorAs(t, err, &se)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			script := testutil.NewScripted().OnArtefact(artefact.KindOpportunityBrief, tt.reply)
			e := newTestEngine(t, script)
			start := e.Start(repairCafes)

			res, err := e.RunStage(context.Background(), start, repairCafes)
			require.Error(t, err)
			assert.True(t, IsSynthesisError(err))
			assert.False(t, IsGenerationError(err))
			tt.check(t, err)
			assert.Empty(t, cmp.Diff(start, res.State), "state unchanged")
		})
	}
}

func TestRunStage_MissingPersona(t *testing.T) {
	e := New(testutil.NewScripted(),
		WithCache(persona.NewCache(t.TempDir())),
		WithLogger(logging.Discard()),
	)

	_, err := e.RunStage(context.Background(), e.Start(repairCafes), repairCafes)
	require.Error(t, err)
	assert.True(t, IsPersonaLoadError(err))
	assert.True(t, persona.IsNotFound(err))
	assert.Contains(t, err.Error(), "PERSONA_LOAD")
	assert.Contains(t, err.Error(), "(stage=propose)")
}

func TestRun_ResumesAfterGenerationFailure(t *testing.T) {
	boom := &llm.APIError{StatusCode: 529, Type: "overloaded_error", Message: "overloaded"}
	completer := &flaky{next: passingScript(), match: "You are Red Team Strategist", n: 1, err: boom}
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	e := newTestEngine(t, completer, WithStore(st))
	ctx := context.Background()

	s, err := e.Run(ctx, repairCafes)
	require.Error(t, err)
	assert.True(t, IsGenerationError(err))
	assert.ErrorIs(t, err, boom)

	// Last good state: propose recorded and advanced, challenge untouched.
	assert.Equal(t, decision.StatusActive, s.Status)
	assert.Equal(t, decision.StageChallenge, s.CurrentStage)
	assert.Nil(t, s.Artefacts.Challenge)

	saved, err := st.LoadRun(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, actions(s), actions(saved))

	final, err := e.Resume(ctx, saved, repairCafes)
	require.NoError(t, err)
	assert.Equal(t, decision.StatusPassed, final.Status)

	trail, err := st.AuditTrail(ctx, s.ID)
	require.NoError(t, err)
	assert.Len(t, trail, len(final.Audit))
}

func TestResume_AdvancesRecordedStageWithoutRerunning(t *testing.T) {
	script := passingScript()
	e := newTestEngine(t, script)
	ctx := context.Background()

	res, err := e.RunStage(ctx, e.Start(repairCafes), repairCafes)
	require.NoError(t, err)

	final, err := e.Resume(ctx, res.State, repairCafes)
	require.NoError(t, err)
	assert.Equal(t, decision.StatusPassed, final.Status)
	assert.Equal(t, 1, script.CallsWithSystem(string(artefact.KindOpportunityBrief)))
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e := newTestEngine(t, passingScript())

	s, err := e.Run(ctx, repairCafes)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, s.Audit)
}

func TestWithRounds(t *testing.T) {
	script := passingScript()
	e := newTestEngine(t, script, WithRounds(decision.StagePropose, 1), WithRounds(decision.StageChallenge, 0))

	assert.Equal(t, 1, e.roundsFor(decision.StagePropose))
	assert.Equal(t, 3, e.roundsFor(decision.StageChallenge))

	res, err := e.RunStage(context.Background(), e.Start(repairCafes), repairCafes)
	require.NoError(t, err)
	assert.Len(t, res.Session.Rounds, 1)
}

func TestWithRecordDir(t *testing.T) {
	dir := t.TempDir()
	e := newTestEngine(t, passingScript(), WithRecordDir(dir))

	_, err := e.Run(context.Background(), repairCafes)
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 4)

	r, err := record.LoadFile(filepath.Join(dir, "run-1-challenge.yaml"))
	require.NoError(t, err)
	assert.Equal(t, record.KindDecision, r.Kind)
	assert.Equal(t, decision.StageChallenge, r.Stage)
	assert.Equal(t, decision.Proceed, r.Outcome)
	assert.Len(t, r.Participants, 4)
	assert.Len(t, r.Rounds, 3)
}

func TestWithRecordDir_KillOverridesGateOutcome(t *testing.T) {
	dir := t.TempDir()
	script := testutil.NewScripted().
		OnArtefact(artefact.KindOpportunityBrief, testutil.BriefJSON(9, 2, 9, 9, 9, 9))
	e := newTestEngine(t, script, WithRecordDir(dir))

	s, err := e.Run(context.Background(), repairCafes)
	require.NoError(t, err)
	require.Equal(t, decision.StatusKilled, s.Status)
	require.Equal(t, decision.Defer, s.Gate(decision.StagePropose).Decision)

	r, err := record.LoadFile(filepath.Join(dir, "run-1-propose.yaml"))
	require.NoError(t, err)
	assert.Equal(t, decision.Kill, r.Outcome)
}

func TestRuntimeError(t *testing.T) {
	cause := errors.New("boom")
	err := error(newRuntimeError(ErrCodeGeneration, decision.StageChallenge, "panel discussion failed", cause))

	assert.Equal(t, "GENERATION: panel discussion failed (stage=challenge): boom", err.Error())
	assert.ErrorIs(t, err, cause)

	wrapped := errors.Join(errors.New("outer"), err)
	assert.True(t, IsGenerationError(wrapped))
	assert.False(t, IsSynthesisError(wrapped))
	assert.False(t, IsPersonaLoadError(nil))
}
