package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/victorycross/persona-x-sub000/internal/artefact"
	"github.com/victorycross/persona-x-sub000/internal/decision"
	"github.com/victorycross/persona-x-sub000/internal/testutil"
)

// createTestStore creates a new file-backed store in a temp dir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// proposedRun returns a run that has passed the propose gate and advanced.
func proposedRun(t *testing.T, id string, created time.Time) decision.State {
	t.Helper()
	brief, err := artefact.ParseOpportunityBrief([]byte(testutil.PassingBriefJSON()))
	if err != nil {
		t.Fatalf("parse brief: %v", err)
	}
	s := decision.New(id, decision.CreatedAt(created))
	s = decision.RecordStageResult(s, decision.StagePropose, brief,
		decision.At(created.Add(time.Minute)), decision.WithTranscript("Topic: repair cafes"))
	return decision.AdvanceToNextStage(s, decision.At(created.Add(2*time.Minute)))
}
