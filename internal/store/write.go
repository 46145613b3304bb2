package store

import (
	"context"
	"fmt"

	"github.com/victorycross/persona-x-sub000/internal/decision"
)

// SaveRun upserts the run header and appends any audit entries not yet
// stored. Entries are keyed by (run_id, seq); an entry already present is
// never rewritten, so saving the same state twice is a no-op.
func (s *Store) SaveRun(ctx context.Context, st decision.State) error {
	if st.ID == "" {
		return fmt.Errorf("save run: id is required")
	}
	data, digest, err := marshalState(st)
	if err != nil {
		return fmt.Errorf("save run %s: %w", st.ID, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save run %s: begin: %w", st.ID, err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, title, status, current_stage, stage_index, kill_reason, created_at, state, state_digest)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			status = excluded.status,
			current_stage = excluded.current_stage,
			stage_index = excluded.stage_index,
			kill_reason = excluded.kill_reason,
			state = excluded.state,
			state_digest = excluded.state_digest
	`,
		st.ID,
		st.Title,
		string(st.Status),
		string(st.CurrentStage),
		st.StageIndex,
		st.KillReason,
		formatTime(st.CreatedAt),
		data,
		digest,
	)
	if err != nil {
		return fmt.Errorf("save run %s: %w", st.ID, err)
	}

	for _, e := range st.Audit {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO audit_entries (run_id, seq, stage, timestamp, action, detail, transcript, artefact_digest)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(run_id, seq) DO NOTHING
		`,
			st.ID,
			e.Seq,
			string(e.Stage),
			formatTime(e.Timestamp),
			e.Action,
			e.Detail,
			e.Transcript,
			e.ArtefactDigest,
		)
		if err != nil {
			return fmt.Errorf("save run %s: audit entry %d: %w", st.ID, e.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save run %s: commit: %w", st.ID, err)
	}
	return nil
}
