package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/victorycross/persona-x-sub000/internal/decision"
)

// RunSummary is one row of ListRuns.
type RunSummary struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	Status       decision.Status `json:"status"`
	CurrentStage decision.Stage  `json:"current_stage"`
	StageIndex   int             `json:"stage_index"`
	KillReason   string          `json:"kill_reason,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	AuditEntries int             `json:"audit_entries"`
}

// LoadRun returns the stored state for id with its full audit trail.
// Returns ErrNotFound for an unknown id.
func (s *Store) LoadRun(ctx context.Context, id string) (decision.State, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT state FROM runs WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return decision.State{}, fmt.Errorf("load run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return decision.State{}, fmt.Errorf("load run %s: %w", id, err)
	}

	st, err := unmarshalState(data)
	if err != nil {
		return decision.State{}, fmt.Errorf("load run %s: %w", id, err)
	}
	st.Audit, err = s.AuditTrail(ctx, id)
	if err != nil {
		return decision.State{}, err
	}
	return st, nil
}

// ListRuns returns every run, oldest first.
func (s *Store) ListRuns(ctx context.Context) ([]RunSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.title, r.status, r.current_stage, r.stage_index, r.kill_reason, r.created_at,
			(SELECT COUNT(*) FROM audit_entries a WHERE a.run_id = r.id)
		FROM runs r
		ORDER BY r.created_at ASC, r.id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []RunSummary{}
	for rows.Next() {
		var (
			r       RunSummary
			status  string
			stage   string
			created string
		)
		if err := rows.Scan(&r.ID, &r.Title, &status, &stage, &r.StageIndex, &r.KillReason, &created, &r.AuditEntries); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.Status = decision.Status(status)
		r.CurrentStage = decision.Stage(stage)
		if r.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// AuditTrail returns the audit entries for id in seq order.
// Returns ErrNotFound for an unknown id.
func (s *Store) AuditTrail(ctx context.Context, id string) ([]decision.AuditEntry, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM runs WHERE id = ?`, id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("audit trail %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("audit trail %s: %w", id, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, stage, timestamp, action, detail, transcript, artefact_digest
		FROM audit_entries
		WHERE run_id = ?
		ORDER BY seq ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []decision.AuditEntry
	for rows.Next() {
		var (
			e     decision.AuditEntry
			stage string
			ts    string
		)
		if err := rows.Scan(&e.Seq, &stage, &ts, &e.Action, &e.Detail, &e.Transcript, &e.ArtefactDigest); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.Stage = decision.Stage(stage)
		if e.Timestamp, err = parseTime(ts); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return entries, nil
}

// IsNotFound reports whether err came from an unknown run id.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
