package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/victorycross/persona-x-sub000/internal/canon"
	"github.com/victorycross/persona-x-sub000/internal/decision"
)

// timeLayout keeps fractional seconds so reloaded timestamps compare equal.
const timeLayout = time.RFC3339Nano

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

// marshalState encodes a run without its audit trail, which lives in its
// own table. Canonical JSON keeps the stored text and its digest stable.
func marshalState(s decision.State) (data, digest string, err error) {
	s.Audit = nil
	raw, err := canon.Marshal(s)
	if err != nil {
		return "", "", fmt.Errorf("marshal state: %w", err)
	}
	sum, err := canon.Digest(canon.DomainState, s)
	if err != nil {
		return "", "", fmt.Errorf("digest state: %w", err)
	}
	return string(raw), sum, nil
}

func unmarshalState(data string) (decision.State, error) {
	var s decision.State
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		return decision.State{}, fmt.Errorf("unmarshal state: %w", err)
	}
	return s, nil
}
