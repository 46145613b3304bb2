package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/victorycross/persona-x-sub000/internal/record"
	"github.com/victorycross/persona-x-sub000/internal/testutil"
)

func writeRecord(t *testing.T, dir, id string, ids ...string) string {
	t.Helper()
	r := record.Record{ID: id, Kind: record.KindPanel, Topic: "Tool library", CreatedAt: testutil.Epoch}
	for i, pid := range ids {
		p := testutil.Persona(pid, 3+i)
		r.Participants = append(r.Participants, record.Participant{ID: p.ID, Name: p.Name, Rubric: p.Rubric})
	}
	path := filepath.Join(dir, id+".yaml")
	require.NoError(t, record.SaveFile(path, r))
	return path
}

func TestRecordDiffText(t *testing.T) {
	env := newCLIEnv(t)
	a := writeRecord(t, env.dir, "a", "framer", "sceptic")
	b := writeRecord(t, env.dir, "b", "sceptic", "framer", "scout")

	out, code := env.run(t, nil, "record", "diff", a, b)

	require.Equal(t, ExitSuccess, code, out)
	assert.Contains(t, out, "A: a (Tool library)")
	assert.Contains(t, out, "Only in B: scout")
	assert.Contains(t, out, "Rubric deltas:")
	assert.Contains(t, out, "framer.intervention_frequency: 3 -> 4 (+1)")
	assert.Contains(t, out, "sceptic.intervention_frequency: 4 -> 3 (-1)")
}

func TestRecordDiffIdentical(t *testing.T) {
	env := newCLIEnv(t)
	a := writeRecord(t, env.dir, "a", "framer")

	out, code := env.run(t, nil, "record", "diff", a, a)

	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, out, "No differences")
}

func TestRecordDiffJSON(t *testing.T) {
	env := newCLIEnv(t)
	a := writeRecord(t, env.dir, "a", "framer")
	b := writeRecord(t, env.dir, "b", "scout")

	out, code := env.run(t, nil, "--format", "json", "record", "diff", a, b)
	require.Equal(t, ExitSuccess, code)

	var resp struct {
		Data record.Diff `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, []string{"framer"}, resp.Data.OnlyInA)
	assert.Equal(t, []string{"scout"}, resp.Data.OnlyInB)
}

func TestRecordDiffMissingFile(t *testing.T) {
	env := newCLIEnv(t)
	a := writeRecord(t, env.dir, "a", "framer")

	_, code := env.run(t, nil, "record", "diff", a, filepath.Join(env.dir, "nope.yaml"))
	assert.Equal(t, ExitCommandError, code)
}
