package testutil

// FixedRunIDs returns the same run id every time.
//
// The same scenario with the same FixedRunIDs produces byte-identical
// stored runs and session records.
type FixedRunIDs struct {
	id string
}

// NewFixedRunIDs creates a generator for id. An empty id becomes
// "test-run-default".
func NewFixedRunIDs(id string) *FixedRunIDs {
	if id == "" {
		id = "test-run-default"
	}
	return &FixedRunIDs{id: id}
}

// Generate returns the fixed id.
func (g *FixedRunIDs) Generate() string {
	return g.id
}
