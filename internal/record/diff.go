package record

import (
	"fmt"
	"strings"

	"github.com/victorycross/persona-x-sub000/internal/rubric"
)

// RubricDelta is a score change for one persona and dimension.
type RubricDelta struct {
	Persona   string           `json:"persona" yaml:"persona"`
	Dimension rubric.Dimension `json:"dimension" yaml:"dimension"`
	From      int              `json:"from" yaml:"from"`
	To        int              `json:"to" yaml:"to"`
	Delta     int              `json:"delta" yaml:"delta"`
}

// Diff compares the participants of two records.
type Diff struct {
	OnlyInA []string      `json:"only_in_a" yaml:"only_in_a"`
	OnlyInB []string      `json:"only_in_b" yaml:"only_in_b"`
	Deltas  []RubricDelta `json:"deltas" yaml:"deltas"`
}

// Empty reports whether the two records had identical panels.
func (d Diff) Empty() bool {
	return len(d.OnlyInA) == 0 && len(d.OnlyInB) == 0 && len(d.Deltas) == 0
}

// Compare reports persona-set differences and, for personas present in both
// records, every rubric dimension whose score changed. Output follows a's
// participant order, then canonical dimension order.
func Compare(a, b Record) Diff {
	var d Diff
	for _, pa := range a.Participants {
		pb, ok := b.Participant(pa.ID)
		if !ok {
			d.OnlyInA = append(d.OnlyInA, pa.ID)
			continue
		}
		for _, dim := range rubric.Dimensions() {
			from, _ := pa.Rubric.Get(dim)
			to, _ := pb.Rubric.Get(dim)
			if from.Score != to.Score {
				d.Deltas = append(d.Deltas, RubricDelta{
					Persona:   pa.ID,
					Dimension: dim,
					From:      from.Score,
					To:        to.Score,
					Delta:     to.Score - from.Score,
				})
			}
		}
	}
	for _, pb := range b.Participants {
		if _, ok := a.Participant(pb.ID); !ok {
			d.OnlyInB = append(d.OnlyInB, pb.ID)
		}
	}
	return d
}

func (d Diff) String() string {
	if d.Empty() {
		return "No differences\n"
	}
	var b strings.Builder
	if len(d.OnlyInA) > 0 {
		fmt.Fprintf(&b, "Only in A: %s\n", strings.Join(d.OnlyInA, ", "))
	}
	if len(d.OnlyInB) > 0 {
		fmt.Fprintf(&b, "Only in B: %s\n", strings.Join(d.OnlyInB, ", "))
	}
	if len(d.Deltas) > 0 {
		b.WriteString("Rubric deltas:\n")
		for _, x := range d.Deltas {
			fmt.Fprintf(&b, "  %s.%s: %d -> %d (%+d)\n", x.Persona, x.Dimension, x.From, x.To, x.Delta)
		}
	}
	return b.String()
}
