// Package rubric defines the six-dimension judgement profile carried by every
// persona, and its validation.
package rubric

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/victorycross/persona-x-sub000/internal/schema"
)

//go:embed rubric.cue
var rubricCUE string

var validator = schema.MustNew("rubric.cue", rubricCUE)

// Dimension names one of the six fixed rubric axes.
type Dimension string

const (
	RiskAppetite          Dimension = "risk_appetite"
	EvidenceThreshold     Dimension = "evidence_threshold"
	ToleranceForAmbiguity Dimension = "tolerance_for_ambiguity"
	InterventionFrequency Dimension = "intervention_frequency"
	EscalationBias        Dimension = "escalation_bias"
	DeliveryVsRigourBias  Dimension = "delivery_vs_rigour_bias"
)

// MinScore and MaxScore bound every dimension score.
const (
	MinScore   = 1
	MaxScore   = 10
	MinNoteLen = 10
)

// Dimensions returns the six dimensions in canonical order.
func Dimensions() []Dimension {
	return []Dimension{
		RiskAppetite,
		EvidenceThreshold,
		ToleranceForAmbiguity,
		InterventionFrequency,
		EscalationBias,
		DeliveryVsRigourBias,
	}
}

// Score is one dimension's integer score and interpretive note.
type Score struct {
	Score int    `json:"score" yaml:"score"`
	Note  string `json:"note" yaml:"note"`
}

// Profile is a complete rubric. All six dimensions are always present once
// validated.
type Profile struct {
	RiskAppetite          Score `json:"risk_appetite" yaml:"risk_appetite"`
	EvidenceThreshold     Score `json:"evidence_threshold" yaml:"evidence_threshold"`
	ToleranceForAmbiguity Score `json:"tolerance_for_ambiguity" yaml:"tolerance_for_ambiguity"`
	InterventionFrequency Score `json:"intervention_frequency" yaml:"intervention_frequency"`
	EscalationBias        Score `json:"escalation_bias" yaml:"escalation_bias"`
	DeliveryVsRigourBias  Score `json:"delivery_vs_rigour_bias" yaml:"delivery_vs_rigour_bias"`
}

// Get returns the score for d. ok is false for an unknown dimension.
func (p Profile) Get(d Dimension) (Score, bool) {
	switch d {
	case RiskAppetite:
		return p.RiskAppetite, true
	case EvidenceThreshold:
		return p.EvidenceThreshold, true
	case ToleranceForAmbiguity:
		return p.ToleranceForAmbiguity, true
	case InterventionFrequency:
		return p.InterventionFrequency, true
	case EscalationBias:
		return p.EscalationBias, true
	case DeliveryVsRigourBias:
		return p.DeliveryVsRigourBias, true
	}
	return Score{}, false
}

// Scores returns dimension -> score for all six dimensions.
func (p Profile) Scores() map[Dimension]int {
	out := make(map[Dimension]int, 6)
	for _, d := range Dimensions() {
		s, _ := p.Get(d)
		out[d] = s.Score
	}
	return out
}

// IsZero reports whether no dimension has been scored.
func (p Profile) IsZero() bool {
	return p == Profile{}
}

// Validate checks a typed profile. It returns every violation, not just the first.
func Validate(p Profile) []schema.FieldError {
	var errs []schema.FieldError
	for _, d := range Dimensions() {
		s, _ := p.Get(d)
		if s.Score < MinScore || s.Score > MaxScore {
			errs = append(errs, schema.FieldError{
				Path:    string(d) + ".score",
				Message: fmt.Sprintf("score %d out of range [%d,%d]", s.Score, MinScore, MaxScore),
			})
		}
		if utf8.RuneCountInString(strings.TrimSpace(s.Note)) < MinNoteLen {
			errs = append(errs, schema.FieldError{
				Path:    string(d) + ".note",
				Message: fmt.Sprintf("note must be at least %d characters", MinNoteLen),
			})
		}
	}
	return errs
}

// Parse validates a JSON rubric document and returns the typed profile.
// Missing dimensions, non-integer scores and short notes are all rejected.
func Parse(data []byte) (Profile, error) {
	var p Profile
	if err := validator.Validate("#Profile", data, &p); err != nil {
		return Profile{}, err
	}
	if errs := Validate(p); len(errs) > 0 {
		return Profile{}, &schema.ValidationError{Definition: "#Profile", Errors: errs}
	}
	return p, nil
}

// ParseMap validates an untyped object, e.g. one decoded from YAML or JSON.
func ParseMap(m map[string]any) (Profile, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return Profile{}, fmt.Errorf("rubric: encode: %w", err)
	}
	return Parse(data)
}

// CoherenceWarnings lists unusual but permitted score combinations.
// These are advisory and never cause validation to fail.
func CoherenceWarnings(p Profile) []string {
	var warnings []string
	if p.RiskAppetite.Score >= 8 && p.EvidenceThreshold.Score >= 8 {
		warnings = append(warnings, "high risk_appetite with high evidence_threshold is unusual: bold bets rarely clear a strict evidence bar")
	}
	if p.InterventionFrequency.Score >= 8 && p.EscalationBias.Score <= 2 {
		warnings = append(warnings, "high intervention_frequency with very low escalation_bias: frequent interjections that never escalate")
	}
	if p.DeliveryVsRigourBias.Score >= 8 && p.EvidenceThreshold.Score >= 8 {
		warnings = append(warnings, "strong delivery bias with high evidence_threshold pull in opposite directions")
	}
	if p.ToleranceForAmbiguity.Score <= 2 && p.RiskAppetite.Score >= 8 {
		warnings = append(warnings, "very low tolerance_for_ambiguity with high risk_appetite is rarely coherent")
	}
	return warnings
}

// Dominant returns up to n dimensions whose scores sit furthest from the
// scale midpoint. Ties keep canonical order.
func Dominant(p Profile, n int) []Dimension {
	dims := Dimensions()
	// distance from 5.5, doubled to stay in integers
	dist := func(d Dimension) int {
		s, _ := p.Get(d)
		v := 2*s.Score - 11
		if v < 0 {
			return -v
		}
		return v
	}
	sort.SliceStable(dims, func(i, j int) bool { return dist(dims[i]) > dist(dims[j]) })
	if n > len(dims) {
		n = len(dims)
	}
	if n < 0 {
		n = 0
	}
	return dims[:n]
}
