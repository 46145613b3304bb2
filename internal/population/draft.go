package population

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/victorycross/persona-x-sub000/internal/persona"
)

// Draft is a persona that could not be finalised, kept so the operator can
// fill the flagged sections by hand instead of repeating the interview.
type Draft struct {
	Persona         persona.Persona   `yaml:"persona"`
	NeedsRefinement []persona.Section `yaml:"needs_refinement,omitempty"`
	Problems        []string          `yaml:"problems,omitempty"`
	Records         []Record          `yaml:"records,omitempty"`
}

// NewDraft captures s with its outstanding validation problems.
func NewDraft(s State) Draft {
	d := Draft{
		Persona:         s.Persona,
		NeedsRefinement: s.NeedsRefinement,
		Records:         s.Records,
	}
	for _, e := range persona.Validate(s.Persona) {
		d.Problems = append(d.Problems, e.String())
	}
	return d
}

// DraftPath derives the draft file name from a persona output path:
// personas/scout.yaml becomes personas/scout.draft.yaml.
func DraftPath(out string) string {
	for _, ext := range []string{".yaml", ".yml"} {
		if strings.HasSuffix(out, ext) {
			return strings.TrimSuffix(out, ext) + persona.DraftSuffix
		}
	}
	return out + persona.DraftSuffix
}

// SaveDraft writes d as YAML.
func SaveDraft(path string, d Draft) error {
	data, err := yaml.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadDraft reads a draft written by SaveDraft.
func LoadDraft(path string) (Draft, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Draft{}, err
	}
	var d Draft
	if err := yaml.Unmarshal(data, &d); err != nil {
		return Draft{}, fmt.Errorf("parse draft %s: %w", path, err)
	}
	return d, nil
}
