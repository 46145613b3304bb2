// Package panel runs round-based discussions among personas.
//
// Turn-taking is strictly sequential within a round: each persona sees the
// messages of everyone who spoke before it in the same round. Sessions are
// values and rounds are only ever appended.
package panel

import (
	"fmt"
	"slices"
	"strings"

	"github.com/victorycross/persona-x-sub000/internal/persona"
	"github.com/victorycross/persona-x-sub000/internal/rubric"
)

// DominantDimensionCount is how many rubric dimensions are attributed to each message.
const DominantDimensionCount = 2

// Message is one persona contribution.
type Message struct {
	PersonaID          string             `json:"persona_id" yaml:"persona_id"`
	Name               string             `json:"name" yaml:"name"`
	Content            string             `json:"content" yaml:"content"`
	DominantDimensions []rubric.Dimension `json:"dominant_dimensions" yaml:"dominant_dimensions"`
	Errored            bool               `json:"errored,omitempty" yaml:"errored,omitempty"`
}

// Round is one completed round.
type Round struct {
	Number   int       `json:"number" yaml:"number"`
	Messages []Message `json:"messages" yaml:"messages"`
	Summary  string    `json:"summary" yaml:"summary"`
}

// Config describes a panel to create.
type Config struct {
	Topic        string
	Context      string
	Participants []persona.Persona
}

// Session is a panel and the rounds it has completed.
type Session struct {
	Topic         string            `json:"topic" yaml:"topic"`
	Context       string            `json:"context" yaml:"context"`
	Participants  []persona.Persona `json:"participants" yaml:"participants"`
	SystemPrompts map[string]string `json:"-" yaml:"-"`
	Rounds        []Round           `json:"rounds" yaml:"rounds"`
}

// NewSession precomputes one system prompt per participant.
func NewSession(cfg Config) Session {
	prompts := make(map[string]string, len(cfg.Participants))
	for _, p := range cfg.Participants {
		prompts[p.ID] = persona.SystemPrompt(p)
	}
	return Session{
		Topic:         cfg.Topic,
		Context:       cfg.Context,
		Participants:  slices.Clone(cfg.Participants),
		SystemPrompts: prompts,
	}
}

// AddRound returns a session with r appended.
func AddRound(s Session, r Round) Session {
	s.Rounds = append(slices.Clip(s.Rounds), r)
	return s
}

// Participant returns the participant with id.
func (s Session) Participant(id string) (persona.Persona, bool) {
	for _, p := range s.Participants {
		if p.ID == id {
			return p, true
		}
	}
	return persona.Persona{}, false
}

// DetermineSpeakingOrder sorts by intervention_frequency, highest first.
// Ties keep their input order.
func DetermineSpeakingOrder(personas []persona.Persona) []persona.Persona {
	out := slices.Clone(personas)
	slices.SortStableFunc(out, func(a, b persona.Persona) int {
		return b.InterventionFrequency() - a.InterventionFrequency()
	})
	return out
}

// ShouldPersonaContribute applies the participation rule: frequent
// interveners (8+) always speak, mid-range (4-7) on round one and even
// rounds, and quiet personas (1-3) only on round one.
func ShouldPersonaContribute(p persona.Persona, round, totalRounds int) bool {
	f := p.InterventionFrequency()
	switch {
	case f >= 8:
		return true
	case f >= 4:
		return round == 1 || round%2 == 0
	default:
		return round == 1
	}
}

// Contributors returns the participants who speak in round, in speaking order.
func Contributors(s Session, round, totalRounds int) []persona.Persona {
	var out []persona.Persona
	for _, p := range DetermineSpeakingOrder(s.Participants) {
		if ShouldPersonaContribute(p, round, totalRounds) {
			out = append(out, p)
		}
	}
	return out
}

// Transcript renders every round for synthesis and audit.
func Transcript(s Session) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Topic: %s\n", s.Topic)
	for _, r := range s.Rounds {
		fmt.Fprintf(&b, "\n## Round %d\n", r.Number)
		for _, m := range r.Messages {
			fmt.Fprintf(&b, "\n[%s]\n%s\n", m.Name, strings.TrimSpace(m.Content))
		}
		if r.Summary != "" {
			fmt.Fprintf(&b, "\nRound %d summary: %s\n", r.Number, strings.TrimSpace(r.Summary))
		}
	}
	return b.String()
}
