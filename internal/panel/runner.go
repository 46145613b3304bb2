package panel

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/victorycross/persona-x-sub000/internal/llm"
	"github.com/victorycross/persona-x-sub000/internal/persona"
	"github.com/victorycross/persona-x-sub000/internal/rubric"
)

// SummarySystemPrompt introduces the round summary call.
const SummarySystemPrompt = "You write the round summary for a panel discussion. " +
	"In three or four sentences, state where the panel agrees, where it disagrees, and what remains open. " +
	"Do not add views of your own."

// ErrorStandIn replaces a message whose completion failed when the runner
// continues past persona errors.
const ErrorStandIn = "[no response: generation failed]"

// Runner drives rounds through a completion service.
type Runner struct {
	Completer   llm.Completer
	MaxTokens   int
	Temperature float64
	// ContinueOnPersonaError records a stand-in message instead of
	// aborting the round when a persona's completion fails.
	ContinueOnPersonaError bool
	Logger                 *slog.Logger
}

func (r Runner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

func (r Runner) maxTokens() int {
	if r.MaxTokens > 0 {
		return r.MaxTokens
	}
	return 1024
}

// RunRound runs round n of totalRounds and returns the session with the
// round appended. On error or cancellation the partial round is discarded
// and s is returned unchanged.
func (r Runner) RunRound(ctx context.Context, s Session, n, totalRounds int) (Session, error) {
	round := Round{Number: n}

	for _, p := range Contributors(s, n, totalRounds) {
		if err := ctx.Err(); err != nil {
			return s, err
		}
		req := llm.Request{
			System:      s.SystemPrompts[p.ID],
			Messages:    []llm.Message{{Role: llm.RoleUser, Content: turnPrompt(s, round, p, totalRounds)}},
			MaxTokens:   r.maxTokens(),
			Temperature: r.Temperature,
		}
		msg := Message{
			PersonaID:          p.ID,
			Name:               p.DisplayName(),
			DominantDimensions: rubric.Dominant(p.Rubric, DominantDimensionCount),
		}

		resp, err := r.Completer.Complete(ctx, req)
		switch {
		case err == nil:
			msg.Content = strings.TrimSpace(resp.Content)
		case ctx.Err() != nil:
			return s, ctx.Err()
		case r.ContinueOnPersonaError:
			r.logger().Warn("persona completion failed, recording stand-in",
				"persona", p.ID, "round", n, "error", err)
			msg.Content = ErrorStandIn
			msg.Errored = true
		default:
			return s, fmt.Errorf("round %d: persona %s: %w", n, p.ID, err)
		}
		round.Messages = append(round.Messages, msg)
	}

	if len(round.Messages) > 0 {
		resp, err := r.Completer.Complete(ctx, llm.Request{
			System:      SummarySystemPrompt,
			Messages:    []llm.Message{{Role: llm.RoleUser, Content: summaryPrompt(s.Topic, round)}},
			MaxTokens:   r.maxTokens() / 2,
			Temperature: r.Temperature,
		})
		if err != nil {
			return s, fmt.Errorf("round %d: summary: %w", n, err)
		}
		round.Summary = strings.TrimSpace(resp.Content)
	}

	return AddRound(s, round), nil
}

// RunRounds runs rounds 1..total.
func (r Runner) RunRounds(ctx context.Context, s Session, total int) (Session, error) {
	for n := 1; n <= total; n++ {
		var err error
		s, err = r.RunRound(ctx, s, n, total)
		if err != nil {
			return s, err
		}
		r.logger().Debug("panel round complete", "topic", s.Topic, "round", n, "messages", len(s.Rounds[len(s.Rounds)-1].Messages))
	}
	return s, nil
}

// turnPrompt gives p the topic, earlier round summaries and what has been
// said so far in the current round.
func turnPrompt(s Session, current Round, p persona.Persona, totalRounds int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Topic: %s\n", s.Topic)
	if s.Context != "" {
		fmt.Fprintf(&b, "\nContext:\n%s\n", s.Context)
	}
	for _, prev := range s.Rounds {
		if prev.Summary != "" {
			fmt.Fprintf(&b, "\nRound %d summary: %s\n", prev.Number, prev.Summary)
		}
	}
	fmt.Fprintf(&b, "\nThis is round %d of %d.\n", current.Number, totalRounds)
	if len(current.Messages) > 0 {
		b.WriteString("\nSo far this round:\n")
		for _, m := range current.Messages {
			fmt.Fprintf(&b, "\n[%s]\n%s\n", m.Name, m.Content)
		}
	}
	fmt.Fprintf(&b, "\nRespond as %s.", p.DisplayName())
	return b.String()
}

func summaryPrompt(topic string, round Round) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Topic: %s\nRound %d messages:\n", topic, round.Number)
	for _, m := range round.Messages {
		fmt.Fprintf(&b, "\n[%s]\n%s\n", m.Name, m.Content)
	}
	return b.String()
}
