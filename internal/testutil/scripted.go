package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/victorycross/persona-x-sub000/internal/llm"
)

// DefaultReply answers any request no rule matches.
const DefaultReply = "I have nothing further to add."

type rule struct {
	match   func(llm.Request) bool
	replies []string
	err     error
	served  int
}

// Scripted is a deterministic llm.Completer. Rules are checked in the order
// they were added; a rule's replies are served in sequence and the last one
// repeats. Unmatched requests get DefaultReply.
type Scripted struct {
	mu    sync.Mutex
	rules []*rule
	calls []llm.Request
}

// NewScripted returns an empty script.
func NewScripted() *Scripted {
	return &Scripted{}
}

// OnSystem replies when the system prompt contains substr.
func (s *Scripted) OnSystem(substr string, replies ...string) *Scripted {
	return s.add(&rule{match: systemContains(substr), replies: replies})
}

// OnPrompt replies when the first user message contains substr.
func (s *Scripted) OnPrompt(substr string, replies ...string) *Scripted {
	return s.add(&rule{match: func(r llm.Request) bool {
		return len(r.Messages) > 0 && strings.Contains(r.Messages[0].Content, substr)
	}, replies: replies})
}

// FailOnSystem returns err when the system prompt contains substr.
func (s *Scripted) FailOnSystem(substr string, err error) *Scripted {
	return s.add(&rule{match: systemContains(substr), err: err})
}

func (s *Scripted) add(r *rule) *Scripted {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = append(s.rules, r)
	return s
}

func systemContains(substr string) func(llm.Request) bool {
	return func(r llm.Request) bool { return strings.Contains(r.System, substr) }
}

// Complete implements llm.Completer.
func (s *Scripted) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, req)

	for _, r := range s.rules {
		if !r.match(req) {
			continue
		}
		if r.err != nil {
			return nil, r.err
		}
		if len(r.replies) == 0 {
			return nil, fmt.Errorf("scripted rule has no replies")
		}
		i := min(r.served, len(r.replies)-1)
		r.served++
		return &llm.Response{Content: r.replies[i], StopReason: "end_turn"}, nil
	}
	return &llm.Response{Content: DefaultReply, StopReason: "end_turn"}, nil
}

// Calls returns every request seen so far.
func (s *Scripted) Calls() []llm.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]llm.Request(nil), s.calls...)
}

// CallsWithSystem counts requests whose system prompt contains substr.
func (s *Scripted) CallsWithSystem(substr string) int {
	n := 0
	for _, c := range s.Calls() {
		if strings.Contains(c.System, substr) {
			n++
		}
	}
	return n
}
