package discovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/victorycross/persona-x-sub000/internal/llm"
)

// Asker poses a question to the operator and returns the answer.
type Asker interface {
	Ask(ctx context.Context, prompt string) (string, error)
}

// AskerFunc adapts a function to Asker.
type AskerFunc func(ctx context.Context, prompt string) (string, error)

// Ask calls f.
func (f AskerFunc) Ask(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Extraction is what an Extractor reads out of one answer.
type Extraction struct {
	Purpose string            `json:"purpose,omitempty"`
	Signals []ExtractedSignal `json:"signals"`
}

// Extractor turns a free-text answer into signals.
type Extractor interface {
	Extract(ctx context.Context, q Question, answer string) (Extraction, error)
}

// LLMExtractor asks the completion service to classify an answer.
type LLMExtractor struct {
	Completer llm.Completer
	MaxTokens int
}

const extractorSystem = `You classify interview answers about a panel persona.
Return only JSON of the form {"purpose": string, "signals": [{"signal": string, "value": string, "confidence": "high"|"medium"|"low"}]}.
Allowed signal names: risk_posture, evidence_standards, discomfort_triggers, deferral_preferences, communication_register.
Only report signals the answer actually expresses. Leave purpose empty unless the answer states what the persona is for.`

// Extract implements Extractor.
func (e LLMExtractor) Extract(ctx context.Context, q Question, answer string) (Extraction, error) {
	maxTokens := e.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	prompt := fmt.Sprintf("Question: %s\n\nAnswer: %s", q.Text, answer)
	return llm.CompleteStructured(ctx, e.Completer, llm.UserPrompt(extractorSystem, prompt, maxTokens, 0), ValidateExtraction)
}

// ValidateExtraction decodes and checks an extraction payload.
func ValidateExtraction(data []byte) (Extraction, error) {
	x, err := llm.DecodeJSON[Extraction](data)
	if err != nil {
		return Extraction{}, err
	}
	var errs []error
	for i, sig := range x.Signals {
		if !slices.Contains(PrioritySignals(), sig.Signal) {
			errs = append(errs, fmt.Errorf("signals[%d].signal: unknown signal %q", i, sig.Signal))
		}
		if sig.Confidence.rank() == 0 {
			errs = append(errs, fmt.Errorf("signals[%d].confidence: unknown confidence %q", i, sig.Confidence))
		}
		if strings.TrimSpace(sig.Value) == "" {
			errs = append(errs, fmt.Errorf("signals[%d].value: is required", i))
		}
	}
	if len(errs) > 0 {
		return Extraction{}, errors.Join(errs...)
	}
	return x, nil
}

// Interviewer drives discovery against an operator.
type Interviewer struct {
	Bank         Bank
	Asker        Asker
	Extractor    Extractor
	MaxQuestions int
	Logger       *slog.Logger
}

// Run asks questions until discovery is sufficient or the question limit
// is reached, and returns the completed state.
func (iv Interviewer) Run(ctx context.Context) (State, error) {
	bank := iv.Bank
	if bank == nil {
		bank = DefaultBank()
	}
	limit := iv.MaxQuestions
	if limit <= 0 {
		limit = 8
	}
	logger := iv.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := NewState()
	for range limit {
		if s.Phase == PhaseSufficient {
			break
		}
		q := bank.Next(s)
		answer, err := iv.Asker.Ask(ctx, q.Text)
		if err != nil {
			return s, fmt.Errorf("ask %s: %w", q.ID, err)
		}
		answer = strings.TrimSpace(answer)

		var x Extraction
		if answer != "" {
			x, err = iv.Extractor.Extract(ctx, q, answer)
			if err != nil {
				return s, fmt.Errorf("extract signals for %s: %w", q.ID, err)
			}
		}
		purpose := x.Purpose
		if q.ID == PurposeQuestionID {
			purpose = answer
		}
		s = bank.RecordAnswer(s, q.ID, purpose, x.Signals)
		logger.Debug("discovery answer recorded",
			"question", q.ID,
			"signals", len(x.Signals),
			"phase", s.Phase)
	}
	return Complete(s), nil
}
