package engine

import (
	"errors"
	"fmt"

	"github.com/victorycross/persona-x-sub000/internal/decision"
)

// RuntimeError represents a failure that aborted a stage run.
//
// Gate failures and kills are pipeline outcomes, not RuntimeErrors.
type RuntimeError struct {
	// Code identifies the error category.
	Code RuntimeErrorCode

	// Stage is the stage that was running.
	Stage decision.Stage

	// Message is a human-readable description.
	Message string

	// Err is the underlying cause.
	Err error
}

// RuntimeErrorCode categorizes runtime errors.
type RuntimeErrorCode string

const (
	// ErrCodePersonaLoad indicates a stage persona could not be resolved or failed validation.
	ErrCodePersonaLoad RuntimeErrorCode = "PERSONA_LOAD"

	// ErrCodeGeneration indicates a panel completion failed after retries.
	ErrCodeGeneration RuntimeErrorCode = "GENERATION"

	// ErrCodeSynthesis indicates the stage artefact could not be extracted or validated.
	ErrCodeSynthesis RuntimeErrorCode = "SYNTHESIS"
)

// Error implements the error interface.
func (e *RuntimeError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Stage != "" {
		msg = fmt.Sprintf("%s: %s (stage=%s)", e.Code, e.Message, e.Stage)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RuntimeError) Unwrap() error { return e.Err }

func hasCode(err error, code RuntimeErrorCode) bool {
	var re *RuntimeError
	if errors.As(err, &re) {
		return re.Code == code
	}
	return false
}

// IsPersonaLoadError returns true if a stage could not load its personas.
// Uses errors.As to handle wrapped errors.
func IsPersonaLoadError(err error) bool { return hasCode(err, ErrCodePersonaLoad) }

// IsGenerationError returns true if a panel completion failed.
func IsGenerationError(err error) bool { return hasCode(err, ErrCodeGeneration) }

// IsSynthesisError returns true if the stage artefact was not produced.
func IsSynthesisError(err error) bool { return hasCode(err, ErrCodeSynthesis) }

func newRuntimeError(code RuntimeErrorCode, stage decision.Stage, msg string, err error) *RuntimeError {
	return &RuntimeError{Code: code, Stage: stage, Message: msg, Err: err}
}
