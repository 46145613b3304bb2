package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// ExtractionError reports that no JSON value could be located in a completion.
type ExtractionError struct {
	Reason string
	Raw    string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract json: %s (response began %q)", e.Reason, preview(e.Raw, 80))
}

// SchemaError reports that extracted JSON did not satisfy the expected schema.
type SchemaError struct {
	JSON string
	Err  error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema validation: %v", e.Err)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

var fencePattern = regexp.MustCompile("(?s)```[a-zA-Z]*[ \t]*\r?\n?(.*?)```")

// ExtractJSON returns the JSON value carried by a completion. A fenced code
// block wins when it holds valid JSON; otherwise the whole text is tried,
// then the first balanced object or array embedded in prose.
func ExtractJSON(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", &ExtractionError{Reason: "empty response", Raw: text}
	}

	for _, m := range fencePattern.FindAllStringSubmatch(trimmed, -1) {
		inner := strings.TrimSpace(m[1])
		if json.Valid([]byte(inner)) {
			return inner, nil
		}
	}

	if json.Valid([]byte(trimmed)) && (trimmed[0] == '{' || trimmed[0] == '[') {
		return trimmed, nil
	}

	for start := 0; start < len(trimmed); start++ {
		if trimmed[start] != '{' && trimmed[start] != '[' {
			continue
		}
		end := balancedEnd(trimmed, start)
		if end < 0 {
			continue
		}
		candidate := trimmed[start : end+1]
		if json.Valid([]byte(candidate)) {
			return candidate, nil
		}
	}

	return "", &ExtractionError{Reason: "no JSON object or array found", Raw: text}
}

// balancedEnd returns the index of the bracket closing s[start], honouring
// string literals, or -1.
func balancedEnd(s string, start int) int {
	var stack []byte
	inString, escaped := false, false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) == 0 || stack[len(stack)-1] != c {
				return -1
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return i
			}
		}
	}
	return -1
}

// CompleteStructured runs a completion, extracts its JSON and validates it.
// Transport errors are returned unchanged, extraction failures as
// *ExtractionError and validator failures wrapped in *SchemaError.
func CompleteStructured[T any](ctx context.Context, c Completer, req Request, validate func([]byte) (T, error)) (T, error) {
	var zero T
	resp, err := c.Complete(ctx, req)
	if err != nil {
		return zero, err
	}
	raw, err := ExtractJSON(resp.Content)
	if err != nil {
		return zero, err
	}
	v, err := validate([]byte(raw))
	if err != nil {
		return zero, &SchemaError{JSON: raw, Err: err}
	}
	return v, nil
}

// DecodeJSON is a validator that only checks the JSON decodes into T.
func DecodeJSON[T any](data []byte) (T, error) {
	var v T
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		return v, err
	}
	return v, nil
}

func preview(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
