package schema

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

// FieldError is a single violation at a dotted field path.
// Path is "$" when the violation applies to the whole document.
type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (e FieldError) String() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ValidationError reports every violation found for one document.
type ValidationError struct {
	Definition string       `json:"definition"`
	Errors     []FieldError `json:"errors"`
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.String()
	}
	return fmt.Sprintf("%s: %d validation error(s): %s", e.Definition, len(e.Errors), strings.Join(parts, "; "))
}

// Validator holds a compiled CUE source.
//
// cue.Context is not safe for concurrent use, so calls are serialised.
type Validator struct {
	mu   sync.Mutex
	ctx  *cue.Context
	root cue.Value
}

// New compiles src. name is used as the filename in CUE positions.
func New(name, src string) (*Validator, error) {
	ctx := cuecontext.New()
	root := ctx.CompileString(src, cue.Filename(name))
	if err := root.Err(); err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", name, err)
	}
	return &Validator{ctx: ctx, root: root}, nil
}

// MustNew is New for embedded sources known to be valid.
func MustNew(name, src string) *Validator {
	v, err := New(name, src)
	if err != nil {
		panic(err)
	}
	return v
}

// Validate checks data (a JSON document) against definition (e.g. "#Profile")
// and decodes it into out. It returns *ValidationError for schema violations
// and a plain error if the definition does not exist.
func (v *Validator) Validate(definition string, data []byte, out any) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	def := v.root.LookupPath(cue.ParsePath(definition))
	if !def.Exists() {
		return fmt.Errorf("schema: unknown definition %s", definition)
	}

	doc := v.ctx.CompileBytes(data, cue.Filename("document.json"))
	if err := doc.Err(); err != nil {
		return &ValidationError{
			Definition: definition,
			Errors:     []FieldError{{Path: "$", Message: fmt.Sprintf("not a valid JSON document: %v", err)}},
		}
	}

	unified := def.Unify(doc)
	if err := unified.Validate(cue.Concrete(true), cue.Final()); err != nil {
		return &ValidationError{Definition: definition, Errors: fieldErrors(err)}
	}

	if err := unified.Decode(out); err != nil {
		return &ValidationError{
			Definition: definition,
			Errors:     []FieldError{{Path: "$", Message: fmt.Sprintf("decode: %v", err)}},
		}
	}
	return nil
}

// fieldErrors flattens a CUE error list into deduplicated, path-sorted FieldErrors.
func fieldErrors(err error) []FieldError {
	seen := make(map[string]bool)
	var out []FieldError
	for _, e := range cueerrors.Errors(err) {
		format, args := e.Msg()
		fe := FieldError{Path: joinPath(e.Path()), Message: fmt.Sprintf(format, args...)}
		key := fe.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, fe)
	}
	if len(out) == 0 {
		out = append(out, FieldError{Path: "$", Message: err.Error()})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// joinPath drops definition selectors so paths read like document fields.
func joinPath(sel []string) string {
	parts := make([]string, 0, len(sel))
	for _, s := range sel {
		if strings.HasPrefix(s, "#") {
			continue
		}
		parts = append(parts, s)
	}
	if len(parts) == 0 {
		return "$"
	}
	return strings.Join(parts, ".")
}
