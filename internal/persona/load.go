package persona

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/victorycross/persona-x-sub000/internal/schema"
)

// ErrNotFound is wrapped by LoadError when a persona id resolves to no file.
var ErrNotFound = errors.New("persona file not found")

// DraftSuffix names a partially populated persona kept for manual
// refinement. Drafts are not personas and LoadDir skips them.
const DraftSuffix = ".draft.yaml"

// LoadError reports a single persona file that could not be read or validated.
type LoadError struct {
	Path   string
	Err    error
	Fields []schema.FieldError
}

func (e *LoadError) Error() string {
	if len(e.Fields) > 0 {
		parts := make([]string, len(e.Fields))
		for i, fe := range e.Fields {
			parts[i] = fe.String()
		}
		return fmt.Sprintf("%s: invalid persona: %s", e.Path, strings.Join(parts, "; "))
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Decode parses a YAML persona document without validating it.
func Decode(data []byte) (Persona, error) {
	var p Persona
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Persona{}, err
	}
	return p, nil
}

// Encode renders p as YAML.
func Encode(p Persona) ([]byte, error) {
	return yaml.Marshal(p)
}

// LoadFile reads and validates the persona at path. A missing id is filled
// from the file name.
func LoadFile(path string) (Persona, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Persona{}, &LoadError{Path: path, Err: ErrNotFound}
		}
		return Persona{}, &LoadError{Path: path, Err: err}
	}
	p, err := Decode(data)
	if err != nil {
		return Persona{}, &LoadError{Path: path, Err: fmt.Errorf("parse yaml: %w", err)}
	}
	if p.ID == "" {
		p.ID = idFromPath(path)
	}
	if errs := Validate(p); len(errs) > 0 {
		return Persona{}, &LoadError{Path: path, Err: errors.New("validation failed"), Fields: errs}
	}
	return p, nil
}

// LoadDir loads every .yaml/.yml file in dir except drafts. Valid personas
// are returned in file-name order alongside one LoadError per invalid file.
func LoadDir(dir string) ([]Persona, []error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, []error{&LoadError{Path: dir, Err: err}}
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || strings.HasSuffix(e.Name(), DraftSuffix) {
			continue
		}
		switch filepath.Ext(e.Name()) {
		case ".yaml", ".yml":
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var personas []Persona
	var errs []error
	for _, name := range names {
		p, err := LoadFile(filepath.Join(dir, name))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		personas = append(personas, p)
	}
	return personas, errs
}

// WriteFile validates p and writes it as YAML.
func WriteFile(path string, p Persona) error {
	if errs := Validate(p); len(errs) > 0 {
		return &LoadError{Path: path, Err: errors.New("validation failed"), Fields: errs}
	}
	data, err := Encode(p)
	if err != nil {
		return fmt.Errorf("encode persona: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func idFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
