// Package record captures panel sessions as human-readable YAML records that
// can be saved, reloaded and diffed.
package record

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/victorycross/persona-x-sub000/internal/decision"
	"github.com/victorycross/persona-x-sub000/internal/panel"
	"github.com/victorycross/persona-x-sub000/internal/rubric"
)

// Kind says what produced a record.
type Kind string

const (
	KindPanel    Kind = "panel"
	KindDecision Kind = "decision"
)

// Participant is a persona's rubric as it stood when the session ran.
type Participant struct {
	ID     string         `yaml:"id"`
	Name   string         `yaml:"name"`
	Rubric rubric.Profile `yaml:"rubric"`
}

// Record is one saved session.
type Record struct {
	ID           string           `yaml:"id"`
	Kind         Kind             `yaml:"kind"`
	Topic        string           `yaml:"topic"`
	Context      string           `yaml:"context,omitempty"`
	Stage        decision.Stage   `yaml:"stage,omitempty"`
	Outcome      decision.Outcome `yaml:"outcome,omitempty"`
	CreatedAt    time.Time        `yaml:"created_at"`
	Participants []Participant    `yaml:"participants"`
	Rounds       []panel.Round    `yaml:"rounds"`
}

// Option configures FromSession.
type Option func(*Record)

// WithID sets the record id.
func WithID(id string) Option {
	return func(r *Record) { r.ID = id }
}

// WithStage marks the record as a decision-engine stage.
func WithStage(stage decision.Stage) Option {
	return func(r *Record) {
		r.Stage = stage
		r.Kind = KindDecision
	}
}

// WithOutcome sets the stage outcome.
func WithOutcome(o decision.Outcome) Option {
	return func(r *Record) { r.Outcome = o }
}

// At sets the creation time.
func At(t time.Time) Option {
	return func(r *Record) { r.CreatedAt = t }
}

// FromSession snapshots a panel session.
func FromSession(s panel.Session, opts ...Option) Record {
	r := Record{
		Kind:    KindPanel,
		Topic:   s.Topic,
		Context: s.Context,
		Rounds:  append([]panel.Round(nil), s.Rounds...),
	}
	for _, p := range s.Participants {
		r.Participants = append(r.Participants, Participant{ID: p.ID, Name: p.DisplayName(), Rubric: p.Rubric})
	}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// Participant returns the snapshot for id.
func (r Record) Participant(id string) (Participant, bool) {
	for _, p := range r.Participants {
		if p.ID == id {
			return p, true
		}
	}
	return Participant{}, false
}

// Save writes r as YAML.
func (r Record) Save(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode record %s: %w", r.ID, err)
	}
	return enc.Close()
}

// Load reads a record written by Save. Unknown fields are rejected.
func Load(rd io.Reader) (Record, error) {
	dec := yaml.NewDecoder(rd)
	dec.KnownFields(true)
	var r Record
	if err := dec.Decode(&r); err != nil {
		if errors.Is(err, io.EOF) {
			return Record{}, errors.New("decode record: empty document")
		}
		return Record{}, fmt.Errorf("decode record: %w", err)
	}
	if r.ID == "" {
		return Record{}, errors.New("decode record: id is required")
	}
	return r, nil
}

// SaveFile writes r to path, creating parent directories.
func SaveFile(path string, r Record) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create record dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create record file: %w", err)
	}
	if err := r.Save(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// LoadFile reads the record at path.
func LoadFile(path string) (Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return Record{}, fmt.Errorf("open record: %w", err)
	}
	defer f.Close()
	r, err := Load(f)
	if err != nil {
		return Record{}, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}
