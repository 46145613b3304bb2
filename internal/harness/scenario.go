package harness

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/victorycross/persona-x-sub000/internal/artefact"
	"github.com/victorycross/persona-x-sub000/internal/decision"
	"github.com/victorycross/persona-x-sub000/internal/engine"
	"github.com/victorycross/persona-x-sub000/internal/testutil"
)

// Scenario defines a decision engine conformance scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// RunID is the fixed run id. Defaults to "test-run-default".
	RunID string `yaml:"run_id,omitempty"`

	// Opportunity is the engine input.
	Opportunity engine.Input `yaml:"opportunity"`

	// Stages scripts the synthesis reply per stage.
	Stages map[decision.Stage]StageScript `yaml:"stages,omitempty"`

	// Resume, when set, is laid over Stages for a second attempt after an abort.
	Resume map[decision.Stage]StageScript `yaml:"resume,omitempty"`

	// Rounds overrides panel round counts per stage.
	Rounds map[decision.Stage]int `yaml:"rounds,omitempty"`

	// Assertions validate the audit trail and final state.
	Assertions []Assertion `yaml:"assertions"`
}

// StageScript is the scripted synthesis reply for one stage. At most one
// field is set; an empty script answers with a passing artefact.
type StageScript struct {
	Scores    []int                      `yaml:"scores,omitempty"`
	Positions []artefact.Position        `yaml:"positions,omitempty"`
	Readiness []artefact.ReadinessStatus `yaml:"readiness,omitempty"`
	Reply     any                        `yaml:"reply,omitempty"`
	Raw       string                     `yaml:"raw,omitempty"`
	Error     string                     `yaml:"error,omitempty"`
}

func (s StageScript) forms() []string {
	var set []string
	if s.Scores != nil {
		set = append(set, "scores")
	}
	if s.Positions != nil {
		set = append(set, "positions")
	}
	if s.Readiness != nil {
		set = append(set, "readiness")
	}
	if s.Reply != nil {
		set = append(set, "reply")
	}
	if s.Raw != "" {
		set = append(set, "raw")
	}
	if s.Error != "" {
		set = append(set, "error")
	}
	return set
}

// reply renders the completion text for stage.
func (s StageScript) reply(stage decision.Stage) (string, error) {
	switch {
	case s.Scores != nil:
		return testutil.BriefJSON(s.Scores...), nil
	case s.Positions != nil:
		return testutil.ChallengeJSON(s.Positions[0], s.Positions[1]), nil
	case s.Readiness != nil:
		return testutil.DeliveryJSON(s.Readiness...), nil
	case s.Reply != nil:
		data, err := json.Marshal(s.Reply)
		if err != nil {
			return "", fmt.Errorf("%s reply: %w", stage, err)
		}
		return string(data), nil
	case s.Raw != "":
		return s.Raw, nil
	}
	return passingReply(stage), nil
}

func passingReply(stage decision.Stage) string {
	switch stage {
	case decision.StagePropose:
		return testutil.PassingBriefJSON()
	case decision.StageChallenge:
		return testutil.ChallengeJSON(artefact.PositionPass, artefact.PositionConditional)
	case decision.StagePrototype:
		return testutil.PrototypeJSON()
	}
	return testutil.DeliveryJSON(artefact.Ready, artefact.ReadyConditional, artefact.Ready, artefact.Ready)
}

// Assertion validates the audit trail or final state.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Stage narrows audit_contains and selects the gate for gate assertions.
	Stage decision.Stage `yaml:"stage,omitempty"`

	// Action is the audit action (audit_contains, audit_count).
	Action string `yaml:"action,omitempty"`

	// Detail is a substring of the audit detail or the run error.
	Detail string `yaml:"detail,omitempty"`

	// Count is the expected number of occurrences (audit_count).
	Count int `yaml:"count,omitempty"`

	// Actions is the expected action order (audit_order).
	Actions []string `yaml:"actions,omitempty"`

	// Expect holds expected field values (final_state, gate). Subset match.
	Expect map[string]any `yaml:"expect,omitempty"`
}

// Assertion type constants.
const (
	AssertAuditContains = "audit_contains"
	AssertAuditOrder    = "audit_order"
	AssertAuditCount    = "audit_count"
	AssertFinalState    = "final_state"
	AssertGate          = "gate"
	AssertRunError      = "run_error"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// LoadScenarios loads every .yaml file in dir in name order.
func LoadScenarios(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	out := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
		}
		out = append(out, s)
	}
	return out, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Opportunity.Title == "" {
		return fmt.Errorf("opportunity.title is required")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for _, block := range []struct {
		name    string
		scripts map[decision.Stage]StageScript
	}{{"stages", s.Stages}, {"resume", s.Resume}} {
		for stage, script := range block.scripts {
			if err := validateScript(stage, script); err != nil {
				return fmt.Errorf("%s.%s: %w", block.name, stage, err)
			}
		}
	}

	for stage, n := range s.Rounds {
		if stage.Index() < 0 {
			return fmt.Errorf("rounds: unknown stage %q", stage)
		}
		if n < 1 {
			return fmt.Errorf("rounds.%s: must be at least 1, got %d", stage, n)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

func validateScript(stage decision.Stage, s StageScript) error {
	if stage.Index() < 0 {
		return fmt.Errorf("unknown stage")
	}
	forms := s.forms()
	if len(forms) > 1 {
		return fmt.Errorf("only one of %v may be set", forms)
	}
	switch {
	case s.Scores != nil && stage != decision.StagePropose:
		return fmt.Errorf("scores only apply to propose")
	case s.Scores != nil && len(s.Scores) != 6:
		return fmt.Errorf("scores needs six values, got %d", len(s.Scores))
	case s.Positions != nil && stage != decision.StageChallenge:
		return fmt.Errorf("positions only apply to challenge")
	case s.Positions != nil && len(s.Positions) != 2:
		return fmt.Errorf("positions needs two values, got %d", len(s.Positions))
	case s.Readiness != nil && stage != decision.StageExecute:
		return fmt.Errorf("readiness only applies to execute")
	case s.Readiness != nil && len(s.Readiness) != 4:
		return fmt.Errorf("readiness needs four values, got %d", len(s.Readiness))
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertAuditContains:
		if a.Action == "" {
			return fmt.Errorf("assertions[%d]: action is required for audit_contains", index)
		}
	case AssertAuditOrder:
		if len(a.Actions) == 0 {
			return fmt.Errorf("assertions[%d]: actions list is required for audit_order", index)
		}
	case AssertAuditCount:
		if a.Action == "" {
			return fmt.Errorf("assertions[%d]: action is required for audit_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for audit_count", index)
		}
	case AssertFinalState:
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_state", index)
		}
	case AssertGate:
		if a.Stage.Index() < 0 {
			return fmt.Errorf("assertions[%d]: a valid stage is required for gate", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for gate", index)
		}
	case AssertRunError:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
