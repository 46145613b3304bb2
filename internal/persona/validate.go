package persona

import (
	"fmt"
	"strings"

	"github.com/victorycross/persona-x-sub000/internal/rubric"
	"github.com/victorycross/persona-x-sub000/internal/schema"
)

// Validate checks every required section. It reports all violations.
func Validate(p Persona) []schema.FieldError {
	var errs []schema.FieldError
	req := func(path, value string) {
		if strings.TrimSpace(value) == "" {
			errs = append(errs, schema.FieldError{Path: path, Message: "is required"})
		}
	}
	nonEmpty := func(path string, values []string) {
		if len(values) == 0 {
			errs = append(errs, schema.FieldError{Path: path, Message: "must list at least one entry"})
		}
	}

	req("id", p.ID)
	req("name", p.Name)
	req("purpose.description", p.Purpose.Description)
	nonEmpty("purpose.invoke_when", p.Purpose.InvokeWhen)
	req("panel_role.contribution", p.PanelRole.Contribution)
	req("panel_role.expected_value", p.PanelRole.ExpectedValue)
	nonEmpty("panel_role.failure_modes_surfaced", p.PanelRole.FailureModesSurfaced)

	for _, fe := range rubric.Validate(p.Rubric) {
		errs = append(errs, schema.FieldError{Path: "rubric." + fe.Path, Message: fe.Message})
	}

	nonEmpty("reasoning.default_assumptions", p.Reasoning.DefaultAssumptions)

	switch p.Interaction.PrimaryMode {
	case ModeQuestionsOnly, ModeMixed, ModeAssertions:
	default:
		errs = append(errs, schema.FieldError{
			Path:    "interaction.primary_mode",
			Message: fmt.Sprintf("unknown mode %q", p.Interaction.PrimaryMode),
		})
	}
	switch p.Interaction.ChallengeStrength {
	case StrengthGentle, StrengthModerate, StrengthStrong, StrengthForceful:
	default:
		errs = append(errs, schema.FieldError{
			Path:    "interaction.challenge_strength",
			Message: fmt.Sprintf("unknown strength %q", p.Interaction.ChallengeStrength),
		})
	}

	nonEmpty("boundaries.will_not_engage", p.Boundaries.WillNotEngage)
	nonEmpty("boundaries.will_not_claim", p.Boundaries.WillNotClaim)

	return errs
}
