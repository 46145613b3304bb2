// Package artefact defines the four Decision Engine stage artefacts and the
// validators that turn untyped generative output into typed values.
package artefact

import (
	_ "embed"
	"fmt"

	"github.com/victorycross/persona-x-sub000/internal/canon"
	"github.com/victorycross/persona-x-sub000/internal/schema"
)

//go:embed schema.cue
var schemaCUE string

var validator = schema.MustNew("schema.cue", schemaCUE)

// definitionFor maps a kind to its CUE definition.
var definitionFor = map[Kind]string{
	KindOpportunityBrief: "#OpportunityBrief",
	KindChallengeReport:  "#ChallengeReport",
	KindPrototypeSpec:    "#PrototypeSpec",
	KindDeliveryPlan:     "#DeliveryPlan",
}

// ParseOpportunityBrief validates data and recomputes the composite score
// from the dimension scores. The generative composite is never trusted.
func ParseOpportunityBrief(data []byte) (OpportunityBrief, error) {
	var b OpportunityBrief
	if err := validator.Validate(definitionFor[KindOpportunityBrief], data, &b); err != nil {
		return OpportunityBrief{}, err
	}
	b.CompositeScore = CalculateCompositeScore(b.DimensionScores)
	return b, nil
}

// ParseChallengeReport validates data as a ChallengeReport.
func ParseChallengeReport(data []byte) (ChallengeReport, error) {
	var r ChallengeReport
	if err := validator.Validate(definitionFor[KindChallengeReport], data, &r); err != nil {
		return ChallengeReport{}, err
	}
	return r, nil
}

// ParsePrototypeSpec validates data as a PrototypeSpec.
func ParsePrototypeSpec(data []byte) (PrototypeSpec, error) {
	var s PrototypeSpec
	if err := validator.Validate(definitionFor[KindPrototypeSpec], data, &s); err != nil {
		return PrototypeSpec{}, err
	}
	return s, nil
}

// ParseDeliveryPlan validates data as a DeliveryPlan.
func ParseDeliveryPlan(data []byte) (DeliveryPlan, error) {
	var p DeliveryPlan
	if err := validator.Validate(definitionFor[KindDeliveryPlan], data, &p); err != nil {
		return DeliveryPlan{}, err
	}
	return p, nil
}

// Parse validates data as the artefact of the given kind.
func Parse(kind Kind, data []byte) (Artefact, error) {
	switch kind {
	case KindOpportunityBrief:
		return ParseOpportunityBrief(data)
	case KindChallengeReport:
		return ParseChallengeReport(data)
	case KindPrototypeSpec:
		return ParsePrototypeSpec(data)
	case KindDeliveryPlan:
		return ParseDeliveryPlan(data)
	}
	return nil, fmt.Errorf("artefact: unknown kind %q", kind)
}

// Digest returns the canonical content digest of an artefact.
func Digest(a Artefact) (string, error) {
	return canon.Digest(canon.DomainArtefact, a)
}
