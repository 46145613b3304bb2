package artefact

// Weights are expressed in hundredths so the weighted sum stays integral.
var compositeWeights = []struct {
	Name   string
	Weight int
	score  func(DimensionScores) int
}{
	{"problem_severity", 20, func(d DimensionScores) int { return d.ProblemSeverity.Score }},
	{"societal_benefit", 20, func(d DimensionScores) int { return d.SocietalBenefit.Score }},
	{"market_viability", 20, func(d DimensionScores) int { return d.MarketViability.Score }},
	{"persona_x_fit", 20, func(d DimensionScores) int { return d.PersonaXFit.Score }},
	{"defensibility", 10, func(d DimensionScores) int { return d.Defensibility.Score }},
	{"execution_complexity", 10, func(d DimensionScores) int { return d.ExecutionComplexity.Score }},
}

// CalculateCompositeScore returns Σ(score×weight) rounded half-up to one
// decimal place. Integer arithmetic keeps the result exact.
func CalculateCompositeScore(d DimensionScores) float64 {
	hundredths := 0
	for _, w := range compositeWeights {
		hundredths += w.score(d) * w.Weight
	}
	tenths := (hundredths + 5) / 10
	return float64(tenths) / 10
}

// NamedScore is a dimension score with its key and display label.
type NamedScore struct {
	Key   string
	Label string
	Score int
}

var dimensionLabels = map[string]string{
	"problem_severity":     "Problem severity",
	"societal_benefit":     "Societal benefit",
	"market_viability":     "Market viability",
	"persona_x_fit":        "Persona-x fit",
	"defensibility":        "Defensibility",
	"execution_complexity": "Execution complexity",
}

// Named returns the six dimension scores in fixed order.
func (d DimensionScores) Named() []NamedScore {
	out := make([]NamedScore, len(compositeWeights))
	for i, w := range compositeWeights {
		out[i] = NamedScore{Key: w.Name, Label: dimensionLabels[w.Name], Score: w.score(d)}
	}
	return out
}
