package artefact

// Kind names one of the four artefact shapes.
type Kind string

const (
	KindOpportunityBrief Kind = "opportunity_brief"
	KindChallengeReport  Kind = "challenge_report"
	KindPrototypeSpec    Kind = "prototype_spec"
	KindDeliveryPlan     Kind = "delivery_plan"
)

// Artefact is implemented by the four stage artefacts.
type Artefact interface {
	Kind() Kind
	Heading() string
}

// DimensionScore is one scored axis of an opportunity brief.
type DimensionScore struct {
	Score     int    `json:"score" yaml:"score"`
	Rationale string `json:"rationale" yaml:"rationale"`
}

// DimensionScores holds the six opportunity dimensions.
type DimensionScores struct {
	ProblemSeverity     DimensionScore `json:"problem_severity" yaml:"problem_severity"`
	SocietalBenefit     DimensionScore `json:"societal_benefit" yaml:"societal_benefit"`
	MarketViability     DimensionScore `json:"market_viability" yaml:"market_viability"`
	PersonaXFit         DimensionScore `json:"persona_x_fit" yaml:"persona_x_fit"`
	Defensibility       DimensionScore `json:"defensibility" yaml:"defensibility"`
	ExecutionComplexity DimensionScore `json:"execution_complexity" yaml:"execution_complexity"`
}

// OpportunityBrief is the Propose stage artefact.
type OpportunityBrief struct {
	Title            string          `json:"title" yaml:"title"`
	Summary          string          `json:"summary" yaml:"summary"`
	ProblemStatement string          `json:"problem_statement" yaml:"problem_statement"`
	TargetUsers      string          `json:"target_users" yaml:"target_users"`
	ProposedSolution string          `json:"proposed_solution" yaml:"proposed_solution"`
	DimensionScores  DimensionScores `json:"dimension_scores" yaml:"dimension_scores"`
	CompositeScore   float64         `json:"composite_score" yaml:"composite_score"`
	KeyAssumptions   []string        `json:"key_assumptions" yaml:"key_assumptions"`
	Recommendation   string          `json:"recommendation,omitempty" yaml:"recommendation,omitempty"`
}

func (OpportunityBrief) Kind() Kind        { return KindOpportunityBrief }
func (b OpportunityBrief) Heading() string { return b.Title }

// Severity grades a challenge-stage risk.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// RiskStatus tracks whether a risk has been dealt with.
type RiskStatus string

const (
	RiskUnresolved RiskStatus = "unresolved"
	RiskMitigated  RiskStatus = "mitigated"
	RiskAccepted   RiskStatus = "accepted"
)

// Risk is one risk raised during the Challenge stage.
type Risk struct {
	ID          string     `json:"id,omitempty" yaml:"id,omitempty"`
	Description string     `json:"description" yaml:"description"`
	Category    string     `json:"category,omitempty" yaml:"category,omitempty"`
	Severity    Severity   `json:"severity" yaml:"severity"`
	Status      RiskStatus `json:"status" yaml:"status"`
	Mitigation  string     `json:"mitigation,omitempty" yaml:"mitigation,omitempty"`
	RaisedBy    string     `json:"raised_by,omitempty" yaml:"raised_by,omitempty"`
}

// Position is a challenge persona's closing verdict.
type Position string

const (
	PositionPass        Position = "pass"
	PositionConditional Position = "conditional"
	PositionFail        Position = "fail"
)

// FinalPosition records one persona's closing verdict and why.
type FinalPosition struct {
	Position  Position `json:"position" yaml:"position"`
	Rationale string   `json:"rationale" yaml:"rationale"`
}

// Persona ids whose final positions the Challenge gate reads.
const (
	EthicalBoundaryGuardian = "ethical_boundary_guardian"
	ScepticalInvestor       = "sceptical_investor"
)

// ChallengeReport is the Challenge stage artefact.
type ChallengeReport struct {
	Title          string                   `json:"title" yaml:"title"`
	Summary        string                   `json:"summary" yaml:"summary"`
	Risks          []Risk                   `json:"risks" yaml:"risks"`
	FinalPositions map[string]FinalPosition `json:"final_positions" yaml:"final_positions"`
	OpenQuestions  []string                 `json:"open_questions,omitempty" yaml:"open_questions,omitempty"`
}

func (ChallengeReport) Kind() Kind        { return KindChallengeReport }
func (r ChallengeReport) Heading() string { return r.Title }

// PositionOf returns the final position for persona id, or "" if none was given.
func (r ChallengeReport) PositionOf(id string) Position {
	return r.FinalPositions[id].Position
}

// Feature is one prototype capability.
type Feature struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Priority    string `json:"priority" yaml:"priority"`
}

// SuccessMetric is a measurable prototype outcome.
type SuccessMetric struct {
	Metric string `json:"metric" yaml:"metric"`
	Target string `json:"target" yaml:"target"`
}

// PrototypeSpec is the Prototype stage artefact.
type PrototypeSpec struct {
	Title             string          `json:"title" yaml:"title"`
	Summary           string          `json:"summary" yaml:"summary"`
	Hypothesis        string          `json:"hypothesis" yaml:"hypothesis"`
	CoreFeatures      []Feature       `json:"core_features" yaml:"core_features"`
	SuccessMetrics    []SuccessMetric `json:"success_metrics" yaml:"success_metrics"`
	AssumptionsToTest []string        `json:"assumptions_to_test" yaml:"assumptions_to_test"`
	OutOfScope        []string        `json:"out_of_scope,omitempty" yaml:"out_of_scope,omitempty"`
	TimeboxWeeks      int             `json:"timebox_weeks" yaml:"timebox_weeks"`
}

func (PrototypeSpec) Kind() Kind        { return KindPrototypeSpec }
func (s PrototypeSpec) Heading() string { return s.Title }

// ReadinessStatus is a delivery role's launch verdict.
type ReadinessStatus string

const (
	Ready            ReadinessStatus = "ready"
	ReadyConditional ReadinessStatus = "conditional"
	NotReady         ReadinessStatus = "not_ready"
)

// Readiness is one role's assessment.
type Readiness struct {
	Status    ReadinessStatus `json:"status" yaml:"status"`
	Rationale string          `json:"rationale" yaml:"rationale"`
}

// ReadinessAssessments holds the four Execute stage readiness roles.
type ReadinessAssessments struct {
	DeliveryRealist       Readiness `json:"delivery_realist" yaml:"delivery_realist"`
	RiskSentinel          Readiness `json:"risk_sentinel" yaml:"risk_sentinel"`
	MarketEntryStrategist Readiness `json:"market_entry_strategist" yaml:"market_entry_strategist"`
	OperationsScaler      Readiness `json:"operations_scaler" yaml:"operations_scaler"`
}

// Roles returns (role id, readiness) pairs in fixed order.
func (r ReadinessAssessments) Roles() []RoleReadiness {
	return []RoleReadiness{
		{Role: "delivery_realist", Readiness: r.DeliveryRealist},
		{Role: "risk_sentinel", Readiness: r.RiskSentinel},
		{Role: "market_entry_strategist", Readiness: r.MarketEntryStrategist},
		{Role: "operations_scaler", Readiness: r.OperationsScaler},
	}
}

// RoleReadiness pairs a readiness role with its assessment.
type RoleReadiness struct {
	Role      string
	Readiness Readiness
}

// Milestone is one delivery checkpoint.
type Milestone struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	TargetWeek  int    `json:"target_week" yaml:"target_week"`
}

// DeliveryPlan is the Execute stage artefact.
type DeliveryPlan struct {
	Title          string               `json:"title" yaml:"title"`
	Summary        string               `json:"summary" yaml:"summary"`
	Milestones     []Milestone          `json:"milestones" yaml:"milestones"`
	Readiness      ReadinessAssessments `json:"readiness" yaml:"readiness"`
	LaunchCriteria []string             `json:"launch_criteria" yaml:"launch_criteria"`
	AcceptedRisks  []string             `json:"accepted_risks,omitempty" yaml:"accepted_risks,omitempty"`
}

func (DeliveryPlan) Kind() Kind        { return KindDeliveryPlan }
func (p DeliveryPlan) Heading() string { return p.Title }
