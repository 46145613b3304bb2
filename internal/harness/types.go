package harness

import "github.com/victorycross/persona-x-sub000/internal/decision"

// AuditEvent is one audit entry as read back from the run store.
type AuditEvent struct {
	Seq    int    `json:"seq"`
	Stage  string `json:"stage"`
	Action string `json:"action"`
	Detail string `json:"detail"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every assertion held.
	Pass bool `json:"pass"`

	// Trace is the stored audit trail in sequence order.
	Trace []AuditEvent `json:"trace"`

	// Errors contains assertion failure messages.
	Errors []string `json:"errors,omitempty"`

	// State is the pipeline state the engine returned last.
	State decision.State `json:"state"`

	// RunError is the error from the final attempt, if any.
	RunError string `json:"run_error,omitempty"`

	// Attempts is 2 when the run was resumed.
	Attempts int `json:"attempts"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []AuditEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddAuditTrace appends a stored audit entry to the trace.
func (r *Result) AddAuditTrace(e decision.AuditEntry) {
	r.Trace = append(r.Trace, AuditEvent{
		Seq:    e.Seq,
		Stage:  string(e.Stage),
		Action: e.Action,
		Detail: e.Detail,
	})
}
