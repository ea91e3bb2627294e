package harness

import "github.com/azairamail/EASYAiPOS/internal/pos"

// TraceEvent is one entry of a run's trace: a dispatched action, or a
// policy request that was rejected.
type TraceEvent struct {
	Seq      int64    `json:"seq,omitempty"`
	Phase    string   `json:"phase"`
	Step     int      `json:"step"`
	Action   pos.Kind `json:"action,omitempty"`
	Policy   string   `json:"policy,omitempty"`
	Rejected string   `json:"rejected,omitempty"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every step behaved as expected and every assertion
	// held.
	Pass bool `json:"pass"`

	Trace  []TraceEvent `json:"trace"`
	Errors []string     `json:"errors,omitempty"`

	// Tickets are the kitchen tickets printed by place and print_kot steps,
	// in order.
	Tickets []string `json:"tickets,omitempty"`

	State pos.State `json:"-"`
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError records a failure.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
