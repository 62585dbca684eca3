package harness

// TraceEvent records one performed operation and its outcome.
type TraceEvent struct {
	Seq    int64                  `json:"seq"`
	Action string                 `json:"action"` // "article.save", "blog.get", "exec", ...
	Args   map[string]interface{} `json:"args,omitempty"`
	Result map[string]interface{} `json:"result,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall scenario success.
	// True if every expect clause and assertion holds.
	Pass bool `json:"pass"`

	// Trace contains all performed operations in order.
	// Used for trace assertions and golden comparison.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for scenario execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends an operation to the trace. Seq counts from 1.
func (r *Result) AddTrace(action string, args, result map[string]interface{}) {
	r.Trace = append(r.Trace, TraceEvent{
		Seq:    int64(len(r.Trace) + 1),
		Action: action,
		Args:   args,
		Result: result,
	})
}
