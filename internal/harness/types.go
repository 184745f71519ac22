package harness

// Outcome cases recorded in TraceEvent.Case.
const (
	CaseRecord   = "record"
	CaseRecords  = "records"
	CaseRelation = "relation"
	CaseNone     = "none"
	CaseValue    = "value"
	CaseOK       = "ok"

	CaseNotFound         = "not_found"
	CaseNoMethod         = "no_method"
	CaseIDError          = "id_error"
	CaseUnknownAttribute = "unknown_attribute"
	CaseError            = "error"
)

// TraceEvent is one model call and its outcome.
type TraceEvent struct {
	Seq    int64  `json:"seq"`
	Invoke string `json:"invoke"`
	Args   []any  `json:"args,omitempty"`
	Case   string `json:"case"`

	// IDs are the ids of the returned records, for record, records and
	// relation outcomes.
	IDs []any `json:"ids,omitempty"`

	// Value is the result of count, pluck and other non-record calls.
	Value any `json:"value,omitempty"`

	// Error is the error message for error cases.
	Error string `json:"error,omitempty"`
}

// Result is the outcome of a scenario.
type Result struct {
	// Pass is true when every expect clause and assertion held.
	Pass bool `json:"pass"`

	// Trace holds one event per flow step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors lists failed expectations and assertions.
	Errors []string `json:"errors,omitempty"`

	// State holds each model's final records as attribute maps, keyed by
	// type name.
	State map[string][]map[string]any `json:"state,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
		State:  make(map[string][]map[string]any),
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends ev with the next sequence number.
func (r *Result) AddTrace(ev TraceEvent) TraceEvent {
	ev.Seq = int64(len(r.Trace) + 1)
	r.Trace = append(r.Trace, ev)
	return ev
}
