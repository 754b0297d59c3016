package remote

import "gradebook/internal/gradebook"

// Outcome is the terminal state of one remote call.
type Outcome string

const (
	OutcomeOK       Outcome = "ok"
	OutcomeFailed   Outcome = "failed"
	OutcomeNotFound Outcome = "not-found"
	// OutcomeUnknown means a push was delivered but its effect could not be confirmed.
	OutcomeUnknown Outcome = "unknown"
)

// Result is what a call produced. Data is set only by a successful Pull.
type Result struct {
	Outcome    Outcome
	HTTPStatus int
	Data       *gradebook.SyncPayload
}

// OK reports whether the remote side confirmed the call.
func (r Result) OK() bool { return r.Outcome == OutcomeOK }
