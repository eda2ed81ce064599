package publish

import (
	"slices"

	"github.com/gorewood/echopost/internal/api"
)

// Phase is where the controller is in a publish.
type Phase int

// Phases. Idle is the only phase in which a new publish is accepted.
const (
	Idle Phase = iota
	Submitting
	Polling
	Cancelling
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case Submitting:
		return "submitting"
	case Polling:
		return "polling"
	case Cancelling:
		return "cancelling"
	default:
		return "idle"
	}
}

// OutcomeKind says how a publish ended.
type OutcomeKind int

// Outcome kinds.
const (
	// Succeeded: the job reported done with success.
	Succeeded OutcomeKind = iota + 1
	// Failed: the job reported error, or done without success.
	Failed
	// Cancelled: the job reported cancelled.
	Cancelled
	// Rejected: the server refused the submission or returned no job id.
	Rejected
	// TransportFailed: a request failed or the job could no longer be read.
	TransportFailed
)

// String returns the outcome name.
func (k OutcomeKind) String() string {
	switch k {
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	case Cancelled:
		return "cancelled"
	case Rejected:
		return "rejected"
	case TransportFailed:
		return "transport_failed"
	default:
		return "none"
	}
}

// Outcome is the terminal result of one publish.
type Outcome struct {
	Kind    OutcomeKind
	JobID   string
	Message string
}

// OK reports whether the publish succeeded.
func (o Outcome) OK() bool {
	return o.Kind == Succeeded
}

// State is a read-only snapshot of the controller.
type State struct {
	Phase Phase
	JobID string
	// Steps is the latest progress log, replaced wholesale on every poll.
	Steps []api.Step
	// Outcome is the result of the most recent publish, nil before the
	// first one finishes and while a new one is in flight.
	Outcome *Outcome
	// ProgressVisible is true from submission until dismissal.
	ProgressVisible bool
}

// CanSubmit reports whether Submit would be accepted.
func (s State) CanSubmit() bool {
	return s.Phase == Idle
}

// CanCancel reports whether Cancel would be accepted.
func (s State) CanCancel() bool {
	return s.Phase == Polling
}

func (s State) clone() State {
	s.Steps = slices.Clone(s.Steps)
	if s.Outcome != nil {
		o := *s.Outcome
		s.Outcome = &o
	}
	return s
}
