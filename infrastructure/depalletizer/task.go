package depalletizer

import (
	"time"

	"github.com/google/uuid"
)

// State is a step of a depalletizer run.
type State string

const (
	StateScanning          State = "scanning"
	StateSlotSelected      State = "slot_selected"
	StateDispatching       State = "dispatching"
	StateDispatched        State = "dispatched"
	StateSimulatedFallback State = "simulated_fallback"
	StateFailed            State = "failed"
	StateDone              State = "done"
)

// Outcome is how a run ended.
type Outcome string

const (
	OutcomeDispatched Outcome = "dispatched"
	OutcomeSimulated  Outcome = "simulated"
	OutcomeFailed     Outcome = "failed"
)

// Task is one depalletizer run for an approved order. It is never reused.
type Task struct {
	ID         uuid.UUID
	OrderID    string
	TargetSlot string
	Outcome    Outcome
	States     []State
	StartedAt  time.Time
	FinishedAt time.Time
}

// Result is the value returned by Run. Err carries the dispatch error for
// Simulated and Failed runs; Notice is the operator confirmation text.
type Result struct {
	Task    Task
	Outcome Outcome
	Notice  string
	Err     error
}

// Succeeded reports whether the operator should see a success-toned notice.
func (r Result) Succeeded() bool {
	return r.Outcome == OutcomeDispatched || r.Outcome == OutcomeSimulated
}
