package depalletizer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"depalletconsole/infrastructure/backend"
	"depalletconsole/models"
)

// Dispatcher hands a task to the remote depalletizer controller.
type Dispatcher interface {
	StartDepalletizer(ctx context.Context, req backend.DispatchRequest) error
}

// Sink receives the operator-facing log lines of a run.
type Sink interface {
	Append(ctx context.Context, orderID, message string) models.LogEntry
}

// DefaultScanDelay is how long the simulated vision scan takes.
const DefaultScanDelay = 1500 * time.Millisecond

// Orchestrator runs scan, slot selection and dispatch for approved orders.
type Orchestrator struct {
	dispatcher Dispatcher
	sink       Sink
	slots      SlotProvider
	selector   SlotSelector
	scanDelay  time.Duration
	now        func() time.Time
	newID      func() uuid.UUID
}

type Option func(*Orchestrator)

func WithSlots(p SlotProvider) Option {
	return func(o *Orchestrator) { o.slots = p }
}

func WithSelector(s SlotSelector) Option {
	return func(o *Orchestrator) { o.selector = s }
}

func WithScanDelay(d time.Duration) Option {
	return func(o *Orchestrator) { o.scanDelay = d }
}

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

func New(dispatcher Dispatcher, sink Sink, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		dispatcher: dispatcher,
		sink:       sink,
		slots:      StaticSlots(DefaultSlots),
		selector:   NewRandomSelector(nil),
		scanDelay:  DefaultScanDelay,
		now:        time.Now,
		newID:      uuid.New,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run executes one task for orderID. It always returns a Result; a dispatch
// that cannot reach the controller degrades to a simulated run.
func (o *Orchestrator) Run(ctx context.Context, orderID string) Result {
	task := Task{
		ID:        o.newID(),
		OrderID:   orderID,
		StartedAt: o.now(),
	}

	task.States = append(task.States, StateScanning)
	o.log(ctx, orderID, "[System] order %s: starting shelf vision scan", orderID)
	wait(ctx, o.scanDelay)

	candidates := o.slots.Candidates(ctx)
	if len(candidates) == 0 {
		candidates = DefaultSlots
	}
	task.TargetSlot = o.selector.Select(candidates)
	task.States = append(task.States, StateSlotSelected)
	o.log(ctx, orderID, "[Vision] order %s: slot %s is empty, route from car computed", orderID, task.TargetSlot)

	task.States = append(task.States, StateDispatching)
	err := o.dispatcher.StartDepalletizer(ctx, backend.DispatchRequest{
		OrderID:    orderID,
		Action:     backend.ActionMoveFromCarToShelf,
		Source:     backend.SourceArduinoCar,
		TargetSlot: task.TargetSlot,
	})

	res := Result{Err: err}
	switch {
	case err == nil:
		task.Outcome = OutcomeDispatched
		task.States = append(task.States, StateDispatched)
		o.log(ctx, orderID, "[Server] order %s: depalletizer task dispatched (%s)", orderID, task.TargetSlot)
		res.Notice = fmt.Sprintf("Slot %s is empty; depalletizing started.", task.TargetSlot)

	case backend.KindOf(err) == backend.NetworkFailure:
		task.Outcome = OutcomeSimulated
		task.States = append(task.States, StateSimulatedFallback)
		o.log(ctx, orderID, "[Action] order %s: 1. car stop position confirmed", orderID)
		o.log(ctx, orderID, "[Action] order %s: 2. arm grips car payload (grip on)", orderID)
		o.log(ctx, orderID, "[Action] order %s: 3. arm moving to %s", orderID, task.TargetSlot)
		o.log(ctx, orderID, "[Action] order %s: 4. placement complete (grip off)", orderID)
		res.Notice = fmt.Sprintf("Simulation mode: slot %s detected empty; moving the car payload there.", task.TargetSlot)

	default:
		task.Outcome = OutcomeFailed
		task.States = append(task.States, StateFailed)
		o.log(ctx, orderID, "[Server] order %s: response error: %s", orderID, describe(err))
		res.Notice = fmt.Sprintf("Depalletizer rejected the task: %s", describe(err))
	}

	task.States = append(task.States, StateDone)
	task.FinishedAt = o.now()
	res.Task = task
	res.Outcome = task.Outcome
	return res
}

func (o *Orchestrator) log(ctx context.Context, orderID, format string, args ...any) {
	o.sink.Append(ctx, orderID, fmt.Sprintf(format, args...))
}

func describe(err error) string {
	var be *backend.Error
	if errors.As(err, &be) && be.Kind == backend.ServerRejected {
		return fmt.Sprintf("%d %s", be.StatusCode, http.StatusText(be.StatusCode))
	}
	return err.Error()
}

// wait blocks for d or until ctx is done.
func wait(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
