package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v3"

	"depalletconsole/infrastructure/backend"
	"depalletconsole/infrastructure/cache"
	"depalletconsole/infrastructure/depalletizer"
	"depalletconsole/infrastructure/metrics"
	"depalletconsole/infrastructure/notify"
	"depalletconsole/models"
)

var (
	ErrOrderIDRequired = errors.New("order id is required")
	ErrDeclined        = errors.New("delete declined")
)

// Sink receives the operator-facing log lines.
type Sink interface {
	Append(ctx context.Context, orderID, message string) models.LogEntry
}

// Outcome is what an action reports back to the operator.
type Outcome struct {
	OrderID string
	Success bool
	Notice  string
	Run     *depalletizer.Result
	Err     error
}

// Controller loads orders and applies operator actions. Actions on one order
// run strictly one at a time: write, then run, then reload.
type Controller struct {
	backend   OrderBackend
	runner    Runner
	sink      Sink
	publisher OutcomePublisher
	labels    models.StatusLabels
	orders    *cache.Snapshot[models.Order]
	locks     *xsync.MapOf[string, *orderLock]
	now       func() time.Time

	approveRequiresWrite bool
}

type Option func(*Controller)

func WithPublisher(p OutcomePublisher) Option {
	return func(c *Controller) { c.publisher = p }
}

func WithStatusLabels(l models.StatusLabels) Option {
	return func(c *Controller) { c.labels = l }
}

// WithApproveRequiresStatusWrite skips the depalletizer run when the
// approved status could not be written.
func WithApproveRequiresStatusWrite(v bool) Option {
	return func(c *Controller) { c.approveRequiresWrite = v }
}

func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

func New(b OrderBackend, runner Runner, sink Sink, opts ...Option) *Controller {
	c := &Controller{
		backend:   b,
		runner:    runner,
		sink:      sink,
		publisher: notify.Noop{},
		labels:    models.DefaultStatusLabels(),
		orders:    cache.NewSnapshot[models.Order](),
		locks:     xsync.NewMapOf[string, *orderLock](),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Labels returns the configured status labels.
func (c *Controller) Labels() models.StatusLabels {
	return c.labels
}

// Orders returns the current snapshot without contacting the backend.
func (c *Controller) Orders() ([]models.Order, time.Time, bool) {
	return c.orders.Get()
}

// Load fetches every order and replaces the snapshot. On failure the
// previous snapshot is returned together with the error.
func (c *Controller) Load(ctx context.Context) ([]models.Order, error) {
	orders, err := c.backend.FetchOrders(ctx)
	if err != nil {
		slog.Warn("load orders failed", slog.Any("err", err))
		prev, _, _ := c.orders.Get()
		return prev, fmt.Errorf("load orders: %w", err)
	}
	c.labels.Resolve(orders)
	c.orders.Replace(orders, c.now())
	return orders, nil
}

// Approve writes the approved status, runs the depalletizer and reloads. The
// run still happens when the status write fails unless the controller was
// built WithApproveRequiresStatusWrite. Caller cancellation does not stop an
// approval once it has started.
func (c *Controller) Approve(ctx context.Context, orderID string) Outcome {
	if orderID = strings.TrimSpace(orderID); orderID == "" {
		return Outcome{Err: ErrOrderIDRequired, Notice: "Order id is required."}
	}
	ctx = context.WithoutCancel(ctx)
	unlock := c.lock(orderID)
	defer unlock()

	out := Outcome{OrderID: orderID}
	writeErr := c.writeStatus(ctx, "approve", orderID, models.OrderStatusApproved)
	if writeErr != nil && c.approveRequiresWrite {
		out.Err = writeErr
		out.Notice = noticeFor("Approve", orderID, writeErr)
		c.reload(ctx, &out)
		return out
	}

	res := c.runner.Run(ctx, orderID)
	out.Run = &res
	c.announce(ctx, res)

	out.Success = writeErr == nil && res.Succeeded()
	out.Err = errors.Join(writeErr, runError(res))
	if writeErr != nil {
		out.Notice = noticeFor("Approve", orderID, writeErr) + " " + res.Notice
	} else {
		out.Notice = res.Notice
	}
	c.reload(ctx, &out)
	return out
}

// Cancel writes the cancelled status and reloads.
func (c *Controller) Cancel(ctx context.Context, orderID string) Outcome {
	if orderID = strings.TrimSpace(orderID); orderID == "" {
		return Outcome{Err: ErrOrderIDRequired, Notice: "Order id is required."}
	}
	unlock := c.lock(orderID)
	defer unlock()

	out := Outcome{OrderID: orderID}
	if err := c.writeStatus(ctx, "cancel", orderID, models.OrderStatusCancelled); err != nil {
		out.Err = err
		out.Notice = noticeFor("Cancel", orderID, err)
	} else {
		out.Success = true
		out.Notice = fmt.Sprintf("Order %s cancelled.", orderID)
	}
	c.reload(ctx, &out)
	return out
}

// Delete removes the order after the operator confirms. A declined
// confirmation makes no backend call and no reload.
func (c *Controller) Delete(ctx context.Context, orderID string, confirm Confirmer) Outcome {
	if orderID = strings.TrimSpace(orderID); orderID == "" {
		return Outcome{Err: ErrOrderIDRequired, Notice: "Order id is required."}
	}
	if confirm == nil || !confirm.Confirm(ctx, orderID) {
		return Outcome{OrderID: orderID, Err: ErrDeclined, Notice: "Delete cancelled."}
	}
	unlock := c.lock(orderID)
	defer unlock()

	out := Outcome{OrderID: orderID}
	if err := c.backend.DeleteOrder(ctx, orderID); err != nil {
		metrics.RecordOrderAction("delete", false)
		slog.Warn("delete order failed", slog.String("order_id", orderID), slog.Any("err", err))
		out.Err = err
		out.Notice = noticeFor("Delete", orderID, err)
	} else {
		metrics.RecordOrderAction("delete", true)
		c.sink.Append(ctx, orderID, fmt.Sprintf("order %s deleted", orderID))
		out.Success = true
		out.Notice = fmt.Sprintf("Order %s deleted.", orderID)
	}
	c.reload(ctx, &out)
	return out
}

func (c *Controller) writeStatus(ctx context.Context, action, orderID string, status models.OrderStatus) error {
	label := c.labels.Label(status)
	if err := c.backend.UpdateStatus(ctx, orderID, label); err != nil {
		metrics.RecordOrderAction(action, false)
		slog.Warn("update order status failed", slog.String("order_id", orderID), slog.String("status", label), slog.Any("err", err))
		return err
	}
	metrics.RecordOrderAction(action, true)
	c.sink.Append(ctx, orderID, fmt.Sprintf("order %s status -> %s", orderID, label))
	return nil
}

func (c *Controller) announce(ctx context.Context, res depalletizer.Result) {
	metrics.RecordOutcome(string(res.Outcome))
	ev := notify.OutcomeEvent{
		TaskID:     res.Task.ID.String(),
		OrderID:    res.Task.OrderID,
		TargetSlot: res.Task.TargetSlot,
		Outcome:    string(res.Outcome),
		StartedAt:  res.Task.StartedAt,
		FinishedAt: res.Task.FinishedAt,
	}
	if res.Err != nil {
		ev.Detail = res.Err.Error()
	}
	if err := c.publisher.PublishOutcome(ctx, ev); err != nil {
		slog.Error("publish depalletizer outcome failed", slog.String("order_id", ev.OrderID), slog.Any("err", err))
	}
	if res.Outcome == depalletizer.OutcomeSimulated {
		slog.Info("depalletizer ran in simulation mode", slog.String("order_id", ev.OrderID), slog.Any("err", res.Err))
	}
}

func (c *Controller) reload(ctx context.Context, out *Outcome) {
	if _, err := c.Load(ctx); err != nil {
		out.Notice = strings.TrimSpace(out.Notice + " Order list could not be refreshed.")
	}
}

// orderLock serialises actions on one order. refs counts holders and
// waiters; the entry leaves the map when it drops to zero.
type orderLock struct {
	mu   sync.Mutex
	refs int
}

func (c *Controller) lock(orderID string) func() {
	l, _ := c.locks.Compute(orderID, func(l *orderLock, loaded bool) (*orderLock, bool) {
		if !loaded {
			l = &orderLock{}
		}
		l.refs++
		return l, false
	})
	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		c.locks.Compute(orderID, func(l *orderLock, loaded bool) (*orderLock, bool) {
			if !loaded {
				return nil, true
			}
			l.refs--
			return l, l.refs == 0
		})
	}
}

// runError is the run's error when it should reach the operator. A simulated
// fallback is a success.
func runError(res depalletizer.Result) error {
	if res.Outcome == depalletizer.OutcomeFailed {
		return res.Err
	}
	return nil
}

func noticeFor(action, orderID string, err error) string {
	var be *backend.Error
	if errors.As(err, &be) {
		switch be.Kind {
		case backend.NetworkFailure:
			return fmt.Sprintf("%s order %s failed: backend unreachable.", action, orderID)
		case backend.ServerRejected:
			if be.Body != "" {
				return fmt.Sprintf("%s order %s failed (server error %d): %s", action, orderID, be.StatusCode, be.Body)
			}
			return fmt.Sprintf("%s order %s failed (server error %d).", action, orderID, be.StatusCode)
		}
	}
	return fmt.Sprintf("%s order %s failed: %v", action, orderID, err)
}

// LoadNotice is the operator text for a failed Load.
func LoadNotice(err error) string {
	if errors.Is(err, backend.ErrNetwork) {
		return "Orders could not be loaded: backend unreachable. Showing the last loaded list."
	}
	return fmt.Sprintf("Orders could not be loaded: %v. Showing the last loaded list.", err)
}
