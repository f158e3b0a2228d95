package workflow

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"depalletconsole/infrastructure/depalletizer"
	"depalletconsole/infrastructure/notify"
	"depalletconsole/models"
)

// OrderBackend is the part of the backend client the controller needs.
type OrderBackend interface {
	FetchOrders(ctx context.Context) ([]models.Order, error)
	UpdateStatus(ctx context.Context, orderID, label string) error
	DeleteOrder(ctx context.Context, orderID string) error
}

// Runner runs the depalletizer for an approved order.
type Runner interface {
	Run(ctx context.Context, orderID string) depalletizer.Result
}

// Confirmer asks the operator a yes/no question before a destructive action.
type Confirmer interface {
	Confirm(ctx context.Context, orderID string) bool
}

// OutcomePublisher announces finished depalletizer runs.
type OutcomePublisher interface {
	PublishOutcome(ctx context.Context, ev notify.OutcomeEvent) error
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, orderID string) bool

func (f ConfirmFunc) Confirm(ctx context.Context, orderID string) bool {
	return f(ctx, orderID)
}
