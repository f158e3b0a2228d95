package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// OutcomeEvent describes one finished depalletizer run.
type OutcomeEvent struct {
	TaskID     string    `json:"task_id"`
	OrderID    string    `json:"order_id"`
	TargetSlot string    `json:"target_slot"`
	Outcome    string    `json:"outcome"`
	Detail     string    `json:"detail,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Publisher announces depalletizer outcomes to other systems.
type Publisher interface {
	PublishOutcome(ctx context.Context, ev OutcomeEvent) error
	Close() error
}

// Noop drops every event.
type Noop struct{}

func (Noop) PublishOutcome(context.Context, OutcomeEvent) error { return nil }
func (Noop) Close() error                                      { return nil }

type channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQP publishes persistent JSON messages to a durable topic exchange with
// routing key depalletizer.<outcome>.
type AMQP struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       channel
	exchange string
}

// DialAMQP connects to url and declares exchange.
func DialAMQP(url, exchange string) (*AMQP, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}
	p, err := newAMQP(ch, exchange)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	p.conn = conn
	return p, nil
}

func newAMQP(ch channel, exchange string) (*AMQP, error) {
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return &AMQP{ch: ch, exchange: exchange}, nil
}

func (p *AMQP) PublishOutcome(ctx context.Context, ev OutcomeEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode outcome: %w", err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ch.PublishWithContext(ctx, p.exchange, "depalletizer."+ev.Outcome, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		ContentType:  "application/json",
		MessageId:    ev.TaskID,
		Body:         body,
	})
}

func (p *AMQP) Close() error {
	var errs []error
	if p.ch != nil {
		errs = append(errs, p.ch.Close())
	}
	if p.conn != nil {
		errs = append(errs, p.conn.Close())
	}
	return errors.Join(errs...)
}
