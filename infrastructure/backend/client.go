package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"depalletconsole/infrastructure/metrics"
	"depalletconsole/models"
)

const maxErrorBody = 4 << 10

// Dispatch constants understood by the depalletizer controller.
const (
	ActionMoveFromCarToShelf = "move_from_car_to_shelf"
	SourceArduinoCar         = "arduino_car"
)

// DispatchRequest is the body of a depalletizer start call.
type DispatchRequest struct {
	OrderID    string `json:"order_id"`
	Action     string `json:"action"`
	Source     string `json:"source"`
	TargetSlot string `json:"target_slot"`
}

// Client talks to the inventory/order backend. It never retries.
type Client struct {
	baseURL         string
	http            *http.Client
	requestTimeout  time.Duration
	dispatchTimeout time.Duration
	now             func() time.Time
}

// Option configures a Client.
type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

func WithDispatchTimeout(d time.Duration) Option {
	return func(cl *Client) { cl.dispatchTimeout = d }
}

func WithClock(now func() time.Time) Option {
	return func(cl *Client) { cl.now = now }
}

// NewClient creates a client for baseURL. requestTimeout bounds every call
// except StartDepalletizer, which uses the dispatch timeout.
func NewClient(baseURL string, requestTimeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL:         strings.TrimRight(baseURL, "/"),
		http:            &http.Client{},
		requestTimeout:  requestTimeout,
		dispatchTimeout: 5 * time.Second,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchOrders lists every order. The whole list is returned or nothing.
func (c *Client) FetchOrders(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	if err := c.getJSON(ctx, "fetch_orders", "/api/orders", true, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// FetchProducts lists every product.
func (c *Client) FetchProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := c.getJSON(ctx, "fetch_products", "/api/products", true, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// FetchSlots lists the shelf slots registered on the backend.
func (c *Client) FetchSlots(ctx context.Context) ([]models.Slot, error) {
	var slots []models.Slot
	if err := c.getJSON(ctx, "fetch_slots", "/api/slots", false, &slots); err != nil {
		return nil, err
	}
	return slots, nil
}

// UpdateStatus writes a status label for orderID.
func (c *Client) UpdateStatus(ctx context.Context, orderID, label string) error {
	body := struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}{orderID, label}
	return c.postJSON(ctx, "update_status", "/api/order/update_status", c.requestTimeout, body)
}

// DeleteOrder removes orderID on the backend.
func (c *Client) DeleteOrder(ctx context.Context, orderID string) error {
	body := struct {
		ID string `json:"id"`
	}{orderID}
	return c.postJSON(ctx, "delete_order", "/api/order/delete", c.requestTimeout, body)
}

// StartDepalletizer hands a task to the remote controller.
func (c *Client) StartDepalletizer(ctx context.Context, req DispatchRequest) error {
	return c.postJSON(ctx, "start_depalletizer", "/api/depalletizer/start", c.dispatchTimeout, req)
}

func (c *Client) getJSON(ctx context.Context, op, path string, bust bool, out any) error {
	if bust {
		path += "?_t=" + strconv.FormatInt(c.now().UnixNano(), 10)
	}
	ctx, cancel := withTimeout(ctx, c.requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return c.fail(op, &Error{Kind: NetworkFailure, Op: op, Err: err})
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.do(op, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.fail(op, &Error{Kind: NetworkFailure, Op: op, Err: err})
	}
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return c.fail(op, &Error{Kind: DecodeFailure, Op: op, StatusCode: resp.StatusCode, Err: errors.New("null body")})
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return c.fail(op, &Error{Kind: DecodeFailure, Op: op, StatusCode: resp.StatusCode, Err: err})
	}
	metrics.BackendRequests.WithLabelValues(op, "ok").Inc()
	return nil
}

func (c *Client) postJSON(ctx context.Context, op, path string, timeout time.Duration, body any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%s: encode body: %w", op, err)
	}
	ctx, cancel := withTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return c.fail(op, &Error{Kind: NetworkFailure, Op: op, Err: err})
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(op, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	metrics.BackendRequests.WithLabelValues(op, "ok").Inc()
	return nil
}

// do sends req and turns transport errors and non-2xx answers into *Error.
func (c *Client) do(op string, req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.BackendLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, c.fail(op, &Error{Kind: NetworkFailure, Op: op, Err: err})
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, c.fail(op, &Error{
			Kind:       ServerRejected,
			Op:         op,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		})
	}
	return resp, nil
}

func (c *Client) fail(op string, err *Error) error {
	metrics.BackendRequests.WithLabelValues(op, kindLabel(err.Kind)).Inc()
	return err
}

func kindLabel(k ErrorKind) string {
	switch k {
	case NetworkFailure:
		return "network"
	case ServerRejected:
		return "rejected"
	case DecodeFailure:
		return "decode"
	}
	return "unknown"
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
