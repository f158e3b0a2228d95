package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
)

// Operator is a console login account.
type Operator struct {
	bun.BaseModel `bun:"table:operators,alias:op"`

	ID           int64     `bun:"id,pk,autoincrement"`
	Username     string    `bun:"username,unique,notnull"`
	PasswordHash string    `bun:"password_hash,notnull"`
	CreatedAt    time.Time `bun:"created_at,notnull,default:current_timestamp"`
	UpdatedAt    time.Time `bun:"updated_at,notnull,default:current_timestamp"`
}

// Session is used by middleware and auth handlers.
type Session struct {
	bun.BaseModel `bun:"table:sessions,alias:s"`

	ID         string    `bun:"id,pk"`
	OperatorID int64     `bun:"operator_id,notnull"`
	Operator   Operator  `bun:"rel:belongs-to,join:operator_id=id"`
	ExpiresAt  time.Time `bun:"expires_at,notnull"`
	CreatedAt  time.Time `bun:"created_at,notnull,default:current_timestamp"`
}

// Expired returns true when the session expiry time has passed.
func (s Session) Expired() bool {
	return time.Now().After(s.ExpiresAt)
}

// LogEntry is one line of the operator audit trail. Entries are append-only.
type LogEntry struct {
	bun.BaseModel `bun:"table:log_entries,alias:le"`

	Seq       int64     `bun:"seq,pk"`
	Timestamp time.Time `bun:"logged_at,notnull"`
	OrderID   string    `bun:"order_id"`
	Message   string    `bun:"message,notnull"`
}

// OrderStatus is the console-side meaning of a backend status label.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusApproved  OrderStatus = "approved"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusDeleted   OrderStatus = "deleted"
	OrderStatusUnknown   OrderStatus = "unknown"
)

// OrderID accepts both JSON numbers and strings; the backend emits integer ids.
type OrderID string

func (id *OrderID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = OrderID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("order id: %w", err)
	}
	*id = OrderID(n.String())
	return nil
}

// DisplayValue is an order column shown as-is. Any JSON scalar decodes to its
// text; null decodes to ""; arrays and objects keep their raw JSON. A row with
// an odd value in one column still loads.
type DisplayValue string

func (v *DisplayValue) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*v = ""
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = DisplayValue(s)
	default:
		*v = DisplayValue(b)
	}
	return nil
}

func (v DisplayValue) String() string { return string(v) }

// Order is a read-only snapshot row of the backend orders table. Only id and
// status are interpreted by the console.
type Order struct {
	ID          OrderID      `json:"id"`
	StatusLabel string       `json:"status"`
	Status      OrderStatus  `json:"-"`
	Company     DisplayValue `json:"company"`
	ItemName    DisplayValue `json:"item_name"`
	Quantity    DisplayValue `json:"quantity"`
	OrderDate   DisplayValue `json:"order_date"`
	DueDate     DisplayValue `json:"due_date"`
	Contact     DisplayValue `json:"contact"`
	Price       DisplayValue `json:"price"`
	Note        DisplayValue `json:"note"`
}

// Pending reports whether approve/cancel may be offered for the order.
func (o Order) Pending() bool {
	return o.Status == OrderStatusPending
}

// Product is a row of the backend products table.
type Product struct {
	ItemCode    string `json:"item_code"`
	ProductName string `json:"product_name"`
	Brand       string `json:"brand"`
	Category    string `json:"category"`
	Color       string `json:"color"`
	Size        string `json:"size"`
	Stock       int    `json:"stock"`
}

// Slot is a shelf location registered on the backend.
type Slot struct {
	ID     string `json:"slot_id"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	W      int    `json:"w"`
	H      int    `json:"h"`
	Active bool   `json:"is_active"`
}
