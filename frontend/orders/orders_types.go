package orders

import (
	"time"

	"depalletconsole/models"
)

// PageData is rendered by OrdersPage.
type PageData struct {
	Orders   []models.Order
	Labels   models.StatusLabels
	LoadedAt time.Time
	Loaded   bool
	Notice   string
	Level    string
}

// ConfirmDeleteData is rendered by ConfirmDeletePage.
type ConfirmDeleteData struct {
	Order models.Order
	Found bool
	ID    string
}
