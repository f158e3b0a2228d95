package products

import (
	"time"

	"depalletconsole/infrastructure/inventory"
)

type PageData struct {
	Query    string
	Rows     []inventory.Row
	Summary  inventory.Summary
	LoadedAt time.Time
	Loaded   bool
	Notice   string
	Level    string
}
