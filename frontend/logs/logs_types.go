package logs

import "depalletconsole/models"

type PageData struct {
	OrderID string
	Entries []models.LogEntry
	Notice  string
	Level   string
}
