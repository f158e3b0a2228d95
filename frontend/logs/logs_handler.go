package logs

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"depalletconsole/frontend/shared/html"
	"depalletconsole/models"
)

// EntrySource is the console event log.
type EntrySource interface {
	Entries() []models.LogEntry
	EntriesForOrder(ctx context.Context, orderID string) ([]models.LogEntry, error)
}

// LogsPageQueryHandler renders the event log, optionally narrowed to one order
// with ?order=.
func LogsPageQueryHandler(src EntrySource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := PageData{
			OrderID: strings.TrimSpace(r.URL.Query().Get("order")),
			Notice:  r.URL.Query().Get("status"),
			Level:   r.URL.Query().Get("level"),
		}
		if data.OrderID == "" {
			data.Entries = src.Entries()
		} else {
			entries, err := src.EntriesForOrder(r.Context(), data.OrderID)
			if err != nil {
				slog.Error("load order trail failed", slog.String("order_id", data.OrderID), slog.Any("err", err))
				data.Notice = "Order trail could not be loaded."
				data.Level = html.LevelError
			}
			data.Entries = entries
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := LogsPage(data).Render(r.Context(), w); err != nil {
			http.Error(w, "failed to render event log", http.StatusInternalServerError)
		}
	}
}

// OrderTrailPDFHandler serves the audit trail of one order as a PDF.
func OrderTrailPDFHandler(src EntrySource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID := strings.TrimSpace(chi.URLParam(r, "id"))
		if orderID == "" {
			http.Error(w, "order id is required", http.StatusBadRequest)
			return
		}
		entries, err := src.EntriesForOrder(r.Context(), orderID)
		if err != nil {
			slog.Error("load order trail failed", slog.String("order_id", orderID), slog.Any("err", err))
			http.Redirect(w, r, html.Redirect("/console/logs", "Order trail could not be loaded.", html.LevelError), http.StatusSeeOther)
			return
		}

		pdfBytes, err := RenderOrderTrailPDF(orderID, entries, time.Now())
		if err != nil {
			slog.Error("render order trail failed", slog.String("order_id", orderID), slog.Any("err", err))
			http.Error(w, "failed to build order trail pdf", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=order-%s-trail.pdf", barcodeValue(orderID)))
		_, _ = w.Write(pdfBytes)
	}
}
