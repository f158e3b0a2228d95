package orders

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"depalletconsole/frontend/shared/html"
	"depalletconsole/infrastructure/workflow"
	"depalletconsole/models"
)

const ordersPath = "/console/orders"

// OrdersPageQueryHandler loads the order list and renders it. A failed load
// shows the last loaded list with a notice.
func OrdersPageQueryHandler(ctrl *workflow.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := PageData{
			Labels: ctrl.Labels(),
			Notice: r.URL.Query().Get("status"),
			Level:  r.URL.Query().Get("level"),
		}
		if _, err := ctrl.Load(r.Context()); err != nil {
			data.Notice = strings.TrimSpace(data.Notice + " " + workflow.LoadNotice(err))
			data.Level = html.LevelError
		}
		data.Orders, data.LoadedAt, data.Loaded = ctrl.Orders()

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := OrdersPage(data).Render(r.Context(), w); err != nil {
			http.Error(w, "failed to render orders page", http.StatusInternalServerError)
		}
	}
}

// ApproveOrderCommandHandler approves the order and runs the depalletizer.
func ApproveOrderCommandHandler(ctrl *workflow.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out := ctrl.Approve(r.Context(), chi.URLParam(r, "id"))
		redirectWithOutcome(w, r, out)
	}
}

// CancelOrderCommandHandler cancels the order.
func CancelOrderCommandHandler(ctrl *workflow.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out := ctrl.Cancel(r.Context(), chi.URLParam(r, "id"))
		redirectWithOutcome(w, r, out)
	}
}

// ConfirmDeletePageQueryHandler asks the operator to confirm a delete.
func ConfirmDeletePageQueryHandler(ctrl *workflow.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(chi.URLParam(r, "id"))
		data := ConfirmDeleteData{ID: id}
		orders, _, _ := ctrl.Orders()
		for _, o := range orders {
			if string(o.ID) == id {
				data.Order, data.Found = o, true
				break
			}
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := ConfirmDeletePage(data).Render(r.Context(), w); err != nil {
			http.Error(w, "failed to render delete confirmation", http.StatusInternalServerError)
		}
	}
}

// DeleteOrderCommandHandler deletes the order when the form carries
// confirm=yes.
func DeleteOrderCommandHandler(ctrl *workflow.Controller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Redirect(w, r, html.Redirect(ordersPath, "invalid form data", html.LevelError), http.StatusSeeOther)
			return
		}
		answer := r.FormValue("confirm")
		confirm := workflow.ConfirmFunc(func(context.Context, string) bool {
			return strings.EqualFold(answer, "yes")
		})
		out := ctrl.Delete(r.Context(), chi.URLParam(r, "id"), confirm)
		redirectWithOutcome(w, r, out)
	}
}

func redirectWithOutcome(w http.ResponseWriter, r *http.Request, out workflow.Outcome) {
	level := html.LevelError
	if out.Success {
		level = html.LevelSuccess
	} else if errors.Is(out.Err, workflow.ErrDeclined) {
		level = html.LevelInfo
	}
	http.Redirect(w, r, html.Redirect(ordersPath, out.Notice, level), http.StatusSeeOther)
}

func statusClass(s models.OrderStatus) string {
	switch s {
	case models.OrderStatusPending:
		return "status-pending"
	case models.OrderStatusApproved:
		return "status-approved"
	case models.OrderStatusCancelled:
		return "status-cancelled"
	default:
		return "status-unknown"
	}
}
