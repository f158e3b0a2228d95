package orders

import (
	"context"
	"fmt"
	"io"
	"net/url"

	"github.com/a-h/templ"

	"depalletconsole/frontend/shared/html"
	"depalletconsole/frontend/shared/nav"
	"depalletconsole/models"
)

func actionURL(id models.OrderID, action string) string {
	return templ.EscapeString(ordersPath + "/" + url.PathEscape(string(id)) + "/" + action)
}

func trailURL(id models.OrderID) string {
	return templ.EscapeString("/console/logs/orders/" + url.PathEscape(string(id)) + ".pdf")
}

func cell(v models.DisplayValue) string {
	return templ.EscapeString(v.String())
}

func OrdersPage(data PageData) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<h1>Orders</h1>`); err != nil {
			return err
		}
		if err := html.Notice(data.Notice, data.Level).Render(ctx, w); err != nil {
			return err
		}
		if data.Loaded {
			if _, err := fmt.Fprintf(w, `<p class="muted">Loaded %s</p>`, data.LoadedAt.Format("2006-01-02 15:04:05")); err != nil {
				return err
			}
		}
		if len(data.Orders) == 0 {
			_, err := io.WriteString(w, `<p class="empty">No orders.</p>`)
			return err
		}
		if _, err := io.WriteString(w, `<table class="orders"><thead><tr><th>ID</th><th>Status</th><th>Company</th><th>Item</th><th>Qty</th><th>Order date</th><th>Due</th><th>Contact</th><th>Price</th><th>Note</th><th></th></tr></thead><tbody>`); err != nil {
			return err
		}
		for _, o := range data.Orders {
			if _, err := fmt.Fprintf(w, `<tr><td>%s</td><td><span class="%s">%s</span></td><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td class="actions">`,
				templ.EscapeString(string(o.ID)), statusClass(o.Status), templ.EscapeString(o.StatusLabel),
				cell(o.Company), cell(o.ItemName), cell(o.Quantity),
				cell(o.OrderDate), cell(o.DueDate), cell(o.Contact),
				cell(o.Price), cell(o.Note)); err != nil {
				return err
			}
			// Approve and cancel only make sense from pending.
			if o.Pending() {
				if _, err := fmt.Fprintf(w, `<form method="post" action="%s">%s<button type="submit" class="approve">Approve</button></form><form method="post" action="%s">%s<button type="submit" class="cancel">Cancel</button></form>`,
					actionURL(o.ID, "approve"), html.CSRFInput(ctx), actionURL(o.ID, "cancel"), html.CSRFInput(ctx)); err != nil {
					return err
				}
			}
			if _, err := fmt.Fprintf(w, `<a class="delete" href="%s">Delete</a> <a href="%s">Trail</a></td></tr>`,
				actionURL(o.ID, "delete"), trailURL(o.ID)); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</tbody></table>`)
		return err
	})
	return html.Layout("Orders", nav.TopNav(nav.SectionOrders), body)
}

func ConfirmDeletePage(data ConfirmDeleteData) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		summary := " It is not in the last loaded list."
		if data.Found {
			summary = fmt.Sprintf(" %s, %s x%s.", cell(data.Order.Company), cell(data.Order.ItemName), cell(data.Order.Quantity))
		}
		_, err := fmt.Fprintf(w, `<h1>Delete order</h1><p>Delete order %s?%s This cannot be undone.</p>
<form method="post" action="%s">%s<button type="submit" name="confirm" value="yes" class="danger">Yes, delete</button> <button type="submit" name="confirm" value="no">No</button></form>`,
			templ.EscapeString(data.ID), summary, actionURL(models.OrderID(data.ID), "delete"), html.CSRFInput(ctx))
		return err
	})
	return html.Layout("Delete order", nav.TopNav(nav.SectionOrders), body)
}
