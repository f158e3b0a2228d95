package nav

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	sessioncontext "depalletconsole/frontend/shared/context"
	"depalletconsole/frontend/shared/html"
)

// Sections of the console.
const (
	SectionOrders   = "orders"
	SectionProducts = "products"
	SectionLogs     = "logs"
)

type link struct {
	section string
	href    string
	label   string
}

var links = []link{
	{SectionOrders, "/console/orders", "Orders"},
	{SectionProducts, "/console/products", "Inventory"},
	{SectionLogs, "/console/logs", "Event log"},
}

// TopNav renders the console navigation with active highlighted.
func TopNav(active string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<nav class="topnav"><span class="brand">Depalletizer Console</span><ul>`); err != nil {
			return err
		}
		for _, l := range links {
			class := ""
			if l.section == active {
				class = ` class="active"`
			}
			if _, err := fmt.Fprintf(w, `<li><a href="%s"%s>%s</a></li>`, l.href, class, l.label); err != nil {
				return err
			}
		}
		_, err := fmt.Fprintf(w, `</ul><form method="post" action="/logout">%s<span class="operator">%s</span> <button type="submit">Log out</button></form></nav>`,
			html.CSRFInput(ctx), templ.EscapeString(sessioncontext.OperatorName(ctx)))
		return err
	})
}
