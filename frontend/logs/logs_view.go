package logs

import (
	"context"
	"fmt"
	"io"
	"net/url"

	"github.com/a-h/templ"

	"depalletconsole/frontend/shared/html"
	"depalletconsole/frontend/shared/nav"
)

func LogsPage(data PageData) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<h1>Event log</h1>`); err != nil {
			return err
		}
		if err := html.Notice(data.Notice, data.Level).Render(ctx, w); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, `<form method="get" action="/console/logs" class="search"><input type="search" name="order" value="%s" placeholder="Order id"><button type="submit">Filter</button></form>`,
			templ.EscapeString(data.OrderID)); err != nil {
			return err
		}
		if data.OrderID != "" {
			if _, err := fmt.Fprintf(w, `<p><a href="%s">Download trail PDF</a></p>`,
				templ.EscapeString("/console/logs/orders/"+url.PathEscape(data.OrderID)+".pdf")); err != nil {
				return err
			}
		}
		if len(data.Entries) == 0 {
			_, err := io.WriteString(w, `<p class="empty">No entries.</p>`)
			return err
		}
		if _, err := io.WriteString(w, `<ol class="log">`); err != nil {
			return err
		}
		for _, e := range data.Entries {
			if _, err := fmt.Fprintf(w, `<li><time>%s</time> %s</li>`,
				e.Timestamp.Format("2006-01-02 15:04:05"), templ.EscapeString(e.Message)); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</ol>`)
		return err
	})
	return html.Layout("Event log", nav.TopNav(nav.SectionLogs), body)
}
