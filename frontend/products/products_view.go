package products

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"depalletconsole/frontend/shared/html"
	"depalletconsole/frontend/shared/nav"
)

func ProductsPage(data PageData) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<h1>Inventory</h1>`); err != nil {
			return err
		}
		if err := html.Notice(data.Notice, data.Level).Render(ctx, w); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, `<form method="get" action="/console/products" class="search"><input type="search" name="q" value="%s" placeholder="Code, name, brand, color, size or category"><button type="submit">Search</button> <a href="/console/products?refresh=1">Refresh</a></form>`,
			templ.EscapeString(data.Query)); err != nil {
			return err
		}
		if data.Loaded {
			if _, err := fmt.Fprintf(w, `<p class="muted">Loaded %s</p>`, data.LoadedAt.Format("2006-01-02 15:04:05")); err != nil {
				return err
			}
		}
		s := data.Summary
		if _, err := fmt.Fprintf(w, `<ul class="summary"><li>Products <strong>%d</strong></li><li class="stock-low">Low <strong>%d</strong></li><li class="stock-warning">Warning <strong>%d</strong></li><li class="stock-normal">Normal <strong>%d</strong></li></ul>`,
			s.Total, s.Low, s.Warning, s.Normal); err != nil {
			return err
		}
		if len(data.Rows) == 0 {
			_, err := io.WriteString(w, `<p class="empty">No products.</p>`)
			return err
		}
		if _, err := io.WriteString(w, `<table class="products"><thead><tr><th>Code</th><th>Name</th><th>Brand</th><th>Category</th><th>Color</th><th>Size</th><th>Stock</th></tr></thead><tbody>`); err != nil {
			return err
		}
		for _, row := range data.Rows {
			if _, err := fmt.Fprintf(w, `<tr class="stock-%s"><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%d</td></tr>`,
				row.Level, templ.EscapeString(row.ItemCode), templ.EscapeString(row.ProductName),
				templ.EscapeString(row.Brand), templ.EscapeString(row.Category), templ.EscapeString(row.Color),
				templ.EscapeString(row.Size), row.Stock); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</tbody></table>`)
		return err
	})
	return html.Layout("Inventory", nav.TopNav(nav.SectionProducts), body)
}
