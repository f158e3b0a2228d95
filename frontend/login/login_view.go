package login

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"depalletconsole/frontend/shared/html"
)

// LoginScreen renders the operator login form.
func LoginScreen(errorMessage string) templ.Component {
	body := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<section class="login"><h1>Depalletizer Console</h1>`); err != nil {
			return err
		}
		if err := html.Notice(errorMessage, html.LevelError).Render(ctx, w); err != nil {
			return err
		}
		if _, err := io.WriteString(w, `<form method="post" action="/login">`); err != nil {
			return err
		}
		if err := html.CSRFField().Render(ctx, w); err != nil {
			return err
		}
		_, err := fmt.Fprint(w, `
<label>Username <input name="username" autocomplete="username" required autofocus></label>
<label>Password <input name="password" type="password" autocomplete="current-password" required></label>
<button type="submit">Log in</button>
</form></section>`)
		return err
	})
	return html.Layout("Log in", nil, body)
}
