package html

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/a-h/templ"
)

// Notice levels carried through ?level= on redirects.
const (
	LevelInfo    = "info"
	LevelSuccess = "success"
	LevelError   = "error"
)

// Layout wraps body in the console page shell.
func Layout(title string, nav templ.Component, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<!doctype html><html lang="en"><head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1"><title>%s</title><link rel="stylesheet" href="/assets/console.css"></head><body>`,
			templ.EscapeString(title)); err != nil {
			return err
		}
		if nav != nil {
			if err := nav.Render(ctx, w); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, `<main>`); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		if _, err := io.WriteString(w, `</main>`); err != nil {
			return err
		}
		if err := CSRFScript().Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</body></html>`)
		return err
	})
}

// Notice renders a flash message; an empty message renders nothing.
func Notice(message, level string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		message = strings.TrimSpace(message)
		if message == "" {
			return nil
		}
		switch level {
		case LevelSuccess, LevelError:
		default:
			level = LevelInfo
		}
		_, err := fmt.Fprintf(w, `<div class="notice notice-%s" role="status">%s</div>`, level, templ.EscapeString(message))
		return err
	})
}

// Redirect builds a location with the notice encoded as query parameters.
func Redirect(path, message, level string) string {
	if message == "" {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "status=" + url.QueryEscape(message) + "&level=" + url.QueryEscape(level)
}
