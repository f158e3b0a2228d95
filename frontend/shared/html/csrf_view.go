package html

import (
	"context"
	"io"

	"github.com/a-h/templ"

	sessioncontext "depalletconsole/frontend/shared/context"
)

const csrfScript = `<script>
(function () {
  function token() {
    var parts = document.cookie ? document.cookie.split(";") : [];
    for (var i = 0; i < parts.length; i++) {
      var c = parts[i].trim();
      if (c.indexOf("X-CSRF-Token=") === 0) return decodeURIComponent(c.substring(13));
    }
    return "";
  }
  function inject() {
    var value = token();
    if (!value) return;
    document.querySelectorAll("form").forEach(function (form) {
      if ((form.getAttribute("method") || "GET").toUpperCase() !== "POST") return;
      if (form.querySelector("input[name='_csrf']")) return;
      var input = document.createElement("input");
      input.type = "hidden";
      input.name = "_csrf";
      input.value = value;
      form.appendChild(input);
    });
  }
  if (document.readyState === "loading") {
    document.addEventListener("DOMContentLoaded", inject);
  } else {
    inject();
  }
})();
</script>`

// CSRFScript adds the CSRF cookie value as a hidden _csrf field to every POST
// form on the page.
func CSRFScript() templ.Component {
	return templ.Raw(csrfScript)
}

// CSRFField renders the hidden _csrf input for the request's token. Forms
// rendered without a token fall back to CSRFScript.
func CSRFField() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, CSRFInput(ctx))
		return err
	})
}

// CSRFInput is the markup of CSRFField, for views that build rows with
// fmt.Fprintf.
func CSRFInput(ctx context.Context) string {
	token := sessioncontext.CSRFToken(ctx)
	if token == "" {
		return ""
	}
	return `<input type="hidden" name="_csrf" value="` + templ.EscapeString(token) + `">`
}
