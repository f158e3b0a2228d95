package login

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"depalletconsole/infrastructure/cache"
	sessioncookie "depalletconsole/infrastructure/session"
	"depalletconsole/infrastructure/sqlite"
	"depalletconsole/models"
)

// HomePath is where a successful login lands.
const HomePath = "/console/orders"

// GetLoginScreenHandler renders the login form.
func GetLoginScreenHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := LoginScreen(r.URL.Query().Get("error")).Render(r.Context(), w); err != nil {
		http.Error(w, "failed to render login screen", http.StatusInternalServerError)
	}
}

// CreateLoginHandler authenticates the operator and issues a session cookie.
func CreateLoginHandler(db *sqlite.DB, sessions *cache.SessionCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fail := func(msg string) {
			http.Redirect(w, r, "/login?error="+url.QueryEscape(msg), http.StatusSeeOther)
		}
		if err := r.ParseForm(); err != nil {
			fail("invalid form data")
			return
		}
		username := strings.TrimSpace(r.FormValue("username"))
		password := r.FormValue("password")
		if username == "" || password == "" {
			fail("username and password are required")
			return
		}

		op, err := authenticateOperator(r.Context(), db, username, password)
		if err != nil {
			if errors.Is(err, ErrInvalidCredentials) {
				fail(ErrInvalidCredentials.Error())
				return
			}
			slog.Error("authenticate operator failed", slog.String("username", username), slog.Any("err", err))
			fail("authentication failed")
			return
		}

		s := models.Session{
			ID:         newSessionToken(),
			OperatorID: op.ID,
			Operator:   op,
			ExpiresAt:  sessioncookie.Expiry(time.Now()),
		}
		if err := persistSession(r.Context(), db, s); err != nil {
			slog.Error("persist session failed", slog.String("username", username), slog.Any("err", err))
			fail("failed to create session")
			return
		}
		sessions.Add(s)

		http.SetCookie(w, sessioncookie.Cookie(s.ID, int(sessioncookie.TTL.Seconds())))
		http.Redirect(w, r, HomePath, http.StatusSeeOther)
	}
}

// LogoutHandler drops the session and clears the cookie.
func LogoutHandler(db *sqlite.DB, sessions *cache.SessionCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie(sessioncookie.CookieName); err == nil && c.Value != "" {
			sessions.Delete(c.Value)
			if err := DeleteSessionByToken(r.Context(), db, c.Value); err != nil {
				slog.Error("delete session failed", slog.Any("err", err))
			}
		}
		http.SetCookie(w, sessioncookie.Clear())
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	}
}

func newSessionToken() string {
	buf := make([]byte, 24)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}
