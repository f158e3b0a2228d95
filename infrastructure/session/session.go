package session

import (
	"net/http"
	"time"
)

const CookieName = "X-Console-Session"

// TTL is how long an operator session stays valid.
const TTL = 10 * time.Hour

// Cookie builds the session cookie; a negative maxAge clears it.
func Cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	}
}

// Clear returns a cookie that removes the session cookie.
func Clear() *http.Cookie {
	return Cookie("", -1)
}

// Expiry is the expiry time of a session created at now.
func Expiry(now time.Time) time.Time {
	return now.Add(TTL)
}
