package session

import (
	"net/http"
	"testing"
	"time"
)

func TestCookie(t *testing.T) {
	c := Cookie("tok", int(TTL.Seconds()))
	if c.Name != CookieName || c.Value != "tok" || !c.HttpOnly || c.SameSite != http.SameSiteStrictMode {
		t.Fatalf("unexpected cookie %+v", c)
	}
	if Clear().MaxAge >= 0 {
		t.Fatalf("expected clearing cookie to have negative max age")
	}
}

func TestExpiry(t *testing.T) {
	now := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	if got := Expiry(now); !got.Equal(now.Add(10 * time.Hour)) {
		t.Fatalf("unexpected expiry %s", got)
	}
}
