package context

import (
	"context"

	"depalletconsole/models"
)

type (
	sessionKey   struct{}
	csrfTokenKey struct{}
)

func NewContextWithSession(ctx context.Context, session models.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, session)
}

func GetSessionFromContext(ctx context.Context) (models.Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(models.Session)
	return s, ok
}

// OperatorName returns the logged-in operator's username, or "" outside an
// authenticated request.
func OperatorName(ctx context.Context) string {
	if s, ok := GetSessionFromContext(ctx); ok {
		return s.Operator.Username
	}
	return ""
}

// NewContextWithCSRFToken stores the request's CSRF token so views can embed
// it in forms.
func NewContextWithCSRFToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, csrfTokenKey{}, token)
}

func CSRFToken(ctx context.Context) string {
	token, _ := ctx.Value(csrfTokenKey{}).(string)
	return token
}
