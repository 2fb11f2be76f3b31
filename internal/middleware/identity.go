package middleware

import (
	"context"
	"net/http"
)

type userCtxKey struct{}

const headerUser = "X-Kanvas-User"

// DefaultUser is the identity injected when no header is present. Kanvas
// runs behind a trusted proxy in deployment; per-user auth lives there.
const DefaultUser = "local"

// Identity resolves the acting user from the X-Kanvas-User header and
// stores it in the request context. Webhook routes do not use it; they
// authenticate by HMAC signature instead.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := r.Header.Get(headerUser)
		if user == "" {
			user = DefaultUser
		}
		ctx := context.WithValue(r.Context(), userCtxKey{}, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserFrom returns the acting user stored by Identity, or DefaultUser.
func UserFrom(ctx context.Context) string {
	if u, ok := ctx.Value(userCtxKey{}).(string); ok && u != "" {
		return u
	}
	return DefaultUser
}
