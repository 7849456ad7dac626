package http

import (
	"context"
	"net/http"

	"daftar/internal/core"
	"daftar/internal/log"
)

// AuthHeader carries the session token on every authenticated request.
const AuthHeader = "x-auth"

// contextKey is a private type so request-scoped values cannot collide.
type contextKey string

const (
	userContextKey  contextKey = "user"
	tokenContextKey contextKey = "token"
)

// currentUser returns the authenticated user attached by requireAuth.
func currentUser(ctx context.Context) *core.User {
	user, _ := ctx.Value(userContextKey).(*core.User)
	return user
}

// currentToken returns the exact token string the request presented.
func currentToken(ctx context.Context) string {
	token, _ := ctx.Value(tokenContextKey).(string)
	return token
}

// requireAuth gates a handler behind the x-auth header. The token must
// carry a valid signature AND still be live for its user; either failure
// rejects the request before the handler runs.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get(AuthHeader)
		if token == "" {
			writeError(w, http.StatusUnauthorized, core.ErrUnauthenticated.Error())
			return
		}

		user, err := s.users.Authenticate(r.Context(), token)
		if err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Authentication rejected",
				log.FieldPath, r.URL.Path,
				log.FieldError, err.Error())
			writeError(w, http.StatusUnauthorized, core.ErrUnauthenticated.Error())
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		ctx = context.WithValue(ctx, tokenContextKey, token)
		next(w, r.WithContext(ctx))
	}
}
