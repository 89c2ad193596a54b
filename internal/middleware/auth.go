// internal/middleware/auth.go
package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/dangerclosesec/bizcontrol/internal/auth"
	"github.com/dangerclosesec/bizcontrol/internal/domain"
	"github.com/dangerclosesec/bizcontrol/internal/policy"
)

// AdminCookieName carries the back-office session token.
const AdminCookieName = "admin_session"

// ActorResolver turns a bearer or cookie token into a live account.
type ActorResolver interface {
	ActorFromToken(ctx context.Context, token, scope string) (policy.Actor, error)
}

type actorContextKey struct{}

func WithActor(ctx context.Context, actor policy.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFrom(ctx context.Context) (policy.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(policy.Actor)
	return actor, ok
}

// AuthMiddleware creates a middleware that validates API bearer tokens
func AuthMiddleware(resolver ActorResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Extract token from Authorization header
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				respondWithError(w, http.StatusUnauthorized, "No authorization header")
				return
			}

			// Check Bearer prefix
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				respondWithError(w, http.StatusUnauthorized, "Invalid authorization header")
				return
			}

			actor, err := resolver.ActorFromToken(r.Context(), parts[1], auth.ScopeAPI)
			if err != nil {
				respondWithTokenError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		})
	}
}

// AdminSession authenticates the back-office through its session cookie.
// Only superusers get through.
func AdminSession(resolver ActorResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(AdminCookieName)
			if err != nil || cookie.Value == "" {
				respondWithError(w, http.StatusUnauthorized, "No admin session")
				return
			}

			actor, err := resolver.ActorFromToken(r.Context(), cookie.Value, auth.ScopeAdmin)
			if err != nil {
				respondWithTokenError(w, err)
				return
			}
			if !actor.IsSuperuser {
				respondWithError(w, http.StatusForbidden, domain.Message(domain.ErrSuperuserRequired))
				return
			}

			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		})
	}
}

func respondWithTokenError(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrUnauthorized) {
		respondWithError(w, http.StatusUnauthorized, "Invalid token")
		return
	}
	respondWithError(w, http.StatusInternalServerError, "Internal server error")
}

type errorBody struct {
	Ok    bool   `json:"ok"`
	Error string `json:"error"`
}

// respondWithError sends a JSON error response
func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, errorBody{Error: message})
}

// respondWithJSON sends a JSON response
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}
