package middleware

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dangerclosesec/bizcontrol/internal/audit"
	"github.com/dangerclosesec/bizcontrol/internal/auth"
	"github.com/dangerclosesec/bizcontrol/internal/domain"
	"github.com/dangerclosesec/bizcontrol/internal/policy"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResolver struct {
	actors map[string]policy.Actor
	scopes map[string]string
}

func (f fakeResolver) ActorFromToken(_ context.Context, token, scope string) (policy.Actor, error) {
	if token == "broken" {
		return policy.Actor{}, errors.New("store down")
	}
	a, ok := f.actors[token]
	if !ok || f.scopes[token] != scope {
		return policy.Actor{}, fmt.Errorf("%w: bad token", domain.ErrUnauthorized)
	}
	return a, nil
}

func newResolver() (fakeResolver, policy.Actor, policy.Actor) {
	user := policy.Actor{UserID: uuid.New(), Email: "user@example.com"}
	root := policy.Actor{UserID: uuid.New(), Email: "root@example.com", IsSuperuser: true}
	return fakeResolver{
		actors: map[string]policy.Actor{"user-api": user, "user-admin": user, "root-admin": root},
		scopes: map[string]string{"user-api": auth.ScopeAPI, "user-admin": auth.ScopeAdmin, "root-admin": auth.ScopeAdmin},
	}, user, root
}

func echoActor(t *testing.T, want policy.Actor) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok := ActorFrom(r.Context())
		require.True(t, ok)
		assert.Equal(t, want, got)
		w.WriteHeader(http.StatusTeapot)
	})
}

func TestAuthMiddleware(t *testing.T) {
	resolver, user, _ := newResolver()
	h := AuthMiddleware(resolver)(echoActor(t, user))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{name: "valid", header: "Bearer user-api", want: http.StatusTeapot},
		{name: "missing", want: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Token user-api", want: http.StatusUnauthorized},
		{name: "admin token on api", header: "Bearer user-admin", want: http.StatusUnauthorized},
		{name: "resolver failure", header: "Bearer broken", want: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestAdminSession(t *testing.T) {
	resolver, _, root := newResolver()
	h := AdminSession(resolver)(echoActor(t, root))

	tests := []struct {
		name   string
		cookie string
		want   int
	}{
		{name: "superuser", cookie: "root-admin", want: http.StatusTeapot},
		{name: "no cookie", want: http.StatusUnauthorized},
		{name: "api token", cookie: "user-api", want: http.StatusUnauthorized},
		{name: "not a superuser", cookie: "user-admin", want: http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: AdminCookieName, Value: tt.cookie})
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestRequestMeta(t *testing.T) {
	var got audit.RequestMeta
	h := chimw.RequestID(RequestMeta(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = audit.RequestMetaFrom(r.Context())
	})))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.7:5123"
	req.Header.Set("User-Agent", "curl/8.0")
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.NotEmpty(t, got.RequestID)
	assert.Equal(t, "10.0.0.7:5123", got.ClientIP)
	assert.Equal(t, "curl/8.0", got.UserAgent)
}

func TestRecovery(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := Recovery(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"ok":false,"error":"Internal server error"}`, rec.Body.String())
}
