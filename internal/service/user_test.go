package service

import (
	"context"
	"testing"
	"time"

	"github.com/dangerclosesec/bizcontrol/internal/auth"
	"github.com/dangerclosesec/bizcontrol/internal/domain"
	"github.com/dangerclosesec/bizcontrol/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserService(e *testEnv) *UserService {
	return NewUserService(
		e.users,
		e.memberships,
		auth.NewPasswordHasher(auth.WithPasswordParams(auth.PasswordParams{Time: 1, Memory: 1024, Threads: 1, KeyLen: 32, SaltLen: 16})),
		auth.NewTokenManager("test-secret", time.Hour),
	)
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		want     error
	}{
		{"too short", "a@x.com", "short", domain.ErrPasswordTooWeak},
		{"contains email", "a@x.com", "xxA@X.COMxx", domain.ErrPasswordHasEmail},
		{"ok", "a@x.com", "correct horse", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.email, tt.password)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestUserService_SignupLoginAndToken(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	svc := newUserService(e)

	out, err := svc.Signup(ctx, SignupInput{Email: "Jane@Example.com", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", out.User.Email)
	assert.NotEmpty(t, out.Token)

	_, err = svc.Signup(ctx, SignupInput{Email: "jane@example.com", Password: "another pass"})
	assert.ErrorIs(t, err, domain.ErrEmailAlreadyExists)

	_, err = svc.Login(ctx, LoginInput{Email: "jane@example.com", Password: "wrong password"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	login, err := svc.Login(ctx, LoginInput{Email: "jane@example.com", Password: "correct horse"})
	require.NoError(t, err)

	actor, err := svc.ActorFromToken(ctx, login.Token, auth.ScopeAPI)
	require.NoError(t, err)
	assert.Equal(t, out.User.ID, actor.UserID)
	assert.False(t, actor.IsSuperuser)

	_, err = svc.ActorFromToken(ctx, login.Token, auth.ScopeAdmin)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = svc.AdminLogin(ctx, LoginInput{Email: "jane@example.com", Password: "correct horse"})
	assert.ErrorIs(t, err, domain.ErrSuperuserRequired)
}

func TestUserService_EnsureSuperuser(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	svc := newUserService(e)

	u, created, err := svc.EnsureSuperuser(ctx, "root@x.com", "super secret")
	require.NoError(t, err)
	assert.True(t, created)
	assert.True(t, u.IsSuperuser)

	_, created, err = svc.EnsureSuperuser(ctx, "root@x.com", "super secret")
	require.NoError(t, err)
	assert.False(t, created)

	out, err := svc.AdminLogin(ctx, LoginInput{Email: "root@x.com", Password: "super secret"})
	require.NoError(t, err)
	actor, err := svc.ActorFromToken(ctx, out.Token, auth.ScopeAdmin)
	require.NoError(t, err)
	assert.True(t, actor.IsSuperuser)
}

func TestUserService_DeleteMe(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	svc := newUserService(e)

	a := e.newUser(t, "a@x.com")
	m := e.newCompany(t, a, "Acme")
	b := e.newUser(t, "b@x.com")
	e.addMember(t, m.CompanyID, b, model.RoleAdmin, nil)

	assert.ErrorIs(t, svc.DeleteMe(ctx, a), domain.ErrUserStillMember)

	require.NoError(t, e.memberSvc.Leave(ctx, a, m.CompanyID))
	require.NoError(t, svc.DeleteMe(ctx, a))

	_, err := svc.Me(ctx, a)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestUserService_LoginRehashesOutdatedPassword(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)

	_, err := newUserService(e).Signup(ctx, SignupInput{Email: "a@x.com", Password: "correct horse"})
	require.NoError(t, err)

	stronger := auth.NewPasswordHasher(auth.WithPasswordParams(auth.PasswordParams{Time: 2, Memory: 1024, Threads: 1, KeyLen: 32, SaltLen: 16}))
	svc := NewUserService(e.users, e.memberships, stronger, auth.NewTokenManager("test-secret", time.Hour))

	_, err = svc.Login(ctx, LoginInput{Email: "a@x.com", Password: "correct horse"})
	require.NoError(t, err)

	user, err := e.users.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.False(t, stronger.NeedsRehash(user.PasswordHash))

	_, err = svc.Login(ctx, LoginInput{Email: "a@x.com", Password: "correct horse"})
	assert.NoError(t, err)
}
