package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dangerclosesec/bizcontrol/internal/domain"
	"github.com/dangerclosesec/bizcontrol/internal/mocks"
	"github.com/dangerclosesec/bizcontrol/internal/model"
	"github.com/dangerclosesec/bizcontrol/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// zeroReader makes every drawn code consist of the first alphabet letter.
type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 0
	}
	return len(p), nil
}

func TestInviteService_CreateAndAccept(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	ctrl := gomock.NewController(t)

	mailer := mocks.NewMockInviteMailer(ctrl)
	mirror := mocks.NewMockRelationMirror(ctrl)

	a := e.newUser(t, "a@x.com")
	b := e.newUser(t, "b@x.com")
	owner := e.newCompany(t, a, "Acme")

	svc := e.inviteService(t, mailer, mirror)

	mailer.EXPECT().
		SendInvite(gomock.Any(), gomock.Any(), "Acme").
		DoAndReturn(func(_ context.Context, inv *model.Invite, _ string) error {
			assert.Equal(t, "b@x.com", inv.Email)
			return nil
		})

	invite, err := svc.Create(ctx, a, owner.CompanyID, InviteInput{Email: "  B@X.com ", Role: model.RoleManager})
	require.NoError(t, err)
	svc.Wait()

	assert.Len(t, invite.Code, 6)
	assert.Equal(t, "b@x.com", invite.Email)
	assert.Equal(t, model.RoleManager, invite.Role)
	assert.True(t, invite.ExpiresAt.Equal(testNow.Add(14*24*time.Hour)))

	mirror.EXPECT().
		WriteMembership(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, m *model.Membership) error {
			assert.Equal(t, b.UserID, m.UserID)
			assert.Equal(t, model.RoleManager, m.Role)
			return nil
		})

	m, err := svc.Accept(ctx, b, " "+invite.Code+" ")
	require.NoError(t, err)
	assert.Equal(t, owner.CompanyID, m.CompanyID)
	assert.Equal(t, model.RoleManager, m.Role)

	_, err = e.invites.FindByCode(ctx, invite.Code)
	assert.ErrorIs(t, err, domain.ErrInviteNotFound)

	_, err = svc.Accept(ctx, b, invite.Code)
	assert.ErrorIs(t, err, domain.ErrInviteNotFound)
}

func TestInviteService_CreateRequiresAdmin(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)

	a := e.newUser(t, "a@x.com")
	u := e.newUser(t, "u@x.com")
	owner := e.newCompany(t, a, "Acme")
	e.addMember(t, owner.CompanyID, u, model.RoleManager, nil)

	svc := e.inviteService(t, nil, nil)

	_, err := svc.Create(ctx, u, owner.CompanyID, InviteInput{Email: "c@x.com"})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	denied := false
	logs, _, err := e.auditLogs.Query(ctx, repository.QueryParams{Permission: PermInviteManage, Result: &denied})
	require.NoError(t, err)
	assert.Len(t, logs, 1)
	assert.Equal(t, u.UserID.String(), logs[0].SubjectID)
}

func TestInviteService_CreateValidatesInput(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	a := e.newUser(t, "a@x.com")
	owner := e.newCompany(t, a, "Acme")
	svc := e.inviteService(t, nil, nil)

	tests := []struct {
		name  string
		input InviteInput
		want  error
	}{
		{"bad email", InviteInput{Email: "not-an-email"}, domain.ErrInvalidInput},
		{"bad role", InviteInput{Email: "c@x.com", Role: "owner"}, domain.ErrInvalidInput},
		{"admin as manager", InviteInput{Email: "c@x.com", ManagerID: &a.UserID}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, a, owner.CompanyID, tt.input)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestInviteService_AcceptEmailMismatch(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	a := e.newUser(t, "a@x.com")
	c := e.newUser(t, "c@x.com")
	owner := e.newCompany(t, a, "Acme")
	svc := e.inviteService(t, nil, nil)

	invite, err := svc.Create(ctx, a, owner.CompanyID, InviteInput{Email: "b@x.com"})
	require.NoError(t, err)

	_, err = svc.Accept(ctx, c, invite.Code)
	assert.ErrorIs(t, err, domain.ErrInviteEmailMismatch)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	// The invite stays usable by its addressee.
	_, err = e.invites.FindByCode(ctx, invite.Code)
	assert.NoError(t, err)
}

func TestInviteService_AcceptExpired(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	a := e.newUser(t, "a@x.com")
	b := e.newUser(t, "b@x.com")
	owner := e.newCompany(t, a, "Acme")
	svc := e.inviteService(t, nil, nil)

	invite, err := svc.Create(ctx, a, owner.CompanyID, InviteInput{Email: "b@x.com"})
	require.NoError(t, err)

	e.clock.Advance(15 * 24 * time.Hour)
	_, err = svc.Accept(ctx, b, invite.Code)
	assert.ErrorIs(t, err, domain.ErrInviteNotFound)

	_, err = e.memberships.Find(ctx, b.UserID, owner.CompanyID)
	assert.ErrorIs(t, err, domain.ErrMembershipNotFound)
}

func TestInviteService_AcceptExistingMember(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	a := e.newUser(t, "a@x.com")
	owner := e.newCompany(t, a, "Acme")
	svc := e.inviteService(t, nil, nil)

	invite, err := svc.Create(ctx, a, owner.CompanyID, InviteInput{Email: "a@x.com"})
	require.NoError(t, err)

	_, err = svc.Accept(ctx, a, invite.Code)
	assert.ErrorIs(t, err, domain.ErrMembershipExists)

	// The failed transaction leaves the invite in place.
	_, err = e.invites.FindByCode(ctx, invite.Code)
	assert.NoError(t, err)
}

func TestInviteService_SweepExpiredIsIdempotent(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	a := e.newUser(t, "a@x.com")
	owner := e.newCompany(t, a, "Acme")
	svc := e.inviteService(t, nil, nil)

	_, err := svc.Create(ctx, a, owner.CompanyID, InviteInput{Email: "old@x.com"})
	require.NoError(t, err)
	e.clock.Advance(10 * 24 * time.Hour)
	fresh, err := svc.Create(ctx, a, owner.CompanyID, InviteInput{Email: "new@x.com"})
	require.NoError(t, err)

	e.clock.Advance(5 * 24 * time.Hour)
	n, err := svc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = svc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)

	_, err = e.invites.FindByCode(ctx, fresh.Code)
	assert.NoError(t, err)
}

func TestInviteService_CodeExhaustion(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	a := e.newUser(t, "a@x.com")
	owner := e.newCompany(t, a, "Acme")
	svc := e.inviteService(t, nil, nil, WithRandom(zeroReader{}))

	first, err := svc.Create(ctx, a, owner.CompanyID, InviteInput{Email: "b@x.com"})
	require.NoError(t, err)
	assert.Equal(t, "AAAAAA", first.Code)

	_, err = svc.Create(ctx, a, owner.CompanyID, InviteInput{Email: "c@x.com"})
	assert.ErrorIs(t, err, domain.ErrInviteCodeExhausted)
}

func TestInviteService_Revoke(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	a := e.newUser(t, "a@x.com")
	owner := e.newCompany(t, a, "Acme")
	svc := e.inviteService(t, nil, nil)

	invite, err := svc.Create(ctx, a, owner.CompanyID, InviteInput{Email: "b@x.com"})
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(ctx, a, owner.CompanyID, invite.Code))
	err = svc.Revoke(ctx, a, owner.CompanyID, invite.Code)
	assert.ErrorIs(t, err, domain.ErrInviteNotFound)
}

func TestInviteService_MailFailureDoesNotFailCreate(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	ctrl := gomock.NewController(t)
	mailer := mocks.NewMockInviteMailer(ctrl)

	a := e.newUser(t, "a@x.com")
	owner := e.newCompany(t, a, "Acme")
	svc := e.inviteService(t, mailer, nil)

	mailer.EXPECT().SendInvite(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("smtp down"))

	_, err := svc.Create(ctx, a, owner.CompanyID, InviteInput{Email: "b@x.com"})
	require.NoError(t, err)
	svc.Wait()
}
