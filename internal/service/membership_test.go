package service

import (
	"context"
	"testing"

	"github.com/dangerclosesec/bizcontrol/internal/domain"
	"github.com/dangerclosesec/bizcontrol/internal/mocks"
	"github.com/dangerclosesec/bizcontrol/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestMembershipService_LastAdminCannotLeave(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	a := e.newUser(t, "a@x.com")
	m := e.newCompany(t, a, "Acme")

	err := e.memberSvc.Leave(ctx, a, m.CompanyID)
	assert.ErrorIs(t, err, domain.ErrLastAdmin)

	_, err = e.memberSvc.Update(ctx, a, m.CompanyID, m.ID, MembershipUpdateInput{Role: Some(model.RoleUser)})
	assert.ErrorIs(t, err, domain.ErrLastAdmin)

	err = e.memberSvc.Delete(ctx, a, m.CompanyID, m.ID)
	assert.ErrorIs(t, err, domain.ErrLastAdmin)

	count, err := e.memberships.CountAdmins(ctx, m.CompanyID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestMembershipService_AdminCanLeaveWhenAnotherRemains(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	mirror := mocks.NewMockRelationMirror(ctrl)
	e := newTestEnvWith(t, envOptions{mirror: mirror})

	a := e.newUser(t, "a@x.com")
	b := e.newUser(t, "b@x.com")
	mirror.EXPECT().WriteMembership(gomock.Any(), gomock.Any()).Return(nil)
	m := e.newCompany(t, a, "Acme")
	e.addMember(t, m.CompanyID, b, model.RoleAdmin, nil)

	mirror.EXPECT().DeleteMembership(gomock.Any(), gomock.Any()).Return(nil)
	require.NoError(t, e.memberSvc.Leave(ctx, a, m.CompanyID))

	count, err := e.memberships.CountAdmins(ctx, m.CompanyID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestMembershipService_UpdateManager(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	a := e.newUser(t, "a@x.com")
	mgr := e.newUser(t, "m@x.com")
	u := e.newUser(t, "u@x.com")
	company := e.newCompany(t, a, "Acme")
	e.addMember(t, company.CompanyID, mgr, model.RoleManager, nil)
	target := e.addMember(t, company.CompanyID, u, model.RoleUser, nil)
	plain := e.newUser(t, "p@x.com")
	e.addMember(t, company.CompanyID, plain, model.RoleUser, nil)

	tests := []struct {
		name    string
		input   MembershipUpdateInput
		wantErr error
	}{
		{"self manager", MembershipUpdateInput{ManagerID: Some(u.UserID)}, domain.ErrSelfManager},
		{"manager is plain user", MembershipUpdateInput{ManagerID: Some(plain.UserID)}, domain.ErrManagerRoleNeeded},
		{"non member", MembershipUpdateInput{ManagerID: Some(e.newUser(t, "x@x.com").UserID)}, domain.ErrMembershipNotFound},
		{"valid manager", MembershipUpdateInput{ManagerID: Some(mgr.UserID)}, nil},
		{"invalid role", MembershipUpdateInput{Role: Some(model.Role("owner"))}, domain.ErrInvalidRole},
		{"null role", MembershipUpdateInput{Role: Null[model.Role]()}, domain.ErrInvalidRole},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.memberSvc.Update(ctx, a, company.CompanyID, target.ID, tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, got.ManagerID)
			assert.Equal(t, mgr.UserID, *got.ManagerID)
		})
	}

	cleared, err := e.memberSvc.Update(ctx, a, company.CompanyID, target.ID, MembershipUpdateInput{ManagerID: Null[uuid.UUID]()})
	require.NoError(t, err)
	assert.Nil(t, cleared.ManagerID)
}

func TestMembershipService_UpdateRequiresAdmin(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)
	a := e.newUser(t, "a@x.com")
	mgr := e.newUser(t, "m@x.com")
	company := e.newCompany(t, a, "Acme")
	own := e.addMember(t, company.CompanyID, mgr, model.RoleManager, nil)

	_, err := e.memberSvc.Update(ctx, mgr, company.CompanyID, own.ID, MembershipUpdateInput{Role: Some(model.RoleAdmin)})
	assert.ErrorIs(t, err, domain.ErrCompanyAdminRequired)
}
