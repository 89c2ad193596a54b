package policy_test

import (
	"testing"

	"github.com/dangerclosesec/bizcontrol/internal/domain"
	"github.com/dangerclosesec/bizcontrol/internal/model"
	"github.com/dangerclosesec/bizcontrol/internal/policy"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func membership(role model.Role) *model.Membership {
	return &model.Membership{
		Base:      model.Base{ID: uuid.New()},
		UserID:    uuid.New(),
		CompanyID: uuid.New(),
		Role:      role,
	}
}

func TestRoleChecks(t *testing.T) {
	member := policy.Actor{UserID: uuid.New()}
	super := policy.Actor{UserID: uuid.New(), IsSuperuser: true}

	tests := []struct {
		name    string
		check   func(policy.Actor, *model.Membership) policy.Decision
		actor   policy.Actor
		m       *model.Membership
		allowed bool
	}{
		{"admin check passes admin", policy.RequireAdminOrSuperuser, member, membership(model.RoleAdmin), true},
		{"admin check rejects manager", policy.RequireAdminOrSuperuser, member, membership(model.RoleManager), false},
		{"admin check rejects outsider", policy.RequireAdminOrSuperuser, member, nil, false},
		{"admin check passes superuser outsider", policy.RequireAdminOrSuperuser, super, nil, true},
		{"member check passes user", policy.RequireMemberOrSuperuser, member, membership(model.RoleUser), true},
		{"member check rejects outsider", policy.RequireMemberOrSuperuser, member, nil, false},
		{"member check passes superuser", policy.RequireMemberOrSuperuser, super, nil, true},
		{"manager check passes manager", policy.RequireManagerAdminOrSuperuser, member, membership(model.RoleManager), true},
		{"manager check passes admin", policy.RequireManagerAdminOrSuperuser, member, membership(model.RoleAdmin), true},
		{"manager check rejects user", policy.RequireManagerAdminOrSuperuser, member, membership(model.RoleUser), false},
		{"manager check passes superuser", policy.RequireManagerAdminOrSuperuser, super, nil, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := tc.check(tc.actor, tc.m)
			assert.Equal(t, tc.allowed, d.Allowed)
			if tc.allowed {
				assert.NoError(t, d.Error())
			} else {
				assert.ErrorIs(t, d.Error(), domain.ErrForbidden)
				assert.NotEmpty(t, d.Reason)
			}
		})
	}
}

func TestRequireLastAdminSafe(t *testing.T) {
	admin := membership(model.RoleAdmin)

	d := policy.RequireLastAdminSafe(admin, 1)
	assert.False(t, d.Allowed)
	assert.ErrorIs(t, d.Error(), domain.ErrLastAdmin)
	assert.ErrorIs(t, d.Error(), domain.ErrBadRequest)

	assert.True(t, policy.RequireLastAdminSafe(admin, 2).Allowed)
	assert.True(t, policy.RequireLastAdminSafe(membership(model.RoleManager), 1).Allowed)
	assert.True(t, policy.RequireLastAdminSafe(membership(model.RoleUser), 0).Allowed)
}

func TestRequireManagerOfSubordinate(t *testing.T) {
	manager := membership(model.RoleManager)
	admin := membership(model.RoleAdmin)

	subordinate := membership(model.RoleUser)
	subordinate.ManagerID = &manager.UserID

	stranger := membership(model.RoleUser)

	t.Run("manager of subordinate", func(t *testing.T) {
		assert.True(t, policy.RequireManagerOfSubordinate(manager, subordinate).Allowed)
	})

	t.Run("manager of someone else's report", func(t *testing.T) {
		d := policy.RequireManagerOfSubordinate(manager, stranger)
		assert.False(t, d.Allowed)
		assert.ErrorIs(t, d.Error(), domain.ErrOnlySubordinates)
	})

	t.Run("admin bypasses", func(t *testing.T) {
		assert.True(t, policy.RequireManagerOfSubordinate(admin, stranger).Allowed)
	})

	t.Run("plain user cannot manage", func(t *testing.T) {
		user := membership(model.RoleUser)
		report := membership(model.RoleUser)
		report.ManagerID = &user.UserID
		assert.False(t, policy.RequireManagerOfSubordinate(user, report).Allowed)
	})

	t.Run("missing membership", func(t *testing.T) {
		assert.False(t, policy.RequireManagerOfSubordinate(nil, subordinate).Allowed)
		assert.False(t, policy.RequireManagerOfSubordinate(manager, nil).Allowed)
	})
}

func TestRequireNotSelfManager(t *testing.T) {
	target := membership(model.RoleUser)
	other := uuid.New()

	d := policy.RequireNotSelfManager(target, &target.UserID)
	assert.ErrorIs(t, d.Error(), domain.ErrSelfManager)

	assert.True(t, policy.RequireNotSelfManager(target, &other).Allowed)
	assert.True(t, policy.RequireNotSelfManager(target, nil).Allowed)
}

func TestDecisionErrorDefaultsToForbidden(t *testing.T) {
	d := policy.Decision{Reason: "nope"}
	assert.ErrorIs(t, d.Error(), domain.ErrForbidden)
	assert.Contains(t, d.Error().Error(), "nope")
}
