package mocks_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/dangerclosesec/bizcontrol/internal/auth"
	"github.com/dangerclosesec/bizcontrol/internal/mocks"
	"github.com/dangerclosesec/bizcontrol/internal/model"
	"github.com/dangerclosesec/bizcontrol/internal/service"
)

var (
	_ auth.RelationMirror  = (*mocks.MockRelationMirror)(nil)
	_ service.InviteMailer = (*mocks.MockInviteMailer)(nil)
)

func TestRelationMirrorPassesMembership(t *testing.T) {
	ctrl := gomock.NewController(t)
	mirror := mocks.NewMockRelationMirror(ctrl)
	m := &model.Membership{UserID: uuid.New(), CompanyID: uuid.New(), Role: model.RoleAdmin}

	mirror.EXPECT().WriteMembership(gomock.Any(), m).Return(nil)
	mirror.EXPECT().DeleteMembership(gomock.Any(), m).Return(assert.AnError)

	assert.NoError(t, mirror.WriteMembership(context.Background(), m))
	assert.ErrorIs(t, mirror.DeleteMembership(context.Background(), m), assert.AnError)
}
