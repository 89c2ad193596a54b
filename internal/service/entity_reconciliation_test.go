package service

import (
	"context"
	"errors"
	"testing"

	"github.com/dangerclosesec/bizcontrol/internal/mocks"
	"github.com/dangerclosesec/bizcontrol/internal/model"
	"github.com/dangerclosesec/bizcontrol/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestRelationReconciler_Run(t *testing.T) {
	ctx := context.Background()
	e := newTestEnv(t)

	a := e.newUser(t, "a@x.com")
	b := e.newUser(t, "b@x.com")
	first := e.newCompany(t, a, "Acme")
	e.addMember(t, first.CompanyID, b, model.RoleUser, nil)
	e.newCompany(t, b, "Globex")

	ctrl := gomock.NewController(t)
	mirror := mocks.NewMockRelationMirror(ctrl)
	mirror.EXPECT().WriteMembership(gomock.Any(), gomock.Any()).Return(nil).Times(2)
	mirror.EXPECT().WriteMembership(gomock.Any(), gomock.Any()).Return(errors.New("unavailable"))

	r := NewRelationReconciler(e.companies, e.memberships, mirror, nil)
	r.SetBatchSize(1)

	stats, err := r.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, ReconcileStats{Companies: 2, Written: 2, Failed: 1}, stats)
}

func TestRelationReconciler_DryRunWritesNothing(t *testing.T) {
	e := newTestEnv(t)
	a := e.newUser(t, "a@x.com")
	e.newCompany(t, a, "Acme")

	ctrl := gomock.NewController(t)
	mirror := mocks.NewMockRelationMirror(ctrl)

	r := NewRelationReconciler(e.companies, e.memberships, mirror, nil)
	r.SetDryRun(true)

	stats, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Companies)
	assert.Zero(t, stats.Written)

	_, err = e.companies.FindAll(context.Background(), repository.PageParams{})
	assert.NoError(t, err)
}
