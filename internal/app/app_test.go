package app

import (
	"context"
	"testing"
	"time"

	"github.com/dangerclosesec/bizcontrol/internal/clock"
	"github.com/dangerclosesec/bizcontrol/internal/config"
	"github.com/dangerclosesec/bizcontrol/internal/model"
	"github.com/dangerclosesec/bizcontrol/internal/repository"
	"github.com/dangerclosesec/bizcontrol/internal/scheduler"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestApp(t *testing.T, clk *clock.FakeClock) *App {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?_time_format=sqlite"), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: clk.Now,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, repository.AutoMigrate(context.Background(), db))

	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.ExpiryPeriod = time.Hour
	cfg.Invite.TTL = time.Hour
	cfg.Invite.CodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	cfg.Invite.CodeLength = 6
	cfg.Invite.MaxAttempts = 10
	cfg.Audit.Enabled = true
	return New(db, cfg, Deps{Clock: clk})
}

func TestRegisteredJobsRun(t *testing.T) {
	now := time.Date(2025, time.May, 14, 3, 0, 0, 0, time.UTC)
	clk := clock.NewFakeClock(now)
	a := newTestApp(t, clk)
	ctx := context.Background()

	invites := repository.NewInviteRepository(a.DB)
	stale := &model.Invite{
		Code:      "STALE2",
		CompanyID: uuid.New(),
		Email:     "late@example.com",
		Role:      model.RoleUser,
		CreatedBy: uuid.New(),
		ExpiresAt: now.Add(-time.Minute),
	}
	require.NoError(t, invites.Create(ctx, stale))

	s := scheduler.New(scheduler.WithClock(clk))
	require.NoError(t, a.RegisterJobs(s, "0 3 * * *", "30 3 * * *", 24*time.Hour))

	require.NoError(t, s.RunNow(ctx, scheduler.JobCleanupInvites))
	_, err := invites.FindByCode(ctx, "STALE2")
	assert.Error(t, err)

	require.NoError(t, s.RunNow(ctx, scheduler.JobPruneAuditLogs))
}

func TestRegisterJobsSkipsDisabled(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2025, time.May, 14, 3, 0, 0, 0, time.UTC))
	a := newTestApp(t, clk)

	s := scheduler.New(scheduler.WithClock(clk))
	require.NoError(t, a.RegisterJobs(s, "", "30 3 * * *", 0))
	assert.Error(t, s.RunNow(context.Background(), scheduler.JobCleanupInvites))
	assert.Error(t, s.RunNow(context.Background(), scheduler.JobPruneAuditLogs))
}
