package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"github.com/dangerclosesec/bizcontrol/internal/config"
	"github.com/dangerclosesec/bizcontrol/internal/model"
	"github.com/dangerclosesec/bizcontrol/internal/repository"
)

func TestAutoMigrateSQLite(t *testing.T) {
	ctx := context.Background()

	cfg := &config.Config{}
	cfg.Database.Driver = config.DriverSQLite
	cfg.Database.SQLitePath = "file::memory:"

	db, err := repository.Open(cfg, logger.Silent)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, repository.AutoMigrate(ctx, db))
	for _, m := range model.AllModels() {
		assert.True(t, db.Migrator().HasTable(m), "%T", m)
	}

	logs := repository.NewAuthzAuditLogRepository(db)
	entry := &model.AuthzAuditLog{
		ActionType: model.ActionPolicyCheck,
		EntityType: "company",
		Context:    model.JSONMap{"role": "manager"},
	}
	require.NoError(t, logs.Create(ctx, entry))

	got, err := logs.FindByID(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, "manager", got.Context["role"])
}
