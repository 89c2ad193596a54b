// internal/repository/authz_audit_log.go
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dangerclosesec/bizcontrol/internal/domain"
	"github.com/dangerclosesec/bizcontrol/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrAuditLogNotFound = fmt.Errorf("%w: audit log not found", domain.ErrNotFound)

// AuthzAuditLogRepository handles database operations for authorization audit logs
type AuthzAuditLogRepository struct {
	db *gorm.DB
}

func NewAuthzAuditLogRepository(db *gorm.DB) *AuthzAuditLogRepository {
	return &AuthzAuditLogRepository{
		db: db,
	}
}

// Create inserts a new audit log entry
func (r *AuthzAuditLogRepository) Create(ctx context.Context, log *model.AuthzAuditLog) error {
	result := r.db.WithContext(ctx).Create(log)
	if result.Error != nil {
		return fmt.Errorf("failed to create authorization audit log: %w", result.Error)
	}

	return nil
}

func (r *AuthzAuditLogRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.AuthzAuditLog, error) {
	var log model.AuthzAuditLog
	result := r.db.WithContext(ctx).Where("id = ?", id).First(&log)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrAuditLogNotFound
		}
		return nil, fmt.Errorf("failed to find authorization audit log: %w", result.Error)
	}

	return &log, nil
}

// QueryParams holds parameters for querying audit logs
type QueryParams struct {
	ActionType string
	EntityType string
	EntityID   string
	SubjectID  string
	Permission string
	Result     *bool
	StartTime  time.Time
	EndTime    time.Time
	Limit      int
	Offset     int
}

// Query retrieves audit logs matching params, newest first, with the total count.
func (r *AuthzAuditLogRepository) Query(ctx context.Context, params QueryParams) ([]model.AuthzAuditLog, int64, error) {
	var logs []model.AuthzAuditLog
	var count int64

	query := r.db.WithContext(ctx).Model(&model.AuthzAuditLog{})

	if params.ActionType != "" {
		query = query.Where("action_type = ?", params.ActionType)
	}
	if params.EntityType != "" {
		query = query.Where("entity_type = ?", params.EntityType)
	}
	if params.EntityID != "" {
		query = query.Where("entity_id = ?", params.EntityID)
	}
	if params.SubjectID != "" {
		query = query.Where("subject_id = ?", params.SubjectID)
	}
	if params.Permission != "" {
		query = query.Where("permission = ?", params.Permission)
	}
	if params.Result != nil {
		query = query.Where("result = ?", *params.Result)
	}
	if !params.StartTime.IsZero() {
		query = query.Where("timestamp >= ?", params.StartTime)
	}
	if !params.EndTime.IsZero() {
		query = query.Where("timestamp <= ?", params.EndTime)
	}

	if err := query.Count(&count).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count authorization audit logs: %w", err)
	}

	page := PageParams{Offset: params.Offset, Limit: params.Limit}
	result := page.apply(query).Order("timestamp DESC").Find(&logs)
	if result.Error != nil {
		return nil, 0, fmt.Errorf("failed to query authorization audit logs: %w", result.Error)
	}

	return logs, count, nil
}

// DeleteOlderThan prunes entries recorded before cutoff.
func (r *AuthzAuditLogRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("timestamp < ?", cutoff).Delete(&model.AuthzAuditLog{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to prune authorization audit logs: %w", result.Error)
	}
	return result.RowsAffected, nil
}
