package service

import (
	"context"
	"fmt"
	"time"

	"github.com/dangerclosesec/bizcontrol/internal/clock"
	"github.com/dangerclosesec/bizcontrol/internal/domain"
	"github.com/dangerclosesec/bizcontrol/internal/model"
	"github.com/dangerclosesec/bizcontrol/internal/policy"
	"github.com/dangerclosesec/bizcontrol/internal/repository"
	"github.com/google/uuid"
)

// AuthzAuditLogService exposes the authorization audit trail to superusers
// and prunes it.
type AuthzAuditLogService struct {
	repo  *repository.AuthzAuditLogRepository
	clock clock.Clock
}

func NewAuthzAuditLogService(repo *repository.AuthzAuditLogRepository, clk clock.Clock) *AuthzAuditLogService {
	if clk == nil {
		clk = clock.New()
	}
	return &AuthzAuditLogService{repo: repo, clock: clk}
}

func requireSuperuser(actor policy.Actor) error {
	if !actor.IsSuperuser {
		return domain.ErrSuperuserRequired
	}
	return nil
}

// GetAuditLogs retrieves audit logs based on query parameters
func (s *AuthzAuditLogService) GetAuditLogs(
	ctx context.Context,
	actor policy.Actor,
	params repository.QueryParams,
) ([]model.AuthzAuditLog, int64, error) {
	if err := requireSuperuser(actor); err != nil {
		return nil, 0, err
	}
	if !params.StartTime.IsZero() && !params.EndTime.IsZero() && params.EndTime.Before(params.StartTime) {
		return nil, 0, fmt.Errorf("%w: end_time is before start_time", domain.ErrBadRequest)
	}
	return s.repo.Query(ctx, params)
}

// GetAuditLogByID retrieves an audit log by ID
func (s *AuthzAuditLogService) GetAuditLogByID(
	ctx context.Context,
	actor policy.Actor,
	id uuid.UUID,
) (*model.AuthzAuditLog, error) {
	if err := requireSuperuser(actor); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}

// Prune deletes entries older than retention and returns how many went.
func (s *AuthzAuditLogService) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	if retention <= 0 {
		return 0, nil
	}
	return s.repo.DeleteOlderThan(ctx, s.clock.Now().UTC().Add(-retention))
}
