// internal/repository/invite.go
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

// ErrDuplicateInviteCode is returned by Create when the code is already taken.
var ErrDuplicateInviteCode = errors.New("invite code already exists")

type InviteRepository struct {
	db *gorm.DB
}

func NewInviteRepository(db *gorm.DB) *InviteRepository {
	return &InviteRepository{db: db}
}

func (r *InviteRepository) WithTx(tx *gorm.DB) *InviteRepository {
	return &InviteRepository{db: tx}
}

func (r *InviteRepository) Create(ctx context.Context, invite *model.Invite) error {
	if err := r.db.WithContext(ctx).Create(invite).Error; err != nil {
		if IsUniqueViolation(err) {
			return ErrDuplicateInviteCode
		}
		return fmt.Errorf("creating invite: %w", err)
	}
	return nil
}

// CodeExists checks the code against every stored invite, expired or not.
func (r *InviteRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&model.Invite{}).
		Where("code = ?", code).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("checking invite code: %w", err)
	}
	return count > 0, nil
}

func (r *InviteRepository) FindByCode(ctx context.Context, code string) (*model.Invite, error) {
	var invite model.Invite
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&invite).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrInviteNotFound
		}
		return nil, fmt.Errorf("finding invite: %w", err)
	}
	return &invite, nil
}

func (r *InviteRepository) ListByCompany(ctx context.Context, companyID uuid.UUID) ([]model.Invite, error) {
	var invites []model.Invite
	if err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("created_at DESC").
		Find(&invites).Error; err != nil {
		return nil, fmt.Errorf("listing invites: %w", err)
	}
	return invites, nil
}

func (r *InviteRepository) FindAllPaginated(ctx context.Context, page PageParams) ([]model.Invite, int64, error) {
	var invites []model.Invite
	var count int64

	if err := r.db.WithContext(ctx).Model(&model.Invite{}).Count(&count).Error; err != nil {
		return nil, 0, fmt.Errorf("counting invites: %w", err)
	}
	if err := page.apply(r.db.WithContext(ctx)).Order("created_at DESC").Find(&invites).Error; err != nil {
		return nil, 0, fmt.Errorf("listing invites: %w", err)
	}
	return invites, count, nil
}

// DeleteByID removes one invite and reports how many rows went away.
// Zero means someone else consumed or purged it first.
func (r *InviteRepository) DeleteByID(ctx context.Context, id uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Invite{})
	if result.Error != nil {
		return 0, fmt.Errorf("deleting invite: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *InviteRepository) DeleteByCode(ctx context.Context, companyID uuid.UUID, code string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("company_id = ? AND code = ?", companyID, code).
		Delete(&model.Invite{})
	if result.Error != nil {
		return 0, fmt.Errorf("deleting invite: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// DeleteExpired purges every invite whose expiry is strictly before now.
func (r *InviteRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("expires_at < ?", now).Delete(&model.Invite{})
	if result.Error != nil {
		return 0, fmt.Errorf("deleting expired invites: %w", result.Error)
	}
	return result.RowsAffected, nil
}
