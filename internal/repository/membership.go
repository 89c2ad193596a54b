// internal/repository/membership.go
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/dangerclosesec/bizcontrol/internal/domain"
	"github.com/dangerclosesec/bizcontrol/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MembershipRepository is the membership directory: who belongs to which
// company and with what role.
type MembershipRepository struct {
	db *gorm.DB
}

func NewMembershipRepository(db *gorm.DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

func (r *MembershipRepository) WithTx(tx *gorm.DB) *MembershipRepository {
	return &MembershipRepository{db: tx}
}

// Create inserts m. A second membership of the same user in the same company
// yields domain.ErrMembershipExists.
func (r *MembershipRepository) Create(ctx context.Context, m *model.Membership) error {
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		if IsUniqueViolation(err) {
			return domain.ErrMembershipExists
		}
		return fmt.Errorf("creating membership: %w", err)
	}
	return nil
}

// Find returns the membership of userID in companyID.
func (r *MembershipRepository) Find(ctx context.Context, userID, companyID uuid.UUID) (*model.Membership, error) {
	var m model.Membership
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND company_id = ?", userID, companyID).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrMembershipNotFound
		}
		return nil, fmt.Errorf("finding membership: %w", err)
	}
	return &m, nil
}

func (r *MembershipRepository) FindByID(ctx context.Context, companyID, id uuid.UUID) (*model.Membership, error) {
	var m model.Membership
	err := r.db.WithContext(ctx).
		Where("id = ? AND company_id = ?", id, companyID).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrMembershipNotFound
		}
		return nil, fmt.Errorf("finding membership: %w", err)
	}
	return &m, nil
}

func (r *MembershipRepository) CountAdmins(ctx context.Context, companyID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&model.Membership{}).
		Where("company_id = ? AND role = ?", companyID, model.RoleAdmin).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("counting admins: %w", err)
	}
	return count, nil
}

// CountByUser returns how many companies the user belongs to.
func (r *MembershipRepository) CountByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&model.Membership{}).
		Where("user_id = ?", userID).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("counting memberships: %w", err)
	}
	return count, nil
}

func (r *MembershipRepository) ListByCompany(ctx context.Context, companyID uuid.UUID) ([]model.Membership, error) {
	var ms []model.Membership
	if err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("created_at").
		Find(&ms).Error; err != nil {
		return nil, fmt.Errorf("listing memberships: %w", err)
	}
	return ms, nil
}

// ListDepartmentUserIDs returns the users holding a membership in the given
// department of the company.
func (r *MembershipRepository) ListDepartmentUserIDs(ctx context.Context, companyID, departmentID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&model.Membership{}).
		Where("company_id = ? AND department_id = ?", companyID, departmentID).
		Pluck("user_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("listing department members: %w", err)
	}
	return ids, nil
}

func (r *MembershipRepository) Update(ctx context.Context, m *model.Membership) error {
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return fmt.Errorf("updating membership: %w", err)
	}
	return nil
}

// Delete removes the membership and clears it as manager of other members.
func (r *MembershipRepository) Delete(ctx context.Context, m *model.Membership) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Membership{}).
			Where("company_id = ? AND manager_id = ?", m.CompanyID, m.UserID).
			Update("manager_id", nil).Error; err != nil {
			return fmt.Errorf("detaching subordinates: %w", err)
		}
		result := tx.Where("id = ? AND company_id = ?", m.ID, m.CompanyID).Delete(&model.Membership{})
		if result.Error != nil {
			return fmt.Errorf("deleting membership: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return domain.ErrMembershipNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrMembershipNotFound) {
			return err
		}
		return fmt.Errorf("transaction failed: %w", err)
	}
	return nil
}
