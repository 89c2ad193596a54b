// internal/repository/department.go
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

type DepartmentRepository struct {
	db *gorm.DB
}

func NewDepartmentRepository(db *gorm.DB) *DepartmentRepository {
	return &DepartmentRepository{db: db}
}

func (r *DepartmentRepository) WithTx(tx *gorm.DB) *DepartmentRepository {
	return &DepartmentRepository{db: tx}
}

func (r *DepartmentRepository) Create(ctx context.Context, dep *model.Department) error {
	if err := r.db.WithContext(ctx).Create(dep).Error; err != nil {
		if IsUniqueViolation(err) {
			return domain.ErrDepartmentNameExists
		}
		return fmt.Errorf("creating department: %w", err)
	}
	return nil
}

// FindByID looks the department up inside a company. Rows of other companies
// are reported as missing.
func (r *DepartmentRepository) FindByID(ctx context.Context, companyID, id uuid.UUID) (*model.Department, error) {
	var dep model.Department
	err := r.db.WithContext(ctx).
		Where("id = ? AND company_id = ?", id, companyID).
		First(&dep).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrDepartmentNotFound
		}
		return nil, fmt.Errorf("finding department: %w", err)
	}
	return &dep, nil
}

func (r *DepartmentRepository) ListByCompany(ctx context.Context, companyID uuid.UUID) ([]model.Department, error) {
	var deps []model.Department
	if err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("name").
		Find(&deps).Error; err != nil {
		return nil, fmt.Errorf("listing departments: %w", err)
	}
	return deps, nil
}

func (r *DepartmentRepository) Update(ctx context.Context, dep *model.Department) error {
	if err := r.db.WithContext(ctx).Save(dep).Error; err != nil {
		if IsUniqueViolation(err) {
			return domain.ErrDepartmentNameExists
		}
		return fmt.Errorf("updating department: %w", err)
	}
	return nil
}

// Delete removes the department and detaches its children, members and
// pending invites.
func (r *DepartmentRepository) Delete(ctx context.Context, companyID, id uuid.UUID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Department{}).
			Where("parent_id = ? AND company_id = ?", id, companyID).
			Update("parent_id", nil).Error; err != nil {
			return fmt.Errorf("detaching child departments: %w", err)
		}
		if err := tx.Model(&model.Membership{}).
			Where("department_id = ? AND company_id = ?", id, companyID).
			Update("department_id", nil).Error; err != nil {
			return fmt.Errorf("detaching memberships: %w", err)
		}
		if err := tx.Model(&model.Invite{}).
			Where("department_id = ? AND company_id = ?", id, companyID).
			Update("department_id", nil).Error; err != nil {
			return fmt.Errorf("detaching invites: %w", err)
		}

		result := tx.Where("id = ? AND company_id = ?", id, companyID).Delete(&model.Department{})
		if result.Error != nil {
			return fmt.Errorf("deleting department: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return domain.ErrDepartmentNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrDepartmentNotFound) {
			return err
		}
		return fmt.Errorf("transaction failed: %w", err)
	}
	return nil
}
