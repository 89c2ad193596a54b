// internal/repository/company.go
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

type CompanyRepository struct {
	db *gorm.DB
}

func NewCompanyRepository(db *gorm.DB) *CompanyRepository {
	return &CompanyRepository{db: db}
}

func (r *CompanyRepository) WithTx(tx *gorm.DB) *CompanyRepository {
	return &CompanyRepository{db: tx}
}

func (r *CompanyRepository) Create(ctx context.Context, company *model.Company) error {
	if err := r.db.WithContext(ctx).Create(company).Error; err != nil {
		if IsUniqueViolation(err) {
			return domain.ErrCompanyNameExists
		}
		return fmt.Errorf("creating company: %w", err)
	}
	return nil
}

func (r *CompanyRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Company, error) {
	var company model.Company
	if err := r.db.WithContext(ctx).First(&company, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCompanyNotFound
		}
		return nil, fmt.Errorf("finding company: %w", err)
	}
	return &company, nil
}

// FindAll returns every company ordered by name.
func (r *CompanyRepository) FindAll(ctx context.Context, page PageParams) ([]model.Company, error) {
	var companies []model.Company
	if err := page.apply(r.db.WithContext(ctx)).Order("name").Find(&companies).Error; err != nil {
		return nil, fmt.Errorf("finding companies: %w", err)
	}
	return companies, nil
}

// FindByUser returns the companies the user holds a membership in.
func (r *CompanyRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]model.Company, error) {
	var companies []model.Company
	if err := r.db.WithContext(ctx).
		Joins("JOIN memberships ON companies.id = memberships.company_id").
		Where("memberships.user_id = ?", userID).
		Order("companies.name").
		Find(&companies).Error; err != nil {
		return nil, fmt.Errorf("finding user companies: %w", err)
	}
	return companies, nil
}

func (r *CompanyRepository) Update(ctx context.Context, company *model.Company) error {
	if err := r.db.WithContext(ctx).Save(company).Error; err != nil {
		if IsUniqueViolation(err) {
			return domain.ErrCompanyNameExists
		}
		return fmt.Errorf("updating company: %w", err)
	}
	return nil
}

// Delete removes the company and everything it owns in one transaction.
func (r *CompanyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taskIDs := tx.Model(&model.Task{}).Select("id").Where("company_id = ?", id)
		meetingIDs := tx.Model(&model.Meeting{}).Select("id").Where("company_id = ?", id)

		steps := []struct {
			what  string
			query *gorm.DB
			model any
		}{
			{"ratings", tx.Where("task_id IN (?)", taskIDs), &model.Rating{}},
			{"task comments", tx.Where("task_id IN (?)", taskIDs), &model.TaskComment{}},
			{"meeting attendees", tx.Where("meeting_id IN (?)", meetingIDs), &model.MeetingAttendee{}},
			{"tasks", tx.Where("company_id = ?", id), &model.Task{}},
			{"meetings", tx.Where("company_id = ?", id), &model.Meeting{}},
			{"news", tx.Where("company_id = ?", id), &model.CompanyNews{}},
			{"invites", tx.Where("company_id = ?", id), &model.Invite{}},
			{"memberships", tx.Where("company_id = ?", id), &model.Membership{}},
			{"departments", tx.Where("company_id = ?", id), &model.Department{}},
		}
		for _, step := range steps {
			if err := step.query.Delete(step.model).Error; err != nil {
				return fmt.Errorf("deleting %s: %w", step.what, err)
			}
		}

		result := tx.Delete(&model.Company{}, "id = ?", id)
		if result.Error != nil {
			return fmt.Errorf("deleting company: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return domain.ErrCompanyNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrCompanyNotFound) {
			return err
		}
		return fmt.Errorf("transaction failed: %w", err)
	}
	return nil
}
