// internal/repository/news.go
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

type NewsRepository struct {
	db *gorm.DB
}

func NewNewsRepository(db *gorm.DB) *NewsRepository {
	return &NewsRepository{db: db}
}

func (r *NewsRepository) Create(ctx context.Context, news *model.CompanyNews) error {
	if err := r.db.WithContext(ctx).Create(news).Error; err != nil {
		return fmt.Errorf("creating news: %w", err)
	}
	return nil
}

func (r *NewsRepository) FindByID(ctx context.Context, companyID, id uuid.UUID) (*model.CompanyNews, error) {
	var news model.CompanyNews
	err := r.db.WithContext(ctx).
		Where("id = ? AND company_id = ?", id, companyID).
		First(&news).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNewsNotFound
		}
		return nil, fmt.Errorf("finding news: %w", err)
	}
	return &news, nil
}

func (r *NewsRepository) ListByCompany(ctx context.Context, companyID uuid.UUID) ([]model.CompanyNews, error) {
	var news []model.CompanyNews
	if err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("published_at DESC").
		Find(&news).Error; err != nil {
		return nil, fmt.Errorf("listing news: %w", err)
	}
	return news, nil
}

// ListPublishedBetween returns company news with from <= published_at < to.
func (r *NewsRepository) ListPublishedBetween(ctx context.Context, companyID uuid.UUID, from, to time.Time) ([]model.CompanyNews, error) {
	var news []model.CompanyNews
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND published_at >= ? AND published_at < ?", companyID, from, to).
		Order("published_at").
		Find(&news).Error; err != nil {
		return nil, fmt.Errorf("listing news: %w", err)
	}
	return news, nil
}

func (r *NewsRepository) Update(ctx context.Context, news *model.CompanyNews) error {
	if err := r.db.WithContext(ctx).Save(news).Error; err != nil {
		return fmt.Errorf("updating news: %w", err)
	}
	return nil
}

func (r *NewsRepository) Delete(ctx context.Context, companyID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ? AND company_id = ?", id, companyID).Delete(&model.CompanyNews{})
	if result.Error != nil {
		return fmt.Errorf("deleting news: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrNewsNotFound
	}
	return nil
}
