// internal/repository/rating.go
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/dangerclosesec/bizcontrol/internal/domain"
	"github.com/dangerclosesec/bizcontrol/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RatingRepository struct {
	db *gorm.DB
}

func NewRatingRepository(db *gorm.DB) *RatingRepository {
	return &RatingRepository{db: db}
}

// Create stores the rating; a task can be rated once.
func (r *RatingRepository) Create(ctx context.Context, rating *model.Rating) error {
	if err := r.db.WithContext(ctx).Create(rating).Error; err != nil {
		if IsUniqueViolation(err) {
			return domain.ErrAlreadyRated
		}
		return fmt.Errorf("creating rating: %w", err)
	}
	return nil
}

func (r *RatingRepository) executorScope(ctx context.Context, companyID uuid.UUID, executorIDs []uuid.UUID, from, to time.Time) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&model.Rating{}).
		Joins("JOIN tasks ON tasks.id = ratings.task_id").
		Where("tasks.company_id = ? AND tasks.executor_id IN ?", companyID, executorIDs).
		Where("ratings.created_at >= ? AND ratings.created_at < ?", from, to)
}

// ListForExecutor returns the ratings of tasks executed by the user and
// created in [from, to), newest first.
func (r *RatingRepository) ListForExecutor(ctx context.Context, companyID, executorID uuid.UUID, from, to time.Time) ([]model.Rating, error) {
	var ratings []model.Rating
	if err := r.executorScope(ctx, companyID, []uuid.UUID{executorID}, from, to).
		Select("ratings.*").
		Order("ratings.created_at DESC").
		Find(&ratings).Error; err != nil {
		return nil, fmt.Errorf("listing ratings: %w", err)
	}
	return ratings, nil
}

// AverageForExecutors averages the stored ratings of tasks executed by any of
// the given users. It is 0 when nothing matches.
func (r *RatingRepository) AverageForExecutors(ctx context.Context, companyID uuid.UUID, executorIDs []uuid.UUID, from, to time.Time) (float64, error) {
	if len(executorIDs) == 0 {
		return 0, nil
	}
	var avg float64
	if err := r.executorScope(ctx, companyID, executorIDs, from, to).
		Select("COALESCE(AVG(ratings.avg), 0)").
		Scan(&avg).Error; err != nil {
		return 0, fmt.Errorf("averaging ratings: %w", err)
	}
	return avg, nil
}
