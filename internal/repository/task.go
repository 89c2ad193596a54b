// internal/repository/task.go
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

type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("creating task: %w", err)
	}
	return nil
}

func (r *TaskRepository) FindByID(ctx context.Context, companyID, id uuid.UUID) (*model.Task, error) {
	var task model.Task
	err := r.db.WithContext(ctx).
		Where("id = ? AND company_id = ?", id, companyID).
		First(&task).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("finding task: %w", err)
	}
	return &task, nil
}

func (r *TaskRepository) ListByCompany(ctx context.Context, companyID uuid.UUID) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("due_at").
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	return tasks, nil
}

// ListForExecutorBetween returns the executor's tasks overlapping [from, to).
func (r *TaskRepository) ListForExecutorBetween(ctx context.Context, companyID, executorID uuid.UUID, from, to time.Time) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).
		Where("company_id = ? AND executor_id = ?", companyID, executorID).
		Where("start_at < ? AND due_at >= ?", to, from).
		Order("start_at").
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("listing executor tasks: %w", err)
	}
	return tasks, nil
}

func (r *TaskRepository) Update(ctx context.Context, task *model.Task) error {
	if err := r.db.WithContext(ctx).Save(task).Error; err != nil {
		return fmt.Errorf("updating task: %w", err)
	}
	return nil
}

// Delete removes the task together with its comments and rating.
func (r *TaskRepository) Delete(ctx context.Context, companyID, id uuid.UUID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", id).Delete(&model.TaskComment{}).Error; err != nil {
			return fmt.Errorf("deleting comments: %w", err)
		}
		if err := tx.Where("task_id = ?", id).Delete(&model.Rating{}).Error; err != nil {
			return fmt.Errorf("deleting rating: %w", err)
		}
		result := tx.Where("id = ? AND company_id = ?", id, companyID).Delete(&model.Task{})
		if result.Error != nil {
			return fmt.Errorf("deleting task: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return domain.ErrTaskNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			return err
		}
		return fmt.Errorf("transaction failed: %w", err)
	}
	return nil
}

type CommentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

func (r *CommentRepository) Create(ctx context.Context, c *model.TaskComment) error {
	if err := r.db.WithContext(ctx).Create(c).Error; err != nil {
		return fmt.Errorf("creating comment: %w", err)
	}
	return nil
}

func (r *CommentRepository) FindByID(ctx context.Context, taskID, id uuid.UUID) (*model.TaskComment, error) {
	var c model.TaskComment
	err := r.db.WithContext(ctx).
		Where("id = ? AND task_id = ?", id, taskID).
		First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCommentNotFound
		}
		return nil, fmt.Errorf("finding comment: %w", err)
	}
	return &c, nil
}

func (r *CommentRepository) ListByTask(ctx context.Context, taskID uuid.UUID) ([]model.TaskComment, error) {
	var cs []model.TaskComment
	if err := r.db.WithContext(ctx).
		Where("task_id = ?", taskID).
		Order("created_at").
		Find(&cs).Error; err != nil {
		return nil, fmt.Errorf("listing comments: %w", err)
	}
	return cs, nil
}

func (r *CommentRepository) Update(ctx context.Context, c *model.TaskComment) error {
	if err := r.db.WithContext(ctx).Save(c).Error; err != nil {
		return fmt.Errorf("updating comment: %w", err)
	}
	return nil
}

func (r *CommentRepository) Delete(ctx context.Context, taskID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ? AND task_id = ?", id, taskID).Delete(&model.TaskComment{})
	if result.Error != nil {
		return fmt.Errorf("deleting comment: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrCommentNotFound
	}
	return nil
}
