// internal/model/task.go
package model

import (
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusDone       TaskStatus = "done"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusTodo, TaskStatusInProgress, TaskStatusDone:
		return true
	}
	return false
}

type Task struct {
	Base
	Title      string     `gorm:"type:varchar(255);not null" json:"title"`
	Body       string     `gorm:"type:text;not null" json:"body"`
	Status     TaskStatus `gorm:"type:varchar(16);not null;default:todo" json:"status"`
	CompanyID  uuid.UUID  `gorm:"type:uuid;not null;index" json:"company_id"`
	AuthorID   uuid.UUID  `gorm:"type:uuid;not null" json:"author_id"`
	ExecutorID uuid.UUID  `gorm:"type:uuid;not null;index" json:"executor_id"`
	StartAt    time.Time  `gorm:"not null" json:"start_at"`
	DueAt      time.Time  `gorm:"not null" json:"due_at"`
}

type TaskComment struct {
	Base
	Body     string    `gorm:"type:text;not null" json:"body"`
	AuthorID uuid.UUID `gorm:"type:uuid;not null" json:"author_id"`
	TaskID   uuid.UUID `gorm:"type:uuid;not null;index" json:"task_id"`
}

// Rating is the one-per-task evaluation used by the motivation reports.
type Rating struct {
	Base
	TaskID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"task_id"`
	Timeliness   int       `gorm:"type:smallint;not null" json:"timeliness"`
	Completeness int       `gorm:"type:smallint;not null" json:"completeness"`
	Quality      int       `gorm:"type:smallint;not null" json:"quality"`
	Avg          float64   `gorm:"type:numeric(4,2);not null" json:"avg"`
}

// BeforeCreate derives Avg from the sub-scores; callers cannot set it.
func (r *Rating) BeforeCreate(tx *gorm.DB) error {
	if err := r.Base.BeforeCreate(tx); err != nil {
		return err
	}
	r.Avg = RatingAverage(r.Timeliness, r.Completeness, r.Quality)
	return nil
}

// RatingAverage is the mean of the three scores rounded half-up to two decimals.
func RatingAverage(timeliness, completeness, quality int) float64 {
	sum := timeliness + completeness + quality
	// sum*100/3 in integer hundredths, rounded half-up.
	hundredths := (sum*200 + 3) / 6
	return float64(hundredths) / 100
}

// RoundHalfUp rounds v to two decimals, halves away from zero.
func RoundHalfUp(v float64) float64 {
	return math.Floor(v*100+0.5) / 100
}
