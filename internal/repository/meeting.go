// internal/repository/meeting.go
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

type MeetingRepository struct {
	db *gorm.DB
}

func NewMeetingRepository(db *gorm.DB) *MeetingRepository {
	return &MeetingRepository{db: db}
}

func (r *MeetingRepository) WithTx(tx *gorm.DB) *MeetingRepository {
	return &MeetingRepository{db: tx}
}

func (r *MeetingRepository) Create(ctx context.Context, m *model.Meeting) error {
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("creating meeting: %w", err)
	}
	return nil
}

func (r *MeetingRepository) FindByID(ctx context.Context, companyID, id uuid.UUID) (*model.Meeting, error) {
	var m model.Meeting
	err := r.db.WithContext(ctx).
		Where("id = ? AND company_id = ?", id, companyID).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrMeetingNotFound
		}
		return nil, fmt.Errorf("finding meeting: %w", err)
	}
	return &m, nil
}

func (r *MeetingRepository) ListByCompany(ctx context.Context, companyID uuid.UUID) ([]model.Meeting, error) {
	var ms []model.Meeting
	if err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("start_at").
		Find(&ms).Error; err != nil {
		return nil, fmt.Errorf("listing meetings: %w", err)
	}
	return ms, nil
}

// ListForAttendeeBetween returns company meetings the user attends that
// overlap [from, to).
func (r *MeetingRepository) ListForAttendeeBetween(ctx context.Context, companyID, userID uuid.UUID, from, to time.Time) ([]model.Meeting, error) {
	var ms []model.Meeting
	if err := r.db.WithContext(ctx).
		Joins("JOIN meeting_attendees ON meeting_attendees.meeting_id = meetings.id").
		Where("meetings.company_id = ? AND meeting_attendees.user_id = ?", companyID, userID).
		Where("meetings.start_at < ? AND meetings.end_at > ?", to, from).
		Order("meetings.start_at").
		Find(&ms).Error; err != nil {
		return nil, fmt.Errorf("listing attendee meetings: %w", err)
	}
	return ms, nil
}

// HasOverlap reports whether the user attends any meeting, other than
// excludeID, intersecting the open interval (start, end).
func (r *MeetingRepository) HasOverlap(ctx context.Context, userID, excludeID uuid.UUID, start, end time.Time) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&model.Meeting{}).
		Joins("JOIN meeting_attendees ON meeting_attendees.meeting_id = meetings.id").
		Where("meeting_attendees.user_id = ? AND meetings.id <> ?", userID, excludeID).
		Where("meetings.start_at < ? AND meetings.end_at > ?", end, start).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("checking meeting overlap: %w", err)
	}
	return count > 0, nil
}

func (r *MeetingRepository) Update(ctx context.Context, m *model.Meeting) error {
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return fmt.Errorf("updating meeting: %w", err)
	}
	return nil
}

func (r *MeetingRepository) Delete(ctx context.Context, companyID, id uuid.UUID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("meeting_id = ?", id).Delete(&model.MeetingAttendee{}).Error; err != nil {
			return fmt.Errorf("deleting attendees: %w", err)
		}
		result := tx.Where("id = ? AND company_id = ?", id, companyID).Delete(&model.Meeting{})
		if result.Error != nil {
			return fmt.Errorf("deleting meeting: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return domain.ErrMeetingNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrMeetingNotFound) {
			return err
		}
		return fmt.Errorf("transaction failed: %w", err)
	}
	return nil
}

// AddAttendee inserts the attendance row; a second one for the same user
// yields domain.ErrAlreadyAttending.
func (r *MeetingRepository) AddAttendee(ctx context.Context, a *model.MeetingAttendee) error {
	if err := r.db.WithContext(ctx).Create(a).Error; err != nil {
		if IsUniqueViolation(err) {
			return domain.ErrAlreadyAttending
		}
		return fmt.Errorf("adding attendee: %w", err)
	}
	return nil
}

func (r *MeetingRepository) ListAttendees(ctx context.Context, meetingID uuid.UUID) ([]model.MeetingAttendee, error) {
	var as []model.MeetingAttendee
	if err := r.db.WithContext(ctx).
		Where("meeting_id = ?", meetingID).
		Order("created_at").
		Find(&as).Error; err != nil {
		return nil, fmt.Errorf("listing attendees: %w", err)
	}
	return as, nil
}

func (r *MeetingRepository) RemoveAttendee(ctx context.Context, meetingID, userID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("meeting_id = ? AND user_id = ?", meetingID, userID).
		Delete(&model.MeetingAttendee{})
	if result.Error != nil {
		return fmt.Errorf("removing attendee: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrAttendeeNotFound
	}
	return nil
}
