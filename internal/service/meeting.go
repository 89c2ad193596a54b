package service

import (
	"context"
	"strings"
	"time"

	"github.com/dangerclosesec/bizcontrol/internal/domain"
	"github.com/dangerclosesec/bizcontrol/internal/model"
	"github.com/dangerclosesec/bizcontrol/internal/policy"
	"github.com/dangerclosesec/bizcontrol/internal/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MeetingService struct {
	db          *gorm.DB
	meetings    *repository.MeetingRepository
	memberships *repository.MembershipRepository
	guard       *Guard
}

func NewMeetingService(
	db *gorm.DB,
	meetings *repository.MeetingRepository,
	memberships *repository.MembershipRepository,
	guard *Guard,
) *MeetingService {
	return &MeetingService{db: db, meetings: meetings, memberships: memberships, guard: guard}
}

type MeetingInput struct {
	Title       string    `json:"title" validate:"required,max=255"`
	Description string    `json:"description" validate:"max=4000"`
	StartAt     time.Time `json:"start_at" validate:"required"`
	EndAt       time.Time `json:"end_at" validate:"required"`
}

type AttendeeInput struct {
	UserID uuid.UUID `json:"user_id" validate:"required"`
}

func (in *MeetingInput) normalize() error {
	in.Title = strings.TrimSpace(in.Title)
	if err := validateInput(*in); err != nil {
		return err
	}
	in.StartAt = in.StartAt.UTC()
	in.EndAt = in.EndAt.UTC()
	if !in.EndAt.After(in.StartAt) {
		return domain.ErrMeetingDates
	}
	return nil
}

// Create stores the meeting with its author as the first attendee. The
// author's own calendar is not checked for overlaps.
func (s *MeetingService) Create(ctx context.Context, actor policy.Actor, companyID uuid.UUID, input MeetingInput) (*model.Meeting, error) {
	if err := input.normalize(); err != nil {
		return nil, err
	}
	if _, err := s.guard.Authorize(ctx, actor, companyID, PermMeetingCreate, policy.RequireManagerAdminOrSuperuser); err != nil {
		return nil, err
	}
	meeting := &model.Meeting{
		Title:       input.Title,
		Description: input.Description,
		CompanyID:   companyID,
		AuthorID:    actor.UserID,
		StartAt:     input.StartAt,
		EndAt:       input.EndAt,
	}
	err := repository.Transact(ctx, s.db, func(tx *gorm.DB) error {
		repo := s.meetings.WithTx(tx)
		if err := repo.Create(ctx, meeting); err != nil {
			return err
		}
		return repo.AddAttendee(ctx, &model.MeetingAttendee{MeetingID: meeting.ID, UserID: actor.UserID})
	})
	if err != nil {
		return nil, err
	}
	return meeting, nil
}

func (s *MeetingService) List(ctx context.Context, actor policy.Actor, companyID uuid.UUID) ([]model.Meeting, error) {
	if _, err := s.guard.Authorize(ctx, actor, companyID, PermCompanyRead, policy.RequireMemberOrSuperuser); err != nil {
		return nil, err
	}
	return s.meetings.ListByCompany(ctx, companyID)
}

func (s *MeetingService) Get(ctx context.Context, actor policy.Actor, companyID, meetingID uuid.UUID) (*model.Meeting, error) {
	if _, err := s.guard.Authorize(ctx, actor, companyID, PermCompanyRead, policy.RequireMemberOrSuperuser); err != nil {
		return nil, err
	}
	return s.meetings.FindByID(ctx, companyID, meetingID)
}

// manageable loads the meeting and requires full access to it.
func (s *MeetingService) manageable(ctx context.Context, actor policy.Actor, companyID, meetingID uuid.UUID) (*model.Meeting, *model.Membership, error) {
	m, err := s.guard.Member(ctx, actor, companyID)
	if err != nil {
		return nil, nil, err
	}
	meeting, err := s.meetings.FindByID(ctx, companyID, meetingID)
	if err != nil {
		return nil, nil, err
	}
	if err := s.guard.Enforce(ctx, actor, PermMeetingManage, entity("meeting", meeting.ID),
		policy.CanManageMeeting(actor, meeting, m)); err != nil {
		return nil, nil, err
	}
	return meeting, m, nil
}

// Update reschedules the meeting. Every attendee must stay free of other
// meetings in the new slot.
func (s *MeetingService) Update(ctx context.Context, actor policy.Actor, companyID, meetingID uuid.UUID, input MeetingInput) (*model.Meeting, error) {
	if err := input.normalize(); err != nil {
		return nil, err
	}
	meeting, _, err := s.manageable(ctx, actor, companyID, meetingID)
	if err != nil {
		return nil, err
	}

	if !input.StartAt.Equal(meeting.StartAt) || !input.EndAt.Equal(meeting.EndAt) {
		attendees, err := s.meetings.ListAttendees(ctx, meeting.ID)
		if err != nil {
			return nil, err
		}
		for _, a := range attendees {
			busy, err := s.meetings.HasOverlap(ctx, a.UserID, meeting.ID, input.StartAt, input.EndAt)
			if err != nil {
				return nil, err
			}
			if busy {
				return nil, domain.ErrScheduleConflict
			}
		}
	}

	meeting.Title = input.Title
	meeting.Description = input.Description
	meeting.StartAt = input.StartAt
	meeting.EndAt = input.EndAt
	if err := s.meetings.Update(ctx, meeting); err != nil {
		return nil, err
	}
	return meeting, nil
}

func (s *MeetingService) Delete(ctx context.Context, actor policy.Actor, companyID, meetingID uuid.UUID) error {
	if _, _, err := s.manageable(ctx, actor, companyID, meetingID); err != nil {
		return err
	}
	return s.meetings.Delete(ctx, companyID, meetingID)
}

func (s *MeetingService) ListAttendees(ctx context.Context, actor policy.Actor, companyID, meetingID uuid.UUID) ([]model.MeetingAttendee, error) {
	if _, err := s.guard.Authorize(ctx, actor, companyID, PermCompanyRead, policy.RequireMemberOrSuperuser); err != nil {
		return nil, err
	}
	if _, err := s.meetings.FindByID(ctx, companyID, meetingID); err != nil {
		return nil, err
	}
	return s.meetings.ListAttendees(ctx, meetingID)
}

// AddAttendee invites a company member who is free during the meeting.
func (s *MeetingService) AddAttendee(ctx context.Context, actor policy.Actor, companyID, meetingID uuid.UUID, input AttendeeInput) (*model.MeetingAttendee, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	meeting, _, err := s.manageable(ctx, actor, companyID, meetingID)
	if err != nil {
		return nil, err
	}
	if _, err := s.memberships.Find(ctx, input.UserID, companyID); err != nil {
		return nil, err
	}

	busy, err := s.meetings.HasOverlap(ctx, input.UserID, meeting.ID, meeting.StartAt, meeting.EndAt)
	if err != nil {
		return nil, err
	}
	if busy {
		return nil, domain.ErrScheduleConflict
	}

	a := &model.MeetingAttendee{MeetingID: meeting.ID, UserID: input.UserID}
	if err := s.meetings.AddAttendee(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// RemoveAttendee is open to full-access actors and to the attendee.
func (s *MeetingService) RemoveAttendee(ctx context.Context, actor policy.Actor, companyID, meetingID, userID uuid.UUID) error {
	m, err := s.guard.Member(ctx, actor, companyID)
	if err != nil {
		return err
	}
	meeting, err := s.meetings.FindByID(ctx, companyID, meetingID)
	if err != nil {
		return err
	}
	if err := s.guard.Enforce(ctx, actor, PermAttendeeRemove, entity("meeting", meeting.ID),
		policy.CanRemoveAttendee(actor, meeting, m, userID)); err != nil {
		return err
	}
	return s.meetings.RemoveAttendee(ctx, meeting.ID, userID)
}
