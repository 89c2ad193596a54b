package service

import (
	"context"
	"time"

	"github.com/dangerclosesec/bizcontrol/internal/clock"
	"github.com/dangerclosesec/bizcontrol/internal/domain"
	"github.com/dangerclosesec/bizcontrol/internal/model"
	"github.com/dangerclosesec/bizcontrol/internal/policy"
	"github.com/dangerclosesec/bizcontrol/internal/repository"
	"github.com/google/uuid"
)

type RatingService struct {
	ratings     *repository.RatingRepository
	tasks       *repository.TaskRepository
	memberships *repository.MembershipRepository
	guard       *Guard
	clock       clock.Clock
}

func NewRatingService(
	ratings *repository.RatingRepository,
	tasks *repository.TaskRepository,
	memberships *repository.MembershipRepository,
	guard *Guard,
	clk clock.Clock,
) *RatingService {
	if clk == nil {
		clk = clock.New()
	}
	return &RatingService{ratings: ratings, tasks: tasks, memberships: memberships, guard: guard, clock: clk}
}

type RatingInput struct {
	Timeliness   int `json:"timeliness" validate:"required,min=1,max=5"`
	Completeness int `json:"completeness" validate:"required,min=1,max=5"`
	Quality      int `json:"quality" validate:"required,min=1,max=5"`
}

// Evaluate rates a finished task. Only its author side may do so, once.
func (s *RatingService) Evaluate(ctx context.Context, actor policy.Actor, companyID, taskID uuid.UUID, input RatingInput) (*model.Rating, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	m, err := s.guard.Member(ctx, actor, companyID)
	if err != nil {
		return nil, err
	}
	task, err := s.tasks.FindByID(ctx, companyID, taskID)
	if err != nil {
		return nil, err
	}
	if err := s.guard.Enforce(ctx, actor, PermTaskEvaluate, entity("task", task.ID),
		policy.HasFullAccess(actor, task.AuthorID, m)); err != nil {
		return nil, err
	}
	if task.Status != model.TaskStatusDone {
		return nil, domain.ErrTaskNotDone
	}

	rating := &model.Rating{
		TaskID:       task.ID,
		Timeliness:   input.Timeliness,
		Completeness: input.Completeness,
		Quality:      input.Quality,
	}
	if err := s.ratings.Create(ctx, rating); err != nil {
		return nil, err
	}
	return rating, nil
}

type RatingSummary struct {
	Year              int            `json:"year"`
	Quarter           int            `json:"quarter"`
	Ratings           []model.Rating `json:"ratings"`
	Average           float64        `json:"average"`
	DepartmentAverage float64        `json:"department_average"`
}

// QuarterWindow returns [from, to) for the given quarter in UTC.
func QuarterWindow(year, quarter int) (time.Time, time.Time, error) {
	if year < 1000 || year > 9999 || quarter < 1 || quarter > 4 {
		return time.Time{}, time.Time{}, domain.ErrInvalidPeriod
	}
	from := time.Date(year, time.Month(3*(quarter-1)+1), 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 3, 0), nil
}

// Summary reports the actor's ratings for one quarter next to the average of
// the actor's department. A zero year or quarter means the current one.
func (s *RatingService) Summary(ctx context.Context, actor policy.Actor, companyID uuid.UUID, year, quarter int) (*RatingSummary, error) {
	now := s.clock.Now().UTC()
	if year == 0 {
		year = now.Year()
	}
	if quarter == 0 {
		quarter = (int(now.Month())-1)/3 + 1
	}
	from, to, err := QuarterWindow(year, quarter)
	if err != nil {
		return nil, err
	}
	m, err := s.guard.Authorize(ctx, actor, companyID, PermCompanyRead, policy.RequireMemberOrSuperuser)
	if err != nil {
		return nil, err
	}

	ratings, err := s.ratings.ListForExecutor(ctx, companyID, actor.UserID, from, to)
	if err != nil {
		return nil, err
	}
	avg, err := s.ratings.AverageForExecutors(ctx, companyID, []uuid.UUID{actor.UserID}, from, to)
	if err != nil {
		return nil, err
	}

	var deptAvg float64
	if m != nil && m.DepartmentID != nil {
		ids, err := s.memberships.ListDepartmentUserIDs(ctx, companyID, *m.DepartmentID)
		if err != nil {
			return nil, err
		}
		if deptAvg, err = s.ratings.AverageForExecutors(ctx, companyID, ids, from, to); err != nil {
			return nil, err
		}
	}

	if ratings == nil {
		ratings = []model.Rating{}
	}
	return &RatingSummary{
		Year:              year,
		Quarter:           quarter,
		Ratings:           ratings,
		Average:           model.RoundHalfUp(avg),
		DepartmentAverage: model.RoundHalfUp(deptAvg),
	}, nil
}
