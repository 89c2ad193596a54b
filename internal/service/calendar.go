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

// Calendar scopes.
const (
	ScopeDay   = "day"
	ScopeMonth = "month"
	ScopeYear  = "year"
)

// StartOfDay truncates t to midnight UTC.
func StartOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Window returns [from, to) for the scope containing now.
func Window(scope string, now time.Time) (time.Time, time.Time, error) {
	now = now.UTC()
	switch scope {
	case ScopeDay:
		from := StartOfDay(now)
		return from, from.AddDate(0, 0, 1), nil
	case ScopeMonth:
		from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		return from, from.AddDate(0, 1, 0), nil
	case ScopeYear:
		from := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
		return from, from.AddDate(1, 0, 0), nil
	}
	return time.Time{}, time.Time{}, domain.ErrInvalidScope
}

type CalendarService struct {
	news     *repository.NewsRepository
	tasks    *repository.TaskRepository
	meetings *repository.MeetingRepository
	guard    *Guard
	clock    clock.Clock
}

func NewCalendarService(
	news *repository.NewsRepository,
	tasks *repository.TaskRepository,
	meetings *repository.MeetingRepository,
	guard *Guard,
	clk clock.Clock,
) *CalendarService {
	return &CalendarService{news: news, tasks: tasks, meetings: meetings, guard: guard, clock: clk}
}

type Calendar struct {
	Scope    string              `json:"scope"`
	From     time.Time           `json:"from"`
	To       time.Time           `json:"to"`
	News     []model.CompanyNews `json:"news"`
	Tasks    []model.Task        `json:"tasks"`
	Meetings []model.Meeting     `json:"meetings"`
}

// Get gathers company news, the actor's tasks and the actor's meetings for
// the current day, month or year.
func (s *CalendarService) Get(ctx context.Context, actor policy.Actor, companyID uuid.UUID, scope string) (*Calendar, error) {
	from, to, err := Window(scope, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if _, err := s.guard.Authorize(ctx, actor, companyID, PermCompanyRead, policy.RequireMemberOrSuperuser); err != nil {
		return nil, err
	}

	news, err := s.news.ListPublishedBetween(ctx, companyID, from, to)
	if err != nil {
		return nil, err
	}
	tasks, err := s.tasks.ListForExecutorBetween(ctx, companyID, actor.UserID, from, to)
	if err != nil {
		return nil, err
	}
	meetings, err := s.meetings.ListForAttendeeBetween(ctx, companyID, actor.UserID, from, to)
	if err != nil {
		return nil, err
	}

	return &Calendar{
		Scope:    scope,
		From:     from,
		To:       to,
		News:     news,
		Tasks:    tasks,
		Meetings: meetings,
	}, nil
}
