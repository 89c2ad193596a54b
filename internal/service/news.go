package service

import (
	"context"
	"strings"
	"time"

	"github.com/dangerclosesec/bizcontrol/internal/clock"
	"github.com/dangerclosesec/bizcontrol/internal/domain"
	"github.com/dangerclosesec/bizcontrol/internal/model"
	"github.com/dangerclosesec/bizcontrol/internal/policy"
	"github.com/dangerclosesec/bizcontrol/internal/repository"
	"github.com/google/uuid"
)

type NewsService struct {
	news  *repository.NewsRepository
	guard *Guard
	clock clock.Clock
}

func NewNewsService(news *repository.NewsRepository, guard *Guard, clk clock.Clock) *NewsService {
	return &NewsService{news: news, guard: guard, clock: clk}
}

type NewsInput struct {
	Title       string     `json:"title" validate:"required,max=255"`
	Body        string     `json:"body" validate:"required,max=4000"`
	PublishedAt *time.Time `json:"published_at"`
}

func (s *NewsService) List(ctx context.Context, actor policy.Actor, companyID uuid.UUID) ([]model.CompanyNews, error) {
	if _, err := s.guard.Authorize(ctx, actor, companyID, PermCompanyRead, policy.RequireMemberOrSuperuser); err != nil {
		return nil, err
	}
	return s.news.ListByCompany(ctx, companyID)
}

// publishedAt defaults to now and must not fall before the start of today.
func (s *NewsService) publishedAt(in *time.Time) (time.Time, error) {
	now := s.clock.Now()
	if in == nil {
		return now, nil
	}
	at := in.UTC()
	if at.Before(StartOfDay(now)) {
		return time.Time{}, domain.ErrNewsInPast
	}
	return at, nil
}

func (s *NewsService) Create(ctx context.Context, actor policy.Actor, companyID uuid.UUID, input NewsInput) (*model.CompanyNews, error) {
	input.Title = strings.TrimSpace(input.Title)
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if _, err := s.guard.Authorize(ctx, actor, companyID, PermNewsEdit, policy.RequireAdminOrSuperuser); err != nil {
		return nil, err
	}
	at, err := s.publishedAt(input.PublishedAt)
	if err != nil {
		return nil, err
	}

	news := &model.CompanyNews{
		Title:       input.Title,
		Body:        input.Body,
		AuthorID:    actor.UserID,
		CompanyID:   companyID,
		PublishedAt: at,
	}
	if err := s.news.Create(ctx, news); err != nil {
		return nil, err
	}
	return news, nil
}

func (s *NewsService) Update(ctx context.Context, actor policy.Actor, companyID, newsID uuid.UUID, input NewsInput) (*model.CompanyNews, error) {
	input.Title = strings.TrimSpace(input.Title)
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if _, err := s.guard.Authorize(ctx, actor, companyID, PermNewsEdit, policy.RequireAdminOrSuperuser); err != nil {
		return nil, err
	}
	news, err := s.news.FindByID(ctx, companyID, newsID)
	if err != nil {
		return nil, err
	}
	at, err := s.publishedAt(input.PublishedAt)
	if err != nil {
		return nil, err
	}

	news.Title = input.Title
	news.Body = input.Body
	news.PublishedAt = at
	if err := s.news.Update(ctx, news); err != nil {
		return nil, err
	}
	return news, nil
}

func (s *NewsService) Delete(ctx context.Context, actor policy.Actor, companyID, newsID uuid.UUID) error {
	if _, err := s.guard.Authorize(ctx, actor, companyID, PermNewsEdit, policy.RequireAdminOrSuperuser); err != nil {
		return err
	}
	return s.news.Delete(ctx, companyID, newsID)
}
