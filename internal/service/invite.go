package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/dangerclosesec/bizcontrol/internal/audit"
	"github.com/dangerclosesec/bizcontrol/internal/clock"
	"github.com/dangerclosesec/bizcontrol/internal/domain"
	"github.com/dangerclosesec/bizcontrol/internal/metrics"
	"github.com/dangerclosesec/bizcontrol/internal/model"
	"github.com/dangerclosesec/bizcontrol/internal/policy"
	"github.com/dangerclosesec/bizcontrol/internal/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

//go:generate mockgen -typed -source=./invite.go -destination=../mocks/mock_invite_mailer.go -package=mocks InviteMailer

// InviteMailer delivers the invite code to the invited address.
type InviteMailer interface {
	SendInvite(ctx context.Context, invite *model.Invite, companyName string) error
}

type InviteConfig struct {
	TTL         time.Duration
	Alphabet    string
	CodeLength  int
	MaxAttempts int
	MailTimeout time.Duration
}

func DefaultInviteConfig() InviteConfig {
	return InviteConfig{
		TTL:         14 * 24 * time.Hour,
		Alphabet:    "ABCDEFGHJKLMNPQRSTUVWXYZ23456789",
		CodeLength:  6,
		MaxAttempts: 10,
		MailTimeout: 30 * time.Second,
	}
}

type InviteService struct {
	db          *gorm.DB
	invites     *repository.InviteRepository
	companies   *repository.CompanyRepository
	departments *repository.DepartmentRepository
	memberships *repository.MembershipRepository
	guard       *Guard
	mirror      *MirrorSync
	mailer      InviteMailer
	audit       audit.Logger
	metrics     *metrics.Metrics
	clock       clock.Clock
	cfg         InviteConfig
	random      io.Reader
	pending     sync.WaitGroup
}

type InviteServiceOption func(*InviteService)

// WithRandom replaces crypto/rand as the source of invite codes.
func WithRandom(r io.Reader) InviteServiceOption {
	return func(s *InviteService) {
		s.random = r
	}
}

func WithInviteMetrics(m *metrics.Metrics) InviteServiceOption {
	return func(s *InviteService) {
		s.metrics = m
	}
}

func WithInviteAudit(l audit.Logger) InviteServiceOption {
	return func(s *InviteService) {
		s.audit = l
	}
}

func NewInviteService(
	db *gorm.DB,
	invites *repository.InviteRepository,
	companies *repository.CompanyRepository,
	departments *repository.DepartmentRepository,
	memberships *repository.MembershipRepository,
	guard *Guard,
	mirror *MirrorSync,
	mailer InviteMailer,
	clk clock.Clock,
	cfg InviteConfig,
	opts ...InviteServiceOption,
) *InviteService {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.MailTimeout <= 0 {
		cfg.MailTimeout = 30 * time.Second
	}
	s := &InviteService{
		db:          db,
		invites:     invites,
		companies:   companies,
		departments: departments,
		memberships: memberships,
		guard:       guard,
		mirror:      mirror,
		mailer:      mailer,
		audit:       audit.NoOpLogger{},
		clock:       clk,
		cfg:         cfg,
		random:      rand.Reader,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

type InviteInput struct {
	Email        string     `json:"email" validate:"required,email,max=320"`
	Role         model.Role `json:"role" validate:"omitempty,oneof=user manager admin"`
	DepartmentID *uuid.UUID `json:"department_id"`
	ManagerID    *uuid.UUID `json:"manager_id"`
}

// GenerateCode draws a code that no stored invite uses yet.
func (s *InviteService) GenerateCode(ctx context.Context) (string, error) {
	code, _, err := s.generateCode(ctx, s.cfg.MaxAttempts)
	return code, err
}

// generateCode spends at most budget draws and reports how many it used.
func (s *InviteService) generateCode(ctx context.Context, budget int) (string, int, error) {
	for used := 1; used <= budget; used++ {
		code, err := s.drawCode()
		if err != nil {
			return "", used, err
		}
		exists, err := s.invites.CodeExists(ctx, code)
		if err != nil {
			return "", used, err
		}
		if !exists {
			return code, used, nil
		}
		slog.WarnContext(ctx, "invite code collision", "attempt", used)
	}
	return "", budget, domain.ErrInviteCodeExhausted
}

func (s *InviteService) drawCode() (string, error) {
	alphabet := []rune(s.cfg.Alphabet)
	max := big.NewInt(int64(len(alphabet)))

	var b strings.Builder
	for i := 0; i < s.cfg.CodeLength; i++ {
		n, err := rand.Int(s.random, max)
		if err != nil {
			return "", fmt.Errorf("drawing invite code: %w", err)
		}
		b.WriteRune(alphabet[n.Int64()])
	}
	return b.String(), nil
}

// Create stores a pending invite and mails the code in the background.
func (s *InviteService) Create(ctx context.Context, actor policy.Actor, companyID uuid.UUID, input InviteInput) (*model.Invite, error) {
	input.Email = model.NormalizeEmail(input.Email)
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if input.Role == "" {
		input.Role = model.RoleUser
	}

	if _, err := s.guard.Authorize(ctx, actor, companyID, PermInviteManage, policy.RequireAdminOrSuperuser); err != nil {
		return nil, err
	}
	company, err := s.companies.FindByID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if input.DepartmentID != nil {
		if _, err := s.departments.FindByID(ctx, companyID, *input.DepartmentID); err != nil {
			return nil, err
		}
	}
	if input.ManagerID != nil {
		manager, err := s.memberships.Find(ctx, *input.ManagerID, companyID)
		if err != nil {
			return nil, err
		}
		if manager.Role != model.RoleManager && manager.Role != model.RoleAdmin {
			return nil, domain.ErrManagerRoleNeeded
		}
	}

	now := s.clock.Now()
	invite := &model.Invite{
		CompanyID:    companyID,
		DepartmentID: input.DepartmentID,
		ManagerID:    input.ManagerID,
		Email:        input.Email,
		Role:         input.Role,
		CreatedBy:    actor.UserID,
		ExpiresAt:    now.Add(s.cfg.TTL),
	}

	budget := s.cfg.MaxAttempts
	for {
		code, used, err := s.generateCode(ctx, budget)
		if err != nil {
			return nil, err
		}
		budget -= used

		invite.Code = code
		err = s.invites.Create(ctx, invite)
		if err == nil {
			break
		}
		if !errors.Is(err, repository.ErrDuplicateInviteCode) {
			return nil, err
		}
		if budget <= 0 {
			return nil, domain.ErrInviteCodeExhausted
		}
		slog.WarnContext(ctx, "invite code taken at insert, retrying", "remaining", budget)
	}

	slog.InfoContext(ctx, "invite created",
		"companyID", companyID,
		"inviteID", invite.ID,
		"role", invite.Role,
		"expiresAt", invite.ExpiresAt,
	)
	s.metrics.AddInvites(metrics.InviteCreated, 1)
	s.dispatch(ctx, *invite, company.Name)
	return invite, nil
}

// dispatch sends the mail on its own goroutine, detached from the request.
func (s *InviteService) dispatch(ctx context.Context, invite model.Invite, companyName string) {
	if s.mailer == nil {
		return
	}
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		mailCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.MailTimeout)
		defer cancel()

		if err := s.mailer.SendInvite(mailCtx, &invite, companyName); err != nil {
			slog.ErrorContext(mailCtx, "Failed to send invite email",
				"error", err,
				"inviteID", invite.ID,
				"companyID", invite.CompanyID,
			)
		}
	}()
}

// Wait blocks until every in-flight invite email has been handed off.
func (s *InviteService) Wait() {
	s.pending.Wait()
}

// Accept turns the invite into a membership of the actor and consumes it.
func (s *InviteService) Accept(ctx context.Context, actor policy.Actor, code string) (*model.Membership, error) {
	code = strings.TrimSpace(code)
	if code == "" || len(code) > model.InviteCodeMaxLength {
		return nil, domain.ErrInviteNotFound
	}

	invite, err := s.invites.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if invite.Expired(s.clock.Now()) {
		return nil, domain.ErrInviteNotFound
	}

	matches := model.NormalizeEmail(invite.Email) == model.NormalizeEmail(actor.Email)
	d := policy.Decision{Allowed: true, Reason: "invite addressed to actor"}
	if !matches {
		d = policy.Decision{Reason: domain.Message(domain.ErrInviteEmailMismatch), Err: domain.ErrInviteEmailMismatch}
	}
	if err := s.guard.Enforce(ctx, actor, "invite.accept", entity("invite", invite.ID), d); err != nil {
		return nil, err
	}

	membership := &model.Membership{
		UserID:       actor.UserID,
		CompanyID:    invite.CompanyID,
		DepartmentID: invite.DepartmentID,
		ManagerID:    invite.ManagerID,
		Role:         invite.Role,
	}

	err = repository.Transact(ctx, s.db, func(tx *gorm.DB) error {
		if err := s.memberships.WithTx(tx).Create(ctx, membership); err != nil {
			return err
		}
		deleted, err := s.invites.WithTx(tx).DeleteByID(ctx, invite.ID)
		if err != nil {
			return err
		}
		if deleted != 1 {
			return domain.ErrInviteNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "invite accepted",
		"companyID", invite.CompanyID,
		"inviteID", invite.ID,
		"userID", actor.UserID,
	)
	s.metrics.AddInvites(metrics.InviteAccepted, 1)
	_ = s.audit.LogEvent(ctx, model.ActionInviteAccept,
		entity("invite", invite.ID),
		audit.Subject{Type: "user", ID: actor.UserID.String()},
		map[string]interface{}{"company_id": invite.CompanyID.String(), "role": string(invite.Role)},
	)
	s.mirror.Write(ctx, membership)
	return membership, nil
}

// SweepExpired purges every invite past its expiry. Running it twice in a
// row deletes nothing the second time.
func (s *InviteService) SweepExpired(ctx context.Context) (int64, error) {
	now := s.clock.Now()
	n, err := s.invites.DeleteExpired(ctx, now)
	if err != nil {
		return 0, err
	}

	slog.InfoContext(ctx, "expired invites swept", "deleted", n, "cutoff", now)
	s.metrics.AddInvites(metrics.InviteSwept, n)
	if n > 0 {
		_ = s.audit.LogEvent(ctx, model.ActionInviteSweep,
			audit.Entity{Type: "invite"},
			audit.Subject{Type: "system", ID: "scheduler"},
			map[string]interface{}{"deleted": n},
		)
	}
	return n, nil
}

func (s *InviteService) ListByCompany(ctx context.Context, actor policy.Actor, companyID uuid.UUID) ([]model.Invite, error) {
	if _, err := s.guard.Authorize(ctx, actor, companyID, PermInviteManage, policy.RequireAdminOrSuperuser); err != nil {
		return nil, err
	}
	return s.invites.ListByCompany(ctx, companyID)
}

// Revoke deletes a pending invite before anyone accepts it.
func (s *InviteService) Revoke(ctx context.Context, actor policy.Actor, companyID uuid.UUID, code string) error {
	if _, err := s.guard.Authorize(ctx, actor, companyID, PermInviteManage, policy.RequireAdminOrSuperuser); err != nil {
		return err
	}
	n, err := s.invites.DeleteByCode(ctx, companyID, strings.TrimSpace(code))
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrInviteNotFound
	}
	s.metrics.AddInvites(metrics.InviteRevoked, n)
	return nil
}

func (s *InviteService) ListAll(ctx context.Context, page repository.PageParams) ([]model.Invite, int64, error) {
	return s.invites.FindAllPaginated(ctx, page)
}
