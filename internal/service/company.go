package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/dangerclosesec/bizcontrol/internal/audit"
	"github.com/dangerclosesec/bizcontrol/internal/auth"
	"github.com/dangerclosesec/bizcontrol/internal/model"
	"github.com/dangerclosesec/bizcontrol/internal/policy"
	"github.com/dangerclosesec/bizcontrol/internal/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CompanyService struct {
	db          *gorm.DB
	companies   *repository.CompanyRepository
	memberships *repository.MembershipRepository
	guard       *Guard
	mirror      *MirrorSync
}

func NewCompanyService(
	db *gorm.DB,
	companies *repository.CompanyRepository,
	memberships *repository.MembershipRepository,
	guard *Guard,
	mirror *MirrorSync,
) *CompanyService {
	return &CompanyService{
		db:          db,
		companies:   companies,
		memberships: memberships,
		guard:       guard,
		mirror:      mirror,
	}
}

type CompanyInput struct {
	Name string `json:"name" validate:"required,max=255"`
}

// Create stores the company and makes the actor its first admin in the same
// transaction.
func (s *CompanyService) Create(ctx context.Context, actor policy.Actor, input CompanyInput) (*model.Membership, error) {
	input.Name = strings.TrimSpace(input.Name)
	if err := validateInput(input); err != nil {
		return nil, err
	}

	company := &model.Company{Name: input.Name}
	membership := &model.Membership{UserID: actor.UserID, Role: model.RoleAdmin}

	err := repository.Transact(ctx, s.db, func(tx *gorm.DB) error {
		if err := s.companies.WithTx(tx).Create(ctx, company); err != nil {
			return err
		}
		membership.CompanyID = company.ID
		return s.memberships.WithTx(tx).Create(ctx, membership)
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "company created", "companyID", company.ID, "userID", actor.UserID)
	s.mirror.Write(ctx, membership)
	return membership, nil
}

// List returns the actor's companies; superusers see all of them.
func (s *CompanyService) List(ctx context.Context, actor policy.Actor, page repository.PageParams) ([]model.Company, error) {
	if actor.IsSuperuser {
		return s.companies.FindAll(ctx, page)
	}
	return s.companies.FindByUser(ctx, actor.UserID)
}

func (s *CompanyService) Get(ctx context.Context, actor policy.Actor, companyID uuid.UUID) (*model.Company, error) {
	if _, err := s.guard.Authorize(ctx, actor, companyID, PermCompanyRead, policy.RequireMemberOrSuperuser); err != nil {
		return nil, err
	}
	return s.companies.FindByID(ctx, companyID)
}

func (s *CompanyService) Update(ctx context.Context, actor policy.Actor, companyID uuid.UUID, input CompanyInput) (*model.Company, error) {
	input.Name = strings.TrimSpace(input.Name)
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if _, err := s.guard.Authorize(ctx, actor, companyID, PermCompanyManage, policy.RequireAdminOrSuperuser); err != nil {
		return nil, err
	}

	company, err := s.companies.FindByID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	company.Name = input.Name
	if err := s.companies.Update(ctx, company); err != nil {
		return nil, err
	}
	return company, nil
}

func (s *CompanyService) Delete(ctx context.Context, actor policy.Actor, companyID uuid.UUID) error {
	if _, err := s.guard.Authorize(ctx, actor, companyID, PermCompanyManage, policy.RequireAdminOrSuperuser); err != nil {
		return err
	}

	members, err := s.memberships.ListByCompany(ctx, companyID)
	if err != nil {
		return err
	}
	if err := s.companies.Delete(ctx, companyID); err != nil {
		return err
	}

	slog.InfoContext(ctx, "company deleted", "companyID", companyID, "userID", actor.UserID)
	for i := range members {
		s.mirror.Delete(ctx, &members[i])
	}
	return nil
}

// MirrorSync pushes membership changes to the relationship mirror after
// commit. Failures are logged and audited, never returned.
type MirrorSync struct {
	mirror auth.RelationMirror
	audit  audit.Logger
}

func NewMirrorSync(mirror auth.RelationMirror, auditLogger audit.Logger) *MirrorSync {
	if mirror == nil {
		mirror = auth.NoopMirror{}
	}
	if auditLogger == nil {
		auditLogger = audit.NoOpLogger{}
	}
	return &MirrorSync{mirror: mirror, audit: auditLogger}
}

func (s *MirrorSync) Write(ctx context.Context, m *model.Membership) {
	if s == nil {
		return
	}
	err := s.mirror.WriteMembership(ctx, m)
	s.record(ctx, model.ActionRelationCreate, m, err)
}

func (s *MirrorSync) Delete(ctx context.Context, m *model.Membership) {
	if s == nil {
		return
	}
	err := s.mirror.DeleteMembership(ctx, m)
	s.record(ctx, model.ActionRelationDelete, m, err)
}

// Replace swaps the mirrored role of m.
func (s *MirrorSync) Replace(ctx context.Context, m *model.Membership) {
	if s == nil {
		return
	}
	s.Delete(ctx, m)
	s.Write(ctx, m)
}

func (s *MirrorSync) record(ctx context.Context, action string, m *model.Membership, err error) {
	tuple := auth.MembershipTuple(m)
	if err != nil {
		slog.ErrorContext(ctx, "relationship mirror failed",
			"error", err,
			"action", action,
			"companyID", m.CompanyID,
			"userID", m.UserID,
		)
	}
	_ = s.audit.LogRelation(ctx, action,
		audit.Entity{Type: tuple.EntityType, ID: tuple.EntityID},
		tuple.Relation,
		audit.Subject{Type: tuple.SubjectType, ID: tuple.SubjectID},
		err,
	)
}
