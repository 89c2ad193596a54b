package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/dangerclosesec/bizcontrol/internal/audit"
	"github.com/dangerclosesec/bizcontrol/internal/domain"
	"github.com/dangerclosesec/bizcontrol/internal/metrics"
	"github.com/dangerclosesec/bizcontrol/internal/model"
	"github.com/dangerclosesec/bizcontrol/internal/policy"
	"github.com/dangerclosesec/bizcontrol/internal/repository"
	"github.com/google/uuid"
)

// Permission names recorded in the audit trail.
const (
	PermCompanyRead    = "company.read"
	PermCompanyManage  = "company.manage"
	PermDepartmentEdit = "department.edit"
	PermMembershipEdit = "membership.edit"
	PermMembershipKeep = "membership.keep_admin"
	PermNewsEdit       = "news.edit"
	PermInviteManage   = "invite.manage"
	PermTaskCreate     = "task.create"
	PermTaskAssign     = "task.assign"
	PermTaskUpdate     = "task.update"
	PermTaskDelete     = "task.delete"
	PermCommentManage  = "comment.manage"
	PermMeetingCreate  = "meeting.create"
	PermMeetingManage  = "meeting.manage"
	PermAttendeeRemove = "meeting.attendee_remove"
	PermTaskEvaluate   = "task.evaluate"
)

// Guard resolves the actor's standing in a company and records every policy
// decision it enforces.
type Guard struct {
	companies   *repository.CompanyRepository
	memberships *repository.MembershipRepository
	audit       audit.Logger
	metrics     *metrics.Metrics
}

func NewGuard(
	companies *repository.CompanyRepository,
	memberships *repository.MembershipRepository,
	auditLogger audit.Logger,
	m *metrics.Metrics,
) *Guard {
	if auditLogger == nil {
		auditLogger = audit.NoOpLogger{}
	}
	return &Guard{
		companies:   companies,
		memberships: memberships,
		audit:       auditLogger,
		metrics:     m,
	}
}

// Resolve checks that the company exists and returns the actor's membership
// in it, or nil when the actor is not a member.
func (g *Guard) Resolve(ctx context.Context, actor policy.Actor, companyID uuid.UUID) (*model.Membership, error) {
	if _, err := g.companies.FindByID(ctx, companyID); err != nil {
		return nil, err
	}
	return g.membershipOf(ctx, actor.UserID, companyID)
}

func (g *Guard) membershipOf(ctx context.Context, userID, companyID uuid.UUID) (*model.Membership, error) {
	m, err := g.memberships.Find(ctx, userID, companyID)
	if err != nil {
		if errors.Is(err, domain.ErrMembershipNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("resolving membership: %w", err)
	}
	return m, nil
}

// Enforce records d and returns its error.
func (g *Guard) Enforce(ctx context.Context, actor policy.Actor, permission string, object audit.Entity, d policy.Decision) error {
	_ = g.audit.LogPolicyCheck(ctx,
		audit.Subject{Type: "user", ID: actor.UserID.String()},
		permission,
		object,
		d.Allowed,
		d.Reason,
		map[string]interface{}{"superuser": actor.IsSuperuser},
	)
	if !d.Allowed {
		g.metrics.PolicyDenied(permission)
	}
	return d.Error()
}

// Authorize is Resolve followed by Enforce of check on the company.
func (g *Guard) Authorize(
	ctx context.Context,
	actor policy.Actor,
	companyID uuid.UUID,
	permission string,
	check func(policy.Actor, *model.Membership) policy.Decision,
) (*model.Membership, error) {
	m, err := g.Resolve(ctx, actor, companyID)
	if err != nil {
		return nil, err
	}
	if err := g.Enforce(ctx, actor, permission, companyEntity(companyID), check(actor, m)); err != nil {
		return nil, err
	}
	return m, nil
}

// Member authorizes company read access and returns the actor's membership,
// nil for a superuser outside the company.
func (g *Guard) Member(ctx context.Context, actor policy.Actor, companyID uuid.UUID) (*model.Membership, error) {
	return g.Authorize(ctx, actor, companyID, PermCompanyRead, policy.RequireMemberOrSuperuser)
}

func companyEntity(id uuid.UUID) audit.Entity {
	return audit.Entity{Type: "company", ID: id.String()}
}

func entity(kind string, id uuid.UUID) audit.Entity {
	return audit.Entity{Type: kind, ID: id.String()}
}
