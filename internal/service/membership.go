package service

import (
	"context"
	"log/slog"

	"github.com/dangerclosesec/bizcontrol/internal/domain"
	"github.com/dangerclosesec/bizcontrol/internal/model"
	"github.com/dangerclosesec/bizcontrol/internal/policy"
	"github.com/dangerclosesec/bizcontrol/internal/repository"
	"github.com/google/uuid"
)

type MembershipService struct {
	memberships *repository.MembershipRepository
	departments *repository.DepartmentRepository
	guard       *Guard
	mirror      *MirrorSync
}

func NewMembershipService(
	memberships *repository.MembershipRepository,
	departments *repository.DepartmentRepository,
	guard *Guard,
	mirror *MirrorSync,
) *MembershipService {
	return &MembershipService{
		memberships: memberships,
		departments: departments,
		guard:       guard,
		mirror:      mirror,
	}
}

type MembershipUpdateInput struct {
	Role         Optional[model.Role] `json:"role"`
	DepartmentID Optional[uuid.UUID]  `json:"department_id"`
	ManagerID    Optional[uuid.UUID]  `json:"manager_id"`
}

func (s *MembershipService) List(ctx context.Context, actor policy.Actor, companyID uuid.UUID) ([]model.Membership, error) {
	if _, err := s.guard.Authorize(ctx, actor, companyID, PermCompanyRead, policy.RequireMemberOrSuperuser); err != nil {
		return nil, err
	}
	return s.memberships.ListByCompany(ctx, companyID)
}

func (s *MembershipService) Update(ctx context.Context, actor policy.Actor, companyID, membershipID uuid.UUID, input MembershipUpdateInput) (*model.Membership, error) {
	if _, err := s.guard.Authorize(ctx, actor, companyID, PermMembershipEdit, policy.RequireAdminOrSuperuser); err != nil {
		return nil, err
	}

	target, err := s.memberships.FindByID(ctx, companyID, membershipID)
	if err != nil {
		return nil, err
	}
	previousRole := target.Role

	if input.DepartmentID.Set {
		if input.DepartmentID.Value != nil {
			if _, err := s.departments.FindByID(ctx, companyID, *input.DepartmentID.Value); err != nil {
				return nil, err
			}
		}
		target.DepartmentID = input.DepartmentID.Value
	}

	if input.ManagerID.Set {
		if input.ManagerID.Value != nil {
			if err := s.checkManager(ctx, actor, target, *input.ManagerID.Value); err != nil {
				return nil, err
			}
		}
		target.ManagerID = input.ManagerID.Value
	}

	if input.Role.Set {
		if input.Role.Value == nil || !input.Role.Value.Valid() {
			return nil, domain.ErrInvalidRole
		}
		newRole := *input.Role.Value
		if previousRole == model.RoleAdmin && newRole != model.RoleAdmin {
			if err := s.requireAnotherAdmin(ctx, actor, target); err != nil {
				return nil, err
			}
		}
		target.Role = newRole
	}

	if err := s.memberships.Update(ctx, target); err != nil {
		return nil, err
	}

	if target.Role != previousRole {
		slog.InfoContext(ctx, "membership role changed",
			"companyID", companyID,
			"userID", target.UserID,
			"from", previousRole,
			"to", target.Role,
		)
		s.mirror.Replace(ctx, target)
	}
	return target, nil
}

func (s *MembershipService) checkManager(ctx context.Context, actor policy.Actor, target *model.Membership, managerID uuid.UUID) error {
	if err := s.guard.Enforce(ctx, actor, PermMembershipEdit, entity("membership", target.ID),
		policy.RequireNotSelfManager(target, &managerID)); err != nil {
		return err
	}
	manager, err := s.memberships.Find(ctx, managerID, target.CompanyID)
	if err != nil {
		return err
	}
	if manager.Role != model.RoleManager && manager.Role != model.RoleAdmin {
		return domain.ErrManagerRoleNeeded
	}
	return nil
}

func (s *MembershipService) requireAnotherAdmin(ctx context.Context, actor policy.Actor, target *model.Membership) error {
	count, err := s.memberships.CountAdmins(ctx, target.CompanyID)
	if err != nil {
		return err
	}
	return s.guard.Enforce(ctx, actor, PermMembershipKeep, entity("membership", target.ID),
		policy.RequireLastAdminSafe(target, count))
}

func (s *MembershipService) Delete(ctx context.Context, actor policy.Actor, companyID, membershipID uuid.UUID) error {
	if _, err := s.guard.Authorize(ctx, actor, companyID, PermMembershipEdit, policy.RequireAdminOrSuperuser); err != nil {
		return err
	}
	target, err := s.memberships.FindByID(ctx, companyID, membershipID)
	if err != nil {
		return err
	}
	return s.remove(ctx, actor, target)
}

// Leave removes the actor's own membership.
func (s *MembershipService) Leave(ctx context.Context, actor policy.Actor, companyID uuid.UUID) error {
	target, err := s.memberships.Find(ctx, actor.UserID, companyID)
	if err != nil {
		return err
	}
	return s.remove(ctx, actor, target)
}

func (s *MembershipService) remove(ctx context.Context, actor policy.Actor, target *model.Membership) error {
	if err := s.requireAnotherAdmin(ctx, actor, target); err != nil {
		return err
	}
	if err := s.memberships.Delete(ctx, target); err != nil {
		return err
	}
	slog.InfoContext(ctx, "membership removed", "companyID", target.CompanyID, "userID", target.UserID)
	s.mirror.Delete(ctx, target)
	return nil
}
