package service

import (
	"context"
	"strings"

	"github.com/dangerclosesec/bizcontrol/internal/domain"
	"github.com/dangerclosesec/bizcontrol/internal/model"
	"github.com/dangerclosesec/bizcontrol/internal/policy"
	"github.com/dangerclosesec/bizcontrol/internal/repository"
	"github.com/google/uuid"
)

type DepartmentService struct {
	departments *repository.DepartmentRepository
	guard       *Guard
}

func NewDepartmentService(departments *repository.DepartmentRepository, guard *Guard) *DepartmentService {
	return &DepartmentService{departments: departments, guard: guard}
}

type DepartmentInput struct {
	Name     string     `json:"name" validate:"required,max=255"`
	ParentID *uuid.UUID `json:"parent_id"`
}

func (s *DepartmentService) List(ctx context.Context, actor policy.Actor, companyID uuid.UUID) ([]model.Department, error) {
	if _, err := s.guard.Authorize(ctx, actor, companyID, PermCompanyRead, policy.RequireMemberOrSuperuser); err != nil {
		return nil, err
	}
	return s.departments.ListByCompany(ctx, companyID)
}

func (s *DepartmentService) Create(ctx context.Context, actor policy.Actor, companyID uuid.UUID, input DepartmentInput) (*model.Department, error) {
	input.Name = strings.TrimSpace(input.Name)
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if _, err := s.guard.Authorize(ctx, actor, companyID, PermDepartmentEdit, policy.RequireAdminOrSuperuser); err != nil {
		return nil, err
	}
	if input.ParentID != nil {
		if _, err := s.departments.FindByID(ctx, companyID, *input.ParentID); err != nil {
			return nil, err
		}
	}

	dep := &model.Department{Name: input.Name, CompanyID: companyID, ParentID: input.ParentID}
	if err := s.departments.Create(ctx, dep); err != nil {
		return nil, err
	}
	return dep, nil
}

func (s *DepartmentService) Update(ctx context.Context, actor policy.Actor, companyID, departmentID uuid.UUID, input DepartmentInput) (*model.Department, error) {
	input.Name = strings.TrimSpace(input.Name)
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if _, err := s.guard.Authorize(ctx, actor, companyID, PermDepartmentEdit, policy.RequireAdminOrSuperuser); err != nil {
		return nil, err
	}

	dep, err := s.departments.FindByID(ctx, companyID, departmentID)
	if err != nil {
		return nil, err
	}
	if input.ParentID != nil {
		if err := s.checkParent(ctx, companyID, departmentID, *input.ParentID); err != nil {
			return nil, err
		}
	}

	dep.Name = input.Name
	dep.ParentID = input.ParentID
	if err := s.departments.Update(ctx, dep); err != nil {
		return nil, err
	}
	return dep, nil
}

// checkParent rejects a parent outside the company and any parent that is
// the department itself or one of its descendants.
func (s *DepartmentService) checkParent(ctx context.Context, companyID, departmentID, parentID uuid.UUID) error {
	if parentID == departmentID {
		return domain.ErrDepartmentCycle
	}
	if _, err := s.departments.FindByID(ctx, companyID, parentID); err != nil {
		return err
	}

	all, err := s.departments.ListByCompany(ctx, companyID)
	if err != nil {
		return err
	}
	parents := make(map[uuid.UUID]*uuid.UUID, len(all))
	for _, d := range all {
		parents[d.ID] = d.ParentID
	}

	seen := map[uuid.UUID]bool{}
	for cur := &parentID; cur != nil; cur = parents[*cur] {
		if *cur == departmentID {
			return domain.ErrDepartmentCycle
		}
		if seen[*cur] {
			break
		}
		seen[*cur] = true
	}
	return nil
}

func (s *DepartmentService) Delete(ctx context.Context, actor policy.Actor, companyID, departmentID uuid.UUID) error {
	if _, err := s.guard.Authorize(ctx, actor, companyID, PermDepartmentEdit, policy.RequireAdminOrSuperuser); err != nil {
		return err
	}
	return s.departments.Delete(ctx, companyID, departmentID)
}
