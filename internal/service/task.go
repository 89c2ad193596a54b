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
)

type TaskService struct {
	tasks       *repository.TaskRepository
	comments    *repository.CommentRepository
	memberships *repository.MembershipRepository
	guard       *Guard
}

func NewTaskService(
	tasks *repository.TaskRepository,
	comments *repository.CommentRepository,
	memberships *repository.MembershipRepository,
	guard *Guard,
) *TaskService {
	return &TaskService{tasks: tasks, comments: comments, memberships: memberships, guard: guard}
}

type TaskInput struct {
	Title      string           `json:"title" validate:"required,max=255"`
	Body       string           `json:"body" validate:"max=10000"`
	Status     model.TaskStatus `json:"status" validate:"omitempty,oneof=todo in_progress done"`
	ExecutorID uuid.UUID        `json:"executor_id" validate:"required"`
	StartAt    time.Time        `json:"start_at" validate:"required"`
	DueAt      time.Time        `json:"due_at" validate:"required"`
}

// TaskPatch holds the fields a PATCH may carry; absent fields stay untouched.
type TaskPatch struct {
	Title      Optional[string]           `json:"title"`
	Body       Optional[string]           `json:"body"`
	Status     Optional[model.TaskStatus] `json:"status"`
	ExecutorID Optional[uuid.UUID]        `json:"executor_id"`
	StartAt    Optional[time.Time]        `json:"start_at"`
	DueAt      Optional[time.Time]        `json:"due_at"`
}

// ChangedFields lists the JSON names of the fields present in the patch.
func (p TaskPatch) ChangedFields() []string {
	var fields []string
	for _, f := range []struct {
		name string
		set  bool
	}{
		{"title", p.Title.Set},
		{"body", p.Body.Set},
		{policy.TaskFieldStatus, p.Status.Set},
		{"executor_id", p.ExecutorID.Set},
		{"start_at", p.StartAt.Set},
		{"due_at", p.DueAt.Set},
	} {
		if f.set {
			fields = append(fields, f.name)
		}
	}
	return fields
}

func (s *TaskService) Create(ctx context.Context, actor policy.Actor, companyID uuid.UUID, input TaskInput) (*model.Task, error) {
	input.Title = strings.TrimSpace(input.Title)
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if input.DueAt.Before(input.StartAt) {
		return nil, domain.ErrTaskDates
	}
	if input.Status == "" {
		input.Status = model.TaskStatusTodo
	}

	m, err := s.guard.Authorize(ctx, actor, companyID, PermTaskCreate, policy.RequireManagerAdminOrSuperuser)
	if err != nil {
		return nil, err
	}
	if err := s.checkExecutor(ctx, actor, m, companyID, input.ExecutorID); err != nil {
		return nil, err
	}

	task := &model.Task{
		Title:      input.Title,
		Body:       input.Body,
		Status:     input.Status,
		CompanyID:  companyID,
		AuthorID:   actor.UserID,
		ExecutorID: input.ExecutorID,
		StartAt:    input.StartAt.UTC(),
		DueAt:      input.DueAt.UTC(),
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// checkExecutor requires the executor to be a member and, unless the actor
// is a superuser, a subordinate of the actor.
func (s *TaskService) checkExecutor(ctx context.Context, actor policy.Actor, m *model.Membership, companyID, executorID uuid.UUID) error {
	executor, err := s.memberships.Find(ctx, executorID, companyID)
	if err != nil {
		return err
	}
	if actor.IsSuperuser {
		return nil
	}
	return s.guard.Enforce(ctx, actor, PermTaskAssign, entity("membership", executor.ID),
		policy.RequireManagerOfSubordinate(m, executor))
}

func (s *TaskService) List(ctx context.Context, actor policy.Actor, companyID uuid.UUID) ([]model.Task, error) {
	if _, err := s.guard.Authorize(ctx, actor, companyID, PermCompanyRead, policy.RequireMemberOrSuperuser); err != nil {
		return nil, err
	}
	return s.tasks.ListByCompany(ctx, companyID)
}

func (s *TaskService) Get(ctx context.Context, actor policy.Actor, companyID, taskID uuid.UUID) (*model.Task, error) {
	if _, err := s.guard.Authorize(ctx, actor, companyID, PermCompanyRead, policy.RequireMemberOrSuperuser); err != nil {
		return nil, err
	}
	return s.tasks.FindByID(ctx, companyID, taskID)
}

func (s *TaskService) Update(ctx context.Context, actor policy.Actor, companyID, taskID uuid.UUID, patch TaskPatch) (*model.Task, error) {
	m, err := s.guard.Member(ctx, actor, companyID)
	if err != nil {
		return nil, err
	}
	task, err := s.tasks.FindByID(ctx, companyID, taskID)
	if err != nil {
		return nil, err
	}
	if err := s.guard.Enforce(ctx, actor, PermTaskUpdate, entity("task", task.ID),
		policy.CanUpdateTask(actor, task, m, patch.ChangedFields())); err != nil {
		return nil, err
	}

	if patch.StartAt.Set != patch.DueAt.Set {
		return nil, domain.ErrBothOrNoneDates
	}
	if patch.StartAt.Set {
		if patch.StartAt.Value == nil || patch.DueAt.Value == nil {
			return nil, domain.ErrBothOrNoneDates
		}
		if patch.DueAt.Value.Before(*patch.StartAt.Value) {
			return nil, domain.ErrTaskDates
		}
		task.StartAt = patch.StartAt.Value.UTC()
		task.DueAt = patch.DueAt.Value.UTC()
	}

	if patch.Title.Set {
		if patch.Title.Value == nil || strings.TrimSpace(*patch.Title.Value) == "" || len(*patch.Title.Value) > 255 {
			return nil, &ValidationError{Details: []string{"title: failed required"}}
		}
		task.Title = strings.TrimSpace(*patch.Title.Value)
	}
	if patch.Body.Set {
		task.Body = ""
		if patch.Body.Value != nil {
			task.Body = *patch.Body.Value
		}
	}
	if patch.Status.Set {
		if patch.Status.Value == nil || !patch.Status.Value.Valid() {
			return nil, &ValidationError{Details: []string{"status: failed oneof=todo in_progress done"}}
		}
		task.Status = *patch.Status.Value
	}
	if patch.ExecutorID.Set {
		if patch.ExecutorID.Value == nil {
			return nil, &ValidationError{Details: []string{"executor_id: failed required"}}
		}
		if *patch.ExecutorID.Value != task.ExecutorID {
			if err := s.checkExecutor(ctx, actor, m, companyID, *patch.ExecutorID.Value); err != nil {
				return nil, err
			}
			task.ExecutorID = *patch.ExecutorID.Value
		}
	}

	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *TaskService) Delete(ctx context.Context, actor policy.Actor, companyID, taskID uuid.UUID) error {
	m, err := s.guard.Member(ctx, actor, companyID)
	if err != nil {
		return err
	}
	task, err := s.tasks.FindByID(ctx, companyID, taskID)
	if err != nil {
		return err
	}
	if err := s.guard.Enforce(ctx, actor, PermTaskDelete, entity("task", task.ID), policy.CanDeleteTask(actor, task, m)); err != nil {
		return err
	}
	return s.tasks.Delete(ctx, companyID, taskID)
}

type CommentInput struct {
	Body string `json:"body" validate:"required,max=4000"`
}

func (s *TaskService) AddComment(ctx context.Context, actor policy.Actor, companyID, taskID uuid.UUID, input CommentInput) (*model.TaskComment, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if _, err := s.guard.Authorize(ctx, actor, companyID, PermCompanyRead, policy.RequireMemberOrSuperuser); err != nil {
		return nil, err
	}
	if _, err := s.tasks.FindByID(ctx, companyID, taskID); err != nil {
		return nil, err
	}

	c := &model.TaskComment{Body: input.Body, AuthorID: actor.UserID, TaskID: taskID}
	if err := s.comments.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *TaskService) ListComments(ctx context.Context, actor policy.Actor, companyID, taskID uuid.UUID) ([]model.TaskComment, error) {
	if _, err := s.guard.Authorize(ctx, actor, companyID, PermCompanyRead, policy.RequireMemberOrSuperuser); err != nil {
		return nil, err
	}
	if _, err := s.tasks.FindByID(ctx, companyID, taskID); err != nil {
		return nil, err
	}
	return s.comments.ListByTask(ctx, taskID)
}

// comment resolves a comment through its task so that both are tenant scoped.
func (s *TaskService) comment(ctx context.Context, actor policy.Actor, companyID, taskID, commentID uuid.UUID) (*model.TaskComment, *model.Membership, error) {
	m, err := s.guard.Member(ctx, actor, companyID)
	if err != nil {
		return nil, nil, err
	}
	if _, err := s.tasks.FindByID(ctx, companyID, taskID); err != nil {
		return nil, nil, err
	}
	c, err := s.comments.FindByID(ctx, taskID, commentID)
	if err != nil {
		return nil, nil, err
	}
	return c, m, nil
}

func (s *TaskService) UpdateComment(ctx context.Context, actor policy.Actor, companyID, taskID, commentID uuid.UUID, input CommentInput) (*model.TaskComment, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	c, m, err := s.comment(ctx, actor, companyID, taskID, commentID)
	if err != nil {
		return nil, err
	}
	if err := s.guard.Enforce(ctx, actor, PermCommentManage, entity("comment", c.ID), policy.CanManageComment(actor, c, m)); err != nil {
		return nil, err
	}
	c.Body = input.Body
	if err := s.comments.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *TaskService) DeleteComment(ctx context.Context, actor policy.Actor, companyID, taskID, commentID uuid.UUID) error {
	c, m, err := s.comment(ctx, actor, companyID, taskID, commentID)
	if err != nil {
		return err
	}
	if err := s.guard.Enforce(ctx, actor, PermCommentManage, entity("comment", c.ID), policy.CanManageComment(actor, c, m)); err != nil {
		return err
	}
	return s.comments.Delete(ctx, taskID, commentID)
}
