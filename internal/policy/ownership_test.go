package policy_test

import (
	"testing"

	"github.com/dangerclosesec/bizcontrol/internal/domain"
	"github.com/dangerclosesec/bizcontrol/internal/model"
	"github.com/dangerclosesec/bizcontrol/internal/policy"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestHasFullAccess(t *testing.T) {
	authorID := uuid.New()

	assert.True(t, policy.HasFullAccess(policy.Actor{UserID: authorID}, authorID, membership(model.RoleUser)).Allowed)
	assert.True(t, policy.HasFullAccess(policy.Actor{UserID: uuid.New()}, authorID, membership(model.RoleAdmin)).Allowed)
	assert.True(t, policy.HasFullAccess(policy.Actor{UserID: uuid.New(), IsSuperuser: true}, authorID, nil).Allowed)

	d := policy.HasFullAccess(policy.Actor{UserID: uuid.New()}, authorID, membership(model.RoleManager))
	assert.False(t, d.Allowed)
	assert.ErrorIs(t, d.Error(), domain.ErrForbidden)

	d = policy.HasFullAccess(policy.Actor{UserID: authorID}, authorID, nil)
	assert.False(t, d.Allowed, "author who left the company")
	assert.ErrorIs(t, d.Error(), domain.ErrForbidden)
}

func TestCanUpdateTask(t *testing.T) {
	author := policy.Actor{UserID: uuid.New()}
	executor := policy.Actor{UserID: uuid.New()}
	task := &model.Task{AuthorID: author.UserID, ExecutorID: executor.UserID}
	userMembership := membership(model.RoleUser)

	t.Run("author changes anything", func(t *testing.T) {
		d := policy.CanUpdateTask(author, task, membership(model.RoleManager), []string{"title", "status", "due_at"})
		assert.True(t, d.Allowed)
	})

	t.Run("executor changes status", func(t *testing.T) {
		d := policy.CanUpdateTask(executor, task, userMembership, []string{"status"})
		assert.True(t, d.Allowed)
	})

	t.Run("executor changes status and title", func(t *testing.T) {
		d := policy.CanUpdateTask(executor, task, userMembership, []string{"status", "title"})
		assert.False(t, d.Allowed)
		assert.ErrorIs(t, d.Error(), domain.ErrExecutorOnlyStatus)
		assert.ErrorIs(t, d.Error(), domain.ErrForbidden)
	})

	t.Run("bystander", func(t *testing.T) {
		d := policy.CanUpdateTask(policy.Actor{UserID: uuid.New()}, task, userMembership, []string{"status"})
		assert.False(t, d.Allowed)
	})

	t.Run("executor no longer a member", func(t *testing.T) {
		d := policy.CanUpdateTask(executor, task, nil, []string{"status"})
		assert.False(t, d.Allowed)
	})

	t.Run("executor cannot delete", func(t *testing.T) {
		assert.False(t, policy.CanDeleteTask(executor, task, userMembership).Allowed)
	})
}

func TestCanRemoveAttendee(t *testing.T) {
	meeting := &model.Meeting{AuthorID: uuid.New()}
	attendee := policy.Actor{UserID: uuid.New()}

	assert.True(t, policy.CanRemoveAttendee(attendee, meeting, membership(model.RoleUser), attendee.UserID).Allowed)
	assert.False(t, policy.CanRemoveAttendee(attendee, meeting, membership(model.RoleUser), uuid.New()).Allowed)
	assert.True(t, policy.CanRemoveAttendee(policy.Actor{UserID: meeting.AuthorID}, meeting, membership(model.RoleUser), uuid.New()).Allowed)
	assert.False(t, policy.CanRemoveAttendee(policy.Actor{UserID: meeting.AuthorID}, meeting, nil, uuid.New()).Allowed)
	assert.False(t, policy.CanRemoveAttendee(attendee, meeting, nil, attendee.UserID).Allowed)
}

func TestCanManageComment(t *testing.T) {
	comment := &model.TaskComment{AuthorID: uuid.New()}
	assert.True(t, policy.CanManageComment(policy.Actor{UserID: comment.AuthorID}, comment, membership(model.RoleUser)).Allowed)
	assert.False(t, policy.CanManageComment(policy.Actor{UserID: comment.AuthorID}, comment, nil).Allowed)
	assert.False(t, policy.CanManageComment(policy.Actor{UserID: uuid.New()}, comment, membership(model.RoleManager)).Allowed)
}
