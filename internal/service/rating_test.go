package service

import (
	"context"
	"testing"
	"time"

	"github.com/dangerclosesec/bizcontrol/internal/domain"
	"github.com/dangerclosesec/bizcontrol/internal/model"
	"github.com/dangerclosesec/bizcontrol/internal/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *taskFixture) doneTask(t *testing.T, author, executor policy.Actor) *model.Task {
	t.Helper()
	ctx := context.Background()
	task, err := f.env.taskSvc.Create(ctx, author, f.companyID, f.input(executor))
	require.NoError(t, err)
	task, err = f.env.taskSvc.Update(ctx, executor, f.companyID, task.ID, TaskPatch{Status: Some(model.TaskStatusDone)})
	require.NoError(t, err)
	return task
}

func TestRatingService_Evaluate(t *testing.T) {
	ctx := context.Background()
	f := newTaskFixture(t)

	open, err := f.env.taskSvc.Create(ctx, f.manager, f.companyID, f.input(f.sub))
	require.NoError(t, err)
	_, err = f.env.ratingSvc.Evaluate(ctx, f.manager, f.companyID, open.ID, RatingInput{Timeliness: 5, Completeness: 5, Quality: 5})
	assert.ErrorIs(t, err, domain.ErrTaskNotDone)

	done := f.doneTask(t, f.manager, f.sub)

	_, err = f.env.ratingSvc.Evaluate(ctx, f.sub, f.companyID, done.ID, RatingInput{Timeliness: 5, Completeness: 5, Quality: 5})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.env.ratingSvc.Evaluate(ctx, f.manager, f.companyID, done.ID, RatingInput{Timeliness: 6, Completeness: 5, Quality: 5})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	r, err := f.env.ratingSvc.Evaluate(ctx, f.manager, f.companyID, done.ID, RatingInput{Timeliness: 4, Completeness: 5, Quality: 5})
	require.NoError(t, err)
	assert.Equal(t, 4.67, r.Avg)

	_, err = f.env.ratingSvc.Evaluate(ctx, f.admin, f.companyID, done.ID, RatingInput{Timeliness: 1, Completeness: 1, Quality: 1})
	assert.ErrorIs(t, err, domain.ErrAlreadyRated)
}

func TestRatingService_Summary(t *testing.T) {
	ctx := context.Background()
	f := newTaskFixture(t)

	dep, err := f.env.deptSvc.Create(ctx, f.admin, f.companyID, DepartmentInput{Name: "Ops"})
	require.NoError(t, err)
	for _, u := range []policy.Actor{f.sub, f.other} {
		m, err := f.env.memberships.Find(ctx, u.UserID, f.companyID)
		require.NoError(t, err)
		_, err = f.env.memberSvc.Update(ctx, f.admin, f.companyID, m.ID, MembershipUpdateInput{DepartmentID: Some(dep.ID)})
		require.NoError(t, err)
	}

	// Previous quarter: excluded.
	f.env.clock.Set(time.Date(2025, time.March, 20, 9, 0, 0, 0, time.UTC))
	_, err = f.env.ratingSvc.Evaluate(ctx, f.manager, f.companyID, f.doneTask(t, f.manager, f.sub).ID, RatingInput{Timeliness: 1, Completeness: 1, Quality: 1})
	require.NoError(t, err)

	f.env.clock.Set(testNow)
	_, err = f.env.ratingSvc.Evaluate(ctx, f.manager, f.companyID, f.doneTask(t, f.manager, f.sub).ID, RatingInput{Timeliness: 5, Completeness: 5, Quality: 5})
	require.NoError(t, err)
	f.env.clock.Advance(time.Hour)
	_, err = f.env.ratingSvc.Evaluate(ctx, f.manager, f.companyID, f.doneTask(t, f.manager, f.sub).ID, RatingInput{Timeliness: 4, Completeness: 4, Quality: 4})
	require.NoError(t, err)
	_, err = f.env.ratingSvc.Evaluate(ctx, f.admin, f.companyID, f.doneTask(t, f.admin, f.other).ID, RatingInput{Timeliness: 2, Completeness: 2, Quality: 2})
	require.NoError(t, err)

	summary, err := f.env.ratingSvc.Summary(ctx, f.sub, f.companyID, 2025, 2)
	require.NoError(t, err)
	require.Len(t, summary.Ratings, 2)
	assert.Equal(t, 4.0, summary.Ratings[0].Avg, "newest first")
	assert.Equal(t, 4.5, summary.Average)
	assert.Equal(t, 3.67, summary.DepartmentAverage)

	empty, err := f.env.ratingSvc.Summary(ctx, f.manager, f.companyID, 2025, 2)
	require.NoError(t, err)
	assert.Empty(t, empty.Ratings)
	assert.Zero(t, empty.Average)
	assert.Zero(t, empty.DepartmentAverage)

	_, err = f.env.ratingSvc.Summary(ctx, f.sub, f.companyID, 2025, 5)
	assert.ErrorIs(t, err, domain.ErrInvalidPeriod)
}

func TestQuarterWindow(t *testing.T) {
	from, to, err := QuarterWindow(2024, 4)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.October, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC), to)

	_, _, err = QuarterWindow(999, 1)
	assert.ErrorIs(t, err, domain.ErrInvalidPeriod)
}
