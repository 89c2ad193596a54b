package service

import (
	"context"
	"testing"
	"time"

	"github.com/dangerclosesec/bizcontrol/internal/audit"
	"github.com/dangerclosesec/bizcontrol/internal/auth"
	"github.com/dangerclosesec/bizcontrol/internal/clock"
	"github.com/dangerclosesec/bizcontrol/internal/metrics"
	"github.com/dangerclosesec/bizcontrol/internal/model"
	"github.com/dangerclosesec/bizcontrol/internal/policy"
	"github.com/dangerclosesec/bizcontrol/internal/repository"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testNow = time.Date(2025, time.May, 14, 10, 0, 0, 0, time.UTC)

// testEnv wires every service against a private in-memory database.
type testEnv struct {
	db    *gorm.DB
	clock *clock.FakeClock
	reg   *prometheus.Registry

	users       *repository.UserRepository
	companies   *repository.CompanyRepository
	memberships *repository.MembershipRepository
	invites     *repository.InviteRepository
	tasks       *repository.TaskRepository
	auditLogs   *repository.AuthzAuditLogRepository

	guard       *Guard
	companySvc  *CompanyService
	deptSvc     *DepartmentService
	memberSvc   *MembershipService
	newsSvc     *NewsService
	taskSvc     *TaskService
	meetingSvc  *MeetingService
	ratingSvc   *RatingService
	calendarSvc *CalendarService
	auditSvc    *AuthzAuditLogService
}

type envOptions struct {
	mirror auth.RelationMirror
	mailer InviteMailer
}

func newTestDB(t *testing.T, clk clock.Clock) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?_time_format=sqlite"), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: clk.Now,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, repository.AutoMigrate(context.Background(), db))
	return db
}

func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvWith(t, envOptions{})
}

func newTestEnvWith(t *testing.T, opts envOptions) *testEnv {
	t.Helper()
	clk := clock.NewFakeClock(testNow)
	db := newTestDB(t, clk)
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	e := &testEnv{
		db:          db,
		clock:       clk,
		reg:         reg,
		users:       repository.NewUserRepository(db),
		companies:   repository.NewCompanyRepository(db),
		memberships: repository.NewMembershipRepository(db),
		invites:     repository.NewInviteRepository(db),
		tasks:       repository.NewTaskRepository(db),
		auditLogs:   repository.NewAuthzAuditLogRepository(db),
	}
	auditLogger := audit.NewDBLogger(e.auditLogs)
	e.guard = NewGuard(e.companies, e.memberships, auditLogger, m)

	mirror := opts.mirror
	if mirror == nil {
		mirror = auth.NoopMirror{}
	}
	sync := NewMirrorSync(mirror, auditLogger)

	departments := repository.NewDepartmentRepository(db)
	news := repository.NewNewsRepository(db)
	meetings := repository.NewMeetingRepository(db)

	e.companySvc = NewCompanyService(db, e.companies, e.memberships, e.guard, sync)
	e.deptSvc = NewDepartmentService(departments, e.guard)
	e.memberSvc = NewMembershipService(e.memberships, departments, e.guard, sync)
	e.newsSvc = NewNewsService(news, e.guard, clk)
	e.taskSvc = NewTaskService(e.tasks, repository.NewCommentRepository(db), e.memberships, e.guard)
	e.meetingSvc = NewMeetingService(db, meetings, e.memberships, e.guard)
	e.ratingSvc = NewRatingService(repository.NewRatingRepository(db), e.tasks, e.memberships, e.guard, clk)
	e.calendarSvc = NewCalendarService(news, e.tasks, meetings, e.guard, clk)
	e.auditSvc = NewAuthzAuditLogService(e.auditLogs, clk)
	return e
}

func (e *testEnv) inviteService(t *testing.T, mailer InviteMailer, mirror auth.RelationMirror, opts ...InviteServiceOption) *InviteService {
	t.Helper()
	if mirror == nil {
		mirror = auth.NoopMirror{}
	}
	auditLogger := audit.NewDBLogger(e.auditLogs)
	opts = append([]InviteServiceOption{WithInviteAudit(auditLogger), WithInviteMetrics(metrics.New(prometheus.NewRegistry()))}, opts...)
	return NewInviteService(
		e.db,
		e.invites,
		e.companies,
		repository.NewDepartmentRepository(e.db),
		e.memberships,
		e.guard,
		NewMirrorSync(mirror, auditLogger),
		mailer,
		e.clock,
		DefaultInviteConfig(),
		opts...,
	)
}

// newUser stores an account directly; password hashing is covered elsewhere.
func (e *testEnv) newUser(t *testing.T, email string) policy.Actor {
	t.Helper()
	u := &model.User{Email: email, PasswordHash: "x", IsActive: true}
	require.NoError(t, e.users.Create(context.Background(), u))
	return policy.Actor{UserID: u.ID, Email: u.Email}
}

func (e *testEnv) newSuperuser(t *testing.T, email string) policy.Actor {
	t.Helper()
	u := &model.User{Email: email, PasswordHash: "x", IsActive: true, IsSuperuser: true}
	require.NoError(t, e.users.Create(context.Background(), u))
	return policy.Actor{UserID: u.ID, Email: u.Email, IsSuperuser: true}
}

// newCompany creates a company administered by owner.
func (e *testEnv) newCompany(t *testing.T, owner policy.Actor, name string) *model.Membership {
	t.Helper()
	m, err := e.companySvc.Create(context.Background(), owner, CompanyInput{Name: name})
	require.NoError(t, err)
	return m
}

// addMember inserts a membership without going through an invite.
func (e *testEnv) addMember(t *testing.T, companyID uuid.UUID, actor policy.Actor, role model.Role, managerID *uuid.UUID) *model.Membership {
	t.Helper()
	m := &model.Membership{UserID: actor.UserID, CompanyID: companyID, Role: role, ManagerID: managerID}
	require.NoError(t, e.memberships.Create(context.Background(), m))
	return m
}
