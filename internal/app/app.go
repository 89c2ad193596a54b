// Package app wires repositories and services into the object graph shared
// by the API server and the operator CLI.
package app

import (
	"io"

	"github.com/dangerclosesec/bizcontrol/internal/audit"
	"github.com/dangerclosesec/bizcontrol/internal/auth"
	"github.com/dangerclosesec/bizcontrol/internal/clock"
	"github.com/dangerclosesec/bizcontrol/internal/config"
	"github.com/dangerclosesec/bizcontrol/internal/handler"
	"github.com/dangerclosesec/bizcontrol/internal/metrics"
	"github.com/dangerclosesec/bizcontrol/internal/repository"
	"github.com/dangerclosesec/bizcontrol/internal/service"
	"gorm.io/gorm"
)

type Deps struct {
	Mailer  service.InviteMailer
	Mirror  auth.RelationMirror
	Metrics *metrics.Metrics
	Clock   clock.Clock
	// Random overrides the invite code source.
	Random io.Reader
	// PasswordParams overrides the argon2id cost.
	PasswordParams *auth.PasswordParams
}

type App struct {
	DB *gorm.DB

	Users       *service.UserService
	Companies   *service.CompanyService
	Departments *service.DepartmentService
	Memberships *service.MembershipService
	News        *service.NewsService
	Invites     *service.InviteService
	Tasks       *service.TaskService
	Ratings     *service.RatingService
	Meetings    *service.MeetingService
	Calendar    *service.CalendarService
	AuditLogs   *service.AuthzAuditLogService
	Reconciler  *service.RelationReconciler
}

func New(db *gorm.DB, cfg *config.Config, deps Deps) *App {
	if deps.Clock == nil {
		deps.Clock = clock.New()
	}
	if deps.Mirror == nil {
		deps.Mirror = auth.NoopMirror{}
	}

	userRepo := repository.NewUserRepository(db)
	companyRepo := repository.NewCompanyRepository(db)
	departmentRepo := repository.NewDepartmentRepository(db)
	membershipRepo := repository.NewMembershipRepository(db)
	inviteRepo := repository.NewInviteRepository(db)
	newsRepo := repository.NewNewsRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	meetingRepo := repository.NewMeetingRepository(db)
	auditRepo := repository.NewAuthzAuditLogRepository(db)

	var auditLogger audit.Logger = audit.NoOpLogger{}
	if cfg.Audit.Enabled {
		auditLogger = audit.NewDBLogger(auditRepo)
	}

	var hasherOpts []auth.PasswordOption
	if deps.PasswordParams != nil {
		hasherOpts = append(hasherOpts, auth.WithPasswordParams(*deps.PasswordParams))
	}
	passwordHasher := auth.NewPasswordHasher(hasherOpts...)
	tokenManager := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.ExpiryPeriod)

	guard := service.NewGuard(companyRepo, membershipRepo, auditLogger, deps.Metrics)
	mirror := service.NewMirrorSync(deps.Mirror, auditLogger)

	inviteOpts := []service.InviteServiceOption{
		service.WithInviteAudit(auditLogger),
		service.WithInviteMetrics(deps.Metrics),
	}
	if deps.Random != nil {
		inviteOpts = append(inviteOpts, service.WithRandom(deps.Random))
	}
	inviteCfg := service.DefaultInviteConfig()
	inviteCfg.TTL = cfg.Invite.TTL
	inviteCfg.Alphabet = cfg.Invite.CodeAlphabet
	inviteCfg.CodeLength = cfg.Invite.CodeLength
	inviteCfg.MaxAttempts = cfg.Invite.MaxAttempts

	return &App{
		DB:          db,
		Users:       service.NewUserService(userRepo, membershipRepo, passwordHasher, tokenManager),
		Companies:   service.NewCompanyService(db, companyRepo, membershipRepo, guard, mirror),
		Departments: service.NewDepartmentService(departmentRepo, guard),
		Memberships: service.NewMembershipService(membershipRepo, departmentRepo, guard, mirror),
		News:        service.NewNewsService(newsRepo, guard, deps.Clock),
		Invites: service.NewInviteService(
			db, inviteRepo, companyRepo, departmentRepo, membershipRepo,
			guard, mirror, deps.Mailer, deps.Clock, inviteCfg, inviteOpts...,
		),
		Tasks:      service.NewTaskService(taskRepo, repository.NewCommentRepository(db), membershipRepo, guard),
		Ratings:    service.NewRatingService(repository.NewRatingRepository(db), taskRepo, membershipRepo, guard, deps.Clock),
		Meetings:   service.NewMeetingService(db, meetingRepo, membershipRepo, guard),
		Calendar:   service.NewCalendarService(newsRepo, taskRepo, meetingRepo, guard, deps.Clock),
		AuditLogs:  service.NewAuthzAuditLogService(auditRepo, deps.Clock),
		Reconciler: service.NewRelationReconciler(companyRepo, membershipRepo, deps.Mirror, nil),
	}
}

// Services exposes the graph to the HTTP layer.
func (a *App) Services() handler.Services {
	return handler.Services{
		Users:       a.Users,
		Companies:   a.Companies,
		Departments: a.Departments,
		Memberships: a.Memberships,
		News:        a.News,
		Invites:     a.Invites,
		Tasks:       a.Tasks,
		Ratings:     a.Ratings,
		Meetings:    a.Meetings,
		Calendar:    a.Calendar,
		AuditLogs:   a.AuditLogs,
	}
}
