package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dangerclosesec/bizcontrol/internal/metrics"
	"github.com/dangerclosesec/bizcontrol/internal/middleware"
	"github.com/dangerclosesec/bizcontrol/internal/service"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Services bundles everything the HTTP layer calls into.
type Services struct {
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
}

type RouterOptions struct {
	Logger             *slog.Logger
	Metrics            *metrics.Metrics
	MetricsHandler     http.Handler
	RequestTimeout     time.Duration
	AdminCookieSecure  bool
	AdminSessionTTL    time.Duration
	CORSAllowedOrigins []string
}

func NewRouter(svc Services, opts RouterOptions) http.Handler {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	if len(opts.CORSAllowedOrigins) == 0 {
		opts.CORSAllowedOrigins = []string{"https://*", "http://*"}
	}

	authHandler := NewAuthHandler(svc.Users)
	companyHandler := NewCompanyHandler(svc.Companies)
	departmentHandler := NewDepartmentHandler(svc.Departments)
	membershipHandler := NewMembershipHandler(svc.Memberships)
	newsHandler := NewNewsHandler(svc.News)
	inviteHandler := NewInviteHandler(svc.Invites)
	taskHandler := NewTaskHandler(svc.Tasks, svc.Ratings)
	meetingHandler := NewMeetingHandler(svc.Meetings, svc.Calendar)
	auditHandler := NewAuthzAuditLogHandler(svc.AuditLogs)
	adminHandler := NewAdminHandler(svc.Users, svc.Companies, svc.Memberships, svc.Invites, opts.AdminCookieSecure, opts.AdminSessionTTL)

	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logging(opts.Logger))
	r.Use(middleware.Recovery(opts.Logger))
	r.Use(opts.Metrics.Middleware)
	r.Use(middleware.RequestMeta)
	r.Use(chimw.Timeout(opts.RequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})
	if opts.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", opts.MetricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Route("/auth", func(r chi.Router) {
			r.Use(chimw.AllowContentType("application/json"))
			r.Post("/signup", authHandler.SignupHandler)
			r.Post("/login", authHandler.LoginHandler)
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(svc.Users))

			r.Get("/users/me", authHandler.MeHandler)
			r.Delete("/users/me", authHandler.DeleteMeHandler)

			r.Post("/invites/accept", inviteHandler.Accept)

			r.Route("/audit-logs", func(r chi.Router) {
				r.Get("/", auditHandler.GetAuditLogs)
				r.Get("/{id}", auditHandler.GetAuditLogByID)
			})

			r.Route("/companies", func(r chi.Router) {
				r.Post("/", companyHandler.Create)
				r.Get("/", companyHandler.List)

				r.Route("/{companyID}", func(r chi.Router) {
					r.Get("/", companyHandler.Get)
					r.Patch("/", companyHandler.Update)
					r.Delete("/", companyHandler.Delete)

					r.Get("/departments", departmentHandler.List)
					r.Post("/departments", departmentHandler.Create)
					r.Patch("/departments/{departmentID}", departmentHandler.Update)
					r.Delete("/departments/{departmentID}", departmentHandler.Delete)

					r.Get("/memberships", membershipHandler.List)
					r.Post("/memberships/leave", membershipHandler.Leave)
					r.Patch("/memberships/{membershipID}", membershipHandler.Update)
					r.Delete("/memberships/{membershipID}", membershipHandler.Delete)

					r.Get("/news", newsHandler.List)
					r.Post("/news", newsHandler.Create)
					r.Patch("/news/{newsID}", newsHandler.Update)
					r.Delete("/news/{newsID}", newsHandler.Delete)

					r.Get("/invites", inviteHandler.List)
					r.Post("/invites", inviteHandler.Create)
					r.Delete("/invites/{code}", inviteHandler.Revoke)

					r.Get("/ratings", taskHandler.Ratings)
					r.Route("/tasks", func(r chi.Router) {
						r.Get("/", taskHandler.List)
						r.Post("/", taskHandler.Create)
						r.Route("/{taskID}", func(r chi.Router) {
							r.Get("/", taskHandler.Get)
							r.Patch("/", taskHandler.Update)
							r.Delete("/", taskHandler.Delete)
							r.Post("/evaluate", taskHandler.Evaluate)
							r.Get("/comments", taskHandler.ListComments)
							r.Post("/comments", taskHandler.AddComment)
							r.Patch("/comments/{commentID}", taskHandler.UpdateComment)
							r.Delete("/comments/{commentID}", taskHandler.DeleteComment)
						})
					})

					r.Route("/meetings", func(r chi.Router) {
						r.Get("/", meetingHandler.List)
						r.Post("/", meetingHandler.Create)
						r.Route("/{meetingID}", func(r chi.Router) {
							r.Get("/", meetingHandler.Get)
							r.Patch("/", meetingHandler.Update)
							r.Delete("/", meetingHandler.Delete)
							r.Get("/attendees", meetingHandler.ListAttendees)
							r.Post("/attendees", meetingHandler.AddAttendee)
							r.Delete("/attendees/{userID}", meetingHandler.RemoveAttendee)
						})
					})

					r.Get("/calendar/{scope}", meetingHandler.Calendar)
				})
			})
		})
	})

	r.Route("/admin", func(r chi.Router) {
		r.Post("/login", adminHandler.Login)
		r.Post("/logout", adminHandler.Logout)

		r.Group(func(r chi.Router) {
			r.Use(middleware.AdminSession(svc.Users))

			r.Get("/users", adminHandler.Users)
			r.Get("/companies", adminHandler.Companies)
			r.Get("/companies/{companyID}/memberships", adminHandler.Memberships)
			r.Get("/invites", adminHandler.Invites)
			r.Post("/invites/sweep", adminHandler.SweepInvites)
			r.Get("/audit-logs", auditHandler.GetAuditLogs)
		})
	})

	return r
}
