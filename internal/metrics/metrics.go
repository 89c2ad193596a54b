// Package metrics exposes the prometheus collectors of the API process.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dangerclosesec/bizcontrol/internal/domain"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

// Job outcomes.
const (
	JobOutcomeOK             = "ok"
	JobOutcomeError          = "error"
	JobOutcomeSkippedMisfire = "skipped_misfire"
	JobOutcomeSkippedRunning = "skipped_running"
)

// Low-cardinality error reasons.
const (
	ReasonDeadlineExceeded = "deadline_exceeded"
	ReasonUniqueViolation  = "unique_violation"
	ReasonDBLockTimeout    = "db_lock_timeout"
	ReasonForbidden        = "forbidden"
	ReasonNotFound         = "not_found"
	ReasonUnknown          = "unknown"
)

// Metrics is nil-safe: every method is a no-op on a nil receiver.
type Metrics struct {
	jobRuns       *prometheus.CounterVec
	jobDuration   *prometheus.HistogramVec
	jobErrors     *prometheus.CounterVec
	invites       *prometheus.CounterVec
	policyDenials *prometheus.CounterVec
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
}

// New builds the collectors and registers them with registerer.
func New(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bizcontrol_scheduler_job_runs_total",
			Help: "Scheduled job runs by name and outcome.",
		}, []string{"job", "outcome"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bizcontrol_scheduler_job_duration_seconds",
			Help:    "Scheduled job latency.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 300},
		}, []string{"job"}),
		jobErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bizcontrol_scheduler_job_errors_total",
			Help: "Scheduled job errors by low-cardinality reason.",
		}, []string{"job", "reason"}),
		invites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bizcontrol_invites_total",
			Help: "Invite lifecycle transitions.",
		}, []string{"event"}),
		policyDenials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bizcontrol_policy_denials_total",
			Help: "Denied policy checks by permission.",
		}, []string{"permission"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bizcontrol_http_requests_total",
			Help: "HTTP requests by route pattern and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bizcontrol_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	registerer.MustRegister(
		m.jobRuns,
		m.jobDuration,
		m.jobErrors,
		m.invites,
		m.policyDenials,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

func (m *Metrics) ObserveJob(job, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.jobRuns.WithLabelValues(job, outcome).Inc()
	if outcome == JobOutcomeOK || outcome == JobOutcomeError {
		m.jobDuration.WithLabelValues(job).Observe(d.Seconds())
	}
}

func (m *Metrics) JobError(job string, err error) {
	if m == nil {
		return
	}
	m.jobErrors.WithLabelValues(job, ClassifyReason(err)).Inc()
}

// Invite lifecycle events.
const (
	InviteCreated  = "created"
	InviteAccepted = "accepted"
	InviteRevoked  = "revoked"
	InviteSwept    = "swept"
)

func (m *Metrics) AddInvites(event string, n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.invites.WithLabelValues(event).Add(float64(n))
}

func (m *Metrics) PolicyDenied(permission string) {
	if m == nil {
		return
	}
	m.policyDenials.WithLabelValues(permission).Inc()
}

// Middleware records request counts and latency by chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// ClassifyReason maps an error to a bounded label value.
func ClassifyReason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.DeadlineExceeded):
		return ReasonDeadlineExceeded
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ReasonUniqueViolation
	case errors.Is(err, domain.ErrForbidden):
		return ReasonForbidden
	case errors.Is(err, domain.ErrNotFound):
		return ReasonNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return ReasonUniqueViolation
		case "55P03":
			return ReasonDBLockTimeout
		}
	}
	return ReasonUnknown
}
