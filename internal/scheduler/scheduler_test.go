package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dangerclosesec/bizcontrol/internal/clock"
	"github.com/dangerclosesec/bizcontrol/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2025, time.May, 14, 3, 0, 0, 0, time.UTC)

func newTestScheduler(t *testing.T) (*Scheduler, *clock.FakeClock, *prometheus.Registry) {
	t.Helper()
	clk := clock.NewFakeClock(base)
	reg := prometheus.NewRegistry()
	s := New(WithClock(clk), WithMetrics(metrics.New(reg)), WithMisfireGrace(10*time.Minute))
	t.Cleanup(func() { _ = s.Stop(context.Background()) })
	return s, clk, reg
}

func runs(t *testing.T, reg *prometheus.Registry, job, outcome string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() != "bizcontrol_scheduler_job_runs_total" {
			continue
		}
		for _, m := range f.GetMetric() {
			labels := map[string]string{}
			for _, l := range m.GetLabel() {
				labels[l.GetName()] = l.GetValue()
			}
			if labels["job"] == job && labels["outcome"] == outcome {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestRegister(t *testing.T) {
	s, _, _ := newTestScheduler(t)

	require.NoError(t, s.Register(JobCleanupInvites, "0 3 * * *", func(context.Context) error { return nil }))

	err := s.Register(JobCleanupInvites, "0 4 * * *", func(context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrDuplicateJob)

	err = s.Register("broken", "not a cron spec", func(context.Context) error { return nil })
	assert.Error(t, err)
}

func TestExecute_Outcomes(t *testing.T) {
	s, clk, reg := newTestScheduler(t)

	calls := 0
	require.NoError(t, s.Register(JobCleanupInvites, "0 3 * * *", func(context.Context) error {
		calls++
		return nil
	}))
	j := s.jobs[JobCleanupInvites]

	clk.Set(base.Add(5 * time.Minute))
	require.NoError(t, s.execute(context.Background(), j, base))
	assert.Equal(t, 1, calls)

	clk.Set(base.Add(11 * time.Minute))
	require.NoError(t, s.execute(context.Background(), j, base))
	assert.Equal(t, 1, calls, "late run is skipped")

	assert.Equal(t, 1.0, runs(t, reg, JobCleanupInvites, metrics.JobOutcomeOK))
	assert.Equal(t, 1.0, runs(t, reg, JobCleanupInvites, metrics.JobOutcomeSkippedMisfire))
}

func TestExecute_SkipsWhileRunning(t *testing.T) {
	s, _, reg := newTestScheduler(t)

	started := make(chan struct{})
	release := make(chan struct{})
	require.NoError(t, s.Register(JobPruneAuditLogs, "@hourly", func(context.Context) error {
		close(started)
		<-release
		return nil
	}))

	done := make(chan error, 1)
	go func() { done <- s.RunNow(context.Background(), JobPruneAuditLogs) }()
	<-started

	require.NoError(t, s.RunNow(context.Background(), JobPruneAuditLogs))
	close(release)
	require.NoError(t, <-done)

	assert.Equal(t, 1.0, runs(t, reg, JobPruneAuditLogs, metrics.JobOutcomeSkippedRunning))
	assert.Equal(t, 1.0, runs(t, reg, JobPruneAuditLogs, metrics.JobOutcomeOK))
}

func TestExecute_Error(t *testing.T) {
	s, _, reg := newTestScheduler(t)
	boom := errors.New("boom")
	require.NoError(t, s.Register(JobCleanupInvites, "0 3 * * *", func(context.Context) error { return boom }))

	err := s.RunNow(context.Background(), JobCleanupInvites)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1.0, runs(t, reg, JobCleanupInvites, metrics.JobOutcomeError))
	n, err := testutil.GatherAndCount(reg, "bizcontrol_scheduler_job_errors_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.Error(t, s.RunNow(context.Background(), "missing"))
}

func TestStartStop(t *testing.T) {
	s := New()
	s.Start()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, s.Stop(ctx))
}
