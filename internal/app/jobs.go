package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/dangerclosesec/bizcontrol/internal/scheduler"
)

// RegisterJobs adds the maintenance jobs to s. An empty spec disables a job.
func (a *App) RegisterJobs(s *scheduler.Scheduler, cleanupSpec, auditSpec string, retention time.Duration) error {
	if cleanupSpec != "" {
		if err := s.Register(scheduler.JobCleanupInvites, cleanupSpec, a.sweepInvites); err != nil {
			return err
		}
	}
	if auditSpec != "" && retention > 0 {
		prune := func(ctx context.Context) error {
			n, err := a.AuditLogs.Prune(ctx, retention)
			if err != nil {
				return err
			}
			slog.InfoContext(ctx, "audit logs pruned", "deleted", n, "retention", retention)
			return nil
		}
		if err := s.Register(scheduler.JobPruneAuditLogs, auditSpec, prune); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) sweepInvites(ctx context.Context) error {
	_, err := a.Invites.SweepExpired(ctx)
	return err
}
