// internal/service/entity_reconciliation.go
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dangerclosesec/bizcontrol/internal/auth"
	"github.com/dangerclosesec/bizcontrol/internal/repository"
)

// RelationReconciler rewrites the relation mirror from the memberships table.
// It is the recovery path for mirror writes that failed after a commit.
type RelationReconciler struct {
	companies   *repository.CompanyRepository
	memberships *repository.MembershipRepository
	mirror      auth.RelationMirror
	batchSize   int
	dryRun      bool // log what would be written, write nothing
	logger      *slog.Logger
}

// ReconcileStats counts what one run touched.
type ReconcileStats struct {
	Companies int
	Written   int
	Failed    int
}

func NewRelationReconciler(
	companies *repository.CompanyRepository,
	memberships *repository.MembershipRepository,
	mirror auth.RelationMirror,
	logger *slog.Logger,
) *RelationReconciler {
	if mirror == nil {
		mirror = auth.NoopMirror{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RelationReconciler{
		companies:   companies,
		memberships: memberships,
		mirror:      mirror,
		batchSize:   100,
		logger:      logger,
	}
}

// SetBatchSize sets how many companies are loaded per page.
func (s *RelationReconciler) SetBatchSize(size int) {
	if size > 0 {
		s.batchSize = size
	}
}

func (s *RelationReconciler) SetDryRun(dryRun bool) {
	s.dryRun = dryRun
}

// Run walks every company page by page and writes one tuple per membership.
// Individual write failures are counted and logged; the run goes on.
func (s *RelationReconciler) Run(ctx context.Context) (ReconcileStats, error) {
	var stats ReconcileStats
	s.logger.Info("starting relation reconciliation", "dry_run", s.dryRun)

	for offset := 0; ; offset += s.batchSize {
		companies, err := s.companies.FindAll(ctx, repository.PageParams{Offset: offset, Limit: s.batchSize})
		if err != nil {
			return stats, fmt.Errorf("fetching companies: %w", err)
		}

		for _, c := range companies {
			stats.Companies++
			members, err := s.memberships.ListByCompany(ctx, c.ID)
			if err != nil {
				return stats, fmt.Errorf("fetching members of %s: %w", c.ID, err)
			}
			for i := range members {
				m := &members[i]
				if s.dryRun {
					s.logger.Info("would sync relationship (dry run)",
						"company_id", c.ID.String(),
						"user_id", m.UserID.String(),
						"role", m.Role,
					)
					continue
				}
				if err := s.mirror.WriteMembership(ctx, m); err != nil {
					stats.Failed++
					s.logger.Error("failed to sync member relationship",
						"company_id", c.ID.String(),
						"user_id", m.UserID.String(),
						"role", m.Role,
						"error", err,
					)
					continue
				}
				stats.Written++
			}
		}

		if len(companies) < s.batchSize {
			break
		}
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		default:
		}
	}

	s.logger.Info("completed relation reconciliation",
		"companies", stats.Companies,
		"written", stats.Written,
		"failed", stats.Failed,
	)
	return stats, nil
}
