// Package migration applies the database constraints gorm's AutoMigrate
// cannot express. It runs on Postgres only, through database/sql and lib/pq.
package migration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lib/pq"
)

// Step is one versioned schema change.
type Step struct {
	Version     int
	Description string
	SQL         string
}

// Steps run in version order. Versions are never reused.
var Steps = []Step{
	{
		Version:     1,
		Description: "rating scores between 1 and 5",
		SQL: `ALTER TABLE ratings ADD CONSTRAINT ck_ratings_scores CHECK (
			timeliness BETWEEN 1 AND 5 AND completeness BETWEEN 1 AND 5 AND quality BETWEEN 1 AND 5)`,
	},
	{
		Version:     2,
		Description: "meetings end after they start",
		SQL:         `ALTER TABLE meetings ADD CONSTRAINT ck_meetings_window CHECK (end_at > start_at)`,
	},
	{
		Version:     3,
		Description: "task due date not before start date",
		SQL:         `ALTER TABLE tasks ADD CONSTRAINT ck_tasks_window CHECK (due_at >= start_at)`,
	},
	{
		Version:     4,
		Description: "known membership roles",
		SQL:         `ALTER TABLE memberships ADD CONSTRAINT ck_memberships_role CHECK (role IN ('user', 'manager', 'admin'))`,
	},
	{
		Version:     5,
		Description: "known invite roles",
		SQL:         `ALTER TABLE invites ADD CONSTRAINT ck_invites_role CHECK (role IN ('user', 'manager', 'admin'))`,
	},
	{
		Version:     6,
		Description: "attendee schedule lookup",
		SQL:         `CREATE INDEX IF NOT EXISTS idx_meeting_attendees_user ON meeting_attendees (user_id, meeting_id)`,
	},
}

// Migrator handles constraint migrations
type Migrator struct {
	DB     *sql.DB
	logger *slog.Logger
}

// NewMigrator creates a new migrator
func NewMigrator(db *sql.DB, logger *slog.Logger) *Migrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Migrator{DB: db, logger: logger}
}

// Open connects with the lib/pq driver.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return db, nil
}

// InitializeSchema creates the bookkeeping tables.
func (m *Migrator) InitializeSchema(ctx context.Context) error {
	_, err := m.DB.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS schema_versions (
		version INT PRIMARY KEY,
		description TEXT NOT NULL,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS migration_history (
		id SERIAL PRIMARY KEY,
		version INT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		success BOOLEAN NOT NULL,
		errors TEXT
	);
	`)
	if err != nil {
		return fmt.Errorf("initializing migration schema: %w", err)
	}
	return nil
}

// GetCurrentVersion gets the highest applied version
func (m *Migrator) GetCurrentVersion(ctx context.Context) (int, error) {
	var version int
	err := m.DB.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_versions`).Scan(&version)
	return version, err
}

// Pending returns the steps above current, in order.
func Pending(steps []Step, current int) []Step {
	var out []Step
	for _, s := range steps {
		if s.Version > current {
			out = append(out, s)
		}
	}
	return out
}

// Apply runs every pending step in its own transaction and returns how
// many were applied.
func (m *Migrator) Apply(ctx context.Context) (int, error) {
	if err := m.InitializeSchema(ctx); err != nil {
		return 0, err
	}
	current, err := m.GetCurrentVersion(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get current version: %w", err)
	}

	applied := 0
	for _, step := range Pending(Steps, current) {
		if err := m.applyStep(ctx, step); err != nil {
			m.recordMigrationHistory(ctx, step.Version, false, err.Error())
			return applied, fmt.Errorf("applying version %d (%s): %w", step.Version, step.Description, err)
		}
		m.recordMigrationHistory(ctx, step.Version, true, "")
		m.logger.InfoContext(ctx, "migration applied", "version", step.Version, "description", step.Description)
		applied++
	}
	return applied, nil
}

func (m *Migrator) applyStep(ctx context.Context, step Step) error {
	tx, err := m.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, step.SQL); err != nil && !IsDuplicateObject(err) {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schema_versions (version, description) VALUES ($1, $2)`,
		step.Version, step.Description,
	); err != nil {
		return fmt.Errorf("failed to record version: %w", err)
	}
	return tx.Commit()
}

// IsDuplicateObject reports whether Postgres rejected a constraint or index
// that already exists, e.g. one added by hand before versioning.
func IsDuplicateObject(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	switch pqErr.Code {
	case "42710", "42P07":
		return true
	}
	return false
}

// recordMigrationHistory records migration history
func (m *Migrator) recordMigrationHistory(ctx context.Context, version int, success bool, errorMsg string) {
	_, err := m.DB.ExecContext(ctx, `
		INSERT INTO migration_history (version, success, errors)
		VALUES ($1, $2, $3)
	`, version, success, errorMsg)
	if err != nil {
		m.logger.ErrorContext(ctx, "Failed to record migration history", "error", err)
	}
}
