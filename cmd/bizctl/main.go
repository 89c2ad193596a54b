package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dangerclosesec/bizcontrol/internal/app"
	"github.com/dangerclosesec/bizcontrol/internal/auth"
	"github.com/dangerclosesec/bizcontrol/internal/config"
	"github.com/dangerclosesec/bizcontrol/internal/migration"
	"github.com/dangerclosesec/bizcontrol/internal/repository"
	"github.com/dangerclosesec/bizcontrol/internal/scheduler"
	"github.com/spf13/cobra"
	"gorm.io/gorm/logger"
)

var (
	verbose bool
	timeout time.Duration
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Minute, "Maximum run time of one-shot commands")

	syncCmd.Flags().Int("batch-size", 100, "Number of companies to process in a batch")
	syncCmd.Flags().Bool("dry-run", false, "Print what would be done without making changes")
	superuserCmd.Flags().String("email", "", "Superuser e-mail (defaults to FIRST_SUPERUSER_EMAIL)")
	superuserCmd.Flags().String("password", "", "Superuser password (defaults to FIRST_SUPERUSER_PASSWORD)")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(superuserCmd)
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(schedulerCmd)
	rootCmd.AddCommand(syncCmd)
}

var rootCmd = &cobra.Command{
	Use:   "bizctl",
	Short: "bizctl operates a business control deployment",
	Long:  `bizctl migrates the database, manages superusers and runs maintenance jobs.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})))
	},
	SilenceUsage: true,
}

// environment loads config, opens the store and wires the services.
func environment(deps app.Deps) (*config.Config, *app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	level := logger.Warn
	if verbose {
		level = logger.Info
	}
	db, err := repository.Open(cfg, level)
	if err != nil {
		return nil, nil, err
	}
	return cfg, app.New(db, cfg, deps), nil
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Long:  `Run gorm auto-migration, then apply the versioned Postgres constraints.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		cfg, a, err := environment(app.Deps{})
		if err != nil {
			return err
		}
		if err := repository.AutoMigrate(ctx, a.DB); err != nil {
			return err
		}
		fmt.Println("Schema migrated successfully")

		if cfg.Database.Driver != config.DriverPostgres {
			fmt.Println("Constraint migrations skipped: not a postgres database")
			return nil
		}

		db, err := migration.Open(cfg.PostgresDSN())
		if err != nil {
			return err
		}
		defer db.Close()

		applied, err := migration.NewMigrator(db, slog.Default()).Apply(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Applied %d constraint migration(s)\n", applied)
		return nil
	},
}

var superuserCmd = &cobra.Command{
	Use:   "create-superuser",
	Short: "Create a superuser or promote an existing account",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, a, err := environment(app.Deps{})
		if err != nil {
			return err
		}

		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")
		if email == "" {
			email = cfg.FirstSuperuser.Email
		}
		if password == "" {
			password = cfg.FirstSuperuser.Password
		}
		if email == "" {
			return fmt.Errorf("an e-mail is required (--email or FIRST_SUPERUSER_EMAIL)")
		}

		user, created, err := a.Users.EnsureSuperuser(cmd.Context(), email, password)
		if err != nil {
			return err
		}
		if created {
			fmt.Printf("Created superuser %s\n", user.Email)
		} else {
			fmt.Printf("%s is a superuser\n", user.Email)
		}
		return nil
	},
}

var sweepCmd = &cobra.Command{
	Use:   "sweep-invites",
	Short: "Delete every expired invite once",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		_, a, err := environment(app.Deps{})
		if err != nil {
			return err
		}
		n, err := a.Invites.SweepExpired(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Deleted %d expired invite(s)\n", n)
		return nil
	},
}

var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "Run the maintenance jobs on their cron schedule",
	Long:  `Run the scheduler without the HTTP API, e.g. when the API is scaled out and jobs must run once.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, a, err := environment(app.Deps{})
		if err != nil {
			return err
		}

		s := scheduler.New(
			scheduler.WithLogger(slog.Default()),
			scheduler.WithMisfireGrace(cfg.Scheduler.MisfireGrace),
		)
		if err := a.RegisterJobs(s, cfg.Scheduler.CleanupCron, cfg.Scheduler.AuditCron, cfg.Audit.Retention); err != nil {
			return err
		}
		s.Start()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		<-ctx.Done()

		stopCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		return s.Stop(stopCtx)
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync-relations",
	Short: "Write every membership to the Permify relationship mirror",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if cfg.Permify.Host == "" {
			return fmt.Errorf("PERMIFY_HOST is required")
		}
		permify, err := auth.NewPermifyMirror(cfg.Permify.Host, auth.WithTenant(cfg.Permify.Tenant))
		if err != nil {
			return err
		}

		_, a, err := environment(app.Deps{Mirror: permify})
		if err != nil {
			return err
		}

		batchSize, _ := cmd.Flags().GetInt("batch-size")
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		a.Reconciler.SetBatchSize(batchSize)
		a.Reconciler.SetDryRun(dryRun)

		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()

		stats, err := a.Reconciler.Run(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Companies: %d, written: %d, failed: %d\n", stats.Companies, stats.Written, stats.Failed)
		return nil
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
