package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/sais/sais/internal/config"
	"github.com/sais/sais/internal/domain/consent"
	"github.com/sais/sais/internal/domain/patient"
	"github.com/sais/sais/internal/domain/programme"
	"github.com/sais/sais/internal/domain/session"
	"github.com/sais/sais/internal/domain/status"
	"github.com/sais/sais/internal/domain/triage"
	"github.com/sais/sais/internal/domain/vaccination"
	"github.com/sais/sais/internal/platform/db"
	"github.com/sais/sais/internal/platform/middleware"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "sais-server",
		Short: "School-aged immunisation status API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(materializeCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil {
		level = zerolog.InfoLevel
	}
	var out io.Writer = os.Stdout
	if cfg.IsDev() {
		out = zerolog.ConsoleWriter{Out: os.Stdout}
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

func newPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	return db.NewPool(ctx, db.PoolConfig{
		URL:      cfg.DatabaseURL,
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
	})
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the status API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	ctx := context.Background()
	pool, err := newPool(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	patientRepo := patient.NewPatientRepoPG(pool)
	programmeRepo := programme.NewProgrammeRepoPG(pool)
	consentRepo := consent.NewConsentRepoPG(pool)
	triageRepo := triage.NewTriageRepoPG(pool)
	recordRepo := vaccination.NewRecordRepoPG(pool)
	sessionRepo := session.NewSessionRepoPG(pool)
	attendanceRepo := session.NewAttendanceRepoPG(pool)
	statusRepo := status.NewStatusRepoPG(pool)
	registerRepo := status.NewRegisterRepoPG(pool)

	loader := status.NewRepoLoader(consentRepo, triageRepo, recordRepo)
	statusService := status.NewService(
		statusRepo, registerRepo, patientRepo, programmeRepo, sessionRepo, attendanceRepo, recordRepo, loader)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.Logger(logger))

	e.GET("/healthz", db.HealthHandler(pool))

	api := e.Group("/api/v1")
	status.NewHandler(statusService).RegisterRoutes(api)
	consent.NewHandler(consentRepo, logger).RegisterRoutes(api)
	triage.NewHandler(triageRepo).RegisterRoutes(api)
	programme.NewHandler(programmeRepo).RegisterRoutes(api)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      e,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("port", cfg.Port).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func materializeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "materialize",
		Short: "Recompute the cached status table",
		RunE: func(cmd *cobra.Command, args []string) error {
			years, _ := cmd.Flags().GetIntSlice("academic-year")
			patientFlag, _ := cmd.Flags().GetString("patient")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := newLogger(cfg)

			if len(years) == 0 {
				years = []int{programme.AcademicYearOf(time.Now())}
			}

			var patientIDs []uuid.UUID
			if patientFlag != "" {
				id, err := uuid.Parse(patientFlag)
				if err != nil {
					return fmt.Errorf("invalid --patient: %w", err)
				}
				patientIDs = append(patientIDs, id)
			}

			ctx := context.Background()
			pool, err := newPool(ctx, cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			loader := status.NewRepoLoader(
				consent.NewConsentRepoPG(pool),
				triage.NewTriageRepoPG(pool),
				vaccination.NewRecordRepoPG(pool))

			materializer := status.NewMaterializer(
				patient.NewPatientRepoPG(pool),
				programme.NewProgrammeRepoPG(pool),
				status.NewStatusRepoPG(pool),
				status.NewRegisterRepoPG(pool),
				session.NewSessionRepoPG(pool),
				session.NewAttendanceRepoPG(pool),
				vaccination.NewRecordRepoPG(pool),
				loader,
				logger)
			materializer.SetBatchSize(cfg.MaterializerBatchSize)

			start := time.Now()
			if err := materializer.Run(ctx, status.Scope{PatientIDs: patientIDs, AcademicYears: years}); err != nil {
				return err
			}
			logger.Info().Dur("took", time.Since(start)).Msg("materialization complete")
			return nil
		},
	}
	cmd.Flags().IntSlice("academic-year", nil, "Academic years to materialize (default: current)")
	cmd.Flags().String("patient", "", "Restrict to one patient ID")
	return cmd
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := newPool(ctx, cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			count, err := db.NewMigrator(pool, dir).Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Printf("Applied %d migration(s).\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := newPool(ctx, cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			statuses, err := db.NewMigrator(pool, dir).Status(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				state := "pending"
				appliedAt := ""
				if s.Applied {
					state = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, state, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}
