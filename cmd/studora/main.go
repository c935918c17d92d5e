package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/studora/studora/adapter/cli"
	"github.com/studora/studora/adapter/cli/course"
	"github.com/studora/studora/adapter/cli/obligation"
	"github.com/studora/studora/adapter/cli/profile"
	"github.com/studora/studora/adapter/cli/session"
	"github.com/studora/studora/adapter/cli/student"
	"github.com/studora/studora/adapter/cli/task"
	"github.com/studora/studora/internal/app"
	"github.com/studora/studora/internal/shared/infrastructure/database"
	"github.com/studora/studora/pkg/config"
	"github.com/studora/studora/pkg/observability"
)

func main() {
	// Setup logger. The CLI stays quiet unless something is wrong.
	logCfg := observability.DefaultLogConfig()
	logCfg.Level = observability.LogLevelWarn
	logCfg.ServiceVersion = cli.Version
	logger := observability.NewLogger(logCfg)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		cancel()
	}()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// In development without .env, use defaults
		logger.Warn("failed to load config, using development mode", "error", err)
		cfg = &config.Config{AppEnv: "development"}
	}

	if cfg.IsDevelopment() {
		logCfg.Level = observability.LogLevelInfo
		logger = observability.NewLogger(logCfg)
	}
	cli.SetLogger(logger)

	// Without DATABASE_URL the CLI runs against a local SQLite file.
	var container *app.Container
	if database.DetectDriver(cfg.DatabaseURL) == database.DriverPostgres {
		container, err = app.NewContainer(ctx, cfg, logger)
	} else {
		container, err = app.NewLocalContainer(ctx, cfg, logger)
	}
	if err != nil {
		logger.Error("failed to initialize container", "error", err)
		os.Exit(1)
	}
	defer container.Close()

	// Start outbox processor in background (optional in CLI)
	if cfg.OutboxProcessorEnabled {
		if err := container.OutboxProcessor.Start(ctx); err != nil {
			logger.Error("failed to start outbox processor", "error", err)
			os.Exit(1)
		}
		defer container.OutboxProcessor.Stop()
	} else {
		logger.Info("outbox processor disabled in CLI")
	}

	// Create CLI app with handlers
	cliApp := cli.NewApp(
		container.CreateFixedObligationHandler,
		container.UpdateFixedObligationHandler,
		container.DeleteFixedObligationHandler,
		container.CreateFlexibleObligationHandler,
		container.UpdateFlexibleObligationHandler,
		container.DeleteFlexibleObligationHandler,
		container.CreateAcademicTaskHandler,
		container.CompleteAcademicTaskHandler,
		container.MarkTasksOverdueHandler,
		container.RescheduleHandler,
		container.ListObligationsHandler,
		container.UpcomingEventsHandler,
		container.StartSessionHandler,
		container.FinalizeSessionHandler,
		container.RecordContextSignalHandler,
		container.UpdateProfileHandler,
		container.ColdStartProfileHandler,
		container.GetProfileHandler,
		container.PredictPerformanceHandler,
		container.RecommendSlotsHandler,
		container.CreateStudentHandler,
		container.SyncCoursesHandler,
		container.RegisterCourseHandler,
		container.UnregisterCourseHandler,
		container.ListCoursesHandler,
		container.RegisteredCoursesHandler,
	)

	if cfg.StudentID != "" {
		studentID, err := uuid.Parse(cfg.StudentID)
		if err != nil {
			logger.Error("invalid STUDORA_STUDENT_ID", "error", err)
			os.Exit(1)
		}
		cliApp.SetCurrentStudentID(studentID)
	}

	cli.SetApp(cliApp)

	// Register command groups
	cli.AddCommand(student.Cmd)
	cli.AddCommand(obligation.Cmd)
	cli.AddCommand(task.Cmd)
	cli.AddCommand(course.Cmd)
	cli.AddCommand(session.Cmd)
	cli.AddCommand(profile.Cmd)

	cli.Execute()
}
