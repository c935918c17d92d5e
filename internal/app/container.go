package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	behaviorCommands "github.com/studora/studora/internal/behavior/application/commands"
	behaviorQueries "github.com/studora/studora/internal/behavior/application/queries"
	behaviorServices "github.com/studora/studora/internal/behavior/application/services"
	behaviorDomain "github.com/studora/studora/internal/behavior/domain"
	behaviorCache "github.com/studora/studora/internal/behavior/infrastructure/cache"
	behaviorPersistence "github.com/studora/studora/internal/behavior/infrastructure/persistence"
	planningCommands "github.com/studora/studora/internal/planning/application/commands"
	planningQueries "github.com/studora/studora/internal/planning/application/queries"
	planningServices "github.com/studora/studora/internal/planning/application/services"
	planningSubscribers "github.com/studora/studora/internal/planning/application/subscribers"
	planningDomain "github.com/studora/studora/internal/planning/domain"
	planningPersistence "github.com/studora/studora/internal/planning/infrastructure/persistence"
	"github.com/studora/studora/internal/planning/solver"
	rosterCommands "github.com/studora/studora/internal/roster/application/commands"
	rosterQueries "github.com/studora/studora/internal/roster/application/queries"
	rosterServices "github.com/studora/studora/internal/roster/application/services"
	rosterDomain "github.com/studora/studora/internal/roster/domain"
	rosterPersistence "github.com/studora/studora/internal/roster/infrastructure/persistence"
	sharedApplication "github.com/studora/studora/internal/shared/application"
	"github.com/studora/studora/internal/shared/infrastructure/database"
	_ "github.com/studora/studora/internal/shared/infrastructure/database/postgres" // Register Postgres driver
	_ "github.com/studora/studora/internal/shared/infrastructure/database/sqlite"   // Register SQLite driver
	"github.com/studora/studora/internal/shared/infrastructure/eventbus"
	"github.com/studora/studora/internal/shared/infrastructure/migrations"
	"github.com/studora/studora/internal/shared/infrastructure/outbox"
	sharedPersistence "github.com/studora/studora/internal/shared/infrastructure/persistence"
	"github.com/studora/studora/pkg/config"
	"github.com/studora/studora/pkg/observability"
)

// Container holds all application dependencies.
type Container struct {
	Config  *config.Config
	Logger  *slog.Logger
	Metrics observability.Metrics

	// Database
	DB       *pgxpool.Pool // nil in local mode
	DBConn   database.Connection
	DBDriver database.Driver

	// Redis
	RedisClient *redis.Client

	// Repositories
	FixedObligationRepo    planningDomain.FixedObligationRepository
	FlexibleObligationRepo planningDomain.FlexibleObligationRepository
	AcademicTaskRepo       planningDomain.AcademicTaskRepository
	CalendarEventRepo      planningDomain.CalendarEventRepository
	SessionEventRepo       behaviorDomain.SessionEventRepository
	ContextSignalRepo      behaviorDomain.ContextSignalRepository
	ProfileRepo            behaviorDomain.ProductivityProfileRepository
	StudentRepo            rosterDomain.StudentRepository
	CourseRepo             rosterDomain.CourseRepository
	RegistrationRepo       rosterDomain.RegistrationRepository
	OutboxRepo             outbox.Repository

	// Publishers
	EventPublisher eventbus.Publisher

	// Unit of Work
	UnitOfWork sharedApplication.UnitOfWork

	// Planning services
	Normalizer         *planningServices.Normalizer
	SolverRunner       *planningServices.SolverRunner
	RecurrenceExpander *planningServices.RecurrenceExpander
	StudentLocks       *planningServices.StudentLock

	// Behavior services
	ProfileService  *behaviorServices.ProfileService
	WeightsProvider *behaviorServices.PlannerWeightsProvider

	// Roster services
	LectureExpander *rosterServices.LectureExpander

	// Planning command handlers
	CreateFixedObligationHandler    *planningCommands.CreateFixedObligationHandler
	UpdateFixedObligationHandler    *planningCommands.UpdateFixedObligationHandler
	DeleteFixedObligationHandler    *planningCommands.DeleteFixedObligationHandler
	CreateFlexibleObligationHandler *planningCommands.CreateFlexibleObligationHandler
	UpdateFlexibleObligationHandler *planningCommands.UpdateFlexibleObligationHandler
	DeleteFlexibleObligationHandler *planningCommands.DeleteFlexibleObligationHandler
	CreateAcademicTaskHandler       *planningCommands.CreateAcademicTaskHandler
	CompleteAcademicTaskHandler     *planningCommands.CompleteAcademicTaskHandler
	MarkTasksOverdueHandler         *planningCommands.MarkTasksOverdueHandler
	RescheduleHandler               *planningCommands.RescheduleHandler

	// Planning query handlers
	ListObligationsHandler *planningQueries.ListObligationsHandler
	UpcomingEventsHandler  *planningQueries.UpcomingEventsHandler

	// Behavior command handlers
	StartSessionHandler        *behaviorCommands.StartSessionHandler
	FinalizeSessionHandler     *behaviorCommands.FinalizeSessionHandler
	RecordContextSignalHandler *behaviorCommands.RecordContextSignalHandler
	UpdateProfileHandler       *behaviorCommands.UpdateProfileHandler
	ColdStartProfileHandler    *behaviorCommands.ColdStartProfileHandler

	// Behavior query handlers
	GetProfileHandler         *behaviorQueries.GetProfileHandler
	PredictPerformanceHandler *behaviorQueries.PredictPerformanceHandler
	RecommendSlotsHandler     *behaviorQueries.RecommendSlotsHandler

	// Roster command handlers
	CreateStudentHandler    *rosterCommands.CreateStudentHandler
	SyncCoursesHandler      *rosterCommands.SyncCoursesHandler
	RegisterCourseHandler   *rosterCommands.RegisterCourseHandler
	UnregisterCourseHandler *rosterCommands.UnregisterCourseHandler

	// Roster query handlers
	ListCoursesHandler       *rosterQueries.ListCoursesHandler
	RegisteredCoursesHandler *rosterQueries.RegisteredCoursesHandler

	// Event Subscribers (local mode)
	InProcessEventBus *eventbus.InProcessEventBus

	// Outbox Processor
	OutboxProcessor *outbox.Processor
}

// NewContainer creates and wires all dependencies against PostgreSQL.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	c := &Container{
		Config: cfg,
		Logger: logger,
	}

	// Connect to PostgreSQL
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	c.DB = pool
	c.DBDriver = database.DriverPostgres
	logger.Info("connected to database")

	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	// Connect to Redis (optional in development)
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			if !cfg.IsDevelopment() {
				pool.Close()
				return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
			}
			logger.Warn("invalid Redis URL, profile reads go straight to the database", "error", err)
		} else {
			redisClient := redis.NewClient(opt)
			if err := redisClient.Ping(ctx).Err(); err != nil {
				if !cfg.IsDevelopment() {
					pool.Close()
					return nil, fmt.Errorf("failed to connect to Redis: %w", err)
				}
				logger.Warn("Redis not available, profile reads go straight to the database", "error", err)
			} else {
				c.RedisClient = redisClient
				logger.Info("connected to Redis")
			}
		}
	}

	// Create repositories
	c.FixedObligationRepo = planningPersistence.NewPostgresFixedObligationRepository(pool)
	c.FlexibleObligationRepo = planningPersistence.NewPostgresFlexibleObligationRepository(pool)
	c.AcademicTaskRepo = planningPersistence.NewPostgresAcademicTaskRepository(pool)
	c.CalendarEventRepo = planningPersistence.NewPostgresCalendarEventRepository(pool)
	c.SessionEventRepo = behaviorPersistence.NewPostgresSessionEventRepository(pool)
	c.ContextSignalRepo = behaviorPersistence.NewPostgresContextSignalRepository(pool)
	c.ProfileRepo = behaviorPersistence.NewPostgresProductivityProfileRepository(pool)
	c.StudentRepo = rosterPersistence.NewPostgresStudentRepository(pool)
	c.CourseRepo = rosterPersistence.NewPostgresCourseRepository(pool)
	c.RegistrationRepo = rosterPersistence.NewPostgresRegistrationRepository(pool)
	c.OutboxRepo = outbox.NewPostgresRepository(pool)
	c.UnitOfWork = sharedPersistence.NewPostgresUnitOfWork(pool)

	// Profile reads go through Redis when available
	if c.RedisClient != nil {
		c.ProfileRepo = behaviorCache.NewRedisProfileCache(c.ProfileRepo, c.RedisClient, logger)
	}

	// Create event publisher
	publisher, err := eventbus.NewRabbitMQPublisher(cfg.RabbitMQURL, logger)
	if err != nil {
		// Fall back to noop publisher in development
		if cfg.IsDevelopment() {
			logger.Warn("RabbitMQ not available, using noop publisher")
			c.EventPublisher = eventbus.NewNoopPublisher(logger)
		} else {
			pool.Close()
			return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		}
	} else {
		c.EventPublisher = publisher
	}

	c.wireApplication()

	// Create outbox processor
	processorConfig := outbox.DefaultProcessorConfig()
	processorConfig.PollInterval = cfg.OutboxPollInterval
	processorConfig.BatchSize = cfg.OutboxBatchSize
	processorConfig.MaxRetries = cfg.OutboxMaxRetries
	c.OutboxProcessor = outbox.NewProcessor(c.OutboxRepo, c.EventPublisher, processorConfig, logger)

	return c, nil
}

// NewLocalContainer creates a container for local mode with SQLite.
// This provides zero-config operation without requiring PostgreSQL, Redis, or RabbitMQ.
func NewLocalContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	c := &Container{
		Config: cfg,
		Logger: logger,
	}

	conn, err := initSQLiteConnection(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite: %w", err)
	}

	factory := NewRepositoryFactory(conn)

	if c.FixedObligationRepo, err = factory.FixedObligationRepository(); err != nil {
		return nil, fmt.Errorf("failed to create fixed obligation repository: %w", err)
	}
	if c.FlexibleObligationRepo, err = factory.FlexibleObligationRepository(); err != nil {
		return nil, fmt.Errorf("failed to create flexible obligation repository: %w", err)
	}
	if c.AcademicTaskRepo, err = factory.AcademicTaskRepository(); err != nil {
		return nil, fmt.Errorf("failed to create academic task repository: %w", err)
	}
	if c.CalendarEventRepo, err = factory.CalendarEventRepository(); err != nil {
		return nil, fmt.Errorf("failed to create calendar event repository: %w", err)
	}
	if c.SessionEventRepo, err = factory.SessionEventRepository(); err != nil {
		return nil, fmt.Errorf("failed to create session event repository: %w", err)
	}
	if c.ContextSignalRepo, err = factory.ContextSignalRepository(); err != nil {
		return nil, fmt.Errorf("failed to create context signal repository: %w", err)
	}
	if c.ProfileRepo, err = factory.ProductivityProfileRepository(); err != nil {
		return nil, fmt.Errorf("failed to create productivity profile repository: %w", err)
	}
	if c.StudentRepo, err = factory.StudentRepository(); err != nil {
		return nil, fmt.Errorf("failed to create student repository: %w", err)
	}
	if c.CourseRepo, err = factory.CourseRepository(); err != nil {
		return nil, fmt.Errorf("failed to create course repository: %w", err)
	}
	if c.RegistrationRepo, err = factory.RegistrationRepository(); err != nil {
		return nil, fmt.Errorf("failed to create registration repository: %w", err)
	}
	if c.OutboxRepo, err = factory.OutboxRepository(); err != nil {
		return nil, fmt.Errorf("failed to create outbox repository: %w", err)
	}

	sqliteConn := conn.(interface{ DB() *sql.DB })
	c.UnitOfWork = sharedPersistence.NewSQLiteUnitOfWork(sqliteConn.DB())

	// Local mode runs everything in process: the outbox drains into an
	// in-process bus instead of RabbitMQ.
	c.InProcessEventBus = eventbus.NewInProcessEventBus(logger)
	c.EventPublisher = eventbus.NewInProcessPublisher(c.InProcessEventBus, logger)

	c.wireApplication()

	// Change events trigger reschedules directly on the in-process bus.
	c.InProcessEventBus.RegisterConsumer(planningSubscribers.NewRescheduleSubscriber(c.RescheduleHandler, logger))

	processorConfig := outbox.DefaultProcessorConfig()
	processorConfig.PollInterval = cfg.OutboxPollInterval
	processorConfig.BatchSize = cfg.OutboxBatchSize
	processorConfig.MaxRetries = cfg.OutboxMaxRetries
	c.OutboxProcessor = outbox.NewProcessor(c.OutboxRepo, c.EventPublisher, processorConfig, logger)

	c.DBConn = conn
	c.DBDriver = database.DriverSQLite

	logger.Info("local mode container initialized",
		"database", cfg.SQLitePath,
		"driver", "sqlite",
	)

	return c, nil
}

// wireApplication builds the services and handlers shared by both modes.
// Repositories, outbox, unit of work, and publisher must already be set.
func (c *Container) wireApplication() {
	cfg := c.Config
	logger := c.Logger

	// Planning services
	engine := solver.NewEngine(solver.Config{
		SlotMinutes:    cfg.SlotMinutes,
		HorizonDays:    cfg.HorizonDays,
		NightStartHour: cfg.NightStartHour,
		NightEndHour:   cfg.NightEndHour,
		MaxHoursPerDay: float64(cfg.MaxHoursPerDay),
		MinGapSlots:    cfg.MinGapSlots,
		WallClock:      cfg.SolverWallClock,
	}, logger)
	if c.Metrics == nil {
		c.Metrics = observability.NewInMemoryMetrics()
	}
	runnerCfg := planningServices.DefaultSolverRunnerConfig()
	c.SolverRunner = planningServices.NewSolverRunner(engine, runnerCfg, logger)
	c.SolverRunner.SetMetrics(c.Metrics)
	c.Normalizer = planningServices.NewNormalizer(cfg.SlotMinutes, logger)
	c.RecurrenceExpander = planningServices.NewRecurrenceExpander(c.CalendarEventRepo, logger)
	c.StudentLocks = planningServices.NewStudentLock()

	// Behavior services
	c.ProfileService = behaviorServices.NewProfileService(c.ProfileRepo, c.SessionEventRepo, c.ContextSignalRepo, logger)
	c.WeightsProvider = behaviorServices.NewPlannerWeightsProvider(c.ProfileRepo, cfg.ProfileBeta)

	// Roster services
	c.LectureExpander = rosterServices.NewLectureExpander(c.CalendarEventRepo, logger)

	// Planning command handlers
	c.CreateFixedObligationHandler = planningCommands.NewCreateFixedObligationHandler(c.FixedObligationRepo, c.RecurrenceExpander, c.OutboxRepo, c.UnitOfWork)
	c.UpdateFixedObligationHandler = planningCommands.NewUpdateFixedObligationHandler(c.FixedObligationRepo, c.RecurrenceExpander, c.OutboxRepo, c.UnitOfWork)
	c.DeleteFixedObligationHandler = planningCommands.NewDeleteFixedObligationHandler(c.FixedObligationRepo, c.RecurrenceExpander, c.OutboxRepo, c.UnitOfWork)
	c.CreateFlexibleObligationHandler = planningCommands.NewCreateFlexibleObligationHandler(c.FlexibleObligationRepo, c.OutboxRepo, c.UnitOfWork)
	c.UpdateFlexibleObligationHandler = planningCommands.NewUpdateFlexibleObligationHandler(c.FlexibleObligationRepo, c.OutboxRepo, c.UnitOfWork)
	c.DeleteFlexibleObligationHandler = planningCommands.NewDeleteFlexibleObligationHandler(c.FlexibleObligationRepo, c.CalendarEventRepo, c.OutboxRepo, c.UnitOfWork)
	c.CreateAcademicTaskHandler = planningCommands.NewCreateAcademicTaskHandler(c.AcademicTaskRepo, c.OutboxRepo, c.UnitOfWork)
	c.CompleteAcademicTaskHandler = planningCommands.NewCompleteAcademicTaskHandler(c.AcademicTaskRepo, c.CalendarEventRepo, c.OutboxRepo, c.UnitOfWork)
	c.MarkTasksOverdueHandler = planningCommands.NewMarkTasksOverdueHandler(c.AcademicTaskRepo, c.UnitOfWork)
	c.RescheduleHandler = planningCommands.NewRescheduleHandler(
		c.CalendarEventRepo,
		c.FlexibleObligationRepo,
		c.AcademicTaskRepo,
		c.Normalizer,
		c.SolverRunner,
		c.StudentLocks,
		c.WeightsProvider,
		c.OutboxRepo,
		c.UnitOfWork,
		logger,
	)

	// Planning query handlers
	c.ListObligationsHandler = planningQueries.NewListObligationsHandler(c.FixedObligationRepo, c.FlexibleObligationRepo, c.AcademicTaskRepo)
	c.UpcomingEventsHandler = planningQueries.NewUpcomingEventsHandler(c.CalendarEventRepo)

	// Behavior command handlers
	c.StartSessionHandler = behaviorCommands.NewStartSessionHandler(c.SessionEventRepo, c.UnitOfWork)
	c.FinalizeSessionHandler = behaviorCommands.NewFinalizeSessionHandler(c.SessionEventRepo, c.ProfileRepo, c.ProfileService, c.OutboxRepo, c.UnitOfWork, logger)
	c.RecordContextSignalHandler = behaviorCommands.NewRecordContextSignalHandler(c.ContextSignalRepo, c.UnitOfWork)
	c.UpdateProfileHandler = behaviorCommands.NewUpdateProfileHandler(c.ProfileRepo, c.ProfileService, c.OutboxRepo, c.UnitOfWork)
	c.ColdStartProfileHandler = behaviorCommands.NewColdStartProfileHandler(c.ProfileRepo, c.ProfileService, c.OutboxRepo, c.UnitOfWork)

	// Behavior query handlers
	c.GetProfileHandler = behaviorQueries.NewGetProfileHandler(c.ProfileRepo)
	c.PredictPerformanceHandler = behaviorQueries.NewPredictPerformanceHandler(c.ProfileRepo, c.ProfileService)
	c.RecommendSlotsHandler = behaviorQueries.NewRecommendSlotsHandler(c.ProfileRepo, c.ProfileService)

	// Roster command handlers
	c.CreateStudentHandler = rosterCommands.NewCreateStudentHandler(c.StudentRepo, c.UnitOfWork)
	c.SyncCoursesHandler = rosterCommands.NewSyncCoursesHandler(c.CourseRepo, c.UnitOfWork, logger)
	c.RegisterCourseHandler = rosterCommands.NewRegisterCourseHandler(c.StudentRepo, c.CourseRepo, c.RegistrationRepo, c.LectureExpander, c.OutboxRepo, c.UnitOfWork)
	c.UnregisterCourseHandler = rosterCommands.NewUnregisterCourseHandler(c.RegistrationRepo, c.LectureExpander, c.OutboxRepo, c.UnitOfWork)

	// Roster query handlers
	c.ListCoursesHandler = rosterQueries.NewListCoursesHandler(c.CourseRepo)
	c.RegisteredCoursesHandler = rosterQueries.NewRegisteredCoursesHandler(c.RegistrationRepo, c.CourseRepo)
}

// Close cleans up all resources.
func (c *Container) Close() {
	if c.OutboxProcessor != nil {
		c.OutboxProcessor.Stop()
	}

	if c.EventPublisher != nil {
		if err := c.EventPublisher.Close(); err != nil {
			c.Logger.Warn("error closing event publisher", "error", err)
		}
	}

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			c.Logger.Warn("error closing Redis connection", "error", err)
		}
	}

	if c.DB != nil {
		c.DB.Close()
		c.Logger.Info("PostgreSQL connection closed")
	}

	if c.DBConn != nil && c.DBDriver == database.DriverSQLite {
		if err := c.DBConn.Close(); err != nil {
			c.Logger.Warn("error closing SQLite connection", "error", err)
		}
	}
}

// initSQLiteConnection initializes the SQLite database connection with auto-migration.
func initSQLiteConnection(ctx context.Context, cfg *config.Config, logger *slog.Logger) (database.Connection, error) {
	path := cfg.SQLitePath
	if path == "" {
		path = database.DefaultSQLitePath()
	}

	conn, err := database.NewConnection(ctx, database.Config{
		Driver:     database.DriverSQLite,
		SQLitePath: path,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create SQLite connection: %w", err)
	}

	sqliteConn, ok := conn.(interface{ DB() *sql.DB })
	if !ok {
		conn.Close()
		return nil, fmt.Errorf("expected SQLite connection with DB() method, got %T", conn)
	}

	logger.Info("running SQLite migrations")
	if err := migrations.RunSQLiteMigrations(ctx, sqliteConn.DB()); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return conn, nil
}
