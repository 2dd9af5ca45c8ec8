package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"habit-hero/internal/config"
	"habit-hero/internal/domain/repository"
	"habit-hero/internal/domain/service"
	cronpkg "habit-hero/internal/infrastructure/cron"
	infradb "habit-hero/internal/infrastructure/db"
	"habit-hero/internal/infrastructure/kafka"
	"habit-hero/internal/infrastructure/memory"
	"habit-hero/internal/infrastructure/postgres"
	redisinfra "habit-hero/internal/infrastructure/redis"
	"habit-hero/internal/infrastructure/sqlite"
	"habit-hero/internal/logger"
	"habit-hero/internal/middleware"
	habitservice "habit-hero/internal/service"
	grpctransport "habit-hero/internal/transport/grpc"
	httptransport "habit-hero/internal/transport/http"

	"github.com/charmbracelet/log"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

const (
	healthCheckInterval = 15 * time.Second
	visitorCleanup      = 5 * time.Minute
)

// App represents the application
type App struct {
	config        *config.Config
	logger        *log.Logger
	closeLog      func() error
	httpServer    *http.Server
	grpcServer    *grpctransport.Server
	streakChecker *cronpkg.StreakChecker
	rateLimiter   *middleware.RateLimiter
	habitService  service.HabitService

	sqlDB       *sql.DB
	dbPool      *pgxpool.Pool
	redisClient *redis.Client
	producer    *kafka.Producer
}

// New creates a new application
func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	appLogger, closeLog, err := logger.New(cfg.Logging, cfg.Service.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	appLogger.Info("configuration loaded", "environment", cfg.Service.Environment, "storage", cfg.Storage.Driver)

	app := &App{
		config:   cfg,
		logger:   appLogger,
		closeLog: closeLog,
	}
	if err := app.init(context.Background()); err != nil {
		app.close()
		return nil, err
	}
	return app, nil
}

func (a *App) init(ctx context.Context) error {
	location, err := a.config.Habits.Location()
	if err != nil {
		return err
	}

	habitRepo, checkInRepo, err := a.initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	opts := []habitservice.Option{
		habitservice.WithLocation(location),
		habitservice.WithPageLimits(a.config.Habits.DefaultLimit, a.config.Habits.MaxLimit),
	}

	if a.config.Redis.Enabled {
		a.redisClient, err = redisinfra.NewClient(ctx, a.config.Redis)
		if err != nil {
			return err
		}
		opts = append(opts, habitservice.WithLocker(
			redisinfra.NewHabitLocker(a.redisClient, a.config.Redis.LockTTL, a.config.Redis.LockWait, a.logger),
		))
		a.logger.Info("using redis habit lock", "addr", a.config.Redis.Addr)
	}

	if a.config.Kafka.Enabled {
		a.producer = kafka.NewProducer(a.config.Kafka, a.logger)
		opts = append(opts, habitservice.WithPublisher(a.producer))
		a.logger.Info("publishing events to kafka", "topic", a.config.Kafka.Topic)
	}

	a.habitService = habitservice.NewHabitService(habitRepo, checkInRepo, a.logger, opts...)

	if a.config.Scheduler.Enabled {
		a.streakChecker = cronpkg.NewStreakChecker(a.habitService, a.config.Scheduler.CheckInterval, location, a.logger)
		a.logger.Info("streak checker initialized", "interval", a.config.Scheduler.CheckInterval)
	} else {
		a.logger.Info("streak checker is disabled in configuration")
	}

	if a.config.GRPC.Enabled {
		a.grpcServer = grpctransport.NewServer(a.habitService, a.config.GRPC, a.logger)
	}

	return a.initHTTPServer(location)
}

func (a *App) initStorage(ctx context.Context) (repository.HabitRepository, repository.CheckInRepository, error) {
	switch a.config.Storage.Driver {
	case config.DriverPostgres:
		pool, err := infradb.NewPostgresPool(ctx, a.config.Database)
		if err != nil {
			return nil, nil, err
		}
		a.dbPool = pool
		a.sqlDB = infradb.SQLFromPool(pool)
		if err := a.migrate(ctx, infradb.DialectPostgres); err != nil {
			return nil, nil, err
		}
		a.logger.Info("connected to postgres", "host", a.config.Database.Host, "database", a.config.Database.Database)
		return postgres.NewHabitRepository(pool), postgres.NewCheckInRepository(pool), nil

	case config.DriverSQLite:
		conn, err := infradb.OpenSQLite(ctx, a.config.SQLite.Path, a.config.SQLite.BusyTimeout)
		if err != nil {
			return nil, nil, err
		}
		a.sqlDB = conn
		if err := a.migrate(ctx, infradb.DialectSQLite); err != nil {
			return nil, nil, err
		}
		a.logger.Info("opened sqlite database", "path", a.config.SQLite.Path)
		return sqlite.NewHabitRepository(conn), sqlite.NewCheckInRepository(conn), nil

	case config.DriverMemory:
		a.logger.Warn("using in-memory storage, data is lost on restart")
		store := memory.NewStore()
		return memory.NewHabitRepository(store), memory.NewCheckInRepository(store), nil

	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", a.config.Storage.Driver)
	}
}

func (a *App) migrate(ctx context.Context, dialect infradb.Dialect) error {
	runner, err := infradb.NewRunner(a.sqlDB, dialect, a.logger)
	if err != nil {
		return err
	}
	applied, err := runner.Apply(ctx)
	if err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	if applied > 0 {
		a.logger.Info("migrations applied", "count", applied)
	}
	return nil
}

// initHTTPServer initializes the HTTP server with all handlers and middleware
func (a *App) initHTTPServer(location *time.Location) error {
	proxies, err := middleware.NewTrustedProxies(a.config.HTTP.TrustedProxies)
	if err != nil {
		return err
	}
	a.rateLimiter = middleware.NewRateLimiter(a.config.HTTP.RequestsPerMinute, proxies)

	habitHandler := httptransport.NewHabitHandler(a.habitService, location, a.logger)
	router := httptransport.NewRouter(habitHandler, a.rateLimiter, proxies, a.config.HTTP.AllowedOrigins, a.logger)

	a.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.config.HTTP.Port),
		Handler:      router.Setup(),
		ReadTimeout:  a.config.HTTP.ReadTimeout,
		WriteTimeout: a.config.HTTP.WriteTimeout,
	}
	return nil
}

// Run starts the application and blocks until SIGINT or SIGTERM
func (a *App) Run() error {
	defer a.close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	errCh := make(chan error, 2)

	a.rateLimiter.Cleanup(ctx, visitorCleanup)

	if a.streakChecker != nil {
		if err := a.streakChecker.Start(); err != nil {
			return fmt.Errorf("failed to start streak checker: %w", err)
		}
	}

	if a.grpcServer != nil {
		a.grpcServer.WatchHealth(ctx, healthCheckInterval)
		go func() {
			if err := a.grpcServer.Start(); err != nil {
				errCh <- fmt.Errorf("gRPC server: %w", err)
			}
		}()
	}

	go func() {
		a.logger.Info("starting HTTP server", "addr", a.httpServer.Addr)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server: %w", err)
		}
	}()

	a.logger.Info("service started", "name", a.config.Service.Name, "version", a.config.Service.Version)

	var runErr error
	select {
	case sig := <-quit:
		a.logger.Info("shutting down", "signal", sig.String())
	case runErr = <-errCh:
		a.logger.Error("server failed, shutting down", "err", runErr)
	}

	a.shutdown()
	return runErr
}

func (a *App) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), a.config.HTTP.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Shutdown(ctx); err != nil {
		a.logger.Error("HTTP server shutdown error", "err", err)
	}

	if a.grpcServer != nil {
		a.grpcServer.Stop()
	}

	if a.streakChecker != nil {
		a.streakChecker.Stop()
	}
}

// close releases external resources; it is safe on a partially initialized App
func (a *App) close() {
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("failed to close kafka producer", "err", err)
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Error("failed to close redis client", "err", err)
		}
	}
	if a.sqlDB != nil {
		if err := a.sqlDB.Close(); err != nil {
			a.logger.Error("failed to close database", "err", err)
		}
	}
	if a.dbPool != nil {
		a.dbPool.Close()
	}

	a.logger.Info("server shutdown complete")
	if a.closeLog != nil {
		a.closeLog()
	}
}
