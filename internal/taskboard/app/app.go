package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/aussiebroadwan/taskboard/internal/taskboard/http"
	"github.com/aussiebroadwan/taskboard/internal/taskboard/service"
	"github.com/aussiebroadwan/taskboard/internal/taskboard/store"
	"github.com/aussiebroadwan/taskboard/internal/taskboard/store/drivers/postgres"
	"github.com/aussiebroadwan/taskboard/internal/taskboard/store/drivers/sqlite"
	"github.com/aussiebroadwan/taskboard/pkg/cryptox"
	"github.com/aussiebroadwan/taskboard/pkg/lockout"
	"github.com/aussiebroadwan/taskboard/pkg/notify"
	"github.com/aussiebroadwan/taskboard/pkg/slogx"
	"github.com/redis/go-redis/v9"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application wires the taskboard API together.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db       store.Store
	redis    redis.UniversalClient
	notifier notify.Notifier
	kafka    *notify.KafkaNotifier

	tokenService        *service.TokenService
	sessionService      *service.SessionService
	bootstrapService    *service.BootstrapService
	resetService        *service.ResetService
	taskService         *service.TaskService
	userService         *service.UserService
	housekeepingService *service.HousekeepingService
	limiter             *lockout.Limiter

	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "taskboard",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	cryptox.SetPepperPath(app.cfg.PepperFile)

	if err := app.initDatabase(context.Background()); err != nil {
		return nil, err
	}
	app.initRedis()
	app.initNotifier()

	if err := app.initServices(); err != nil {
		_ = app.close()
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

// Handler exposes the router, mainly for tests.
func (app *Application) Handler() http.Handler {
	return app.router
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("taskboard starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"database", app.cfg.DatabaseDriver,
		"lockout", app.limiter != nil,
		"kafka", app.kafka != nil,
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down taskboard...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.close(); err != nil {
		app.logger.Error("error releasing resources", "error", err)
		return err
	}

	app.logger.Info("taskboard stopped")
	return nil
}

// close releases the database, Redis and Kafka connections.
func (app *Application) close() error {
	var errs []error
	if app.kafka != nil {
		errs = append(errs, app.kafka.Close())
	}
	if app.redis != nil {
		errs = append(errs, app.redis.Close())
	}
	if app.db != nil {
		errs = append(errs, app.db.Close())
	}
	return errors.Join(errs...)
}

// initDatabase opens the configured store and applies migrations
func (app *Application) initDatabase(ctx context.Context) error {
	var (
		db  store.Store
		err error
	)

	switch app.cfg.DatabaseDriver {
	case "postgres":
		db, err = postgres.NewStore(ctx, app.cfg.DatabaseURL)
	default:
		dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", app.cfg.DatabaseFile)
		db, err = sqlite.NewStore(dsn)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully", "driver", app.cfg.DatabaseDriver)
	return nil
}

// initRedis connects the failed-login counters. Without REDIS_ADDR login
// lockout is disabled.
func (app *Application) initRedis() {
	if len(app.cfg.RedisAddrs) == 0 {
		app.logger.Warn("REDIS_ADDR not set, login lockout disabled")
		return
	}

	app.redis = redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:       app.cfg.RedisAddrs,
		DialTimeout: 2 * time.Second,
		ReadTimeout: time.Second,
	})
	app.limiter = lockout.New(app.redis, lockout.Config{
		MaxAttempts: app.cfg.LoginMaxAttempts,
		Cooldown:    app.cfg.LoginLockout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := app.limiter.Ping(ctx); err != nil {
		// Lockout fails open, so keep going.
		app.logger.Warn("redis unreachable at startup", "error", err)
	}
}

// initNotifier picks Kafka when brokers are configured, otherwise reset
// links are only logged.
func (app *Application) initNotifier() {
	if len(app.cfg.KafkaBrokers) > 0 {
		app.kafka = notify.NewKafkaNotifier(app.cfg.KafkaBrokers, app.cfg.KafkaResetTopic)
		app.notifier = app.kafka
		return
	}

	app.notifier = &notify.LogNotifier{
		Logger:     app.logger,
		IncludeURL: app.cfg.IsDev(),
	}
}

// initServices initializes all business logic services
func (app *Application) initServices() error {
	tokens, err := service.NewTokenService(service.TokenConfig{
		AccessSecret:  []byte(app.cfg.AccessTokenSecret),
		RefreshSecret: []byte(app.cfg.RefreshTokenSecret),
		Issuer:        app.cfg.Issuer,
		AccessTTL:     app.cfg.AccessTokenExpiry,
		RefreshTTL:    app.cfg.RefreshTokenExpiry,
		Strict:        app.cfg.Env == "prod",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize token service: %w", err)
	}
	app.tokenService = tokens

	app.sessionService = &service.SessionService{
		Store:  app.db,
		Tokens: tokens,
	}
	if app.limiter != nil {
		app.sessionService.Lockout = app.limiter
	}

	app.bootstrapService = &service.BootstrapService{
		Store: app.db,
		Token: app.cfg.BootstrapToken,
	}

	app.resetService = &service.ResetService{
		Store:       app.db,
		Notifier:    app.notifier,
		FrontendURL: app.cfg.FrontendURL,
		TTL:         app.cfg.ResetTokenTTL,
	}
	app.taskService = &service.TaskService{Store: app.db}
	app.userService = &service.UserService{Store: app.db}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
	return nil
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(BuildVersion, app.db, app.logger)

	router.Dev = app.cfg.IsDev()
	router.Limits = httpapi.Limits{
		Strict:   app.cfg.StrictLimit,
		Moderate: app.cfg.ModerateLimit,
		Lenient:  app.cfg.LenientLimit,
		Public:   app.cfg.PublicLimit,
	}
	router.Cookies = httpapi.CookieConfig{
		Domain:   app.cfg.CookieDomain,
		Secure:   app.cfg.CookieSecure,
		SameSite: httpapi.ParseSameSite(app.cfg.CookieSameSite),
	}
	if app.limiter != nil {
		router.Cache = app.limiter
	}

	router.TokenService = app.tokenService
	router.SessionService = app.sessionService
	router.BootstrapService = app.bootstrapService
	router.ResetService = app.resetService
	router.TaskService = app.taskService
	router.UserService = app.userService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
