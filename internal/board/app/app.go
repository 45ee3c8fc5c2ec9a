package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/aussiebroadwan/agileboard/internal/board/http"
	"github.com/aussiebroadwan/agileboard/internal/board/mail"
	"github.com/aussiebroadwan/agileboard/internal/board/metrics"
	"github.com/aussiebroadwan/agileboard/internal/board/service"
	"github.com/aussiebroadwan/agileboard/internal/board/store"
	"github.com/aussiebroadwan/agileboard/internal/board/store/drivers/postgres"
	"github.com/aussiebroadwan/agileboard/internal/board/store/drivers/sqlite"
	"github.com/aussiebroadwan/agileboard/pkg/cryptox"
	"github.com/aussiebroadwan/agileboard/pkg/slogx"
)

// BuildVersion is overridden at build time via -ldflags.
var BuildVersion = "v0.1.0"

// Application owns every long-lived dependency of the board service.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db      store.Store
	keys    Keys
	metrics *metrics.Metrics
	mailer  mail.Mailer

	authService         *service.AuthService
	projectService      *service.ProjectService
	invitationService   *service.InvitationService
	housekeepingService *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "agileboard",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initDatabase(context.Background()); err != nil {
		return nil, err
	}

	keys, err := InitKeys(cfg, app.logger)
	if err != nil {
		_ = app.db.Close()
		return nil, fmt.Errorf("failed to initialize keys: %w", err)
	}
	app.keys = keys

	if err := app.initMailer(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	if cfg.MetricsEnabled {
		app.metrics = metrics.New()
	}

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Handler exposes the fully wired HTTP handler.
func (app *Application) Handler() http.Handler { return app.router }

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("agileboard starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"driver", app.cfg.DatabaseDriver,
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		app.housekeepingService.Stop()
		_ = app.db.Close()
		if err != nil && err != http.ErrServerClosed {
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
	app.logger.Info("shutting down agileboard...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("agileboard stopped")
	return nil
}

// initDatabase opens the configured driver and applies migrations.
func (app *Application) initDatabase(ctx context.Context) error {
	var (
		db  store.Store
		err error
	)

	switch app.cfg.DatabaseDriver {
	case "postgres":
		db, err = postgres.NewStore(ctx, app.cfg.DatabaseURL, postgres.Options{
			MaxConns: app.cfg.DatabaseMaxConns,
		})
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

// initMailer picks SMTP delivery when a host is configured and falls back
// to logging the rendered message.
func (app *Application) initMailer() error {
	if app.cfg.SMTPHost == "" {
		app.logger.Warn("SMTP_HOST not set, invitation emails will only be logged")
		app.mailer = mail.LogMailer{Logger: app.logger}
		return nil
	}

	m, err := mail.NewSMTPMailer(mail.SMTPConfig{
		Host:               app.cfg.SMTPHost,
		Port:               app.cfg.SMTPPort,
		Username:           app.cfg.SMTPUsername,
		Password:           app.cfg.SMTPPassword,
		From:               app.cfg.SMTPFrom,
		Encryption:         app.cfg.SMTPEncryption,
		InsecureSkipVerify: app.cfg.SMTPInsecure,
		Timeout:            app.cfg.SMTPTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize mailer: %w", err)
	}
	app.mailer = m

	app.logger.Info("smtp mailer configured", "host", app.cfg.SMTPHost, "port", app.cfg.SMTPPort)
	return nil
}

// initServices initializes all business logic services
func (app *Application) initServices() {
	app.authService = &service.AuthService{
		Store:      app.db,
		Hasher:     cryptox.PasswordHasher{Pepper: app.keys.Pepper},
		Signer:     app.keys.Signer,
		Issuer:     app.cfg.Issuer,
		Audience:   app.cfg.Audience,
		AccessTTL:  app.cfg.AccessTTL,
		RefreshTTL: app.cfg.RefreshTTL,
	}

	app.projectService = &service.ProjectService{Store: app.db}

	notifier := &mail.InvitationNotifier{
		Mailer:  app.mailer,
		BaseURL: app.cfg.BaseURL,
	}
	app.invitationService = &service.InvitationService{
		Store:    app.db,
		Notifier: notifier,
		Metrics:  app.metrics,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.metrics,
		app.cfg.HousekeepingInterval,
	)
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.keys.Verifier,
		BuildVersion,
		app.db,
		app.logger,
		app.metrics,
	)

	router.AuthService = app.authService
	router.ProjectService = app.projectService
	router.InvitationService = app.invitationService
	router.Cookies = httpapi.CookieConfig{
		Secure: app.cfg.CookieSecure,
		Domain: app.cfg.CookieDomain,
	}
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
