package app

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/plumeworks/plume/internal/auth/http"
	"github.com/plumeworks/plume/internal/auth/mail"
	"github.com/plumeworks/plume/internal/auth/service"
	"github.com/plumeworks/plume/internal/auth/store"
	"github.com/plumeworks/plume/internal/auth/store/drivers/sqlite"
	"github.com/plumeworks/plume/pkg/jwtx"
	"github.com/plumeworks/plume/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the auth service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db     store.Store
	signer *jwtx.Signer
	mailer mail.Sender

	authService         *service.AuthService
	userService         *service.UserService
	rateLimitService    *service.RateLimitService
	testingService      *service.TestingService
	housekeepingService *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "auth-service",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initSigner(); err != nil {
		return nil, err
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	app.initMailer()
	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("auth service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
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

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")

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

	app.logger.Info("auth service stopped")
	return nil
}

// initSigner builds the token signer. Without a configured secret every
// restart invalidates outstanding tokens, which is only acceptable in dev.
func (app *Application) initSigner() error {
	secret := app.cfg.JWTSecret
	if secret == "" {
		if app.cfg.Env == "prod" {
			return fmt.Errorf("AUTH_JWT_SECRET is required in prod")
		}

		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return fmt.Errorf("failed to generate ephemeral signing secret: %w", err)
		}
		secret = base64.RawURLEncoding.EncodeToString(buf)
		app.logger.Warn("AUTH_JWT_SECRET not set, using an ephemeral secret; tokens will not survive restarts")
	}

	app.signer = jwtx.NewSigner(secret, app.cfg.Issuer)
	return nil
}

// initDatabase initializes the database and applies migrations.
func (app *Application) initDatabase() error {
	db, err := sqlite.NewStore(app.cfg.DatabaseFile)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

func (app *Application) initMailer() {
	if app.cfg.SMTPAddr == "" {
		app.logger.Warn("SMTP_ADDR not set, outbound email will be logged instead of delivered")
		app.mailer = &mail.LogSender{Logger: app.logger}
		return
	}

	app.mailer = mail.NewSMTPSender(mail.SMTPConfig{
		Addr:     app.cfg.SMTPAddr,
		Username: app.cfg.SMTPUsername,
		Password: app.cfg.SMTPPassword,
		From:     app.cfg.SMTPFrom,
	})
}

// initServices initializes all business logic services.
func (app *Application) initServices() {
	app.authService = &service.AuthService{
		Store:           app.db,
		Signer:          app.signer,
		Mailer:          app.mailer,
		ConfirmURL:      app.cfg.ConfirmURL,
		AccessTTL:       app.cfg.AccessTTL,
		RefreshTTL:      app.cfg.RefreshTTL,
		ConfirmationTTL: app.cfg.ConfirmationTTL,
	}

	app.userService = &service.UserService{
		Store:           app.db,
		ConfirmationTTL: app.cfg.ConfirmationTTL,
	}

	app.rateLimitService = &service.RateLimitService{
		Store:     app.db,
		Threshold: app.cfg.RateLimitThreshold,
		Window:    app.cfg.RateLimitWindow,
	}

	if app.cfg.EnableTestingRoutes {
		app.testingService = &service.TestingService{Store: app.db}
		app.logger.Warn("testing routes enabled, DELETE /testing/all-data is live")
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
		app.cfg.RequestRetention,
	)
}

// initHTTP initializes the HTTP router and server.
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(app.signer, BuildVersion, app.logger)

	router.AuthService = app.authService
	router.UserService = app.userService
	router.RateLimitService = app.rateLimitService
	router.TestingService = app.testingService // nil unless enabled
	router.RefreshTTL = app.cfg.RefreshTTL
	router.RateLimitWindow = app.cfg.RateLimitWindow
	router.AdminLogin = app.cfg.AdminLogin
	router.AdminPassword = app.cfg.AdminPassword
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
