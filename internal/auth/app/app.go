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

	httpapi "github.com/teamlapse/socialauth/internal/auth/http"
	"github.com/teamlapse/socialauth/internal/auth/oauth2"
	"github.com/teamlapse/socialauth/internal/auth/service"
	"github.com/teamlapse/socialauth/internal/auth/store"
	"github.com/teamlapse/socialauth/internal/auth/store/drivers/sqlite"
	"github.com/teamlapse/socialauth/pkg/authtoken"
	"github.com/teamlapse/socialauth/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// ErrMissingTokenSecret stops startup when no signing secret is set: a
// generated one would invalidate every issued token on restart.
var ErrMissingTokenSecret = errors.New("AUTH_TOKEN_SECRET must be set")

// Application encapsulates the social auth service with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	db     store.Store
	tokens *authtoken.Provider

	providers    *oauth2.Registry
	userService  *service.OAuth2UserService
	loginService *service.LoginService

	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(ctx context.Context, cfg Config) (*Application, error) {
	if cfg.TokenSecret == "" {
		return nil, ErrMissingTokenSecret
	}

	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "socialauth",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
		tokens: authtoken.NewProvider(cfg.TokenSecret),
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	if err := app.initProviders(ctx); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.logger.Info("socialauth starting", "port", app.cfg.Port, "version", BuildVersion)

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

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down socialauth...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("socialauth stopped")
	return nil
}

// initDatabase initializes the database and applies migrations
func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
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

// initProviders builds the client registry from whichever provider
// registrations are configured. A provider without credentials is skipped,
// not an error: deployments rarely register all four.
func (app *Application) initProviders(ctx context.Context) error {
	var clients []*oauth2.Client

	redirect := func(provider string) string {
		return app.cfg.BaseURL + "/login/oauth2/code/" + provider
	}

	if c := app.cfg.Google; c.Enabled() {
		google, err := oauth2.NewGoogleClient(ctx, c.ClientID, c.ClientSecret, redirect("google"))
		if err != nil {
			return fmt.Errorf("failed to initialize google client: %w", err)
		}
		clients = append(clients, google)
	}
	if c := app.cfg.Facebook; c.Enabled() {
		clients = append(clients, oauth2.NewFacebookClient(c.ClientID, c.ClientSecret, redirect("facebook")))
	}
	if c := app.cfg.Naver; c.Enabled() {
		clients = append(clients, oauth2.NewNaverClient(c.ClientID, c.ClientSecret, redirect("naver")))
	}
	if c := app.cfg.Kakao; c.Enabled() {
		clients = append(clients, oauth2.NewKakaoClient(c.ClientID, c.ClientSecret, redirect("kakao")))
	}

	for _, c := range clients {
		app.logger.Info("oauth2 provider registered", "provider", c.Provider().String())
	}

	app.providers = oauth2.NewRegistry(clients...)
	return nil
}

// initServices initializes all business logic services
func (app *Application) initServices() {
	app.userService = &service.OAuth2UserService{Store: app.db}
	app.loginService = &service.LoginService{
		Tokens:                 app.tokens,
		Store:                  app.db,
		AccessTTL:              app.cfg.AccessTTL,
		RefreshTTL:             app.cfg.RefreshTTL,
		AuthorizedRedirectURIs: app.cfg.AuthorizedRedirectURIs,
	}
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.tokens,
		BuildVersion,
		app.cfg.RefreshTTL,
		app.db,
		app.logger,
	)

	router.Providers = app.providers
	router.AuthRequests = oauth2.NewAuthRequestRepository()
	router.UserService = app.userService
	router.LoginService = app.loginService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
