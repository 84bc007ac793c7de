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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"openlingua/internal/config"
	"openlingua/internal/cookie"
	"openlingua/internal/database"
	"openlingua/internal/event"
	"openlingua/internal/handler"
	"openlingua/internal/metrics"
	"openlingua/internal/middleware"
	"openlingua/internal/oauth"
	"openlingua/internal/repository"
	"openlingua/internal/router"
	"openlingua/internal/service"
	"openlingua/internal/token"
)

type App struct {
	server       *http.Server
	cleanupFuncs []func()
}

// Stores bundles the persistence the HTTP surface depends on so tests can
// run the whole router against in-memory repositories.
type Stores struct {
	Users  service.UserStore
	Audit  service.AuditStore
	Health interface {
		Health(ctx context.Context) error
	}
}

// Components is everything New wires, exposed for the HTTP flow tests.
type Components struct {
	Handler  http.Handler
	Issuer   *token.Issuer
	Bus      *event.InMemoryBus
	Audit    *service.AuditService
	Registry *prometheus.Registry
}

func New(cfg *config.Config) (*App, error) {
	slog.Info("connecting to PostgreSQL")
	db, err := database.New(context.Background(), database.Options{
		URL:      cfg.DatabaseURL,
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.EnsureSchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure database schema: %w", err)
	}
	slog.Info("database ready")

	components, err := Build(cfg, Stores{
		Users:  repository.NewUserRepository(db.Pool),
		Audit:  repository.NewAuditRepository(db.Pool),
		Health: db,
	}, nil)
	if err != nil {
		db.Close()
		return nil, err
	}

	auditCtx, auditCancel := context.WithCancel(context.Background())
	auditDone := make(chan struct{})
	go func() {
		defer close(auditDone)
		components.Audit.Run(auditCtx)
	}()

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           components.Handler,
		ReadHeaderTimeout: cfg.ServerReadHeaderTimeout,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
	}

	return &App{
		server: server,
		cleanupFuncs: []func(){
			func() {
				auditCancel()
				<-auditDone
			},
			func() {
				db.Close()
			},
		},
	}, nil
}

// Build wires codecs, services and handlers on top of the given stores.
// A nil provider with Google configured builds the real Google client.
func Build(cfg *config.Config, stores Stores, provider handler.IdentityProvider) (*Components, error) {
	accessCodec, err := token.NewCodec(cfg.JWTAccessSecret, cfg.JWTAccessTTL, token.AudienceAccess)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize access codec: %w", err)
	}
	refreshCodec, err := token.NewCodec(cfg.JWTRefreshSecret, cfg.JWTRefreshTTL, token.AudienceRefresh)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize refresh codec: %w", err)
	}
	issuer, err := token.NewIssuer(accessCodec, refreshCodec)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize credential issuer: %w", err)
	}

	transport := cookie.NewTransport(cfg.SecureCookies(), cfg.JWTAccessTTL, cfg.JWTRefreshTTL)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	bus := event.NewBus()

	accountService := service.NewAccountService(stores.Users, issuer, bus, m, service.WithBcryptCost(cfg.BcryptCost))
	identityService := service.NewIdentityService(stores.Users, bus, m)
	auditService := service.NewAuditService(stores.Audit, bus)

	authMiddleware := middleware.NewAuthMiddleware(issuer, transport, stores.Users, bus, m)

	handlers := router.Handlers{
		Auth:    handler.NewAuthHandler(accountService, auditService, transport),
		Health:  handler.NewHealthHandler(stores.Health),
		Metrics: promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
	}

	if cfg.GoogleEnabled() {
		if provider == nil {
			google, err := oauth.NewGoogleProvider(oauth.GoogleConfig{
				ClientID:     cfg.GoogleClientID,
				ClientSecret: cfg.GoogleClientSecret,
				RedirectURL:  cfg.GoogleRedirectURL,
			})
			if err != nil {
				return nil, fmt.Errorf("failed to initialize google provider: %w", err)
			}
			provider = google
		}
		handlers.OAuth = handler.NewOAuthHandler(provider, identityService, accountService, transport, cfg.FrontendURL)
		slog.Info("google sign-in enabled", "redirect_url", cfg.GoogleRedirectURL)
	} else {
		slog.Warn("google sign-in disabled: GOOGLE_CLIENT_ID or GOOGLE_CLIENT_SECRET not set")
	}

	return &Components{
		Handler:  router.New(cfg, authMiddleware, handlers),
		Issuer:   issuer,
		Bus:      bus,
		Audit:    auditService,
		Registry: registry,
	}, nil
}

func (a *App) Run() error {
	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if serveErr := a.server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			slog.Error("server failed", "error", serveErr)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	shutdownErr := a.server.Shutdown(ctx)

	for _, cleanup := range a.cleanupFuncs {
		cleanup()
	}

	if shutdownErr != nil {
		return fmt.Errorf("graceful shutdown failed: %w", shutdownErr)
	}

	slog.Info("server stopped")
	return nil
}
