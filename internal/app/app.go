package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/hh-autoapply/internal/config"
	"github.com/prperemyshlev/hh-autoapply/internal/flow"
	"github.com/prperemyshlev/hh-autoapply/internal/handler"
	"github.com/prperemyshlev/hh-autoapply/internal/hh"
	"github.com/prperemyshlev/hh-autoapply/internal/repository"
	"github.com/prperemyshlev/hh-autoapply/internal/service"
	"github.com/prperemyshlev/hh-autoapply/internal/utils"
	"github.com/prperemyshlev/hh-autoapply/pkg/observability"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

// Components are the wired services the router serves
type Components struct {
	Auth       service.AuthService
	Tokens     service.TokenStore
	Vacancies  service.VacancyService
	Bulk       service.BulkApplier
	Sessions   service.SessionService
	Limiter    service.Limiter
	Authorizer flow.Authorizer
	Storage    handler.StorageFactory
	Health     *HealthChecker
	Metrics    http.Handler
}

type App struct {
	infra  Infrastructure
	config *config.Config
	router *gin.Engine
	server *http.Server
}

func NewApp(infra Infrastructure, cfg *config.Config) *App {
	components := NewComponents(infra, cfg)
	router := NewRouter(cfg, components, infra.Logger())

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout.Duration,
		WriteTimeout: cfg.Server.WriteTimeout.Duration,
	}

	return &App{
		infra:  infra,
		config: cfg,
		router: router,
		server: srv,
	}
}

// NewComponents wires the services on top of the infrastructure
func NewComponents(infra Infrastructure, cfg *config.Config) Components {
	logger := infra.Logger()
	metrics := infra.Metrics()
	repos := repository.NewRepositories(infra.Postgres())

	httpClient := &http.Client{}
	oauthClient := hh.NewOAuthClient(cfg.HH, httpClient)
	apiClient := hh.NewClient(cfg.HH, httpClient, metrics)

	tokens := service.NewTokenStore(repos.Token, oauthClient, logger, metrics)
	authService := service.NewAuthService(oauthClient, apiClient, repos.User, tokens, logger)
	vacancies := service.NewVacancyService(tokens, apiClient, repos.Application, logger, metrics)
	bulk := service.NewBulkApplier(vacancies, repos.Application, cfg.Apply.Delay.Duration, cfg.Apply.DailyLimit, cfg.Apply.RunBudget.Duration, logger)

	jwtManager := utils.NewJWTManager(cfg.Session.Secret, cfg.Session.TTL.Duration)
	sessions := service.NewSessionService(jwtManager, service.NewRedisSessionRevoker(infra.Redis()), cfg.Session.TTL.Duration)

	storageTTL := cfg.Session.StorageTTL.Duration
	storage := func(browserID string) flow.Storage {
		return repository.NewClientStorage(infra.Redis(), browserID, storageTTL)
	}

	return Components{
		Auth:       authService,
		Tokens:     tokens,
		Vacancies:  vacancies,
		Bulk:       bulk,
		Sessions:   sessions,
		Limiter:    service.NewRateLimiter(infra.Redis()),
		Authorizer: oauthClient,
		Storage:    storage,
		Health: NewHealthChecker(
			Check{Name: "postgres", Ping: infra.Postgres().Ping},
			Check{Name: "redis", Ping: infra.Redis().Ping},
		),
		Metrics: infra.MetricsHandler(),
	}
}

// NewRouter builds the HTTP router over the given components
func NewRouter(cfg *config.Config, c Components, logger *zap.Logger) *gin.Engine {
	authHandler := handler.NewAuthHandler(c.Auth, c.Tokens, c.Sessions, cfg.Session, logger)
	flowHandler := handler.NewFlowHandler(c.Storage, c.Auth, c.Authorizer, c.Sessions, cfg.Session, cfg.App, logger)
	vacancyHandler := handler.NewVacancyHandler(c.Vacancies, c.Bulk)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(handler.LoggerMiddleware(logger))
	router.Use(handler.CORSMiddleware(cfg.CORS))

	limit := handler.RateLimitMiddleware(c.Limiter, cfg.RateLimit.Requests, cfg.RateLimit.Window.Duration, handler.ClientIPKey, logger)
	session := handler.SessionMiddleware(c.Sessions)

	router.GET("/metrics", observability.PrometheusHandler(c.Metrics))
	router.GET("/health", c.Health.Handler)

	browser := router.Group("/auth")
	{
		browser.GET("/login", limit, flowHandler.Login)
		browser.GET("/callback", limit, flowHandler.Callback)
	}

	api := router.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/token", limit, authHandler.Token)
			auth.POST("/refresh", session, authHandler.Refresh)
			auth.POST("/logout", session, authHandler.Logout)
			auth.GET("/me", session, authHandler.GetMe)
		}

		vacancies := api.Group("/vacancies", session)
		{
			vacancies.POST("/search", vacancyHandler.Search)
			vacancies.POST("/apply", vacancyHandler.Apply)
			vacancies.POST("/apply-all", vacancyHandler.ApplyAll)
			vacancies.GET("/:id", vacancyHandler.Get)
		}

		api.GET("/applications", session, vacancyHandler.Applications)
		api.GET("/negotiations", session, vacancyHandler.Negotiations)
		api.GET("/resumes", session, vacancyHandler.Resumes)
	}

	return router
}

func (a *App) Router() *gin.Engine {
	return a.router
}

func (a *App) Run(ctx context.Context) error {
	errChan := make(chan error, 1)

	go func() {
		a.infra.Logger().Info("Application starting",
			zap.String("host", a.config.Server.Host),
			zap.String("port", a.config.Server.Port),
		)

		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.infra.Logger().Error("Server error", zap.Error(err))
			errChan <- err
		}
	}()

	var serverErr error
	select {
	case err := <-errChan:
		a.infra.Logger().Error("Application failed to start", zap.Error(err))
		serverErr = err
	case <-ctx.Done():
		a.infra.Logger().Info("Application stopped by context")
	}

	if err := a.Shutdown(); err != nil {
		if serverErr != nil {
			return errors.Join(serverErr, err)
		}
		return err
	}

	return serverErr
}

func (a *App) Shutdown() error {
	a.infra.Logger().Info("Application shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// in-flight requests finish before the connections they use are closed
	if err := a.server.Shutdown(ctx); err != nil {
		a.infra.Logger().Error("HTTP server shutdown failed", zap.Error(err))
		return errors.Join(err, a.infra.Shutdown(ctx))
	}

	if err := a.infra.Shutdown(ctx); err != nil {
		a.infra.Logger().Error("Shutdown failed", zap.Error(err))
		return err
	}

	a.infra.Logger().Info("Application exited successfully")
	return nil
}
