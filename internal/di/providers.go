package di

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"memberboard/internal/app"
	"memberboard/internal/config"
	"memberboard/internal/database"
	"memberboard/internal/health"
	"memberboard/internal/http/handler"
	"memberboard/internal/http/middleware"
	"memberboard/internal/http/router"
	"memberboard/internal/observability"
	"memberboard/internal/repository"
	"memberboard/internal/security"
	"memberboard/internal/service"
)

const (
	readinessProbeTimeout = 2 * time.Second
	startupGracePeriod    = 10 * time.Second
)

var ConfigSet = wire.NewSet(config.Load)

var ObservabilitySet = wire.NewSet(
	provideObservabilityRuntime,
	provideAppLogger,
)

var RuntimeInfraSet = wire.NewSet(
	provideRuntimeDB,
	provideRedisClient,
	provideReadinessProbeRunner,
)

var RepositorySet = wire.NewSet(
	repository.NewAccountRepository,
)

var SecuritySet = wire.NewSet(
	provideSessionManager,
	provideCookieManager,
	providePolicyChecker,
)

var ServiceSet = wire.NewSet(
	service.NewAccountService,
	provideNotifier,
	provideAuthService,
	provideOAuthService,
)

var HTTPSet = wire.NewSet(
	provideAuthHandler,
	handler.NewUserHandler,
	handler.NewAdminHandler,
	provideSessionMiddleware,
	provideAuthRateLimiter,
	provideAPIRateLimiter,
	provideRouterDependencies,
	router.NewRouter,
	provideHTTPServer,
)

var AppSet = wire.NewSet(provideApp)

// SeedRunner applies the schema and the bootstrap admin account
// outside the server process, for memberctl.
type SeedRunner struct {
	cfg *config.Config
	db  *gorm.DB
}

func NewSeedRunner(cfg *config.Config, db *gorm.DB) *SeedRunner {
	return &SeedRunner{cfg: cfg, db: db}
}

func (s *SeedRunner) Run() error {
	logger := observability.NewBootstrapLogger(s.cfg)
	if err := database.Migrate(s.db); err != nil {
		return err
	}
	return database.SeedBootstrapAdmin(s.db, s.cfg.BootstrapAdminEmail, s.cfg.BootstrapAdminNickname, logger)
}

func provideObservabilityRuntime(cfg *config.Config) (*observability.Runtime, error) {
	bootstrapLogger := observability.NewBootstrapLogger(cfg)
	return observability.InitRuntime(context.Background(), cfg, bootstrapLogger)
}

func provideAppLogger(cfg *config.Config, runtime *observability.Runtime) *slog.Logger {
	return observability.InitLogger(cfg, runtime.LoggerProvider)
}

func provideOpenDB(cfg *config.Config) (*gorm.DB, error) {
	return database.Open(cfg)
}

func provideRuntimeDB(cfg *config.Config, logger *slog.Logger) (*gorm.DB, error) {
	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	if err := database.SeedBootstrapAdmin(db, cfg.BootstrapAdminEmail, cfg.BootstrapAdminNickname, logger); err != nil {
		return nil, err
	}
	return db, nil
}

func provideRedisClient(cfg *config.Config, logger *slog.Logger) (redis.UniversalClient, error) {
	if cfg.RedisURL == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	observability.InstrumentRedisClient(client, logger)
	return client, nil
}

func provideSessionManager(cfg *config.Config) *security.SessionManager {
	return security.NewSessionManager(cfg.SessionIssuer, cfg.SessionAudience, cfg.SessionSecret, cfg.SessionTTL)
}

func provideCookieManager(cfg *config.Config) *security.CookieManager {
	return security.NewCookieManager(cfg.CookieDomain, cfg.CookieSecure, cfg.CookieSameSite)
}

func providePolicyChecker(cfg *config.Config) *security.PolicyChecker {
	return security.NewPolicyChecker(security.PolicyConfig{
		MinimumLength:   cfg.PasswordMinLength,
		ExplainFailures: cfg.PasswordExplainFailures,
	})
}

func provideNotifier(cfg *config.Config, logger *slog.Logger) service.EmailVerificationNotifier {
	if cfg.SMTPEnabled {
		return service.NewSMTPEmailNotifier(service.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		})
	}
	return service.NewDevEmailNotifier(logger)
}

func provideAuthService(
	cfg *config.Config,
	accounts *service.AccountService,
	sessions *security.SessionManager,
	policy *security.PolicyChecker,
	notifier service.EmailVerificationNotifier,
	logger *slog.Logger,
) *service.AuthService {
	return service.NewAuthService(accounts, sessions, policy, notifier, logger, cfg.RestoreSecret, cfg.VerifyBaseURL)
}

func provideOAuthService(cfg *config.Config, auth *service.AuthService, accounts *service.AccountService) *service.OAuthService {
	if !cfg.AuthGoogleEnabled {
		return nil
	}
	return service.NewOAuthService(service.NewGoogleOAuthProvider(cfg), auth, accounts)
}

func provideAuthHandler(authSvc *service.AuthService, oauthSvc *service.OAuthService, cookieMgr *security.CookieManager, cfg *config.Config) *handler.AuthHandler {
	return handler.NewAuthHandler(authSvc, oauthSvc, cookieMgr, cfg.SessionTTL, cfg.RestoreTTL, cfg.StateSecret)
}

func provideSessionMiddleware(
	sessions *security.SessionManager,
	cookies *security.CookieManager,
	auth *service.AuthService,
	cfg *config.Config,
) *middleware.SessionMiddleware {
	return middleware.NewSessionMiddleware(sessions, cookies, auth, cfg.RestoreTTL)
}

func provideAuthRateLimiter(cfg *config.Config, redisClient redis.UniversalClient) router.AuthRateLimiterFunc {
	if redisClient != nil {
		redisLimiter := middleware.NewRedisFixedWindowLimiter(redisClient, "memberboard:rl:auth")
		return middleware.NewDistributedRateLimiter(
			redisLimiter,
			cfg.AuthRateLimitPerMin,
			time.Minute,
			middleware.FailClosed,
			"auth",
		).Middleware()
	}
	return middleware.NewRateLimiter(cfg.AuthRateLimitPerMin, time.Minute, "auth").Middleware()
}

func provideAPIRateLimiter(cfg *config.Config, redisClient redis.UniversalClient) router.APIRateLimiterFunc {
	if redisClient != nil {
		redisLimiter := middleware.NewRedisFixedWindowLimiter(redisClient, "memberboard:rl:api")
		return middleware.NewDistributedRateLimiter(
			redisLimiter,
			cfg.APIRateLimitPerMin,
			time.Minute,
			middleware.FailOpen,
			"api",
		).Middleware()
	}
	return middleware.NewRateLimiter(cfg.APIRateLimitPerMin, time.Minute, "api").Middleware()
}

func provideReadinessProbeRunner(cfg *config.Config, db *gorm.DB, redisClient redis.UniversalClient) *health.ProbeRunner {
	checkers := make([]health.Checker, 0, 2)
	if c := health.NewDBChecker(db); c != nil {
		checkers = append(checkers, c)
	}
	if redisClient != nil {
		if c := health.NewRedisChecker(redisClient); c != nil {
			checkers = append(checkers, c)
		}
	}
	return health.NewProbeRunner(readinessProbeTimeout, startupGracePeriod, checkers...)
}

func provideRouterDependencies(
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	adminHandler *handler.AdminHandler,
	sessionMiddleware *middleware.SessionMiddleware,
	accountSvc *service.AccountService,
	cookieMgr *security.CookieManager,
	authRateLimiter router.AuthRateLimiterFunc,
	apiRateLimiter router.APIRateLimiterFunc,
	readiness *health.ProbeRunner,
	cfg *config.Config,
) router.Dependencies {
	return router.Dependencies{
		AuthHandler:       authHandler,
		UserHandler:       userHandler,
		AdminHandler:      adminHandler,
		SessionMiddleware: sessionMiddleware,
		AccountService:    accountSvc,
		CookieManager:     cookieMgr,
		CORSOrigins:       cfg.CORSAllowedOrigins,
		BodyLimitBytes:    cfg.BodyLimitBytes,
		SignInPath:        cfg.SignInPath,
		AuthRateLimitRPM:  cfg.AuthRateLimitPerMin,
		APIRateLimitRPM:   cfg.APIRateLimitPerMin,
		AuthRateLimiter:   authRateLimiter,
		APIRateLimiter:    apiRateLimiter,
		GoogleEnabled:     cfg.AuthGoogleEnabled,
		Readiness:         readiness,
		EnableOTelHTTP:    cfg.OTELMetricsEnabled || cfg.OTELTracingEnabled,
	}
}

func provideHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           h,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func provideApp(
	cfg *config.Config,
	logger *slog.Logger,
	server *http.Server,
	runtime *observability.Runtime,
	db *gorm.DB,
	redisClient redis.UniversalClient,
) *app.App {
	return app.New(cfg, logger, server, runtime, db, redisClient)
}
