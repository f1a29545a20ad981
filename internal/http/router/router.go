package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"memberboard/internal/health"
	"memberboard/internal/http/handler"
	"memberboard/internal/http/middleware"
	"memberboard/internal/http/response"
	"memberboard/internal/security"
	"memberboard/internal/service"
)

// AuthRateLimiterFunc throttles credential-bearing endpoints.
type AuthRateLimiterFunc func(http.Handler) http.Handler

// APIRateLimiterFunc throttles the whole API surface.
type APIRateLimiterFunc func(http.Handler) http.Handler

type Dependencies struct {
	AuthHandler       *handler.AuthHandler
	UserHandler       *handler.UserHandler
	AdminHandler      *handler.AdminHandler
	SessionMiddleware *middleware.SessionMiddleware
	AccountService    *service.AccountService
	CookieManager     *security.CookieManager
	CORSOrigins       []string
	BodyLimitBytes    int64
	SignInPath        string
	AuthRateLimitRPM  int
	APIRateLimitRPM   int
	AuthRateLimiter   AuthRateLimiterFunc
	APIRateLimiter    APIRateLimiterFunc
	GoogleEnabled     bool
	Readiness         *health.ProbeRunner
	EnableOTelHTTP    bool
}

func NewRouter(dep Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(dep.CORSOrigins))
	r.Use(middleware.BodyLimit(dep.BodyLimitBytes))

	apiLimiter := dep.APIRateLimiter
	if apiLimiter == nil {
		apiLimiter = middleware.NewRateLimiter(dep.APIRateLimitRPM, time.Minute, "api").Middleware()
	}
	authLimiter := dep.AuthRateLimiter
	if authLimiter == nil {
		authLimiter = middleware.NewRateLimiter(dep.AuthRateLimitRPM, time.Minute, "auth").Middleware()
	}
	r.Use(apiLimiter)
	r.Use(dep.SessionMiddleware.Handler)

	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		ready, results := dep.Readiness.Ready(r.Context())
		if ready {
			response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready", "checks": results})
			return
		}
		response.Error(w, r, http.StatusServiceUnavailable, "DEPENDENCY_UNREADY", "dependencies are not ready", map[string]any{"checks": results})
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(authLimiter).Post("/register", dep.AuthHandler.Register)
			r.With(authLimiter).Post("/login", dep.AuthHandler.Login)
			r.Post("/logout", dep.AuthHandler.Logout)
			r.Get("/verify/{email}/{token}", dep.AuthHandler.Verify)
			r.With(authLimiter).Post("/verify/resend", dep.AuthHandler.ResendVerification)
			if dep.GoogleEnabled {
				r.With(authLimiter).Get("/google/login", dep.AuthHandler.GoogleLogin)
				r.With(authLimiter).Get("/google/callback", dep.AuthHandler.GoogleCallback)
			}
		})

		r.Route("/user", func(r chi.Router) {
			r.Use(middleware.RequireAPI)
			r.Get("/me", dep.UserHandler.Me)
			r.Put("/nickname", dep.UserHandler.ChangeNickname)
			r.Post("/password", dep.UserHandler.ChangePassword)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAPI)
			r.Use(middleware.RequireVerified(dep.AccountService))
			r.Get("/statistics", dep.AdminHandler.Statistics)
			r.Get("/users", dep.AdminHandler.Users)
		})
	})

	// Browser-facing routes: unauthenticated visits bounce to sign-in
	// and come back via the return_to cookie.
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequirePage(dep.SignInPath, dep.CookieManager))
		r.Get("/dashboard", func(w http.ResponseWriter, r *http.Request) {
			claims, _ := middleware.SessionFromContext(r.Context())
			response.JSON(w, r, http.StatusOK, map[string]any{"page": "dashboard", "user": claims.Subject})
		})
	})

	var routed http.Handler = r
	if dep.EnableOTelHTTP {
		routed = otelhttp.NewHandler(r, "http.server")
	}
	return routed
}
