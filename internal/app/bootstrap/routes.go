// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	authdiscordfeature "github.com/dalemusser/fiveplanner/internal/app/features/authdiscord"
	errorsfeature "github.com/dalemusser/fiveplanner/internal/app/features/errors"
	healthfeature "github.com/dalemusser/fiveplanner/internal/app/features/health"
	homefeature "github.com/dalemusser/fiveplanner/internal/app/features/home"
	logoutfeature "github.com/dalemusser/fiveplanner/internal/app/features/logout"
	plannerfeature "github.com/dalemusser/fiveplanner/internal/app/features/planner"
	"github.com/dalemusser/fiveplanner/internal/app/store/audit"
	"github.com/dalemusser/fiveplanner/internal/app/store/confirmations"
	"github.com/dalemusser/fiveplanner/internal/app/store/oauthstate"
	userstore "github.com/dalemusser/fiveplanner/internal/app/store/users"
	"github.com/dalemusser/fiveplanner/internal/app/system/auditlog"
	"github.com/dalemusser/fiveplanner/internal/app/system/auth"
	core "github.com/dalemusser/fiveplanner/internal/domain/planner"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup and
// Startup have completed. It boots the template engine, applies CSRF and
// session middleware, and mounts the feature routers.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	if deps.Services == nil || deps.Services.Availability == nil {
		return nil, errNoServices
	}
	svc := deps.Services

	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Reload the user on each request so a disabled account is signed out
	// immediately.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(deps.MongoDatabase))

	// Dev mode enables template reloading for faster iteration.
	eng := templates.New(coreCfg.Env == "dev")
	if err := eng.Boot(logger); err != nil {
		logger.Error("template engine boot failed", zap.Error(err))
		return nil, err
	}
	templates.UseEngine(eng, logger)

	auditLog := auditlog.New(audit.New(deps.MongoDatabase), logger, auditlog.Config{
		Auth:    appCfg.AuditLogAuth,
		Planner: appCfg.AuditLogPlanner,
	})

	r := chi.NewRouter()

	if !secure {
		// gorilla/csrf assumes TLS and checks the Referer scheme otherwise.
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				next.ServeHTTP(w, csrf.PlaintextHTTPRequest(req))
			})
		})
	}
	r.Use(csrf.Protect(
		[]byte(appCfg.SessionKey),
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.CookieName("fiveplanner-csrf"),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			logger.Warn("csrf check failed",
				zap.String("path", req.URL.Path),
				zap.Error(csrf.FailureReason(req)))
			errorsfeature.RenderForbidden(w, req)
		})),
	))

	// Global auth middleware: loads SessionUser into context if logged in.
	r.Use(sessionMgr.LoadSessionUser)

	errorsHandler := errorsfeature.NewHandler(logger)
	r.NotFound(errorsHandler.NotFound)
	r.MethodNotAllowed(errorsHandler.MethodNotAllowed)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Static assets with pre-compressed file support (gzip/brotli)
	r.Handle("/static/*", fileserver.Handler("/static", "public"))

	// Login gate
	homeHandler := homefeature.NewHandler(logger)
	r.Mount("/", homefeature.Routes(homeHandler))

	// Discord sign-in, limited per client IP
	discordHandler := authdiscordfeature.NewHandler(
		sessionMgr,
		auditLog,
		oauthstate.New(deps.MongoDatabase),
		userstore.New(deps.MongoDatabase),
		appCfg.DiscordClientID,
		appCfg.DiscordClientSecret,
		appCfg.BaseURL,
		logger,
	)
	loginLimit := svc.LoginLimiter.Middleware(nil, logger)
	r.Mount("/auth/discord", authdiscordfeature.Routes(discordHandler, loginLimit))

	logoutHandler := logoutfeature.NewHandler(sessionMgr, auditLog, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler, sessionMgr))

	// Planner: every call to the availability service carries the user's token.
	clients := func(u auth.SessionUser) (core.AvailabilityService, core.TemplateService) {
		c := svc.Availability.ForUser(u)
		return c, c
	}
	plannerHandler := plannerfeature.NewHandler(
		clients,
		confirmations.New(deps.MongoDatabase),
		auditLog,
		svc.Location,
		appCfg.ConfirmTicketTTL,
		logger,
	)
	plannerLimit := svc.PlannerLimiter.Middleware(plannerfeature.UserKey, logger)
	r.Mount("/planner", plannerfeature.Routes(plannerHandler, sessionMgr, plannerLimit))

	return r, nil
}
