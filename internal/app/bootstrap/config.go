// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"net/url"
	"time"

	"github.com/dalemusser/fiveplanner/internal/app/system/svctoken"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for Five Planner.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: FIVEPLANNER_MONGO_URI, FIVEPLANNER_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "fiveplanner", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 50, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 5, Desc: "MongoDB min connection pool size"},
	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "fiveplanner-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "720h", Desc: "Session cookie lifetime (e.g., 720h)"},

	{Name: "base_url", Default: "http://localhost:3000", Desc: "Public base URL used for the Discord redirect URI"},

	// Discord OAuth configuration
	{Name: "discord_client_id", Default: "", Desc: "Discord OAuth2 client ID"},
	{Name: "discord_client_secret", Default: "", Desc: "Discord OAuth2 client secret"},

	// Availability service
	{Name: "availability_api_url", Default: "http://localhost:4000", Desc: "Base URL of the availability and template service"},
	{Name: "service_token_secret", Default: "dev-only-service-token-secret-0123456789", Desc: "HS256 secret shared with the availability service (32+ chars)"},
	{Name: "service_token_ttl", Default: "1h", Desc: "Lifetime of service tokens"},
	{Name: "api_rate_per_sec", Default: 20, Desc: "Outbound availability calls per second (0 disables pacing)"},
	{Name: "api_burst", Default: 10, Desc: "Outbound availability call burst"},

	// Inbound rate limits
	{Name: "login_per_minute", Default: 10, Desc: "Discord sign-in attempts per minute per client IP"},
	{Name: "login_burst", Default: 5, Desc: "Discord sign-in burst per client IP"},
	{Name: "planner_per_minute", Default: 240, Desc: "Planner mutations per minute per user"},
	{Name: "planner_burst", Default: 40, Desc: "Planner mutation burst per user"},

	// Planner behaviour
	{Name: "time_zone", Default: "Europe/Paris", Desc: "IANA time zone for the current week and today's column"},
	{Name: "confirm_ticket_ttl", Default: "10m", Desc: "How long a template confirmation stays answerable"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_planner", Default: "all", Desc: "Template event logging: 'all' (db+log), 'db', 'log', or 'off'"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig merges .env files, config files,
// FIVEPLANNER_* environment variables and flags, with precedence
// flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "FIVEPLANNER", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),
		SessionKey:       appValues.String("session_key"),
		SessionName:      appValues.String("session_name"),
		SessionDomain:    appValues.String("session_domain"),
		SessionMaxAge:    appValues.Duration("session_max_age", 30*24*time.Hour),

		BaseURL: appValues.String("base_url"),

		DiscordClientID:     appValues.String("discord_client_id"),
		DiscordClientSecret: appValues.String("discord_client_secret"),

		AvailabilityAPIURL: appValues.String("availability_api_url"),
		ServiceTokenSecret: appValues.String("service_token_secret"),
		ServiceTokenTTL:    appValues.Duration("service_token_ttl", time.Hour),
		APIRatePerSec:      appValues.Int("api_rate_per_sec"),
		APIBurst:           appValues.Int("api_burst"),

		LoginPerMinute:   appValues.Int("login_per_minute"),
		LoginBurst:       appValues.Int("login_burst"),
		PlannerPerMinute: appValues.Int("planner_per_minute"),
		PlannerBurst:     appValues.Int("planner_burst"),

		TimeZone:         appValues.String("time_zone"),
		ConfirmTicketTTL: appValues.Duration("confirm_ticket_ttl", 10*time.Minute),

		AuditLogAuth:    appValues.String("audit_log_auth"),
		AuditLogPlanner: appValues.String("audit_log_planner"),
	}

	if appCfg.DiscordClientID == "" || appCfg.DiscordClientSecret == "" {
		logger.Warn("discord oauth is not configured; sign-in will be refused")
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if appCfg.MongoDatabase == "" {
		return fmt.Errorf("mongo_database must be set")
	}

	u, err := url.Parse(appCfg.AvailabilityAPIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid availability_api_url %q", appCfg.AvailabilityAPIURL)
	}
	if len(appCfg.ServiceTokenSecret) < svctoken.MinSecretLen {
		return svctoken.ErrSecretTooShort
	}
	if _, err := time.LoadLocation(appCfg.TimeZone); err != nil {
		return fmt.Errorf("invalid time_zone %q: %w", appCfg.TimeZone, err)
	}
	if appCfg.ConfirmTicketTTL <= 0 {
		return fmt.Errorf("confirm_ticket_ttl must be positive")
	}

	for name, mode := range map[string]string{
		"audit_log_auth":    appCfg.AuditLogAuth,
		"audit_log_planner": appCfg.AuditLogPlanner,
	} {
		switch mode {
		case "all", "db", "log", "off":
		default:
			return fmt.Errorf("%s must be all, db, log or off (got %q)", name, mode)
		}
	}
	return nil
}
