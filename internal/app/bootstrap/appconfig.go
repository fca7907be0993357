// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig covers ports, TLS, logging and request limits.
// Everything the planner itself needs lives here and is passed to most
// lifecycle hooks.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management configuration
	SessionKey    string // signs session cookies and CSRF tokens
	SessionName   string // cookie name (default: fiveplanner-session)
	SessionDomain string // blank means current host
	SessionMaxAge time.Duration

	// Public base URL; the Discord redirect URI is derived from it.
	BaseURL string

	// Discord OAuth
	DiscordClientID     string
	DiscordClientSecret string

	// Availability service
	AvailabilityAPIURL string
	ServiceTokenSecret string
	ServiceTokenTTL    time.Duration
	APIRatePerSec      int // outbound calls per second; 0 disables pacing
	APIBurst           int

	// Inbound rate limits
	LoginPerMinute   int
	LoginBurst       int
	PlannerPerMinute int
	PlannerBurst     int

	// Planner behaviour
	TimeZone         string // IANA zone that decides "today" and the current week
	ConfirmTicketTTL time.Duration

	// Audit logging: "all", "db", "log" or "off"
	AuditLogAuth    string
	AuditLogPlanner string
}
