// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dalemusser/fiveplanner/internal/app/store/audit"
	"github.com/dalemusser/fiveplanner/internal/app/system/ratelimit"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Config holds audit logging configuration.
type Config struct {
	// Auth controls logging for sign-in and sign-out events.
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	Auth string
	// Planner controls logging for weekly template save/apply events.
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	Planner string
}

// Logger provides convenience methods for logging audit events.
// It logs to both MongoDB (via audit.Store) and structured logs (via zap).
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	if zapLog == nil {
		zapLog = zap.NewNop()
	}
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
		zap.String("ip", event.IP),
	}
	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.DiscordID != "" {
		fields = append(fields, zap.String("discord_id", event.DiscordID))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event based on configuration.
// If the logger is nil, this is a no-op (allows tests to use nil audit logger).
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryAuth:
		setting = l.config.Auth
	case audit.CategoryPlanner:
		setting = l.config.Planner
	default:
		setting = "all"
	}

	if setting == "off" {
		return
	}
	if setting == "all" || setting == "log" {
		l.logToZap(event)
	}
	if (setting == "all" || setting == "db") && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

func oid(hex string) *primitive.ObjectID {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return nil
	}
	return &id
}

// --- Authentication Events ---

// LoginSuccess logs a completed Discord sign-in.
func (l *Logger) LoginSuccess(ctx context.Context, r *http.Request, userID primitive.ObjectID, discordID string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginSuccess,
		UserID:    &userID,
		DiscordID: discordID,
		IP:        ratelimit.ClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
	})
}

// LoginFailedUserDisabled logs a sign-in refused because the account is disabled.
func (l *Logger) LoginFailedUserDisabled(ctx context.Context, r *http.Request, userID primitive.ObjectID, discordID string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailedUserDisabled,
		UserID:        &userID,
		DiscordID:     discordID,
		IP:            ratelimit.ClientIP(r),
		UserAgent:     r.UserAgent(),
		Success:       false,
		FailureReason: "user account disabled",
	})
}

// LoginFailedOAuth logs a failed OAuth round trip (bad state, exchange or profile fetch).
func (l *Logger) LoginFailedOAuth(ctx context.Context, r *http.Request, reason string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategoryAuth,
		EventType:     audit.EventLoginFailedOAuth,
		IP:            ratelimit.ClientIP(r),
		UserAgent:     r.UserAgent(),
		Success:       false,
		FailureReason: reason,
	})
}

// Logout logs a sign-out.
func (l *Logger) Logout(ctx context.Context, r *http.Request, userIDStr string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLogout,
		UserID:    oid(userIDStr),
		IP:        ratelimit.ClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   true,
	})
}

// --- Planner Events ---

func (l *Logger) templateEvent(ctx context.Context, r *http.Request, eventType, userIDStr, week string, details map[string]string, err error) {
	if details == nil {
		details = map[string]string{}
	}
	details["week"] = week
	e := audit.Event{
		Category:  audit.CategoryPlanner,
		EventType: eventType,
		UserID:    oid(userIDStr),
		IP:        ratelimit.ClientIP(r),
		UserAgent: r.UserAgent(),
		Success:   err == nil,
		Details:   details,
	}
	if err != nil {
		e.FailureReason = err.Error()
	}
	l.Log(ctx, e)
}

// TemplateSaved logs a save of the week as the user's template.
func (l *Logger) TemplateSaved(ctx context.Context, r *http.Request, userIDStr, week string, slots int, err error) {
	l.templateEvent(ctx, r, audit.EventTemplateSaved, userIDStr, week, map[string]string{
		"slots": strconv.Itoa(slots),
	}, err)
}

// TemplateApplied logs the template being applied onto a week.
func (l *Logger) TemplateApplied(ctx context.Context, r *http.Request, userIDStr, week string, err error) {
	l.templateEvent(ctx, r, audit.EventTemplateApplied, userIDStr, week, nil, err)
}

// TemplateCancelled logs a confirmation dialog dismissed without acting.
func (l *Logger) TemplateCancelled(ctx context.Context, r *http.Request, userIDStr, action, week string) {
	l.templateEvent(ctx, r, audit.EventTemplateCancelled, userIDStr, week, map[string]string{
		"action": action,
	}, nil)
}
