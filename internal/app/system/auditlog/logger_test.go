package auditlog_test

import (
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/fiveplanner/internal/app/store/audit"
	"github.com/dalemusser/fiveplanner/internal/app/system/auditlog"
	"github.com/dalemusser/fiveplanner/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger_NilLogger(t *testing.T) {
	var logger *auditlog.Logger
	ctx, cancel := testutil.TestContext()
	defer cancel()
	req := httptest.NewRequest("GET", "/", nil)

	logger.Log(ctx, audit.Event{EventType: "test"})
	logger.LoginSuccess(ctx, req, primitive.NewObjectID(), "1")
	logger.Logout(ctx, req, primitive.NewObjectID().Hex())
	logger.TemplateSaved(ctx, req, "", "2025-10-13", 3, nil)
}

func TestLogger_LogOnly_NoStore(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := auditlog.New(nil, zap.New(core), auditlog.Config{Auth: "log", Planner: "log"})
	ctx, cancel := testutil.TestContext()
	defer cancel()
	req := httptest.NewRequest("POST", "/planner/confirm/x", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")

	logger.TemplateApplied(ctx, req, primitive.NewObjectID().Hex(), "2025-10-13", errors.New("boom"))

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	e := entries[0]
	if e.Level != zap.WarnLevel {
		t.Errorf("failed event should log at warn, got %v", e.Level)
	}
	fields := e.ContextMap()
	if fields["ip"] != "203.0.113.7" {
		t.Errorf("ip: got %v", fields["ip"])
	}
	if fields["detail_week"] != "2025-10-13" {
		t.Errorf("week detail: got %v", fields["detail_week"])
	}
	if fields["failure_reason"] != "boom" {
		t.Errorf("failure_reason: got %v", fields["failure_reason"])
	}
}

func TestLogger_Log_ConfigOff(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: "off", Planner: "off"})
	req := httptest.NewRequest("GET", "/", nil)
	logger.LoginFailedOAuth(ctx, req, "state mismatch")
	logger.TemplateCancelled(ctx, req, "", "save", "2025-10-13")

	n, err := store.CountByFilter(ctx, audit.QueryFilter{})
	if err != nil {
		t.Fatalf("CountByFilter failed: %v", err)
	}
	if n != 0 {
		t.Errorf("expected no events when config is 'off', got %d", n)
	}
}

func TestLogger_Log_ConfigDB(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: "db", Planner: "off"})
	userID := primitive.NewObjectID()
	req := httptest.NewRequest("GET", "/auth/discord/callback", nil)

	logger.LoginSuccess(ctx, req, userID, "80351110224678912")
	logger.TemplateSaved(ctx, req, userID.Hex(), "2025-10-13", 4, nil)

	events, err := store.GetByUser(ctx, userID, 10)
	if err != nil {
		t.Fatalf("GetByUser failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected only the auth event, got %d", len(events))
	}
	if events[0].EventType != audit.EventLoginSuccess {
		t.Errorf("event type: got %q", events[0].EventType)
	}
}

func TestLogger_TemplateSaved_Details(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: "all", Planner: "all"})
	userID := primitive.NewObjectID()
	req := httptest.NewRequest("POST", "/", nil)

	logger.TemplateSaved(ctx, req, userID.Hex(), "2025-10-13", 5, nil)

	events, err := store.Query(ctx, audit.QueryFilter{Category: audit.CategoryPlanner})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	e := events[0]
	if !e.Success || e.Details["slots"] != "5" || e.Details["week"] != "2025-10-13" {
		t.Errorf("unexpected event: %+v", e)
	}
	if e.UserID == nil || *e.UserID != userID {
		t.Errorf("user id not recorded: %v", e.UserID)
	}
}
