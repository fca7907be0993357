package logout_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/fiveplanner/internal/app/features/logout"
	"github.com/dalemusser/fiveplanner/internal/app/system/auditlog"
	"github.com/dalemusser/fiveplanner/internal/app/system/auth"
	"github.com/dalemusser/fiveplanner/internal/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const sessionKey = "test-session-key-for-testing-only"

func newSessionManager(t *testing.T) *auth.SessionManager {
	t.Helper()
	sm, err := auth.NewSessionManager(sessionKey, "test-session", "", 24*time.Hour, false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}
	return sm
}

func TestServeLogout_RedirectsToHome(t *testing.T) {
	h := logout.NewHandler(newSessionManager(t), nil, zap.NewNop())

	rec := httptest.NewRecorder()
	h.ServeLogout(rec, httptest.NewRequest(http.MethodGet, "/logout", nil))

	if rec.Code != http.StatusSeeOther {
		t.Errorf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/" {
		t.Errorf("Location: got %q, want %q", loc, "/")
	}
}

func TestServeLogout_ClearsSessionCookie(t *testing.T) {
	sm := newSessionManager(t)
	h := logout.NewHandler(sm, nil, zap.NewNop())

	// Sign in first so the logout request carries a real cookie.
	setup := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if err := sm.SignIn(setup, req, &auth.SessionUser{ID: "u1", DiscordID: "1", Name: "Ana"}); err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}

	logoutReq := httptest.NewRequest(http.MethodGet, "/logout", nil)
	for _, c := range setup.Result().Cookies() {
		logoutReq.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	h.ServeLogout(rec, logoutReq)

	found := false
	for _, c := range rec.Result().Cookies() {
		if c.Name == "test-session" {
			found = true
			if c.MaxAge != -1 {
				t.Errorf("cookie MaxAge: got %d, want -1", c.MaxAge)
			}
		}
	}
	if !found {
		t.Error("expected session cookie to be set for deletion")
	}
}

func TestServeLogout_HTMX(t *testing.T) {
	h := logout.NewHandler(newSessionManager(t), nil, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/logout", nil)
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	h.ServeLogout(rec, req)

	if got := rec.Header().Get("HX-Redirect"); got != "/" {
		t.Errorf("HX-Redirect: got %q, want %q", got, "/")
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d for HTMX, got %d", http.StatusOK, rec.Code)
	}
}

func TestServeLogout_Audits(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	audit := auditlog.New(nil, zap.New(core), auditlog.Config{Auth: "log", Planner: "off"})
	h := logout.NewHandler(newSessionManager(t), audit, zap.NewNop())

	user := testutil.Player()
	rec := httptest.NewRecorder()
	h.ServeLogout(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/logout", user))

	entries := logs.FilterMessage("audit event").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 audit entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["event_type"] != "logout" {
		t.Errorf("event_type: got %v", fields["event_type"])
	}
	if fields["user_id"] != user.ID {
		t.Errorf("user_id: got %v, want %s", fields["user_id"], user.ID)
	}
}
