// internal/app/features/authdiscord/handler.go
package authdiscord

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/dalemusser/fiveplanner/internal/app/store/oauthstate"
	userstore "github.com/dalemusser/fiveplanner/internal/app/store/users"
	"github.com/dalemusser/fiveplanner/internal/app/system/auditlog"
	"github.com/dalemusser/fiveplanner/internal/app/system/auth"
	"github.com/dalemusser/fiveplanner/internal/app/system/navigation"
	"github.com/dalemusser/fiveplanner/internal/app/system/timeouts"
	"github.com/dalemusser/fiveplanner/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// Endpoint is Discord's OAuth2 endpoint.
var Endpoint = oauth2.Endpoint{
	AuthURL:   "https://discord.com/oauth2/authorize",
	TokenURL:  "https://discord.com/api/oauth2/token",
	AuthStyle: oauth2.AuthStyleInParams,
}

const (
	// DefaultProfileURL returns the signed-in Discord user.
	DefaultProfileURL = "https://discord.com/api/users/@me"
	cdnBase           = "https://cdn.discordapp.com"

	stateTTL = 10 * time.Minute
)

// Handler handles Discord OAuth authentication.
type Handler struct {
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	AuditLog   *auditlog.Logger
	StateStore *oauthstate.Store
	Users      *userstore.Store

	// OAuth configuration
	ClientID     string
	ClientSecret string
	RedirectURL  string // e.g., "https://planner.example.com/auth/discord/callback"

	// Overridable in tests.
	Endpoint   oauth2.Endpoint
	ProfileURL string
}

// NewHandler creates a new Discord OAuth handler.
func NewHandler(
	sessionMgr *auth.SessionManager,
	audit *auditlog.Logger,
	stateStore *oauthstate.Store,
	users *userstore.Store,
	clientID, clientSecret, baseURL string,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		Log:          logger,
		SessionMgr:   sessionMgr,
		AuditLog:     audit,
		StateStore:   stateStore,
		Users:        users,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  baseURL + "/auth/discord/callback",
		Endpoint:     Endpoint,
		ProfileURL:   DefaultProfileURL,
	}
}

func (h *Handler) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     h.ClientID,
		ClientSecret: h.ClientSecret,
		RedirectURL:  h.RedirectURL,
		Scopes:       []string{"identify"},
		Endpoint:     h.Endpoint,
	}
}

// IsConfigured returns true if Discord OAuth is configured.
func (h *Handler) IsConfigured() bool {
	return h.ClientID != "" && h.ClientSecret != ""
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /auth/discord                                                            |
| Starts the flow by redirecting to Discord's consent screen.                  |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	if !h.IsConfigured() {
		h.Log.Warn("Discord OAuth not configured")
		redirectToGate(w, r, "discord_not_configured")
		return
	}

	state, err := generateState()
	if err != nil {
		h.Log.Error("failed to generate OAuth state", zap.Error(err))
		redirectToGate(w, r, "internal")
		return
	}

	returnURL := navigation.SafeBackURL(r, navigation.PlannerBackURL)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.StateStore.Save(ctx, state, returnURL, time.Now().UTC().Add(stateTTL)); err != nil {
		h.Log.Error("failed to save OAuth state", zap.Error(err))
		redirectToGate(w, r, "internal")
		return
	}

	dest := h.oauth2Config().AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "none"))
	h.Log.Debug("initiating Discord OAuth flow", zap.String("return_url", returnURL))
	http.Redirect(w, r, dest, http.StatusTemporaryRedirect)
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /auth/discord/callback                                                   |
| Validates state, exchanges the code, upserts the user, signs in.            |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	if errParam := q.Get("error"); errParam != "" {
		h.Log.Warn("Discord OAuth error",
			zap.String("error", errParam),
			zap.String("description", q.Get("error_description")))
		h.AuditLog.LoginFailedOAuth(ctx, r, "denied: "+errParam)
		redirectToGate(w, r, "discord_denied")
		return
	}

	state := q.Get("state")
	if state == "" {
		h.AuditLog.LoginFailedOAuth(ctx, r, "missing state")
		redirectToGate(w, r, "invalid_state")
		return
	}

	sctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	returnURL, valid, err := h.StateStore.Consume(sctx, state)
	cancel()
	if err != nil {
		h.Log.Error("failed to validate OAuth state", zap.Error(err))
		redirectToGate(w, r, "internal")
		return
	}
	if !valid {
		h.Log.Warn("invalid or expired OAuth state")
		h.AuditLog.LoginFailedOAuth(ctx, r, "invalid state")
		redirectToGate(w, r, "invalid_state")
		return
	}

	code := q.Get("code")
	if code == "" {
		h.AuditLog.LoginFailedOAuth(ctx, r, "missing code")
		redirectToGate(w, r, "invalid_code")
		return
	}

	token, err := h.oauth2Config().Exchange(ctx, code)
	if err != nil {
		h.Log.Error("failed to exchange OAuth code", zap.Error(err))
		h.AuditLog.LoginFailedOAuth(ctx, r, "token exchange")
		redirectToGate(w, r, "token_exchange")
		return
	}

	du, err := h.fetchProfile(ctx, token)
	if err != nil {
		h.Log.Error("failed to fetch Discord user", zap.Error(err))
		h.AuditLog.LoginFailedOAuth(ctx, r, "profile fetch")
		redirectToGate(w, r, "user_info")
		return
	}

	uctx, ucancel := context.WithTimeout(ctx, timeouts.Short())
	u, err := h.Users.UpsertFromDiscord(uctx, userstore.Profile{
		DiscordID:   du.ID,
		Username:    du.Username,
		DisplayName: du.GlobalName,
		AvatarURL:   du.AvatarURL(),
	})
	ucancel()
	if err != nil {
		h.Log.Error("failed to upsert user", zap.Error(err), zap.String("discord_id", du.ID))
		redirectToGate(w, r, "internal")
		return
	}

	if u.Status == models.StatusDisabled {
		h.Log.Info("Discord OAuth: user disabled", zap.String("discord_id", du.ID))
		h.AuditLog.LoginFailedUserDisabled(ctx, r, u.ID, du.ID)
		redirectToGate(w, r, "account_disabled")
		return
	}

	su := &auth.SessionUser{ID: u.ID.Hex(), DiscordID: u.DiscordID, Name: u.Name(), AvatarURL: u.AvatarURL}
	if err := h.SessionMgr.SignIn(w, r, su); err != nil {
		h.Log.Error("save session failed", zap.Error(err), zap.String("user_id", su.ID))
		redirectToGate(w, r, "session")
		return
	}

	h.AuditLog.LoginSuccess(ctx, r, u.ID, u.DiscordID)
	h.Log.Info("user signed in via Discord",
		zap.String("user_id", su.ID),
		zap.String("discord_id", su.DiscordID))

	http.Redirect(w, r, urlutil.SafeReturn(returnURL, "", "/planner"), http.StatusSeeOther)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Discord profile                                                              |
*─────────────────────────────────────────────────────────────────────────────*/

var errProfileStatus = errors.New("unexpected status from Discord")

// discordUser is the subset of /users/@me we keep.
type discordUser struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	GlobalName string `json:"global_name"`
	Avatar     string `json:"avatar"`
}

// AvatarURL returns the CDN URL of the user's avatar, or the default avatar
// Discord assigns from the user id when none is set.
func (d discordUser) AvatarURL() string {
	if d.Avatar != "" {
		ext := "png"
		if len(d.Avatar) > 2 && d.Avatar[:2] == "a_" {
			ext = "gif"
		}
		return fmt.Sprintf("%s/avatars/%s/%s.%s", cdnBase, url.PathEscape(d.ID), url.PathEscape(d.Avatar), ext)
	}
	idx := uint64(0)
	if id, err := strconv.ParseUint(d.ID, 10, 64); err == nil {
		idx = (id >> 22) % 6
	}
	return fmt.Sprintf("%s/embed/avatars/%d.png", cdnBase, idx)
}

func (h *Handler) fetchProfile(ctx context.Context, token *oauth2.Token) (*discordUser, error) {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))

	resp, err := client.Get(h.ProfileURL)
	if err != nil {
		return nil, fmt.Errorf("fetch profile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", errProfileStatus, resp.StatusCode)
	}

	var du discordUser
	if err := json.NewDecoder(resp.Body).Decode(&du); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	if du.ID == "" {
		return nil, errors.New("profile has no id")
	}
	return &du, nil
}

/*─────────────────────────────────────────────────────────────────────────────*
| Helpers                                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

// redirectToGate sends the browser back to the sign-in prompt with an error code.
func redirectToGate(w http.ResponseWriter, r *http.Request, code string) {
	http.Redirect(w, r, "/?error="+url.QueryEscape(code), http.StatusSeeOther)
}

// generateState creates a cryptographically secure random state string.
func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
