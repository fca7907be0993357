// internal/app/features/home/handler.go
package home

import (
	"net/http"
	"net/url"

	"github.com/dalemusser/fiveplanner/internal/app/system/auth"
	"github.com/dalemusser/fiveplanner/internal/app/system/navigation"
	"github.com/dalemusser/fiveplanner/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

// Handler serves the sign-in gate.
type Handler struct {
	Log *zap.Logger
}

func NewHandler(logger *zap.Logger) *Handler {
	return &Handler{Log: logger}
}

// errorMessages maps the codes the Discord callback redirects with to the
// text shown above the sign-in button. Unknown codes get the generic text.
var errorMessages = map[string]string{
	"discord_denied":         "Connexion annulée sur Discord.",
	"discord_not_configured": "La connexion Discord n'est pas configurée.",
	"invalid_state":          "La demande de connexion a expiré. Réessayez.",
	"account_disabled":       "Ce compte est désactivé.",
}

const genericError = "La connexion a échoué. Réessayez."

type homeData struct {
	viewdata.BaseVM
	LoginURL     string
	ErrorMessage string
}

// ErrorMessage returns the sign-in error text for code, or "" when code is empty.
func ErrorMessage(code string) string {
	if code == "" {
		return ""
	}
	if msg, ok := errorMessages[code]; ok {
		return msg
	}
	return genericError
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET / – sign-in gate                                                         |
| Signed-in users go straight to the planner.                                  |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeRoot(w http.ResponseWriter, r *http.Request) {
	ret := navigation.SafeBackURL(r, navigation.PlannerBackURL)

	if _, ok := auth.CurrentUser(r); ok {
		http.Redirect(w, r, ret, http.StatusSeeOther)
		return
	}

	data := homeData{
		BaseVM:       viewdata.NewBaseVM(r, "", "/"),
		LoginURL:     "/auth/discord?return=" + url.QueryEscape(ret),
		ErrorMessage: ErrorMessage(query.Get(r, "error")),
	}

	templates.Render(w, r, "home", data)
}
