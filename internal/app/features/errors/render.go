// internal/app/features/errors/render.go
package errors

import (
	"net/http"

	"github.com/dalemusser/fiveplanner/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/templates"
)

func render(w http.ResponseWriter, r *http.Request, status int, title, msg, backDefault string) {
	data := pageData{
		BaseVM:  viewdata.NewBaseVM(r, title, backDefault),
		Message: msg,
	}
	w.WriteHeader(status)
	templates.Render(w, r, "error_page", data)
}

// RenderBadRequest shows a friendly page for a malformed request, such as a
// week parameter that is not a date.
func RenderBadRequest(w http.ResponseWriter, r *http.Request, msg string) {
	render(w, r, http.StatusBadRequest, "Requête invalide", msg, "/planner")
}

// RenderServerError shows a generic failure page. Details go to the log,
// never to the page.
func RenderServerError(w http.ResponseWriter, r *http.Request) {
	render(w, r, http.StatusInternalServerError, "Erreur",
		"Une erreur est survenue. Réessayez plus tard.", "/")
}

// RenderForbidden is shown when a form post fails the CSRF check, usually
// because the page was open too long.
func RenderForbidden(w http.ResponseWriter, r *http.Request) {
	render(w, r, http.StatusForbidden, "Action refusée",
		"La page a expiré. Rechargez-la puis réessayez.", "/planner")
}
