// internal/app/features/planner/routes.go
package planner

import (
	"net/http"

	"github.com/dalemusser/fiveplanner/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the planner under /planner. Every route requires a signed-in
// user; limit, when non-nil, throttles the routes that call the
// availability service on the user's behalf.
func Routes(h *Handler, sm *auth.SessionManager, limit func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)

		pr.Get("/", h.ServePlanner)
		pr.Get("/golden", h.ServeGolden)
		pr.Get("/confirm/{action}", h.ServeConfirmDialog)

		pr.Group(func(wr chi.Router) {
			if limit != nil {
				wr.Use(limit)
			}
			wr.Post("/toggle", h.ServeToggle)
			wr.Post("/drag", h.ServeDrag)
			wr.Post("/confirm/{action}/{ticket}", h.ServeConfirmDecision)
		})
	})

	return r
}

// UserKey buckets rate limits by signed-in user.
func UserKey(r *http.Request) string {
	if u, ok := auth.CurrentUser(r); ok {
		return "user:" + u.ID
	}
	return ""
}
