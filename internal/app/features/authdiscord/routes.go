// internal/app/features/authdiscord/routes.go
package authdiscord

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns the router for Discord OAuth endpoints.
// These routes are public (no authentication required). limit, when
// non-nil, throttles how often a client may start a sign-in.
func Routes(h *Handler, limit func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Group(func(lr chi.Router) {
		if limit != nil {
			lr.Use(limit)
		}
		// GET /auth/discord - start the flow
		lr.Get("/", h.ServeLogin)
	})

	// GET /auth/discord/callback - Discord redirects here
	r.Get("/callback", h.ServeCallback)

	return r
}
