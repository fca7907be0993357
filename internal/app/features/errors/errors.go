// internal/app/features/errors/errors.go
package errors

import (
	"net/http"

	"github.com/dalemusser/fiveplanner/internal/app/system/viewdata"
	"go.uber.org/zap"
)

// pageData is the view model for error pages.
type pageData struct {
	viewdata.BaseVM
	Message string
}

// Handler serves the friendly error pages. No DB needed.
type Handler struct {
	Log *zap.Logger
}

// NewHandler constructs an errors Handler.
func NewHandler(logger *zap.Logger) *Handler {
	return &Handler{Log: logger}
}

// NotFound renders the 404 page.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.Log.Debug("not found", zap.String("path", r.URL.Path))
	render(w, r, http.StatusNotFound, "Page introuvable", "Cette page n'existe pas.", "/")
}

// MethodNotAllowed renders the 405 page.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	render(w, r, http.StatusMethodNotAllowed, "Action impossible", "Cette action n'est pas disponible ici.", "/")
}
