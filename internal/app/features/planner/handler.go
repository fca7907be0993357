// internal/app/features/planner/handler.go
package planner

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/fiveplanner/internal/app/store/confirmations"
	"github.com/dalemusser/fiveplanner/internal/app/system/auditlog"
	"github.com/dalemusser/fiveplanner/internal/app/system/auth"
	core "github.com/dalemusser/fiveplanner/internal/domain/planner"
	"github.com/dalemusser/waffle/pantry/query"
	"go.uber.org/zap"
)

// DefaultTicketTTL bounds how long a confirmation dialog stays answerable.
const DefaultTicketTTL = 10 * time.Minute

// ClientFactory returns the availability and template clients acting for u.
type ClientFactory func(u auth.SessionUser) (core.AvailabilityService, core.TemplateService)

// Handler serves the weekly grid and its actions. Every request builds its
// own Board for the signed-in user; nothing is shared between requests.
type Handler struct {
	Log       *zap.Logger
	Clients   ClientFactory
	Tickets   *confirmations.Store
	AuditLog  *auditlog.Logger
	Loc       *time.Location
	TicketTTL time.Duration

	// Now is overridable in tests.
	Now func() time.Time
}

// NewHandler builds a planner Handler. loc is the zone the grid's dates
// are computed in; nil means time.Local.
func NewHandler(clients ClientFactory, tickets *confirmations.Store, audit *auditlog.Logger, loc *time.Location, ticketTTL time.Duration, logger *zap.Logger) *Handler {
	if loc == nil {
		loc = time.Local
	}
	if ticketTTL <= 0 {
		ticketTTL = DefaultTicketTTL
	}
	return &Handler{
		Log:       logger,
		Clients:   clients,
		Tickets:   tickets,
		AuditLog:  audit,
		Loc:       loc,
		TicketTTL: ticketTTL,
		Now:       time.Now,
	}
}

var errBadWeek = errors.New("week must be a YYYY-MM-DD date")

// currentMonday is the Monday of the week containing now, in h.Loc.
func (h *Handler) currentMonday() time.Time {
	return core.MondayOf(h.Now().In(h.Loc))
}

// weekParam reads "week" from the query or form. Any date is accepted and
// normalized to its Monday; an absent value means the current week.
func (h *Handler) weekParam(r *http.Request) (time.Time, error) {
	raw := query.Get(r, "week")
	if raw == "" {
		raw = strings.TrimSpace(r.FormValue("week"))
	}
	if raw == "" {
		return h.currentMonday(), nil
	}
	d, err := core.ParseDate(raw, h.Loc)
	if err != nil {
		return time.Time{}, errBadWeek
	}
	return core.MondayOf(d), nil
}

// newBoard builds a board for u positioned on monday.
func (h *Handler) newBoard(u *auth.SessionUser, monday time.Time, opts ...core.Option) *core.Board {
	avail, tmpl := h.Clients(*u)
	return core.NewBoard(avail, tmpl, monday, h.Log.With(zap.String("user_id", u.ID)), opts...)
}

// isHTMX reports whether the request came from an hx-* attribute.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") != ""
}

// signedInUser returns the session user. Routes sit behind RequireSignedIn,
// so a miss only happens when a handler is mounted without it.
func signedInUser(w http.ResponseWriter, r *http.Request) (*auth.SessionUser, bool) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return nil, false
	}
	return u, true
}
