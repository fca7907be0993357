// internal/app/features/planner/confirm.go
package planner

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	errorsfeature "github.com/dalemusser/fiveplanner/internal/app/features/errors"
	"github.com/dalemusser/fiveplanner/internal/app/system/timeouts"
	"github.com/dalemusser/fiveplanner/internal/app/system/viewdata"
	core "github.com/dalemusser/fiveplanner/internal/domain/planner"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// dialogText holds the title and question of each confirmation dialog.
var dialogText = map[core.TemplateAction][2]string{
	core.ActionSave: {
		"Sauvegarder le Modèle",
		"Voulez-vous sauvegarder cette semaine comme modèle de référence ?",
	},
	core.ActionApply: {
		"Appliquer le Modèle",
		"Voulez-vous appliquer le modèle sauvegardé à cette semaine ?",
	},
}

var errWeekNotLoaded = errors.New("week snapshot unavailable")

// ConfirmVM is the modal's view model.
type ConfirmVM struct {
	Action    string
	Title     string
	Message   string
	Week      string
	WeekLabel string
	PostURL   string
	CancelURL string
	CSRFToken string
}

type confirmPageData struct {
	viewdata.BaseVM
	Dialog ConfirmVM
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /planner/confirm/{action}?week=YYYY-MM-DD                                |
| Opens a one-shot ticket and renders the modal.                               |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeConfirmDialog(w http.ResponseWriter, r *http.Request) {
	u, ok := signedInUser(w, r)
	if !ok {
		return
	}

	action, ok := core.ParseTemplateAction(chi.URLParam(r, "action"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	monday, err := h.weekParam(r)
	if err != nil {
		errorsfeature.RenderBadRequest(w, r, "Semaine invalide.")
		return
	}
	week := core.FormatDate(monday)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	ticket, err := h.Tickets.Issue(ctx, u.ID, string(action), week, h.TicketTTL)
	if err != nil {
		h.Log.Error("confirm: issue ticket", zap.Error(err), zap.String("user_id", u.ID))
		errorsfeature.RenderServerError(w, r)
		return
	}

	text := dialogText[action]
	base := viewdata.NewBaseVM(r, text[0], weekURL(monday))
	dlg := ConfirmVM{
		Action:    string(action),
		Title:     text[0],
		Message:   text[1],
		Week:      week,
		WeekLabel: WeekLabel(monday),
		PostURL:   "/planner/confirm/" + string(action) + "/" + ticket.ID,
		CancelURL: weekURL(monday),
		CSRFToken: base.CSRFToken,
	}

	if isHTMX(r) {
		templates.RenderSnippet(w, "planner_confirm_modal", dlg)
		return
	}
	templates.Render(w, r, "planner_confirm", confirmPageData{BaseVM: base, Dialog: dlg})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /planner/confirm/{action}/{ticket}                                      |
| Form: decision=confirm|cancel. The ticket is consumed by the first decision; |
| later posts for it are ignored.                                              |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeConfirmDecision(w http.ResponseWriter, r *http.Request) {
	u, ok := signedInUser(w, r)
	if !ok {
		return
	}

	decision := strings.TrimSpace(r.FormValue("decision"))
	if decision != "confirm" && decision != "cancel" {
		http.Error(w, "decision must be confirm or cancel", http.StatusBadRequest)
		return
	}
	action, ok := core.ParseTemplateAction(chi.URLParam(r, "action"))
	if !ok {
		http.NotFound(w, r)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	ticket, valid, err := h.Tickets.Consume(ctx, chi.URLParam(r, "ticket"), u.ID)
	cancel()
	if err != nil {
		h.Log.Error("confirm: consume ticket", zap.Error(err), zap.String("user_id", u.ID))
		errorsfeature.RenderServerError(w, r)
		return
	}
	if !valid || ticket.Action != string(action) {
		// Already answered, expired or not ours: nothing fires.
		h.Log.Info("confirm: stale ticket", zap.String("user_id", u.ID), zap.String("action", string(action)))
		h.finish(w, r, h.ticketWeek(ticket.Week), "")
		return
	}

	monday := h.ticketWeek(ticket.Week)

	if decision == "cancel" {
		h.AuditLog.TemplateCancelled(r.Context(), r, u.ID, ticket.Action, ticket.Week)
		h.finish(w, r, monday, "")
		return
	}

	board := h.newBoard(u, monday)
	var actErr error
	switch action {
	case core.ActionSave:
		// The template is the displayed selection, so read it first.
		if !board.LoadWeek(r.Context(), monday) {
			actErr = errWeekNotLoaded
		} else {
			actErr = board.RunTemplateAction(r.Context(), action)
		}
		slots := len(core.TemplateSlots(monday, board.Selection()))
		h.AuditLog.TemplateSaved(r.Context(), r, u.ID, ticket.Week, slots, actErr)
	case core.ActionApply:
		actErr = board.RunTemplateAction(r.Context(), action)
		h.AuditLog.TemplateApplied(r.Context(), r, u.ID, ticket.Week, actErr)
	}

	notice := "saved"
	if action == core.ActionApply {
		notice = "applied"
	}
	if actErr != nil {
		notice = "failed"
	}
	h.finish(w, r, monday, notice)
}

// ticketWeek parses a ticket's week, falling back to the current week.
func (h *Handler) ticketWeek(s string) time.Time {
	if d, err := core.ParseDate(s, h.Loc); err == nil {
		return core.MondayOf(d)
	}
	return h.currentMonday()
}

// finish closes the dialog by sending the browser back to the week.
func (h *Handler) finish(w http.ResponseWriter, r *http.Request, monday time.Time, notice string) {
	dest := weekURL(monday)
	if notice != "" {
		dest += "&notice=" + notice
	}
	if isHTMX(r) {
		w.Header().Set("HX-Redirect", dest)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, dest, http.StatusSeeOther)
}
