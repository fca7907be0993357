// internal/app/features/planner/actions.go
package planner

import (
	"net/http"
	"strconv"
	"strings"

	core "github.com/dalemusser/fiveplanner/internal/domain/planner"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| POST /planner/toggle                                                         |
| Form: slot=YYYY-MM-DD-H. Flips one slot and re-reads the week.               |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeToggle(w http.ResponseWriter, r *http.Request) {
	u, ok := signedInUser(w, r)
	if !ok {
		return
	}

	key, err := core.ParseSlotKey(strings.TrimSpace(r.FormValue("slot")))
	if err != nil || !core.ValidHour(key.Hour) {
		http.Error(w, "invalid slot", http.StatusBadRequest)
		return
	}
	date, err := core.ParseDate(key.Date, h.Loc)
	if err != nil {
		http.Error(w, "invalid slot", http.StatusBadRequest)
		return
	}

	monday := core.MondayOf(date)
	board := h.newBoard(u, monday)

	// The flip is computed against the loaded selection; toggling an
	// unloaded board would post the opposite of what the user sees.
	if !board.LoadWeek(r.Context(), monday) {
		h.Log.Warn("toggle skipped: week not loaded",
			zap.String("user_id", u.ID),
			zap.String("slot", key.String()))
		h.respondGrid(w, r, board)
		return
	}
	if !board.ToggleSlot(r.Context(), key.Date, key.Hour) {
		h.Log.Warn("toggle applied but read-back failed",
			zap.String("user_id", u.ID),
			zap.String("slot", key.String()))
	}

	h.respondGrid(w, r, board)
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /planner/drag                                                           |
| Form: week, anchor_day, anchor_hour, end_day, end_hour.                      |
| The browser captures the gesture and posts it on release.                    |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeDrag(w http.ResponseWriter, r *http.Request) {
	u, ok := signedInUser(w, r)
	if !ok {
		return
	}

	monday, err := h.weekParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	anchor, ok1 := formCell(r, "anchor")
	end, ok2 := formCell(r, "end")
	if !ok1 || !ok2 {
		http.Error(w, "invalid drag cells", http.StatusBadRequest)
		return
	}

	board := h.newBoard(u, monday)

	// The anchor's current membership decides select versus deselect, so
	// without a snapshot nothing is applied.
	if !board.LoadWeek(r.Context(), monday) {
		h.Log.Warn("drag skipped: week not loaded",
			zap.String("user_id", u.ID),
			zap.String("week", core.FormatDate(monday)))
		h.respondGrid(w, r, board)
		return
	}

	board.BeginDrag(anchor.Day, anchor.Hour)
	board.UpdateDrag(end.Day, end.Hour)
	changed := board.EndDrag(r.Context())

	h.Log.Debug("drag committed",
		zap.String("user_id", u.ID),
		zap.String("week", core.FormatDate(monday)),
		zap.Int("changed", changed),
		zap.Bool("synced", board.Synced()))

	h.respondGrid(w, r, board)
}

// formCell reads <prefix>_day and <prefix>_hour and checks the cell is on the grid.
func formCell(r *http.Request, prefix string) (core.Cell, bool) {
	day, err := strconv.Atoi(strings.TrimSpace(r.FormValue(prefix + "_day")))
	if err != nil {
		return core.Cell{}, false
	}
	hour, err := strconv.Atoi(strings.TrimSpace(r.FormValue(prefix + "_hour")))
	if err != nil {
		return core.Cell{}, false
	}
	c := core.Cell{Day: day, Hour: hour}
	return c, c.Valid()
}
