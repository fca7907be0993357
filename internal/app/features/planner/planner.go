// internal/app/features/planner/planner.go
package planner

import (
	"encoding/json"
	"net/http"
	"strconv"

	errorsfeature "github.com/dalemusser/fiveplanner/internal/app/features/errors"
	"github.com/dalemusser/fiveplanner/internal/app/system/viewdata"
	core "github.com/dalemusser/fiveplanner/internal/domain/planner"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

// notices are the one-line results shown above the grid after a
// confirmed template action.
var notices = map[string]string{
	"saved":   "Modèle sauvegardé.",
	"applied": "Modèle appliqué.",
	"failed":  "L'action a échoué. Réessayez.",
}

type pageData struct {
	viewdata.BaseVM
	Grid   GridVM
	Notice string
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /planner?week=YYYY-MM-DD[&shift=n]                                       |
| A shift moves the week cursor and redirects to the canonical URL.            |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServePlanner(w http.ResponseWriter, r *http.Request) {
	u, ok := signedInUser(w, r)
	if !ok {
		return
	}

	monday, err := h.weekParam(r)
	if err != nil {
		errorsfeature.RenderBadRequest(w, r, "Semaine invalide.")
		return
	}

	if s := query.Get(r, "shift"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			errorsfeature.RenderBadRequest(w, r, "Décalage de semaine invalide.")
			return
		}
		cursor := core.NewWeekCursor(monday)
		cursor.Shift(n)
		http.Redirect(w, r, weekURL(cursor.Current()), http.StatusSeeOther)
		return
	}

	var golden []core.GoldenSlot
	board := h.newBoard(u, monday, core.WithGoldenListener(func(g []core.GoldenSlot) { golden = g }))
	loaded := board.LoadWeek(r.Context(), monday)

	grid := NewGridVM(board, h.Now())
	grid.Stale = !loaded

	base := viewdata.NewBaseVM(r, "Planning", "/planner")
	base.Golden = GoldenSummary(golden)
	grid.CSRFToken = base.CSRFToken

	templates.Render(w, r, "planner", pageData{
		BaseVM: base,
		Grid:   grid,
		Notice: notices[query.Get(r, "notice")],
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /planner/golden?week=YYYY-MM-DD                                          |
| Golden windows of one week as JSON.                                          |
*─────────────────────────────────────────────────────────────────────────────*/

type goldenJSON struct {
	Day  string `json:"day"`
	Hour int    `json:"hour"`
	Date string `json:"date"`
}

type goldenResponse struct {
	Week   string       `json:"week"`
	Stale  bool         `json:"stale,omitempty"`
	Golden []goldenJSON `json:"golden"`
}

func (h *Handler) ServeGolden(w http.ResponseWriter, r *http.Request) {
	u, ok := signedInUser(w, r)
	if !ok {
		return
	}

	monday, err := h.weekParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	board := h.newBoard(u, monday)
	loaded := board.LoadWeek(r.Context(), monday)

	resp := goldenResponse{
		Week:   core.FormatDate(monday),
		Stale:  !loaded,
		Golden: []goldenJSON{},
	}
	for _, g := range board.GoldenSlots() {
		resp.Golden = append(resp.Golden, goldenJSON{Day: g.Day, Hour: g.Hour, Date: core.FormatDate(g.Date)})
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.Log.Warn("golden: encode response", zap.Error(err))
	}
}

// staleEvent is triggered on the grid when a mutation could not be read
// back; planner.js marks the grid stale and keeps it as it was.
const staleEvent = "planner-stale"

// respondGrid finishes a grid mutation: HTMX callers get the grid snippet
// (with the navbar summary swapped out of band), others a redirect. A board
// whose last read failed holds no server state, so HTMX callers get no swap
// and a stale event instead of an empty grid.
func (h *Handler) respondGrid(w http.ResponseWriter, r *http.Request, board *core.Board) {
	if !isHTMX(r) {
		http.Redirect(w, r, weekURL(board.Week()), http.StatusSeeOther)
		return
	}
	if !board.Synced() {
		w.Header().Set("HX-Reswap", "none")
		w.Header().Set("HX-Trigger", staleEvent)
		w.WriteHeader(http.StatusOK)
		return
	}
	grid := NewGridVM(board, h.Now())
	grid.CSRFToken = viewdata.NewBaseVM(r, "", "/planner").CSRFToken
	templates.RenderSnippet(w, "planner_grid_swap", grid)
}
