// internal/domain/planner/drag.go
package planner

import "time"

// Cell addresses one grid cell by day index (0 = Monday) and hour.
type Cell struct {
	Day  int `json:"day"`
	Hour int `json:"hour"`
}

// Valid reports whether c lies inside the displayed grid.
func (c Cell) Valid() bool {
	return c.Day >= 0 && c.Day < DaysPerWeek && ValidHour(c.Hour)
}

// Rect is an inclusive day×hour rectangle.
type Rect struct {
	MinDay, MaxDay   int
	MinHour, MaxHour int
}

// RectBetween returns the rectangle spanned by a and b in either order.
func RectBetween(a, b Cell) Rect {
	return Rect{
		MinDay:  min(a.Day, b.Day),
		MaxDay:  max(a.Day, b.Day),
		MinHour: min(a.Hour, b.Hour),
		MaxHour: max(a.Hour, b.Hour),
	}
}

// Contains reports whether c lies inside r (edges included).
func (r Rect) Contains(c Cell) bool {
	return c.Day >= r.MinDay && c.Day <= r.MaxDay && c.Hour >= r.MinHour && c.Hour <= r.MaxHour
}

// Cells lists the cells of r, day by day, hours ascending within a day.
func (r Rect) Cells() []Cell {
	var out []Cell
	for d := r.MinDay; d <= r.MaxDay; d++ {
		for h := r.MinHour; h <= r.MaxHour; h++ {
			out = append(out, Cell{Day: d, Hour: h})
		}
	}
	return out
}

// DragGesture is the transient press/move/release state. It only exists
// between Begin and End and is never persisted.
type DragGesture struct {
	anchor  Cell
	current Cell
	active  bool
}

// Begin captures the pointer on c; c becomes both anchor and current cell.
func (g *DragGesture) Begin(c Cell) {
	g.anchor, g.current, g.active = c, c, true
}

// Update moves the current cell. Ignored while nothing is captured.
func (g *DragGesture) Update(c Cell) {
	if g.active {
		g.current = c
	}
}

// End releases the capture and returns the anchor and rectangle that were
// active. ok is false when no gesture was in progress.
func (g *DragGesture) End() (anchor Cell, rect Rect, ok bool) {
	if !g.active {
		return Cell{}, Rect{}, false
	}
	anchor, rect = g.anchor, RectBetween(g.anchor, g.current)
	*g = DragGesture{}
	return anchor, rect, true
}

// Active reports whether a gesture is captured.
func (g *DragGesture) Active() bool {
	return g.active
}

// Contains reports whether c is inside the live gesture rectangle.
func (g *DragGesture) Contains(c Cell) bool {
	return g.active && RectBetween(g.anchor, g.current).Contains(c)
}

// DragMode is the single direction a drag applies to every cell.
type DragMode int

const (
	ModeSelect DragMode = iota
	ModeDeselect
)

func (m DragMode) String() string {
	if m == ModeDeselect {
		return "deselect"
	}
	return "select"
}

// DragPlan is the outcome of planning a drag against a selection.
type DragPlan struct {
	Mode    DragMode
	Changes []SlotKey // in rectangle order
	Result  Selection // selection after the changes
}

// PlanDrag decides what a drag from anchor over rect does to sel in the
// week starting at monday. The anchor's membership alone picks the mode:
// a selected anchor deselects the whole rectangle, anything else selects
// it. Only cells disagreeing with the mode are changed, so repeating a
// drag is a no-op. sel is not modified.
func PlanDrag(sel Selection, monday time.Time, anchor Cell, rect Rect) DragPlan {
	mode := ModeSelect
	if sel.Has(NewSlotKey(AddDays(monday, anchor.Day), anchor.Hour)) {
		mode = ModeDeselect
	}

	result := sel.Clone()
	var changes []SlotKey
	for _, c := range rect.Cells() {
		k := NewSlotKey(AddDays(monday, c.Day), c.Hour)
		selected := result.Has(k)
		switch {
		case mode == ModeDeselect && selected:
			result.Remove(k)
			changes = append(changes, k)
		case mode == ModeSelect && !selected:
			result.Add(k)
			changes = append(changes, k)
		}
	}
	return DragPlan{Mode: mode, Changes: changes, Result: result}
}
