// internal/app/features/planner/grid.go
package planner

import (
	"fmt"
	"time"

	"github.com/dalemusser/fiveplanner/internal/app/system/viewdata"
	core "github.com/dalemusser/fiveplanner/internal/domain/planner"
)

var monthNames = [12]string{
	"janvier", "février", "mars", "avril", "mai", "juin",
	"juillet", "août", "septembre", "octobre", "novembre", "décembre",
}

// Cell classes, in precedence order.
const (
	ClassGolden   = "cell-golden"
	ClassSelected = "cell-selected"
	ClassFull     = "cell-full"
	ClassOccupied = "cell-occupied"
	ClassEmpty    = "cell-empty"
	ClassPreview  = "cell-preview"
)

// WeekLabel renders a Monday the way the grid header shows it: "12 octobre".
func WeekLabel(monday time.Time) string {
	return fmt.Sprintf("%d %s", monday.Day(), monthNames[monday.Month()-1])
}

// HourLabel renders an hour row label: "19h".
func HourLabel(h int) string {
	return fmt.Sprintf("%dh", h)
}

// DayVM is one column header.
type DayVM struct {
	Label string // LUN..DIM
	Num   int    // day of month
	Date  string
	Today bool
}

// CellVM is everything a grid cell needs to render itself and its tooltip.
type CellVM struct {
	Day   int
	Hour  int
	Key   string // wire key, posted back on toggle
	Class string
	// Preview is set inside a live drag zone; Class then shows the state
	// the gesture will produce.
	Preview   bool
	Golden    bool
	Count     int
	ShowCount bool
	Header    string // tooltip heading: "MATCH 3H" or "n/10"
	Users     []core.Participant
}

// RowVM is one hour across the seven days.
type RowVM struct {
	Hour  int
	Label string
	Cells []CellVM
}

// GridVM is the rendered week.
type GridVM struct {
	Week      string // Monday, YYYY-MM-DD
	WeekLabel string
	PrevURL   string
	NextURL   string
	Days      []DayVM
	Rows      []RowVM
	Golden    []viewdata.GoldenVM
	// Stale is set when the snapshot could not be loaded; the grid then
	// shows whatever the board last held.
	Stale     bool
	CSRFToken string
}

// cellClass applies the precedence golden > selected > full > occupied > empty.
func cellClass(golden, selected, full bool, count int) string {
	switch {
	case golden:
		return ClassGolden
	case selected:
		return ClassSelected
	case full:
		return ClassFull
	case count > 0:
		return ClassOccupied
	default:
		return ClassEmpty
	}
}

// tooltipHeader is "MATCH 3H" on golden cells and "count/10" elsewhere.
func tooltipHeader(golden bool, count int) string {
	if golden {
		return "MATCH 3H"
	}
	return fmt.Sprintf("%d/%d", count, core.MatchSize)
}

// NewGridVM builds the view of the board's week. The column whose date
// matches now, in the week's location, is marked as today.
func NewGridVM(b *core.Board, now time.Time) GridVM {
	monday := b.Week()
	agg := b.Aggregates()
	todayStr := core.FormatDate(now.In(monday.Location()))

	vm := GridVM{
		Week:      core.FormatDate(monday),
		WeekLabel: WeekLabel(monday),
		PrevURL:   shiftURL(monday, -1),
		NextURL:   shiftURL(monday, 1),
		Golden:    GoldenSummary(b.GoldenSlots()),
	}

	days := core.WeekDays(monday)
	for i, d := range days {
		ds := core.FormatDate(d)
		vm.Days = append(vm.Days, DayVM{
			Label: core.DayLabels[i],
			Num:   d.Day(),
			Date:  ds,
			Today: ds == todayStr,
		})
	}

	for _, h := range core.Hours() {
		row := RowVM{Hour: h, Label: HourLabel(h)}
		for i, d := range days {
			key := core.NewSlotKey(d, h)
			slot := agg[key]
			golden := b.IsGoldenCell(i, h)
			row.Cells = append(row.Cells, CellVM{
				Day:       i,
				Hour:      h,
				Key:       key.String(),
				Class:     cellClass(golden, b.ShowsSelected(i, h), agg.Full(key.Date, h), slot.Count),
				Preview:   b.IsInDragZone(i, h),
				Golden:    golden,
				Count:     slot.Count,
				ShowCount: slot.Count > 0,
				Header:    tooltipHeader(golden, slot.Count),
				Users:     slot.Users,
			})
		}
		vm.Rows = append(vm.Rows, row)
	}
	return vm
}

// GoldenSummary turns detector output into navbar entries.
func GoldenSummary(slots []core.GoldenSlot) []viewdata.GoldenVM {
	out := make([]viewdata.GoldenVM, 0, len(slots))
	for _, g := range slots {
		out = append(out, viewdata.GoldenVM{
			Day:   g.Day,
			Hour:  g.Hour,
			Date:  core.FormatDate(g.Date),
			Label: fmt.Sprintf("%s %dh-%dh", g.Day, g.Hour, g.Hour+core.WindowSize),
		})
	}
	return out
}

// weekURL is the canonical planner URL for the week starting at monday.
func weekURL(monday time.Time) string {
	return "/planner?week=" + core.FormatDate(monday)
}

func shiftURL(monday time.Time, delta int) string {
	return fmt.Sprintf("%s&shift=%d", weekURL(monday), delta)
}
