// internal/domain/planner/golden.go
package planner

import "time"

// GoldenSlot is the start of a 3-hour window in which every hour is full.
type GoldenSlot struct {
	Day  string    `json:"day"`
	Hour int       `json:"hour"`
	Date time.Time `json:"date"`
}

// lastWindowStart is the latest hour a full window can start at without
// running past LastHour.
const lastWindowStart = LastHour - WindowSize + 1

// GoldenWindows lists every qualifying window start in the week beginning
// at monday, day by day and hour by hour. Overlapping windows are reported
// separately: full hours 19..22 yield entries at 19 and 20.
func GoldenWindows(monday time.Time, agg Aggregates) []GoldenSlot {
	var out []GoldenSlot
	for i, date := range WeekDays(monday) {
		ds := FormatDate(date)
		for h := FirstHour; h <= lastWindowStart; h++ {
			if agg.Full(ds, h) && agg.Full(ds, h+1) && agg.Full(ds, h+2) {
				out = append(out, GoldenSlot{Day: DayLabels[i], Hour: h, Date: date})
			}
		}
	}
	return out
}

// IsGoldenCell reports whether the cell belongs to any full 3-hour window,
// whatever its alignment. It is computed separately from GoldenWindows and
// the two need not agree.
func IsGoldenCell(agg Aggregates, date string, hour int) bool {
	if !agg.Full(date, hour) {
		return false
	}
	prev2 := agg.Full(date, hour-2)
	prev1 := agg.Full(date, hour-1)
	next1 := agg.Full(date, hour+1)
	next2 := agg.Full(date, hour+2)
	return (prev2 && prev1) || (prev1 && next1) || (next1 && next2)
}
