// internal/domain/planner/template.go
package planner

import "time"

// TemplateSlot is one selected hour of a weekly template. DayOfWeek uses
// time.Weekday numbering: Sunday = 0, Monday = 1.
type TemplateSlot struct {
	DayOfWeek int `json:"dayOfWeek"`
	Hour      int `json:"hour"`
}

// TemplateAction names the two template operations.
type TemplateAction string

const (
	ActionSave  TemplateAction = "save"
	ActionApply TemplateAction = "apply"
)

// ParseTemplateAction validates a raw action name.
func ParseTemplateAction(s string) (TemplateAction, bool) {
	switch TemplateAction(s) {
	case ActionSave, ActionApply:
		return TemplateAction(s), true
	}
	return "", false
}

// TemplateSlots collects the selected hours of the week starting at monday
// in grid order: Monday through Sunday, hours ascending. Selections
// outside that week are ignored.
func TemplateSlots(monday time.Time, sel Selection) []TemplateSlot {
	out := []TemplateSlot{}
	for _, date := range WeekDays(monday) {
		for _, h := range Hours() {
			if sel.Has(NewSlotKey(date, h)) {
				out = append(out, TemplateSlot{DayOfWeek: int(date.Weekday()), Hour: h})
			}
		}
	}
	return out
}
