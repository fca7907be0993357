// internal/domain/planner/board.go
package planner

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// AvailabilityService is the server of record for selections and counts.
// Toggle flips the slot for the calling user; it is not idempotent.
type AvailabilityService interface {
	Snapshot(ctx context.Context, monday time.Time) (Snapshot, error)
	Toggle(ctx context.Context, key SlotKey) error
}

// TemplateService stores and applies the caller's weekly template.
type TemplateService interface {
	SaveTemplate(ctx context.Context, slots []TemplateSlot) error
	ApplyTemplate(ctx context.Context, monday time.Time) error
}

// Board holds one user's view of one week: the optimistic selection
// (pending), the last server snapshot (confirmed) and the drag gesture.
//
// A Board is driven by one goroutine at a time. Transport failures are
// logged and swallowed; the board then keeps showing the last snapshot.
type Board struct {
	avail AvailabilityService
	tmpl  TemplateService
	log   *zap.Logger

	monday    time.Time
	pending   Selection
	confirmed Snapshot
	drag      DragGesture
	synced    bool // last snapshot read succeeded

	goldenListeners []func([]GoldenSlot)
}

// Option configures a Board.
type Option func(*Board)

// WithGoldenListener registers fn to receive the golden windows each time
// the snapshot or the week changes.
func WithGoldenListener(fn func([]GoldenSlot)) Option {
	return func(b *Board) { b.goldenListeners = append(b.goldenListeners, fn) }
}

// NewBoard builds an empty board positioned on the week of monday.
func NewBoard(avail AvailabilityService, tmpl TemplateService, monday time.Time, logger *zap.Logger, opts ...Option) *Board {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &Board{
		avail:     avail,
		tmpl:      tmpl,
		log:       logger,
		monday:    MondayOf(monday),
		pending:   NewSelection(),
		confirmed: EmptySnapshot(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Week returns the Monday currently displayed.
func (b *Board) Week() time.Time { return b.monday }

// Selection returns a copy of the pending selection.
func (b *Board) Selection() Selection { return b.pending.Clone() }

// Aggregates returns the confirmed per-slot aggregates.
func (b *Board) Aggregates() Aggregates { return b.confirmed.Details }

// Synced reports whether the last snapshot read succeeded. It is false
// before the first load; callers then hold no server state to show.
func (b *Board) Synced() bool { return b.synced }

// LoadWeek switches to the week of monday and fetches its snapshot. On
// failure the previous snapshot stays in place; false is returned.
func (b *Board) LoadWeek(ctx context.Context, monday time.Time) bool {
	b.monday = MondayOf(monday)
	ok := b.refresh(ctx)
	if !ok {
		b.notifyGolden()
	}
	return ok
}

// refresh re-reads the snapshot and reconciles. Errors are logged only.
func (b *Board) refresh(ctx context.Context) bool {
	snap, err := b.avail.Snapshot(ctx, b.monday)
	b.synced = err == nil
	if err != nil {
		b.log.Warn("availability fetch failed",
			zap.String("week", FormatDate(b.monday)),
			zap.Error(err))
		return false
	}
	b.reconcile(snap)
	return true
}

// reconcile replaces the optimistic state with the server's.
func (b *Board) reconcile(snap Snapshot) {
	if snap.Mine == nil {
		snap.Mine = NewSelection()
	}
	if snap.Details == nil {
		snap.Details = Aggregates{}
	}
	b.confirmed = snap
	b.pending = snap.Mine.Clone()
	b.notifyGolden()
}

func (b *Board) notifyGolden() {
	if len(b.goldenListeners) == 0 {
		return
	}
	golden := b.GoldenSlots()
	for _, fn := range b.goldenListeners {
		fn(golden)
	}
}

// IsSelected reports pending membership of a slot.
func (b *Board) IsSelected(key SlotKey) bool {
	return b.pending.Has(key)
}

// ToggleSlot flips one slot optimistically, persists that single change,
// then re-fetches so counts come from the server. It returns whether the
// re-fetch succeeded. Load the week first: the optimistic flip is computed
// against whatever selection the board holds.
func (b *Board) ToggleSlot(ctx context.Context, date string, hour int) bool {
	key := SlotKey{Date: date, Hour: hour}
	b.pending.Toggle(key)

	if err := b.avail.Toggle(ctx, key); err != nil {
		b.log.Warn("slot toggle failed", zap.String("slot", key.String()), zap.Error(err))
	}
	return b.refresh(ctx)
}

// BeginDrag captures the pointer on a cell.
func (b *Board) BeginDrag(day, hour int) {
	b.drag.Begin(Cell{Day: day, Hour: hour})
}

// UpdateDrag follows the pointer; ignored when nothing is captured.
func (b *Board) UpdateDrag(day, hour int) {
	b.drag.Update(Cell{Day: day, Hour: hour})
}

// Dragging reports whether a gesture is captured.
func (b *Board) Dragging() bool { return b.drag.Active() }

// EndDrag releases the capture and commits the gesture, wherever the
// release happened. It returns the number of slots changed.
func (b *Board) EndDrag(ctx context.Context) int {
	if !b.drag.Active() {
		return 0
	}
	return b.ApplyDragSelection(ctx)
}

// ApplyDragSelection commits the live gesture: every slot that disagrees
// with the anchor-decided mode is flipped locally and persisted one call
// at a time, then the snapshot is re-fetched once.
func (b *Board) ApplyDragSelection(ctx context.Context) int {
	anchor, rect, ok := b.drag.End()
	if !ok {
		return 0
	}
	plan := PlanDrag(b.pending, b.monday, anchor, rect)
	b.pending = plan.Result

	for _, key := range plan.Changes {
		if err := b.avail.Toggle(ctx, key); err != nil {
			b.log.Warn("drag slot persist failed",
				zap.String("slot", key.String()),
				zap.String("mode", plan.Mode.String()),
				zap.Error(err))
		}
	}
	b.log.Debug("drag applied",
		zap.String("mode", plan.Mode.String()),
		zap.Int("changes", len(plan.Changes)))

	b.refresh(ctx)
	return len(plan.Changes)
}

// IsInDragZone reports whether the cell is inside the live gesture.
func (b *Board) IsInDragZone(day, hour int) bool {
	return b.drag.Contains(Cell{Day: day, Hour: hour})
}

// ShowsSelected is the rendered selection state: inside the drag zone the
// preview inverts the real state. That matches the committed result only
// because the mode is taken from the anchor.
func (b *Board) ShowsSelected(day, hour int) bool {
	selected := b.pending.Has(NewSlotKey(AddDays(b.monday, day), hour))
	if b.IsInDragZone(day, hour) {
		return !selected
	}
	return selected
}

// GoldenSlots lists the full 3-hour window starts of the displayed week.
func (b *Board) GoldenSlots() []GoldenSlot {
	return GoldenWindows(b.monday, b.confirmed.Details)
}

// IsGoldenCell applies the any-alignment styling rule to one cell.
func (b *Board) IsGoldenCell(day, hour int) bool {
	return IsGoldenCell(b.confirmed.Details, FormatDate(AddDays(b.monday, day)), hour)
}

// SaveTemplate sends the displayed week's selection as the weekly template,
// replacing any earlier one. Callers confirm with the user first.
func (b *Board) SaveTemplate(ctx context.Context) error {
	slots := TemplateSlots(b.monday, b.pending)
	if err := b.tmpl.SaveTemplate(ctx, slots); err != nil {
		b.log.Warn("template save failed", zap.Int("slots", len(slots)), zap.Error(err))
		return err
	}
	return nil
}

// ApplyTemplate asks the template service to overwrite the displayed
// week's selection, then re-fetches. Callers confirm with the user first.
func (b *Board) ApplyTemplate(ctx context.Context) error {
	if err := b.tmpl.ApplyTemplate(ctx, b.monday); err != nil {
		b.log.Warn("template apply failed", zap.String("week", FormatDate(b.monday)), zap.Error(err))
		return err
	}
	b.refresh(ctx)
	return nil
}

// RunTemplateAction dispatches to SaveTemplate or ApplyTemplate.
func (b *Board) RunTemplateAction(ctx context.Context, action TemplateAction) error {
	if action == ActionApply {
		return b.ApplyTemplate(ctx)
	}
	return b.SaveTemplate(ctx)
}
