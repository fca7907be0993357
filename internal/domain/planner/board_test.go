package planner_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dalemusser/fiveplanner/internal/domain/planner"
	"go.uber.org/zap"
)

// fakeService behaves like the remote availability/template API for one
// user: Toggle flips, Snapshot reports the user plus `others` per slot.
type fakeService struct {
	mine      planner.Selection
	others    map[planner.SlotKey]int
	template  []planner.TemplateSlot
	toggles   []planner.SlotKey
	snapshots int
	applied   []time.Time

	failSnapshot bool
	failToggle   bool
}

func newFakeService() *fakeService {
	return &fakeService{mine: planner.NewSelection(), others: map[planner.SlotKey]int{}}
}

func (f *fakeService) Snapshot(_ context.Context, monday time.Time) (planner.Snapshot, error) {
	f.snapshots++
	if f.failSnapshot {
		return planner.Snapshot{}, errors.New("unreachable")
	}
	snap := planner.EmptySnapshot()
	for k := range f.mine {
		snap.Mine.Add(k)
	}
	for k, n := range f.others {
		agg := snap.Details[k]
		agg.Count += n
		snap.Details[k] = agg
	}
	for k := range f.mine {
		agg := snap.Details[k]
		agg.Count++
		agg.Users = append(agg.Users, planner.Participant{Name: "me"})
		snap.Details[k] = agg
	}
	return snap, nil
}

func (f *fakeService) Toggle(_ context.Context, k planner.SlotKey) error {
	f.toggles = append(f.toggles, k)
	if f.failToggle {
		return errors.New("status 500")
	}
	f.mine.Toggle(k)
	return nil
}

func (f *fakeService) SaveTemplate(_ context.Context, slots []planner.TemplateSlot) error {
	f.template = slots
	return nil
}

func (f *fakeService) ApplyTemplate(_ context.Context, monday time.Time) error {
	f.applied = append(f.applied, monday)
	days := planner.WeekDays(monday)
	for _, d := range days {
		for _, h := range planner.Hours() {
			f.mine.Remove(planner.NewSlotKey(d, h))
		}
	}
	for _, s := range f.template {
		// dayOfWeek 0 (Sunday) is the last grid column.
		idx := (s.DayOfWeek + 6) % 7
		f.mine.Add(planner.NewSlotKey(days[idx], s.Hour))
	}
	return nil
}

func newBoard(t *testing.T, svc *fakeService, opts ...planner.Option) *planner.Board {
	t.Helper()
	b := planner.NewBoard(svc, svc, testMonday, zap.NewNop(), opts...)
	if !b.LoadWeek(context.Background(), testMonday) {
		t.Fatal("initial LoadWeek failed")
	}
	return b
}

func TestBoard_ToggleTwiceRestoresMembership(t *testing.T) {
	ctx := context.Background()
	svc := newFakeService()
	b := newBoard(t, svc)
	k := planner.SlotKey{Date: "2025-10-14", Hour: 18}

	b.ToggleSlot(ctx, k.Date, k.Hour)
	if !b.IsSelected(k) {
		t.Fatal("slot not selected after first toggle")
	}
	if got := b.Aggregates().Count(k); got != 1 {
		t.Errorf("count after toggle = %d, want 1 (from server)", got)
	}

	b.ToggleSlot(ctx, k.Date, k.Hour)
	if b.IsSelected(k) {
		t.Error("slot still selected after second toggle")
	}
	if len(svc.toggles) != 2 || svc.snapshots != 3 {
		t.Errorf("toggles=%d snapshots=%d, want 2 and 3", len(svc.toggles), svc.snapshots)
	}
}

func TestBoard_ToggleFailureConvergesToServer(t *testing.T) {
	ctx := context.Background()
	svc := newFakeService()
	b := newBoard(t, svc)
	svc.failToggle = true

	b.ToggleSlot(ctx, "2025-10-14", 18)
	if b.IsSelected(planner.SlotKey{Date: "2025-10-14", Hour: 18}) {
		t.Error("optimistic flip survived a failed toggle and refetch")
	}
}

func TestBoard_LoadWeekFailureKeepsPriorState(t *testing.T) {
	ctx := context.Background()
	svc := newFakeService()
	k := planner.SlotKey{Date: "2025-10-13", Hour: 9}
	svc.mine.Add(k)
	b := newBoard(t, svc)

	svc.failSnapshot = true
	if b.LoadWeek(ctx, planner.AddDays(testMonday, 7)) {
		t.Fatal("LoadWeek reported success on transport error")
	}
	if !b.IsSelected(k) {
		t.Error("prior selection dropped after failed load")
	}
	if planner.FormatDate(b.Week()) != "2025-10-20" {
		t.Errorf("Week() = %s", planner.FormatDate(b.Week()))
	}
}

func TestBoard_ToggleReportsFailedReadBack(t *testing.T) {
	ctx := context.Background()
	svc := newFakeService()
	mon19 := planner.SlotKey{Date: "2025-10-13", Hour: 19}
	svc.mine.Add(mon19)
	svc.mine.Add(planner.SlotKey{Date: "2025-10-14", Hour: 9})
	b := newBoard(t, svc)
	if !b.Synced() {
		t.Fatal("board not synced after successful load")
	}

	svc.failSnapshot = true
	if b.ToggleSlot(ctx, mon19.Date, mon19.Hour) {
		t.Fatal("ToggleSlot reported success with a failed read-back")
	}
	if b.Synced() {
		t.Error("Synced() true after failed read-back")
	}
	if svc.mine.Has(mon19) {
		t.Error("server still holds the toggled-off slot")
	}
}

func TestBoard_NotSyncedBeforeLoad(t *testing.T) {
	svc := newFakeService()
	svc.failSnapshot = true
	b := planner.NewBoard(svc, svc, testMonday, zap.NewNop())
	if b.Synced() {
		t.Error("fresh board reports synced")
	}
	if b.LoadWeek(context.Background(), testMonday) || b.Synced() {
		t.Error("failed load reported as synced")
	}
}

func TestBoard_DragDeselectThenReselect(t *testing.T) {
	ctx := context.Background()
	svc := newFakeService()
	for d := 0; d <= 2; d++ {
		for h := 10; h <= 12; h++ {
			svc.mine.Add(planner.NewSlotKey(planner.AddDays(testMonday, d), h))
		}
	}
	b := newBoard(t, svc)
	before := svc.snapshots

	b.BeginDrag(0, 10)
	b.UpdateDrag(2, 12)
	if n := b.EndDrag(ctx); n != 9 {
		t.Fatalf("deselect drag changed %d slots, want 9", n)
	}
	if len(b.Selection()) != 0 || len(svc.mine) != 0 {
		t.Errorf("after deselect: board=%d server=%d", len(b.Selection()), len(svc.mine))
	}
	if svc.snapshots != before+1 {
		t.Errorf("drag refetched %d times, want once", svc.snapshots-before)
	}

	b.BeginDrag(2, 12)
	b.UpdateDrag(0, 10)
	if n := b.EndDrag(ctx); n != 9 {
		t.Fatalf("reselect drag changed %d slots, want 9", n)
	}
	if len(b.Selection()) != 9 || len(svc.mine) != 9 {
		t.Errorf("after reselect: board=%d server=%d", len(b.Selection()), len(svc.mine))
	}
}

func TestBoard_DragIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc := newFakeService()
	b := newBoard(t, svc)

	b.BeginDrag(3, 8)
	b.UpdateDrag(3, 9)
	b.EndDrag(ctx)
	sent := len(svc.toggles)

	// Anchor outside the selection in a partly selected rect: select pass
	// only sends the missing cells.
	b.BeginDrag(3, 10)
	b.UpdateDrag(3, 8)
	if n := b.EndDrag(ctx); n != 1 {
		t.Errorf("second drag changed %d, want 1", n)
	}
	if len(svc.toggles) != sent+1 {
		t.Errorf("sent %d toggles, want 1", len(svc.toggles)-sent)
	}
}

func TestBoard_SingleCellDragEqualsToggle(t *testing.T) {
	ctx := context.Background()
	dragSvc, toggleSvc := newFakeService(), newFakeService()
	dragBoard, toggleBoard := newBoard(t, dragSvc), newBoard(t, toggleSvc)

	dragBoard.BeginDrag(4, 17)
	dragBoard.EndDrag(ctx)
	toggleBoard.ToggleSlot(ctx, planner.FormatDate(planner.AddDays(testMonday, 4)), 17)

	if len(dragBoard.Selection()) != 1 || len(toggleBoard.Selection()) != 1 {
		t.Fatalf("drag=%v toggle=%v", dragBoard.Selection(), toggleBoard.Selection())
	}
	for k := range dragBoard.Selection() {
		if !toggleBoard.IsSelected(k) {
			t.Errorf("drag selected %v, toggle did not", k)
		}
	}
}

func TestBoard_EndDragWithoutGestureIsNoop(t *testing.T) {
	svc := newFakeService()
	b := newBoard(t, svc)
	b.UpdateDrag(1, 10)
	if n := b.EndDrag(context.Background()); n != 0 || len(svc.toggles) != 0 {
		t.Errorf("EndDrag without BeginDrag changed %d and sent %d", n, len(svc.toggles))
	}
}

func TestBoard_DragPreviewInvertsState(t *testing.T) {
	svc := newFakeService()
	svc.mine.Add(planner.NewSlotKey(planner.AddDays(testMonday, 1), 10))
	b := newBoard(t, svc)

	b.BeginDrag(1, 10)
	b.UpdateDrag(1, 11)
	if !b.IsInDragZone(1, 11) || b.IsInDragZone(2, 11) {
		t.Error("drag zone wrong")
	}
	if b.ShowsSelected(1, 10) {
		t.Error("selected anchor should preview as deselected")
	}
	if !b.ShowsSelected(1, 11) {
		t.Error("unselected cell in zone should preview as selected")
	}
	if b.ShowsSelected(2, 10) {
		t.Error("cell outside zone should show its real state")
	}
}

func TestBoard_GoldenListener(t *testing.T) {
	ctx := context.Background()
	svc := newFakeService()
	for _, h := range []int{19, 20, 21} {
		svc.others[planner.SlotKey{Date: "2025-10-13", Hour: h}] = planner.MatchSize
	}
	var got [][]planner.GoldenSlot
	b := newBoard(t, svc, planner.WithGoldenListener(func(g []planner.GoldenSlot) { got = append(got, g) }))

	if len(got) != 1 || len(got[0]) != 1 || got[0][0].Day != "LUN" || got[0][0].Hour != 19 {
		t.Fatalf("golden after load = %+v", got)
	}
	for _, h := range []int{19, 20, 21} {
		if !b.IsGoldenCell(0, h) {
			t.Errorf("cell %d not golden", h)
		}
	}
	if b.IsGoldenCell(0, 18) || b.IsGoldenCell(0, 22) {
		t.Error("neighbouring cells styled golden")
	}

	b.LoadWeek(ctx, planner.AddDays(testMonday, 7))
	if len(got) != 2 || len(got[1]) != 0 {
		t.Errorf("golden after week change = %+v", got)
	}
}

func TestBoard_EmptyWeek(t *testing.T) {
	b := newBoard(t, newFakeService())
	if len(b.GoldenSlots()) != 0 {
		t.Error("golden slots on empty week")
	}
	for d := 0; d < planner.DaysPerWeek; d++ {
		for _, h := range planner.Hours() {
			if b.Aggregates().Count(planner.NewSlotKey(planner.AddDays(testMonday, d), h)) != 0 {
				t.Fatalf("count on empty week at %d/%d", d, h)
			}
		}
	}
}

func TestBoard_SaveTemplate(t *testing.T) {
	ctx := context.Background()
	svc := newFakeService()
	svc.mine.Add(planner.SlotKey{Date: "2025-10-13", Hour: 14})
	svc.mine.Add(planner.SlotKey{Date: "2025-10-14", Hour: 15})
	b := newBoard(t, svc)

	if err := b.SaveTemplate(ctx); err != nil {
		t.Fatalf("SaveTemplate: %v", err)
	}
	want := []planner.TemplateSlot{{DayOfWeek: 1, Hour: 14}, {DayOfWeek: 2, Hour: 15}}
	if len(svc.template) != 2 || svc.template[0] != want[0] || svc.template[1] != want[1] {
		t.Errorf("template = %+v, want %+v", svc.template, want)
	}
}

func TestBoard_ApplyTemplateRefetches(t *testing.T) {
	ctx := context.Background()
	svc := newFakeService()
	svc.template = []planner.TemplateSlot{{DayOfWeek: 0, Hour: 20}}
	b := newBoard(t, svc)
	b.LoadWeek(ctx, planner.AddDays(testMonday, 7))

	if err := b.RunTemplateAction(ctx, planner.ActionApply); err != nil {
		t.Fatalf("ApplyTemplate: %v", err)
	}
	if len(svc.applied) != 1 || planner.FormatDate(svc.applied[0]) != "2025-10-20" {
		t.Errorf("applied = %v", svc.applied)
	}
	if !b.IsSelected(planner.SlotKey{Date: "2025-10-26", Hour: 20}) {
		t.Error("applied template not visible after refetch")
	}
}
