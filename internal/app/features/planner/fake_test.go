package planner_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dalemusser/fiveplanner/internal/app/features/planner"
	"github.com/dalemusser/fiveplanner/internal/app/store/confirmations"
	"github.com/dalemusser/fiveplanner/internal/app/system/auth"
	core "github.com/dalemusser/fiveplanner/internal/domain/planner"
	"go.uber.org/zap"
)

// fakeBackend plays the availability and template services for one user.
// counts are other users' participation; the user's own slots add one.
type fakeBackend struct {
	mu       sync.Mutex
	mine     core.Selection
	counts   map[core.SlotKey]int
	toggles  []core.SlotKey
	saved    [][]core.TemplateSlot
	applied  []time.Time
	users    []string // DiscordIDs the factory was asked for
	failSnap bool
	failSave bool
	// failReadBack fails every snapshot taken after the first toggle.
	failReadBack bool
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{mine: core.NewSelection(), counts: map[core.SlotKey]int{}}
}

func (f *fakeBackend) Snapshot(_ context.Context, _ time.Time) (core.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSnap || (f.failReadBack && len(f.toggles) > 0) {
		return core.Snapshot{}, errors.New("unreachable")
	}
	snap := core.EmptySnapshot()
	for k, n := range f.counts {
		snap.Details[k] = core.SlotAggregate{Count: n}
	}
	for k := range f.mine {
		snap.Mine.Add(k)
		agg := snap.Details[k]
		agg.Count++
		agg.Users = append(agg.Users, core.Participant{Name: "me", Image: "https://cdn.example/me.png"})
		snap.Details[k] = agg
	}
	return snap, nil
}

func (f *fakeBackend) Toggle(_ context.Context, k core.SlotKey) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.toggles = append(f.toggles, k)
	f.mine.Toggle(k)
	return nil
}

func (f *fakeBackend) SaveTemplate(_ context.Context, slots []core.TemplateSlot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSave {
		return errors.New("status 500")
	}
	f.saved = append(f.saved, slots)
	return nil
}

func (f *fakeBackend) ApplyTemplate(_ context.Context, monday time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.applied = append(f.applied, monday)
	return nil
}

func (f *fakeBackend) factory() planner.ClientFactory {
	return func(u auth.SessionUser) (core.AvailabilityService, core.TemplateService) {
		f.mu.Lock()
		f.users = append(f.users, u.DiscordID)
		f.mu.Unlock()
		return f, f
	}
}

// fixedNow is Friday 2026-10-16; its week starts on Monday 2026-10-12.
var fixedNow = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

func newHandler(f *fakeBackend, tickets *confirmations.Store) *planner.Handler {
	h := planner.NewHandler(f.factory(), tickets, nil, time.UTC, time.Minute, zap.NewNop())
	h.Now = func() time.Time { return fixedNow }
	return h
}

func key(date string, hour int) core.SlotKey {
	return core.SlotKey{Date: date, Hour: hour}
}
