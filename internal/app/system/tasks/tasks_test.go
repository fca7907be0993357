package tasks_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dalemusser/fiveplanner/internal/app/store/confirmations"
	"github.com/dalemusser/fiveplanner/internal/app/store/oauthstate"
	"github.com/dalemusser/fiveplanner/internal/app/system/ratelimit"
	"github.com/dalemusser/fiveplanner/internal/app/system/tasks"
	"github.com/dalemusser/fiveplanner/internal/testutil"
	"go.uber.org/zap"
)

func TestScheduler_AddValidates(t *testing.T) {
	s := tasks.New(zap.NewNop())
	if err := s.Add(tasks.Job{Name: "no-run", Interval: time.Minute}); err == nil {
		t.Error("expected error for job without Run")
	}
	noop := func(context.Context) error { return nil }
	if err := s.Add(tasks.Job{Name: "no-schedule", Run: noop}); err == nil {
		t.Error("expected error for job without schedule")
	}
	if err := s.Add(tasks.Job{Name: "bad-spec", Spec: "every tuesday", Run: noop}); err == nil {
		t.Error("expected error for bad cron spec")
	}
	if err := s.Add(tasks.Job{Name: "ok", Spec: "*/5 * * * *", Run: noop}); err != nil {
		t.Errorf("valid spec rejected: %v", err)
	}
	if s.Len() != 1 {
		t.Errorf("Len: got %d, want 1", s.Len())
	}
}

func TestScheduler_RunsJob(t *testing.T) {
	s := tasks.New(zap.NewNop())
	var runs atomic.Int32
	ran := make(chan struct{}, 1)
	err := s.Add(tasks.Job{
		Name:     "tick",
		Interval: time.Second,
		Run: func(ctx context.Context) error {
			if runs.Add(1) == 1 {
				ran <- struct{}{}
			}
			return nil
		},
	})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	s.Start()
	defer s.Stop(context.Background())

	select {
	case <-ran:
	case <-time.After(3 * time.Second):
		t.Fatal("job did not run")
	}
}

func TestRateLimitSweepJob(t *testing.T) {
	l := ratelimit.New(60, 1)
	l.Allow("a")
	job := tasks.RateLimitSweepJob(zap.NewNop(), l)
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if l.Len() != 1 {
		t.Error("recent bucket should survive a sweep")
	}
}

func TestCleanupJobs(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	states := oauthstate.New(db)
	if err := states.Save(ctx, "expired-state", "/planner", time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	tickets := confirmations.New(db)
	if _, err := tickets.Issue(ctx, "u1", "save", "2025-10-13", -time.Minute); err != nil {
		t.Fatalf("Issue: %v", err)
	}

	for _, job := range []tasks.Job{
		tasks.OAuthStateCleanupJob(states, zap.NewNop()),
		tasks.ConfirmationCleanupJob(tickets, zap.NewNop()),
	} {
		if err := job.Run(ctx); err != nil {
			t.Fatalf("%s: %v", job.Name, err)
		}
	}

	if _, valid, _ := states.Consume(ctx, "expired-state"); valid {
		t.Error("expired state should be gone")
	}
	n, err := db.Collection("confirmation_tickets").CountDocuments(ctx, map[string]any{})
	if err != nil {
		t.Fatalf("CountDocuments: %v", err)
	}
	if n != 0 {
		t.Errorf("expected tickets purged, got %d", n)
	}
}
