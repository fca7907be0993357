package confirmations_test

import (
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/fiveplanner/internal/app/store/confirmations"
	"github.com/dalemusser/fiveplanner/internal/testutil"
)

func TestStore_IssueAndConsume(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := confirmations.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ticket, err := store.Issue(ctx, "user-1", "save", "2025-10-13", time.Minute)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if ticket.ID == "" {
		t.Fatal("Issue returned empty ticket id")
	}

	got, ok, err := store.Consume(ctx, ticket.ID, "user-1")
	if err != nil {
		t.Fatalf("Consume failed: %v", err)
	}
	if !ok {
		t.Fatal("expected ticket to be consumable")
	}
	if got.Action != "save" || got.Week != "2025-10-13" {
		t.Errorf("unexpected ticket %+v", got)
	}
}

func TestStore_Consume_OnlyOnce(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := confirmations.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ticket, err := store.Issue(ctx, "user-1", "apply", "2025-10-13", time.Minute)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	// Two decisions racing: exactly one wins.
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok, err := store.Consume(ctx, ticket.ID, "user-1")
			if err != nil {
				t.Errorf("Consume error: %v", err)
				return
			}
			if ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Errorf("expected exactly one decision, got %d", wins)
	}
}

func TestStore_Consume_OtherUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := confirmations.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ticket, err := store.Issue(ctx, "user-1", "save", "2025-10-13", time.Minute)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if _, ok, _ := store.Consume(ctx, ticket.ID, "user-2"); ok {
		t.Error("another user consumed the ticket")
	}
	if _, ok, _ := store.Consume(ctx, ticket.ID, "user-1"); !ok {
		t.Error("owner could not consume after a foreign attempt")
	}
}

func TestStore_Consume_Expired(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := confirmations.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	ticket, err := store.Issue(ctx, "user-1", "save", "2025-10-13", -time.Minute)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if _, ok, _ := store.Consume(ctx, ticket.ID, "user-1"); ok {
		t.Error("expired ticket was consumed")
	}

	deleted, err := store.CleanupExpired(ctx)
	if err != nil {
		t.Fatalf("CleanupExpired failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("expected 1 deleted, got %d", deleted)
	}
}
