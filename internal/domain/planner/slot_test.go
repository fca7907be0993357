package planner_test

import (
	"errors"
	"testing"

	"github.com/dalemusser/fiveplanner/internal/domain/planner"
)

func TestHours(t *testing.T) {
	hours := planner.Hours()
	if len(hours) != 16 {
		t.Fatalf("len(Hours()) = %d, want 16", len(hours))
	}
	if hours[0] != 8 || hours[15] != 23 {
		t.Errorf("Hours() = %v", hours)
	}
}

func TestSlotKey_RoundTrip(t *testing.T) {
	k := planner.SlotKey{Date: "2025-10-13", Hour: 9}
	if k.String() != "2025-10-13-9" {
		t.Errorf("String() = %q", k.String())
	}
	got, err := planner.ParseSlotKey("2025-10-13-21")
	if err != nil {
		t.Fatalf("ParseSlotKey: %v", err)
	}
	if got != (planner.SlotKey{Date: "2025-10-13", Hour: 21}) {
		t.Errorf("ParseSlotKey = %+v", got)
	}
}

func TestParseSlotKey_Invalid(t *testing.T) {
	for _, s := range []string{"", "2025-10-13", "2025-10-13-", "2025-13-40-9", "2025-10-13-x", "2025-10-13-24", "-9"} {
		if _, err := planner.ParseSlotKey(s); !errors.Is(err, planner.ErrInvalidSlotKey) {
			t.Errorf("ParseSlotKey(%q) err = %v, want ErrInvalidSlotKey", s, err)
		}
	}
}

func TestSelection_NoDuplicates(t *testing.T) {
	k := planner.SlotKey{Date: "2025-10-13", Hour: 10}
	s := planner.NewSelection(k, k)
	s.Add(k)
	if len(s) != 1 {
		t.Errorf("len = %d, want 1", len(s))
	}
	if s.Toggle(k) {
		t.Error("Toggle on member should report false")
	}
	if s.Has(k) {
		t.Error("key still present after Toggle")
	}
}

func TestSelection_CloneIsIndependent(t *testing.T) {
	a := planner.SlotKey{Date: "2025-10-13", Hour: 10}
	b := planner.SlotKey{Date: "2025-10-14", Hour: 8}
	s := planner.NewSelection(a)
	c := s.Clone()
	c.Add(b)
	if s.Has(b) {
		t.Error("clone shares storage with original")
	}
	keys := c.Keys()
	if len(keys) != 2 || keys[0] != a || keys[1] != b {
		t.Errorf("Keys() = %v", keys)
	}
}

func TestAggregates_Full(t *testing.T) {
	agg := planner.Aggregates{
		{Date: "2025-10-13", Hour: 10}: {Count: 10},
		{Date: "2025-10-13", Hour: 11}: {Count: 9},
	}
	if !agg.Full("2025-10-13", 10) {
		t.Error("count 10 should be full")
	}
	if agg.Full("2025-10-13", 11) {
		t.Error("count 9 should not be full")
	}
	if agg.Full("2025-10-13", 12) {
		t.Error("missing slot should not be full")
	}
}
