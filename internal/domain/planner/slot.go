// internal/domain/planner/slot.go
package planner

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Grid dimensions and the participant threshold.
const (
	FirstHour   = 8
	LastHour    = 23
	DaysPerWeek = 7
	MatchSize   = 10
	WindowSize  = 3
)

// DayLabels are the column headers, Monday first.
var DayLabels = [DaysPerWeek]string{"LUN", "MAR", "MER", "JEU", "VEN", "SAM", "DIM"}

// ErrInvalidSlotKey is returned when a wire key cannot be parsed.
var ErrInvalidSlotKey = errors.New("invalid slot key")

// Hours returns every displayed hour, 8 through 23.
func Hours() []int {
	hours := make([]int, 0, LastHour-FirstHour+1)
	for h := FirstHour; h <= LastHour; h++ {
		hours = append(hours, h)
	}
	return hours
}

// ValidHour reports whether h is a displayed hour.
func ValidHour(h int) bool {
	return h >= FirstHour && h <= LastHour
}

// SlotKey identifies one hour of one local calendar day.
type SlotKey struct {
	Date string // YYYY-MM-DD, local calendar
	Hour int
}

// NewSlotKey builds the key for hour on the calendar day of date.
func NewSlotKey(date time.Time, hour int) SlotKey {
	return SlotKey{Date: FormatDate(date), Hour: hour}
}

// String returns the wire form "YYYY-MM-DD-H".
func (k SlotKey) String() string {
	return fmt.Sprintf("%s-%d", k.Date, k.Hour)
}

// ParseSlotKey parses the wire form "YYYY-MM-DD-H". The hour is whatever
// follows the last dash; the date part must be a valid calendar date.
func ParseSlotKey(s string) (SlotKey, error) {
	i := strings.LastIndexByte(s, '-')
	if i <= 0 || i == len(s)-1 {
		return SlotKey{}, fmt.Errorf("%w: %q", ErrInvalidSlotKey, s)
	}
	date, hourStr := s[:i], s[i+1:]
	if _, err := time.Parse(DateLayout, date); err != nil {
		return SlotKey{}, fmt.Errorf("%w: %q", ErrInvalidSlotKey, s)
	}
	hour, err := strconv.Atoi(hourStr)
	if err != nil || hour < 0 || hour > 23 {
		return SlotKey{}, fmt.Errorf("%w: %q", ErrInvalidSlotKey, s)
	}
	return SlotKey{Date: date, Hour: hour}, nil
}

// Selection is a set of slots. The zero value is not usable; use NewSelection.
type Selection map[SlotKey]struct{}

// NewSelection returns a selection holding keys.
func NewSelection(keys ...SlotKey) Selection {
	s := make(Selection, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

// Has reports membership.
func (s Selection) Has(k SlotKey) bool {
	_, ok := s[k]
	return ok
}

// Add inserts k; adding twice is a no-op.
func (s Selection) Add(k SlotKey) {
	s[k] = struct{}{}
}

// Remove deletes k if present.
func (s Selection) Remove(k SlotKey) {
	delete(s, k)
}

// Toggle flips membership of k and returns the new state.
func (s Selection) Toggle(k SlotKey) bool {
	if s.Has(k) {
		delete(s, k)
		return false
	}
	s[k] = struct{}{}
	return true
}

// Clone returns an independent copy.
func (s Selection) Clone() Selection {
	c := make(Selection, len(s))
	for k := range s {
		c[k] = struct{}{}
	}
	return c
}

// Keys returns the members ordered by date then hour.
func (s Selection) Keys() []SlotKey {
	keys := make([]SlotKey, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Date != keys[j].Date {
			return keys[i].Date < keys[j].Date
		}
		return keys[i].Hour < keys[j].Hour
	})
	return keys
}

// Participant is one user counted on a slot.
type Participant struct {
	Name  string
	Image string
}

// SlotAggregate is the server's view of one slot across all users.
type SlotAggregate struct {
	Users []Participant
	Count int
}

// Aggregates maps slots to their aggregate. Missing slots count as empty.
type Aggregates map[SlotKey]SlotAggregate

// Count returns the participant count for k (0 when absent).
func (a Aggregates) Count(k SlotKey) int {
	return a[k].Count
}

// Full reports whether the slot reached MatchSize participants. Whether
// the current user is among them does not matter.
func (a Aggregates) Full(date string, hour int) bool {
	return a.Count(SlotKey{Date: date, Hour: hour}) >= MatchSize
}

// Snapshot is one read of the availability service for the current user.
type Snapshot struct {
	Mine    Selection
	Details Aggregates
}

// EmptySnapshot returns a snapshot with no selection and no aggregates.
func EmptySnapshot() Snapshot {
	return Snapshot{Mine: NewSelection(), Details: Aggregates{}}
}
