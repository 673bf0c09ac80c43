// Package board manages slot assignments and the board-level radar profile.
package board

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strings"

	"github.com/leapstack-labs/boardkit/pkg/core"
	"github.com/leapstack-labs/boardkit/pkg/fieldtype"
)

// Slot errors.
var (
	ErrUnknownSlot     = errors.New("unknown slot")
	ErrSlotExists      = errors.New("slot already exists")
	ErrProtectedSlot   = errors.New("default slots cannot be removed")
	ErrAlreadyPlaced   = errors.New("card is already assigned to this slot")
	ErrNotAssigned     = errors.New("card is not assigned to this slot")
	ErrInvalidSlotName = errors.New("slot name must not be empty")
)

// ProtectedSlots are the seats every board starts with.
var ProtectedSlots = []core.Slot{
	{ID: "director", Name: "Director"},
	{ID: "secretary", Name: "Secretary"},
	{ID: "treasurer", Name: "Treasurer"},
}

// DefaultBoard returns a board with only the protected slots.
func DefaultBoard(id string) core.Board {
	return core.Board{
		ID:          id,
		Slots:       slices.Clone(ProtectedSlots),
		Assignments: []core.Assignment{},
	}
}

var whitespace = regexp.MustCompile(`\s+`)

// SlotID derives a slot id from its display name.
func SlotID(name string) string {
	return whitespace.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
}

// IsProtected reports whether slotID is one of the default slots.
func IsProtected(slotID string) bool {
	for _, s := range ProtectedSlots {
		if s.ID == slotID {
			return true
		}
	}
	return false
}

// AddSlot appends a slot named name and returns it.
func AddSlot(b *core.Board, name string) (core.Slot, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.Slot{}, ErrInvalidSlotName
	}
	slot := core.Slot{ID: SlotID(name), Name: name}
	if findSlot(b, slot.ID) >= 0 {
		return core.Slot{}, fmt.Errorf("%w: %s", ErrSlotExists, slot.ID)
	}
	b.Slots = append(b.Slots, slot)
	return slot, nil
}

// DeleteSlot removes a slot and every assignment to it.
func DeleteSlot(b *core.Board, slotID string) error {
	if IsProtected(slotID) {
		return fmt.Errorf("%w: %s", ErrProtectedSlot, slotID)
	}
	idx := findSlot(b, slotID)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownSlot, slotID)
	}
	b.Slots = slices.Delete(b.Slots, idx, idx+1)
	b.Assignments = slices.DeleteFunc(b.Assignments, func(a core.Assignment) bool {
		return a.SlotID == slotID
	})
	return nil
}

// Assign places cardID in slotID after any cards already there.
func Assign(b *core.Board, slotID, cardID string) (core.Assignment, error) {
	if findSlot(b, slotID) < 0 {
		return core.Assignment{}, fmt.Errorf("%w: %s", ErrUnknownSlot, slotID)
	}
	rank := 0
	for _, a := range b.Assignments {
		if a.SlotID != slotID {
			continue
		}
		if a.CardID == cardID {
			return core.Assignment{}, fmt.Errorf("%w: %s in %s", ErrAlreadyPlaced, cardID, slotID)
		}
		rank = max(rank, a.Rank)
	}
	a := core.Assignment{SlotID: slotID, CardID: cardID, Rank: rank + 1}
	b.Assignments = append(b.Assignments, a)
	return a, nil
}

// Unassign removes cardID from slotID and closes the gap in the ranking.
func Unassign(b *core.Board, slotID, cardID string) error {
	before := len(b.Assignments)
	b.Assignments = slices.DeleteFunc(b.Assignments, func(a core.Assignment) bool {
		return a.SlotID == slotID && a.CardID == cardID
	})
	if len(b.Assignments) == before {
		return fmt.Errorf("%w: %s in %s", ErrNotAssigned, cardID, slotID)
	}
	rerank(b, slotID)
	return nil
}

// RemoveCard drops every assignment of cardID, re-ranking affected slots.
func RemoveCard(b *core.Board, cardID string) {
	var touched []string
	b.Assignments = slices.DeleteFunc(b.Assignments, func(a core.Assignment) bool {
		if a.CardID == cardID {
			touched = append(touched, a.SlotID)
			return true
		}
		return false
	})
	for _, slotID := range touched {
		rerank(b, slotID)
	}
}

// SlotAssignments returns the assignments of slotID ordered by rank.
func SlotAssignments(b *core.Board, slotID string) []core.Assignment {
	var out []core.Assignment
	for _, a := range b.Assignments {
		if a.SlotID == slotID {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Rank < out[j].Rank })
	return out
}

func rerank(b *core.Board, slotID string) {
	var idx []int
	for i, a := range b.Assignments {
		if a.SlotID == slotID {
			idx = append(idx, i)
		}
	}
	sort.SliceStable(idx, func(i, j int) bool {
		return b.Assignments[idx[i]].Rank < b.Assignments[idx[j]].Rank
	})
	for rank, i := range idx {
		b.Assignments[i].Rank = rank + 1
	}
}

func findSlot(b *core.Board, slotID string) int {
	for i, s := range b.Slots {
		if s.ID == slotID {
			return i
		}
	}
	return -1
}

// Axis is one radar dimension of the board profile.
type Axis struct {
	Field core.FieldDefinition
	Value float64
	// Ratio is Value normalised into [0,1] over the field's range.
	Ratio float64
}

// Profile aggregates every radar field over the first-choice cards of each
// slot, using the field's board aggregate. Missing values count as 0.
func Profile(schema *core.Schema, b *core.Board, records []core.Record) []Axis {
	byID := make(map[string]*core.Record, len(records))
	for i := range records {
		byID[records[i].ID] = &records[i]
	}

	var first []*core.Record
	for _, a := range b.Assignments {
		if a.Rank != 1 {
			continue
		}
		first = append(first, byID[a.CardID])
	}

	radar := schema.RadarFields()
	axes := make([]Axis, 0, len(radar))
	for _, f := range radar {
		values := make([]float64, len(first))
		for i, rec := range first {
			if rec == nil {
				continue
			}
			if n, ok := fieldtype.ToNumber(rec.Data[f.ID]); ok {
				values[i] = n
			}
		}
		v := Aggregate(f.BoardAggregate, values)
		axes = append(axes, Axis{Field: f, Value: v, Ratio: ratio(&f, v)})
	}
	return axes
}

// Aggregate reduces values with agg. An empty input gives 0; an unknown
// aggregate behaves as max.
func Aggregate(agg core.Aggregate, values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	switch agg {
	case core.AggregateSum:
		return sum(values)
	case core.AggregateMean:
		return sum(values) / float64(len(values))
	default:
		return slices.Max(values)
	}
}

func sum(values []float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}

func ratio(f *core.FieldDefinition, v float64) float64 {
	lo, hi := 0.0, 10.0
	if f.Min != nil {
		lo = *f.Min
	}
	if f.Max != nil {
		hi = *f.Max
	}
	if hi <= lo {
		return 0
	}
	return min(max((v-lo)/(hi-lo), 0), 1)
}
