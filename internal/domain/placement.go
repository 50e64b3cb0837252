package domain

import (
	"fmt"
	"time"
)

// Relocate moves item id to a new start date and lane, preserving its duration.
// An assay that lands in a lane of the other category is re-homed into that
// category's collection; its lane-dependent status is coerced. Calibrations
// only change dates. An empty laneID means Pending.
func (b *Board) Relocate(id string, start time.Time, laneID string) error {
	item, ok := b.Item(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	if start.IsZero() {
		return ErrInvalidDateRange
	}
	s := item.Base().ShiftTo(start)

	if item.Kind() == KindCalibration {
		return b.Replace(WithSchedule(item, s))
	}

	if laneID == "" {
		laneID = PendingLaneID
	}
	lane, ok := b.Lane(laneID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrLaneNotFound, laneID)
	}
	if !LaneAccepts(lane, item.Kind()) {
		return fmt.Errorf("%w: %s cannot go to %s", ErrIllegalLane, item.Kind(), lane.ID)
	}
	if item.Kind() == KindVacation {
		return b.Replace(WithSchedule(item, s))
	}

	s.Status = CoerceStatus(item.Kind(), s.Status, lane)
	s.LaneID = lane.ID
	if lane.Kind == LaneKindPending {
		s.LaneID = ""
	}
	moved := WithSchedule(item, s)
	if target := KindForLane(lane); target != moved.Kind() {
		converted, err := ConvertAssay(moved, target)
		if err != nil {
			return err
		}
		moved = converted
	}
	return b.Replace(moved)
}

// Swap exchanges the date ranges of two compatible items. Lanes stay put.
func (b *Board) Swap(aID, bID string) error {
	if aID == bID {
		return fmt.Errorf("%w: %s with itself", ErrIncompatibleSwap, aID)
	}
	a, ok := b.Item(aID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrItemNotFound, aID)
	}
	other, ok := b.Item(bID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrItemNotFound, bID)
	}
	if !SwapCompatible(a, other) {
		return fmt.Errorf("%w: %s and %s", ErrIncompatibleSwap, a.Kind(), other.Kind())
	}
	sa, sb := a.Base(), other.Base()
	sa.Start, sb.Start = sb.Start, sa.Start
	sa.End, sb.End = sb.End, sa.End
	if err := b.Replace(WithSchedule(a, sa)); err != nil {
		return err
	}
	return b.Replace(WithSchedule(other, sb))
}

// SetStatus applies a lifecycle transition to item id.
func (b *Board) SetStatus(id string, to Status) error {
	item, ok := b.Item(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	next, err := Transition(item, to)
	if err != nil {
		return err
	}
	return b.Replace(next)
}

// Add validates a new item against the board's lanes and appends it.
func (b *Board) Add(in ItemInput) (Item, error) {
	item, err := NewItem(in)
	if err != nil {
		return nil, err
	}
	if err := b.checkLane(item); err != nil {
		return nil, err
	}
	if err := b.Append(item); err != nil {
		return nil, err
	}
	return item, nil
}

// Edit applies editable fields to an existing item.
func (b *Board) Edit(id string, in ItemInput) (Item, error) {
	item, ok := b.Item(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	next, err := EditItem(item, in)
	if err != nil {
		return nil, err
	}
	if err := b.Replace(next); err != nil {
		return nil, err
	}
	return next, nil
}

func (b Board) checkLane(item Item) error {
	if item.Kind() == KindCalibration {
		return nil
	}
	laneID := item.Base().LaneID
	if laneID == "" {
		laneID = PendingLaneID
	}
	lane, ok := b.Lane(laneID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrLaneNotFound, laneID)
	}
	if !LaneAccepts(lane, item.Kind()) {
		return fmt.Errorf("%w: %s cannot go to %s", ErrIllegalLane, item.Kind(), lane.ID)
	}
	if lane.Kind != LaneKindPending && KindForLane(lane) != item.Kind() && item.Kind() != KindVacation {
		return fmt.Errorf("%w: %s cannot go to %s", ErrIllegalLane, item.Kind(), lane.ID)
	}
	return nil
}
