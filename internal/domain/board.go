package domain

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Board is the full set of lanes and scheduled items at one point in time.
// Items live in one list per kind.
type Board struct {
	Terminals    []Lane             `json:"terminals"`
	Responsibles []Lane             `json:"responsibles"`
	Efficiency   []EfficiencyAssay  `json:"efficiency"`
	Safety       []SafetyAssay      `json:"safety"`
	Calibrations []CalibrationEvent `json:"calibrations"`
	Vacations    []VacationEvent    `json:"vacations"`
}

// Clone returns a deep copy. Every element is a value type, so copying the
// slices is enough to detach the copy from b.
func (b Board) Clone() Board {
	return Board{
		Terminals:    slices.Clone(b.Terminals),
		Responsibles: slices.Clone(b.Responsibles),
		Efficiency:   slices.Clone(b.Efficiency),
		Safety:       slices.Clone(b.Safety),
		Calibrations: slices.Clone(b.Calibrations),
		Vacations:    slices.Clone(b.Vacations),
	}
}

// Equal reports whether two boards hold the same lanes and items in the same order.
func (b Board) Equal(o Board) bool {
	return slices.Equal(b.Terminals, o.Terminals) &&
		slices.Equal(b.Responsibles, o.Responsibles) &&
		slices.EqualFunc(b.Efficiency, o.Efficiency, func(x, y EfficiencyAssay) bool {
			return x.Schedule.equal(y.Schedule) && x.AssayDetails == y.AssayDetails
		}) &&
		slices.EqualFunc(b.Safety, o.Safety, func(x, y SafetyAssay) bool {
			return x.Schedule.equal(y.Schedule) && x.AssayDetails == y.AssayDetails
		}) &&
		slices.EqualFunc(b.Calibrations, o.Calibrations, func(x, y CalibrationEvent) bool {
			return x.Schedule.equal(y.Schedule) && x.Scope == y.Scope && x.Description == y.Description
		}) &&
		slices.EqualFunc(b.Vacations, o.Vacations, func(x, y VacationEvent) bool {
			return x.Schedule.equal(y.Schedule) && x.Person == y.Person
		})
}

// Lanes returns every lane in display order: terminals, safety responsibles,
// Vacation, then Pending.
func (b Board) Lanes() []Lane {
	out := make([]Lane, 0, len(b.Terminals)+len(b.Responsibles)+2)
	out = append(out, b.Terminals...)
	out = append(out, b.Responsibles...)
	out = append(out, VacationLane(), PendingLane())
	return out
}

// Lane looks up a lane by id, including the synthetic lanes.
func (b Board) Lane(id string) (Lane, bool) {
	for _, lane := range b.Lanes() {
		if lane.ID == id {
			return lane, true
		}
	}
	return Lane{}, false
}

// Items returns every item: efficiency, safety, calibrations, vacations.
func (b Board) Items() []Item {
	out := make([]Item, 0, len(b.Efficiency)+len(b.Safety)+len(b.Calibrations)+len(b.Vacations))
	for _, it := range b.Efficiency {
		out = append(out, it)
	}
	for _, it := range b.Safety {
		out = append(out, it)
	}
	for _, it := range b.Calibrations {
		out = append(out, it)
	}
	for _, it := range b.Vacations {
		out = append(out, it)
	}
	return out
}

// Item finds an item by id.
func (b Board) Item(id string) (Item, bool) {
	for _, it := range b.Items() {
		if it.Base().ID == id {
			return it, true
		}
	}
	return nil, false
}

// ItemsInLane returns the items stacked inside a lane. Calibrations are
// overlays and never belong to a single lane.
func (b Board) ItemsInLane(laneID string) []Item {
	var out []Item
	switch laneID {
	case PendingLaneID:
		for _, it := range b.Efficiency {
			if it.LaneID == "" {
				out = append(out, it)
			}
		}
		return out
	case VacationLaneID:
		for _, it := range b.Vacations {
			out = append(out, it)
		}
		return out
	}
	for _, it := range b.Efficiency {
		if it.LaneID == laneID {
			out = append(out, it)
		}
	}
	for _, it := range b.Safety {
		if it.LaneID == laneID {
			out = append(out, it)
		}
	}
	return out
}

// CalibrationsCovering returns the calibrations whose scope includes terminal n.
func (b Board) CalibrationsCovering(n int) []CalibrationEvent {
	var out []CalibrationEvent
	for _, c := range b.Calibrations {
		if c.Scope.Covers(n) {
			out = append(out, c)
		}
	}
	return out
}

// Append adds a new item to the collection matching its kind.
func (b *Board) Append(item Item) error {
	if item == nil {
		return ErrInvalidKind
	}
	if _, ok := b.Item(item.Base().ID); ok {
		return fmt.Errorf("%w: %s", ErrDuplicateItem, item.Base().ID)
	}
	switch v := item.(type) {
	case EfficiencyAssay:
		b.Efficiency = append(b.Efficiency, v)
	case SafetyAssay:
		b.Safety = append(b.Safety, v)
	case CalibrationEvent:
		b.Calibrations = append(b.Calibrations, v)
	case VacationEvent:
		b.Vacations = append(b.Vacations, v)
	default:
		return ErrInvalidKind
	}
	return nil
}

// Replace stores item over the existing item with the same id. An item whose
// kind changed is removed from its old collection and appended to the new one.
func (b *Board) Replace(item Item) error {
	if item == nil {
		return ErrInvalidKind
	}
	id := item.Base().ID
	existing, ok := b.Item(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	if existing.Kind() != item.Kind() {
		if err := b.Remove(id); err != nil {
			return err
		}
		return b.Append(item)
	}
	switch v := item.(type) {
	case EfficiencyAssay:
		b.Efficiency[indexOf(b.Efficiency, id)] = v
	case SafetyAssay:
		b.Safety[indexOf(b.Safety, id)] = v
	case CalibrationEvent:
		b.Calibrations[indexOf(b.Calibrations, id)] = v
	case VacationEvent:
		b.Vacations[indexOf(b.Vacations, id)] = v
	default:
		return ErrInvalidKind
	}
	return nil
}

// Remove deletes the item with id from whichever collection holds it.
func (b *Board) Remove(id string) error {
	if i := indexOf(b.Efficiency, id); i >= 0 {
		b.Efficiency = slices.Delete(b.Efficiency, i, i+1)
		return nil
	}
	if i := indexOf(b.Safety, id); i >= 0 {
		b.Safety = slices.Delete(b.Safety, i, i+1)
		return nil
	}
	if i := indexOf(b.Calibrations, id); i >= 0 {
		b.Calibrations = slices.Delete(b.Calibrations, i, i+1)
		return nil
	}
	if i := indexOf(b.Vacations, id); i >= 0 {
		b.Vacations = slices.Delete(b.Vacations, i, i+1)
		return nil
	}
	return fmt.Errorf("%w: %s", ErrItemNotFound, id)
}

// AddLane inserts a user-managed lane, keeping terminals in numeric order and
// responsibles in letter order.
func (b *Board) AddLane(lane Lane) error {
	if _, ok := b.Lane(lane.ID); ok {
		return fmt.Errorf("%w: %s", ErrDuplicateLane, lane.ID)
	}
	switch lane.Kind {
	case LaneKindTerminal:
		b.Terminals = append(b.Terminals, lane)
		slices.SortStableFunc(b.Terminals, func(x, y Lane) int {
			nx, _ := strconv.Atoi(x.ID)
			ny, _ := strconv.Atoi(y.ID)
			return nx - ny
		})
	case LaneKindSafety:
		b.Responsibles = append(b.Responsibles, lane)
		slices.SortStableFunc(b.Responsibles, func(x, y Lane) int {
			return strings.Compare(x.ID, y.ID)
		})
	case LaneKindVacation, LaneKindPending:
		return ErrSyntheticLane
	default:
		return ErrInvalidKind
	}
	return nil
}

// RenameLane changes a lane's display label.
func (b *Board) RenameLane(id, name string) error {
	lanes, i := b.laneSlot(id)
	if i < 0 {
		if lane, ok := b.Lane(id); ok && lane.Synthetic() {
			return ErrSyntheticLane
		}
		return fmt.Errorf("%w: %s", ErrLaneNotFound, id)
	}
	return (*lanes)[i].Rename(name)
}

// DeleteLane removes a lane that no item references.
func (b *Board) DeleteLane(id string) error {
	lanes, i := b.laneSlot(id)
	if i < 0 {
		if lane, ok := b.Lane(id); ok && lane.Synthetic() {
			return ErrSyntheticLane
		}
		return fmt.Errorf("%w: %s", ErrLaneNotFound, id)
	}
	if refs := len(b.ItemsInLane(id)); refs > 0 {
		return fmt.Errorf("%w: %s is referenced by %d item(s)", ErrLaneInUse, id, refs)
	}
	*lanes = slices.Delete(*lanes, i, i+1)
	return nil
}

// Validate checks every item: unique id, date range, a status legal for its
// kind and lane, kind-specific fields, and a lane that exists and accepts it.
func (b Board) Validate() error {
	seen := map[string]struct{}{}
	for _, lane := range b.Lanes() {
		if _, dup := seen[lane.ID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateLane, lane.ID)
		}
		seen[lane.ID] = struct{}{}
	}
	ids := map[string]struct{}{}
	for _, it := range b.Items() {
		s := it.Base()
		if strings.TrimSpace(s.ID) == "" {
			return ErrInvalidID
		}
		if _, dup := ids[s.ID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateItem, s.ID)
		}
		ids[s.ID] = struct{}{}
		if _, _, err := validateRange(s.Start, s.End); err != nil {
			return fmt.Errorf("%w: item %s", err, s.ID)
		}
		if err := CheckStatus(it.Kind(), s.Status, s.LaneID); err != nil {
			return fmt.Errorf("item %s: %w", s.ID, err)
		}
		switch v := it.(type) {
		case CalibrationEvent:
			if _, err := ParseCalibrationScope(string(v.Scope)); err != nil {
				return fmt.Errorf("%w: item %s scope %q", err, s.ID, v.Scope)
			}
			continue
		case VacationEvent:
			if strings.TrimSpace(v.Person) == "" {
				return fmt.Errorf("%w: vacation %s without person", ErrInvalidName, s.ID)
			}
		}
		laneID := s.LaneID
		if laneID == "" {
			laneID = PendingLaneID
		}
		lane, ok := b.Lane(laneID)
		if !ok {
			return fmt.Errorf("%w: item %s references %s", ErrLaneNotFound, s.ID, s.LaneID)
		}
		if !LaneAccepts(lane, it.Kind()) || (it.Kind() != KindVacation && lane.Category() != it.Kind().Category() && lane.Kind != LaneKindPending) {
			return fmt.Errorf("%w: %s in %s", ErrIllegalLane, it.Kind(), lane.ID)
		}
		if it.Kind() == KindSafety && lane.Kind == LaneKindPending {
			return fmt.Errorf("%w: safety item %s without responsible", ErrIllegalLane, s.ID)
		}
	}
	return nil
}

func (b *Board) laneSlot(id string) (*[]Lane, int) {
	for i, lane := range b.Terminals {
		if lane.ID == id {
			return &b.Terminals, i
		}
	}
	for i, lane := range b.Responsibles {
		if lane.ID == id {
			return &b.Responsibles, i
		}
	}
	return nil, -1
}

func indexOf[T Item](items []T, id string) int {
	return slices.IndexFunc(items, func(it T) bool { return it.Base().ID == id })
}
