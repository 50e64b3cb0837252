package domain

import (
	"strconv"
	"strings"
)

// LaneKind classifies a horizontal board band.
type LaneKind string

// LaneKind values.
const (
	LaneKindTerminal LaneKind = "terminal"
	LaneKindSafety   LaneKind = "safety"
	LaneKindVacation LaneKind = "vacation"
	LaneKindPending  LaneKind = "pending"
)

// Synthetic lane identifiers. They always exist and cannot be renamed or deleted.
const (
	VacationLaneID = "vacation"
	PendingLaneID  = "pending"
)

// Category groups lanes whose items live in the same collection.
type Category string

// Category values.
const (
	CategoryEfficiency Category = "efficiency"
	CategorySafety     Category = "safety"
	CategoryVacation   Category = "vacation"
)

// Lane is one named band on the board.
type Lane struct {
	ID   string   `json:"id"`
	Kind LaneKind `json:"kind"`
	Name string   `json:"name"`
}

// VacationLane returns the synthetic vacation lane.
func VacationLane() Lane {
	return Lane{ID: VacationLaneID, Kind: LaneKindVacation, Name: "Vacation"}
}

// PendingLane returns the synthetic pending lane.
func PendingLane() Lane {
	return Lane{ID: PendingLaneID, Kind: LaneKindPending, Name: "Pending"}
}

// NewLane validates and constructs a user-managed lane.
// Terminal ids are positive integers; safety responsible ids are one uppercase letter.
func NewLane(kind LaneKind, id, name string) (Lane, error) {
	id = strings.TrimSpace(id)
	name = strings.TrimSpace(name)
	switch kind {
	case LaneKindTerminal:
		n, err := strconv.Atoi(id)
		if err != nil || n <= 0 {
			return Lane{}, ErrInvalidID
		}
		id = strconv.Itoa(n)
	case LaneKindSafety:
		id = strings.ToUpper(id)
		if len(id) != 1 || id[0] < 'A' || id[0] > 'Z' {
			return Lane{}, ErrInvalidID
		}
	case LaneKindVacation, LaneKindPending:
		return Lane{}, ErrSyntheticLane
	default:
		return Lane{}, ErrInvalidKind
	}
	if name == "" {
		return Lane{}, ErrInvalidName
	}
	return Lane{ID: id, Kind: kind, Name: name}, nil
}

// Synthetic reports whether the lane is one of the fixed Vacation/Pending lanes.
func (l Lane) Synthetic() bool {
	return l.Kind == LaneKindVacation || l.Kind == LaneKindPending
}

// Stacked reports whether overlapping items in the lane are spread over sub-rows.
// Terminal lanes hold one item per date range and render on a single fixed row.
func (l Lane) Stacked() bool {
	return l.Kind != LaneKindTerminal
}

// Category returns the item collection the lane draws from.
func (l Lane) Category() Category {
	switch l.Kind {
	case LaneKindSafety:
		return CategorySafety
	case LaneKindVacation:
		return CategoryVacation
	default:
		return CategoryEfficiency
	}
}

// TerminalNumber returns the integer id of a terminal lane.
func (l Lane) TerminalNumber() (int, bool) {
	if l.Kind != LaneKindTerminal {
		return 0, false
	}
	n, err := strconv.Atoi(l.ID)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Rename changes the display label.
func (l *Lane) Rename(name string) error {
	if l.Synthetic() {
		return ErrSyntheticLane
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrInvalidName
	}
	l.Name = name
	return nil
}
