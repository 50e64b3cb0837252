package domain

import (
	"fmt"
	"slices"
	"strings"
)

// Status is the lifecycle state of a scheduled item.
type Status string

// Status values.
const (
	StatusPending        Status = "pending"
	StatusAwaiting       Status = "awaiting"
	StatusSampleReceived Status = "sample-received"
	StatusInProgress     Status = "in-progress"
	StatusCompleted      Status = "completed"
	StatusIncomplete     Status = "incomplete"
	StatusReportIssued   Status = "report-issued"

	// StatusScheduled is the single nominal status of calibrations and vacations.
	StatusScheduled Status = "scheduled"
)

// assayTransitions lists the legal next states for assay items.
var assayTransitions = map[Status][]Status{
	StatusPending:        {StatusAwaiting},
	StatusAwaiting:       {StatusSampleReceived},
	StatusSampleReceived: {StatusInProgress},
	StatusInProgress:     {StatusCompleted, StatusIncomplete},
	StatusCompleted:      {StatusReportIssued},
	StatusIncomplete:     {StatusReportIssued},
}

// ParseStatus canonicalizes a status string.
func ParseStatus(raw string) (Status, error) {
	status := Status(strings.TrimSpace(strings.ToLower(raw)))
	switch status {
	case StatusPending, StatusAwaiting, StatusSampleReceived, StatusInProgress,
		StatusCompleted, StatusIncomplete, StatusReportIssued, StatusScheduled:
		return status, nil
	default:
		return "", fmt.Errorf("%w: unknown status %q", ErrInvalidStateTransition, raw)
	}
}

// InitialStatus returns the status a freshly created item starts in.
func InitialStatus(kind ItemKind, hasLane bool) Status {
	switch kind {
	case KindEfficiency, KindSafety:
		if hasLane {
			return StatusAwaiting
		}
		return StatusPending
	default:
		return StatusScheduled
	}
}

// NextStatuses returns the legal targets for an item of kind in status from.
func NextStatuses(kind ItemKind, from Status) []Status {
	if kind != KindEfficiency && kind != KindSafety {
		return nil
	}
	return slices.Clone(assayTransitions[from])
}

// CanTransition reports whether an item may move from one status to another.
// Pending items only leave Pending once they hold a lane.
func CanTransition(kind ItemKind, from, to Status, laneID string) bool {
	if from == StatusPending && to == StatusAwaiting && strings.TrimSpace(laneID) == "" {
		return false
	}
	return slices.Contains(NextStatuses(kind, from), to)
}

// Transition applies a status change to item, or fails with ErrInvalidStateTransition.
func Transition(item Item, to Status) (Item, error) {
	s := item.Base()
	if !CanTransition(item.Kind(), s.Status, to, s.LaneID) {
		return nil, fmt.Errorf("%w: %s %s -> %s", ErrInvalidStateTransition, item.Kind(), s.Status, to)
	}
	s.Status = to
	return WithSchedule(item, s), nil
}

// CheckStatus reports whether an item of kind may hold status while in laneID.
// Assays are pending exactly when they have no lane; calibrations and
// vacations always carry the nominal scheduled status.
func CheckStatus(kind ItemKind, status Status, laneID string) error {
	parsed, err := ParseStatus(string(status))
	if err != nil {
		return err
	}
	if parsed != status {
		return fmt.Errorf("%w: non-canonical status %q", ErrInvalidStateTransition, status)
	}
	switch kind {
	case KindCalibration, KindVacation:
		if status != StatusScheduled {
			return fmt.Errorf("%w: %s cannot hold %s", ErrInvalidStateTransition, kind, status)
		}
	case KindEfficiency, KindSafety:
		if status == StatusScheduled {
			return fmt.Errorf("%w: %s cannot hold %s", ErrInvalidStateTransition, kind, status)
		}
		laneID = strings.TrimSpace(laneID)
		if laneless := laneID == "" || laneID == PendingLaneID; laneless != (status == StatusPending) {
			return fmt.Errorf("%w: %s with lane %q cannot be %s", ErrInvalidStateTransition, kind, laneID, status)
		}
	default:
		return ErrInvalidKind
	}
	return nil
}

// CoerceStatus returns the status an item of kind must carry after landing in lane.
// Landing on Pending forces pending; a pending assay landing on a real lane becomes awaiting.
func CoerceStatus(kind ItemKind, status Status, lane Lane) Status {
	if kind != KindEfficiency && kind != KindSafety {
		return status
	}
	if lane.Kind == LaneKindPending {
		return StatusPending
	}
	if status == StatusPending {
		return StatusAwaiting
	}
	return status
}

// LaneAccepts reports whether an item of kind may occupy lane.
func LaneAccepts(lane Lane, kind ItemKind) bool {
	switch kind {
	case KindEfficiency, KindSafety:
		switch lane.Kind {
		case LaneKindTerminal, LaneKindSafety, LaneKindPending:
			return true
		}
		return false
	case KindVacation:
		return lane.Kind == LaneKindVacation
	case KindCalibration:
		return lane.Kind == LaneKindTerminal
	default:
		return false
	}
}

// KindForLane returns the item kind an assay becomes when it lands in lane.
func KindForLane(lane Lane) ItemKind {
	if lane.Kind == LaneKindSafety {
		return KindSafety
	}
	return KindEfficiency
}
