package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hylla/labgantt/internal/domain"
)

// SnapshotVersion defines a package constant value.
const SnapshotVersion = "labgantt.snapshot.v1"

// Snapshot is the portable JSON form of a committed board.
type Snapshot struct {
	Version    string         `json:"version"`
	ExportedAt time.Time      `json:"exported_at"`
	Lanes      []SnapshotLane `json:"lanes"`
	Items      []SnapshotItem `json:"items"`
}

// SnapshotLane represents one user-managed lane.
type SnapshotLane struct {
	ID   string          `json:"id"`
	Kind domain.LaneKind `json:"kind"`
	Name string          `json:"name"`
}

// SnapshotItem represents one scheduled item of any kind.
type SnapshotItem struct {
	ID          string                  `json:"id"`
	Kind        domain.ItemKind         `json:"kind"`
	Start       string                  `json:"start"`
	End         string                  `json:"end"`
	LaneID      string                  `json:"lane_id,omitempty"`
	Status      domain.Status           `json:"status"`
	Assay       *domain.AssayDetails    `json:"assay,omitempty"`
	Scope       domain.CalibrationScope `json:"scope,omitempty"`
	Description string                  `json:"description,omitempty"`
	Person      string                  `json:"person,omitempty"`
}

// ExportSnapshot handles export snapshot.
func (s *Service) ExportSnapshot(ctx context.Context) (Snapshot, error) {
	board, err := s.LoadBoard(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	snap := SnapshotFromBoard(board)
	snap.ExportedAt = s.clock().UTC()
	return snap, nil
}

// ImportSnapshot replaces the committed board with the snapshot contents.
func (s *Service) ImportSnapshot(ctx context.Context, snap Snapshot) error {
	board, err := snap.Board()
	if err != nil {
		return err
	}
	if s.store == nil {
		return ErrNoStore
	}
	return s.store.SaveBoard(ctx, board)
}

// SnapshotFromBoard converts a board into its snapshot form.
func SnapshotFromBoard(b domain.Board) Snapshot {
	snap := Snapshot{Version: SnapshotVersion}
	for _, lane := range append(append([]domain.Lane(nil), b.Terminals...), b.Responsibles...) {
		snap.Lanes = append(snap.Lanes, SnapshotLane{ID: lane.ID, Kind: lane.Kind, Name: lane.Name})
	}
	for _, item := range b.Items() {
		snap.Items = append(snap.Items, SnapshotItemFromDomain(item))
	}
	return snap
}

// Board validates the snapshot and rebuilds the board it describes.
func (s Snapshot) Board() (domain.Board, error) {
	if s.Version != "" && s.Version != SnapshotVersion {
		return domain.Board{}, fmt.Errorf("%w: unsupported version %q", ErrInvalidSnapshot, s.Version)
	}
	var board domain.Board
	for i, sl := range s.Lanes {
		lane, err := domain.NewLane(sl.Kind, sl.ID, sl.Name)
		if err != nil {
			return domain.Board{}, fmt.Errorf("%w: lanes[%d]: %w", ErrInvalidSnapshot, i, err)
		}
		if err := board.AddLane(lane); err != nil {
			return domain.Board{}, fmt.Errorf("%w: lanes[%d]: %w", ErrInvalidSnapshot, i, err)
		}
	}
	for i, si := range s.Items {
		item, err := si.toDomain()
		if err != nil {
			return domain.Board{}, fmt.Errorf("%w: items[%d]: %w", ErrInvalidSnapshot, i, err)
		}
		if err := board.Append(item); err != nil {
			return domain.Board{}, fmt.Errorf("%w: items[%d]: %w", ErrInvalidSnapshot, i, err)
		}
	}
	if err := board.Validate(); err != nil {
		return domain.Board{}, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}
	return board, nil
}

// SnapshotItemFromDomain flattens one item into its portable form.
func SnapshotItemFromDomain(item domain.Item) SnapshotItem {
	base := item.Base()
	out := SnapshotItem{
		ID:     base.ID,
		Kind:   item.Kind(),
		Start:  domain.FormatDate(base.Start),
		End:    domain.FormatDate(base.End),
		LaneID: base.LaneID,
		Status: base.Status,
	}
	switch v := item.(type) {
	case domain.EfficiencyAssay:
		details := v.AssayDetails
		out.Assay = &details
	case domain.SafetyAssay:
		details := v.AssayDetails
		out.Assay = &details
	case domain.CalibrationEvent:
		out.Scope = v.Scope
		out.Description = v.Description
	case domain.VacationEvent:
		out.Person = v.Person
	}
	return out
}

func (si SnapshotItem) toDomain() (domain.Item, error) {
	if strings.TrimSpace(si.ID) == "" {
		return nil, domain.ErrInvalidID
	}
	kind, err := domain.ParseItemKind(string(si.Kind))
	if err != nil {
		return nil, err
	}
	start, err := domain.ParseDate(si.Start)
	if err != nil {
		return nil, err
	}
	end, err := domain.ParseDate(si.End)
	if err != nil {
		return nil, err
	}
	status, err := domain.ParseStatus(string(si.Status))
	if err != nil {
		return nil, err
	}
	base := domain.Schedule{ID: strings.TrimSpace(si.ID), Start: start, End: end, LaneID: strings.TrimSpace(si.LaneID), Status: status}
	var details domain.AssayDetails
	if si.Assay != nil {
		details = *si.Assay
	}
	if base.LaneID == domain.PendingLaneID {
		base.LaneID = ""
	}
	switch kind {
	case domain.KindEfficiency:
		return domain.EfficiencyAssay{Schedule: base, AssayDetails: details}, nil
	case domain.KindSafety:
		return domain.SafetyAssay{Schedule: base, AssayDetails: details}, nil
	case domain.KindCalibration:
		scope, err := domain.ParseCalibrationScope(string(si.Scope))
		if err != nil {
			return nil, err
		}
		base.LaneID = ""
		return domain.CalibrationEvent{Schedule: base, Scope: scope, Description: si.Description}, nil
	default:
		if strings.TrimSpace(si.Person) == "" {
			return nil, domain.ErrInvalidName
		}
		base.LaneID = domain.VacationLaneID
		return domain.VacationEvent{Schedule: base, Person: strings.TrimSpace(si.Person)}, nil
	}
}
