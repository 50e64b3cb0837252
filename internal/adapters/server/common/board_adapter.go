package common

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/hylla/labgantt/internal/app"
	"github.com/hylla/labgantt/internal/domain"
	"github.com/hylla/labgantt/internal/layout"
)

// BoardAdapter answers transport queries from the committed board.
// Every call reloads the board so readers never observe an uncommitted session.
type BoardAdapter struct {
	reader  BoardReader
	metrics layout.Metrics
}

// NewBoardAdapter builds one adapter over a board reader. A nil metrics map uses layout defaults.
func NewBoardAdapter(reader BoardReader, metrics layout.Metrics) *BoardAdapter {
	if metrics == nil {
		metrics = layout.DefaultMetrics()
	}
	return &BoardAdapter{reader: reader, metrics: metrics}
}

// Board returns every lane and item plus the last commit time when known.
func (a *BoardAdapter) Board(ctx context.Context) (BoardView, error) {
	board, err := a.load(ctx)
	if err != nil {
		return BoardView{}, err
	}
	out := BoardView{
		Lanes: laneViews(board),
		Items: make([]app.SnapshotItem, 0, len(board.Items())),
	}
	for _, item := range board.Items() {
		out.Items = append(out.Items, app.SnapshotItemFromDomain(item))
	}
	if saved, ok := a.reader.(SavedAtReader); ok {
		at, found, err := saved.SavedAt(ctx)
		if err != nil {
			return BoardView{}, fmt.Errorf("read saved_at: %w", errors.Join(ErrBoardUnavailable, err))
		}
		if found {
			out.SavedAt = &at
		}
	}
	return out, nil
}

// ListLanes returns lanes in display order.
func (a *BoardAdapter) ListLanes(ctx context.Context) ([]LaneView, error) {
	board, err := a.load(ctx)
	if err != nil {
		return nil, err
	}
	return laneViews(board), nil
}

// ListItems returns items matching the request filters.
func (a *BoardAdapter) ListItems(ctx context.Context, in ListItemsRequest) ([]app.SnapshotItem, error) {
	board, err := a.load(ctx)
	if err != nil {
		return nil, err
	}
	laneID := strings.TrimSpace(in.LaneID)
	kindRaw := strings.TrimSpace(in.Kind)
	var kind domain.ItemKind
	if kindRaw != "" {
		kind, err = domain.ParseItemKind(kindRaw)
		if err != nil {
			return nil, fmt.Errorf("list items: %w", errors.Join(ErrInvalidRequest, err))
		}
	}

	items := board.Items()
	if laneID != "" {
		if _, ok := board.Lane(laneID); !ok {
			return nil, fmt.Errorf("lane %q: %w", laneID, ErrNotFound)
		}
		items = board.ItemsInLane(laneID)
	}
	out := make([]app.SnapshotItem, 0, len(items))
	for _, item := range items {
		if kind != "" && item.Kind() != kind {
			continue
		}
		out = append(out, app.SnapshotItemFromDomain(item))
	}
	return out, nil
}

// LaneLayout returns the sub-row packing for one lane.
func (a *BoardAdapter) LaneLayout(ctx context.Context, laneID string) (LaneLayout, error) {
	laneID = strings.TrimSpace(laneID)
	if laneID == "" {
		return LaneLayout{}, fmt.Errorf("lane id is required: %w", ErrInvalidRequest)
	}
	board, err := a.load(ctx)
	if err != nil {
		return LaneLayout{}, err
	}
	lane, ok := board.Lane(laneID)
	if !ok {
		return LaneLayout{}, fmt.Errorf("lane %q: %w", laneID, ErrNotFound)
	}

	rows, count := layout.LaneRows(board, lane)
	out := LaneLayout{
		Lane:        laneView(board, lane),
		SubRowCount: count,
		Height:      layout.LaneHeight(count, a.metrics[lane.Kind]),
		Rows:        make([]RowAssignment, 0, len(rows)),
	}
	for _, item := range board.ItemsInLane(lane.ID) {
		base := item.Base()
		out.Rows = append(out.Rows, RowAssignment{
			ItemID: base.ID,
			Start:  domain.FormatDate(base.Start),
			End:    domain.FormatDate(base.End),
			Row:    rows[base.ID],
			Label:  domain.Label(item),
		})
	}
	slices.SortStableFunc(out.Rows, func(x, y RowAssignment) int {
		return cmp.Or(
			cmp.Compare(x.Row, y.Row),
			strings.Compare(x.Start, y.Start),
			strings.Compare(x.ItemID, y.ItemID),
		)
	})
	return out, nil
}

func (a *BoardAdapter) load(ctx context.Context) (domain.Board, error) {
	if a == nil || a.reader == nil {
		return domain.Board{}, fmt.Errorf("board adapter is not configured: %w", ErrBoardUnavailable)
	}
	board, err := a.reader.LoadBoard(ctx)
	if err != nil {
		return domain.Board{}, fmt.Errorf("load board: %w", errors.Join(ErrBoardUnavailable, err))
	}
	return board, nil
}

func laneViews(board domain.Board) []LaneView {
	lanes := board.Lanes()
	out := make([]LaneView, 0, len(lanes))
	for _, lane := range lanes {
		out = append(out, laneView(board, lane))
	}
	return out
}

func laneView(board domain.Board, lane domain.Lane) LaneView {
	return LaneView{
		ID:        lane.ID,
		Kind:      lane.Kind,
		Name:      lane.Name,
		Synthetic: lane.Synthetic(),
		ItemCount: len(board.ItemsInLane(lane.ID)),
	}
}
