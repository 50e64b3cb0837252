// Package common provides transport-agnostic read contracts shared by the HTTP and MCP adapters.
package common

import (
	"context"
	"errors"
	"time"

	"github.com/hylla/labgantt/internal/app"
	"github.com/hylla/labgantt/internal/domain"
)

// ErrInvalidRequest reports malformed transport input.
var ErrInvalidRequest = errors.New("invalid request")

// ErrNotFound reports missing transport-visible resources.
var ErrNotFound = errors.New("not found")

// ErrBoardUnavailable reports a backing store that could not be read.
var ErrBoardUnavailable = errors.New("board unavailable")

// BoardReader loads the last committed board.
type BoardReader interface {
	LoadBoard(context.Context) (domain.Board, error)
}

// SavedAtReader is implemented by stores that record their last commit time.
type SavedAtReader interface {
	SavedAt(context.Context) (time.Time, bool, error)
}

// BoardQueries is the read surface both transports serve.
type BoardQueries interface {
	Board(context.Context) (BoardView, error)
	ListLanes(context.Context) ([]LaneView, error)
	ListItems(context.Context, ListItemsRequest) ([]app.SnapshotItem, error)
	LaneLayout(context.Context, string) (LaneLayout, error)
}

// LaneView describes one lane and how many items it currently holds.
type LaneView struct {
	ID        string          `json:"id"`
	Kind      domain.LaneKind `json:"kind"`
	Name      string          `json:"name"`
	Synthetic bool            `json:"synthetic"`
	ItemCount int             `json:"item_count"`
}

// BoardView is the full committed board.
type BoardView struct {
	SavedAt *time.Time         `json:"saved_at,omitempty"`
	Lanes   []LaneView         `json:"lanes"`
	Items   []app.SnapshotItem `json:"items"`
}

// ListItemsRequest filters items by lane and kind. Empty fields match everything.
type ListItemsRequest struct {
	LaneID string
	Kind   string
}

// RowAssignment places one item on a sub-row of its lane.
type RowAssignment struct {
	ItemID string `json:"item_id"`
	Start  string `json:"start"`
	End    string `json:"end"`
	Row    int    `json:"row"`
	Label  string `json:"label"`
}

// LaneLayout is the sub-row packing of one lane.
type LaneLayout struct {
	Lane        LaneView        `json:"lane"`
	SubRowCount int             `json:"sub_row_count"`
	Height      int             `json:"height"`
	Rows        []RowAssignment `json:"rows"`
}
