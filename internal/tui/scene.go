package tui

import (
	"github.com/hylla/labgantt/internal/calendar"
	"github.com/hylla/labgantt/internal/domain"
	"github.com/hylla/labgantt/internal/drag"
	"github.com/hylla/labgantt/internal/layout"
)

// boardScene is the hit-testing view of one render pass. It is rebuilt from a
// board copy on every frame and never outlives the event it serves.
type boardScene struct {
	board  domain.Board
	layout layout.Board
	grid   drag.Grid
}

// newBoardScene derives layout and grid placement for board.
func newBoardScene(board domain.Board, metrics layout.Metrics, rng calendar.Range, cellWidth int, originX float64) boardScene {
	return boardScene{
		board:  board,
		layout: layout.Compute(board, metrics),
		grid: drag.Grid{
			OriginX: originX,
			Mapper:  calendar.Mapper{Range: rng, CellWidth: float64(cellWidth)},
		},
	}
}

// Grid returns the scroll-adjusted grid.
func (s boardScene) Grid() drag.Grid {
	return s.grid
}

// Bands returns the lane bands top to bottom.
func (s boardScene) Bands() []layout.Band {
	return s.layout.Bands
}

// laneItemGeometry returns the bar rectangle of an item stacked in band.
func (s boardScene) laneItemGeometry(band layout.Band, item domain.Item) (drag.Geometry, bool) {
	row, ok := band.Rows[item.Base().ID]
	if !ok {
		return drag.Geometry{}, false
	}
	return drag.Geometry{
		Left:   s.grid.OriginX + s.grid.Mapper.DateToPixel(item.Base().Start),
		Top:    float64(band.RowTop(row)),
		Width:  s.grid.Mapper.SpanWidth(item.Base()),
		Height: float64(max(1, band.Metrics.RowHeight)),
	}, true
}

// overlayGeometry returns the rectangle a calibration covers.
func (s boardScene) overlayGeometry(ov layout.Overlay) drag.Geometry {
	return drag.Geometry{
		Left:   s.grid.OriginX + s.grid.Mapper.DateToPixel(ov.Item.Start),
		Top:    float64(ov.Top),
		Width:  s.grid.Mapper.SpanWidth(ov.Item.Schedule),
		Height: float64(ov.Height),
	}
}

// ItemAt returns the topmost item under p. Lane bars sit above calibration
// overlays, so a bar inside a calibrated band wins the hit.
func (s boardScene) ItemAt(p drag.Point, excludeID string) (domain.Item, drag.Geometry, bool) {
	for _, band := range s.layout.Bands {
		if !band.Contains(p.Y) {
			continue
		}
		for _, item := range s.board.ItemsInLane(band.Lane.ID) {
			if item.Base().ID == excludeID {
				continue
			}
			geom, ok := s.laneItemGeometry(band, item)
			if ok && geom.Contains(p) {
				return item, geom, true
			}
		}
	}
	for _, ov := range s.layout.Overlays {
		if ov.Item.ID == excludeID {
			continue
		}
		if geom := s.overlayGeometry(ov); geom.Contains(p) {
			return ov.Item, geom, true
		}
	}
	return nil, drag.Geometry{}, false
}

// itemGeometry locates any item by id, used for keyboard selection and previews.
func (s boardScene) itemGeometry(id string) (domain.Item, drag.Geometry, bool) {
	for _, band := range s.layout.Bands {
		for _, item := range s.board.ItemsInLane(band.Lane.ID) {
			if item.Base().ID != id {
				continue
			}
			if geom, ok := s.laneItemGeometry(band, item); ok {
				return item, geom, true
			}
		}
	}
	for _, ov := range s.layout.Overlays {
		if ov.Item.ID == id {
			return ov.Item, s.overlayGeometry(ov), true
		}
	}
	return nil, drag.Geometry{}, false
}

// orderedItemIDs lists item ids in top-to-bottom, left-to-right order.
func (s boardScene) orderedItemIDs() []string {
	var ids []string
	for _, band := range s.layout.Bands {
		items := s.board.ItemsInLane(band.Lane.ID)
		for r := range max(1, band.SubRowCount) {
			var rowItems []domain.Item
			for _, item := range items {
				if band.Rows[item.Base().ID] == r {
					rowItems = append(rowItems, item)
				}
			}
			sortByStart(rowItems)
			for _, item := range rowItems {
				ids = append(ids, item.Base().ID)
			}
		}
	}
	for _, ov := range s.layout.Overlays {
		ids = append(ids, ov.Item.ID)
	}
	return ids
}
