package drag

import (
	"time"

	"github.com/hylla/labgantt/internal/calendar"
	"github.com/hylla/labgantt/internal/layout"
)

// Point is a pointer position in board coordinates.
type Point struct {
	X float64
	Y float64
}

// Geometry is an element rectangle in board coordinates.
type Geometry struct {
	Left   float64
	Top    float64
	Width  float64
	Height float64
}

// MidY returns the vertical midpoint of the rectangle.
func (g Geometry) MidY() float64 {
	return g.Top + g.Height/2
}

// Contains reports whether p lies inside the rectangle.
func (g Geometry) Contains(p Point) bool {
	return p.X >= g.Left && p.X < g.Left+g.Width && p.Y >= g.Top && p.Y < g.Top+g.Height
}

// Grid locates the calendar grid: OriginX is the scroll-adjusted x of column 0.
type Grid struct {
	OriginX float64
	Mapper  calendar.Mapper
}

// Drop is a resolved destination.
type Drop struct {
	Start  time.Time
	LaneID string
}

// ResolveDrop turns the dropped element's geometry into a start date and lane.
// The left edge picks the column; the vertical midpoint picks the band.
func ResolveDrop(elem Geometry, grid Grid, bands []layout.Band) (Drop, error) {
	mid := elem.MidY()
	for _, band := range bands {
		if !band.Contains(mid) {
			continue
		}
		col := calendar.PixelToColumn(elem.Left-grid.OriginX, grid.Mapper.CellWidth)
		return Drop{
			Start:  calendar.ColumnToDate(col, grid.Mapper.Range.Start),
			LaneID: band.Lane.ID,
		}, nil
	}
	return Drop{}, ErrDropResolutionFailed
}
