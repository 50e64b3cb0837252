// Package calendar maps board dates to grid columns and pixel offsets.
package calendar

import (
	"math"
	"time"

	"github.com/hylla/labgantt/internal/domain"
)

// Padding controls how far the visible grid extends around the items.
type Padding struct {
	BeforeDays      int
	AfterDays       int
	EmptyBeforeDays int
	EmptyAfterDays  int
}

// DefaultPadding returns 30 days before the earliest item and 60 after the
// latest, or -7/+21 days around today when the board is empty.
func DefaultPadding() Padding {
	return Padding{
		BeforeDays:      30,
		AfterDays:       60,
		EmptyBeforeDays: 7,
		EmptyAfterDays:  21,
	}
}

// Range is an inclusive span of grid dates.
type Range struct {
	Start time.Time
	End   time.Time
}

// Days returns the number of columns covered by the range.
func (r Range) Days() int {
	return domain.DaysBetween(r.Start, r.End) + 1
}

// DateToColumn returns the whole-day column index of date relative to rangeStart.
func DateToColumn(date, rangeStart time.Time) int {
	return domain.DaysBetween(rangeStart, date)
}

// ColumnToDate returns the date at column index relative to rangeStart.
func ColumnToDate(index int, rangeStart time.Time) time.Time {
	return domain.AddDays(rangeStart, index)
}

// PixelToColumn snaps a pixel offset to the nearest column.
func PixelToColumn(offset, cellWidth float64) int {
	if cellWidth <= 0 {
		return 0
	}
	return int(math.Round(offset / cellWidth))
}

// ComputeRange derives the grid range from the given schedules.
func ComputeRange(spans []domain.Schedule, today time.Time, pad Padding) Range {
	if len(spans) == 0 {
		today = domain.Date(today)
		return Range{
			Start: domain.AddDays(today, -pad.EmptyBeforeDays),
			End:   domain.AddDays(today, pad.EmptyAfterDays),
		}
	}
	earliest, latest := domain.Date(spans[0].Start), domain.Date(spans[0].End)
	for _, s := range spans[1:] {
		if start := domain.Date(s.Start); start.Before(earliest) {
			earliest = start
		}
		if end := domain.Date(s.End); end.After(latest) {
			latest = end
		}
	}
	return Range{
		Start: domain.AddDays(earliest, -pad.BeforeDays),
		End:   domain.AddDays(latest, pad.AfterDays),
	}
}

// BoardRange derives the grid range from every item on the board.
func BoardRange(b domain.Board, today time.Time, pad Padding) Range {
	items := b.Items()
	spans := make([]domain.Schedule, 0, len(items))
	for _, it := range items {
		spans = append(spans, it.Base())
	}
	return ComputeRange(spans, today, pad)
}

// Mapper converts between dates and pixel offsets for one grid.
type Mapper struct {
	Range     Range
	CellWidth float64
}

// Columns returns the number of day columns on the grid.
func (m Mapper) Columns() int {
	return m.Range.Days()
}

// Contains reports whether date falls on the grid.
func (m Mapper) Contains(date time.Time) bool {
	date = domain.Date(date)
	return !date.Before(m.Range.Start) && !date.After(m.Range.End)
}

// DateToPixel returns the left-edge offset of date's column.
func (m Mapper) DateToPixel(date time.Time) float64 {
	return float64(DateToColumn(date, m.Range.Start)) * m.CellWidth
}

// PixelToDate snaps an offset from the grid origin to a date.
func (m Mapper) PixelToDate(offset float64) time.Time {
	return ColumnToDate(PixelToColumn(offset, m.CellWidth), m.Range.Start)
}

// SpanWidth returns the pixel width of an inclusive schedule.
func (m Mapper) SpanWidth(s domain.Schedule) float64 {
	return float64(s.Duration()+1) * m.CellWidth
}
