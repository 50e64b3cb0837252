// Package layout stacks overlapping items into sub-rows and lanes into bands.
package layout

import (
	"slices"

	"github.com/hylla/labgantt/internal/domain"
)

// RowMetrics fixes the per-row geometry of one lane kind.
type RowMetrics struct {
	RowHeight int
	RowMargin int
}

// Metrics maps every lane kind to its row geometry.
type Metrics map[domain.LaneKind]RowMetrics

// DefaultMetrics returns terminal-cell geometry: one line per row, two for Pending.
func DefaultMetrics() Metrics {
	return Metrics{
		domain.LaneKindTerminal: {RowHeight: 1},
		domain.LaneKindSafety:   {RowHeight: 1},
		domain.LaneKindVacation: {RowHeight: 1},
		domain.LaneKindPending:  {RowHeight: 2},
	}
}

// AssignSubRows greedily colours the interval graph formed by spans.
// rows[i] is the sub-row of spans[i]; count is the number of rows used.
// Items are visited in start order (ties keep input order) and take the
// first row whose last end is strictly before their start.
func AssignSubRows(spans []domain.Schedule) (rows []int, count int) {
	rows = make([]int, len(spans))
	order := make([]int, len(spans))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return spans[a].Start.Compare(spans[b].Start)
	})

	var rowEnd []domain.Schedule
	for _, idx := range order {
		s := spans[idx]
		placed := -1
		for r, last := range rowEnd {
			if last.End.Before(s.Start) {
				placed = r
				break
			}
		}
		if placed < 0 {
			rowEnd = append(rowEnd, s)
			placed = len(rowEnd) - 1
		} else {
			rowEnd[placed] = s
		}
		rows[idx] = placed
	}
	return rows, len(rowEnd)
}

// LaneHeight returns the total height of a lane with n sub-rows.
// An empty lane still reserves one row.
func LaneHeight(n int, m RowMetrics) int {
	rows := max(1, n)
	return rows*(m.RowHeight+m.RowMargin) + m.RowMargin
}

// Band is the vertical extent of one lane in a render pass.
type Band struct {
	Lane        domain.Lane
	Top         int
	Height      int
	SubRowCount int
	Metrics     RowMetrics
	Rows        map[string]int
}

// Bottom returns the first y coordinate below the band.
func (b Band) Bottom() int {
	return b.Top + b.Height
}

// Contains reports whether y falls inside the band.
func (b Band) Contains(y float64) bool {
	return y >= float64(b.Top) && y < float64(b.Bottom())
}

// RowTop returns the y coordinate of sub-row r.
func (b Band) RowTop(r int) int {
	return b.Top + b.Metrics.RowMargin + r*(b.Metrics.RowHeight+b.Metrics.RowMargin)
}

// Overlay is a calibration drawn across the bands of every affected terminal.
type Overlay struct {
	Item   domain.CalibrationEvent
	Top    int
	Height int
}

// Board is the derived geometry of a whole board for one render pass.
type Board struct {
	Bands    []Band
	Overlays []Overlay
	Height   int
}

// Band returns the band for a lane id.
func (l Board) Band(laneID string) (Band, bool) {
	for _, b := range l.Bands {
		if b.Lane.ID == laneID {
			return b, true
		}
	}
	return Band{}, false
}

// BandAt returns the band containing y.
func (l Board) BandAt(y float64) (Band, bool) {
	for _, b := range l.Bands {
		if b.Contains(y) {
			return b, true
		}
	}
	return Band{}, false
}

// LaneRows computes sub-row assignment for one lane of b.
func LaneRows(b domain.Board, lane domain.Lane) (map[string]int, int) {
	items := b.ItemsInLane(lane.ID)
	rows := make(map[string]int, len(items))
	if !lane.Stacked() {
		for _, it := range items {
			rows[it.Base().ID] = 0
		}
		return rows, 1
	}
	spans := make([]domain.Schedule, len(items))
	for i, it := range items {
		spans[i] = it.Base()
	}
	assigned, count := AssignSubRows(spans)
	for i, s := range spans {
		rows[s.ID] = assigned[i]
	}
	return rows, count
}

// Compute lays out every lane of b from top to bottom and derives
// calibration overlays. It keeps no state between calls.
func Compute(b domain.Board, metrics Metrics) Board {
	var out Board
	top := 0
	for _, lane := range b.Lanes() {
		m := metrics[lane.Kind]
		rows, count := LaneRows(b, lane)
		band := Band{
			Lane:        lane,
			Top:         top,
			Height:      LaneHeight(count, m),
			SubRowCount: count,
			Metrics:     m,
			Rows:        rows,
		}
		out.Bands = append(out.Bands, band)
		top = band.Bottom()
	}
	out.Height = top

	for _, cal := range b.Calibrations {
		first, last := -1, -1
		for i, band := range out.Bands {
			n, ok := band.Lane.TerminalNumber()
			if !ok || !cal.Scope.Covers(n) {
				continue
			}
			if first < 0 {
				first = i
			}
			last = i
		}
		if first < 0 {
			continue
		}
		out.Overlays = append(out.Overlays, Overlay{
			Item:   cal,
			Top:    out.Bands[first].Top,
			Height: out.Bands[last].Bottom() - out.Bands[first].Top,
		})
	}
	return out
}
