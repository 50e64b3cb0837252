package tui

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"charm.land/lipgloss/v2"
	"github.com/hylla/labgantt/internal/calendar"
	"github.com/hylla/labgantt/internal/domain"
	"github.com/hylla/labgantt/internal/drag"
)

// paint names the style of one board cell.
type paint int

// paint values, lowest first.
const (
	paintNone paint = iota
	paintRule
	paintWeekend
	paintToday
	paintLabel
	paintSynthetic
	paintCalibration
	paintVacation
	paintPending
	paintAwaiting
	paintSampleReceived
	paintInProgress
	paintCompleted
	paintIncomplete
	paintReportIssued
	paintSelected
	paintDrag
)

// statusPaint maps assay statuses to bar colours.
var statusPaint = map[domain.Status]paint{
	domain.StatusPending:        paintPending,
	domain.StatusAwaiting:       paintAwaiting,
	domain.StatusSampleReceived: paintSampleReceived,
	domain.StatusInProgress:     paintInProgress,
	domain.StatusCompleted:      paintCompleted,
	domain.StatusIncomplete:     paintIncomplete,
	domain.StatusReportIssued:   paintReportIssued,
}

// boardPalette returns the lipgloss style for every paint.
func boardPalette() map[paint]lipgloss.Style {
	bar := func(bg string) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(lipgloss.Color("231")).Background(lipgloss.Color(bg))
	}
	return map[paint]lipgloss.Style{
		paintRule:           lipgloss.NewStyle().Foreground(lipgloss.Color("238")),
		paintWeekend:        lipgloss.NewStyle().Foreground(lipgloss.Color("236")).Background(lipgloss.Color("234")),
		paintToday:          lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		paintLabel:          lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Bold(true),
		paintSynthetic:      lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true),
		paintCalibration:    lipgloss.NewStyle().Foreground(lipgloss.Color("180")).Background(lipgloss.Color("58")),
		paintVacation:       bar("24"),
		paintPending:        bar("240"),
		paintAwaiting:       bar("62"),
		paintSampleReceived: bar("31"),
		paintInProgress:     bar("166"),
		paintCompleted:      bar("28"),
		paintIncomplete:     bar("124"),
		paintReportIssued:   bar("90"),
		paintSelected:       lipgloss.NewStyle().Reverse(true).Bold(true),
		paintDrag:           lipgloss.NewStyle().Foreground(lipgloss.Color("16")).Background(lipgloss.Color("220")).Bold(true),
	}
}

// itemPaint picks the bar colour of an item.
func itemPaint(item domain.Item) paint {
	switch item.Kind() {
	case domain.KindCalibration:
		return paintCalibration
	case domain.KindVacation:
		return paintVacation
	}
	if p, ok := statusPaint[item.Base().Status]; ok {
		return p
	}
	return paintPending
}

// cell is one terminal cell of the board canvas.
type cell struct {
	r rune
	p paint
}

// cellCanvas is a clipped grid of cells addressed in board coordinates.
type cellCanvas struct {
	cells   [][]cell
	width   int
	offsetY int
	minX    int
}

func newCellCanvas(width, height, offsetY, minX int) *cellCanvas {
	c := &cellCanvas{width: width, offsetY: offsetY, minX: minX}
	c.cells = make([][]cell, max(0, height))
	for y := range c.cells {
		row := make([]cell, max(0, width))
		for x := range row {
			row[x] = cell{r: ' '}
		}
		c.cells[y] = row
	}
	return c
}

// set writes one cell. Writes outside the visible window are dropped.
func (c *cellCanvas) set(x, boardY int, r rune, p paint) {
	y := boardY - c.offsetY
	if y < 0 || y >= len(c.cells) || x < c.minX || x >= c.width {
		return
	}
	c.cells[y][x] = cell{r: r, p: p}
}

// label writes s at the label column without clipping against minX.
func (c *cellCanvas) label(boardY int, s string, p paint) {
	y := boardY - c.offsetY
	if y < 0 || y >= len(c.cells) {
		return
	}
	x := 0
	for _, r := range s {
		if x >= c.width || x >= c.minX {
			break
		}
		c.cells[y][x] = cell{r: r, p: p}
		x++
	}
}

// fill paints the rectangle geom and writes text lines into it.
func (c *cellCanvas) fill(geom drag.Geometry, p paint, lines ...string) {
	x0 := int(geom.Left)
	x1 := int(geom.Left + geom.Width)
	y0 := int(geom.Top)
	y1 := int(geom.Top + geom.Height)
	for y := y0; y < y1; y++ {
		text := []rune{}
		if i := y - y0; i < len(lines) {
			text = []rune(truncate(lines[i], max(0, x1-x0-1)))
		}
		for x := x0; x < x1; x++ {
			r := ' '
			if i := x - x0 - 1; i >= 0 && i < len(text) {
				r = text[i]
			}
			c.set(x, y, r, p)
		}
	}
}

// highlight repaints the rectangle geom, keeping its runes.
func (c *cellCanvas) highlight(geom drag.Geometry, p paint) {
	for y := int(geom.Top); y < int(geom.Top+geom.Height); y++ {
		row := y - c.offsetY
		if row < 0 || row >= len(c.cells) {
			continue
		}
		for x := max(c.minX, int(geom.Left)); x < min(c.width, int(geom.Left+geom.Width)); x++ {
			c.cells[row][x].p = p
		}
	}
}

// render groups runs of equal paint into styled segments.
func (c *cellCanvas) render(palette map[paint]lipgloss.Style) string {
	lines := make([]string, 0, len(c.cells))
	for _, row := range c.cells {
		var b strings.Builder
		start := 0
		for x := 1; x <= len(row); x++ {
			if x < len(row) && row[x].p == row[start].p {
				continue
			}
			run := make([]rune, 0, x-start)
			for _, cl := range row[start:x] {
				run = append(run, cl.r)
			}
			if style, ok := palette[row[start].p]; ok {
				b.WriteString(style.Render(string(run)))
			} else {
				b.WriteString(string(run))
			}
			start = x
		}
		lines = append(lines, b.String())
	}
	return strings.Join(lines, "\n")
}

// boardFrame holds everything one render pass of the board needs.
type boardFrame struct {
	scene      boardScene
	dayOffset  int
	width      int
	height     int
	rowOffset  int
	labelWidth int
	cellWidth  int
	today      time.Time
	selectedID string
	preview    domain.Item
	previewAt  drag.Geometry
	dragging   bool
}

// visibleDays returns the number of day columns that fit next to the labels.
func (f boardFrame) visibleDays() int {
	if f.cellWidth <= 0 {
		return 0
	}
	return max(0, (f.width-f.labelWidth)/f.cellWidth)
}

// columnDate returns the date drawn in visible column i.
func (f boardFrame) columnDate(i int) time.Time {
	return calendar.ColumnToDate(f.dayOffset+i, f.scene.grid.Mapper.Range.Start)
}

// monthLabelWidth is the rune width of a "Jan 2006" label.
const monthLabelWidth = 8

// monthStartsWithin reports whether a month begins within cells screen cells after date.
func (f boardFrame) monthStartsWithin(date time.Time, cells int) bool {
	for d := 1; d*f.cellWidth < cells+f.cellWidth; d++ {
		if domain.AddDays(date, d).Day() == 1 {
			return true
		}
	}
	return false
}

// renderHeader returns the month and day ruler lines.
func (f boardFrame) renderHeader(palette map[paint]lipgloss.Style) (string, string) {
	months := []rune(strings.Repeat(" ", max(0, f.width)))
	var days strings.Builder
	days.WriteString(strings.Repeat(" ", min(f.labelWidth, max(0, f.width))))
	for i := range f.visibleDays() {
		date := f.columnDate(i)
		if date.Day() == 1 || (i == 0 && !f.monthStartsWithin(date, monthLabelWidth)) {
			x := f.labelWidth + i*f.cellWidth
			for j, r := range date.Format("Jan 2006") {
				if x+j < len(months) {
					months[x+j] = r
				}
			}
		}
		label := fmt.Sprintf("%*d", f.cellWidth, date.Day())
		if len(label) > f.cellWidth {
			label = label[len(label)-f.cellWidth:]
		}
		switch {
		case date.Equal(f.today):
			days.WriteString(palette[paintToday].Render(label))
		case isWeekend(date):
			days.WriteString(palette[paintRule].Render(label))
		default:
			days.WriteString(label)
		}
	}
	return strings.TrimRight(string(months), " "), days.String()
}

// renderBody draws lanes, overlays, bars and the drag preview.
func (f boardFrame) renderBody(palette map[paint]lipgloss.Style) string {
	c := newCellCanvas(f.width, f.height, f.rowOffset, f.labelWidth)
	lay := f.scene.layout

	for i := range f.visibleDays() {
		date := f.columnDate(i)
		x := f.labelWidth + i*f.cellWidth
		for y := f.rowOffset; y < f.rowOffset+f.height && y < lay.Height; y++ {
			switch {
			case date.Equal(f.today):
				c.set(x, y, '┊', paintToday)
			case isWeekend(date):
				for dx := range f.cellWidth {
					c.set(x+dx, y, ' ', paintWeekend)
				}
			default:
				c.set(x, y, '·', paintRule)
			}
		}
	}

	for _, band := range lay.Bands {
		p := paintLabel
		if band.Lane.Synthetic() {
			p = paintSynthetic
		}
		c.label(band.Top, truncate(band.Lane.Name, f.labelWidth-1), p)
	}

	for _, ov := range lay.Overlays {
		if f.dragging && f.preview != nil && f.preview.Base().ID == ov.Item.ID {
			continue
		}
		c.fill(f.scene.overlayGeometry(ov), paintCalibration, domain.Label(ov.Item))
	}

	for _, band := range lay.Bands {
		for _, item := range f.scene.board.ItemsInLane(band.Lane.ID) {
			if f.dragging && f.preview != nil && f.preview.Base().ID == item.Base().ID {
				continue
			}
			geom, ok := f.scene.laneItemGeometry(band, item)
			if !ok {
				continue
			}
			c.fill(geom, itemPaint(item), barLines(item)...)
		}
	}

	if f.selectedID != "" && !f.dragging {
		if _, geom, ok := f.scene.itemGeometry(f.selectedID); ok {
			c.highlight(geom, paintSelected)
		}
	}

	if f.dragging && f.preview != nil {
		c.fill(f.previewAt, paintDrag, barLines(f.preview)...)
	}
	return c.render(palette)
}

// barLines returns the text drawn on each line of an item bar.
func barLines(item domain.Item) []string {
	lines := []string{domain.Label(item)}
	if item.Kind() == domain.KindEfficiency || item.Kind() == domain.KindSafety {
		lines = append(lines, string(item.Base().Status))
	}
	return lines
}

func isWeekend(date time.Time) bool {
	wd := date.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// sortByStart orders items by start date, then id.
func sortByStart(items []domain.Item) {
	slices.SortFunc(items, func(a, b domain.Item) int {
		sa, sb := a.Base(), b.Base()
		return cmp.Or(sa.Start.Compare(sb.Start), cmp.Compare(sa.ID, sb.ID))
	})
}

var _ drag.Scene = boardScene{}

// legendOrder lists the paints shown by Legend with their captions.
var legendOrder = []struct {
	p       paint
	caption string
}{
	{paintPending, string(domain.StatusPending)},
	{paintAwaiting, string(domain.StatusAwaiting)},
	{paintSampleReceived, string(domain.StatusSampleReceived)},
	{paintInProgress, string(domain.StatusInProgress)},
	{paintCompleted, string(domain.StatusCompleted)},
	{paintIncomplete, string(domain.StatusIncomplete)},
	{paintReportIssued, string(domain.StatusReportIssued)},
	{paintCalibration, string(domain.KindCalibration)},
	{paintVacation, string(domain.KindVacation)},
	{paintWeekend, "weekend"},
	{paintToday, "today"},
	{paintSelected, "selected"},
	{paintDrag, "drag preview"},
}

// Legend renders one swatch line per board colour.
func Legend() string {
	palette := boardPalette()
	lines := make([]string, 0, len(legendOrder))
	for _, entry := range legendOrder {
		lines = append(lines, palette[entry.p].Render("    ")+" "+entry.caption)
	}
	return strings.Join(lines, "\n")
}
