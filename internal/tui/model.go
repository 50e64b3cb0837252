// Package tui renders the scheduling board and turns mouse gestures into edits.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/atotto/clipboard"
	"github.com/hylla/labgantt/internal/app"
	"github.com/hylla/labgantt/internal/calendar"
	"github.com/hylla/labgantt/internal/domain"
	"github.com/hylla/labgantt/internal/drag"
	"github.com/hylla/labgantt/internal/layout"
)

// Service opens edit sessions over the committed board.
type Service interface {
	OpenSession(context.Context) (*app.Session, error)
	Today() time.Time
}

// headerLines is the number of lines above the board body: title, months, days.
const headerLines = 3

// defaultSaveTimeout bounds one commit handoff.
const defaultSaveTimeout = 10 * time.Second

// loadedMsg carries the opened session.
type loadedMsg struct {
	session *app.Session
	err     error
}

// savedMsg reports the result of one commit handoff.
type savedMsg struct {
	err error
}

// Model is the bubbletea board model.
type Model struct {
	svc      Service
	session  *app.Session
	ctrl     *drag.Controller
	keys     keyMap
	help     help.Model
	palette  map[paint]lipgloss.Style
	markdown *markdownRenderer

	grid        GridConfig
	padding     calendar.Padding
	metrics     layout.Metrics
	copyText    func(string) error
	saveTimeout time.Duration

	ready  bool
	width  int
	height int
	err    error
	status string

	today       time.Time
	viewStart   time.Time
	rowOffset   int
	selectedID  string
	showDetails bool
	confirmQuit bool
	saving      int
	// quitPending defers quit until every in-flight save has reported back.
	quitPending bool
	// dragRowOffset is the vertical scroll captured when the drag started.
	dragRowOffset int
}

// NewModel constructs a board model that opens its session on Init.
func NewModel(svc Service, opts ...Option) Model {
	h := help.New()
	h.ShowAll = false
	m := Model{
		svc:         svc,
		keys:        newKeyMap(),
		help:        h,
		palette:     boardPalette(),
		markdown:    &markdownRenderer{},
		grid:        DefaultGridConfig(),
		padding:     calendar.DefaultPadding(),
		metrics:     layout.DefaultMetrics(),
		copyText:    clipboard.WriteAll,
		saveTimeout: defaultSaveTimeout,
		status:      "loading...",
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}
	return m
}

// Init opens the edit session.
func (m Model) Init() tea.Cmd {
	return m.loadSession
}

func (m Model) loadSession() tea.Msg {
	if m.svc == nil {
		return loadedMsg{err: app.ErrNoStore}
	}
	session, err := m.svc.OpenSession(context.Background())
	return loadedMsg{session: session, err: err}
}

// Update handles one message.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		m.height = msg.Height
		m.help.SetWidth(max(0, m.width-2))
		return m, nil

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.session = msg.session
		m.ctrl = drag.NewController(msg.session)
		m.session.OnDiscard(m.ctrl.Abort)
		m.today = domain.Date(m.svc.Today())
		m.viewStart = domain.AddDays(m.today, -3)
		m.status = "ready"
		return m, nil

	case savedMsg:
		m.saving = max(0, m.saving-1)
		if msg.err != nil {
			m.status = "save failed: " + msg.err.Error()
			if m.quitPending {
				m.quitPending = false
				m.status += "; quit cancelled"
			}
			return m, nil
		}
		m.status = "saved"
		if m.quitPending && m.saving == 0 {
			return m, tea.Quit
		}
		return m, nil

	case tea.KeyPressMsg:
		return m.handleKey(msg)

	case tea.MouseClickMsg:
		return m.handleMouseClick(msg)

	case tea.MouseMotionMsg:
		return m.handleMouseMotion(msg)

	case tea.MouseReleaseMsg:
		return m.handleMouseRelease(msg)

	case tea.MouseWheelMsg:
		return m.handleMouseWheel(msg)

	default:
		return m, nil
	}
}

// View renders the board.
func (m Model) View() tea.View {
	v := tea.NewView(m.render())
	v.MouseMode = tea.MouseModeCellMotion
	v.AltScreen = true
	return v
}

// render builds the full screen as a string.
func (m Model) render() string {
	if m.err != nil {
		return "error: " + m.err.Error() + "\n\npress q to quit\n"
	}
	if !m.ready || m.session == nil {
		return "loading..."
	}

	f := m.frame()
	months, days := f.renderHeader(m.palette)
	title := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252")).Render("labgantt")
	if m.session.Dirty() {
		title += "  " + lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true).Render("● unsaved")
	}
	if depth := m.session.UndoDepth(); depth > 0 {
		title += "  " + lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render(fmt.Sprintf("undo %d", depth))
	}
	if m.saving > 0 {
		title += "  " + lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render("saving…")
	}

	body := fitLines(f.renderBody(m.palette), f.height)
	statusLine := lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Render(truncate(m.status, max(1, m.width)))
	content := strings.Join([]string{title, months, days, body, statusLine, m.helpLine()}, "\n")

	if m.showDetails {
		if item, ok := m.selectedItem(); ok {
			overlay := m.detailsOverlay(item)
			return overlayOnContent(content, overlay, m.width, max(lipgloss.Height(content), m.height))
		}
	}
	return content
}

// helpLine renders the bordered help footer.
func (m Model) helpLine() string {
	muted := lipgloss.Color("241")
	dim := lipgloss.Color("239")
	return lipgloss.NewStyle().
		Foreground(muted).
		BorderTop(true).
		BorderForeground(dim).
		Padding(0, 1).
		Width(max(0, m.width)).
		Render(m.help.View(m.keys))
}

// bodyHeight returns the number of board lines between header and footer.
func (m Model) bodyHeight() int {
	footer := 1 + lipgloss.Height(m.helpLine())
	return max(1, m.height-headerLines-footer)
}

// boardRange returns the calendar range of the live board.
func (m Model) boardRange(board domain.Board) calendar.Range {
	return calendar.BoardRange(board, m.today, m.padding)
}

// visibleDays returns how many day columns fit on screen.
func (m Model) visibleDays() int {
	if m.grid.CellWidth <= 0 {
		return 0
	}
	return max(0, (m.width-m.grid.LabelWidth)/m.grid.CellWidth)
}

// dayOffset returns the first visible column, clamped to the range.
func (m Model) dayOffset(rng calendar.Range) int {
	return clamp(calendar.DateToColumn(m.viewStart, rng.Start), 0, max(0, rng.Days()-m.visibleDays()))
}

// frame derives layout and scroll placement from a copy of the live board.
func (m Model) frame() boardFrame {
	board := m.session.Board()
	rng := m.boardRange(board)
	offset := m.dayOffset(rng)
	originX := float64(m.grid.LabelWidth - offset*m.grid.CellWidth)
	scene := newBoardScene(board, m.metrics, rng, m.grid.CellWidth, originX)
	height := m.bodyHeight()
	f := boardFrame{
		scene:      scene,
		dayOffset:  offset,
		width:      m.width,
		height:     height,
		rowOffset:  clamp(m.rowOffset, 0, max(0, scene.layout.Height-height)),
		labelWidth: m.grid.LabelWidth,
		cellWidth:  m.grid.CellWidth,
		today:      m.today,
		selectedID: m.selectedID,
	}
	if m.ctrl != nil {
		f.preview, f.previewAt, f.dragging = m.ctrl.Preview()
	}
	return f
}

// boardPoint maps a screen cell to board coordinates. ok is false outside the grid body.
func (m Model) boardPoint(f boardFrame, x, y int) (drag.Point, bool) {
	p := drag.Point{X: float64(x), Y: float64(y - headerLines + f.rowOffset)}
	inside := y >= headerLines && y < headerLines+f.height && x >= m.grid.LabelWidth
	return p, inside
}

// handleKey dispatches one key press.
func (m Model) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.quit) {
		if m.saving > 0 {
			m.quitPending = true
			m.status = "waiting for save to finish before quitting"
			return m, nil
		}
		if m.session != nil && m.session.Dirty() && !m.confirmQuit {
			m.confirmQuit = true
			m.status = "unsaved edits: press q again to quit or s to save"
			return m, nil
		}
		return m, tea.Quit
	}
	m.confirmQuit = false
	if m.session == nil {
		return m, nil
	}

	if m.showDetails {
		switch {
		case key.Matches(msg, m.keys.cancel), key.Matches(msg, m.keys.details):
			m.showDetails = false
		case key.Matches(msg, m.keys.yank):
			m.yankSelected()
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.toggleHelp):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keys.save):
		return m.save()

	case key.Matches(msg, m.keys.cancel):
		if m.ctrl != nil && m.ctrl.Dragging() {
			m.ctrl.Abort()
			m.status = "drag cancelled"
			return m, nil
		}
		if !m.session.Dirty() {
			m.status = "no unsaved edits"
			return m, nil
		}
		m.session.Discard()
		m.dropStaleSelection()
		m.status = "edits discarded"
		return m, nil

	case key.Matches(msg, m.keys.undo):
		if err := m.session.Undo(); err != nil {
			m.status = err.Error()
			return m, nil
		}
		m.dropStaleSelection()
		m.status = "undone"
		return m, nil

	case key.Matches(msg, m.keys.scrollLeft):
		m.scrollDays(-1)
		return m, nil

	case key.Matches(msg, m.keys.scrollRight):
		m.scrollDays(1)
		return m, nil

	case key.Matches(msg, m.keys.scrollUp):
		m.scrollRows(-1)
		return m, nil

	case key.Matches(msg, m.keys.scrollDown):
		m.scrollRows(1)
		return m, nil

	case key.Matches(msg, m.keys.today):
		m.viewStart = domain.AddDays(m.today, -3)
		return m, nil

	case key.Matches(msg, m.keys.nextItem):
		m.cycleSelection(1)
		return m, nil

	case key.Matches(msg, m.keys.prevItem):
		m.cycleSelection(-1)
		return m, nil

	case key.Matches(msg, m.keys.advance):
		m.advanceSelected()
		return m, nil

	case key.Matches(msg, m.keys.markIncomplete):
		m.transitionSelected(domain.StatusIncomplete)
		return m, nil

	case key.Matches(msg, m.keys.deleteItem):
		item, ok := m.selectedItem()
		if !ok {
			m.status = "no item selected"
			return m, nil
		}
		if err := m.session.DeleteItem(item.Base().ID); err != nil {
			m.status = "delete failed: " + err.Error()
			return m, nil
		}
		m.selectedID = ""
		m.status = "deleted " + domain.Label(item)
		return m, nil

	case key.Matches(msg, m.keys.details):
		if _, ok := m.selectedItem(); !ok {
			m.status = "no item selected"
			return m, nil
		}
		m.showDetails = true
		return m, nil

	case key.Matches(msg, m.keys.yank):
		m.yankSelected()
		return m, nil
	}
	return m, nil
}

// save commits the session and runs the persistence handoff off the update loop.
func (m Model) save() (tea.Model, tea.Cmd) {
	if !m.session.Dirty() {
		m.status = "nothing to save"
		return m, nil
	}
	if m.ctrl != nil {
		m.ctrl.Abort()
	}
	handoff := m.session.Commit()
	m.saving++
	m.status = "saving..."
	timeout := m.saveTimeout
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return savedMsg{err: handoff(ctx)}
	}
}

// scrollDays moves the visible window by delta days.
func (m *Model) scrollDays(delta int) {
	board := m.session.Board()
	rng := m.boardRange(board)
	start := calendar.ColumnToDate(m.dayOffset(rng), rng.Start)
	m.viewStart = domain.AddDays(start, delta)
}

// scrollRows moves the visible lanes by delta lines.
func (m *Model) scrollRows(delta int) {
	f := m.frame()
	m.rowOffset = clamp(f.rowOffset+delta, 0, max(0, f.scene.layout.Height-f.height))
	m.dragRowOffset = m.rowOffset
}

// cycleSelection selects the next item in reading order and scrolls it into view.
func (m *Model) cycleSelection(delta int) {
	f := m.frame()
	ids := f.scene.orderedItemIDs()
	if len(ids) == 0 {
		m.status = "board is empty"
		return
	}
	idx := -1
	for i, id := range ids {
		if id == m.selectedID {
			idx = i
			break
		}
	}
	switch {
	case idx < 0 && delta < 0:
		idx = len(ids) - 1
	case idx < 0:
		idx = 0
	default:
		idx = (idx + delta + len(ids)) % len(ids)
	}
	m.selectedID = ids[idx]
	item, geom, ok := f.scene.itemGeometry(m.selectedID)
	if !ok {
		return
	}
	start := item.Base().Start
	first := f.columnDate(0)
	last := f.columnDate(max(0, f.visibleDays()-1))
	if start.Before(first) || start.After(last) {
		m.viewStart = domain.AddDays(start, -2)
	}
	top := int(geom.Top)
	if top < f.rowOffset || top >= f.rowOffset+f.height {
		m.rowOffset = max(0, top-1)
	}
	m.status = describeItem(item)
}

// selectedItem returns the selected item on the live board.
func (m Model) selectedItem() (domain.Item, bool) {
	if m.session == nil || m.selectedID == "" {
		return nil, false
	}
	return m.session.Board().Item(m.selectedID)
}

// dropStaleSelection clears the selection when its item no longer exists.
func (m *Model) dropStaleSelection() {
	if _, ok := m.selectedItem(); !ok {
		m.selectedID = ""
		m.showDetails = false
	}
}

// advanceSelected applies the first legal next status.
func (m *Model) advanceSelected() {
	item, ok := m.selectedItem()
	if !ok {
		m.status = "no item selected"
		return
	}
	next := domain.NextStatuses(item.Kind(), item.Base().Status)
	if len(next) == 0 {
		m.status = fmt.Sprintf("%s has no next status", domain.Label(item))
		return
	}
	m.transitionSelected(next[0])
}

// transitionSelected moves the selected item to status to.
func (m *Model) transitionSelected(to domain.Status) {
	item, ok := m.selectedItem()
	if !ok {
		m.status = "no item selected"
		return
	}
	if err := m.session.TransitionItem(item.Base().ID, to); err != nil {
		m.status = "status change rejected: " + err.Error()
		return
	}
	m.status = fmt.Sprintf("%s → %s", domain.Label(item), to)
}

// yankSelected copies a one-line summary of the selected item.
func (m *Model) yankSelected() {
	item, ok := m.selectedItem()
	if !ok {
		m.status = "no item selected"
		return
	}
	if err := m.copyText(describeItem(item)); err != nil {
		m.status = "copy failed: " + err.Error()
		return
	}
	m.status = "copied " + domain.Label(item)
}

// handleMouseClick selects the item under the pointer and starts a drag.
func (m Model) handleMouseClick(msg tea.MouseClickMsg) (tea.Model, tea.Cmd) {
	if m.session == nil || m.ctrl == nil || m.showDetails || m.help.ShowAll {
		return m, nil
	}
	m.confirmQuit = false
	f := m.frame()
	p, inside := m.boardPoint(f, msg.X, msg.Y)
	if !inside {
		return m, nil
	}
	item, _, hit := f.scene.ItemAt(p, "")
	if !hit {
		m.selectedID = ""
		return m, nil
	}
	m.selectedID = item.Base().ID
	if err := m.ctrl.PointerDown(f.scene, p, mouseButton(msg.Button)); err != nil {
		if errors.Is(err, drag.ErrNotDraggable) {
			m.status = domain.Label(item) + " cannot be dragged"
			return m, nil
		}
		m.status = err.Error()
		return m, nil
	}
	if m.ctrl.Dragging() {
		m.dragRowOffset = f.rowOffset
		m.status = "dragging " + domain.Label(item)
	} else {
		m.status = describeItem(item)
	}
	return m, nil
}

// handleMouseMotion moves the floating preview. It does no layout work.
func (m Model) handleMouseMotion(msg tea.MouseMotionMsg) (tea.Model, tea.Cmd) {
	if m.ctrl == nil || !m.ctrl.Dragging() {
		return m, nil
	}
	m.ctrl.PointerMove(drag.Point{X: float64(msg.X), Y: float64(msg.Y - headerLines + m.dragRowOffset)})
	return m, nil
}

// handleMouseRelease resolves the drop into a swap or reposition.
func (m Model) handleMouseRelease(msg tea.MouseReleaseMsg) (tea.Model, tea.Cmd) {
	if m.ctrl == nil || !m.ctrl.Dragging() {
		return m, nil
	}
	f := m.frame()
	p, _ := m.boardPoint(f, msg.X, msg.Y)
	outcome, err := m.ctrl.PointerUp(f.scene, p)
	switch {
	case errors.Is(err, drag.ErrDropResolutionFailed):
		m.status = "dropped outside every lane; nothing changed"
	case err != nil:
		m.status = "move rejected: " + err.Error()
	case outcome.Kind == drag.OutcomeSwap:
		m.status = fmt.Sprintf("swapped %s with %s", outcome.ItemID, outcome.OtherID)
	case outcome.Kind == drag.OutcomeReposition:
		laneName := outcome.Drop.LaneID
		if lane, ok := f.scene.board.Lane(outcome.Drop.LaneID); ok {
			laneName = lane.Name
		}
		m.status = fmt.Sprintf("moved to %s on %s", domain.FormatDate(outcome.Drop.Start), laneName)
	}
	return m, nil
}

// handleMouseWheel scrolls lanes vertically and days horizontally.
func (m Model) handleMouseWheel(msg tea.MouseWheelMsg) (tea.Model, tea.Cmd) {
	if m.session == nil || m.showDetails {
		return m, nil
	}
	switch msg.Button {
	case tea.MouseWheelUp:
		m.scrollRows(-1)
	case tea.MouseWheelDown:
		m.scrollRows(1)
	case tea.MouseWheelLeft:
		m.scrollDays(-1)
	case tea.MouseWheelRight:
		m.scrollDays(1)
	}
	return m, nil
}

// mouseButton maps terminal mouse buttons onto drag buttons.
func mouseButton(b tea.MouseButton) drag.Button {
	switch b {
	case tea.MouseLeft:
		return drag.ButtonPrimary
	case tea.MouseRight:
		return drag.ButtonSecondary
	case tea.MouseMiddle:
		return drag.ButtonMiddle
	default:
		return drag.ButtonOther
	}
}

// describeItem returns a one-line summary used by the status bar and clipboard.
func describeItem(item domain.Item) string {
	s := item.Base()
	lane := s.LaneID
	if lane == "" {
		lane = domain.PendingLaneID
	}
	if item.Kind() == domain.KindCalibration {
		lane = "terminals"
	}
	if item.Kind() == domain.KindVacation {
		lane = domain.VacationLaneID
	}
	return fmt.Sprintf("%s [%s] %s..%s lane=%s status=%s", domain.Label(item), item.Kind(),
		domain.FormatDate(s.Start), domain.FormatDate(s.End), lane, s.Status)
}

// detailsOverlay renders the selected item as a bordered markdown panel.
func (m Model) detailsOverlay(item domain.Item) string {
	width := clamp(m.width-8, 24, 72)
	body := m.markdown.render(itemMarkdown(item), width-4)
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(0, 1).
		Width(width).
		Render(body + "\n\n" + lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render("esc close • y copy"))
}

// clamp bounds v to [minV, maxV].
func clamp(v, minV, maxV int) int {
	if maxV < minV {
		return minV
	}
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}

// fitLines pads or truncates content to exactly maxLines lines.
func fitLines(content string, maxLines int) string {
	if maxLines <= 0 {
		return ""
	}
	lines := strings.Split(content, "\n")
	switch {
	case len(lines) > maxLines:
		if maxLines == 1 {
			lines = []string{"…"}
		} else {
			lines = append(lines[:maxLines-1], "…")
		}
	case len(lines) < maxLines:
		padding := make([]string, maxLines-len(lines))
		lines = append(lines, padding...)
	}
	return strings.Join(lines, "\n")
}

// overlayOnContent centers overlay above base on a width x height canvas.
func overlayOnContent(base, overlay string, width, height int) string {
	if width <= 0 || height <= 0 {
		if strings.TrimSpace(overlay) == "" {
			return base
		}
		return overlay + "\n\n" + base
	}

	base = fitLines(base, height)
	canvas := lipgloss.NewCanvas(width, height)
	baseLayer := lipgloss.NewLayer(base).X(0).Y(0).Z(0)
	centeredOverlay := lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		overlay,
	)
	overlayLayer := lipgloss.NewLayer(centeredOverlay).X(0).Y(0).Z(10)

	canvas.Compose(baseLayer)
	canvas.Compose(overlayLayer)
	return canvas.Render()
}

// truncate shortens s to max runes, marking the cut with an ellipsis.
func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	rs := []rune(s)
	if len(rs) <= max {
		return s
	}
	if max <= 1 {
		return string(rs[:max])
	}
	return string(rs[:max-1]) + "…"
}
