package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/hylla/labgantt/internal/app"
	"github.com/hylla/labgantt/internal/calendar"
	"github.com/hylla/labgantt/internal/domain"
	"github.com/hylla/labgantt/internal/drag"
)

// memStore keeps the committed board in memory.
type memStore struct {
	board   domain.Board
	saves   int
	saveErr error
}

// LoadBoard returns a copy of the committed board.
func (s *memStore) LoadBoard(context.Context) (domain.Board, error) {
	return s.board.Clone(), nil
}

// SaveBoard records one committed snapshot.
func (s *memStore) SaveBoard(_ context.Context, b domain.Board) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saves++
	s.board = b.Clone()
	return nil
}

func fixtureBoard(t *testing.T) domain.Board {
	t.Helper()
	var b domain.Board
	for _, id := range []string{"1", "2"} {
		lane, err := domain.NewLane(domain.LaneKindTerminal, id, "T"+id)
		if err != nil {
			t.Fatalf("NewLane() error = %v", err)
		}
		if err := b.AddLane(lane); err != nil {
			t.Fatalf("AddLane() error = %v", err)
		}
	}
	inputs := []domain.ItemInput{
		{ID: "e1", Kind: domain.KindEfficiency, Start: domain.Day(2026, 6, 1), End: domain.Day(2026, 6, 3), LaneID: "1", Assay: domain.AssayDetails{Protocol: "EN 60456"}},
		{ID: "e2", Kind: domain.KindEfficiency, Start: domain.Day(2026, 6, 10), End: domain.Day(2026, 6, 12), LaneID: "2"},
		{ID: "v1", Kind: domain.KindVacation, Start: domain.Day(2026, 6, 2), End: domain.Day(2026, 6, 3), Person: "Iris"},
		{ID: "cal", Kind: domain.KindCalibration, Start: domain.Day(2026, 6, 15), End: domain.Day(2026, 6, 16), Scope: domain.ScopeAll},
	}
	for _, in := range inputs {
		if _, err := b.Add(in); err != nil {
			t.Fatalf("Add(%s) error = %v", in.ID, err)
		}
	}
	return b
}

// newTestModel builds a ready model over a fixture store. With cell width 3
// and label width 10 the grid starts at 2026-05-30 in screen column 10, so
// e1 occupies columns 16-24 on screen line 3.
func newTestModel(t *testing.T, opts ...Option) (Model, *memStore) {
	t.Helper()
	store := &memStore{board: fixtureBoard(t)}
	clock := func() time.Time { return time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC) }
	svc := app.NewService(store, nil, clock, app.ServiceConfig{})
	base := []Option{
		WithGrid(GridConfig{CellWidth: 3, LabelWidth: 10}),
		WithPadding(calendar.Padding{BeforeDays: 2, AfterDays: 10, EmptyBeforeDays: 2, EmptyAfterDays: 10}),
	}
	return loadReadyModel(t, NewModel(svc, append(base, opts...)...)), store
}

func dragTo(t *testing.T, m Model, fromX, fromY, toX, toY int) Model {
	t.Helper()
	m = applyMsg(t, m, tea.MouseClickMsg{X: fromX, Y: fromY, Button: tea.MouseLeft})
	m = applyMsg(t, m, tea.MouseMotionMsg{X: toX, Y: toY, Button: tea.MouseLeft})
	return applyMsg(t, m, tea.MouseReleaseMsg{X: toX, Y: toY, Button: tea.MouseLeft})
}

func boardItem(t *testing.T, b domain.Board, id string) domain.Schedule {
	t.Helper()
	item, ok := b.Item(id)
	if !ok {
		t.Fatalf("item %s missing", id)
	}
	return item.Base()
}

func TestModelLoadsSession(t *testing.T) {
	m, _ := newTestModel(t)
	if m.session == nil || m.ctrl == nil {
		t.Fatal("expected session and drag controller after load")
	}
	if m.status != "ready" {
		t.Fatalf("status = %q, want ready", m.status)
	}
	f := m.frame()
	if f.dayOffset != 0 || f.scene.grid.OriginX != 10 {
		t.Fatalf("unexpected frame offset=%d origin=%v", f.dayOffset, f.scene.grid.OriginX)
	}
	if !f.scene.grid.Mapper.Range.Start.Equal(domain.Day(2026, 5, 30)) {
		t.Fatalf("range start = %v", f.scene.grid.Mapper.Range.Start)
	}
}

func TestModelDragRepositions(t *testing.T) {
	m, store := newTestModel(t)
	m = applyMsg(t, m, tea.MouseClickMsg{X: 17, Y: 3, Button: tea.MouseLeft})
	if !m.ctrl.Dragging() || m.selectedID != "e1" {
		t.Fatalf("expected e1 picked up, dragging=%v selected=%q", m.ctrl.Dragging(), m.selectedID)
	}
	m = applyMsg(t, m, tea.MouseMotionMsg{X: 26, Y: 4, Button: tea.MouseLeft})
	if _, geom, ok := m.ctrl.Preview(); !ok || geom.Left != 25 || geom.Top != 1 {
		t.Fatalf("unexpected preview geometry %#v", geom)
	}
	if m.session.Dirty() {
		t.Fatal("pointer motion must not edit the board")
	}
	m = applyMsg(t, m, tea.MouseReleaseMsg{X: 26, Y: 4, Button: tea.MouseLeft})

	got := boardItem(t, m.session.Board(), "e1")
	if !got.Start.Equal(domain.Day(2026, 6, 4)) || !got.End.Equal(domain.Day(2026, 6, 6)) || got.LaneID != "2" {
		t.Fatalf("unexpected moved schedule %#v", got)
	}
	if !m.session.Dirty() || m.ctrl.Dragging() {
		t.Fatalf("expected dirty idle session, dirty=%v dragging=%v", m.session.Dirty(), m.ctrl.Dragging())
	}
	if !strings.Contains(m.status, "2026-06-04") || !strings.Contains(m.status, "T2") {
		t.Fatalf("unexpected status %q", m.status)
	}
	if store.saves != 0 {
		t.Fatalf("drag must not persist, saves=%d", store.saves)
	}
	if !strings.Contains(m.render(), "unsaved") {
		t.Fatal("expected dirty marker in render")
	}
}

func TestModelDragOntoItemSwaps(t *testing.T) {
	m, _ := newTestModel(t)
	m = dragTo(t, m, 17, 3, 44, 4)

	board := m.session.Board()
	e1, e2 := boardItem(t, board, "e1"), boardItem(t, board, "e2")
	if !e1.Start.Equal(domain.Day(2026, 6, 10)) || e1.LaneID != "1" {
		t.Fatalf("unexpected e1 after swap %#v", e1)
	}
	if !e2.Start.Equal(domain.Day(2026, 6, 1)) || e2.LaneID != "2" {
		t.Fatalf("unexpected e2 after swap %#v", e2)
	}
	if !strings.HasPrefix(m.status, "swapped e1 with e2") {
		t.Fatalf("unexpected status %q", m.status)
	}
}

func TestModelDropOutsideLanesIsNoop(t *testing.T) {
	m, _ := newTestModel(t)
	m = dragTo(t, m, 17, 3, 17, 30)
	if m.session.Dirty() {
		t.Fatal("expected no edit for a drop below every lane")
	}
	if !strings.Contains(m.status, "nothing changed") {
		t.Fatalf("unexpected status %q", m.status)
	}
}

func TestModelVacationAndSecondaryButtonDoNotDrag(t *testing.T) {
	m, _ := newTestModel(t)
	m = applyMsg(t, m, tea.MouseClickMsg{X: 20, Y: 5, Button: tea.MouseLeft})
	if m.ctrl.Dragging() {
		t.Fatal("vacation must not be draggable")
	}
	if m.selectedID != "v1" || m.status != "Iris cannot be dragged" {
		t.Fatalf("unexpected selection %q status %q", m.selectedID, m.status)
	}

	m = applyMsg(t, m, tea.MouseClickMsg{X: 17, Y: 3, Button: tea.MouseRight})
	if m.ctrl.Dragging() {
		t.Fatal("secondary button must not start a drag")
	}
	if m.selectedID != "e1" {
		t.Fatalf("expected right click to still select e1, got %q", m.selectedID)
	}
}

func TestModelDragCalibrationChangesDatesOnly(t *testing.T) {
	m, _ := newTestModel(t)
	// cal starts 2026-06-15, column 16, screen x 58; it covers both terminal rows.
	m = dragTo(t, m, 59, 3, 53, 3)
	got := boardItem(t, m.session.Board(), "cal")
	if !got.Start.Equal(domain.Day(2026, 6, 13)) || !got.End.Equal(domain.Day(2026, 6, 14)) {
		t.Fatalf("unexpected calibration schedule %#v", got)
	}
}

func TestModelSaveCommitsOnce(t *testing.T) {
	m, store := newTestModel(t)
	m = dragTo(t, m, 17, 3, 26, 4)
	m = applyMsg(t, m, keyRune('s'))
	if store.saves != 1 {
		t.Fatalf("saves = %d, want 1", store.saves)
	}
	if got := boardItem(t, store.board, "e1"); got.LaneID != "2" {
		t.Fatalf("store did not receive the edit %#v", got)
	}
	if m.session.Dirty() || m.status != "saved" || m.saving != 0 {
		t.Fatalf("unexpected post-save state dirty=%v status=%q saving=%d", m.session.Dirty(), m.status, m.saving)
	}

	m = applyMsg(t, m, keyRune('s'))
	if store.saves != 1 || m.status != "nothing to save" {
		t.Fatalf("clean save should not persist, saves=%d status=%q", store.saves, m.status)
	}
}

func TestModelSaveFailureKeepsBaseline(t *testing.T) {
	m, store := newTestModel(t)
	store.saveErr = errors.New("disk full")
	m = dragTo(t, m, 17, 3, 26, 4)
	m = applyMsg(t, m, keyRune('s'))
	if !strings.Contains(m.status, "disk full") {
		t.Fatalf("unexpected status %q", m.status)
	}
	if m.session.Dirty() {
		t.Fatal("baseline stays committed after a failed handoff")
	}
}

func TestModelCancelDiscardsEdits(t *testing.T) {
	m, store := newTestModel(t)
	m = dragTo(t, m, 17, 3, 26, 4)
	m = applyMsg(t, m, keyRune('c'))
	if m.session.Dirty() {
		t.Fatal("expected clean session after cancel")
	}
	if got := boardItem(t, m.session.Board(), "e1"); got.LaneID != "1" || !got.Start.Equal(domain.Day(2026, 6, 1)) {
		t.Fatalf("cancel did not restore e1 %#v", got)
	}
	if store.saves != 0 || m.status != "edits discarded" {
		t.Fatalf("unexpected saves=%d status=%q", store.saves, m.status)
	}
}

func TestModelEscapeAbortsDragFirst(t *testing.T) {
	m, _ := newTestModel(t)
	m = dragTo(t, m, 17, 3, 26, 4)
	m = applyMsg(t, m, tea.MouseClickMsg{X: 26, Y: 4, Button: tea.MouseLeft})
	if !m.ctrl.Dragging() {
		t.Fatal("expected second drag to start")
	}
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEscape})
	if m.ctrl.Dragging() || !m.session.Dirty() || m.status != "drag cancelled" {
		t.Fatalf("esc should only abort the drag, dragging=%v dirty=%v status=%q", m.ctrl.Dragging(), m.session.Dirty(), m.status)
	}
}

func TestModelUndo(t *testing.T) {
	m, _ := newTestModel(t)
	m = applyMsg(t, m, keyRune('u'))
	if m.status != app.ErrUndoStackEmpty.Error() {
		t.Fatalf("unexpected status %q", m.status)
	}
	m = dragTo(t, m, 17, 3, 26, 4)
	m = applyMsg(t, m, tea.KeyPressMsg{Code: 'z', Mod: tea.ModCtrl})
	if m.session.Dirty() {
		t.Fatal("expected undo to restore the baseline")
	}
	if got := boardItem(t, m.session.Board(), "e1"); got.LaneID != "1" {
		t.Fatalf("undo did not restore e1 %#v", got)
	}
}

func TestModelStatusKeys(t *testing.T) {
	m, _ := newTestModel(t)
	m = applyMsg(t, m, keyRune('>'))
	if m.status != "no item selected" {
		t.Fatalf("unexpected status %q", m.status)
	}
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyTab})
	if m.selectedID != "e1" {
		t.Fatalf("tab selected %q, want e1", m.selectedID)
	}
	m = applyMsg(t, m, keyRune('>'))
	if got := boardItem(t, m.session.Board(), "e1"); got.Status != domain.StatusSampleReceived {
		t.Fatalf("status = %q, want sample-received", got.Status)
	}
	m = applyMsg(t, m, keyRune('x'))
	if !strings.HasPrefix(m.status, "status change rejected") {
		t.Fatalf("unexpected status %q", m.status)
	}
	m = applyMsg(t, m, keyRune('>'))
	m = applyMsg(t, m, keyRune('x'))
	if got := boardItem(t, m.session.Board(), "e1"); got.Status != domain.StatusIncomplete {
		t.Fatalf("status = %q, want incomplete", got.Status)
	}
}

func TestModelDeleteSelected(t *testing.T) {
	m, _ := newTestModel(t)
	m = applyMsg(t, m, tea.MouseClickMsg{X: 44, Y: 4, Button: tea.MouseRight})
	if m.selectedID != "e2" {
		t.Fatalf("selected %q, want e2", m.selectedID)
	}
	m = applyMsg(t, m, keyRune('d'))
	if _, ok := m.session.Board().Item("e2"); ok {
		t.Fatal("expected e2 deleted")
	}
	if m.selectedID != "" || !m.session.Dirty() {
		t.Fatalf("unexpected state selected=%q dirty=%v", m.selectedID, m.session.Dirty())
	}
}

func TestModelQuitConfirmsWhenDirty(t *testing.T) {
	m, _ := newTestModel(t)
	m = dragTo(t, m, 17, 3, 26, 4)
	updated, cmd := m.Update(keyRune('q'))
	if cmd != nil {
		t.Fatal("expected first quit on a dirty board to ask for confirmation")
	}
	m = updated.(Model)
	if !m.confirmQuit || !strings.Contains(m.status, "press q again") {
		t.Fatalf("unexpected confirm state %v %q", m.confirmQuit, m.status)
	}
	if _, cmd = m.Update(keyRune('q')); cmd == nil {
		t.Fatal("expected quit cmd on second press")
	}

	clean, _ := newTestModel(t)
	if _, cmd := clean.Update(keyRune('q')); cmd == nil {
		t.Fatal("expected immediate quit on a clean board")
	}
}

func TestModelQuitWaitsForInFlightSave(t *testing.T) {
	m, store := newTestModel(t)
	m = dragTo(t, m, 17, 3, 26, 4)
	updated, saveCmd := m.Update(keyRune('s'))
	m = updated.(Model)
	if saveCmd == nil || m.saving != 1 {
		t.Fatalf("expected one save in flight, saving=%d", m.saving)
	}

	updated, cmd := m.Update(keyRune('q'))
	m = updated.(Model)
	if cmd != nil || !m.quitPending {
		t.Fatalf("quit must wait for the save, pending=%v", m.quitPending)
	}
	if store.saves != 0 {
		t.Fatalf("save ran before its command, saves=%d", store.saves)
	}

	updated, cmd = m.Update(saveCmd())
	m = updated.(Model)
	if store.saves != 1 || m.status != "saved" {
		t.Fatalf("unexpected save result saves=%d status=%q", store.saves, m.status)
	}
	if cmd == nil {
		t.Fatal("expected quit once the save finished")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("expected tea.Quit after the pending save")
	}
}

func TestModelFailedSaveCancelsPendingQuit(t *testing.T) {
	m, store := newTestModel(t)
	store.saveErr = errors.New("disk full")
	m = dragTo(t, m, 17, 3, 26, 4)
	updated, saveCmd := m.Update(keyRune('s'))
	m = updated.(Model)
	updated, _ = m.Update(keyRune('q'))
	m = updated.(Model)

	updated, cmd := m.Update(saveCmd())
	m = updated.(Model)
	if cmd != nil || m.quitPending {
		t.Fatalf("failed save must keep the program open, pending=%v", m.quitPending)
	}
	if !strings.Contains(m.status, "disk full") || !strings.Contains(m.status, "quit cancelled") {
		t.Fatalf("unexpected status %q", m.status)
	}
}

func TestModelMotionUsesScrollCapturedAtDragStart(t *testing.T) {
	m, _ := newTestModel(t)
	m = applyMsg(t, m, tea.MouseClickMsg{X: 17, Y: 3, Button: tea.MouseLeft})
	if !m.ctrl.Dragging() || m.dragRowOffset != 0 {
		t.Fatalf("expected drag from an unscrolled board, offset=%d", m.dragRowOffset)
	}
	m.dragRowOffset = 2
	m = applyMsg(t, m, tea.MouseMotionMsg{X: 26, Y: 4, Button: tea.MouseLeft})
	if _, geom, ok := m.ctrl.Preview(); !ok || geom.Top != 3 {
		t.Fatalf("expected preview shifted by the captured offset, got %#v", geom)
	}
}

func TestMouseButtonMapsOnlyLeftToPrimary(t *testing.T) {
	cases := map[tea.MouseButton]drag.Button{
		tea.MouseLeft:     drag.ButtonPrimary,
		tea.MouseRight:    drag.ButtonSecondary,
		tea.MouseMiddle:   drag.ButtonMiddle,
		tea.MouseBackward: drag.ButtonOther,
		tea.MouseForward:  drag.ButtonOther,
	}
	for in, want := range cases {
		if got := mouseButton(in); got != want {
			t.Fatalf("mouseButton(%v) = %v, want %v", in, got, want)
		}
	}

	m, _ := newTestModel(t)
	m = applyMsg(t, m, tea.MouseClickMsg{X: 17, Y: 3, Button: tea.MouseBackward})
	if m.ctrl.Dragging() {
		t.Fatal("back button must not start a drag")
	}
}

func TestModelYankAndDetails(t *testing.T) {
	var copied string
	m, _ := newTestModel(t, WithClipboard(func(s string) error {
		copied = s
		return nil
	}))
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyTab})
	m = applyMsg(t, m, keyRune('y'))
	if !strings.Contains(copied, "EN 60456") || !strings.Contains(copied, "2026-06-01..2026-06-03") {
		t.Fatalf("unexpected clipboard text %q", copied)
	}
	if m.status != "copied EN 60456" {
		t.Fatalf("unexpected status %q", m.status)
	}

	m = applyMsg(t, m, keyRune('i'))
	if !m.showDetails {
		t.Fatal("expected details overlay")
	}
	item, _ := m.selectedItem()
	md := itemMarkdown(item)
	for _, want := range []string{"EN 60456", "awaiting", "terminal 1", "3 days", "sample-received"} {
		if !strings.Contains(md, want) {
			t.Fatalf("details missing %q:\n%s", want, md)
		}
	}
	m = applyMsg(t, m, tea.KeyPressMsg{Code: tea.KeyEscape})
	if m.showDetails {
		t.Fatal("expected esc to close details")
	}
}

func TestModelScrolling(t *testing.T) {
	m, _ := newTestModel(t, WithGrid(GridConfig{CellWidth: 3, LabelWidth: 10}))
	m = applyMsg(t, m, tea.WindowSizeMsg{Width: 40, Height: 40})
	if got := m.frame().dayOffset; got != 0 {
		t.Fatalf("initial offset = %d", got)
	}
	m = applyMsg(t, m, keyRune('l'))
	m = applyMsg(t, m, tea.MouseWheelMsg{Button: tea.MouseWheelRight})
	if got := m.frame().dayOffset; got != 2 {
		t.Fatalf("offset after scrolling = %d, want 2", got)
	}
	m = applyMsg(t, m, keyRune('h'))
	if got := m.frame().dayOffset; got != 1 {
		t.Fatalf("offset after scrolling back = %d, want 1", got)
	}
	for range 5 {
		m = applyMsg(t, m, keyRune('h'))
	}
	if got := m.frame().dayOffset; got != 0 {
		t.Fatalf("offset should clamp at 0, got %d", got)
	}
}

func TestModelRender(t *testing.T) {
	m, _ := newTestModel(t)
	out := m.render()
	for _, want := range []string{"labgantt", "T1", "T2", "Vacation", "Pending", "Jun 2026", "EN 60456"} {
		if !strings.Contains(out, want) {
			t.Fatalf("render missing %q", want)
		}
	}
	if strings.Contains(out, "unsaved") {
		t.Fatal("clean board must not show the dirty marker")
	}

	loading := NewModel(nil)
	if got := loading.render(); got != "loading..." {
		t.Fatalf("unexpected render before load %q", got)
	}
	failed := applyMsg(t, loading, loadedMsg{err: errors.New("db locked")})
	if !strings.Contains(failed.render(), "db locked") {
		t.Fatal("expected load error in render")
	}
}

func TestHelpers(t *testing.T) {
	if got := truncate("terminal", 4); got != "ter…" {
		t.Fatalf("truncate() = %q", got)
	}
	if got := clamp(9, 0, 3); got != 3 {
		t.Fatalf("clamp() = %d", got)
	}
	if got := fitLines("a\nb\nc", 2); got != "a\n…" {
		t.Fatalf("fitLines() = %q", got)
	}
	if got := fitLines("a", 3); got != "a\n\n" {
		t.Fatalf("fitLines() padding = %q", got)
	}
}

func loadReadyModel(t *testing.T, m Model) Model {
	t.Helper()
	return applyMsg(t, applyCmd(t, m, m.Init()), tea.WindowSizeMsg{Width: 120, Height: 40})
}

func applyMsg(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	updated, cmd := m.Update(msg)
	out, ok := updated.(Model)
	if !ok {
		t.Fatalf("expected Model, got %T", updated)
	}
	return applyCmd(t, out, cmd)
}

func applyCmd(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	out := m
	currentCmd := cmd
	for i := 0; i < 6 && currentCmd != nil; i++ {
		msg := currentCmd()
		updated, nextCmd := out.Update(msg)
		casted, ok := updated.(Model)
		if !ok {
			t.Fatalf("expected Model, got %T", updated)
		}
		out = casted
		currentCmd = nextCmd
	}
	return out
}

func keyRune(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}
