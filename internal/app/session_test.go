package app

import (
	"context"
	"errors"
	"testing"

	"github.com/hylla/labgantt/internal/domain"
)

func newTestSession(t *testing.T, commit CommitFunc) *Session {
	t.Helper()
	var b domain.Board
	for _, id := range []string{"1", "2", "3"} {
		lane, err := domain.NewLane(domain.LaneKindTerminal, id, "Terminal "+id)
		if err != nil {
			t.Fatalf("NewLane() error = %v", err)
		}
		if err := b.AddLane(lane); err != nil {
			t.Fatalf("AddLane() error = %v", err)
		}
	}
	return NewSession(b, commit, SessionOptions{IDGen: sequentialIDs()})
}

func addAssay(t *testing.T, s *Session, laneID string, day int) domain.Item {
	t.Helper()
	item, err := s.AddItem(domain.ItemInput{
		Kind:   domain.KindEfficiency,
		Start:  domain.Day(2026, 5, day),
		End:    domain.Day(2026, 5, day+2),
		LaneID: laneID,
	})
	if err != nil {
		t.Fatalf("AddItem() error = %v", err)
	}
	return item
}

func TestSessionMutationMarksDirty(t *testing.T) {
	s := newTestSession(t, nil)
	if s.Dirty() {
		t.Fatal("expected clean session")
	}
	item := addAssay(t, s, "1", 1)
	if item.Base().ID != "id-1" {
		t.Fatalf("expected generated id, got %q", item.Base().ID)
	}
	if !s.Dirty() || s.UndoDepth() != 1 {
		t.Fatalf("expected dirty session with one snapshot, dirty=%v depth=%d", s.Dirty(), s.UndoDepth())
	}
	if len(s.Baseline().Efficiency) != 0 {
		t.Fatal("expected baseline untouched before commit")
	}
}

func TestSessionRejectedMutationPushesNothing(t *testing.T) {
	s := newTestSession(t, nil)
	addAssay(t, s, "1", 1)
	before := s.Board()
	_, err := s.AddItem(domain.ItemInput{Kind: domain.KindEfficiency, Start: domain.Day(2026, 5, 9), End: domain.Day(2026, 5, 1)})
	if !errors.Is(err, domain.ErrInvalidDateRange) {
		t.Fatalf("expected ErrInvalidDateRange, got %v", err)
	}
	if err := s.TransitionItem("id-1", domain.StatusCompleted); !errors.Is(err, domain.ErrInvalidStateTransition) {
		t.Fatalf("expected ErrInvalidStateTransition, got %v", err)
	}
	if s.UndoDepth() != 1 || !s.Board().Equal(before) {
		t.Fatalf("expected rejected mutations to leave session unchanged, depth=%d", s.UndoDepth())
	}
}

func TestSessionUnchangedMutationPushesNothing(t *testing.T) {
	s := newTestSession(t, nil)
	item := addAssay(t, s, "1", 1)
	if err := s.Reposition(item.Base().ID, item.Base().Start, "1"); err != nil {
		t.Fatalf("Reposition() error = %v", err)
	}
	if s.UndoDepth() != 1 {
		t.Fatalf("expected same-place drop to push nothing, depth=%d", s.UndoDepth())
	}
}

func TestSessionUndoBound(t *testing.T) {
	s := newTestSession(t, nil)
	var states []domain.Board
	for i := 1; i <= 12; i++ {
		addAssay(t, s, "1", i)
		states = append(states, s.Board())
	}
	if s.UndoDepth() != DefaultUndoDepth {
		t.Fatalf("expected depth %d, got %d", DefaultUndoDepth, s.UndoDepth())
	}
	for i := 0; i < 10; i++ {
		if err := s.Undo(); err != nil {
			t.Fatalf("Undo() #%d error = %v", i+1, err)
		}
	}
	if !s.Board().Equal(states[1]) {
		t.Fatalf("expected state after mutation #2, got %d items", len(s.Board().Efficiency))
	}
	if err := s.Undo(); !errors.Is(err, ErrUndoStackEmpty) {
		t.Fatalf("expected ErrUndoStackEmpty, got %v", err)
	}
	if !s.Board().Equal(states[1]) {
		t.Fatal("expected 11th undo to be a no-op")
	}
}

func TestSessionUndoRecomputesDirty(t *testing.T) {
	s := newTestSession(t, nil)
	addAssay(t, s, "1", 1)
	if err := s.Undo(); err != nil {
		t.Fatalf("Undo() error = %v", err)
	}
	if s.Dirty() {
		t.Fatal("expected undo back to baseline to clear dirty")
	}
	addAssay(t, s, "1", 3)
	_ = s.Commit()
	addAssay(t, s, "2", 3)
	if err := s.Undo(); err != nil {
		t.Fatalf("Undo() error = %v", err)
	}
	if s.Dirty() {
		t.Fatal("expected undo to the committed state to be clean")
	}
	if err := s.Undo(); err != nil {
		t.Fatalf("Undo() across commit error = %v", err)
	}
	if !s.Dirty() {
		t.Fatal("expected undo past the baseline to be dirty")
	}
}

func TestSessionCommitHandsOffSnapshot(t *testing.T) {
	var saved []domain.Board
	s := newTestSession(t, func(_ context.Context, b domain.Board) error {
		saved = append(saved, b)
		return nil
	})
	addAssay(t, s, "1", 1)
	handoff := s.Commit()
	if s.Dirty() {
		t.Fatal("expected commit to clear dirty")
	}
	addAssay(t, s, "2", 1)
	if err := handoff(context.Background()); err != nil {
		t.Fatalf("handoff error = %v", err)
	}
	if len(saved) != 1 || len(saved[0].Efficiency) != 1 {
		t.Fatalf("expected the committed snapshot, got %#v", saved)
	}
}

func TestSessionCommitFailureKeepsBaseline(t *testing.T) {
	boom := errors.New("disk full")
	s := newTestSession(t, func(context.Context, domain.Board) error { return boom })
	addAssay(t, s, "1", 1)
	if err := s.Commit()(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected handoff error, got %v", err)
	}
	if s.Dirty() || len(s.Baseline().Efficiency) != 1 {
		t.Fatal("expected baseline to stay committed after failed handoff")
	}
}

func TestSessionCommitDiscardIdempotence(t *testing.T) {
	aborted := 0
	s := newTestSession(t, nil)
	s.OnDiscard(func() { aborted++ })

	addAssay(t, s, "1", 1)
	_ = s.Commit()
	committed := s.Board()
	s.Discard()
	if !s.Board().Equal(committed) || s.Dirty() {
		t.Fatal("expected discard right after commit to be a no-op")
	}

	addAssay(t, s, "2", 1)
	if err := s.RenameLane("3", "Climate chamber"); err != nil {
		t.Fatalf("RenameLane() error = %v", err)
	}
	s.Discard()
	once := s.Board()
	s.Discard()
	if !s.Board().Equal(once) || !once.Equal(committed) {
		t.Fatal("expected discard twice to equal discard once")
	}
	if aborted != 3 {
		t.Fatalf("expected discard hooks on every discard, got %d", aborted)
	}
	if s.UndoDepth() == 0 {
		t.Fatal("expected undo history to survive discard")
	}
}

func TestSessionLaneDeletionGuard(t *testing.T) {
	s := newTestSession(t, nil)
	item := addAssay(t, s, "2", 1)
	lanesBefore := s.Board().Terminals

	if err := s.DeleteLane("2"); !errors.Is(err, domain.ErrLaneInUse) {
		t.Fatalf("expected ErrLaneInUse, got %v", err)
	}
	if len(s.Board().Terminals) != len(lanesBefore) {
		t.Fatal("expected lane list unchanged")
	}
	if err := s.MoveItem(item.Base().ID, "3"); err != nil {
		t.Fatalf("MoveItem() error = %v", err)
	}
	if err := s.DeleteLane("2"); err != nil {
		t.Fatalf("DeleteLane() after move error = %v", err)
	}

	addAssay(t, s, "1", 5)
	if err := s.DeleteItem("id-2"); err != nil {
		t.Fatalf("DeleteItem() error = %v", err)
	}
	if err := s.DeleteLane("1"); err != nil {
		t.Fatalf("DeleteLane() after delete error = %v", err)
	}
}

func TestSessionSwapAndAddLane(t *testing.T) {
	s := newTestSession(t, nil)
	a := addAssay(t, s, "1", 1)
	b := addAssay(t, s, "2", 10)
	if err := s.Swap(a.Base().ID, b.Base().ID); err != nil {
		t.Fatalf("Swap() error = %v", err)
	}
	got, _ := s.Board().Item(a.Base().ID)
	if !got.Base().Start.Equal(b.Base().Start) {
		t.Fatalf("expected swapped start, got %s", got.Base().Start)
	}
	lane, err := s.AddLane(domain.LaneKindSafety, "c", "Clara")
	if err != nil {
		t.Fatalf("AddLane() error = %v", err)
	}
	if lane.ID != "C" || len(s.Board().Responsibles) != 1 {
		t.Fatalf("unexpected lane %#v", lane)
	}
	if _, err := s.AddLane(domain.LaneKindSafety, "C", "Again"); !errors.Is(err, domain.ErrDuplicateLane) {
		t.Fatalf("expected ErrDuplicateLane, got %v", err)
	}
}
