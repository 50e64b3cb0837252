package app

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/hylla/labgantt/internal/domain"
)

type fakeStore struct {
	board   domain.Board
	saves   int
	loads   int
	saveErr error
}

func (f *fakeStore) LoadBoard(context.Context) (domain.Board, error) {
	f.loads++
	return f.board.Clone(), nil
}

func (f *fakeStore) SaveBoard(_ context.Context, b domain.Board) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saves++
	f.board = b.Clone()
	return nil
}

func sequentialIDs() IDGenerator {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func TestEnsureDefaultBoardSeedsTerminals(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store, nil, nil, ServiceConfig{TerminalCount: 8})
	board, err := svc.EnsureDefaultBoard(context.Background())
	if err != nil {
		t.Fatalf("EnsureDefaultBoard() error = %v", err)
	}
	if len(board.Terminals) != 8 || board.Terminals[7].ID != "8" || board.Terminals[0].Name != "Terminal 1" {
		t.Fatalf("unexpected seeded terminals %#v", board.Terminals)
	}
	if store.saves != 1 {
		t.Fatalf("expected one save, got %d", store.saves)
	}
	if _, err := svc.EnsureDefaultBoard(context.Background()); err != nil {
		t.Fatalf("second EnsureDefaultBoard() error = %v", err)
	}
	if store.saves != 1 {
		t.Fatalf("expected seeding to run once, got %d saves", store.saves)
	}
}

func TestEnsureDefaultBoardWithoutTerminalsSkipsSave(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store, nil, nil, ServiceConfig{})
	if _, err := svc.EnsureDefaultBoard(context.Background()); err != nil {
		t.Fatalf("EnsureDefaultBoard() error = %v", err)
	}
	if store.saves != 0 {
		t.Fatalf("expected no save for zero terminals, got %d", store.saves)
	}
}

func TestServiceApplyCommitsOnce(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store, sequentialIDs(), nil, ServiceConfig{TerminalCount: 2})
	board, err := svc.Apply(context.Background(), func(s *Session) error {
		_, err := s.AddItem(domain.ItemInput{
			Kind: domain.KindEfficiency, Start: domain.Day(2026, 5, 1), End: domain.Day(2026, 5, 2), LaneID: "1",
		})
		return err
	})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if len(board.Efficiency) != 1 || board.Efficiency[0].ID != "id-1" {
		t.Fatalf("unexpected board %#v", board.Efficiency)
	}
	if store.saves != 2 || len(store.board.Efficiency) != 1 {
		t.Fatalf("expected seed + commit saves, got %d", store.saves)
	}
}

func TestServiceApplyRejectedMutationSavesNothing(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store, sequentialIDs(), nil, ServiceConfig{TerminalCount: 1})
	if _, err := svc.EnsureDefaultBoard(context.Background()); err != nil {
		t.Fatalf("EnsureDefaultBoard() error = %v", err)
	}
	saves := store.saves
	_, err := svc.Apply(context.Background(), func(s *Session) error {
		return s.DeleteLane("missing")
	})
	if !errors.Is(err, domain.ErrLaneNotFound) {
		t.Fatalf("expected ErrLaneNotFound, got %v", err)
	}
	if store.saves != saves {
		t.Fatalf("expected no save after rejected mutation, got %d", store.saves-saves)
	}
}

func TestServiceToday(t *testing.T) {
	now := time.Date(2026, 5, 1, 23, 59, 0, 0, time.UTC)
	svc := NewService(&fakeStore{}, nil, func() time.Time { return now }, ServiceConfig{})
	if got := svc.Today(); !got.Equal(domain.Day(2026, 5, 1)) {
		t.Fatalf("unexpected today %s", got)
	}
}
