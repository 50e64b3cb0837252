package app

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/hylla/labgantt/internal/domain"
)

// DefaultTerminalCount is the number of terminals seeded on an empty board.
const DefaultTerminalCount = 8

// ServiceConfig holds configuration for service.
type ServiceConfig struct {
	UndoDepth     int
	TerminalCount int
}

// IDGenerator returns unique identifiers for new entities.
type IDGenerator func() string

// Clock returns the current time.
type Clock func() time.Time

// Service connects edit sessions to the store.
type Service struct {
	store         Store
	idGen         IDGenerator
	clock         Clock
	undoDepth     int
	terminalCount int
}

// NewService constructs a new value for this package.
func NewService(store Store, idGen IDGenerator, clock Clock, cfg ServiceConfig) *Service {
	if idGen == nil {
		idGen = func() string { return "" }
	}
	if clock == nil {
		clock = time.Now
	}
	if cfg.UndoDepth <= 0 {
		cfg.UndoDepth = DefaultUndoDepth
	}
	if cfg.TerminalCount < 0 {
		cfg.TerminalCount = 0
	}
	return &Service{
		store:         store,
		idGen:         idGen,
		clock:         clock,
		undoDepth:     cfg.UndoDepth,
		terminalCount: cfg.TerminalCount,
	}
}

// Today returns the current board date.
func (s *Service) Today() time.Time {
	return domain.Date(s.clock())
}

// LoadBoard returns the committed board.
func (s *Service) LoadBoard(ctx context.Context) (domain.Board, error) {
	if s.store == nil {
		return domain.Board{}, ErrNoStore
	}
	return s.store.LoadBoard(ctx)
}

// EnsureDefaultBoard seeds numbered terminals when the store holds an empty board.
func (s *Service) EnsureDefaultBoard(ctx context.Context) (domain.Board, error) {
	board, err := s.LoadBoard(ctx)
	if err != nil {
		return domain.Board{}, err
	}
	if len(board.Terminals) > 0 || len(board.Responsibles) > 0 || len(board.Items()) > 0 {
		return board, nil
	}
	for n := 1; n <= s.terminalCount; n++ {
		id := strconv.Itoa(n)
		lane, err := domain.NewLane(domain.LaneKindTerminal, id, "Terminal "+id)
		if err != nil {
			return domain.Board{}, err
		}
		if err := board.AddLane(lane); err != nil {
			return domain.Board{}, err
		}
	}
	if len(board.Terminals) == 0 {
		return board, nil
	}
	if err := s.store.SaveBoard(ctx, board); err != nil {
		return domain.Board{}, fmt.Errorf("seed default board: %w", err)
	}
	return board, nil
}

// OpenSession loads the committed board and starts an edit session whose
// commits go to the store.
func (s *Service) OpenSession(ctx context.Context) (*Session, error) {
	board, err := s.EnsureDefaultBoard(ctx)
	if err != nil {
		return nil, err
	}
	return NewSession(board, s.store.SaveBoard, SessionOptions{
		UndoDepth: s.undoDepth,
		IDGen:     s.idGen,
	}), nil
}

// Apply runs one mutation in a fresh session and commits it synchronously.
// It backs one-shot CLI edits.
func (s *Service) Apply(ctx context.Context, fn func(*Session) error) (domain.Board, error) {
	session, err := s.OpenSession(ctx)
	if err != nil {
		return domain.Board{}, err
	}
	if err := fn(session); err != nil {
		return domain.Board{}, err
	}
	if !session.Dirty() {
		return session.Board(), nil
	}
	board := session.Board()
	if err := session.Commit()(ctx); err != nil {
		return domain.Board{}, err
	}
	return board, nil
}
