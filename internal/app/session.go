package app

import (
	"context"
	"strings"
	"time"

	"github.com/hylla/labgantt/internal/domain"
)

// DefaultUndoDepth is the number of pre-mutation snapshots a session keeps.
const DefaultUndoDepth = 10

// CommitFunc delivers a committed board to persistence.
type CommitFunc func(context.Context, domain.Board) error

// Handoff is the deferred persistence call returned by Commit. Callers run it
// whenever they like; the session does not wait for it.
type Handoff func(context.Context) error

// SessionOptions configures a session.
type SessionOptions struct {
	UndoDepth int
	IDGen     IDGenerator
}

// Session owns the live board for one edit episode. Every mutation snapshots
// the board first; Commit and Discard move between current and baseline.
// It is not safe for concurrent use.
type Session struct {
	current   domain.Board
	baseline  domain.Board
	undo      []domain.Board
	depth     int
	dirty     bool
	commit    CommitFunc
	idGen     IDGenerator
	onDiscard []func()
}

// NewSession starts a session from a loaded board.
func NewSession(initial domain.Board, commit CommitFunc, opts SessionOptions) *Session {
	if opts.UndoDepth <= 0 {
		opts.UndoDepth = DefaultUndoDepth
	}
	if opts.IDGen == nil {
		opts.IDGen = func() string { return "" }
	}
	return &Session{
		current:  initial.Clone(),
		baseline: initial.Clone(),
		depth:    opts.UndoDepth,
		commit:   commit,
		idGen:    opts.IDGen,
	}
}

// Board returns a copy of the live board.
func (s *Session) Board() domain.Board {
	return s.current.Clone()
}

// Baseline returns a copy of the last committed board.
func (s *Session) Baseline() domain.Board {
	return s.baseline.Clone()
}

// Dirty reports whether the live board differs from the baseline.
func (s *Session) Dirty() bool {
	return s.dirty
}

// UndoDepth returns the number of snapshots available to Undo.
func (s *Session) UndoDepth() int {
	return len(s.undo)
}

// OnDiscard registers fn to run after every Discard.
func (s *Session) OnDiscard(fn func()) {
	if fn != nil {
		s.onDiscard = append(s.onDiscard, fn)
	}
}

// mutate applies fn to a copy of the live board. A failing fn leaves the
// session untouched; a fn that changes nothing pushes no snapshot.
func (s *Session) mutate(fn func(*domain.Board) error) error {
	next := s.current.Clone()
	if err := fn(&next); err != nil {
		return err
	}
	if next.Equal(s.current) {
		return nil
	}
	s.undo = append(s.undo, s.current)
	if over := len(s.undo) - s.depth; over > 0 {
		s.undo = append(s.undo[:0:0], s.undo[over:]...)
	}
	s.current = next
	s.dirty = !s.current.Equal(s.baseline)
	return nil
}

// AddItem creates an item. An empty id is filled from the id generator.
func (s *Session) AddItem(in domain.ItemInput) (domain.Item, error) {
	if strings.TrimSpace(in.ID) == "" {
		in.ID = s.idGen()
	}
	var created domain.Item
	err := s.mutate(func(b *domain.Board) error {
		item, err := b.Add(in)
		created = item
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateItem edits the dates and kind-specific fields of an item.
func (s *Session) UpdateItem(id string, in domain.ItemInput) (domain.Item, error) {
	var updated domain.Item
	err := s.mutate(func(b *domain.Board) error {
		item, err := b.Edit(id, in)
		updated = item
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteItem removes an item.
func (s *Session) DeleteItem(id string) error {
	return s.mutate(func(b *domain.Board) error {
		return b.Remove(id)
	})
}

// MoveItem moves an item to another lane, keeping its dates.
func (s *Session) MoveItem(id, laneID string) error {
	item, ok := s.current.Item(id)
	if !ok {
		return s.Reposition(id, time.Time{}, laneID)
	}
	return s.Reposition(id, item.Base().Start, laneID)
}

// Reposition moves an item to start on a new date in a lane, preserving its duration.
func (s *Session) Reposition(id string, start time.Time, laneID string) error {
	return s.mutate(func(b *domain.Board) error {
		return b.Relocate(id, start, laneID)
	})
}

// Swap exchanges the date ranges of two items.
func (s *Session) Swap(aID, bID string) error {
	return s.mutate(func(b *domain.Board) error {
		return b.Swap(aID, bID)
	})
}

// TransitionItem advances an item's lifecycle status.
func (s *Session) TransitionItem(id string, to domain.Status) error {
	return s.mutate(func(b *domain.Board) error {
		return b.SetStatus(id, to)
	})
}

// AddLane creates a terminal or safety responsible lane.
func (s *Session) AddLane(kind domain.LaneKind, id, name string) (domain.Lane, error) {
	lane, err := domain.NewLane(kind, id, name)
	if err != nil {
		return domain.Lane{}, err
	}
	if err := s.mutate(func(b *domain.Board) error {
		return b.AddLane(lane)
	}); err != nil {
		return domain.Lane{}, err
	}
	return lane, nil
}

// RenameLane changes a lane's display label.
func (s *Session) RenameLane(id, name string) error {
	return s.mutate(func(b *domain.Board) error {
		return b.RenameLane(id, name)
	})
}

// DeleteLane removes a lane no item references.
func (s *Session) DeleteLane(id string) error {
	return s.mutate(func(b *domain.Board) error {
		return b.DeleteLane(id)
	})
}

// Undo restores the board captured before the most recent mutation.
func (s *Session) Undo() error {
	if len(s.undo) == 0 {
		return ErrUndoStackEmpty
	}
	last := len(s.undo) - 1
	s.current = s.undo[last]
	s.undo = s.undo[:last]
	s.dirty = !s.current.Equal(s.baseline)
	return nil
}

// Commit makes the live board the new baseline and returns the handoff that
// persists it. The baseline stays committed even if the handoff later fails.
func (s *Session) Commit() Handoff {
	s.baseline = s.current.Clone()
	s.dirty = false
	snapshot := s.current.Clone()
	commit := s.commit
	return func(ctx context.Context) error {
		if commit == nil {
			return ErrNoStore
		}
		return commit(ctx, snapshot)
	}
}

// Discard restores the live board from the baseline and aborts visual state.
func (s *Session) Discard() {
	s.current = s.baseline.Clone()
	s.dirty = false
	for _, fn := range s.onDiscard {
		fn()
	}
}
