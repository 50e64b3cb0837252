package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/hylla/labgantt/internal/domain"
	_ "modernc.org/sqlite"
)

func sampleBoard(t *testing.T) domain.Board {
	t.Helper()
	var b domain.Board
	for _, tc := range []struct {
		kind domain.LaneKind
		id   string
		name string
	}{
		{domain.LaneKindTerminal, "2", "Terminal 2"},
		{domain.LaneKindTerminal, "1", "Terminal 1"},
		{domain.LaneKindSafety, "M", "Marta"},
	} {
		lane, err := domain.NewLane(tc.kind, tc.id, tc.name)
		if err != nil {
			t.Fatalf("NewLane() error = %v", err)
		}
		if err := b.AddLane(lane); err != nil {
			t.Fatalf("AddLane() error = %v", err)
		}
	}
	inputs := []domain.ItemInput{
		{ID: "e1", Kind: domain.KindEfficiency, Start: domain.Day(2026, 3, 2), End: domain.Day(2026, 3, 6), LaneID: "1", Assay: domain.AssayDetails{Protocol: "EN 60456", Manufacturer: "Acme", Model: "W-9", Load: "7kg", Cycles: 5, Notes: "rush"}},
		{ID: "e2", Kind: domain.KindEfficiency, Start: domain.Day(2026, 3, 9), End: domain.Day(2026, 3, 9)},
		{ID: "s1", Kind: domain.KindSafety, Start: domain.Day(2026, 3, 1), End: domain.Day(2026, 3, 4), LaneID: "M"},
		{ID: "c1", Kind: domain.KindCalibration, Start: domain.Day(2026, 4, 1), End: domain.Day(2026, 4, 2), Scope: domain.ScopeEnergy1to4, Description: "scales"},
		{ID: "v1", Kind: domain.KindVacation, Start: domain.Day(2026, 8, 3), End: domain.Day(2026, 8, 21), Person: "Marta"},
	}
	for _, in := range inputs {
		if _, err := b.Add(in); err != nil {
			t.Fatalf("Add(%s) error = %v", in.ID, err)
		}
	}
	if err := b.SetStatus("e1", domain.StatusSampleReceived); err != nil {
		t.Fatalf("SetStatus() error = %v", err)
	}
	return b
}

func TestRepository_SaveLoadBoard(t *testing.T) {
	ctx := context.Background()
	repo, err := Open(filepath.Join(t.TempDir(), "labgantt.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() {
		_ = repo.Close()
	})

	empty, err := repo.LoadBoard(ctx)
	if err != nil {
		t.Fatalf("LoadBoard(empty) error = %v", err)
	}
	if len(empty.Lanes()) != 2 || len(empty.Items()) != 0 {
		t.Fatalf("expected only synthetic lanes, got %#v", empty)
	}
	if _, ok, err := repo.SavedAt(ctx); err != nil || ok {
		t.Fatalf("expected no saved_at before first save, ok=%v err=%v", ok, err)
	}

	now := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }
	board := sampleBoard(t)
	if err := repo.SaveBoard(ctx, board); err != nil {
		t.Fatalf("SaveBoard() error = %v", err)
	}
	loaded, err := repo.LoadBoard(ctx)
	if err != nil {
		t.Fatalf("LoadBoard() error = %v", err)
	}
	if !loaded.Equal(board) {
		t.Fatalf("expected loaded board to equal saved\nsaved=%#v\nloaded=%#v", board, loaded)
	}
	savedAt, ok, err := repo.SavedAt(ctx)
	if err != nil || !ok || !savedAt.Equal(now) {
		t.Fatalf("unexpected saved_at %s ok=%v err=%v", savedAt, ok, err)
	}
}

func TestRepository_SaveReplacesPreviousBoard(t *testing.T) {
	ctx := context.Background()
	repo, err := Open(filepath.Join(t.TempDir(), "labgantt.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() {
		_ = repo.Close()
	})

	board := sampleBoard(t)
	if err := repo.SaveBoard(ctx, board); err != nil {
		t.Fatalf("SaveBoard() error = %v", err)
	}
	if err := board.Remove("e2"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if err := board.Relocate("e1", domain.Day(2026, 3, 3), "M"); err != nil {
		t.Fatalf("Relocate() error = %v", err)
	}
	if err := repo.SaveBoard(ctx, board); err != nil {
		t.Fatalf("second SaveBoard() error = %v", err)
	}
	loaded, err := repo.LoadBoard(ctx)
	if err != nil {
		t.Fatalf("LoadBoard() error = %v", err)
	}
	if len(loaded.Efficiency) != 0 || len(loaded.Safety) != 2 {
		t.Fatalf("expected replaced collections, eff=%d safety=%d", len(loaded.Efficiency), len(loaded.Safety))
	}
	if !loaded.Equal(board) {
		t.Fatal("expected loaded board to equal the second save")
	}
}

func TestRepository_OpenInMemory(t *testing.T) {
	repo, err := OpenInMemory()
	if err != nil {
		t.Fatalf("OpenInMemory() error = %v", err)
	}
	t.Cleanup(func() {
		_ = repo.Close()
	})
	if _, err := repo.LoadBoard(context.Background()); err != nil {
		t.Fatalf("LoadBoard() error = %v", err)
	}
}

func TestRepository_LoadRejectsInvalidRows(t *testing.T) {
	cases := []struct {
		name string
		row  []any
		want error
	}{
		{"unknown status", []any{"e1", "efficiency", "2026-05-01", "2026-05-01", "", "bogus", "{}"}, domain.ErrInvalidStateTransition},
		{"calibration without scope", []any{"c1", "calibration", "2026-05-01", "2026-05-02", "", "scheduled", "{}"}, domain.ErrInvalidScope},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			repo, err := Open(filepath.Join(t.TempDir(), "labgantt.db"))
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			t.Cleanup(func() {
				_ = repo.Close()
			})
			if _, err := repo.db.ExecContext(ctx,
				`INSERT INTO items (id, kind, start_date, end_date, lane_id, status, details_json, position) VALUES (?, ?, ?, ?, ?, ?, ?, 0)`,
				tc.row...); err != nil {
				t.Fatalf("insert row error = %v", err)
			}
			if _, err := repo.LoadBoard(ctx); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}
