package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hylla/labgantt/internal/domain"
	_ "modernc.org/sqlite"
)

// driverName defines a package constant value.
const driverName = "sqlite"

// Repository stores the committed board in one sqlite file.
type Repository struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens the requested operation.
func Open(path string) (*Repository, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return newRepository(db)
}

// OpenInMemory opens in memory.
func OpenInMemory() (*Repository, error) {
	db, err := sql.Open(driverName, "file::memory:?cache=shared")
	if err != nil {
		return nil, fmt.Errorf("open sqlite memory: %w", err)
	}
	return newRepository(db)
}

func newRepository(db *sql.DB) (*Repository, error) {
	repo := &Repository{db: db, now: time.Now}
	if err := repo.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// Close closes the requested operation.
func (r *Repository) Close() error {
	return r.db.Close()
}

// migrate handles migrate.
func (r *Repository) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS lanes (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			name TEXT NOT NULL,
			position INTEGER NOT NULL
		);`,
		// lane_id is not a foreign key: pending items carry '' and vacations the synthetic lane id.
		`CREATE TABLE IF NOT EXISTS items (
			id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			start_date TEXT NOT NULL,
			end_date TEXT NOT NULL,
			lane_id TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			details_json TEXT NOT NULL DEFAULT '{}',
			position INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS board_meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_lanes_position ON lanes(position);`,
		`CREATE INDEX IF NOT EXISTS idx_items_kind_position ON items(kind, position);`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate sqlite: %w", err)
		}
	}
	return nil
}

// itemDetails holds the kind-specific fields of one item row.
type itemDetails struct {
	Assay       *domain.AssayDetails    `json:"assay,omitempty"`
	Scope       domain.CalibrationScope `json:"scope,omitempty"`
	Description string                  `json:"description,omitempty"`
	Person      string                  `json:"person,omitempty"`
}

// LoadBoard reads the committed board.
func (r *Repository) LoadBoard(ctx context.Context) (domain.Board, error) {
	var board domain.Board

	rows, err := r.db.QueryContext(ctx, `SELECT id, kind, name FROM lanes ORDER BY position ASC, id ASC`)
	if err != nil {
		return domain.Board{}, fmt.Errorf("load lanes: %w", err)
	}
	for rows.Next() {
		var lane domain.Lane
		var kind string
		if err := rows.Scan(&lane.ID, &kind, &lane.Name); err != nil {
			_ = rows.Close()
			return domain.Board{}, err
		}
		lane.Kind = domain.LaneKind(kind)
		switch lane.Kind {
		case domain.LaneKindTerminal:
			board.Terminals = append(board.Terminals, lane)
		case domain.LaneKindSafety:
			board.Responsibles = append(board.Responsibles, lane)
		default:
			_ = rows.Close()
			return domain.Board{}, fmt.Errorf("load lanes: %w: %q", domain.ErrInvalidKind, kind)
		}
	}
	if err := rows.Close(); err != nil {
		return domain.Board{}, err
	}
	if err := rows.Err(); err != nil {
		return domain.Board{}, err
	}

	rows, err = r.db.QueryContext(ctx, `
		SELECT id, kind, start_date, end_date, lane_id, status, details_json
		FROM items
		ORDER BY position ASC, id ASC
	`)
	if err != nil {
		return domain.Board{}, fmt.Errorf("load items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return domain.Board{}, err
		}
		if err := board.Append(item); err != nil {
			return domain.Board{}, err
		}
	}
	if err := rows.Err(); err != nil {
		return domain.Board{}, err
	}
	if err := board.Validate(); err != nil {
		return domain.Board{}, fmt.Errorf("load board: %w", err)
	}
	return board, nil
}

// SaveBoard replaces the stored board in one transaction.
func (r *Repository) SaveBoard(ctx context.Context, board domain.Board) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM items`); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM lanes`); err != nil {
		return err
	}
	lanes := append(append([]domain.Lane(nil), board.Terminals...), board.Responsibles...)
	for i, lane := range lanes {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO lanes(id, kind, name, position) VALUES (?, ?, ?, ?)`,
			lane.ID, string(lane.Kind), lane.Name, i,
		); err != nil {
			return fmt.Errorf("save lane %s: %w", lane.ID, err)
		}
	}
	for i, item := range board.Items() {
		var detailsJSON []byte
		detailsJSON, err = json.Marshal(detailsFor(item))
		if err != nil {
			return err
		}
		base := item.Base()
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO items(id, kind, start_date, end_date, lane_id, status, details_json, position)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`,
			base.ID,
			string(item.Kind()),
			domain.FormatDate(base.Start),
			domain.FormatDate(base.End),
			base.LaneID,
			string(base.Status),
			string(detailsJSON),
			i,
		); err != nil {
			return fmt.Errorf("save item %s: %w", base.ID, err)
		}
	}
	if _, err = tx.ExecContext(ctx, `
		INSERT INTO board_meta(key, value) VALUES ('saved_at', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, ts(r.now())); err != nil {
		return err
	}
	err = tx.Commit()
	return err
}

// SavedAt returns when the board was last committed.
func (r *Repository) SavedAt(ctx context.Context) (time.Time, bool, error) {
	var raw string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM board_meta WHERE key = 'saved_at'`).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return parseTS(raw), true, nil
}

// scanner represents scanner data used by this package.
type scanner interface {
	Scan(dest ...any) error
}

// scanItem rebuilds one item row.
func scanItem(s scanner) (domain.Item, error) {
	var (
		id, kindRaw, startRaw, endRaw, laneID, statusRaw, detailsRaw string
	)
	if err := s.Scan(&id, &kindRaw, &startRaw, &endRaw, &laneID, &statusRaw, &detailsRaw); err != nil {
		return nil, err
	}
	start, err := domain.ParseDate(startRaw)
	if err != nil {
		return nil, err
	}
	end, err := domain.ParseDate(endRaw)
	if err != nil {
		return nil, err
	}
	var details itemDetails
	if strings.TrimSpace(detailsRaw) != "" {
		if err := json.Unmarshal([]byte(detailsRaw), &details); err != nil {
			return nil, fmt.Errorf("decode item %s details: %w", id, err)
		}
	}
	base := domain.Schedule{ID: id, Start: start, End: end, LaneID: laneID, Status: domain.Status(statusRaw)}
	var assay domain.AssayDetails
	if details.Assay != nil {
		assay = *details.Assay
	}
	switch domain.ItemKind(kindRaw) {
	case domain.KindEfficiency:
		return domain.EfficiencyAssay{Schedule: base, AssayDetails: assay}, nil
	case domain.KindSafety:
		return domain.SafetyAssay{Schedule: base, AssayDetails: assay}, nil
	case domain.KindCalibration:
		return domain.CalibrationEvent{Schedule: base, Scope: details.Scope, Description: details.Description}, nil
	case domain.KindVacation:
		return domain.VacationEvent{Schedule: base, Person: details.Person}, nil
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidKind, kindRaw)
	}
}

func detailsFor(item domain.Item) itemDetails {
	switch v := item.(type) {
	case domain.EfficiencyAssay:
		assay := v.AssayDetails
		return itemDetails{Assay: &assay}
	case domain.SafetyAssay:
		assay := v.AssayDetails
		return itemDetails{Assay: &assay}
	case domain.CalibrationEvent:
		return itemDetails{Scope: v.Scope, Description: v.Description}
	case domain.VacationEvent:
		return itemDetails{Person: v.Person}
	default:
		return itemDetails{}
	}
}

// ts handles ts.
func ts(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTS parses input into a normalized form.
func parseTS(v string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return t
}
