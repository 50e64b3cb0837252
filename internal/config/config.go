package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

type Config struct {
	Database DatabaseConfig `toml:"database"`
	Logging  LoggingConfig  `toml:"logging"`
	Grid     GridConfig     `toml:"grid"`
	Layout   LayoutConfig   `toml:"layout"`
	Session  SessionConfig  `toml:"session"`
	Board    BoardConfig    `toml:"board"`
	Server   ServerConfig   `toml:"server"`
	Keys     KeyConfig      `toml:"keys"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type LoggingConfig struct {
	Level   string        `toml:"level"`
	DevFile DevFileConfig `toml:"dev_file"`
}

type DevFileConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

// GridConfig sizes the calendar grid in terminal cells.
type GridConfig struct {
	CellWidth       int `toml:"cell_width"`
	LabelWidth      int `toml:"label_width"`
	PadBeforeDays   int `toml:"pad_before_days"`
	PadAfterDays    int `toml:"pad_after_days"`
	EmptyBeforeDays int `toml:"empty_before_days"`
	EmptyAfterDays  int `toml:"empty_after_days"`
}

type LayoutConfig struct {
	Terminal RowConfig `toml:"terminal"`
	Safety   RowConfig `toml:"safety"`
	Vacation RowConfig `toml:"vacation"`
	Pending  RowConfig `toml:"pending"`
}

type RowConfig struct {
	RowHeight int `toml:"row_height"`
	RowMargin int `toml:"row_margin"`
}

type SessionConfig struct {
	UndoDepth int `toml:"undo_depth"`
}

type BoardConfig struct {
	TerminalCount int `toml:"terminal_count"`
}

type ServerConfig struct {
	HTTPBind    string `toml:"http_bind"`
	APIEndpoint string `toml:"api_endpoint"`
	MCPEndpoint string `toml:"mcp_endpoint"`
}

// KeyConfig overrides TUI bindings. Blank values keep the built-in keys.
type KeyConfig struct {
	Save           string `toml:"save"`
	Cancel         string `toml:"cancel"`
	Undo           string `toml:"undo"`
	Advance        string `toml:"advance"`
	MarkIncomplete string `toml:"mark_incomplete"`
	Delete         string `toml:"delete"`
	Details        string `toml:"details"`
	Yank           string `toml:"yank"`
}

func Default(dbPath string) Config {
	return Config{
		Database: DatabaseConfig{
			Path: dbPath,
		},
		Logging: LoggingConfig{
			Level: "info",
			DevFile: DevFileConfig{
				Enabled: true,
				Dir:     ".labgantt/log",
			},
		},
		Grid: GridConfig{
			CellWidth:       3,
			LabelWidth:      14,
			PadBeforeDays:   30,
			PadAfterDays:    60,
			EmptyBeforeDays: 7,
			EmptyAfterDays:  21,
		},
		Layout: LayoutConfig{
			Terminal: RowConfig{RowHeight: 1},
			Safety:   RowConfig{RowHeight: 1},
			Vacation: RowConfig{RowHeight: 1},
			Pending:  RowConfig{RowHeight: 2},
		},
		Session: SessionConfig{
			UndoDepth: 10,
		},
		Board: BoardConfig{
			TerminalCount: 8,
		},
		Server: ServerConfig{
			HTTPBind:    "127.0.0.1:7341",
			APIEndpoint: "/api/v1",
			MCPEndpoint: "/mcp",
		},
	}
}

func Load(path string, defaults Config) (Config, error) {
	cfg := defaults
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(content) == 0 {
		return cfg, nil
	}

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode toml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	c.Database.Path = strings.TrimSpace(c.Database.Path)
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}

	switch strings.TrimSpace(strings.ToLower(c.Logging.Level)) {
	case "debug", "info", "warn", "error", "fatal":
	default:
		return fmt.Errorf("invalid logging.level: %q", c.Logging.Level)
	}

	if c.Grid.CellWidth < 1 {
		return errors.New("grid.cell_width must be >= 1")
	}
	if c.Grid.LabelWidth < 4 {
		return errors.New("grid.label_width must be >= 4")
	}
	pads := []struct {
		name  string
		value int
	}{
		{"grid.pad_before_days", c.Grid.PadBeforeDays},
		{"grid.pad_after_days", c.Grid.PadAfterDays},
		{"grid.empty_before_days", c.Grid.EmptyBeforeDays},
		{"grid.empty_after_days", c.Grid.EmptyAfterDays},
	}
	for _, pad := range pads {
		if pad.value < 0 {
			return fmt.Errorf("%s must be >= 0", pad.name)
		}
	}

	rows := []struct {
		name string
		row  RowConfig
	}{
		{"layout.terminal", c.Layout.Terminal},
		{"layout.safety", c.Layout.Safety},
		{"layout.vacation", c.Layout.Vacation},
		{"layout.pending", c.Layout.Pending},
	}
	for _, r := range rows {
		if r.row.RowHeight < 1 {
			return fmt.Errorf("%s.row_height must be >= 1", r.name)
		}
		if r.row.RowMargin < 0 {
			return fmt.Errorf("%s.row_margin must be >= 0", r.name)
		}
	}

	if c.Session.UndoDepth < 1 {
		return errors.New("session.undo_depth must be >= 1")
	}
	if c.Board.TerminalCount < 0 {
		return errors.New("board.terminal_count must be >= 0")
	}

	if strings.TrimSpace(c.Server.HTTPBind) == "" {
		return errors.New("server.http_bind is required")
	}
	for name, endpoint := range map[string]string{
		"server.api_endpoint": c.Server.APIEndpoint,
		"server.mcp_endpoint": c.Server.MCPEndpoint,
	} {
		if !strings.HasPrefix(strings.TrimSpace(endpoint), "/") {
			return fmt.Errorf("%s must start with '/': %q", name, endpoint)
		}
	}

	seen := map[string]string{}
	for name, value := range map[string]string{
		"keys.save":            c.Keys.Save,
		"keys.cancel":          c.Keys.Cancel,
		"keys.undo":            c.Keys.Undo,
		"keys.advance":         c.Keys.Advance,
		"keys.mark_incomplete": c.Keys.MarkIncomplete,
		"keys.delete":          c.Keys.Delete,
		"keys.details":         c.Keys.Details,
		"keys.yank":            c.Keys.Yank,
	} {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if other, ok := seen[value]; ok {
			return fmt.Errorf("%s and %s both bind %q", other, name, value)
		}
		seen[value] = name
	}

	return nil
}

func EnsureConfigDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
