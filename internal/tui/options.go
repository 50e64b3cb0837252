package tui

import (
	"time"

	"github.com/hylla/labgantt/internal/calendar"
	"github.com/hylla/labgantt/internal/layout"
)

// GridConfig sizes the board in terminal cells.
type GridConfig struct {
	CellWidth  int
	LabelWidth int
}

// DefaultGridConfig returns three cells per day and a fourteen-cell label column.
func DefaultGridConfig() GridConfig {
	return GridConfig{CellWidth: 3, LabelWidth: 14}
}

type Option func(*Model)

func WithGrid(cfg GridConfig) Option {
	return func(m *Model) {
		if cfg.CellWidth > 0 {
			m.grid.CellWidth = cfg.CellWidth
		}
		if cfg.LabelWidth > 0 {
			m.grid.LabelWidth = cfg.LabelWidth
		}
	}
}

func WithPadding(pad calendar.Padding) Option {
	return func(m *Model) {
		m.padding = pad
	}
}

func WithMetrics(metrics layout.Metrics) Option {
	return func(m *Model) {
		if len(metrics) > 0 {
			m.metrics = metrics
		}
	}
}

func WithKeyConfig(cfg KeyConfig) Option {
	return func(m *Model) {
		m.keys.applyConfig(cfg)
	}
}

// WithClipboard replaces the system clipboard writer.
func WithClipboard(write func(string) error) Option {
	return func(m *Model) {
		if write != nil {
			m.copyText = write
		}
	}
}

func WithSaveTimeout(d time.Duration) Option {
	return func(m *Model) {
		if d > 0 {
			m.saveTimeout = d
		}
	}
}
