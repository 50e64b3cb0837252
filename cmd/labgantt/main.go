package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/fang"
	"github.com/google/uuid"
	serveradapter "github.com/hylla/labgantt/internal/adapters/server"
	"github.com/hylla/labgantt/internal/adapters/storage/sqlite"
	"github.com/hylla/labgantt/internal/app"
	"github.com/hylla/labgantt/internal/calendar"
	"github.com/hylla/labgantt/internal/config"
	"github.com/hylla/labgantt/internal/domain"
	"github.com/hylla/labgantt/internal/layout"
	"github.com/hylla/labgantt/internal/platform"
	"github.com/hylla/labgantt/internal/tui"
	"github.com/spf13/cobra"
)

// version stores a package-level helper value.
var version = "dev"

// program represents program data used by this package.
type program interface {
	Run() (tea.Model, error)
}

// programFactory stores a package-level helper value.
var programFactory = func(m tea.Model) program {
	return tea.NewProgram(m)
}

// serveCommandRunner starts the HTTP+MCP serve flow.
var serveCommandRunner = func(ctx context.Context, cfg serveradapter.Config, deps serveradapter.Dependencies) error {
	return serveradapter.Run(ctx, cfg, deps)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	root := newRootCommand(os.Stdout, os.Stderr)
	if err := fang.Execute(ctx, root, fang.WithVersion(version)); err != nil {
		stop()
		os.Exit(1)
	}
}

// run executes the command tree with explicit args and writers.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	root := newRootCommand(stdout, stderr)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// globalFlags holds the persistent flags shared by every command.
type globalFlags struct {
	configPath string
	dbPath     string
	appName    string
	devMode    bool
}

// cli carries writers and flag state through the command tree.
type cli struct {
	flags  globalFlags
	stdout io.Writer
	stderr io.Writer
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}
	c := &cli{stdout: stdout, stderr: stderr}

	defaultDevMode := version == "dev"
	if envDev, ok := parseBoolEnv(platform.EnvDevMode); ok {
		defaultDevMode = envDev
	}
	defaultApp := "labgantt"
	if envApp := strings.TrimSpace(os.Getenv(platform.EnvAppName)); envApp != "" {
		defaultApp = envApp
	}

	root := &cobra.Command{
		Use:           "labgantt",
		Short:         "Schedule lab terminals on a drag-and-drop Gantt board",
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(*cobra.Command, []string) error {
			return c.runTUI()
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&c.flags.configPath, "config", "", "path to config TOML")
	pf.StringVar(&c.flags.dbPath, "db", "", "path to sqlite database")
	pf.StringVar(&c.flags.appName, "app", defaultApp, "application name for config/data path resolution")
	pf.BoolVar(&c.flags.devMode, "dev", defaultDevMode, "use dev mode paths (<app>-dev)")

	root.AddCommand(
		c.pathsCommand(),
		c.exportCommand(),
		c.importCommand(),
		c.lanesCommand(),
		c.itemsCommand(),
		c.layoutCommand(),
		c.serveCommand(),
		c.legendCommand(),
	)
	return root
}

// runtimeEnv is the resolved state a data command runs against.
type runtimeEnv struct {
	paths  platform.Paths
	cfg    config.Config
	logger *runtimeLogger
	repo   *sqlite.Repository
	store  loggingStore
	svc    *app.Service
}

// resolvePaths applies flag and environment overrides to the default paths.
func (c *cli) resolvePaths() (platform.Paths, bool, error) {
	paths, err := platform.DefaultPathsWithOptions(platform.Options{
		AppName: c.flags.appName,
		DevMode: c.flags.devMode,
	})
	if err != nil {
		return platform.Paths{}, false, err
	}
	paths, dbOverridden := paths.Override(c.flags.configPath, c.flags.dbPath, os.Getenv)
	return paths, dbOverridden, nil
}

// open resolves config, logging and storage for one command.
// quietConsole mutes console logging while the TUI owns the terminal.
func (c *cli) open(command string, quietConsole bool) (*runtimeEnv, error) {
	paths, dbOverridden, err := c.resolvePaths()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(paths.ConfigPath, config.Default(paths.DBPath))
	if err != nil {
		return nil, fmt.Errorf("load config %q: %w", paths.ConfigPath, err)
	}
	if dbOverridden {
		cfg.Database.Path = paths.DBPath
	}

	logger, err := newRuntimeLogger(c.stderr, c.flags.appName, c.flags.devMode, cfg.Logging, time.Now)
	if err != nil {
		return nil, fmt.Errorf("configure runtime logger: %w", err)
	}
	if quietConsole {
		logger.SetConsoleEnabled(false)
	}

	logger.Info("startup configuration resolved", "app", c.flags.appName, "dev_mode", c.flags.devMode, "command", command)
	logger.Debug("runtime paths resolved", "config_path", paths.ConfigPath, "data_dir", paths.DataDir, "db_path", cfg.Database.Path)
	if devPath := logger.DevLogPath(); devPath != "" {
		logger.Info("dev file logging enabled", "path", devPath)
	}

	logger.Info("opening sqlite repository", "db_path", cfg.Database.Path)
	repo, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		logger.Error("sqlite open failed", "db_path", cfg.Database.Path, "err", err)
		_ = logger.Close()
		return nil, fmt.Errorf("open sqlite repository: %w", err)
	}

	store := loggingStore{next: repo, logger: logger}
	svc := app.NewService(store, newItemID, time.Now, app.ServiceConfig{
		UndoDepth:     cfg.Session.UndoDepth,
		TerminalCount: cfg.Board.TerminalCount,
	})
	logger.Debug("application service initialized", "undo_depth", cfg.Session.UndoDepth, "terminal_count", cfg.Board.TerminalCount)
	return &runtimeEnv{
		paths:  paths,
		cfg:    cfg,
		logger: logger,
		repo:   repo,
		store:  store,
		svc:    svc,
	}, nil
}

// close releases storage and the dev log sink.
func (e *runtimeEnv) close(stderr io.Writer) {
	if err := e.repo.Close(); err != nil {
		e.logger.Warn("sqlite close failed", "db_path", e.cfg.Database.Path, "err", err)
	}
	if err := e.logger.Close(); err != nil && e.logger.ConsoleEnabled() {
		_, _ = fmt.Fprintf(stderr, "warning: close runtime log sink: %v\n", err)
	}
}

// withEnv opens the runtime, runs fn, and logs the command outcome.
func (c *cli) withEnv(command string, fn func(*runtimeEnv) error) error {
	env, err := c.open(command, false)
	if err != nil {
		return err
	}
	defer env.close(c.stderr)

	env.logger.Info("command flow start", "command", command)
	if err := fn(env); err != nil {
		env.logger.Error("command flow failed", "command", command, "err", err)
		return fmt.Errorf("run %s command: %w", command, err)
	}
	env.logger.Info("command flow complete", "command", command)
	return nil
}

// runTUI starts the interactive board.
func (c *cli) runTUI() error {
	env, err := c.open("tui", true)
	if err != nil {
		return err
	}
	defer env.close(c.stderr)

	m := tui.NewModel(
		env.svc,
		tui.WithGrid(toGridConfig(env.cfg)),
		tui.WithPadding(toPadding(env.cfg)),
		tui.WithMetrics(toMetrics(env.cfg)),
		tui.WithKeyConfig(toKeyConfig(env.cfg)),
	)
	env.logger.Info("starting tui program loop")
	if _, err := programFactory(m).Run(); err != nil {
		env.logger.Error("tui program terminated with error", "err", err)
		return fmt.Errorf("run tui program: %w", err)
	}
	env.logger.Info("command flow complete", "command", "tui")
	return nil
}

// newItemID returns a time-ordered UUIDv7, falling back to a random UUID.
func newItemID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// parseBoolEnv parses a boolean environment variable; ok is false when unset or invalid.
func parseBoolEnv(name string) (bool, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}

func toGridConfig(cfg config.Config) tui.GridConfig {
	return tui.GridConfig{
		CellWidth:  cfg.Grid.CellWidth,
		LabelWidth: cfg.Grid.LabelWidth,
	}
}

func toPadding(cfg config.Config) calendar.Padding {
	return calendar.Padding{
		BeforeDays:      cfg.Grid.PadBeforeDays,
		AfterDays:       cfg.Grid.PadAfterDays,
		EmptyBeforeDays: cfg.Grid.EmptyBeforeDays,
		EmptyAfterDays:  cfg.Grid.EmptyAfterDays,
	}
}

func toMetrics(cfg config.Config) layout.Metrics {
	row := func(r config.RowConfig) layout.RowMetrics {
		return layout.RowMetrics{RowHeight: r.RowHeight, RowMargin: r.RowMargin}
	}
	return layout.Metrics{
		domain.LaneKindTerminal: row(cfg.Layout.Terminal),
		domain.LaneKindSafety:   row(cfg.Layout.Safety),
		domain.LaneKindVacation: row(cfg.Layout.Vacation),
		domain.LaneKindPending:  row(cfg.Layout.Pending),
	}
}

func toKeyConfig(cfg config.Config) tui.KeyConfig {
	return tui.KeyConfig{
		Save:           cfg.Keys.Save,
		Cancel:         cfg.Keys.Cancel,
		Undo:           cfg.Keys.Undo,
		Advance:        cfg.Keys.Advance,
		MarkIncomplete: cfg.Keys.MarkIncomplete,
		Delete:         cfg.Keys.Delete,
		Details:        cfg.Keys.Details,
		Yank:           cfg.Keys.Yank,
	}
}
