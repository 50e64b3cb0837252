package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
	serveradapter "github.com/hylla/labgantt/internal/adapters/server"
	servercommon "github.com/hylla/labgantt/internal/adapters/server/common"
	"github.com/hylla/labgantt/internal/app"
	"github.com/hylla/labgantt/internal/domain"
	"github.com/hylla/labgantt/internal/tui"
	"github.com/spf13/cobra"
)

// seededBoard reads the board through the service so an empty store gets its default terminals.
type seededBoard struct {
	svc *app.Service
}

// LoadBoard returns the committed board, seeding it first when empty.
func (s seededBoard) LoadBoard(ctx context.Context) (domain.Board, error) {
	return s.svc.EnsureDefaultBoard(ctx)
}

// queries builds the read adapter shared with the serve transports.
func (e *runtimeEnv) queries() *servercommon.BoardAdapter {
	return servercommon.NewBoardAdapter(seededBoard{svc: e.svc}, toMetrics(e.cfg))
}

// writeTable renders rows under a bold header row.
func writeTable(w io.Writer, headers []string, rows [][]string) error {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("62"))).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return lipgloss.NewStyle().Bold(true).Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

func (c *cli) pathsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "paths",
		Short: "Print resolved config and data paths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			paths, _, err := c.resolvePaths()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "app: %s\n", c.flags.appName)
			_, _ = fmt.Fprintf(out, "dev_mode: %t\n", c.flags.devMode)
			_, _ = fmt.Fprintf(out, "config: %s\n", paths.ConfigPath)
			_, _ = fmt.Fprintf(out, "data_dir: %s\n", paths.DataDir)
			_, _ = fmt.Fprintf(out, "db: %s\n", paths.DBPath)
			_, _ = fmt.Fprintf(out, "snapshots: %s\n", paths.SnapshotDir)
			return nil
		},
	}
}

func (c *cli) exportCommand() *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the committed board as a JSON snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withEnv("export", func(env *runtimeEnv) error {
				target := outPath
				if target == "auto" {
					target = env.paths.SnapshotFile(time.Now())
				}
				if err := runExport(cmd.Context(), env.svc, target, cmd.OutOrStdout()); err != nil {
					return err
				}
				if target != "-" {
					env.logger.Info("snapshot exported", "path", target)
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", target)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&outPath, "out", "-", "output file path ('-' for stdout, 'auto' for a dated file in the snapshot dir)")
	return cmd
}

func (c *cli) importCommand() *cobra.Command {
	var inPath string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Replace the committed board with a JSON snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(inPath) == "" {
				return fmt.Errorf("--in is required")
			}
			return c.withEnv("import", func(env *runtimeEnv) error {
				return runImport(cmd.Context(), env.svc, inPath)
			})
		},
	}
	cmd.Flags().StringVar(&inPath, "in", "", "input snapshot JSON file")
	return cmd
}

// runExport encodes the committed board to outPath or stdout.
func runExport(ctx context.Context, svc *app.Service, outPath string, stdout io.Writer) error {
	snap, err := svc.ExportSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("export snapshot: %w", err)
	}
	encoded, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot json: %w", err)
	}
	encoded = append(encoded, '\n')

	if outPath == "-" {
		if _, err := stdout.Write(encoded); err != nil {
			return fmt.Errorf("write snapshot to stdout: %w", err)
		}
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create export output dir: %w", err)
	}
	if err := os.WriteFile(outPath, encoded, 0o644); err != nil {
		return fmt.Errorf("write export file: %w", err)
	}
	return nil
}

// runImport decodes inPath and replaces the committed board.
func runImport(ctx context.Context, svc *app.Service, inPath string) error {
	content, err := os.ReadFile(inPath)
	if err != nil {
		return fmt.Errorf("read import file: %w", err)
	}
	var snap app.Snapshot
	if err := json.Unmarshal(content, &snap); err != nil {
		return fmt.Errorf("decode snapshot json: %w", err)
	}
	if err := svc.ImportSnapshot(ctx, snap); err != nil {
		return fmt.Errorf("import snapshot: %w", err)
	}
	return nil
}

func (c *cli) lanesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lanes",
		Short: "List and manage terminal and safety lanes",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List lanes in board order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withEnv("lanes list", func(env *runtimeEnv) error {
				lanes, err := env.queries().ListLanes(cmd.Context())
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(lanes))
				for _, lane := range lanes {
					rows = append(rows, []string{lane.ID, string(lane.Kind), lane.Name, strconv.Itoa(lane.ItemCount)})
				}
				return writeTable(cmd.OutOrStdout(), []string{"ID", "KIND", "NAME", "ITEMS"}, rows)
			})
		},
	}

	var kind, id, name string
	add := &cobra.Command{
		Use:   "add",
		Short: "Add a terminal or safety responsible lane",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withEnv("lanes add", func(env *runtimeEnv) error {
				var lane domain.Lane
				_, err := env.svc.Apply(cmd.Context(), func(s *app.Session) error {
					var err error
					lane, err = s.AddLane(domain.LaneKind(strings.ToLower(strings.TrimSpace(kind))), id, name)
					return err
				})
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "added %s lane %s (%s)\n", lane.Kind, lane.ID, lane.Name)
				return nil
			})
		},
	}
	add.Flags().StringVar(&kind, "kind", string(domain.LaneKindTerminal), "lane kind: terminal or safety")
	add.Flags().StringVar(&id, "id", "", "terminal number or responsible letter")
	add.Flags().StringVar(&name, "name", "", "display name")

	rename := &cobra.Command{
		Use:   "rename <id> <name>",
		Short: "Rename a lane",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withEnv("lanes rename", func(env *runtimeEnv) error {
				_, err := env.svc.Apply(cmd.Context(), func(s *app.Session) error {
					return s.RenameLane(args[0], args[1])
				})
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "renamed lane %s\n", args[0])
				return nil
			})
		},
	}

	remove := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a lane no item references",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withEnv("lanes delete", func(env *runtimeEnv) error {
				_, err := env.svc.Apply(cmd.Context(), func(s *app.Session) error {
					return s.DeleteLane(args[0])
				})
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "deleted lane %s\n", args[0])
				return nil
			})
		},
	}

	cmd.AddCommand(list, add, rename, remove)
	return cmd
}

// itemFlags holds the write-time item fields accepted on the command line.
type itemFlags struct {
	id           string
	kind         string
	start        string
	end          string
	lane         string
	protocol     string
	manufacturer string
	model        string
	load         string
	cycles       int
	notes        string
	scope        string
	description  string
	person       string
}

func (f itemFlags) input() (domain.ItemInput, error) {
	kind, err := domain.ParseItemKind(f.kind)
	if err != nil {
		return domain.ItemInput{}, err
	}
	start, err := domain.ParseDate(f.start)
	if err != nil {
		return domain.ItemInput{}, fmt.Errorf("--start: %w", err)
	}
	end := start
	if strings.TrimSpace(f.end) != "" {
		if end, err = domain.ParseDate(f.end); err != nil {
			return domain.ItemInput{}, fmt.Errorf("--end: %w", err)
		}
	}
	return domain.ItemInput{
		ID:     f.id,
		Kind:   kind,
		Start:  start,
		End:    end,
		LaneID: f.lane,
		Assay: domain.AssayDetails{
			Protocol:     f.protocol,
			Manufacturer: f.manufacturer,
			Model:        f.model,
			Load:         f.load,
			Cycles:       f.cycles,
			Notes:        f.notes,
		},
		Scope:       domain.CalibrationScope(f.scope),
		Description: f.description,
		Person:      f.person,
	}, nil
}

func (c *cli) itemsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "items",
		Short: "List and edit scheduled items",
	}

	var listLane, listKind string
	list := &cobra.Command{
		Use:   "list",
		Short: "List items, optionally filtered by lane and kind",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withEnv("items list", func(env *runtimeEnv) error {
				items, err := env.queries().ListItems(cmd.Context(), servercommon.ListItemsRequest{
					LaneID: listLane,
					Kind:   listKind,
				})
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(items))
				for _, item := range items {
					lane := item.LaneID
					if lane == "" && item.Kind == domain.KindEfficiency {
						lane = domain.PendingLaneID
					}
					rows = append(rows, []string{item.ID, string(item.Kind), item.Start, item.End, lane, string(item.Status)})
				}
				return writeTable(cmd.OutOrStdout(), []string{"ID", "KIND", "START", "END", "LANE", "STATUS"}, rows)
			})
		},
	}
	list.Flags().StringVar(&listLane, "lane", "", "only items in this lane")
	list.Flags().StringVar(&listKind, "kind", "", "only items of this kind")

	var in itemFlags
	add := &cobra.Command{
		Use:   "add",
		Short: "Schedule a new item",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			input, err := in.input()
			if err != nil {
				return err
			}
			return c.withEnv("items add", func(env *runtimeEnv) error {
				var created domain.Item
				_, err := env.svc.Apply(cmd.Context(), func(s *app.Session) error {
					var err error
					created, err = s.AddItem(input)
					return err
				})
				if err != nil {
					return err
				}
				base := created.Base()
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "added %s %s %s..%s status=%s\n",
					created.Kind(), base.ID, domain.FormatDate(base.Start), domain.FormatDate(base.End), base.Status)
				return nil
			})
		},
	}
	af := add.Flags()
	af.StringVar(&in.id, "id", "", "item id (generated when empty)")
	af.StringVar(&in.kind, "kind", "", "efficiency, safety, calibration or vacation")
	af.StringVar(&in.start, "start", "", "first day, YYYY-MM-DD")
	af.StringVar(&in.end, "end", "", "last day, YYYY-MM-DD (defaults to --start)")
	af.StringVar(&in.lane, "lane", "", "terminal number or responsible letter")
	af.StringVar(&in.protocol, "protocol", "", "assay protocol")
	af.StringVar(&in.manufacturer, "manufacturer", "", "appliance manufacturer")
	af.StringVar(&in.model, "model", "", "appliance model")
	af.StringVar(&in.load, "load", "", "assay load")
	af.IntVar(&in.cycles, "cycles", 0, "assay cycle count")
	af.StringVar(&in.notes, "notes", "", "free-form notes")
	af.StringVar(&in.scope, "scope", string(domain.ScopeAll), "calibration scope: energy-1-4, energy-5-8 or all")
	af.StringVar(&in.description, "description", "", "calibration description")
	af.StringVar(&in.person, "person", "", "vacation person")
	_ = add.MarkFlagRequired("kind")
	_ = add.MarkFlagRequired("start")

	var moveStart, moveLane string
	move := &cobra.Command{
		Use:   "move <id>",
		Short: "Move an item to a new start date and lane",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withEnv("items move", func(env *runtimeEnv) error {
				_, err := env.svc.Apply(cmd.Context(), func(s *app.Session) error {
					item, ok := s.Board().Item(args[0])
					if !ok {
						return fmt.Errorf("item %q: %w", args[0], domain.ErrItemNotFound)
					}
					start := item.Base().Start
					if strings.TrimSpace(moveStart) != "" {
						parsed, err := domain.ParseDate(moveStart)
						if err != nil {
							return fmt.Errorf("--start: %w", err)
						}
						start = parsed
					}
					lane := item.Base().LaneID
					if strings.TrimSpace(moveLane) != "" {
						lane = strings.TrimSpace(moveLane)
					}
					return s.Reposition(args[0], start, lane)
				})
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "moved %s\n", args[0])
				return nil
			})
		},
	}
	move.Flags().StringVar(&moveStart, "start", "", "new first day, YYYY-MM-DD")
	move.Flags().StringVar(&moveLane, "lane", "", "destination lane id")

	status := &cobra.Command{
		Use:   "status <id> <status>",
		Short: "Advance an assay along its lifecycle",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			to, err := domain.ParseStatus(args[1])
			if err != nil {
				return err
			}
			return c.withEnv("items status", func(env *runtimeEnv) error {
				_, err := env.svc.Apply(cmd.Context(), func(s *app.Session) error {
					return s.TransitionItem(args[0], to)
				})
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", args[0], to)
				return nil
			})
		},
	}

	remove := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withEnv("items delete", func(env *runtimeEnv) error {
				_, err := env.svc.Apply(cmd.Context(), func(s *app.Session) error {
					return s.DeleteItem(args[0])
				})
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
				return nil
			})
		},
	}

	cmd.AddCommand(list, add, move, status, remove)
	return cmd
}

func (c *cli) layoutCommand() *cobra.Command {
	var laneID string
	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Print the sub-row packing of one lane",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withEnv("layout", func(env *runtimeEnv) error {
				out, err := env.queries().LaneLayout(cmd.Context(), laneID)
				if err != nil {
					return err
				}
				w := cmd.OutOrStdout()
				_, _ = fmt.Fprintf(w, "lane: %s (%s)\n", out.Lane.ID, out.Lane.Name)
				_, _ = fmt.Fprintf(w, "sub_rows: %d\n", out.SubRowCount)
				_, _ = fmt.Fprintf(w, "height: %d\n", out.Height)
				rows := make([][]string, 0, len(out.Rows))
				for _, row := range out.Rows {
					rows = append(rows, []string{strconv.Itoa(row.Row), row.ItemID, row.Start, row.End, row.Label})
				}
				return writeTable(w, []string{"ROW", "ITEM", "START", "END", "LABEL"}, rows)
			})
		},
	}
	cmd.Flags().StringVar(&laneID, "lane", "", "lane id")
	_ = cmd.MarkFlagRequired("lane")
	return cmd
}

func (c *cli) serveCommand() *cobra.Command {
	var bind string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the committed board over HTTP and MCP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withEnv("serve", func(env *runtimeEnv) error {
				ctx := cmd.Context()
				if _, err := env.svc.EnsureDefaultBoard(ctx); err != nil {
					return fmt.Errorf("seed default board: %w", err)
				}
				cfg := serveradapter.Config{
					HTTPBind:      env.cfg.Server.HTTPBind,
					APIEndpoint:   env.cfg.Server.APIEndpoint,
					MCPEndpoint:   env.cfg.Server.MCPEndpoint,
					ServerName:    "labgantt",
					ServerVersion: version,
				}
				if strings.TrimSpace(bind) != "" {
					cfg.HTTPBind = strings.TrimSpace(bind)
				}
				env.logger.Info("serve listening", "bind", cfg.HTTPBind, "api", cfg.APIEndpoint, "mcp", cfg.MCPEndpoint)
				return serveCommandRunner(ctx, cfg, serveradapter.Dependencies{
					Board:   env.store,
					Metrics: toMetrics(env.cfg),
				})
			})
		},
	}
	cmd.Flags().StringVar(&bind, "http", "", "override the HTTP bind address")
	return cmd
}

func (c *cli) legendCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "legend",
		Short: "Show the board colour legend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), tui.Legend())
			return err
		},
	}
}
