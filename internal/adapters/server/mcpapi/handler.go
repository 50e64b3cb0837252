// Package mcpapi provides a stateless MCP streamable-HTTP adapter over the committed board.
package mcpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/hylla/labgantt/internal/adapters/server/common"
	"github.com/hylla/labgantt/internal/domain"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

// Config captures MCP transport configuration.
type Config struct {
	ServerName    string
	ServerVersion string
	EndpointPath  string
}

// Handler wraps one stateless MCP streamable HTTP handler.
type Handler struct {
	httpHandler http.Handler
}

// NewHandler builds one stateless MCP adapter exposing read-only board tools.
func NewHandler(cfg Config, queries common.BoardQueries) (*Handler, error) {
	if queries == nil {
		return nil, fmt.Errorf("board queries are required")
	}
	cfg = normalizeConfig(cfg)

	mcpSrv := mcpserver.NewMCPServer(
		cfg.ServerName,
		cfg.ServerVersion,
		mcpserver.WithToolCapabilities(false),
	)
	registerLaneTools(mcpSrv, queries)
	registerItemTools(mcpSrv, queries)

	streamable := mcpserver.NewStreamableHTTPServer(
		mcpSrv,
		mcpserver.WithEndpointPath(cfg.EndpointPath),
		mcpserver.WithStateLess(true),
	)
	return &Handler{httpHandler: streamable}, nil
}

// ServeHTTP handles one MCP streamable HTTP request.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.httpHandler == nil {
		http.Error(w, "mcp handler unavailable", http.StatusServiceUnavailable)
		return
	}
	h.httpHandler.ServeHTTP(w, r)
}

// normalizeConfig applies deterministic defaults to MCP adapter config.
func normalizeConfig(cfg Config) Config {
	cfg.ServerName = strings.TrimSpace(cfg.ServerName)
	if cfg.ServerName == "" {
		cfg.ServerName = "labgantt"
	}
	cfg.ServerVersion = strings.TrimSpace(cfg.ServerVersion)
	if cfg.ServerVersion == "" {
		cfg.ServerVersion = "dev"
	}
	cfg.EndpointPath = strings.TrimSpace(cfg.EndpointPath)
	if cfg.EndpointPath == "" {
		cfg.EndpointPath = "/mcp"
	}
	if !strings.HasPrefix(cfg.EndpointPath, "/") {
		cfg.EndpointPath = "/" + cfg.EndpointPath
	}
	cfg.EndpointPath = "/" + strings.Trim(cfg.EndpointPath, "/")
	return cfg
}

// registerLaneTools registers `labgantt.list_lanes` and `labgantt.lane_layout`.
func registerLaneTools(srv *mcpserver.MCPServer, queries common.BoardQueries) {
	srv.AddTool(
		mcp.NewTool(
			"labgantt.list_lanes",
			mcp.WithDescription("List board lanes in display order: terminals, safety responsibles, Vacation, Pending."),
		),
		func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			lanes, err := queries.ListLanes(ctx)
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(map[string]any{
				"lanes": lanes,
			})
			if err != nil {
				return nil, fmt.Errorf("encode list_lanes result: %w", err)
			}
			return result, nil
		},
	)

	srv.AddTool(
		mcp.NewTool(
			"labgantt.lane_layout",
			mcp.WithDescription("Return the sub-row packing of one lane of the committed board."),
			mcp.WithString("lane_id", mcp.Required(), mcp.Description("Lane identifier, e.g. 3, M, vacation or pending")),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			laneID, err := req.RequireString("lane_id")
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			out, err := queries.LaneLayout(ctx, laneID)
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(out)
			if err != nil {
				return nil, fmt.Errorf("encode lane_layout result: %w", err)
			}
			return result, nil
		},
	)
}

// registerItemTools registers `labgantt.list_items`.
func registerItemTools(srv *mcpserver.MCPServer, queries common.BoardQueries) {
	srv.AddTool(
		mcp.NewTool(
			"labgantt.list_items",
			mcp.WithDescription("List scheduled items, optionally filtered by lane and kind."),
			mcp.WithString("lane_id", mcp.Description("Lane identifier")),
			mcp.WithString("kind", mcp.Description("Item kind"), mcp.Enum(
				string(domain.KindEfficiency),
				string(domain.KindSafety),
				string(domain.KindCalibration),
				string(domain.KindVacation),
			)),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			items, err := queries.ListItems(ctx, common.ListItemsRequest{
				LaneID: req.GetString("lane_id", ""),
				Kind:   req.GetString("kind", ""),
			})
			if err != nil {
				return toolResultFromError(err), nil
			}
			result, err := mcp.NewToolResultJSON(map[string]any{
				"items": items,
			})
			if err != nil {
				return nil, fmt.Errorf("encode list_items result: %w", err)
			}
			return result, nil
		},
	)
}

// toolResultFromError maps query errors into MCP-visible tool errors.
func toolResultFromError(err error) *mcp.CallToolResult {
	switch {
	case err == nil:
		return mcp.NewToolResultError("unknown error")
	case errors.Is(err, common.ErrInvalidRequest):
		return mcp.NewToolResultError("invalid_request: " + err.Error())
	case errors.Is(err, common.ErrNotFound):
		return mcp.NewToolResultError("not_found: " + err.Error())
	case errors.Is(err, common.ErrBoardUnavailable):
		return mcp.NewToolResultError("board_unavailable: " + err.Error())
	default:
		return mcp.NewToolResultError("internal_error: " + err.Error())
	}
}
