package mcp

import (
	"context"
	"log/slog"

	"github.com/claude/matlog/internal/storage"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type contextKey int

const userIDKey contextKey = iota

// UserIDFromContext extracts the user ID injected by the transport layer.
func UserIDFromContext(ctx context.Context) int {
	if id, ok := ctx.Value(userIDKey).(int); ok {
		return id
	}
	return 1
}

// WithUserID returns a context with the given user ID.
func WithUserID(ctx context.Context, userID int) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// New creates an MCP server with all tools and resources registered.
// It is a read-only surface over the training log: the AI insight feature
// consumes it, but never writes through it.
func New(ds DataSource, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("MatLog", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("MatLog training log server. Query training sessions, rolls, partner directory, technique glossary, and wearable heart-rate zone data. All data is scoped to the authenticated user."),
	)

	h := &handlers{ds: ds, log: log}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolGetSessions, Handler: h.getSessions},
		server.ServerTool{Tool: toolGetSession, Handler: h.getSession},
		server.ServerTool{Tool: toolGetTrainingSummary, Handler: h.getTrainingSummary},
		server.ServerTool{Tool: toolGetZoneSummary, Handler: h.getZoneSummary},
		server.ServerTool{Tool: toolGetPartnerDirectory, Handler: h.getPartnerDirectory},
		server.ServerTool{Tool: toolSearchMovements, Handler: h.searchMovements},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resRecentSessions, Handler: h.recentSessions},
		server.ServerResource{Resource: resPartnerDirectory, Handler: h.partnerDirectory},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds  DataSource
	log *slog.Logger
}

// Compile-time check: *storage.DB satisfies DataSource.
var _ DataSource = (*storage.DB)(nil)

// --- Resource definitions ---

var resRecentSessions = mcp.NewResource(
	"matlog://recent_sessions",
	"Recent Sessions",
	mcp.WithResourceDescription("Training sessions from the last 30 days"),
	mcp.WithMIMEType("application/json"),
)

var resPartnerDirectory = mcp.NewResource(
	"matlog://partner_directory",
	"Partner Directory",
	mcp.WithResourceDescription("Deduplicated training partner directory merged from manual contacts, instructors, and social friends"),
	mcp.WithMIMEType("application/json"),
)
