package mcp

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type contextKey int

const coachIDKey contextKey = iota

// CoachIDFromContext extracts the coach ID injected by the transport
// layer. Empty when no identity has been established.
func CoachIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(coachIDKey).(string); ok {
		return id
	}
	return ""
}

// WithCoachID returns a context with the given coach ID.
func WithCoachID(ctx context.Context, coachID string) context.Context {
	return context.WithValue(ctx, coachIDKey, coachID)
}

// New creates an MCP server with all tools and resources registered.
func New(ds DataSource, resolver NameResolver, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("CoachLift", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("CoachLift training program server. Search the canonical exercise database, reconcile free-text exercise names, and browse imported training programs. Programs are scoped to a coach."),
	)

	h := &handlers{ds: ds, resolver: resolver, log: log}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolSearchExercises, Handler: h.searchExercises},
		server.ServerTool{Tool: toolMatchExercise, Handler: h.matchExercise},
		server.ServerTool{Tool: toolListPrograms, Handler: h.listPrograms},
		server.ServerTool{Tool: toolGetProgram, Handler: h.getProgram},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resCardioSegmentTypes, Handler: h.cardioSegmentTypes},
		server.ServerResource{Resource: resRecentPrograms, Handler: h.recentPrograms},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds       DataSource
	resolver NameResolver
	log      *slog.Logger
}

// --- Resource definitions ---

var resCardioSegmentTypes = mcp.NewResource(
	"coachlift://cardio_segment_types",
	"Cardio Segment Types",
	mcp.WithResourceDescription("All cardio segment types with display labels, default heart rate zones, and interval classification"),
	mcp.WithMIMEType("application/json"),
)

var resRecentPrograms = mcp.NewResource(
	"coachlift://recent_programs",
	"Recent Programs",
	mcp.WithResourceDescription("The authenticated coach's imported programs, newest first"),
	mcp.WithMIMEType("application/json"),
)
