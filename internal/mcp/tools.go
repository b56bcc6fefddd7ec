package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/claude/coachlift/internal/matching"
)

// coachID resolves the acting coach: an explicit tool parameter wins,
// otherwise the transport-injected identity.
func coachID(ctx context.Context, req mcp.CallToolRequest) string {
	if id := req.GetString("coach_id", ""); id != "" {
		return id
	}
	return CoachIDFromContext(ctx)
}

// --- Tool definitions ---

var toolSearchExercises = mcp.NewTool("search_exercises",
	mcp.WithDescription("Search the canonical exercise database by name. Matches prefixes, substrings, and trigram-similar spellings."),
	mcp.WithString("query", mcp.Required(), mcp.Description("Free-text exercise name (e.g. 'bench press', 'bulgarian split squat')")),
	mcp.WithNumber("limit", mcp.Description("Maximum results (1-100). Defaults to 20.")),
)

var toolMatchExercise = mcp.NewTool("match_exercise",
	mcp.WithDescription("Reconcile one free-text exercise name against the canonical database. Returns the best match with a confidence score: 1.0 exact, 0.55-0.99 fuzzy, 0 unmatched."),
	mcp.WithString("name", mcp.Required(), mcp.Description("Exercise name as written in a program (e.g. 'BB Bench Press (paused)')")),
	mcp.WithBoolean("auto_create", mcp.Description("Create a new exercise when nothing matches. Requires a coach identity.")),
	mcp.WithString("coach_id", mcp.Description("Coach performing the match. Defaults to the transport identity.")),
)

var toolListPrograms = mcp.NewTool("list_programs",
	mcp.WithDescription("List a coach's imported training programs, newest first. Structures are omitted; use get_program for the full payload."),
	mcp.WithString("coach_id", mcp.Description("Coach to list programs for. Defaults to the transport identity.")),
)

var toolGetProgram = mcp.NewTool("get_program",
	mcp.WithDescription("Retrieve one training program including its full week/day/exercise structure."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Program ID")),
	mcp.WithString("coach_id", mcp.Description("Owning coach. Defaults to the transport identity.")),
)

// --- Tool handlers ---

func (h *handlers) searchExercises(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query parameter is required"), nil
	}
	limit := req.GetInt("limit", 20)

	results, err := h.ds.SearchExercises(ctx, query, limit)
	if err != nil {
		h.log.Error("mcp search_exercises", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(results)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) matchExercise(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError("name parameter is required"), nil
	}

	opts := matching.Options{
		AutoCreate: req.GetBool("auto_create", false),
		CoachID:    coachID(ctx, req),
	}
	if opts.AutoCreate && opts.CoachID == "" {
		return mcp.NewToolResultError("auto_create requires a coach identity"), nil
	}

	match := h.resolver.Resolve(ctx, name, opts)

	result, err := mcp.NewToolResultJSON(match)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) listPrograms(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := coachID(ctx, req)
	if id == "" {
		return mcp.NewToolResultError("coach identity required"), nil
	}

	rows, err := h.ds.ListPrograms(ctx, id)
	if err != nil {
		h.log.Error("mcp list_programs", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(rows)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getProgram(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	programID, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id parameter is required"), nil
	}
	id := coachID(ctx, req)
	if id == "" {
		return mcp.NewToolResultError("coach identity required"), nil
	}

	row, err := h.ds.GetProgram(ctx, programID, id)
	if err != nil {
		h.log.Error("mcp get_program", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	if row == nil {
		return mcp.NewToolResultError("program not found"), nil
	}

	result, err := mcp.NewToolResultJSON(row)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
