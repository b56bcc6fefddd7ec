package mcp

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/claude/coachlift/internal/models"
)

var errNoCoach = errors.New("coach identity required")

func (h *handlers) cardioSegmentTypes(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	type segmentInfo struct {
		Type         models.SegmentType `json:"type"`
		Label        string             `json:"label"`
		DefaultZone  int                `json:"default_zone"`
		IntervalLike bool               `json:"interval_like"`
	}

	catalog := make([]segmentInfo, 0, len(models.SegmentTypes))
	for _, st := range models.SegmentTypes {
		catalog = append(catalog, segmentInfo{
			Type:         st,
			Label:        st.Label(),
			DefaultZone:  st.DefaultZone(),
			IntervalLike: st.IntervalLike(),
		})
	}

	data, err := json.Marshal(catalog)
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (h *handlers) recentPrograms(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	coachID := CoachIDFromContext(ctx)
	if coachID == "" {
		return nil, errNoCoach
	}

	rows, err := h.ds.ListPrograms(ctx, coachID)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(rows)
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
