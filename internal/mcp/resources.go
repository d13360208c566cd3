package mcp

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/fitlink/fitstats/internal/models"
)

const recentSessionWindow = 14 * 24 * time.Hour

func (h *handlers) recentSessions(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uid := UserIDFromContext(ctx)

	all, err := h.ds.Sessions(ctx, uid)
	if err != nil {
		return nil, err
	}

	cutoff := time.Now().Add(-recentSessionWindow)
	recent := make([]models.TrainingSession, 0)
	for _, s := range all {
		if s.StartedAt.After(cutoff) {
			recent = append(recent, s)
		}
	}

	data, err := json.Marshal(recent)
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
