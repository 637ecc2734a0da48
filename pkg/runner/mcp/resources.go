package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"tableflip.dev/tickr/pkg/timeutil"
)

func registerResources(srv *server.MCPServer, svc *Service) {
	registerTimerResource(srv, svc)
	registerLogTemplate(srv, svc)
}

func registerTimerResource(srv *server.MCPServer, svc *Service) {
	resource := mcp.NewResource(
		"tickr://timer",
		"Timer",
		mcp.WithResourceDescription("The current timer and the entry being timed."),
		mcp.WithMIMEType("application/json"),
	)

	srv.AddResource(resource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		dto, err := svc.Status(ctx)
		if err != nil {
			return nil, err
		}
		return encodeResourceJSON(request.Params.URI, map[string]any{
			"timer": dto,
		})
	})
}

func registerLogTemplate(srv *server.MCPServer, svc *Service) {
	template := mcp.NewResourceTemplate(
		"tickr://log/{window}",
		"Session Log",
		mcp.WithTemplateDescription("Sessions recorded on this machine within a window such as 1d or 1w."),
		mcp.WithTemplateMIMEType("application/json"),
	)

	srv.AddResourceTemplate(template, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		raw := resourceArgument(request.Params.Arguments["window"])
		window, label, err := timeutil.ParseWindow(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid window %q: %w", raw, err)
		}

		sessions, err := svc.Sessions(ctx, window)
		if err != nil {
			return nil, err
		}

		var total int64
		for _, s := range sessions {
			total += s.Seconds
		}
		return encodeResourceJSON(request.Params.URI, map[string]any{
			"window":   label,
			"count":    len(sessions),
			"total":    timeutil.FormatHMS(total),
			"sessions": sessions,
		})
	})
}

// resourceArgument unwraps template arguments, which arrive as a string or
// a single-element slice depending on the matcher.
func resourceArgument(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []string:
		if len(t) > 0 {
			return t[0]
		}
	}
	return ""
}

func encodeResourceJSON(uri string, payload any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
