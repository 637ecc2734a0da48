package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func registerTools(srv *server.MCPServer, svc *Service) {
	registerTimerStatusTool(srv, svc)
	registerStartTimerTool(srv, svc)
	registerPauseTimerTool(srv, svc)
	registerResumeTimerTool(srv, svc)
	registerStopTimerTool(srv, svc)
	registerListEntriesTool(srv, svc)
}

func registerTimerStatusTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"timer_status",
		mcp.WithDescription("Show the timer as HH:MM:SS with its state and the entry being timed."),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dto, err := svc.Status(ctx)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(dto)
	})
}

func registerStartTimerTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"start_timer",
		mcp.WithDescription("Start timing a new entry. Starts offline when the server is unreachable."),
		mcp.WithString("description",
			mcp.Required(),
			mcp.Description("What is being worked on."),
		),
		mcp.WithNumber("project_id",
			mcp.Description("Optional project identifier."),
			mcp.Min(1),
		),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args struct {
			Description string `json:"description"`
			ProjectID   *int64 `json:"project_id"`
		}

		if err := request.BindArguments(&args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}

		dto, err := svc.Start(ctx, args.Description, args.ProjectID)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(dto)
	})
}

func registerPauseTimerTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"pause_timer",
		mcp.WithDescription("Pause the running timer."),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dto, err := svc.Pause(ctx)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(dto)
	})
}

func registerResumeTimerTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"resume_timer",
		mcp.WithDescription("Resume a paused timer."),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dto, err := svc.Resume(ctx)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(dto)
	})
}

func registerStopTimerTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"stop_timer",
		mcp.WithDescription("Stop the running timer and record the session."),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		dto, err := svc.Stop(ctx)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(dto)
	})
}

func registerListEntriesTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"list_entries",
		mcp.WithDescription("List recorded time entries, newest first, one page at a time."),
		mcp.WithNumber("page",
			mcp.Description("Page number starting at 1 (default 1)."),
			mcp.Min(1),
		),
		mcp.WithNumber("per_page",
			mcp.Description("Entries per page (default 10)."),
			mcp.Min(1),
			mcp.Max(100),
		),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		page := request.GetInt("page", 1)
		perPage := request.GetInt("per_page", 10)

		p, err := svc.ListEntries(ctx, page, perPage)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(p)
	})
}

func toJSONResult(data any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(data)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("marshal error: %v", err)), nil
	}
	return result, nil
}
