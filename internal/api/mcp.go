package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kalambet/studybot/internal/pending"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Actions *Actions
	Poller  PollRunner
}

// NewMCPServer creates an MCP server exposing the operator tools.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"studybot",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions("studybot: approve or reject study candidates and trigger survey polls."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("approve_candidate",
			mcp.WithDescription("Approve a pending candidate and send the enrollment email."),
			mcp.WithString("notification_id", mcp.Description("ID shown on the notification"), mcp.Required()),
		),
		mcpApprove(deps),
	)

	s.AddTool(
		mcp.NewTool("reject_candidate",
			mcp.WithDescription("Ignore a pending candidate."),
			mcp.WithString("notification_id", mcp.Description("ID shown on the notification"), mcp.Required()),
		),
		mcpReject(deps),
	)

	s.AddTool(
		mcp.NewTool("poll_surveys",
			mcp.WithDescription("Run one survey poll cycle now and report what it did."),
		),
		mcpPoll(deps),
	)

	return s
}

func mcpApprove(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("notification_id")
		if err != nil {
			return mcpError("notification_id is required"), nil
		}

		c, err := deps.Actions.Approve(ctx, "mcp", id)
		if errors.Is(err, pending.ErrNotFound) {
			return mcpError("notification not found"), nil
		}
		if errors.Is(err, ErrNoEmail) {
			return mcpError("notification has no email address"), nil
		}
		if err != nil {
			return mcpError(fmt.Sprintf("failed to send template email: %v", err)), nil
		}
		return mcpText(fmt.Sprintf("Template email sent to %s", c.Name)), nil
	}
}

func mcpReject(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("notification_id")
		if err != nil {
			return mcpError("notification_id is required"), nil
		}
		if err := deps.Actions.Reject(ctx, "mcp", id); err != nil {
			return mcpError(fmt.Sprintf("reject failed: %v", err)), nil
		}
		return mcpText("Ignored."), nil
	}
}

func mcpPoll(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		res, err := deps.Poller.RunOnce(context.WithoutCancel(ctx))
		if err != nil {
			return mcpError(fmt.Sprintf("poll failed: %v", err)), nil
		}
		b, err := json.Marshal(res)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal result: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
