package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kalambet/reqmine/internal/mining"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Service Miner
}

// NewMCPServer creates an MCP server exposing the mining workflow as tools.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"reqmine",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions("reqmine turns raw user requests into structured, confirmed requirements. Start with mine_requirements; when a session pauses for feedback, answer with resume_workflow."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("mine_requirements",
			mcp.WithDescription("Start a requirement mining session for a raw user request. Returns either a completed result or a paused session with pending questions."),
			mcp.WithString("text", mcp.Description("The raw user request to analyze"), mcp.Required()),
			mcp.WithString("domain", mcp.Description("Optional business domain hint (e.g. fintech, logistics)")),
		),
		mcpMine(deps),
	)

	s.AddTool(
		mcp.NewTool("resume_workflow",
			mcp.WithDescription("Resume a paused mining session with user feedback: clarification answers, a confirmation, or requested adjustments."),
			mcp.WithString("session_id", mcp.Description("Id of the paused session"), mcp.Required()),
			mcp.WithString("type", mcp.Description("Feedback type: clarification, simple_strategy_confirmation, or meta_architect_confirmation")),
			mcp.WithBoolean("confirmation", mcp.Description("For confirmation feedback: true to accept the proposed result")),
			mcp.WithArray("responses", mcp.Description("Answers to pending clarification questions, in order")),
			mcp.WithString("adjustments", mcp.Description("Requested changes when rejecting a proposed result")),
		),
		mcpResume(deps),
	)

	s.AddTool(
		mcp.NewTool("get_session",
			mcp.WithDescription("Inspect the current state of a mining session without advancing it."),
			mcp.WithString("session_id", mcp.Description("Session id"), mcp.Required()),
		),
		mcpGetSession(deps),
	)

	return s
}

func mcpMine(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := req.RequireString("text")
		if err != nil {
			return mcpError("text is required"), nil
		}
		domain := req.GetString("domain", "")

		result, err := deps.Service.MineRequirements(ctx, text, mining.Context{Domain: domain})
		if err != nil {
			return mcpError(fmt.Sprintf("mining failed: %v", err)), nil
		}
		return mcpResult(result)
	}
}

func mcpResume(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sessionID, err := req.RequireString("session_id")
		if err != nil {
			return mcpError("session_id is required"), nil
		}

		fb := mining.FeedbackPayload{
			Type:         mining.FeedbackType(req.GetString("type", "")),
			Confirmation: req.GetBool("confirmation", false),
			Responses:    req.GetStringSlice("responses", nil),
			Adjustments:  req.GetString("adjustments", ""),
		}

		result, err := deps.Service.ResumeWorkflow(ctx, sessionID, fb)
		if err != nil {
			return mcpError(fmt.Sprintf("resume failed: %v", err)), nil
		}
		return mcpResult(result)
	}
}

func mcpGetSession(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sessionID, err := req.RequireString("session_id")
		if err != nil {
			return mcpError("session_id is required"), nil
		}

		result, err := deps.Service.Inspect(ctx, sessionID)
		if err != nil {
			return mcpError(fmt.Sprintf("lookup failed: %v", err)), nil
		}
		return mcpResult(result)
	}
}

func mcpResult(result *mining.MiningResult) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(result)
	if err != nil {
		return mcpError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcpText(string(b)), nil
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
