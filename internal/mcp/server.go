// CLAUDE:SUMMARY MCP tool server — complaint lookups, stats, search and categories for assistant clients
// Package mcp registers the grievd complaint tools on an MCP server.
// The same lookups back the HTTP chat assistant; here they are exposed
// directly to any MCP client over stdio.
package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/hazyhaar/pkg/audit"
	"github.com/hazyhaar/pkg/kit"

	"github.com/hazyhaar/grievd/internal/chatbot"
	"github.com/hazyhaar/grievd/internal/db"
)

// NewServer creates an MCPServer with all complaint tools registered.
func NewServer(database *db.DB, auditLog audit.Logger) *server.MCPServer {
	srv := server.NewMCPServer(
		"grievd",
		"0.1.0",
		server.WithToolCapabilities(true),
	)

	tools := chatbot.NewExecutor(database)

	registerCheckStatus(srv, tools, auditLog)
	registerMyComplaints(srv, tools)
	registerStats(srv, tools)
	registerSearch(srv, tools, auditLog)
	registerCategories(srv, tools)

	return srv
}

// ServeStdio blocks serving the MCP protocol on stdin/stdout.
func ServeStdio(srv *server.MCPServer) error {
	return server.ServeStdio(srv)
}

// --- check_complaint_status ---

func registerCheckStatus(srv *server.MCPServer, tools *chatbot.Executor, auditLog audit.Logger) {
	var endpoint kit.Endpoint = func(ctx context.Context, request any) (any, error) {
		r := request.(*checkStatusReq)
		return tools.Execute(&chatbot.ToolCall{
			Tool:          chatbot.ToolCheckStatus,
			ComplaintCode: r.ComplaintID,
		}, ""), nil
	}
	if auditLog != nil {
		endpoint = audit.Middleware(auditLog, "check_complaint_status")(endpoint)
	}

	schema, _ := json.Marshal(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"complaint_id": map[string]string{"type": "string", "description": "Complaint code, e.g. CMP-12345-6789 (partial codes match)"},
		},
		"required": []string{"complaint_id"},
	})
	tool := mcp.NewToolWithRawSchema("check_complaint_status", "Check the status of a complaint by its code", schema)

	kit.RegisterMCPTool(srv, tool, endpoint, func(req mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		args := req.GetArguments()
		return &kit.MCPDecodeResult{Request: &checkStatusReq{ComplaintID: stringArg(args, "complaint_id")}}, nil
	})
}

type checkStatusReq struct {
	ComplaintID string `json:"complaint_id"`
}

// --- get_my_complaints ---

func registerMyComplaints(srv *server.MCPServer, tools *chatbot.Executor) {
	schema, _ := json.Marshal(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"user_id": map[string]string{"type": "string", "description": "Account ID of the submitter"},
		},
		"required": []string{"user_id"},
	})
	tool := mcp.NewToolWithRawSchema("get_my_complaints", "List the newest complaints submitted by a user", schema)

	kit.RegisterMCPTool(srv, tool, func(ctx context.Context, request any) (any, error) {
		r := request.(*myComplaintsReq)
		return tools.Execute(&chatbot.ToolCall{Tool: chatbot.ToolMyComplaints}, r.UserID), nil
	}, func(req mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		args := req.GetArguments()
		return &kit.MCPDecodeResult{Request: &myComplaintsReq{UserID: stringArg(args, "user_id")}}, nil
	})
}

type myComplaintsReq struct {
	UserID string `json:"user_id"`
}

// --- get_complaint_stats ---

func registerStats(srv *server.MCPServer, tools *chatbot.Executor) {
	schema, _ := json.Marshal(map[string]any{"type": "object", "properties": map[string]any{}})
	tool := mcp.NewToolWithRawSchema("get_complaint_stats", "Totals by status plus the top categories", schema)

	kit.RegisterMCPTool(srv, tool, func(ctx context.Context, request any) (any, error) {
		return tools.Execute(&chatbot.ToolCall{Tool: chatbot.ToolStats}, ""), nil
	}, func(req mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		return &kit.MCPDecodeResult{Request: &struct{}{}}, nil
	})
}

// --- search_complaints ---

func registerSearch(srv *server.MCPServer, tools *chatbot.Executor, auditLog audit.Logger) {
	var endpoint kit.Endpoint = func(ctx context.Context, request any) (any, error) {
		r := request.(*searchReq)
		return tools.Execute(&chatbot.ToolCall{
			Tool:    chatbot.ToolSearch,
			Keyword: r.Keyword,
		}, ""), nil
	}
	if auditLog != nil {
		endpoint = audit.Middleware(auditLog, "search_complaints")(endpoint)
	}

	schema, _ := json.Marshal(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"keyword": map[string]string{"type": "string", "description": "Substring to match in descriptions"},
		},
		"required": []string{"keyword"},
	})
	tool := mcp.NewToolWithRawSchema("search_complaints", "Search complaints by keyword in description", schema)

	kit.RegisterMCPTool(srv, tool, endpoint, func(req mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		args := req.GetArguments()
		return &kit.MCPDecodeResult{Request: &searchReq{Keyword: stringArg(args, "keyword")}}, nil
	})
}

type searchReq struct {
	Keyword string `json:"keyword"`
}

// --- get_categories ---

func registerCategories(srv *server.MCPServer, tools *chatbot.Executor) {
	schema, _ := json.Marshal(map[string]any{"type": "object", "properties": map[string]any{}})
	tool := mcp.NewToolWithRawSchema("get_categories", "List complaint categories with counts", schema)

	kit.RegisterMCPTool(srv, tool, func(ctx context.Context, request any) (any, error) {
		return tools.Execute(&chatbot.ToolCall{Tool: chatbot.ToolGetCategories}, ""), nil
	}, func(req mcp.CallToolRequest) (*kit.MCPDecodeResult, error) {
		return &kit.MCPDecodeResult{Request: &struct{}{}}, nil
	})
}

func stringArg(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}
