// CLAUDE:SUMMARY Tool executor — runs parsed intents against the complaint store and shapes the results for the LLM
package chatbot

import (
	"fmt"

	"github.com/hazyhaar/grievd/internal/db"
)

// ToolResult is what a tool execution hands back to the chat handler.
// Data feeds the [SYSTEM DATA] block; Message feeds [SYSTEM INFO].
type ToolResult struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// Executor runs tool calls against the complaint store.
type Executor struct {
	db *db.DB
}

func NewExecutor(database *db.DB) *Executor {
	return &Executor{db: database}
}

// Execute runs a parsed tool call. userID is empty for anonymous chats;
// tools that need an identity report that instead of failing hard.
func (e *Executor) Execute(call *ToolCall, userID string) *ToolResult {
	switch call.Tool {
	case ToolCheckStatus:
		return e.checkStatus(call.ComplaintCode)
	case ToolMyComplaints:
		return e.myComplaints(userID)
	case ToolStats:
		return e.stats()
	case ToolSearch:
		return e.search(call.Keyword)
	case ToolGetCategories:
		return e.categories()
	default:
		return &ToolResult{Success: false, Message: "Unknown tool"}
	}
}

func (e *Executor) checkStatus(code string) *ToolResult {
	c, err := e.db.GetComplaintByCode(code)
	if err != nil || c == nil {
		return &ToolResult{Success: false, Message: fmt.Sprintf("No complaint found with ID: %s", code)}
	}
	return &ToolResult{
		Success: true,
		Data: map[string]interface{}{
			"complaintId": c.ComplaintCode,
			"status":      c.Status,
			"category":    c.EffectiveCategory(),
			"priority":    c.Priority,
			"district":    c.District,
			"submittedOn": c.CreatedAt.Format("02/01/2006"),
			"description": preview(c.Description, 100),
		},
	}
}

func (e *Executor) myComplaints(userID string) *ToolResult {
	if userID == "" {
		return &ToolResult{Success: false, Message: "You need to be logged in to view your complaints. Please login first."}
	}
	complaints, err := e.db.ListRecentByUser(userID, 10)
	if err != nil {
		return &ToolResult{Success: false, Message: "Could not load your complaints."}
	}
	if len(complaints) == 0 {
		return &ToolResult{Success: true, Message: "You haven't submitted any complaints yet."}
	}
	items := make([]map[string]interface{}, 0, len(complaints))
	for _, c := range complaints {
		items = append(items, map[string]interface{}{
			"id":       c.ComplaintCode,
			"status":   c.Status,
			"category": c.EffectiveCategory(),
			"priority": c.Priority,
			"date":     c.CreatedAt.Format("02/01/2006"),
			"preview":  preview(c.Description, 50),
		})
	}
	return &ToolResult{Success: true, Data: items}
}

func (e *Executor) stats() *ToolResult {
	counts, err := e.db.CountByStatus()
	if err != nil {
		return &ToolResult{Success: false, Message: "Could not load statistics."}
	}
	top, err := e.db.CategoryHistogram(5)
	if err != nil {
		return &ToolResult{Success: false, Message: "Could not load statistics."}
	}
	topCategories := make([]string, 0, len(top))
	for _, cc := range top {
		topCategories = append(topCategories, fmt.Sprintf("%s: %d", cc.Category, cc.Count))
	}
	return &ToolResult{
		Success: true,
		Data: map[string]interface{}{
			"total":         counts.Total,
			"pending":       counts.Pending,
			"inProgress":    counts.InProgress,
			"resolved":      counts.Resolved,
			"topCategories": topCategories,
		},
	}
}

func (e *Executor) search(keyword string) *ToolResult {
	complaints, err := e.db.SearchComplaints(keyword, 5)
	if err != nil {
		return &ToolResult{Success: false, Message: "Search failed."}
	}
	if len(complaints) == 0 {
		return &ToolResult{Success: true, Message: fmt.Sprintf("No complaints found matching %q", keyword)}
	}
	items := make([]map[string]interface{}, 0, len(complaints))
	for _, c := range complaints {
		items = append(items, map[string]interface{}{
			"id":       c.ComplaintCode,
			"status":   c.Status,
			"category": c.EffectiveCategory(),
			"preview":  preview(c.Description, 60),
		})
	}
	return &ToolResult{Success: true, Data: items}
}

func (e *Executor) categories() *ToolResult {
	histogram, err := e.db.CategoryHistogram(0)
	if err != nil {
		return &ToolResult{Success: false, Message: "Could not load categories."}
	}
	return &ToolResult{Success: true, Data: histogram}
}

func preview(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
