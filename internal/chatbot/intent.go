// CLAUDE:SUMMARY Keyword intent parser that maps a chat message onto a data-lookup tool
// Package chatbot turns free-text assistant messages into data lookups and
// builds the context block handed to the LLM.
package chatbot

import (
	"regexp"
	"strings"
)

// Tool names double as the wire identifiers reported back to the client.
const (
	ToolCheckStatus   = "check_complaint_status"
	ToolMyComplaints  = "get_my_complaints"
	ToolStats         = "get_complaint_stats"
	ToolSearch        = "search_complaints"
	ToolGetCategories = "get_categories"
)

// ToolCall is a parsed intent with its extracted argument, if any.
type ToolCall struct {
	Tool          string
	ComplaintCode string
	Keyword       string
}

var (
	codePattern    = regexp.MustCompile(`(?i)CMP-\d{5}-\d{4}`)
	codeRefPattern = regexp.MustCompile(`(?i)complaint\s*(?:id|#|number)?[:\s]\s*([A-Z]{3}-\d+-\d+)`)
	searchPattern  = regexp.MustCompile(`search\s+(?:for\s+)?["']?([^"']+?)["']?\s*(?:complaint)?$`)
)

// ParseIntent matches a message against the tool patterns in priority
// order. A complaint code anywhere in the text wins over everything else.
// Returns nil when no tool applies.
func ParseIntent(message string) *ToolCall {
	if m := codePattern.FindString(message); m != "" {
		return &ToolCall{Tool: ToolCheckStatus, ComplaintCode: m}
	}
	if m := codeRefPattern.FindStringSubmatch(message); m != nil {
		return &ToolCall{Tool: ToolCheckStatus, ComplaintCode: m[1]}
	}

	lower := strings.ToLower(message)

	if strings.Contains(lower, "my complaint") || strings.Contains(lower, "complaints i submitted") {
		return &ToolCall{Tool: ToolMyComplaints}
	}
	if strings.Contains(lower, "statistic") || strings.Contains(lower, "how many") || strings.Contains(lower, "total complaint") {
		return &ToolCall{Tool: ToolStats}
	}
	if strings.Contains(lower, "categories") || strings.Contains(lower, "types of complaint") {
		return &ToolCall{Tool: ToolGetCategories}
	}
	if m := searchPattern.FindStringSubmatch(lower); m != nil {
		return &ToolCall{Tool: ToolSearch, Keyword: strings.TrimSpace(m[1])}
	}
	return nil
}
