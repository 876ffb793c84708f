// CLAUDE:SUMMARY Chat assistant endpoint — intent dispatch into data tools, context injection, LLM reply with degraded fallback
package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hazyhaar/grievd/internal/chatbot"
	"github.com/hazyhaar/grievd/internal/llm"
)

// handleChat answers a platform-help message. Auth is optional: logged-in
// users get personal lookups, anonymous users still get general help.
func (a *API) handleChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Message == "" {
		jsonError(w, "message is required", http.StatusBadRequest)
		return
	}
	if a.llmClient == nil || len(a.llmClient.Providers()) == 0 {
		jsonError(w, "chat assistant not configured", http.StatusServiceUnavailable)
		return
	}

	userID := ""
	if claims := a.auth.ExtractClaims(r); claims != nil {
		userID = claims.UserID
	}

	var toolUsed string
	contextData := ""
	if call := chatbot.ParseIntent(req.Message); call != nil {
		slog.Info("executing chat tool", "tool", call.Tool)
		result := a.tools.Execute(call, userID)
		contextData = chatbot.ContextBlock(result)
		toolUsed = call.Tool
	}

	resp, err := a.llmClient.CompleteAny(r.Context(), llm.Request{
		Messages: []llm.Message{
			{Role: "system", Content: chatbot.SystemPrompt + contextData},
			{Role: "user", Content: req.Message},
		},
		Temperature: 0.7,
		MaxTokens:   1024,
	})
	if err != nil {
		slog.Warn("all chat models unavailable", "err", err)
		jsonResp(w, http.StatusOK, map[string]interface{}{
			"reply":           chatbot.DegradedReply,
			"error":           "all models unavailable",
			"isSystemMessage": true,
		})
		return
	}

	payload := map[string]interface{}{
		"reply": resp.Content,
		"model": resp.Model,
	}
	if toolUsed != "" {
		payload["toolUsed"] = toolUsed
	} else {
		payload["toolUsed"] = nil
	}
	jsonResp(w, http.StatusOK, payload)
}

// handleChatTest checks the configured Gemini key by listing its models.
func (a *API) handleChatTest(w http.ResponseWriter, r *http.Request) {
	if a.geminiKey == "" {
		jsonResp(w, http.StatusInternalServerError, map[string]string{
			"status": "error", "message": "API key not configured",
		})
		return
	}

	url := "https://generativelanguage.googleapis.com/v1beta/models?key=" + a.geminiKey
	httpReq, err := http.NewRequestWithContext(r.Context(), "GET", url, nil)
	if err != nil {
		jsonResp(w, http.StatusInternalServerError, map[string]string{"status": "error", "message": err.Error()})
		return
	}
	httpResp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		jsonResp(w, http.StatusInternalServerError, map[string]string{"status": "error", "message": err.Error()})
		return
	}
	defer httpResp.Body.Close()

	body, _ := io.ReadAll(httpResp.Body)
	if httpResp.StatusCode != 200 {
		jsonResp(w, http.StatusInternalServerError, map[string]string{
			"status": "error", "message": "API key check failed",
		})
		return
	}

	var listing struct {
		Models []struct {
			Name                       string   `json:"name"`
			SupportedGenerationMethods []string `json:"supportedGenerationMethods"`
		} `json:"models"`
	}
	if err := json.Unmarshal(body, &listing); err != nil {
		jsonResp(w, http.StatusInternalServerError, map[string]string{"status": "error", "message": err.Error()})
		return
	}

	var available []string
	for _, m := range listing.Models {
		name := strings.TrimPrefix(m.Name, "models/")
		if !strings.Contains(name, "gemini") {
			continue
		}
		supported := false
		for _, method := range m.SupportedGenerationMethods {
			if method == "generateContent" {
				supported = true
				break
			}
		}
		if supported && len(available) < 10 {
			available = append(available, name)
		}
	}

	jsonResp(w, http.StatusOK, map[string]interface{}{
		"status":          "ok",
		"message":         "API key is valid",
		"availableModels": available,
	})
}
