// Package classify labels complaint descriptions with a category and
// priority. The primary path is the external ML classification service; when
// it is unreachable or errors, a local keyword heuristic takes over so intake
// never blocks on the classifier being up.
package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Source tags where a Result came from, so downstream consumers branch on
// the tag instead of sniffing sentinel confidence values.
type Source string

const (
	SourceModel     Source = "model"
	SourceHeuristic Source = "heuristic"
)

// Result is a best-effort labelling of one description.
type Result struct {
	Category     string   `json:"category"`
	Priority     string   `json:"priority"`
	Confidence   *float64 `json:"confidence,omitempty"`
	AnomalyScore *float64 `json:"anomalyScore,omitempty"`
	Source       Source   `json:"source"`
}

// FromModel reports whether the labels came from the ML service.
func (r Result) FromModel() bool { return r.Source == SourceModel }

// Client calls the ML classification sidecar (POST /predict).
type Client struct {
	baseURL string
	topK    int
	client  *http.Client
}

func NewClient(baseURL string, topK int, timeout time.Duration) *Client {
	if topK <= 0 {
		topK = 3
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		topK:    topK,
		client:  &http.Client{Timeout: timeout},
	}
}

type predictRequest struct {
	Text string `json:"text"`
	TopK int    `json:"top_k"`
}

type predictResponse struct {
	Category   string   `json:"category"`
	Priority   string   `json:"priority"`
	Confidence *float64 `json:"confidence"`
	// isFakeScore is the service's anomaly score; lower means more anomalous.
	IsFakeScore *float64 `json:"isFakeScore"`
}

// Classify labels a description. It never returns an error: any transport
// failure, timeout, or non-2xx response falls back to the keyword heuristic.
func (c *Client) Classify(ctx context.Context, description string) Result {
	if c != nil && c.baseURL != "" {
		if res, err := c.predict(ctx, description); err == nil {
			return res
		}
	}
	return Fallback(description)
}

func (c *Client) predict(ctx context.Context, description string) (Result, error) {
	payload, err := json.Marshal(predictRequest{Text: description, TopK: c.topK})
	if err != nil {
		return Result{}, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/predict", bytes.NewReader(payload))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{}, fmt.Errorf("classifier HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, err
	}

	var pr predictResponse
	if err := json.Unmarshal(body, &pr); err != nil {
		return Result{}, fmt.Errorf("decoding classifier response: %w", err)
	}

	res := Result{
		Category:     pr.Category,
		Priority:     pr.Priority,
		Confidence:   pr.Confidence,
		AnomalyScore: pr.IsFakeScore,
		Source:       SourceModel,
	}
	if res.Category == "" {
		res.Category = "unassigned"
	}
	if res.Priority == "" {
		res.Priority = "low"
	}
	return res, nil
}

// Keyword sets for the local fallback, checked in order.
var fallbackRules = []struct {
	category string
	priority string
	keywords []string
}{
	{"roads", "medium", []string{"road", "street", "pothole", "drainage"}},
	{"garbage", "medium", []string{"garbage", "waste", "trash", "clean"}},
	{"utilities", "high", []string{"water", "electricity", "power", "light"}},
}

// Legacy wire markers for heuristic results. Kept for compatibility with
// consumers of the stored record; the Source tag is the real signal.
const (
	fallbackConfidence   = 0.5
	fallbackAnomalyScore = 0.1
)

// Fallback applies the local keyword heuristic to a description.
func Fallback(description string) Result {
	desc := strings.ToLower(description)

	category, priority := "unassigned", "low"
	for _, rule := range fallbackRules {
		for _, kw := range rule.keywords {
			if strings.Contains(desc, kw) {
				category, priority = rule.category, rule.priority
				break
			}
		}
		if category != "unassigned" {
			break
		}
	}

	confidence := fallbackConfidence
	anomaly := fallbackAnomalyScore
	return Result{
		Category:     category,
		Priority:     priority,
		Confidence:   &confidence,
		AnomalyScore: &anomaly,
		Source:       SourceHeuristic,
	}
}
