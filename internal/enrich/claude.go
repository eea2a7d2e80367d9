package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	anthropicURL     = "https://api.anthropic.com"
	anthropicVersion = "2023-06-01"
	classifyTokens   = 512
)

// ClaudeClient classifies manual passages through the Anthropic Messages API.
type ClaudeClient struct {
	apiKey  string
	model   string
	baseURL string
	http    *http.Client
	stats   *LLMStats
}

// NewClaudeClient creates a client. An empty baseURL uses the public API;
// stats may be nil.
func NewClaudeClient(apiKey, model, baseURL string, stats *LLMStats) *ClaudeClient {
	if baseURL == "" {
		baseURL = anthropicURL
	}
	return &ClaudeClient{
		apiKey:  apiKey,
		model:   model,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 2 * time.Minute},
		stats:   stats,
	}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []message `json:"messages"`
}

type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type messagesResponse struct {
	Content    []contentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
}

type apiError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// Classify sends prompt under the classification system prompt and decodes
// the JSON object in the reply. Values are not checked here; see Validate.
func (c *ClaudeClient) Classify(ctx context.Context, prompt string) (*Result, error) {
	resp, err := c.send(ctx, messagesRequest{
		Model:     c.model,
		MaxTokens: classifyTokens,
		System:    SystemPrompt,
		Messages:  []message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return nil, err
	}

	var reply strings.Builder
	for _, b := range resp.Content {
		if b.Type == "text" {
			reply.WriteString(b.Text)
		}
	}
	raw, ok := jsonObject(reply.String())
	if !ok {
		return nil, fmt.Errorf("no json object in reply: %q", clip(reply.String(), 200))
	}
	var out Result
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("decode classification: %w", err)
	}
	return &out, nil
}

func (c *ClaudeClient) send(ctx context.Context, in messagesRequest) (*messagesResponse, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	start := time.Now()
	resp, err := c.http.Do(req)
	if c.stats != nil {
		c.stats.Record(time.Since(start).Milliseconds())
	}
	if err != nil {
		return nil, fmt.Errorf("messages api: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp.StatusCode, payload)
	}

	var out messagesResponse
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(out.Content) == 0 {
		return nil, errors.New("messages api returned no content")
	}
	return &out, nil
}

// statusError maps a non-200 reply to an error. Rate limits, overload (529)
// and server faults are retryable.
func statusError(status int, payload []byte) error {
	msg := clip(string(payload), 200)
	var ae apiError
	if json.Unmarshal(payload, &ae) == nil && ae.Error.Message != "" {
		msg = ae.Error.Type + ": " + ae.Error.Message
	}
	if status == http.StatusTooManyRequests || status >= http.StatusInternalServerError {
		return &RetryableError{StatusCode: status, Message: msg}
	}
	return fmt.Errorf("messages api status %d: %s", status, msg)
}

// jsonObject returns the outermost {...} span of s, which also strips
// markdown fences and any prose around the object.
func jsonObject(s string) (string, bool) {
	i := strings.IndexByte(s, '{')
	j := strings.LastIndexByte(s, '}')
	if i < 0 || j < i {
		return "", false
	}
	return s[i : j+1], true
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// RetryableError is a transient API failure worth another attempt.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable status %d: %s", e.StatusCode, clip(e.Message, 200))
}

// Close releases idle connections.
func (c *ClaudeClient) Close() {
	c.http.CloseIdleConnections()
}
