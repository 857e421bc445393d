// ABOUTME: HTTP client for the LLM aggregation API's chat completions endpoint
// ABOUTME: Sends one system+user exchange per call, tagged with a session id header

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// SessionHeader carries the per-call session id to the aggregation API
const SessionHeader = "X-Session-ID"

// maxErrorBody bounds how much of an error response is kept for logs.
const maxErrorBody = 4 << 10

// ErrEmptyResponse is returned when the upstream answers without any text
var ErrEmptyResponse = errors.New("empty completion")

// Model names one upstream model on the aggregation API
type Model struct {
	Provider string
	Name     string
}

// String returns the provider/name label sent as the model id
func (m Model) String() string {
	if m.Provider == "" {
		return m.Name
	}
	return m.Provider + "/" + m.Name
}

// Request is one completion request
type Request struct {
	SessionID string
	System    string
	Prompt    string
}

// Completer sends a single request to a single model
type Completer interface {
	Complete(ctx context.Context, model Model, req Request) (string, error)
}

// Client implements Completer over HTTP
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *slog.Logger
}

var _ Completer = (*Client)(nil)

// NewClient creates a client for the aggregation API at baseURL.
// A zero timeout leaves the HTTP client without a deadline; the request context still applies.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
		logger:  slog.Default().With("component", "llm"),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// StatusError is a non-2xx answer from the aggregation API
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream returned %d: %s", e.StatusCode, e.Body)
}

// Complete sends req to model and returns the first choice's text
func (c *Client) Complete(ctx context.Context, model Model, req Request) (string, error) {
	messages := make([]chatMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.Prompt})

	body, err := json.Marshal(chatRequest{Model: model.String(), Messages: messages})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	if req.SessionID != "" {
		httpReq.Header.Set(SessionHeader, req.SessionID)
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return "", &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	if len(decoded.Choices) == 0 || strings.TrimSpace(decoded.Choices[0].Message.Content) == "" {
		return "", ErrEmptyResponse
	}

	c.logger.Debug("completion received",
		"model", model.String(),
		"session_id", req.SessionID,
		"duration", time.Since(start),
	)
	return decoded.Choices[0].Message.Content, nil
}
