package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/burn-risk/internal/domain"
	"github.com/couchcryptid/burn-risk/internal/observability"
)

// Client is a minimal chat-completions client. Only the request fields this
// service uses are modeled; the base URL includes the API version prefix so
// OpenAI-compatible gateways work unchanged.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an OpenAI chat-completions client.
func NewClient(apiKey, baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		metrics: metrics,
		logger:  logger,
	}
}

// Message is one turn of a chat exchange.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	roleSystem = "system"
	roleUser   = "user"
)

// completionRequest carries one chat exchange. jsonOnly asks the model for a
// bare JSON object reply.
type completionRequest struct {
	model       string
	messages    []Message
	temperature *float64
	jsonOnly    bool
}

// Chat-completions wire types.

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	Temperature    *float64        `json:"temperature,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

// complete sends one chat exchange and returns the assistant's reply text.
func (c *Client) complete(ctx context.Context, req completionRequest) (string, error) {
	body := chatRequest{
		Model:       req.model,
		Messages:    req.messages,
		Temperature: req.temperature,
	}
	if req.jsonOnly {
		body.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	c.metrics.UpstreamDuration.WithLabelValues(domain.SourceStatistics).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.UpstreamRequests.WithLabelValues(domain.SourceStatistics, "error").Inc()
		return "", fmt.Errorf("completion request: %w", domain.ClassifyTransport(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		c.metrics.UpstreamRequests.WithLabelValues(domain.SourceStatistics, "error").Inc()
		c.logger.Warn("openai error response", "status", resp.StatusCode, "body", string(respBody))
		return "", fmt.Errorf("openai API: status %d: %w", resp.StatusCode, domain.ClassifyStatus(resp.StatusCode))
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		c.metrics.UpstreamRequests.WithLabelValues(domain.SourceStatistics, "error").Inc()
		return "", fmt.Errorf("decode response: %w", domain.ErrMalformedResponse)
	}
	if len(chatResp.Choices) == 0 {
		c.metrics.UpstreamRequests.WithLabelValues(domain.SourceStatistics, "error").Inc()
		return "", fmt.Errorf("no choices in reply: %w", domain.ErrMalformedResponse)
	}

	c.metrics.UpstreamRequests.WithLabelValues(domain.SourceStatistics, "success").Inc()
	return chatResp.Choices[0].Message.Content, nil
}
