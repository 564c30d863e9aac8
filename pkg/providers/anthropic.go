package providers

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/XiaoConstantine/cort-go/pkg/core"
	"github.com/XiaoConstantine/cort-go/pkg/cort"
)

// AnthropicClient implements Client for Anthropic's Claude API.
type AnthropicClient struct {
	apiKey     string
	model      string
	httpClient *http.Client
	verbose    bool
	baseURL    string // For testing; defaults to Anthropic API
}

// NewAnthropicClient creates a new Anthropic client.
func NewAnthropicClient(apiKey, model string, verbose bool) *AnthropicClient {
	return &AnthropicClient{
		apiKey:  apiKey,
		model:   model,
		verbose: verbose,
		baseURL: "https://api.anthropic.com",
		httpClient: &http.Client{
			Timeout: 180 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				MaxConnsPerHost:     10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature"`
	Messages    []anthropicMessage `json:"messages"`
	System      string             `json:"system,omitempty"`
	Stream      bool               `json:"stream,omitempty"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// anthropicStreamEvent represents a Server-Sent Event from the streaming API.
type anthropicStreamEvent struct {
	Type  string `json:"type"`
	Delta struct {
		Type string `json:"type,omitempty"`
		Text string `json:"text,omitempty"`
	} `json:"delta,omitempty"`
	Message struct {
		Usage struct {
			InputTokens int `json:"input_tokens"`
		} `json:"usage,omitempty"`
	} `json:"message,omitempty"`
	Usage struct {
		OutputTokens int `json:"output_tokens"`
	} `json:"usage,omitempty"`
}

// prepareMessages extracts the system prompt and converts messages to API format.
func (c *AnthropicClient) prepareMessages(messages []core.Message) (string, []anthropicMessage) {
	var systemPrompt string
	var apiMessages []anthropicMessage

	for _, msg := range messages {
		if msg.Role == "system" {
			systemPrompt = msg.Content
		} else {
			apiMessages = append(apiMessages, anthropicMessage{
				Role:    msg.Role,
				Content: msg.Content,
			})
		}
	}
	return systemPrompt, apiMessages
}

func (c *AnthropicClient) buildRequest(messages []core.Message, params core.GenParams, stream bool) anthropicRequest {
	systemPrompt, apiMessages := c.prepareMessages(messages)
	maxTokens := params.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	return anthropicRequest{
		Model:       c.model,
		MaxTokens:   maxTokens,
		Temperature: params.Temperature,
		Messages:    apiMessages,
		System:      systemPrompt,
		Stream:      stream,
	}
}

// Complete implements cort.LLMClient.
func (c *AnthropicClient) Complete(ctx context.Context, messages []core.Message, params core.GenParams) (core.LLMResponse, error) {
	return c.doRequest(ctx, c.buildRequest(messages, params, false))
}

// Model returns the model name used by this client.
func (c *AnthropicClient) Model() string {
	return c.model
}

func (c *AnthropicClient) newHTTPRequest(ctx context.Context, reqBody anthropicRequest) (*http.Request, error) {
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/v1/messages", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", "2023-06-01")
	return req, nil
}

func (c *AnthropicClient) doRequest(ctx context.Context, reqBody anthropicRequest) (core.LLMResponse, error) {
	start := time.Now()

	req, err := c.newHTTPRequest(ctx, reqBody)
	if err != nil {
		return core.LLMResponse{}, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return core.LLMResponse{}, fmt.Errorf("http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return core.LLMResponse{}, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return core.LLMResponse{}, &APIError{
			Provider: string(Anthropic),
			Kind:     kindForStatus(resp.StatusCode),
			Status:   resp.StatusCode,
			Message:  string(body),
		}
	}

	var apiResp anthropicResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return core.LLMResponse{}, &APIError{
			Provider: string(Anthropic),
			Kind:     KindInvalidResponse,
			Message:  fmt.Sprintf("unmarshal response: %v", err),
		}
	}

	if apiResp.Error != nil {
		return core.LLMResponse{}, &APIError{
			Provider: string(Anthropic),
			Kind:     KindInvalidResponse,
			Message:  apiResp.Error.Message,
		}
	}

	if c.verbose {
		fmt.Fprintf(os.Stderr, "  [API] %v, tokens: %d→%d\n",
			time.Since(start), apiResp.Usage.InputTokens, apiResp.Usage.OutputTokens)
	}

	var texts []string
	for _, block := range apiResp.Content {
		if block.Type == "text" {
			texts = append(texts, block.Text)
		}
	}

	return core.LLMResponse{
		Content:          strings.Join(texts, ""),
		PromptTokens:     apiResp.Usage.InputTokens,
		CompletionTokens: apiResp.Usage.OutputTokens,
	}, nil
}

// CompleteStream performs a streaming completion request. The handler is
// called for each chunk of content as it arrives. Returns the complete
// response with token usage after the stream finishes.
func (c *AnthropicClient) CompleteStream(ctx context.Context, messages []core.Message, params core.GenParams, handler cort.StreamHandler) (core.LLMResponse, error) {
	req, err := c.newHTTPRequest(ctx, c.buildRequest(messages, params, true))
	if err != nil {
		return core.LLMResponse{}, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return core.LLMResponse{}, fmt.Errorf("http request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return core.LLMResponse{}, &APIError{
			Provider: string(Anthropic),
			Kind:     kindForStatus(resp.StatusCode),
			Status:   resp.StatusCode,
			Message:  string(body),
		}
	}

	var fullContent strings.Builder
	var inputTokens, outputTokens int

	scanner := bufio.NewScanner(resp.Body)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return core.LLMResponse{}, ctx.Err()
		default:
		}

		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimPrefix(line, "data: ")
		if data == "" {
			continue
		}

		var event anthropicStreamEvent
		if err := json.Unmarshal([]byte(data), &event); err != nil {
			// Skip malformed events
			continue
		}

		switch event.Type {
		case "message_start":
			inputTokens = event.Message.Usage.InputTokens
		case "content_block_delta":
			if event.Delta.Type == "text_delta" && event.Delta.Text != "" {
				fullContent.WriteString(event.Delta.Text)
				if handler != nil {
					if err := handler(event.Delta.Text, false); err != nil {
						return core.LLMResponse{}, fmt.Errorf("handler error: %w", err)
					}
				}
			}
		case "message_delta":
			outputTokens = event.Usage.OutputTokens
		case "message_stop":
			if handler != nil {
				if err := handler("", true); err != nil {
					return core.LLMResponse{}, fmt.Errorf("handler error: %w", err)
				}
			}
		case "error":
			return core.LLMResponse{}, &APIError{
				Provider: string(Anthropic),
				Kind:     KindInvalidResponse,
				Message:  "stream error from API",
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return core.LLMResponse{}, fmt.Errorf("scanner error: %w", err)
	}

	return core.LLMResponse{
		Content:          fullContent.String(),
		PromptTokens:     inputTokens,
		CompletionTokens: outputTokens,
	}, nil
}
