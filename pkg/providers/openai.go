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

// OpenAIClient implements Client for OpenAI's chat completions API and any
// API speaking the same wire format (DeepSeek, OpenRouter, LM Studio). The
// provider field distinguishes them in errors and verbose output.
type OpenAIClient struct {
	apiKey       string
	model        string
	httpClient   *http.Client
	verbose      bool
	provider     Provider
	baseURL      string            // For testing and compatible vendors; defaults to OpenAI API
	extraHeaders map[string]string // Additional headers some vendors require
}

// NewOpenAIClient creates a new OpenAI client.
func NewOpenAIClient(apiKey, model string, verbose bool) *OpenAIClient {
	return &OpenAIClient{
		apiKey:   apiKey,
		model:    model,
		verbose:  verbose,
		provider: OpenAI,
		baseURL:  "https://api.openai.com/v1",
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

type openaiRequest struct {
	Model       string          `json:"model"`
	Messages    []openaiMessage `json:"messages"`
	Temperature float64         `json:"temperature"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Stream      bool            `json:"stream,omitempty"`
}

type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openaiResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// openaiStreamChunk is one SSE data frame from the streaming API.
type openaiStreamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage,omitempty"`
}

func (c *OpenAIClient) buildRequest(messages []core.Message, params core.GenParams, stream bool) openaiRequest {
	apiMessages := make([]openaiMessage, 0, len(messages))
	for _, msg := range messages {
		apiMessages = append(apiMessages, openaiMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}
	return openaiRequest{
		Model:       c.model,
		Messages:    apiMessages,
		Temperature: params.Temperature,
		MaxTokens:   params.MaxTokens,
		Stream:      stream,
	}
}

// Complete implements cort.LLMClient.
func (c *OpenAIClient) Complete(ctx context.Context, messages []core.Message, params core.GenParams) (core.LLMResponse, error) {
	return c.doRequest(ctx, c.buildRequest(messages, params, false))
}

// Model returns the model name used by this client.
func (c *OpenAIClient) Model() string {
	return c.model
}

func (c *OpenAIClient) newHTTPRequest(ctx context.Context, reqBody openaiRequest) (*http.Request, error) {
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	for k, v := range c.extraHeaders {
		req.Header.Set(k, v)
	}
	return req, nil
}

func (c *OpenAIClient) doRequest(ctx context.Context, reqBody openaiRequest) (core.LLMResponse, error) {
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
			Provider: string(c.provider),
			Kind:     kindForStatus(resp.StatusCode),
			Status:   resp.StatusCode,
			Message:  string(body),
		}
	}

	var apiResp openaiResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return core.LLMResponse{}, &APIError{
			Provider: string(c.provider),
			Kind:     KindInvalidResponse,
			Message:  fmt.Sprintf("unmarshal response: %v", err),
		}
	}

	if apiResp.Error != nil {
		return core.LLMResponse{}, &APIError{
			Provider: string(c.provider),
			Kind:     KindInvalidResponse,
			Message:  apiResp.Error.Message,
		}
	}

	if len(apiResp.Choices) == 0 {
		return core.LLMResponse{}, &APIError{
			Provider: string(c.provider),
			Kind:     KindInvalidResponse,
			Message:  "no choices in response",
		}
	}

	if c.verbose {
		fmt.Fprintf(os.Stderr, "  [API] %v, tokens: %d→%d\n",
			time.Since(start), apiResp.Usage.PromptTokens, apiResp.Usage.CompletionTokens)
	}

	return core.LLMResponse{
		Content:          apiResp.Choices[0].Message.Content,
		PromptTokens:     apiResp.Usage.PromptTokens,
		CompletionTokens: apiResp.Usage.CompletionTokens,
	}, nil
}

// CompleteStream performs a streaming completion request. The handler is
// called for each chunk of content as it arrives.
func (c *OpenAIClient) CompleteStream(ctx context.Context, messages []core.Message, params core.GenParams, handler cort.StreamHandler) (core.LLMResponse, error) {
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
			Provider: string(c.provider),
			Kind:     kindForStatus(resp.StatusCode),
			Status:   resp.StatusCode,
			Message:  string(body),
		}
	}

	var fullContent strings.Builder
	var promptTokens, completionTokens int

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
		if data == "" || data == "[DONE]" {
			continue
		}

		var chunk openaiStreamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			continue
		}

		if chunk.Usage != nil {
			promptTokens = chunk.Usage.PromptTokens
			completionTokens = chunk.Usage.CompletionTokens
		}
		if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
			content := chunk.Choices[0].Delta.Content
			fullContent.WriteString(content)
			if handler != nil {
				if err := handler(content, false); err != nil {
					return core.LLMResponse{}, fmt.Errorf("handler error: %w", err)
				}
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return core.LLMResponse{}, fmt.Errorf("scanner error: %w", err)
	}

	if handler != nil {
		if err := handler("", true); err != nil {
			return core.LLMResponse{}, fmt.Errorf("handler error: %w", err)
		}
	}

	return core.LLMResponse{
		Content:          fullContent.String(),
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
	}, nil
}
