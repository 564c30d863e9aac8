package providers

import (
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
)

// GeminiClient implements Client for Google's Gemini API.
type GeminiClient struct {
	apiKey     string
	model      string
	httpClient *http.Client
	verbose    bool
	baseURL    string // For testing; defaults to Gemini API
}

// NewGeminiClient creates a new Gemini client.
func NewGeminiClient(apiKey, model string, verbose bool) *GeminiClient {
	return &GeminiClient{
		apiKey:  apiKey,
		model:   model,
		verbose: verbose,
		baseURL: "https://generativelanguage.googleapis.com",
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

type geminiRequest struct {
	Contents          []geminiContent  `json:"contents"`
	SystemInstruction *geminiContent   `json:"systemInstruction,omitempty"`
	GenerationConfig  *geminiGenConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error,omitempty"`
}

// prepareMessages extracts the system instruction and converts messages to
// API format. Gemini names the assistant role "model".
func (c *GeminiClient) prepareMessages(messages []core.Message) (*geminiContent, []geminiContent) {
	var systemContent *geminiContent
	var contents []geminiContent

	for _, msg := range messages {
		if msg.Role == "system" {
			systemContent = &geminiContent{
				Parts: []geminiPart{{Text: msg.Content}},
			}
		} else {
			role := msg.Role
			if role == "assistant" {
				role = "model"
			}
			contents = append(contents, geminiContent{
				Role:  role,
				Parts: []geminiPart{{Text: msg.Content}},
			})
		}
	}
	return systemContent, contents
}

// Complete implements cort.LLMClient.
func (c *GeminiClient) Complete(ctx context.Context, messages []core.Message, params core.GenParams) (core.LLMResponse, error) {
	systemContent, contents := c.prepareMessages(messages)

	maxTokens := params.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 8192
	}
	reqBody := geminiRequest{
		Contents:          contents,
		SystemInstruction: systemContent,
		GenerationConfig: &geminiGenConfig{
			Temperature:     params.Temperature,
			MaxOutputTokens: maxTokens,
		},
	}

	return c.doRequest(ctx, reqBody)
}

// Model returns the model name used by this client.
func (c *GeminiClient) Model() string {
	return c.model
}

func (c *GeminiClient) doRequest(ctx context.Context, reqBody geminiRequest) (core.LLMResponse, error) {
	start := time.Now()

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return core.LLMResponse{}, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(jsonBody))
	if err != nil {
		return core.LLMResponse{}, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

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
			Provider: string(Gemini),
			Kind:     kindForStatus(resp.StatusCode),
			Status:   resp.StatusCode,
			Message:  string(body),
		}
	}

	var apiResp geminiResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return core.LLMResponse{}, &APIError{
			Provider: string(Gemini),
			Kind:     KindInvalidResponse,
			Message:  fmt.Sprintf("unmarshal response: %v", err),
		}
	}

	if apiResp.Error != nil {
		return core.LLMResponse{}, &APIError{
			Provider: string(Gemini),
			Kind:     KindInvalidResponse,
			Message:  apiResp.Error.Message,
		}
	}

	if c.verbose {
		fmt.Fprintf(os.Stderr, "  [API] %v, tokens: %d→%d\n",
			time.Since(start), apiResp.UsageMetadata.PromptTokenCount, apiResp.UsageMetadata.CandidatesTokenCount)
	}

	var texts []string
	for _, candidate := range apiResp.Candidates {
		for _, part := range candidate.Content.Parts {
			texts = append(texts, part.Text)
		}
	}

	return core.LLMResponse{
		Content:          strings.Join(texts, ""),
		PromptTokens:     apiResp.UsageMetadata.PromptTokenCount,
		CompletionTokens: apiResp.UsageMetadata.CandidatesTokenCount,
	}, nil
}
