// Package providers implements LLM client providers for various backends.
package providers

import (
	"fmt"

	"github.com/XiaoConstantine/cort-go/pkg/cort"
)

// Provider identifies an LLM provider.
type Provider string

const (
	Anthropic  Provider = "anthropic"
	OpenAI     Provider = "openai"
	Gemini     Provider = "gemini"
	DeepSeek   Provider = "deepseek"
	OpenRouter Provider = "openrouter"
	LMStudio   Provider = "lmstudio"
)

// Client is the full capability a provider adapter offers: blocking
// completions plus SSE streaming.
type Client interface {
	cort.LLMClient
}

// DefaultModels maps providers to their default model names.
var DefaultModels = map[Provider]string{
	Anthropic:  "claude-sonnet-4-20250514",
	OpenAI:     "gpt-4o",
	Gemini:     "gemini-1.5-pro",
	DeepSeek:   "deepseek-chat",
	OpenRouter: "openai/gpt-4o",
	LMStudio:   "local-model",
}

// DefaultModel returns the default model name for a provider.
func DefaultModel(p Provider) string {
	return DefaultModels[p]
}

// EnvKey returns the environment variable name for the provider's API key.
// LM Studio runs locally and needs no key.
func (p Provider) EnvKey() string {
	switch p {
	case OpenAI:
		return "OPENAI_API_KEY"
	case Gemini:
		return "GEMINI_API_KEY"
	case DeepSeek:
		return "DEEPSEEK_API_KEY"
	case OpenRouter:
		return "OPENROUTER_API_KEY"
	case LMStudio:
		return ""
	default:
		return "ANTHROPIC_API_KEY"
	}
}

// Valid reports whether p names a known provider.
func (p Provider) Valid() bool {
	_, ok := DefaultModels[p]
	return ok
}

// New creates a client for the given provider. model may be empty to use
// the provider default. Credentials are passed explicitly; clients hold no
// ambient global state.
func New(p Provider, apiKey, model string, verbose bool) (Client, error) {
	if model == "" {
		model = DefaultModel(p)
	}
	switch p {
	case Anthropic:
		return NewAnthropicClient(apiKey, model, verbose), nil
	case OpenAI:
		return NewOpenAIClient(apiKey, model, verbose), nil
	case Gemini:
		return NewGeminiClient(apiKey, model, verbose), nil
	case DeepSeek:
		return NewDeepSeekClient(apiKey, model, verbose), nil
	case OpenRouter:
		return NewOpenRouterClient(apiKey, model, verbose), nil
	case LMStudio:
		return NewLMStudioClient("", model, verbose), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", p)
	}
}
