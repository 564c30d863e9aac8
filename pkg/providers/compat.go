package providers

// DeepSeek, OpenRouter, and LM Studio all speak the OpenAI chat completions
// wire format; swapping providers means swapping the base URL and auth.

// NewDeepSeekClient creates a client for DeepSeek's API.
func NewDeepSeekClient(apiKey, model string, verbose bool) *OpenAIClient {
	c := NewOpenAIClient(apiKey, model, verbose)
	c.provider = DeepSeek
	c.baseURL = "https://api.deepseek.com/v1"
	return c
}

// NewOpenRouterClient creates a client for OpenRouter's aggregation API.
func NewOpenRouterClient(apiKey, model string, verbose bool) *OpenAIClient {
	c := NewOpenAIClient(apiKey, model, verbose)
	c.provider = OpenRouter
	c.baseURL = "https://openrouter.ai/api/v1"
	c.extraHeaders = map[string]string{
		"HTTP-Referer": "http://localhost:3000",
		"X-Title":      "Recursive Thinking Chat",
	}
	return c
}

// NewLMStudioClient creates a client for a local LM Studio server.
// baseURL may be empty to use the default local endpoint; no API key is
// required.
func NewLMStudioClient(baseURL, model string, verbose bool) *OpenAIClient {
	c := NewOpenAIClient("", model, verbose)
	c.provider = LMStudio
	if baseURL == "" {
		baseURL = "http://localhost:1234/v1"
	}
	c.baseURL = baseURL
	return c
}
