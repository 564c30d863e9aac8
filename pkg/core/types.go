// Package core provides core types for cort-go.
package core

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Provenance indicates how a candidate was produced.
type Provenance string

const (
	// ProvenanceInitial marks the first response generated for a query.
	ProvenanceInitial Provenance = "initial"
	// ProvenanceAlternative marks a response generated as a divergent alternative.
	ProvenanceAlternative Provenance = "alternative"
)

// Candidate is one generated response text together with the sampling
// temperature that produced it. Candidates are never mutated after creation.
type Candidate struct {
	Text        string     `json:"text"`
	Temperature float64    `json:"temperature"`
	Provenance  Provenance `json:"provenance"`
}

// GenParams are the sampling parameters for a single backend call.
type GenParams struct {
	Temperature float64
	MaxTokens   int
}

// UsageStats tracks token usage across backend calls.
type UsageStats struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// LLMResponse represents the response from a backend call with usage metadata.
type LLMResponse struct {
	Content          string
	PromptTokens     int
	CompletionTokens int
}
