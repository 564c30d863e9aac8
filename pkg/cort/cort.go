package cort

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/XiaoConstantine/cort-go/pkg/core"
	"github.com/XiaoConstantine/cort-go/pkg/logger"
	"github.com/XiaoConstantine/cort-go/pkg/parsing"
)

// LLMClient defines the backend caller capability the engine depends on.
// Provider adapters implement it; the engine never sees a concrete
// provider type.
type LLMClient interface {
	// Complete generates a completion for the given messages using the
	// given sampling parameters.
	Complete(ctx context.Context, messages []core.Message, params core.GenParams) (core.LLMResponse, error)

	// Model returns the model name used by this client.
	Model() string
}

// StreamHandler is called for each chunk of streamed content.
type StreamHandler func(chunk string, done bool) error

// StreamingLLMClient extends LLMClient with streaming support. The engine
// concatenates chunks and treats the completed text as atomic; streaming
// never changes round or evaluation semantics.
type StreamingLLMClient interface {
	LLMClient
	CompleteStream(ctx context.Context, messages []core.Message, params core.GenParams, handler StreamHandler) (core.LLMResponse, error)
}

// Defaults for the engine configuration.
const (
	DefaultRounds             = 3
	DefaultAlternatives       = 3
	DefaultBaseTemperature    = 0.7
	DefaultTemperatureStep    = 0.1
	DefaultInitialTemperature = 0.7
	DefaultPlanningTemp       = 0.3
	DefaultEvaluationTemp     = 0.2
	DefaultMaxTokens          = 4096
	DefaultHistoryLimit       = 10
)

// DefaultRationale is recorded when the evaluator's response carries no
// recognizable label; the current-best is retained.
const DefaultRationale = "no clear improvement found"

// noExplanation is recorded when a label parses but no justification follows.
const noExplanation = "No explanation provided"

// RoundProgress reports the engine entering a round.
type RoundProgress struct {
	Round         int
	PlannedRounds int
}

// Config holds engine configuration.
type Config struct {
	// ForcedRounds skips the planning call and fixes the round budget.
	// Zero means ask the backend (default).
	ForcedRounds int

	// NumAlternatives is the number of alternatives generated per round
	// (default: 3).
	NumAlternatives int

	// BaseTemperature and TemperatureStep define the ascending temperature
	// schedule for alternatives: base + i*step. The schedule resets each
	// round.
	BaseTemperature float64
	TemperatureStep float64

	// InitialTemperature is used for the initial response.
	InitialTemperature float64

	// PlanningTemperature and EvaluationTemperature are used for the
	// round-planning and evaluation calls.
	PlanningTemperature   float64
	EvaluationTemperature float64

	// MaxTokens is the token budget per backend call.
	MaxTokens int

	// HistoryLimit bounds the rolling conversation history (default: 10
	// messages).
	HistoryLimit int

	// Verbose enables progress output on stderr.
	Verbose bool

	// Logger is the optional JSONL session logger.
	Logger *logger.Logger

	// EnableStreaming uses SSE streaming for backend calls when the client
	// supports it.
	EnableStreaming bool

	// OnStreamChunk is called for each chunk when streaming is enabled.
	OnStreamChunk StreamHandler

	// OnProgress is called at the start of each round.
	OnProgress func(RoundProgress)
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		NumAlternatives:       DefaultAlternatives,
		BaseTemperature:       DefaultBaseTemperature,
		TemperatureStep:       DefaultTemperatureStep,
		InitialTemperature:    DefaultInitialTemperature,
		PlanningTemperature:   DefaultPlanningTemp,
		EvaluationTemperature: DefaultEvaluationTemp,
		MaxTokens:             DefaultMaxTokens,
		HistoryLimit:          DefaultHistoryLimit,
	}
}

// Option configures the engine.
type Option func(*Config)

// WithRounds fixes the round budget, skipping the planning call.
// Values are clamped to [1,5].
func WithRounds(n int) Option {
	return func(c *Config) {
		if n < parsing.MinRounds {
			n = parsing.MinRounds
		}
		if n > parsing.MaxRounds {
			n = parsing.MaxRounds
		}
		c.ForcedRounds = n
	}
}

// WithNumAlternatives sets the number of alternatives per round.
func WithNumAlternatives(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.NumAlternatives = n
		}
	}
}

// WithTemperatureSchedule sets the base temperature and per-alternative step.
func WithTemperatureSchedule(base, step float64) Option {
	return func(c *Config) {
		c.BaseTemperature = base
		c.TemperatureStep = step
	}
}

// WithMaxTokens sets the per-call token budget.
func WithMaxTokens(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.MaxTokens = n
		}
	}
}

// WithHistoryLimit bounds the rolling conversation history.
func WithHistoryLimit(n int) Option {
	return func(c *Config) {
		if n > 0 {
			c.HistoryLimit = n
		}
	}
}

// WithVerbose enables verbose progress output.
func WithVerbose(v bool) Option {
	return func(c *Config) {
		c.Verbose = v
	}
}

// WithLogger sets the JSONL session logger.
func WithLogger(l *logger.Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}

// WithStreaming enables streaming mode for backend calls.
// When enabled, the client should implement StreamingLLMClient.
func WithStreaming(enabled bool) Option {
	return func(c *Config) {
		c.EnableStreaming = enabled
	}
}

// WithStreamHandler sets the handler for streaming chunks.
// Only used when streaming is enabled.
func WithStreamHandler(handler StreamHandler) Option {
	return func(c *Config) {
		c.OnStreamChunk = handler
	}
}

// WithProgressHandler sets a callback invoked at the start of each round.
func WithProgressHandler(handler func(RoundProgress)) Option {
	return func(c *Config) {
		c.OnProgress = handler
	}
}

// Engine runs the recursive-thinking loop: generate an initial response,
// plan a round budget, then repeatedly branch into alternatives, evaluate,
// and carry the winner forward.
type Engine struct {
	client  LLMClient
	config  Config
	history []core.Message
	usage   core.UsageStats
}

// New creates a new engine backed by the given client.
func New(client LLMClient, opts ...Option) *Engine {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Engine{
		client: client,
		config: cfg,
	}
}

// Usage returns token usage aggregated across all sessions run so far.
func (e *Engine) Usage() core.UsageStats {
	return e.usage
}

// History returns the rolling conversation history.
func (e *Engine) History() []core.Message {
	return e.history
}

// ThinkAndRespond runs one full session for query: initial response,
// round planning, then the generate/evaluate loop. A backend failure while
// generating alternatives truncates the session at the last fully completed
// round; the session's Truncated flag is set and its final response is the
// current-best at truncation. A failure on the initial response is a hard
// error since no baseline exists yet.
func (e *Engine) ThinkAndRespond(ctx context.Context, query string) (*core.Session, error) {
	initial, err := e.generateInitial(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("initial response: %w", err)
	}

	rounds := e.planRounds(ctx, query)
	session := core.NewSession(query, initial, rounds)

	if e.config.Logger != nil {
		_ = e.config.Logger.LogSessionStart(session.ID, query, rounds, initial)
	}
	if e.config.Verbose {
		fmt.Fprintf(os.Stderr, "[cort] thinking: %d round(s) planned\n", rounds)
	}

	for r := 1; r <= rounds; r++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if e.config.OnProgress != nil {
			e.config.OnProgress(RoundProgress{Round: r, PlannedRounds: rounds})
		}
		if e.config.Verbose {
			fmt.Fprintf(os.Stderr, "[cort] round %d/%d\n", r, rounds)
		}

		best := session.CurrentBest()
		alternatives, err := e.generateAlternatives(ctx, query, best.Text)
		if err != nil {
			// Truncate at the last fully completed round. Partial
			// alternative sets are never used.
			session.Truncated = true
			if e.config.Verbose {
				fmt.Fprintf(os.Stderr, "[cort] round %d aborted: %v\n", r, err)
			}
			break
		}

		selected, rationale := e.evaluate(ctx, query, best, alternatives)

		round := core.Round{
			Number:        r,
			Candidates:    append([]core.Candidate{best}, alternatives...),
			SelectedIndex: selected,
			Rationale:     rationale,
		}
		session.AppendRound(round)

		if e.config.Logger != nil {
			_ = e.config.Logger.LogRound(session.ID, round)
		}
		if e.config.Verbose {
			if selected == 0 {
				fmt.Fprintf(os.Stderr, "[cort] kept current response: %s\n", rationale)
			} else {
				fmt.Fprintf(os.Stderr, "[cort] selected alternative %d: %s\n", selected, rationale)
			}
		}
	}

	session.FinalResponse = session.CurrentBest().Text

	e.history = append(e.history,
		core.Message{Role: "user", Content: query},
		core.Message{Role: "assistant", Content: session.FinalResponse},
	)
	if len(e.history) > e.config.HistoryLimit {
		e.history = e.history[len(e.history)-e.config.HistoryLimit:]
	}

	if e.config.Logger != nil {
		_ = e.config.Logger.LogFinal(session.ID, session.FinalResponse, session.CompletedRounds(), session.Truncated)
	}

	return session, nil
}

// generateInitial produces the session's starting current-best.
func (e *Engine) generateInitial(ctx context.Context, query string) (core.Candidate, error) {
	messages := append(append([]core.Message{}, e.history...), core.Message{
		Role:    "user",
		Content: query,
	})

	resp, err := e.complete(ctx, messages, core.GenParams{
		Temperature: e.config.InitialTemperature,
		MaxTokens:   e.config.MaxTokens,
	})
	if err != nil {
		return core.Candidate{}, err
	}

	return core.Candidate{
		Text:        strings.TrimSpace(resp.Content),
		Temperature: e.config.InitialTemperature,
		Provenance:  core.ProvenanceInitial,
	}, nil
}

// planRounds asks the backend to size the round budget for query. The
// single classification call is never retried; a backend error or an
// unparsable answer both fall back to the default of 3.
func (e *Engine) planRounds(ctx context.Context, query string) int {
	if e.config.ForcedRounds > 0 {
		return e.config.ForcedRounds
	}

	prompt := fmt.Sprintf(PlanningPromptTemplate, query)
	resp, err := e.complete(ctx, []core.Message{{Role: "user", Content: prompt}}, core.GenParams{
		Temperature: e.config.PlanningTemperature,
		MaxTokens:   e.config.MaxTokens,
	})
	if err != nil {
		if e.config.Verbose {
			fmt.Fprintf(os.Stderr, "[cort] planning call failed, using default rounds: %v\n", err)
		}
		return DefaultRounds
	}

	if n, ok := parsing.ParseRoundCount(resp.Content); ok {
		return n
	}
	return DefaultRounds
}

// generateAlternatives produces the round's alternatives sequentially at
// strictly ascending temperatures base + i*step. Sequential issue order
// keeps the temperature mapping deterministic. Any individual failure
// surfaces as a generation failure for the whole round.
func (e *Engine) generateAlternatives(ctx context.Context, query, currentBest string) ([]core.Candidate, error) {
	alternatives := make([]core.Candidate, 0, e.config.NumAlternatives)

	for i := 0; i < e.config.NumAlternatives; i++ {
		temp := e.config.BaseTemperature + float64(i)*e.config.TemperatureStep
		prompt := fmt.Sprintf(AlternativePromptTemplate, query, currentBest)

		messages := append(append([]core.Message{}, e.history...), core.Message{
			Role:    "user",
			Content: prompt,
		})

		resp, err := e.complete(ctx, messages, core.GenParams{
			Temperature: temp,
			MaxTokens:   e.config.MaxTokens,
		})
		if err != nil {
			return nil, fmt.Errorf("alternative %d/%d: %w", i+1, e.config.NumAlternatives, err)
		}

		alternatives = append(alternatives, core.Candidate{
			Text:        strings.TrimSpace(resp.Content),
			Temperature: temp,
			Provenance:  core.ProvenanceAlternative,
		})
	}

	return alternatives, nil
}

// evaluate asks the backend to pick between the current-best and the
// alternatives and returns the chosen index into the round's candidate
// list (0 = current-best) with the one-sentence rationale. Parse failures
// and backend errors on the evaluation call retain the current-best; the
// policy biases toward stability over unverified change.
func (e *Engine) evaluate(ctx context.Context, query string, best core.Candidate, alternatives []core.Candidate) (int, string) {
	var enumerated strings.Builder
	for i, alt := range alternatives {
		fmt.Fprintf(&enumerated, "%d. %s\n", i+1, alt.Text)
	}

	prompt := fmt.Sprintf(EvaluationPromptTemplate, query, best.Text, strings.TrimRight(enumerated.String(), "\n"), len(alternatives))

	resp, err := e.complete(ctx, []core.Message{{Role: "user", Content: prompt}}, core.GenParams{
		Temperature: e.config.EvaluationTemperature,
		MaxTokens:   e.config.MaxTokens,
	})
	if err != nil {
		if e.config.Verbose {
			fmt.Fprintf(os.Stderr, "[cort] evaluation call failed, keeping current response: %v\n", err)
		}
		return 0, DefaultRationale
	}

	index, rationale, ok := parsing.ParseSelection(resp.Content, len(alternatives))
	if !ok {
		return 0, DefaultRationale
	}
	if rationale == "" {
		rationale = noExplanation
	}
	return index, rationale
}

// complete calls the backend, streaming when enabled and supported, and
// aggregates token usage.
func (e *Engine) complete(ctx context.Context, messages []core.Message, params core.GenParams) (core.LLMResponse, error) {
	var resp core.LLMResponse
	var err error

	if e.config.EnableStreaming {
		if streamClient, ok := e.client.(StreamingLLMClient); ok {
			resp, err = streamClient.CompleteStream(ctx, messages, params, e.config.OnStreamChunk)
		} else {
			if e.config.Verbose {
				fmt.Fprintln(os.Stderr, "[cort] streaming requested but client doesn't support it, falling back")
			}
			resp, err = e.client.Complete(ctx, messages, params)
		}
	} else {
		resp, err = e.client.Complete(ctx, messages, params)
	}
	if err != nil {
		return core.LLMResponse{}, err
	}

	e.usage.PromptTokens += resp.PromptTokens
	e.usage.CompletionTokens += resp.CompletionTokens
	e.usage.TotalTokens += resp.PromptTokens + resp.CompletionTokens
	return resp, nil
}
