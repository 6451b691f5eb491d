// Package llm provides a pluggable interface for LLM providers.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/factchecker/claimradar/internal/config"
)

// ErrToolRounds is returned when the model keeps requesting tools past the
// configured round limit.
var ErrToolRounds = errors.New("tool-call round limit exceeded")

// CompletionOptions contains options for completion requests.
type CompletionOptions struct {
	MaxTokens   int
	Temperature float64
	Model       string
	JSONMode    bool // ask the model for a single JSON object
}

// DefaultCompletionOptions returns sensible defaults.
func DefaultCompletionOptions() CompletionOptions {
	return CompletionOptions{
		MaxTokens:   2048,
		Temperature: 0.0,
	}
}

// ToolHandler executes a tool call. args is the raw JSON argument object
// produced by the model; the returned string is sent back verbatim.
type ToolHandler func(ctx context.Context, args json.RawMessage) (string, error)

// Tool is a function the model may call while answering.
type Tool struct {
	Name        string
	Description string
	Parameters  map[string]any // JSON schema of the argument object
	Handler     ToolHandler
}

// Provider defines the interface for LLM providers.
type Provider interface {
	// CompleteWithSystem generates a completion with a system prompt.
	CompleteWithSystem(ctx context.Context, system, user string, opts CompletionOptions) (string, error)

	// RunWithTools lets the model call tools until it produces a final
	// answer, and returns that answer.
	RunWithTools(ctx context.Context, system, user string, tools []Tool, opts CompletionOptions) (string, error)

	// Name returns the provider name.
	Name() string
}

// NewProvider creates a new LLM provider based on configuration. Azure and
// Ollama speak the OpenAI wire protocol and share one implementation.
func NewProvider(cfg *config.LLMConfig) (Provider, error) {
	switch cfg.Provider {
	case "openai", "azure", "ollama":
		return NewOpenAIProvider(cfg)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
