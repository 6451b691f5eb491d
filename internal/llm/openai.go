package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/factchecker/claimradar/internal/config"
	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"
)

const defaultOllamaURL = "http://localhost:11434"

// OpenAIProvider implements Provider using the OpenAI chat completions API.
type OpenAIProvider struct {
	name          string
	client        *openai.Client
	model         string
	maxTokens     int
	maxToolRounds int
}

// NewOpenAIProvider creates a provider for openai, azure or ollama.
func NewOpenAIProvider(cfg *config.LLMConfig) (*OpenAIProvider, error) {
	var clientConfig openai.ClientConfig

	switch cfg.Provider {
	case "azure":
		if cfg.APIKey == "" || cfg.AzureEndpoint == "" {
			return nil, fmt.Errorf("Azure OpenAI requires api_key and azure_endpoint")
		}
		clientConfig = openai.DefaultAzureConfig(cfg.APIKey, cfg.AzureEndpoint)
		if cfg.AzureDeployment != "" {
			deployment := cfg.AzureDeployment
			clientConfig.AzureModelMapperFunc = func(string) string { return deployment }
		}
	case "ollama":
		base := cfg.OllamaURL
		if base == "" {
			base = defaultOllamaURL
		}
		clientConfig = openai.DefaultConfig("ollama")
		clientConfig.BaseURL = strings.TrimRight(base, "/") + "/v1"
	default:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("OpenAI API key is required")
		}
		clientConfig = openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			clientConfig.BaseURL = cfg.BaseURL
		}
	}

	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	rounds := cfg.MaxToolRounds
	if rounds <= 0 {
		rounds = 8
	}
	name := cfg.Provider
	if name == "" {
		name = "openai"
	}

	return &OpenAIProvider{
		name:          name,
		client:        openai.NewClientWithConfig(clientConfig),
		model:         model,
		maxTokens:     cfg.MaxTokens,
		maxToolRounds: rounds,
	}, nil
}

// Name returns the provider name.
func (p *OpenAIProvider) Name() string {
	return p.name
}

// CompleteWithSystem generates a completion with a system prompt.
func (p *OpenAIProvider) CompleteWithSystem(ctx context.Context, system, user string, opts CompletionOptions) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, p.request(initialMessages(system, user), nil, opts))
	if err != nil {
		return "", fmt.Errorf("%s completion failed: %w", p.name, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s returned no choices", p.name)
	}
	return resp.Choices[0].Message.Content, nil
}

// RunWithTools drives the tool-calling loop. Tool failures are reported back
// to the model as text; only transport errors abort the run.
func (p *OpenAIProvider) RunWithTools(ctx context.Context, system, user string, tools []Tool, opts CompletionOptions) (string, error) {
	handlers := make(map[string]ToolHandler, len(tools))
	defs := make([]openai.Tool, 0, len(tools))
	for _, t := range tools {
		handlers[t.Name] = t.Handler
		defs = append(defs, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}

	messages := initialMessages(system, user)
	for round := 0; round < p.maxToolRounds; round++ {
		resp, err := p.client.CreateChatCompletion(ctx, p.request(messages, defs, opts))
		if err != nil {
			return "", fmt.Errorf("%s completion failed: %w", p.name, err)
		}
		if len(resp.Choices) == 0 {
			return "", fmt.Errorf("%s returned no choices", p.name)
		}

		msg := resp.Choices[0].Message
		if len(msg.ToolCalls) == 0 {
			return msg.Content, nil
		}

		messages = append(messages, msg)
		for _, call := range msg.ToolCalls {
			messages = append(messages, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    p.callTool(ctx, handlers, call),
				Name:       call.Function.Name,
				ToolCallID: call.ID,
			})
		}
	}
	return "", fmt.Errorf("%s: %w (%d)", p.name, ErrToolRounds, p.maxToolRounds)
}

func (p *OpenAIProvider) callTool(ctx context.Context, handlers map[string]ToolHandler, call openai.ToolCall) string {
	handler, ok := handlers[call.Function.Name]
	if !ok {
		return fmt.Sprintf("error: unknown tool %q", call.Function.Name)
	}

	args := json.RawMessage(call.Function.Arguments)
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	log.Debug().Str("tool", call.Function.Name).Str("args", string(args)).Msg("Tool call")
	out, err := handler(ctx, args)
	if err != nil {
		log.Warn().Err(err).Str("tool", call.Function.Name).Msg("Tool call failed")
		return "error: " + err.Error()
	}
	return out
}

func (p *OpenAIProvider) request(messages []openai.ChatCompletionMessage, tools []openai.Tool, opts CompletionOptions) openai.ChatCompletionRequest {
	model := opts.Model
	if model == "" {
		model = p.model
	}
	maxTokens := opts.MaxTokens
	if maxTokens == 0 {
		maxTokens = p.maxTokens
	}
	if maxTokens == 0 {
		maxTokens = 2048
	}

	req := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: float32(opts.Temperature),
		Tools:       tools,
	}
	if opts.JSONMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}
	return req
}

func initialMessages(system, user string) []openai.ChatCompletionMessage {
	messages := []openai.ChatCompletionMessage{}
	if system != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}
	return append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: user,
	})
}
