package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/factchecker/claimradar/internal/config"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chatResponse(msg openai.ChatCompletionMessage) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		ID:      "chatcmpl-123",
		Object:  "chat.completion",
		Created: 1677652288,
		Model:   "gpt-4o-mini",
		Choices: []openai.ChatCompletionChoice{{Index: 0, Message: msg, FinishReason: "stop"}},
	}
}

func newTestProvider(t *testing.T, url string, rounds int) *OpenAIProvider {
	t.Helper()
	p, err := NewOpenAIProvider(&config.LLMConfig{
		Provider:      "openai",
		APIKey:        "test-key",
		BaseURL:       url,
		Model:         "gpt-4o-mini",
		MaxToolRounds: rounds,
	})
	require.NoError(t, err)
	return p
}

func TestOpenAIProvider_CompleteWithSystem(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req openai.ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 2)
		assert.Equal(t, openai.ChatMessageRoleSystem, req.Messages[0].Role)
		assert.Equal(t, "summarize", req.Messages[1].Content)
		require.NotNil(t, req.ResponseFormat)

		_ = json.NewEncoder(w).Encode(chatResponse(openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleAssistant,
			Content: `{"ok":true}`,
		}))
	}))
	defer server.Close()

	p := newTestProvider(t, server.URL, 0)
	out, err := p.CompleteWithSystem(context.Background(), "be brief", "summarize", CompletionOptions{JSONMode: true})
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, out)
	assert.Equal(t, "openai", p.Name())
}

func TestOpenAIProvider_RunWithTools(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req openai.ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Tools, 1)
		assert.Equal(t, "search_web", req.Tools[0].Function.Name)

		if atomic.AddInt32(&calls, 1) == 1 {
			_ = json.NewEncoder(w).Encode(chatResponse(openai.ChatCompletionMessage{
				Role: openai.ChatMessageRoleAssistant,
				ToolCalls: []openai.ToolCall{{
					ID:   "call_1",
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      "search_web",
						Arguments: `{"query":"vaccines autism","limit":3}`,
					},
				}, {
					ID:       "call_2",
					Type:     openai.ToolTypeFunction,
					Function: openai.FunctionCall{Name: "no_such_tool", Arguments: `{}`},
				}},
			}))
			return
		}

		// Second round carries both tool results back.
		last := req.Messages[len(req.Messages)-2:]
		assert.Equal(t, openai.ChatMessageRoleTool, last[0].Role)
		assert.Equal(t, "call_1", last[0].ToolCallID)
		assert.Equal(t, "3 results for vaccines autism", last[0].Content)
		assert.Equal(t, "call_2", last[1].ToolCallID)
		assert.Contains(t, last[1].Content, "unknown tool")

		_ = json.NewEncoder(w).Encode(chatResponse(openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleAssistant,
			Content: "final answer",
		}))
	}))
	defer server.Close()

	tool := Tool{
		Name:       "search_web",
		Parameters: map[string]any{"type": "object"},
		Handler: func(ctx context.Context, args json.RawMessage) (string, error) {
			var in struct {
				Query string `json:"query"`
				Limit int    `json:"limit"`
			}
			if err := json.Unmarshal(args, &in); err != nil {
				return "", err
			}
			return fmt.Sprintf("%d results for %s", in.Limit, in.Query), nil
		},
	}

	p := newTestProvider(t, server.URL, 4)
	out, err := p.RunWithTools(context.Background(), "system", "check this", []Tool{tool}, CompletionOptions{})
	require.NoError(t, err)
	assert.Equal(t, "final answer", out)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestOpenAIProvider_RunWithToolsRoundLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(chatResponse(openai.ChatCompletionMessage{
			Role: openai.ChatMessageRoleAssistant,
			ToolCalls: []openai.ToolCall{{
				ID:       "loop",
				Type:     openai.ToolTypeFunction,
				Function: openai.FunctionCall{Name: "fetch_site", Arguments: `{"url":"https://example.com"}`},
			}},
		}))
	}))
	defer server.Close()

	tool := Tool{
		Name: "fetch_site",
		Handler: func(ctx context.Context, args json.RawMessage) (string, error) {
			return "", errors.New("blocked by robots.txt")
		},
	}

	p := newTestProvider(t, server.URL, 2)
	_, err := p.RunWithTools(context.Background(), "", "loop forever", []Tool{tool}, CompletionOptions{})
	assert.ErrorIs(t, err, ErrToolRounds)
}

func TestOpenAIProvider_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
	}))
	defer server.Close()

	p := newTestProvider(t, server.URL, 1)
	_, err := p.CompleteWithSystem(context.Background(), "", "hi", CompletionOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "completion failed")
}

func TestNewProvider(t *testing.T) {
	_, err := NewProvider(&config.LLMConfig{Provider: "openai"})
	assert.Error(t, err, "missing key")

	_, err = NewProvider(&config.LLMConfig{Provider: "azure", APIKey: "k"})
	assert.Error(t, err, "missing endpoint")

	_, err = NewProvider(&config.LLMConfig{Provider: "palm"})
	assert.Error(t, err)

	p, err := NewProvider(&config.LLMConfig{Provider: "azure", APIKey: "k", AzureEndpoint: "https://x.openai.azure.com", AzureDeployment: "gpt4o"})
	require.NoError(t, err)
	assert.Equal(t, "azure", p.Name())
}

func TestNewProvider_OllamaUsesV1Path(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		_ = json.NewEncoder(w).Encode(chatResponse(openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleAssistant,
			Content: "local",
		}))
	}))
	defer server.Close()

	p, err := NewProvider(&config.LLMConfig{Provider: "ollama", OllamaURL: server.URL + "/", Model: "llama3"})
	require.NoError(t, err)
	out, err := p.CompleteWithSystem(context.Background(), "", "hi", CompletionOptions{})
	require.NoError(t, err)
	assert.Equal(t, "local", out)
}
