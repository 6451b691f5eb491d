package verify

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/factchecker/claimradar/internal/llm"
	"github.com/factchecker/claimradar/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedProvider calls each tool once with canned arguments and then
// returns answer.
type scriptedProvider struct {
	answer    string
	err       error
	toolCalls map[string]string // tool name -> arguments
	toolOut   map[string]string
	userInput string
	opts      llm.CompletionOptions
}

func (p *scriptedProvider) CompleteWithSystem(ctx context.Context, system, user string, opts llm.CompletionOptions) (string, error) {
	return "", errors.New("not used")
}

func (p *scriptedProvider) RunWithTools(ctx context.Context, system, user string, tools []llm.Tool, opts llm.CompletionOptions) (string, error) {
	p.userInput = user
	p.opts = opts
	p.toolOut = map[string]string{}
	for _, tool := range tools {
		args, ok := p.toolCalls[tool.Name]
		if !ok {
			continue
		}
		out, err := tool.Handler(ctx, json.RawMessage(args))
		if err != nil {
			out = "error: " + err.Error()
		}
		p.toolOut[tool.Name] = out
	}
	return p.answer, p.err
}

func (p *scriptedProvider) Name() string { return "scripted" }

type fakeSearcher struct {
	query string
	limit int
}

func (s *fakeSearcher) Search(ctx context.Context, query string, maxResults int) ([]models.SearchResult, []models.Warning) {
	s.query, s.limit = query, maxResults
	return []models.SearchResult{{URL: "https://www.who.int/a", Title: "WHO"}}, nil
}

type fakeFetcher struct{}

func (fakeFetcher) FetchDoc(ctx context.Context, url string) *models.SiteDoc {
	return &models.SiteDoc{SourceURL: url, Title: "Page", Markdown: strings.Repeat("x", maxToolDocChars+50)}
}

const twoPassages = "Vaccines cause autism.\n\n  Vaccines are tested for safety before approval.  \n"

func TestPassages(t *testing.T) {
	assert.Equal(t, []string{"Vaccines cause autism.", "Vaccines are tested for safety before approval."}, Passages(twoPassages))
	assert.Empty(t, Passages(" \n\n "))
}

func TestAgent_Verify(t *testing.T) {
	provider := &scriptedProvider{
		answer: "```json\n" + `{"Correctness": false, "Out_of_domain": false,
			"misinfo_indices": [0, 7, -1], "rightinfo_indices": [1],
			"confidence_score": 0.90, "sources": ["https://www.who.int/a"]}` + "\n```",
		toolCalls: map[string]string{
			"search_web": `{"query":"vaccines autism","limit":50}`,
			"fetch_site": `{"url":"https://www.who.int/a"}`,
		},
	}
	searcher := &fakeSearcher{}
	agent := NewAgent(provider, searcher, fakeFetcher{}, 5, 1024)

	verdict, err := agent.Verify(context.Background(), twoPassages, []string{"https://www.cdc.gov"})
	require.NoError(t, err)

	assert.False(t, verdict.Correctness)
	assert.Equal(t, "Vaccines cause autism.", verdict.Misinfo)
	assert.Equal(t, "Vaccines are tested for safety before approval.", verdict.Rightinfo)
	assert.Equal(t, []int{0}, verdict.MisinfoIndices)
	assert.Equal(t, []int{1}, verdict.RightinfoIndices)
	assert.Equal(t, models.Confidence("0.90"), verdict.Confidence)
	assert.Equal(t, []string{"https://www.who.int/a"}, verdict.Sources)

	assert.Contains(t, provider.userInput, "0. Vaccines cause autism.")
	assert.Contains(t, provider.userInput, "1. Vaccines are tested")
	assert.Contains(t, provider.userInput, "- https://www.cdc.gov")
	assert.True(t, provider.opts.JSONMode)

	assert.Equal(t, "vaccines autism", searcher.query)
	assert.Equal(t, maxSearchLimit, searcher.limit)
	assert.Contains(t, provider.toolOut["search_web"], `"url":"https://www.who.int/a"`)

	var doc models.SiteDoc
	require.NoError(t, json.Unmarshal([]byte(provider.toolOut["fetch_site"]), &doc))
	assert.Len(t, doc.Markdown, maxToolDocChars)
}

func TestAgent_SearchToolRequiresQuery(t *testing.T) {
	provider := &scriptedProvider{
		answer:    `{"Correctness": true, "Out_of_domain": true, "misinfo_indices": [], "rightinfo_indices": [], "sources": []}`,
		toolCalls: map[string]string{"search_web": `{"limit":3}`},
	}
	agent := NewAgent(provider, &fakeSearcher{}, fakeFetcher{}, 5, 0)

	verdict, err := agent.Verify(context.Background(), "Best pizza toppings", nil)
	require.NoError(t, err)
	assert.Contains(t, provider.toolOut["search_web"], "query is required")

	// Out-of-domain answers without a score get the conventional one.
	assert.True(t, verdict.OutOfDomain)
	assert.Equal(t, models.ConfidenceOutOfDomain, verdict.Confidence)
	assert.Empty(t, verdict.Misinfo)
	assert.Empty(t, verdict.Rightinfo)
	assert.NotContains(t, provider.userInput, "USER-TRUSTED")
}

func TestAgent_BadAnswers(t *testing.T) {
	cases := map[string]string{
		"no json":          "I could not verify this.",
		"broken json":      `Here you go: {"Correctness": tru}`,
		"confidence range": `{"Correctness": true, "confidence_score": "1.5"}`,
		"confidence text":  `{"Correctness": true, "confidence_score": "high"}`,
		"missing score":    `{"Correctness": true, "Out_of_domain": false}`,
	}
	for name, answer := range cases {
		t.Run(name, func(t *testing.T) {
			agent := NewAgent(&scriptedProvider{answer: answer}, &fakeSearcher{}, fakeFetcher{}, 5, 0)
			_, err := agent.Verify(context.Background(), "Vaccines cause autism", nil)
			assert.Error(t, err)
		})
	}
}

func TestAgent_ProviderError(t *testing.T) {
	agent := NewAgent(&scriptedProvider{err: llm.ErrToolRounds}, &fakeSearcher{}, fakeFetcher{}, 5, 0)
	_, err := agent.Verify(context.Background(), "Vaccines cause autism", nil)
	assert.ErrorIs(t, err, llm.ErrToolRounds)

	_, err = agent.Verify(context.Background(), "\n\n", nil)
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestParseAgentOutput_EmbeddedObject(t *testing.T) {
	out, err := parseAgentOutput(`Result follows {"Correctness": true, "confidence_score": "0.7", "rightinfo_indices": [0]} done`)
	require.NoError(t, err)
	assert.True(t, out.Correctness)
	assert.Equal(t, models.Confidence("0.7"), out.Confidence)
	assert.Equal(t, []int{0}, out.RightinfoIndices)
}
