package verify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/factchecker/claimradar/internal/llm"
	"github.com/factchecker/claimradar/internal/models"
	"github.com/rs/zerolog/log"
)

const (
	// PassageSeparator joins the passages quoted in a verdict.
	PassageSeparator = " | "

	maxSearchLimit  = 10
	maxToolDocChars = 20000
)

var codeFence = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)\\s*```")

// Searcher runs a web search across the configured sources.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]models.SearchResult, []models.Warning)
}

// PageFetcher downloads a page for the model. Failures are reported inside
// the returned document.
type PageFetcher interface {
	FetchDoc(ctx context.Context, url string) *models.SiteDoc
}

// Agent verifies text with an LLM that can search the web and read pages.
type Agent struct {
	provider   llm.Provider
	searcher   Searcher
	fetcher    PageFetcher
	maxResults int
	maxTokens  int
}

// NewAgent creates an agent. maxResults is the default search_web limit.
func NewAgent(provider llm.Provider, searcher Searcher, fetcher PageFetcher, maxResults, maxTokens int) *Agent {
	if maxResults <= 0 {
		maxResults = 5
	}
	return &Agent{
		provider:   provider,
		searcher:   searcher,
		fetcher:    fetcher,
		maxResults: maxResults,
		maxTokens:  maxTokens,
	}
}

// Passages splits text into the non-empty trimmed lines the model classifies.
func Passages(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// Verify runs the model over the numbered passages of text.
func (a *Agent) Verify(ctx context.Context, text string, resources []string) (*models.VerdictPayload, error) {
	passages := Passages(text)
	if len(passages) == 0 {
		return nil, ErrEmptyText
	}

	answer, err := a.provider.RunWithTools(ctx, agentSystemPrompt, buildUserPrompt(passages, resources), a.tools(), llm.CompletionOptions{
		MaxTokens: a.maxTokens,
		JSONMode:  true,
	})
	if err != nil {
		return nil, err
	}

	out, err := parseAgentOutput(answer)
	if err != nil {
		log.Debug().Str("answer", answer).Msg("Unparseable agent answer")
		return nil, err
	}
	return BuildVerdict(out, passages)
}

func buildUserPrompt(passages, resources []string) string {
	var numbered strings.Builder
	for i, p := range passages {
		fmt.Fprintf(&numbered, "%d. %s\n", i, p)
	}

	var trusted string
	if len(resources) > 0 {
		var sb strings.Builder
		sb.WriteString("\nUSER-TRUSTED RESOURCES (fetch these first):\n")
		for _, r := range resources {
			fmt.Fprintf(&sb, "- %s\n", r)
		}
		trusted = sb.String()
	}
	return fmt.Sprintf(agentUserPrompt, numbered.String(), trusted)
}

// BuildVerdict maps the model's index lists back onto passages. Indices that
// do not name a passage are dropped.
func BuildVerdict(out *models.AgentOutput, passages []string) (*models.VerdictPayload, error) {
	confidence := out.Confidence
	if out.OutOfDomain && confidence == "" {
		confidence = models.ConfidenceOutOfDomain
	}
	if err := confidence.Validate(); err != nil {
		return nil, err
	}

	misIdx, misinfo := pick(out.MisinfoIndices, passages)
	rightIdx, rightinfo := pick(out.RightinfoIndices, passages)

	sources := out.Sources
	if sources == nil {
		sources = []string{}
	}

	return &models.VerdictPayload{
		Correctness:      out.Correctness,
		OutOfDomain:      out.OutOfDomain,
		Misinfo:          strings.Join(misinfo, PassageSeparator),
		Rightinfo:        strings.Join(rightinfo, PassageSeparator),
		MisinfoIndices:   misIdx,
		RightinfoIndices: rightIdx,
		Confidence:       confidence,
		Sources:          sources,
	}, nil
}

func pick(indices []int, passages []string) ([]int, []string) {
	kept := []int{}
	var texts []string
	for _, i := range indices {
		if i < 0 || i >= len(passages) {
			continue
		}
		kept = append(kept, i)
		texts = append(texts, passages[i])
	}
	return kept, texts
}

func parseAgentOutput(response string) (*models.AgentOutput, error) {
	response = strings.TrimSpace(response)

	// Handle markdown code blocks
	if strings.HasPrefix(response, "```") {
		if matches := codeFence.FindStringSubmatch(response); len(matches) > 1 {
			response = matches[1]
		}
	}

	var out models.AgentOutput
	if err := json.Unmarshal([]byte(response), &out); err != nil {
		// Try to find JSON object in response
		start := strings.Index(response, "{")
		end := strings.LastIndex(response, "}")
		if start < 0 || end <= start {
			return nil, errors.New("no JSON found in agent answer")
		}
		if err := json.Unmarshal([]byte(response[start:end+1]), &out); err != nil {
			return nil, fmt.Errorf("invalid JSON in agent answer: %w", err)
		}
	}
	return &out, nil
}

func (a *Agent) tools() []llm.Tool {
	return []llm.Tool{
		{
			Name:        "search_web",
			Description: "Search the web. Returns a list of results with url, title and snippet.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{"type": "string", "description": "Search query with keywords for the claim"},
					"limit": map[string]any{"type": "integer", "description": "Maximum number of results (1-10)"},
				},
				"required": []string{"query"},
			},
			Handler: a.searchTool,
		},
		{
			Name:        "fetch_site",
			Description: "Download a web page and return its title and markdown content.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"url": map[string]any{"type": "string", "description": "Absolute http(s) URL"},
				},
				"required": []string{"url"},
			},
			Handler: a.fetchTool,
		},
	}
}

type searchToolOutput struct {
	Query    string                `json:"query"`
	Results  []models.SearchResult `json:"results"`
	Warnings []models.Warning      `json:"warnings,omitempty"`
}

func (a *Agent) searchTool(ctx context.Context, args json.RawMessage) (string, error) {
	var in struct {
		Query string `json:"query"`
		Limit int    `json:"limit"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}
	if strings.TrimSpace(in.Query) == "" {
		return "", errors.New("query is required")
	}
	limit := in.Limit
	if limit <= 0 {
		limit = a.maxResults
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	results, warnings := a.searcher.Search(ctx, in.Query, limit)
	if len(results) > limit {
		results = results[:limit]
	}
	if results == nil {
		results = []models.SearchResult{}
	}
	data, err := json.Marshal(searchToolOutput{Query: in.Query, Results: results, Warnings: warnings})
	return string(data), err
}

func (a *Agent) fetchTool(ctx context.Context, args json.RawMessage) (string, error) {
	var in struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(args, &in); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}

	doc := a.fetcher.FetchDoc(ctx, in.URL)
	if r := []rune(doc.Markdown); len(r) > maxToolDocChars {
		trimmed := *doc
		trimmed.Markdown = string(r[:maxToolDocChars])
		doc = &trimmed
	}
	data, err := json.Marshal(doc)
	return string(data), err
}
