package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/factchecker/claimradar/internal/models"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"
)

const (
	ddgHTMLURL = "https://html.duckduckgo.com/html/"
	ddgAPIURL  = "https://api.duckduckgo.com/"
	browserUA  = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

var (
	ddgLinkPattern    = regexp.MustCompile(`<a[^>]*class="result__a"[^>]*href="([^"]*)"[^>]*>([^<]+)</a>`)
	ddgSnippetPattern = regexp.MustCompile(`<a[^>]*class="result__snippet"[^>]*>([^<]+)</a>`)
)

// DuckDuckGoClient searches DuckDuckGo. It needs no API key.
type DuckDuckGoClient struct {
	httpClient *http.Client
	htmlURL    string
	apiURL     string
	retryDelay time.Duration
}

// NewDuckDuckGoClient creates a new DuckDuckGo client.
func NewDuckDuckGoClient() *DuckDuckGoClient {
	return &DuckDuckGoClient{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		htmlURL:    ddgHTMLURL,
		apiURL:     ddgAPIURL,
		retryDelay: 500 * time.Millisecond,
	}
}

// Name returns the source name.
func (c *DuckDuckGoClient) Name() string {
	return "DuckDuckGo"
}

// Available returns true as DuckDuckGo requires no API key.
func (c *DuckDuckGoClient) Available() bool {
	return true
}

type ddgResponse struct {
	Abstract      string `json:"Abstract"`
	AbstractURL   string `json:"AbstractURL"`
	Heading       string `json:"Heading"`
	RelatedTopics []struct {
		Text     string `json:"Text"`
		FirstURL string `json:"FirstURL"`
	} `json:"RelatedTopics"`
}

// Search combines the HTML results page with the Instant Answer API, each
// tried twice, and returns unique URLs up to maxResults.
func (c *DuckDuckGoClient) Search(ctx context.Context, query string, maxResults int) ([]models.SearchResult, error) {
	if maxResults <= 0 {
		maxResults = 5
	}
	log.Debug().Str("query", query).Msg("DuckDuckGo: Searching")

	var (
		results []models.SearchResult
		lastErr error
	)

	for attempt := 0; attempt < 2; attempt++ {
		htmlResults, err := c.searchHTML(ctx, query, maxResults)
		if err == nil {
			results = append(results, htmlResults...)
			break
		}
		lastErr = err
		log.Warn().Err(err).Int("attempt", attempt+1).Msg("DuckDuckGo HTML search failed")
		if !c.wait(ctx) {
			return nil, ctx.Err()
		}
	}

	for attempt := 0; attempt < 2; attempt++ {
		instant, err := c.searchInstantAnswer(ctx, query, maxResults)
		if err == nil {
			results = append(results, instant...)
			break
		}
		lastErr = err
		if !c.wait(ctx) {
			return nil, ctx.Err()
		}
	}

	seen := make(map[string]bool)
	var unique []models.SearchResult
	for _, r := range results {
		if r.URL == "" || seen[r.URL] {
			continue
		}
		seen[r.URL] = true
		unique = append(unique, r)
		if len(unique) >= maxResults {
			break
		}
	}

	log.Debug().Int("count", len(unique)).Msg("DuckDuckGo: Search completed")

	if len(unique) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return unique, nil
}

func (c *DuckDuckGoClient) wait(ctx context.Context) bool {
	select {
	case <-time.After(c.retryDelay):
		return true
	case <-ctx.Done():
		return false
	}
}

// searchInstantAnswer uses the Instant Answer API
func (c *DuckDuckGoClient) searchInstantAnswer(ctx context.Context, query string, maxResults int) ([]models.SearchResult, error) {
	u := fmt.Sprintf("%s?q=%s&format=json&no_html=1&skip_disambig=1", c.apiURL, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", browserUA)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	var data ddgResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, err
	}

	var results []models.SearchResult
	if data.Abstract != "" && data.AbstractURL != "" {
		results = append(results, models.SearchResult{
			URL:     data.AbstractURL,
			Title:   data.Heading,
			Snippet: data.Abstract,
			Source:  c.Name(),
		})
	}
	for _, topic := range data.RelatedTopics {
		if len(results) >= maxResults {
			break
		}
		if topic.Text != "" && topic.FirstURL != "" {
			results = append(results, models.SearchResult{
				URL:     topic.FirstURL,
				Title:   topic.Text,
				Snippet: topic.Text,
				Source:  c.Name(),
			})
		}
	}
	return results, nil
}

// searchHTML parses the DuckDuckGo HTML results page.
func (c *DuckDuckGoClient) searchHTML(ctx context.Context, query string, maxResults int) ([]models.SearchResult, error) {
	u := fmt.Sprintf("%s?q=%s", c.htmlURL, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", browserUA)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return nil, err
	}
	return parseHTMLResults(string(body), maxResults, c.Name()), nil
}

func parseHTMLResults(page string, maxResults int, source string) []models.SearchResult {
	linkMatches := ddgLinkPattern.FindAllStringSubmatch(page, -1)
	snippetMatches := ddgSnippetPattern.FindAllStringSubmatch(page, -1)

	var results []models.SearchResult
	for i, match := range linkMatches {
		if len(results) >= maxResults {
			break
		}
		actualURL := decodeRedirectURL(html.UnescapeString(match[1]))
		if actualURL == "" || strings.HasPrefix(actualURL, "//duckduckgo.com") {
			continue
		}

		snippet := ""
		if i < len(snippetMatches) {
			snippet = strings.TrimSpace(html.UnescapeString(snippetMatches[i][1]))
		}

		results = append(results, models.SearchResult{
			URL:     actualURL,
			Title:   strings.TrimSpace(html.UnescapeString(match[2])),
			Snippet: snippet,
			Source:  source,
		})
	}
	return results
}

// decodeRedirectURL extracts actual URL from DuckDuckGo redirect
func decodeRedirectURL(rawURL string) string {
	if !strings.Contains(rawURL, "uddg=") {
		return rawURL
	}
	if u, err := url.Parse(rawURL); err == nil {
		if target := u.Query().Get("uddg"); target != "" {
			return target
		}
	}
	decoded, err := url.QueryUnescape(rawURL)
	if err != nil {
		return rawURL
	}
	idx := strings.Index(decoded, "uddg=")
	if idx < 0 {
		return rawURL
	}
	actualURL := decoded[idx+5:]
	if ampIdx := strings.Index(actualURL, "&"); ampIdx >= 0 {
		actualURL = actualURL[:ampIdx]
	}
	return actualURL
}

// extractDomain extracts domain name from URL for source attribution
func extractDomain(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(parsed.Hostname(), "www.")
}
