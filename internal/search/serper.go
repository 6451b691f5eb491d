package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/factchecker/claimradar/internal/models"
	"github.com/rs/zerolog/log"
)

const defaultSerperURL = "https://google.serper.dev/search"

// SerperClient queries the Serper Google Search API.
type SerperClient struct {
	httpClient *http.Client
	apiKey     string
	endpoint   string
}

// NewSerperClient creates a Serper client. An empty endpoint uses the public API.
func NewSerperClient(apiKey, endpoint string) *SerperClient {
	if endpoint == "" {
		endpoint = defaultSerperURL
	}
	return &SerperClient{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		apiKey:     apiKey,
		endpoint:   endpoint,
	}
}

// Name returns the source name.
func (c *SerperClient) Name() string {
	return "Serper"
}

// Available returns true when an API key is configured.
func (c *SerperClient) Available() bool {
	return c.apiKey != ""
}

type serperRequest struct {
	Q   string `json:"q"`
	Num int    `json:"num"`
}

type serperResponse struct {
	Organic []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"organic"`
}

// Search returns organic results for query.
func (c *SerperClient) Search(ctx context.Context, query string, maxResults int) ([]models.SearchResult, error) {
	if maxResults <= 0 {
		maxResults = 5
	}
	body, err := json.Marshal(serperRequest{Q: query, Num: maxResults})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("serper request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("serper status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var data serperResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode serper response: %w", err)
	}

	results := make([]models.SearchResult, 0, len(data.Organic))
	for _, r := range data.Organic {
		if r.Link == "" {
			continue
		}
		results = append(results, models.SearchResult{
			URL:     r.Link,
			Title:   r.Title,
			Snippet: r.Snippet,
			Source:  c.Name(),
		})
		if len(results) >= maxResults {
			break
		}
	}

	log.Debug().Str("query", query).Int("count", len(results)).Msg("Serper: Search completed")
	return results, nil
}
