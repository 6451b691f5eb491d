// Package search provides web search and page fetching for the verification agent.
package search

import (
	"context"
	"time"

	"github.com/factchecker/claimradar/internal/models"
)

// SearchClient defines the interface for search providers.
type SearchClient interface {
	// Search returns up to maxResults hits for query.
	Search(ctx context.Context, query string, maxResults int) ([]models.SearchResult, error)

	// Name returns the source name.
	Name() string

	// Available returns whether this client is properly configured.
	Available() bool
}

// AggregatedSearchClient searches across multiple sources.
type AggregatedSearchClient struct {
	clients []SearchClient
	timeout time.Duration
}

// NewAggregatedSearchClient creates a new aggregated search client.
func NewAggregatedSearchClient(clients ...SearchClient) *AggregatedSearchClient {
	// Filter to only available clients
	available := make([]SearchClient, 0, len(clients))
	for _, c := range clients {
		if c != nil && c.Available() {
			available = append(available, c)
		}
	}
	return &AggregatedSearchClient{clients: available, timeout: 15 * time.Second}
}

type sourceResult struct {
	Source  string
	Results []models.SearchResult
	Error   error
}

// Search queries every source concurrently and merges the hits in source
// order, dropping repeated URLs. Source failures become warnings.
func (a *AggregatedSearchClient) Search(ctx context.Context, query string, maxResultsPerSource int) ([]models.SearchResult, []models.Warning) {
	if len(a.clients) == 0 {
		return nil, []models.Warning{{Source: "search", Message: "No search sources configured"}}
	}

	ch := make(chan sourceResult, len(a.clients))
	for _, client := range a.clients {
		go func(c SearchClient) {
			results, err := c.Search(ctx, query, maxResultsPerSource)
			ch <- sourceResult{Source: c.Name(), Results: results, Error: err}
		}(client)
	}

	bySource := make(map[string][]models.SearchResult, len(a.clients))
	var warnings []models.Warning

	timeout := time.After(a.timeout)
collect:
	for i := 0; i < len(a.clients); i++ {
		select {
		case r := <-ch:
			if r.Error != nil {
				warnings = append(warnings, models.Warning{Source: r.Source, Message: r.Error.Error()})
				continue
			}
			bySource[r.Source] = r.Results
		case <-timeout:
			warnings = append(warnings, models.Warning{Source: "search", Message: "Some sources timed out"})
			break collect
		case <-ctx.Done():
			warnings = append(warnings, models.Warning{Source: "search", Message: "Search cancelled"})
			break collect
		}
	}

	seen := make(map[string]bool)
	var merged []models.SearchResult
	for _, c := range a.clients {
		for _, r := range bySource[c.Name()] {
			if r.URL == "" || seen[r.URL] {
				continue
			}
			seen[r.URL] = true
			merged = append(merged, r)
		}
	}
	return merged, warnings
}

// HasClients returns whether any search clients are available.
func (a *AggregatedSearchClient) HasClients() bool {
	return len(a.clients) > 0
}
