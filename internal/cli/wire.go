package cli

import (
	"fmt"

	"github.com/factchecker/claimradar/internal/config"
	"github.com/factchecker/claimradar/internal/database"
	"github.com/factchecker/claimradar/internal/llm"
	"github.com/factchecker/claimradar/internal/search"
	"github.com/factchecker/claimradar/internal/summarize"
	"github.com/factchecker/claimradar/internal/verify"
	"github.com/rs/zerolog/log"
)

// services holds the components shared by serve and check.
type services struct {
	store      database.Store
	engine     *verify.Engine
	summarizer *summarize.Summarizer
}

func (s *services) Close() error {
	return s.store.Close()
}

// buildServices wires the store, the model provider, search and the engine.
// A store that fails to open degrades to an unavailable store.
func buildServices(cfg *config.Config) (*services, error) {
	store, err := database.Open(cfg.Database)
	if err != nil {
		log.Warn().Err(err).Msg("Continuing without verification cache")
	}

	provider, err := llm.NewProvider(&cfg.LLM)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("create LLM provider: %w", err)
	}

	var clients []search.SearchClient
	if cfg.Search.DuckDuckGo {
		clients = append(clients, search.NewDuckDuckGoClient())
	}
	if cfg.Search.Serper.Enabled {
		clients = append(clients, search.NewSerperClient(cfg.Search.Serper.APIKey, cfg.Search.Serper.URL))
	}
	searcher := search.NewAggregatedSearchClient(clients...)
	if !searcher.HasClients() {
		log.Warn().Msg("No search sources enabled, the agent can only use trusted resources")
	}

	agent := verify.NewAgent(provider, searcher, search.NewFetcher(cfg.Fetch), cfg.Search.MaxResults, cfg.LLM.MaxTokens)

	log.Info().
		Str("store", cfg.Database.Driver).
		Str("llm", provider.Name()).
		Int("search_sources", len(clients)).
		Float64("similarity_threshold", cfg.Cache.SimilarityThreshold).
		Msg("Services initialized")

	return &services{
		store:      store,
		engine:     verify.NewEngine(store, agent, cfg.Cache),
		summarizer: summarize.New(provider, summarize.NewTokenCounter(cfg.Summarizer.Encoding), cfg.Summarizer),
	}, nil
}
