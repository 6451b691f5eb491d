package search

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/factchecker/claimradar/internal/config"
	"github.com/factchecker/claimradar/internal/models"
	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"
)

var (
	// ErrDisallowed is returned when robots.txt forbids fetching a URL.
	ErrDisallowed = errors.New("disallowed by robots.txt")

	// ErrUnsupportedURL is returned for non-HTTP(S) or malformed URLs.
	ErrUnsupportedURL = errors.New("unsupported URL")
)

// Fetcher downloads pages and converts them to lightweight markdown.
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	robots     *robotsChecker
	limiter    *hostLimiter
	pages      *gocache.Cache
}

// NewFetcher creates a Fetcher from cfg.
func NewFetcher(cfg config.FetchConfig) *Fetcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	maxBytes := cfg.MaxBytes
	if maxBytes <= 0 {
		maxBytes = 500 * 1024
	}

	client := &http.Client{Timeout: timeout}
	f := &Fetcher{
		httpClient: client,
		userAgent:  cfg.UserAgent,
		maxBytes:   maxBytes,
		limiter:    newHostLimiter(cfg.RequestsPerSecond, cfg.Burst),
		pages:      gocache.New(ttl, 2*ttl),
	}
	if cfg.RespectRobots {
		f.robots = newRobotsChecker(client, cfg.UserAgent, ttl)
	}
	return f
}

// Fetch downloads rawURL and returns its readable content. Results are
// memoized per URL for the cache TTL.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*models.SiteDoc, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedURL, rawURL)
	}
	key := u.String()

	if v, ok := f.pages.Get(key); ok {
		doc := *v.(*models.SiteDoc)
		return &doc, nil
	}

	if f.robots != nil && !f.robots.allowed(ctx, u) {
		return nil, fmt.Errorf("%w: %s", ErrDisallowed, key)
	}
	if err := f.limiter.Wait(ctx, u.Hostname()); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, key, nil)
	if err != nil {
		return nil, err
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", key, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", key, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	truncated := int64(len(body)) > f.maxBytes
	if truncated {
		body = body[:f.maxBytes]
	}

	contentType := resp.Header.Get("Content-Type")
	doc := &models.SiteDoc{
		SourceURL: resp.Request.URL.String(),
		FetchedAt: time.Now().UTC(),
		Metadata: map[string]string{
			"status_code":  strconv.Itoa(resp.StatusCode),
			"content_type": contentType,
			"domain":       extractDomain(key),
		},
	}
	if truncated {
		doc.Metadata["truncated"] = "true"
	}

	if strings.HasPrefix(contentType, "text/plain") {
		doc.Markdown = strings.TrimSpace(string(body))
	} else {
		title, markdown, err := extractDocument(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", key, err)
		}
		doc.Title = title
		doc.Markdown = markdown
	}

	log.Debug().Str("url", key).Int("bytes", len(body)).Bool("truncated", truncated).Msg("Fetched page")

	f.pages.SetDefault(key, doc)
	out := *doc
	return &out, nil
}

// FetchDoc is Fetch for tool use: failures come back as a document whose
// metadata carries the error, so the model can read what went wrong.
func (f *Fetcher) FetchDoc(ctx context.Context, rawURL string) *models.SiteDoc {
	doc, err := f.Fetch(ctx, rawURL)
	if err == nil {
		return doc
	}
	log.Warn().Err(err).Str("url", rawURL).Msg("Fetch failed")
	return &models.SiteDoc{
		SourceURL: rawURL,
		Title:     "Error",
		Markdown:  "Error fetching site: " + err.Error(),
		FetchedAt: time.Now().UTC(),
		Metadata:  map[string]string{"error": err.Error()},
	}
}
