package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"
	"github.com/temoto/robotstxt"
)

// robotsChecker answers robots.txt questions, caching one parsed file per host.
type robotsChecker struct {
	httpClient *http.Client
	userAgent  string
	agentToken string
	cache      *gocache.Cache
}

func newRobotsChecker(client *http.Client, userAgent string, ttl time.Duration) *robotsChecker {
	return &robotsChecker{
		httpClient: client,
		userAgent:  userAgent,
		agentToken: productToken(userAgent),
		cache:      gocache.New(ttl, 2*ttl),
	}
}

// allowed reports whether u may be fetched. An unreachable robots.txt allows.
func (r *robotsChecker) allowed(ctx context.Context, u *url.URL) bool {
	data, err := r.robots(ctx, u)
	if err != nil {
		log.Debug().Err(err).Str("host", u.Host).Msg("robots.txt unavailable, allowing")
		return true
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	return data.TestAgent(path, r.agentToken)
}

func (r *robotsChecker) robots(ctx context.Context, u *url.URL) (*robotstxt.RobotsData, error) {
	key := u.Scheme + "://" + u.Host
	if v, ok := r.cache.Get(key); ok {
		return v.(*robotstxt.RobotsData), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, key+"/robots.txt", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch robots.txt: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("parse robots.txt: %w", err)
	}
	r.cache.SetDefault(key, data)
	return data, nil
}

// productToken reduces "claimradar/1.0 (+url)" to "claimradar" for group matching.
func productToken(ua string) string {
	parts := strings.Fields(ua)
	if len(parts) == 0 {
		return ua
	}
	return strings.Split(parts[0], "/")[0]
}
