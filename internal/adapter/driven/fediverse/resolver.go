// Package fediverse implements the ProfileResolver port: it decides whether a
// rel=me URL points at a federated social profile using a provider API
// (Bluesky) or WebFinger discovery.
package fediverse

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gregjones/httpcache"

	"github.com/ericfisherdev/streetpass/internal/domain/model"
	"github.com/ericfisherdev/streetpass/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ProfileResolver = (*Resolver)(nil)

// DefaultBlueskyAPIURL is the public Bluesky AppView.
const DefaultBlueskyAPIURL = "https://public.api.bsky.app"

// maxBodyBytes caps how much of any response body is read.
const maxBodyBytes = 1 << 20

var errDenied = errors.New("denylisted or non-http url")

// deniedHosts are large centralized platforms that never serve WebFinger
// profiles. Subdomains are denied too.
var deniedHosts = []string{
	"twitter.com",
	"x.com",
	"instagram.com",
	"github.com",
	"facebook.com",
	"youtube.com",
	"tiktok.com",
	"linkedin.com",
}

// Resolver classifies URLs. It holds no state between calls.
type Resolver struct {
	http       *http.Client
	blueskyAPI *url.URL
	logger     *slog.Logger
}

// NewResolver creates a Resolver with the following transport stack:
//  1. httpcache over an LRU of cacheEntries responses (honors Cache-Control and ETag)
//  2. http.DefaultTransport
//
// timeout bounds each outbound request, including redirects.
func NewResolver(timeout time.Duration, cacheEntries int, blueskyAPIURL string, logger *slog.Logger) (*Resolver, error) {
	cache, err := NewLRUCache(cacheEntries)
	if err != nil {
		return nil, err
	}

	client := &http.Client{
		Transport: httpcache.NewTransport(cache),
		Timeout:   timeout,
	}
	return NewResolverWithHTTPClient(client, blueskyAPIURL, logger)
}

// NewResolverWithHTTPClient creates a Resolver with a custom http.Client.
// Tests use it to point the resolver at an httptest server.
func NewResolverWithHTTPClient(httpClient *http.Client, blueskyAPIURL string, logger *slog.Logger) (*Resolver, error) {
	if blueskyAPIURL == "" {
		blueskyAPIURL = DefaultBlueskyAPIURL
	}
	u, err := url.Parse(blueskyAPIURL)
	if err != nil {
		return nil, fmt.Errorf("parsing bluesky api url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("bluesky api url %q is not absolute", blueskyAPIURL)
	}

	return &Resolver{
		http:       httpClient,
		blueskyAPI: u,
		logger:     logger,
	}, nil
}

// Resolve classifies href. Every failure (denylisted URL, transport error,
// non-2xx status, bad JSON, bad link target) yields model.NotProfile().
// Fresh cached responses are reused.
func (r *Resolver) Resolve(ctx context.Context, href string) model.ProfileData {
	return r.classify(ctx, href, false)
}

// Revalidate is Resolve with every request sent as Cache-Control: no-cache,
// so the origin is always consulted.
func (r *Resolver) Revalidate(ctx context.Context, href string) model.ProfileData {
	return r.classify(ctx, href, true)
}

func (r *Resolver) classify(ctx context.Context, href string, revalidate bool) model.ProfileData {
	profile, err := r.resolve(ctx, href, revalidate)
	if err != nil {
		r.logger.Debug("profile resolution failed", "href", href, "revalidate", revalidate, "error", err)
		return model.NotProfile()
	}
	return profile
}

func (r *Resolver) resolve(ctx context.Context, href string, revalidate bool) (model.ProfileData, error) {
	u, err := parseHTTPURL(href)
	if err != nil {
		return model.ProfileData{}, fmt.Errorf("%w: %v", errDenied, err)
	}
	if isDenied(u.Hostname()) {
		return model.ProfileData{}, fmt.Errorf("%w: %s", errDenied, u.Hostname())
	}

	if m, ok := matchBluesky(u); ok {
		profile, err := r.resolveBluesky(ctx, href, m.actor, revalidate)
		if err == nil {
			return profile, nil
		}
		if m.confirmed {
			return model.ProfileData{}, err
		}
		r.logger.Debug("speculative bluesky match failed, trying webfinger", "href", href, "error", err)
	}

	return r.resolveWebFinger(ctx, href, revalidate)
}

// get issues a GET and returns the body of a 2xx response. With revalidate
// set, a cached response is never used without asking the origin.
func (r *Resolver) get(ctx context.Context, target, accept string, revalidate bool) ([]byte, *url.URL, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("creating request for %s: %w", target, err)
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	if revalidate {
		req.Header.Set("Cache-Control", "no-cache")
	}

	resp, err := r.http.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("fetching %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, nil, fmt.Errorf("fetching %s: unexpected status %d", target, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", target, err)
	}

	// resp.Request is the last request after redirects.
	return body, resp.Request.URL, nil
}

// parseHTTPURL parses raw and requires an absolute http or https URL.
func parseHTTPURL(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("scheme %q is not http(s)", u.Scheme)
	}
	if u.Host == "" {
		return nil, errors.New("missing host")
	}
	return u, nil
}

func isDenied(host string) bool {
	host = strings.TrimPrefix(strings.ToLower(host), "www.")
	for _, d := range deniedHosts {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}
