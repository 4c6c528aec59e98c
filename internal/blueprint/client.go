package blueprint

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// metaPath is the template service endpoint serving objective sheet
// metadata keyed by question count.
const metaPath = "/api/v1/assets/omr/objective/meta/"

// Client fetches blueprints from the template service.
//
// Fetched blueprints are cached per question count with a TTL; templates
// are immutable once published, so the cache only exists to ride out
// service restarts and reduce fetch latency. Client is safe for concurrent
// use.
type Client struct {
	baseURL     string
	workerToken string
	httpClient  *http.Client
	cache       *gocache.Cache
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Used by tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithWorkerToken sets the X-Worker-Token header sent on every fetch.
func WithWorkerToken(token string) Option {
	return func(c *Client) { c.workerToken = token }
}

// NewClient builds a Client for the given template service base URL.
// timeout bounds each fetch; cacheTTL bounds how long a fetched blueprint
// is served from memory.
func NewClient(baseURL string, timeout, cacheTTL time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		cache:      gocache.New(cacheTTL, 2*cacheTTL),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fetch returns the validated blueprint for questionCount.
//
// Transport failures return *FetchError; structural violations return
// *InvalidError. No retry happens here — the caller decides whether to
// retry or substitute a legacy blueprint via FromLegacy.
func (c *Client) Fetch(ctx context.Context, questionCount int) (*Blueprint, error) {
	key := strconv.Itoa(questionCount)
	if cached, ok := c.cache.Get(key); ok {
		return cached.(*Blueprint), nil
	}

	u, err := url.Parse(c.baseURL + metaPath)
	if err != nil {
		return nil, &FetchError{Op: "request", Err: err}
	}
	q := u.Query()
	q.Set("question_count", key)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &FetchError{Op: "request", Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if c.workerToken != "" {
		req.Header.Set("X-Worker-Token", c.workerToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{Op: "request", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &FetchError{Op: "status", Status: resp.StatusCode}
	}

	var bp Blueprint
	if err := json.NewDecoder(resp.Body).Decode(&bp); err != nil {
		return nil, &FetchError{Op: "decode", Err: fmt.Errorf("decoding blueprint: %w", err)}
	}

	if err := bp.Validate(); err != nil {
		return nil, err
	}
	if bp.QuestionCount != questionCount {
		return nil, &InvalidError{Reason: fmt.Sprintf("requested %d questions, template declares %d",
			questionCount, bp.QuestionCount)}
	}

	c.cache.SetDefault(key, &bp)
	return &bp, nil
}
